package recipe

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"shopping-planner/internal/ghost"
)

// ErrNoIngredients is returned for documents without an ingredient list.
var ErrNoIngredients = errors.New("no ingredient list found")

var ingredientsHeading = regexp.MustCompile(`(?i)^\s*(ingredients|ingredience|suroviny)\b`)

// Importer turns recipe HTML into Recipes.
type Importer struct{}

func NewImporter() *Importer {
	return &Importer{}
}

// FromPost imports a Ghost post. The post id becomes the recipe id.
func (im *Importer) FromPost(post ghost.Post) (Recipe, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(post.HTML))
	if err != nil {
		return Recipe{}, fmt.Errorf("failed to parse post %s: %w", post.ID, err)
	}
	lines := ingredientLines(doc)
	if len(lines) == 0 {
		return Recipe{}, fmt.Errorf("post %s: %w", post.ID, ErrNoIngredients)
	}

	updatedAt, err := time.Parse(time.RFC3339, post.UpdatedAt)
	if err != nil {
		updatedAt = time.Now()
	}
	return Recipe{
		ID:              post.ID,
		Name:            cleanText(post.Title),
		IngredientLines: lines,
		UpdatedAt:       updatedAt.UTC(),
	}, nil
}

// FromHTML imports a whole page. The name is taken from the first <h1>, then <title>.
func (im *Importer) FromHTML(id string, r io.Reader) (Recipe, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Recipe{}, fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Find("script, style, nav, footer, iframe, .ads, #ads").Remove()

	lines := ingredientLines(doc)
	if len(lines) == 0 {
		return Recipe{}, ErrNoIngredients
	}
	name := cleanText(doc.Find("h1").First().Text())
	if name == "" {
		name = cleanText(doc.Find("title").First().Text())
	}
	return Recipe{ID: id, Name: name, IngredientLines: lines, UpdatedAt: time.Now().UTC()}, nil
}

// ingredientLines returns the items of the first list following an ingredients heading,
// falling back to the first list of the document.
func ingredientLines(doc *goquery.Document) []string {
	var list *goquery.Selection
	doc.Find("h1, h2, h3, h4, p > strong").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !ingredientsHeading.MatchString(s.Text()) {
			return true
		}
		heading := s
		if goquery.NodeName(s) == "strong" {
			heading = s.Parent()
		}
		next := heading.NextAllFiltered("ul, ol").First()
		if next.Length() > 0 {
			list = next
			return false
		}
		return true
	})
	if list == nil {
		list = doc.Find("ul").First()
	}

	var lines []string
	list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		if text := cleanText(li.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	return lines
}
