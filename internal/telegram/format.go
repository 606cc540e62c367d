package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"shopping-planner/internal/planner"
	"shopping-planner/internal/shopping"
	"shopping-planner/internal/week"
	"shopping-planner/internal/weeksync"
)

var errUnknownDay = errors.New("unknown day, use mon..sun, 1..7 or a date of the week")

var weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

var mealIcons = map[planner.Meal]string{
	planner.MealBreakfast: "🍳",
	planner.MealLunch:     "🍲",
	planner.MealDinner:    "🍽",
}

const helpText = `🛒 *Weekly Shopping Planner*

/week (n) - show or jump to week n
/next, /prev - move one week
/plan - the week with numbered items
/list - consolidated shopping list
/assign <day> <meal> <recipe> - plan a recipe
/clear <day> <meal> - empty a meal
/add <day> <name> (@vendor) <amount> <unit> - add an item
/toggle <n> - check or uncheck item n
/remove <n> - remove added item n
/recipes (query) - browse recipes
/ingredients - known ingredients
/clip <url> - import a recipe page
/login <token>, /logout - sync with your account`

// parseCommand splits "/cmd@bot a b" into "cmd" and its arguments.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	cmd := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), fields[1:]
}

// parseDay maps a weekday name, a 1-based day number or an ISO date to a day of k.
func parseDay(k week.Key, s string) (string, error) {
	days := k.Days()
	s = strings.ToLower(s)
	for i, name := range weekdays {
		if strings.HasPrefix(s, name) {
			return days[i], nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > len(days) {
			return "", errUnknownDay
		}
		return days[n-1], nil
	}
	for _, d := range days {
		if d == s {
			return d, nil
		}
	}
	return "", errUnknownDay
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || v <= 0 {
		return 0, planner.ErrInvalidAmount
	}
	return v, nil
}

// parseExtra reads "<name...> [@vendor] <amount> <unit>".
func parseExtra(args []string) (name, vendor string, amount float64, unit planner.Unit, err error) {
	if len(args) < 3 {
		return "", "", 0, "", errors.New("usage: /add <day> <name> [@vendor] <amount> <unit>")
	}
	n := len(args)
	var ok bool
	if unit, ok = planner.ParseUnit(args[n-1]); !ok {
		return "", "", 0, "", fmt.Errorf("unknown unit %q, use g, ml or ks", args[n-1])
	}
	if amount, err = parseAmount(args[n-2]); err != nil {
		return "", "", 0, "", err
	}
	var words []string
	for _, w := range args[:n-2] {
		if strings.HasPrefix(w, "@") && len(w) > 1 {
			vendor = strings.TrimPrefix(w, "@")
			continue
		}
		words = append(words, w)
	}
	name = strings.Join(words, " ")
	if name == "" {
		return "", "", 0, "", planner.ErrEmptyName
	}
	return name, vendor, amount, unit, nil
}

// numberedItem is an item as listed by /plan; its position is the number users refer to.
type numberedItem struct {
	Day  string
	Meal planner.Meal // empty for extras
	Item planner.PlannedItem
}

// numberItems lists the items of the week's days in display order.
func numberItems(k week.Key, doc planner.WeekPlan) []numberedItem {
	var out []numberedItem
	for _, day := range k.Days() {
		d, ok := doc[day]
		if !ok {
			continue
		}
		for _, m := range planner.Meals {
			for _, it := range d.Slot(m).Items {
				out = append(out, numberedItem{Day: day, Meal: m, Item: it})
			}
		}
		for _, it := range d.Extra {
			out = append(out, numberedItem{Day: day, Item: it})
		}
	}
	return out
}

// itemAt resolves the 1-based position arg against the listing of doc.
func itemAt(k week.Key, doc planner.WeekPlan, arg string) (numberedItem, error) {
	n, err := strconv.Atoi(arg)
	items := numberItems(k, doc)
	if err != nil || n < 1 || n > len(items) {
		return numberedItem{}, fmt.Errorf("no item %s, see /plan", arg)
	}
	return items[n-1], nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatItem(n int, it planner.PlannedItem) string {
	box := "☐"
	if it.Checked {
		box = "☑"
	}
	s := fmt.Sprintf("%d. %s %s %s %s", n, box, formatAmount(it.Amount), it.Unit, escape(it.Name))
	if it.Vendor != "" {
		s += " (" + escape(it.Vendor) + ")"
	}
	return s
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatWeek renders the week view. recipeNames maps recipe ids to display names.
func formatWeek(index int, v weeksync.View, recipeNames map[string]string) string {
	var sb strings.Builder
	who := "guest"
	if v.Identity.SignedIn() {
		who = escape(v.Identity.UserID)
	}
	fmt.Fprintf(&sb, "📅 *Week %d* (%s) · %s\n", index, v.Week, who)
	switch v.Status {
	case weeksync.StatusError:
		sb.WriteString("⚠️ _Last sync failed, changes are kept on this device._\n")
	case weeksync.StatusSaving:
		sb.WriteString("💾 _Saving..._\n")
	}
	if v.State != weeksync.StateHydrated {
		sb.WriteString("\n⏳ Loading...")
		return sb.String()
	}

	n := 0
	for i, day := range v.Week.Days() {
		d := v.Plan[day]
		fmt.Fprintf(&sb, "\n*%s %s*\n", capitalize(weekdays[i]), day)
		empty := true
		for _, m := range planner.Meals {
			slot := d.Slot(m)
			if slot.RecipeID == "" && len(slot.Items) == 0 {
				continue
			}
			empty = false
			name := recipeNames[slot.RecipeID]
			if name == "" {
				name = slot.RecipeID
			}
			fmt.Fprintf(&sb, "%s %s: %s\n", mealIcons[m], capitalize(string(m)), escape(name))
			for _, it := range slot.Items {
				n++
				sb.WriteString("   " + formatItem(n, it) + "\n")
			}
		}
		if len(d.Extra) > 0 {
			empty = false
			sb.WriteString("➕ Extra\n")
			for _, it := range d.Extra {
				n++
				sb.WriteString("   " + formatItem(n, it) + "\n")
			}
		}
		if empty {
			sb.WriteString("_nothing planned_\n")
		}
	}

	fmt.Fprintf(&sb, "\n🧾 %d item(s) left to buy", planner.CountUnchecked(v.Plan))
	return sb.String()
}

func formatShoppingList(lines []shopping.SummaryLine) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	if len(lines) == 0 {
		sb.WriteString("_Nothing left to buy_")
		return sb.String()
	}
	for _, l := range lines {
		sb.WriteString("• " + escape(l.String()) + "\n")
	}
	return sb.String()
}
