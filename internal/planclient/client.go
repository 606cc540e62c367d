// Package planclient talks to the plan server on behalf of one session.
package planclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"shopping-planner/internal/planner"
	"shopping-planner/internal/planserver"
)

// ErrNoToken is returned when the session has no bearer token.
var ErrNoToken = errors.New("session has no token")

// TokenSource yields the bearer token of the current session.
type TokenSource interface {
	Token() string
}

// Client is a remote store backed by the plan server. The server scopes every row to the
// token's subject, so ownerID only labels errors.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	tokens     TokenSource
}

// New creates a Client with default settings.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		tokens: tokens,
	}
}

// Load fetches a week. A missing row is nil, nil.
func (c *Client) Load(ctx context.Context, ownerID, weekISO string) (*planner.Stored, error) {
	var payload planserver.PlanPayload
	status, err := c.do(ctx, http.MethodGet, "/v1/plans/"+weekISO, nil, &payload)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %s/%s: %w", ownerID, weekISO, err)
	}

	plan, err := planner.DecodeWeek(payload.Plan)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %s/%s: %w", ownerID, weekISO, err)
	}
	return &planner.Stored{SavedAt: payload.UpdatedAt, Plan: plan}, nil
}

// Save upserts a week.
func (c *Client) Save(ctx context.Context, ownerID, weekISO string, plan planner.WeekPlan, savedAt time.Time) error {
	if plan == nil {
		plan = planner.WeekPlan{}
	}
	body, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	payload := planserver.PlanPayload{Plan: body, UpdatedAt: savedAt.UTC()}
	if _, err := c.do(ctx, http.MethodPut, "/v1/plans/"+weekISO, payload, nil); err != nil {
		return fmt.Errorf("failed to save plan %s/%s: %w", ownerID, weekISO, err)
	}
	return nil
}

// List returns the most recent stored weeks of the session's user.
func (c *Client) List(ctx context.Context, limit int) ([]planserver.PlanListItem, error) {
	var items []planserver.PlanListItem
	if _, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/plans?limit=%d", limit), nil, &items); err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return items, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, response interface{}) (int, error) {
	token := c.tokens.Token()
	if token == "" {
		return 0, ErrNoToken
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, reqBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res.StatusCode, errors.New("unexpected status code: " + res.Status)
	}
	if response != nil {
		if err := json.NewDecoder(res.Body).Decode(response); err != nil {
			return res.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return res.StatusCode, nil
}

// StaticToken is a TokenSource holding a fixed token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }
