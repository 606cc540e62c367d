package planserver

import (
	"encoding/json"
	"time"
)

// PlanPayload is the wire form of one remote plan row.
type PlanPayload struct {
	WeekStart string          `json:"weekStart,omitempty"`
	Plan      json.RawMessage `json:"plan"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PlanListItem describes a stored week without its document.
type PlanListItem struct {
	WeekStart string    `json:"weekStart"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type errorResponse struct {
	Error string `json:"error"`
}
