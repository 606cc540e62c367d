package planserver

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"shopping-planner/internal/planner"
	"shopping-planner/internal/week"
)

const (
	weekPathVar    = "week"
	limitQueryArg  = "limit"
	defaultListLen = 12
	maxBodyBytes   = 1 << 20
)

// PlanStore is the durable store behind the server.
type PlanStore interface {
	Load(ctx context.Context, ownerID, weekStart string) (*planner.Stored, error)
	Save(ctx context.Context, ownerID, weekStart string, plan planner.WeekPlan, savedAt time.Time) error
	ListRecentByOwner(ctx context.Context, ownerID string, limit int) ([]planner.PlanSummary, error)
}

// PlanHandler serves the plan rows of the authenticated owner.
type PlanHandler struct {
	store PlanStore
	now   func() time.Time
}

func NewPlanHandler(store PlanStore) *PlanHandler {
	return &PlanHandler{store: store, now: time.Now}
}

func (h *PlanHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetPlan returns the caller's plan of one week.
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())
	k, ok := weekFrom(w, r)
	if !ok {
		return
	}

	stored, err := h.store.Load(r.Context(), owner, k.String())
	if err != nil {
		log.Println("Error loading plan:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if stored == nil {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	body, err := json.Marshal(stored.Plan)
	if err != nil {
		log.Println("Error encoding plan:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, PlanPayload{WeekStart: k.String(), Plan: body, UpdatedAt: stored.SavedAt.UTC()})
}

// PutPlan upserts the caller's plan of one week. A missing updatedAt is stamped with
// the server time.
func (h *PlanHandler) PutPlan(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())
	k, ok := weekFrom(w, r)
	if !ok {
		return
	}

	var payload PlanPayload
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	plan, err := planner.DecodeWeek(payload.Plan)
	if err != nil {
		writeError(w, http.StatusBadRequest, "plan must be an object")
		return
	}
	savedAt := payload.UpdatedAt
	if savedAt.IsZero() {
		savedAt = h.now()
	}

	if err := h.store.Save(r.Context(), owner, k.String(), plan, savedAt); err != nil {
		log.Println("Error saving plan:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListPlans returns the caller's most recent weeks.
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	owner := ownerFrom(r.Context())
	limit := defaultListLen
	if v := r.URL.Query().Get(limitQueryArg); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid argument "+limitQueryArg)
			return
		}
		limit = n
	}

	summaries, err := h.store.ListRecentByOwner(r.Context(), owner, limit)
	if err != nil {
		log.Println("Error listing plans:", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	items := make([]PlanListItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, PlanListItem{WeekStart: s.WeekStart, UpdatedAt: s.UpdatedAt.UTC()})
	}
	writeJSON(w, http.StatusOK, items)
}

func weekFrom(w http.ResponseWriter, r *http.Request) (week.Key, bool) {
	k, err := week.ParseKey(mux.Vars(r)[weekPathVar])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return k, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("Error encoding response:", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
