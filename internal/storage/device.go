package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"shopping-planner/internal/planner"
)

const (
	// FormatVersion is the envelope version written by this package.
	FormatVersion = 1

	keyPrefix = "shopping-week:v1"
)

// envelope is the serialized form of a device entry.
type envelope struct {
	FormatVersion int             `json:"formatVersion"`
	SavedAt       time.Time       `json:"savedAt"`
	Document      json.RawMessage `json:"document"`
}

// DeviceKey builds the composite key of a (identity, week) entry.
func DeviceKey(identity, weekISO string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, identity, weekISO)
}

// DeviceStore persists week plans on the local device.
type DeviceStore struct {
	kv  KV
	now func() time.Time
}

// NewDeviceStore wraps kv. A nil now uses time.Now.
func NewDeviceStore(kv KV, now func() time.Time) *DeviceStore {
	if now == nil {
		now = time.Now
	}
	return &DeviceStore{kv: kv, now: now}
}

// Read returns the stored entry or nil when it is missing, unreadable or malformed.
func (d *DeviceStore) Read(ctx context.Context, identity, weekISO string) *planner.Stored {
	key := DeviceKey(identity, weekISO)
	raw, err := d.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("device: read %s: %v", key, err)
		}
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("device: discarding unreadable entry %s: %v", key, err)
		return nil
	}
	if env.FormatVersion != FormatVersion || env.SavedAt.IsZero() || isNullJSON(env.Document) {
		log.Printf("device: discarding invalid entry %s", key)
		return nil
	}

	doc, err := planner.DecodeWeek(env.Document)
	if err != nil {
		log.Printf("device: discarding entry %s: %v", key, err)
		return nil
	}
	return &planner.Stored{SavedAt: env.SavedAt, Plan: doc}
}

// Write stores doc under a fresh envelope stamped with the current time and returns that
// time. Callers treat a failed write as non-fatal: in-memory state stays authoritative.
func (d *DeviceStore) Write(ctx context.Context, identity, weekISO string, doc planner.WeekPlan) (time.Time, error) {
	savedAt := d.now().UTC()
	if doc == nil {
		doc = planner.WeekPlan{}
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return savedAt, fmt.Errorf("failed to encode plan: %w", err)
	}
	raw, err := json.Marshal(envelope{FormatVersion: FormatVersion, SavedAt: savedAt, Document: body})
	if err != nil {
		return savedAt, fmt.Errorf("failed to encode envelope: %w", err)
	}
	if err := d.kv.Set(ctx, DeviceKey(identity, weekISO), raw); err != nil {
		return savedAt, err
	}
	return savedAt, nil
}

// Delete removes the (identity, week) entry.
func (d *DeviceStore) Delete(ctx context.Context, identity, weekISO string) error {
	return d.kv.Delete(ctx, DeviceKey(identity, weekISO))
}

func isNullJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
