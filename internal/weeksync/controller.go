// Package weeksync keeps one week's shopping plan in memory and synchronizes it with the
// device store and, for signed-in users, the remote store.
package weeksync

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"shopping-planner/internal/auth"
	"shopping-planner/internal/planner"
	"shopping-planner/internal/week"
)

var (
	// ErrNotHydrated is returned by mutations issued before the current week is resolved.
	ErrNotHydrated = errors.New("plan is not loaded yet")
	// ErrClosed is returned by a closed controller.
	ErrClosed = errors.New("controller is closed")
)

// DefaultDebounce is the quiet period after the last mutation before the remote push.
const DefaultDebounce = 400 * time.Millisecond

// State is the lifecycle phase of the controller.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateResolving     State = "resolving"
	StateHydrated      State = "hydrated"
)

// Status is the advisory sync indicator shown to the user.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSaving  Status = "saving"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

// DeviceStore is the device-local persistence of week plans.
type DeviceStore interface {
	Read(ctx context.Context, identity, weekISO string) *planner.Stored
	Write(ctx context.Context, identity, weekISO string, doc planner.WeekPlan) (time.Time, error)
	Delete(ctx context.Context, identity, weekISO string) error
}

// RemoteStore is the per-user durable store. Load returns nil, nil for a missing row.
type RemoteStore interface {
	Load(ctx context.Context, ownerID, weekISO string) (*planner.Stored, error)
	Save(ctx context.Context, ownerID, weekISO string, plan planner.WeekPlan, savedAt time.Time) error
}

// Recorder receives one event per remote operation.
type Recorder interface {
	RecordSync(ctx context.Context, op, ownerID, weekISO, outcome string, latency time.Duration)
}

// View is a consistent copy of the controller's state.
type View struct {
	Identity auth.Identity
	Week     week.Key
	State    State
	Status   Status
	Plan     planner.WeekPlan
}

// Controller owns the live plan of one (identity, week) session at a time.
type Controller struct {
	device   DeviceStore
	remote   RemoteStore
	debounce time.Duration
	now      func() time.Time
	onStatus func(Status)
	recorder Recorder

	mu            sync.Mutex
	identity      auth.Identity
	identityKnown bool
	week          week.Key
	gen           uint64
	state         State
	status        Status
	doc           planner.WeekPlan
	dirty         bool
	timer         *time.Timer
	closed        bool
	unwatch       func()

	// pushMu keeps remote writes of this controller in issue order.
	pushMu sync.Mutex
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the remote push debounce window.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithClock replaces time.Now for remote timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithStatusListener registers fn for every status change.
func WithStatusListener(fn func(Status)) Option {
	return func(c *Controller) { c.onStatus = fn }
}

// WithRecorder reports remote operations to r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// New creates an uninitialized controller. remote may be nil for device-only use.
func New(device DeviceStore, remote RemoteStore, opts ...Option) *Controller {
	c := &Controller{
		device:   device,
		remote:   remote,
		debounce: DefaultDebounce,
		now:      time.Now,
		state:    StateUninitialized,
		status:   StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind follows the identity of session: the current identity is applied immediately and
// every later change starts a new resolution.
func (c *Controller) Bind(ctx context.Context, session *auth.Session) error {
	cancel := session.Watch(func(id auth.Identity) {
		if err := c.SetIdentity(context.Background(), id); err != nil && !errors.Is(err, ErrClosed) {
			log.Printf("weeksync: identity change: %v", err)
		}
	})

	c.mu.Lock()
	if c.unwatch != nil {
		c.unwatch()
	}
	c.unwatch = cancel
	c.mu.Unlock()

	return c.SetIdentity(ctx, session.Identity())
}

// SetIdentity switches the acting identity and resolves the current week for it.
func (c *Controller) SetIdentity(ctx context.Context, id auth.Identity) error {
	return c.transition(ctx, func() bool {
		return !c.identityKnown || c.identity != id
	}, func() {
		c.identity = id
		c.identityKnown = true
	})
}

// SetWeek switches the displayed week and resolves it for the current identity.
func (c *Controller) SetWeek(ctx context.Context, k week.Key) error {
	if _, err := week.ParseKey(string(k)); err != nil {
		return err
	}
	return c.transition(ctx, func() bool {
		return c.week != k
	}, func() {
		c.week = k
	})
}

// transition moves the session with apply when moved reports a change. The pending push is
// taken before apply, so it keeps the identity and week it was edited under.
func (c *Controller) transition(ctx context.Context, moved func() bool, apply func()) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !moved() {
		c.mu.Unlock()
		return nil
	}

	pending, hasPending := c.takePendingLocked()
	apply()
	c.gen++
	gen := c.gen
	ready := c.identityKnown && c.week != ""
	c.doc = nil
	if ready {
		c.state = StateResolving
	} else {
		c.state = StateUninitialized
		c.status = StatusIdle
	}
	identity, wk := c.identity, c.week
	c.mu.Unlock()

	if hasPending {
		c.pushSnapshot(ctx, pending, "flush")
	}
	if !ready {
		return nil
	}
	c.resolve(ctx, gen, identity, wk)
	return nil
}

func (c *Controller) resolve(ctx context.Context, gen uint64, identity auth.Identity, wk week.Key) {
	c.setStatus(gen, StatusLoading)
	started := time.Now()
	signedIn := identity.SignedIn()
	weekISO := wk.String()

	anon := c.device.Read(ctx, auth.AnonymousKey, weekISO)
	var user, remote *planner.Stored
	remoteFailed := false
	if signedIn {
		user = c.device.Read(ctx, identity.DeviceKey(), weekISO)
		if c.remote != nil {
			var err error
			remote, err = c.remote.Load(ctx, identity.UserID, weekISO)
			if err != nil {
				log.Printf("weeksync: remote read %s/%s: %v", identity.UserID, weekISO, err)
				remote = nil
				remoteFailed = true
			}
		}
	}

	res := planner.Resolve(signedIn, wk.Days(),
		candidate(planner.SourceAnonymousDevice, anon),
		candidate(planner.SourceUserDevice, user),
		candidate(planner.SourceRemote, remote),
	)

	if !c.current(gen) {
		c.record(ctx, "resolve", identity, weekISO, "stale", time.Since(started))
		return
	}

	savedAt, err := c.device.Write(ctx, identity.DeviceKey(), weekISO, res.Plan)
	if err != nil {
		log.Printf("weeksync: device write %s/%s: %v", identity, weekISO, err)
		savedAt = c.now().UTC()
	}
	if signedIn && c.remote != nil {
		if err := c.remote.Save(ctx, identity.UserID, weekISO, res.Plan, savedAt); err != nil {
			log.Printf("weeksync: remote write %s/%s: %v", identity.UserID, weekISO, err)
			remoteFailed = true
		}
	}
	if res.DiscardAnonymous {
		if err := c.device.Delete(ctx, auth.AnonymousKey, weekISO); err != nil {
			log.Printf("weeksync: discard guest plan %s: %v", weekISO, err)
		}
	}
	if res.Migrate {
		log.Printf("weeksync: adopted guest plan of %s into %s", weekISO, identity)
	}

	outcome := "ok"
	if remoteFailed {
		outcome = "error"
	}
	c.record(ctx, "resolve", identity, weekISO, outcome, time.Since(started))

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.doc = res.Plan
	c.state = StateHydrated
	status := StatusIdle
	if remoteFailed {
		status = StatusError
	}
	c.status = status
	c.mu.Unlock()
	c.notify(status)
}

func candidate(src planner.Source, s *planner.Stored) *planner.Candidate {
	if s == nil {
		return nil
	}
	return &planner.Candidate{Source: src, SavedAt: s.SavedAt, Plan: s.Plan}
}

// Update applies fn to a copy of the live plan. The result becomes the live plan, is written
// to the device store at once and, for a signed-in user, scheduled for a remote push.
func (c *Controller) Update(ctx context.Context, fn func(planner.WeekPlan) (planner.WeekPlan, error)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateHydrated {
		c.mu.Unlock()
		return ErrNotHydrated
	}
	next, err := fn(planner.Clone(c.doc))
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.doc = next

	if _, err := c.device.Write(ctx, c.identity.DeviceKey(), c.week.String(), next); err != nil {
		log.Printf("weeksync: device write %s/%s: %v", c.identity, c.week, err)
	}

	var status Status
	if c.identity.SignedIn() && c.remote != nil {
		c.dirty = true
		c.scheduleLocked()
		status = StatusSaving
	} else {
		status = StatusIdle
	}
	changed := c.status != status
	c.status = status
	c.mu.Unlock()

	if changed {
		c.notify(status)
	}
	return nil
}

func (c *Controller) scheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	gen := c.gen
	c.timer = time.AfterFunc(c.debounce, func() {
		c.pushCurrent(context.Background(), gen, false, "push")
	})
}

// Flush cancels the debounce timer and pushes the live plan to the remote store now.
func (c *Controller) Flush(ctx context.Context) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.pushCurrent(ctx, gen, true, "flush")
}

// Close flushes the live plan, stops following the session and rejects further calls.
func (c *Controller) Close(ctx context.Context) {
	c.Flush(ctx)

	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	unwatch := c.unwatch
	c.unwatch = nil
	c.mu.Unlock()

	if unwatch != nil {
		unwatch()
	}
}

type snapshot struct {
	gen      uint64
	identity auth.Identity
	week     week.Key
	doc      planner.WeekPlan
}

// takePendingLocked stops the timer and returns the unpushed plan, if any.
func (c *Controller) takePendingLocked() (snapshot, bool) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if !c.dirty || c.state != StateHydrated {
		return snapshot{}, false
	}
	c.dirty = false
	return snapshot{gen: c.gen, identity: c.identity, week: c.week, doc: planner.Clone(c.doc)}, true
}

func (c *Controller) pushCurrent(ctx context.Context, gen uint64, force bool, op string) {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	c.mu.Lock()
	if gen != c.gen || c.state != StateHydrated || !c.identity.SignedIn() || c.remote == nil || (!force && !c.dirty) {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.dirty = false
	snap := snapshot{gen: c.gen, identity: c.identity, week: c.week, doc: planner.Clone(c.doc)}
	changed := c.status != StatusSaving
	c.status = StatusSaving
	c.mu.Unlock()

	if changed {
		c.notify(StatusSaving)
	}
	c.save(ctx, snap, op)
}

func (c *Controller) pushSnapshot(ctx context.Context, snap snapshot, op string) {
	if c.remote == nil || !snap.identity.SignedIn() {
		return
	}
	c.pushMu.Lock()
	defer c.pushMu.Unlock()
	c.save(ctx, snap, op)
}

// save must be called with pushMu held.
func (c *Controller) save(ctx context.Context, snap snapshot, op string) {
	started := time.Now()
	err := c.remote.Save(ctx, snap.identity.UserID, snap.week.String(), snap.doc, c.now().UTC())
	outcome := "ok"
	if err != nil {
		outcome = "error"
		log.Printf("weeksync: remote %s %s/%s: %v", op, snap.identity.UserID, snap.week, err)
	}
	c.record(ctx, op, snap.identity, snap.week.String(), outcome, time.Since(started))

	c.mu.Lock()
	if snap.gen != c.gen {
		c.mu.Unlock()
		return
	}
	status := c.status
	switch {
	case err != nil:
		status = StatusError
	case !c.dirty:
		status = StatusIdle
	}
	changed := c.status != status
	c.status = status
	c.mu.Unlock()

	if changed {
		c.notify(status)
	}
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.gen
}

func (c *Controller) setStatus(gen uint64, s Status) {
	c.mu.Lock()
	if gen != c.gen || c.status == s {
		c.mu.Unlock()
		return
	}
	c.status = s
	c.mu.Unlock()
	c.notify(s)
}

func (c *Controller) notify(s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

func (c *Controller) record(ctx context.Context, op string, identity auth.Identity, weekISO, outcome string, latency time.Duration) {
	if c.recorder == nil {
		return
	}
	owner := identity.UserID
	if !identity.SignedIn() {
		owner = auth.AnonymousKey
	}
	c.recorder.RecordSync(ctx, op, owner, weekISO, outcome, latency)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Identity: c.identity,
		Week:     c.week,
		State:    c.state,
		Status:   c.status,
		Plan:     planner.Clone(c.doc),
	}
}

// Status returns the current sync status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
