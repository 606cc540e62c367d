package weeksync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopping-planner/internal/auth"
	"shopping-planner/internal/planner"
	"shopping-planner/internal/storage"
	"shopping-planner/internal/week"
)

const (
	w1 = week.Key("2025-09-01")
	w2 = week.Key("2025-09-08")
)

type saveCall struct {
	owner, week string
	plan        planner.WeekPlan
	savedAt     time.Time
}

// fakeRemote is an in-memory RemoteStore with failure injection and optional blocking reads.
type fakeRemote struct {
	mu      sync.Mutex
	rows    map[string]*planner.Stored
	saves   []saveCall
	loadErr error
	saveErr error
	// gates[week] blocks Load for that week until closed; started[week] is closed on entry.
	gates   map[string]chan struct{}
	started map[string]chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		rows:    make(map[string]*planner.Stored),
		gates:   make(map[string]chan struct{}),
		started: make(map[string]chan struct{}),
	}
}

func (f *fakeRemote) block(weekISO string) (started, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gates[weekISO] = make(chan struct{})
	f.started[weekISO] = make(chan struct{})
	return f.started[weekISO], f.gates[weekISO]
}

func (f *fakeRemote) Load(_ context.Context, owner, weekISO string) (*planner.Stored, error) {
	f.mu.Lock()
	gate, started := f.gates[weekISO], f.started[weekISO]
	f.mu.Unlock()
	if gate != nil {
		close(started)
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	row, ok := f.rows[owner+"/"+weekISO]
	if !ok {
		return nil, nil
	}
	return &planner.Stored{SavedAt: row.SavedAt, Plan: planner.Clone(row.Plan)}, nil
}

func (f *fakeRemote) Save(_ context.Context, owner, weekISO string, plan planner.WeekPlan, savedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rows[owner+"/"+weekISO] = &planner.Stored{SavedAt: savedAt, Plan: planner.Clone(plan)}
	f.saves = append(f.saves, saveCall{owner: owner, week: weekISO, plan: planner.Clone(plan), savedAt: savedAt})
	return nil
}

func (f *fakeRemote) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

func (f *fakeRemote) lastSave() saveCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves[len(f.saves)-1]
}

func (f *fakeRemote) row(owner, weekISO string) *planner.Stored {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[owner+"/"+weekISO]
}

func (f *fakeRemote) setErrors(load, save error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadErr = load
	f.saveErr = save
}

type fixture struct {
	kv     *storage.MemoryStore
	device *storage.DeviceStore
	remote *fakeRemote
	ctx    context.Context
}

func newFixture() *fixture {
	kv := storage.NewMemoryStore()
	return &fixture{
		kv:     kv,
		device: storage.NewDeviceStore(kv, nil),
		remote: newFakeRemote(),
		ctx:    context.Background(),
	}
}

func (f *fixture) controller(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	c := New(f.device, f.remote, opts...)
	t.Cleanup(func() { c.Close(context.Background()) })
	return c
}

func hydrate(t *testing.T, c *Controller, id auth.Identity, k week.Key) {
	t.Helper()
	require.NoError(t, c.SetIdentity(context.Background(), id))
	require.NoError(t, c.SetWeek(context.Background(), k))
	require.Equal(t, StateHydrated, c.State())
}

func extras(doc planner.WeekPlan, day string) []string {
	var names []string
	for _, it := range doc[day].Extra {
		names = append(names, it.Name)
	}
	return names
}

func TestControllerLifecycle(t *testing.T) {
	t.Run("Mutations before hydration are rejected", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t)

		_, err := c.AddExtra(f.ctx, "2025-09-01", "Chléb", "", 1, planner.UnitCount)
		assert.ErrorIs(t, err, ErrNotHydrated)

		require.NoError(t, c.SetWeek(f.ctx, w1))
		assert.Equal(t, StateUninitialized, c.State())
		_, err = c.AddExtra(f.ctx, "2025-09-01", "Chléb", "", 1, planner.UnitCount)
		assert.ErrorIs(t, err, ErrNotHydrated)
		assert.Empty(t, f.kv.Keys())
	})

	t.Run("Invalid week is rejected", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t)
		assert.Error(t, c.SetWeek(f.ctx, week.Key("2025-09-02")))
	})

	t.Run("Anonymous session hydrates an empty week on the device only", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t)
		hydrate(t, c, auth.Anonymous(), w1)

		view := c.Snapshot()
		assert.Len(t, view.Plan, 7)
		assert.Equal(t, StatusIdle, view.Status)
		assert.NotNil(t, f.device.Read(f.ctx, "anon", "2025-09-01"))
		assert.Equal(t, 0, f.remote.saveCount())
	})

	t.Run("Anonymous mutations are written to the device at once", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t, WithDebounce(time.Millisecond))
		hydrate(t, c, auth.Anonymous(), w1)

		_, err := c.AddExtra(f.ctx, "2025-09-02", "Mléko", "Billa", 1000, planner.UnitMilliliter)
		require.NoError(t, err)

		stored := f.device.Read(f.ctx, "anon", "2025-09-01")
		require.NotNil(t, stored)
		assert.Equal(t, []string{"Mléko"}, extras(stored.Plan, "2025-09-02"))

		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, 0, f.remote.saveCount())
	})

	t.Run("Snapshot does not alias live state", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t)
		hydrate(t, c, auth.Anonymous(), w1)

		view := c.Snapshot()
		day := view.Plan["2025-09-01"]
		day.Extra = append(day.Extra, planner.NewItem("x", "", 1, planner.UnitCount, planner.SourceExtra))
		view.Plan["2025-09-01"] = day

		assert.Empty(t, c.Snapshot().Plan["2025-09-01"].Extra)
	})

	t.Run("Close flushes and rejects further calls", func(t *testing.T) {
		f := newFixture()
		c := New(f.device, f.remote, WithDebounce(time.Hour))
		hydrate(t, c, auth.User("u1"), w1)
		before := f.remote.saveCount()

		_, err := c.AddExtra(f.ctx, "2025-09-01", "Chléb", "", 1, planner.UnitCount)
		require.NoError(t, err)
		c.Close(f.ctx)

		assert.Equal(t, before+1, f.remote.saveCount())
		assert.ErrorIs(t, c.SetWeek(f.ctx, w2), ErrClosed)
		_, err = c.AddExtra(f.ctx, "2025-09-01", "Chléb", "", 1, planner.UnitCount)
		assert.ErrorIs(t, err, ErrClosed)
	})
}

func TestControllerResolve(t *testing.T) {
	t.Run("Guest plan is adopted on sign in", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t)
		hydrate(t, c, auth.Anonymous(), w1)
		_, err := c.AddExtra(f.ctx, "2025-09-03", "Rýže", "Lidl", 500, planner.UnitGram)
		require.NoError(t, err)

		require.NoError(t, c.SetIdentity(f.ctx, auth.User("u1")))
		require.Equal(t, StateHydrated, c.State())

		assert.Equal(t, []string{"Rýže"}, extras(c.Snapshot().Plan, "2025-09-03"))

		userCopy := f.device.Read(f.ctx, "u1", "2025-09-01")
		require.NotNil(t, userCopy)
		assert.Equal(t, []string{"Rýže"}, extras(userCopy.Plan, "2025-09-03"))

		row := f.remote.row("u1", "2025-09-01")
		require.NotNil(t, row)
		assert.Equal(t, []string{"Rýže"}, extras(row.Plan, "2025-09-03"))

		assert.Nil(t, f.device.Read(f.ctx, "anon", "2025-09-01"))
	})

	t.Run("Newer remote plan wins over the device copy", func(t *testing.T) {
		f := newFixture()
		old := planner.EmptyWeek(w1.Days())
		old, _, _ = planner.AddExtra(old, "2025-09-01", "Starý", "", 1, planner.UnitCount)
		_, err := f.device.Write(f.ctx, "u1", "2025-09-01", old)
		require.NoError(t, err)

		fresh := planner.EmptyWeek(w1.Days())
		fresh, _, _ = planner.AddExtra(fresh, "2025-09-01", "Nový", "", 1, planner.UnitCount)
		require.NoError(t, f.remote.Save(f.ctx, "u1", "2025-09-01", fresh, time.Now().Add(time.Hour)))

		c := f.controller(t)
		hydrate(t, c, auth.User("u1"), w1)

		assert.Equal(t, []string{"Nový"}, extras(c.Snapshot().Plan, "2025-09-01"))
		assert.Equal(t, []string{"Nový"}, extras(f.device.Read(f.ctx, "u1", "2025-09-01").Plan, "2025-09-01"))
	})

	t.Run("Remote read failure falls back to the device and reports error", func(t *testing.T) {
		f := newFixture()
		doc := planner.EmptyWeek(w1.Days())
		doc, _, _ = planner.AddExtra(doc, "2025-09-01", "Sýr", "", 200, planner.UnitGram)
		_, err := f.device.Write(f.ctx, "u1", "2025-09-01", doc)
		require.NoError(t, err)
		f.remote.setErrors(errors.New("offline"), nil)

		c := f.controller(t)
		hydrate(t, c, auth.User("u1"), w1)

		assert.Equal(t, StatusError, c.Status())
		assert.Equal(t, []string{"Sýr"}, extras(c.Snapshot().Plan, "2025-09-01"))

		_, err = c.AddExtra(f.ctx, "2025-09-01", "Máslo", "", 250, planner.UnitGram)
		assert.NoError(t, err)
	})

	t.Run("Stale resolution does not replace the current week", func(t *testing.T) {
		f := newFixture()
		p1 := planner.EmptyWeek(w1.Days())
		p1, _, _ = planner.AddExtra(p1, "2025-09-01", "Týden 1", "", 1, planner.UnitCount)
		require.NoError(t, f.remote.Save(f.ctx, "u1", "2025-09-01", p1, time.Now()))
		p2 := planner.EmptyWeek(w2.Days())
		p2, _, _ = planner.AddExtra(p2, "2025-09-08", "Týden 2", "", 1, planner.UnitCount)
		require.NoError(t, f.remote.Save(f.ctx, "u1", "2025-09-08", p2, time.Now()))

		c := f.controller(t)
		require.NoError(t, c.SetIdentity(f.ctx, auth.User("u1")))

		started, release := f.remote.block("2025-09-01")
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = c.SetWeek(context.Background(), w1)
		}()
		<-started

		require.NoError(t, c.SetWeek(f.ctx, w2))
		require.Equal(t, StateHydrated, c.State())

		close(release)
		<-done

		view := c.Snapshot()
		assert.Equal(t, w2, view.Week)
		assert.Equal(t, StateHydrated, view.State)
		assert.Equal(t, []string{"Týden 2"}, extras(view.Plan, "2025-09-08"))
		assert.NotContains(t, view.Plan, "2025-09-01")
	})
}

func TestControllerPush(t *testing.T) {
	t.Run("Rapid mutations coalesce into one remote write", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t, WithDebounce(50*time.Millisecond))
		hydrate(t, c, auth.User("u1"), w1)
		before := f.remote.saveCount()

		names := []string{"a", "b", "c", "d", "e"}
		for _, n := range names {
			_, err := c.AddExtra(f.ctx, "2025-09-01", n, "", 1, planner.UnitCount)
			require.NoError(t, err)
		}
		assert.Equal(t, StatusSaving, c.Status())

		require.Eventually(t, func() bool { return f.remote.saveCount() == before+1 }, time.Second, 5*time.Millisecond)
		time.Sleep(150 * time.Millisecond)
		assert.Equal(t, before+1, f.remote.saveCount())

		last := f.remote.lastSave()
		assert.Equal(t, names, extras(last.plan, "2025-09-01"))
		assert.Eventually(t, func() bool { return c.Status() == StatusIdle }, time.Second, 5*time.Millisecond)
	})

	t.Run("Flush pushes immediately", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t, WithDebounce(time.Hour))
		hydrate(t, c, auth.User("u1"), w1)
		before := f.remote.saveCount()

		_, err := c.AddExtra(f.ctx, "2025-09-01", "Vejce", "", 10, planner.UnitCount)
		require.NoError(t, err)
		assert.Equal(t, before, f.remote.saveCount())

		c.Flush(f.ctx)
		assert.Equal(t, before+1, f.remote.saveCount())
		assert.Equal(t, []string{"Vejce"}, extras(f.remote.lastSave().plan, "2025-09-01"))
		assert.Equal(t, StatusIdle, c.Status())
	})

	t.Run("Week change flushes the pending push of the previous week", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t, WithDebounce(time.Hour))
		hydrate(t, c, auth.User("u1"), w1)

		_, err := c.AddExtra(f.ctx, "2025-09-02", "Jablka", "", 1000, planner.UnitGram)
		require.NoError(t, err)
		require.NoError(t, c.SetWeek(f.ctx, w2))

		row := f.remote.row("u1", "2025-09-01")
		require.NotNil(t, row)
		assert.Equal(t, []string{"Jablka"}, extras(row.Plan, "2025-09-02"))

		// the new week neither receives nor shows the previous week's edit
		next := f.remote.row("u1", "2025-09-08")
		require.NotNil(t, next)
		assert.NotContains(t, next.Plan, "2025-09-02")
		view := c.Snapshot()
		assert.Equal(t, w2, view.Week)
		assert.NotContains(t, view.Plan, "2025-09-02")
		assert.Equal(t, 0, planner.CountUnchecked(view.Plan))
	})

	t.Run("Switching users flushes the pending push to the previous owner", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t, WithDebounce(time.Hour))
		hydrate(t, c, auth.User("alice"), w1)

		_, err := c.AddExtra(f.ctx, "2025-09-01", "Kafe", "", 1, planner.UnitCount)
		require.NoError(t, err)
		require.NoError(t, c.SetIdentity(f.ctx, auth.User("bob")))

		alice := f.remote.row("alice", "2025-09-01")
		require.NotNil(t, alice)
		assert.Equal(t, []string{"Kafe"}, extras(alice.Plan, "2025-09-01"))

		bob := f.remote.row("bob", "2025-09-01")
		require.NotNil(t, bob)
		assert.Empty(t, extras(bob.Plan, "2025-09-01"))

		view := c.Snapshot()
		assert.Equal(t, auth.User("bob"), view.Identity)
		assert.Empty(t, extras(view.Plan, "2025-09-01"))
	})

	t.Run("Signing out flushes the pending push to the account", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t, WithDebounce(time.Hour))
		hydrate(t, c, auth.User("u1"), w1)
		before := f.remote.saveCount()

		_, err := c.AddExtra(f.ctx, "2025-09-03", "Sýr", "", 200, planner.UnitGram)
		require.NoError(t, err)
		require.NoError(t, c.SetIdentity(f.ctx, auth.Anonymous()))

		require.Equal(t, before+1, f.remote.saveCount())
		last := f.remote.lastSave()
		assert.Equal(t, "u1", last.owner)
		assert.Equal(t, "2025-09-01", last.week)
		assert.Equal(t, []string{"Sýr"}, extras(last.plan, "2025-09-03"))

		view := c.Snapshot()
		assert.False(t, view.Identity.SignedIn())
		assert.Equal(t, StateHydrated, view.State)
		assert.Empty(t, extras(view.Plan, "2025-09-03"))
	})

	t.Run("Failed push reports error and is not retried", func(t *testing.T) {
		f := newFixture()
		c := f.controller(t, WithDebounce(10*time.Millisecond))
		hydrate(t, c, auth.User("u1"), w1)
		before := f.remote.saveCount()
		f.remote.setErrors(nil, errors.New("offline"))

		_, err := c.AddExtra(f.ctx, "2025-09-01", "Chléb", "", 1, planner.UnitCount)
		require.NoError(t, err)
		require.Eventually(t, func() bool { return c.Status() == StatusError }, time.Second, 5*time.Millisecond)

		f.remote.setErrors(nil, nil)
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, before, f.remote.saveCount())

		_, err = c.AddExtra(f.ctx, "2025-09-01", "Máslo", "", 1, planner.UnitCount)
		require.NoError(t, err)
		require.Eventually(t, func() bool { return f.remote.saveCount() == before+1 }, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"Chléb", "Máslo"}, extras(f.remote.lastSave().plan, "2025-09-01"))
	})
}

type recordedEvent struct {
	op, owner, week, outcome string
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *fakeRecorder) RecordSync(_ context.Context, op, owner, weekISO, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{op, owner, weekISO, outcome})
}

func TestControllerObservers(t *testing.T) {
	t.Run("Status listener sees loading then idle", func(t *testing.T) {
		f := newFixture()
		var mu sync.Mutex
		var seen []Status
		c := f.controller(t, WithStatusListener(func(s Status) {
			mu.Lock()
			seen = append(seen, s)
			mu.Unlock()
		}))
		hydrate(t, c, auth.Anonymous(), w1)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []Status{StatusLoading, StatusIdle}, seen)
	})

	t.Run("Recorder gets one event per remote operation", func(t *testing.T) {
		f := newFixture()
		rec := &fakeRecorder{}
		c := f.controller(t, WithRecorder(rec), WithDebounce(time.Hour))
		hydrate(t, c, auth.User("u1"), w1)
		_, err := c.AddExtra(f.ctx, "2025-09-01", "Chléb", "", 1, planner.UnitCount)
		require.NoError(t, err)
		c.Flush(f.ctx)

		rec.mu.Lock()
		defer rec.mu.Unlock()
		assert.Equal(t, []recordedEvent{
			{"resolve", "u1", "2025-09-01", "ok"},
			{"flush", "u1", "2025-09-01", "ok"},
		}, rec.events)
	})

	t.Run("Bind follows session identity", func(t *testing.T) {
		f := newFixture()
		authority := auth.NewAuthority("secret", time.Hour)
		session := auth.NewSession(authority)

		c := f.controller(t)
		require.NoError(t, c.SetWeek(f.ctx, w1))
		require.NoError(t, c.Bind(f.ctx, session))
		assert.Equal(t, auth.Anonymous(), c.Snapshot().Identity)
		assert.Equal(t, StateHydrated, c.State())

		token, err := authority.Issue("u7")
		require.NoError(t, err)
		_, err = session.SignIn(token)
		require.NoError(t, err)

		assert.Equal(t, auth.User("u7"), c.Snapshot().Identity)
		assert.Equal(t, StateHydrated, c.State())
		assert.NotNil(t, f.remote.row("u7", "2025-09-01"))
	})
}
