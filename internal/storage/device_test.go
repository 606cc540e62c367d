package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopping-planner/internal/planner"
)

func TestDeviceStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 9, 3, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	doc := planner.EmptyWeek([]string{"2025-09-01"})
	doc, _, err := planner.AddExtra(doc, "2025-09-01", "Chléb", "", 1, planner.UnitCount)
	require.NoError(t, err)

	t.Run("Write then Read round-trips", func(t *testing.T) {
		kv := NewMemoryStore()
		ds := NewDeviceStore(kv, clock)

		savedAt, err := ds.Write(ctx, "anon", "2025-09-01", doc)
		require.NoError(t, err)
		assert.Equal(t, now, savedAt)

		got := ds.Read(ctx, "anon", "2025-09-01")
		require.NotNil(t, got)
		assert.True(t, got.SavedAt.Equal(now))
		assert.Equal(t, doc, got.Plan)

		assert.Equal(t, []string{"shopping-week:v1:anon:2025-09-01"}, kv.Keys())
	})

	t.Run("Identities and weeks are isolated", func(t *testing.T) {
		ds := NewDeviceStore(NewMemoryStore(), clock)
		_, err := ds.Write(ctx, "u1", "2025-09-01", doc)
		require.NoError(t, err)

		assert.Nil(t, ds.Read(ctx, "anon", "2025-09-01"))
		assert.Nil(t, ds.Read(ctx, "u1", "2025-09-08"))
		assert.NotNil(t, ds.Read(ctx, "u1", "2025-09-01"))
	})

	t.Run("Malformed entries read as absent", func(t *testing.T) {
		kv := NewMemoryStore()
		ds := NewDeviceStore(kv, clock)
		key := DeviceKey("anon", "2025-09-01")

		cases := map[string]string{
			"not json":        `{{{`,
			"wrong version":   `{"formatVersion":2,"savedAt":"2025-09-01T00:00:00Z","document":{}}`,
			"missing savedAt": `{"formatVersion":1,"document":{}}`,
			"missing doc":     `{"formatVersion":1,"savedAt":"2025-09-01T00:00:00Z"}`,
			"null doc":        `{"formatVersion":1,"savedAt":"2025-09-01T00:00:00Z","document":null}`,
			"array doc":       `{"formatVersion":1,"savedAt":"2025-09-01T00:00:00Z","document":[]}`,
		}
		for name, raw := range cases {
			t.Run(name, func(t *testing.T) {
				require.NoError(t, kv.Set(ctx, key, []byte(raw)))
				assert.Nil(t, ds.Read(ctx, "anon", "2025-09-01"))
			})
		}
	})

	t.Run("Write failure is reported, state unchanged", func(t *testing.T) {
		kv := NewMemoryStore()
		ds := NewDeviceStore(kv, clock)
		kv.SetFailWrites(ErrQuotaExceeded)

		_, err := ds.Write(ctx, "anon", "2025-09-01", doc)
		assert.True(t, errors.Is(err, ErrQuotaExceeded))
		assert.Nil(t, ds.Read(ctx, "anon", "2025-09-01"))
	})

	t.Run("Delete", func(t *testing.T) {
		ds := NewDeviceStore(NewMemoryStore(), clock)
		_, err := ds.Write(ctx, "anon", "2025-09-01", doc)
		require.NoError(t, err)
		require.NoError(t, ds.Delete(ctx, "anon", "2025-09-01"))
		assert.Nil(t, ds.Read(ctx, "anon", "2025-09-01"))
	})

	t.Run("Nil plan is stored as empty object", func(t *testing.T) {
		ds := NewDeviceStore(NewMemoryStore(), clock)
		_, err := ds.Write(ctx, "anon", "2025-09-01", nil)
		require.NoError(t, err)
		got := ds.Read(ctx, "anon", "2025-09-01")
		require.NotNil(t, got)
		assert.Empty(t, got.Plan)
	})
}
