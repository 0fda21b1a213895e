package rights

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistryOwnership(t *testing.T) {
	reg := NewSessionRegistry(time.Minute)
	s := reg.Create("t1", "u1")
	require.NotEmpty(t, s.ID)

	got, err := reg.Get(s.ID, "t1", "u1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = reg.Get(s.ID, "t1", "u2")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = reg.Get(s.ID, "t2", "u1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, reg.Delete(s.ID, "t1", "u2"), ErrSessionNotFound)
	require.NoError(t, reg.Delete(s.ID, "t1", "u1"))
	assert.Equal(t, 0, reg.Len())
}

func TestSessionRegistrySweep(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	reg := NewSessionRegistry(10 * time.Minute)
	reg.now = func() time.Time { return now }

	stale := reg.Create("t1", "u1")
	now = now.Add(8 * time.Minute)
	fresh := reg.Create("t1", "u2")
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, reg.Sweep(now))
	_, err := reg.Get(stale.ID, "t1", "u1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = reg.Get(fresh.ID, "t1", "u2")
	assert.NoError(t, err)
}

func TestSessionRegistrySweepDisabled(t *testing.T) {
	reg := NewSessionRegistry(0)
	reg.Create("t1", "u1")
	assert.Equal(t, 0, reg.Sweep(time.Now().Add(24*time.Hour)))
	assert.Equal(t, 1, reg.Len())
}

func TestSessionDoSerialisesEdits(t *testing.T) {
	reg := NewSessionRegistry(time.Minute)
	s := reg.Create("t1", "u1")
	require.NoError(t, s.Do(func(e *Editor) error {
		e.Load("r", Forest{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}})
		return nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_ = s.Do(func(e *Editor) error {
				return e.Toggle(Path{idx}, CapView, true)
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, s.Do(func(e *Editor) error {
		assert.Equal(t, AggregateAll, e.Aggregate(CapView))
		return nil
	}))
}
