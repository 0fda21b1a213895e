package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrmrights/internal/platform/config"
)

type recordedRun struct {
	tenantID string
	jobType  string
	status   string
	details  string
}

type memRuns struct {
	mu   sync.Mutex
	runs map[string]*recordedRun
}

func (m *memRuns) Start(_ context.Context, tenantID, jobType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := jobType + ":" + tenantID
	m.runs[id] = &recordedRun{tenantID: tenantID, jobType: jobType, status: statusRunning}
	return id, nil
}

func (m *memRuns) Finish(_ context.Context, runID, status string, details []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID].status = status
	m.runs[runID].details = string(details)
	return nil
}

type fakeSweeper struct {
	open    int
	removed int
	at      time.Time
}

func (f *fakeSweeper) Sweep(now time.Time) int {
	f.at = now
	f.open -= f.removed
	return f.removed
}

func (f *fakeSweeper) Len() int { return f.open }

type gauge struct{ value int }

func (g *gauge) SetEditorSessions(n int) { g.value = n }

func TestRunNowRecordsOutcome(t *testing.T) {
	runs := &memRuns{runs: map[string]*recordedRun{}}
	svc := New(nil, config.Config{})
	svc.runs = runs

	out, err := svc.RunNow(context.Background(), JobRightsCacheWarm, "t1", func(context.Context) (any, error) {
		return map[string]string{"role": "r1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"role": "r1"}, out)
	assert.Equal(t, statusCompleted, runs.runs["rights_cache_warm:t1"].status)
	assert.JSONEq(t, `{"role":"r1"}`, runs.runs["rights_cache_warm:t1"].details)

	_, err = svc.RunNow(context.Background(), JobEditorSweep, "", func(context.Context) (any, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, statusFailed, runs.runs["editor_sweep:"].status)
}

func TestRunNowWithoutStore(t *testing.T) {
	svc := New(nil, config.Config{})
	out, err := svc.RunNow(context.Background(), JobEditorSweep, "", func(context.Context) (any, error) {
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

func TestSweepEditorsUpdatesGauge(t *testing.T) {
	sweeper := &fakeSweeper{open: 5, removed: 2}
	g := &gauge{}
	svc := New(nil, config.Config{}).WithSweeper(sweeper, g)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	out, err := svc.SweepEditors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"removed": 2, "open": 3}, out)
	assert.Equal(t, 3, g.value)
	assert.Equal(t, fixed, sweeper.at)
}

func TestWorkerDrainsQueue(t *testing.T) {
	svc := New(nil, config.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	done := make(chan string, 1)
	require.True(t, svc.Enqueue(JobRightsCacheWarm, "t1", func(context.Context) (any, error) {
		done <- "ran"
		return nil, nil
	}))

	select {
	case got := <-done:
		assert.Equal(t, "ran", got)
	case <-time.After(2 * time.Second):
		t.Fatal("queued job did not run")
	}
}

func TestEnqueueReportsFullQueue(t *testing.T) {
	svc := New(nil, config.Config{})
	svc.queue = make(chan job, 1)
	noop := func(context.Context) (any, error) { return nil, nil }

	assert.True(t, svc.Enqueue(JobRightsCacheWarm, "t1", noop))
	assert.False(t, svc.Enqueue(JobRightsCacheWarm, "t1", noop))
}
