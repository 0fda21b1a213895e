package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hrmrights/internal/platform/config"
)

const (
	JobEditorSweep     = "editor_sweep"
	JobRightsCacheWarm = "rights_cache_warm"
)

const (
	statusRunning   = "running"
	statusCompleted = "completed"
	statusFailed    = "failed"
)

// RunStore persists job_runs rows. A nil RunStore disables bookkeeping.
type RunStore interface {
	Start(ctx context.Context, tenantID, jobType string) (string, error)
	Finish(ctx context.Context, runID, status string, details []byte) error
}

// Sweeper is the editor session registry as seen by the scheduler.
type Sweeper interface {
	Sweep(now time.Time) int
	Len() int
}

type SessionGauge interface {
	SetEditorSessions(n int)
}

type Service struct {
	runs       RunStore
	queue      chan job
	sweeper    Sweeper
	gauge      SessionGauge
	sweepEvery time.Duration
	now        func() time.Time
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

func New(db *pgxpool.Pool, cfg config.Config) *Service {
	s := &Service{
		queue:      make(chan job, 128),
		sweepEvery: cfg.EditorSweepEvery,
		now:        time.Now,
	}
	if db != nil {
		s.runs = &pgRunStore{db: db}
	}
	return s
}

func (s *Service) WithSweeper(sweeper Sweeper, gauge SessionGauge) *Service {
	s.sweeper = sweeper
	s.gauge = gauge
	return s
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.sweeper != nil && s.sweepEvery > 0 {
		go s.scheduleSweep(ctx, s.sweepEvery)
	}
}

func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

// SweepEditors drops idle editor sessions and refreshes the session gauge.
func (s *Service) SweepEditors(ctx context.Context) (any, error) {
	if s.sweeper == nil {
		return map[string]int{"removed": 0, "open": 0}, nil
	}
	removed := s.sweeper.Sweep(s.now())
	open := s.sweeper.Len()
	if s.gauge != nil {
		s.gauge.SetEditorSessions(open)
	}
	return map[string]int{"removed": removed, "open": open}, nil
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.runs != nil {
		id, err := s.runs.Start(ctx, j.TenantID, j.Type)
		if err != nil {
			slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
		}
		runID = id
	}

	details, err := j.Run(ctx)
	status := statusCompleted
	if err != nil {
		status = statusFailed
	}

	if runID != "" {
		detailsJSON, marshalErr := json.Marshal(details)
		if marshalErr != nil {
			slog.Warn("job details marshal failed", "err", marshalErr)
			detailsJSON = []byte("{}")
		}
		if updErr := s.runs.Finish(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) scheduleSweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Sweeps are frequent and cheap; they skip job_runs bookkeeping.
			if _, err := s.SweepEditors(ctx); err != nil {
				slog.Warn("editor sweep failed", "err", err)
			}
		}
	}
}

type pgRunStore struct {
	db *pgxpool.Pool
}

func (p *pgRunStore) Start(ctx context.Context, tenantID, jobType string) (string, error) {
	var runID string
	err := p.db.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES ($1,$2,$3)
    RETURNING id
  `, nullIfEmpty(tenantID), jobType, statusRunning).Scan(&runID)
	return runID, err
}

func (p *pgRunStore) Finish(ctx context.Context, runID, status string, details []byte) error {
	_, err := p.db.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, runID)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
