package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainsync "github.com/quartzhr/attendance-sync-go/internal/domain/sync"
	syncservice "github.com/quartzhr/attendance-sync-go/internal/service/sync"
)

// SyncJobs wires the sync orchestrator into the scheduler: a frequent
// incremental pull plus an hourly sweep that re-reads the whole vendor-local
// day to pick up punches the incremental feed delivered out of order.
type SyncJobs struct {
	orchestrator *syncservice.Orchestrator
	interval     time.Duration
}

func NewSyncJobs(orchestrator *syncservice.Orchestrator, interval time.Duration) *SyncJobs {
	return &SyncJobs{orchestrator: orchestrator, interval: interval}
}

// Register adds the sync jobs to the scheduler.
func (j *SyncJobs) Register(s *Scheduler) {
	s.AddJob("incremental_attendance_sync", j.interval, j.runIncremental)
	s.AddJob("daily_attendance_sweep", time.Hour, j.runDailySweep)
}

func (j *SyncJobs) runIncremental(ctx context.Context) error {
	result, err := j.orchestrator.RunIncremental(ctx)
	if errors.Is(err, domainsync.ErrRunInProgress) {
		slog.Info("Incremental sync skipped, run already in progress")
		return nil
	}
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		slog.Warn("Incremental sync finished with partial errors",
			"processed", result.RecordsProcessed, "errors", len(result.Errors))
	}
	return nil
}

func (j *SyncJobs) runDailySweep(ctx context.Context) error {
	result, err := j.orchestrator.RunDaily(ctx)
	if errors.Is(err, domainsync.ErrRunInProgress) {
		slog.Info("Daily sweep skipped, run already in progress")
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("Daily sweep finished",
		"fetched", result.RecordsFetched, "processed", result.RecordsProcessed)
	return nil
}
