package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quartzhr/attendance-sync-go/internal/domain/attendance"
	"github.com/quartzhr/attendance-sync-go/internal/domain/employee"
	"github.com/quartzhr/attendance-sync-go/internal/domain/mapping"
	"github.com/quartzhr/attendance-sync-go/internal/domain/punch"
	domainsync "github.com/quartzhr/attendance-sync-go/internal/domain/sync"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/etimetrack"
	"github.com/sethvargo/go-retry"
)

// VendorClient is the slice of the eTimeTrack client the orchestrator uses.
type VendorClient interface {
	FetchSince(ctx context.Context, lastRecordToken, employeeFilter string) ([]etimetrack.PunchRecord, error)
	FetchRange(ctx context.Context, from, to time.Time, employeeFilter string) ([]etimetrack.PunchRecord, error)
	FetchPairedRange(ctx context.Context, from, to time.Time, employeeFilter string) ([]etimetrack.PairedRecord, error)
}

type Normalizer interface {
	Normalize(punches []etimetrack.PunchRecord, paired []etimetrack.PairedRecord) ([]punch.Event, []error)
}

type Resolver interface {
	Resolve(ctx context.Context, events []punch.Event) ([]punch.Event, int, []error)
}

type Reconciler interface {
	ProcessEvents(ctx context.Context, events []punch.Event) (int, []error)
}

type Config struct {
	EmployeeFilter string
	VendorLocation *time.Location
	MaxRetries     int
	RetryDelay     time.Duration
	RunTimeout     time.Duration
}

// Orchestrator drives one fetch → normalize → resolve → reconcile pass and
// owns the incremental cursor. Runs are serialized: a trigger arriving while
// a run holds the lock is refused, not queued.
type Orchestrator struct {
	runMu sync.Mutex

	stateMu   sync.RWMutex
	isRunning bool

	client     VendorClient
	cursors    domainsync.CursorStore
	normalizer Normalizer
	resolver   Resolver
	reconciler Reconciler

	employeeRepo employee.EmployeeRepository
	mappingRepo  mapping.MappingRepository
	dayRepo      attendance.DayRecordRepository

	cfg    Config
	logger *slog.Logger
}

func NewOrchestrator(
	client VendorClient,
	cursors domainsync.CursorStore,
	normalizer Normalizer,
	resolver Resolver,
	reconciler Reconciler,
	employeeRepo employee.EmployeeRepository,
	mappingRepo mapping.MappingRepository,
	dayRepo attendance.DayRecordRepository,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	if cfg.VendorLocation == nil {
		cfg.VendorLocation = time.UTC
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = 10 * time.Minute
	}
	return &Orchestrator{
		client:       client,
		cursors:      cursors,
		normalizer:   normalizer,
		resolver:     resolver,
		reconciler:   reconciler,
		employeeRepo: employeeRepo,
		mappingRepo:  mappingRepo,
		dayRepo:      dayRepo,
		cfg:          cfg,
		logger:       logger,
	}
}

// RunIncremental pulls everything past the stored cursor and advances the
// cursor only once the whole batch is persisted.
func (o *Orchestrator) RunIncremental(ctx context.Context) (domainsync.Result, error) {
	return o.run(ctx, domainsync.ModeIncremental, time.Time{}, time.Time{})
}

// RunDaily re-pulls the current vendor-local day, catching punches an
// incremental pass missed and the paired rows the terminal only reports on
// the range endpoint.
func (o *Orchestrator) RunDaily(ctx context.Context) (domainsync.Result, error) {
	now := time.Now().In(o.cfg.VendorLocation)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, o.cfg.VendorLocation)
	return o.run(ctx, domainsync.ModeDaily, from, now)
}

// RunRange re-pulls an explicit window for backfills.
func (o *Orchestrator) RunRange(ctx context.Context, from, to time.Time) (domainsync.Result, error) {
	if !to.After(from) {
		return domainsync.Result{}, fmt.Errorf("invalid range: %s is not before %s", from, to)
	}
	return o.run(ctx, domainsync.ModeRange, from, to)
}

func (o *Orchestrator) run(ctx context.Context, mode domainsync.Mode, from, to time.Time) (domainsync.Result, error) {
	if !o.runMu.TryLock() {
		return domainsync.Result{}, domainsync.ErrRunInProgress
	}
	defer o.runMu.Unlock()

	o.setRunning(true)
	defer o.setRunning(false)

	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	result := domainsync.Result{Mode: mode, Errors: []string{}}

	var cursorToken string
	if mode == domainsync.ModeIncremental {
		cur, err := o.cursors.Read(ctx, domainsync.StreamBiometric)
		if err != nil && !errors.Is(err, domainsync.ErrCursorNotFound) {
			return result, err
		}
		cursorToken = cur.LastRecordToken
	}

	punches, paired, err := o.fetch(ctx, mode, cursorToken, from, to)
	if err != nil {
		return result, err
	}
	result.RecordsFetched = len(punches) + len(paired)

	events, normErrs := o.normalizer.Normalize(punches, paired)
	appendErrs(&result, normErrs)

	resolved, queued, mapErrs := o.resolver.Resolve(ctx, events)
	result.RecordsQueued = queued
	appendErrs(&result, mapErrs)

	processed, persistErrs := o.reconciler.ProcessEvents(ctx, resolved)
	result.RecordsProcessed = processed
	appendErrs(&result, persistErrs)

	// The cursor moves only when every touched day record landed. Rows the
	// normalizer or mapper skipped are already queued or reported and must
	// not hold the watermark back forever.
	if mode == domainsync.ModeIncremental && len(persistErrs) == 0 {
		tokens := make([]string, 0, len(punches))
		for _, p := range punches {
			tokens = append(tokens, p.SrNo)
		}
		if max := etimetrack.MaxToken(tokens); max != "" {
			if err := o.cursors.Advance(ctx, domainsync.StreamBiometric, max); err != nil {
				result.Errors = append(result.Errors, err.Error())
			} else {
				result.CursorAdvancedTo = max
			}
		}
	}

	o.logger.Info("Sync run finished",
		"mode", mode,
		"fetched", result.RecordsFetched,
		"processed", result.RecordsProcessed,
		"queued", result.RecordsQueued,
		"errors", len(result.Errors),
		"cursor", result.CursorAdvancedTo,
		"duration", time.Since(start),
	)

	return result, nil
}

// fetch pulls the vendor feed for the requested mode, retrying transient
// failures with a constant delay. A 4xx from the vendor fails immediately.
func (o *Orchestrator) fetch(ctx context.Context, mode domainsync.Mode, cursorToken string, from, to time.Time) ([]etimetrack.PunchRecord, []etimetrack.PairedRecord, error) {
	var punches []etimetrack.PunchRecord
	var paired []etimetrack.PairedRecord

	backoff := retry.WithMaxRetries(uint64(o.cfg.MaxRetries), retry.NewConstant(o.cfg.RetryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var ferr error
		switch mode {
		case domainsync.ModeIncremental:
			punches, ferr = o.client.FetchSince(ctx, cursorToken, o.cfg.EmployeeFilter)
		default:
			punches, ferr = o.client.FetchRange(ctx, from, to, o.cfg.EmployeeFilter)
			if ferr == nil {
				paired, ferr = o.client.FetchPairedRange(ctx, from, to, o.cfg.EmployeeFilter)
			}
		}
		if ferr == nil {
			return nil
		}

		var apiErr *etimetrack.APIError
		if errors.As(ferr, &apiErr) && !apiErr.IsTransient() {
			return ferr
		}
		o.logger.Warn("Vendor fetch failed, will retry", "mode", mode, "error", ferr)
		return retry.RetryableError(ferr)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domainsync.ErrFetchExhausted, err)
	}

	return punches, paired, nil
}

// Status reports sync health for the ops surface.
func (o *Orchestrator) Status(ctx context.Context) (domainsync.Status, error) {
	o.stateMu.RLock()
	status := domainsync.Status{IsRunning: o.isRunning}
	o.stateMu.RUnlock()

	cur, err := o.cursors.Read(ctx, domainsync.StreamBiometric)
	if err != nil && !errors.Is(err, domainsync.ErrCursorNotFound) {
		return domainsync.Status{}, err
	}
	status.LastSyncedAt = cur.LastSyncedAt
	status.LastRecordToken = cur.LastRecordToken

	if status.TotalEmployees, err = o.employeeRepo.CountActive(ctx); err != nil {
		return domainsync.Status{}, err
	}
	if status.TotalMappings, err = o.mappingRepo.Count(ctx); err != nil {
		return domainsync.Status{}, err
	}
	if status.RecentAttendanceRecords, err = o.dayRepo.CountSince(ctx, time.Now().Add(-24*time.Hour)); err != nil {
		return domainsync.Status{}, err
	}

	return status, nil
}

func (o *Orchestrator) setRunning(v bool) {
	o.stateMu.Lock()
	o.isRunning = v
	o.stateMu.Unlock()
}

func appendErrs(result *domainsync.Result, errs []error) {
	for _, err := range errs {
		result.Errors = append(result.Errors, err.Error())
	}
}
