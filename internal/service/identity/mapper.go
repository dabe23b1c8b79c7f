package identity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quartzhr/attendance-sync-go/internal/domain/employee"
	"github.com/quartzhr/attendance-sync-go/internal/domain/mapping"
	"github.com/quartzhr/attendance-sync-go/internal/domain/punch"
	domainsync "github.com/quartzhr/attendance-sync-go/internal/domain/sync"
	"github.com/quartzhr/attendance-sync-go/internal/pkg/similarity"
)

// Config holds the match thresholds. A candidate at or above
// AutoMapThreshold maps without review; between ReviewFloor and the
// threshold it is parked for a human; below the floor no mapping is
// created at all.
type Config struct {
	AutoMapThreshold float64
	ReviewFloor      float64
}

// recordApplier is the slice of the reconciler the review drain needs.
type recordApplier interface {
	ProcessEvents(ctx context.Context, events []punch.Event) (int, []error)
}

// Mapper resolves terminal-side employee codes to internal employees by
// fuzzy name match, and holds back punches it cannot attribute yet.
type Mapper struct {
	mappingRepo  mapping.MappingRepository
	employeeRepo employee.EmployeeRepository
	pendingRepo  domainsync.PendingPunchRepository
	applier      recordApplier
	cfg          Config
	logger       *slog.Logger
}

func NewMapper(
	mappingRepo mapping.MappingRepository,
	employeeRepo employee.EmployeeRepository,
	pendingRepo domainsync.PendingPunchRepository,
	applier recordApplier,
	cfg Config,
	logger *slog.Logger,
) *Mapper {
	return &Mapper{
		mappingRepo:  mappingRepo,
		employeeRepo: employeeRepo,
		pendingRepo:  pendingRepo,
		applier:      applier,
		cfg:          cfg,
		logger:       logger,
	}
}

// Resolve attributes each event to an internal employee where possible.
// Events it cannot attribute are enqueued as pending punches, never
// dropped. It returns the resolved events, the number queued, and one
// error per event that failed outright.
func (m *Mapper) Resolve(ctx context.Context, events []punch.Event) ([]punch.Event, int, []error) {
	var resolved []punch.Event
	var queued int
	var errs []error

	cache := make(map[string]*mapping.Mapping)
	var candidates []employee.Employee
	candidatesLoaded := false

	for _, ev := range events {
		if ev.Resolved() {
			resolved = append(resolved, ev)
			continue
		}
		if ev.ExternalCode == "" {
			errs = append(errs, fmt.Errorf("event at %s has neither employee id nor external code", ev.Timestamp))
			continue
		}

		m2, ok := cache[ev.ExternalCode]
		if !ok {
			loaded, err := m.lookupOrCreate(ctx, ev, &candidates, &candidatesLoaded)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			m2 = loaded
			cache[ev.ExternalCode] = m2
		}

		if m2 != nil && m2.Status == mapping.StatusAutoMapped && m2.EmployeeID != nil {
			ev.EmployeeID = *m2.EmployeeID
			resolved = append(resolved, ev)
			continue
		}

		if err := m.enqueue(ctx, ev); err != nil {
			errs = append(errs, err)
			continue
		}
		queued++
	}

	return resolved, queued, errs
}

// lookupOrCreate returns the active mapping for the event's code, scoring
// and creating one when none exists. A nil return with nil error means the
// name scored below the review floor and no mapping was recorded.
func (m *Mapper) lookupOrCreate(ctx context.Context, ev punch.Event, candidates *[]employee.Employee, loaded *bool) (*mapping.Mapping, error) {
	existing, err := m.mappingRepo.GetActiveByExternalCode(ctx, ev.ExternalCode)
	if err == nil {
		return &existing, nil
	}
	if err != mapping.ErrMappingNotFound {
		return nil, fmt.Errorf("failed to look up mapping for code %s: %w", ev.ExternalCode, err)
	}

	if !*loaded {
		emps, err := m.employeeRepo.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list employees for matching: %w", err)
		}
		*candidates = emps
		*loaded = true
	}

	bestScore := 0.0
	var bestID string
	for _, emp := range *candidates {
		if score := similarity.Score(ev.ExternalName, emp.FullName); score > bestScore {
			bestScore = score
			bestID = emp.ID
		}
	}

	if bestScore < m.cfg.ReviewFloor {
		if m.logger != nil {
			m.logger.Info("No mapping candidate for terminal code",
				"external_code", ev.ExternalCode, "external_name", ev.ExternalName, "best_score", bestScore)
		}
		return nil, nil
	}

	created := mapping.Mapping{
		ExternalCode: ev.ExternalCode,
		ExternalName: ev.ExternalName,
		MatchScore:   bestScore,
		Active:       true,
	}
	if bestScore >= m.cfg.AutoMapThreshold {
		created.Status = mapping.StatusAutoMapped
		created.EmployeeID = &bestID
	} else {
		created.Status = mapping.StatusPendingReview
	}

	stored, err := m.mappingRepo.Upsert(ctx, created)
	if err != nil {
		return nil, fmt.Errorf("failed to store mapping for code %s: %w", ev.ExternalCode, err)
	}

	if m.logger != nil {
		m.logger.Info("Mapping created",
			"external_code", stored.ExternalCode, "status", stored.Status, "score", stored.MatchScore)
	}
	return &stored, nil
}

func (m *Mapper) enqueue(ctx context.Context, ev punch.Event) error {
	err := m.pendingRepo.Enqueue(ctx, domainsync.PendingPunch{
		ExternalCode: ev.ExternalCode,
		ExternalName: ev.ExternalName,
		Timestamp:    ev.Timestamp,
		Direction:    ev.Direction,
	})
	if err != nil {
		return fmt.Errorf("failed to queue punch for code %s: %w", ev.ExternalCode, err)
	}
	return nil
}

// Review resolves a pending_review mapping. Approving binds the code to the
// chosen employee and replays every punch held back for that code; rejecting
// marks the mapping rejected and keeps the queue untouched for a later
// re-review.
func (m *Mapper) Review(ctx context.Context, req mapping.ReviewRequest) (mapping.MappingResponse, error) {
	if err := req.Validate(); err != nil {
		return mapping.MappingResponse{}, err
	}

	existing, err := m.mappingRepo.GetActiveByExternalCode(ctx, req.ExternalCode)
	if err != nil {
		return mapping.MappingResponse{}, err
	}
	if existing.Status == mapping.StatusAutoMapped {
		return mapping.MappingResponse{}, mapping.ErrAlreadyResolved
	}

	if !req.Approve {
		existing.Status = mapping.StatusRejected
		existing.EmployeeID = nil
		stored, err := m.mappingRepo.Upsert(ctx, existing)
		if err != nil {
			return mapping.MappingResponse{}, err
		}
		return toResponse(stored), nil
	}

	if _, err := m.employeeRepo.GetByID(ctx, *req.EmployeeID); err != nil {
		return mapping.MappingResponse{}, err
	}

	existing.Status = mapping.StatusAutoMapped
	existing.EmployeeID = req.EmployeeID
	stored, err := m.mappingRepo.Upsert(ctx, existing)
	if err != nil {
		return mapping.MappingResponse{}, err
	}

	if err := m.drainPending(ctx, stored); err != nil {
		return mapping.MappingResponse{}, err
	}

	return toResponse(stored), nil
}

// drainPending replays held punches through the reconciler and clears the
// queue once every one of them landed.
func (m *Mapper) drainPending(ctx context.Context, stored mapping.Mapping) error {
	pending, err := m.pendingRepo.ListByExternalCode(ctx, stored.ExternalCode)
	if err != nil {
		return fmt.Errorf("failed to list pending punches: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	events := make([]punch.Event, 0, len(pending))
	for _, p := range pending {
		events = append(events, p.Event(*stored.EmployeeID))
	}

	if _, errs := m.applier.ProcessEvents(ctx, events); len(errs) > 0 {
		// Queue stays put so the next review attempt can replay it.
		return fmt.Errorf("failed to replay %d held punches: %v", len(errs), errs[0])
	}

	if err := m.pendingRepo.DeleteByExternalCode(ctx, stored.ExternalCode); err != nil {
		return fmt.Errorf("failed to clear pending punches: %w", err)
	}

	if m.logger != nil {
		m.logger.Info("Replayed held punches after mapping review",
			"external_code", stored.ExternalCode, "count", len(events))
	}
	return nil
}

// List returns mappings for the review UI, optionally filtered by status.
func (m *Mapper) List(ctx context.Context, status *mapping.Status) ([]mapping.MappingResponse, error) {
	mappings, err := m.mappingRepo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	responses := make([]mapping.MappingResponse, 0, len(mappings))
	for _, mp := range mappings {
		responses = append(responses, toResponse(mp))
	}
	return responses, nil
}

func toResponse(m mapping.Mapping) mapping.MappingResponse {
	return mapping.MappingResponse{
		ID:           m.ID,
		ExternalCode: m.ExternalCode,
		ExternalName: m.ExternalName,
		EmployeeID:   m.EmployeeID,
		EmployeeName: m.EmployeeName,
		MatchScore:   m.MatchScore,
		Status:       string(m.Status),
		Active:       m.Active,
	}
}
