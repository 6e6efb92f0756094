package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/approval-hub/approval-hub/internal/domain/audit"
	"github.com/approval-hub/approval-hub/internal/domain/workflow"
)

// FailsafeQueue is the durable local spool for entries that could not reach
// the primary store.
type FailsafeQueue interface {
	Enqueue(e *audit.Entry) error
	Drain(fn func(*audit.Entry) error) (int, error)
	Len() (int, error)
}

// Service owns the tamper-evident audit ledger.
type Service struct {
	repo         audit.Repository
	workflowRepo workflow.Repository
	queue        FailsafeQueue
	bus          *AlertBus
	signingKey   []byte
	logger       zerolog.Logger

	// storeHealthy gates CreateCriticalEntry: once a transient failure is
	// seen, critical entries go straight to the failsafe queue until a drain
	// succeeds.
	storeHealthy atomic.Bool
}

// NewService creates an audit service. signingKey may be nil, in which case
// integrity hashes are plain digests.
func NewService(
	repo audit.Repository,
	workflowRepo workflow.Repository,
	queue FailsafeQueue,
	bus *AlertBus,
	signingKey []byte,
	logger zerolog.Logger,
) *Service {
	s := &Service{
		repo:         repo,
		workflowRepo: workflowRepo,
		queue:        queue,
		bus:          bus,
		signingKey:   signingKey,
		logger:       logger.With().Str("service", "audit").Logger(),
	}
	s.storeHealthy.Store(true)
	return s
}

// PrepareEntry validates data and returns a hashed, unpersisted entry. Used
// by the workflow and escalation paths to compose the audit write into their
// own transaction.
func (s *Service) PrepareEntry(d audit.Data) (*audit.Entry, error) {
	e, err := audit.NewEntry(d)
	if err != nil {
		return nil, err
	}
	hash, err := audit.ComputeHash(e, s.signingKey)
	if err != nil {
		return nil, err
	}
	e.IntegrityHash = hash
	return e, nil
}

// CreateEntry validates, hashes and persists one audit entry. An
// EMERGENCY_BYPASS event additionally raises an alert on the bus.
func (s *Service) CreateEntry(ctx context.Context, d audit.Data) (*audit.Entry, error) {
	e, err := s.PrepareEntry(d)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	s.publishAlert(e)
	return e, nil
}

func (s *Service) publishAlert(e *audit.Entry) {
	if e.Event != audit.EventEmergencyBypass || s.bus == nil {
		return
	}
	s.logger.Warn().
		Str("auditId", e.AuditID.String()).
		Str("actorId", e.ActorID).
		Msg("emergency bypass recorded")
	s.bus.Publish(Alert{Entry: e, OccurredAt: time.Now().UTC()})
}

// UpdateEntry always fails: the ledger is append-only.
func (s *Service) UpdateEntry(ctx context.Context, auditID uuid.UUID) error {
	_ = ctx
	_ = auditID
	return audit.ErrImmutable
}

// DeleteEntry always fails: the ledger is append-only.
func (s *Service) DeleteEntry(ctx context.Context, auditID uuid.UUID) error {
	_ = ctx
	_ = auditID
	return audit.ErrImmutable
}

// VerifyIntegrity recomputes the entry's hash against the stored one.
func (s *Service) VerifyIntegrity(e *audit.Entry) (bool, error) {
	return audit.VerifyHash(e, s.signingKey)
}

// GetEntry loads one entry and marks it if its hash no longer verifies.
func (s *Service) GetEntry(ctx context.Context, auditID uuid.UUID) (*audit.Entry, error) {
	e, err := s.repo.GetByAuditID(ctx, auditID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, audit.ErrNotFound
	}
	s.flagTampered(e)
	return e, nil
}

// QueryPaginated returns entries plus the total count for the filter. A
// tampered entry is returned flagged, not suppressed: auditors need to see
// what was altered.
func (s *Service) QueryPaginated(ctx context.Context, filter audit.QueryFilter, limit, offset int) ([]*audit.Entry, int64, error) {
	entries, err := s.repo.Query(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for _, e := range entries {
		s.flagTampered(e)
	}
	return entries, total, nil
}

// ListByWorkflow returns the full audit history of one workflow.
func (s *Service) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]*audit.Entry, error) {
	entries, err := s.repo.ListByWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		s.flagTampered(e)
	}
	return entries, nil
}

func (s *Service) flagTampered(e *audit.Entry) {
	ok, err := audit.VerifyHash(e, s.signingKey)
	if err != nil {
		s.logger.Error().Err(err).Str("auditId", e.AuditID.String()).Msg("integrity verification failed")
		e.Tampered = true
		return
	}
	if !ok {
		s.logger.Warn().Str("auditId", e.AuditID.String()).Msg("audit entry failed integrity check")
		e.Tampered = true
	}
}

// ComplianceReport summarizes ledger activity over a period.
type ComplianceReport struct {
	Start        time.Time             `json:"start"`
	End          time.Time             `json:"end"`
	TotalEntries int64                 `json:"totalEntries"`
	EventCounts  map[audit.Event]int64 `json:"eventCounts"`
	ActorCounts  map[string]int64      `json:"actorCounts"`
	GeneratedAt  time.Time             `json:"generatedAt"`
}

func (s *Service) ComplianceReport(ctx context.Context, start, end time.Time) (*ComplianceReport, error) {
	eventCounts, err := s.repo.CountByEvent(ctx, start, end)
	if err != nil {
		return nil, err
	}
	actorCounts, err := s.repo.CountByActor(ctx, start, end)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, c := range eventCounts {
		total += c
	}
	return &ComplianceReport{
		Start:        start,
		End:          end,
		TotalEntries: total,
		EventCounts:  eventCounts,
		ActorCounts:  actorCounts,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

// Stats is the lightweight variant of the compliance report.
type Stats struct {
	TotalEntries int64                 `json:"totalEntries"`
	EventCounts  map[audit.Event]int64 `json:"eventCounts"`
}

func (s *Service) Stats(ctx context.Context, start, end *time.Time) (*Stats, error) {
	from := time.Time{}
	to := time.Now().UTC()
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	eventCounts, err := s.repo.CountByEvent(ctx, from, to)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, c := range eventCounts {
		total += c
	}
	return &Stats{TotalEntries: total, EventCounts: eventCounts}, nil
}

// SuspiciousPattern flags an actor with repeated emergency bypasses inside a
// rolling 24h window.
type SuspiciousPattern struct {
	ActorID     string    `json:"actorId"`
	BypassCount int       `json:"bypassCount"`
	FirstSeen   time.Time `json:"firstSeen"`
	LastSeen    time.Time `json:"lastSeen"`
}

// DetectSuspiciousPatterns reports every actor with more than one
// EMERGENCY_BYPASS in the last 24 hours.
func (s *Service) DetectSuspiciousPatterns(ctx context.Context) ([]SuspiciousPattern, error) {
	since := time.Now().UTC().Add(-24 * time.Hour)
	entries, err := s.repo.ListByEventSince(ctx, audit.EventEmergencyBypass, since)
	if err != nil {
		return nil, err
	}
	byActor := make(map[string]*SuspiciousPattern)
	for _, e := range entries {
		p, ok := byActor[e.ActorID]
		if !ok {
			p = &SuspiciousPattern{ActorID: e.ActorID, FirstSeen: e.CreatedAt, LastSeen: e.CreatedAt}
			byActor[e.ActorID] = p
		}
		p.BypassCount++
		if e.CreatedAt.Before(p.FirstSeen) {
			p.FirstSeen = e.CreatedAt
		}
		if e.CreatedAt.After(p.LastSeen) {
			p.LastSeen = e.CreatedAt
		}
	}
	var patterns []SuspiciousPattern
	for _, p := range byActor {
		if p.BypassCount > 1 {
			patterns = append(patterns, *p)
		}
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].ActorID < patterns[j].ActorID })
	return patterns, nil
}

// VelocityReport summarizes how long workflows take from creation to a final
// decision.
type VelocityReport struct {
	Completed      int           `json:"completed"`
	MeanDuration   time.Duration `json:"meanDuration"`
	MedianDuration time.Duration `json:"medianDuration"`
}

func (s *Service) ApprovalVelocity(ctx context.Context, start, end time.Time) (*VelocityReport, error) {
	workflows, err := s.workflowRepo.ListCompletedBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}
	report := &VelocityReport{}
	if len(workflows) == 0 {
		return report, nil
	}
	durations := make([]time.Duration, 0, len(workflows))
	var total time.Duration
	for _, w := range workflows {
		if w.CompletedAt == nil {
			continue
		}
		d := w.CompletedAt.Sub(w.CreatedAt)
		durations = append(durations, d)
		total += d
	}
	if len(durations) == 0 {
		return report, nil
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	report.Completed = len(durations)
	report.MeanDuration = total / time.Duration(len(durations))
	mid := len(durations) / 2
	if len(durations)%2 == 0 {
		report.MedianDuration = (durations[mid-1] + durations[mid]) / 2
	} else {
		report.MedianDuration = durations[mid]
	}
	return report, nil
}

// Export bundles matching entries for offline compliance archival. The
// checksum digests every entry's integrity hash in order, so the exported
// file itself is tamper-evident.
type Export struct {
	Format            string         `json:"format"`
	Entries           []*audit.Entry `json:"entries"`
	ExportedAt        time.Time      `json:"exportedAt"`
	IntegrityChecksum string         `json:"integrityChecksum"`
}

func (s *Service) Export(ctx context.Context, filter audit.QueryFilter) (*Export, error) {
	const batch = 500
	var entries []*audit.Entry
	for offset := 0; ; offset += batch {
		page, err := s.repo.Query(ctx, filter, batch, offset)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if len(page) < batch {
			break
		}
	}
	h := sha256.New()
	for _, e := range entries {
		s.flagTampered(e)
		_, _ = h.Write(e.IntegrityHash)
	}
	return &Export{
		Format:            "json",
		Entries:           entries,
		ExportedAt:        time.Now().UTC(),
		IntegrityChecksum: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// CreateEntryWithRetry retries transient storage failures with linear
// backoff. Permanent failures (validation, constraint) are returned at once.
func (s *Service) CreateEntryWithRetry(ctx context.Context, d audit.Data, maxRetries int, backoff time.Duration) (*audit.Entry, error) {
	e, err := s.PrepareEntry(d)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * backoff):
			}
		}
		lastErr = s.repo.Create(ctx, e)
		if lastErr == nil {
			s.publishAlert(e)
			return e, nil
		}
		if !audit.IsTransient(lastErr) {
			return nil, lastErr
		}
		s.logger.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("transient audit write failure")
	}
	return nil, lastErr
}

// CreateCriticalEntry persists an entry that must not be lost. When the
// primary store is unhealthy the entry is spooled to the failsafe queue and
// written back by DrainFailsafe once the store recovers.
func (s *Service) CreateCriticalEntry(ctx context.Context, d audit.Data) (*audit.Entry, error) {
	e, err := s.PrepareEntry(d)
	if err != nil {
		return nil, err
	}
	if s.storeHealthy.Load() || s.queue == nil {
		createErr := s.repo.Create(ctx, e)
		if createErr == nil {
			s.storeHealthy.Store(true)
			s.publishAlert(e)
			return e, nil
		}
		if !audit.IsTransient(createErr) || s.queue == nil {
			return nil, createErr
		}
		s.storeHealthy.Store(false)
		s.logger.Error().Err(createErr).Msg("audit store unavailable, spooling to failsafe queue")
	}
	if err := s.queue.Enqueue(e); err != nil {
		return nil, err
	}
	s.publishAlert(e)
	return e, nil
}

// DrainFailsafe moves spooled entries back into the primary store. Called
// periodically from the server loop.
func (s *Service) DrainFailsafe(ctx context.Context) (int, error) {
	if s.queue == nil {
		return 0, nil
	}
	if err := s.repo.Ping(ctx); err != nil {
		return 0, err
	}
	drained, err := s.queue.Drain(func(e *audit.Entry) error {
		return s.repo.Create(ctx, e)
	})
	if err != nil {
		return drained, err
	}
	if drained > 0 {
		s.logger.Info().Int("drained", drained).Msg("failsafe audit entries flushed")
	}
	s.storeHealthy.Store(true)
	return drained, nil
}
