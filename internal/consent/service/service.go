// Package service owns consent policy: validation on create, the renewal
// extension, the status sweep, and the audit/metrics side effects. It keeps
// orchestration out of handlers and the store thin.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"consentdesk/internal/audit"
	"consentdesk/internal/consent"
	"consentdesk/internal/platform/metrics"
	"consentdesk/internal/user"
	"consentdesk/pkg/apperrors"
	"consentdesk/pkg/requestcontext"
	"consentdesk/pkg/sentinel"
)

// Config carries the lifecycle policy knobs.
type Config struct {
	// ExpiringWindow is how close to expiry a grant must be before the sweep
	// marks it "expiring".
	ExpiringWindow time.Duration
	// RenewalExtension is how far a renewal pushes the expiry out from now.
	RenewalExtension time.Duration
}

// StatsCache is an optional read-through cache for the dashboard header.
type StatsCache interface {
	GetStats(ctx context.Context) (consent.Stats, bool)
	SetStats(ctx context.Context, stats consent.Stats)
}

type Service struct {
	store      consent.Store
	users      user.Store
	auditor    audit.Recorder
	metrics    *metrics.Metrics
	logger     *slog.Logger
	cfg        Config
	statsCache StatsCache
}

// Option configures the Service.
type Option func(*Service)

// WithAuditor attaches the audit trail recorder.
func WithAuditor(a audit.Recorder) Option {
	return func(s *Service) { s.auditor = a }
}

// WithMetrics attaches the Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStatsCache attaches a read-through stats cache.
func WithStatsCache(c StatsCache) Option {
	return func(s *Service) { s.statsCache = c }
}

func New(store consent.Store, users user.Store, logger *slog.Logger, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:  store,
		users:  users,
		logger: logger,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the payload and stores the record. Party ids are required:
// a grant without explicit host and guest is rejected rather than defaulted.
// Missing display names are snapshotted from the user store at grant time.
func (s *Service) Create(ctx context.Context, rec consent.NewRecord) (consent.ConsentRecord, error) {
	fields := map[string]string{}
	if rec.DocumentName == "" {
		fields["documentName"] = "document name is required"
	}
	if rec.DataAccessed == "" {
		fields["dataAccessed"] = "data accessed description is required"
	}
	if rec.HostUserID <= 0 {
		fields["hostUserId"] = "host user id is required"
	}
	if rec.GuestUserID <= 0 {
		fields["guestUserId"] = "guest user id is required"
	}
	if rec.AccessDate.IsZero() {
		fields["accessDate"] = "access date is required"
	}
	if rec.ExpiryDate.IsZero() {
		fields["expiryDate"] = "expiry date is required"
	} else if !rec.AccessDate.IsZero() && rec.ExpiryDate.Before(rec.AccessDate) {
		fields["expiryDate"] = "expiry date must not precede access date"
	}
	if rec.Status != "" && !rec.Status.Valid() {
		fields["status"] = "status must be one of active, expiring, expired"
	}
	if len(fields) > 0 {
		return consent.ConsentRecord{}, apperrors.Validation(fields)
	}

	var err error
	if rec.HostUserName == "" {
		if rec.HostUserName, err = s.snapshotName(ctx, rec.HostUserID); err != nil {
			return consent.ConsentRecord{}, apperrors.Validation(map[string]string{"hostUserId": "unknown host user"})
		}
	}
	if rec.GuestUserName == "" {
		if rec.GuestUserName, err = s.snapshotName(ctx, rec.GuestUserID); err != nil {
			return consent.ConsentRecord{}, apperrors.Validation(map[string]string{"guestUserId": "unknown guest user"})
		}
	}

	stored, err := s.store.Create(ctx, rec)
	if err != nil {
		return consent.ConsentRecord{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create consent record")
	}

	s.metrics.IncRecordsCreated()
	s.emit(ctx, audit.ActionGrant, stored.ID, stored.DocumentName)
	return stored, nil
}

func (s *Service) snapshotName(ctx context.Context, userID int64) (string, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("snapshot user name: %w", err)
	}
	return u.Username, nil
}

func (s *Service) Get(ctx context.Context, id int64) (consent.ConsentRecord, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return consent.ConsentRecord{}, apperrors.New(apperrors.CodeNotFound, "consent record not found")
		}
		return consent.ConsentRecord{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to fetch consent record")
	}
	return rec, nil
}

// List returns every record, newest grant first.
func (s *Service) List(ctx context.Context) ([]consent.ConsentRecord, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list consent records")
	}
	return records, nil
}

// Update merges the patch onto the stored record.
func (s *Service) Update(ctx context.Context, id int64, patch consent.RecordPatch) (consent.ConsentRecord, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return consent.ConsentRecord{}, apperrors.Validation(map[string]string{
			"status": "status must be one of active, expiring, expired",
		})
	}

	merged, err := s.store.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return consent.ConsentRecord{}, apperrors.New(apperrors.CodeNotFound, "consent record not found")
		}
		return consent.ConsentRecord{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to update consent record")
	}

	s.emit(ctx, audit.ActionUpdate, merged.ID, merged.DocumentName)
	return merged, nil
}

// Revoke deletes the record outright. There is no revoked state; the audit
// trail is the only remaining trace of the grant.
func (s *Service) Revoke(ctx context.Context, id int64) error {
	// Fetch first so the audit event can name the document.
	rec, err := s.store.Get(ctx, id)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to revoke consent record")
	}

	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to revoke consent record")
	}
	if !existed {
		return apperrors.New(apperrors.CodeNotFound, "consent record not found")
	}

	s.metrics.IncRecordsRevoked()
	s.emit(ctx, audit.ActionRevoke, id, rec.DocumentName)
	return nil
}

// Renew resets the record to active with a fresh expiry of now plus the
// configured extension. This is deliberately service policy, not store logic.
func (s *Service) Renew(ctx context.Context, id int64) (consent.ConsentRecord, error) {
	now := requestcontext.Now(ctx)
	active := consent.StatusActive
	expiry := now.Add(s.cfg.RenewalExtension)

	renewed, err := s.store.Update(ctx, id, consent.RecordPatch{
		Status:     &active,
		ExpiryDate: &expiry,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return consent.ConsentRecord{}, apperrors.New(apperrors.CodeNotFound, "consent record not found")
		}
		return consent.ConsentRecord{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to renew consent record")
	}

	s.metrics.IncRecordsRenewed()
	s.emit(ctx, audit.ActionRenew, renewed.ID, renewed.DocumentName)
	return renewed, nil
}

func (s *Service) Search(ctx context.Context, query string) ([]consent.ConsentRecord, error) {
	records, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to search consent records")
	}
	return records, nil
}

// ListByStatus filters on the stored status. Unknown status values simply
// match nothing; the filter is an exact string match, not an enum gate.
func (s *Service) ListByStatus(ctx context.Context, status consent.Status) ([]consent.ConsentRecord, error) {
	records, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to filter consent records")
	}
	return records, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]consent.ConsentRecord, error) {
	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to filter consent records")
	}
	return records, nil
}

func (s *Service) ListByDateRange(ctx context.Context, start, end time.Time) ([]consent.ConsentRecord, error) {
	records, err := s.store.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to filter consent records")
	}
	return records, nil
}

// Stats tallies the full record set by stored status.
func (s *Service) Stats(ctx context.Context) (consent.Stats, error) {
	if s.statsCache != nil {
		if stats, ok := s.statsCache.GetStats(ctx); ok {
			return stats, nil
		}
	}

	records, err := s.store.ListAll(ctx)
	if err != nil {
		return consent.Stats{}, apperrors.Wrap(err, apperrors.CodeInternal, "failed to compute consent statistics")
	}
	stats := consent.TallyStats(records)

	if s.statsCache != nil {
		s.statsCache.SetStats(ctx, stats)
	}
	return stats, nil
}

// RefreshStatuses applies due lifecycle transitions to every record and
// returns how many were updated. The background sweeper calls this on a
// ticker; statuses stay stored fields, this is their external updater.
func (s *Service) RefreshStatuses(ctx context.Context, now time.Time) (int, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh statuses: %w", err)
	}

	updated := 0
	for _, rec := range records {
		next, due := consent.NextStatus(rec, now, s.cfg.ExpiringWindow)
		if !due {
			continue
		}
		status := next
		if _, err := s.store.Update(ctx, rec.ID, consent.RecordPatch{Status: &status}); err != nil {
			// A record revoked mid-sweep is not an error worth aborting for.
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return updated, fmt.Errorf("refresh status of record %d: %w", rec.ID, err)
		}
		s.metrics.IncStatusTransition(string(next))
		updated++
	}
	return updated, nil
}

// RunSweeper runs RefreshStatuses on the given interval until ctx ends.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			updated, err := s.RefreshStatuses(ctx, now)
			if err != nil {
				s.logger.ErrorContext(ctx, "status sweep failed", "error", err.Error())
				continue
			}
			if updated > 0 {
				s.logger.InfoContext(ctx, "status sweep applied transitions", "updated", updated)
			}
		}
	}
}

func (s *Service) emit(ctx context.Context, action audit.Action, recordID int64, documentName string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Record(ctx, audit.Event{
		ID:           uuid.NewString(),
		Action:       action,
		RecordID:     recordID,
		DocumentName: documentName,
		ActorID:      requestcontext.UserID(ctx),
		ClientIP:     requestcontext.ClientIP(ctx),
		UserAgent:    requestcontext.UserAgent(ctx),
		RequestID:    requestcontext.RequestID(ctx),
		OccurredAt:   requestcontext.Now(ctx),
	})
}
