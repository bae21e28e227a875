package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentdesk/internal/audit"
	"consentdesk/internal/consent"
	"consentdesk/internal/user"
	"consentdesk/pkg/apperrors"
	"consentdesk/pkg/requestcontext"
)

type recorderStub struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recorderStub) Record(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorderStub) actions() []audit.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Action, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

func testConfig() Config {
	return Config{
		ExpiringWindow:   7 * 24 * time.Hour,
		RenewalExtension: 30 * 24 * time.Hour,
	}
}

func newTestService(t *testing.T) (*Service, *recorderStub, user.Store) {
	t.Helper()
	users := user.NewInMemoryStore()
	_, err := users.Create(context.Background(), "sarah.wilson", "hash")
	require.NoError(t, err)
	_, err = users.Create(context.Background(), "michael.chen", "hash")
	require.NoError(t, err)

	recorder := &recorderStub{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(consent.NewInMemoryStore(), users, logger, testConfig(), WithAuditor(recorder))
	return svc, recorder, users
}

func validNewRecord() consent.NewRecord {
	access := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	return consent.NewRecord{
		DocumentName: "Financial_Report_2023.pdf",
		DataAccessed: "Revenue data, Q4 metrics",
		HostUserID:   1,
		GuestUserID:  2,
		AccessDate:   access,
		ExpiryDate:   access.AddDate(0, 1, 0),
	}
}

func TestService_CreateSnapshotsNamesAndDefaults(t *testing.T) {
	svc, recorder, _ := newTestService(t)

	rec, err := svc.Create(context.Background(), validNewRecord())
	require.NoError(t, err)

	assert.Equal(t, consent.StatusActive, rec.Status)
	assert.Equal(t, "read", rec.AccessLevel)
	assert.Equal(t, "sarah.wilson", rec.HostUserName)
	assert.Equal(t, "michael.chen", rec.GuestUserName)
	assert.Equal(t, []audit.Action{audit.ActionGrant}, recorder.actions())
}

func TestService_CreateKeepsProvidedNameSnapshots(t *testing.T) {
	svc, _, _ := newTestService(t)

	payload := validNewRecord()
	payload.HostUserName = "Sarah Wilson"
	payload.GuestUserName = "Michael Chen"

	rec, err := svc.Create(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "Sarah Wilson", rec.HostUserName)
	assert.Equal(t, "Michael Chen", rec.GuestUserName)
}

func TestService_CreateRequiresExplicitParties(t *testing.T) {
	svc, _, _ := newTestService(t)

	payload := validNewRecord()
	payload.HostUserID = 0
	payload.GuestUserID = 0

	_, err := svc.Create(context.Background(), payload)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
	fields := apperrors.FieldsOf(err)
	assert.Contains(t, fields, "hostUserId")
	assert.Contains(t, fields, "guestUserId")
}

func TestService_CreateRejectsExpiryBeforeAccess(t *testing.T) {
	svc, _, _ := newTestService(t)

	payload := validNewRecord()
	payload.ExpiryDate = payload.AccessDate.AddDate(0, 0, -1)

	_, err := svc.Create(context.Background(), payload)
	require.Error(t, err)
	assert.Contains(t, apperrors.FieldsOf(err), "expiryDate")
}

func TestService_CreateRejectsUnknownParty(t *testing.T) {
	svc, _, _ := newTestService(t)

	payload := validNewRecord()
	payload.HostUserID = 99 // no such user, and no name snapshot provided

	_, err := svc.Create(context.Background(), payload)
	require.Error(t, err)
	assert.Contains(t, apperrors.FieldsOf(err), "hostUserId")
}

func TestService_UpdateStatusOnlyLeavesRestUntouched(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background(), validNewRecord())
	require.NoError(t, err)

	expired := consent.StatusExpired
	updated, err := svc.Update(context.Background(), created.ID, consent.RecordPatch{Status: &expired})
	require.NoError(t, err)
	assert.Equal(t, consent.StatusExpired, updated.Status)
	assert.Equal(t, created.DocumentName, updated.DocumentName)
	assert.Equal(t, created.ExpiryDate, updated.ExpiryDate)
}

func TestService_UpdateRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	created, err := svc.Create(context.Background(), validNewRecord())
	require.NoError(t, err)

	bogus := consent.Status("suspended")
	_, err = svc.Update(context.Background(), created.ID, consent.RecordPatch{Status: &bogus})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestService_RevokeIsDestructive(t *testing.T) {
	svc, recorder, _ := newTestService(t)
	created, err := svc.Create(context.Background(), validNewRecord())
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(context.Background(), created.ID))

	_, err = svc.Get(context.Background(), created.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	err = svc.Revoke(context.Background(), created.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound), "second revoke must be a 404")

	assert.Equal(t, []audit.Action{audit.ActionGrant, audit.ActionRevoke}, recorder.actions())
}

func TestService_RenewResetsStatusAndExtendsExpiry(t *testing.T) {
	svc, recorder, _ := newTestService(t)

	payload := validNewRecord()
	payload.Status = consent.StatusExpired
	created, err := svc.Create(context.Background(), payload)
	require.NoError(t, err)

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	renewed, err := svc.Renew(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, consent.StatusActive, renewed.Status)
	assert.Equal(t, now.Add(30*24*time.Hour), renewed.ExpiryDate)
	assert.Contains(t, recorder.actions(), audit.ActionRenew)
}

func TestService_RenewUnknownID(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Renew(context.Background(), 404)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestService_RefreshStatusesAppliesDueTransitions(t *testing.T) {
	svc, _, _ := newTestService(t)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	fresh := validNewRecord()
	fresh.AccessDate = now.AddDate(0, 0, -1)
	fresh.ExpiryDate = now.AddDate(0, 2, 0)

	closing := validNewRecord()
	closing.DocumentName = "closing.pdf"
	closing.AccessDate = now.AddDate(0, 0, -20)
	closing.ExpiryDate = now.Add(2 * 24 * time.Hour)

	past := validNewRecord()
	past.DocumentName = "past.pdf"
	past.AccessDate = now.AddDate(0, -2, 0)
	past.ExpiryDate = now.Add(-time.Hour)

	ctx := context.Background()
	for _, p := range []consent.NewRecord{fresh, closing, past} {
		_, err := svc.Create(ctx, p)
		require.NoError(t, err)
	}

	updated, err := svc.RefreshStatuses(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Expiring)
	assert.Equal(t, 1, stats.Expired)
}

type statsCacheStub struct {
	stats  consent.Stats
	cached bool
	sets   int
}

func (c *statsCacheStub) GetStats(context.Context) (consent.Stats, bool) {
	return c.stats, c.cached
}

func (c *statsCacheStub) SetStats(_ context.Context, stats consent.Stats) {
	c.stats = stats
	c.cached = true
	c.sets++
}

func TestService_StatsReadsThroughCache(t *testing.T) {
	users := user.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := &statsCacheStub{}
	svc := New(consent.NewInMemoryStore(), users, logger, testConfig(), WithStatsCache(cache))

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "miss populates the cache")

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets, "hit skips recomputation")
}
