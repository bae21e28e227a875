package consent

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentdesk/pkg/sentinel"
)

func setupPostgresMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to open sqlmock database")
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func recordRows(recs ...ConsentRecord) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "document_name", "data_accessed", "document_size", "document_type",
		"host_user_id", "host_user_name", "guest_user_id", "guest_user_name",
		"access_date", "expiry_date", "status", "access_level", "purpose", "created_at",
	})
	for _, r := range recs {
		rows.AddRow(r.ID, r.DocumentName, r.DataAccessed, r.DocumentSize, r.DocumentType,
			r.HostUserID, r.HostUserName, r.GuestUserID, r.GuestUserName,
			r.AccessDate, r.ExpiryDate, string(r.Status), r.AccessLevel, r.Purpose, r.CreatedAt)
	}
	return rows
}

func sampleRecord() ConsentRecord {
	access := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	return ConsentRecord{
		ID:            1,
		DocumentName:  "Financial_Report_2023.pdf",
		DataAccessed:  "Revenue data, Q4 metrics",
		DocumentSize:  "2.4 MB",
		DocumentType:  "pdf",
		HostUserID:    1,
		HostUserName:  "Sarah Wilson",
		GuestUserID:   2,
		GuestUserName: "Michael Chen",
		AccessDate:    access,
		ExpiryDate:    access.AddDate(0, 1, 0),
		Status:        StatusActive,
		AccessLevel:   "read",
		Purpose:       "Financial audit verification",
		CreatedAt:     access,
	}
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock := setupPostgresMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO consent_records")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	rec, err := store.Create(context.Background(), NewRecord{
		DocumentName: "Test.pdf",
		DataAccessed: "everything",
		HostUserID:   1,
		GuestUserID:  2,
		AccessDate:   time.Now(),
		ExpiryDate:   time.Now().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.ID)
	assert.Equal(t, StatusActive, rec.Status)
	assert.Equal(t, "read", rec.AccessLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	store, mock := setupPostgresMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM consent_records WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(recordRows())

	_, err := store.Get(context.Background(), 99)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := setupPostgresMock(t)
	want := sampleRecord()

	mock.ExpectQuery(regexp.QuoteMeta("FROM consent_records WHERE id = $1")).
		WithArgs(want.ID).
		WillReturnRows(recordRows(want))

	got, err := store.Get(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateMergesInsideTx(t *testing.T) {
	store, mock := setupPostgresMock(t)
	existing := sampleRecord()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(existing.ID).
		WillReturnRows(recordRows(existing))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE consent_records SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expired := StatusExpired
	merged, err := store.Update(context.Background(), existing.ID, RecordPatch{Status: &expired})
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, merged.Status)
	assert.Equal(t, existing.DocumentName, merged.DocumentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock := setupPostgresMock(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM consent_records WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	existed, err := store.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, existed)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM consent_records WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	existed, err = store.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SearchUsesAllFourFields(t *testing.T) {
	store, mock := setupPostgresMock(t)
	want := sampleRecord()

	mock.ExpectQuery(regexp.QuoteMeta("host_user_name ILIKE $1 OR guest_user_name ILIKE $1")).
		WithArgs("%contract%").
		WillReturnRows(recordRows(want))

	results, err := store.Search(context.Background(), "contract")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, want.ID, results[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
