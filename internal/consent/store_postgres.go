package consent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"consentdesk/pkg/requestcontext"
	"consentdesk/pkg/sentinel"
)

// PostgresStore persists consent records in PostgreSQL behind the same Store
// interface as the memory implementation. Ids come from the sequence, so the
// insertion-order tie-break on ListAll maps to "ORDER BY id" for equal access
// dates.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, document_name, data_accessed, document_size, document_type,
	host_user_id, host_user_name, guest_user_id, guest_user_name,
	access_date, expiry_date, status, access_level, purpose, created_at`

func (s *PostgresStore) Create(ctx context.Context, rec NewRecord) (ConsentRecord, error) {
	status := rec.Status
	if status == "" {
		status = StatusActive
	}
	accessLevel := rec.AccessLevel
	if accessLevel == "" {
		accessLevel = "read"
	}
	createdAt := requestcontext.Now(ctx)

	stored := ConsentRecord{
		DocumentName:  rec.DocumentName,
		DataAccessed:  rec.DataAccessed,
		DocumentSize:  rec.DocumentSize,
		DocumentType:  rec.DocumentType,
		HostUserID:    rec.HostUserID,
		HostUserName:  rec.HostUserName,
		GuestUserID:   rec.GuestUserID,
		GuestUserName: rec.GuestUserName,
		AccessDate:    rec.AccessDate,
		ExpiryDate:    rec.ExpiryDate,
		Status:        status,
		AccessLevel:   accessLevel,
		Purpose:       rec.Purpose,
		CreatedAt:     createdAt,
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO consent_records (
			document_name, data_accessed, document_size, document_type,
			host_user_id, host_user_name, guest_user_id, guest_user_name,
			access_date, expiry_date, status, access_level, purpose, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, rec.DocumentName, rec.DataAccessed, rec.DocumentSize, rec.DocumentType,
		rec.HostUserID, rec.HostUserName, rec.GuestUserID, rec.GuestUserName,
		rec.AccessDate, rec.ExpiryDate, string(status), accessLevel, rec.Purpose, createdAt,
	).Scan(&stored.ID)
	if err != nil {
		return ConsentRecord{}, fmt.Errorf("insert consent record: %w", err)
	}
	return stored, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (ConsentRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM consent_records WHERE id = $1
	`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ConsentRecord{}, sentinel.ErrNotFound
		}
		return ConsentRecord{}, fmt.Errorf("get consent record: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]ConsentRecord, error) {
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM consent_records ORDER BY access_date DESC, id ASC
	`)
}

func (s *PostgresStore) Update(ctx context.Context, id int64, patch RecordPatch) (ConsentRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ConsentRecord{}, fmt.Errorf("begin update tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM consent_records WHERE id = $1 FOR UPDATE
	`, id)
	existing, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ConsentRecord{}, sentinel.ErrNotFound
		}
		return ConsentRecord{}, fmt.Errorf("lock consent record: %w", err)
	}

	merged := patch.Apply(existing)
	_, err = tx.ExecContext(ctx, `
		UPDATE consent_records SET
			document_name = $2, data_accessed = $3, document_size = $4, document_type = $5,
			host_user_name = $6, guest_user_name = $7,
			access_date = $8, expiry_date = $9, status = $10, access_level = $11, purpose = $12
		WHERE id = $1
	`, id, merged.DocumentName, merged.DataAccessed, merged.DocumentSize, merged.DocumentType,
		merged.HostUserName, merged.GuestUserName,
		merged.AccessDate, merged.ExpiryDate, string(merged.Status), merged.AccessLevel, merged.Purpose)
	if err != nil {
		return ConsentRecord{}, fmt.Errorf("update consent record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return ConsentRecord{}, fmt.Errorf("commit update: %w", err)
	}
	return merged, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM consent_records WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete consent record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete consent record: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) Search(ctx context.Context, query string) ([]ConsentRecord, error) {
	pattern := "%" + query + "%"
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM consent_records
		WHERE document_name ILIKE $1 OR data_accessed ILIKE $1
		   OR host_user_name ILIKE $1 OR guest_user_name ILIKE $1
		ORDER BY id ASC
	`, pattern)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]ConsentRecord, error) {
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM consent_records WHERE status = $1 ORDER BY id ASC
	`, string(status))
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID int64) ([]ConsentRecord, error) {
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM consent_records
		WHERE host_user_id = $1 OR guest_user_id = $1
		ORDER BY id ASC
	`, userID)
}

func (s *PostgresStore) ListByDateRange(ctx context.Context, start, end time.Time) ([]ConsentRecord, error) {
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM consent_records
		WHERE access_date >= $1 AND access_date <= $2
		ORDER BY id ASC
	`, start, end)
}

func (s *PostgresStore) queryRecords(ctx context.Context, query string, args ...any) ([]ConsentRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query consent records: %w", err)
	}
	defer rows.Close()

	var out []ConsentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consent record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate consent records: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ConsentRecord, error) {
	var rec ConsentRecord
	var status string
	err := row.Scan(
		&rec.ID, &rec.DocumentName, &rec.DataAccessed, &rec.DocumentSize, &rec.DocumentType,
		&rec.HostUserID, &rec.HostUserName, &rec.GuestUserID, &rec.GuestUserName,
		&rec.AccessDate, &rec.ExpiryDate, &status, &rec.AccessLevel, &rec.Purpose, &rec.CreatedAt,
	)
	if err != nil {
		return ConsentRecord{}, err
	}
	rec.Status = Status(status)
	return rec, nil
}
