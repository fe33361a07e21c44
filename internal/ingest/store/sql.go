package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver

	"github.com/csvdock/csvdock/internal/ingest/entity"
	"github.com/csvdock/csvdock/internal/pkg/pkgerror"
)

// ErrIllegalTransition is returned when a status update would move an upload
// backwards or out of a terminal state.
var ErrIllegalTransition = errors.New("illegal upload status transition")

// SQLStore is the upload ledger backed by a relational database.
//
// It exclusively owns the csv_uploads and csv_rows tables; endpoints and the
// ingestion routine go through its methods, never through raw handles.
type SQLStore struct {
	db *sqlx.DB
}

// Open connects to the database at dsn and migrates the schema.
func Open(dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database dsn required")
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database resources.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var pragmaStatements = []string{
	`PRAGMA journal_mode = WAL;`,
	`PRAGMA foreign_keys = ON;`,
	`PRAGMA busy_timeout = 5000;`,
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS csv_uploads (
		id            TEXT PRIMARY KEY,
		filename      TEXT NOT NULL,
		original_name TEXT NOT NULL,
		file_size     INTEGER NOT NULL,
		blob_url      TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'pending',
		row_count     INTEGER,
		error_message TEXT,
		created_at    TIMESTAMP NOT NULL,
		updated_at    TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS csv_rows (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		upload_id  TEXT NOT NULL REFERENCES csv_uploads(id),
		row_index  INTEGER NOT NULL,
		data       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (upload_id, row_index)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_csv_rows_upload ON csv_rows(upload_id);`,
}

func (s *SQLStore) migrate(ctx context.Context) error {
	// Pragmas cannot run inside a transaction.
	for _, stmt := range pragmaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute pragma: %w", err)
		}
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

type uploadRow struct {
	ID           string         `db:"id"`
	Filename     string         `db:"filename"`
	OriginalName string         `db:"original_name"`
	FileSize     int64          `db:"file_size"`
	BlobURL      string         `db:"blob_url"`
	Status       string         `db:"status"`
	RowCount     sql.NullInt64  `db:"row_count"`
	ErrorMessage sql.NullString `db:"error_message"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r uploadRow) toEntity() entity.UploadRecord {
	rec := entity.UploadRecord{
		ID:           r.ID,
		Filename:     r.Filename,
		OriginalName: r.OriginalName,
		FileSize:     r.FileSize,
		BlobURL:      r.BlobURL,
		Status:       entity.UploadStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.RowCount.Valid {
		count := int(r.RowCount.Int64)
		rec.RowCount = &count
	}
	if r.ErrorMessage.Valid {
		rec.ErrorMessage = r.ErrorMessage.String
	}
	return rec
}

// CreateUpload inserts a new ledger record.
func (s *SQLStore) CreateUpload(ctx context.Context, rec entity.UploadRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO csv_uploads (id, filename, original_name, file_size, blob_url, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Filename, rec.OriginalName, rec.FileSize, rec.BlobURL, string(rec.Status), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return pkgerror.NewBusiness("upload already exists", pkgerror.CodeConflict)
		}
		return fmt.Errorf("create upload: %w", err)
	}
	return nil
}

// GetUpload returns the ledger record for uploadID.
func (s *SQLStore) GetUpload(ctx context.Context, uploadID string) (entity.UploadRecord, error) {
	var row uploadRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, filename, original_name, file_size, blob_url, status, row_count, error_message, created_at, updated_at
		 FROM csv_uploads WHERE id = ?`, uploadID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.UploadRecord{}, pkgerror.ErrNotFound
	}
	if err != nil {
		return entity.UploadRecord{}, fmt.Errorf("get upload: %w", err)
	}
	return row.toEntity(), nil
}

// MarkProcessing moves a pending upload into processing.
func (s *SQLStore) MarkProcessing(ctx context.Context, uploadID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE csv_uploads SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(entity.UploadStatusProcessing), at, uploadID, string(entity.UploadStatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	return s.checkTransition(ctx, res, uploadID)
}

// MarkCompleted moves a processing upload into completed and records the row
// count. This is the only writer of row_count.
func (s *SQLStore) MarkCompleted(ctx context.Context, uploadID string, rowCount int, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE csv_uploads SET status = ?, row_count = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(entity.UploadStatusCompleted), rowCount, at, uploadID, string(entity.UploadStatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return s.checkTransition(ctx, res, uploadID)
}

// MarkFailed settles an upload as failed with a descriptive message. Legal
// from both pending (fetch/parse failures) and processing (insert failures).
func (s *SQLStore) MarkFailed(ctx context.Context, uploadID string, message string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE csv_uploads SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)`,
		string(entity.UploadStatusFailed), message, at, uploadID,
		string(entity.UploadStatusPending), string(entity.UploadStatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return s.checkTransition(ctx, res, uploadID)
}

func (s *SQLStore) checkTransition(ctx context.Context, res sql.Result, uploadID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var exists int
	if err := s.db.GetContext(ctx, &exists, `SELECT COUNT(1) FROM csv_uploads WHERE id = ?`, uploadID); err != nil {
		return err
	}
	if exists == 0 {
		return pkgerror.ErrNotFound
	}
	return ErrIllegalTransition
}

// InsertRows persists one batch of rows as a single multi-VALUES insert, so
// the batch commits or fails as a unit.
func (s *SQLStore) InsertRows(ctx context.Context, uploadID string, rows []entity.CsvRow, at time.Time) error {
	if len(rows) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO csv_rows (upload_id, row_index, data, created_at) VALUES `)
	args := make([]any, 0, len(rows)*4)
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?)")

		data, err := json.Marshal(row.Data)
		if err != nil {
			return fmt.Errorf("encode row %d: %w", row.Index, err)
		}
		args = append(args, uploadID, row.Index, string(data), at)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert rows: %w", err)
	}
	return nil
}

// CountRows returns the number of persisted rows for an upload.
func (s *SQLStore) CountRows(ctx context.Context, uploadID string) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM csv_rows WHERE upload_id = ?`, uploadID); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return count, nil
}

type csvRowRow struct {
	ID        int64     `db:"id"`
	UploadID  string    `db:"upload_id"`
	RowIndex  int       `db:"row_index"`
	Data      string    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
}

// ListRows returns persisted rows ordered by row index.
func (s *SQLStore) ListRows(ctx context.Context, uploadID string, limit, offset int) ([]entity.CsvRowRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	var raw []csvRowRow
	err := s.db.SelectContext(ctx, &raw,
		`SELECT id, upload_id, row_index, data, created_at
		 FROM csv_rows WHERE upload_id = ? ORDER BY row_index LIMIT ? OFFSET ?`,
		uploadID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}

	out := make([]entity.CsvRowRecord, 0, len(raw))
	for _, r := range raw {
		var data entity.RowData
		if err := json.Unmarshal([]byte(r.Data), &data); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", r.RowIndex, err)
		}
		out = append(out, entity.CsvRowRecord{
			ID:        r.ID,
			UploadID:  r.UploadID,
			RowIndex:  r.RowIndex,
			Data:      data,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}
