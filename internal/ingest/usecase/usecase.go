package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/csvdock/csvdock/internal/ingest/entity"
	"github.com/csvdock/csvdock/internal/pkg/pkgerror"
	"github.com/csvdock/csvdock/internal/pkg/pkguid"
)

// MaxUploadBytes is the largest accepted file size.
const MaxUploadBytes = 10 << 20 // 10 MiB

const insertBatchSize = 100

// Store is the upload ledger contract.
type Store interface {
	CreateUpload(ctx context.Context, rec entity.UploadRecord) error
	GetUpload(ctx context.Context, uploadID string) (entity.UploadRecord, error)
	MarkProcessing(ctx context.Context, uploadID string, at time.Time) error
	MarkCompleted(ctx context.Context, uploadID string, rowCount int, at time.Time) error
	MarkFailed(ctx context.Context, uploadID string, message string, at time.Time) error
	// InsertRows persists one batch atomically.
	InsertRows(ctx context.Context, uploadID string, rows []entity.CsvRow, at time.Time) error
	CountRows(ctx context.Context, uploadID string) (int, error)
	ListRows(ctx context.Context, uploadID string, limit, offset int) ([]entity.CsvRowRecord, error)
}

// ObjectStore is the blob storage contract.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.UploadEvent) error
}

type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error)
}

type Clock interface {
	Now() time.Time
}

type Dependency struct {
	Store   Store
	Objects ObjectStore
	Events  EventPublisher
	Runner  Runner
	Clock   Clock
	ID      pkguid.StringID // upload identifiers
	Keys    pkguid.NumberID // object key suffixes
	RootCtx context.Context
}

type Usecase struct {
	store   Store
	objects ObjectStore
	events  EventPublisher
	runner  Runner
	clock   Clock
	id      pkguid.StringID
	keys    pkguid.NumberID
	rootCtx context.Context
}

func New(dep Dependency) *Usecase {
	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &Usecase{
		store:   dep.Store,
		objects: dep.Objects,
		events:  dep.Events,
		runner:  dep.Runner,
		clock:   clock,
		id:      dep.ID,
		keys:    dep.Keys,
		rootCtx: root,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Upload validates and stores one file, records it in the ledger with status
// pending, and kicks off ingestion as a detached task. The returned result
// is independent of ingestion progress.
func (u *Usecase) Upload(ctx context.Context, originalName string, declaredSize int64, r io.Reader) (UploadResult, error) {
	if u.store == nil || u.objects == nil || u.id == nil || u.keys == nil || u.runner == nil {
		return UploadResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	if originalName == "" {
		return UploadResult{}, pkgerror.NewInvalidInput(errors.New("no file provided"))
	}
	if !strings.HasSuffix(strings.ToLower(originalName), ".csv") {
		return UploadResult{}, pkgerror.NewInvalidInput(errors.New("file must be a CSV file"))
	}
	if declaredSize > MaxUploadBytes {
		return UploadResult{}, pkgerror.NewInvalidInput(errors.New("file size must be less than 10MB"))
	}

	// The declared size comes from the multipart header and can lie; reading
	// one byte past the cap catches the oversized case before any store write.
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return UploadResult{}, pkgerror.NewServer(fmt.Errorf("read upload: %w", err))
	}
	if len(data) > MaxUploadBytes {
		return UploadResult{}, pkgerror.NewInvalidInput(errors.New("file size must be less than 10MB"))
	}

	key := fmt.Sprintf("uploads/%d_%s", u.keys.Generate(), sanitizeObjectName(originalName))
	blobURL, err := u.objects.Put(ctx, key, data, "text/csv")
	if err != nil {
		return UploadResult{}, pkgerror.NewServer(fmt.Errorf("store upload: %w", err))
	}

	now := u.clock.Now()
	rec := entity.UploadRecord{
		ID:           u.id.Generate(),
		Filename:     path.Base(key),
		OriginalName: originalName,
		FileSize:     int64(len(data)),
		BlobURL:      blobURL,
		Status:       entity.UploadStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.store.CreateUpload(ctx, rec); err != nil {
		return UploadResult{}, normalizeErr(err)
	}

	u.runner.Go(u.rootCtx, func(ctx context.Context) error {
		if err := u.processUpload(ctx, rec.ID, blobURL); err != nil {
			slog.ErrorContext(ctx, "upload processing failed", "upload_id", rec.ID, "error", err)
			return err
		}
		return nil
	})

	return UploadResult{
		ID:       rec.ID,
		Filename: rec.Filename,
		Size:     rec.FileSize,
		URL:      blobURL,
	}, nil
}

// Status returns the current ledger record for an upload.
func (u *Usecase) Status(ctx context.Context, uploadID string) (entity.UploadRecord, error) {
	if uploadID == "" {
		return entity.UploadRecord{}, pkgerror.NewInvalidInput(errors.New("upload ID is required"))
	}

	rec, err := u.store.GetUpload(ctx, uploadID)
	if err != nil {
		return entity.UploadRecord{}, mapStoreErr(err)
	}

	return rec, nil
}

// Rows returns one page of persisted rows for an upload, ordered by row
// index. Rows become visible while ingestion is still running; the ledger
// status tells the caller whether the page is final.
func (u *Usecase) Rows(ctx context.Context, uploadID string, page, pageSize int) (RowsResult, error) {
	if uploadID == "" {
		return RowsResult{}, pkgerror.NewInvalidInput(errors.New("upload ID is required"))
	}

	rec, err := u.store.GetUpload(ctx, uploadID)
	if err != nil {
		return RowsResult{}, mapStoreErr(err)
	}

	total, err := u.store.CountRows(ctx, uploadID)
	if err != nil {
		return RowsResult{}, normalizeErr(err)
	}

	rows, err := u.store.ListRows(ctx, uploadID, pageSize, (page-1)*pageSize)
	if err != nil {
		return RowsResult{}, normalizeErr(err)
	}

	return RowsResult{
		UploadID: rec.ID,
		Status:   rec.Status,
		Rows:     rows,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// processUpload is the detached ingestion run: fetch, parse, persist, and
// settle the record in a terminal state. Errors never escape unrecorded.
func (u *Usecase) processUpload(ctx context.Context, uploadID, blobURL string) error {
	rowCount, err := u.ingestRows(ctx, uploadID, blobURL)
	if err != nil {
		if failErr := u.store.MarkFailed(ctx, uploadID, err.Error(), u.clock.Now()); failErr != nil {
			err = errors.Join(err, failErr)
		}
		u.publishTerminal(ctx, uploadID, entity.UploadStatusFailed, 0, err.Error())
		return err
	}

	if err := u.store.MarkCompleted(ctx, uploadID, rowCount, u.clock.Now()); err != nil {
		if failErr := u.store.MarkFailed(ctx, uploadID, err.Error(), u.clock.Now()); failErr != nil {
			err = errors.Join(err, failErr)
		}
		u.publishTerminal(ctx, uploadID, entity.UploadStatusFailed, 0, err.Error())
		return err
	}

	u.publishTerminal(ctx, uploadID, entity.UploadStatusCompleted, rowCount, "")
	return nil
}

func (u *Usecase) ingestRows(ctx context.Context, uploadID, blobURL string) (int, error) {
	data, err := u.objects.Fetch(ctx, blobURL)
	if err != nil {
		return 0, err
	}

	rows, err := parseCSV(data)
	if err != nil {
		return 0, err
	}

	// Processing means "rows are being written"; a malformed CSV never
	// reaches that state.
	if err := u.store.MarkProcessing(ctx, uploadID, u.clock.Now()); err != nil {
		return 0, err
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if err := u.store.InsertRows(ctx, uploadID, rows[start:end], u.clock.Now()); err != nil {
			return 0, fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
		}
	}

	return len(rows), nil
}

func (u *Usecase) publishTerminal(ctx context.Context, uploadID string, status entity.UploadStatus, rowCount int, errMsg string) {
	if u.events == nil {
		return
	}

	event := entity.UploadEvent{
		EventID:  u.id.Generate(),
		UploadID: uploadID,
		Status:   status,
		RowCount: rowCount,
		Err:      errMsg,
	}
	if err := u.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish upload event", "upload_id", uploadID, "event_id", event.EventID, "error", err)
	}
}

func sanitizeObjectName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func mapStoreErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("upload not found", pkgerror.CodeNotFound)
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
