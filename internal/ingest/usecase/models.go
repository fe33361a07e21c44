package usecase

import "github.com/csvdock/csvdock/internal/ingest/entity"

// UploadResult is returned to the caller as soon as the ledger record
// exists; ingestion continues detached.
type UploadResult struct {
	ID       string
	Filename string
	Size     int64
	URL      string
}

// RowsResult is one page of persisted rows plus the ledger status at read
// time.
type RowsResult struct {
	UploadID string
	Status   entity.UploadStatus
	Rows     []entity.CsvRowRecord
	Page     int
	PageSize int
	Total    int
}
