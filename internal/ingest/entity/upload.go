package entity

import "time"

// UploadRecord is the ledger entry for one accepted upload.
type UploadRecord struct {
	ID           string
	Filename     string // stored object name, disambiguated
	OriginalName string // filename as submitted by the browser
	FileSize     int64
	BlobURL      string
	Status       UploadStatus

	// RowCount is set only on the transition into completed.
	RowCount *int
	// ErrorMessage is set only on the transition into failed.
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CsvRow is one parsed data row, prior to persistence.
type CsvRow struct {
	Index int // zero-based position in the original file
	Data  RowData
}

// CsvRowRecord is a persisted row as read back from the ledger.
type CsvRowRecord struct {
	ID        int64
	UploadID  string
	RowIndex  int
	Data      RowData
	CreatedAt time.Time
}
