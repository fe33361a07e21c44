package inbound

import (
	"time"

	"github.com/csvdock/csvdock/internal/ingest/entity"
)

type UploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
	Message  string `json:"message"`
}

// StatusResponse mirrors the ledger record. RowCount and ErrorMessage render
// as null until their terminal transition sets them.
type StatusResponse struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	FileSize     int64     `json:"fileSize"`
	Status       string    `json:"status"`
	RowCount     *int      `json:"rowCount"`
	ErrorMessage *string   `json:"errorMessage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Row renders one persisted row; Data keeps the original column order.
type Row struct {
	RowIndex int            `json:"rowIndex"`
	Data     entity.RowData `json:"data"`
}

type RowsResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Rows     []Row  `json:"rows"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Total    int    `json:"total"`
}
