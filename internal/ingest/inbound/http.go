package inbound

import (
	"context"
	"io"

	"github.com/csvdock/csvdock/internal/ingest/entity"
	"github.com/csvdock/csvdock/internal/ingest/usecase"
	"github.com/csvdock/csvdock/internal/pkg/pkgrouter"
)

type uc interface {
	Upload(ctx context.Context, originalName string, declaredSize int64, r io.Reader) (usecase.UploadResult, error)
	Status(ctx context.Context, uploadID string) (entity.UploadRecord, error)
	Rows(ctx context.Context, uploadID string, page, pageSize int) (usecase.RowsResult, error)
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/upload", end.Upload)
	r.GET("/api/upload/:id", end.Status)
	r.GET("/api/upload/:id/rows", end.Rows) // ?page=&page_size=

	r.Handle("GET", "/", pageHandler())
}
