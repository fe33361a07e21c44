package inbound

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/csvdock/csvdock/internal/pkg/pkgerror"
	"github.com/csvdock/csvdock/internal/pkg/pkgrouter"
)

type HTTPEndpoint struct {
	uc uc
}

// Upload accepts a multipart form with a single "file" field and returns as
// soon as the upload is recorded; row ingestion runs detached.
func (h *HTTPEndpoint) Upload(ctx context.Context, r *http.Request) (any, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, pkgerror.NewInvalidInput(errors.New("no file provided"))
		}
		return nil, pkgerror.NewInvalidInput(errors.New("invalid multipart form"))
	}
	defer file.Close()

	result, err := h.uc.Upload(ctx, header.Filename, header.Size, file)
	if err != nil {
		return nil, err
	}

	return UploadResponse{
		ID:       result.ID,
		Filename: result.Filename,
		Size:     result.Size,
		URL:      result.URL,
		Message:  "File uploaded successfully. Processing started.",
	}, nil
}

func (h *HTTPEndpoint) Status(ctx context.Context, r *http.Request) (any, error) {
	uploadID := strings.TrimSpace(pkgrouter.GetParam(ctx, "id"))
	if uploadID == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("upload ID is required"))
	}

	rec, err := h.uc.Status(ctx, uploadID)
	if err != nil {
		return nil, err
	}

	resp := StatusResponse{
		ID:           rec.ID,
		Filename:     rec.Filename,
		OriginalName: rec.OriginalName,
		FileSize:     rec.FileSize,
		Status:       string(rec.Status),
		RowCount:     rec.RowCount,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
	if rec.ErrorMessage != "" {
		resp.ErrorMessage = &rec.ErrorMessage
	}

	return resp, nil
}

func (h *HTTPEndpoint) Rows(ctx context.Context, r *http.Request) (any, error) {
	uploadID := strings.TrimSpace(pkgrouter.GetParam(ctx, "id"))
	if uploadID == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("upload ID is required"))
	}

	query := r.URL.Query()
	page, pageSize, err := parsePagination(query.Get("page"), query.Get("page_size"))
	if err != nil {
		return nil, err
	}

	result, err := h.uc.Rows(ctx, uploadID, page, pageSize)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, Row{RowIndex: row.RowIndex, Data: row.Data})
	}

	return RowsResponse{
		ID:       result.UploadID,
		Status:   string(result.Status),
		Rows:     rows,
		Page:     result.Page,
		PageSize: result.PageSize,
		Total:    result.Total,
	}, nil
}

func parsePagination(pageRaw, sizeRaw string) (int, int, error) {
	page := 1
	pageSize := 50

	if pageRaw != "" {
		value, err := strconv.Atoi(pageRaw)
		if err != nil || value < 1 {
			return 0, 0, pkgerror.NewInvalidInput(errors.New("invalid page"))
		}
		page = value
	}

	if sizeRaw != "" {
		value, err := strconv.Atoi(sizeRaw)
		if err != nil || value < 1 {
			return 0, 0, pkgerror.NewInvalidInput(errors.New("invalid page_size"))
		}
		if value > 500 {
			value = 500
		}
		pageSize = value
	}

	return page, pageSize, nil
}
