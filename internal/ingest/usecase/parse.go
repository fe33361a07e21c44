package usecase

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/csvdock/csvdock/internal/ingest/entity"
)

// parseCSV decodes a CSV document with a header row into ordered row
// mappings. Any reader-reported error is fatal for the whole document; the
// messages are aggregated into one error so the ledger records a single
// description.
func parseCSV(data []byte) ([]entity.CsvRow, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	// Enforce a consistent field count against the header; short or long
	// records are parse errors, not silently padded rows.
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("CSV file appears to be empty or has no valid data rows")
		}
		return nil, fmt.Errorf("CSV parsing errors: %s", err.Error())
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = normalizeHeader(h)
	}

	var rows []entity.CsvRow
	var parseErrs []string

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			parseErrs = append(parseErrs, err.Error())
			continue
		}

		if isBlank(record) {
			continue
		}

		// Cell values are stored exactly as given; only headers are
		// normalized.
		var row entity.RowData
		for i, col := range columns {
			if i >= len(record) {
				break
			}
			row.Set(col, record[i])
		}

		rows = append(rows, entity.CsvRow{Index: len(rows), Data: row})
	}

	if len(parseErrs) > 0 {
		return nil, fmt.Errorf("CSV parsing errors: %s", strings.Join(parseErrs, ", "))
	}
	if len(rows) == 0 {
		return nil, errors.New("CSV file appears to be empty or has no valid data rows")
	}

	return rows, nil
}

// normalizeHeader trims, lowercases, and replaces every character outside
// [a-z0-9] with an underscore. The operation is idempotent.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))

	var b strings.Builder
	b.Grow(len(h))
	for _, r := range h {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isBlank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
