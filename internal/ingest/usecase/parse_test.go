package usecase

import (
	"strings"
	"testing"
)

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"First Name!", "first_name_"},
		{"  Age  ", "age"},
		{"e-mail", "e_mail"},
		{"ALLCAPS", "allcaps"},
		{"col2", "col2"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := normalizeHeader(tc.in); got != tc.want {
			t.Fatalf("normalizeHeader(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeHeaderIdempotent(t *testing.T) {
	t.Parallel()

	for _, h := range []string{"First Name!", "already_normal", "x 1 2 3"} {
		once := normalizeHeader(h)
		if twice := normalizeHeader(once); twice != once {
			t.Fatalf("normalizeHeader not idempotent: %q -> %q -> %q", h, once, twice)
		}
	}
}

func TestParseCSVThreeRows(t *testing.T) {
	t.Parallel()

	rows, err := parseCSV([]byte("name,age\nAlice,30\nBob,25\nCara,40\n"))
	if err != nil {
		t.Fatalf("parseCSV() err = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	want := []map[string]string{
		{"name": "Alice", "age": "30"},
		{"name": "Bob", "age": "25"},
		{"name": "Cara", "age": "40"},
	}
	for i, row := range rows {
		if row.Index != i {
			t.Fatalf("row %d has index %d", i, row.Index)
		}
		for k, v := range want[i] {
			if got, _ := row.Data.Get(k); got != v {
				t.Fatalf("row %d %s = %q, want %q", i, k, got, v)
			}
		}
	}
}

func TestParseCSVHeaderOnly(t *testing.T) {
	t.Parallel()

	_, err := parseCSV([]byte("name,age\n"))
	if err == nil || !strings.Contains(err.Error(), "no valid data rows") {
		t.Fatalf("expected no-data error, got %v", err)
	}
}

func TestParseCSVEmptyFile(t *testing.T) {
	t.Parallel()

	_, err := parseCSV(nil)
	if err == nil || !strings.Contains(err.Error(), "no valid data rows") {
		t.Fatalf("expected no-data error, got %v", err)
	}
}

func TestParseCSVSkipsBlankLines(t *testing.T) {
	t.Parallel()

	rows, err := parseCSV([]byte("name,age\nAlice,30\n\nBob,25\n"))
	if err != nil {
		t.Fatalf("parseCSV() err = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Index != 1 {
		t.Fatalf("indices must stay contiguous, got %d", rows[1].Index)
	}
}

func TestParseCSVInconsistentColumns(t *testing.T) {
	t.Parallel()

	_, err := parseCSV([]byte("name,age\nAlice,30,extra\n"))
	if err == nil || !strings.Contains(err.Error(), "CSV parsing errors") {
		t.Fatalf("expected aggregated parse error, got %v", err)
	}
}

func TestParseCSVNormalizesHeaders(t *testing.T) {
	t.Parallel()

	rows, err := parseCSV([]byte("First Name!,Home Address\nAlice,Elm St\n"))
	if err != nil {
		t.Fatalf("parseCSV() err = %v", err)
	}

	keys := rows[0].Data.Keys()
	if keys[0] != "first_name_" || keys[1] != "home_address" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestParseCSVKeepsValueWhitespace(t *testing.T) {
	t.Parallel()

	rows, err := parseCSV([]byte("name,address\nAlice,\" 12 Elm St \"\n"))
	if err != nil {
		t.Fatalf("parseCSV() err = %v", err)
	}
	if got, _ := rows[0].Data.Get("address"); got != " 12 Elm St " {
		t.Fatalf("address = %q, want the padded value verbatim", got)
	}
}

func TestParseCSVKeepsNumbersAsStrings(t *testing.T) {
	t.Parallel()

	rows, err := parseCSV([]byte("amount\n42\n"))
	if err != nil {
		t.Fatalf("parseCSV() err = %v", err)
	}
	if got, _ := rows[0].Data.Get("amount"); got != "42" {
		t.Fatalf("amount = %q, want the string 42", got)
	}
}
