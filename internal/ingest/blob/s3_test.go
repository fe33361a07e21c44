package blob

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPublicURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		key  string
		want string
	}{
		{
			name: "explicit public base",
			cfg:  Config{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"},
			key:  "uploads/1_a.csv",
			want: "https://cdn.example.com/uploads/1_a.csv",
		},
		{
			name: "custom endpoint",
			cfg:  Config{Bucket: "b", Endpoint: "http://localhost:9000"},
			key:  "uploads/1_a.csv",
			want: "http://localhost:9000/b/uploads/1_a.csv",
		},
		{
			name: "aws default",
			cfg:  Config{Bucket: "b", Region: "eu-west-1"},
			key:  "uploads/1_a.csv",
			want: "https://b.s3.eu-west-1.amazonaws.com/uploads/1_a.csv",
		},
	}

	for _, tc := range tests {
		s := NewWithClient(nil, nil, tc.cfg)
		if got := s.PublicURL(tc.key); got != tc.want {
			t.Fatalf("%s: PublicURL = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.csv") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("name,age\nAlice,30\n"))
	}))
	defer srv.Close()

	s := NewWithClient(nil, srv.Client(), Config{Bucket: "b"})

	data, err := s.Fetch(context.Background(), srv.URL+"/uploads/a.csv")
	if err != nil {
		t.Fatalf("Fetch() err = %v", err)
	}
	if string(data) != "name,age\nAlice,30\n" {
		t.Fatalf("Fetch() = %q", data)
	}

	_, err = s.Fetch(context.Background(), srv.URL+"/uploads/missing.csv")
	if err == nil || !strings.Contains(err.Error(), "failed to fetch file") {
		t.Fatalf("expected fetch failure, got %v", err)
	}
}
