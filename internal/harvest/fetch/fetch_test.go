package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/policydocs/harvester/pkg/config"
	apperrors "github.com/policydocs/harvester/pkg/errors"
)

func testConfig() config.HarvestConfig {
	return config.HarvestConfig{
		FetchTimeout:      5 * time.Second,
		MaxPayloadSize:    1 << 20,
		UserAgent:         "harvester-test/1.0",
		RequestsPerSecond: 100,
	}
}

func TestPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "harvester-test/1.0" {
			t.Errorf("User-Agent = %q, want %q", got, "harvester-test/1.0")
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	f := New(testConfig())
	page, err := f.Page(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Page() error: %v", err)
	}
	if !strings.Contains(page, "hello") {
		t.Errorf("Page() = %q, want body containing %q", page, "hello")
	}
}

func TestPageErrorIsSourceFetchFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(testConfig())
	_, err := f.Page(context.Background(), srv.URL)
	if !errors.Is(err, apperrors.ErrSourceFetchFailed) {
		t.Fatalf("Page() error = %v, want ErrSourceFetchFailed", err)
	}
	if got := apperrors.HTTPStatusCode(err); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatusCode = %d, want %d", got, http.StatusInternalServerError)
	}
}

func TestDocumentAcceptsDeclaredContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("not really a pdf"))
	}))
	defer srv.Close()

	f := New(testConfig())
	result, err := f.Document(context.Background(), srv.URL, KindPDF)
	if err != nil {
		t.Fatalf("Document() error: %v", err)
	}
	if result.ContentType != "application/pdf" {
		t.Errorf("ContentType = %q, want application/pdf", result.ContentType)
	}
}

func TestDocumentAcceptsMagicBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Misdeclared content type with a valid signature.
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("%PDF-1.7 payload"))
	}))
	defer srv.Close()

	f := New(testConfig())
	if _, err := f.Document(context.Background(), srv.URL, KindPDF); err != nil {
		t.Fatalf("Document() error: %v", err)
	}
}

func TestDocumentRejectsInvalidContent(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"html error page", "text/html", "<html>login</html>"},
		{"signature not at start", "application/octet-stream", "x%PDF-1.7"},
		{"body shorter than signature", "application/octet-stream", "%P"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := New(testConfig())
			_, err := f.Document(context.Background(), srv.URL, KindPDF)
			if !errors.Is(err, apperrors.ErrInvalidContent) {
				t.Fatalf("Document() error = %v, want ErrInvalidContent", err)
			}
		})
	}
}

func TestDocumentPayloadCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPayloadSize = 64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF" + strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	f := New(cfg)
	_, err := f.Document(context.Background(), srv.URL, KindPDF)
	if !errors.Is(err, apperrors.ErrPayloadTooLarge) {
		t.Fatalf("Document() error = %v, want ErrPayloadTooLarge", err)
	}
	if got := apperrors.Kind(err); got != "PayloadTooLarge" {
		t.Errorf("Kind = %q, want PayloadTooLarge", got)
	}
}

func TestDocumentExactlyAtCap(t *testing.T) {
	body := append([]byte("%PDF"), make([]byte, 60)...)
	cfg := testConfig()
	cfg.MaxPayloadSize = int64(len(body))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(body)
	}))
	defer srv.Close()

	f := New(cfg)
	result, err := f.Document(context.Background(), srv.URL, KindPDF)
	if err != nil {
		t.Fatalf("Document() error at exact cap: %v", err)
	}
	if len(result.Body) != len(body) {
		t.Errorf("Body length = %d, want %d", len(result.Body), len(body))
	}
}

func TestDocumentTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig()
	cfg.FetchTimeout = 50 * time.Millisecond

	f := New(cfg)
	_, err := f.Document(context.Background(), srv.URL, KindPDF)
	if !errors.Is(err, apperrors.ErrFetchTimeout) {
		t.Fatalf("Document() error = %v, want ErrFetchTimeout", err)
	}
}
