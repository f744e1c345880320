// Package integration verifies the full HTTP server wiring: real router,
// middleware, pipeline, and answer service over an in-memory object store,
// with the source site mocked by an httptest server. PostgreSQL, Redis, and
// Kafka are left unconfigured; the service must degrade gracefully.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	answerpkg "github.com/policydocs/harvester/internal/answer"
	answerhandler "github.com/policydocs/harvester/internal/answer/handler"
	"github.com/policydocs/harvester/internal/harvest"
	"github.com/policydocs/harvester/internal/harvest/fetch"
	harvesthandler "github.com/policydocs/harvester/internal/harvest/handler"
	"github.com/policydocs/harvester/internal/harvest/pipeline"
	"github.com/policydocs/harvester/internal/server"
	"github.com/policydocs/harvester/internal/storage"
	"github.com/policydocs/harvester/pkg/config"
	"github.com/policydocs/harvester/pkg/health"
)

// newSourceSite serves a policy page with three PDF links, one of which
// returns an HTML error page instead of a document.
func newSourceSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/dss/manuals", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body>
			<h2>Child Welfare Manuals</h2>
			<a href="/files/cps-assessments-may-2025-1.pdf">CPS Assessments</a>
			<a href="/files/adoptions-1.pdf">Adoptions</a>
			<h2>Safe Sleep</h2>
			<a href="/files/broken.pdf">Safe Sleep Policy</a>
		</body></html>`)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/files/broken.pdf" {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html>session expired</html>")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprintf(w, "%%PDF-1.7 fake payload for %s", r.URL.Path)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newHarvesterServer wires the full service with an in-memory store and no
// optional backends.
func newHarvesterServer(t *testing.T) (*httptest.Server, *storage.Memory) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load() error: %v", err)
	}
	cfg.Storage.Backend = "memory"
	cfg.Harvest.FetchTimeout = 5 * time.Second
	cfg.Harvest.RequestsPerSecond = 1000
	cfg.Server.RateLimitPerMin = 10000

	store := storage.NewMemory()
	fetcher := fetch.New(cfg.Harvest)
	pipe := pipeline.New(fetcher, store, cfg.Storage, pipeline.Options{})
	answerService := answerpkg.NewService(nil, nil, nil, nil)

	chain := server.New(cfg,
		harvesthandler.New(pipe, nil),
		answerhandler.New(answerService),
		health.NewChecker(),
		nil,
	)
	srv := httptest.NewServer(chain)
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func TestHarvestEndToEnd(t *testing.T) {
	source := newSourceSite(t)
	srv, store := newHarvesterServer(t)

	resp, body := postJSON(t, srv.URL+"/api/v1/harvest",
		map[string]string{"url": source.URL + "/dss/manuals"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID on the response")
	}

	var report harvest.Report
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if !report.Success {
		t.Error("report.Success = false, want true")
	}
	if report.Summary.Total != 3 || report.Summary.Successful != 2 || report.Summary.Failed != 1 {
		t.Fatalf("summary = %+v, want total 3 / successful 2 / failed 1", report.Summary)
	}
	if len(report.Errors) != 1 || report.Errors[0].Kind != "InvalidContent" {
		t.Errorf("errors = %+v, want one InvalidContent entry", report.Errors)
	}

	// Both good documents landed in the store under classified keys.
	if store.Len() != 2 {
		t.Fatalf("store has %d objects, want 2", store.Len())
	}
	keys, _ := store.List(context.Background(), "policy-pdfs/child-welfare-manuals/")
	if len(keys) != 2 {
		t.Errorf("manuals keys = %v, want both documents classified as manuals", keys)
	}
}

func TestHarvestEmptyPage(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><p>no documents</p></body></html>")
	}))
	t.Cleanup(empty.Close)
	srv, _ := newHarvesterServer(t)

	resp, body := postJSON(t, srv.URL+"/api/v1/harvest", map[string]string{"url": empty.URL})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}
	var report harvest.Report
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("decoding report: %v", err)
	}
	if report.Message != "No PDF links found on the specified page" {
		t.Errorf("message = %q", report.Message)
	}
}

func TestHarvestUnreachableSource(t *testing.T) {
	srv, _ := newHarvesterServer(t)

	// A closed server port: the page fetch fails before any item starts.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	resp, body := postJSON(t, srv.URL+"/api/v1/harvest", map[string]string{"url": deadURL})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500: %s", resp.StatusCode, body)
	}
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if success, _ := envelope["success"].(bool); success {
		t.Error("success = true, want false")
	}
}

func TestQueryEndToEnd(t *testing.T) {
	srv, _ := newHarvesterServer(t)

	resp, body := postJSON(t, srv.URL+"/api/v1/query",
		map[string]string{"query": "What is the safe sleep policy?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}
	var qr answerpkg.QueryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !qr.Success || qr.Response == "" || len(qr.Sources) == 0 {
		t.Errorf("incomplete answer: %+v", qr)
	}

	// Feedback and refine accept the returned session.
	resp, _ = postJSON(t, srv.URL+"/api/v1/feedback",
		map[string]string{"sessionId": qr.SessionID, "feedback": "helpful"})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("feedback status = %d, want 200", resp.StatusCode)
	}
	resp, _ = postJSON(t, srv.URL+"/api/v1/refine",
		map[string]string{"sessionId": qr.SessionID, "query": "What is the safe sleep policy?"})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("refine status = %d, want 200", resp.StatusCode)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	srv, _ := newHarvesterServer(t)

	for _, path := range []string{"/health", "/health/ready", "/api/v1/status"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	srv, _ := newHarvesterServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/unknown")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var envelope map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding 404 envelope: %v", err)
	}
	if success, _ := envelope["success"].(bool); success {
		t.Error("success = true, want false")
	}
}
