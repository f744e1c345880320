package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/policydocs/harvester/internal/answer"
)

func newTestHandler() *Handler {
	return New(answer.NewService(nil, nil, nil, nil))
}

func post(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestQueryEndpoint(t *testing.T) {
	h := newTestHandler()
	rec := post(t, h.Query, "/api/v1/query", `{"query":"What is the CPS assessment process?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var resp answer.QueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || resp.Response == "" || resp.SessionID == "" {
		t.Errorf("incomplete response: %+v", resp)
	}
	if resp.Note == "" {
		t.Error("response carries no canned-answer note")
	}
}

func TestQueryEndpointValidation(t *testing.T) {
	h := newTestHandler()
	for name, body := range map[string]string{
		"invalid json":  `{broken`,
		"missing query": `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := post(t, h.Query, "/api/v1/query", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestFeedbackEndpoint(t *testing.T) {
	h := newTestHandler()
	rec := post(t, h.Feedback, "/api/v1/feedback",
		`{"sessionId":"session_1748000000_0042","feedback":"helpful"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if success, _ := resp["success"].(bool); !success {
		t.Error("success = false, want true")
	}

	rec = post(t, h.Feedback, "/api/v1/feedback", `{"sessionId":"s"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status without feedback text = %d, want 400", rec.Code)
	}
}

func TestRefineEndpoint(t *testing.T) {
	h := newTestHandler()
	rec := post(t, h.Refine, "/api/v1/refine",
		`{"query":"safe sleep policy","sessionId":"session_1748000000_0042"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var resp answer.RefineResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || !strings.Contains(resp.RefinedResponse, "Refined response") {
		t.Errorf("incomplete refine response: %+v", resp)
	}

	rec = post(t, h.Refine, "/api/v1/refine", `{"query":"q"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status without session = %d, want 400", rec.Code)
	}
}
