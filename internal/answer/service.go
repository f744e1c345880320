package answer

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/policydocs/harvester/internal/analytics"
	apperrors "github.com/policydocs/harvester/pkg/errors"
	"github.com/policydocs/harvester/pkg/metrics"
)

// InteractionLog records answer-service exchanges. Implemented by
// catalog.Catalog; may be nil when no database is configured.
type InteractionLog interface {
	RecordInteraction(ctx context.Context, in Interaction) error
}

// Interaction mirrors catalog.Interaction without importing it, keeping the
// dependency direction catalog → answer-free.
type Interaction struct {
	SessionID   string
	UserID      string
	Kind        string
	Query       string
	Response    string
	Feedback    string
	SourceCount int
}

// QueryRequest is a policy question from a caller.
type QueryRequest struct {
	Query     string `json:"query"`
	Section   string `json:"section,omitempty"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// QueryResponse is the full answer envelope.
type QueryResponse struct {
	Success   bool     `json:"success"`
	Response  string   `json:"response"`
	Sources   []Source `json:"sources"`
	SessionID string   `json:"sessionId"`
	Usage     Usage    `json:"usage"`
	Note      string   `json:"note"`
	Timestamp string   `json:"timestamp"`
}

// FeedbackRequest carries caller feedback on a previous answer.
type FeedbackRequest struct {
	SessionID string `json:"sessionId"`
	Query     string `json:"query"`
	Response  string `json:"response"`
	Feedback  string `json:"feedback"`
	UserID    string `json:"userId,omitempty"`
}

// RefineRequest asks for an expanded answer to an earlier query.
type RefineRequest struct {
	Query     string `json:"query"`
	Response  string `json:"response,omitempty"`
	SessionID string `json:"sessionId"`
	Section   string `json:"section,omitempty"`
}

// RefineResponse is the refinement envelope.
type RefineResponse struct {
	Success         bool   `json:"success"`
	RefinedResponse string `json:"refined_response"`
	Usage           Usage  `json:"usage"`
	Timestamp       string `json:"timestamp"`
}

// Service answers policy questions, caches responses, logs interactions, and
// emits query events.
type Service struct {
	cache     *Cache
	log       InteractionLog
	collector *analytics.Collector
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewService wires the answer service. cache, log, collector, and metrics
// may each be nil.
func NewService(cache *Cache, log InteractionLog, collector *analytics.Collector, m *metrics.Metrics) *Service {
	return &Service{
		cache:     cache,
		log:       log,
		collector: collector,
		metrics:   m,
		logger:    slog.Default().With("component", "answer-service"),
	}
}

// Query answers a policy question.
func (s *Service) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if req.Query == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, 400, "query is required")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = newSessionID(req.Query)
	}
	s.logger.Info("processing query",
		"session_id", sessionID,
		"section", req.Section,
	)

	result, cached := s.cache.GetOrCompute(ctx, req.Query, req.Section, func() Result {
		return Generate(req.Query, req.Section)
	})
	if s.metrics != nil {
		s.metrics.AnswerQueriesTotal.WithLabelValues(result.Topic).Inc()
		if cached {
			s.metrics.AnswerCacheHits.Inc()
		} else {
			s.metrics.AnswerCacheMisses.Inc()
		}
	}

	s.record(ctx, Interaction{
		SessionID:   sessionID,
		UserID:      req.UserID,
		Kind:        "query",
		Query:       req.Query,
		Response:    result.Response,
		SourceCount: len(result.Sources),
	})
	s.collector.TrackQuery(analytics.QueryEvent{
		SessionID: sessionID,
		Topic:     result.Topic,
		Section:   req.Section,
		CacheHit:  cached,
		AskedAt:   time.Now().UTC(),
	})

	return &QueryResponse{
		Success:   true,
		Response:  result.Response,
		Sources:   result.Sources,
		SessionID: sessionID,
		Usage:     result.Usage,
		Note:      Note,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// Feedback logs caller feedback on a previous answer.
func (s *Service) Feedback(ctx context.Context, req FeedbackRequest) error {
	if req.SessionID == "" || req.Feedback == "" {
		return apperrors.New(apperrors.ErrInvalidInput, 400, "sessionId and feedback are required")
	}
	s.record(ctx, Interaction{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Kind:      "feedback",
		Query:     req.Query,
		Response:  req.Response,
		Feedback:  req.Feedback,
	})
	return nil
}

// Refine returns an expanded answer for an earlier query.
func (s *Service) Refine(ctx context.Context, req RefineRequest) (*RefineResponse, error) {
	if req.Query == "" || req.SessionID == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, 400, "query and sessionId are required")
	}
	result := Refine(req.Query, req.Section)
	s.record(ctx, Interaction{
		SessionID: req.SessionID,
		Kind:      "refine",
		Query:     req.Query,
		Response:  result.Response,
	})
	return &RefineResponse{
		Success:         true,
		RefinedResponse: result.Response,
		Usage:           result.Usage,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// record writes to the interaction log; failures are reported but never
// fail the user-visible request.
func (s *Service) record(ctx context.Context, in Interaction) {
	if s.log == nil {
		return
	}
	if err := s.log.RecordInteraction(ctx, in); err != nil {
		s.logger.Error("recording interaction failed",
			"session_id", in.SessionID,
			"kind", in.Kind,
			"error", err,
		)
	}
}

// newSessionID builds a readable, collision-resistant session id.
func newSessionID(query string) string {
	h := fnv.New32a()
	h.Write([]byte(query))
	return fmt.Sprintf("session_%d_%04d", time.Now().Unix(), h.Sum32()%10000)
}
