// Package analytics publishes harvest and query events to Kafka and
// aggregates them into operational statistics served by the analytics
// worker.
package analytics

import "time"

// QueryEvent records one answered policy question.
type QueryEvent struct {
	SessionID string    `json:"session_id"`
	Topic     string    `json:"topic"`
	Section   string    `json:"section,omitempty"`
	CacheHit  bool      `json:"cache_hit"`
	AskedAt   time.Time `json:"asked_at"`
}
