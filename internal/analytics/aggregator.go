package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/policydocs/harvester/internal/harvest"
	"github.com/policydocs/harvester/pkg/kafka"
)

// Stats is the aggregated view served by the analytics worker.
type Stats struct {
	BatchesCompleted   int64            `json:"batches_completed"`
	DocumentsStored    int64            `json:"documents_stored"`
	BytesStored        int64            `json:"bytes_stored"`
	DocumentsBySection map[string]int64 `json:"documents_by_section"`
	QueriesAnswered    int64            `json:"queries_answered"`
	QueriesByTopic     map[string]int64 `json:"queries_by_topic"`
	CacheHits          int64            `json:"cache_hits"`
	UptimeSeconds      int64            `json:"uptime_seconds"`
}

// Aggregator consumes harvest and query events and keeps in-memory counts.
// State is rebuilt from the topic on restart; it is operational telemetry,
// not a system of record.
type Aggregator struct {
	mu                 sync.RWMutex
	batchesCompleted   int64
	documentsStored    int64
	bytesStored        int64
	documentsBySection map[string]int64
	queriesAnswered    int64
	queriesByTopic     map[string]int64
	cacheHits          int64
	startTime          time.Time
	logger             *slog.Logger
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		documentsBySection: make(map[string]int64),
		queriesByTopic:     make(map[string]int64),
		startTime:          time.Now(),
		logger:             slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleHarvestEvent is the Kafka handler for the harvest-events topic. The
// topic carries both per-document and per-batch events; payload shape
// disambiguates them.
func HandleHarvestEvent(a *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		if doc, err := kafka.DecodeJSON[harvest.DocumentStoredEvent](value); err == nil && doc.StorageKey != "" {
			a.recordDocument(doc)
			return nil
		}
		batch, err := kafka.DecodeJSON[harvest.BatchCompletedEvent](value)
		if err != nil || batch.SourceURL == "" {
			a.logger.Error("unrecognized harvest event", "key", string(key))
			return nil
		}
		a.recordBatch(batch)
		return nil
	}
}

// HandleQueryEvent is the Kafka handler for the query-events topic.
func HandleQueryEvent(a *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		ev, err := kafka.DecodeJSON[QueryEvent](value)
		if err != nil {
			a.logger.Error("unrecognized query event", "key", string(key), "error", err)
			return nil
		}
		a.recordQuery(ev)
		return nil
	}
}

func (a *Aggregator) recordDocument(ev harvest.DocumentStoredEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.documentsStored++
	a.bytesStored += ev.SizeBytes
	a.documentsBySection[ev.Section]++
}

func (a *Aggregator) recordBatch(ev harvest.BatchCompletedEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.batchesCompleted++
}

func (a *Aggregator) recordQuery(ev QueryEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queriesAnswered++
	a.queriesByTopic[ev.Topic]++
	if ev.CacheHit {
		a.cacheHits++
	}
}

// Snapshot returns a copy of the current aggregates.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	stats := Stats{
		BatchesCompleted:   a.batchesCompleted,
		DocumentsStored:    a.documentsStored,
		BytesStored:        a.bytesStored,
		DocumentsBySection: make(map[string]int64, len(a.documentsBySection)),
		QueriesAnswered:    a.queriesAnswered,
		QueriesByTopic:     make(map[string]int64, len(a.queriesByTopic)),
		CacheHits:          a.cacheHits,
		UptimeSeconds:      int64(time.Since(a.startTime).Seconds()),
	}
	for k, v := range a.documentsBySection {
		stats.DocumentsBySection[k] = v
	}
	for k, v := range a.queriesByTopic {
		stats.QueriesByTopic[k] = v
	}
	return stats
}

// StatsHandler serves the aggregated statistics as JSON.
func (a *Aggregator) StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(a.Snapshot()); err != nil {
			a.logger.Error("failed to write stats response", "error", err)
		}
	}
}
