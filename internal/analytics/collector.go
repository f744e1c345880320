package analytics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/policydocs/harvester/internal/harvest"
	"github.com/policydocs/harvester/pkg/kafka"
)

// tracked pairs an event with the producer it should go out on.
type tracked struct {
	producer *kafka.Producer
	event    kafka.Event
}

// Collector buffers events and publishes them to Kafka off the request path.
// A nil *Collector is valid and drops everything, so callers need no
// enabled/disabled branching.
type Collector struct {
	harvestProducer *kafka.Producer
	queryProducer   *kafka.Producer
	eventCh         chan tracked
	logger          *slog.Logger
	done            chan struct{}

	// mu orders track sends against Close: eventCh is only closed under the
	// write lock, so an in-flight request handler can never send on a closed
	// channel during server shutdown.
	mu     sync.RWMutex
	closed bool
}

// NewCollector creates a Collector over the two event topics.
func NewCollector(harvestProducer, queryProducer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Collector{
		harvestProducer: harvestProducer,
		queryProducer:   queryProducer,
		eventCh:         make(chan tracked, bufferSize),
		logger:          slog.Default().With("component", "analytics-collector"),
		done:            make(chan struct{}),
	}
}

// Start launches the publish loop. It drains buffered events on ctx
// cancellation.
func (c *Collector) Start(ctx context.Context) {
	if c == nil {
		return
	}
	go func() {
		defer close(c.done)
		for {
			select {
			case t, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, t)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// TrackDocumentStored queues a per-document event.
func (c *Collector) TrackDocumentStored(ev harvest.DocumentStoredEvent) {
	c.track(trackedFor(c, ev.Section, ev))
}

// TrackBatchCompleted queues a per-batch event.
func (c *Collector) TrackBatchCompleted(ev harvest.BatchCompletedEvent) {
	c.track(trackedFor(c, "batch", ev))
}

// TrackQuery queues an answered-query event.
func (c *Collector) TrackQuery(ev QueryEvent) {
	if c == nil {
		return
	}
	c.track(tracked{producer: c.queryProducer, event: kafka.Event{Key: ev.Topic, Value: ev}})
}

func trackedFor(c *Collector, key string, value any) tracked {
	if c == nil {
		return tracked{}
	}
	return tracked{producer: c.harvestProducer, event: kafka.Event{Key: key, Value: value}}
}

func (c *Collector) track(t tracked) {
	if c == nil || t.producer == nil {
		return
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.logger.Warn("analytics event dropped (collector closed)")
		return
	}
	select {
	case c.eventCh <- t:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the publish loop to finish.
// Events tracked after Close are dropped. Safe to call more than once.
func (c *Collector) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}

func (c *Collector) publish(ctx context.Context, t tracked) {
	if err := t.producer.Publish(ctx, t.event); err != nil {
		c.logger.Error("failed to publish analytics event", "error", err)
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case t, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), t)
		default:
			return
		}
	}
}
