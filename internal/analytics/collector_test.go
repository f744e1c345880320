package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/policydocs/harvester/pkg/config"
	"github.com/policydocs/harvester/pkg/kafka"
)

// testProducers builds producers over an unreachable broker. The kafka-go
// writer dials lazily, so constructing them never touches the network; events
// tracked in these tests are dropped before any publish attempt.
func testProducers() (*kafka.Producer, *kafka.Producer) {
	cfg := config.KafkaConfig{Brokers: []string{"localhost:1"}}
	return kafka.NewProducer(cfg, "harvest.events"), kafka.NewProducer(cfg, "query.events")
}

// Graceful shutdown drains in-flight request handlers after the listener
// stops, so Track calls can race the collector's Close. They must drop the
// event, not panic on a closed channel.
func TestTrackAfterCloseDropsEvent(t *testing.T) {
	harvestProd, queryProd := testProducers()
	c := NewCollector(harvestProd, queryProd, 8)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()
	c.Close()

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("TrackQuery after Close panicked: %v", r)
		}
	}()
	c.TrackQuery(QueryEvent{SessionID: "session_1_0001", Topic: "general", AskedAt: time.Now()})
}

func TestCloseIsIdempotent(t *testing.T) {
	harvestProd, queryProd := testProducers()
	c := NewCollector(harvestProd, queryProd, 8)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()
	c.Close()
	c.Close()
}

func TestConcurrentTrackDuringClose(t *testing.T) {
	harvestProd, queryProd := testProducers()
	c := NewCollector(harvestProd, queryProd, 256)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()
	<-c.done // publish loop exited; nothing reads eventCh any more

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.TrackQuery(QueryEvent{SessionID: "session_1_0002", Topic: "general"})
			}
		}()
	}
	c.Close()
	wg.Wait()
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Start(context.Background())
	c.TrackQuery(QueryEvent{Topic: "general"})
	c.Close()
}
