// Package pipeline drives one harvest batch run: fetch the source page,
// extract document links, then classify, download, and store each one in
// discovery order. Items are processed sequentially and independently; one
// link's failure never aborts the batch.
package pipeline

import (
	"context"
	"time"

	"github.com/policydocs/harvester/internal/analytics"
	"github.com/policydocs/harvester/internal/harvest"
	"github.com/policydocs/harvester/internal/harvest/classify"
	"github.com/policydocs/harvester/internal/harvest/extract"
	"github.com/policydocs/harvester/internal/harvest/fetch"
	"github.com/policydocs/harvester/internal/harvest/sanitize"
	"github.com/policydocs/harvester/internal/storage"
	"github.com/policydocs/harvester/pkg/config"
	apperrors "github.com/policydocs/harvester/pkg/errors"
	"github.com/policydocs/harvester/pkg/logger"
	"github.com/policydocs/harvester/pkg/metrics"
)

// Fetcher is the network surface the pipeline depends on.
type Fetcher interface {
	Page(ctx context.Context, url string) (string, error)
	Document(ctx context.Context, url string, kind fetch.Kind) (*fetch.Result, error)
}

// Recorder indexes a stored document in the catalog. It may be nil when no
// database is configured.
type Recorder interface {
	RecordDocument(ctx context.Context, doc harvest.ProcessedDocument) error
}

// Pipeline is the batch orchestrator. One Pipeline serves many concurrent
// runs; all per-run state lives on the stack of Run.
type Pipeline struct {
	fetcher   Fetcher
	store     storage.Store
	recorder  Recorder
	collector *analytics.Collector
	metrics   *metrics.Metrics
	keyPrefix string
	sourceTag string
}

// Options carries the optional collaborators of a Pipeline.
type Options struct {
	Recorder  Recorder
	Collector *analytics.Collector
	Metrics   *metrics.Metrics
	// SourceTag labels stored objects with their provenance.
	SourceTag string
}

// New creates a Pipeline writing under cfg.KeyPrefix.
func New(fetcher Fetcher, store storage.Store, cfg config.StorageConfig, opts Options) *Pipeline {
	tag := opts.SourceTag
	if tag == "" {
		tag = "policy-harvest"
	}
	return &Pipeline{
		fetcher:   fetcher,
		store:     store,
		recorder:  opts.Recorder,
		collector: opts.Collector,
		metrics:   opts.Metrics,
		keyPrefix: cfg.KeyPrefix,
		sourceTag: tag,
	}
}

// Run executes one batch against sourceURL. It returns a Report for every
// completed run, including runs where individual items failed; an error is
// returned only when the run could not start (unreachable source page).
func (p *Pipeline) Run(ctx context.Context, sourceURL string) (*harvest.Report, error) {
	log := logger.FromContext(ctx).With("component", "pipeline", "source_url", sourceURL)
	start := time.Now()

	page, err := p.fetcher.Page(ctx, sourceURL)
	if err != nil {
		p.countBatch("failed")
		return nil, err
	}

	links, err := extract.Links(page, sourceURL)
	if err != nil {
		p.countBatch("failed")
		return nil, apperrors.Newf(apperrors.ErrInternal, 500, "extracting links: %v", err)
	}
	log.Info("discovered document links", "count", len(links))

	report := &harvest.Report{
		Success:       true,
		Summary:       harvest.BatchSummary{Sections: map[string]int{}},
		Results:       []harvest.ProcessedDocument{},
		ProcessedFrom: sourceURL,
	}

	if len(links) == 0 {
		report.Message = "No PDF links found on the specified page"
		report.Timestamp = time.Now().UTC()
		p.countBatch("completed")
		return report, nil
	}

	for i, link := range links {
		section := classify.Section(link.Text, link.URL, link.NearbyText+" "+link.SectionHeading)
		report.Summary.Sections[section]++

		log.Info("processing document",
			"index", i+1,
			"total", len(links),
			"url", link.URL,
			"section", section,
		)

		doc, err := p.processOne(ctx, link, section)
		if err != nil {
			kind := apperrors.Kind(err)
			log.Warn("document failed",
				"url", link.URL,
				"kind", kind,
				"error", err,
			)
			if p.metrics != nil {
				p.metrics.DocumentFetchErrors.WithLabelValues(kind).Inc()
			}
			report.Errors = append(report.Errors, harvest.ProcessingError{
				URL:      link.URL,
				LinkText: link.Text,
				Kind:     kind,
				Error:    err.Error(),
			})
			continue
		}

		report.Results = append(report.Results, *doc)
		if p.metrics != nil {
			p.metrics.DocumentsStoredTotal.WithLabelValues(section).Inc()
			p.metrics.DocumentBytesStored.Add(float64(doc.SizeBytes))
		}
		p.collector.TrackDocumentStored(harvest.DocumentStoredEvent{
			OriginalURL: doc.OriginalURL,
			StorageKey:  doc.StorageKey,
			Section:     doc.Section,
			SizeBytes:   doc.SizeBytes,
			StoredAt:    doc.ProcessedAt,
		})
	}

	report.Summary.Total = len(links)
	report.Summary.Successful = len(report.Results)
	report.Summary.Failed = len(report.Errors)
	report.Timestamp = time.Now().UTC()

	log.Info("batch completed",
		"total", report.Summary.Total,
		"successful", report.Summary.Successful,
		"failed", report.Summary.Failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	p.countBatch("completed")
	if p.metrics != nil {
		p.metrics.HarvestDuration.Observe(time.Since(start).Seconds())
	}
	p.collector.TrackBatchCompleted(harvest.BatchCompletedEvent{
		SourceURL:   sourceURL,
		Summary:     report.Summary,
		CompletedAt: report.Timestamp,
	})

	return report, nil
}

// processOne downloads, validates, stores, and indexes a single link.
func (p *Pipeline) processOne(ctx context.Context, link harvest.DocumentLink, section string) (*harvest.ProcessedDocument, error) {
	filename := extract.Filename(link, sanitize.Filename)

	result, err := p.fetcher.Document(ctx, link.URL, fetch.KindPDF)
	if err != nil {
		return nil, err
	}

	key := storage.Key(p.keyPrefix, sanitize.FolderName(section), sanitize.Filename(filename))
	now := time.Now().UTC()
	meta := storage.Metadata{
		OriginalName: filename,
		Section:      section,
		Source:       p.sourceTag,
		ContentType:  result.ContentType,
		UploadDate:   now.Format(time.RFC3339),
	}
	if err := p.store.Put(ctx, key, result.Body, meta); err != nil {
		return nil, err
	}

	doc := &harvest.ProcessedDocument{
		OriginalURL: link.URL,
		Filename:    filename,
		LinkText:    link.Text,
		Section:     section,
		StorageKey:  key,
		SizeBytes:   int64(len(result.Body)),
		ContentType: result.ContentType,
		ProcessedAt: now,
	}

	if p.recorder != nil {
		// The object store is the durable side effect; a catalog miss is
		// repairable and must not fail the item.
		if err := p.recorder.RecordDocument(ctx, *doc); err != nil {
			logger.FromContext(ctx).Warn("catalog record failed",
				"storage_key", key,
				"error", err,
			)
		}
	}

	return doc, nil
}

func (p *Pipeline) countBatch(outcome string) {
	if p.metrics != nil {
		p.metrics.HarvestBatchesTotal.WithLabelValues(outcome).Inc()
	}
}
