// Package harvest defines the data model shared by the PDF discovery and
// ingestion pipeline: discovered links, processed documents, per-item errors,
// and the batch summary returned to callers.
package harvest

import "time"

// DocumentLink is a candidate document discovered on a source page, together
// with the surrounding text used for categorisation. Identity is the URL;
// links sharing a URL are deduplicated keeping the first occurrence.
type DocumentLink struct {
	URL            string `json:"url"`
	Text           string `json:"text"`
	NearbyText     string `json:"nearbyText"`
	SectionHeading string `json:"sectionHeading"`
}

// ProcessedDocument records one successfully fetched, validated, and stored
// document. It is immutable once created.
type ProcessedDocument struct {
	OriginalURL string    `json:"originalUrl"`
	Filename    string    `json:"filename"`
	LinkText    string    `json:"linkText"`
	Section     string    `json:"section"`
	StorageKey  string    `json:"storageKey"`
	SizeBytes   int64     `json:"sizeBytes"`
	ContentType string    `json:"contentType"`
	ProcessedAt time.Time `json:"processedAt"`
}

// ProcessingError records one link that failed fetch, validation, or store.
// It never aborts the rest of the batch.
type ProcessingError struct {
	URL      string `json:"url"`
	LinkText string `json:"linkText"`
	Kind     string `json:"kind"`
	Error    string `json:"error"`
}

// BatchSummary aggregates the outcome of a single batch run. It is derived
// at the end of the run and never persisted on its own.
type BatchSummary struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Sections   map[string]int `json:"sections"`
}

// Report is the full result envelope of a batch run. Success is true for any
// completed run, including runs with per-item failures; callers must inspect
// Errors alongside Results.
type Report struct {
	Success       bool                `json:"success"`
	Summary       BatchSummary        `json:"summary"`
	Results       []ProcessedDocument `json:"results"`
	Errors        []ProcessingError   `json:"errors,omitempty"`
	Message       string              `json:"message,omitempty"`
	ProcessedFrom string              `json:"processedFrom"`
	Timestamp     time.Time           `json:"timestamp"`
}

// DocumentStoredEvent is published after each document is written to the
// object store.
type DocumentStoredEvent struct {
	OriginalURL string    `json:"original_url"`
	StorageKey  string    `json:"storage_key"`
	Section     string    `json:"section"`
	SizeBytes   int64     `json:"size_bytes"`
	StoredAt    time.Time `json:"stored_at"`
}

// BatchCompletedEvent is published once per finished batch run.
type BatchCompletedEvent struct {
	SourceURL   string       `json:"source_url"`
	Summary     BatchSummary `json:"summary"`
	CompletedAt time.Time    `json:"completed_at"`
}
