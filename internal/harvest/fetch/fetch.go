// Package fetch downloads documents with a bounded timeout, a payload size
// cap, and content validation. A failed fetch becomes one per-item error in
// the batch report; no retry is performed.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/policydocs/harvester/pkg/config"
	apperrors "github.com/policydocs/harvester/pkg/errors"
)

// Kind describes an expected content type: the substring looked for in the
// Content-Type header and the magic signature checked against the leading
// payload bytes. A response passing either check is accepted.
type Kind struct {
	Name            string
	ContentTypeWord string
	Magic           []byte
}

// KindPDF is the document kind handled by the harvest pipeline.
var KindPDF = Kind{
	Name:            "document",
	ContentTypeWord: "pdf",
	Magic:           []byte("%PDF"),
}

// Result holds a validated payload and its declared content type.
type Result struct {
	Body        []byte
	ContentType string
}

// Fetcher performs validated GET requests with a shared rate limit against
// the source host.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     config.HarvestConfig
	logger  *slog.Logger
}

// New creates a Fetcher from the harvest configuration.
func New(cfg config.HarvestConfig) *Fetcher {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Fetcher{
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		cfg:     cfg,
		logger:  slog.Default().With("component", "fetcher"),
	}
}

// Page retrieves an HTML page. Any failure maps to ErrSourceFetchFailed: a
// page fetch only happens before per-item processing starts, so it always
// aborts the whole run.
func (f *Fetcher) Page(ctx context.Context, url string) (string, error) {
	body, _, err := f.get(ctx, url, "text/html,application/xhtml+xml")
	if err != nil {
		return "", apperrors.Newf(apperrors.ErrSourceFetchFailed, http.StatusInternalServerError,
			"fetching %s: %v", url, err)
	}
	return string(body), nil
}

// Document retrieves a document and validates it against the expected kind:
// either the declared content type contains the kind's word, or the leading
// payload bytes equal its magic signature.
func (f *Fetcher) Document(ctx context.Context, url string, kind Kind) (*Result, error) {
	body, contentType, err := f.get(ctx, url, "application/pdf,*/*")
	if err != nil {
		return nil, err
	}

	declared := strings.Contains(strings.ToLower(contentType), kind.ContentTypeWord)
	signed := len(body) >= len(kind.Magic) && bytes.Equal(body[:len(kind.Magic)], kind.Magic)
	if !declared && !signed {
		return nil, apperrors.Newf(apperrors.ErrInvalidContent, http.StatusUnsupportedMediaType,
			"expected %s, got content type %q", kind.Name, contentType)
	}

	return &Result{Body: body, ContentType: contentType}, nil
}

// get performs one throttled, deadline-bounded GET and reads at most the
// configured payload cap.
func (f *Fetcher) get(ctx context.Context, url string, accept string) ([]byte, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", f.mapError(url, err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", f.mapError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}

	// Read one byte past the cap to distinguish "exactly at cap" from
	// "over cap" without buffering an unbounded body.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxPayloadSize+1))
	if err != nil {
		return nil, "", f.mapError(url, err)
	}
	if int64(len(body)) > f.cfg.MaxPayloadSize {
		return nil, "", apperrors.Newf(apperrors.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge,
			"payload for %s exceeds %d bytes", url, f.cfg.MaxPayloadSize)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

// mapError converts transport errors into pipeline sentinels, keeping the
// cause in the message.
func (f *Fetcher) mapError(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Newf(apperrors.ErrFetchTimeout, http.StatusGatewayTimeout,
			"fetching %s: deadline of %s exceeded", url, f.cfg.FetchTimeout)
	}
	return fmt.Errorf("fetching %s: %w", url, err)
}
