// Package extract discovers candidate document links in raw HTML. It is a
// pure function over the supplied text; no network calls happen here.
package extract

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/policydocs/harvester/internal/harvest"
)

// documentExtension is the recognized document suffix. An href ending with it
// is a primary match; an href merely containing it is a tolerant secondary
// match (query strings, versioned paths).
const documentExtension = ".pdf"

// Links parses html and returns the document links found in anchor tags,
// deduplicated by resolved URL with insertion order preserved (first
// occurrence wins). Relative hrefs are resolved against baseURL.
func Links(html string, baseURL string) ([]harvest.DocumentLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", baseURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var links []harvest.DocumentLink
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		if !isDocumentHref(href) {
			return
		}

		resolved := resolveURL(href, base)
		if resolved == "" {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}

		text := strings.TrimSpace(sel.Text())
		if text == "" {
			text = "PDF Document"
		}

		links = append(links, harvest.DocumentLink{
			URL:            resolved,
			Text:           text,
			NearbyText:     nearbyText(sel),
			SectionHeading: sectionHeading(sel),
		})
	})

	return links, nil
}

// isDocumentHref reports whether the href targets a document. The path must
// end with the document extension, or contain it for the tolerant match.
func isDocumentHref(href string) bool {
	lower := strings.ToLower(href)
	if strings.HasSuffix(lower, documentExtension) {
		return true
	}
	return strings.Contains(lower, documentExtension)
}

// resolveURL resolves a potentially relative href against the base URL,
// skipping non-HTTP schemes.
func resolveURL(href string, base *url.URL) string {
	if strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "#") {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(parsed)
	resolved.Fragment = ""
	return resolved.String()
}

// nearbyText collects the text of the anchor's parent element plus its
// immediate previous and next siblings, for categorisation context.
func nearbyText(sel *goquery.Selection) string {
	parent := sel.Parent()
	if parent.Length() == 0 {
		return ""
	}
	parts := []string{strings.TrimSpace(parent.Text())}
	if prev := strings.TrimSpace(parent.Prev().Text()); prev != "" {
		parts = append(parts, prev)
	}
	if next := strings.TrimSpace(parent.Next().Text()); next != "" {
		parts = append(parts, next)
	}
	return strings.Join(parts, " ")
}

// sectionHeading walks up the anchor's ancestors looking for the nearest
// preceding heading element.
func sectionHeading(sel *goquery.Selection) string {
	current := sel
	for i := 0; i < 10; i++ {
		current = current.Parent()
		if current.Length() == 0 {
			return ""
		}
		heading := current.PrevAllFiltered("h1,h2,h3,h4,h5,h6").First()
		if heading.Length() > 0 {
			return strings.TrimSpace(heading.Text())
		}
	}
	return ""
}

// Filename derives a storage filename from a document link: the base name of
// the URL path when it looks like a document, otherwise a name built from the
// link text via the supplied sanitizer.
func Filename(link harvest.DocumentLink, sanitize func(string) string) string {
	if parsed, err := url.Parse(link.URL); err == nil {
		name := path.Base(parsed.Path)
		if name != "." && name != "/" && strings.HasSuffix(strings.ToLower(name), documentExtension) {
			return name
		}
	}
	text := link.Text
	if text == "" {
		text = "document"
	}
	return sanitize(text) + documentExtension
}
