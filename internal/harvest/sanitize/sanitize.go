// Package sanitize normalizes arbitrary strings into safe storage-key
// segments. Both transforms are idempotent.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	filenameInvalid = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	underscoreRuns  = regexp.MustCompile(`_+`)
	folderInvalid   = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	hyphenRuns      = regexp.MustCompile(`-+`)
)

// Filename replaces every character outside [A-Za-z0-9.-] with an
// underscore, collapses underscore runs, and lower-cases the result.
func Filename(name string) string {
	s := filenameInvalid.ReplaceAllString(name, "_")
	s = underscoreRuns.ReplaceAllString(s, "_")
	return strings.ToLower(s)
}

// FolderName strips characters outside [A-Za-z0-9\s-], turns whitespace runs
// into single hyphens, collapses hyphen runs, lower-cases, and trims leading
// and trailing hyphens.
func FolderName(name string) string {
	s := folderInvalid.ReplaceAllString(name, "")
	s = whitespaceRuns.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(strings.ToLower(s), "-")
}
