// Package answer implements the policy question-answer companion: an ordered
// keyword-to-template lookup returning canned long-form text with mock
// sources. It is explicitly not a real retrieval or generation system; the
// note field on every response says so.
package answer

import "strings"

// Source is a mock citation attached to a response.
type Source struct {
	Filename       string  `json:"filename"`
	Section        string  `json:"section"`
	RelevanceScore float64 `json:"relevanceScore"`
	StorageKey     string  `json:"storageKey"`
	Excerpt        string  `json:"excerpt"`
}

// Usage mirrors the token-accounting shape of a hosted model API.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Result is one generated answer before session handling is applied.
type Result struct {
	Topic    string   `json:"topic"`
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
	Usage    Usage    `json:"usage"`
}

// Note accompanies every response so callers cannot mistake the canned
// answers for model output.
const Note = "This is a templated response demonstrating the question-answer flow. Connect a hosted model for generative answers."

// topic pairs a match predicate with its canned response and sources.
// Topics are evaluated in order; the first match wins and the final entry
// is the catch-all default.
type topic struct {
	name     string
	match    func(q string) bool
	response string
	sources  []Source
}

func anyOf(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

var topics = []topic{
	{
		name: "cps-assessment",
		match: func(q string) bool {
			return strings.Contains(q, "cps") && anyOf(q, "assessment", "evaluation")
		},
		response: cpsAssessmentResponse,
		sources: []Source{
			{
				Filename:       "cps-assessments-may-2025-1.pdf",
				Section:        "child-welfare-manuals",
				RelevanceScore: 0.95,
				StorageKey:     "policy-pdfs/child-welfare-manuals/cps-assessments-may-2025-1.pdf",
				Excerpt:        "CPS assessment procedures and guidelines for child protective services investigations and evaluations...",
			},
			{
				Filename:       "cross-functions-oct-2024-1.pdf",
				Section:        "child-welfare-manuals",
				RelevanceScore: 0.78,
				StorageKey:     "policy-pdfs/child-welfare-manuals/cross-functions-oct-2024-1.pdf",
				Excerpt:        "Cross-functional procedures including assessment coordination and multi-disciplinary approaches...",
			},
		},
	},
	{
		name:     "adoption",
		match:    func(q string) bool { return strings.Contains(q, "adoption") },
		response: adoptionResponse,
		sources: []Source{
			{
				Filename:       "adoptions-1.pdf",
				Section:        "child-welfare-manuals",
				RelevanceScore: 0.92,
				StorageKey:     "policy-pdfs/child-welfare-manuals/adoptions-1.pdf",
				Excerpt:        "Comprehensive adoption procedures, requirements, and legal processes for child placement...",
			},
		},
	},
	{
		name:     "safe-sleep",
		match:    func(q string) bool { return anyOf(q, "safe sleep", "sids") },
		response: safeSleepResponse,
		sources: []Source{
			{
				Filename:       "safe-sleep-policy.pdf",
				Section:        "safe-sleep-resources",
				RelevanceScore: 0.88,
				StorageKey:     "policy-pdfs/safe-sleep-resources/safe-sleep-policy.pdf",
				Excerpt:        "Safe sleep guidelines and policies to prevent SIDS and promote infant safety...",
			},
		},
	},
	{
		name:     "general",
		match:    func(q string) bool { return true },
		response: generalResponse,
		sources: []Source{
			{
				Filename:       "purpose.pdf",
				Section:        "child-welfare-manuals",
				RelevanceScore: 0.65,
				StorageKey:     "policy-pdfs/child-welfare-manuals/purpose.pdf",
				Excerpt:        "Purpose, philosophy, legal basis and staffing for child welfare services...",
			},
		},
	},
}

// Generate picks the first matching topic for the query and returns its
// canned response. It always answers; the last topic matches everything.
func Generate(query, section string) Result {
	q := strings.ToLower(query)
	for _, t := range topics {
		if t.match(q) {
			return Result{
				Topic:    t.name,
				Response: t.response,
				Sources:  filterSources(t.sources, section),
				Usage:    Usage{InputTokens: 50, OutputTokens: 200},
			}
		}
	}
	// Unreachable while the catch-all topic stays last.
	return Result{Topic: "general", Response: generalResponse}
}

// Refine wraps the canned response for a follow-up refinement request.
func Refine(query, section string) Result {
	base := Generate(query, section)
	base.Response = "**Refined response based on your feedback:**\n\n" + base.Response +
		"\n\n**Additional context:** this refined answer expands on the original and addresses gaps called out in the feedback."
	base.Usage = Usage{InputTokens: 75, OutputTokens: 250}
	return base
}

// filterSources keeps sources in the requested section, falling back to the
// full list when none match so every answer carries at least one citation.
func filterSources(sources []Source, section string) []Source {
	if section == "" {
		return sources
	}
	var filtered []Source
	for _, s := range sources {
		if s.Section == section {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		return sources
	}
	return filtered
}
