// Package classify assigns stored documents to a fixed set of policy
// sections. The classifier is an ordered decision list of substring rules:
// the first rule with any keyword present in the haystack wins, ties resolved
// by rule order alone. Rules are authored most-specific-first so broad terms
// like "resource" cannot pre-empt narrower ones like "safe sleep".
package classify

import "strings"

// Section names form a closed set; SectionOther is the required default.
const (
	SectionManuals           = "child-welfare-manuals"
	SectionAppendices        = "child-welfare-appendices"
	SectionPracticeResources = "child-welfare-practice-resources"
	SectionSafeSleep         = "safe-sleep-resources"
	SectionDisasterPrep      = "disaster-preparedness"
	SectionToolsManuals      = "path-sdm-tools-manuals"
	SectionAdministrative    = "administrative-manuals"
	SectionOther             = "other-resources"
)

// rule maps a keyword set to a section. Any keyword present in the haystack
// matches the rule.
type rule struct {
	section  string
	keywords []string
}

// rules is evaluated in order; order is significant.
var rules = []rule{
	{SectionManuals, []string{
		"child welfare manual", "cws manual", "adoptions",
		"cps-assessments", "cps-intake", "cross-functions",
		"permanency-planning", "in-home", "icpc",
		"purpose", "rams-manual", "evidence-based-prevention",
	}},
	{SectionAppendices, []string{
		"appendix", "funding", "pregnancy-services",
		"case-record", "best-practice", "data-collection", "cpps",
	}},
	{SectionSafeSleep, []string{
		"safe sleep", "safesleep", "sleep-comic",
	}},
	{SectionDisasterPrep, []string{
		"disaster", "county-attestation", "disaster-plan",
	}},
	{SectionToolsManuals, []string{
		"path", "sdm", "screening", "risk-assessment",
		"safety-manual", "fsna", "csna", "technology-usage",
	}},
	{SectionAdministrative, []string{
		"administrative", "dss-admin",
	}},
	{SectionPracticeResources, []string{
		"practice", "resource", "guidance", "lgbtq", "fatality",
		"discipline", "substance", "safety", "firearm",
		"circles-of-safety", "capp", "cmep", "reasonable",
		"prudent", "youth-in-transition",
	}},
}

// Sections returns the full section set in rule order, default last.
func Sections() []string {
	out := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.section)
	}
	return append(out, SectionOther)
}

// Section classifies a document link by its text, URL, and surrounding
// context. The three inputs are lower-cased into a single haystack; the
// first matching rule wins, and SectionOther is returned when nothing
// matches.
func Section(linkText, linkURL, nearbyText string) string {
	haystack := strings.ToLower(linkText + " " + linkURL + " " + nearbyText)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(haystack, kw) {
				return r.section
			}
		}
	}
	return SectionOther
}
