package service

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/clauseguard/contractreview/backend/model"
)

// SuggestionDraft is a suggestion produced by analysis before persistence.
// Offsets are half-open byte offsets into the analyzed text.
type SuggestionDraft struct {
	StartIndex    int
	EndIndex      int
	OriginalText  string
	SuggestedText *string
	Comment       string
	RiskCategory  string
}

// RuleEngine evaluates playbook rules against extracted text. It holds the
// jurisdiction risk table by reference and is safe for concurrent use; rules
// are read-only snapshots for the duration of a run.
type RuleEngine struct {
	geo *GeoRiskTable
}

func NewRuleEngine(geo *GeoRiskTable) *RuleEngine {
	return &RuleEngine{geo: geo}
}

// Evaluate runs every rule against text and returns the union of matches.
// Rules flag, they do not rewrite: SuggestedText is always nil here. A rule
// whose pattern fails to compile is skipped; it never aborts the run.
func (e *RuleEngine) Evaluate(rules []model.PlaybookRule, text string) []SuggestionDraft {
	var drafts []SuggestionDraft
	for i := range rules {
		rule := &rules[i]
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			slog.Warn("skipping rule with malformed pattern",
				"rule", rule.Name,
				"pattern", rule.Pattern,
				"error", err,
			)
			continue
		}

		if rule.RiskCategory == model.RiskCategoryGeopolitical {
			drafts = append(drafts, e.evaluateGeopolitical(rule, re, text)...)
		} else {
			drafts = append(drafts, evaluateStandard(rule, re, text)...)
		}
	}
	return drafts
}

func evaluateStandard(rule *model.PlaybookRule, re *regexp.Regexp, text string) []SuggestionDraft {
	var drafts []SuggestionDraft
	for _, loc := range re.FindAllStringIndex(text, -1) {
		drafts = append(drafts, SuggestionDraft{
			StartIndex:   loc[0],
			EndIndex:     loc[1],
			OriginalText: text[loc[0]:loc[1]],
			Comment:      rule.Description,
			RiskCategory: rule.RiskCategory,
		})
	}
	return drafts
}

// evaluateGeopolitical treats each pattern match as a clause window: the rule
// fires only when a known jurisdiction appears inside the matched clause, and
// the emitted suggestion spans the whole clause.
func (e *RuleEngine) evaluateGeopolitical(rule *model.PlaybookRule, re *regexp.Regexp, text string) []SuggestionDraft {
	if e.geo == nil || e.geo.Len() == 0 {
		return nil
	}

	var drafts []SuggestionDraft
	for _, loc := range re.FindAllStringIndex(text, -1) {
		clause := text[loc[0]:loc[1]]
		name, entry, ok := e.geo.Lookup(clause)
		if !ok {
			continue
		}
		drafts = append(drafts, SuggestionDraft{
			StartIndex:   loc[0],
			EndIndex:     loc[1],
			OriginalText: clause,
			Comment:      fmt.Sprintf("Jurisdiction: %s. Risk: %s. %s", name, entry.Risk, entry.Comment),
			RiskCategory: rule.RiskCategory,
		})
	}
	return drafts
}

// HeuristicCheck is a fixed substring check, deliberately simpler than the
// rule engine: no regex, no playbook gating. The default set mirrors the
// always-on review hints shipped with the product; deployments can disable
// them in config.
type HeuristicCheck struct {
	Search        string
	SuggestedText *string
	Comment       string
	RiskCategory  string
}

func strptr(s string) *string { return &s }

// DefaultHeuristics returns the built-in always-on checks.
func DefaultHeuristics() []HeuristicCheck {
	return []HeuristicCheck{
		{
			Search:        "confidentiality term of 5 years",
			SuggestedText: strptr("confidentiality term of 3 years"),
			Comment:       "The typical confidentiality term is 2-3 years. 5 years is unusually long and may be unfavorable.",
			RiskCategory:  "Unfavorable Terms",
		},
		{
			Search:       "standard Non-Disclosure Agreement",
			Comment:      "Ensure this standard agreement aligns with our company's specific liability caps. Review against the Clause Library.",
			RiskCategory: "Liability",
		},
	}
}

// EvaluateHeuristics runs the substring checks against text. Each check fires
// at most once, on its first occurrence.
func EvaluateHeuristics(checks []HeuristicCheck, text string) []SuggestionDraft {
	var drafts []SuggestionDraft
	for _, check := range checks {
		idx := strings.Index(text, check.Search)
		if idx == -1 {
			continue
		}
		drafts = append(drafts, SuggestionDraft{
			StartIndex:    idx,
			EndIndex:      idx + len(check.Search),
			OriginalText:  check.Search,
			SuggestedText: check.SuggestedText,
			Comment:       check.Comment,
			RiskCategory:  check.RiskCategory,
		})
	}
	return drafts
}
