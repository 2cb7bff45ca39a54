package service

import (
	"strings"
	"testing"

	"github.com/clauseguard/contractreview/backend/model"
)

func testGeoTable() *GeoRiskTable {
	return NewGeoRiskTable(map[string]GeoRiskEntry{
		"Russia":      {Risk: "High", Comment: "Sanctioned jurisdiction."},
		"North Korea": {Risk: "High", Comment: "Embargoed jurisdiction."},
		"California":  {Risk: "Medium", Comment: "Litigious jurisdiction with strong consumer and privacy statutes."},
	})
}

func TestEvaluateStandardRule(t *testing.T) {
	engine := NewRuleEngine(testGeoTable())
	text := "The parties agree to unlimited liability. Unlimited liability applies."
	rules := []model.PlaybookRule{
		{
			Name:         "Unlimited Liability",
			Description:  "Flag unlimited liability exposure.",
			Pattern:      `unlimited liability`,
			RiskCategory: "Liability",
		},
	}

	drafts := engine.Evaluate(rules, text)
	if len(drafts) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(drafts))
	}
	for _, d := range drafts {
		if text[d.StartIndex:d.EndIndex] != d.OriginalText {
			t.Errorf("Offsets [%d,%d) do not match original %q", d.StartIndex, d.EndIndex, d.OriginalText)
		}
		if d.SuggestedText != nil {
			t.Error("Rule matches should not carry replacement text")
		}
		if d.Comment != "Flag unlimited liability exposure." {
			t.Errorf("Unexpected comment %q", d.Comment)
		}
		if d.RiskCategory != "Liability" {
			t.Errorf("Unexpected risk category %q", d.RiskCategory)
		}
	}
	// Case-insensitive: second match starts with uppercase
	if drafts[1].OriginalText != "Unlimited liability" {
		t.Errorf("Expected case-insensitive match, got %q", drafts[1].OriginalText)
	}
}

func TestEvaluateGeopoliticalRule(t *testing.T) {
	engine := NewRuleEngine(testGeoTable())
	text := "Some preamble. This agreement shall be governed by the laws of California. Other terms."
	rules := []model.PlaybookRule{
		{
			Name:         "Governing Law Check",
			Pattern:      `governed by the laws of [^.]+`,
			RiskCategory: model.RiskCategoryGeopolitical,
		},
	}

	drafts := engine.Evaluate(rules, text)
	if len(drafts) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(drafts))
	}

	d := drafts[0]
	if text[d.StartIndex:d.EndIndex] != d.OriginalText {
		t.Errorf("Offsets do not match original text")
	}
	if !strings.Contains(d.OriginalText, "California") {
		t.Errorf("Expected clause window to contain the jurisdiction, got %q", d.OriginalText)
	}
	want := "Jurisdiction: California. Risk: Medium. Litigious jurisdiction with strong consumer and privacy statutes."
	if d.Comment != want {
		t.Errorf("Expected comment %q, got %q", want, d.Comment)
	}
	if d.RiskCategory != model.RiskCategoryGeopolitical {
		t.Errorf("Unexpected risk category %q", d.RiskCategory)
	}
}

func TestEvaluateGeopoliticalRuleUnknownJurisdiction(t *testing.T) {
	engine := NewRuleEngine(testGeoTable())
	text := "This agreement shall be governed by the laws of Switzerland."
	rules := []model.PlaybookRule{
		{
			Name:         "Governing Law Check",
			Pattern:      `governed by the laws of [^.]+`,
			RiskCategory: model.RiskCategoryGeopolitical,
		},
	}

	if drafts := engine.Evaluate(rules, text); len(drafts) != 0 {
		t.Errorf("Expected no matches for unknown jurisdiction, got %d", len(drafts))
	}
}

func TestEvaluateMalformedPatternSkipped(t *testing.T) {
	engine := NewRuleEngine(testGeoTable())
	text := "The indemnification clause survives termination."
	rules := []model.PlaybookRule{
		{Name: "Broken", Pattern: `([invalid`, RiskCategory: "Liability"},
		{Name: "Indemnification", Description: "Check survival.", Pattern: `indemnification`, RiskCategory: "Liability"},
	}

	drafts := engine.Evaluate(rules, text)
	if len(drafts) != 1 {
		t.Fatalf("Expected malformed rule to be skipped, got %d drafts", len(drafts))
	}
	if drafts[0].OriginalText != "indemnification" {
		t.Errorf("Expected the valid rule to match, got %q", drafts[0].OriginalText)
	}
}

func TestEvaluateGeopoliticalWithoutTable(t *testing.T) {
	engine := NewRuleEngine(nil)
	rules := []model.PlaybookRule{
		{Name: "Geo", Pattern: `governed by [^.]+`, RiskCategory: model.RiskCategoryGeopolitical},
	}

	if drafts := engine.Evaluate(rules, "governed by the laws of Russia."); len(drafts) != 0 {
		t.Errorf("Expected no matches without a risk table, got %d", len(drafts))
	}
}

func TestEvaluateHeuristics(t *testing.T) {
	text := "This is a standard Non-Disclosure Agreement with a confidentiality term of 5 years between the parties."

	drafts := EvaluateHeuristics(DefaultHeuristics(), text)
	if len(drafts) != 2 {
		t.Fatalf("Expected 2 heuristic findings, got %d", len(drafts))
	}

	var termDraft, ndaDraft *SuggestionDraft
	for i := range drafts {
		switch drafts[i].OriginalText {
		case "confidentiality term of 5 years":
			termDraft = &drafts[i]
		case "standard Non-Disclosure Agreement":
			ndaDraft = &drafts[i]
		}
	}
	if termDraft == nil || ndaDraft == nil {
		t.Fatal("Expected both heuristic findings to fire")
	}

	if termDraft.SuggestedText == nil || *termDraft.SuggestedText != "confidentiality term of 3 years" {
		t.Error("Expected confidentiality term replacement")
	}
	if text[termDraft.StartIndex:termDraft.EndIndex] != termDraft.OriginalText {
		t.Error("Heuristic offsets do not match the text")
	}
	if ndaDraft.SuggestedText != nil {
		t.Error("NDA heuristic should flag without replacement text")
	}
	if ndaDraft.RiskCategory != "Liability" {
		t.Errorf("Unexpected risk category %q", ndaDraft.RiskCategory)
	}
}

func TestEvaluateHeuristicsNoMatch(t *testing.T) {
	drafts := EvaluateHeuristics(DefaultHeuristics(), "A plain services agreement.")
	if len(drafts) != 0 {
		t.Errorf("Expected no findings, got %d", len(drafts))
	}
}

func TestEvaluateHeuristicsFirstOccurrenceOnly(t *testing.T) {
	text := "confidentiality term of 5 years and again confidentiality term of 5 years"
	drafts := EvaluateHeuristics(DefaultHeuristics(), text)
	if len(drafts) != 1 {
		t.Fatalf("Expected a single finding, got %d", len(drafts))
	}
	if drafts[0].StartIndex != 0 {
		t.Errorf("Expected first occurrence at 0, got %d", drafts[0].StartIndex)
	}
}
