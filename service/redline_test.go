package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/clauseguard/contractreview/backend/model"
)

func suggestionFixture(text string, original, replacement string) model.AnalysisSuggestion {
	start := strings.Index(text, original)
	if start == -1 {
		panic("fixture original not in text: " + original)
	}
	s := model.AnalysisSuggestion{
		StartIndex:   start,
		EndIndex:     start + len(original),
		OriginalText: original,
	}
	if replacement != "" {
		s.SuggestedText = &replacement
	}
	return s
}

func TestApplySuggestionsSingle(t *testing.T) {
	text := "The term is 5 years from signing."
	s := suggestionFixture(text, "5 years", "3 years")

	result, err := ApplySuggestions(text, []model.AnalysisSuggestion{s})
	if err != nil {
		t.Fatalf("ApplySuggestions failed: %v", err)
	}
	if result != "The term is 3 years from signing." {
		t.Errorf("Unexpected result: %q", result)
	}
}

func TestApplySuggestionsOrderIndependent(t *testing.T) {
	text := "Alpha clause. Beta clause. Gamma clause."
	a := suggestionFixture(text, "Alpha", "First")
	b := suggestionFixture(text, "Beta", "Second")
	g := suggestionFixture(text, "Gamma", "Third")
	want := "First clause. Second clause. Third clause."

	// Same result regardless of input order
	for _, order := range [][]model.AnalysisSuggestion{
		{a, b, g},
		{g, b, a},
		{b, g, a},
	} {
		result, err := ApplySuggestions(text, order)
		if err != nil {
			t.Fatalf("ApplySuggestions failed: %v", err)
		}
		if result != want {
			t.Errorf("Expected %q, got %q", want, result)
		}
	}
}

func TestApplySuggestionsLengthChanges(t *testing.T) {
	text := "Pay within 30 days. Notice period is 60 days."
	a := suggestionFixture(text, "30 days", "forty-five (45) days")
	b := suggestionFixture(text, "60 days", "90 days")

	result, err := ApplySuggestions(text, []model.AnalysisSuggestion{a, b})
	if err != nil {
		t.Fatalf("ApplySuggestions failed: %v", err)
	}
	if result != "Pay within forty-five (45) days. Notice period is 90 days." {
		t.Errorf("Unexpected result: %q", result)
	}
}

func TestApplySuggestionsDeletion(t *testing.T) {
	text := "This clause is wholly unnecessary text here."
	s := model.AnalysisSuggestion{
		StartIndex:   strings.Index(text, " wholly unnecessary"),
		EndIndex:     strings.Index(text, " wholly unnecessary") + len(" wholly unnecessary"),
		OriginalText: " wholly unnecessary",
	}

	result, err := ApplySuggestions(text, []model.AnalysisSuggestion{s})
	if err != nil {
		t.Fatalf("ApplySuggestions failed: %v", err)
	}
	if result != "This clause is text here." {
		t.Errorf("Unexpected result: %q", result)
	}
}

func TestApplySuggestionsOverlapRejected(t *testing.T) {
	text := "governing law of the State of Delaware"
	a := model.AnalysisSuggestion{StartIndex: 0, EndIndex: 13, OriginalText: "governing law"}
	b := model.AnalysisSuggestion{StartIndex: 10, EndIndex: 20, OriginalText: "law of the"}

	_, err := ApplySuggestions(text, []model.AnalysisSuggestion{a, b})
	if !errors.Is(err, ErrOverlappingSuggestions) {
		t.Errorf("Expected ErrOverlappingSuggestions, got %v", err)
	}
}

func TestApplySuggestionsAdjacentSpansAllowed(t *testing.T) {
	text := "abcdef"
	a := model.AnalysisSuggestion{StartIndex: 0, EndIndex: 3, OriginalText: "abc", SuggestedText: strptr("X")}
	b := model.AnalysisSuggestion{StartIndex: 3, EndIndex: 6, OriginalText: "def", SuggestedText: strptr("Y")}

	result, err := ApplySuggestions(text, []model.AnalysisSuggestion{a, b})
	if err != nil {
		t.Fatalf("Adjacent spans should not conflict: %v", err)
	}
	if result != "XY" {
		t.Errorf("Expected XY, got %q", result)
	}
}

func TestApplySuggestionsStaleOffsets(t *testing.T) {
	text := "The term is 5 years."

	outOfBounds := model.AnalysisSuggestion{StartIndex: 15, EndIndex: 40, OriginalText: "years."}
	if _, err := ApplySuggestions(text, []model.AnalysisSuggestion{outOfBounds}); !errors.Is(err, ErrInvalidOffsets) {
		t.Errorf("Expected ErrInvalidOffsets for out-of-bounds span, got %v", err)
	}

	mismatch := model.AnalysisSuggestion{StartIndex: 0, EndIndex: 8, OriginalText: "A different snapshot"}
	if _, err := ApplySuggestions(text, []model.AnalysisSuggestion{mismatch}); !errors.Is(err, ErrInvalidOffsets) {
		t.Errorf("Expected ErrInvalidOffsets for text mismatch, got %v", err)
	}

	inverted := model.AnalysisSuggestion{StartIndex: 8, EndIndex: 3, OriginalText: ""}
	if _, err := ApplySuggestions(text, []model.AnalysisSuggestion{inverted}); !errors.Is(err, ErrInvalidOffsets) {
		t.Errorf("Expected ErrInvalidOffsets for inverted span, got %v", err)
	}
}

func TestApplySuggestionsNoSuggestions(t *testing.T) {
	result, err := ApplySuggestions("unchanged", nil)
	if err != nil {
		t.Fatalf("ApplySuggestions failed: %v", err)
	}
	if result != "unchanged" {
		t.Errorf("Expected text unchanged, got %q", result)
	}
}

func TestCreateAutonomousRedline(t *testing.T) {
	store := newTestStore(t)
	redliner := NewRedliner(store, NopNotifier{}, slog.Default())
	ctx := context.Background()

	org := createTestOrg(t, store, "acme", "enterprise")
	contract := createTestContract(t, store, org.ID)
	versionID := contract.Versions[0].ID

	text := "The confidentiality term of 5 years applies. A standard Non-Disclosure Agreement."
	drafts := EvaluateHeuristics(DefaultHeuristics(), text)
	if _, err := store.CompleteAnalysis(ctx, versionID, text, drafts); err != nil {
		t.Fatalf("CompleteAnalysis failed: %v", err)
	}
	source, err := store.GetVersion(ctx, versionID)
	if err != nil {
		t.Fatalf("GetVersion failed: %v", err)
	}

	newVersion, err := redliner.CreateAutonomousRedline(ctx, source)
	if err != nil {
		t.Fatalf("CreateAutonomousRedline failed: %v", err)
	}
	if newVersion == nil {
		t.Fatal("Expected a new version")
	}
	if newVersion.VersionNumber != 2 {
		t.Errorf("Expected version 2, got %d", newVersion.VersionNumber)
	}
	// Only the suggestion with replacement text is applied
	want := "The confidentiality term of 3 years applies. A standard Non-Disclosure Agreement."
	if newVersion.FullText == nil || *newVersion.FullText != want {
		t.Errorf("Unexpected redlined text: %v", newVersion.FullText)
	}

	copies, err := store.ListSuggestions(ctx, newVersion.ID)
	if err != nil {
		t.Fatalf("ListSuggestions failed: %v", err)
	}
	if len(copies) != 1 {
		t.Fatalf("Expected 1 applied suggestion copied, got %d", len(copies))
	}
	if !copies[0].IsAutonomous {
		t.Error("Expected copy marked autonomous")
	}
	if copies[0].ConfidenceScore == nil {
		t.Error("Expected a confidence score on the copy")
	}
}

func TestCreateAutonomousRedlineNoReplacements(t *testing.T) {
	store := newTestStore(t)
	redliner := NewRedliner(store, NopNotifier{}, slog.Default())
	ctx := context.Background()

	org := createTestOrg(t, store, "acme", "enterprise")
	contract := createTestContract(t, store, org.ID)
	versionID := contract.Versions[0].ID

	// Flag-only suggestion, nothing to apply
	text := "A standard Non-Disclosure Agreement."
	if _, err := store.CompleteAnalysis(ctx, versionID, text, []SuggestionDraft{
		{StartIndex: 2, EndIndex: 35, OriginalText: text[2:35], Comment: "review", RiskCategory: "Liability"},
	}); err != nil {
		t.Fatalf("CompleteAnalysis failed: %v", err)
	}
	source, err := store.GetVersion(ctx, versionID)
	if err != nil {
		t.Fatalf("GetVersion failed: %v", err)
	}

	newVersion, err := redliner.CreateAutonomousRedline(ctx, source)
	if err != nil {
		t.Fatalf("Expected no-op, got error: %v", err)
	}
	if newVersion != nil {
		t.Error("Expected nil version when nothing is applicable")
	}

	// No new version was created
	loaded, err := store.GetContract(ctx, contract.ID, org.ID)
	if err != nil {
		t.Fatalf("GetContract failed: %v", err)
	}
	if len(loaded.Versions) != 1 {
		t.Errorf("Expected 1 version, got %d", len(loaded.Versions))
	}
}

func TestScoreConfidence(t *testing.T) {
	short := strptr("3 years")
	long := strptr(strings.Repeat("replacement text ", 3))

	cases := []struct {
		name       string
		suggestion model.AnalysisSuggestion
		want       float64
	}{
		{
			name:       "short original short replacement",
			suggestion: model.AnalysisSuggestion{OriginalText: "5 years", SuggestedText: short},
			want:       0.90,
		},
		{
			name:       "short original long replacement",
			suggestion: model.AnalysisSuggestion{OriginalText: "5 years", SuggestedText: long},
			want:       0.85,
		},
		{
			name:       "long original short replacement",
			suggestion: model.AnalysisSuggestion{OriginalText: strings.Repeat("x", 200), SuggestedText: short},
			want:       0.85,
		},
		{
			name:       "long original long replacement",
			suggestion: model.AnalysisSuggestion{OriginalText: strings.Repeat("x", 200), SuggestedText: long},
			want:       0.80,
		},
		{
			name:       "no replacement text",
			suggestion: model.AnalysisSuggestion{OriginalText: "5 years"},
			want:       0.85,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreConfidence(tc.suggestion)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Expected %f, got %f", tc.want, got)
			}
			if got < 0.5 || got > 0.99 {
				t.Errorf("Score %f outside [0.5, 0.99]", got)
			}
		})
	}
}
