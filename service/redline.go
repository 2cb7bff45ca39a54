package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/clauseguard/contractreview/backend/model"
)

// ErrOverlappingSuggestions is returned when two suggestions selected for a
// redline claim intersecting spans. Applying both would corrupt the text, so
// the whole redline is rejected.
var ErrOverlappingSuggestions = errors.New("suggestions have overlapping spans")

// Confidence scoring bounds.
const (
	confidenceBase = 0.85
	confidenceMin  = 0.5
	confidenceMax  = 0.99
)

// ScoreConfidence rates how safe a suggestion is to apply without human
// review. Longer original spans are less certain; short, specific
// replacements are more certain.
func ScoreConfidence(s model.AnalysisSuggestion) float64 {
	score := confidenceBase
	if len(s.OriginalText) > 150 {
		score -= 0.05
	}
	if s.SuggestedText != nil && len(*s.SuggestedText) < 30 {
		score += 0.05
	}
	if score < confidenceMin {
		return confidenceMin
	}
	if score > confidenceMax {
		return confidenceMax
	}
	return score
}

// ApplySuggestions splices every suggestion's replacement into text.
// Spans are validated first: in bounds, original text matching the snapshot,
// and pairwise disjoint. Replacements run in descending start order so
// earlier offsets stay valid while later spans change length.
func ApplySuggestions(text string, suggestions []model.AnalysisSuggestion) (string, error) {
	ordered := make([]model.AnalysisSuggestion, len(suggestions))
	copy(ordered, suggestions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StartIndex > ordered[j].StartIndex })

	for i, s := range ordered {
		if s.StartIndex < 0 || s.StartIndex >= s.EndIndex || s.EndIndex > len(text) {
			return "", fmt.Errorf("%w: span [%d,%d) outside text of length %d", ErrInvalidOffsets, s.StartIndex, s.EndIndex, len(text))
		}
		if text[s.StartIndex:s.EndIndex] != s.OriginalText {
			return "", fmt.Errorf("%w: span [%d,%d) does not match stored original", ErrInvalidOffsets, s.StartIndex, s.EndIndex)
		}
		// ordered is descending, so the previous entry starts at or after
		// this one ends when spans are disjoint.
		if i > 0 && ordered[i-1].StartIndex < s.EndIndex {
			return "", fmt.Errorf("%w: [%d,%d) and [%d,%d)", ErrOverlappingSuggestions,
				s.StartIndex, s.EndIndex, ordered[i-1].StartIndex, ordered[i-1].EndIndex)
		}
	}

	var b strings.Builder
	result := text
	for _, s := range ordered {
		replacement := ""
		if s.SuggestedText != nil {
			replacement = *s.SuggestedText
		}
		b.Reset()
		b.Grow(len(result) - (s.EndIndex - s.StartIndex) + len(replacement))
		b.WriteString(result[:s.StartIndex])
		b.WriteString(replacement)
		b.WriteString(result[s.EndIndex:])
		result = b.String()
	}
	return result, nil
}

// Redliner turns an analyzed version into an autonomously redlined successor.
type Redliner struct {
	store    *Store
	notifier Notifier
	log      *slog.Logger
}

func NewRedliner(store *Store, notifier Notifier, log *slog.Logger) *Redliner {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Redliner{store: store, notifier: notifier, log: log}
}

// CreateAutonomousRedline applies every suggestion carrying replacement text
// to the version's snapshot and persists the result as a new version with
// the source as parent, pending human approval. The applied suggestions are
// copied onto the new version with confidence scores, marked autonomous.
// Returns (nil, nil) when no suggestion has replacement text; a no-op is not
// an error.
func (r *Redliner) CreateAutonomousRedline(ctx context.Context, source *model.ContractVersion) (*model.ContractVersion, error) {
	if source.FullText == nil {
		return nil, fmt.Errorf("version %s has no extracted text", source.ID)
	}

	applicable := make([]model.AnalysisSuggestion, 0, len(source.Suggestions))
	for _, s := range source.Suggestions {
		if s.SuggestedText != nil && *s.SuggestedText != "" {
			score := ScoreConfidence(s)
			s.ConfidenceScore = &score
			applicable = append(applicable, s)
		}
	}
	if len(applicable) == 0 {
		r.log.Info("no applicable suggestions for autonomous redline", "version_id", source.ID)
		return nil, nil
	}

	newText, err := ApplySuggestions(*source.FullText, applicable)
	if err != nil {
		return nil, err
	}

	newVersion, err := r.store.CreateRedlineVersion(ctx, source, newText, applicable)
	if err != nil {
		return nil, err
	}

	r.log.Info("autonomous redline created",
		"contract_id", source.ContractID,
		"source_version", source.VersionNumber,
		"new_version", newVersion.VersionNumber,
		"applied", len(applicable))
	r.notifier.Broadcast(ctx, EventRedlineCreated, source.ContractID.String(), map[string]any{
		"contract_id":    source.ContractID,
		"new_version_id": newVersion.ID,
		"version_number": newVersion.VersionNumber,
	})
	return newVersion, nil
}
