package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/glosa/internal/model"
)

const (
	// baseIndex is where the index starts as soon as a chapter has any
	// suggestion; resolving all of them earns the remaining points
	baseIndex = 85
	// resolvedWeight is the share of the index earned by resolving suggestions
	resolvedWeight = 15

	// Character usage thresholds, in percent of the limit
	nearLimitPercent = 87.5
	overLimitPercent = 100.0
)

// Scorer calculates the compliance index and its diagnostic signals
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate scores a chapter from its suggestions and character usage.
// A limit of zero or less disables the character signal.
func (s *Scorer) Calculate(suggestions []model.Suggestion, characters, limit int) model.Score {
	total := len(suggestions)
	resolved := 0
	for _, sg := range suggestions {
		if sg.Status.Resolved() {
			resolved++
		}
	}

	index := 100
	if total > 0 {
		index = int(math.Round(baseIndex + float64(resolved)/float64(total)*resolvedWeight))
	}

	signals := []model.Signal{
		s.pendingSignal(suggestions, model.KindTermAlert),
		s.pendingSignal(suggestions, model.KindImprovement),
	}
	if limit > 0 {
		signals = append(signals, s.characterSignal(characters, limit))
	}

	return model.Score{
		Index:    index,
		Total:    total,
		Resolved: resolved,
		Complete: index == 100,
		Signals:  signals,
	}
}

// pendingSignal reports how many suggestions of one kind still need a decision
func (s *Scorer) pendingSignal(suggestions []model.Suggestion, kind model.SuggestionKind) model.Signal {
	count, pending := 0, 0
	for _, sg := range suggestions {
		if sg.Kind != kind {
			continue
		}
		count++
		if sg.Status == model.StatusPending {
			pending++
		}
	}

	signal := model.Signal{
		Type:     model.SignalPendingImprovements,
		Severity: model.SeverityInfo,
		Data: map[string]interface{}{
			"pending": pending,
			"total":   count,
		},
	}

	switch kind {
	case model.KindTermAlert:
		signal.Type = model.SignalPendingTermAlerts
		signal.Description = fmt.Sprintf("Termos não recomendados pendentes: %d", pending)
		if pending > 0 {
			// Unresolved forbidden terms are what leads to a glosa
			signal.Severity = model.SeverityWarning
		}
	default:
		signal.Description = fmt.Sprintf("Sugestões de melhoria pendentes: %d", pending)
	}

	return signal
}

// characterSignal compares the chapter length with the configured limit
func (s *Scorer) characterSignal(characters, limit int) model.Signal {
	percent := float64(characters) / float64(limit) * 100

	severity := model.SeverityInfo
	description := fmt.Sprintf("%d / %d caracteres", characters, limit)
	switch {
	case percent > overLimitPercent:
		severity = model.SeverityCritical
		description = fmt.Sprintf("Limite de caracteres excedido: %d / %d", characters, limit)
	case percent > nearLimitPercent:
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalCharacterLimit,
		Severity:    severity,
		Description: description,
		Data: map[string]interface{}{
			"characters": characters,
			"limit":      limit,
			"percent":    percent,
			"formula":    "characters / limit * 100 (warning > 87.5, critical > 100)",
		},
	}
}

// Formula documents how the index is derived
const Formula = "total == 0 ? 100 : round(85 + resolved / total * 15)"
