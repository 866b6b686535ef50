// Package audit owns the suggestion state of the chapter being edited.
package audit

import (
	"github.com/ppiankov/glosa/internal/model"
)

// Store is the authoritative, de-duplicated list of suggestions for the
// active chapter. Term alerts and improvements are kept apart so each can
// be replaced without touching the other.
//
// Store is not safe for concurrent use; Session serialises access.
type Store struct {
	termAlerts   []model.Suggestion
	improvements []model.Suggestion
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{}
}

// ReconcileTermAlerts replaces every term alert with newAlerts. An alert
// whose ID is already known keeps its current status; alerts that are no
// longer reported are dropped whatever their status. Repeated IDs in
// newAlerts collapse to the first occurrence.
func (s *Store) ReconcileTermAlerts(newAlerts []model.Suggestion) {
	previous := make(map[string]model.SuggestionStatus, len(s.termAlerts))
	for _, a := range s.termAlerts {
		previous[a.ID] = a.Status
	}

	seen := make(map[string]bool, len(newAlerts))
	next := make([]model.Suggestion, 0, len(newAlerts))
	for _, a := range newAlerts {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true

		a.Kind = model.KindTermAlert
		if status, ok := previous[a.ID]; ok {
			a.Status = status
		} else if a.Status == "" {
			a.Status = model.StatusPending
		}
		next = append(next, a)
	}

	s.termAlerts = next
}

// ReplaceImprovements swaps the whole improvement set for items. Statuses
// are not carried over.
func (s *Store) ReplaceImprovements(items []model.Suggestion) {
	seen := make(map[string]bool, len(items))
	next := make([]model.Suggestion, 0, len(items))
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true

		it.Kind = model.KindImprovement
		if it.Status == "" {
			it.Status = model.StatusPending
		}
		next = append(next, it)
	}

	s.improvements = next
}

// SetStatus moves a pending suggestion to accepted or rejected.
// It reports false and changes nothing when id is unknown, the entry is no
// longer pending, or status is not a resolved state.
func (s *Store) SetStatus(id string, status model.SuggestionStatus) bool {
	if !status.Resolved() {
		return false
	}

	for _, list := range [][]model.Suggestion{s.termAlerts, s.improvements} {
		for i := range list {
			if list[i].ID != id {
				continue
			}
			if list[i].Status != model.StatusPending {
				return false
			}
			list[i].Status = status
			return true
		}
	}

	return false
}

// Clear empties the store
func (s *Store) Clear() {
	s.termAlerts = nil
	s.improvements = nil
}

// Get returns the suggestion with the given id
func (s *Store) Get(id string) (model.Suggestion, bool) {
	for _, list := range [][]model.Suggestion{s.termAlerts, s.improvements} {
		for _, sg := range list {
			if sg.ID == id {
				return sg, true
			}
		}
	}
	return model.Suggestion{}, false
}

// All returns every suggestion, term alerts first
func (s *Store) All() []model.Suggestion {
	out := make([]model.Suggestion, 0, len(s.termAlerts)+len(s.improvements))
	out = append(out, s.termAlerts...)
	out = append(out, s.improvements...)
	return out
}

// Pending returns the suggestions still awaiting a decision
func (s *Store) Pending() []model.Suggestion {
	return filter(s.All(), func(sg model.Suggestion) bool {
		return sg.Status == model.StatusPending
	})
}

// ByKind returns the suggestions of one kind
func (s *Store) ByKind(kind model.SuggestionKind) []model.Suggestion {
	switch kind {
	case model.KindTermAlert:
		return append([]model.Suggestion{}, s.termAlerts...)
	case model.KindImprovement:
		return append([]model.Suggestion{}, s.improvements...)
	default:
		return []model.Suggestion{}
	}
}

// Len returns the number of suggestions held
func (s *Store) Len() int {
	return len(s.termAlerts) + len(s.improvements)
}

func filter(in []model.Suggestion, keep func(model.Suggestion) bool) []model.Suggestion {
	out := make([]model.Suggestion, 0, len(in))
	for _, sg := range in {
		if keep(sg) {
			out = append(out, sg)
		}
	}
	return out
}
