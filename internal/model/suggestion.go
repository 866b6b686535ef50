package model

// Suggestion is a candidate edit surfaced to the author of a chapter
type Suggestion struct {
	ID            string           `json:"id"`
	Kind          SuggestionKind   `json:"kind"`
	OriginalText  string           `json:"original_text"`
	SuggestedText string           `json:"suggested_text"`
	Range         Range            `json:"range"`
	Status        SuggestionStatus `json:"status"`
	Reason        string           `json:"reason"`
	Reference     string           `json:"reference,omitempty"` // Regulatory citation, term alerts only
}

// Range holds rune offsets into the plain-text projection of a chapter.
// End is exclusive.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered by the range
func (r Range) Len() int {
	return r.End - r.Start
}

// SuggestionKind classifies where a suggestion came from
type SuggestionKind string

const (
	KindTermAlert       SuggestionKind = "term_alert"       // Forbidden term hit
	KindImprovement     SuggestionKind = "improvement"      // Returned by the review service
	KindLengthViolation SuggestionKind = "length_violation" // Reserved, never produced
)

// Valid reports whether k is a known kind
func (k SuggestionKind) Valid() bool {
	switch k {
	case KindTermAlert, KindImprovement, KindLengthViolation:
		return true
	}
	return false
}

// SuggestionStatus is the lifecycle state of a suggestion
type SuggestionStatus string

const (
	StatusPending  SuggestionStatus = "pending"
	StatusAccepted SuggestionStatus = "accepted"
	StatusRejected SuggestionStatus = "rejected"
)

// Resolved reports whether the suggestion has left the pending state
func (s SuggestionStatus) Resolved() bool {
	return s == StatusAccepted || s == StatusRejected
}

// ForbiddenTermRule maps a term the tax authority does not accept to the
// wording that should replace it
type ForbiddenTermRule struct {
	Term       string `json:"term" yaml:"term"`
	Suggestion string `json:"suggestion" yaml:"suggestion"`
	Reason     string `json:"reason" yaml:"reason"`
	Reference  string `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// Chapter is a named section of a project report
type Chapter struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Order   int    `json:"order" yaml:"order"`
	Content string `json:"content" yaml:"content"` // Rich-text HTML
}

// DefaultChapters returns the standard chapter outline of a Lei do Bem report
func DefaultChapters() []Chapter {
	return []Chapter{
		{ID: "1", Title: "Objetivos do Projeto", Order: 1},
		{ID: "2", Title: "Metodologia", Order: 2},
		{ID: "3", Title: "Resultados Esperados", Order: 3},
		{ID: "4", Title: "Indicadores de Inovação", Order: 4},
		{ID: "5", Title: "Conclusão", Order: 5},
	}
}

// ProjectStatus tracks where a report is in its review flow
type ProjectStatus string

const (
	ProjectEditing  ProjectStatus = "editing"
	ProjectReview   ProjectStatus = "review"
	ProjectApproved ProjectStatus = "approved"
)

// Valid reports whether s is a known project status
func (s ProjectStatus) Valid() bool {
	return s == ProjectEditing || s == ProjectReview || s == ProjectApproved
}
