package model

import "time"

// AuditReport is the complete result of auditing one chapter
type AuditReport struct {
	Chapter    string    `json:"chapter"`               // Chapter title
	SourcePath string    `json:"source_path,omitempty"` // File the chapter was read from
	AuditedAt  time.Time `json:"audited_at"`

	Characters     int  `json:"characters"`      // Rune count of the plain-text projection
	CharacterLimit int  `json:"character_limit"` // Configured limit
	OverLimit      bool `json:"over_limit"`

	Suggestions []Suggestion `json:"suggestions"`
	Score       Score        `json:"score"`

	Analysis *AnalysisSummary `json:"analysis,omitempty"` // Present when the review service was asked
}

// AnalysisSummary records how the review service pass went
type AnalysisSummary struct {
	Enabled      bool     `json:"enabled"`
	Provider     string   `json:"provider,omitempty"`
	Model        string   `json:"model,omitempty"`
	Improvements int      `json:"improvements"`
	Notices      []Notice `json:"notices,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Score is the transparent compliance score shown next to the suggestions
type Score struct {
	Index    int      `json:"index"`    // 0-100
	Total    int      `json:"total"`    // Suggestions considered
	Resolved int      `json:"resolved"` // Accepted or rejected
	Complete bool     `json:"complete"` // Index == 100
	Signals  []Signal `json:"signals"`
}

// Signal is a diagnostic with the data behind it
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// SignalType classifies a diagnostic signal
type SignalType string

const (
	SignalPendingTermAlerts   SignalType = "pending_term_alerts"
	SignalPendingImprovements SignalType = "pending_improvements"
	SignalCharacterLimit      SignalType = "character_limit"
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
