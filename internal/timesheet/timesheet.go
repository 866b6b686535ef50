// Package timesheet validates R&D time entries against project vigency and
// daily hour limits, and aggregates hours for monthly reports.
package timesheet

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the wire format of every date in a sheet
const DateLayout = "2006-01-02"

const displayLayout = "02/01/2006"

// Defaults for the validator limits
const (
	DefaultDailyLimit = 8.0
	DefaultMaxEntry   = 24.0
)

// Messages shown to the user
const (
	MsgProjectNotFound = "Projeto não encontrado"
	MsgInvalidDate     = "Data inválida: %s"
	MsgInvalidHours    = "Informe entre 0 e %.0f horas por lançamento"
	MsgVigencyLocked   = "Projeto fora da vigência (%s - %s). Lançamentos bloqueados."
	MsgVigencyWarning  = "Atenção: Data fora da vigência do projeto (%s - %s)"
	MsgDailyLimit      = "Atenção: Total de horas no dia será %.1fh (acima de %.0fh)"
)

// Project is the subset of an R&D project that governs time entries
type Project struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Code            string `json:"code,omitempty" yaml:"code,omitempty"`
	StartDate       string `json:"start_date" yaml:"start_date"`
	EndDate         string `json:"end_date" yaml:"end_date"`
	HardLockVigency bool   `json:"hard_lock_vigency" yaml:"hard_lock_vigency"`
}

// Entry is one logged block of hours
type Entry struct {
	ID           string  `json:"id,omitempty" yaml:"id,omitempty"`
	ProjectID    string  `json:"project_id" yaml:"project_id"`
	WorkDate     string  `json:"work_date" yaml:"work_date"`
	Hours        float64 `json:"hours" yaml:"hours"`
	Description  string  `json:"description,omitempty" yaml:"description,omitempty"`
	ActivityType string  `json:"activity_type,omitempty" yaml:"activity_type,omitempty"`
}

// Validation is the outcome of checking a candidate entry.
// Warning carries the message for both rejected and accepted-with-warning
// entries.
type Validation struct {
	Valid   bool   `json:"valid"`
	Warning string `json:"warning,omitempty"`
}

// Validator checks candidate entries
type Validator struct {
	DailyLimit float64
	MaxEntry   float64
}

// NewValidator creates a validator; non-positive limits fall back to the
// defaults
func NewValidator(dailyLimit, maxEntry float64) *Validator {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	if maxEntry <= 0 {
		maxEntry = DefaultMaxEntry
	}
	return &Validator{DailyLimit: dailyLimit, MaxEntry: maxEntry}
}

// Validate checks candidate against its project and the entries already
// logged on the same day. A nil project is invalid.
func (v *Validator) Validate(project *Project, dayEntries []Entry, candidate Entry) Validation {
	if project == nil {
		return Validation{Valid: false, Warning: MsgProjectNotFound}
	}
	if candidate.Hours <= 0 || candidate.Hours > v.MaxEntry {
		return Validation{Valid: false, Warning: fmt.Sprintf(MsgInvalidHours, v.MaxEntry)}
	}

	date, err := time.Parse(DateLayout, candidate.WorkDate)
	if err != nil {
		return Validation{Valid: false, Warning: fmt.Sprintf(MsgInvalidDate, candidate.WorkDate)}
	}
	start, errStart := time.Parse(DateLayout, project.StartDate)
	end, errEnd := time.Parse(DateLayout, project.EndDate)
	if errStart != nil || errEnd != nil {
		return Validation{Valid: false, Warning: fmt.Sprintf(MsgInvalidDate, project.StartDate+" - "+project.EndDate)}
	}

	if date.Before(start) || date.After(end) {
		if project.HardLockVigency {
			return Validation{Valid: false, Warning: fmt.Sprintf(MsgVigencyLocked, start.Format(displayLayout), end.Format(displayLayout))}
		}
		return Validation{Valid: true, Warning: fmt.Sprintf(MsgVigencyWarning, start.Format(displayLayout), end.Format(displayLayout))}
	}

	total := candidate.Hours
	for _, e := range dayEntries {
		if e.WorkDate == candidate.WorkDate {
			total += e.Hours
		}
	}
	if total > v.DailyLimit {
		return Validation{Valid: true, Warning: fmt.Sprintf(MsgDailyLimit, total, v.DailyLimit)}
	}

	return Validation{Valid: true}
}

// Sheet is a set of projects and the entries logged against them
type Sheet struct {
	Projects []Project `json:"projects" yaml:"projects"`
	Entries  []Entry   `json:"entries" yaml:"entries"`
}

// LoadSheet reads a YAML (or JSON) sheet from path
func LoadSheet(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	var sheet Sheet
	if err := yaml.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("parse sheet: %w", err)
	}
	return &sheet, nil
}

// Project looks up a project by ID
func (s *Sheet) Project(id string) *Project {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return &s.Projects[i]
		}
	}
	return nil
}

// EntryResult pairs an entry with its validation
type EntryResult struct {
	Entry      Entry      `json:"entry"`
	Validation Validation `json:"validation"`
}

// ValidateSheet replays the sheet's entries in order. Each entry is checked
// against the valid entries before it; rejected entries do not count
// toward later daily totals.
func (v *Validator) ValidateSheet(sheet *Sheet) []EntryResult {
	results := make([]EntryResult, 0, len(sheet.Entries))
	accepted := make([]Entry, 0, len(sheet.Entries))

	for _, e := range sheet.Entries {
		res := v.Validate(sheet.Project(e.ProjectID), DayEntries(accepted, e.WorkDate), e)
		if res.Valid {
			accepted = append(accepted, e)
		}
		results = append(results, EntryResult{Entry: e, Validation: res})
	}
	return results
}

// DayEntries returns the entries logged on date (yyyy-MM-dd)
func DayEntries(entries []Entry, date string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.WorkDate == date {
			out = append(out, e)
		}
	}
	return out
}

// MonthTotal sums the hours logged in the month containing month
func MonthTotal(entries []Entry, month time.Time) float64 {
	var total float64
	for _, e := range entries {
		if inMonth(e.WorkDate, month) {
			total += e.Hours
		}
	}
	return total
}

// Months returns the first day of every month with a valid entry, in order
func Months(entries []Entry) []time.Time {
	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, e := range entries {
		d, err := time.Parse(DateLayout, e.WorkDate)
		if err != nil {
			continue
		}
		m := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return out
}

// HoursByProject sums hours per project ID
func HoursByProject(entries []Entry) map[string]float64 {
	out := make(map[string]float64)
	for _, e := range entries {
		out[e.ProjectID] += e.Hours
	}
	return out
}

// DayTotal is the hours logged on one day
type DayTotal struct {
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	OverLimit bool    `json:"over_limit"`
}

// DayTotals sums hours per day, sorted by date, flagging days above limit
func DayTotals(entries []Entry, limit float64) []DayTotal {
	sums := make(map[string]float64)
	for _, e := range entries {
		sums[e.WorkDate] += e.Hours
	}

	out := make([]DayTotal, 0, len(sums))
	for date, hours := range sums {
		out = append(out, DayTotal{Date: date, Hours: hours, OverLimit: hours > limit})
	}
	slices.SortFunc(out, func(a, b DayTotal) int {
		switch {
		case a.Date < b.Date:
			return -1
		case a.Date > b.Date:
			return 1
		}
		return 0
	})
	return out
}

func inMonth(date string, month time.Time) bool {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	return d.Year() == month.Year() && d.Month() == month.Month()
}
