// Package rules holds the forbidden-term configuration used to audit
// report chapters.
package rules

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/glosa/internal/model"
	"gopkg.in/yaml.v3"
)

// Default returns the built-in forbidden-term rules
func Default() []model.ForbiddenTermRule {
	return []model.ForbiddenTermRule{
		{Term: "pesquisa básica", Suggestion: "pesquisa aplicada", Reason: "Termo não aceito pela RFB", Reference: "Art. 17 da Lei 11.196/2005"},
		{Term: "inovação incremental", Suggestion: "desenvolvimento tecnológico", Reason: "Termo não recomendado", Reference: "IN RFB 1.187/2011"},
		{Term: "melhoria de processo", Suggestion: "inovação de processo", Reason: "Termo inadequado para Lei do Bem", Reference: "Manual de Frascati"},
		{Term: "rotina", Suggestion: "atividade de P&D", Reason: "Sugere trabalho repetitivo", Reference: "Decreto 5.798/2006"},
		{Term: "manutenção", Suggestion: "aperfeiçoamento tecnológico", Reason: "Não caracteriza inovação", Reference: "Art. 2º IN RFB 1.187/2011"},
	}
}

// file is the on-disk layout of a rules file
type file struct {
	Rules []model.ForbiddenTermRule `yaml:"rules"`
}

// Load reads rules from a YAML file of the form
//
//	rules:
//	  - term: rotina
//	    suggestion: atividade de P&D
//	    reason: Sugere trabalho repetitivo
//	    reference: Decreto 5.798/2006
func Load(path string) ([]model.ForbiddenTermRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates rules from YAML
func Parse(data []byte) ([]model.ForbiddenTermRule, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file defines no rules")
	}
	return Validate(f.Rules)
}

// Validate trims rule fields and rejects blank or duplicated terms.
// Terms are compared case-insensitively, as the scanner matches them.
func Validate(in []model.ForbiddenTermRule) ([]model.ForbiddenTermRule, error) {
	seen := make(map[string]int, len(in))
	out := make([]model.ForbiddenTermRule, 0, len(in))

	for i, r := range in {
		r.Term = strings.TrimSpace(r.Term)
		r.Suggestion = strings.TrimSpace(r.Suggestion)
		r.Reason = strings.TrimSpace(r.Reason)
		r.Reference = strings.TrimSpace(r.Reference)

		if r.Term == "" {
			return nil, fmt.Errorf("rule %d: term is empty", i+1)
		}
		if r.Suggestion == "" {
			return nil, fmt.Errorf("rule %d (%s): suggestion is empty", i+1, r.Term)
		}

		key := strings.ToLower(r.Term)
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("rule %d (%s): duplicates rule %d", i+1, r.Term, prev)
		}
		seen[key] = i + 1
		out = append(out, r)
	}

	return out, nil
}

// Resolve returns the rules from path, or the built-in rules when path is
// empty
func Resolve(path string) ([]model.ForbiddenTermRule, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
