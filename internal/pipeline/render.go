package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/glosa/internal/model"
)

// Renderer writes audit reports as JSON, Markdown or a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON to path
func (r *Renderer) RenderJSON(report *model.AuditReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.AuditReport, path string) error {
	var b strings.Builder
	r.WriteMarkdown(&b, report)
	return writeFile(path, []byte(b.String()))
}

// WriteMarkdown renders the report as Markdown into w
func (r *Renderer) WriteMarkdown(w io.Writer, report *model.AuditReport) {
	fmt.Fprintf(w, "# Auditoria: %s\n\n", report.Chapter)
	if report.SourcePath != "" {
		fmt.Fprintf(w, "- Fonte: `%s`\n", report.SourcePath)
	}
	fmt.Fprintf(w, "- Data: %s\n", report.AuditedAt.Format("02/01/2006 15:04 MST"))
	fmt.Fprintf(w, "- Caracteres: %d", report.Characters)
	if report.CharacterLimit > 0 {
		fmt.Fprintf(w, " / %d", report.CharacterLimit)
	}
	if report.OverLimit {
		fmt.Fprint(w, " (acima do limite)")
	}
	fmt.Fprint(w, "\n\n")

	fmt.Fprintf(w, "## Índice de conformidade: %d/100\n\n", report.Score.Index)
	fmt.Fprintf(w, "%d de %d sugestões resolvidas.\n\n", report.Score.Resolved, report.Score.Total)
	for _, s := range report.Score.Signals {
		fmt.Fprintf(w, "- **%s** (%s): %s\n", s.Type, s.Severity, s.Description)
	}
	if len(report.Score.Signals) > 0 {
		fmt.Fprintln(w)
	}

	alerts := filterKind(report.Suggestions, model.KindTermAlert)
	if len(alerts) > 0 {
		fmt.Fprint(w, "## Termos não recomendados\n\n")
		fmt.Fprint(w, "| Posição | Termo | Sugestão | Motivo | Status |\n")
		fmt.Fprint(w, "|---|---|---|---|---|\n")
		for _, sg := range alerts {
			fmt.Fprintf(w, "| %d | %s | %s | %s | %s |\n",
				sg.Range.Start, cell(sg.OriginalText), cell(sg.SuggestedText), cell(reasonWithReference(sg)), sg.Status)
		}
		fmt.Fprintln(w)
	}

	improvements := filterKind(report.Suggestions, model.KindImprovement)
	if len(improvements) > 0 {
		fmt.Fprint(w, "## Melhorias sugeridas\n\n")
		for i, sg := range improvements {
			fmt.Fprintf(w, "%d. ~~%s~~ → %s\n", i+1, sg.OriginalText, sg.SuggestedText)
			if sg.Reason != "" {
				fmt.Fprintf(w, "   - %s\n", sg.Reason)
			}
		}
		fmt.Fprintln(w)
	}

	if a := report.Analysis; a != nil {
		fmt.Fprint(w, "## Análise por IA\n\n")
		fmt.Fprintf(w, "- Provedor: %s", a.Provider)
		if a.Model != "" {
			fmt.Fprintf(w, " (%s)", a.Model)
		}
		fmt.Fprintln(w)
		for _, n := range a.Notices {
			fmt.Fprintf(w, "- [%s] %s\n", n.Level, n.Message)
		}
		if a.Error != "" {
			fmt.Fprintf(w, "- Erro: %s\n", a.Error)
		}
		fmt.Fprintln(w)
	}

	if r.includeFooter {
		fmt.Fprint(w, "---\n\n")
		fmt.Fprint(w, "_Relatório gerado por glosa. As sugestões apoiam a redação e não substituem a análise técnica ou jurídica._\n")
	}
}

// RenderSummary prints a short human summary of the report to w
func (r *Renderer) RenderSummary(w io.Writer, report *model.AuditReport) {
	fmt.Fprintf(w, "\n%s\n", report.Chapter)
	fmt.Fprintf(w, "  Compliance index: %d/100 (%d/%d resolved)\n", report.Score.Index, report.Score.Resolved, report.Score.Total)

	limit := ""
	if report.CharacterLimit > 0 {
		limit = fmt.Sprintf(" / %d", report.CharacterLimit)
	}
	fmt.Fprintf(w, "  Characters:       %d%s\n", report.Characters, limit)

	for _, sg := range filterKind(report.Suggestions, model.KindTermAlert) {
		fmt.Fprintf(w, "  ⚠ %q @%d → %q\n", sg.OriginalText, sg.Range.Start, sg.SuggestedText)
	}
	if a := report.Analysis; a != nil {
		fmt.Fprintf(w, "  AI improvements:  %d (%s)\n", a.Improvements, a.Provider)
		if a.Error != "" {
			fmt.Fprintf(w, "  AI error:         %s\n", a.Error)
		}
	}
	for _, s := range report.Score.Signals {
		if s.Severity != model.SeverityInfo {
			fmt.Fprintf(w, "  [%s] %s\n", s.Severity, s.Description)
		}
	}
	fmt.Fprintln(w)
}

func filterKind(suggestions []model.Suggestion, kind model.SuggestionKind) []model.Suggestion {
	var out []model.Suggestion
	for _, sg := range suggestions {
		if sg.Kind == kind {
			out = append(out, sg)
		}
	}
	return out
}

func reasonWithReference(sg model.Suggestion) string {
	if sg.Reference == "" {
		return sg.Reason
	}
	return sg.Reason + " (" + sg.Reference + ")"
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
