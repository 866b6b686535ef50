package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/glosa/internal/model"
	"github.com/ppiankov/glosa/internal/pipeline"
)

// renderReport writes the requested report files and prints the summary
func renderReport(report *model.AuditReport, jsonPath, mdPath string, footer bool) error {
	renderer := pipeline.NewRenderer(footer)

	if jsonPath != "" {
		if err := renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	renderer.RenderSummary(os.Stdout, report)
	return nil
}
