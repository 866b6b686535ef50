package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outJSON     string
	outMD       string
	title       string
	timeout     time.Duration
	noFooter    bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <file|url>",
	Short: "Audit a single chapter and score it",
	Long: `Scan audits one report chapter (HTML, Markdown or plain text) to:
- Flag forbidden terms with their accepted replacement and legal reference
- Optionally ask an AI reviewer for wording improvements (--llm)
- Check the chapter against the character limit
- Calculate the compliance index

Example:
  glosa scan metodologia.html
  glosa scan metodologia.html --json report.json --md report.md
  glosa scan metodologia.html --llm --llm-provider anthropic`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Output flags
	scanCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	scanCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	scanCmd.Flags().StringVar(&title, "title", "", "chapter title (default: first heading or file name)")
	scanCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	scanCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall scan timeout")

	// LLM flags
	scanCmd.Flags().BoolVar(&llmEnabled, "llm", false, "ask the AI reviewer for improvements")
	scanCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "review provider (openai, anthropic, ollama, function); implies --llm")
	scanCmd.Flags().StringVar(&llmModel, "llm-model", "", "review model name")
}

func runScan(cmd *cobra.Command, args []string) error {
	location := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyLLMFlags(cfg, llmEnabled, llmProvider, llmModel)

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", location)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		if cfg.LLM.Provider != "" {
			fmt.Fprintf(os.Stderr, "Reviewer: %s\n", cfg.LLM.Provider)
		}
		fmt.Fprintln(os.Stderr)
	}

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	src, err := p.Load(ctx, location)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if title != "" {
		src.Title = title
	}

	report, err := p.AuditSource(ctx, src)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Found %d suggestions\n", len(report.Suggestions))
		fmt.Fprintf(os.Stderr, "✓ Calculated compliance index: %d/100\n", report.Score.Index)
		if a := report.Analysis; a != nil && a.Error == "" {
			fmt.Fprintf(os.Stderr, "✓ AI review by %s: %d improvements\n", a.Provider, a.Improvements)
		}
		fmt.Fprintln(os.Stderr)
	}

	return renderReport(report, outJSON, outMD, !noFooter)
}
