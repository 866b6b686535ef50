package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/glosa/internal/audit"
	"github.com/ppiankov/glosa/internal/model"
	"github.com/ppiankov/glosa/internal/pipeline"
	"github.com/ppiankov/glosa/internal/rules"
	"github.com/ppiankov/glosa/internal/server"
	"github.com/ppiankov/glosa/internal/timesheet"
	"github.com/ppiankov/glosa/internal/worker"
)

var (
	listenAddr  string
	chaptersDir string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an audit session over HTTP",
	Long: `Serve exposes an editing session of one report over a JSON API:
chapters, term alerts, AI review, decisions, compliance score and time
entry validation. Prometheus metrics are served on /metrics.

Example:
  glosa serve
  glosa serve --listen :9090 --chapters ./relatorio`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (default: server.listen)")
	serveCmd.Flags().StringVar(&chaptersDir, "chapters", "", "directory of chapter files to load (default: empty standard chapters)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if listenAddr == "" {
		listenAddr = cfg.Server.Listen
	}

	logger, closer, err := newServerLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ruleSet, err := rules.Resolve(cfg.Audit.RulesFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chapters, err := loadChapters(ctx, cfg, chaptersDir)
	if err != nil {
		return err
	}

	session := audit.NewSession(ruleSet, chapters, audit.Options{
		CharacterLimit: cfg.Audit.CharacterLimit,
		ApplyOnAccept:  cfg.Audit.ApplyOnAccept,
		Logger:         logger,
	})

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMinContentLength(cfg.Review.MinContentLength),
		server.WithValidator(timesheet.NewValidator(cfg.Hours.DailyLimit, cfg.Hours.MaxEntry)),
	}
	reviewer, err := pipeline.NewReviewer(cfg, logger)
	if err != nil {
		return fmt.Errorf("init review provider: %w", err)
	}
	if reviewer != nil {
		opts = append(opts, server.WithReviewer(reviewer))
		fmt.Fprintf(os.Stderr, "AI review: %s\n", reviewer.ProviderName())
	}

	srv := server.New(session, opts...)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(listenAddr)
	}()
	fmt.Fprintf(os.Stderr, "✓ Listening on %s (%d chapters)\n", listenAddr, len(session.Chapters()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	fmt.Fprintf(os.Stderr, "Shutting down...\n")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadChapters reads every chapter file of dir in name order. An empty dir
// yields the standard chapter outline.
func loadChapters(ctx context.Context, cfg *model.Config, dir string) ([]model.Chapter, error) {
	if dir == "" {
		return model.DefaultChapters(), nil
	}

	files, err := worker.ChapterFiles(dir)
	if err != nil {
		return nil, err
	}

	loader := pipeline.NewLoader(time.Duration(cfg.LLM.Timeout)*time.Second, 2_000_000, "", "", "")
	chapters := make([]model.Chapter, 0, len(files))
	for i, path := range files {
		src, err := loader.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, model.Chapter{
			ID:      fmt.Sprintf("%d", i+1),
			Title:   src.Title,
			Order:   i + 1,
			Content: src.Content,
		})
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("no chapter files in %s", dir)
	}
	return chapters, nil
}
