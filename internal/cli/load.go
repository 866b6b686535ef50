package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/glosa/internal/logging"
	"github.com/ppiankov/glosa/internal/model"
	"github.com/ppiankov/glosa/internal/pipeline"
	"github.com/ppiankov/glosa/internal/rules"
)

// optionalKeys are omitted from the marshalled defaults when empty, so they
// are bound to the environment explicitly
var optionalKeys = []string{
	"llm.api_key",
	"llm.base_url",
	"llm.http_proxy",
	"llm.https_proxy",
	"llm.no_proxy",
	"audit.rules_file",
	"log.file",
}

// loadConfig resolves the effective configuration: flags and environment
// over the config file over the built-in defaults
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := registerDefaults(v, cfg); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyEnvFallbacks(cfg)
	return cfg, nil
}

// registerDefaults makes every config key known to viper so environment
// variables can override keys absent from the config file
func registerDefaults(v *viper.Viper, cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}
	setDefaults(v, "", tree)

	for _, key := range optionalKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok {
			setDefaults(v, full, sub)
			continue
		}
		v.SetDefault(full, value)
	}
}

// applyEnvFallbacks fills credentials from the variables each provider
// conventionally uses
func applyEnvFallbacks(cfg *model.Config) {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		// the ollama client reads OLLAMA_HOST itself when no base URL is set
	case "function", "supabase":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("GLOSA_FUNCTION_URL")
		}
	}
}

// applyLLMFlags overrides the configured provider from command flags.
// --llm without a configured provider falls back to openai.
func applyLLMFlags(cfg *model.Config, enabled bool, provider, modelName string) {
	if provider != "" {
		cfg.LLM.Provider = provider
		enabled = true
	}
	if !enabled {
		cfg.LLM.Provider = ""
		return
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if modelName != "" {
		cfg.LLM.Model = modelName
	}
	applyEnvFallbacks(cfg)
}

// newLogger builds the command logger. Unless --verbose is set or logs go
// to a file, only warnings reach the terminal.
func newLogger(cfg *model.Config) (*slog.Logger, io.Closer, error) {
	logCfg := cfg.Log
	if !verbose && logCfg.File == "" {
		logCfg.Level = "warn"
	}
	return logging.New(logCfg)
}

// newServerLogger builds the logger of long-running commands
func newServerLogger(cfg *model.Config) (*slog.Logger, io.Closer, error) {
	logCfg := cfg.Log
	if verbose {
		logCfg.Level = "debug"
	}
	return logging.New(logCfg)
}

// newPipeline wires rules, logger and the optional reviewer into a pipeline
func newPipeline(cfg *model.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	ruleSet, err := rules.Resolve(cfg.Audit.RulesFile)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	reviewer, err := pipeline.NewReviewer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init review provider: %w", err)
	}
	if reviewer != nil {
		opts = append(opts, pipeline.WithReviewer(reviewer))
	}
	return pipeline.NewPipeline(cfg, ruleSet, opts...), nil
}
