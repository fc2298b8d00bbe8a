package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "SURF_"
	envConfig = "SURF_CONFIG"
)

// Load builds a Config by layering defaults, YAML files and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. files listed in SURF_CONFIG (comma separated), then paths
//  3. env (prefix SURF_, "__" separates nested keys)
//
// Files are deep merged in order: maps merge, scalars and lists are replaced.
func Load(ctx context.Context, paths ...string) (*Config, error) {
	base := New(ctx)
	k := koanf.New(".")

	for _, path := range configPaths(paths) {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// SURF_QUEUE_SIZE -> queue_size, SURF_GENERATOR__CURRENT_YEAR -> generator.current_year
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envConfig {
			return ""
		}
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configPaths(explicit []string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(envConfig), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	for _, p := range explicit {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the server settings.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxLimit <= 0:
		return fmt.Errorf("%w: max_limit must be positive", ErrInvalidConfig)
	case c.TopLimit <= 0:
		return fmt.Errorf("%w: top_limit must be positive", ErrInvalidConfig)
	}
	return nil
}

// Validate checks the settings a generator run needs.
func (g *Generator) Validate() error {
	if len(g.InputPaths) == 0 {
		return fmt.Errorf("%w: generator.input_paths is empty", ErrInvalidConfig)
	}
	if len(g.Scoring) > 0 {
		if _, ok := g.Scoring[g.ScoringSystem]; !ok {
			return fmt.Errorf("%w: scoring system %q is not defined", ErrInvalidConfig, g.ScoringSystem)
		}
	}
	for i, r := range g.Bonuses.ParticipantFactor.Rules {
		if _, err := r.MaxValue(); err != nil {
			return fmt.Errorf("%w: participant_factor rule %d: max %q", ErrInvalidConfig, i, r.Max)
		}
	}
	if g.Bonuses.Decay.Enabled && g.Bonuses.Decay.Factor <= 0 {
		return fmt.Errorf("%w: decay factor must be positive", ErrInvalidConfig)
	}
	return nil
}
