package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/odinsy/topheats-rating/internal/adapters/index"
	"github.com/odinsy/topheats-rating/internal/config"
	"github.com/odinsy/topheats-rating/internal/generator"
	"github.com/odinsy/topheats-rating/pkg/logger"
)

type configFiles []string

func (c *configFiles) String() string { return strings.Join(*c, ",") }

func (c *configFiles) Set(v string) error {
	*c = append(*c, v)
	return nil
}

func main() {
	var files configFiles
	flag.Var(&files, "config", "YAML config file (repeatable, merged in order)")
	indexRoot := flag.String("index", "", "regenerate index.json under this directory after the run")
	indexOnly := flag.Bool("index-only", false, "only regenerate the index, skip the rating run")
	quiet := flag.Bool("quiet", false, "do not print the top of the rating")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, files, *indexRoot, *indexOnly, *quiet); err != nil {
		logger.Get().Error(ctx, "generation failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, files []string, indexRoot string, indexOnly, quiet bool) error {
	if indexOnly {
		if indexRoot == "" {
			return errors.New("-index-only needs -index")
		}
		idx, err := index.Generate(indexRoot, time.Now())
		if err != nil {
			return err
		}
		logger.Get().Info(ctx, "index written",
			logger.String("root", indexRoot),
			logger.Int("rankings", len(idx.Rankings)))
		return nil
	}

	cfg, err := config.Load(ctx, files...)
	if err != nil {
		return err
	}
	_ = logger.SetFormat(cfg.LogFormat)
	_ = logger.SetLevelString(cfg.LogLevel)
	if indexRoot != "" {
		cfg.Generator.IndexRoot = indexRoot
	}

	opts := []generator.Option{generator.WithLogger(logger.Named("generator"))}
	if !quiet {
		opts = append(opts, generator.WithConsole(os.Stdout))
	}
	g, err := generator.New(cfg.Generator, opts...)
	if err != nil {
		return err
	}
	_, err = g.Run(ctx)
	return err
}
