package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/odinsy/topheats-rating/internal/smoke"
	"github.com/odinsy/topheats-rating/pkg/logger"
)

const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultTimeout = 10 * time.Second
	runTimeout     = 5 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of rankings fetched concurrently")
		sample  = flag.Int("sample", 0, "Athletes per ranking checked in detail (0 checks all)")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		output  = flag.String("output", "", "Write the JSON report to this file")
		verbose = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	_, err := smoke.Run(ctx, smoke.Config{
		BaseURL: *baseURL,
		Workers: *workers,
		Sample:  *sample,
		Timeout: *timeout,
		Output:  *output,
	})
	if err != nil {
		logger.Get().Error(ctx, "smoke check failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
