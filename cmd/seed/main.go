package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/kmarek/evalarena/internal/seed"
)

// Default configuration constants.
const (
	defaultSubmitters  = 20
	defaultTopN        = 10
	defaultTimeout     = 30 * time.Second
	defaultRunDeadline = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9090", "Base URL of the service")
		submitters = flag.Int("submitters", defaultSubmitters, "Number of synthetic submitters per challenge")
		topN       = flag.Int("top", defaultTopN, "Number of leaderboard entries to fetch back")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunDeadline)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:    *baseURL,
		Submitters: *submitters,
		TopN:       *topN,
		Timeout:    *timeout,
		Verbose:    *verbose,
	}

	if err := seed.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("seed failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
