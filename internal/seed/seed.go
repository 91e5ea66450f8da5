// Package seed posts demo challenges and synthetic submissions against a
// running server, then reads the leaderboards back. It exercises the full
// pipeline end to end: creation, async scoring, ranking.
package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Config controls a seeding run.
type Config struct {
	BaseURL    string
	Submitters int
	TopN       int
	Timeout    time.Duration
	Verbose    bool
}

// scorePollInterval is how often we re-read a leaderboard while waiting
// for async scoring to finish.
const scorePollInterval = 200 * time.Millisecond

type challengeSpec struct {
	title    string
	desc     string
	expected []string
	tests    []map[string]any
	// generate produces one submitter's answer lines with the given
	// error rate in [0,1].
	generate func(expected []string, noise float64, rng *rand.Rand) []string
}

// Run creates the demo challenges, submits for every synthetic
// submitter, waits for scoring, and prints the top of each board.
func Run(ctx context.Context, cfg *Config) error {
	if cfg.Submitters < 1 {
		cfg.Submitters = 1
	}
	client := &http.Client{Timeout: cfg.Timeout}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, spec := range demoChallenges(rng) {
		if err := createChallenge(ctx, client, cfg, spec); err != nil {
			return err
		}
		if err := submitAll(ctx, client, cfg, spec, rng); err != nil {
			return err
		}
		if err := printLeaderboard(ctx, client, cfg, spec.title); err != nil {
			return err
		}
	}
	return nil
}

func demoChallenges(rng *rand.Rand) []challengeSpec {
	const classifiedLines = 500
	expected := make([]string, classifiedLines)
	for i := range expected {
		expected[i] = strconv.Itoa(rng.Intn(10))
	}

	prices := make([]string, 200)
	for i := range prices {
		prices[i] = strconv.FormatFloat(50+rng.Float64()*450, 'f', 2, 64)
	}

	return []challengeSpec{
		{
			title:    "digit-recognition",
			desc:     "Classify handwritten digits 0-9.",
			expected: expected,
			tests: []map[string]any{
				{"metric": "accuracy", "main_metric": true},
				{"metric": "f1_score", "parameters": map[string]any{"average": "macro"}},
			},
			generate: flipLines(func(r *rand.Rand) string { return strconv.Itoa(r.Intn(10)) }),
		},
		{
			title:    "house-prices",
			desc:     "Predict sale prices; lower error wins.",
			expected: prices,
			tests: []map[string]any{
				{"metric": "rmse", "main_metric": true},
				{"metric": "mean_absolute_error"},
			},
			generate: perturbNumbers,
		},
	}
}

// flipLines replaces each expected line with a random label at the
// given noise rate.
func flipLines(pick func(*rand.Rand) string) func([]string, float64, *rand.Rand) []string {
	return func(expected []string, noise float64, rng *rand.Rand) []string {
		out := make([]string, len(expected))
		for i, line := range expected {
			if rng.Float64() < noise {
				out[i] = pick(rng)
			} else {
				out[i] = line
			}
		}
		return out
	}
}

// perturbNumbers adds gaussian noise proportional to the noise rate.
func perturbNumbers(expected []string, noise float64, rng *rand.Rand) []string {
	out := make([]string, len(expected))
	for i, line := range expected {
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			out[i] = line
			continue
		}
		out[i] = strconv.FormatFloat(v+rng.NormFloat64()*noise*v, 'f', 2, 64)
	}
	return out
}

func createChallenge(ctx context.Context, client *http.Client, cfg *Config, spec challengeSpec) error {
	body := map[string]any{
		"author":          "seed",
		"title":           spec.title,
		"description":     spec.desc,
		"type":            "demo",
		"expected_output": spec.expected,
		"tests":           spec.tests,
	}
	status, raw, err := postJSON(ctx, client, cfg.BaseURL+"/challenges", body)
	if err != nil {
		return fmt.Errorf("create %s: %w", spec.title, err)
	}
	switch status {
	case http.StatusCreated:
		logf(cfg, "created challenge %s (%d expected lines)", spec.title, len(spec.expected))
	case http.StatusConflict:
		// Already seeded on a previous run; keep going.
		logf(cfg, "challenge %s already exists", spec.title)
	default:
		return fmt.Errorf("create %s: unexpected status %d: %s", spec.title, status, raw)
	}
	return nil
}

func submitAll(ctx context.Context, client *http.Client, cfg *Config, spec challengeSpec, rng *rand.Rand) error {
	for i := 0; i < cfg.Submitters; i++ {
		// Spread submitters over a range of quality so the board
		// has an actual ordering.
		noise := float64(i) / float64(cfg.Submitters) * 0.5
		body := map[string]any{
			"challenge":   spec.title,
			"submitter":   fmt.Sprintf("seed-user-%02d", i),
			"description": fmt.Sprintf("synthetic run, noise %.2f", noise),
			"submission":  spec.generate(spec.expected, noise, rng),
		}
		status, raw, err := postJSON(ctx, client, cfg.BaseURL+"/submissions", body)
		if err != nil {
			return fmt.Errorf("submit to %s: %w", spec.title, err)
		}
		if status != http.StatusAccepted && status != http.StatusConflict {
			return fmt.Errorf("submit to %s: unexpected status %d: %s", spec.title, status, raw)
		}
	}
	logf(cfg, "submitted %d answers to %s", cfg.Submitters, spec.title)
	return nil
}

func printLeaderboard(ctx context.Context, client *http.Client, cfg *Config, title string) error {
	url := fmt.Sprintf("%s/challenges/%s/leaderboard?limit=%d", cfg.BaseURL, title, cfg.TopN)

	var rows []struct {
		Rank      int     `json:"rank"`
		Submitter string  `json:"submitter"`
		Score     float64 `json:"main_metric_result"`
	}
	// Scoring is async; poll until every submitter shows up or the
	// context runs out.
	for {
		raw, err := getJSON(ctx, client, url)
		if err != nil {
			return fmt.Errorf("leaderboard %s: %w", title, err)
		}
		if err := json.Unmarshal(raw, &rows); err != nil {
			return fmt.Errorf("leaderboard %s: %w", title, err)
		}
		if len(rows) >= min(cfg.TopN, cfg.Submitters) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(scorePollInterval):
		}
	}

	fmt.Fprintf(os.Stdout, "\n=== %s ===\n", title)
	for _, row := range rows {
		fmt.Fprintf(os.Stdout, "%3d. %-14s %.4f\n", row.Rank, row.Submitter, row.Score)
	}
	return nil
}

func postJSON(ctx context.Context, client *http.Client, url string, body any) (int, []byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return 0, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, err
}

func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, out)
	}
	return io.ReadAll(resp.Body)
}

func logf(cfg *Config, format string, args ...any) {
	if cfg.Verbose {
		fmt.Fprintf(os.Stdout, format+"\n", args...)
	}
}
