// Package types contains read shapes shared between the service and the API.
package types

import "time"

// LeaderboardRow represents one ranked leaderboard entry.
type LeaderboardRow struct {
	Rank         int       `json:"rank"`
	SubmissionID int64     `json:"id"`
	Submitter    string    `json:"submitter"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
	Score        float64   `json:"main_metric_result"`
}

// MetricResult pairs a metric name with its score.
type MetricResult struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// SubmissionRow represents one submission with all of its metric results.
type SubmissionRow struct {
	SubmissionID int64          `json:"id"`
	Submitter    string         `json:"submitter"`
	Description  string         `json:"description"`
	Timestamp    time.Time      `json:"timestamp"`
	MainResult   float64        `json:"main_metric_result"`
	Additional   []MetricResult `json:"additional_metrics_results"`
}

// Stats is a point-in-time snapshot of the scoring pipeline.
type Stats struct {
	Challenges  int64 `json:"challenges"`
	Submissions int64 `json:"submissions"`
	Evaluations int64 `json:"evaluations"`
	QueueSize   int   `json:"queue_size"`
	DedupeSize  int   `json:"dedupe_size"`
	Workers     int   `json:"workers"`
}

// ChallengeRow represents one challenge in listings.
type ChallengeRow struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Author      string     `json:"author,omitempty"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	MainMetric  string     `json:"main_metric"`
	Sorting     string     `json:"sorting"`
	BestScore   *float64   `json:"best_score"`
	Deadline    *time.Time `json:"deadline"`
	Award       string     `json:"award"`
	Deleted     bool       `json:"deleted"`
}
