package repository

import "time"

// SQLiteOption configures the SQLite store.
type SQLiteOption func(*sqliteStore)

// WithBusyTimeout sets how long a locked database is retried before a
// write fails.
func WithBusyTimeout(d time.Duration) SQLiteOption {
	return func(s *sqliteStore) {
		if d > 0 {
			s.busyTimeout = d
		}
	}
}
