// Package repository keeps the history of completed runs.
package repository

import (
	"context"
	"time"
)

// Record is one completed run.
type Record struct {
	RunID        string
	Week         int
	StressLevel  float64
	Prediction   string
	TablesScored int
	CreatedAt    time.Time
}

// Store provides read/write access to the run history.
type Store interface {
	// Save appends a record. RunID must be unique.
	Save(ctx context.Context, r Record) error

	// Latest returns up to n records, newest first.
	Latest(ctx context.Context, n int) ([]Record, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying handle.
	Close() error
}
