// Package reference loads the reference symptom-frequency tables used by the
// stress scorer. Only the first data row of each column is ever consulted.
package reference

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// DefaultChunkSize is the number of rows per chunk in streaming mode.
const DefaultChunkSize = 1000

// Table holds the first-row value of each resolved column of one reference file.
type Table struct {
	Name   string
	values map[string]float64
}

// NewTable builds a table from already resolved first-row values.
func NewTable(name string, values map[string]float64) Table {
	copied := make(map[string]float64, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Table{Name: name, values: copied}
}

// FirstValue returns the first-row value of column, if the table has one.
func (t Table) FirstValue(column string) (float64, bool) {
	v, ok := t.values[column]
	return v, ok
}

// Len returns the number of resolved columns.
func (t Table) Len() int { return len(t.values) }

// Loader supplies the reference tables for a run.
type Loader interface {
	// Load resolves the given columns in every reference table. Loaders may
	// resolve more columns than requested.
	Load(ctx context.Context, columns []string) ([]Table, error)
}

// parseCell converts a CSV cell to a number. Cells that are not numeric
// become NaN so they never compare equal to 1.
func parseCell(cell string) float64 {
	cell = strings.TrimSpace(cell)
	switch strings.ToLower(cell) {
	case "true":
		return 1
	case "false":
		return 0
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
