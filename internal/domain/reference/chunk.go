package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/weris/internal/domain/model"
)

// Chunk is a bounded batch of data rows sharing the file header.
type Chunk struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of name in the chunk header.
func (c Chunk) Column(name string) (int, bool) {
	for i, h := range c.Header {
		if h == name {
			return i, true
		}
	}
	return 0, false
}

// FirstValue returns the parsed value of column name in the chunk's first row.
func (c Chunk) FirstValue(name string) (float64, bool) {
	idx, ok := c.Column(name)
	if !ok || len(c.Rows) == 0 {
		return 0, false
	}
	row := c.Rows[0]
	if idx >= len(row) {
		return parseCell(""), true
	}
	return parseCell(row[idx]), true
}

// ChunkReader yields a CSV file as a finite, non-restartable sequence of chunks.
type ChunkReader struct {
	r      *csv.Reader
	header []string
	size   int
	done   bool
}

// NewChunkReader reads the header row and prepares chunked reads of size rows.
func NewChunkReader(r io.Reader, size int) (*ChunkReader, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty reference file: %w", model.ErrMalformedInput)
		}
		return nil, fmt.Errorf("read header: %v: %w", err, model.ErrMalformedInput)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	return &ChunkReader{r: cr, header: header, size: size}, nil
}

// Header returns the column names.
func (c *ChunkReader) Header() []string { return c.header }

// Next returns the next chunk, or io.EOF once the file is exhausted.
func (c *ChunkReader) Next() (Chunk, error) {
	if c.done {
		return Chunk{}, io.EOF
	}

	rows := make([][]string, 0, c.size)
	for len(rows) < c.size {
		rec, err := c.r.Read()
		if errors.Is(err, io.EOF) {
			c.done = true
			break
		}
		if err != nil {
			c.done = true
			return Chunk{}, fmt.Errorf("read row: %v: %w", err, model.ErrMalformedInput)
		}
		rows = append(rows, rec)
	}

	if len(rows) == 0 {
		return Chunk{}, io.EOF
	}
	return Chunk{Header: c.header, Rows: rows}, nil
}
