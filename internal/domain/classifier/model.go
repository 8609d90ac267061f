// Package classifier maps a (week, stress level) point to a group label with
// a persisted nearest-neighbour model.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/okian/weris/internal/domain/model"
)

// ModelVersion is the blob format written by this package.
const ModelVersion = 1

// DefaultK is the neighbour count of the bootstrap model.
const DefaultK = 1

// Sample is one labelled training point.
type Sample struct {
	Week   float64
	Stress float64
	Label  string
}

// Bootstrap is the training set used when no model has been persisted yet.
var Bootstrap = []Sample{
	{Week: 1, Stress: 5.2, Label: "A"},
	{Week: 2, Stress: 3.8, Label: "A"},
	{Week: 3, Stress: 7.5, Label: "B"},
	{Week: 4, Stress: 6.1, Label: "B"},
	{Week: 5, Stress: 9.0, Label: "C"},
	{Week: 6, Stress: 4.5, Label: "C"},
}

// Model is a fitted k-nearest-neighbour classifier over 2-D points.
// Features and Labels are parallel and keep training order.
type Model struct {
	Version  int          `json:"version"`
	K        int          `json:"k"`
	Features [][2]float64 `json:"features"`
	Labels   []string     `json:"labels"`
}

// Train fits a model on samples with k neighbours.
func Train(samples []Sample, k int) (*Model, error) {
	if len(samples) == 0 {
		return nil, errors.New("train: no samples")
	}
	if k < 1 {
		return nil, fmt.Errorf("train: invalid neighbour count %d", k)
	}
	m := &Model{
		Version:  ModelVersion,
		K:        k,
		Features: make([][2]float64, 0, len(samples)),
		Labels:   make([]string, 0, len(samples)),
	}
	for i, s := range samples {
		if s.Label == "" {
			return nil, fmt.Errorf("train: sample %d has no label", i)
		}
		m.Features = append(m.Features, [2]float64{s.Week, s.Stress})
		m.Labels = append(m.Labels, s.Label)
	}
	return m, nil
}

// Validate reports model.ErrModelCorrupt when m cannot be used to classify.
func (m *Model) Validate() error {
	switch {
	case m == nil:
		return fmt.Errorf("nil model: %w", model.ErrModelCorrupt)
	case m.Version != ModelVersion:
		return fmt.Errorf("unsupported model version %d: %w", m.Version, model.ErrModelCorrupt)
	case m.K < 1:
		return fmt.Errorf("invalid neighbour count %d: %w", m.K, model.ErrModelCorrupt)
	case len(m.Features) == 0:
		return fmt.Errorf("model has no samples: %w", model.ErrModelCorrupt)
	case len(m.Features) != len(m.Labels):
		return fmt.Errorf("model has %d features and %d labels: %w",
			len(m.Features), len(m.Labels), model.ErrModelCorrupt)
	}
	for i, f := range m.Features {
		if math.IsNaN(f[0]) || math.IsNaN(f[1]) || math.IsInf(f[0], 0) || math.IsInf(f[1], 0) {
			return fmt.Errorf("sample %d is not finite: %w", i, model.ErrModelCorrupt)
		}
		if m.Labels[i] == "" {
			return fmt.Errorf("sample %d has no label: %w", i, model.ErrModelCorrupt)
		}
	}
	return nil
}

type neighbour struct {
	index    int
	distance float64
}

// Classify returns the label for (week, stress). With k > 1 the majority
// label among the k nearest wins and a tie goes to the label of the nearest
// tied neighbour. Equal distances keep training order.
func Classify(m *Model, week model.Week, stress float64) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}

	x, y := float64(week), stress
	neighbours := make([]neighbour, len(m.Features))
	for i, f := range m.Features {
		neighbours[i] = neighbour{index: i, distance: math.Hypot(f[0]-x, f[1]-y)}
	}
	sort.SliceStable(neighbours, func(i, j int) bool {
		return neighbours[i].distance < neighbours[j].distance
	})

	k := min(m.K, len(neighbours))
	if k == 1 {
		return m.Labels[neighbours[0].index], nil
	}

	votes := make(map[string]int, k)
	best, bestVotes := "", 0
	for _, n := range neighbours[:k] {
		votes[m.Labels[n.index]]++
	}
	// Walking in distance order lets the nearest label win ties.
	for _, n := range neighbours[:k] {
		label := m.Labels[n.index]
		if votes[label] > bestVotes {
			best, bestVotes = label, votes[label]
		}
	}
	return best, nil
}
