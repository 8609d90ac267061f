// Package model contains domain models passed between layers.
package model

import "math"

// MaxStressIndex caps the stress index.
const MaxStressIndex = 10.0

// SymptomFlags maps a symptom name to whether the subject reported it.
type SymptomFlags map[string]bool

// Names returns the symptom names in unspecified order.
func (f SymptomFlags) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	return names
}

// Week identifies the observation period. Valid weeks are >= 1.
type Week int

// Valid reports whether w is a usable observation week.
func (w Week) Valid() bool { return w >= 1 }

// Intake is what a symptom source hands to the scorer.
type Intake struct {
	Symptoms SymptomFlags
	Week     Week
}

// StressResult is the outcome of a single run. Prediction is empty when the
// run did not classify.
type StressResult struct {
	Week        Week
	StressLevel float64
	Prediction  string
}

// Round2 rounds v to two decimal places. Only serializers call it.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
