// Package emotion turns raw classifier scores into a calibrated distribution and
// derives the dominant emotion, its visual style and the generation prompt.
package emotion

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Temperature sharpens close raw scores into a decisive distribution.
const Temperature = 10.0

// ErrInvalidInput is returned for score maps that break the classifier contract.
var ErrInvalidInput = errors.New("invalid input")

// Scores maps an emotion label to the raw, unbounded score of the classifier.
type Scores map[string]float64

// Distribution is a softmax-normalized Scores. The zero value is empty.
type Distribution struct {
	probs map[string]float64
}

// Normalize applies exp(T*s_i) / sum_j exp(T*s_j) over every label.
func Normalize(scores Scores) (Distribution, error) {
	if len(scores) == 0 {
		return Distribution{}, fmt.Errorf("normalize: empty score map: %w", ErrInvalidInput)
	}

	maxScore := math.Inf(-1)
	for label, s := range scores {
		if label == "" {
			return Distribution{}, fmt.Errorf("normalize: empty label: %w", ErrInvalidInput)
		}
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return Distribution{}, fmt.Errorf("normalize: score %v for %q: %w", s, label, ErrInvalidInput)
		}
		maxScore = math.Max(maxScore, s)
	}

	exps := make(map[string]float64, len(scores))
	sum := 0.0
	for label, s := range scores {
		// shift before scaling so huge finite scores never overflow to Inf
		e := math.Exp(Temperature * (s - maxScore))
		exps[label] = e
		sum += e
	}

	probs := make(map[string]float64, len(scores))
	for label, e := range exps {
		p := e / sum
		// keep every probability inside (0, 1] when the gap to the max underflows
		if p == 0 {
			p = math.SmallestNonzeroFloat64
		}
		probs[label] = p
	}
	return Distribution{probs: probs}, nil
}

// Prob returns the probability of label and whether it is present.
func (d Distribution) Prob(label string) (float64, bool) {
	p, ok := d.probs[label]
	return p, ok
}

// Len is the number of labels.
func (d Distribution) Len() int { return len(d.probs) }

// Labels returns the labels in lexical order.
func (d Distribution) Labels() []string {
	labels := make([]string, 0, len(d.probs))
	for label := range d.probs {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Map returns a copy of the underlying probabilities.
func (d Distribution) Map() map[string]float64 {
	out := make(map[string]float64, len(d.probs))
	for label, p := range d.probs {
		out[label] = p
	}
	return out
}
