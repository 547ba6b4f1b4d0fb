package face

import (
	"fmt"
	"math"
)

// DescriptorSize is the length of descriptors produced by the recognition backend
const DescriptorSize = 128

// Descriptor is a face embedding
type Descriptor []float32

// EuclideanDistance returns the L2 distance between two descriptors of equal length
func EuclideanDistance(a, b Descriptor) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("descriptor length mismatch: %d != %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// LabeledDescriptors groups reference descriptors of one identity
type LabeledDescriptors struct {
	Label       string       `json:"label"`
	Descriptors []Descriptor `json:"descriptors"`
}

// Match is the outcome of a descriptor lookup
type Match struct {
	Label    string  `json:"label"`
	Distance float64 `json:"distance"`
}

// UnknownLabel is returned when no reference is close enough
const UnknownLabel = "unknown"

// DefaultDistanceThreshold is the largest distance still treated as the same person
const DefaultDistanceThreshold = 0.6

// Matcher finds the closest labeled identity for a query descriptor
type Matcher struct {
	references []LabeledDescriptors
	threshold  float64
}

// NewMatcher creates a matcher; a non-positive threshold selects DefaultDistanceThreshold
func NewMatcher(references []LabeledDescriptors, threshold float64) (*Matcher, error) {
	if len(references) == 0 {
		return nil, fmt.Errorf("NewMatcher - expected at least one labeled descriptor set")
	}
	for _, ref := range references {
		if len(ref.Descriptors) == 0 {
			return nil, fmt.Errorf("NewMatcher - label %q has no descriptors", ref.Label)
		}
	}
	if threshold <= 0 {
		threshold = DefaultDistanceThreshold
	}
	return &Matcher{references: references, threshold: threshold}, nil
}

// Threshold returns the distance threshold in use
func (m *Matcher) Threshold() float64 { return m.threshold }

// meanDistance is the mean distance from query to every descriptor of ref
func meanDistance(ref LabeledDescriptors, query Descriptor) (float64, error) {
	var total float64
	for _, d := range ref.Descriptors {
		dist, err := EuclideanDistance(d, query)
		if err != nil {
			return 0, err
		}
		total += dist
	}
	return total / float64(len(ref.Descriptors)), nil
}

// FindBestMatch returns the closest identity, or UnknownLabel when it is farther than the threshold
func (m *Matcher) FindBestMatch(query Descriptor) (Match, error) {
	best := Match{Label: UnknownLabel, Distance: math.Inf(1)}
	for _, ref := range m.references {
		dist, err := meanDistance(ref, query)
		if err != nil {
			return Match{}, fmt.Errorf("match against %q: %w", ref.Label, err)
		}
		if dist < best.Distance {
			best = Match{Label: ref.Label, Distance: dist}
		}
	}
	if best.Distance >= m.threshold {
		best.Label = UnknownLabel
	}
	return best, nil
}
