package face

import (
	"fmt"
	"sort"

	"github.com/menta2k/face-analyzer/pkg/geometry"
)

// Gender is the binary gender label predicted by age/gender backends
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Valid reports whether g is one of the known labels
func (g Gender) Valid() bool {
	return g == Male || g == Female
}

// ParseGender maps a backend label onto a Gender
func ParseGender(s string) (Gender, error) {
	switch g := Gender(s); g {
	case Male, Female:
		return g, nil
	}
	return "", fmt.Errorf("unknown gender label %q", s)
}

// AgeAndGender is the output of an age/gender backend for one face
type AgeAndGender struct {
	Age               float64 `json:"age"`
	Gender            Gender  `json:"gender"`
	GenderProbability float64 `json:"genderProbability"`
}

// Validate checks the invariants of a prediction before it is attached to a result
func (p AgeAndGender) Validate() error {
	if !geometry.IsValidNumber(p.Age) || p.Age < 0 {
		return &geometry.ValidationError{Callee: "AgeAndGender", Property: "age", Value: p.Age, Reason: "a positive number"}
	}
	if !p.Gender.Valid() {
		return &geometry.ValidationError{Callee: "AgeAndGender", Property: "gender", Value: p.Gender, Reason: "male or female"}
	}
	if !geometry.IsValidProbability(p.GenderProbability) {
		return &geometry.ValidationError{
			Callee: "AgeAndGender", Property: "genderProbability", Value: p.GenderProbability, Reason: "a number between [0, 1]",
		}
	}
	return nil
}

// ExpressionLabels lists the expressions in backend output order
var ExpressionLabels = []string{"neutral", "happy", "sad", "angry", "fearful", "disgusted", "surprised"}

// Expressions holds one probability per facial expression
type Expressions struct {
	Neutral   float64 `json:"neutral"`
	Happy     float64 `json:"happy"`
	Sad       float64 `json:"sad"`
	Angry     float64 `json:"angry"`
	Fearful   float64 `json:"fearful"`
	Disgusted float64 `json:"disgusted"`
	Surprised float64 `json:"surprised"`
}

// NewExpressions builds Expressions from probabilities ordered like ExpressionLabels
func NewExpressions(probabilities []float64) (Expressions, error) {
	if len(probabilities) != len(ExpressionLabels) {
		return Expressions{}, fmt.Errorf("NewExpressions - expected %d probabilities, got %d",
			len(ExpressionLabels), len(probabilities))
	}
	for i, p := range probabilities {
		if !geometry.IsValidProbability(p) {
			return Expressions{}, &geometry.ValidationError{
				Callee: "NewExpressions", Property: ExpressionLabels[i], Value: p, Reason: "a number between [0, 1]",
			}
		}
	}
	return Expressions{
		Neutral:   probabilities[0],
		Happy:     probabilities[1],
		Sad:       probabilities[2],
		Angry:     probabilities[3],
		Fearful:   probabilities[4],
		Disgusted: probabilities[5],
		Surprised: probabilities[6],
	}, nil
}

// ExpressionProbability pairs an expression label with its probability
type ExpressionProbability struct {
	Expression  string  `json:"expression"`
	Probability float64 `json:"probability"`
}

func (e Expressions) values() []float64 {
	return []float64{e.Neutral, e.Happy, e.Sad, e.Angry, e.Fearful, e.Disgusted, e.Surprised}
}

// Valid reports whether every probability lies in [0, 1]
func (e Expressions) Valid() bool {
	for _, v := range e.values() {
		if !geometry.IsValidProbability(v) {
			return false
		}
	}
	return true
}

// Sorted returns the expressions ordered by descending probability
func (e Expressions) Sorted() []ExpressionProbability {
	vals := e.values()
	out := make([]ExpressionProbability, len(vals))
	for i, v := range vals {
		out[i] = ExpressionProbability{Expression: ExpressionLabels[i], Probability: v}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Probability > out[j].Probability })
	return out
}

// Dominant returns the most probable expression
func (e Expressions) Dominant() ExpressionProbability {
	return e.Sorted()[0]
}
