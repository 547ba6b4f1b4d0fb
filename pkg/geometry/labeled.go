package geometry

import "fmt"

// LabeledBox is a box tagged with a class index
type LabeledBox struct {
	Box
	Label int `json:"label"`
}

// NewLabeledBox validates box and attaches label
func NewLabeledBox(box Box, label int) (LabeledBox, error) {
	if err := box.Validate("NewLabeledBox"); err != nil {
		return LabeledBox{}, err
	}
	return LabeledBox{Box: box, Label: label}, nil
}

// PredictedBox is a labeled box carrying the detector's confidences
type PredictedBox struct {
	LabeledBox
	Score      float64 `json:"score"`
	ClassScore float64 `json:"classScore"`
}

// NewPredictedBox validates box and both scores
func NewPredictedBox(box Box, label int, score, classScore float64) (PredictedBox, error) {
	lb, err := NewLabeledBox(box, label)
	if err != nil {
		return PredictedBox{}, err
	}
	if !IsValidProbability(score) || !IsValidProbability(classScore) {
		return PredictedBox{}, &ValidationError{
			Callee:   "NewPredictedBox",
			Property: "score/classScore",
			Value:    fmt.Sprintf("%v/%v", score, classScore),
			Reason:   "a number between [0, 1]",
		}
	}
	return PredictedBox{LabeledBox: lb, Score: score, ClassScore: classScore}, nil
}
