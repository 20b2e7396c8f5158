package compiler

import (
	"fmt"
	"strings"

	"rfcode/pkg/forest"
)

// ObjectiveHint overrides objective inference.
type ObjectiveHint int

const (
	ObjectiveAuto ObjectiveHint = iota
	ObjectiveClassification
	ObjectiveRegression
)

func (h ObjectiveHint) String() string {
	switch h {
	case ObjectiveClassification:
		return "classification"
	case ObjectiveRegression:
		return "regression"
	}
	return "auto"
}

// ParseObjectiveHint accepts auto, classification or regression (any case).
func ParseObjectiveHint(s string) (ObjectiveHint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ObjectiveAuto, nil
	case "classification":
		return ObjectiveClassification, nil
	case "regression":
		return ObjectiveRegression, nil
	}
	return ObjectiveAuto, fmt.Errorf("unknown objective %q: want auto, classification or regression", s)
}

// inferObjective decides the prediction kind from the shape of the leaf
// literals: labels only means classification, numbers only regression.
func inferObjective(leaves []leafRef, hint ObjectiveHint) (forest.Objective, error) {
	var label, number *leafRef
	for i := range leaves {
		if forest.IsNumeric(leaves[i].value) {
			if number == nil {
				number = &leaves[i]
			}
		} else if label == nil {
			label = &leaves[i]
		}
	}

	mixed := func() error {
		return &MixedObjectiveError{Label: label.value, LabelLine: label.line,
			Numeric: number.value, NumericLine: number.line}
	}

	kind := forest.Classification
	switch hint {
	case ObjectiveClassification:
	case ObjectiveRegression:
		if label != nil {
			if number == nil {
				return forest.Objective{}, fmt.Errorf("line %d: regression needs numeric leaves, got %q", label.line, label.value)
			}
			return forest.Objective{}, mixed()
		}
		kind = forest.Regression
	default:
		if label != nil && number != nil {
			return forest.Objective{}, mixed()
		}
		if label == nil {
			kind = forest.Regression
		}
	}

	if kind == forest.Regression {
		return forest.Objective{Kind: forest.Regression}, nil
	}
	seen := make(map[string]bool)
	var labels []string
	for _, l := range leaves {
		if !seen[l.value] {
			seen[l.value] = true
			labels = append(labels, l.value)
		}
	}
	return forest.Objective{Kind: forest.Classification, Labels: labels}, nil
}
