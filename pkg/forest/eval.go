package forest

import (
	"fmt"
	"math"
	"strconv"
)

// Record holds literal attribute values aligned with Forest.Schema. The slot
// of the objective attribute is ignored.
type Record []string

// Prediction is the outcome of evaluating the forest on one record.
type Prediction struct {
	Kind  ObjectiveKind
	Label string  // classification
	Value float64 // regression
}

func (p Prediction) String() string {
	if p.Kind == Regression {
		return strconv.FormatFloat(p.Value, 'g', -1, 64)
	}
	return p.Label
}

// Outcome is what a single tree returns: the leaf literal it reached.
type Outcome struct {
	Leaf  NodeID
	Value string
}

// EvaluateTree walks t for rec and returns the leaf reached.
func (f *Forest) EvaluateTree(t Tree, rec Record) (Outcome, error) {
	if len(rec) != len(f.Schema) {
		return Outcome{}, fmt.Errorf("record has %d values, schema has %d attributes", len(rec), len(f.Schema))
	}
	id := t.Root
	for {
		nd := f.Node(id)
		if nd.Kind == Leaf {
			return Outcome{Leaf: id, Value: nd.Value}, nil
		}
		ok, err := f.test(nd, rec[nd.Attr])
		if err != nil {
			return Outcome{}, fmt.Errorf("line %d: %w", nd.Line, err)
		}
		if ok {
			id = nd.Left
		} else {
			id = nd.Right
		}
	}
}

// test applies the node condition to one literal. Missing numeric values are
// NaN, so every ordering and equality test fails and != holds.
func (f *Forest) test(nd *Node, lit string) (bool, error) {
	attr := f.Schema[nd.Attr]
	if attr.Kind == Numeric {
		x := math.NaN()
		if lit != Missing && lit != "" {
			v, ok := ParseNumber(lit)
			if !ok {
				return false, fmt.Errorf("attribute %q: %q is not numeric", attr.Name, lit)
			}
			x = v
		}
		switch nd.Op {
		case OpLess:
			return x < nd.Number, nil
		case OpLessEq:
			return x <= nd.Number, nil
		case OpGreater:
			return x > nd.Number, nil
		case OpGreaterEq:
			return x >= nd.Number, nil
		case OpEq:
			return x == nd.Number, nil
		case OpNotEq:
			return x != nd.Number, nil
		case OpIn:
			for _, c := range nd.Categories {
				if v, ok := ParseNumber(c); ok && v == x {
					return true, nil
				}
			}
			return false, nil
		}
		return false, fmt.Errorf("unsupported operator %s", nd.Op)
	}

	present := lit != Missing
	switch nd.Op {
	case OpEq:
		return present && lit == nd.Threshold, nil
	case OpNotEq:
		return !present || lit != nd.Threshold, nil
	case OpIn:
		if !present {
			return false, nil
		}
		for _, c := range nd.Categories {
			if c == lit {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("unsupported operator %s on nominal attribute %q", nd.Op, attr.Name)
}

// Evaluate runs every tree on rec and aggregates the outcomes according to
// the forest objective.
func (f *Forest) Evaluate(rec Record) (Prediction, error) {
	outs := make([]string, 0, len(f.Trees))
	for i, t := range f.Trees {
		o, err := f.EvaluateTree(t, rec)
		if err != nil {
			return Prediction{}, fmt.Errorf("tree %d: %w", i, err)
		}
		outs = append(outs, o.Value)
	}
	return Aggregate(f.Objective.Kind, outs)
}

// Aggregate combines per-tree outcomes: a vote for classification, the mean
// for regression.
func Aggregate(kind ObjectiveKind, outs []string) (Prediction, error) {
	if len(outs) == 0 {
		return Prediction{}, fmt.Errorf("no tree outcomes to aggregate")
	}
	if kind == Classification {
		return Prediction{Kind: Classification, Label: Vote(outs)}, nil
	}
	sum := 0.0
	for _, o := range outs {
		v, ok := ParseNumber(o)
		if !ok {
			return Prediction{}, fmt.Errorf("regression outcome %q is not numeric", o)
		}
		sum += v
	}
	return Prediction{Kind: Regression, Value: sum / float64(len(outs))}, nil
}

// Vote returns the most frequent label. The leader only changes when a label
// strictly exceeds the current maximum, so on a tie the label that reached the
// count first wins.
func Vote(labels []string) string {
	counts := make(map[string]int, len(labels))
	best, bestCount := "", 0
	for _, l := range labels {
		counts[l]++
		if c := counts[l]; c > bestCount {
			best, bestCount = l, c
		}
	}
	return best
}
