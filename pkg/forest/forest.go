// Package forest holds the parsed representation of a random forest dump and
// an in-memory evaluator that walks it directly.
//
// Nodes of every tree live in one flat arena owned by the Forest and refer to
// each other by NodeID, so a tree is just the ID of its root.
package forest

import (
	"fmt"
	"strings"
)

// NodeID indexes Forest.Nodes.
type NodeID int32

// NoNode marks an absent child.
const NoNode NodeID = -1

// NodeKind distinguishes a split from a prediction.
type NodeKind int

const (
	Internal NodeKind = iota
	Leaf
)

// Op is the comparison an internal node applies to its attribute.
type Op int

const (
	OpInvalid Op = iota
	OpLess       // <
	OpLessEq     // <=
	OpGreater    // >
	OpGreaterEq  // >=
	OpEq         // =
	OpNotEq      // !=
	OpIn         // in {a,b}
)

var opSymbols = [...]string{
	OpInvalid:   "?",
	OpLess:      "<",
	OpLessEq:    "<=",
	OpGreater:   ">",
	OpGreaterEq: ">=",
	OpEq:        "=",
	OpNotEq:     "!=",
	OpIn:        "in",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opSymbols) {
		return opSymbols[o]
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Ordering reports whether o compares magnitudes and therefore needs a numeric attribute.
func (o Op) Ordering() bool {
	return o == OpLess || o == OpLessEq || o == OpGreater || o == OpGreaterEq
}

// LookupOp maps an operator lexeme to its Op. The second result is false for
// anything outside the grammar.
func LookupOp(s string) (Op, bool) {
	for i, sym := range opSymbols {
		if i != int(OpInvalid) && sym == s {
			return Op(i), true
		}
	}
	return OpInvalid, false
}

// Node is either a split (Internal) or a prediction (Leaf).
//
//	humidity < 82.5          Internal{Attr: humidity, Op: OpLess, Threshold: "82.5"}
//	|   windy = TRUE : no (2/0)  Leaf{Value: "no", Support: 2}
type Node struct {
	Kind NodeKind
	Line int // 1-based source line

	// Internal
	Attr       int
	Op         Op
	Threshold  string
	Number     float64 // Threshold parsed, numeric attributes only
	Categories []string
	Left       NodeID // taken when the test holds
	Right      NodeID

	// Leaf
	Value   string
	Support float64
	Errors  float64
}

// Tree is one decision tree of the ensemble.
type Tree struct {
	Root NodeID
	Line int
}

// AttrKind is the implicit type of an attribute.
type AttrKind int

const (
	Numeric AttrKind = iota
	Nominal
)

func (k AttrKind) String() string {
	if k == Nominal {
		return "nominal"
	}
	return "numeric"
}

// Attribute is one column of the schema.
type Attribute struct {
	Name string
	Kind AttrKind
}

// Sample is the demo record found after the sample marker.
type Sample struct {
	Labels         []string
	Values         []string
	ObjectiveIndex int
}

// ObjectiveKind tells classification and regression apart.
type ObjectiveKind int

const (
	Classification ObjectiveKind = iota
	Regression
)

func (k ObjectiveKind) String() string {
	if k == Regression {
		return "regression"
	}
	return "classification"
}

// Objective is the prediction kind, decided once at parse time.
type Objective struct {
	Kind   ObjectiveKind
	Labels []string // classification only, first-seen order
}

// Forest is the parsed ensemble.
type Forest struct {
	Trees          []Tree
	Nodes          []Node
	Schema         []Attribute
	ObjectiveIndex int
	Objective      Objective
	Sample         *Sample

	// SampleErr holds the reason a sample block was present but unusable.
	SampleErr error
}

// Node returns the node with the given ID.
func (f *Forest) Node(id NodeID) *Node {
	return &f.Nodes[id]
}

// ObjectiveName is the schema name of the predicted attribute.
func (f *Forest) ObjectiveName() string {
	return f.Schema[f.ObjectiveIndex].Name
}

// Features returns the schema indices of every non-objective attribute, in order.
func (f *Forest) Features() []int {
	out := make([]int, 0, len(f.Schema))
	for i := range f.Schema {
		if i != f.ObjectiveIndex {
			out = append(out, i)
		}
	}
	return out
}

// Size returns the number of nodes reachable from t.
func (f *Forest) Size(t Tree) int {
	n := 0
	stack := []NodeID{t.Root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		if nd := f.Node(id); nd.Kind == Internal {
			stack = append(stack, nd.Left, nd.Right)
		}
	}
	return n
}

// Depth returns the longest root-to-leaf edge count of t.
func (f *Forest) Depth(t Tree) int {
	var walk func(id NodeID) int
	walk = func(id NodeID) int {
		nd := f.Node(id)
		if nd.Kind == Leaf {
			return 0
		}
		return 1 + max(walk(nd.Left), walk(nd.Right))
	}
	return walk(t.Root)
}

// TreeString renders t as an indented binary tree, one node per line.
func (f *Forest) TreeString(t Tree) string {
	var sb strings.Builder
	var walk func(id NodeID, depth int)
	walk = func(id NodeID, depth int) {
		nd := f.Node(id)
		indent := strings.Repeat("  ", depth)
		if nd.Kind == Leaf {
			fmt.Fprintf(&sb, "%sleaf %s (%g/%g)\n", indent, nd.Value, nd.Support, nd.Errors)
			return
		}
		fmt.Fprintf(&sb, "%sif %s\n", indent, f.TestString(nd))
		walk(nd.Left, depth+1)
		fmt.Fprintf(&sb, "%selse\n", indent)
		walk(nd.Right, depth+1)
	}
	walk(t.Root, 0)
	return sb.String()
}

// TestString renders the condition of an internal node.
func (f *Forest) TestString(nd *Node) string {
	name := f.Schema[nd.Attr].Name
	if nd.Op == OpIn {
		return fmt.Sprintf("%s in {%s}", name, strings.Join(nd.Categories, ","))
	}
	return fmt.Sprintf("%s %s %s", name, nd.Op, nd.Threshold)
}
