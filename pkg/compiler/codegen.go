package compiler

import (
	"fmt"

	"rfcode/pkg/forest"
)

// Dialect renders decision logic in one target language. Every method is a
// pure string transformation so the same tree always produces the same text.
type Dialect interface {
	// Name is the language selector, e.g. "java".
	Name() string
	// Identifier turns an attribute name into a legal identifier.
	// BindIdentifiers takes care of uniqueness.
	Identifier(name string) string
	// Compare renders a numeric test; number is the threshold literal as written.
	Compare(ident string, op forest.Op, number string) string
	// Equals renders a nominal equality test.
	Equals(ident, value string) string
	Not(cond string) string
	Or(conds []string) string
	// Branch renders a two-way conditional. then and els are already rendered
	// one level deeper than depth.
	Branch(cond, then, els string, depth int) string
	Return(value string, depth int) string
	// Literal renders a leaf value of the given objective kind.
	Literal(value string, kind forest.ObjectiveKind) string
}

// BindIdentifiers maps every schema attribute to a unique identifier of d.
// Clashes after sanitising get _2, _3, ... suffixes in schema order.
func BindIdentifiers(schema []forest.Attribute, d Dialect) []string {
	idents := make([]string, len(schema))
	used := make(map[string]bool, len(schema))
	for i, attr := range schema {
		base := d.Identifier(attr.Name)
		id := base
		for n := 2; used[id]; n++ {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		used[id] = true
		idents[i] = id
	}
	return idents
}

// TreeCompiler turns one tree of a forest into a nested conditional.
type TreeCompiler struct {
	f      *forest.Forest
	d      Dialect
	idents []string
}

func NewTreeCompiler(f *forest.Forest, d Dialect, idents []string) *TreeCompiler {
	return &TreeCompiler{f: f, d: d, idents: idents}
}

// CompileTree is shorthand for NewTreeCompiler(f, d, idents).Compile(t).
func CompileTree(f *forest.Forest, t forest.Tree, d Dialect, idents []string) (string, error) {
	return NewTreeCompiler(f, d, idents).Compile(t)
}

// Compile renders t starting at depth 0.
func (tc *TreeCompiler) Compile(t forest.Tree) (string, error) {
	if len(tc.idents) != len(tc.f.Schema) {
		return "", internalErr("%d identifiers bound for %d attributes", len(tc.idents), len(tc.f.Schema))
	}
	return tc.genNode(t.Root, 0)
}

func (tc *TreeCompiler) genNode(id forest.NodeID, depth int) (string, error) {
	if id < 0 || int(id) >= len(tc.f.Nodes) {
		return "", internalErr("node %d is outside the arena", id)
	}
	nd := tc.f.Node(id)
	if nd.Kind == forest.Leaf {
		return tc.d.Return(tc.d.Literal(nd.Value, tc.f.Objective.Kind), depth), nil
	}

	cond, err := tc.genCondition(id, nd)
	if err != nil {
		return "", err
	}
	then, err := tc.genNode(nd.Left, depth+1)
	if err != nil {
		return "", err
	}
	els, err := tc.genNode(nd.Right, depth+1)
	if err != nil {
		return "", err
	}
	return tc.d.Branch(cond, then, els, depth), nil
}

// genCondition renders the test of an internal node. Equality on a numeric
// attribute compares numbers; on a nominal one it compares strings.
func (tc *TreeCompiler) genCondition(id forest.NodeID, nd *forest.Node) (string, error) {
	if nd.Attr < 0 || nd.Attr >= len(tc.f.Schema) {
		return "", internalErr("node %d tests attribute %d outside the schema", id, nd.Attr)
	}
	numeric := tc.f.Schema[nd.Attr].Kind == forest.Numeric
	ident := tc.idents[nd.Attr]

	switch nd.Op {
	case forest.OpLess, forest.OpLessEq, forest.OpGreater, forest.OpGreaterEq:
		return tc.d.Compare(ident, nd.Op, nd.Threshold), nil
	case forest.OpEq, forest.OpNotEq:
		if numeric {
			return tc.d.Compare(ident, nd.Op, nd.Threshold), nil
		}
		eq := tc.d.Equals(ident, nd.Threshold)
		if nd.Op == forest.OpNotEq {
			return tc.d.Not(eq), nil
		}
		return eq, nil
	case forest.OpIn:
		conds := make([]string, len(nd.Categories))
		for i, c := range nd.Categories {
			if numeric {
				conds[i] = tc.d.Compare(ident, forest.OpEq, c)
			} else {
				conds[i] = tc.d.Equals(ident, c)
			}
		}
		return tc.d.Or(conds), nil
	}
	return "", &UnsupportedNodeError{Node: id, Op: nd.Op, Line: nd.Line}
}
