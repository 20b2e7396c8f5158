package compiler

import (
	"fmt"

	"rfcode/pkg/forest"
)

// ProgramDialect extends Dialect with what is needed to wrap compiled trees
// into functions and combine them.
type ProgramDialect interface {
	Dialect
	ReturnType(kind forest.ObjectiveKind) string
	InferenceName(kind forest.ObjectiveKind) string
	TreeName(i int) string
	Call(name string) string
	// Vote renders a body returning the majority of calls; ties go to the
	// label that first reached the leading count.
	Vote(calls []string) string
	// Mean renders a body returning the arithmetic mean of calls.
	Mean(calls []string) string
	// Method wraps a body into a complete member function.
	Method(public bool, name, returnType, doc, body string) string
}

// Fragment is one compiled tree.
type Fragment struct {
	Tree   int
	Name   string
	Nodes  int
	Depth  int
	Body   string
	Source string // Body wrapped in its function
}

// Program is the compiled forest: one function per tree plus the inference
// function combining them.
type Program struct {
	Objective     forest.Objective
	ReturnType    string
	InferenceName string
	Inference     string
	Trees         []Fragment
}

// Aggregate compiles every tree of f and the function that votes on (or
// averages) their outputs. Each tree function is called exactly once per
// inference, in tree order.
func Aggregate(f *forest.Forest, d ProgramDialect, idents []string) (*Program, error) {
	if len(f.Trees) == 0 {
		return nil, ErrEmptyModel
	}
	kind := f.Objective.Kind
	prog := &Program{
		Objective:     f.Objective,
		ReturnType:    d.ReturnType(kind),
		InferenceName: d.InferenceName(kind),
		Trees:         make([]Fragment, 0, len(f.Trees)),
	}

	tc := NewTreeCompiler(f, d, idents)
	calls := make([]string, 0, len(f.Trees))
	for i, t := range f.Trees {
		body, err := tc.Compile(t)
		if err != nil {
			return nil, fmt.Errorf("tree %d (line %d): %w", i, t.Line, err)
		}
		fr := Fragment{
			Tree:  i,
			Name:  d.TreeName(i),
			Nodes: f.Size(t),
			Depth: f.Depth(t),
			Body:  body,
		}
		doc := fmt.Sprintf("Tree %d: %d nodes, depth %d", i, fr.Nodes, fr.Depth)
		fr.Source = d.Method(false, fr.Name, prog.ReturnType, doc, body)
		prog.Trees = append(prog.Trees, fr)
		calls = append(calls, d.Call(fr.Name))
	}

	var body string
	switch kind {
	case forest.Classification:
		body = d.Vote(calls)
	case forest.Regression:
		body = d.Mean(calls)
	default:
		return nil, internalErr("objective kind %d has no aggregation", kind)
	}
	doc := fmt.Sprintf("Predicts %s from %d trees.", kind, len(f.Trees))
	prog.Inference = d.Method(true, prog.InferenceName, prog.ReturnType, doc, body)
	return prog, nil
}
