package compiler

import (
	"errors"
	"strings"
	"testing"

	"rfcode/pkg/forest"
)

func TestAggregateClassification(t *testing.T) {
	f, prog, idents, err := Compile(tieModel, stubDialect{}, Options{})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(idents) != len(f.Schema) {
		t.Fatalf("idents = %v for %d attributes", idents, len(f.Schema))
	}
	if prog.InferenceName != "run_classification" || prog.ReturnType != "classification" {
		t.Errorf("inference = %s %s", prog.ReturnType, prog.InferenceName)
	}
	want := "pub classification run_classification [Predicts classification from 2 trees.] {vote(t0(),t1())}"
	if prog.Inference != want {
		t.Errorf("inference\n got: %s\nwant: %s", prog.Inference, want)
	}
	if len(prog.Trees) != 2 {
		t.Fatalf("fragments = %d, want 2", len(prog.Trees))
	}
	fr := prog.Trees[1]
	if fr.Name != "t1" || fr.Body != "'B'" || fr.Nodes != 1 || fr.Depth != 0 {
		t.Errorf("fragment 1 = %+v", fr)
	}
	if fr.Source != "priv classification t1 [Tree 1: 1 nodes, depth 0] {'B'}" {
		t.Errorf("fragment source = %s", fr.Source)
	}
}

func TestAggregateRegression(t *testing.T) {
	src := "x < 1 : 1.5 (1)\nx >= 1 : 2 (1)\n\nx < 2 : 4 (1)\nx >= 2 : 8 (1)\n\ny = a : 0 (1)\ny = b : 1 (1)\n"
	_, prog, _, err := Compile(src, stubDialect{}, Options{})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if prog.Objective.Kind != forest.Regression {
		t.Fatalf("objective = %v, want regression", prog.Objective.Kind)
	}
	if !strings.HasSuffix(prog.Inference, "{mean(t0(),t1(),t2())}") {
		t.Errorf("inference = %s", prog.Inference)
	}
}

// Every tree function is called exactly once, in tree order.
func TestAggregateCallsEachTreeOnce(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 7; i++ {
		sb.WriteString("x < 1 : a (1)\nx >= 1 : b (1)\n\n")
	}
	_, prog, _, err := Compile(sb.String(), stubDialect{}, Options{})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	for i, fr := range prog.Trees {
		call := fr.Name + "()"
		if n := strings.Count(prog.Inference, call); n != 1 {
			t.Errorf("tree %d called %d times", i, n)
		}
	}
	if len(prog.Trees) != 7 {
		t.Errorf("fragments = %d, want 7", len(prog.Trees))
	}
}

func TestAggregateEmptyForest(t *testing.T) {
	_, err := Aggregate(&forest.Forest{}, stubDialect{}, nil)
	if !errors.Is(err, ErrEmptyModel) {
		t.Errorf("error = %v, want ErrEmptyModel", err)
	}
}

func TestAggregateUnsupportedNodeNamesTree(t *testing.T) {
	f := mustParse(t, irisModel, Options{})
	f.Node(f.Trees[0].Root).Op = forest.OpInvalid
	d := stubDialect{}
	_, err := Aggregate(f, d, BindIdentifiers(f.Schema, d))
	var uerr *UnsupportedNodeError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want *UnsupportedNodeError", err)
	}
	if !strings.HasPrefix(err.Error(), "tree 0 (line 4): ") {
		t.Errorf("error = %q", err)
	}
}

func TestCompileParseFailure(t *testing.T) {
	f, prog, _, err := Compile("", stubDialect{}, Options{})
	if !errors.Is(err, ErrEmptyModel) || f != nil || prog != nil {
		t.Errorf("Compile(\"\") = %v, %v, %v", f, prog, err)
	}
}
