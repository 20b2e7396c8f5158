// Package verify cross-checks compiled decision logic against the in-memory
// forest evaluator. Each tree is compiled with the same TreeCompiler the
// Java backend uses, but into a CEL expression that can be evaluated here.
package verify

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/cel-go/cel"

	"rfcode/pkg/compiler"
	"rfcode/pkg/forest"
)

// costLimit bounds a single tree evaluation.
const costLimit = 1000000

// Verifier holds one compiled CEL program per tree.
type Verifier struct {
	f        *forest.Forest
	idents   []string
	exprs    []string
	programs []cel.Program
}

// New compiles every tree of f into CEL.
func New(f *forest.Forest) (*Verifier, error) {
	d := Dialect{}
	v := &Verifier{f: f, idents: compiler.BindIdentifiers(f.Schema, d)}

	var opts []cel.EnvOption
	for _, i := range f.Features() {
		typ := cel.StringType
		if f.Schema[i].Kind == forest.Numeric {
			typ = cel.DoubleType
		}
		opts = append(opts, cel.Variable(v.idents[i], typ))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	tc := compiler.NewTreeCompiler(f, d, v.idents)
	for i, t := range f.Trees {
		expr, err := tc.Compile(t)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("tree %d: compile error: %w", i, issues.Err())
		}
		prg, err := env.Program(ast, cel.CostLimit(costLimit))
		if err != nil {
			return nil, fmt.Errorf("tree %d: program creation error: %w", i, err)
		}
		v.exprs = append(v.exprs, expr)
		v.programs = append(v.programs, prg)
	}
	return v, nil
}

// Expr returns the CEL source of tree i.
func (v *Verifier) Expr(i int) string { return v.exprs[i] }

// activation binds a record to the CEL variables. Missing values cannot be
// expressed: CEL refuses to order NaN.
func (v *Verifier) activation(rec forest.Record) (map[string]any, error) {
	if len(rec) != len(v.f.Schema) {
		return nil, fmt.Errorf("record has %d values, schema has %d attributes", len(rec), len(v.f.Schema))
	}
	vars := make(map[string]any, len(rec))
	for _, i := range v.f.Features() {
		attr := v.f.Schema[i]
		lit := rec[i]
		if lit == forest.Missing || lit == "" {
			return nil, fmt.Errorf("attribute %q: missing values are not supported", attr.Name)
		}
		if attr.Kind == forest.Nominal {
			vars[v.idents[i]] = lit
			continue
		}
		x, ok := forest.ParseNumber(lit)
		if !ok {
			return nil, fmt.Errorf("attribute %q: %q is not numeric", attr.Name, lit)
		}
		vars[v.idents[i]] = x
	}
	return vars, nil
}

// Outcomes evaluates every tree on rec and returns the leaf literals.
func (v *Verifier) Outcomes(rec forest.Record) ([]string, error) {
	vars, err := v.activation(rec)
	if err != nil {
		return nil, err
	}
	outs := make([]string, len(v.programs))
	for i, prg := range v.programs {
		out, _, err := prg.Eval(vars)
		if err != nil {
			return nil, fmt.Errorf("tree %d: evaluation error: %w", i, err)
		}
		switch val := out.Value().(type) {
		case string:
			outs[i] = val
		case float64:
			outs[i] = strconv.FormatFloat(val, 'g', -1, 64)
		default:
			return nil, fmt.Errorf("tree %d: unexpected result type %T", i, val)
		}
	}
	return outs, nil
}

// Predict evaluates the whole forest through CEL.
func (v *Verifier) Predict(rec forest.Record) (forest.Prediction, error) {
	outs, err := v.Outcomes(rec)
	if err != nil {
		return forest.Prediction{}, err
	}
	return forest.Aggregate(v.f.Objective.Kind, outs)
}

// Mismatch is one disagreement between CEL and the in-memory evaluator.
// Tree is -1 when the aggregated prediction differs.
type Mismatch struct {
	Record forest.Record
	Tree   int
	Want   string
	Got    string
}

func (m Mismatch) String() string {
	where := "forest"
	if m.Tree >= 0 {
		where = fmt.Sprintf("tree %d", m.Tree)
	}
	return fmt.Sprintf("%s on [%s]: want %s, got %s", where, strings.Join(m.Record, ","), m.Want, m.Got)
}

// MismatchError reports every disagreement found by Check.
type MismatchError struct {
	Checked    int
	Mismatches []Mismatch
}

func (e *MismatchError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "compiled decision logic disagrees with the model on %d of %d checks", len(e.Mismatches), e.Checked)
	for i, m := range e.Mismatches {
		if i == 5 {
			fmt.Fprintf(&sb, "\n  ... %d more", len(e.Mismatches)-i)
			break
		}
		sb.WriteString("\n  " + m.String())
	}
	return sb.String()
}

// Check evaluates every record both ways. It returns a *MismatchError when
// any tree outcome or aggregated prediction differs.
func (v *Verifier) Check(records []forest.Record) error {
	merr := &MismatchError{}
	for _, rec := range records {
		got, err := v.Outcomes(rec)
		if err != nil {
			return err
		}
		for i, t := range v.f.Trees {
			want, err := v.f.EvaluateTree(t, rec)
			if err != nil {
				return err
			}
			merr.Checked++
			if !sameOutcome(v.f.Objective.Kind, want.Value, got[i]) {
				merr.Mismatches = append(merr.Mismatches, Mismatch{Record: rec, Tree: i, Want: want.Value, Got: got[i]})
			}
		}

		want, err := v.f.Evaluate(rec)
		if err != nil {
			return err
		}
		pred, err := forest.Aggregate(v.f.Objective.Kind, got)
		if err != nil {
			return err
		}
		merr.Checked++
		if !samePrediction(want, pred) {
			merr.Mismatches = append(merr.Mismatches, Mismatch{Record: rec, Tree: -1, Want: want.String(), Got: pred.String()})
		}
	}
	if len(merr.Mismatches) > 0 {
		return merr
	}
	return nil
}

func sameOutcome(kind forest.ObjectiveKind, want, got string) bool {
	if kind == forest.Classification {
		return want == got
	}
	a, ok1 := forest.ParseNumber(want)
	b, ok2 := forest.ParseNumber(got)
	return ok1 && ok2 && a == b
}

func samePrediction(a, b forest.Prediction) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == forest.Classification {
		return a.Label == b.Label
	}
	return math.Abs(a.Value-b.Value) <= 1e-9*math.Max(1, math.Abs(a.Value))
}
