package compiler

import (
	"errors"
	"reflect"
	"testing"

	"rfcode/pkg/forest"
)

const irisModel = `RandomTree
==========

petallength < 2.45 : Iris-setosa (50/0)
petallength >= 2.45
|   petalwidth < 1.75 : Iris-versicolor (54/5)
|   petalwidth >= 1.75 : Iris-virginica (46/1)

Size of the tree : 5
`

const weatherModel = `outlook = sunny
|   humidity <= 75 : yes (2)
|   humidity > 75 : no (3)
outlook = overcast : yes (4)
outlook = rainy
|   windy = TRUE : no (2)
|   windy = FALSE : yes (3)
`

// tieModel is two single-leaf trees voting A and B, with a sample.
const tieModel = `attr0 <= 5: A (10)

attr0 <= 5: B (8)

=== Begin of sample ===
attr0,class
3,?
1
`

func mustParse(t *testing.T, src string, opts Options) *forest.Forest {
	t.Helper()
	f, err := ParseModel(src, opts)
	if err != nil {
		t.Fatalf("ParseModel failed: %v", err)
	}
	return f
}

func TestParseIrisNodes(t *testing.T) {
	f := mustParse(t, irisModel, Options{})

	expected := []forest.Node{
		{Kind: forest.Leaf, Line: 4, Value: "Iris-setosa", Support: 50, Left: forest.NoNode, Right: forest.NoNode},
		{Kind: forest.Leaf, Line: 6, Value: "Iris-versicolor", Support: 54, Errors: 5, Left: forest.NoNode, Right: forest.NoNode},
		{Kind: forest.Leaf, Line: 7, Value: "Iris-virginica", Support: 46, Errors: 1, Left: forest.NoNode, Right: forest.NoNode},
		{Kind: forest.Internal, Line: 6, Attr: 1, Op: forest.OpLess, Threshold: "1.75", Number: 1.75, Left: 1, Right: 2},
		{Kind: forest.Internal, Line: 4, Attr: 0, Op: forest.OpLess, Threshold: "2.45", Number: 2.45, Left: 0, Right: 3},
	}
	if !reflect.DeepEqual(f.Nodes, expected) {
		t.Errorf("nodes\n got: %+v\nwant: %+v", f.Nodes, expected)
	}
	if want := []forest.Tree{{Root: 4, Line: 4}}; !reflect.DeepEqual(f.Trees, want) {
		t.Errorf("trees = %+v, want %+v", f.Trees, want)
	}

	schema := []forest.Attribute{
		{Name: "petallength", Kind: forest.Numeric},
		{Name: "petalwidth", Kind: forest.Numeric},
		{Name: "class", Kind: forest.Nominal},
	}
	if !reflect.DeepEqual(f.Schema, schema) {
		t.Errorf("schema = %+v, want %+v", f.Schema, schema)
	}
	if f.ObjectiveIndex != 2 || f.ObjectiveName() != "class" {
		t.Errorf("objective attribute = %d %q", f.ObjectiveIndex, f.ObjectiveName())
	}
	want := forest.Objective{Kind: forest.Classification, Labels: []string{"Iris-setosa", "Iris-versicolor", "Iris-virginica"}}
	if !reflect.DeepEqual(f.Objective, want) {
		t.Errorf("objective = %+v, want %+v", f.Objective, want)
	}
	if f.Sample != nil || f.SampleErr != nil {
		t.Errorf("unexpected sample %+v / %v", f.Sample, f.SampleErr)
	}
}

func TestParseSiblingChain(t *testing.T) {
	f := mustParse(t, weatherModel, Options{})
	expected := `if outlook = sunny
  if humidity <= 75
    leaf yes (2/0)
  else
    leaf no (3/0)
else
  if outlook = overcast
    leaf yes (4/0)
  else
    if windy = TRUE
      leaf no (2/0)
    else
      leaf yes (3/0)
`
	if got := f.TreeString(f.Trees[0]); got != expected {
		t.Errorf("tree\n got:\n%s\nwant:\n%s", got, expected)
	}

	kinds := map[string]forest.AttrKind{}
	for _, a := range f.Schema {
		kinds[a.Name] = a.Kind
	}
	if kinds["outlook"] != forest.Nominal || kinds["humidity"] != forest.Numeric || kinds["windy"] != forest.Nominal {
		t.Errorf("attribute kinds = %v", kinds)
	}
	if f.Size(f.Trees[0]) != 9 || f.Depth(f.Trees[0]) != 3 {
		t.Errorf("size/depth = %d/%d, want 9/3", f.Size(f.Trees[0]), f.Depth(f.Trees[0]))
	}
}

func TestParseInternalNodesHaveTwoChildren(t *testing.T) {
	for _, src := range []string{irisModel, weatherModel, tieModel} {
		f := mustParse(t, src, Options{})
		for id, nd := range f.Nodes {
			if nd.Kind == forest.Internal && (nd.Left == forest.NoNode || nd.Right == forest.NoNode) {
				t.Errorf("internal node %d is missing a child: %+v", id, nd)
			}
			if nd.Kind == forest.Leaf && (nd.Left != forest.NoNode || nd.Right != forest.NoNode) {
				t.Errorf("leaf %d has children: %+v", id, nd)
			}
		}
	}
}

func TestParseObjectiveNameAvoidsAttributes(t *testing.T) {
	f := mustParse(t, "class < 1 : a\nclass >= 1 : b\n", Options{})
	if got := f.ObjectiveName(); got != "class_" {
		t.Errorf("objective name = %q, want class_", got)
	}
}

func TestParseEmptyModel(t *testing.T) {
	for _, src := range []string{"", "   \n\t\n", "RandomTree\n==========\n\nSize of the tree : 0\n"} {
		_, err := ParseModel(src, Options{})
		if !errors.Is(err, ErrEmptyModel) {
			t.Errorf("ParseModel(%q) error = %v, want ErrEmptyModel", src, err)
		}
	}
}

func TestParserErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
		line  int
	}{
		{"Skipped Depth", "a < 1\n|   |   b < 2 : x\n", ErrUnexpectedIndentation, 2},
		{"Tree Starts Indented", "|   a < 1 : x\n", ErrUnexpectedIndentation, 1},
		{"Deeper After Leaf", "a < 1 : x\n|   b < 2 : y\n", ErrUnexpectedIndentation, 2},
		{"Bad Indent Width", "a < 1\n  b < 2 : x\n", ErrUnexpectedIndentation, 2},
		{"Split Without Branches", "a < 1\na >= 1 : x\n", ErrUnterminatedTree, 1},
		{"Split At End", "a < 1 : x\na >= 1\n", ErrUnterminatedTree, 2},
		{"Unknown Operator", "a << 1 : x\n", ErrUnknownOperator, 1},
		{"Not A Rule", "RandomTree\nhello\n", ErrSyntax, 2},
		{"Ordering On Word", "a < b : x\n", ErrSyntax, 1},
		{"Numeric Attribute Compared With Word", "a < 1 : x\n\na = foo : y\n", ErrSyntax, 3},
		{"Threshold Out Of Range", "x < 1e400 : A (1)\nx >= 1e400 : B (1)\n", ErrSyntax, 1},
		{"Equality Out Of Range", "x < 1 : A (1)\n\nx = 1e400 : B (1)\nx != 1e400 : C (1)\n", ErrSyntax, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModel(tt.input, Options{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var ferr *FormatError
			if !errors.As(err, &ferr) {
				t.Fatalf("error %T is not a *FormatError", err)
			}
			if ferr.Line != tt.line {
				t.Errorf("line = %d, want %d", ferr.Line, tt.line)
			}
			if ferr.Text == "" {
				t.Errorf("error carries no line text")
			}
		})
	}
}

func TestParseLargeThreshold(t *testing.T) {
	f := mustParse(t, "ts < 1600000000000 : A (1)\nts >= 1600000000000 : B (1)\n", Options{})
	root := f.Node(f.Trees[0].Root)
	if root.Number != 1.6e12 {
		t.Errorf("threshold = %g, want 1.6e12", root.Number)
	}
	p, err := f.Evaluate(forest.Record{"5", "?"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if p.Label != "A" {
		t.Errorf("prediction = %q, want A", p.Label)
	}
}

func TestFormatErrorMessage(t *testing.T) {
	_, err := ParseModel("a < 1\n|   |   b < 2 : x\n", Options{})
	want := "line 2: unexpected indentation: depth jumps from 0 to 2\n  |> |   |   b < 2 : x"
	if err == nil || err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}
}

func TestParseMixedObjective(t *testing.T) {
	_, err := ParseModel("a < 1 : x\n\na < 1 : 3.5\n", Options{})
	var merr *MixedObjectiveError
	if !errors.As(err, &merr) {
		t.Fatalf("error = %v, want *MixedObjectiveError", err)
	}
	if merr.Label != "x" || merr.LabelLine != 1 || merr.Numeric != "3.5" || merr.NumericLine != 3 {
		t.Errorf("unexpected error fields: %+v", merr)
	}
}

func TestParseSample(t *testing.T) {
	f := mustParse(t, tieModel, Options{})
	if f.SampleErr != nil {
		t.Fatalf("unexpected sample error: %v", f.SampleErr)
	}
	want := &forest.Sample{Labels: []string{"attr0", "class"}, Values: []string{"3", "?"}, ObjectiveIndex: 1}
	if !reflect.DeepEqual(f.Sample, want) {
		t.Errorf("sample = %+v, want %+v", f.Sample, want)
	}
	if len(f.Trees) != 2 {
		t.Fatalf("trees = %d, want 2", len(f.Trees))
	}
	schema := []forest.Attribute{{Name: "attr0", Kind: forest.Numeric}, {Name: "class", Kind: forest.Nominal}}
	if !reflect.DeepEqual(f.Schema, schema) {
		t.Errorf("schema = %+v, want %+v", f.Schema, schema)
	}
}

func TestParseSampleReordersSchema(t *testing.T) {
	src := `a < 1
|   b = x : yes (1)
|   b = y : no (1)
a >= 1 : no (2)

=== Begin of sample ===
class, b, extra, a
?, y, 7, 0.5
0
`
	f := mustParse(t, src, Options{})
	if f.Sample == nil {
		t.Fatalf("sample rejected: %v", f.SampleErr)
	}
	names := make([]string, len(f.Schema))
	for i, a := range f.Schema {
		names[i] = a.Name
	}
	if want := []string{"class", "b", "extra", "a"}; !reflect.DeepEqual(names, want) {
		t.Errorf("schema names = %v, want %v", names, want)
	}
	if f.Schema[2].Kind != forest.Numeric || f.Schema[1].Kind != forest.Nominal {
		t.Errorf("schema kinds = %+v", f.Schema)
	}
	root := f.Node(f.Trees[0].Root)
	if root.Attr != 3 {
		t.Errorf("root tests attribute %d, want 3", root.Attr)
	}
	if inner := f.Node(root.Left); inner.Attr != 1 {
		t.Errorf("inner split tests attribute %d, want 1", inner.Attr)
	}
}

func TestParseSampleErrorsAreRecoverable(t *testing.T) {
	const rules = "attr0 <= 5 : A (10)\n\n"
	tests := []struct {
		name   string
		sample string
	}{
		{"Non Integer Index", "attr0,class\n3,?\none\n"},
		{"Count Mismatch", "attr0,class\n3\n1\n"},
		{"Index Out Of Range", "attr0,class\n3,?\n2\n"},
		{"Negative Index", "attr0,class\n3,?\n-1\n"},
		{"Duplicate Label", "attr0,attr0\n3,?\n1\n"},
		{"Missing Rule Attribute", "other,class\n3,?\n1\n"},
		{"Objective Is Tested", "attr0,class\n3,?\n0\n"},
		{"Non Numeric Value", "attr0,class\nlarge,?\n1\n"},
		{"Truncated", "attr0,class\n"},
		{"Blank Line Inside", "attr0,class\n\n1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustParse(t, rules+SampleMarker+"\n"+tt.sample, Options{})
			if f.Sample != nil {
				t.Fatalf("sample accepted: %+v", f.Sample)
			}
			var serr *SampleFormatError
			if !errors.As(f.SampleErr, &serr) {
				t.Fatalf("SampleErr = %v, want *SampleFormatError", f.SampleErr)
			}
			if len(f.Trees) != 1 || f.ObjectiveName() != "class" {
				t.Errorf("forest not built from the rules: %d trees, objective %q", len(f.Trees), f.ObjectiveName())
			}
		})
	}
}

func TestParseSecondSampleBlock(t *testing.T) {
	src := tieModel + "\n" + SampleMarker + "\nattr0,class\n4,?\n1\n"
	f := mustParse(t, src, Options{})
	if f.Sample != nil || f.SampleErr == nil {
		t.Errorf("expected the duplicate block to be rejected, got sample %+v", f.Sample)
	}
}

func BenchmarkParse(b *testing.B) {
	tokens := Lex(irisModel + "\n" + weatherModel)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(tokens, Options{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompilerPipeline(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		f, err := ParseModel(irisModel, Options{})
		if err != nil {
			b.Fatal(err)
		}
		if _, err := CompileTree(f, f.Trees[0], stubDialect{}, BindIdentifiers(f.Schema, stubDialect{})); err != nil {
			b.Fatal(err)
		}
	}
}
