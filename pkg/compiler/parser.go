package compiler

import (
	"strings"

	"rfcode/pkg/forest"
)

// Parser consumes the classified lines produced by Lex and builds a Forest.
//
// Grammar:
//
//	model   = (tree | sample | BLANK | HEADER | SIZE)* EOF
//	tree    = group(0)
//	group(d)= branch(d)+
//	branch(d)= RULE@d leaf-suffix | RULE@d group(d+1)
//	sample  = SAMPLE labels values objective-index
//
// Sibling branches b1..bk of one group become a chain of binary splits,
// Internal{test(b1), left: b1, right: chain(b2..bk)}; the last branch is the
// fallthrough taken when every earlier test fails.
type Parser struct {
	tokens []Token
	pos    int
	opts   Options

	nodes []forest.Node
	trees []forest.Tree

	// attributes referenced by rules, in first-seen order
	names   []string
	index   map[string]int
	numeric []bool

	leaves    []leafRef
	sample    *rawSample
	sampleErr error
}

// Options tunes parsing.
type Options struct {
	Objective ObjectiveHint
}

type branch struct {
	tok Token
	sub forest.NodeID
}

type leafRef struct {
	value string
	line  int
}

func NewParser(tokens []Token, opts Options) *Parser {
	return &Parser{tokens: tokens, opts: opts, index: make(map[string]int)}
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// ParseModel lexes and parses model text in one call.
func ParseModel(src string, opts Options) (*forest.Forest, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmptyModel
	}
	return Parse(Lex(src), opts)
}

// Parse builds a Forest from lexed lines. A malformed sample block does not
// fail the parse; it is reported through Forest.SampleErr.
func Parse(tokens []Token, opts Options) (*forest.Forest, error) {
	return NewParser(tokens, opts).parse()
}

func (p *Parser) parse() (*forest.Forest, error) {
	for {
		tok := p.peek()
		switch tok.Type {
		case EOF:
			return p.finish()
		case BLANK, HEADER, SIZE:
			p.advance()
		case SAMPLE:
			p.parseSample()
		case RULE:
			if err := p.parseTree(); err != nil {
				return nil, err
			}
		case TEXT:
			if tok.Err != nil {
				return nil, tok.Err
			}
			return nil, formatErr(Syntax, tok, "expected a rule line")
		default:
			return nil, internalErr("unexpected token %s on line %d", tok.Type, tok.Line)
		}
	}
}

func (p *Parser) parseTree() error {
	first := p.peek()
	if first.Depth != 0 {
		return formatErr(UnexpectedIndentation, first, "tree starts at depth %d, expected 0", first.Depth)
	}
	root, err := p.parseGroup(0)
	if err != nil {
		return err
	}
	p.trees = append(p.trees, forest.Tree{Root: root, Line: first.Line})
	return nil
}

// parseGroup reads the sibling branches at depth and returns the root of the
// chain they form.
func (p *Parser) parseGroup(depth int) (forest.NodeID, error) {
	var branches []branch
	for {
		tok := p.peek()
		if tok.Type != RULE || tok.Depth < depth {
			break
		}
		if tok.Depth > depth {
			prev := branches[len(branches)-1].tok
			return forest.NoNode, formatErr(UnexpectedIndentation, tok,
				"depth %d follows the leaf on line %d at depth %d", tok.Depth, prev.Line, depth)
		}
		p.advance()
		if err := p.useAttribute(tok); err != nil {
			return forest.NoNode, err
		}

		var sub forest.NodeID
		if tok.Rule.IsLeaf {
			sub = p.addLeaf(tok)
		} else {
			next := p.peek()
			if next.Type == TEXT && next.Err != nil {
				return forest.NoNode, next.Err
			}
			if next.Type != RULE || next.Depth <= depth {
				return forest.NoNode, formatErr(UnterminatedTree, tok, "split has no branches below it")
			}
			if next.Depth > depth+1 {
				return forest.NoNode, formatErr(UnexpectedIndentation, next,
					"depth jumps from %d to %d", depth, next.Depth)
			}
			var err error
			if sub, err = p.parseGroup(depth + 1); err != nil {
				return forest.NoNode, err
			}
		}
		branches = append(branches, branch{tok: tok, sub: sub})
	}
	if len(branches) == 0 {
		return forest.NoNode, internalErr("empty branch group at depth %d", depth)
	}
	return p.chain(branches), nil
}

// chain folds sibling branches into nested binary splits, right to left.
func (p *Parser) chain(branches []branch) forest.NodeID {
	id := branches[len(branches)-1].sub
	for i := len(branches) - 2; i >= 0; i-- {
		b := branches[i]
		r := b.tok.Rule
		op, _ := forest.LookupOp(r.Op)
		nd := forest.Node{
			Kind:       forest.Internal,
			Line:       b.tok.Line,
			Attr:       p.index[r.Attr],
			Op:         op,
			Threshold:  r.Value,
			Categories: r.Categories,
			Left:       b.sub,
			Right:      id,
		}
		if v, ok := forest.ParseNumber(r.Value); ok {
			nd.Number = v
		}
		id = p.addNode(nd)
	}
	return id
}

func (p *Parser) addNode(nd forest.Node) forest.NodeID {
	p.nodes = append(p.nodes, nd)
	return forest.NodeID(len(p.nodes) - 1)
}

func (p *Parser) addLeaf(tok Token) forest.NodeID {
	r := tok.Rule
	p.leaves = append(p.leaves, leafRef{value: r.Leaf, line: tok.Line})
	return p.addNode(forest.Node{
		Kind:    forest.Leaf,
		Line:    tok.Line,
		Value:   r.Leaf,
		Support: r.Support,
		Errors:  r.Errors,
		Left:    forest.NoNode,
		Right:   forest.NoNode,
	})
}

// useAttribute registers the attribute of a rule line. Ordering comparisons
// make an attribute numeric and need a numeric threshold.
func (p *Parser) useAttribute(tok Token) error {
	r := tok.Rule
	i, ok := p.index[r.Attr]
	if !ok {
		i = len(p.names)
		p.index[r.Attr] = i
		p.names = append(p.names, r.Attr)
		p.numeric = append(p.numeric, false)
	}
	op, _ := forest.LookupOp(r.Op)
	if op.Ordering() {
		if !forest.IsNumeric(r.Value) {
			return formatErr(Syntax, tok, "%s needs a numeric threshold, got %q", op, r.Value)
		}
		p.numeric[i] = true
	}
	return nil
}

// checkNumericTests rejects non-numeric equality tests on attributes that are
// compared by magnitude elsewhere in the model.
func (p *Parser) checkNumericTests() error {
	for _, nd := range p.nodes {
		if nd.Kind != forest.Internal || !p.numeric[nd.Attr] || nd.Op.Ordering() {
			continue
		}
		values := nd.Categories
		if nd.Op != forest.OpIn {
			values = []string{nd.Threshold}
		}
		for _, v := range values {
			if !forest.IsNumeric(v) {
				return &FormatError{Kind: Syntax, Line: nd.Line, Text: p.lineText(nd.Line),
					Msg: "attribute " + p.names[nd.Attr] + " is numeric but compared with " + v}
			}
		}
	}
	return nil
}

func (p *Parser) lineText(line int) string {
	for _, t := range p.tokens {
		if t.Line == line {
			return t.Lexeme
		}
	}
	return ""
}

// finish resolves the schema and objective once every line is consumed.
func (p *Parser) finish() (*forest.Forest, error) {
	if len(p.trees) == 0 {
		return nil, ErrEmptyModel
	}
	if err := p.checkNumericTests(); err != nil {
		return nil, err
	}
	objective, err := inferObjective(p.leaves, p.opts.Objective)
	if err != nil {
		return nil, err
	}

	f := &forest.Forest{
		Trees:     p.trees,
		Nodes:     p.nodes,
		Objective: objective,
		SampleErr: p.sampleErr,
	}
	if p.sample != nil && p.sampleErr == nil {
		s, err := p.resolveSample(p.sample)
		if err != nil {
			f.SampleErr = err
		} else {
			f.Sample = s
		}
	}

	if f.Sample != nil {
		p.schemaFromSample(f)
	} else {
		p.schemaFromRules(f)
	}
	if objective.Kind == forest.Classification {
		f.Schema[f.ObjectiveIndex].Kind = forest.Nominal
	} else {
		f.Schema[f.ObjectiveIndex].Kind = forest.Numeric
	}
	return f, nil
}

func (p *Parser) kindOf(i int) forest.AttrKind {
	if p.numeric[i] {
		return forest.Numeric
	}
	return forest.Nominal
}

// schemaFromRules lists rule attributes in first-seen order and appends an
// objective attribute named "class".
func (p *Parser) schemaFromRules(f *forest.Forest) {
	f.Schema = make([]forest.Attribute, 0, len(p.names)+1)
	for i, name := range p.names {
		f.Schema = append(f.Schema, forest.Attribute{Name: name, Kind: p.kindOf(i)})
	}
	objective := "class"
	for {
		if _, taken := p.index[objective]; !taken {
			break
		}
		objective += "_"
	}
	f.ObjectiveIndex = len(f.Schema)
	f.Schema = append(f.Schema, forest.Attribute{Name: objective})
}

// schemaFromSample orders the schema like the sample labels and remaps the
// attribute index of every split.
func (p *Parser) schemaFromSample(f *forest.Forest) {
	s := f.Sample
	f.ObjectiveIndex = s.ObjectiveIndex
	f.Schema = make([]forest.Attribute, len(s.Labels))
	remap := make([]int, len(p.names))
	for i, label := range s.Labels {
		attr := forest.Attribute{Name: label, Kind: forest.Nominal}
		if j, ok := p.index[label]; ok {
			attr.Kind = p.kindOf(j)
			remap[j] = i
		} else if v := s.Values[i]; v == forest.Missing || forest.IsNumeric(v) {
			attr.Kind = forest.Numeric
		}
		f.Schema[i] = attr
	}
	for i := range f.Nodes {
		if f.Nodes[i].Kind == forest.Internal {
			f.Nodes[i].Attr = remap[f.Nodes[i].Attr]
		}
	}
}
