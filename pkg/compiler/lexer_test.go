package compiler

import (
	"reflect"
	"testing"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Type: BLANK, Lexeme: "", Line: 1},
				{Type: EOF, Line: 2},
			},
		},
		{
			name:  "Headers and Size",
			input: "RandomTree\n==========\n\nSize of the tree : 5",
			expected: []Token{
				{Type: HEADER, Lexeme: "RandomTree", Line: 1},
				{Type: HEADER, Lexeme: "==========", Line: 2},
				{Type: BLANK, Lexeme: "", Line: 3},
				{Type: SIZE, Lexeme: "Size of the tree : 5", Line: 4},
				{Type: EOF, Line: 5},
			},
		},
		{
			name:  "Sample Marker",
			input: "  === Begin of sample ===  \r\na,b",
			expected: []Token{
				{Type: SAMPLE, Lexeme: "  === Begin of sample ===  ", Line: 1},
				{Type: TEXT, Lexeme: "a,b", Line: 2, Err: &FormatError{Kind: Syntax, Line: 2, Text: "a,b",
					Msg: `expected a comparison after "a,b"`}},
				{Type: EOF, Line: 3},
			},
		},
		{
			name:  "Comment Lines Dropped",
			input: "# exported by weka\nx < 1 : a",
			expected: []Token{
				{Type: RULE, Lexeme: "x < 1 : a", Line: 2, Rule: &Rule{Attr: "x", Op: "<", Value: "1", IsLeaf: true, Leaf: "a"}},
				{Type: EOF, Line: 3},
			},
		},
		{
			name:  "Weka Bars",
			input: "|   |   humidity < 82.5 : yes (2/0)",
			expected: []Token{
				{Type: RULE, Lexeme: "|   |   humidity < 82.5 : yes (2/0)", Line: 1, Depth: 2,
					Rule: &Rule{Attr: "humidity", Op: "<", Value: "82.5", IsLeaf: true, Leaf: "yes", Support: 2}},
				{Type: EOF, Line: 2},
			},
		},
		{
			name:  "Spaces and Tabs",
			input: "    a >= -1.5\n\tb != x\n        c = 2 : 3.25 (4.5/1.5)",
			expected: []Token{
				{Type: RULE, Lexeme: "    a >= -1.5", Line: 1, Depth: 1, Rule: &Rule{Attr: "a", Op: ">=", Value: "-1.5"}},
				{Type: RULE, Lexeme: "\tb != x", Line: 2, Depth: 1, Rule: &Rule{Attr: "b", Op: "!=", Value: "x"}},
				{Type: RULE, Lexeme: "        c = 2 : 3.25 (4.5/1.5)", Line: 3, Depth: 2,
					Rule: &Rule{Attr: "c", Op: "=", Value: "2", IsLeaf: true, Leaf: "3.25", Support: 4.5, Errors: 1.5}},
				{Type: EOF, Line: 4},
			},
		},
		{
			name:  "Category Set Without Spaces",
			input: "outlook in { sunny ,rainy}:no(3)",
			expected: []Token{
				{Type: RULE, Lexeme: "outlook in { sunny ,rainy}:no(3)", Line: 1, Rule: &Rule{Attr: "outlook", Op: "in",
					Value: "{sunny,rainy}", Categories: []string{"sunny", "rainy"}, IsLeaf: true, Leaf: "no", Support: 3}},
				{Type: EOF, Line: 2},
			},
		},
		{
			name:  "Compact Leaf",
			input: "attr0 <= 5: A (10)",
			expected: []Token{
				{Type: RULE, Lexeme: "attr0 <= 5: A (10)", Line: 1,
					Rule: &Rule{Attr: "attr0", Op: "<=", Value: "5", IsLeaf: true, Leaf: "A", Support: 10}},
				{Type: EOF, Line: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Lex(tt.input)
			if !reflect.DeepEqual(tokens, tt.expected) {
				t.Errorf("Lex(%q)\n got: %v\nwant: %v", tt.input, tokens, tt.expected)
			}
		})
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  FormatKind
	}{
		{"Three Space Indent", "   x < 1 : a", UnexpectedIndentation},
		{"Unknown Operator", "x ~ 1 : a", UnknownOperator},
		{"Word Operator", "x like 1 : a", UnknownOperator},
		{"Missing Value", "x < : a", Syntax},
		{"Missing Leaf", "x < 1 :", Syntax},
		{"Bad Support", "x < 1 : a (b)", Syntax},
		{"Unclosed Support", "x < 1 : a (3", Syntax},
		{"Trailing Text", "x < 1 : a (3) extra", Syntax},
		{"Unterminated Set", "x in {a,b : c", Syntax},
		{"Empty Category", "x in {a,,b} : c", Syntax},
		{"In Without Braces", "x in a : c", Syntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := Lex(tt.input)
			if len(tokens) != 2 {
				t.Fatalf("expected 2 tokens, got %d", len(tokens))
			}
			tok := tokens[0]
			if tok.Type != TEXT {
				t.Fatalf("expected TEXT, got %s", tok.Type)
			}
			if tok.Err == nil || tok.Err.Kind != tt.kind {
				t.Errorf("expected %s error, got %v", tt.kind, tok.Err)
			}
			if tok.Err != nil && tok.Err.Line != 1 {
				t.Errorf("expected line 1, got %d", tok.Err.Line)
			}
		})
	}
}

func TestLexQuotedValues(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Rule
	}{
		{
			name:     "Quoted Threshold With Colon",
			input:    "sky = 'partly: cloudy' : 'no rain' (3/1)",
			expected: Rule{Attr: "sky", Op: "=", Value: "partly: cloudy", IsLeaf: true, Leaf: "no rain", Support: 3, Errors: 1},
		},
		{
			name:  "Quoted Categories",
			input: `sky in {'partly cloudy',"fog",clear}`,
			expected: Rule{Attr: "sky", Op: "in", Value: "{partly cloudy,fog,clear}",
				Categories: []string{"partly cloudy", "fog", "clear"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := Lex(tt.input)[0]
			if tok.Type != RULE {
				t.Fatalf("token = %v (%v), want RULE", tok, tok.Err)
			}
			if !reflect.DeepEqual(*tok.Rule, tt.expected) {
				t.Errorf("rule\n got: %+v\nwant: %+v", *tok.Rule, tt.expected)
			}
		})
	}

	if tok := Lex("sky = 'open : a (1)")[0]; tok.Err == nil || tok.Err.Msg != "unterminated quoted value" {
		t.Errorf("unterminated quote: token = %v, err = %v", tok, tok.Err)
	}
}

func TestTokenTypeString(t *testing.T) {
	if got := RULE.String(); got != "RULE" {
		t.Errorf("RULE.String() = %q", got)
	}
	if got := TokenType(42).String(); got != "TokenType(42)" {
		t.Errorf("TokenType(42).String() = %q", got)
	}
}
