package compiler

import "fmt"

// TokenType identifies the category of a lexed model line.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	BLANK  // empty or whitespace-only line, ends a tree
	HEADER // "RandomTree", "=====" underlines, "=== ... ===" banners
	SIZE   // "Size of the tree : N", ends a tree
	SAMPLE // "=== Begin of sample ===" marker
	RULE   // attribute op value [: leaf (support/errors)]
	TEXT   // anything else; carries the reason it is not a rule
)

var tokenNames = [...]string{
	EOF:    "EOF",
	BLANK:  "BLANK",
	HEADER: "HEADER",
	SIZE:   "SIZE",
	SAMPLE: "SAMPLE",
	RULE:   "RULE",
	TEXT:   "TEXT",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// SampleMarker introduces the three-line demo data block.
const SampleMarker = "=== Begin of sample ==="

// Rule is the decoded body of a RULE line.
//
//	|   humidity < 82.5 : yes (2/0)
//	    ^^^^^^^^ ^ ^^^^   ^^^  ^ ^
//	    Attr     Op Value Leaf Support/Errors
type Rule struct {
	Attr       string
	Op         string // operator lexeme as written
	Value      string
	Categories []string // Op == "in"

	IsLeaf  bool
	Leaf    string
	Support float64
	Errors  float64
}

// Token is one classified line produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the line as written, without the line terminator
	Line   int    // 1-based source line
	Depth  int    // RULE only
	Rule   *Rule  // RULE only
	Err    *FormatError
}

func (t Token) String() string {
	if t.Type == RULE {
		return fmt.Sprintf("%-6s depth %-2d %-40q  line %d", t.Type, t.Depth, t.Lexeme, t.Line)
	}
	return fmt.Sprintf("%-6s          %-40q  line %d", t.Type, t.Lexeme, t.Line)
}
