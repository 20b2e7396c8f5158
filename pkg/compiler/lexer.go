package compiler

import (
	"strconv"
	"strings"
	"unicode"

	"rfcode/pkg/forest"
)

// indentWidth is the number of columns one tree level occupies when a dump
// is indented with spaces instead of Weka bars. A tab counts as one level.
const indentWidth = 4

// Lexer holds the scanning state for one model line.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // 1-based source line
	text string
}

func newLexer(text string, line int) *Lexer {
	return &Lexer{src: []rune(text), line: line, text: text}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	return r
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

func (l *Lexer) skipSpaces() {
	for !l.atEnd() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) fail(kind FormatKind, format string, args ...any) *FormatError {
	return formatErr(kind, Token{Line: l.line, Lexeme: l.text}, format, args...)
}

// scanDepth consumes the indentation prefix. Bars win over whitespace: the
// depth of "|   |   x < 1" is 2 whatever the spacing.
func (l *Lexer) scanDepth() (int, *FormatError) {
	bars, cols := 0, 0
prefix:
	for !l.atEnd() {
		switch l.peek() {
		case '|':
			bars++
		case ' ':
			cols++
		case '\t':
			cols += indentWidth
		default:
			break prefix
		}
		l.advance()
	}
	if bars > 0 {
		return bars, nil
	}
	if cols%indentWidth != 0 {
		return 0, l.fail(UnexpectedIndentation, "indentation of %d columns is not a multiple of %d", cols, indentWidth)
	}
	return cols / indentWidth, nil
}

// scanWord collects runes up to whitespace or any rune in stop.
func (l *Lexer) scanWord(stop string) string {
	start := l.pos
	for !l.atEnd() {
		r := l.peek()
		if unicode.IsSpace(r) || strings.ContainsRune(stop, r) {
			break
		}
		l.advance()
	}
	return string(l.src[start:l.pos])
}

// scanOperator reads either a run of comparison symbols or a word such as "in".
func (l *Lexer) scanOperator() string {
	start := l.pos
	for !l.atEnd() && strings.ContainsRune("<>=!", l.peek()) {
		l.advance()
	}
	if l.pos == start {
		return l.scanWord("{")
	}
	return string(l.src[start:l.pos])
}

// scanQuoted reads a value enclosed in q and returns it without the quotes.
func (l *Lexer) scanQuoted(q rune) (string, *FormatError) {
	l.advance()
	start := l.pos
	for !l.atEnd() && l.peek() != q {
		l.advance()
	}
	if l.atEnd() {
		return "", l.fail(Syntax, "unterminated quoted value")
	}
	v := string(l.src[start:l.pos])
	l.advance()
	return v, nil
}

func isQuote(r rune) bool { return r == '\'' || r == '"' }

// scanNumber reads a non-negative decimal weight such as 12 or 3.5.
func (l *Lexer) scanNumber() (float64, bool) {
	start := l.pos
	for !l.atEnd() && (unicode.IsDigit(l.peek()) || l.peek() == '.') {
		l.advance()
	}
	lit := string(l.src[start:l.pos])
	if !forest.IsNumeric(lit) {
		return 0, false
	}
	v, err := strconv.ParseFloat(lit, 64)
	return v, err == nil
}

// scanRule decodes the whole line as a rule. The indentation prefix comes first.
func (l *Lexer) scanRule() (int, *Rule, *FormatError) {
	depth, ferr := l.scanDepth()
	if ferr != nil {
		return 0, nil, ferr
	}

	r := &Rule{}
	r.Attr = l.scanWord("<>=!:")
	if r.Attr == "" {
		return 0, nil, l.fail(Syntax, "expected an attribute name")
	}
	l.skipSpaces()

	r.Op = l.scanOperator()
	if r.Op == "" {
		return 0, nil, l.fail(Syntax, "expected a comparison after %q", r.Attr)
	}
	if _, ok := forest.LookupOp(r.Op); !ok {
		return 0, nil, l.fail(UnknownOperator, "operator %q is not one of < <= > >= = != in", r.Op)
	}
	l.skipSpaces()

	if r.Op == "in" {
		if l.advance() != '{' {
			return 0, nil, l.fail(Syntax, "expected '{' after in")
		}
		start := l.pos
		for !l.atEnd() && l.peek() != '}' {
			l.advance()
		}
		if l.atEnd() {
			return 0, nil, l.fail(Syntax, "unterminated category set")
		}
		body := string(l.src[start:l.pos])
		l.advance() // }
		for _, c := range strings.Split(body, ",") {
			c = forest.Unquote(strings.TrimSpace(c))
			if c == "" {
				return 0, nil, l.fail(Syntax, "empty category in set {%s}", body)
			}
			r.Categories = append(r.Categories, c)
		}
		r.Value = "{" + strings.Join(r.Categories, ",") + "}"
	} else if isQuote(l.peek()) {
		if r.Value, ferr = l.scanQuoted(l.peek()); ferr != nil {
			return 0, nil, ferr
		}
		if r.Value == "" {
			return 0, nil, l.fail(Syntax, "missing value after %s", r.Op)
		}
	} else {
		start := l.pos
		for !l.atEnd() && l.peek() != ':' {
			l.advance()
		}
		r.Value = strings.TrimSpace(string(l.src[start:l.pos]))
		if r.Value == "" {
			return 0, nil, l.fail(Syntax, "missing value after %s", r.Op)
		}
	}
	l.skipSpaces()

	if l.atEnd() {
		return depth, r, nil
	}
	if l.advance() != ':' {
		return 0, nil, l.fail(Syntax, "unexpected text after %s", r.Value)
	}
	if err := l.scanLeaf(r); err != nil {
		return 0, nil, err
	}
	return depth, r, nil
}

// scanLeaf decodes ": value (support[/errors])"; the colon is already consumed.
func (l *Lexer) scanLeaf(r *Rule) *FormatError {
	l.skipSpaces()
	r.IsLeaf = true
	if isQuote(l.peek()) {
		v, err := l.scanQuoted(l.peek())
		if err != nil {
			return err
		}
		r.Leaf = v
	} else {
		r.Leaf = l.scanWord("(")
	}
	if r.Leaf == "" {
		return l.fail(Syntax, "missing leaf value after ':'")
	}
	l.skipSpaces()
	if l.atEnd() {
		return nil
	}
	if l.advance() != '(' {
		return l.fail(Syntax, "expected '(' before the leaf support count")
	}
	var ok bool
	if r.Support, ok = l.scanNumber(); !ok {
		return l.fail(Syntax, "malformed leaf support count")
	}
	if l.peek() == '/' {
		l.advance()
		if r.Errors, ok = l.scanNumber(); !ok {
			return l.fail(Syntax, "malformed leaf error count")
		}
	}
	if l.advance() != ')' {
		return l.fail(Syntax, "expected ')' after the leaf support count")
	}
	l.skipSpaces()
	if !l.atEnd() {
		return l.fail(Syntax, "unexpected text after the leaf suffix")
	}
	return nil
}

func isHeader(trimmed string) bool {
	if trimmed == "RandomTree" || strings.HasPrefix(trimmed, "===") {
		return true
	}
	return strings.Trim(trimmed, "=") == "" || strings.Trim(trimmed, "-") == ""
}

// lexLine classifies a single line.
func lexLine(text string, line int) Token {
	tok := Token{Lexeme: text, Line: line}
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		tok.Type = BLANK
	case trimmed == SampleMarker:
		tok.Type = SAMPLE
	case isHeader(trimmed):
		tok.Type = HEADER
	case strings.HasPrefix(trimmed, "Size of the tree"):
		tok.Type = SIZE
	default:
		depth, rule, err := newLexer(text, line).scanRule()
		if err != nil {
			tok.Type = TEXT
			tok.Err = err
			return tok
		}
		tok.Type = RULE
		tok.Depth = depth
		tok.Rule = rule
	}
	return tok
}

// Lex splits src into lines and classifies each one. Comment lines (first
// non-space rune '#') are dropped. The result always ends with an EOF token.
// Lexing never fails: a line that is not a rule becomes a TEXT token carrying
// the reason, and the parser decides whether that is an error.
func Lex(src string) []Token {
	lines := strings.Split(src, "\n")
	tokens := make([]Token, 0, len(lines)+1)
	for i, text := range lines {
		text = strings.TrimRight(text, "\r")
		if strings.HasPrefix(strings.TrimSpace(text), "#") {
			continue
		}
		tokens = append(tokens, lexLine(text, i+1))
	}
	return append(tokens, Token{Type: EOF, Line: len(lines) + 1})
}
