package compiler

import (
	"errors"
	"fmt"
	"strings"

	"rfcode/pkg/forest"
)

// ErrEmptyModel is returned when the model text holds no decision tree.
var ErrEmptyModel = errors.New("empty model: no decision trees found")

// Sentinels for the kinds of FormatError; match them with errors.Is.
var (
	ErrSyntax                = errors.New("syntax error")
	ErrUnterminatedTree      = errors.New("unterminated tree")
	ErrUnexpectedIndentation = errors.New("unexpected indentation")
	ErrUnknownOperator       = errors.New("unknown operator")
)

// FormatKind classifies a grammar violation.
type FormatKind int

const (
	Syntax FormatKind = iota
	UnterminatedTree
	UnexpectedIndentation
	UnknownOperator
)

var formatSentinels = [...]error{
	Syntax:                ErrSyntax,
	UnterminatedTree:      ErrUnterminatedTree,
	UnexpectedIndentation: ErrUnexpectedIndentation,
	UnknownOperator:       ErrUnknownOperator,
}

func (k FormatKind) String() string { return formatSentinels[k].Error() }

// FormatError is a model line that violates the rule grammar.
type FormatError struct {
	Kind FormatKind
	Line int    // 1-based
	Text string // the offending line as written
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s: %s\n  |> %s", e.Line, e.Kind, e.Msg, strings.TrimSpace(e.Text))
}

func (e *FormatError) Unwrap() error { return formatSentinels[e.Kind] }

func formatErr(kind FormatKind, tok Token, format string, args ...any) *FormatError {
	return &FormatError{Kind: kind, Line: tok.Line, Text: tok.Lexeme, Msg: fmt.Sprintf(format, args...)}
}

// SampleFormatError is a malformed demo-data block. It never aborts a parse;
// the forest records it in SampleErr instead.
type SampleFormatError struct {
	Line int
	Msg  string
}

func (e *SampleFormatError) Error() string {
	return fmt.Sprintf("sample block line %d: %s", e.Line, e.Msg)
}

// MixedObjectiveError reports leaves that mix class labels and numbers.
type MixedObjectiveError struct {
	Label       string
	LabelLine   int
	Numeric     string
	NumericLine int
}

func (e *MixedObjectiveError) Error() string {
	return fmt.Sprintf("leaves mix class labels and numeric values: %q on line %d, %q on line %d",
		e.Label, e.LabelLine, e.Numeric, e.NumericLine)
}

// UnsupportedNodeError is raised by the tree compiler for an operator it
// cannot render.
type UnsupportedNodeError struct {
	Node forest.NodeID
	Op   forest.Op
	Line int
}

func (e *UnsupportedNodeError) Error() string {
	return fmt.Sprintf("line %d: unsupported comparison operator %s on node %d", e.Line, e.Op, e.Node)
}

// InternalError signals generator state that should be impossible to reach.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal generation error: " + e.Msg }

func internalErr(format string, args ...any) *InternalError {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}
