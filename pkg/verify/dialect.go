package verify

import (
	"strconv"
	"strings"
	"unicode"

	"rfcode/pkg/compiler"
	"rfcode/pkg/forest"
)

var celReserved = map[string]bool{
	"true": true, "false": true, "null": true, "in": true, "as": true, "break": true,
	"const": true, "continue": true, "else": true, "for": true, "function": true,
	"if": true, "import": true, "let": true, "loop": true, "package": true,
	"namespace": true, "return": true, "var": true, "void": true, "while": true,
}

// Dialect renders a tree as a single CEL conditional expression.
type Dialect struct{}

var _ compiler.Dialect = Dialect{}

func (Dialect) Name() string { return "cel" }

func (Dialect) Identifier(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || (r < unicode.MaxASCII && unicode.IsLetter(r)):
			sb.WriteRune(r)
		case r < unicode.MaxASCII && unicode.IsDigit(r):
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	id := sb.String()
	if id == "" || celReserved[id] {
		id += "_"
	}
	return id
}

func (Dialect) Compare(ident string, op forest.Op, number string) string {
	sym := op.String()
	if op == forest.OpEq {
		sym = "=="
	}
	return ident + " " + sym + " " + doubleLiteral(number)
}

func (Dialect) Equals(ident, value string) string {
	return ident + " == " + strconv.Quote(value)
}

func (Dialect) Not(cond string) string { return "!(" + cond + ")" }

func (Dialect) Or(conds []string) string {
	if len(conds) == 1 {
		return conds[0]
	}
	return "(" + strings.Join(conds, " || ") + ")"
}

func (Dialect) Branch(cond, then, els string, _ int) string {
	return "(" + cond + " ? " + then + " : " + els + ")"
}

func (Dialect) Return(value string, _ int) string { return value }

func (Dialect) Literal(value string, kind forest.ObjectiveKind) string {
	if kind == forest.Regression {
		return doubleLiteral(value)
	}
	return strconv.Quote(value)
}

// doubleLiteral rewrites a decimal literal so CEL types it as double: CEL
// has no implicit int to double conversion.
func doubleLiteral(lit string) string {
	v, ok := forest.ParseNumber(lit)
	if !ok {
		return lit
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
