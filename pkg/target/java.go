package target

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"rfcode/pkg/assemble"
	"rfcode/pkg/forest"
)

//go:embed java.tmpl
var javaSkeleton string

const javaIndent = "    "

// javaKeywords also holds the literals true, false and null, which cannot be
// used as identifiers either.
var javaKeywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true, "byte": true,
	"case": true, "catch": true, "char": true, "class": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extends": true, "final": true, "finally": true, "float": true,
	"for": true, "goto": true, "if": true, "implements": true, "import": true,
	"instanceof": true, "int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true, "public": true,
	"return": true, "short": true, "static": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "this": true, "throw": true, "throws": true,
	"transient": true, "try": true, "void": true, "volatile": true, "while": true,
	"true": true, "false": true, "null": true, "var": true, "record": true, "yield": true,
	"_": true,
}

// Java renders forests as a plain Java class with one private method per tree.
type Java struct{}

var _ assemble.Target = Java{}

func (Java) Name() string          { return "java" }
func (Java) FileExtension() string { return "java" }
func (Java) Skeleton() string      { return javaSkeleton }

// indent returns the prefix for a statement at tree depth inside a method body.
func indent(depth int) string {
	return strings.Repeat(javaIndent, depth+2)
}

// IsJavaIdentifier reports whether s can be used as a Java identifier.
func IsJavaIdentifier(s string) bool {
	if s == "" || javaKeywords[s] {
		return false
	}
	for i, r := range s {
		if r == '_' || r == '$' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

func (Java) Identifier(name string) string {
	var sb strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
			sb.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	id := sb.String()
	if id == "" {
		id = "_"
	}
	if javaKeywords[id] {
		id += "_"
	}
	return id
}

func (Java) Compare(ident string, op forest.Op, number string) string {
	sym := op.String()
	if op == forest.OpEq {
		sym = "=="
	}
	return fmt.Sprintf("%s %s %s", ident, sym, javaDouble(number))
}

func (Java) Equals(ident, value string) string {
	return fmt.Sprintf("%s.equals(%s)", quoteJava(value), ident)
}

func (Java) Not(cond string) string { return "!" + cond }

func (Java) Or(conds []string) string {
	if len(conds) == 1 {
		return conds[0]
	}
	return "(" + strings.Join(conds, " || ") + ")"
}

func (Java) Branch(cond, then, els string, depth int) string {
	ind := indent(depth)
	return fmt.Sprintf("%sif (%s) {\n%s\n%s} else {\n%s\n%s}", ind, cond, then, ind, els, ind)
}

func (Java) Return(value string, depth int) string {
	return indent(depth) + "return " + value + ";"
}

func (Java) Literal(value string, kind forest.ObjectiveKind) string {
	if kind == forest.Regression {
		return javaDouble(value)
	}
	return quoteJava(value)
}

func (Java) ReturnType(kind forest.ObjectiveKind) string {
	if kind == forest.Regression {
		return "double"
	}
	return "String"
}

func (Java) InferenceName(kind forest.ObjectiveKind) string {
	if kind == forest.Regression {
		return "runRegression"
	}
	return "runClassification"
}

func (Java) TreeName(i int) string { return fmt.Sprintf("tree%d", i) }

func (Java) Call(name string) string { return name + "()" }

func (Java) Vote(calls []string) string {
	var sb strings.Builder
	in := indent(0)
	sb.WriteString(in + "String[] votes = {\n")
	for _, c := range calls {
		sb.WriteString(in + javaIndent + c + ",\n")
	}
	sb.WriteString(in + "};\n")
	sb.WriteString(in + "Map<String, Integer> counts = new HashMap<>();\n")
	sb.WriteString(in + "String best = null;\n")
	sb.WriteString(in + "int bestCount = 0;\n")
	sb.WriteString(in + "for (String label : votes) {\n")
	sb.WriteString(in + javaIndent + "int count = counts.merge(label, 1, Integer::sum);\n")
	sb.WriteString(in + javaIndent + "if (count > bestCount) {\n")
	sb.WriteString(in + javaIndent + javaIndent + "best = label;\n")
	sb.WriteString(in + javaIndent + javaIndent + "bestCount = count;\n")
	sb.WriteString(in + javaIndent + "}\n")
	sb.WriteString(in + "}\n")
	sb.WriteString(in + "return best;")
	return sb.String()
}

func (Java) Mean(calls []string) string {
	var sb strings.Builder
	in := indent(0)
	sb.WriteString(in + "double sum = 0.0;\n")
	for _, c := range calls {
		sb.WriteString(in + "sum += " + c + ";\n")
	}
	fmt.Fprintf(&sb, "%sreturn sum / %d;", in, len(calls))
	return sb.String()
}

func (Java) Method(public bool, name, returnType, doc, body string) string {
	visibility := "private"
	if public {
		visibility = "public"
	}
	var sb strings.Builder
	if doc != "" {
		fmt.Fprintf(&sb, "%s/**\n%s * %s\n%s */\n", javaIndent, javaIndent, doc, javaIndent)
	}
	fmt.Fprintf(&sb, "%s%s %s %s() {\n%s\n%s}\n", javaIndent, visibility, returnType, name, body, javaIndent)
	return sb.String()
}

func (Java) FieldType(kind forest.AttrKind) string {
	if kind == forest.Nominal {
		return "String"
	}
	return "double"
}

func (Java) Field(typ, ident string) string {
	return fmt.Sprintf("%spublic %s %s;", javaIndent, typ, ident)
}

func (Java) Constructor(class string) string {
	return fmt.Sprintf("%spublic %s() {\n%s}\n", javaIndent, class, javaIndent)
}

func (Java) PackageDecl(pkg string) string {
	if pkg == "" {
		return ""
	}
	return "package " + pkg + ";\n\n"
}

func (Java) DemoValue(kind forest.AttrKind, literal string) string {
	missing := literal == forest.Missing || literal == ""
	if kind == forest.Numeric {
		if missing {
			return "Double.NaN"
		}
		return javaDouble(literal)
	}
	if missing {
		return "null"
	}
	return quoteJava(literal)
}

func (Java) DemoMethod(d assemble.Demo) string {
	in := indent(0)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%spublic static void main(String[] args) throws Exception {\n", javaIndent)
	if d.Placeholder {
		sb.WriteString(in + "// No sample block was found in the model text.\n")
		sb.WriteString(javaIndent + "}\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "\n%s%s rf = new %s();\n\n", in, d.ClassName, d.ClassName)
	sb.WriteString(in + "// Set attribute values for prediction\n")
	for _, a := range d.Assignments {
		fmt.Fprintf(&sb, "%srf.%s = %s;\n", in, a.Ident, a.Value)
	}
	fmt.Fprintf(&sb, "\n%s// Perform '%s' prediction\n", in, d.Objective)
	fmt.Fprintf(&sb, "%s%s prediction = rf.%s();\n\n", in, d.ReturnType, d.InferenceName)
	fmt.Fprintf(&sb, "%sSystem.out.println(\"prediction=\" + prediction);\n", in)
	sb.WriteString(javaIndent + "}\n")
	return sb.String()
}

// quoteJava renders s as a Java string literal.
func quoteJava(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// javaDouble keeps a decimal literal as written but marks integer-shaped ones
// with a d suffix: 3000000000 overflows int and 08 is an octal error, while
// 3000000000d and 08d are doubles.
func javaDouble(lit string) string {
	if strings.ContainsAny(lit, ".eE") {
		return lit
	}
	return lit + "d"
}
