package assemble

import (
	"sort"
	"strings"

	"rfcode/pkg/compiler"
)

// Substitute replaces every ${NAME} placeholder in tmpl with tokens[NAME] in
// a single left-to-right pass. Replacement text is inserted literally and is
// never scanned again. A placeholder without a token, or one that does not
// close on its own line, is an internal error: skeletons ship with the binary.
func Substitute(tmpl string, tokens map[string]string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(tmpl))
	rest := tmpl
	for {
		i := strings.Index(rest, "${")
		if i < 0 {
			sb.WriteString(rest)
			return sb.String(), nil
		}
		sb.WriteString(rest[:i])
		rest = rest[i+2:]
		j := strings.IndexAny(rest, "}\n")
		if j < 0 || rest[j] == '\n' {
			return "", &compiler.InternalError{Msg: "unterminated placeholder ${" + firstLine(rest)}
		}
		name := rest[:j]
		val, ok := tokens[name]
		if !ok {
			return "", &compiler.InternalError{Msg: "skeleton placeholder ${" + name + "} has no value (known: " + knownTokens(tokens) + ")"}
		}
		sb.WriteString(val)
		rest = rest[j+1:]
	}
}

// Placeholders lists the distinct placeholder names of tmpl in order of first
// appearance.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	rest := tmpl
	for {
		i := strings.Index(rest, "${")
		if i < 0 {
			return names
		}
		rest = rest[i+2:]
		j := strings.IndexAny(rest, "}\n")
		if j < 0 {
			return names
		}
		if rest[j] == '\n' {
			rest = rest[j:]
			continue
		}
		if name := rest[:j]; !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		rest = rest[j+1:]
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func knownTokens(tokens map[string]string) string {
	names := make([]string, 0, len(tokens))
	for k := range tokens {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
