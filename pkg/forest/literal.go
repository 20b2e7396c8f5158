package forest

import "strconv"

// Missing is the literal a dump uses for an unknown value.
const Missing = "?"

// IsNumeric reports whether s is a plain decimal literal such as 5, -0.25,
// .5 or 1e-3 that fits a float64. Words that strconv would accept (NaN, Inf,
// hex floats) are not numeric here, and neither is 1e400.
func IsNumeric(s string) bool {
	_, ok := ParseNumber(s)
	return ok
}

// isDecimal checks the literal grammar only.
func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

// ParseNumber parses a literal accepted by IsNumeric.
func ParseNumber(s string) (float64, bool) {
	if !isDecimal(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Unquote strips one pair of matching single or double quotes, as Weka puts
// around nominal values that contain spaces.
func Unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
