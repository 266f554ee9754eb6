package awk

import (
	"strconv"
	"strings"
)

// value is awk's dual-typed string/number cell (spec.md §4.6: "Values
// are dual-typed (string+number)").
type value struct {
	str      string
	num      float64
	isNum    bool
	isStrnum bool // came from input/split/field and looks like a number
}

func numVal(n float64) value { return value{num: n, isNum: true} }
func strVal(s string) value  { return value{str: s} }

// strnumVal wraps input-derived text, tagging it as numeric-comparable
// when it looks like a number end-to-end (spec.md: "a trim-then-
// parseFloat that accepts the whole token").
func strnumVal(s string) value {
	if n, ok := looksLikeNumber(s); ok {
		return value{str: s, num: n, isNum: false, isStrnum: true}
	}
	return value{str: s}
}

func looksLikeNumber(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (v value) toNum() float64 {
	if v.isNum || v.isStrnum {
		return v.num
	}
	t := strings.TrimSpace(v.str)
	i := 0
	if i < len(t) && (t[i] == '+' || t[i] == '-') {
		i++
	}
	start := i
	for i < len(t) && (t[i] >= '0' && t[i] <= '9' || t[i] == '.') {
		i++
	}
	if i < len(t) && (t[i] == 'e' || t[i] == 'E') {
		j := i + 1
		if j < len(t) && (t[j] == '+' || t[j] == '-') {
			j++
		}
		if j < len(t) && t[j] >= '0' && t[j] <= '9' {
			for j < len(t) && t[j] >= '0' && t[j] <= '9' {
				j++
			}
			i = j
		}
	}
	if i == start {
		return 0
	}
	n, err := strconv.ParseFloat(t[:i], 64)
	if err != nil {
		return 0
	}
	return n
}

func formatNum(n float64, convfmt string) string {
	if n == float64(int64(n)) && n < 1e16 && n > -1e16 {
		return strconv.FormatInt(int64(n), 10)
	}
	if convfmt == "" {
		convfmt = "%.6g"
	}
	return sprintf(convfmt, []value{numVal(n)})
}

func (v value) toStr(convfmt string) string {
	if v.isNum {
		return formatNum(v.num, convfmt)
	}
	return v.str
}

// isNumeric reports whether this value should participate in numeric
// comparison (spec.md: "numeric iff both sides look like numbers").
func (v value) isNumericish() bool { return v.isNum || v.isStrnum }

func (v value) truthy() bool {
	if v.isNum {
		return v.num != 0
	}
	if v.isStrnum {
		return v.num != 0
	}
	return v.str != ""
}

func compareValues(a, b value) int {
	if a.isNumericish() && b.isNumericish() {
		switch {
		case a.toNum() < b.toNum():
			return -1
		case a.toNum() > b.toNum():
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.toStr(""), b.toStr(""))
}
