package shell

import (
	"fmt"
	"strconv"
	"strings"
)

// expandPrintfFormat renders format once against values (bash printf
// semantics: %b interprets backslash escapes, %q shell-quotes, %d/%i/%o/
// %x/%X/%u treat the operand as an integer via ToNumber, missing trailing
// operands are treated as "" / 0).
func expandPrintfFormat(format string, values []string) string {
	var consumed int
	return expandPrintfFormatN(format, values, &consumed)
}

// expandPrintfFormatN renders one format pass, writing how many values it
// consumed into *consumed so the caller (builtinPrintf) can recycle the
// format string over any remaining operands, per POSIX printf.
func expandPrintfFormatN(format string, values []string, consumed *int) string {
	var sb strings.Builder
	vi := 0
	next := func() string {
		if vi < len(values) {
			v := values[vi]
			vi++
			return v
		}
		return ""
	}
	i := 0
	for i < len(format) {
		c := format[i]
		if c == '\\' && i+1 < len(format) {
			sb.WriteString(unescapeANSIC(format[i : i+2]))
			i += 2
			continue
		}
		if c != '%' {
			sb.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			sb.WriteByte('%')
			i += 2
			continue
		}
		j := i + 1
		for j < len(format) && strings.IndexByte("-+ 0#123456789.", format[j]) >= 0 {
			j++
		}
		if j >= len(format) {
			sb.WriteByte('%')
			i++
			continue
		}
		verb := format[j]
		spec := format[i : j+1]
		switch verb {
		case 's':
			sb.WriteString(fmt.Sprintf(spec, next()))
		case 'd', 'i':
			sb.WriteString(fmt.Sprintf(spec[:len(spec)-1]+"d", ToNumber(next())))
		case 'o', 'x', 'X', 'u':
			goVerb := string(verb)
			if verb == 'u' {
				goVerb = "d"
			}
			sb.WriteString(fmt.Sprintf(spec[:len(spec)-1]+goVerb, ToNumber(next())))
		case 'c':
			v := next()
			if len(v) > 0 {
				sb.WriteByte(v[0])
			}
		case 'b':
			sb.WriteString(unescapeANSIC(next()))
		case 'q':
			sb.WriteString(quoteForReuse(next()))
		case 'f', 'e', 'E', 'g', 'G':
			f, _ := strconv.ParseFloat(next(), 64)
			sb.WriteString(fmt.Sprintf(spec, f))
		default:
			sb.WriteString(spec)
		}
		i = j + 1
	}
	*consumed = vi
	return sb.String()
}
