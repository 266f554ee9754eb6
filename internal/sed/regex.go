package sed

import "strings"

// translateRegex rewrites a BRE or ERE pattern into Go's RE2 syntax.
// ERE is close enough to RE2 to pass through nearly unchanged; BRE
// needs `\( \) \{ \} \| \+ \?` unescaped into metacharacters and the
// bare forms of those characters escaped into literals. Backreferences
// in the pattern itself (`\1`) are left as-is and will fail to compile
// under RE2 — a documented limitation, same one the rest of the pack's
// regexp-based tools carry.
func translateRegex(pattern string, extended bool, ignoreCase bool) string {
	var out string
	if extended {
		out = translateERE(pattern)
	} else {
		out = translateBRE(pattern)
	}
	if ignoreCase {
		out = "(?i)" + out
	}
	return out
}

func translateERE(pattern string) string {
	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '\\' && i+1 < len(pattern) {
			switch pattern[i+1] {
			case '<', '>':
				sb.WriteString(`\b`)
				i++
				continue
			}
		}
		sb.WriteByte(pattern[i])
	}
	return sb.String()
}

var breMeta = "(){}|+?"

func translateBRE(pattern string) string {
	var sb strings.Builder
	atGroupStart := true
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		if c == '\\' && i+1 < len(pattern) {
			n := pattern[i+1]
			switch {
			case strings.IndexByte(breMeta, n) >= 0:
				sb.WriteByte(n)
				atGroupStart = n == '('
			case n == '<' || n == '>':
				sb.WriteString(`\b`)
				atGroupStart = false
			default:
				sb.WriteByte('\\')
				sb.WriteByte(n)
				atGroupStart = false
			}
			i += 2
			continue
		}
		if strings.IndexByte(breMeta, c) >= 0 {
			sb.WriteByte('\\')
			sb.WriteByte(c)
			i++
			atGroupStart = false
			continue
		}
		if c == '*' && atGroupStart {
			sb.WriteString(`\*`)
			i++
			continue
		}
		sb.WriteByte(c)
		atGroupStart = c == '^'
		i++
	}
	return sb.String()
}
