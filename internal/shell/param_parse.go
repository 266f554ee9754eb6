package shell

import "strings"

// parseBracedParam parses the text between `${` and `}` into a
// ParameterExpansionPart (spec.md section 3, the full parameter-expansion
// operator table). Operand words are kept unexpanded (lazy) and only
// lexed into parts here; the expansion engine in expand.go evaluates them
// against the live State when the expansion actually runs.
func parseBracedParam(body string) (WordPart, error) {
	indirect := false
	if strings.HasPrefix(body, "!") && len(body) > 1 {
		rest := body[1:]
		if (strings.HasSuffix(rest, "*") || strings.HasSuffix(rest, "@")) && len(rest) > 1 {
			mid := rest[:len(rest)-1]
			suf := rest[len(rest)-1:]
			if isPlainName(mid) {
				return ParameterExpansionPart{Name: mid, Op: ParamNamesMatchingPrefix, OpArg: wordLit(suf)}, nil
			}
		}
		if name, idx, ok := splitArrayKeysRef(rest); ok {
			return ParameterExpansionPart{Name: name, Index: idx, Op: ParamKeysOfArray}, nil
		}
		body = rest
		indirect = true
	}

	if strings.HasPrefix(body, "#") && len(body) > 1 {
		cand := body[1:]
		if name, idx, rem := splitNameIndex(cand); rem == "" && name != "" {
			return ParameterExpansionPart{Name: name, Index: idx, Op: ParamLength, Indirect: indirect}, nil
		}
	}

	name, idx, rest := splitNameIndex(body)
	if name == "" {
		name = body
		rest = ""
	}
	p := ParameterExpansionPart{Name: name, Index: idx, Indirect: indirect}
	if rest == "" {
		return p, nil
	}

	switch {
	case strings.HasPrefix(rest, ":-"):
		p.Op, p.OpArg = ParamDefaultUnsetOrNull, wordLit(rest[2:])
	case strings.HasPrefix(rest, ":="):
		p.Op, p.OpArg = ParamAssignUnsetOrNull, wordLit(rest[2:])
	case strings.HasPrefix(rest, ":?"):
		p.Op, p.OpArg = ParamErrorUnsetOrNull, wordLit(rest[2:])
	case strings.HasPrefix(rest, ":+"):
		p.Op, p.OpArg = ParamAltUnsetOrNull, wordLit(rest[2:])
	case strings.HasPrefix(rest, ":"):
		p.Op = ParamSubstring
		off, length := splitTop(rest[1:], ':')
		p.OpArg = wordLit(off)
		if length != "" || strings.Contains(rest[1:], ":") {
			p.OpArg2 = wordLit(length)
		}
	case strings.HasPrefix(rest, "##"):
		p.Op, p.OpArg = ParamPrefixLong, wordLit(rest[2:])
	case strings.HasPrefix(rest, "#"):
		p.Op, p.OpArg = ParamPrefixShort, wordLit(rest[1:])
	case strings.HasPrefix(rest, "%%"):
		p.Op, p.OpArg = ParamSuffixLong, wordLit(rest[2:])
	case strings.HasPrefix(rest, "%"):
		p.Op, p.OpArg = ParamSuffixShort, wordLit(rest[1:])
	case strings.HasPrefix(rest, "//"):
		pat, rep := splitUnescapedSlash(rest[2:])
		p.Op, p.OpArg, p.OpArg2 = ParamReplaceAll, wordLit(pat), wordLit(rep)
	case strings.HasPrefix(rest, "/#"):
		pat, rep := splitUnescapedSlash(rest[2:])
		p.Op, p.OpArg, p.OpArg2 = ParamReplacePrefix, wordLit(pat), wordLit(rep)
	case strings.HasPrefix(rest, "/%"):
		pat, rep := splitUnescapedSlash(rest[2:])
		p.Op, p.OpArg, p.OpArg2 = ParamReplaceSuffix, wordLit(pat), wordLit(rep)
	case strings.HasPrefix(rest, "/"):
		pat, rep := splitUnescapedSlash(rest[1:])
		p.Op, p.OpArg, p.OpArg2 = ParamReplaceOnce, wordLit(pat), wordLit(rep)
	case strings.HasPrefix(rest, "^^"):
		p.Op, p.OpArg = ParamCaseUpperAll, wordLit(rest[2:])
	case strings.HasPrefix(rest, "^"):
		p.Op, p.OpArg = ParamCaseUpperFirst, wordLit(rest[1:])
	case strings.HasPrefix(rest, ",,"):
		p.Op, p.OpArg = ParamCaseLowerAll, wordLit(rest[2:])
	case strings.HasPrefix(rest, ","):
		p.Op, p.OpArg = ParamCaseLowerFirst, wordLit(rest[1:])
	case strings.HasPrefix(rest, "@"):
		p.Op, p.OpArg = ParamTransform, wordLit(rest[1:])
	case strings.HasPrefix(rest, "-"):
		p.Op, p.OpArg = ParamDefaultUnset, wordLit(rest[1:])
	case strings.HasPrefix(rest, "="):
		p.Op, p.OpArg = ParamAssignUnset, wordLit(rest[1:])
	case strings.HasPrefix(rest, "?"):
		p.Op, p.OpArg = ParamErrorUnset, wordLit(rest[1:])
	case strings.HasPrefix(rest, "+"):
		p.Op, p.OpArg = ParamAltUnset, wordLit(rest[1:])
	}
	return p, nil
}

func wordLit(s string) *Word {
	w := parseWordText(s)
	return &w
}

func isPlainName(s string) bool {
	if s == "" {
		return false
	}
	if !isNameStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameCont(s[i]) {
			return false
		}
	}
	return true
}

// splitNameIndex splits "name[index]rest" (or "namerest") into its parts.
// Returns name=="" if body doesn't start with a recognizable name.
func splitNameIndex(body string) (name string, idx *Word, rest string) {
	if body == "" {
		return "", nil, ""
	}
	i := 0
	switch {
	case body[0] >= '0' && body[0] <= '9':
		for i < len(body) && body[i] >= '0' && body[i] <= '9' {
			i++
		}
	case strings.ContainsRune("@*#?-$!", rune(body[0])):
		i = 1
	case isNameStart(body[0]):
		i = 1
		for i < len(body) && isNameCont(body[i]) {
			i++
		}
	default:
		return "", nil, body
	}
	name = body[:i]
	if i < len(body) && body[i] == '[' {
		depth := 1
		j := i + 1
		for j < len(body) && depth > 0 {
			switch body[j] {
			case '[':
				depth++
			case ']':
				depth--
			}
			j++
		}
		idxText := body[i+1 : j-1]
		w := parseWordText(idxText)
		idx = &w
		i = j
	}
	return name, idx, body[i:]
}

func splitArrayKeysRef(body string) (string, *Word, bool) {
	if !strings.HasSuffix(body, "[@]") && !strings.HasSuffix(body, "[*]") {
		return "", nil, false
	}
	name := body[:len(body)-3]
	if !isPlainName(name) {
		return "", nil, false
	}
	idx := wordLit(body[len(body)-2 : len(body)-1])
	return name, idx, true
}

// splitTop splits s on the first top-level occurrence of sep, ignoring
// one level of (...) nesting (arithmetic substring offsets/lengths may
// themselves contain arithmetic expressions with parens).
func splitTop(s string, sep byte) (string, string) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if s[i] == sep && depth == 0 {
				return s[:i], s[i+1:]
			}
		}
	}
	return s, ""
}

// splitUnescapedSlash splits a pattern/replacement pair on the first
// unescaped, unbracketed '/' (spec.md ${x/pat/rep} family).
func splitUnescapedSlash(s string) (string, string) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case '/':
			if depth == 0 {
				return s[:i], s[i+1:]
			}
		}
	}
	return s, ""
}
