package shell

import (
	"sort"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentsh/agentsh/internal/vfs"
)

// chunk is one segment produced while expanding a Word's parts, tagged
// with whether it came from quoted context (spec.md section 8: quoting
// suppresses field splitting and pathname expansion for that segment).
// multi carries the per-element expansion of an unquoted-inside-double-
// quotes "$@"/array[@] (the one construct that must still produce several
// independent output fields despite being quoted).
type chunk struct {
	text   string
	quoted bool
	multi  []string
}

// fieldResult is one field after IFS splitting, tagged with whether any
// quoted content contributed (which makes it ineligible for globbing).
type fieldResult struct {
	text   string
	quoted bool
}

// ExpandWords runs the full six-phase expansion pipeline (spec.md 4.3)
// over a command's words: brace expansion, then per-word tilde/parameter/
// command-substitution/arithmetic expansion with IFS field splitting,
// then pathname expansion, then quote removal (quote removal happens
// implicitly: chunk text is already literal by the time it's assembled).
func ExpandWords(words []Word, s *State) ([]string, error) {
	var out []string
	for _, w := range words {
		for _, bw := range braceExpand(w) {
			fields, err := expandWordFields(bw, s)
			if err != nil {
				return nil, err
			}
			out = append(out, fields...)
		}
	}
	return out, nil
}

// ExpandWordSingle expands one word to a single string with no field
// splitting and no pathname expansion (used for assignment RHS, here-doc
// delimiters, case patterns, redirect targets, and parameter-expansion
// operands, per spec.md 4.4 "assignment values are not split or globbed").
func ExpandWordSingle(w Word, s *State) (string, error) {
	var sb strings.Builder
	for _, part := range w.Parts {
		v, err := expandPartRaw(part, s)
		if err != nil {
			return "", err
		}
		sb.WriteString(v)
	}
	return sb.String(), nil
}

func expandWordText(w *Word, s *State) (string, error) {
	if w == nil {
		return "", nil
	}
	return ExpandWordSingle(*w, s)
}

func expandWordFields(w Word, s *State) ([]string, error) {
	var chunks []chunk
	for _, part := range w.Parts {
		cs, err := expandPart(part, s, false)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, cs...)
	}
	fields := assembleFields(chunks, s.IFS)
	var out []string
	for _, f := range fields {
		if !f.quoted && hasGlobMeta(f.text) {
			matches := globVFS(s, f.text)
			if len(matches) > 0 {
				out = append(out, matches...)
				continue
			}
			if s.Shopts["nullglob"] {
				continue
			}
		}
		out = append(out, f.text)
	}
	return out, nil
}

// ---- part expansion ----

// expandPart expands one WordPart into zero or more chunks. inDouble
// marks whether this part came from inside a DoubleQuotedPart, which
// changes "$@"/"${arr[@]}" and "$*"/"${arr[*]}" semantics.
func expandPart(part WordPart, s *State, inDouble bool) ([]chunk, error) {
	switch p := part.(type) {
	case LiteralPart:
		return []chunk{{text: p.Text, quoted: inDouble}}, nil
	case SingleQuotedPart:
		return []chunk{{text: p.Text, quoted: true}}, nil
	case EscapedPart:
		return []chunk{{text: string(p.Char), quoted: true}}, nil
	case TildeExpansionPart:
		return []chunk{{text: expandTilde(p.User, s), quoted: true}}, nil
	case DoubleQuotedPart:
		var out []chunk
		for _, inner := range p.Parts {
			cs, err := expandPart(inner, s, true)
			if err != nil {
				return nil, err
			}
			out = append(out, cs...)
		}
		if len(out) == 0 {
			out = append(out, chunk{text: "", quoted: true})
		}
		return out, nil
	case ArithmeticExpansionPart:
		n, err := EvalArith(p.Expr, s)
		if err != nil {
			return nil, err
		}
		return []chunk{{text: itoa(n), quoted: inDouble}}, nil
	case CommandSubstitutionPart:
		out, err := runCommandSubstitution(p.Script, s)
		if err != nil {
			return nil, err
		}
		return []chunk{{text: out, quoted: inDouble}}, nil
	case ProcessSubstitutionPart:
		path, err := runProcessSubstitution(p, s)
		if err != nil {
			return nil, err
		}
		return []chunk{{text: path, quoted: true}}, nil
	case ParameterExpansionPart:
		return expandParameter(p, s, inDouble)
	case BraceExpansionPart:
		var texts []string
		for _, item := range p.Items {
			v, err := expandWordText(&item, s)
			if err != nil {
				return nil, err
			}
			texts = append(texts, v)
		}
		return []chunk{{text: strings.Join(texts, " "), quoted: inDouble}}, nil
	case GlobPart:
		return []chunk{{text: p.Pattern, quoted: false}}, nil
	}
	return nil, nil
}

// expandPartRaw is the no-splitting, no-multi variant used by
// ExpandWordSingle: "$@"/"$*"/array[@] always collapse to one
// space-joined string, matching assignment/operand-word semantics.
func expandPartRaw(part WordPart, s *State) (string, error) {
	switch p := part.(type) {
	case LiteralPart:
		return p.Text, nil
	case SingleQuotedPart:
		return p.Text, nil
	case EscapedPart:
		return string(p.Char), nil
	case TildeExpansionPart:
		return expandTilde(p.User, s), nil
	case DoubleQuotedPart:
		var sb strings.Builder
		for _, inner := range p.Parts {
			v, err := expandPartRaw(inner, s)
			if err != nil {
				return "", err
			}
			sb.WriteString(v)
		}
		return sb.String(), nil
	case ArithmeticExpansionPart:
		n, err := EvalArith(p.Expr, s)
		if err != nil {
			return "", err
		}
		return itoa(n), nil
	case CommandSubstitutionPart:
		return runCommandSubstitution(p.Script, s)
	case ProcessSubstitutionPart:
		return runProcessSubstitution(p, s)
	case ParameterExpansionPart:
		chunks, err := expandParameter(p, s, true)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		for _, c := range chunks {
			if c.multi != nil {
				sb.WriteString(strings.Join(c.multi, ifsJoiner(s.IFS)))
				continue
			}
			sb.WriteString(c.text)
		}
		return sb.String(), nil
	case BraceExpansionPart:
		var texts []string
		for _, item := range p.Items {
			v, err := expandWordText(&item, s)
			if err != nil {
				return "", err
			}
			texts = append(texts, v)
		}
		return strings.Join(texts, " "), nil
	case GlobPart:
		return p.Pattern, nil
	}
	return "", nil
}

func ifsJoiner(ifs string) string {
	if ifs == "" {
		return ""
	}
	return ifs[:1]
}

func expandTilde(user string, s *State) string {
	if user == "" || user == "+" {
		if home := s.Get("HOME"); home != "" {
			return home
		}
		return "/root"
	}
	if user == "-" {
		if old := s.Get("OLDPWD"); old != "" {
			return old
		}
		return "/root"
	}
	return "/home/" + user
}

// ---- parameter expansion ----

func expandParameter(p ParameterExpansionPart, s *State, inDouble bool) ([]chunk, error) {
	if p.Name == "@" || p.Name == "*" {
		return expandPositionalAll(p.Name, s.Positional, s, inDouble)
	}
	if p.Op == ParamKeysOfArray {
		v, ok := s.Lookup(p.Name)
		if !ok || v == nil || !v.IsArray() {
			return []chunk{{text: "", quoted: inDouble}}, nil
		}
		return []chunk{{text: strings.Join(arrayIndices(v), " "), quoted: inDouble}}, nil
	}
	if p.Op == ParamNamesMatchingPrefix {
		names := s.Global.namesMatchingPrefix(p.Name)
		sep := " "
		if p.OpArg != nil {
			sep2, _ := expandWordText(p.OpArg, s)
			if sep2 == "@" && inDouble {
				return []chunk{{multi: names}}, nil
			}
		}
		return []chunk{{text: strings.Join(names, sep), quoted: inDouble}}, nil
	}
	if p.Index != nil {
		idxText, err := expandWordText(p.Index, s)
		if err != nil {
			return nil, err
		}
		if idxText == "@" || idxText == "*" {
			v, ok := s.Lookup(p.Name)
			var vals []string
			if ok && v != nil && v.IsArray() {
				vals = arrayValues(v)
			} else if ok && v != nil {
				vals = []string{v.Scalar}
			}
			if idxText == "@" {
				return expandPositionalAll("@", vals, s, inDouble)
			}
			return []chunk{{text: strings.Join(vals, ifsJoinOrSpace(s)), quoted: inDouble}}, nil
		}
	}
	val, err := paramScalarValue(p, s)
	if err != nil {
		return nil, err
	}
	return []chunk{{text: val, quoted: inDouble}}, nil
}

func ifsJoinOrSpace(s *State) string {
	if s.IFS == "" {
		return ""
	}
	return s.IFS[:1]
}

func expandPositionalAll(sigil string, vals []string, s *State, inDouble bool) ([]chunk, error) {
	if sigil == "*" && inDouble {
		return []chunk{{text: strings.Join(vals, ifsJoinOrSpace(s)), quoted: true}}, nil
	}
	if inDouble {
		return []chunk{{multi: append([]string{}, vals...)}}, nil
	}
	return []chunk{{text: strings.Join(vals, " "), quoted: false}}, nil
}

// paramScalarValue resolves a plain ${name...op...} expansion (no [@]/[*]
// index) to one string, applying the operator table (spec.md section 3).
func paramScalarValue(p ParameterExpansionPart, s *State) (string, error) {
	name := p.Name
	if p.Indirect {
		name = s.Get(name)
	}
	var idxVal string
	if p.Index != nil {
		v, err := expandWordText(p.Index, s)
		if err != nil {
			return "", err
		}
		idxVal = v
	}
	raw, isSet := lookupRaw(name, idxVal, s)

	switch p.Op {
	case ParamLength:
		if v, ok := s.Lookup(name); ok && v != nil && v.IsArray() && idxVal == "" {
			return strconv.Itoa(len(arrayValues(v))), nil
		}
		return strconv.Itoa(len([]rune(raw))), nil
	case ParamDefaultUnset:
		if !isSet {
			return expandWordText(p.OpArg, s)
		}
		return raw, nil
	case ParamDefaultUnsetOrNull:
		if !isSet || raw == "" {
			return expandWordText(p.OpArg, s)
		}
		return raw, nil
	case ParamAssignUnset:
		if !isSet {
			v, err := expandWordText(p.OpArg, s)
			if err != nil {
				return "", err
			}
			return v, s.Set(name, v)
		}
		return raw, nil
	case ParamAssignUnsetOrNull:
		if !isSet || raw == "" {
			v, err := expandWordText(p.OpArg, s)
			if err != nil {
				return "", err
			}
			return v, s.Set(name, v)
		}
		return raw, nil
	case ParamErrorUnset:
		if !isSet {
			msg, _ := expandWordText(p.OpArg, s)
			if msg == "" {
				msg = "parameter null or not set"
			}
			return "", errf(1, "%s: %s", name, msg)
		}
		return raw, nil
	case ParamErrorUnsetOrNull:
		if !isSet || raw == "" {
			msg, _ := expandWordText(p.OpArg, s)
			if msg == "" {
				msg = "parameter null or not set"
			}
			return "", errf(1, "%s: %s", name, msg)
		}
		return raw, nil
	case ParamAltUnset:
		if isSet {
			return expandWordText(p.OpArg, s)
		}
		return "", nil
	case ParamAltUnsetOrNull:
		if isSet && raw != "" {
			return expandWordText(p.OpArg, s)
		}
		return "", nil
	case ParamSubstring:
		return substringOp(raw, p, s)
	case ParamPrefixShort, ParamPrefixLong:
		pat, err := expandWordText(p.OpArg, s)
		if err != nil {
			return "", err
		}
		return stripPrefix(raw, pat, p.Op == ParamPrefixLong), nil
	case ParamSuffixShort, ParamSuffixLong:
		pat, err := expandWordText(p.OpArg, s)
		if err != nil {
			return "", err
		}
		return stripSuffix(raw, pat, p.Op == ParamSuffixLong), nil
	case ParamReplaceOnce, ParamReplaceAll, ParamReplacePrefix, ParamReplaceSuffix:
		pat, err := expandWordText(p.OpArg, s)
		if err != nil {
			return "", err
		}
		rep, err := expandWordText(p.OpArg2, s)
		if err != nil {
			return "", err
		}
		return replaceOp(raw, pat, rep, p.Op), nil
	case ParamCaseUpperFirst, ParamCaseUpperAll, ParamCaseLowerFirst, ParamCaseLowerAll:
		pat := "?"
		if p.OpArg != nil {
			pv, _ := expandWordText(p.OpArg, s)
			if pv != "" {
				pat = pv
			}
		}
		return caseOp(raw, pat, p.Op), nil
	case ParamTransform:
		op, _ := expandWordText(p.OpArg, s)
		return transformOp(name, raw, op, s), nil
	default:
		return raw, nil
	}
}

// lookupRaw resolves name (optionally with an array/assoc index) to its
// current value and whether it is "set" (spec.md's unset-vs-null
// distinction, which the :- family of operators depends on).
func lookupRaw(name, idx string, s *State) (string, bool) {
	switch name {
	case "?", "$", "!", "#", "0", "RANDOM", "SECONDS":
		return s.Get(name), true
	}
	if n, ok := positionalIndex(name); ok {
		if n >= 1 && n <= len(s.Positional) {
			return s.Positional[n-1], true
		}
		return "", false
	}
	v, ok := s.Lookup(name)
	if !ok || v == nil {
		return "", false
	}
	if v.IsArray() {
		if idx == "" {
			idx = "0"
		}
		val, present := v.Elems[idx]
		return val, present
	}
	return v.Scalar, true
}

func substringOp(s string, p ParameterExpansionPart, st *State) (string, error) {
	r := []rune(s)
	offStr, err := expandWordText(p.OpArg, st)
	if err != nil {
		return "", err
	}
	off := ToNumber(offStr)
	if off < 0 {
		off += len(r)
	}
	if off < 0 {
		off = 0
	}
	if off > len(r) {
		off = len(r)
	}
	if p.OpArg2 == nil {
		return string(r[off:]), nil
	}
	lenStr, err := expandWordText(p.OpArg2, st)
	if err != nil {
		return "", err
	}
	n := ToNumber(lenStr)
	end := off + n
	if n < 0 {
		end = len(r) + n
	}
	if end > len(r) {
		end = len(r)
	}
	if end < off {
		end = off
	}
	return string(r[off:end]), nil
}

func stripPrefix(s, pat string, longest bool) string {
	best := -1
	for i := 0; i <= len(s); i++ {
		if globMatch(pat, s[:i]) {
			best = i
			if !longest {
				break
			}
		}
	}
	if best < 0 {
		return s
	}
	return s[best:]
}

func stripSuffix(s, pat string, longest bool) string {
	best := -1
	for i := len(s); i >= 0; i-- {
		if globMatch(pat, s[i:]) {
			best = i
			if !longest {
				break
			}
		}
	}
	if best < 0 {
		return s
	}
	return s[:best]
}

func replaceOp(s, pat, rep string, op ParamOp) string {
	if pat == "" {
		return s
	}
	switch op {
	case ParamReplacePrefix:
		if strings.HasPrefix(s, pat) {
			return rep + s[len(pat):]
		}
		n := len(s)
		for i := n; i >= 0; i-- {
			if globMatch(pat, s[:i]) {
				return rep + s[i:]
			}
		}
		return s
	case ParamReplaceSuffix:
		if strings.HasSuffix(s, pat) {
			return s[:len(s)-len(pat)] + rep
		}
		for i := 0; i <= len(s); i++ {
			if globMatch(pat, s[i:]) {
				return s[:i] + rep
			}
		}
		return s
	case ParamReplaceAll:
		return literalReplaceAll(s, pat, rep)
	default: // ParamReplaceOnce
		idx := strings.Index(s, pat)
		if idx < 0 {
			return s
		}
		return s[:idx] + rep + s[idx+len(pat):]
	}
}

func literalReplaceAll(s, pat, rep string) string {
	var sb strings.Builder
	for len(s) > 0 {
		idx := strings.Index(s, pat)
		if idx < 0 {
			sb.WriteString(s)
			break
		}
		sb.WriteString(s[:idx])
		sb.WriteString(rep)
		s = s[idx+len(pat):]
		if len(pat) == 0 {
			if len(s) == 0 {
				break
			}
			sb.WriteByte(s[0])
			s = s[1:]
		}
	}
	return sb.String()
}

func caseOp(s, pat string, op ParamOp) string {
	apply := func(r rune) rune {
		switch op {
		case ParamCaseUpperFirst, ParamCaseUpperAll:
			return toUpperRune(r)
		default:
			return toLowerRune(r)
		}
	}
	matches := func(r rune) bool { return pat == "?" || globMatch(pat, string(r)) }
	runes := []rune(s)
	switch op {
	case ParamCaseUpperFirst, ParamCaseLowerFirst:
		if len(runes) > 0 && matches(runes[0]) {
			runes[0] = apply(runes[0])
		}
	default:
		for i, r := range runes {
			if matches(r) {
				runes[i] = apply(r)
			}
		}
	}
	return string(runes)
}

func toUpperRune(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 32
	}
	return r
}

func toLowerRune(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + 32
	}
	return r
}

func transformOp(name, raw, op string, s *State) string {
	switch op {
	case "Q":
		return quoteForReuse(raw)
	case "U":
		return strings.ToUpper(raw)
	case "L":
		return strings.ToLower(raw)
	case "A":
		return "declare -- " + name + "=" + quoteForReuse(raw)
	case "a":
		v, _ := s.Lookup(name)
		flags := ""
		if v != nil {
			if v.Attrs&AttrInteger != 0 {
				flags += "i"
			}
			if v.Attrs&AttrArray != 0 {
				flags += "a"
			}
			if v.Attrs&AttrAssoc != 0 {
				flags += "A"
			}
			if v.Attrs&AttrReadonly != 0 {
				flags += "r"
			}
			if v.Attrs&AttrExported != 0 {
				flags += "x"
			}
		}
		return flags
	case "K", "P", "E":
		return raw
	default:
		return raw
	}
}

func quoteForReuse(s string) string {
	if s == "" {
		return "''"
	}
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		if r == '\'' {
			sb.WriteString(`'\''`)
		} else {
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

// ---- brace expansion (textual pre-pass; literal-only words) ----

func braceExpand(w Word) []Word {
	if len(w.Parts) != 1 {
		return []Word{w}
	}
	lp, ok := w.Parts[0].(LiteralPart)
	if !ok {
		return []Word{w}
	}
	texts := expandBraceText(lp.Text)
	if len(texts) == 1 && texts[0] == lp.Text {
		return []Word{w}
	}
	out := make([]Word, len(texts))
	for i, t := range texts {
		out[i] = Word{Parts: []WordPart{LiteralPart{Text: t}}}
	}
	return out
}

func expandBraceText(s string) []string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return []string{s}
	}
	depth := 1
	end := -1
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return []string{s}
	}
	prefix, body, suffix := s[:start], s[start+1:end], s[end+1:]
	items := splitBraceBody(body)
	if items == nil {
		return []string{s}
	}
	var out []string
	for _, item := range items {
		for _, sufExp := range expandBraceText(suffix) {
			out = append(out, prefix+item+sufExp)
		}
	}
	return out
}

// splitBraceBody splits "a,b,c" or "1..5" / "a..z" into expanded items.
// Returns nil if body isn't a valid brace-expansion body (no comma and no
// ".." range), signalling the caller to treat `{...}` as literal text.
func splitBraceBody(body string) []string {
	if rng := tryBraceRange(body); rng != nil {
		return rng
	}
	parts := splitTopComma(body)
	if len(parts) < 2 {
		return nil
	}
	var out []string
	for _, p := range parts {
		out = append(out, expandBraceText(p)...)
	}
	return out
}

func splitTopComma(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

func tryBraceRange(body string) []string {
	idx := strings.Index(body, "..")
	if idx < 0 {
		return nil
	}
	lo, hi := body[:idx], body[idx+2:]
	step := 1
	if si := strings.LastIndex(hi, ".."); si >= 0 {
		if n, err := strconv.Atoi(hi[si+2:]); err == nil {
			step = n
			hi = hi[:si]
		}
	}
	if loN, errL := strconv.Atoi(lo); errL == nil {
		if hiN, errH := strconv.Atoi(hi); errH == nil {
			return numericRange(loN, hiN, step, len(lo) > 1 && lo[0] == '0')
		}
	}
	if len(lo) == 1 && len(hi) == 1 {
		return charRange(lo[0], hi[0], step)
	}
	return nil
}

func numericRange(lo, hi, step int, zeroPad bool) []string {
	if step == 0 {
		step = 1
	}
	if step < 0 {
		step = -step
	}
	var out []string
	width := 0
	if zeroPad {
		width = len(strconv.Itoa(maxInt(absInt(lo), absInt(hi))))
	}
	if lo <= hi {
		for v := lo; v <= hi; v += step {
			out = append(out, padInt(v, width))
		}
	} else {
		for v := lo; v >= hi; v -= step {
			out = append(out, padInt(v, width))
		}
	}
	return out
}

func padInt(v, width int) string {
	s := strconv.Itoa(v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for len(s) < width {
		s = "0" + s
	}
	if neg {
		s = "-" + s
	}
	return s
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func charRange(lo, hi byte, step int) []string {
	if step == 0 {
		step = 1
	}
	if step < 0 {
		step = -step
	}
	var out []string
	if lo <= hi {
		for c := int(lo); c <= int(hi); c += step {
			out = append(out, string(rune(c)))
		}
	} else {
		for c := int(lo); c >= int(hi); c -= step {
			out = append(out, string(rune(c)))
		}
	}
	return out
}

// ---- IFS field splitting ----

func assembleFields(chunks []chunk, ifs string) []fieldResult {
	var fields []fieldResult
	var cur strings.Builder
	curTouched := false
	curQuoted := false
	flush := func() {
		if curTouched {
			fields = append(fields, fieldResult{text: cur.String(), quoted: curQuoted})
		}
		cur.Reset()
		curTouched = false
		curQuoted = false
	}
	for _, c := range chunks {
		if c.multi != nil {
			n := len(c.multi)
			if n == 0 {
				continue
			}
			cur.WriteString(c.multi[0])
			curTouched, curQuoted = true, true
			if n == 1 {
				continue
			}
			flush()
			for i := 1; i < n-1; i++ {
				fields = append(fields, fieldResult{text: c.multi[i], quoted: true})
			}
			cur.WriteString(c.multi[n-1])
			curTouched, curQuoted = true, true
			continue
		}
		if c.quoted {
			cur.WriteString(c.text)
			curTouched, curQuoted = true, true
			continue
		}
		if c.text == "" {
			continue
		}
		splitUnquotedRun(&cur, &curTouched, &curQuoted, &fields, c.text, ifs, flush)
	}
	flush()
	return fields
}

func ifsClasses(ifs string) (ws, nws string) {
	for _, r := range ifs {
		b := byte(r)
		if b == ' ' || b == '\t' || b == '\n' {
			ws += string(b)
		} else {
			nws += string(b)
		}
	}
	return
}

func splitUnquotedRun(cur *strings.Builder, curTouched, curQuoted *bool, fields *[]fieldResult, text, ifs string, flush func()) {
	wsSet, nwsSet := ifsClasses(ifs)
	isWS := func(b byte) bool { return strings.IndexByte(wsSet, b) >= 0 }
	isNWS := func(b byte) bool { return strings.IndexByte(nwsSet, b) >= 0 }
	isSep := func(b byte) bool { return isWS(b) || isNWS(b) }

	i, n := 0, len(text)
	if n > 0 && isSep(text[0]) {
		flush()
	}
	for i < n {
		if isSep(text[i]) {
			for i < n && isWS(text[i]) {
				i++
			}
			for i < n && isNWS(text[i]) {
				i++
				for i < n && isWS(text[i]) {
					i++
				}
				if i < n && isNWS(text[i]) {
					*fields = append(*fields, fieldResult{text: ""})
					continue
				}
				break
			}
			continue
		}
		start := i
		for i < n && !isSep(text[i]) {
			i++
		}
		cur.WriteString(text[start:i])
		*curTouched = true
		if i < n {
			flush()
		}
	}
}

// ---- pathname expansion ----

func hasGlobMeta(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[':
			return true
		}
	}
	return false
}

func globMatch(pattern, s string) bool {
	ok, err := doublestar.Match(pattern, s)
	if err != nil {
		return pattern == s
	}
	return ok
}

// globVFS expands a glob pattern against the session's virtual
// filesystem, relative to its current working directory (spec.md 4.3
// "pathname expansion"). Results are returned in sorted order; an
// unmatched pattern yields no results (caller decides fallback per
// nullglob).
func globVFS(s *State, pattern string) []string {
	if s.VFS == nil {
		return nil
	}
	abs := strings.HasPrefix(pattern, "/")
	root := "/"
	matchPattern := strings.TrimPrefix(pattern, "/")
	if !abs {
		matchPattern = pattern
	}
	var results []string
	dotglob := s.Shopts["dotglob"]
	s.VFS.Walk(root, func(p string, info vfs.FileInfo) error {
		if p == "/" {
			return nil
		}
		rel := strings.TrimPrefix(p, "/")
		var candidate string
		if abs {
			candidate = rel
		} else {
			cwdRel := strings.TrimPrefix(s.Cwd, "/")
			if cwdRel == "" {
				candidate = rel
			} else if strings.HasPrefix(rel, cwdRel+"/") {
				candidate = strings.TrimPrefix(rel, cwdRel+"/")
			} else {
				return nil
			}
		}
		if !dotglob && hasDotComponent(candidate) {
			return nil
		}
		if globMatch(matchPattern, candidate) {
			if abs {
				results = append(results, "/"+candidate)
			} else {
				results = append(results, candidate)
			}
		}
		return nil
	})
	sort.Strings(results)
	return results
}

func hasDotComponent(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// ---- command / process substitution ----

func runCommandSubstitution(script string, s *State) (string, error) {
	child := s.CloneForSubshell()
	out, err := RunCaptured(script, child)
	if err != nil {
		if _, ok := err.(*ShellError); !ok {
			return "", err
		}
	}
	s.LastStatus = child.LastStatus
	return strings.TrimRight(out, "\n"), nil
}

func runProcessSubstitution(p ProcessSubstitutionPart, s *State) (string, error) {
	if p.Dir == '<' {
		child := s.CloneForSubshell()
		out, err := RunCaptured(p.Script, child)
		if err != nil {
			if _, ok := err.(*ShellError); !ok {
				return "", err
			}
		}
		path := synthTempPath(s)
		_ = s.VFS.WriteFile(path, []byte(out), vfs.WriteOpts{})
		return path, nil
	}
	path := synthTempPath(s)
	_ = s.VFS.WriteFile(path, nil, vfs.WriteOpts{})
	return path, nil
}

var procSubstCounter int

func synthTempPath(s *State) string {
	procSubstCounter++
	return "/tmp/.procsubst-" + strconv.Itoa(procSubstCounter)
}
