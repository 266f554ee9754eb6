package awk

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strings"
)

// callBuiltin dispatches the fixed awk function library (spec.md §4.6
// "Builtin functions"). Functions that need lvalue semantics (split,
// sub, gsub, gensub, match) take the raw argument expressions so they
// can write back into arrays/fields/variables.
func (it *Interp) callBuiltin(name string, args []Expr) (value, error) {
	switch name {
	case "length":
		return it.biLength(args)
	case "substr":
		return it.biSubstr(args)
	case "index":
		return it.biIndex(args)
	case "split":
		return it.biSplit(args)
	case "sub":
		return it.biSub(args, false)
	case "gsub":
		return it.biSub(args, true)
	case "gensub":
		return it.biGensub(args)
	case "match":
		return it.biMatch(args)
	case "sprintf":
		return it.biSprintf(args)
	case "tolower":
		v, err := it.argStr(args, 0)
		if err != nil {
			return value{}, err
		}
		return strVal(strings.ToLower(v)), nil
	case "toupper":
		v, err := it.argStr(args, 0)
		if err != nil {
			return value{}, err
		}
		return strVal(strings.ToUpper(v)), nil
	case "sin":
		return it.math1(args, math.Sin)
	case "cos":
		return it.math1(args, math.Cos)
	case "log":
		return it.math1(args, math.Log)
	case "exp":
		return it.math1(args, math.Exp)
	case "sqrt":
		return it.math1(args, math.Sqrt)
	case "int":
		return it.math1(args, math.Trunc)
	case "atan2":
		a, err := it.argNum(args, 0)
		if err != nil {
			return value{}, err
		}
		b, err := it.argNum(args, 1)
		if err != nil {
			return value{}, err
		}
		return numVal(math.Atan2(a, b)), nil
	case "rand":
		return numVal(it.rng.Float64()), nil
	case "srand":
		prev := it.randSeed
		if len(args) > 0 {
			n, err := it.argNum(args, 0)
			if err != nil {
				return value{}, err
			}
			it.randSeed = int64(n)
		} else {
			it.randSeed++
		}
		it.rng = rand.New(rand.NewSource(it.randSeed))
		return numVal(float64(prev)), nil
	case "system":
		return numVal(-1), nil
	case "close":
		return numVal(0), nil
	case "fflush":
		return numVal(0), nil
	}
	return value{}, fmt.Errorf("awk: call to undefined function %q", name)
}

func (it *Interp) argStr(args []Expr, i int) (string, error) {
	if i >= len(args) {
		return "", nil
	}
	v, err := it.eval(args[i])
	if err != nil {
		return "", err
	}
	return v.toStr(it.convfmt()), nil
}

func (it *Interp) argNum(args []Expr, i int) (float64, error) {
	if i >= len(args) {
		return 0, nil
	}
	v, err := it.eval(args[i])
	if err != nil {
		return 0, err
	}
	return v.toNum(), nil
}

func (it *Interp) math1(args []Expr, fn func(float64) float64) (value, error) {
	n, err := it.argNum(args, 0)
	if err != nil {
		return value{}, err
	}
	return numVal(fn(n)), nil
}

func (it *Interp) biLength(args []Expr) (value, error) {
	if len(args) == 0 {
		return numVal(float64(len(it.record))), nil
	}
	if vr, ok := args[0].(*VarRef); ok && it.arrayExists(vr.Name) {
		return numVal(float64(len(it.getArray(vr.Name)))), nil
	}
	s, err := it.argStr(args, 0)
	if err != nil {
		return value{}, err
	}
	return numVal(float64(len(s))), nil
}

func (it *Interp) biSubstr(args []Expr) (value, error) {
	s, err := it.argStr(args, 0)
	if err != nil {
		return value{}, err
	}
	runes := []rune(s)
	m, err := it.argNum(args, 1)
	if err != nil {
		return value{}, err
	}
	start := int(math.Floor(m + 0.5))
	length := len(runes) - start + 1
	hasLen := len(args) > 2
	if hasLen {
		ln, err := it.argNum(args, 2)
		if err != nil {
			return value{}, err
		}
		length = int(math.Floor(ln + 0.5))
	}
	end := start + length
	if start < 1 {
		start = 1
	}
	if end > len(runes)+1 {
		end = len(runes) + 1
	}
	if end <= start || start > len(runes) {
		return strVal(""), nil
	}
	return strVal(string(runes[start-1 : end-1])), nil
}

func (it *Interp) biIndex(args []Expr) (value, error) {
	s, err := it.argStr(args, 0)
	if err != nil {
		return value{}, err
	}
	t, err := it.argStr(args, 1)
	if err != nil {
		return value{}, err
	}
	if t == "" {
		return numVal(1), nil
	}
	idx := strings.Index(s, t)
	return numVal(float64(idx + 1)), nil
}

func (it *Interp) biSplit(args []Expr) (value, error) {
	s, err := it.argStr(args, 0)
	if err != nil {
		return value{}, err
	}
	if len(args) < 2 {
		return value{}, fmt.Errorf("awk: split requires an array argument")
	}
	vr, ok := args[1].(*VarRef)
	if !ok {
		return value{}, fmt.Errorf("awk: split's second argument must be an array")
	}
	arr := it.getArray(vr.Name)
	for k := range arr {
		delete(arr, k)
	}
	var parts []string
	if len(args) > 2 {
		fs, err := it.evalRegexOperand(args[2])
		if err != nil {
			return value{}, err
		}
		parts = it.splitWithFS(s, fs)
	} else {
		parts = it.splitFS(s)
	}
	for i, p := range parts {
		arr[fmt.Sprintf("%d", i+1)] = strnumVal(p)
	}
	return numVal(float64(len(parts))), nil
}

func (it *Interp) splitWithFS(s, fs string) []string {
	if fs == " " {
		return strings.Fields(s)
	}
	if s == "" {
		return nil
	}
	if len(fs) == 1 && fs != "\\" {
		return strings.Split(s, fs)
	}
	re, err := it.getRegex(fs)
	if err != nil {
		return strings.Split(s, fs)
	}
	return re.Split(s, -1)
}

// biSub implements sub/gsub: args[0]=regex, args[1]=replacement,
// args[2]=target (optional lvalue, defaults to $0). `&` in the
// replacement is the matched text, `\&` is a literal ampersand.
func (it *Interp) biSub(args []Expr, global bool) (value, error) {
	pat, err := it.evalRegexOperand(args[0])
	if err != nil {
		return value{}, err
	}
	repl, err := it.argStr(args, 1)
	if err != nil {
		return value{}, err
	}
	var target Expr = &FieldRef{Index: &NumLit{Value: 0}}
	if len(args) > 2 {
		target = args[2]
	}
	cur, err := it.eval(target)
	if err != nil {
		return value{}, err
	}
	re, err := it.getRegex(pat)
	if err != nil {
		return value{}, err
	}
	s := cur.toStr(it.convfmt())
	count := 0
	out := substituteMatches(re, s, repl, global, &count)
	if count > 0 {
		if err := it.assignTo(target, strVal(out)); err != nil {
			return value{}, err
		}
	}
	return numVal(float64(count)), nil
}

// substituteMatches applies sub/gsub replacement semantics: `&` in repl
// stands for the matched text, `\&` is a literal ampersand, `\\` a
// literal backslash. An empty match advances one byte to avoid looping
// forever, matching awk's usual gsub-on-empty-pattern behavior.
func substituteMatches(re *regexp.Regexp, s, repl string, global bool, count *int) string {
	var sb strings.Builder
	pos := 0
	for pos <= len(s) {
		loc := re.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		sb.WriteString(s[pos:start])
		sb.WriteString(expandRepl(repl, s[start:end]))
		*count++
		if end == start {
			if end < len(s) {
				sb.WriteByte(s[end])
			}
			pos = end + 1
		} else {
			pos = end
		}
		if !global {
			break
		}
	}
	if pos <= len(s) {
		sb.WriteString(s[pos:])
	}
	return sb.String()
}

func expandRepl(repl, matched string) string {
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if c == '\\' && i+1 < len(repl) && (repl[i+1] == '&' || repl[i+1] == '\\') {
			sb.WriteByte(repl[i+1])
			i++
			continue
		}
		if c == '&' {
			sb.WriteString(matched)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func (it *Interp) biGensub(args []Expr) (value, error) {
	pat, err := it.evalRegexOperand(args[0])
	if err != nil {
		return value{}, err
	}
	repl, err := it.argStr(args, 1)
	if err != nil {
		return value{}, err
	}
	howStr, err := it.argStr(args, 2)
	if err != nil {
		return value{}, err
	}
	var target string
	if len(args) > 3 {
		target, err = it.argStr(args, 3)
		if err != nil {
			return value{}, err
		}
	} else {
		target = it.record
	}
	re, err := it.getRegex(pat)
	if err != nil {
		return value{}, err
	}
	global := howStr == "g" || howStr == "G"
	nth := 1
	if !global {
		if n, ok := looksLikeNumber(howStr); ok && n >= 1 {
			nth = int(n)
		}
	}
	result := gensubApply(re, target, repl, global, nth)
	return strVal(result), nil
}

func (it *Interp) biMatch(args []Expr) (value, error) {
	s, err := it.argStr(args, 0)
	if err != nil {
		return value{}, err
	}
	pat, err := it.evalRegexOperand(args[1])
	if err != nil {
		return value{}, err
	}
	re, err := it.getRegex(pat)
	if err != nil {
		return value{}, err
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		it.setScalar("RSTART", numVal(0))
		it.setScalar("RLENGTH", numVal(-1))
		return numVal(0), nil
	}
	it.setScalar("RSTART", numVal(float64(loc[0]+1)))
	it.setScalar("RLENGTH", numVal(float64(loc[1]-loc[0])))
	return numVal(float64(loc[0] + 1)), nil
}

func (it *Interp) biSprintf(args []Expr) (value, error) {
	if len(args) == 0 {
		return strVal(""), nil
	}
	format, err := it.argStr(args, 0)
	if err != nil {
		return value{}, err
	}
	var vals []value
	for _, a := range args[1:] {
		v, err := it.eval(a)
		if err != nil {
			return value{}, err
		}
		vals = append(vals, v)
	}
	return strVal(sprintf(format, vals)), nil
}

// evalGetline implements the in-memory/file-sourced getline forms
// supported by the sandboxed evaluator (spec.md §4.6: reading from the
// main input stream, or from a named source supplied by the host).
func (it *Interp) evalGetline(n *Getline) (value, error) {
	var line string
	var ok bool
	switch n.Mode {
	case "file":
		srcVal, err := it.eval(n.Source)
		if err != nil {
			return value{}, err
		}
		name := srcVal.toStr(it.convfmt())
		data, cached, err := it.getlineFileData(name)
		if err != nil {
			return numVal(-1), nil
		}
		if cached.pos >= len(data) {
			return numVal(0), nil
		}
		idx := bytes.IndexByte(data[cached.pos:], '\n')
		if idx < 0 {
			line = string(data[cached.pos:])
			cached.pos = len(data)
		} else {
			line = string(data[cached.pos : cached.pos+idx])
			cached.pos += idx + 1
		}
		ok = true
	default:
		line, ok = it.readRecord()
		if ok {
			it.setScalar("NR", numVal(it.getScalar("NR").toNum()+1))
			it.setScalar("FNR", numVal(it.getScalar("FNR").toNum()+1))
		}
	}
	if !ok {
		return numVal(0), nil
	}
	if n.Target == nil {
		it.setRecord(line)
	} else {
		if err := it.assignTo(n.Target, strnumVal(line)); err != nil {
			return value{}, err
		}
	}
	return numVal(1), nil
}

type getlineCursor struct {
	pos int
}

func (it *Interp) getlineFileData(name string) ([]byte, *getlineCursor, error) {
	if it.getlineCursors == nil {
		it.getlineCursors = map[string]*getlineCursor{}
	}
	if it.getlineFileCache == nil {
		it.getlineFileCache = map[string][]byte{}
	}
	data, have := it.getlineFileCache[name]
	if !have {
		if it.GetlineFile == nil {
			return nil, nil, fmt.Errorf("awk: no file source available")
		}
		d, err := it.GetlineFile(name)
		if err != nil {
			return nil, nil, err
		}
		data = d
		it.getlineFileCache[name] = data
	}
	cur, ok := it.getlineCursors[name]
	if !ok {
		cur = &getlineCursor{}
		it.getlineCursors[name] = cur
	}
	return data, cur, nil
}

// gensubApply implements gensub's nth-match-or-global replacement with
// \0-\9 backreferences in addition to & / \& (spec.md §4.6 gensub note).
func gensubApply(re *regexp.Regexp, s, repl string, global bool, nth int) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}
	var sb strings.Builder
	pos := 0
	for i, m := range matches {
		if !global && i+1 != nth {
			continue
		}
		sb.WriteString(s[pos:m[0]])
		sb.WriteString(expandGensubRepl(repl, s, m))
		pos = m[1]
	}
	sb.WriteString(s[pos:])
	return sb.String()
}

func expandGensubRepl(repl, s string, m []int) string {
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		c := repl[i]
		if c == '\\' && i+1 < len(repl) {
			n := repl[i+1]
			if n >= '0' && n <= '9' {
				g := int(n - '0')
				if 2*g+1 < len(m) && m[2*g] >= 0 {
					sb.WriteString(s[m[2*g]:m[2*g+1]])
				}
				i++
				continue
			}
			if n == '&' || n == '\\' {
				sb.WriteByte(n)
				i++
				continue
			}
		}
		if c == '&' {
			sb.WriteString(s[m[0]:m[1]])
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
