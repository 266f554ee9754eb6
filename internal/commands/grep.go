package commands

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentsh/agentsh/internal/commands/archive"
)

func init() {
	register("grep", executeGrep)
	register("egrep", executeGrep)
	register("fgrep", executeFgrep)
	register("rg", executeRg)
}

// grepTypeTable is rg/grep's fixed `-t`/`-T` language-to-glob-set table
// (spec.md §4.8: "a fixed table maps language names to glob sets").
var grepTypeTable = map[string][]string{
	"rust":   {"*.rs"},
	"go":     {"*.go"},
	"py":     {"*.py"},
	"python": {"*.py"},
	"js":     {"*.js", "*.jsx", "*.mjs"},
	"ts":     {"*.ts", "*.tsx"},
	"c":      {"*.c", "*.h"},
	"cpp":    {"*.cpp", "*.cc", "*.cxx", "*.hpp", "*.hh"},
	"java":   {"*.java"},
	"md":     {"*.md", "*.markdown"},
	"json":   {"*.json"},
	"yaml":   {"*.yaml", "*.yml"},
	"sh":     {"*.sh", "*.bash"},
	"html":   {"*.html", "*.htm"},
	"css":    {"*.css"},
	"toml":   {"*.toml"},
	"txt":    {"*.txt"},
}

type caseMode int

const (
	caseSmart caseMode = iota
	caseInsensitive
	caseSensitive
)

type grepOpts struct {
	caseMode     caseMode
	invert       bool
	lineNumber   bool
	lineNumberSet bool
	countOnly    bool
	filesOnly    bool
	filesWithout bool
	fixedString  bool
	onlyMatching bool
	wholeWord    bool
	wholeLine    bool
	recursive    bool
	noIgnore     bool
	hidden       bool
	text         bool
	gzip         bool
	before       int
	after        int
	typeInclude  []string // glob patterns from -t
	typeExclude  []string // glob patterns from -T
	globInclude  []string
	globExclude  []string
}

// executeRg is the `rg` entry point: smart-case and line numbers are on
// by default, and a bare `rg pattern` walks "." recursively.
func executeRg(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	return runGrep(args, stdin, stdout, stderr, env, true, false)
}

// executeGrep is the `grep`/`egrep` entry point: POSIX defaults (no
// recursion, no default line numbers); case folding is the same smart-case
// default as rg, overridable with -i/-s.
func executeGrep(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	return runGrep(args, stdin, stdout, stderr, env, false, false)
}

// executeFgrep is `grep -F` by default (fixed-string matching).
func executeFgrep(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	return runGrep(args, stdin, stdout, stderr, env, false, true)
}

// runGrep implements the rg/grep subset spec.md §4.8 specifies: default
// path walk ("." when rg and no operand given), .gitignore/.ignore
// respect with negation (unless --no-ignore), hidden-file skip (unless
// --hidden), binary skip via NUL-byte sniff in the first 8 KiB (unless
// --text), transparent .gz read (-z), smart-case default (overridable
// with -i/-s), match/invert/only-matching/whole-word/whole-line/count/
// files-with-matches/files-without-match modes, -A/-B/-C context,
// -t/-T type filters, and rg-only default line numbers.
func runGrep(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env, isRg, defaultFixed bool) int {
	opts := grepOpts{fixedString: defaultFixed}
	var pattern string
	havePattern := false
	var paths []string

	i := 0
	for i < len(args) {
		a := args[i]
		switch {
		case a == "-i" || a == "--ignore-case":
			opts.caseMode = caseInsensitive
		case a == "-s" || a == "--case-sensitive":
			opts.caseMode = caseSensitive
		case a == "-v" || a == "--invert-match":
			opts.invert = true
		case a == "-n" || a == "--line-number":
			opts.lineNumber, opts.lineNumberSet = true, true
		case a == "-N" || a == "--no-line-number":
			opts.lineNumber, opts.lineNumberSet = false, true
		case a == "-c" || a == "--count":
			opts.countOnly = true
		case a == "-l" || a == "--files-with-matches":
			opts.filesOnly = true
		case a == "-L" || a == "--files-without-match":
			opts.filesWithout = true
		case a == "-o" || a == "--only-matching":
			opts.onlyMatching = true
		case a == "-w" || a == "--word-regexp":
			opts.wholeWord = true
		case a == "-x" || a == "--line-regexp":
			opts.wholeLine = true
		case a == "-F" || a == "--fixed-strings":
			opts.fixedString = true
		case a == "-r" || a == "-R" || a == "--recursive":
			opts.recursive = true
		case a == "-z" || a == "-Z" || a == "--search-zip":
			opts.gzip = true
		case a == "--no-ignore":
			opts.noIgnore = true
		case a == "--hidden":
			opts.hidden = true
		case a == "--text" || a == "-a":
			opts.text = true
		case a == "-A" && i+1 < len(args):
			i++
			fmt.Sscanf(args[i], "%d", &opts.after)
		case a == "-B" && i+1 < len(args):
			i++
			fmt.Sscanf(args[i], "%d", &opts.before)
		case a == "-C" && i+1 < len(args):
			i++
			var n int
			fmt.Sscanf(args[i], "%d", &n)
			opts.before, opts.after = n, n
		case a == "-t" && i+1 < len(args):
			i++
			opts.typeInclude = append(opts.typeInclude, args[i])
		case a == "-T" && i+1 < len(args):
			i++
			opts.typeExclude = append(opts.typeExclude, args[i])
		case a == "--glob" && i+1 < len(args):
			i++
			g := args[i]
			if strings.HasPrefix(g, "!") {
				opts.globExclude = append(opts.globExclude, g[1:])
			} else {
				opts.globInclude = append(opts.globInclude, g)
			}
		case a == "-e" && i+1 < len(args):
			i++
			pattern = args[i]
			havePattern = true
		case strings.HasPrefix(a, "-") && len(a) > 1 && a != "-" && havePattern:
			paths = append(paths, a)
		case !havePattern:
			pattern = a
			havePattern = true
		default:
			paths = append(paths, a)
		}
		i++
	}
	if !havePattern {
		fmt.Fprintln(stderr, "grep: missing pattern")
		return 2
	}
	if !opts.lineNumberSet {
		opts.lineNumber = isRg
	}

	re, err := compileGrepPattern(pattern, opts)
	if err != nil {
		fmt.Fprintf(stderr, "grep: invalid pattern: %v\n", err)
		return 2
	}

	g := &grepRun{re: re, opts: opts, env: env, stdout: stdout}

	// No path operand: rg walks "." recursively; grep/egrep/fgrep read
	// stdin, matching real grep's non-recursive default.
	if len(paths) == 0 {
		if isRg || opts.recursive {
			paths = []string{"."}
		} else {
			data, _ := io.ReadAll(stdin)
			matched := g.searchBytes(data, "")
			return grepStatus(matched)
		}
	}

	var targets []string
	anyDir := false
	for _, p := range paths {
		abs := env.resolve(p)
		info, err := env.VFS.Stat(abs)
		if err != nil {
			fmt.Fprintf(stderr, "grep: %s: No such file or directory\n", p)
			continue
		}
		if info.IsDir {
			anyDir = true
			found, err := g.walkDir(abs)
			if err != nil {
				fmt.Fprintf(stderr, "grep: %s: %v\n", p, err)
				continue
			}
			targets = append(targets, found...)
			continue
		}
		targets = append(targets, abs)
	}
	g.showName = len(targets) > 1 || anyDir

	matchedAny := false
	for _, abs := range targets {
		data, err := env.VFS.ReadFile(abs)
		if err != nil {
			continue
		}
		if g.searchBytes(data, abs) {
			matchedAny = true
		}
	}
	return grepStatus(matchedAny)
}

func compileGrepPattern(pattern string, opts grepOpts) (*regexp.Regexp, error) {
	reSrc := pattern
	if opts.fixedString {
		reSrc = regexp.QuoteMeta(pattern)
	}
	if opts.wholeLine {
		reSrc = "^(?:" + reSrc + ")$"
	} else if opts.wholeWord {
		reSrc = `\b(?:` + reSrc + `)\b`
	}
	switch opts.caseMode {
	case caseInsensitive:
		reSrc = "(?i)" + reSrc
	case caseSmart:
		if pattern == strings.ToLower(pattern) {
			reSrc = "(?i)" + reSrc
		}
	}
	return regexp.Compile(reSrc)
}

func grepStatus(matched bool) int {
	if matched {
		return 0
	}
	return 1
}

// grepRun carries the state one invocation's directory walk and
// per-file search share.
type grepRun struct {
	re       *regexp.Regexp
	opts     grepOpts
	env      *Env
	stdout   io.Writer
	showName bool
}

// gitignoreRule is one line from a .gitignore/.ignore file, scoped to
// the directory it was read from.
type gitignoreRule struct {
	baseDir  string
	pattern  string
	negate   bool
	anchored bool
	dirOnly  bool
}

func parseIgnoreFile(data []byte, baseDir string) []gitignoreRule {
	var rules []gitignoreRule
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		negate := false
		if strings.HasPrefix(trimmed, "!") {
			negate = true
			trimmed = trimmed[1:]
		}
		dirOnly := strings.HasSuffix(trimmed, "/")
		if dirOnly {
			trimmed = strings.TrimSuffix(trimmed, "/")
		}
		anchored := strings.Contains(trimmed, "/")
		trimmed = strings.TrimPrefix(trimmed, "/")
		rules = append(rules, gitignoreRule{baseDir: baseDir, pattern: trimmed, negate: negate, anchored: anchored, dirOnly: dirOnly})
	}
	return rules
}

func (r gitignoreRule) matches(absPath string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(absPath, r.baseDir), "/")
	if rel == "" {
		return false
	}
	if r.anchored {
		ok, _ := doublestar.Match(r.pattern, rel)
		return ok
	}
	if ok, _ := doublestar.Match(r.pattern, path.Base(rel)); ok {
		return true
	}
	ok, _ := doublestar.Match("**/"+r.pattern, rel)
	return ok
}

func ignoreMatch(rules []gitignoreRule, absPath string, isDir bool) bool {
	ignored := false
	for _, r := range rules {
		if r.matches(absPath, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

// walkDir returns the absolute paths of every regular file under root
// that survives .gitignore/.ignore filtering, hidden-file skipping, and
// the -t/-T/--glob type/glob filters.
func (g *grepRun) walkDir(root string) ([]string, error) {
	var out []string
	var recurse func(dir string, rules []gitignoreRule) error
	recurse = func(dir string, rules []gitignoreRule) error {
		if !g.opts.noIgnore {
			for _, fname := range []string{".gitignore", ".ignore"} {
				if data, err := g.env.VFS.ReadFile(path.Join(dir, fname)); err == nil {
					rules = append(rules, parseIgnoreFile(data, dir)...)
				}
			}
		}
		names, err := g.env.VFS.Readdir(dir)
		if err != nil {
			return err
		}
		for _, name := range names {
			abs := path.Join(dir, name)
			if strings.HasPrefix(name, ".") && !g.opts.hidden {
				continue
			}
			info, err := g.env.VFS.Lstat(abs)
			if err != nil {
				continue
			}
			if !g.opts.noIgnore && ignoreMatch(rules, abs, info.IsDir) {
				continue
			}
			if info.IsDir {
				if err := recurse(abs, rules); err != nil {
					return err
				}
				continue
			}
			if info.IsLink {
				continue
			}
			if !g.passesTypeFilter(name) || !g.passesGlobFilter(root, abs) {
				continue
			}
			out = append(out, abs)
		}
		return nil
	}
	if err := recurse(root, nil); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (g *grepRun) passesTypeFilter(name string) bool {
	match := func(globs []string) bool {
		for _, pat := range globs {
			if ok, _ := doublestar.Match(pat, name); ok {
				return true
			}
		}
		return false
	}
	for _, t := range g.opts.typeExclude {
		if match(grepTypeTable[t]) {
			return false
		}
	}
	if len(g.opts.typeInclude) == 0 {
		return true
	}
	for _, t := range g.opts.typeInclude {
		if match(grepTypeTable[t]) {
			return true
		}
	}
	return false
}

func (g *grepRun) passesGlobFilter(root, abs string) bool {
	rel := strings.TrimPrefix(strings.TrimPrefix(abs, root), "/")
	for _, pat := range g.opts.globExclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return false
		}
	}
	if len(g.opts.globInclude) == 0 {
		return true
	}
	for _, pat := range g.opts.globInclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

const binarySniffWindow = 8192

func looksBinary(data []byte) bool {
	n := len(data)
	if n > binarySniffWindow {
		n = binarySniffWindow
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

// searchBytes runs the match loop against one input's full content
// (decompressing transparently first when -z and the name looks
// gzip-compressed), printing per spec.md's output modes.
func (g *grepRun) searchBytes(data []byte, name string) bool {
	if g.opts.gzip && (name == "" || strings.HasSuffix(name, ".gz")) {
		if archive.SniffCodec(data) == archive.CodecGzip {
			if dec, err := archive.Decompress(archive.CodecGzip, data); err == nil {
				data = dec
			}
		}
	}
	if looksBinary(data) && !g.opts.text {
		if g.re.Match(data) != g.opts.invert {
			label := name
			if label == "" {
				label = "(standard input)"
			}
			fmt.Fprintf(g.stdout, "binary file %s matches\n", label)
			return true
		}
		return false
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if string(data) == "" {
		lines = nil
	}
	prefix := func(lineNo int) string {
		p := ""
		if g.showName && name != "" {
			p += name + ":"
		}
		if g.opts.lineNumber {
			p += fmt.Sprintf("%d:", lineNo+1)
		}
		return p
	}

	count := 0
	matched := false
	printed := map[int]bool{}
	for idx, line := range lines {
		hit := g.re.MatchString(line)
		if g.opts.invert {
			hit = !hit
		}
		if !hit {
			continue
		}
		matched = true
		count++
		if g.opts.countOnly || g.opts.filesOnly || g.opts.filesWithout {
			continue
		}
		if g.opts.onlyMatching && !g.opts.invert {
			for _, m := range g.re.FindAllString(line, -1) {
				fmt.Fprintf(g.stdout, "%s%s\n", prefix(idx), m)
			}
			continue
		}
		lo, hi := idx-g.opts.before, idx+g.opts.after
		if lo < 0 {
			lo = 0
		}
		if hi >= len(lines) {
			hi = len(lines) - 1
		}
		for k := lo; k <= hi; k++ {
			if printed[k] {
				continue
			}
			printed[k] = true
			fmt.Fprintf(g.stdout, "%s%s\n", prefix(k), lines[k])
		}
	}

	if g.opts.filesWithout {
		if !matched {
			fmt.Fprintln(g.stdout, displayName(name))
		}
		return !matched
	}
	if g.opts.filesOnly {
		if matched {
			fmt.Fprintln(g.stdout, displayName(name))
		}
		return matched
	}
	if g.opts.countOnly {
		p := ""
		if g.showName && name != "" {
			p = name + ":"
		}
		fmt.Fprintf(g.stdout, "%s%d\n", p, count)
	}
	return matched
}

func displayName(name string) string {
	if name == "" {
		return "(standard input)"
	}
	return name
}
