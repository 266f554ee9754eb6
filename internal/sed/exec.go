package sed

import (
	"fmt"
	"regexp"
	"strings"
)

// Limits bounds branch-loop iterations per cycle (spec.md §4.7
// "Limits": "a branch iteration counter per line bounds infinite loops
// like `:a;ba`").
type Limits struct {
	MaxBranches int
}

func DefaultLimits() Limits { return Limits{MaxBranches: 200_000} }

// LimitError is raised when a cycle's branch-iteration bound is hit.
type LimitError struct{ Msg string }

func (e *LimitError) Error() string { return e.Msg }

// FileIO lets the host read `r`/`R` source files and capture `w`/`W`
// sink files without internal/sed depending on any particular
// filesystem — internal/commands/sed.go wires this to the vfs.
type FileIO struct {
	ReadFile  func(name string) ([]byte, error)
	WriteFile func(name string, data []byte) error
}

// Runner executes a compiled Script against input lines.
type Runner struct {
	Script       *Script
	AutoPrint    bool
	Limits       Limits
	Files        FileIO
	writeBuffers map[string][]byte

	lines         []string
	lineNo        int
	patternSp     string
	holdSp        string
	lastAddrRegex *regexp.Regexp // last regex used by an address or `s`, reused by an empty `//`
	appendQueue   []string
	quit          bool
	quitCode      int
	out           *strings.Builder
	substituted   bool
}

// Run executes the script over the given input lines (already split on
// newlines by the caller, matching the "materialise before next stage"
// model the rest of this module uses) and returns the produced output
// plus an exit code.
func (r *Runner) Run(lines []string) (string, int, error) {
	r.lines = lines
	r.out = &strings.Builder{}
	r.writeBuffers = map[string][]byte{}
	for i := range r.lines {
		r.lineNo = i + 1
		r.patternSp = r.lines[i]
		r.appendQueue = nil
		if err := r.runCycle(); err != nil {
			if le, ok := err.(*LimitError); ok {
				return r.out.String(), 1, le
			}
			return r.out.String(), 1, err
		}
		if r.quit {
			break
		}
	}
	return r.out.String(), r.quitCode, nil
}

func (r *Runner) isLastLine() bool { return r.lineNo >= len(r.lines) }

func (r *Runner) runCycle() error {
	pc := 0
	branches := 0
	deleted := false
restart:
	for pc < len(r.Script.cmds) {
		c := r.Script.cmds[pc]
		match := r.addrMatches(c)
		if c.name == '{' {
			if !match {
				pc = c.groupEnd
				continue
			}
			pc++
			continue
		}
		if !match {
			pc++
			continue
		}
		switch c.name {
		case 's':
			r.execSubstitute(c)
		case 'y':
			r.execTransliterate(c)
		case 'p':
			r.out.WriteString(r.patternSp)
			r.out.WriteByte('\n')
		case 'P':
			s := r.patternSp
			if idx := strings.IndexByte(s, '\n'); idx >= 0 {
				s = s[:idx]
			}
			r.out.WriteString(s)
			r.out.WriteByte('\n')
		case 'd':
			deleted = true
			break restart
		case 'D':
			if idx := strings.IndexByte(r.patternSp, '\n'); idx >= 0 {
				r.patternSp = r.patternSp[idx+1:]
				pc = 0
				branches = 0
				continue
			}
			deleted = true
			break restart
		case 'a':
			r.appendQueue = append(r.appendQueue, c.text)
		case 'i':
			r.out.WriteString(c.text)
			r.out.WriteByte('\n')
		case 'c':
			if c.addr2 == nil || !c.rangeActive {
				r.out.WriteString(c.text)
				r.out.WriteByte('\n')
			}
			deleted = true
			break restart
		case 'h':
			r.holdSp = r.patternSp
		case 'H':
			r.holdSp = r.holdSp + "\n" + r.patternSp
		case 'g':
			r.patternSp = r.holdSp
		case 'G':
			r.patternSp = r.patternSp + "\n" + r.holdSp
		case 'x':
			r.patternSp, r.holdSp = r.holdSp, r.patternSp
		case 'n':
			r.flushAutoPrint()
			if r.isLastLine() {
				r.quit = true
				deleted = true
				break restart
			}
			r.lineNo++
			r.patternSp = r.lines[r.lineNo-1]
		case 'N':
			if r.isLastLine() {
				break restart
			}
			r.lineNo++
			r.patternSp = r.patternSp + "\n" + r.lines[r.lineNo-1]
		case 'q':
			r.quit = true
			if c.hasCode {
				r.quitCode = c.exitCode
			}
			break restart
		case 'Q':
			r.quit = true
			deleted = true
			if c.hasCode {
				r.quitCode = c.exitCode
			}
			break restart
		case 'z':
			r.patternSp = ""
		case '=':
			fmt.Fprintf(r.out, "%d\n", r.lineNo)
		case 'l':
			r.out.WriteString(visualize(r.patternSp))
			r.out.WriteByte('\n')
		case 'F':
			r.out.WriteString("-\n")
		case 'b':
			branches++
			if branches > r.Limits.MaxBranches {
				return &LimitError{Msg: "sed: exceeded maximum branch iterations"}
			}
			if c.label == "" {
				break restart
			}
			pc = r.Script.labels[c.label]
			continue
		case 't':
			branches++
			if branches > r.Limits.MaxBranches {
				return &LimitError{Msg: "sed: exceeded maximum branch iterations"}
			}
			if r.substituted {
				r.substituted = false
				if c.label == "" {
					break restart
				}
				pc = r.Script.labels[c.label]
				continue
			}
		case 'T':
			branches++
			if branches > r.Limits.MaxBranches {
				return &LimitError{Msg: "sed: exceeded maximum branch iterations"}
			}
			if !r.substituted {
				if c.label == "" {
					break restart
				}
				pc = r.Script.labels[c.label]
				continue
			}
			r.substituted = false
		case 'r':
			if r.Files.ReadFile != nil {
				if data, err := r.Files.ReadFile(c.file); err == nil {
					r.appendQueue = append(r.appendQueue, strings.TrimSuffix(string(data), "\n"))
				}
			}
		case 'R':
			// one line per invocation is not tracked across cycles in
			// this simplified model; read-and-append the whole file
			// once, matching `r`'s behavior as a documented shortcut.
			if r.Files.ReadFile != nil {
				if data, err := r.Files.ReadFile(c.file); err == nil {
					lines := strings.SplitN(string(data), "\n", 2)
					r.appendQueue = append(r.appendQueue, lines[0])
				}
			}
		case 'w':
			r.writeBuffers[c.file] = append(r.writeBuffers[c.file], []byte(r.patternSp+"\n")...)
		case 'W':
			s := r.patternSp
			if idx := strings.IndexByte(s, '\n'); idx >= 0 {
				s = s[:idx]
			}
			r.writeBuffers[c.file] = append(r.writeBuffers[c.file], []byte(s+"\n")...)
		case 'e':
			// system command execution is not available in the
			// sandboxed evaluator; `e` is a no-op here.
		}
		pc++
	}
	if !deleted && r.AutoPrint {
		r.out.WriteString(r.patternSp)
		r.out.WriteByte('\n')
	}
	for _, a := range r.appendQueue {
		r.out.WriteString(a)
		r.out.WriteByte('\n')
	}
	for name, data := range r.writeBuffers {
		if r.Files.WriteFile != nil {
			r.Files.WriteFile(name, data)
		}
	}
	return nil
}

func (r *Runner) flushAutoPrint() {
	if r.AutoPrint {
		r.out.WriteString(r.patternSp)
		r.out.WriteByte('\n')
	}
	for _, a := range r.appendQueue {
		r.out.WriteString(a)
		r.out.WriteByte('\n')
	}
	r.appendQueue = nil
}

func visualize(s string) string {
	var sb strings.Builder
	for _, c := range []byte(s) {
		switch c {
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 32 || c >= 127 {
				fmt.Fprintf(&sb, `\%03o`, c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteString("$")
	return sb.String()
}

func (r *Runner) execSubstitute(c *cmd) {
	r.lastAddrRegex = c.re
	matches := c.re.FindAllStringSubmatchIndex(r.patternSp, -1)
	if len(matches) == 0 {
		return
	}
	nth := c.sNth
	if nth == 0 {
		nth = 1
	}
	var sb strings.Builder
	pos := 0
	did := false
	for i, m := range matches {
		idx := i + 1
		if idx < nth {
			continue
		}
		if idx > nth && !c.sGlobal {
			break
		}
		sb.WriteString(r.patternSp[pos:m[0]])
		sb.WriteString(expandReplacement(c.repl, r.patternSp, m))
		pos = m[1]
		did = true
	}
	if !did {
		return
	}
	sb.WriteString(r.patternSp[pos:])
	r.patternSp = sb.String()
	r.substituted = true
	if c.sPrint {
		r.out.WriteString(r.patternSp)
		r.out.WriteByte('\n')
	}
	if c.file != "" {
		r.writeBuffers[c.file] = append(r.writeBuffers[c.file], []byte(r.patternSp+"\n")...)
	}
}

func expandReplacement(repl, s string, m []int) string {
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
			sb.WriteByte(n)
			i++
			continue
		}
		if c == '&' {
			sb.WriteString(s[m[0]:m[1]])
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func (r *Runner) execTransliterate(c *cmd) {
	runes := []rune(r.patternSp)
	for i, ch := range runes {
		for j, from := range c.yFrom {
			if ch == from {
				runes[i] = c.yTo[j]
				break
			}
		}
	}
	r.patternSp = string(runes)
}

func (r *Runner) addrMatches(c *cmd) bool {
	if c.addr1 == nil {
		return true
	}
	var result bool
	if c.addr2 == nil {
		result = r.addrHit(c.addr1)
	} else {
		result = r.rangeMatches(c)
	}
	if c.negate {
		result = !result
	}
	return result
}

func (r *Runner) addrHit(a *address) bool {
	switch a.kind {
	case addrLine:
		return r.lineNo == a.line
	case addrLast:
		return r.isLastLine()
	case addrRegex:
		re := a.re
		if re == nil {
			re = r.lastAddrRegex
		}
		if re == nil {
			return false
		}
		r.lastAddrRegex = re
		return re.MatchString(r.patternSp)
	case addrStep:
		if a.step <= 0 {
			return r.lineNo == a.line
		}
		return r.lineNo >= a.line && (r.lineNo-a.line)%a.step == 0
	}
	return false
}

func (r *Runner) rangeMatches(c *cmd) bool {
	if !c.rangeActive {
		if c.addr1.kind == addrLine && c.addr1.line == 0 {
			c.rangeActive = true
			c.rangeStartLine = 0
		} else if r.addrHit(c.addr1) {
			c.rangeActive = true
			c.rangeStartLine = r.lineNo
			if c.addr2.kind == addrLine && c.addr2.line <= r.lineNo {
				c.rangeActive = false
			} else if c.addr2.kind == addrPlus {
				c.rangeEndLine = r.lineNo + c.addr2.line
				if c.addr2.line == 0 {
					c.rangeActive = false
				}
			} else if c.addr2.kind == addrTilde {
				step := c.addr2.line
				if step <= 0 {
					c.rangeActive = false
				} else {
					end := ((r.lineNo / step) + 1) * step
					c.rangeEndLine = end
				}
			}
			return true
		} else {
			return false
		}
	}
	switch c.addr2.kind {
	case addrLine:
		if r.lineNo >= c.addr2.line {
			c.rangeActive = false
		}
	case addrLast:
		if r.isLastLine() {
			c.rangeActive = false
		}
	case addrRegex:
		if c.addr2.re != nil && c.addr2.re.MatchString(r.patternSp) {
			c.rangeActive = false
		}
	case addrPlus, addrTilde:
		if r.lineNo >= c.rangeEndLine {
			c.rangeActive = false
		}
	}
	return true
}
