package sed

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type parser struct {
	src      string
	pos      int
	lineNo   int
	extended bool
}

// ParseScript compiles sed source into a runnable Script (spec.md §4.7
// "the cycle engine maintains a label table built during parse").
func ParseScript(src string, extended bool) (*Script, error) {
	p := &parser{src: src, lineNo: 1, extended: extended}
	sc := &Script{labels: map[string]int{}}
	var groupStack []int

	for {
		p.skipBlank()
		if p.eof() {
			break
		}
		if p.cur() == '}' {
			p.advance()
			if len(groupStack) == 0 {
				return nil, fmt.Errorf("sed: unexpected `}'")
			}
			openIdx := groupStack[len(groupStack)-1]
			groupStack = groupStack[:len(groupStack)-1]
			sc.cmds[openIdx].groupEnd = len(sc.cmds)
			continue
		}
		if p.cur() == ':' {
			p.advance()
			name := p.readLabelName()
			sc.labels[name] = len(sc.cmds)
			continue
		}
		c, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		sc.cmds = append(sc.cmds, c)
		if c.name == '{' {
			groupStack = append(groupStack, len(sc.cmds)-1)
		}
	}
	if len(groupStack) != 0 {
		return nil, fmt.Errorf("sed: unmatched `{'")
	}
	for _, c := range sc.cmds {
		if c.name == 'b' || c.name == 't' || c.name == 'T' {
			if c.label != "" {
				if _, ok := sc.labels[c.label]; !ok {
					return nil, fmt.Errorf("sed: can't find label for jump to `%s'", c.label)
				}
			}
		}
	}
	return sc, nil
}

func (p *parser) eof() bool      { return p.pos >= len(p.src) }
func (p *parser) cur() byte      { return p.src[p.pos] }
func (p *parser) advance()       { if !p.eof() { if p.src[p.pos] == '\n' { p.lineNo++ }; p.pos++ } }
func (p *parser) peekAt(n int) byte {
	if p.pos+n >= len(p.src) {
		return 0
	}
	return p.src[p.pos+n]
}

func (p *parser) skipBlank() {
	for !p.eof() {
		c := p.cur()
		if c == ' ' || c == '\t' || c == '\n' || c == ';' {
			p.advance()
			continue
		}
		if c == '#' {
			for !p.eof() && p.cur() != '\n' {
				p.advance()
			}
			continue
		}
		break
	}
}

func (p *parser) skipInlineSpace() {
	for !p.eof() && (p.cur() == ' ' || p.cur() == '\t') {
		p.advance()
	}
}

func (p *parser) readLabelName() string {
	start := p.pos
	for !p.eof() && p.cur() != '\n' && p.cur() != ';' && p.cur() != ' ' && p.cur() != '\t' {
		p.advance()
	}
	return p.src[start:p.pos]
}

func (p *parser) parseCommand() (*cmd, error) {
	a1, err := p.parseAddress()
	if err != nil {
		return nil, err
	}
	var a2 *address
	p.skipInlineSpace()
	if a1 != nil && !p.eof() && p.cur() == ',' {
		p.advance()
		p.skipInlineSpace()
		a2, err = p.parseAddress()
		if err != nil {
			return nil, err
		}
		if a2 == nil {
			return nil, fmt.Errorf("sed: expected address after `,'")
		}
	}
	p.skipInlineSpace()
	negate := false
	for !p.eof() && p.cur() == '!' {
		negate = !negate
		p.advance()
		p.skipInlineSpace()
	}
	if p.eof() {
		if a1 == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("sed: missing command")
	}
	name := p.cur()
	c := &cmd{addr1: a1, addr2: a2, negate: negate, name: name}
	p.advance()
	switch name {
	case '{':
		return c, nil
	case 's':
		if err := p.parseSubstitute(c); err != nil {
			return nil, err
		}
	case 'y':
		if err := p.parseTransliterate(c); err != nil {
			return nil, err
		}
	case 'a', 'i', 'c':
		text, err := p.readText()
		if err != nil {
			return nil, err
		}
		c.text = text
	case 'b', 't', 'T':
		p.skipInlineSpace()
		c.label = p.readLabelName()
	case 'r', 'R', 'w', 'W':
		p.skipInlineSpace()
		c.file = p.readRestOfLine()
	case 'q', 'Q':
		p.skipInlineSpace()
		if !p.eof() && p.cur() >= '0' && p.cur() <= '9' {
			start := p.pos
			for !p.eof() && p.cur() >= '0' && p.cur() <= '9' {
				p.advance()
			}
			n, _ := strconv.Atoi(p.src[start:p.pos])
			c.exitCode = n
			c.hasCode = true
		}
	case 'p', 'P', 'd', 'D', 'h', 'H', 'g', 'G', 'x', 'n', 'N', '=', 'l', 'z':
		// no operand
	case '}':
		return nil, fmt.Errorf("sed: unexpected `}'")
	default:
		return nil, fmt.Errorf("sed: unknown command `%c'", name)
	}
	return c, nil
}

func (p *parser) readRestOfLine() string {
	start := p.pos
	for !p.eof() && p.cur() != '\n' {
		p.advance()
	}
	s := strings.TrimRight(p.src[start:p.pos], " \t\r")
	return s
}

func (p *parser) parseAddress() (*address, error) {
	if p.eof() {
		return nil, nil
	}
	switch {
	case p.cur() == '$':
		p.advance()
		return &address{kind: addrLast}, nil
	case p.cur() >= '0' && p.cur() <= '9':
		start := p.pos
		for !p.eof() && p.cur() >= '0' && p.cur() <= '9' {
			p.advance()
		}
		n, _ := strconv.Atoi(p.src[start:p.pos])
		if !p.eof() && p.cur() == '~' {
			p.advance()
			s2 := p.pos
			for !p.eof() && p.cur() >= '0' && p.cur() <= '9' {
				p.advance()
			}
			step, _ := strconv.Atoi(p.src[s2:p.pos])
			return &address{kind: addrStep, line: n, step: step}, nil
		}
		return &address{kind: addrLine, line: n}, nil
	case p.cur() == '+':
		p.advance()
		start := p.pos
		for !p.eof() && p.cur() >= '0' && p.cur() <= '9' {
			p.advance()
		}
		n, _ := strconv.Atoi(p.src[start:p.pos])
		return &address{kind: addrPlus, line: n}, nil
	case p.cur() == '~':
		p.advance()
		start := p.pos
		for !p.eof() && p.cur() >= '0' && p.cur() <= '9' {
			p.advance()
		}
		n, _ := strconv.Atoi(p.src[start:p.pos])
		return &address{kind: addrTilde, line: n}, nil
	case p.cur() == '/' || p.cur() == '\\':
		delim := byte('/')
		if p.cur() == '\\' {
			p.advance()
			delim = p.cur()
		}
		p.advance()
		pat, err := p.scanDelimited(delim)
		if err != nil {
			return nil, err
		}
		ignoreCase := false
		for !p.eof() && (p.cur() == 'I' || p.cur() == 'M') {
			if p.cur() == 'I' {
				ignoreCase = true
			}
			p.advance()
		}
		if pat == "" {
			return &address{kind: addrRegex}, nil
		}
		re, err := regexp.Compile(translateRegex(pat, p.extended, ignoreCase))
		if err != nil {
			return nil, fmt.Errorf("sed: invalid address regex: %v", err)
		}
		return &address{kind: addrRegex, re: re, reSrc: pat}, nil
	}
	return nil, nil
}

// scanDelimited reads up to an unescaped delim, treating `\delim` as a
// literal delim and leaving bracket-expression contents (`[...]`)
// exempt from delimiter termination (spec.md §4.7 "inside bracket
// expressions, the delimiter is literal").
func (p *parser) scanDelimited(delim byte) (string, error) {
	var sb strings.Builder
	inBracket := false
	for {
		if p.eof() || p.cur() == '\n' {
			return "", fmt.Errorf("sed: unterminated expression, missing `%c'", delim)
		}
		c := p.cur()
		if c == '\\' && p.pos+1 < len(p.src) {
			nx := p.peekAt(1)
			if nx == delim {
				sb.WriteByte(delim)
				p.advance()
				p.advance()
				continue
			}
			if nx == '\n' {
				sb.WriteByte('\n')
				p.advance()
				p.advance()
				continue
			}
			sb.WriteByte(c)
			sb.WriteByte(nx)
			p.advance()
			p.advance()
			continue
		}
		if !inBracket && c == delim {
			p.advance()
			return sb.String(), nil
		}
		if c == '[' && !inBracket {
			inBracket = true
			sb.WriteByte(c)
			p.advance()
			continue
		}
		if c == ']' && inBracket {
			inBracket = false
			sb.WriteByte(c)
			p.advance()
			continue
		}
		sb.WriteByte(c)
		p.advance()
	}
}

func (p *parser) parseSubstitute(c *cmd) error {
	if p.eof() {
		return fmt.Errorf("sed: unterminated `s' command")
	}
	delim := p.cur()
	p.advance()
	pat, err := p.scanDelimited(delim)
	if err != nil {
		return err
	}
	repl, err := p.scanDelimited(delim)
	if err != nil {
		return err
	}
	ignoreCase := false
	nth := 0
loop:
	for !p.eof() {
		switch p.cur() {
		case 'g':
			c.sGlobal = true
			p.advance()
		case 'i', 'I':
			ignoreCase = true
			p.advance()
		case 'p':
			c.sPrint = true
			p.advance()
		case 'm', 'M':
			p.advance()
		case 'w':
			p.advance()
			p.skipInlineSpace()
			c.file = p.readRestOfLine()
			break loop
		default:
			if p.cur() >= '0' && p.cur() <= '9' {
				start := p.pos
				for !p.eof() && p.cur() >= '0' && p.cur() <= '9' {
					p.advance()
				}
				nth, _ = strconv.Atoi(p.src[start:p.pos])
				continue
			}
			break loop
		}
	}
	c.sNth = nth
	re, err := regexp.Compile(translateRegex(pat, p.extended, ignoreCase))
	if err != nil {
		return fmt.Errorf("sed: invalid regex in `s' command: %v", err)
	}
	c.re = re
	c.repl = unescapeText(repl)
	return nil
}

func (p *parser) parseTransliterate(c *cmd) error {
	if p.eof() {
		return fmt.Errorf("sed: unterminated `y' command")
	}
	delim := p.cur()
	p.advance()
	from, err := p.scanDelimited(delim)
	if err != nil {
		return err
	}
	to, err := p.scanDelimited(delim)
	if err != nil {
		return err
	}
	fr := []rune(unescapeText(from))
	tr := []rune(unescapeText(to))
	if len(fr) != len(tr) {
		return fmt.Errorf("sed: `y' command strings have different lengths")
	}
	c.yFrom, c.yTo = fr, tr
	return nil
}

// readText parses a/i/c's text argument: either GNU's one-liner form
// (rest of the line) or POSIX's `a\` form with backslash-continued
// lines, honouring a leading backslash as a preserve-leading-space
// escape on each physical line.
func (p *parser) readText() (string, error) {
	p.skipInlineSpace()
	if !p.eof() && p.cur() == '\\' {
		p.advance()
		if !p.eof() && p.cur() == '\n' {
			p.advance()
		}
	}
	var lines []string
	for {
		start := p.pos
		for !p.eof() && p.cur() != '\n' {
			p.advance()
		}
		raw := p.src[start:p.pos]
		if !p.eof() {
			p.advance() // newline
		}
		if strings.HasSuffix(raw, "\\") && !strings.HasSuffix(raw, "\\\\") {
			lines = append(lines, strings.TrimSuffix(raw, "\\"))
			if p.eof() {
				break
			}
			continue
		}
		lines = append(lines, raw)
		break
	}
	for i, l := range lines {
		if strings.HasPrefix(l, "\\") {
			lines[i] = l[1:]
		}
	}
	return unescapeText(strings.Join(lines, "\n")), nil
}

func unescapeText(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(s[i+1])
			}
			i++
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
