// Package sed implements the stream editor's address/command cycle
// engine per spec.md §4.7: a script of address-guarded commands run
// once per input line against a pattern space and hold space.
package sed

import "regexp"

type addrKind int

const (
	addrNone addrKind = iota
	addrLine
	addrLast
	addrRegex
	addrStep  // first~step
	addrPlus  // +N, only valid as a range's second address
	addrTilde // ~N, GNU "next multiple of N", only valid as a range's second address
)

type address struct {
	kind  addrKind
	line  int
	step  int
	re    *regexp.Regexp
	reSrc string // "" regex address reuses the last compiled regex (// form)
}

// cmd is one parsed, address-guarded script command. Group commands
// ('{') carry groupEnd, the index one past the matching '}', so the
// cycle engine can skip the whole block in one step when its address
// doesn't match — the same flat-program-with-jump-targets shape branch
// commands already need for labels.
type cmd struct {
	addr1, addr2 *address
	negate       bool
	name         byte

	// s///
	re      *regexp.Regexp
	repl    string
	sGlobal bool
	sPrint  bool
	sNth    int // 0 means "first match" (equivalent to 1)

	// a/i/c text, y src/dst
	text  string
	yFrom []rune
	yTo   []rune

	label    string
	groupEnd int
	file     string
	exitCode int
	hasCode  bool

	// range runtime state, mutable per-command like the awk range
	// pattern's per-rule `active` boolean.
	rangeActive    bool
	rangeStartLine int
	rangeEndLine   int
}

// Script is a fully parsed sed program ready to run against input.
type Script struct {
	cmds   []*cmd
	labels map[string]int
}
