package shell

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

var setOptionLetters = map[byte]string{
	'e': "e", 'u': "u", 'x': "x", 'f': "f", 'n': "n", 'v': "v",
}

// builtinSet implements `set [-+]options [--] [args...]` (spec.md's
// errexit/nounset/xtrace/pipefail/noglob surface).
func builtinSet(s *State, args []string, ctx *ExecContext) (int, error) {
	i := 0
	for i < len(args) {
		a := args[i]
		if a == "--" {
			i++
			break
		}
		if len(a) < 2 || (a[0] != '-' && a[0] != '+') {
			break
		}
		enable := a[0] == '-'
		if a == "-o" || a == "+o" {
			if i+1 >= len(args) {
				printSetOpts(s, ctx)
				return 0, nil
			}
			s.SetOpts[args[i+1]] = enable
			i += 2
			continue
		}
		for _, f := range a[1:] {
			s.SetOpts[string(f)] = enable
		}
		i++
	}
	if i < len(args) {
		s.Positional = args[i:]
	}
	return 0, nil
}

func printSetOpts(s *State, ctx *ExecContext) {
	names := make([]string, 0, len(s.SetOpts))
	for n := range s.SetOpts {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		state := "off"
		if s.SetOpts[n] {
			state = "on"
		}
		fmt.Fprintf(ctx.Stdout, "%-15s %s\n", n, state)
	}
}

// builtinShopt implements `shopt [-s|-u] [name...]` toggling the bash
// shell-option table (globstar, nullglob, extglob, dotglob, ...).
func builtinShopt(s *State, args []string, ctx *ExecContext) (int, error) {
	mode := 0 // 0=query, 1=set, -1=unset
	var names []string
	for _, a := range args {
		switch a {
		case "-s":
			mode = 1
		case "-u":
			mode = -1
		case "-p", "-q":
			// printing/quiet modes: query path below already reports state
		default:
			names = append(names, a)
		}
	}
	if mode == 0 && len(names) == 0 {
		keys := make([]string, 0, len(s.Shopts))
		for k := range s.Shopts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			state := "off"
			if s.Shopts[k] {
				state = "on"
			}
			fmt.Fprintf(ctx.Stdout, "%-15s %s\n", k, state)
		}
		return 0, nil
	}
	status := 0
	for _, n := range names {
		switch mode {
		case 1:
			s.Shopts[n] = true
		case -1:
			s.Shopts[n] = false
		default:
			if !s.Shopts[n] {
				status = 1
			}
		}
	}
	return status, nil
}

// builtinTrap implements `trap [command] signal...` as a stub: handlers are
// recorded in s.Traps and listed by a bare `trap`, but none is ever run,
// EXIT included (the sandboxed model has no real process signals).
func builtinTrap(s *State, args []string, ctx *ExecContext) (int, error) {
	if len(args) == 0 {
		names := make([]string, 0, len(s.Traps))
		for n := range s.Traps {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(ctx.Stdout, "trap -- %s %s\n", quoteForReuse(s.Traps[n]), n)
		}
		return 0, nil
	}
	if args[0] == "-" || args[0] == "--" {
		for _, sig := range args[1:] {
			delete(s.Traps, sig)
		}
		return 0, nil
	}
	cmd := args[0]
	for _, sig := range args[1:] {
		s.Traps[sig] = cmd
	}
	return 0, nil
}

// builtinGetopts implements POSIX getopts, consuming s.Positional and
// maintaining $OPTIND/$OPTARG.
func builtinGetopts(s *State, args []string, ctx *ExecContext) (int, error) {
	if len(args) < 2 {
		return 2, errf(2, "getopts: usage: getopts optstring name [arg]")
	}
	optstring := args[0]
	varname := args[1]
	optind := ToNumber(s.Get("OPTIND"))
	if optind < 1 {
		optind = 1
	}
	operands := s.Positional
	if len(args) > 2 {
		operands = args[2:]
	}
	if optind-1 >= len(operands) {
		s.Set(varname, "?")
		return 1, nil
	}
	arg := operands[optind-1]
	if len(arg) == 0 || arg[0] != '-' || arg == "-" {
		s.Set(varname, "?")
		return 1, nil
	}
	opt := arg[1]
	idx := strings.IndexByte(optstring, opt)
	if idx < 0 {
		s.Set(varname, "?")
		s.Set("OPTARG", string(opt))
		s.Set("OPTIND", itoa(optind+1))
		return 0, nil
	}
	s.Set(varname, string(opt))
	if idx+1 < len(optstring) && optstring[idx+1] == ':' {
		if len(arg) > 2 {
			s.Set("OPTARG", arg[2:])
		} else if optind < len(operands) {
			s.Set("OPTARG", operands[optind])
			optind++
		}
	}
	s.Set("OPTIND", itoa(optind+1))
	return 0, nil
}

// builtinRead implements `read [-r] [-p prompt] [-a array] [-d delim]
// [name...]`, reading a line from ctx.Stdin and splitting it on IFS across
// the named variables (last gets the remainder). Only -r, -p, -a and -d are
// recognised; any other argument, -n, -s and -t included, is taken as a
// variable name.
func builtinRead(s *State, args []string, ctx *ExecContext) (int, error) {
	raw := false
	var prompt string
	arrayName := ""
	delim := byte('\n')
	var names []string
	i := 0
	for i < len(args) {
		switch args[i] {
		case "-r":
			raw = true
		case "-p":
			i++
			if i < len(args) {
				prompt = args[i]
			}
		case "-a":
			i++
			if i < len(args) {
				arrayName = args[i]
			}
		case "-d":
			i++
			if i < len(args) && len(args[i]) > 0 {
				delim = args[i][0]
			}
		default:
			names = append(names, args[i])
		}
		i++
	}
	if prompt != "" {
		fmt.Fprint(ctx.Stderr, prompt)
	}
	line, err := readDelim(ctx.Stdin, delim, raw)
	if err != nil && line == "" {
		return 1, nil
	}
	if arrayName != "" {
		fields := strings.Fields(line)
		v := &Variable{Attrs: AttrArray, Elems: map[string]string{}}
		for idx, f := range fields {
			v.Elems[itoa(idx)] = f
		}
		v.maxIdx = len(fields)
		s.Global[arrayName] = v
		return 0, nil
	}
	if len(names) == 0 {
		names = []string{"REPLY"}
	}
	fields := splitIFSFields(line, s.IFS, len(names))
	for idx, name := range names {
		val := ""
		if idx < len(fields) {
			val = fields[idx]
		}
		s.Set(name, val)
	}
	return 0, nil
}

func splitIFSFields(line, ifs string, maxFields int) []string {
	if ifs == "" {
		return []string{line}
	}
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return strings.ContainsRune(ifs, r)
	})
	if maxFields > 0 && len(fields) > maxFields {
		merged := fields[:maxFields-1]
		rest := strings.Join(fields[maxFields-1:], ifs[:1])
		return append(append([]string{}, merged...), rest)
	}
	return fields
}

func readDelim(r io.Reader, delim byte, raw bool) (string, error) {
	br := bufio.NewReader(r)
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			return sb.String(), err
		}
		if b == delim {
			break
		}
		if b == '\\' && !raw && delim == '\n' {
			next, err2 := br.ReadByte()
			if err2 == nil {
				sb.WriteByte(next)
				continue
			}
		}
		sb.WriteByte(b)
	}
	return sb.String(), nil
}

// builtinMapfile implements `mapfile [-t] arrayname`, reading all lines
// from stdin into an indexed array.
func builtinMapfile(s *State, args []string, ctx *ExecContext) (int, error) {
	trimNewline := false
	var arrayName string
	for _, a := range args {
		if a == "-t" {
			trimNewline = true
			continue
		}
		arrayName = a
	}
	if arrayName == "" {
		arrayName = "MAPFILE"
	}
	br := bufio.NewReader(ctx.Stdin)
	v := &Variable{Attrs: AttrArray, Elems: map[string]string{}}
	idx := 0
	for {
		line, err := br.ReadString('\n')
		if line == "" && err != nil {
			break
		}
		if trimNewline {
			line = strings.TrimSuffix(line, "\n")
		}
		v.Elems[itoa(idx)] = line
		idx++
		if err != nil {
			break
		}
	}
	v.maxIdx = idx
	s.Global[arrayName] = v
	return 0, nil
}
