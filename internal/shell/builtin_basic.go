package shell

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// RegisterBuiltins wires every core builtin into r, grounded on the
// teacher's ExecuteFoo(args, stdin, stdout) error shape generalized with
// *State so builtins that touch shell state (cd, export, set, ...) can.
func RegisterBuiltins(r *Registry) {
	r.RegisterBuiltin("true", builtinTrue)
	r.RegisterBuiltin(":", builtinTrue)
	r.RegisterBuiltin("false", builtinFalse)
	r.RegisterBuiltin("echo", builtinEcho)
	r.RegisterBuiltin("printf", builtinPrintf)
	r.RegisterBuiltin("cd", builtinCd)
	r.RegisterBuiltin("pwd", builtinPwd)
	r.RegisterBuiltin("export", builtinExport)
	r.RegisterBuiltin("unset", builtinUnset)
	r.RegisterBuiltin("readonly", builtinReadonly)
	r.RegisterBuiltin("local", builtinLocal)
	r.RegisterBuiltin("declare", builtinDeclare)
	r.RegisterBuiltin("typeset", builtinDeclare)
	r.RegisterBuiltin("read", builtinRead)
	r.RegisterBuiltin("mapfile", builtinMapfile)
	r.RegisterBuiltin("readarray", builtinMapfile)
	r.RegisterBuiltin("test", builtinTest)
	r.RegisterBuiltin("[", builtinTestBracket)
	r.RegisterBuiltin("set", builtinSet)
	r.RegisterBuiltin("shopt", builtinShopt)
	r.RegisterBuiltin("trap", builtinTrap)
	r.RegisterBuiltin("shift", builtinShift)
	r.RegisterBuiltin("getopts", builtinGetopts)
	r.RegisterBuiltin("eval", builtinEval)
	r.RegisterBuiltin("source", builtinSource)
	r.RegisterBuiltin(".", builtinSource)
	r.RegisterBuiltin("exit", builtinExit)
	r.RegisterBuiltin("return", builtinReturn)
	r.RegisterBuiltin("break", builtinBreak)
	r.RegisterBuiltin("continue", builtinContinue)
	r.RegisterBuiltin("type", builtinType)
	r.RegisterBuiltin("command", builtinCommand)
	r.RegisterBuiltin("hash", builtinTrue)
	r.RegisterBuiltin("help", builtinHelp)
}

func builtinTrue(s *State, args []string, ctx *ExecContext) (int, error) { return 0, nil }

func builtinFalse(s *State, args []string, ctx *ExecContext) (int, error) { return 1, nil }

func builtinEcho(s *State, args []string, ctx *ExecContext) (int, error) {
	noNewline := false
	interpret := false
	i := 0
	for i < len(args) {
		switch args[i] {
		case "-n":
			noNewline = true
		case "-e":
			interpret = true
		case "-E":
			interpret = false
		default:
			goto doneFlags
		}
		i++
	}
doneFlags:
	out := strings.Join(args[i:], " ")
	if interpret {
		out = unescapeANSIC(out)
	}
	if !noNewline {
		out += "\n"
	}
	_, err := io.WriteString(ctx.Stdout, out)
	return 0, err
}

func builtinPrintf(s *State, args []string, ctx *ExecContext) (int, error) {
	if len(args) == 0 {
		return 0, errf(2, "printf: usage: printf format [arguments]")
	}
	format := args[0]
	values := args[1:]
	if len(values) == 0 {
		out := expandPrintfFormat(format, nil)
		io.WriteString(ctx.Stdout, out)
		return 0, nil
	}
	for len(values) > 0 {
		var consumed int
		out := expandPrintfFormatN(format, values, &consumed)
		io.WriteString(ctx.Stdout, out)
		if consumed == 0 {
			break
		}
		values = values[consumed:]
	}
	return 0, nil
}

func builtinCd(s *State, args []string, ctx *ExecContext) (int, error) {
	target := s.Get("HOME")
	if len(args) > 0 {
		target = args[0]
		if target == "-" {
			target = s.Get("OLDPWD")
		}
	}
	if target == "" {
		target = "/"
	}
	path := resolvePath(s, target)
	info, err := s.VFS.Stat(path)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "cd: %s: no such file or directory\n", target)
		return 1, nil
	}
	if !info.IsDir {
		fmt.Fprintf(ctx.Stderr, "cd: %s: not a directory\n", target)
		return 1, nil
	}
	s.Set("OLDPWD", s.Cwd)
	s.Cwd = path
	s.Set("PWD", path)
	return 0, nil
}

func builtinPwd(s *State, args []string, ctx *ExecContext) (int, error) {
	io.WriteString(ctx.Stdout, s.Cwd+"\n")
	return 0, nil
}

func builtinExport(s *State, args []string, ctx *ExecContext) (int, error) {
	if len(args) == 0 {
		names := make([]string, 0, len(s.Global))
		for n, v := range s.Global {
			if v.Attrs&AttrExported != 0 {
				names = append(names, n)
			}
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(ctx.Stdout, "declare -x %s=%s\n", n, quoteForReuse(s.Global[n].Scalar))
		}
		return 0, nil
	}
	for _, a := range args {
		name, val, hasVal := cutAssignment(a)
		v := s.Global[name]
		if v == nil {
			v = newScalar("")
			s.Global[name] = v
		}
		v.Attrs |= AttrExported
		if hasVal {
			v.Scalar = val
		}
	}
	return 0, nil
}

func builtinUnset(s *State, args []string, ctx *ExecContext) (int, error) {
	for _, name := range args {
		delete(s.Global, name)
		delete(s.Functions, name)
	}
	return 0, nil
}

func builtinReadonly(s *State, args []string, ctx *ExecContext) (int, error) {
	for _, a := range args {
		name, val, hasVal := cutAssignment(a)
		v := s.Global[name]
		if v == nil {
			v = newScalar("")
			s.Global[name] = v
		}
		if hasVal {
			v.Scalar = val
		}
		v.Attrs |= AttrReadonly
	}
	return 0, nil
}

func builtinLocal(s *State, args []string, ctx *ExecContext) (int, error) {
	for _, a := range args {
		name, val, hasVal := cutAssignment(a)
		s.DeclareLocal(name)
		if hasVal {
			if err := s.Set(name, val); err != nil {
				return setFailureExit(err), nil
			}
		}
	}
	return 0, nil
}

func builtinDeclare(s *State, args []string, ctx *ExecContext) (int, error) {
	var attrs Attr
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") && args[i] != "-" {
		for _, f := range args[i][1:] {
			switch f {
			case 'x':
				attrs |= AttrExported
			case 'r':
				attrs |= AttrReadonly
			case 'i':
				attrs |= AttrInteger
			case 'l':
				attrs |= AttrLowercase
			case 'u':
				attrs |= AttrUppercase
			case 'a':
				attrs |= AttrArray
			case 'A':
				attrs |= AttrAssoc
			case 'n':
				attrs |= AttrNameref
			}
		}
		i++
	}
	if i >= len(args) {
		names := make([]string, 0, len(s.Global))
		for n := range s.Global {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(ctx.Stdout, "declare -- %s=%s\n", n, quoteForReuse(s.Global[n].Scalar))
		}
		return 0, nil
	}
	for _, a := range args[i:] {
		name, val, hasVal := cutAssignment(a)
		s.DeclareLocal(name)
		v := s.Global[name]
		if v == nil {
			v = newScalar("")
			s.Global[name] = v
		}
		v.Attrs |= attrs
		if v.IsArray() && v.Elems == nil {
			v.Elems = map[string]string{}
		}
		if hasVal {
			if err := s.Set(name, val); err != nil {
				return setFailureExit(err), nil
			}
		}
	}
	return 0, nil
}

func cutAssignment(s string) (name, val string, hasVal bool) {
	if idx := strings.IndexByte(s, '='); idx >= 0 {
		return s[:idx], s[idx+1:], true
	}
	return s, "", false
}

func setFailureExit(err error) int {
	if se, ok := err.(*ShellError); ok {
		return se.Code
	}
	return 1
}

func builtinType(s *State, args []string, ctx *ExecContext) (int, error) {
	status := 0
	for _, name := range args {
		if _, ok := s.Functions[name]; ok {
			fmt.Fprintf(ctx.Stdout, "%s is a function\n", name)
			continue
		}
		if s.Registry != nil {
			if _, ok := s.Registry.Builtins[name]; ok {
				fmt.Fprintf(ctx.Stdout, "%s is a shell builtin\n", name)
				continue
			}
			if _, ok := s.Registry.Commands[name]; ok {
				fmt.Fprintf(ctx.Stdout, "%s is %s\n", name, name)
				continue
			}
		}
		fmt.Fprintf(ctx.Stderr, "type: %s: not found\n", name)
		status = 1
	}
	return status, nil
}

func builtinCommand(s *State, args []string, ctx *ExecContext) (int, error) {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") {
		i++
	}
	if i >= len(args) {
		return 0, nil
	}
	name := args[i]
	if s.Registry != nil {
		if b, ok := s.Registry.Lookup(name); ok {
			code, err := b(s, args[i+1:], ctx)
			return code, err
		}
	}
	fmt.Fprintf(ctx.Stderr, "%s: command not found\n", name)
	return 127, nil
}

func builtinEval(s *State, args []string, ctx *ExecContext) (int, error) {
	script := strings.Join(args, " ")
	node, err := Parse(script)
	if err != nil {
		return 1, nil
	}
	if node == nil {
		return 0, nil
	}
	if err := Eval(node, s, ctx); err != nil {
		return setFailureExit(err), nil
	}
	return s.LastStatus, nil
}

func builtinSource(s *State, args []string, ctx *ExecContext) (int, error) {
	if len(args) == 0 {
		return 0, errf(2, "source: filename argument required")
	}
	path := resolvePath(s, args[0])
	data, err := s.VFS.ReadFile(path)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "source: %s: no such file or directory\n", args[0])
		return 1, nil
	}
	node, err := Parse(string(data))
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "source: %s: %v\n", args[0], err)
		return 1, nil
	}
	savedPositional := s.Positional
	if len(args) > 1 {
		s.Positional = args[1:]
	}
	err = Eval(node, s, ctx)
	s.Positional = savedPositional
	if s.Control == SignalReturn {
		s.Control = SignalNone
	}
	if err != nil {
		return setFailureExit(err), nil
	}
	return s.LastStatus, nil
}

func builtinExit(s *State, args []string, ctx *ExecContext) (int, error) {
	code := s.LastStatus
	if len(args) > 0 {
		code = ToNumber(args[0])
	}
	s.Control = SignalExit
	s.ExitCode = code
	return code, nil
}

func builtinReturn(s *State, args []string, ctx *ExecContext) (int, error) {
	code := s.LastStatus
	if len(args) > 0 {
		code = ToNumber(args[0])
	}
	s.Control = SignalReturn
	s.ExitCode = code
	return code, nil
}

func builtinBreak(s *State, args []string, ctx *ExecContext) (int, error) {
	n := 1
	if len(args) > 0 {
		n = ToNumber(args[0])
	}
	s.LoopDepth = n
	s.Control = SignalBreak
	return 0, nil
}

func builtinContinue(s *State, args []string, ctx *ExecContext) (int, error) {
	n := 1
	if len(args) > 0 {
		n = ToNumber(args[0])
	}
	s.LoopDepth = n
	s.Control = SignalContinue
	return 0, nil
}

func builtinShift(s *State, args []string, ctx *ExecContext) (int, error) {
	n := 1
	if len(args) > 0 {
		n = ToNumber(args[0])
	}
	if n > len(s.Positional) {
		return 1, nil
	}
	s.Positional = s.Positional[n:]
	return 0, nil
}

func builtinHelp(s *State, args []string, ctx *ExecContext) (int, error) {
	if s.Registry == nil {
		return 0, nil
	}
	names := make([]string, 0, len(s.Registry.Builtins))
	for n := range s.Registry.Builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(ctx.Stdout, "%s\n", n)
	}
	return 0, nil
}
