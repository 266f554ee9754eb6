package shell

import (
	"bytes"
	"fmt"
	"io"

	"github.com/agentsh/agentsh/internal/vfs"
)

// Eval walks node and executes it against s, writing to ctx's streams.
// On normal return (err == nil, s.Control == SignalNone) s.LastStatus
// holds node's exit status; this is the one invariant every branch below
// must uphold so "$?" and and/or-list short-circuiting stay correct
// without a separate return-value channel (spec.md section 5).
func Eval(node Node, s *State, ctx *ExecContext) error {
	if node == nil {
		s.LastStatus = 0
		return nil
	}
	s.cmdCount++
	if s.cmdCount > s.Limits.MaxCommandCount {
		return &LimitError{Component: "command count"}
	}
	switch n := node.(type) {
	case *List:
		return evalStatementList(n, s, ctx)
	case *Pipeline:
		return evalPipeline(n, s, ctx)
	case *SimpleCommand:
		return evalSimpleCommand(n, s, ctx)
	case *Group:
		return Eval(n.Body, s, ctx)
	case *Subshell:
		return evalSubshell(n, s, ctx)
	case *If:
		return evalIf(n, s, ctx)
	case *While:
		return evalWhile(n, s, ctx)
	case *Until:
		return evalUntil(n, s, ctx)
	case *For:
		return evalFor(n, s, ctx)
	case *CStyleFor:
		return evalCStyleFor(n, s, ctx)
	case *Case:
		return evalCase(n, s, ctx)
	case *FunctionDef:
		s.Functions[n.Name] = n
		s.LastStatus = 0
		return nil
	case *Arithmetic:
		return evalArithmeticCommand(n, s, ctx)
	case *Cond:
		return evalCondCommand(n, s, ctx)
	case *CompoundWithRedirects:
		return evalCompoundWithRedirects(n, s, ctx)
	}
	return fmt.Errorf("shell: unhandled node type %T", node)
}

// ---- lists, and/or chains, set -e ----

// evalStatementList runs a top-level/body statement list, applying
// `set -e` after each item (spec.md section 5 "errexit"). The if/while/
// until condition lists use evalCondList instead, which shares the same
// and/or short-circuit core but never triggers errexit.
func evalStatementList(n *List, s *State, ctx *ExecContext) error {
	return runList(n, s, ctx, true)
}

func evalCondList(n Node, s *State, ctx *ExecContext) error {
	l, ok := n.(*List)
	if !ok {
		return Eval(n, s, ctx)
	}
	return runList(l, s, ctx, false)
}

func runList(n *List, s *State, ctx *ExecContext, applyErrexit bool) error {
	skip := false
	for i, item := range n.Items {
		if skip {
			skip = false
			continue
		}
		bg := i < len(n.Separators) && n.Separators[i] == SepAmp
		if bg {
			// No real concurrency in this interpreter; run synchronously but
			// don't let its status or errexit affect the foreground list.
			childState := s
			_ = Eval(item, childState, ctx)
			s.LastBgPID = s.PID + i + 1
			s.LastStatus = 0
			continue
		}
		if err := Eval(item, s, ctx); err != nil {
			return err
		}
		if s.Control != SignalNone {
			return nil
		}
		if applyErrexit && s.SetOpts["e"] && s.LastStatus != 0 {
			return &ShellError{Msg: "command failed", Code: s.LastStatus}
		}
		if i < len(n.Separators) {
			sep := n.Separators[i]
			if sep == SepAnd && s.LastStatus != 0 {
				skip = true
			} else if sep == SepOr && s.LastStatus == 0 {
				skip = true
			}
		}
	}
	return nil
}

// ---- pipelines ----

func evalPipeline(n *Pipeline, s *State, ctx *ExecContext) error {
	if len(n.Stages) == 1 {
		err := Eval(n.Stages[0], s, ctx)
		if n.Negated {
			s.LastStatus = boolToInt(s.LastStatus == 0)
		}
		return err
	}
	var input io.Reader = ctx.Stdin
	statuses := make([]int, len(n.Stages))
	for i, stage := range n.Stages {
		var out *bytes.Buffer
		stageCtx := &ExecContext{Stdin: input, Stdout: ctx.Stdout, Stderr: ctx.Stderr}
		if i < len(n.Stages)-1 {
			out = &bytes.Buffer{}
			stageCtx.Stdout = out
		}
		if err := Eval(stage, s, stageCtx); err != nil {
			if se, ok := err.(*ShellError); ok {
				s.LastStatus = se.Code
			} else {
				return err
			}
		}
		statuses[i] = s.LastStatus
		if s.Control != SignalNone {
			return nil
		}
		if out != nil {
			input = out
		}
	}
	last := statuses[len(statuses)-1]
	if s.SetOpts["pipefail"] {
		for _, st := range statuses {
			if st != 0 {
				last = st
			}
		}
	}
	if n.Negated {
		last = boolToInt(last == 0)
	}
	s.LastStatus = last
	return nil
}

// ---- simple commands ----

func evalSimpleCommand(n *SimpleCommand, s *State, ctx *ExecContext) error {
	if len(n.Words) == 0 {
		// Bare assignment and/or redirection, no command invoked: assignments
		// persist in the current scope (spec.md section 4.4).
		for _, a := range n.Assignments {
			if err := applyAssignment(a, s); err != nil {
				return setFailureStatus(s, err)
			}
		}
		if len(n.Redirects) > 0 {
			rctx, restore, err := applyRedirects(n.Redirects, s, ctx)
			if err != nil {
				return setFailureStatus(s, err)
			}
			defer restore()
			_ = rctx
		}
		s.LastStatus = 0
		return nil
	}

	argv0, err := ExpandWords(n.Words[:1], s)
	if err != nil {
		return setFailureStatus(s, err)
	}
	args, err := ExpandWords(n.Words[1:], s)
	if err != nil {
		return setFailureStatus(s, err)
	}
	if len(argv0) == 0 {
		// Word expanded away entirely (e.g. an unset "$@"): nothing to run.
		s.LastStatus = 0
		return nil
	}
	name := argv0[0]
	fullArgs := append(argv0[1:], args...)

	rctx, restore, err := applyRedirects(n.Redirects, s, ctx)
	if err != nil {
		return setFailureStatus(s, err)
	}
	defer restore()

	if len(n.Assignments) > 0 {
		s.PushScope("<assign>")
		defer s.PopScope()
		for _, a := range n.Assignments {
			s.DeclareLocal(a.Name)
			if err := applyAssignment(a, s); err != nil {
				return setFailureStatus(s, err)
			}
		}
	}

	return dispatch(name, fullArgs, s, rctx)
}

func setFailureStatus(s *State, err error) error {
	if se, ok := err.(*ShellError); ok {
		s.LastStatus = se.Code
		return nil
	}
	return err
}

func applyAssignment(a Assignment, s *State) error {
	target := s.ResolveTarget(a.Name)
	if a.IsArray {
		v := s.Global[target]
		if v == nil || !v.IsArray() {
			v = &Variable{Attrs: AttrArray, Elems: map[string]string{}}
			s.Global[target] = v
		} else if !a.Append {
			v.Elems = map[string]string{}
			v.maxIdx = 0
		}
		for _, item := range a.ArrayItems {
			val, err := expandWordText(&item, s)
			if err != nil {
				return err
			}
			v.Elems[itoa(v.maxIdx)] = val
			v.maxIdx++
		}
		return nil
	}
	val, err := expandWordText(&a.Value, s)
	if err != nil {
		return err
	}
	if a.Index != nil {
		idx, err := expandWordText(a.Index, s)
		if err != nil {
			return err
		}
		v := s.Global[target]
		if v == nil || !v.IsArray() {
			v = &Variable{Attrs: AttrArray, Elems: map[string]string{}}
			s.Global[target] = v
		}
		if a.Append {
			val = v.Elems[idx] + val
		}
		v.Elems[idx] = val
		return nil
	}
	if a.Append {
		val = s.Get(a.Name) + val
	}
	return s.Set(a.Name, val)
}

// dispatch resolves name in the order function, builtin, registered
// command, not-found (spec.md section 6).
func dispatch(name string, args []string, s *State, ctx *ExecContext) error {
	if fn, ok := s.Functions[name]; ok {
		return callFunction(fn, args, s, ctx)
	}
	if s.Registry != nil {
		if b, ok := s.Registry.Lookup(name); ok {
			code, err := b(s, args, ctx)
			if err != nil {
				return err
			}
			s.LastStatus = code
			return nil
		}
	}
	fmt.Fprintf(ctx.Stderr, "%s: command not found\n", name)
	s.LastStatus = 127
	return nil
}

func callFunction(fn *FunctionDef, args []string, s *State, ctx *ExecContext) error {
	if s.FuncDepth >= s.Limits.MaxCallDepth {
		return &LimitError{Component: "function call depth"}
	}
	s.FuncDepth++
	defer func() { s.FuncDepth-- }()

	savedPositional, savedArg0 := s.Positional, s.Arg0
	s.Positional = args
	s.Arg0 = fn.Name
	s.PushScope(fn.Name)

	err := Eval(fn.Body, s, ctx)

	s.PopScope()
	s.Positional, s.Arg0 = savedPositional, savedArg0

	if err != nil {
		return err
	}
	switch s.Control {
	case SignalReturn:
		s.Control = SignalNone
	case SignalBreak, SignalContinue:
		s.Control = SignalNone
	}
	return nil
}

// ---- redirects ----

// applyRedirects builds a derived ExecContext with Stdin/Stdout/Stderr
// replaced per n, and returns a restore func (currently a no-op, since
// each ExecContext is fresh per command rather than mutating shared fds).
func applyRedirects(redirects []Redirect, s *State, ctx *ExecContext) (*ExecContext, func(), error) {
	if len(redirects) == 0 {
		return ctx, func() {}, nil
	}
	out := &ExecContext{Stdin: ctx.Stdin, Stdout: ctx.Stdout, Stderr: ctx.Stderr}
	for _, r := range redirects {
		if err := applyOneRedirect(r, s, out); err != nil {
			return nil, func() {}, err
		}
	}
	return out, func() {}, nil
}

func applyOneRedirect(r Redirect, s *State, ctx *ExecContext) error {
	switch r.Op {
	case RedirReadFile, RedirReadWrite:
		path := resolvePath(s, mustExpand(r.Target, s))
		data, err := s.VFS.ReadFile(path)
		if err != nil {
			return errf(1, "%s: %v", path, err)
		}
		ctx.Stdin = bytes.NewReader(data)
	case RedirWriteTrunc, RedirWriteNoClobber:
		path := resolvePath(s, mustExpand(r.Target, s))
		w := &vfsWriter{s: s, path: path}
		if r.FD == 2 {
			ctx.Stderr = w
		} else {
			ctx.Stdout = w
		}
	case RedirWriteAppend:
		path := resolvePath(s, mustExpand(r.Target, s))
		w := &vfsWriter{s: s, path: path, append: true}
		if r.FD == 2 {
			ctx.Stderr = w
		} else {
			ctx.Stdout = w
		}
	case RedirHereDoc, RedirHereDocStrip:
		ctx.Stdin = bytes.NewReader([]byte(r.HereDoc))
	case RedirHereString:
		val := mustExpand(r.Target, s)
		ctx.Stdin = bytes.NewReader([]byte(val + "\n"))
	case RedirDupOutErr:
		ctx.Stderr = ctx.Stdout
	case RedirDupFD:
		target := mustExpand(r.Target, s)
		if target == "2" && r.FD != 2 {
			ctx.Stdout = ctx.Stderr
		} else if target == "1" {
			ctx.Stderr = ctx.Stdout
		} else if target == "-" {
			// fd closed: leave streams as-is, writes before this point already happened
		}
	}
	return nil
}

func mustExpand(w Word, s *State) string {
	v, _ := expandWordText(&w, s)
	return v
}

// vfsWriter adapts vfs.FS.WriteFile (whole-buffer, not streaming) to
// io.Writer by accumulating and flushing on every Write call; sufficient
// for the batch-oriented command set this interpreter runs.
type vfsWriter struct {
	s      *State
	path   string
	append bool
}

func (w *vfsWriter) Write(p []byte) (int, error) {
	if err := w.s.VFS.WriteFile(w.path, p, vfs.WriteOpts{Append: w.append}); err != nil {
		return 0, err
	}
	w.append = true
	return len(p), nil
}

func resolvePath(s *State, p string) string {
	return vfs.Resolve(s.Cwd, p)
}

// ---- subshell ----

func evalSubshell(n *Subshell, s *State, ctx *ExecContext) error {
	child := s.CloneForSubshell()
	err := Eval(n.Body, child, ctx)
	s.LastStatus = child.LastStatus
	if child.Control == SignalExit {
		s.Control = SignalExit
		s.ExitCode = child.ExitCode
	}
	return err
}

// ---- conditionals ----

func evalIf(n *If, s *State, ctx *ExecContext) error {
	if err := evalCondList(n.Cond, s, ctx); err != nil {
		return err
	}
	if s.Control != SignalNone {
		return nil
	}
	if s.LastStatus == 0 {
		return Eval(n.Then, s, ctx)
	}
	for _, elif := range n.Elifs {
		if err := evalCondList(elif.Cond, s, ctx); err != nil {
			return err
		}
		if s.Control != SignalNone {
			return nil
		}
		if s.LastStatus == 0 {
			return Eval(elif.Then, s, ctx)
		}
	}
	if n.Else != nil {
		return Eval(n.Else, s, ctx)
	}
	s.LastStatus = 0
	return nil
}

func evalWhile(n *While, s *State, ctx *ExecContext) error {
	status := 0
	for iter := 0; ; iter++ {
		if iter > s.Limits.MaxLoopIterations {
			return &LimitError{Component: "while loop"}
		}
		if err := evalCondList(n.Cond, s, ctx); err != nil {
			return err
		}
		if s.Control != SignalNone {
			return nil
		}
		if s.LastStatus != 0 {
			break
		}
		if err := Eval(n.Body, s, ctx); err != nil {
			return err
		}
		status = s.LastStatus
		if sig, done := handleLoopSignal(s); done {
			if sig {
				break
			}
			return nil
		}
	}
	s.LastStatus = status
	return nil
}

func evalUntil(n *Until, s *State, ctx *ExecContext) error {
	status := 0
	for iter := 0; ; iter++ {
		if iter > s.Limits.MaxLoopIterations {
			return &LimitError{Component: "until loop"}
		}
		if err := evalCondList(n.Cond, s, ctx); err != nil {
			return err
		}
		if s.Control != SignalNone {
			return nil
		}
		if s.LastStatus == 0 {
			break
		}
		if err := Eval(n.Body, s, ctx); err != nil {
			return err
		}
		status = s.LastStatus
		if sig, done := handleLoopSignal(s); done {
			if sig {
				break
			}
			return nil
		}
	}
	s.LastStatus = status
	return nil
}

// handleLoopSignal interprets s.Control after a loop body runs. It
// returns done=true when the loop must stop iterating; brk tells the
// caller whether that stop was a normal loop exit (break/limit) as
// opposed to a signal (return/exit) that must keep propagating upward.
func handleLoopSignal(s *State) (brk bool, done bool) {
	switch s.Control {
	case SignalBreak:
		s.Control = SignalNone
		return true, true
	case SignalContinue:
		s.Control = SignalNone
		return false, false
	case SignalReturn, SignalExit:
		return false, true
	}
	return false, false
}

func evalFor(n *For, s *State, ctx *ExecContext) error {
	var words []string
	var err error
	if n.Words == nil {
		words = append([]string{}, s.Positional...)
	} else {
		words, err = ExpandWords(n.Words, s)
		if err != nil {
			return setFailureStatus(s, err)
		}
	}
	status := 0
	for i, w := range words {
		if i > s.Limits.MaxLoopIterations {
			return &LimitError{Component: "for loop"}
		}
		if err := s.Set(n.Var, w); err != nil {
			return setFailureStatus(s, err)
		}
		if err := Eval(n.Body, s, ctx); err != nil {
			return err
		}
		status = s.LastStatus
		if brk, done := handleLoopSignal(s); done {
			if brk {
				break
			}
			return nil
		}
	}
	s.LastStatus = status
	return nil
}

func evalCStyleFor(n *CStyleFor, s *State, ctx *ExecContext) error {
	if n.Init != "" {
		if _, err := EvalArith(n.Init, s); err != nil {
			return setFailureStatus(s, err)
		}
	}
	status := 0
	for iter := 0; ; iter++ {
		if iter > s.Limits.MaxLoopIterations {
			return &LimitError{Component: "for(( )) loop"}
		}
		if n.Cond != "" {
			v, err := EvalArith(n.Cond, s)
			if err != nil {
				return setFailureStatus(s, err)
			}
			if v == 0 {
				break
			}
		}
		if err := Eval(n.Body, s, ctx); err != nil {
			return err
		}
		status = s.LastStatus
		if brk, done := handleLoopSignal(s); done {
			if brk {
				break
			}
			return nil
		}
		if n.Update != "" {
			if _, err := EvalArith(n.Update, s); err != nil {
				return setFailureStatus(s, err)
			}
		}
	}
	s.LastStatus = status
	return nil
}

func evalCase(n *Case, s *State, ctx *ExecContext) error {
	subject, err := expandWordText(&n.Word, s)
	if err != nil {
		return setFailureStatus(s, err)
	}
	s.LastStatus = 0
	for i := 0; i < len(n.Clauses); i++ {
		cl := n.Clauses[i]
		matched := false
		for _, pat := range cl.Patterns {
			patText, err := expandWordText(&pat, s)
			if err != nil {
				return setFailureStatus(s, err)
			}
			if globMatch(patText, subject) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
	runClause:
		if cl.Body != nil {
			if err := Eval(cl.Body, s, ctx); err != nil {
				return err
			}
			if s.Control != SignalNone {
				return nil
			}
		}
		switch cl.Terminator {
		case ";&":
			if i+1 < len(n.Clauses) {
				i++
				cl = n.Clauses[i]
				goto runClause
			}
		case ";;&":
			continue
		}
		return nil
	}
	return nil
}

// evalArithmeticCommand runs (( expr )); exit status is 0 when expr is
// nonzero and 1 when it is zero (spec.md section 3 "Arithmetic command").
func evalArithmeticCommand(n *Arithmetic, s *State, ctx *ExecContext) error {
	v, err := EvalArith(n.Expr, s)
	if err != nil {
		return setFailureStatus(s, err)
	}
	s.LastStatus = boolToInt(v == 0)
	return nil
}

func evalCondCommand(n *Cond, s *State, ctx *ExecContext) error {
	v, err := EvalCond(n.Expr, s)
	if err != nil {
		return setFailureStatus(s, err)
	}
	s.LastStatus = boolToInt(!v)
	return nil
}

func evalCompoundWithRedirects(n *CompoundWithRedirects, s *State, ctx *ExecContext) error {
	rctx, restore, err := applyRedirects(n.Redirects, s, ctx)
	if err != nil {
		return setFailureStatus(s, err)
	}
	defer restore()
	return Eval(n.Inner, s, rctx)
}
