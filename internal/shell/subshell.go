package shell

import "bytes"

// CloneForSubshell produces an independent State for `( ... )`, command
// substitution, and process substitution (spec.md section 9 "subshells
// get a cloned shell state: deep copy of variables/options/positional
// parameters, sharing the filesystem capability"). Mutations inside the
// clone (variable assignment, cd, trap, set) never reach the parent.
func (s *State) CloneForSubshell() *State {
	c := &State{
		Global:     make(Store, len(s.Global)),
		Functions:  make(map[string]*FunctionDef, len(s.Functions)),
		Positional: append([]string{}, s.Positional...),
		Arg0:       s.Arg0,
		Shopts:     make(map[string]bool, len(s.Shopts)),
		SetOpts:    make(map[string]bool, len(s.SetOpts)),
		IFS:        s.IFS,
		LastStatus: s.LastStatus,
		PID:        s.PID,
		LastBgPID:  s.LastBgPID,
		Traps:      make(map[string]string, len(s.Traps)),
		Limits:     s.Limits,
		VFS:        s.VFS,
		Cwd:        s.Cwd,
		Fetcher:    s.Fetcher,
		Audit:      s.Audit,
		Registry:   s.Registry,
		Stdout:     s.Stdout,
		Stderr:     s.Stderr,
		startTime:  s.startTime,
		rng:        s.rng,
	}
	for k, v := range s.Global {
		cp := *v
		if v.Elems != nil {
			cp.Elems = make(map[string]string, len(v.Elems))
			for ek, ev := range v.Elems {
				cp.Elems[ek] = ev
			}
		}
		c.Global[k] = &cp
	}
	for k, v := range s.Functions {
		c.Functions[k] = v
	}
	for k, v := range s.Shopts {
		c.Shopts[k] = v
	}
	for k, v := range s.SetOpts {
		c.SetOpts[k] = v
	}
	for k, v := range s.Traps {
		c.Traps[k] = v
	}
	return c
}

// RunCaptured parses and evaluates script against s (typically a clone
// from CloneForSubshell), capturing everything written to stdout as a
// string. Used by command substitution and the `<(...)`/`>(...)` process
// substitution forms.
func RunCaptured(script string, s *State) (string, error) {
	node, err := Parse(script)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	s.Stdout = &buf
	s.Stderr = &buf
	ctx := &ExecContext{Stdin: bytes.NewReader(nil), Stdout: &buf, Stderr: &buf}
	if node == nil {
		return "", nil
	}
	if err := Eval(node, s, ctx); err != nil {
		if se, ok := err.(*ShellError); ok {
			s.LastStatus = se.Code
			return buf.String(), nil
		}
		return buf.String(), err
	}
	return buf.String(), nil
}
