package shell

import (
	"math/rand"
	"sort"
	"time"

	"github.com/agentsh/agentsh/internal/audit"
	"github.com/agentsh/agentsh/internal/netfetch"
	"github.com/agentsh/agentsh/internal/vfs"
)

// State is the process-wide object owning everything spec.md section 3
// says the shell state owns. One State is created per host-facing
// session (see Shell in shell.go) and lives for that session's lifetime;
// subshells and command substitutions work on a cloned copy (section 9
// "Global mutable state").
type State struct {
	Global Store
	Scopes []*Scope // local-scope stack, one frame per active function call

	Functions map[string]*FunctionDef

	Positional []string // $1, $2, ...
	Arg0       string   // $0

	Shopts map[string]bool
	SetOpts map[string]bool // -e -u -x -f -o pipefail ...

	IFS string

	LastStatus int // $?
	PID        int // $$ (synthetic)
	LastBgPID  int // $!

	Traps map[string]string // signal name -> command string (stubbed: recorded and listed, never run)

	Control   ControlSignal
	ExitCode  int
	LoopDepth int // how many break/continue levels remain to unwind

	FuncDepth int
	cmdCount  int
	startTime time.Time
	rng       *rand.Rand

	Limits Limits

	VFS     *vfs.FS
	Cwd     string
	Fetcher netfetch.Fetcher
	Audit   audit.Logger

	Stdout writerCloser
	Stderr writerCloser

	Registry *Registry
}

// writerCloser is the minimal sink interface command execution writes to;
// defined here (rather than importing io directly into the field type)
// purely for readability at call sites.
type writerCloser interface {
	Write(p []byte) (int, error)
}

// NewState constructs a fresh top-level shell state.
func NewState(vfsRoot *vfs.FS, fetcher netfetch.Fetcher, logger audit.Logger) *State {
	if fetcher == nil {
		fetcher = netfetch.DenyAllFetcher{}
	}
	if logger == nil {
		logger = audit.NoopLogger{}
	}
	s := &State{
		Global:    Store{},
		Functions: map[string]*FunctionDef{},
		Shopts:    defaultShopts(),
		SetOpts:   map[string]bool{},
		IFS:       " \t\n",
		PID:       1000 + rand.Intn(30000),
		Traps:     map[string]string{},
		startTime: time.Now(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		Limits:    DefaultLimits(),
		VFS:       vfsRoot,
		Cwd:       "/",
		Fetcher:   fetcher,
		Audit:     logger,
	}
	s.Global["PWD"] = newScalar("/")
	s.Global["IFS"] = newScalar(s.IFS)
	s.Global["RANDOM"] = newScalar("0")
	s.Global["BASH_VERSION"] = newScalar("5.2.0-agentsh")
	return s
}

func defaultShopts() map[string]bool {
	return map[string]bool{
		"extglob":     false,
		"globstar":    false,
		"nullglob":    false,
		"failglob":    false,
		"nocasematch": false,
		"dotglob":     false,
	}
}

// Seconds returns $SECONDS: elapsed wall time since the state began.
func (s *State) Seconds() int { return int(time.Since(s.startTime).Seconds()) }

// NextRandom returns the next pseudo-random value for $RANDOM (0-32767).
func (s *State) NextRandom() int { return s.rng.Intn(32768) }

// ---- variable lookup / nameref resolution (section 9 "Cyclic references") ----

// Lookup resolves a name to its Variable in Global, where active locals
// also live (see rawLookup). It follows namerefs with cycle detection
// bounded to depth 16 (section 9).
func (s *State) Lookup(name string) (*Variable, bool) {
	return s.lookupDepth(name, 0)
}

func (s *State) lookupDepth(name string, depth int) (*Variable, bool) {
	if depth > 16 {
		return nil, false
	}
	v := s.rawLookup(name)
	if v == nil {
		return nil, false
	}
	if v.Attrs&AttrNameref != 0 && v.Scalar != "" {
		return s.lookupDepth(v.Scalar, depth+1)
	}
	return v, true
}

// rawLookup finds a binding without following namerefs. Locals live
// directly in Global once DeclareLocal shadows them (dynamic scoping:
// functions called from within a function see its locals); the scope
// stack only remembers what to restore on return.
func (s *State) rawLookup(name string) *Variable {
	if v, ok := s.Global[name]; ok {
		return v
	}
	return nil
}

// ResolveTarget follows a nameref chain to find the ultimate variable name
// to assign through (used by assignment, section 4.4).
func (s *State) ResolveTarget(name string) string {
	seen := map[string]bool{}
	cur := name
	for depth := 0; depth < 16; depth++ {
		v := s.Global[cur]
		if v == nil || v.Attrs&AttrNameref == 0 || v.Scalar == "" {
			return cur
		}
		if seen[cur] {
			return cur // cycle: caller's assignment will then error via depth check elsewhere
		}
		seen[cur] = true
		cur = v.Scalar
	}
	return cur
}

// PushScope starts a new local-scope frame for a function call.
func (s *State) PushScope(funcName string) {
	s.Scopes = append(s.Scopes, &Scope{funcName: funcName, saved: map[string]*Variable{}})
}

// PopScope restores every binding the top frame shadowed.
func (s *State) PopScope() {
	if len(s.Scopes) == 0 {
		return
	}
	top := s.Scopes[len(s.Scopes)-1]
	for name, prev := range top.saved {
		if prev == nil {
			delete(s.Global, name)
		} else {
			s.Global[name] = prev
		}
	}
	s.Scopes = s.Scopes[:len(s.Scopes)-1]
}

// DeclareLocal shadows `name` for the duration of the current scope frame,
// recording whatever was previously bound so PopScope can restore it.
// No-op (acts as a plain assignment target) when there is no active frame.
func (s *State) DeclareLocal(name string) {
	if len(s.Scopes) == 0 {
		return
	}
	top := s.Scopes[len(s.Scopes)-1]
	if _, already := top.saved[name]; already {
		return // already shadowed earlier in this same frame
	}
	top.saved[name] = s.Global[name] // nil if it didn't exist
	s.Global[name] = newScalar("")
}

// Set assigns a scalar value, honoring integer/case attributes and
// readonly (section 4.4 "Variable assignment").
func (s *State) Set(name, value string) error {
	target := s.ResolveTarget(name)
	v := s.Global[target]
	if v != nil && v.Attrs&AttrReadonly != 0 {
		return errf(1, "%s: readonly variable", target)
	}
	if v == nil {
		v = newScalar("")
		s.Global[target] = v
	}
	if v.Attrs&AttrInteger != 0 {
		n, _ := EvalArith(value, s)
		value = itoa(n)
	}
	value = applyCaseAttrs(v.Attrs, value)
	v.Scalar = value
	return nil
}

// Get returns the scalar value of a variable, or "" if unset.
func (s *State) Get(name string) string {
	switch name {
	case "?":
		return itoa(s.LastStatus)
	case "$":
		return itoa(s.PID)
	case "!":
		return itoa(s.LastBgPID)
	case "#":
		return itoa(len(s.Positional))
	case "0":
		return s.Arg0
	case "RANDOM":
		return itoa(s.NextRandom())
	case "SECONDS":
		return itoa(s.Seconds())
	}
	if n, ok := positionalIndex(name); ok {
		if n >= 1 && n <= len(s.Positional) {
			return s.Positional[n-1]
		}
		return ""
	}
	v, ok := s.Lookup(name)
	if !ok || v == nil {
		return ""
	}
	if v.IsArray() {
		vals := arrayValues(v)
		if len(vals) == 0 {
			return ""
		}
		return vals[0]
	}
	return v.Scalar
}

func positionalIndex(name string) (int, bool) {
	if len(name) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range name {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [24]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Environ returns "KEY=value" pairs for every exported scalar variable,
// sorted by name, for handoff to commands that expose process environ
// (env, printenv) without giving them direct access to Global.
func (s *State) Environ() []string {
	var out []string
	for name, v := range s.Global {
		if v.Attrs&AttrExported == 0 || v.IsArray() {
			continue
		}
		out = append(out, name+"="+v.Scalar)
	}
	sort.Strings(out)
	return out
}
