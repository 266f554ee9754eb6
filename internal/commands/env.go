// Package commands implements the small, self-contained utility
// commands the shell dispatches to (spec.md's coreutils table): cat,
// head, tail, sort, wc, tr, cut, uniq, and the rest of the GNU/BSD
// surface, plus find, jq, and the tar/archive codecs.
//
// Each command is a plain function over args/stdin/stdout/stderr/Env,
// grounded on the teacher's ExecuteFoo(args, stdin, stdout) error shape
// (internal/llmsh/commands/basic.go) generalized with an explicit Env
// (the vfs capability plus cwd) in place of the teacher's package-global
// VirtualFS, and a returned exit code instead of a Go error-as-status.
package commands

import (
	"io"

	"github.com/agentsh/agentsh/internal/vfs"
)

// Env is the capability surface a command needs to touch the
// filesystem: the vfs tree and the caller's current working directory
// for resolving relative paths.
type Env struct {
	VFS     *vfs.FS
	Cwd     string
	Environ []string // "KEY=value" pairs, exported variables only
}

func (e *Env) resolve(p string) string {
	return vfs.Resolve(e.Cwd, p)
}

// Func is the signature every command in this package implements.
type Func func(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int

// Registry maps command names to their Func implementation. Built once
// at init time; the shell package adapts each entry into its own
// BuiltinFunc convention via RegisterCommands.
var Registry = map[string]Func{}

func register(name string, fn Func) { Registry[name] = fn }
