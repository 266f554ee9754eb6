package shell

import "github.com/agentsh/agentsh/internal/commands"

// RegisterCommands adapts every commands.Func in the commands package
// registry into a shell BuiltinFunc, resolving each invocation's Env from
// the live State (spec.md section 6 "registered command" resolution
// tier, after functions and builtins).
func RegisterCommands(r *Registry) {
	for name, fn := range commands.Registry {
		fn := fn
		r.RegisterCommand(name, func(s *State, args []string, ctx *ExecContext) (int, error) {
			env := &commands.Env{VFS: s.VFS, Cwd: s.Cwd, Environ: s.Environ()}
			code := fn(args, ctx.Stdin, ctx.Stdout, ctx.Stderr, env)
			return code, nil
		})
	}
}
