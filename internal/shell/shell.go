package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/agentsh/agentsh/internal/audit"
	"github.com/agentsh/agentsh/internal/netfetch"
	"github.com/agentsh/agentsh/internal/vfs"
)

// Shell is the host-facing session object: one State plus the I/O
// surface a caller drives it through (spec.md section 2 "Execution
// model"). Unlike the teacher's Shell, there is no separate parser/
// executor pair to own — State.Registry plus the package-level Eval
// entry point play that role.
type Shell struct {
	State *State
}

// New constructs a session wired to vfsRoot (a fresh vfs.New() when nil),
// with fetcher/logger capabilities plugged in per spec.md section 6.
func New(vfsRoot *vfs.FS, fetcher netfetch.Fetcher, logger audit.Logger) *Shell {
	if vfsRoot == nil {
		vfsRoot = vfs.New()
	}
	st := NewState(vfsRoot, fetcher, logger)
	st.Registry = NewRegistry()
	RegisterBuiltins(st.Registry)
	RegisterCommands(st.Registry)
	return &Shell{State: st}
}

// Exec parses and runs line against the session, capturing stdout/stderr
// into buffers (spec.md section 2: "the public contract is a single
// entry point that takes a shell command line and returns standard
// output, standard error, and an exit code"). ctx is checked before
// execution begins; the interpreter itself has no mid-script
// cancellation point other than the execution-limit counters, which
// stand in for it per spec.md section 5's cancellation model.
func (sh *Shell) Exec(ctx context.Context, line string) (stdout, stderr []byte, code int, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, 1, err
	}
	node, perr := Parse(line)
	if perr != nil {
		return nil, []byte(perr.Error() + "\n"), 2, nil
	}
	var out, errOut bytes.Buffer
	execCtx := &ExecContext{Stdin: strings.NewReader(""), Stdout: &out, Stderr: &errOut}
	if node == nil {
		return nil, nil, 0, nil
	}
	sh.State.Stdout = &out
	sh.State.Stderr = &errOut
	evalErr := Eval(node, sh.State, execCtx)
	status := sh.State.LastStatus
	if evalErr != nil {
		if se, ok := evalErr.(*ShellError); ok {
			errOut.WriteString(se.Msg + "\n")
			status = se.Code
		} else if IsLimitError(evalErr) {
			errOut.WriteString(evalErr.Error() + "\n")
			status = 1
		} else {
			return out.Bytes(), errOut.Bytes(), status, evalErr
		}
	}
	if sh.State.Control == SignalExit {
		status = sh.State.ExitCode
	}
	return out.Bytes(), errOut.Bytes(), status, nil
}

// Interactive runs a readline-driven REPL against stdin/stdout, grounded
// on the teacher's Shell.Interactive loop (Prompt/HistoryFile/EOF
// handling), generalized to print captured stdout/stderr per command.
func (sh *Shell) Interactive() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "agentsh> ",
		HistoryFile:       os.ExpandEnv("$HOME/.agentsh_history"),
		HistoryLimit:      1000,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				break
			}
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		out, errOut, _, err := sh.Exec(context.Background(), line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "agentsh: %v\n", err)
			continue
		}
		os.Stdout.Write(out)
		os.Stderr.Write(errOut)
		if sh.State.Control == SignalExit {
			break
		}
	}
	return nil
}
