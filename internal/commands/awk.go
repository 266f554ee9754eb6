package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/agentsh/agentsh/internal/awk"
)

func init() {
	register("awk", executeAwk)
}

// executeAwk implements the awk subset agentsh scripts rely on: -F fs,
// repeated -v name=value assignments, -f progfile (or a literal program
// as the first bare operand), and file operands read from the vfs (or
// stdin when none are given).
func executeAwk(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	var fs string
	var assigns [][2]string
	var progText string
	haveProg := false
	var files []string

	i := 0
	for i < len(args) {
		a := args[i]
		switch {
		case a == "-F" && i+1 < len(args):
			i++
			fs = args[i]
		case a == "-v" && i+1 < len(args):
			i++
			kv := strings.SplitN(args[i], "=", 2)
			if len(kv) == 2 {
				assigns = append(assigns, [2]string{kv[0], kv[1]})
			}
		case a == "-f" && i+1 < len(args):
			i++
			data, err := env.VFS.ReadFile(env.resolve(args[i]))
			if err != nil {
				fmt.Fprintf(stderr, "awk: %s: No such file or directory\n", args[i])
				return 2
			}
			progText = string(data)
			haveProg = true
		case !haveProg:
			progText = a
			haveProg = true
		default:
			files = append(files, a)
		}
		i++
	}
	if !haveProg {
		fmt.Fprintln(stderr, "awk: no program text")
		return 2
	}

	prog, err := awk.Parse(progText)
	if err != nil {
		fmt.Fprintf(stderr, "awk: %v\n", err)
		return 2
	}

	it := awk.NewInterp(prog)
	it.Stdout = stdout
	it.Stderr = stderr
	it.GetlineFile = func(name string) ([]byte, error) {
		return env.VFS.ReadFile(env.resolve(name))
	}
	if fs != "" {
		it.SetVar("FS", fs)
	}
	for _, kv := range assigns {
		it.SetVar(kv[0], kv[1])
	}

	var inputs []awk.NamedInput
	if len(files) == 0 {
		data, _ := io.ReadAll(stdin)
		inputs = append(inputs, awk.NamedInput{Name: "-", Data: data})
	} else {
		for _, f := range files {
			if f == "-" {
				data, _ := io.ReadAll(stdin)
				inputs = append(inputs, awk.NamedInput{Name: "-", Data: data})
				continue
			}
			data, err := env.VFS.ReadFile(env.resolve(f))
			if err != nil {
				fmt.Fprintf(stderr, "awk: %s: No such file or directory\n", f)
				continue
			}
			inputs = append(inputs, awk.NamedInput{Name: f, Data: data})
		}
	}

	code, err := it.Run(inputs)
	if err != nil {
		fmt.Fprintf(stderr, "awk: %v\n", err)
		return 2
	}
	return code
}
