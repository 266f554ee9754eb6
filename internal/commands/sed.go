package commands

import (
	"fmt"
	"io"

	"github.com/agentsh/agentsh/internal/sed"
	"github.com/agentsh/agentsh/internal/vfs"
)

func init() {
	register("sed", executeSed)
}

// executeSed implements the sed subset agentsh scripts rely on: -n,
// -E/-r, -e/-f (repeatable, joined with newlines), -i (in-place on a
// single file operand), and r/R/w/W commands resolved against the vfs.
func executeSed(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	var scriptParts []string
	extended := false
	suppress := false
	inPlace := false
	haveScript := false
	var files []string

	i := 0
	for i < len(args) {
		a := args[i]
		switch {
		case a == "-n" || a == "--quiet" || a == "--silent":
			suppress = true
		case a == "-E" || a == "-r" || a == "--regexp-extended":
			extended = true
		case a == "-i" || a == "--in-place":
			inPlace = true
		case a == "-e" && i+1 < len(args):
			i++
			scriptParts = append(scriptParts, args[i])
			haveScript = true
		case a == "-f" && i+1 < len(args):
			i++
			data, err := env.VFS.ReadFile(env.resolve(args[i]))
			if err != nil {
				fmt.Fprintf(stderr, "sed: can't read %s\n", args[i])
				return 2
			}
			scriptParts = append(scriptParts, string(data))
			haveScript = true
		case !haveScript:
			scriptParts = append(scriptParts, a)
			haveScript = true
		default:
			files = append(files, a)
		}
		i++
	}
	if !haveScript {
		fmt.Fprintln(stderr, "sed: no script specified")
		return 2
	}

	script := ""
	for n, s := range scriptParts {
		if n > 0 {
			script += "\n"
		}
		script += s
	}

	fio := sed.FileIO{
		ReadFile: func(name string) ([]byte, error) {
			return env.VFS.ReadFile(env.resolve(name))
		},
		WriteFile: func(name string, data []byte) error {
			return env.VFS.WriteFile(env.resolve(name), data, vfs.WriteOpts{})
		},
	}
	opts := sed.Options{Extended: extended, SuppressPrint: suppress, Files: fio}

	runOne := func(data []byte) (string, int, error) {
		return sed.Run(script, data, opts)
	}

	if len(files) == 0 {
		data, _ := io.ReadAll(stdin)
		out, code, err := runOne(data)
		if err != nil {
			fmt.Fprintf(stderr, "sed: %v\n", err)
		}
		io.WriteString(stdout, out)
		return code
	}

	exit := 0
	for _, f := range files {
		abs := env.resolve(f)
		data, err := env.VFS.ReadFile(abs)
		if err != nil {
			fmt.Fprintf(stderr, "sed: can't read %s: No such file or directory\n", f)
			exit = 2
			continue
		}
		out, code, err := runOne(data)
		if err != nil {
			fmt.Fprintf(stderr, "sed: %v\n", err)
			exit = code
			continue
		}
		if code != 0 {
			exit = code
		}
		if inPlace {
			if werr := env.VFS.WriteFile(abs, []byte(out), vfs.WriteOpts{}); werr != nil {
				fmt.Fprintf(stderr, "sed: %v\n", werr)
				exit = 1
			}
		} else {
			io.WriteString(stdout, out)
		}
	}
	return exit
}
