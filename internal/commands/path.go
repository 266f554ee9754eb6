package commands

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/agentsh/agentsh/internal/vfs"
)

func init() {
	register("basename", executeBasename)
	register("dirname", executeDirname)
	register("split", executeSplit)
	register("join", executeJoin)
	register("diff", executeDiff)
	register("realpath", executeRealpath)
}

func executeBasename(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "basename: missing operand")
		return 1
	}
	base := path.Base(args[0])
	if len(args) > 1 {
		base = strings.TrimSuffix(base, args[1])
	}
	fmt.Fprintln(stdout, base)
	return 0
}

func executeDirname(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "dirname: missing operand")
		return 1
	}
	fmt.Fprintln(stdout, path.Dir(args[0]))
	return 0
}

func executeRealpath(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	status := 0
	for _, a := range args {
		rp, err := env.VFS.Realpath(env.resolve(a))
		if err != nil {
			fmt.Fprintf(stderr, "realpath: %s: No such file or directory\n", a)
			status = 1
			continue
		}
		fmt.Fprintln(stdout, rp)
	}
	return status
}

// generateSplitSuffix produces bash-split-style "aa", "ab", ... suffixes.
func generateSplitSuffix(n int) string {
	first := byte('a' + (n/26)%26)
	second := byte('a' + n%26)
	return string([]byte{first, second})
}

func executeSplit(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	lineCount := 1000
	prefix := "x"
	var input string
	var inputFile string
	i := 0
	for i < len(args) {
		switch {
		case args[i] == "-l" && i+1 < len(args):
			lineCount, _ = strconv.Atoi(args[i+1])
			i += 2
		default:
			if inputFile == "" {
				inputFile = args[i]
			} else {
				prefix = args[i]
			}
			i++
		}
	}
	if inputFile == "" || inputFile == "-" {
		data, _ := io.ReadAll(stdin)
		input = string(data)
	} else {
		data, err := env.VFS.ReadFile(env.resolve(inputFile))
		if err != nil {
			fmt.Fprintf(stderr, "split: %s: No such file or directory\n", inputFile)
			return 1
		}
		input = string(data)
	}
	lines := strings.SplitAfter(input, "\n")
	fileNum := 0
	for i := 0; i < len(lines); i += lineCount {
		end := i + lineCount
		if end > len(lines) {
			end = len(lines)
		}
		name := prefix + generateSplitSuffix(fileNum)
		content := strings.Join(lines[i:end], "")
		if err := env.VFS.WriteFile(env.resolve(name), []byte(content), vfs.WriteOpts{}); err != nil {
			fmt.Fprintf(stderr, "split: %s: %v\n", name, err)
			return 1
		}
		fileNum++
	}
	return 0
}

func executeJoin(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, "join: missing operand")
		return 2
	}
	dataA, err1 := env.VFS.ReadFile(env.resolve(args[0]))
	dataB, err2 := env.VFS.ReadFile(env.resolve(args[1]))
	if err1 != nil || err2 != nil {
		fmt.Fprintln(stderr, "join: No such file or directory")
		return 1
	}
	indexB := map[string]string{}
	for _, line := range strings.Split(strings.TrimSuffix(string(dataB), "\n"), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		indexB[fields[0]] = strings.Join(fields[1:], " ")
	}
	for _, line := range strings.Split(strings.TrimSuffix(string(dataA), "\n"), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if rest, ok := indexB[fields[0]]; ok {
			out := fields[0]
			if len(fields) > 1 {
				out += " " + strings.Join(fields[1:], " ")
			}
			if rest != "" {
				out += " " + rest
			}
			fmt.Fprintln(stdout, out)
		}
	}
	return 0
}

func executeDiff(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, "diff: missing operand")
		return 2
	}
	a, err1 := env.VFS.ReadFile(env.resolve(args[0]))
	b, err2 := env.VFS.ReadFile(env.resolve(args[1]))
	if err1 != nil || err2 != nil {
		fmt.Fprintln(stderr, "diff: No such file or directory")
		return 2
	}
	linesA := strings.Split(string(a), "\n")
	linesB := strings.Split(string(b), "\n")
	edits := diffLines(linesA, linesB)
	if len(edits) == 0 {
		return 0
	}
	for _, e := range edits {
		fmt.Fprintln(stdout, e)
	}
	return 1
}

// diffLines produces a minimal unified-style diff via a classic LCS
// table, grounded in the same "compute an edit script, print it" shape
// the teacher uses for its simplified text utilities.
func diffLines(a, b []string) []string {
	n, m := len(a), len(b)
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}
	var out []string
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out = append(out, fmt.Sprintf("< %s", a[i]))
			i++
		default:
			out = append(out, fmt.Sprintf("> %s", b[j]))
			j++
		}
	}
	for ; i < n; i++ {
		out = append(out, fmt.Sprintf("< %s", a[i]))
	}
	for ; j < m; j++ {
		out = append(out, fmt.Sprintf("> %s", b[j]))
	}
	return out
}
