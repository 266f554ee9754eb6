package commands

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/agentsh/agentsh/internal/vfs"
)

func init() {
	register("env", executeEnv)
	register("printenv", executeEnv)
	register("which", executeWhich)
	register("md5sum", executeMd5sum)
	register("sha1sum", executeSha1sum)
	register("sha256sum", executeSha256sum)
	register("date", executeDate)
	register("uname", executeUname)
	register("xargs", executeXargs)
	register("patch", executePatch)
}

func executeEnv(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	pairs := append([]string{}, env.Environ...)
	if len(args) == 0 {
		sort.Strings(pairs)
		for _, p := range pairs {
			fmt.Fprintln(stdout, p)
		}
		return 0
	}
	status := 0
	for _, name := range args {
		found := false
		for _, p := range pairs {
			if strings.HasPrefix(p, name+"=") {
				fmt.Fprintln(stdout, strings.TrimPrefix(p, name+"="))
				found = true
				break
			}
		}
		if !found {
			status = 1
		}
	}
	return status
}

// executeWhich reports whether a name resolves in the command registry
// (there is no real $PATH to search, since every dispatchable name lives
// in one in-process registry).
func executeWhich(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	status := 0
	for _, name := range args {
		if _, ok := Registry[name]; ok {
			fmt.Fprintln(stdout, name)
			continue
		}
		fmt.Fprintf(stderr, "which: no %s\n", name)
		status = 1
	}
	return status
}

func executeMd5sum(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	return hashSum(args, stdin, stdout, stderr, env, func(b []byte) string {
		sum := md5.Sum(b)
		return hex.EncodeToString(sum[:])
	})
}

func executeSha1sum(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	return hashSum(args, stdin, stdout, stderr, env, func(b []byte) string {
		sum := sha1.Sum(b)
		return hex.EncodeToString(sum[:])
	})
}

func executeSha256sum(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	return hashSum(args, stdin, stdout, stderr, env, func(b []byte) string {
		sum := sha256.Sum256(b)
		return hex.EncodeToString(sum[:])
	})
}

func hashSum(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env, digest func([]byte) string) int {
	if len(args) == 0 {
		data, _ := io.ReadAll(stdin)
		fmt.Fprintf(stdout, "%s  -\n", digest(data))
		return 0
	}
	status := 0
	for _, f := range args {
		data, err := env.VFS.ReadFile(env.resolve(f))
		if err != nil {
			fmt.Fprintf(stderr, "%s: No such file or directory\n", f)
			status = 1
			continue
		}
		fmt.Fprintf(stdout, "%s  %s\n", digest(data), f)
	}
	return status
}

// executeDate supports a small subset of strftime-style conversions
// (%Y %m %d %H %M %S), enough for scripting use without a real clock
// dependency beyond time.Now.
func executeDate(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	format := "Mon Jan  2 15:04:05 MST 2006"
	for _, a := range args {
		if strings.HasPrefix(a, "+") {
			format = convertStrftime(a[1:])
		}
	}
	fmt.Fprintln(stdout, time.Now().Format(format))
	return 0
}

func convertStrftime(spec string) string {
	replacer := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%y", "06", "%Z", "MST",
	)
	return replacer.Replace(spec)
}

func executeUname(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	fmt.Fprintln(stdout, "agentsh")
	return 0
}

// executeXargs reads whitespace-separated tokens from stdin and invokes
// the named command once per token batch, dispatching through this same
// package's registry.
func executeXargs(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "xargs: missing command")
		return 1
	}
	name := args[0]
	fixedArgs := args[1:]
	fn, ok := Registry[name]
	if !ok {
		fmt.Fprintf(stderr, "xargs: %s: command not found\n", name)
		return 127
	}
	data, _ := io.ReadAll(stdin)
	tokens := strings.Fields(string(data))
	if len(tokens) == 0 {
		return 0
	}
	return fn(append(append([]string{}, fixedArgs...), tokens...), strings.NewReader(""), stdout, stderr, env)
}

// executePatch applies a minimal unified-diff-style patch: lines
// prefixed "< " are removed from the target file, lines prefixed "> "
// are appended, matching the format diffLines produces. This covers the
// round-trip diff/patch pairing without implementing full hunk context
// matching.
func executePatch(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "patch: missing target file")
		return 1
	}
	target := args[0]
	data, err := env.VFS.ReadFile(env.resolve(target))
	if err != nil {
		fmt.Fprintf(stderr, "patch: %s: No such file or directory\n", target)
		return 1
	}
	patchData, _ := io.ReadAll(stdin)
	lines := strings.Split(string(data), "\n")
	var removed = map[string]bool{}
	var added []string
	for _, l := range strings.Split(string(patchData), "\n") {
		switch {
		case strings.HasPrefix(l, "< "):
			removed[strings.TrimPrefix(l, "< ")] = true
		case strings.HasPrefix(l, "> "):
			added = append(added, strings.TrimPrefix(l, "> "))
		}
	}
	var out []string
	for _, l := range lines {
		if !removed[l] {
			out = append(out, l)
		}
	}
	out = append(out, added...)
	return boolStatus(env.VFS.WriteFile(env.resolve(target), []byte(strings.Join(out, "\n")), vfs.WriteOpts{}) != nil)
}
