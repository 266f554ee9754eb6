package commands

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentsh/agentsh/internal/vfs"
)

func init() {
	register("find", executeFind)
}

// executeFind implements the common subset of GNU find: -name, -type,
// -maxdepth, -print (default action). It walks the virtual tree rather
// than the host filesystem, matching the sandboxed scoping every other
// command in this package observes.
func executeFind(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	root := "."
	var namePat string
	var typeFilter byte
	maxDepth := -1
	i := 0
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		root = args[0]
		i = 1
	}
	for i < len(args) {
		switch args[i] {
		case "-name":
			i++
			if i < len(args) {
				namePat = args[i]
			}
		case "-type":
			i++
			if i < len(args) {
				typeFilter = args[i][0]
			}
		case "-maxdepth":
			i++
			if i < len(args) {
				fmt.Sscanf(args[i], "%d", &maxDepth)
			}
		case "-print":
			// default action, no-op
		}
		i++
	}
	rootAbs := env.resolve(root)
	depthOf := func(p string) int {
		rel := strings.TrimPrefix(strings.TrimPrefix(p, rootAbs), "/")
		if rel == "" {
			return 0
		}
		return strings.Count(rel, "/") + 1
	}
	status := 0
	err := env.VFS.Walk(rootAbs, func(absPath string, info vfs.FileInfo) error {
		if maxDepth >= 0 && depthOf(absPath) > maxDepth {
			return nil
		}
		if namePat != "" {
			ok, _ := doublestar.Match(namePat, path.Base(absPath))
			if !ok {
				return nil
			}
		}
		if typeFilter == 'd' && !info.IsDir {
			return nil
		}
		if typeFilter == 'f' && (info.IsDir || info.IsLink) {
			return nil
		}
		if typeFilter == 'l' && !info.IsLink {
			return nil
		}
		displayPath := absPath
		if root != "/" {
			rel := strings.TrimPrefix(absPath, rootAbs)
			displayPath = root + rel
		}
		fmt.Fprintln(stdout, displayPath)
		return nil
	})
	if err != nil {
		fmt.Fprintf(stderr, "find: %s: No such file or directory\n", root)
		status = 1
	}
	return status
}
