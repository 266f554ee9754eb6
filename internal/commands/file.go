package commands

import (
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agentsh/agentsh/internal/vfs"
)

func init() {
	register("ls", executeLs)
	register("mkdir", executeMkdir)
	register("rm", executeRm)
	register("rmdir", executeRmdir)
	register("touch", executeTouch)
	register("cp", executeCp)
	register("mv", executeMv)
	register("stat", executeStat)
	register("chmod", executeChmod)
	register("ln", executeLn)
}

func executeLs(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	long := false
	all := false
	var files []string
	for _, a := range args {
		switch {
		case a == "-l":
			long = true
		case a == "-a":
			all = true
		case a == "-la" || a == "-al":
			long, all = true, true
		default:
			files = append(files, a)
		}
	}
	if len(files) == 0 {
		files = []string{"."}
	}
	status := 0
	for i, f := range files {
		abs := env.resolve(f)
		info, err := env.VFS.Stat(abs)
		if err != nil {
			fmt.Fprintf(stderr, "ls: cannot access '%s': No such file or directory\n", f)
			status = 1
			continue
		}
		if !info.IsDir {
			printLsEntry(stdout, f, info, long)
			continue
		}
		if len(files) > 1 {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			fmt.Fprintf(stdout, "%s:\n", f)
		}
		names, err := env.VFS.Readdir(abs)
		if err != nil {
			fmt.Fprintf(stderr, "ls: cannot access '%s': %v\n", f, err)
			status = 1
			continue
		}
		sort.Strings(names)
		if all {
			printLsEntry(stdout, ".", info, long)
			if parentInfo, err := env.VFS.Stat(path.Dir(abs)); err == nil {
				printLsEntry(stdout, "..", parentInfo, long)
			}
		}
		for _, name := range names {
			if !all && strings.HasPrefix(name, ".") {
				continue
			}
			childInfo, err := env.VFS.Stat(path.Join(abs, name))
			if err != nil {
				continue
			}
			printLsEntry(stdout, name, childInfo, long)
		}
	}
	return status
}

func printLsEntry(w io.Writer, name string, info vfs.FileInfo, long bool) {
	if !long {
		fmt.Fprintln(w, name)
		return
	}
	kind := byte('-')
	if info.IsDir {
		kind = 'd'
	} else if info.IsLink {
		kind = 'l'
	}
	fmt.Fprintf(w, "%c%s %10d %s %s\n", kind, permString(info.Mode), info.Size, info.ModTime.Format("Jan _2 15:04"), name)
}

func permString(mode uint32) string {
	perms := "rwxrwxrwx"
	var sb strings.Builder
	for i := 0; i < 9; i++ {
		if mode&(1<<(8-i)) != 0 {
			sb.WriteByte(perms[i])
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

func executeMkdir(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	recursive := false
	var dirs []string
	for _, a := range args {
		if a == "-p" {
			recursive = true
			continue
		}
		dirs = append(dirs, a)
	}
	status := 0
	for _, d := range dirs {
		if err := env.VFS.Mkdir(env.resolve(d), recursive); err != nil {
			fmt.Fprintf(stderr, "mkdir: cannot create directory '%s': %v\n", d, err)
			status = 1
		}
	}
	return status
}

func executeRm(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	recursive, force := false, false
	var targets []string
	for _, a := range args {
		switch a {
		case "-r", "-rf", "-fr", "-R":
			recursive = true
			if a == "-rf" || a == "-fr" {
				force = true
			}
		case "-f":
			force = true
		default:
			targets = append(targets, a)
		}
	}
	status := 0
	for _, t := range targets {
		abs := env.resolve(t)
		info, err := env.VFS.Lstat(abs)
		if err != nil {
			if !force {
				fmt.Fprintf(stderr, "rm: cannot remove '%s': No such file or directory\n", t)
				status = 1
			}
			continue
		}
		if info.IsDir && recursive {
			err = removeTree(env.VFS, abs)
		} else if info.IsDir {
			err = env.VFS.RemoveDir(abs)
		} else {
			err = env.VFS.Unlink(abs)
		}
		if err != nil && !force {
			fmt.Fprintf(stderr, "rm: cannot remove '%s': %v\n", t, err)
			status = 1
		}
	}
	return status
}

func removeTree(fs *vfs.FS, abs string) error {
	names, err := fs.Readdir(abs)
	if err != nil {
		return err
	}
	for _, name := range names {
		child := path.Join(abs, name)
		info, err := fs.Lstat(child)
		if err != nil {
			continue
		}
		if info.IsDir {
			if err := removeTree(fs, child); err != nil {
				return err
			}
		} else if err := fs.Unlink(child); err != nil {
			return err
		}
	}
	return fs.RemoveDir(abs)
}

func executeRmdir(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	status := 0
	for _, a := range args {
		if err := env.VFS.RemoveDir(env.resolve(a)); err != nil {
			fmt.Fprintf(stderr, "rmdir: failed to remove '%s': %v\n", a, err)
			status = 1
		}
	}
	return status
}

func executeTouch(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	status := 0
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		abs := env.resolve(a)
		if _, err := env.VFS.Stat(abs); err != nil {
			if werr := env.VFS.WriteFile(abs, nil, vfs.WriteOpts{}); werr != nil {
				fmt.Fprintf(stderr, "touch: cannot touch '%s': %v\n", a, werr)
				status = 1
				continue
			}
			continue
		}
		if err := env.VFS.Utimes(abs, time.Now()); err != nil {
			fmt.Fprintf(stderr, "touch: cannot touch '%s': %v\n", a, err)
			status = 1
		}
	}
	return status
}

func executeCp(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	recursive := false
	var operands []string
	for _, a := range args {
		if a == "-r" || a == "-R" {
			recursive = true
			continue
		}
		operands = append(operands, a)
	}
	if len(operands) < 2 {
		fmt.Fprintln(stderr, "cp: missing destination file operand")
		return 1
	}
	dst := operands[len(operands)-1]
	srcs := operands[:len(operands)-1]
	dstAbs := env.resolve(dst)
	dstInfo, dstIsDir := env.VFS.Stat(dstAbs)
	isDirDst := dstIsDir == nil && dstInfo.IsDir
	status := 0
	for _, src := range srcs {
		srcAbs := env.resolve(src)
		info, err := env.VFS.Stat(srcAbs)
		if err != nil {
			fmt.Fprintf(stderr, "cp: cannot stat '%s': No such file or directory\n", src)
			status = 1
			continue
		}
		target := dstAbs
		if isDirDst {
			target = path.Join(dstAbs, path.Base(src))
		}
		if info.IsDir {
			if !recursive {
				fmt.Fprintf(stderr, "cp: -r not specified; omitting directory '%s'\n", src)
				status = 1
				continue
			}
			if err := copyTree(env.VFS, srcAbs, target); err != nil {
				fmt.Fprintf(stderr, "cp: %v\n", err)
				status = 1
			}
			continue
		}
		data, err := env.VFS.ReadFile(srcAbs)
		if err != nil {
			fmt.Fprintf(stderr, "cp: cannot read '%s': %v\n", src, err)
			status = 1
			continue
		}
		if err := env.VFS.WriteFile(target, data, vfs.WriteOpts{}); err != nil {
			fmt.Fprintf(stderr, "cp: cannot create '%s': %v\n", dst, err)
			status = 1
		}
	}
	return status
}

func copyTree(fs *vfs.FS, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir {
		data, err := fs.ReadFile(src)
		if err != nil {
			return err
		}
		return fs.WriteFile(dst, data, vfs.WriteOpts{})
	}
	if err := fs.Mkdir(dst, true); err != nil {
		return err
	}
	names, err := fs.Readdir(src)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := copyTree(fs, path.Join(src, name), path.Join(dst, name)); err != nil {
			return err
		}
	}
	return nil
}

func executeMv(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, "mv: missing destination file operand")
		return 1
	}
	dst := args[len(args)-1]
	srcs := args[:len(args)-1]
	dstAbs := env.resolve(dst)
	dstInfo, err := env.VFS.Stat(dstAbs)
	isDirDst := err == nil && dstInfo.IsDir
	status := 0
	for _, src := range srcs {
		target := dstAbs
		if isDirDst {
			target = path.Join(dstAbs, path.Base(src))
		}
		if err := env.VFS.Rename(env.resolve(src), target); err != nil {
			fmt.Fprintf(stderr, "mv: cannot move '%s': %v\n", src, err)
			status = 1
		}
	}
	return status
}

func executeStat(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	status := 0
	for _, a := range args {
		info, err := env.VFS.Stat(env.resolve(a))
		if err != nil {
			fmt.Fprintf(stderr, "stat: cannot stat '%s': No such file or directory\n", a)
			status = 1
			continue
		}
		kind := "regular file"
		if info.IsDir {
			kind = "directory"
		} else if info.IsLink {
			kind = "symbolic link"
		}
		fmt.Fprintf(stdout, "  File: %s\n  Size: %d\t%s\nModify: %s\n", a, info.Size, kind, info.ModTime.Format(time.RFC3339))
	}
	return status
}

func executeChmod(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, "chmod: missing operand")
		return 1
	}
	mode, err := strconv.ParseUint(args[0], 8, 32)
	if err != nil {
		fmt.Fprintf(stderr, "chmod: invalid mode: '%s'\n", args[0])
		return 1
	}
	status := 0
	for _, f := range args[1:] {
		if err := env.VFS.Chmod(env.resolve(f), uint32(mode)); err != nil {
			fmt.Fprintf(stderr, "chmod: cannot access '%s': %v\n", f, err)
			status = 1
		}
	}
	return status
}

func executeLn(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	symbolic := false
	var operands []string
	for _, a := range args {
		if a == "-s" {
			symbolic = true
			continue
		}
		operands = append(operands, a)
	}
	if len(operands) < 2 {
		fmt.Fprintln(stderr, "ln: missing file operand")
		return 1
	}
	if !symbolic {
		fmt.Fprintln(stderr, "ln: hard links are not supported")
		return 1
	}
	if err := env.VFS.Symlink(operands[0], env.resolve(operands[1])); err != nil {
		fmt.Fprintf(stderr, "ln: failed to create symbolic link '%s': %v\n", operands[1], err)
		return 1
	}
	return 0
}
