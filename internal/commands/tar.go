package commands

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"

	"github.com/agentsh/agentsh/internal/commands/archive"
	"github.com/agentsh/agentsh/internal/vfs"
)

func init() {
	register("tar", executeTar)
	register("gzip", executeGzip)
	register("gunzip", executeGunzip)
	register("zcat", executeZcat)
	register("xz", executeXZ)
	register("unxz", executeUnxz)
}

// executeTar implements create/extract/list (-c/-x/-t), -f archive,
// -v verbose listing, explicit codec flags (-z/-j/-J/--zstd), -a
// suffix auto-compression, -C change-directory, --strip N, -T file-of-
// paths, and -X/--exclude glob filtering. Append/update ("-r"/"-u")
// only work against an uncompressed archive, matching real tar.
func executeTar(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	var mode byte // 'c', 'x', 't', 'r', 'u'
	var archivePath string
	haveArchive := false
	verbose := false
	var explicitCodec string
	autoCodec := false
	chdir := ""
	strip := 0
	var pathsFile string
	var excludes []string
	var files []string

	i := 0
	for i < len(args) {
		a := args[i]
		switch {
		case a == "-c" || a == "--create":
			mode = 'c'
		case a == "-x" || a == "--extract":
			mode = 'x'
		case a == "-t" || a == "--list":
			mode = 't'
		case a == "-r" || a == "--append":
			mode = 'r'
		case a == "-u" || a == "--update":
			mode = 'u'
		case a == "-v" || a == "--verbose":
			verbose = true
		case a == "-z" || a == "--gzip":
			explicitCodec = archive.CodecGzip
		case a == "-j" || a == "--bzip2":
			explicitCodec = archive.CodecBzip2
		case a == "-J" || a == "--xz":
			explicitCodec = archive.CodecXZ
		case a == "--zstd":
			explicitCodec = archive.CodecZstd
		case a == "-a" || a == "--auto-compress":
			autoCodec = true
		case (a == "-f" || a == "--file") && i+1 < len(args):
			i++
			archivePath = args[i]
			haveArchive = true
		case (a == "-C" || a == "--directory") && i+1 < len(args):
			i++
			chdir = args[i]
		case a == "--strip" || a == "--strip-components":
			i++
			if i < len(args) {
				fmt.Sscanf(args[i], "%d", &strip)
			}
		case strings.HasPrefix(a, "--strip="):
			fmt.Sscanf(strings.TrimPrefix(a, "--strip="), "%d", &strip)
		case (a == "-T" || a == "--files-from") && i+1 < len(args):
			i++
			pathsFile = args[i]
		case (a == "-X" || a == "--exclude") && i+1 < len(args):
			i++
			excludes = append(excludes, args[i])
		case strings.HasPrefix(a, "--exclude="):
			excludes = append(excludes, strings.TrimPrefix(a, "--exclude="))
		case len(a) > 1 && a[0] == '-' && !strings.HasPrefix(a, "--") && !haveArchive && mode == 0:
			// combined short flags, e.g. "-cvf"
			for _, c := range a[1:] {
				switch c {
				case 'c':
					mode = 'c'
				case 'x':
					mode = 'x'
				case 't':
					mode = 't'
				case 'r':
					mode = 'r'
				case 'u':
					mode = 'u'
				case 'v':
					verbose = true
				case 'z':
					explicitCodec = archive.CodecGzip
				case 'j':
					explicitCodec = archive.CodecBzip2
				case 'J':
					explicitCodec = archive.CodecXZ
				case 'a':
					autoCodec = true
				case 'f':
					if i+1 < len(args) {
						i++
						archivePath = args[i]
						haveArchive = true
					}
				}
			}
		default:
			files = append(files, a)
		}
		i++
	}

	if mode == 0 {
		fmt.Fprintln(stderr, "tar: you must specify one of -c, -x, -t, -r, -u")
		return 2
	}
	if mode == 'c' && len(files) == 0 && pathsFile == "" {
		fmt.Fprintln(stderr, "tar: -c given no files")
		return 2
	}

	base := env.Cwd
	if chdir != "" {
		base = env.resolve(chdir)
	}
	resolveIn := func(p string) string { return vfs.Resolve(base, p) }

	if pathsFile != "" {
		data, err := env.VFS.ReadFile(env.resolve(pathsFile))
		if err != nil {
			fmt.Fprintf(stderr, "tar: cannot read %s\n", pathsFile)
			return 2
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			files = append(files, line)
		}
	}

	excluded := func(name string) bool {
		for _, pat := range excludes {
			if ok, _ := doublestar.Match(pat, name); ok {
				return true
			}
			if strings.Contains(name, pat) {
				return true
			}
		}
		return false
	}

	switch mode {
	case 'c':
		return tarCreate(files, resolveIn, excluded, explicitCodec, autoCodec, archivePath, haveArchive, env, stdin, stdout, stderr)
	case 'x':
		return tarExtract(base, strip, excluded, archivePath, haveArchive, env, stdin, stderr)
	case 't':
		return tarList(verbose, excluded, archivePath, haveArchive, env, stdin, stdout, stderr)
	case 'r', 'u':
		return tarAppend(files, resolveIn, archivePath, haveArchive, env, stderr)
	}
	return 2
}

func tarCreate(files []string, resolveIn func(string) string, excluded func(string) bool, explicitCodec string, autoCodec bool, archivePath string, haveArchive bool, env *Env, stdin io.Reader, stdout, stderr io.Writer) int {
	var buf bytes.Buffer
	tw := archive.NewWriter(&buf)

	var addPath func(rel string) error
	addPath = func(rel string) error {
		abs := resolveIn(rel)
		info, err := env.VFS.Lstat(abs)
		if err != nil {
			return err
		}
		name := strings.TrimPrefix(rel, "./")
		if excluded(name) {
			return nil
		}
		if info.IsLink {
			target, _ := env.VFS.Readlink(abs)
			return tw.WriteHeader(&archive.Header{Name: name, Linkname: target, Typeflag: archive.TypeSymlink, ModTime: info.ModTime, Mode: int64(info.Mode)})
		}
		if info.IsDir {
			if err := tw.WriteHeader(&archive.Header{Name: name + "/", Typeflag: archive.TypeDir, ModTime: info.ModTime, Mode: int64(info.Mode)}); err != nil {
				return err
			}
			children, err := env.VFS.Readdir(abs)
			if err != nil {
				return err
			}
			for _, c := range children {
				if err := addPath(path.Join(rel, c)); err != nil {
					return err
				}
			}
			return nil
		}
		data, err := env.VFS.ReadFile(abs)
		if err != nil {
			return err
		}
		if err := tw.WriteHeader(&archive.Header{Name: name, Size: int64(len(data)), ModTime: info.ModTime, Mode: int64(info.Mode), Typeflag: archive.TypeReg}); err != nil {
			return err
		}
		_, err = tw.Write(data)
		return err
	}

	for _, f := range files {
		if err := addPath(f); err != nil {
			fmt.Fprintf(stderr, "tar: %s: %v\n", f, err)
			return 2
		}
	}
	if err := tw.Close(); err != nil {
		fmt.Fprintf(stderr, "tar: %v\n", err)
		return 2
	}

	out := buf.Bytes()
	codec := explicitCodec
	if codec == "" && autoCodec && archivePath != "" {
		codec = archive.CodecForSuffix(archivePath)
	}
	if codec != "" {
		compressed, err := archive.Compress(codec, out)
		if err != nil {
			fmt.Fprintf(stderr, "tar: %v\n", err)
			return 2
		}
		out = compressed
	}

	if !haveArchive || archivePath == "-" {
		stdout.Write(out)
		return 0
	}
	if err := env.VFS.WriteFile(env.resolve(archivePath), out, vfs.WriteOpts{}); err != nil {
		fmt.Fprintf(stderr, "tar: %v\n", err)
		return 2
	}
	return 0
}

func tarReadArchive(archivePath string, haveArchive bool, env *Env, stdin io.Reader) ([]byte, error) {
	var raw []byte
	var err error
	if !haveArchive || archivePath == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = env.VFS.ReadFile(env.resolve(archivePath))
	}
	if err != nil {
		return nil, err
	}
	codec := archive.SniffCodec(raw)
	return archive.Decompress(codec, raw)
}

func tarExtract(base string, strip int, excluded func(string) bool, archivePath string, haveArchive bool, env *Env, stdin io.Reader, stderr io.Writer) int {
	data, err := tarReadArchive(archivePath, haveArchive, env, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "tar: %v\n", err)
		return 2
	}
	tr := archive.NewReader(bytes.NewReader(data))
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(stderr, "tar: %v\n", err)
			return 2
		}
		name := stripComponents(h.Name, strip)
		if name == "" {
			if h.Typeflag == archive.TypeReg || h.Typeflag == archive.TypeRegA {
				tr.ReadAll()
			}
			continue
		}
		if excluded(name) {
			if h.Typeflag == archive.TypeReg || h.Typeflag == archive.TypeRegA {
				tr.ReadAll()
			}
			continue
		}
		dest := vfs.Resolve(base, name)
		switch {
		case h.IsDir():
			env.VFS.Mkdir(dest, true)
		case h.IsSymlink():
			env.VFS.Mkdir(path.Dir(dest), true)
			env.VFS.Symlink(h.Linkname, dest)
		default:
			env.VFS.Mkdir(path.Dir(dest), true)
			body, err := tr.ReadAll()
			if err != nil {
				fmt.Fprintf(stderr, "tar: %v\n", err)
				return 2
			}
			if err := env.VFS.WriteFile(dest, body, vfs.WriteOpts{Mode: uint32(h.Mode)}); err != nil {
				fmt.Fprintf(stderr, "tar: %v\n", err)
				return 2
			}
		}
	}
	return 0
}

func stripComponents(name string, n int) string {
	name = strings.TrimSuffix(name, "/")
	if n <= 0 {
		return name
	}
	parts := strings.Split(name, "/")
	if len(parts) <= n {
		return ""
	}
	return strings.Join(parts[n:], "/")
}

func tarList(verbose bool, excluded func(string) bool, archivePath string, haveArchive bool, env *Env, stdin io.Reader, stdout, stderr io.Writer) int {
	data, err := tarReadArchive(archivePath, haveArchive, env, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "tar: %v\n", err)
		return 2
	}
	tr := archive.NewReader(bytes.NewReader(data))
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(stderr, "tar: %v\n", err)
			return 2
		}
		if h.Typeflag == archive.TypeReg || h.Typeflag == archive.TypeRegA {
			tr.ReadAll()
		}
		if excluded(strings.TrimSuffix(h.Name, "/")) {
			continue
		}
		if verbose {
			kind := byte('-')
			if h.IsDir() {
				kind = 'd'
			} else if h.IsSymlink() {
				kind = 'l'
			}
			fmt.Fprintf(stdout, "%c%s %8s %s %s\n", kind, permString(uint32(h.Mode)), humanize.Bytes(uint64(h.Size)), h.ModTime.UTC().Format(time.RFC3339), h.Name)
		} else {
			fmt.Fprintln(stdout, h.Name)
		}
	}
	return 0
}

func tarAppend(files []string, resolveIn func(string) string, archivePath string, haveArchive bool, env *Env, stderr io.Writer) int {
	if !haveArchive {
		fmt.Fprintln(stderr, "tar: append/update requires -f archive")
		return 2
	}
	existing, err := env.VFS.ReadFile(env.resolve(archivePath))
	if err != nil {
		existing = nil
	} else if archive.SniffCodec(existing) != archive.CodecNone {
		fmt.Fprintln(stderr, "tar: cannot append/update a compressed archive")
		return 2
	}

	var buf bytes.Buffer
	if len(existing) >= 1024 {
		buf.Write(existing[:len(existing)-1024]) // drop the two trailing zero blocks
	}
	tw := archive.NewWriter(&buf)
	for _, f := range files {
		abs := resolveIn(f)
		info, err := env.VFS.Stat(abs)
		if err != nil {
			fmt.Fprintf(stderr, "tar: %s: %v\n", f, err)
			return 2
		}
		data, err := env.VFS.ReadFile(abs)
		if err != nil {
			fmt.Fprintf(stderr, "tar: %s: %v\n", f, err)
			return 2
		}
		if err := tw.WriteHeader(&archive.Header{Name: strings.TrimPrefix(f, "./"), Size: int64(len(data)), ModTime: info.ModTime, Mode: int64(info.Mode), Typeflag: archive.TypeReg}); err != nil {
			fmt.Fprintf(stderr, "tar: %v\n", err)
			return 2
		}
		if _, err := tw.Write(data); err != nil {
			fmt.Fprintf(stderr, "tar: %v\n", err)
			return 2
		}
	}
	if err := tw.Close(); err != nil {
		fmt.Fprintf(stderr, "tar: %v\n", err)
		return 2
	}
	if err := env.VFS.WriteFile(env.resolve(archivePath), buf.Bytes(), vfs.WriteOpts{}); err != nil {
		fmt.Fprintf(stderr, "tar: %v\n", err)
		return 2
	}
	return 0
}

// executeGzip/-gunzip/-zcat/-xz/-unxz are standalone single-stream codec
// filters over stdin/stdout, sharing the archive package's codec table
// with the tar command's -z/-J flags.
func executeGzip(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	return codecFilter(archive.CodecGzip, true, args, stdin, stdout, stderr, env)
}
func executeGunzip(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	return codecFilter(archive.CodecGzip, false, args, stdin, stdout, stderr, env)
}
func executeZcat(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	return codecFilter(archive.CodecGzip, false, args, stdin, stdout, stderr, env)
}
func executeXZ(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	return codecFilter(archive.CodecXZ, true, args, stdin, stdout, stderr, env)
}
func executeUnxz(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	return codecFilter(archive.CodecXZ, false, args, stdin, stdout, stderr, env)
}

func codecFilter(codec string, compress bool, args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	var files []string
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			files = append(files, a)
		}
	}
	var data []byte
	var err error
	if len(files) == 0 {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = env.VFS.ReadFile(env.resolve(files[0]))
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", codec, err)
		return 1
	}
	var out []byte
	if compress {
		out, err = archive.Compress(codec, data)
	} else {
		out, err = archive.Decompress(codec, data)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", codec, err)
		return 1
	}
	stdout.Write(out)
	return 0
}
