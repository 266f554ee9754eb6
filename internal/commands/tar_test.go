package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agentsh/agentsh/internal/vfs"
)

func newTestEnv() *Env {
	return &Env{VFS: vfs.New(), Cwd: "/"}
}

func TestTarCreateListExtract(t *testing.T) {
	env := newTestEnv()
	env.VFS.Mkdir("/src", true)
	env.VFS.WriteFile("/src/hello.txt", []byte("hello, tar"), vfs.WriteOpts{})
	env.VFS.Mkdir("/src/sub", true)
	env.VFS.WriteFile("/src/sub/nested.txt", []byte("nested body"), vfs.WriteOpts{})

	var out, errOut bytes.Buffer
	code := executeTar([]string{"-cf", "/out.tar", "-C", "/src", "."}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("create exit = %d, stderr = %s", code, errOut.String())
	}

	out.Reset()
	errOut.Reset()
	code = executeTar([]string{"-tf", "/out.tar"}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("list exit = %d, stderr = %s", code, errOut.String())
	}
	listing := out.String()
	if !strings.Contains(listing, "hello.txt") || !strings.Contains(listing, "sub/nested.txt") {
		t.Fatalf("listing missing expected entries: %q", listing)
	}

	out.Reset()
	errOut.Reset()
	env.VFS.Mkdir("/dest", true)
	code = executeTar([]string{"-xf", "/out.tar", "-C", "/dest"}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("extract exit = %d, stderr = %s", code, errOut.String())
	}
	data, err := env.VFS.ReadFile("/dest/hello.txt")
	if err != nil {
		t.Fatalf("extracted hello.txt missing: %v", err)
	}
	if string(data) != "hello, tar" {
		t.Errorf("extracted content = %q", data)
	}
	nested, err := env.VFS.ReadFile("/dest/sub/nested.txt")
	if err != nil {
		t.Fatalf("extracted sub/nested.txt missing: %v", err)
	}
	if string(nested) != "nested body" {
		t.Errorf("extracted nested content = %q", nested)
	}
}

func TestTarGzipRoundTrip(t *testing.T) {
	env := newTestEnv()
	env.VFS.WriteFile("/f.txt", []byte("compress me"), vfs.WriteOpts{})

	var out, errOut bytes.Buffer
	code := executeTar([]string{"-czf", "/out.tar.gz", "/f.txt"}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("create exit = %d, stderr = %s", code, errOut.String())
	}

	archived, err := env.VFS.ReadFile("/out.tar.gz")
	if err != nil {
		t.Fatalf("archive not written: %v", err)
	}
	if archived[0] != 0x1f || archived[1] != 0x8b {
		t.Fatalf("archive does not look gzip-compressed: %x", archived[:2])
	}

	out.Reset()
	code = executeTar([]string{"-xf", "/out.tar.gz", "-C", "/"}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("extract exit = %d, stderr = %s", code, errOut.String())
	}
	data, err := env.VFS.ReadFile("/f.txt")
	if err != nil || string(data) != "compress me" {
		t.Fatalf("round trip failed: data=%q err=%v", data, err)
	}
}

func TestGzipGunzipFilter(t *testing.T) {
	env := newTestEnv()
	var out, errOut bytes.Buffer
	code := executeGzip(nil, strings.NewReader("plain text body"), &out, &errOut, env)
	if code != 0 {
		t.Fatalf("gzip exit = %d", code)
	}
	compressed := out.Bytes()
	out.Reset()
	code = executeGunzip(nil, bytes.NewReader(compressed), &out, &errOut, env)
	if code != 0 {
		t.Fatalf("gunzip exit = %d", code)
	}
	if out.String() != "plain text body" {
		t.Errorf("round trip = %q", out.String())
	}
}
