package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/agentsh/agentsh/internal/vfs"
)

func TestGrepBasicMatch(t *testing.T) {
	env := newTestEnv()
	var out, errOut bytes.Buffer
	in := strings.NewReader("alpha\nbeta\ngamma\n")
	code := executeGrep([]string{"eta"}, in, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut.String())
	}
	if out.String() != "beta\n" {
		t.Errorf("out = %q", out.String())
	}
}

func TestGrepNoMatchExitStatus(t *testing.T) {
	env := newTestEnv()
	var out, errOut bytes.Buffer
	code := executeGrep([]string{"nope"}, strings.NewReader("alpha\n"), &out, &errOut, env)
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
}

func TestGrepDefaultsNoLineNumbers(t *testing.T) {
	env := newTestEnv()
	var out, errOut bytes.Buffer
	code := executeGrep([]string{"a"}, strings.NewReader("a\nb\na\n"), &out, &errOut, env)
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if strings.Contains(out.String(), ":") {
		t.Errorf("grep should not show line numbers by default: %q", out.String())
	}
}

func TestRgDefaultLineNumbers(t *testing.T) {
	env := newTestEnv()
	env.VFS.WriteFile("/f.txt", []byte("a\nb\na\n"), vfs.WriteOpts{})
	var out, errOut bytes.Buffer
	code := executeRg([]string{"a", "/f.txt"}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	want := "1:a\n3:a\n"
	if out.String() != want {
		t.Errorf("out = %q, want %q", out.String(), want)
	}
}

func TestGrepSmartCase(t *testing.T) {
	env := newTestEnv()
	var out, errOut bytes.Buffer
	// all-lowercase pattern: case-insensitive by default.
	code := executeGrep([]string{"hello"}, strings.NewReader("Hello world\n"), &out, &errOut, env)
	if code != 0 || out.String() != "Hello world\n" {
		t.Fatalf("smart-case lowercase pattern should match: code=%d out=%q", code, out.String())
	}

	out.Reset()
	// mixed-case pattern: case-sensitive by default, so this should miss.
	code = executeGrep([]string{"Hello"}, strings.NewReader("hello world\n"), &out, &errOut, env)
	if code != 1 {
		t.Fatalf("smart-case mixed-case pattern should not match lowercase text: code=%d out=%q", code, out.String())
	}
}

func TestGrepInvertAndCount(t *testing.T) {
	env := newTestEnv()
	var out, errOut bytes.Buffer
	code := executeGrep([]string{"-c", "-v", "b"}, strings.NewReader("a\nb\nc\n"), &out, &errOut, env)
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if out.String() != "2\n" {
		t.Errorf("count = %q, want 2", out.String())
	}
}

func TestGrepOnlyMatchingAndWholeWord(t *testing.T) {
	env := newTestEnv()
	var out, errOut bytes.Buffer
	code := executeGrep([]string{"-o", "-w", "cat"}, strings.NewReader("cats and cat\n"), &out, &errOut, env)
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if out.String() != "cat\n" {
		t.Errorf("out = %q, want only the whole-word match", out.String())
	}
}

func TestGrepRecursiveWalkRespectsGitignore(t *testing.T) {
	env := newTestEnv()
	env.VFS.Mkdir("/proj", true)
	env.VFS.WriteFile("/proj/.gitignore", []byte("*.log\n"), vfs.WriteOpts{})
	env.VFS.WriteFile("/proj/keep.txt", []byte("needle here\n"), vfs.WriteOpts{})
	env.VFS.WriteFile("/proj/skip.log", []byte("needle here too\n"), vfs.WriteOpts{})

	var out, errOut bytes.Buffer
	code := executeRg([]string{"needle", "/proj"}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "keep.txt") {
		t.Errorf("expected keep.txt in results: %q", out.String())
	}
	if strings.Contains(out.String(), "skip.log") {
		t.Errorf("skip.log should have been excluded by .gitignore: %q", out.String())
	}
}

func TestGrepRecursiveWalkSkipsHiddenByDefault(t *testing.T) {
	env := newTestEnv()
	env.VFS.Mkdir("/proj", true)
	env.VFS.WriteFile("/proj/.hidden.txt", []byte("needle\n"), vfs.WriteOpts{})
	env.VFS.WriteFile("/proj/visible.txt", []byte("needle\n"), vfs.WriteOpts{})

	var out, errOut bytes.Buffer
	code := executeRg([]string{"needle", "/proj"}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if strings.Contains(out.String(), ".hidden.txt") {
		t.Errorf("hidden file should be skipped by default: %q", out.String())
	}

	out.Reset()
	code = executeRg([]string{"--hidden", "needle", "/proj"}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(out.String(), ".hidden.txt") {
		t.Errorf("--hidden should include dot files: %q", out.String())
	}
}

func TestGrepBinarySkipUnlessText(t *testing.T) {
	env := newTestEnv()
	binData := []byte("needle\x00binary garbage")
	env.VFS.WriteFile("/bin.dat", binData, vfs.WriteOpts{})

	var out, errOut bytes.Buffer
	code := executeRg([]string{"needle", "/bin.dat"}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(out.String(), "binary file") {
		t.Errorf("expected binary-file notice, got %q", out.String())
	}

	out.Reset()
	code = executeRg([]string{"--text", "-N", "needle", "/bin.dat"}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if strings.Contains(out.String(), "binary file") {
		t.Errorf("--text should scan content instead of reporting binary: %q", out.String())
	}
}

func TestGrepTypeFilter(t *testing.T) {
	env := newTestEnv()
	env.VFS.Mkdir("/proj", true)
	env.VFS.WriteFile("/proj/main.go", []byte("needle\n"), vfs.WriteOpts{})
	env.VFS.WriteFile("/proj/notes.md", []byte("needle\n"), vfs.WriteOpts{})

	var out, errOut bytes.Buffer
	code := executeRg([]string{"-t", "go", "needle", "/proj"}, nil, &out, &errOut, env)
	if code != 0 {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(out.String(), "main.go") || strings.Contains(out.String(), "notes.md") {
		t.Errorf("type filter did not restrict to .go files: %q", out.String())
	}
}
