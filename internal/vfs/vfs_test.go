package vfs

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	fs := New()
	if err := fs.Mkdir("/src", false); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	payload := []byte{0x00, 0x01, 0xff, 'h', 'i', 0x00}
	if err := fs.WriteFile("/src/file", payload, WriteOpts{}); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
	got, err := fs.ReadFile("/src/file")
	if err != nil {
		t.Fatalf("readFile: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("round-trip mismatch: got %v want %v", got, payload)
	}
}

func TestMkdirRecursiveAndReaddir(t *testing.T) {
	fs := New()
	if err := fs.Mkdir("/a/b/c", true); err != nil {
		t.Fatalf("mkdir -p: %v", err)
	}
	names, err := fs.Readdir("/a/b")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(names) != 1 || names[0] != "c" {
		t.Fatalf("readdir = %v, want [c]", names)
	}
}

func TestUnlinkMissingIsENOENT(t *testing.T) {
	fs := New()
	err := fs.Unlink("/nope")
	if CodeOf(err) != ENOENT {
		t.Fatalf("got %v, want ENOENT", err)
	}
}

func TestRmdirNonEmptyIsENOTEMPTY(t *testing.T) {
	fs := New()
	fs.Mkdir("/a/b", true)
	if err := fs.RemoveDir("/a"); CodeOf(err) != ENOTEMPTY {
		t.Fatalf("got %v, want ENOTEMPTY", err)
	}
}

func TestSymlinkReadlinkRealpath(t *testing.T) {
	fs := New()
	fs.Mkdir("/a", false)
	fs.WriteFile("/a/real", []byte("x"), WriteOpts{})
	if err := fs.Symlink("real", "/a/link"); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	target, err := fs.Readlink("/a/link")
	if err != nil || target != "real" {
		t.Fatalf("readlink = %q, %v", target, err)
	}
	data, err := fs.ReadFile("/a/link")
	if err != nil || string(data) != "x" {
		t.Fatalf("readFile through symlink = %q, %v", data, err)
	}
	rp, err := fs.Realpath("/a/link")
	if err != nil || rp != "/a/real" {
		t.Fatalf("realpath = %q, %v", rp, err)
	}
}

func TestResolve(t *testing.T) {
	cases := []struct{ cwd, p, want string }{
		{"/home/user", "foo", "/home/user/foo"},
		{"/home/user", "../x", "/home/x"},
		{"/home/user", "/abs/path", "/abs/path"},
		{"/home/user", ".", "/home/user"},
	}
	for _, c := range cases {
		got := Resolve(c.cwd, c.p)
		if got != c.want {
			t.Errorf("Resolve(%q,%q) = %q, want %q", c.cwd, c.p, got, c.want)
		}
	}
}
