package vfs

import "fmt"

// Code is a POSIX-like error code carried by every vfs failure, matching
// spec section 6's contract ("errors carry POSIX-like codes").
type Code string

const (
	ENOENT    Code = "ENOENT"
	ENOTDIR   Code = "ENOTDIR"
	EISDIR    Code = "EISDIR"
	EACCES    Code = "EACCES"
	EEXIST    Code = "EEXIST"
	ENOTEMPTY Code = "ENOTEMPTY"
	ELOOP     Code = "ELOOP"
	EINVAL    Code = "EINVAL"
)

// Error is returned by every vfs operation that fails.
type Error struct {
	Op   string
	Path string
	Code Code
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Path, e.Code)
}

func newErr(op, path string, code Code) error {
	return &Error{Op: op, Path: path, Code: code}
}

// CodeOf extracts the POSIX code from an error returned by this package,
// or "" if err is nil or not one of ours.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
