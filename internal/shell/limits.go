package shell

import "fmt"

// Limits bounds every user-controlled loop/recursion the interpreter runs,
// per spec.md section 5 "Cancellation": budget exhaustion is the only
// cancellation mechanism.
type Limits struct {
	MaxCommandCount   int
	MaxCallDepth      int
	MaxLoopIterations int
	MaxOutputBytes    int
}

// DefaultLimits matches the "maxLoopIterations" style bound mentioned by
// the testable properties (section 8): large enough for real scripts,
// small enough that `while true; do :; done` terminates promptly.
func DefaultLimits() Limits {
	return Limits{
		MaxCommandCount:   200000,
		MaxCallDepth:       256,
		MaxLoopIterations: 1000000,
		MaxOutputBytes:    64 << 20,
	}
}

// LimitError is the distinguished "execution limit" failure spec.md
// section 7 requires, tagged with the component that tripped it.
type LimitError struct {
	Component string
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: exceeded maximum iterations", e.Component)
}

func IsLimitError(err error) bool {
	_, ok := err.(*LimitError)
	return ok
}
