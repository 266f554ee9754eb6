package sed

import "strings"

// Options configures one sed invocation.
type Options struct {
	Extended        bool // -E / -r
	SuppressPrint   bool // -n
	Files           FileIO
}

// Run parses script and executes it against input, returning the
// produced output text and an exit code (spec.md §4.7 cycle + §6 exit
// code conventions: 0 success, 2 for a script/compile error).
func Run(script string, input []byte, opts Options) (string, int, error) {
	sc, err := ParseScript(script, opts.Extended)
	if err != nil {
		return "", 2, err
	}
	lines := splitLines(string(input))
	r := &Runner{
		Script:    sc,
		AutoPrint: !opts.SuppressPrint,
		Limits:    DefaultLimits(),
		Files:     opts.Files,
	}
	out, code, err := r.Run(lines)
	if err != nil {
		return out, 1, err
	}
	return out, code, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
