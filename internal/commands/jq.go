package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

func init() {
	register("jq", executeJQ)
}

// executeJQ implements the jq subset agentsh scripts rely on: a filter
// expression (see jq_lang.go), -r (raw string output), -c (compact
// output), -n (null input, filter runs once against `null`), -e (exit
// 1 if the last output value is false/null), -s (slurp all inputs into
// one array), and file operands read from the vfs (or stdin).
func executeJQ(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	raw := false
	compact := false
	nullInput := false
	exitStatus := false
	slurp := false
	var filterText string
	haveFilter := false
	var files []string

	i := 0
	for i < len(args) {
		a := args[i]
		switch {
		case a == "-r" || a == "--raw-output":
			raw = true
		case a == "-c" || a == "--compact-output":
			compact = true
		case a == "-n" || a == "--null-input":
			nullInput = true
		case a == "-e" || a == "--exit-status":
			exitStatus = true
		case a == "-s" || a == "--slurp":
			slurp = true
		case strings.HasPrefix(a, "-") && a != "-" && !haveFilter:
			// unsupported flag (e.g. -M, --tab): accept and ignore.
		case !haveFilter:
			filterText = a
			haveFilter = true
		default:
			files = append(files, a)
		}
		i++
	}
	if !haveFilter {
		fmt.Fprintln(stderr, "jq: no filter given")
		return 2
	}

	filter, err := parseJQ(filterText)
	if err != nil {
		fmt.Fprintf(stderr, "jq: error: %v\n", err)
		return 3
	}

	var inputBytes []byte
	if nullInput {
		inputBytes = nil
	} else if len(files) == 0 {
		inputBytes, _ = io.ReadAll(stdin)
	} else {
		var buf bytes.Buffer
		for _, f := range files {
			data, err := env.VFS.ReadFile(env.resolve(f))
			if err != nil {
				fmt.Fprintf(stderr, "jq: error: could not open %s\n", f)
				return 2
			}
			buf.Write(data)
		}
		inputBytes = buf.Bytes()
	}

	var values []interface{}
	if nullInput {
		values = []interface{}{nil}
	} else {
		dec := json.NewDecoder(bytes.NewReader(inputBytes))
		dec.UseNumber()
		for {
			var v interface{}
			if err := dec.Decode(&v); err != nil {
				if err == io.EOF {
					break
				}
				fmt.Fprintf(stderr, "jq: error (at <stdin>:0): %v\n", err)
				return 2
			}
			values = append(values, jqNormalizeNumbers(v))
		}
	}
	if slurp {
		values = []interface{}{values}
	}

	lastOutput := interface{}(false)
	haveOutput := false
	for _, v := range values {
		results, err := evalJQ(filter, v)
		if err != nil {
			fmt.Fprintf(stderr, "jq: error: %v\n", err)
			return 5
		}
		for _, r := range results {
			haveOutput = true
			lastOutput = r
			writeJQValue(stdout, r, raw, compact)
		}
	}

	if exitStatus {
		if !haveOutput || !jqTruthy(lastOutput) {
			return 1
		}
	}
	return 0
}

// jqNormalizeNumbers converts json.Number leaves (from UseNumber) into
// float64 so the evaluator only ever sees the canonical jq value types.
func jqNormalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		f, _ := t.Float64()
		return f
	case map[string]interface{}:
		for k, vv := range t {
			t[k] = jqNormalizeNumbers(vv)
		}
		return t
	case []interface{}:
		for i, vv := range t {
			t[i] = jqNormalizeNumbers(vv)
		}
		return t
	}
	return v
}

func writeJQValue(w io.Writer, v interface{}, raw, compact bool) {
	if raw {
		if s, ok := v.(string); ok {
			fmt.Fprintln(w, s)
			return
		}
	}
	if compact {
		data, _ := json.Marshal(jqOrderedValue(v))
		fmt.Fprintln(w, string(data))
		return
	}
	data, _ := json.MarshalIndent(jqOrderedValue(v), "", "  ")
	fmt.Fprintln(w, string(data))
}

// jqOrderedValue is a no-op passthrough; encoding/json already sorts
// object keys on marshal, matching jq's default key ordering closely
// enough for agentsh's purposes.
func jqOrderedValue(v interface{}) interface{} { return v }
