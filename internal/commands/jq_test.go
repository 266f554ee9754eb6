package commands

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestJQFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		input  string
		want   []interface{}
	}{
		{"identity", ".", `42`, []interface{}{42.0}},
		{"field", ".foo", `{"foo":1,"bar":2}`, []interface{}{1.0}},
		{"nested field", ".a.b", `{"a":{"b":3}}`, []interface{}{3.0}},
		{"optional field on scalar", ".foo?", `5`, nil},
		{"index", ".[1]", `[10,20,30]`, []interface{}{20.0}},
		{"negative index", ".[-1]", `[10,20,30]`, []interface{}{30.0}},
		{"iterate array", ".[]", `[1,2,3]`, []interface{}{1.0, 2.0, 3.0}},
		{"pipe", ".a | .b", `{"a":{"b":9}}`, []interface{}{9.0}},
		{"comma", ".a, .b", `{"a":1,"b":2}`, []interface{}{1.0, 2.0}},
		{"array construction", "[.[] + 1]", `[1,2,3]`, []interface{}{[]interface{}{2.0, 3.0, 4.0}}},
		{"object construction", "{x: .a, y: .b}", `{"a":1,"b":2}`, []interface{}{map[string]interface{}{"x": 1.0, "y": 2.0}}},
		{"computed key dangerous", `{("__proto__"): "bad"}`, `null`, []interface{}{map[string]interface{}{}}},
		{"computed key safe", `{(.k): .v}`, `{"k":"name","v":"bob"}`, []interface{}{map[string]interface{}{"name": "bob"}}},
		{"select true", ".[] | select(. > 1)", `[1,2,3]`, []interface{}{2.0, 3.0}},
		{"map", "map(. * 2)", `[1,2,3]`, []interface{}{[]interface{}{2.0, 4.0, 6.0}}},
		{"length string", "length", `"hello"`, []interface{}{5.0}},
		{"length array", "length", `[1,2,3]`, []interface{}{3.0}},
		{"has", `has("a")`, `{"a":1}`, []interface{}{true}},
		{"type", "type", `[1]`, []interface{}{"array"}},
		{"add", "add", `[1,2,3]`, []interface{}{6.0}},
		{"comparison", ".a == .b", `{"a":1,"b":1}`, []interface{}{true}},
		{"and/or", "true and false", `null`, []interface{}{false}},
		{"not call", "(1 == 2) | not", `null`, []interface{}{true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := parseJQ(tt.filter)
			if err != nil {
				t.Fatalf("parseJQ(%q): %v", tt.filter, err)
			}
			in := jsonDecode(t, tt.input)
			got, err := evalJQ(filter, in)
			if err != nil {
				t.Fatalf("evalJQ(%q): %v", tt.filter, err)
			}
			if !jqResultsEqual(got, tt.want) {
				t.Errorf("evalJQ(%q) = %#v, want %#v", tt.filter, got, tt.want)
			}
		})
	}
}

func jsonDecode(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("json decode %q: %v", s, err)
	}
	return jqNormalizeNumbers(v)
}

func jqResultsEqual(got, want []interface{}) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !jqDeepEqual(got[i], want[i]) {
			return false
		}
	}
	return true
}

func jqDeepEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jqDeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !jqDeepEqual(v, bv[k]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

func TestExecuteJQProtoFilter(t *testing.T) {
	var out, errOut bytes.Buffer
	code := executeJQ([]string{"-c", `{("__proto__"): "bad"}`}, bytes.NewBufferString("null"), &out, &errOut, &Env{})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut.String())
	}
	if out.String() != "{}\n" {
		t.Fatalf("output = %q, want %q", out.String(), "{}\n")
	}
}
