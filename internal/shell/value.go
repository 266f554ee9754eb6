package shell

import (
	"sort"
	"strconv"
	"strings"
)

// Attr is a bitset of variable attributes (spec.md section 3 "Shell state").
type Attr uint16

const (
	AttrExported Attr = 1 << iota
	AttrReadonly
	AttrInteger
	AttrLowercase
	AttrUppercase
	AttrArray
	AttrAssoc
	AttrNameref
	AttrTrace
)

// Variable is one entry in the variable store. Scalars use Scalar; indexed
// arrays use Elems (keys are decimal string indices); associative arrays
// also use Elems but are additionally marked AttrAssoc so that subscripts
// resolve as string keys, never arithmetic.
type Variable struct {
	Attrs  Attr
	Scalar string
	Elems  map[string]string // for AttrArray / AttrAssoc
	maxIdx int               // highest integer index used, for `arr+=(x)` append
}

func newScalar(v string) *Variable { return &Variable{Scalar: v} }

func (v *Variable) IsArray() bool { return v.Attrs&(AttrArray|AttrAssoc) != 0 }

// Store is the variable table for one scope frame.
type Store map[string]*Variable

// Scope is one frame of the local-scope stack (spec.md section 4.4).
// It remembers the prior binding (nil if the name was previously unset)
// for every name a `local`/`declare` call inside the frame's function
// shadowed, so the frame can be popped exactly on function return.
type Scope struct {
	funcName string
	saved    map[string]*Variable // name -> previous binding (nil = was unset)
}

// namesMatchingPrefix returns variable names in global store with the
// given prefix, sorted, used by ${!prefix*}/${!prefix@}.
func (s Store) namesMatchingPrefix(prefix string) []string {
	var out []string
	for name := range s {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// arrayIndices returns the sorted-numeric (for indexed) or sorted-string
// (for associative) keys of an array variable.
func arrayIndices(v *Variable) []string {
	keys := make([]string, 0, len(v.Elems))
	for k := range v.Elems {
		keys = append(keys, k)
	}
	if v.Attrs&AttrAssoc != 0 {
		sort.Strings(keys)
		return keys
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, _ := strconv.Atoi(keys[i])
		nj, _ := strconv.Atoi(keys[j])
		return ni < nj
	})
	return keys
}

// arrayValues returns values in arrayIndices order.
func arrayValues(v *Variable) []string {
	idx := arrayIndices(v)
	out := make([]string, len(idx))
	for i, k := range idx {
		out[i] = v.Elems[k]
	}
	return out
}

func applyCaseAttrs(attrs Attr, s string) string {
	if attrs&AttrUppercase != 0 {
		return strings.ToUpper(s)
	}
	if attrs&AttrLowercase != 0 {
		return strings.ToLower(s)
	}
	return s
}
