package shell

import (
	"regexp"
	"strings"
)

// EvalCond evaluates a [[ ... ]] expression tree to a boolean (spec.md
// section 3 "Conditional command"), grounded on the file-test and
// string/arithmetic comparison operators bash defines for it.
func EvalCond(e CondExpr, s *State) (bool, error) {
	switch x := e.(type) {
	case CondAnd:
		l, err := EvalCond(x.Left, s)
		if err != nil || !l {
			return false, err
		}
		return EvalCond(x.Right, s)
	case CondOr:
		l, err := EvalCond(x.Left, s)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return EvalCond(x.Right, s)
	case CondNot:
		v, err := EvalCond(x.X, s)
		return !v, err
	case CondGroup:
		return EvalCond(x.X, s)
	case CondWord:
		v, err := expandWordText(&x.W, s)
		if err != nil {
			return false, err
		}
		return v != "", nil
	case CondUnary:
		return evalCondUnary(x, s)
	case CondBinary:
		return evalCondBinary(x, s)
	}
	return false, nil
}

func evalCondUnary(x CondUnary, s *State) (bool, error) {
	operand, err := expandWordText(&x.Operand, s)
	if err != nil {
		return false, err
	}
	switch x.Op {
	case "-z":
		return operand == "", nil
	case "-n":
		return operand != "", nil
	}
	path := resolvePath(s, operand)
	info, statErr := s.VFS.Stat(path)
	switch x.Op {
	case "-e":
		return statErr == nil, nil
	case "-f":
		return statErr == nil && !info.IsDir, nil
	case "-d":
		return statErr == nil && info.IsDir, nil
	case "-s":
		return statErr == nil && info.Size > 0, nil
	case "-L", "-h":
		li, err := s.VFS.Lstat(path)
		return err == nil && li.IsLink, nil
	case "-r", "-w", "-x":
		return statErr == nil, nil
	case "-p", "-S", "-b", "-c", "-g", "-u", "-k":
		return false, nil
	case "-O", "-G":
		return statErr == nil, nil
	case "-N":
		return statErr == nil, nil
	}
	return false, nil
}

func evalCondBinary(x CondBinary, s *State) (bool, error) {
	left, err := expandWordText(&x.Left, s)
	if err != nil {
		return false, err
	}
	switch x.Op {
	case "-nt", "-ot", "-ef":
		right, err := expandWordText(&x.Right, s)
		if err != nil {
			return false, err
		}
		li, lerr := s.VFS.Stat(resolvePath(s, left))
		ri, rerr := s.VFS.Stat(resolvePath(s, right))
		switch x.Op {
		case "-nt":
			return lerr == nil && (rerr != nil || li.ModTime.After(ri.ModTime)), nil
		case "-ot":
			return rerr == nil && (lerr != nil || li.ModTime.Before(ri.ModTime)), nil
		default: // -ef
			return lerr == nil && rerr == nil && resolvePath(s, left) == resolvePath(s, right), nil
		}
	case "-eq", "-ne", "-lt", "-le", "-gt", "-ge":
		rightWord := x.Right
		right, err := expandWordText(&rightWord, s)
		if err != nil {
			return false, err
		}
		l, r := ToNumber(left), ToNumber(right)
		switch x.Op {
		case "-eq":
			return l == r, nil
		case "-ne":
			return l != r, nil
		case "-lt":
			return l < r, nil
		case "-le":
			return l <= r, nil
		case "-gt":
			return l > r, nil
		default: // -ge
			return l >= r, nil
		}
	case "=~":
		pat, err := expandWordText(&x.Right, s)
		if err != nil {
			return false, err
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			return false, errf(2, "bad regex: %v", err)
		}
		return re.MatchString(left), nil
	case "==", "=":
		right, err := expandWordText(&x.Right, s)
		if err != nil {
			return false, err
		}
		return globMatch(right, left), nil
	case "!=":
		right, err := expandWordText(&x.Right, s)
		if err != nil {
			return false, err
		}
		return !globMatch(right, left), nil
	case "<":
		right, err := expandWordText(&x.Right, s)
		if err != nil {
			return false, err
		}
		return strings.Compare(left, right) < 0, nil
	case ">":
		right, err := expandWordText(&x.Right, s)
		if err != nil {
			return false, err
		}
		return strings.Compare(left, right) > 0, nil
	}
	return false, nil
}
