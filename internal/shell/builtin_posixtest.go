package shell

import "strings"

// builtinTestBracket is `[`: identical to `test` but requires a closing
// "]" as the last argument.
func builtinTestBracket(s *State, args []string, ctx *ExecContext) (int, error) {
	if len(args) == 0 || args[len(args)-1] != "]" {
		return 2, errf(2, "[: missing closing ']'")
	}
	return builtinTest(s, args[:len(args)-1], ctx)
}

// builtinTest implements the classic POSIX `test` argument grammar
// (distinct from the `[[ ]]` parser in cond.go, which tokenizes at parse
// time — `test`'s operands are runtime argv strings, so it re-derives the
// same operator semantics directly over []string).
func builtinTest(s *State, args []string, ctx *ExecContext) (int, error) {
	v, err := evalTestArgs(s, args)
	if err != nil {
		return 2, nil
	}
	return boolToInt(!v), nil
}

func evalTestArgs(s *State, args []string) (bool, error) {
	switch len(args) {
	case 0:
		return false, nil
	case 1:
		return args[0] != "", nil
	case 2:
		if args[0] == "!" {
			v, err := evalTestArgs(s, args[1:])
			return !v, err
		}
		return testUnary(s, args[0], args[1])
	case 3:
		if args[0] == "!" {
			v, err := evalTestArgs(s, args[1:])
			return !v, err
		}
		if args[1] == "-a" || args[1] == "-o" {
			l, _ := evalTestArgs(s, args[:1])
			r, _ := evalTestArgs(s, args[2:])
			if args[1] == "-a" {
				return l && r, nil
			}
			return l || r, nil
		}
		return testBinary(s, args[0], args[1], args[2])
	default:
		if args[0] == "(" && args[len(args)-1] == ")" {
			return evalTestArgs(s, args[1:len(args)-1])
		}
		if args[0] == "!" {
			v, err := evalTestArgs(s, args[1:])
			return !v, err
		}
		for i, a := range args {
			if a == "-a" {
				l, _ := evalTestArgs(s, args[:i])
				r, _ := evalTestArgs(s, args[i+1:])
				return l && r, nil
			}
		}
		for i, a := range args {
			if a == "-o" {
				l, _ := evalTestArgs(s, args[:i])
				r, _ := evalTestArgs(s, args[i+1:])
				return l || r, nil
			}
		}
		return false, nil
	}
}

func testUnary(s *State, op, operand string) (bool, error) {
	word := Word{Parts: []WordPart{LiteralPart{Text: operand}}}
	return evalCondUnary(CondUnary{Op: op, Operand: word}, s)
}

func testBinary(s *State, left, op, right string) (bool, error) {
	if !strings.HasPrefix(op, "-") && op != "=" && op != "==" && op != "!=" {
		return false, nil
	}
	lw := Word{Parts: []WordPart{LiteralPart{Text: left}}}
	rw := Word{Parts: []WordPart{LiteralPart{Text: right}}}
	return evalCondBinary(CondBinary{Op: op, Left: lw, Right: rw}, s)
}
