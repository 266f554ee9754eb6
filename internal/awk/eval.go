package awk

import (
	"fmt"
	"math"
	"strings"
)

func (it *Interp) eval(e Expr) (value, error) {
	switch n := e.(type) {
	case *NumLit:
		return numVal(n.Value), nil
	case *StrLit:
		return strVal(n.Value), nil
	case *RegexLit:
		re, err := it.getRegex(n.Pattern)
		if err != nil {
			return value{}, err
		}
		return numVal(boolNum(re.MatchString(it.record))), nil
	case *VarRef:
		return it.evalVarRef(n.Name), nil
	case *FieldRef:
		idx, err := it.eval(n.Index)
		if err != nil {
			return value{}, err
		}
		return it.getField(int(idx.toNum())), nil
	case *ArrayRef:
		key, err := it.evalSubscript(n.Indices)
		if err != nil {
			return value{}, err
		}
		return it.getArray(n.Name)[key], nil
	case *Group:
		return it.eval(n.Inner)
	case *Assign:
		return it.evalAssign(n)
	case *Binary:
		return it.evalBinary(n)
	case *Unary:
		return it.evalUnary(n)
	case *Ternary:
		c, err := it.eval(n.Cond)
		if err != nil {
			return value{}, err
		}
		if c.truthy() {
			return it.eval(n.Then)
		}
		return it.eval(n.Else)
	case *Concat:
		var sb strings.Builder
		for _, p := range n.Parts {
			v, err := it.eval(p)
			if err != nil {
				return value{}, err
			}
			sb.WriteString(v.toStr(it.convfmt()))
		}
		return strVal(sb.String()), nil
	case *Match:
		lv, err := it.eval(n.Left)
		if err != nil {
			return value{}, err
		}
		pat, err := it.evalRegexOperand(n.Re)
		if err != nil {
			return value{}, err
		}
		re, err := it.getRegex(pat)
		if err != nil {
			return value{}, err
		}
		m := re.MatchString(lv.toStr(it.convfmt()))
		if n.Negate {
			m = !m
		}
		return numVal(boolNum(m)), nil
	case *In:
		key, err := it.evalSubscript(n.Indices)
		if err != nil {
			return value{}, err
		}
		arr := it.getArray(n.Array)
		_, ok := arr[key]
		return numVal(boolNum(ok)), nil
	case *Call:
		return it.evalCall(n)
	case *Getline:
		return it.evalGetline(n)
	}
	return value{}, fmt.Errorf("awk: unhandled expression %T", e)
}

func boolNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (it *Interp) evalRegexOperand(e Expr) (string, error) {
	if r, ok := e.(*RegexLit); ok {
		return r.Pattern, nil
	}
	v, err := it.eval(e)
	if err != nil {
		return "", err
	}
	return v.toStr(it.convfmt()), nil
}

func (it *Interp) evalVarRef(name string) value {
	if name == "NF" {
		return numVal(it.getScalar("NF").toNum())
	}
	return it.getScalar(name)
}

func (it *Interp) evalSubscript(indices []Expr) (string, error) {
	if len(indices) == 1 {
		v, err := it.eval(indices[0])
		if err != nil {
			return "", err
		}
		return v.toStr(it.convfmt()), nil
	}
	subsep := it.getScalar("SUBSEP").toStr(it.convfmt())
	parts := make([]string, len(indices))
	for i, idx := range indices {
		v, err := it.eval(idx)
		if err != nil {
			return "", err
		}
		parts[i] = v.toStr(it.convfmt())
	}
	return strings.Join(parts, subsep), nil
}

func (it *Interp) evalBinary(n *Binary) (value, error) {
	switch n.Op {
	case "&&":
		l, err := it.eval(n.Left)
		if err != nil {
			return value{}, err
		}
		if !l.truthy() {
			return numVal(0), nil
		}
		r, err := it.eval(n.Right)
		if err != nil {
			return value{}, err
		}
		return numVal(boolNum(r.truthy())), nil
	case "||":
		l, err := it.eval(n.Left)
		if err != nil {
			return value{}, err
		}
		if l.truthy() {
			return numVal(1), nil
		}
		r, err := it.eval(n.Right)
		if err != nil {
			return value{}, err
		}
		return numVal(boolNum(r.truthy())), nil
	}
	l, err := it.eval(n.Left)
	if err != nil {
		return value{}, err
	}
	r, err := it.eval(n.Right)
	if err != nil {
		return value{}, err
	}
	switch n.Op {
	case "+":
		return numVal(l.toNum() + r.toNum()), nil
	case "-":
		return numVal(l.toNum() - r.toNum()), nil
	case "*":
		return numVal(l.toNum() * r.toNum()), nil
	case "/":
		if r.toNum() == 0 {
			return value{}, fmt.Errorf("awk: division by zero")
		}
		return numVal(l.toNum() / r.toNum()), nil
	case "%":
		if r.toNum() == 0 {
			return value{}, fmt.Errorf("awk: division by zero in %%")
		}
		return numVal(math.Mod(l.toNum(), r.toNum())), nil
	case "^":
		return numVal(math.Pow(l.toNum(), r.toNum())), nil
	case "<":
		return numVal(boolNum(compareValues(l, r) < 0)), nil
	case "<=":
		return numVal(boolNum(compareValues(l, r) <= 0)), nil
	case ">":
		return numVal(boolNum(compareValues(l, r) > 0)), nil
	case ">=":
		return numVal(boolNum(compareValues(l, r) >= 0)), nil
	case "==":
		return numVal(boolNum(compareValues(l, r) == 0)), nil
	case "!=":
		return numVal(boolNum(compareValues(l, r) != 0)), nil
	}
	return value{}, fmt.Errorf("awk: unknown binary operator %q", n.Op)
}

func (it *Interp) evalUnary(n *Unary) (value, error) {
	switch n.Op {
	case "!":
		v, err := it.eval(n.Operand)
		if err != nil {
			return value{}, err
		}
		return numVal(boolNum(!v.truthy())), nil
	case "-":
		v, err := it.eval(n.Operand)
		if err != nil {
			return value{}, err
		}
		return numVal(-v.toNum()), nil
	case "+":
		v, err := it.eval(n.Operand)
		if err != nil {
			return value{}, err
		}
		return numVal(v.toNum()), nil
	case "++", "--":
		old, err := it.eval(n.Operand)
		if err != nil {
			return value{}, err
		}
		delta := 1.0
		if n.Op == "--" {
			delta = -1.0
		}
		newVal := numVal(old.toNum() + delta)
		if err := it.assignTo(n.Operand, newVal); err != nil {
			return value{}, err
		}
		if n.Postfix {
			return numVal(old.toNum()), nil
		}
		return newVal, nil
	}
	return value{}, fmt.Errorf("awk: unknown unary operator %q", n.Op)
}

func (it *Interp) evalAssign(n *Assign) (value, error) {
	rv, err := it.eval(n.Value)
	if err != nil {
		return value{}, err
	}
	if n.Op != "=" {
		lv, err := it.eval(n.Target)
		if err != nil {
			return value{}, err
		}
		switch n.Op {
		case "+=":
			rv = numVal(lv.toNum() + rv.toNum())
		case "-=":
			rv = numVal(lv.toNum() - rv.toNum())
		case "*=":
			rv = numVal(lv.toNum() * rv.toNum())
		case "/=":
			if rv.toNum() == 0 {
				return value{}, fmt.Errorf("awk: division by zero")
			}
			rv = numVal(lv.toNum() / rv.toNum())
		case "%=":
			if rv.toNum() == 0 {
				return value{}, fmt.Errorf("awk: division by zero in %%=")
			}
			rv = numVal(math.Mod(lv.toNum(), rv.toNum()))
		case "^=":
			rv = numVal(math.Pow(lv.toNum(), rv.toNum()))
		}
	}
	if err := it.assignTo(n.Target, rv); err != nil {
		return value{}, err
	}
	return rv, nil
}

func (it *Interp) assignTo(target Expr, v value) error {
	switch t := target.(type) {
	case *VarRef:
		if t.Name == "NF" {
			it.setNF(int(v.toNum()))
			return nil
		}
		it.setScalar(t.Name, v)
		return nil
	case *FieldRef:
		idx, err := it.eval(t.Index)
		if err != nil {
			return err
		}
		it.setField(int(idx.toNum()), v.toStr(it.convfmt()))
		return nil
	case *ArrayRef:
		key, err := it.evalSubscript(t.Indices)
		if err != nil {
			return err
		}
		it.getArray(t.Name)[key] = v
		return nil
	case *Group:
		return it.assignTo(t.Inner, v)
	}
	return fmt.Errorf("awk: invalid assignment target %T", target)
}

func (it *Interp) evalCall(n *Call) (value, error) {
	if fn, ok := it.Prog.Functions[n.Name]; ok {
		return it.callUserFunc(fn, n.Args)
	}
	return it.callBuiltin(n.Name, n.Args)
}

func (it *Interp) callUserFunc(fn *FuncDef, argExprs []Expr) (value, error) {
	if len(it.callStack) >= it.Limits.MaxCallDepth {
		return value{}, &LimitError{Msg: "awk: function call depth exceeded"}
	}
	f := &frame{
		params:  map[string]bool{},
		scalars: map[string]*value{},
		arrays:  map[string]map[string]value{},
	}
	for _, p := range fn.Params {
		f.params[p] = true
	}
	for i, p := range fn.Params {
		if i >= len(argExprs) {
			break
		}
		arg := argExprs[i]
		if vr, ok := arg.(*VarRef); ok && it.arrayExists(vr.Name) {
			f.arrays[p] = it.getArray(vr.Name)
			continue
		}
		v, err := it.eval(arg)
		if err != nil {
			return value{}, err
		}
		vv := v
		f.scalars[p] = &vv
	}
	it.callStack = append(it.callStack, f)
	defer func() { it.callStack = it.callStack[:len(it.callStack)-1] }()
	err := it.runStmts(fn.Body)
	if err != nil {
		if cs, ok := err.(*ctrlSignal); ok && cs.c.kind == ctrlReturn {
			return cs.c.value, nil
		}
		return value{}, err
	}
	return value{}, nil
}
