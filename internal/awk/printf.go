package awk

import (
	"fmt"
	"strconv"
	"strings"
)

// sprintf implements awk's printf formatting (spec.md §4.6 "printf
// formatting"): flags `- + space # 0`, width/precision (with `*`),
// positional `%n$`, conversions `s d i f e E g G x X o c %`.
func sprintf(format string, args []value) string {
	var sb strings.Builder
	argIdx := 0
	nextArg := func() value {
		if argIdx < len(args) {
			v := args[argIdx]
			argIdx++
			return v
		}
		return value{}
	}
	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			i++
			continue
		}
		i++
		if i >= len(format) {
			sb.WriteByte('%')
			break
		}
		if format[i] == '%' {
			sb.WriteByte('%')
			i++
			continue
		}
		start := i
		// positional n$
		posArg := -1
		j := i
		for j < len(format) && format[j] >= '0' && format[j] <= '9' {
			j++
		}
		if j > i && j < len(format) && format[j] == '$' {
			n, _ := strconv.Atoi(format[i:j])
			posArg = n - 1
			i = j + 1
		}
		var flags string
		for i < len(format) && strings.ContainsRune("-+ 0#", rune(format[i])) {
			flags += string(format[i])
			i++
		}
		width := ""
		if i < len(format) && format[i] == '*' {
			width = strconv.Itoa(int(nextArg().toNum()))
			i++
		} else {
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				width += string(format[i])
				i++
			}
		}
		prec := ""
		hasPrec := false
		if i < len(format) && format[i] == '.' {
			hasPrec = true
			i++
			if i < len(format) && format[i] == '*' {
				prec = strconv.Itoa(int(nextArg().toNum()))
				i++
			} else {
				for i < len(format) && format[i] >= '0' && format[i] <= '9' {
					prec += string(format[i])
					i++
				}
			}
		}
		if i >= len(format) {
			sb.WriteString(format[start-1 : i])
			break
		}
		verb := format[i]
		i++
		var arg value
		if posArg >= 0 && posArg < len(args) {
			arg = args[posArg]
		} else {
			arg = nextArg()
		}
		sb.WriteString(formatOne(verb, flags, width, prec, hasPrec, arg))
	}
	return sb.String()
}

func formatOne(verb byte, flags, width, prec string, hasPrec bool, arg value) string {
	spec := "%" + flags + width
	if hasPrec {
		spec += "." + prec
	}
	switch verb {
	case 's':
		return fmt.Sprintf(spec+"s", arg.toStr("%.6g"))
	case 'd', 'i':
		return fmt.Sprintf(spec+"d", int64(arg.toNum()))
	case 'o':
		return fmt.Sprintf(spec+"o", int64(arg.toNum()))
	case 'x':
		return fmt.Sprintf(spec+"x", int64(arg.toNum()))
	case 'X':
		return fmt.Sprintf(spec+"X", int64(arg.toNum()))
	case 'c':
		if arg.isNum || arg.isStrnum {
			return fmt.Sprintf(spec+"c", rune(int64(arg.toNum())))
		}
		if len(arg.str) > 0 {
			return fmt.Sprintf(spec+"c", rune(arg.str[0]))
		}
		return ""
	case 'f', 'F':
		return fmt.Sprintf(spec+"f", arg.toNum())
	case 'e':
		return fmt.Sprintf(spec+"e", arg.toNum())
	case 'E':
		return fmt.Sprintf(spec+"E", arg.toNum())
	case 'g':
		return fmt.Sprintf(spec+"g", arg.toNum())
	case 'G':
		return fmt.Sprintf(spec+"G", arg.toNum())
	default:
		return "%" + string(verb)
	}
}
