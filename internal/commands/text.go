package commands

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/agentsh/agentsh/internal/vfs"
)

func init() {
	register("cat", executeCat)
	register("head", executeHead)
	register("tail", executeTail)
	register("wc", executeWc)
	register("sort", executeSort)
	register("tr", executeTr)
	register("cut", executeCut)
	register("uniq", executeUniq)
	register("nl", executeNl)
	register("rev", executeRev)
	register("tee", executeTee)
	register("tac", executeTac)
	register("comm", executeComm)
	register("paste", executePaste)
}

// readOperands reads each named file (or stdin when args is empty or "-"
// appears) and returns their concatenated bytes, grounded on the
// teacher's cat-style "read everything, then process" shape.
func readOperands(args []string, stdin io.Reader, env *Env, stderr io.Writer, prog string) ([]byte, bool) {
	if len(args) == 0 {
		data, _ := io.ReadAll(stdin)
		return data, true
	}
	var all []byte
	ok := true
	for _, a := range args {
		if a == "-" {
			data, _ := io.ReadAll(stdin)
			all = append(all, data...)
			continue
		}
		data, err := env.VFS.ReadFile(env.resolve(a))
		if err != nil {
			fmt.Fprintf(stderr, "%s: %s: No such file or directory\n", prog, a)
			ok = false
			continue
		}
		all = append(all, data...)
	}
	return all, ok
}

func executeCat(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	numberLines := false
	var files []string
	for _, a := range args {
		if a == "-n" {
			numberLines = true
			continue
		}
		files = append(files, a)
	}
	data, ok := readOperands(files, stdin, env, stderr, "cat")
	if !numberLines {
		stdout.Write(data)
		if !ok {
			return 1
		}
		return 0
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	for i, l := range lines {
		fmt.Fprintf(stdout, "%6d\t%s\n", i+1, l)
	}
	if !ok {
		return 1
	}
	return 0
}

func executeHead(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	n := 10
	var files []string
	for i := 0; i < len(args); i++ {
		if args[i] == "-n" && i+1 < len(args) {
			n, _ = strconv.Atoi(args[i+1])
			i++
			continue
		}
		if strings.HasPrefix(args[i], "-") && len(args[i]) > 1 {
			if v, err := strconv.Atoi(args[i][1:]); err == nil {
				n = v
				continue
			}
		}
		files = append(files, args[i])
	}
	data, ok := readOperands(files, stdin, env, stderr, "head")
	lines := strings.SplitAfter(string(data), "\n")
	if n < len(lines) {
		lines = lines[:n]
	}
	io.WriteString(stdout, strings.Join(lines, ""))
	if !ok {
		return 1
	}
	return 0
}

func executeTail(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	n := 10
	var files []string
	for i := 0; i < len(args); i++ {
		if args[i] == "-n" && i+1 < len(args) {
			n, _ = strconv.Atoi(args[i+1])
			i++
			continue
		}
		if strings.HasPrefix(args[i], "-") && len(args[i]) > 1 {
			if v, err := strconv.Atoi(args[i][1:]); err == nil {
				n = v
				continue
			}
		}
		files = append(files, args[i])
	}
	data, ok := readOperands(files, stdin, env, stderr, "tail")
	text := string(data)
	lines := strings.SplitAfter(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if n < len(lines) {
		lines = lines[len(lines)-n:]
	}
	io.WriteString(stdout, strings.Join(lines, ""))
	if !ok {
		return 1
	}
	return 0
}

func executeWc(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	lines, words, chars, bytesCount := false, false, false, false
	var files []string
	for _, a := range args {
		switch a {
		case "-l":
			lines = true
		case "-w":
			words = true
		case "-c":
			bytesCount = true
		case "-m":
			chars = true
		default:
			files = append(files, a)
		}
	}
	if !lines && !words && !chars && !bytesCount {
		lines, words, bytesCount = true, true, true
	}
	report := func(name string, data []byte) {
		var parts []string
		if lines {
			parts = append(parts, fmt.Sprintf("%7d", strings.Count(string(data), "\n")))
		}
		if words {
			parts = append(parts, fmt.Sprintf("%7d", len(strings.Fields(string(data)))))
		}
		if chars {
			parts = append(parts, fmt.Sprintf("%7d", len([]rune(string(data)))))
		}
		if bytesCount {
			parts = append(parts, fmt.Sprintf("%7d", len(data)))
		}
		line := strings.Join(parts, "")
		if name != "" {
			line += " " + name
		}
		fmt.Fprintln(stdout, line)
	}
	if len(files) == 0 {
		data, _ := io.ReadAll(stdin)
		report("", data)
		return 0
	}
	status := 0
	for _, f := range files {
		data, err := env.VFS.ReadFile(env.resolve(f))
		if err != nil {
			fmt.Fprintf(stderr, "wc: %s: No such file or directory\n", f)
			status = 1
			continue
		}
		report(f, data)
	}
	return status
}

func executeSort(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	numeric, reverse, unique := false, false, false
	var files []string
	for _, a := range args {
		switch a {
		case "-n":
			numeric = true
		case "-r":
			reverse = true
		case "-u":
			unique = true
		default:
			files = append(files, a)
		}
	}
	data, ok := readOperands(files, stdin, env, stderr, "sort")
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return boolStatus(!ok)
	}
	lines := strings.Split(text, "\n")
	if numeric {
		sort.SliceStable(lines, func(i, j int) bool {
			a, _ := strconv.ParseFloat(strings.TrimSpace(lines[i]), 64)
			b, _ := strconv.ParseFloat(strings.TrimSpace(lines[j]), 64)
			return a < b
		})
	} else {
		sort.Strings(lines)
	}
	if reverse {
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
	}
	if unique {
		lines = dedupAdjacent(lines)
	}
	for _, l := range lines {
		fmt.Fprintln(stdout, l)
	}
	return boolStatus(!ok)
}

func dedupAdjacent(lines []string) []string {
	var out []string
	for i, l := range lines {
		if i == 0 || l != lines[i-1] {
			out = append(out, l)
		}
	}
	return out
}

func boolStatus(fail bool) int {
	if fail {
		return 1
	}
	return 0
}

func executeTr(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	del := false
	squeeze := false
	var operands []string
	for _, a := range args {
		switch a {
		case "-d":
			del = true
		case "-s":
			squeeze = true
		default:
			operands = append(operands, a)
		}
	}
	if len(operands) == 0 {
		fmt.Fprintln(stderr, "tr: missing operand")
		return 2
	}
	set1 := expandTrSet(operands[0])
	var set2 []rune
	if len(operands) > 1 {
		set2 = expandTrSet(operands[1])
	}
	data, _ := io.ReadAll(stdin)
	mapping := map[rune]rune{}
	for i, r := range set1 {
		if del {
			mapping[r] = 0
			continue
		}
		if len(set2) == 0 {
			continue
		}
		idx := i
		if idx >= len(set2) {
			idx = len(set2) - 1
		}
		mapping[r] = set2[idx]
	}
	var sb strings.Builder
	var lastOut rune = -1
	for _, r := range string(data) {
		if del {
			if _, hit := mapping[r]; hit {
				continue
			}
			sb.WriteRune(r)
			continue
		}
		out := r
		if rep, hit := mapping[r]; hit {
			out = rep
		}
		if squeeze && out == lastOut {
			continue
		}
		sb.WriteRune(out)
		lastOut = out
	}
	io.WriteString(stdout, sb.String())
	return 0
}

func expandTrSet(spec string) []rune {
	var out []rune
	runes := []rune(spec)
	for i := 0; i < len(runes); i++ {
		if i+2 < len(runes) && runes[i+1] == '-' {
			for c := runes[i]; c <= runes[i+2]; c++ {
				out = append(out, c)
			}
			i += 2
			continue
		}
		out = append(out, runes[i])
	}
	return out
}

func executeCut(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	delim := "\t"
	var fieldsSpec string
	var files []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-d" && i+1 < len(args):
			delim = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-d"):
			delim = args[i][2:]
		case args[i] == "-f" && i+1 < len(args):
			fieldsSpec = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-f"):
			fieldsSpec = args[i][2:]
		default:
			files = append(files, args[i])
		}
	}
	fields := parseFieldSpec(fieldsSpec)
	data, ok := readOperands(files, stdin, env, stderr, "cut")
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		parts := strings.Split(sc.Text(), delim)
		var out []string
		for _, f := range fields {
			if f-1 >= 0 && f-1 < len(parts) {
				out = append(out, parts[f-1])
			}
		}
		fmt.Fprintln(stdout, strings.Join(out, delim))
	}
	return boolStatus(!ok)
}

func parseFieldSpec(spec string) []int {
	var out []int
	for _, chunk := range strings.Split(spec, ",") {
		if chunk == "" {
			continue
		}
		if strings.Contains(chunk, "-") {
			bounds := strings.SplitN(chunk, "-", 2)
			lo, _ := strconv.Atoi(bounds[0])
			hi, _ := strconv.Atoi(bounds[1])
			for v := lo; v <= hi; v++ {
				out = append(out, v)
			}
			continue
		}
		if v, err := strconv.Atoi(chunk); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func executeUniq(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	count := false
	var files []string
	for _, a := range args {
		if a == "-c" {
			count = true
			continue
		}
		files = append(files, a)
	}
	data, ok := readOperands(files, stdin, env, stderr, "uniq")
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return boolStatus(!ok)
	}
	i := 0
	for i < len(lines) {
		j := i + 1
		for j < len(lines) && lines[j] == lines[i] {
			j++
		}
		if count {
			fmt.Fprintf(stdout, "%7d %s\n", j-i, lines[i])
		} else {
			fmt.Fprintln(stdout, lines[i])
		}
		i = j
	}
	return boolStatus(!ok)
}

func executeNl(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	data, ok := readOperands(args, stdin, env, stderr, "nl")
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	n := 1
	for _, l := range lines {
		if l == "" {
			fmt.Fprintln(stdout)
			continue
		}
		fmt.Fprintf(stdout, "%6d\t%s\n", n, l)
		n++
	}
	return boolStatus(!ok)
}

func executeRev(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	data, ok := readOperands(args, stdin, env, stderr, "rev")
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		runes := []rune(sc.Text())
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		fmt.Fprintln(stdout, string(runes))
	}
	return boolStatus(!ok)
}

func executeTee(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	append_ := false
	var files []string
	for _, a := range args {
		if a == "-a" {
			append_ = true
			continue
		}
		files = append(files, a)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return 1
	}
	stdout.Write(data)
	status := 0
	for _, f := range files {
		path := env.resolve(f)
		var werr error
		if append_ {
			werr = env.VFS.Append(path, data)
		} else {
			werr = env.VFS.WriteFile(path, data, vfs.WriteOpts{})
		}
		if werr != nil {
			fmt.Fprintf(stderr, "tee: %s: %v\n", f, werr)
			status = 1
		}
	}
	return status
}

func executeTac(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	data, ok := readOperands(args, stdin, env, stderr, "tac")
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		fmt.Fprintln(stdout, lines[i])
	}
	return boolStatus(!ok)
}

func executeComm(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	if len(args) < 2 {
		fmt.Fprintln(stderr, "comm: missing operand")
		return 2
	}
	a, err1 := env.VFS.ReadFile(env.resolve(args[0]))
	b, err2 := env.VFS.ReadFile(env.resolve(args[1]))
	if err1 != nil || err2 != nil {
		fmt.Fprintln(stderr, "comm: no such file or directory")
		return 1
	}
	linesA := strings.Split(strings.TrimSuffix(string(a), "\n"), "\n")
	linesB := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	i, j := 0, 0
	for i < len(linesA) && j < len(linesB) {
		switch {
		case linesA[i] == linesB[j]:
			fmt.Fprintf(stdout, "\t\t%s\n", linesA[i])
			i++
			j++
		case linesA[i] < linesB[j]:
			fmt.Fprintf(stdout, "%s\n", linesA[i])
			i++
		default:
			fmt.Fprintf(stdout, "\t%s\n", linesB[j])
			j++
		}
	}
	for ; i < len(linesA); i++ {
		fmt.Fprintf(stdout, "%s\n", linesA[i])
	}
	for ; j < len(linesB); j++ {
		fmt.Fprintf(stdout, "\t%s\n", linesB[j])
	}
	return 0
}

func executePaste(args []string, stdin io.Reader, stdout, stderr io.Writer, env *Env) int {
	var sets [][]string
	for _, a := range args {
		data, err := env.VFS.ReadFile(env.resolve(a))
		if err != nil {
			fmt.Fprintf(stderr, "paste: %s: No such file or directory\n", a)
			return 1
		}
		sets = append(sets, strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"))
	}
	if len(sets) == 0 {
		return 0
	}
	maxLen := 0
	for _, s := range sets {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	for i := 0; i < maxLen; i++ {
		var row []string
		for _, s := range sets {
			if i < len(s) {
				row = append(row, s[i])
			} else {
				row = append(row, "")
			}
		}
		fmt.Fprintln(stdout, strings.Join(row, "\t"))
	}
	return 0
}
