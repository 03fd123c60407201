package main

// interp.go executes the IR that gen.go produces, without LLVM.
// It only understands the handful of instruction forms gen.go emits:
//
// 	%r = alloca i64, align 8
// 	store i64 v, ptr %slot, align 8
// 	%r = load i64, ptr %slot, align 8
// 	%r = add|sub|mul|sdiv i64 a, b
// 	%r = call i32 (ptr, ...) @printf(ptr @.str, i64 v)
// 	ret i32 n

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	errDivideByZero = errors.New("integer division by zero")
	errOverflow     = errors.New("integer overflow in division")
	errNoMain       = errors.New("no @main function")
)

type interpreter struct {
	out   io.Writer
	regs  map[string]int64
	slots map[string]*int64
}

// interpret runs the main function of ir, writing printf output to out,
// and returns the value main returns.
func interpret(ir string, out io.Writer) (int, error) {
	in := &interpreter{
		out:   out,
		regs:  make(map[string]int64),
		slots: make(map[string]*int64),
	}
	return in.run(ir)
}

func (in *interpreter) run(ir string) (int, error) {
	sc := bufio.NewScanner(strings.NewReader(ir))
	lineno := 0
	inMain := false
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if !inMain {
			inMain = strings.HasPrefix(line, "define i32 @main(")
			continue
		}
		if line == "" || strings.HasPrefix(line, ";") || strings.HasSuffix(line, ":") {
			continue
		}
		if line == "}" {
			return 0, fmt.Errorf("line %d: main has no return", lineno)
		}
		status, done, err := in.exec(line)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", lineno, err)
		}
		if done {
			return status, nil
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if !inMain {
		return 0, errNoMain
	}
	return 0, errors.New("unexpected end of IR")
}

// exec executes a single instruction. done is set by ret.
func (in *interpreter) exec(line string) (status int, done bool, err error) {
	var dst string
	if i := strings.Index(line, " = "); i >= 0 {
		dst, line = line[:i], line[i+3:]
	}
	f := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(f) == 0 {
		return 0, false, fmt.Errorf("empty instruction")
	}
	switch f[0] {
	case "alloca":
		in.slots[dst] = new(int64)
	case "store":
		// store i64 v ptr %slot align 8
		if len(f) < 5 {
			return 0, false, fmt.Errorf("malformed store: %s", line)
		}
		v, err := in.operand(f[2])
		if err != nil {
			return 0, false, err
		}
		slot, ok := in.slots[f[4]]
		if !ok {
			return 0, false, fmt.Errorf("store to unknown slot %s", f[4])
		}
		*slot = v
	case "load":
		// load i64 ptr %slot align 8
		if len(f) < 4 {
			return 0, false, fmt.Errorf("malformed load: %s", line)
		}
		slot, ok := in.slots[f[3]]
		if !ok {
			return 0, false, fmt.Errorf("load from unknown slot %s", f[3])
		}
		in.regs[dst] = *slot
	case "add", "sub", "mul", "sdiv":
		// op i64 a b
		if len(f) != 4 {
			return 0, false, fmt.Errorf("malformed %s: %s", f[0], line)
		}
		a, err := in.operand(f[2])
		if err != nil {
			return 0, false, err
		}
		b, err := in.operand(f[3])
		if err != nil {
			return 0, false, err
		}
		v, err := arith(f[0], a, b)
		if err != nil {
			return 0, false, err
		}
		in.regs[dst] = v
	case "call":
		if !strings.Contains(line, "@printf(") {
			return 0, false, fmt.Errorf("call to unknown function: %s", line)
		}
		v, err := in.operand(strings.TrimSuffix(f[len(f)-1], ")"))
		if err != nil {
			return 0, false, err
		}
		n, err := fmt.Fprintf(in.out, "%d\n", v)
		if err != nil {
			return 0, false, err
		}
		in.regs[dst] = int64(n)
	case "ret":
		// ret i32 n
		if len(f) != 3 {
			return 0, false, fmt.Errorf("malformed ret: %s", line)
		}
		v, err := in.operand(f[2])
		if err != nil {
			return 0, false, err
		}
		return int(v), true, nil
	default:
		return 0, false, fmt.Errorf("unknown instruction %q", f[0])
	}
	return 0, false, nil
}

func (in *interpreter) operand(s string) (int64, error) {
	if strings.HasPrefix(s, "%") {
		v, ok := in.regs[s]
		if !ok {
			return 0, fmt.Errorf("use of undefined register %s", s)
		}
		return v, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// arith follows LLVM semantics for i64: wrapping add, sub and mul,
// and a fault where sdiv is undefined.
func arith(op string, a, b int64) (int64, error) {
	switch op {
	case "add":
		return a + b, nil
	case "sub":
		return a - b, nil
	case "mul":
		return a * b, nil
	case "sdiv":
		if b == 0 {
			return 0, errDivideByZero
		}
		if a == math.MinInt64 && b == -1 {
			return 0, errOverflow
		}
		return a / b, nil
	}
	panic(fmt.Sprintf("unknown op: %s", op))
}
