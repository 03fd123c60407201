package main

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"
)

func compileString(t *testing.T, src string) string {
	t.Helper()
	prog, err := parseString(src)
	if err != nil {
		t.Fatalf("parse(%q) failed: %v", src, err)
	}
	ir, err := generate(prog)
	if err != nil {
		t.Fatalf("generate(%q) failed: %v", src, err)
	}
	return ir
}

const irHeader = `; ModuleID = 'tinyswift'
source_filename = "tinyswift"

declare i32 @printf(ptr, ...)

@.str = private unnamed_addr constant [6 x i8] c"%lld\0A\00", align 1

define i32 @main() {
entry:
`

func TestGenerate(t *testing.T) {
	const source = `var x = 5 x = x + 1 print(x)`
	const want = irHeader +
		`  %r1 = alloca i64, align 8
  store i64 5, ptr %r1, align 8
  %r2 = load i64, ptr %r1, align 8
  %r3 = add i64 %r2, 1
  store i64 %r3, ptr %r1, align 8
  %r4 = load i64, ptr %r1, align 8
  %r5 = call i32 (ptr, ...) @printf(ptr @.str, i64 %r4)
  ret i32 0
}
`
	got := compileString(t, source)
	if got != want {
		t.Errorf("want:\n%s\ngot:\n%s", want, got)
	}
}

func TestGenerateEmpty(t *testing.T) {
	want := irHeader + "  ret i32 0\n}\n"
	if got := compileString(t, ""); got != want {
		t.Errorf("want:\n%s\ngot:\n%s", want, got)
	}
}

var genInstrTests = []struct {
	input string
	want  []string // body lines, without indentation
}{
	// literals are immediates and use no registers
	{"print(7)", []string{
		"%r1 = call i32 (ptr, ...) @printf(ptr @.str, i64 7)",
	}},
	{"print(2+3*4)", []string{
		"%r1 = mul i64 3, 4",
		"%r2 = add i64 2, %r1",
		"%r3 = call i32 (ptr, ...) @printf(ptr @.str, i64 %r2)",
	}},
	{"print(7/2-1)", []string{
		"%r1 = sdiv i64 7, 2",
		"%r2 = sub i64 %r1, 1",
		"%r3 = call i32 (ptr, ...) @printf(ptr @.str, i64 %r2)",
	}},
	// the left operand is fully evaluated first
	{"let a = 1 let b = 2 a*b", []string{
		"%r1 = alloca i64, align 8",
		"store i64 1, ptr %r1, align 8",
		"%r2 = alloca i64, align 8",
		"store i64 2, ptr %r2, align 8",
		"%r3 = load i64, ptr %r1, align 8",
		"%r4 = load i64, ptr %r2, align 8",
		"%r5 = mul i64 %r3, %r4",
	}},
	// the expression statement's value is dropped
	{"let a = 1 a", []string{
		"%r1 = alloca i64, align 8",
		"store i64 1, ptr %r1, align 8",
		"%r2 = load i64, ptr %r1, align 8",
	}},
	// a second declaration gets a new slot
	{"let a = 1 let a = a + 1 print(a)", []string{
		"%r1 = alloca i64, align 8",
		"store i64 1, ptr %r1, align 8",
		"%r2 = alloca i64, align 8",
		"%r3 = load i64, ptr %r2, align 8",
		"%r4 = add i64 %r3, 1",
		"store i64 %r4, ptr %r2, align 8",
		"%r5 = load i64, ptr %r2, align 8",
		"%r6 = call i32 (ptr, ...) @printf(ptr @.str, i64 %r5)",
	}},
}

func bodyLines(ir string) []string {
	body := strings.TrimPrefix(ir, irHeader)
	body = strings.TrimSuffix(body, "  ret i32 0\n}\n")
	if body == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimPrefix(lines[i], "  ")
	}
	return lines
}

func TestGenerateInstructions(t *testing.T) {
	for _, tt := range genInstrTests {
		got := bodyLines(compileString(t, tt.input))
		if strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
			t.Errorf("%q:\nwant:\n\t%s\ngot:\n\t%s", tt.input,
				strings.Join(tt.want, "\n\t"), strings.Join(got, "\n\t"))
		}
	}
}

func TestGenerateIndentation(t *testing.T) {
	ir := compileString(t, "var x = 1 x = 2 print(x)")
	inBody := false
	for _, line := range strings.Split(strings.TrimSuffix(ir, "\n"), "\n") {
		switch {
		case line == "entry:":
			inBody = true
		case line == "}":
			inBody = false
		case inBody:
			if !strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "   ") {
				t.Errorf("body line %q is not indented by two spaces", line)
			}
		default:
			if strings.HasPrefix(line, " ") {
				t.Errorf("module-level line %q is indented", line)
			}
		}
	}
}

const sampleProgram = `
let a = 6
var b: Int = a * 7
b = b - (a + 2) / 3
print(b)
print((a + b) * (b - a) / 2)
b = 0 - b
print(b)
`

func TestGenerateDeterministic(t *testing.T) {
	first := compileString(t, sampleProgram)
	for i := 0; i < 5; i++ {
		if got := compileString(t, sampleProgram); got != first {
			t.Fatalf("generation %d differs:\n%s\nfirst:\n%s", i, got, first)
		}
	}
}

var regDef = regexp.MustCompile(`^\s*%r(\d+) = `)

func TestRegisterMonotonic(t *testing.T) {
	ir := compileString(t, sampleProgram)
	last := 0
	for _, line := range strings.Split(ir, "\n") {
		m := regDef.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			t.Fatal(err)
		}
		if n != last+1 {
			t.Errorf("register %%r%d defined after %%r%d, want %%r%d", n, last, last+1)
		}
		last = n
	}
	if last == 0 {
		t.Fatal("no registers defined")
	}
}

var undeclaredTests = []struct {
	input string
	name  string
}{
	{"print(y)", "y"},
	{"y = 1", "y"},
	{"let x = 1 print(x + y)", "y"},
	{"let x = 1 x = z", "z"},
	{"print(1) q", "q"},
}

func TestGenerateUndeclared(t *testing.T) {
	for _, tt := range undeclaredTests {
		prog, err := parseString(tt.input)
		if err != nil {
			t.Fatalf("parse(%q) failed: %v", tt.input, err)
		}
		ir, err := generate(prog)
		if ir != "" {
			t.Errorf("generate(%q) returned IR along with an error", tt.input)
		}
		var cerr *CodegenError
		if !errors.As(err, &cerr) {
			t.Errorf("generate(%q): got %v, want *CodegenError", tt.input, err)
			continue
		}
		if cerr.Kind != UndeclaredVariable || cerr.Name != tt.name {
			t.Errorf("generate(%q): got %+v, want UndeclaredVariable %q", tt.input, cerr, tt.name)
		}
	}
}

func TestGenerateLetReassignment(t *testing.T) {
	// mutability is not enforced by generate; see check
	prog, err := parseString("let x = 1 x = 2 print(x)")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := generate(prog); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGenerateNamed(t *testing.T) {
	prog, err := parseString("print(1)")
	if err != nil {
		t.Fatal(err)
	}
	ir, err := generateNamed(`dir/hello "world".swift`, prog)
	if err != nil {
		t.Fatal(err)
	}
	const want = `source_filename = "dir/hello \22world\22.swift"`
	if !strings.Contains(ir, "\n"+want+"\n") {
		t.Errorf("IR does not contain %s:\n%s", want, ir)
	}
}

var llvmQuoteTests = []struct {
	input string
	want  string
}{
	{"", `""`},
	{"plain.swift", `"plain.swift"`},
	{`my "prog".swift`, `"my \22prog\22.swift"`},
	{`C:\src\a.swift`, `"C:\5Csrc\5Ca.swift"`},
	{"tab\there\n", `"tab\09there\0A"`},
	{"größe", `"gr\C3\B6\C3\9Fe"`},
	{"\x7f", `"\7F"`},
}

func TestLLVMQuote(t *testing.T) {
	for _, tt := range llvmQuoteTests {
		if got := llvmQuote(tt.input); got != tt.want {
			t.Errorf("llvmQuote(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestGenerateUnhandledNode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for an unknown statement type")
		}
	}()
	generate(&Program{Stmts: []Stmt{nil}})
}
