package main

// toolchain.go hands the generated IR to LLVM: it writes the .ll file,
// runs it with an interpreter (lli or the builtin one) and, optionally,
// builds and runs a native binary with llc and clang.

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var ErrToolchainUnavailable = errors.New("LLVM toolchain is not installed")

// unavailableError names the missing tool and tells the user how to
// run the IR by hand.
type unavailableError struct {
	Tool     string
	Guidance string
}

func (e *unavailableError) Error() string {
	return fmt.Sprintf("%v: %s not found\n%s", ErrToolchainUnavailable, e.Tool, e.Guidance)
}

func (e *unavailableError) Unwrap() error { return ErrToolchainUnavailable }

type runResult struct {
	IRFile string
	Stdout string
	Stderr string
	Status int

	// set when a native binary was built
	Binary       string
	NativeStdout string
	NativeStderr string
	NativeStatus int
}

type toolchain struct {
	cfg *Config
	log *slog.Logger
}

func newToolchain(cfg *Config, log *slog.Logger) *toolchain {
	return &toolchain{cfg: cfg, log: log}
}

// paths returns the .ll, .s and executable paths for a source name.
func (t *toolchain) paths(name string) (ll, asm, exe string) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "output"
	}
	stem := filepath.Join(t.cfg.OutDir, base)
	return stem + ".ll", stem + ".s", stem
}

// checkOutputs fails if two sources would write the same output files.
func (t *toolchain) checkOutputs(names []string) error {
	seen := make(map[string]string)
	for _, name := range names {
		ll, _, _ := t.paths(name)
		if prev, ok := seen[ll]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, name, ll)
		}
		seen[ll] = name
	}
	return nil
}

func (t *toolchain) guidance(ll, asm, exe string) string {
	var b strings.Builder
	b.WriteString("You can execute with the following commands:\n")
	fmt.Fprintf(&b, "  %s %s\n", t.cfg.Interpreter, ll)
	b.WriteString("or\n")
	fmt.Fprintf(&b, "  %s %s -o %s\n", t.cfg.Llc, ll, asm)
	fmt.Fprintf(&b, "  %s %s -o %s\n", t.cfg.Clang, asm, exe)
	fmt.Fprintf(&b, "  %s", exe)
	return b.String()
}

// writeIR saves ir under the output directory and returns the file name.
func (t *toolchain) writeIR(name, ir string) (string, error) {
	if err := os.MkdirAll(t.cfg.OutDir, 0o755); err != nil {
		return "", err
	}
	ll, _, _ := t.paths(name)
	if err := os.WriteFile(ll, []byte(ir), 0o644); err != nil {
		return "", err
	}
	t.log.Debug("wrote IR", "file", ll)
	return ll, nil
}

// run writes ir to disk and executes it. A program that exits with a
// nonzero status is not an error; its status is in the result.
func (t *toolchain) run(ctx context.Context, name, ir string) (*runResult, error) {
	ll, asm, exe := t.paths(name)
	if _, err := t.writeIR(name, ir); err != nil {
		return nil, err
	}
	res := &runResult{IRFile: ll}

	if t.cfg.Interpreter == builtinInterpreter {
		var stdout bytes.Buffer
		status, err := interpret(ir, &stdout)
		res.Stdout = stdout.String()
		if err != nil {
			return res, fmt.Errorf("runtime error: %w", err)
		}
		res.Status = status
	} else {
		lli, err := t.lookPath(t.cfg.Interpreter, ll, asm, exe)
		if err != nil {
			return res, err
		}
		args, err := t.llvmArgs(ctx, lli)
		if err != nil {
			return res, err
		}
		res.Stdout, res.Stderr, res.Status, err = t.exec(ctx, lli, append(args, ll)...)
		if err != nil {
			return res, err
		}
	}

	if !t.cfg.Native {
		return res, nil
	}
	llc, err := t.lookPath(t.cfg.Llc, ll, asm, exe)
	if err != nil {
		return res, err
	}
	clang, err := t.lookPath(t.cfg.Clang, ll, asm, exe)
	if err != nil {
		return res, err
	}
	args, err := t.llvmArgs(ctx, llc)
	if err != nil {
		return res, err
	}
	if err := t.build(ctx, llc, append(args, ll, "-o", asm)...); err != nil {
		return res, err
	}
	if err := t.build(ctx, clang, asm, "-o", exe); err != nil {
		return res, err
	}
	res.Binary = exe
	bin, err := filepath.Abs(exe)
	if err != nil {
		return res, err
	}
	res.NativeStdout, res.NativeStderr, res.NativeStatus, err = t.exec(ctx, bin)
	return res, err
}

func (t *toolchain) lookPath(tool, ll, asm, exe string) (string, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		t.log.Warn("toolchain unavailable", "tool", tool, "err", err)
		return "", &unavailableError{Tool: tool, Guidance: t.guidance(ll, asm, exe)}
	}
	return path, nil
}

var llvmVersion = regexp.MustCompile(`LLVM version (\d+)\.`)

// parseLLVMMajor returns the major version from --version output,
// or 0 if there is none.
func parseLLVMMajor(out string) int {
	m := llvmVersion.FindStringSubmatch(out)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// opaquePointerArgs returns the flags an LLVM tool of the given major
// version needs to read IR written with the ptr type. Opaque pointers
// are the default from LLVM 15 and opt-in in 14. An unknown version
// (0) is assumed to be recent.
func opaquePointerArgs(major int) ([]string, error) {
	switch {
	case major == 0 || major >= 15:
		return nil, nil
	case major == 14:
		return []string{"-opaque-pointers"}, nil
	default:
		return nil, fmt.Errorf("LLVM %d cannot read opaque pointers; version 14 or later is required", major)
	}
}

// llvmArgs asks tool for its version and returns the flags to pass it.
func (t *toolchain) llvmArgs(ctx context.Context, tool string) ([]string, error) {
	out, _, status, err := t.exec(ctx, tool, "--version")
	if err != nil || status != 0 {
		t.log.Debug("no LLVM version", "tool", tool, "status", status, "err", err)
		out = ""
	}
	major := parseLLVMMajor(out)
	args, err := opaquePointerArgs(major)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(tool), err)
	}
	t.log.Debug("LLVM version", "tool", tool, "major", major, "args", args)
	return args, nil
}

// build runs a toolchain step, which must succeed.
func (t *toolchain) build(ctx context.Context, tool string, args ...string) error {
	_, stderr, status, err := t.exec(ctx, tool, args...)
	if err != nil {
		return err
	}
	if status != 0 {
		return fmt.Errorf("%s exited with status %d: %s", filepath.Base(tool), status, strings.TrimSpace(stderr))
	}
	return nil
}

func (t *toolchain) exec(ctx context.Context, tool string, args ...string) (stdout, stderr string, status int, err error) {
	var outb, errb bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stdout = &outb
	cmd.Stderr = &errb
	t.log.Debug("exec", "cmd", tool, "args", args)
	err = cmd.Run()
	if ctx.Err() != nil {
		return outb.String(), errb.String(), 0, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return outb.String(), errb.String(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return outb.String(), errb.String(), 0, fmt.Errorf("running %s: %w", filepath.Base(tool), err)
	}
	return outb.String(), errb.String(), 0, nil
}
