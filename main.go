package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"gopkg.in/urfave/cli.v1"
)

const version = "0.2.0"

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	verboseFlag = cli.BoolFlag{
		Name:  "verbose",
		Usage: "print tokens, AST and IR to stderr while compiling",
	}
	strictFlag = cli.BoolFlag{
		Name:  "strict",
		Usage: "reject undeclared variables and assignments to let bindings before generating code",
	}
	printOnlyFlag = cli.BoolFlag{
		Name:  "print-only",
		Usage: "accept only print statements",
	}
	emitFlag = cli.StringFlag{
		Name:  "emit",
		Usage: "stage to write to stdout: tokens, ast, ir or source",
	}
	outDirFlag = cli.StringFlag{
		Name:  "out-dir",
		Usage: "directory for generated files",
	}
	nativeFlag = cli.BoolFlag{
		Name:  "native",
		Usage: "also build and run a native binary with llc and clang",
	}
	interpreterFlag = cli.StringFlag{
		Name:  "interpreter",
		Usage: `IR interpreter command, or "builtin"`,
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, warn or error",
	}
	logFileFlag = cli.StringFlag{
		Name:  "log-file",
		Usage: "also write JSON logs to this file",
	}

	compileFlags = []cli.Flag{
		configFileFlag,
		verboseFlag,
		strictFlag,
		printOnlyFlag,
		emitFlag,
		outDirFlag,
		logLevelFlag,
		logFileFlag,
	}
	runFlags = append(append([]cli.Flag{}, compileFlags...), nativeFlag, interpreterFlag)

	buildCommand = cli.Command{
		Action:    build,
		Name:      "build",
		Usage:     "Compile sources to LLVM IR",
		ArgsUsage: "[<source-file>...]",
		Flags:     compileFlags,
		Description: `The build command compiles each source file, writes <name>.ll to
the output directory and prints the requested stage to stdout.
With no files it reads the program from stdin.`,
	}
	runCommand = cli.Command{
		Action:    run,
		Name:      "run",
		Usage:     "Compile a source and execute it",
		ArgsUsage: "<source-file>",
		Flags:     runFlags,
	}
	fmtCommand = cli.Command{
		Action:    format,
		Name:      "fmt",
		Usage:     "Print sources in canonical form",
		ArgsUsage: "[<source-file>...]",
		Flags:     []cli.Flag{configFileFlag, printOnlyFlag},
	}
	dumpConfigCommand = cli.Command{
		Action: dumpconfig,
		Name:   "dumpconfig",
		Usage:  "Show configuration values",
		Flags:  runFlags,
	}
)

var errorColor = color.New(color.FgRed, color.Bold).SprintFunc()

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "tinyswift"
	app.Usage = "compile a tiny Swift-like language to LLVM IR"
	app.Version = version
	app.Flags = compileFlags
	app.Action = build
	app.Commands = []cli.Command{
		buildCommand,
		runCommand,
		fmtCommand,
		dumpConfigCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}

// makeConfig loads defaults, then the config file, then flags.
func makeConfig(ctx *cli.Context) (*Config, error) {
	cfg := defaultConfig
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return nil, err
		}
	}
	if ctx.IsSet(verboseFlag.Name) {
		cfg.Verbose = ctx.Bool(verboseFlag.Name)
	}
	if ctx.IsSet(strictFlag.Name) {
		cfg.Strict = ctx.Bool(strictFlag.Name)
	}
	if ctx.IsSet(printOnlyFlag.Name) {
		cfg.PrintOnly = ctx.Bool(printOnlyFlag.Name)
	}
	if ctx.IsSet(nativeFlag.Name) {
		cfg.Native = ctx.Bool(nativeFlag.Name)
	}
	for name, field := range map[string]*string{
		emitFlag.Name:        &cfg.Emit,
		outDirFlag.Name:      &cfg.OutDir,
		interpreterFlag.Name: &cfg.Interpreter,
		logLevelFlag.Name:    &cfg.LogLevel,
		logFileFlag.Name:     &cfg.LogFile,
	} {
		if ctx.IsSet(name) {
			*field = ctx.String(name)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setup is shared by the commands that compile.
func setup(ctx *cli.Context) (*Config, *slog.Logger, io.Closer, error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	log, closer, err := newLogger(os.Stderr, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, closer, nil
}

func fail(err error) error {
	return cli.NewExitError(errorColor("error: ")+err.Error(), 1)
}

func readSources(args cli.Args) ([]source, error) {
	if len(args) == 0 {
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		return []source{{Name: "stdin", Text: string(text)}}, nil
	}
	srcs := make([]source, len(args))
	for i, file := range args {
		text, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		srcs[i] = source{Name: file, Text: string(text)}
	}
	return srcs, nil
}

func build(ctx *cli.Context) error {
	cfg, log, closer, err := setup(ctx)
	if err != nil {
		return fail(err)
	}
	defer closer.Close()

	srcs, err := readSources(ctx.Args())
	if err != nil {
		return fail(err)
	}
	tc := newToolchain(cfg, log)
	names := make([]string, len(srcs))
	for i, src := range srcs {
		names[i] = src.Name
	}
	if err := tc.checkOutputs(names); err != nil {
		return fail(err)
	}
	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := newCompiler(cfg, log).compileAll(sigctx, srcs)
	for _, res := range results {
		if res != nil {
			os.Stderr.Write(res.Trace)
		}
	}
	if err != nil {
		return fail(err)
	}

	for _, res := range results {
		if _, err := tc.writeIR(res.Name, res.IR); err != nil {
			return fail(err)
		}
		if len(results) > 1 {
			printStage(os.Stdout, res.Name)
		}
		emit(os.Stdout, cfg.Emit, res)
	}
	return nil
}

func emit(w io.Writer, stage string, res *result) {
	switch stage {
	case "tokens":
		printTokens(w, res.Tokens)
	case "ast":
		printAST(w, res.Prog)
	case "source":
		io.WriteString(w, formatProgram(res.Prog))
	default:
		io.WriteString(w, res.IR)
	}
}

func run(ctx *cli.Context) error {
	cfg, log, closer, err := setup(ctx)
	if err != nil {
		return fail(err)
	}
	defer closer.Close()

	if ctx.NArg() != 1 {
		return fail(errors.New("run takes exactly one source file"))
	}
	srcs, err := readSources(ctx.Args())
	if err != nil {
		return fail(err)
	}
	res, err := newCompiler(cfg, log).compile(srcs[0])
	os.Stderr.Write(res.Trace)
	if err != nil {
		return fail(err)
	}

	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	out, err := newToolchain(cfg, log).run(sigctx, res.Name, res.IR)
	if out != nil {
		io.WriteString(os.Stdout, out.Stdout)
		io.WriteString(os.Stderr, out.Stderr)
		if cfg.Verbose {
			fmt.Fprintf(os.Stderr, "IR saved to %s\n", out.IRFile)
		}
	}
	if err != nil {
		return fail(err)
	}
	if out.Binary != "" {
		printStage(os.Stdout, "Native execution result")
		io.WriteString(os.Stdout, out.NativeStdout)
		io.WriteString(os.Stderr, out.NativeStderr)
	}
	if out.Status != 0 {
		return cli.NewExitError("", out.Status)
	}
	return nil
}

func format(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return fail(err)
	}
	srcs, err := readSources(ctx.Args())
	if err != nil {
		return fail(err)
	}
	for _, src := range srcs {
		l := &lexer{printOnly: cfg.PrintOnly}
		l.Init(src.Text)
		toks, err := l.tokenize()
		if err != nil {
			return fail(&stageError{Stage: "lex", Name: src.Name, Err: err})
		}
		prog, err := parse(toks)
		if err != nil {
			return fail(&stageError{Stage: "parse", Name: src.Name, Err: err})
		}
		io.WriteString(os.Stdout, formatProgram(prog))
	}
	return nil
}

func dumpconfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return fail(err)
	}
	if err := dumpConfig(os.Stdout, cfg); err != nil {
		return fail(err)
	}
	return nil
}
