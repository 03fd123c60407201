package main

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// stageError records which pass of the pipeline failed.
type stageError struct {
	Stage string // lex, parse, check or codegen
	Name  string // source name
	Err   error
}

func (e *stageError) Error() string {
	return e.Name + ": " + e.Stage + " error: " + e.Err.Error()
}

func (e *stageError) Unwrap() error { return e.Err }

type source struct {
	Name string
	Text string
}

// result holds the output of every stage of one compilation.
type result struct {
	Name   string
	Tokens []Token
	Prog   *Program
	IR     string
	Trace  []byte // verbose output, if enabled
}

type compiler struct {
	cfg *Config
	log *slog.Logger
}

func newCompiler(cfg *Config, log *slog.Logger) *compiler {
	return &compiler{cfg: cfg, log: log}
}

// compile runs the pipeline over a single source.
// Compilations share nothing, so compile may be called concurrently.
func (c *compiler) compile(src source) (*result, error) {
	res := &result{Name: src.Name}
	var trace bytes.Buffer
	defer func() { res.Trace = trace.Bytes() }()

	start := time.Now()
	l := &lexer{printOnly: c.cfg.PrintOnly}
	l.Init(src.Text)
	toks, err := l.tokenize()
	if err != nil {
		return res, &stageError{Stage: "lex", Name: src.Name, Err: err}
	}
	res.Tokens = toks
	c.log.Debug("lexed", "source", src.Name, "tokens", len(toks), "elapsed", time.Since(start))
	if c.cfg.Verbose {
		printStage(&trace, "Tokens")
		printTokens(&trace, toks)
	}

	start = time.Now()
	prog, err := parse(toks)
	if err != nil {
		return res, &stageError{Stage: "parse", Name: src.Name, Err: err}
	}
	res.Prog = prog
	c.log.Debug("parsed", "source", src.Name, "statements", len(prog.Stmts), "elapsed", time.Since(start))
	if c.cfg.Verbose {
		printStage(&trace, "AST")
		printAST(&trace, prog)
	}

	if c.cfg.Strict {
		if err := check(prog); err != nil {
			return res, &stageError{Stage: "check", Name: src.Name, Err: err}
		}
	}

	start = time.Now()
	ir, err := generateNamed(src.Name, prog)
	if err != nil {
		return res, &stageError{Stage: "codegen", Name: src.Name, Err: err}
	}
	res.IR = ir
	c.log.Debug("generated", "source", src.Name, "bytes", len(ir), "elapsed", time.Since(start))
	if c.cfg.Verbose {
		printStage(&trace, "LLVM IR")
		trace.WriteString(ir)
	}
	return res, nil
}

// compileAll compiles every source concurrently. Results are in the
// same order as srcs. The first failure cancels the compilations that
// have not started yet.
func (c *compiler) compileAll(ctx context.Context, srcs []source) ([]*result, error) {
	results := make([]*result, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.compile(src)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
