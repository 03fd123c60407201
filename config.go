package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/naoina/toml"
)

// Config controls a compiler run. It is filled from defaultConfig,
// then a TOML file, then command-line flags.
type Config struct {
	Verbose   bool   // echo tokens, AST and IR while compiling
	Strict    bool   // run check before code generation
	PrintOnly bool   // accept only print statements
	Emit      string // stage to write to stdout: tokens, ast, ir or source

	OutDir      string // where .ll files and native binaries go
	Native      bool   // also build and run a native binary with llc and clang
	Interpreter string // IR interpreter command, or "builtin"
	Llc         string
	Clang       string

	LogLevel string
	LogFile  string `toml:",omitempty"`
}

const builtinInterpreter = "builtin"

var defaultConfig = Config{
	Emit:        "ir",
	OutDir:      "target/llvm",
	Interpreter: "lli",
	Llc:         "llc",
	Clang:       "clang",
	LogLevel:    "warn",
}

var emitStages = map[string]bool{
	"tokens": true,
	"ast":    true,
	"ir":     true,
	"source": true,
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

func loadConfig(file string, cfg *Config) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

func dumpConfig(w io.Writer, cfg *Config) error {
	return tomlSettings.NewEncoder(w).Encode(cfg)
}

func (cfg *Config) validate() error {
	if !emitStages[cfg.Emit] {
		return fmt.Errorf("unknown emit stage %q (want tokens, ast, ir or source)", cfg.Emit)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.OutDir == "" {
		return errors.New("empty output directory")
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
