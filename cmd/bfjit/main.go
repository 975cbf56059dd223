// Command bfjit compiles and runs programs written in the eight-
// instruction tape language by JIT-compiling them to native x86-64 and
// invoking the generated code in this process.
//
// This file is glue: flag parsing, file opening and human-readable error
// formatting live here so the core packages (lexer, parser, asm, jit,
// interp) stay free of CLI concerns.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/tapelang/bfjit/config"
	"github.com/tapelang/bfjit/interp"
	"github.com/tapelang/bfjit/jit"
	"github.com/tapelang/bfjit/lexer"
	"github.com/tapelang/bfjit/parser"
	"github.com/tapelang/bfjit/tui"
)

func main() {
	var (
		interpMode  = flag.Bool("interp", false, "Run the tree-walking interpreter instead of the JIT")
		tuiMode     = flag.Bool("tui", false, "Launch the interactive instruction-listing viewer")
		tapeSize    = flag.Int("tape-size", 0, "Tape size in bytes (0: use config/default)")
		debugBreak  = flag.Bool("debug", false, "Insert an int3 breakpoint before generated code")
		dumpBinPath = flag.String("dump-bin", "", "Write the generated machine code to this file")
		dumpIR      = flag.Bool("dump-ir", false, "Print the parsed, coalesced instruction listing")
		configPath  = flag.String("config", "", "Path to a TOML config file (default: platform config dir)")
	)
	flag.Parse()

	if len(flag.Args()) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: bfjit [flags] <source-file>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %s\n", err)
		os.Exit(1)
	}
	if *tapeSize > 0 {
		cfg.Runtime.TapeSize = *tapeSize
	}
	if *debugBreak {
		cfg.Runtime.DebugBreak = true
	}
	if *dumpBinPath != "" {
		cfg.Output.DumpBinaryPath = *dumpBinPath
	}
	if *dumpIR {
		cfg.Output.DumpIR = true
	}

	sourcePath := flag.Args()[0]
	f, err := os.Open(sourcePath) // #nosec G304 -- user-supplied source path, that's the whole point of the CLI
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %s\n", sourcePath, err)
		os.Exit(1)
	}
	defer f.Close()

	program, err := parser.Parse(lexer.New(bufio.NewReader(f)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing %s: %s\n", sourcePath, err)
		os.Exit(1)
	}

	if cfg.Output.DumpIR {
		fmt.Fprint(os.Stdout, program.String())
	}

	if *tuiMode {
		machine := interp.New(program, cfg.Runtime.TapeSize)
		v := tui.New(program, machine, os.Stdout)
		if err := v.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error running viewer: %s\n", err)
			os.Exit(1)
		}
		return
	}

	if *interpMode {
		machine := interp.New(program, cfg.Runtime.TapeSize)
		out := bufio.NewWriter(os.Stdout)
		if err := machine.Run(out, os.Stdin); err != nil {
			_ = out.Flush()
			fmt.Fprintf(os.Stderr, "Error running %s: %s\n", sourcePath, err)
			os.Exit(1)
		}
		_ = out.Flush()
		return
	}

	var jitOpts []jit.Option
	if cfg.Runtime.DebugBreak {
		jitOpts = append(jitOpts, jit.WithDebugBreak())
	}

	code, err := jit.Compile(program, jitOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error compiling %s: %s\n", sourcePath, err)
		os.Exit(1)
	}

	if cfg.Output.DumpBinaryPath != "" {
		if err := os.WriteFile(cfg.Output.DumpBinaryPath, code, 0600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %s\n", cfg.Output.DumpBinaryPath, err)
			os.Exit(1)
		}
	}

	exe, err := jit.Load(code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading JIT code: %s\n", err)
		os.Exit(1)
	}
	defer exe.Close()

	// Standard output below this point is written directly by syscalls
	// from inside the generated code; flush nothing host-side because
	// os.Stdout has no buffering layer of its own.
	tape := make([]byte, cfg.Runtime.TapeSize)
	exe.Run(tape)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}
