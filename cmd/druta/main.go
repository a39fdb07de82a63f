package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/druta"
	"github.com/wippyai/druta/cache"
	"github.com/wippyai/druta/config"
	"github.com/wippyai/druta/transform"
)

func main() {
	if err := execute(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fail(err)
	}
}

// execute runs the command line and returns the first failure. Deferred
// cleanup has run by the time it returns.
func execute(args []string) error {
	fs := flag.NewFlagSet("druta", flag.ContinueOnError)
	var (
		inFile      = fs.String("in", "", "Tree document to compile (default stdin)")
		configFile  = fs.String("config", "", "Path to druta.toml (default: search upward from the working directory)")
		format      = fs.String("format", "", "Output format: json, yaml, cbor, tree, source or all")
		outFile     = fs.String("o", "", "Write output to file (default stdout)")
		cachePath   = fs.String("cache", "", "SQLite compile cache path")
		verbose     = fs.Bool("v", false, "Verbose development logging")
		interactive = fs.Bool("i", false, "Interactive mode with TUI")
		repl        = fs.Bool("repl", false, "Read one-line tree documents and compile each")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *cachePath != "" {
		cfg.Cache.Path = *cachePath
	}
	if *verbose {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.BuildLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	transform.SetLogger(logger)

	opts := []druta.Option{druta.WithConfig(cfg), druta.WithLogger(logger)}
	if cfg.Cache.Path != "" {
		store, err := cache.Open(cfg.Cache.Path, cache.WithLogger(logger))
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, druta.WithCache(store))
	}
	compiler, err := druta.New(opts...)
	if err != nil {
		return err
	}

	if *repl {
		return runRepl(compiler, cfg.Output.Format)
	}

	doc, name, err := readInput(*inFile)
	if err != nil {
		return err
	}
	if *interactive {
		return runInteractive(compiler, name, doc)
	}
	return run(compiler, logger, doc, cfg.Output.Format, *outFile)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, err := config.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

func readInput(path string) ([]byte, string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return data, "<stdin>", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return data, path, nil
}

func run(compiler *druta.Compiler, logger *zap.Logger, doc []byte, format, outFile string) error {
	out, err := compiler.Compile(doc)
	if err != nil {
		return err
	}
	data, err := formatOutput(out, format)
	if err != nil {
		return err
	}

	if outFile == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("wrote output",
		zap.String("file", outFile),
		zap.String("format", format),
		zap.Int("instructions", out.Stats.Instructions))
	fmt.Fprintf(os.Stderr, "%s: %s (%d instructions, %d async)\n",
		outFile, humanize.Bytes(uint64(len(data))), out.Stats.Instructions, out.Stats.AsyncCalls)
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func fail(err error) {
	msg := fmt.Sprintf("Error: %v", err)
	if isTerminal(os.Stderr) {
		msg = errorStyle.Render(msg)
	}
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
