package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/wippyai/druta"
	"github.com/wippyai/druta/config"
)

const (
	historyFile = ".druta_history"
	promptMain  = "druta> "
	replBanner  = "druta repl: enter a one-line tree document, :format <name> to switch output, :quit to exit"
)

func runRepl(c *druta.Compiler, format string) error {
	fmt.Println(replBanner)
	color := isTerminal(os.Stdout)
	if format == config.FormatCBOR || format == config.FormatAll || format == "" {
		format = config.FormatTree
	}

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(promptMain)
		if stderrors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if stderrors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if strings.HasPrefix(line, ":") {
			fields := strings.Fields(line)
			switch fields[0] {
			case ":quit", ":q":
				return nil
			case ":format":
				if len(fields) != 2 || !replFormat(fields[1]) {
					fmt.Println("formats: json, yaml, tree, source")
					continue
				}
				format = fields[1]
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}

		out, err := c.Compile([]byte(line))
		if err != nil {
			msg := err.Error()
			if color {
				msg = errorStyle.Render(msg)
			}
			fmt.Fprintln(os.Stderr, msg)
			continue
		}
		data, err := formatOutput(out, format)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		text := strings.TrimRight(string(data), "\n")
		if color {
			text = codeStyle.Render(text)
		}
		fmt.Println(text)
	}
}

func replFormat(f string) bool {
	switch f {
	case config.FormatJSON, config.FormatYAML, config.FormatTree, config.FormatSource:
		return true
	}
	return false
}
