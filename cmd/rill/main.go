package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/format"
	"github.com/rillshell/rill/internal/span"
	"github.com/rillshell/rill/internal/value"
)

// decoders maps the -f flag to the matching text decoder.
var decoders = map[string]func([]byte, span.Span) (value.Value, *diag.Error){
	"json": format.FromJSON,
	"yaml": format.FromYAML,
	"toml": format.FromTOML,
	"ini":  format.FromINI,
	"url":  format.FromURLEncoded,
}

func main() {
	formatName := flag.String("f", "json", "input format: json, yaml, toml, ini, url")
	flag.Parse()

	decode, ok := decoders[*formatName]
	if !ok {
		fmt.Fprintf(os.Stderr, "rill: unknown format %q\n", *formatName)
		os.Exit(2)
	}

	data, err := readInput(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "rill: %v\n", err)
		os.Exit(1)
	}

	v, derr := decode(data, span.Unknown())
	if derr != nil {
		fmt.Fprintf(os.Stderr, "rill: %v\n", derr)
		os.Exit(1)
	}

	out := v.Inspect()
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Println(out)
	} else {
		fmt.Print(out)
	}
}

func readInput(args []string) ([]byte, error) {
	if len(args) > 0 {
		return os.ReadFile(args[0])
	}
	if isatty.IsTerminal(os.Stdin.Fd()) {
		return nil, fmt.Errorf("no input: pass a file or pipe data on stdin")
	}
	return io.ReadAll(os.Stdin)
}
