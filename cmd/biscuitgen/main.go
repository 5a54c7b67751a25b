// Command biscuitgen writes the embed script of an exported configuration.
//
// The input is the JSON returned by the preview API: config_data,
// selected_services and optional banners. The output is byte-identical to what
// the hosted endpoint serves for the same values.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"biscuits/internal/scriptgen"
)

func main() {
	in := flag.String("in", "-", "configuration JSON file, - for stdin")
	out := flag.String("out", "-", "output file, - for stdout")
	baseURL := flag.String("hosted", "", "print the hosted snippet for this server instead (requires -id)")
	id := flag.String("id", "", "configuration ID used with -hosted")
	flag.Parse()

	if err := run(*in, *out, *baseURL, *id); err != nil {
		fmt.Fprintln(os.Stderr, "biscuitgen:", err)
		os.Exit(1)
	}
}

func run(inPath, outPath, baseURL, id string) error {
	var text string
	if baseURL != "" {
		if id == "" {
			return fmt.Errorf("-hosted requires -id")
		}
		text = scriptgen.HostedSnippet(baseURL, id) + "\n"
	} else {
		input, err := readInput(inPath)
		if err != nil {
			return err
		}
		text = input.Script()
	}

	if outPath == "-" {
		_, err := io.WriteString(os.Stdout, text)
		return err
	}
	if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

func readInput(path string) (scriptgen.Input, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return scriptgen.Input{}, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	return decodeInput(r)
}

func decodeInput(r io.Reader) (scriptgen.Input, error) {
	var input scriptgen.Input
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return scriptgen.Input{}, fmt.Errorf("failed to decode input: %w", err)
	}
	return input, nil
}
