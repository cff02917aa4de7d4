package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kagehito/urubu/driver"
	"github.com/kagehito/urubu/spec"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	source *string
	entry  *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <compiled grammar file path>",
		Short:   "Parse a text stream",
		Example: `  cat src | urubu parse grammar-compiled.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.entry = cmd.Flags().String("entry", "", "entry rule name (default the grammar's first visible rule)")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cgram, err := readCompiledGrammar(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled grammar: %w", err)
	}

	src := os.Stdin
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return fmt.Errorf("Cannot open the source file %s: %w", *parseFlags.source, err)
		}
		defer f.Close()
		src = f
	}

	var opts []driver.ParserOption
	if *parseFlags.entry != "" {
		opts = append(opts, driver.EntryRule(*parseFlags.entry))
	}
	p, err := driver.NewParser(cgram, opts...)
	if err != nil {
		return err
	}

	tree, err := p.ParseTree(src)
	if err != nil {
		return err
	}
	driver.PrintTree(os.Stdout, tree)

	return nil
}

func readCompiledGrammar(path string) (*spec.CompiledGrammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cgram := &spec.CompiledGrammar{}
	err = json.Unmarshal(data, cgram)
	if err != nil {
		return nil, err
	}
	return cgram, nil
}
