package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kagehito/urubu/grammar"
	"github.com/kagehito/urubu/grammar/lexical"
	"github.com/kagehito/urubu/spec"
	"github.com/spf13/cobra"
)

var compileFlags = struct {
	output *string
	compLv *int
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile <grammar file path>",
		Short:   "Compile a grammar into a parsing specification",
		Example: `  urubu compile grammar.json -o grammar-compiled.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	compileFlags.compLv = cmd.Flags().Int("compression-level", lexical.CompressionLevelMax, "compression level of the lexer's transition tables (0 to 2)")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	var gram *grammar.Grammar
	{
		src := os.Stdin
		if len(args) > 0 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("Cannot open the grammar file %s: %w", args[0], err)
			}
			defer f.Close()
			src = f
		}
		var err error
		gram, err = readGrammar(src)
		if err != nil {
			return err
		}
	}

	cgram, err := grammar.Compile(gram, grammar.CompressionLevel(*compileFlags.compLv))
	if err != nil {
		return err
	}

	w := os.Stdout
	if *compileFlags.output != "" {
		f, err := os.OpenFile(*compileFlags.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("Cannot write the output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	b, err := json.Marshal(cgram)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%v\n", string(b))

	return nil
}

func readGrammar(src io.Reader) (*grammar.Grammar, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	desc := &spec.Grammar{}
	err = json.Unmarshal(data, desc)
	if err != nil {
		return nil, fmt.Errorf("Cannot parse the grammar: %w", err)
	}
	return grammar.NewGrammar(desc)
}
