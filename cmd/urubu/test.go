package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/kagehito/urubu/grammar"
	"github.com/kagehito/urubu/spec"
	"github.com/kagehito/urubu/tester"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "test <grammar file path> <test file path>|<test directory path>",
		Short:   "Test a grammar",
		Example: `  urubu test grammar.json test`,
		Args:    cobra.ExactArgs(2),
		RunE:    runTest,
	}
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	var cgram *spec.CompiledGrammar
	{
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("Cannot open the grammar file %s: %w", args[0], err)
		}
		g, err := readGrammar(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("Cannot read a grammar: %w", err)
		}
		cgram, err = grammar.Compile(g)
		if err != nil {
			return fmt.Errorf("Cannot compile the grammar: %w", err)
		}
	}

	var cs []*tester.TestCaseWithMetadata
	{
		cs = tester.ListTestCases(args[1])
		errOccurred := false
		for _, c := range cs {
			if c.Error != nil {
				fmt.Fprintf(os.Stderr, "Failed to read a test case or a directory: %v\n%v\n", c.FilePath, c.Error)
				errOccurred = true
			}
		}
		if errOccurred {
			return errors.New("Cannot run test")
		}
	}

	t := &tester.Tester{
		Grammar: cgram,
		Cases:   cs,
	}
	rs := t.Run()
	testFailed := false
	for _, r := range rs {
		fmt.Fprintln(os.Stdout, r)
		if r.Error != nil {
			testFailed = true
		}
	}
	if testFailed {
		return errors.New("Test failed")
	}
	return nil
}
