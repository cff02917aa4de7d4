package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "urubu",
	Short: "Compile a grammar into a portable parser and run it",
	Long: `urubu provides three features:
- Compiles a grammar into a portable parsing specification.
- Parses a text stream according to a compiled grammar.
- Tests a grammar against expected parse trees.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
