package main

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/kagehito/urubu/spec"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "show <compiled grammar file path>",
		Short:   "Print a compiled grammar in a readable format",
		Example: `  urubu show grammar-compiled.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cgram, err := readCompiledGrammar(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled grammar: %w", err)
	}
	return writeSummary(os.Stdout, cgram)
}

const summaryTemplate = `# Grammar {{ .Name }}
{{ if .Lexical }}
## Token kinds
{{ range $i, $name := .Lexical.KindNames }}{{ if $name }}
{{ printKind $i $name }}{{ end }}{{ end }}
{{ end }}
## Rules
{{ range .Syntactic.Rules }}
{{ printRule . }}{{ end }}
`

func writeSummary(w io.Writer, cgram *spec.CompiledGrammar) error {
	skip := map[int]bool{}
	if cgram.Lexical != nil {
		for i, v := range cgram.Lexical.Skip {
			if v == 1 {
				skip[i] = true
			}
		}
	}
	entries := map[spec.RuleID]bool{}
	for _, id := range cgram.Syntactic.EntryRules {
		entries[id] = true
	}

	fns := template.FuncMap{
		"printKind": func(id int, name string) string {
			if skip[id] {
				return fmt.Sprintf("%4v %v (skip)", id, name)
			}
			return fmt.Sprintf("%4v %v", id, name)
		},
		"printRule": func(r *spec.CompiledRule) string {
			s := fmt.Sprintf("%v -> %v", r.Name, r.Type)
			if r.Visible {
				s += " (entry)"
			}
			if r.LeftRecursive {
				s += fmt.Sprintf(" (%v left recursion)", r.Recursion)
			}
			return fmt.Sprintf("%v: %v alternatives", s, len(r.Alts))
		},
	}

	tmpl, err := template.New("summary").Funcs(fns).Parse(summaryTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, cgram)
}
