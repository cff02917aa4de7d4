package lexical

import (
	"fmt"

	"github.com/kagehito/urubu/spec"
)

// Entry is one token kind handed to the lexer generator: the kind's
// name, the expression its lexemes match, and whether matched tokens
// are dropped before parsing.
type Entry struct {
	Kind    string
	Skip    bool
	Pattern *spec.Expr
}

func validateEntries(entries []*Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("a lexical specification needs at least one entry")
	}
	names := map[string]struct{}{}
	for _, e := range entries {
		if e.Kind == "" {
			return fmt.Errorf("an entry needs a kind name")
		}
		if _, ok := names[e.Kind]; ok {
			return fmt.Errorf("duplicate kind name: %v", e.Kind)
		}
		names[e.Kind] = struct{}{}
		if e.Pattern == nil {
			return fmt.Errorf("an entry needs a pattern: %v", e.Kind)
		}
	}
	return nil
}
