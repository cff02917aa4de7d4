package spec

import (
	"strings"
	"testing"
)

func TestParseTree(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		tree    *Tree
	}{
		{
			caption: "a leaf",
			src:     `(num '1')`,
			tree:    NewTerminalNode("num", "1"),
		},
		{
			caption: "nested nodes",
			src:     `(expr (expr (num '1')) (num '2'))`,
			tree: NewNonTerminalTree("expr",
				NewNonTerminalTree("expr",
					NewTerminalNode("num", "1"),
				),
				NewTerminalNode("num", "2"),
			),
		},
		{
			caption: "a node without children or a lexeme",
			src:     `(empty)`,
			tree:    NewNonTerminalTree("empty"),
		},
		{
			caption: "escape sequences in a lexeme",
			src:     `(str 'a\'b\\c\nd')`,
			tree:    NewTerminalNode("str", "a'b\\c\nd"),
		},
		{
			caption: "insignificant whitespace",
			src: `
(expr
    (num '1')
    (num '2'))
`,
			tree: NewNonTerminalTree("expr",
				NewTerminalNode("num", "1"),
				NewTerminalNode("num", "2"),
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tree, err := ParseTree(strings.NewReader(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			if diffs := DiffTree(tt.tree.Fill(), tree); len(diffs) > 0 {
				t.Fatalf("unexpected tree: %v: %v", diffs[0].Message, string(tree.Format()))
			}
		})
	}
}

func TestParseTree_Invalid(t *testing.T) {
	tests := []struct {
		caption string
		src     string
	}{
		{
			caption: "a node must start with '('",
			src:     `num '1')`,
		},
		{
			caption: "a node must have a kind",
			src:     `(('1'))`,
		},
		{
			caption: "a '(' must be closed",
			src:     `(num '1'`,
		},
		{
			caption: "a lexeme must be closed",
			src:     `(num '1)`,
		},
		{
			caption: "an invalid escape sequence",
			src:     `(num '\x')`,
		},
		{
			caption: "trailing data",
			src:     `(num '1') x`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			if _, err := ParseTree(strings.NewReader(tt.src)); err == nil {
				t.Fatal("an error didn't occur")
			}
		})
	}
}

func TestTree_Format(t *testing.T) {
	tree := NewNonTerminalTree("expr",
		NewNonTerminalTree("expr",
			NewTerminalNode("num", "1"),
		),
		NewTerminalNode("op", "+\n'"),
	).Fill()
	// Formatting and re-parsing must round-trip, escapes included.
	reparsed, err := ParseTree(strings.NewReader(string(tree.Format())))
	if err != nil {
		t.Fatal(err)
	}
	if diffs := DiffTree(tree, reparsed); len(diffs) > 0 {
		t.Fatalf("unexpected tree: %v", diffs[0].Message)
	}
}

func TestDiffTree(t *testing.T) {
	tests := []struct {
		caption  string
		expected *Tree
		actual   *Tree
		equal    bool
	}{
		{
			caption:  "identical trees",
			expected: NewNonTerminalTree("a", NewTerminalNode("b", "x")),
			actual:   NewNonTerminalTree("a", NewTerminalNode("b", "x")),
			equal:    true,
		},
		{
			caption:  "the wildcard kind matches any kind",
			expected: NewNonTerminalTree("_", NewTerminalNode("_", "x")),
			actual:   NewNonTerminalTree("a", NewTerminalNode("b", "x")),
			equal:    true,
		},
		{
			caption:  "an empty expected lexeme matches any lexeme",
			expected: NewTerminalNode("a", ""),
			actual:   NewTerminalNode("a", "anything"),
			equal:    true,
		},
		{
			caption:  "different kinds",
			expected: NewNonTerminalTree("a"),
			actual:   NewNonTerminalTree("b"),
		},
		{
			caption:  "different lexemes",
			expected: NewTerminalNode("a", "x"),
			actual:   NewTerminalNode("a", "y"),
		},
		{
			caption:  "different child counts",
			expected: NewNonTerminalTree("a", NewTerminalNode("b", "x")),
			actual:   NewNonTerminalTree("a"),
		},
		{
			caption: "a difference deep in the tree",
			expected: NewNonTerminalTree("a",
				NewNonTerminalTree("b", NewTerminalNode("c", "x")),
			),
			actual: NewNonTerminalTree("a",
				NewNonTerminalTree("b", NewTerminalNode("c", "y")),
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			diffs := DiffTree(tt.expected.Fill(), tt.actual.Fill())
			if tt.equal && len(diffs) > 0 {
				t.Fatalf("unexpected diffs: %v", diffs[0].Message)
			}
			if !tt.equal && len(diffs) == 0 {
				t.Fatal("a diff didn't occur")
			}
		})
	}
}

func TestParseTestCase(t *testing.T) {
	t.Run("a well-formed test case", func(t *testing.T) {
		src := `a description
spanning two lines
---
1+2
---
(expr
    (num '1')
    (num '2'))
`
		c, err := ParseTestCase(strings.NewReader(src))
		if err != nil {
			t.Fatal(err)
		}
		if c.Description != "a description\nspanning two lines" {
			t.Fatalf("unexpected description: %q", c.Description)
		}
		if string(c.Source) != "1+2" {
			t.Fatalf("unexpected source: %q", string(c.Source))
		}
		want := NewNonTerminalTree("expr",
			NewTerminalNode("num", "1"),
			NewTerminalNode("num", "2"),
		).Fill()
		if diffs := DiffTree(want, c.Output); len(diffs) > 0 {
			t.Fatalf("unexpected output: %v", diffs[0].Message)
		}
	})

	t.Run("the part count must be exactly three", func(t *testing.T) {
		src := `a description
---
1+2
`
		if _, err := ParseTestCase(strings.NewReader(src)); err == nil {
			t.Fatal("an error didn't occur")
		}
	})
}
