package driver

import (
	"fmt"
	"io"
)

// Value is what a successful match produces: a *Token for a terminal,
// a []Value for a tuple or a list, nil for an absent option or a
// fully suppressed match, and whatever an action returned for an
// alternative with one.
type Value interface{}

// Token is the value of a significant terminal.
type Token struct {
	// Kind is the token's kind name; it is empty in a grammar without
	// a token layer.
	Kind string

	// Text is the matched lexeme.
	Text string

	Row int
	Col int
}

// ActionFunc computes the value of an alternative from the values of
// its significant elements, in order.
type ActionFunc func(args []Value) (Value, error)

// ActionRegistry binds the action identifiers of a grammar to
// callables. The parser resolves every identifier up front; a missing
// binding is a construction error, not a parse-time one.
type ActionRegistry map[string]ActionFunc

// Node is a node of a concrete syntax tree. Trees hold only the
// significant parts of a match; suppressed terminals don't appear.
type Node struct {
	KindName string
	Text     string
	Row      int
	Col      int
	Children []*Node
}

// PrintTree writes a tree in a ruled-line format.
func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	if node.Text != "" {
		fmt.Fprintf(w, "%v%v %#v\n", ruledLine, node.KindName, node.Text)
	} else {
		fmt.Fprintf(w, "%v%v\n", ruledLine, node.KindName)
	}

	num := len(node.Children)
	for i, child := range node.Children {
		var line string
		if num > 1 && i < num-1 {
			line = "├─ "
		} else {
			line = "└─ "
		}

		var prefix string
		if i >= num-1 {
			prefix = "   "
		} else {
			prefix = "│  "
		}

		printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}

// flattenNodes collapses the nested tuples and lists of a production's
// significant values into a flat child list.
func flattenNodes(vs []Value, nodes []*Node) []*Node {
	for _, v := range vs {
		switch n := v.(type) {
		case nil:
			continue
		case *Node:
			nodes = append(nodes, n)
		case []Value:
			nodes = flattenNodes(n, nodes)
		}
	}
	return nodes
}
