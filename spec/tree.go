package spec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Tree is the textual parse-tree form used by test cases and the tester.
// A tree is written as `(kind child...)` where a child is either another
// tree or a single-quoted lexeme: (expr (num '1')).
type Tree struct {
	Parent   *Tree
	Offset   int
	Kind     string
	Children []*Tree
	Lexeme   string
}

func NewNonTerminalTree(kind string, children ...*Tree) *Tree {
	return &Tree{
		Kind:     kind,
		Children: children,
	}
}

func NewTerminalNode(kind string, lexeme string) *Tree {
	return &Tree{
		Kind:   kind,
		Lexeme: lexeme,
	}
}

// Fill makes parent/offset links consistent over the whole tree.
func (t *Tree) Fill() *Tree {
	for i, c := range t.Children {
		c.Parent = t
		c.Offset = i
		c.Fill()
	}
	return t
}

func (t *Tree) path() string {
	if t.Parent == nil {
		return t.Kind
	}
	return fmt.Sprintf("%v.[%v]%v", t.Parent.path(), t.Offset, t.Kind)
}

func (t *Tree) Format() []byte {
	var b bytes.Buffer
	t.format(&b, 0)
	return b.Bytes()
}

func (t *Tree) format(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("    ")
	}
	buf.WriteString("(")
	buf.WriteString(t.Kind)
	if t.Lexeme != "" {
		buf.WriteString(" '")
		buf.WriteString(quoteLexeme(t.Lexeme))
		buf.WriteString("'")
	}
	if len(t.Children) > 0 {
		buf.WriteString("\n")
		for i, c := range t.Children {
			c.format(buf, depth+1)
			if i < len(t.Children)-1 {
				buf.WriteString("\n")
			}
		}
	}
	buf.WriteString(")")
}

func quoteLexeme(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

type TreeDiff struct {
	ExpectedPath string
	ActualPath   string
	Message      string
}

func newTreeDiff(expected, actual *Tree, message string) *TreeDiff {
	return &TreeDiff{
		ExpectedPath: expected.path(),
		ActualPath:   actual.path(),
		Message:      message,
	}
}

// DiffTree reports the structural differences between two trees. The
// expected kind `_` matches any kind.
func DiffTree(expected, actual *Tree) []*TreeDiff {
	if expected == nil && actual == nil {
		return nil
	}
	if expected.Kind != "_" && actual.Kind != expected.Kind {
		msg := fmt.Sprintf("unexpected kind: expected '%v' but got '%v'", expected.Kind, actual.Kind)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if expected.Lexeme != "" && expected.Lexeme != actual.Lexeme {
		msg := fmt.Sprintf("unexpected lexeme: expected '%v' but got '%v'", expected.Lexeme, actual.Lexeme)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if len(actual.Children) != len(expected.Children) {
		msg := fmt.Sprintf("unexpected node count: expected %v but got %v", len(expected.Children), len(actual.Children))
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	var diffs []*TreeDiff
	for i, exp := range expected.Children {
		if ds := DiffTree(exp, actual.Children[i]); len(ds) > 0 {
			diffs = append(diffs, ds...)
		}
	}
	return diffs
}

// TestCase is one grammar test: a description, a source text, and the
// parse tree the source must produce. The three parts of a test case
// file are separated by lines consisting of three or more hyphens.
type TestCase struct {
	Description string
	Source      []byte
	Output      *Tree
}

func ParseTestCase(r io.Reader) (*TestCase, error) {
	parts, err := splitIntoParts(r)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("a test case consists of just three parts: %v parts found", len(parts))
	}

	tree, err := ParseTree(bytes.NewReader(parts[2]))
	if err != nil {
		return nil, err
	}

	return &TestCase{
		Description: string(parts[0]),
		Source:      parts[1],
		Output:      tree,
	}, nil
}

var reDelim = regexp.MustCompile(`^\s*---+\s*$`)

func splitIntoParts(r io.Reader) ([][]byte, error) {
	var parts [][]byte
	buf := &bytes.Buffer{}
	first := true
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Bytes()
		if reDelim.Match(line) {
			parts = append(parts, append([]byte{}, buf.Bytes()...))
			buf.Reset()
			first = true
			continue
		}
		if !first {
			buf.WriteString("\n")
		}
		buf.Write(line)
		first = false
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	parts = append(parts, buf.Bytes())
	return parts, nil
}

type treeScanner struct {
	src []rune
	ptr int
}

// ParseTree reads a tree in the `(kind 'lexeme' (child...))` form.
func ParseTree(r io.Reader) (*Tree, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s := &treeScanner{
		src: []rune(string(b)),
	}
	t, err := s.parseNode()
	if err != nil {
		return nil, err
	}
	s.skipSpaces()
	if s.ptr < len(s.src) {
		return nil, fmt.Errorf("trailing data after a tree: %q", string(s.src[s.ptr:]))
	}
	return t.Fill(), nil
}

func (s *treeScanner) parseNode() (*Tree, error) {
	s.skipSpaces()
	if !s.consume('(') {
		return nil, fmt.Errorf("a tree node must start with '('")
	}
	s.skipSpaces()
	kind := s.scanSymbol()
	if kind == "" {
		return nil, fmt.Errorf("a tree node must have a kind")
	}
	t := &Tree{
		Kind: kind,
	}
	for {
		s.skipSpaces()
		if s.ptr >= len(s.src) {
			return nil, fmt.Errorf("unexpected end of a tree: '(' is not closed")
		}
		switch s.src[s.ptr] {
		case ')':
			s.ptr++
			return t, nil
		case '(':
			c, err := s.parseNode()
			if err != nil {
				return nil, err
			}
			t.Children = append(t.Children, c)
		case '\'':
			lexeme, err := s.scanLexeme()
			if err != nil {
				return nil, err
			}
			t.Lexeme = lexeme
		default:
			return nil, fmt.Errorf("invalid character in a tree: %q", s.src[s.ptr])
		}
	}
}

func (s *treeScanner) scanSymbol() string {
	start := s.ptr
	for s.ptr < len(s.src) {
		c := s.src[s.ptr]
		if c == '(' || c == ')' || c == '\'' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		s.ptr++
	}
	return string(s.src[start:s.ptr])
}

func (s *treeScanner) scanLexeme() (string, error) {
	// The caller guarantees the current character is the opening quote.
	s.ptr++
	var b strings.Builder
	for {
		if s.ptr >= len(s.src) {
			return "", fmt.Errorf("unexpected end of a tree: a lexeme is not closed")
		}
		c := s.src[s.ptr]
		s.ptr++
		switch c {
		case '\'':
			return b.String(), nil
		case '\\':
			if s.ptr >= len(s.src) {
				return "", fmt.Errorf("incomplete escape sequence in a lexeme")
			}
			e := s.src[s.ptr]
			s.ptr++
			switch e {
			case '\'':
				b.WriteRune('\'')
			case '\\':
				b.WriteRune('\\')
			case 'n':
				b.WriteRune('\n')
			default:
				return "", fmt.Errorf("invalid escape sequence in a lexeme: \\%c", e)
			}
		default:
			b.WriteRune(c)
		}
	}
}

func (s *treeScanner) skipSpaces() {
	for s.ptr < len(s.src) {
		c := s.src[s.ptr]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			return
		}
		s.ptr++
	}
}

func (s *treeScanner) consume(c rune) bool {
	if s.ptr < len(s.src) && s.src[s.ptr] == c {
		s.ptr++
		return true
	}
	return false
}
