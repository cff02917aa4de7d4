package driver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/kagehito/urubu/grammar"
	"github.com/kagehito/urubu/spec"
)

func lit(s string) *spec.Expr {
	return &spec.Expr{
		Kind:    spec.ExprLiteral,
		Literal: s,
	}
}

func cls(from, to rune) *spec.Expr {
	return &spec.Expr{
		Kind: spec.ExprClass,
		Ranges: []*spec.RuneRange{
			{From: from, To: to},
		},
	}
}

func ref(name string) *spec.Expr {
	return &spec.Expr{
		Kind: spec.ExprRef,
		Rule: name,
	}
}

func opt(sub *spec.Expr) *spec.Expr {
	return &spec.Expr{
		Kind: spec.ExprOption,
		Subs: []*spec.Expr{sub},
	}
}

func rep(min int, sub *spec.Expr) *spec.Expr {
	return &spec.Expr{
		Kind: spec.ExprRepeat,
		Min:  min,
		Subs: []*spec.Expr{sub},
	}
}

func bind(name string, sub *spec.Expr) *spec.Expr {
	return &spec.Expr{
		Kind: spec.ExprBind,
		Name: name,
		Subs: []*spec.Expr{sub},
	}
}

func alt(elems ...*spec.Expr) *spec.Alternative {
	return &spec.Alternative{
		Elems: elems,
	}
}

func altAct(action string, elems ...*spec.Expr) *spec.Alternative {
	return &spec.Alternative{
		Elems:  elems,
		Action: action,
	}
}

func rule(name string, alts ...*spec.Alternative) *spec.Rule {
	return &spec.Rule{
		Name: name,
		Alts: alts,
	}
}

func tokenRule(name string, alts ...*spec.Alternative) *spec.Rule {
	return &spec.Rule{
		Name:  name,
		Token: true,
		Alts:  alts,
	}
}

func skipRule(name string, alts ...*spec.Alternative) *spec.Rule {
	return &spec.Rule{
		Name:  name,
		Token: true,
		Skip:  true,
		Alts:  alts,
	}
}

func gram(name string, rules ...*spec.Rule) *spec.Grammar {
	return &spec.Grammar{
		Name:  name,
		Rules: rules,
	}
}

func compileGrammar(t *testing.T, g *spec.Grammar) *spec.CompiledGrammar {
	t.Helper()
	gr, err := grammar.NewGrammar(g)
	if err != nil {
		t.Fatal(err)
	}
	cgram, err := grammar.Compile(gr)
	if err != nil {
		t.Fatal(err)
	}
	return cgram
}

// arithGrammar is a character-level grammar with left-recursive
// addition and subtraction, so + and - associate to the left.
func arithGrammar(t *testing.T) *spec.CompiledGrammar {
	return compileGrammar(t, gram("arith",
		rule("expr",
			altAct("add", bind("lhs", ref("expr")), lit("+"), bind("rhs", ref("term"))),
			altAct("sub", bind("lhs", ref("expr")), lit("-"), bind("rhs", ref("term"))),
			altAct("val", ref("term")),
		),
		rule("term",
			altAct("int", rep(1, cls('0', '9'))),
			altAct("paren", lit("("), ref("expr"), lit(")")),
		),
	))
}

func arithActions() ActionRegistry {
	return ActionRegistry{
		"add": func(args []Value) (Value, error) {
			return args[0].(int) + args[1].(int), nil
		},
		"sub": func(args []Value) (Value, error) {
			return args[0].(int) - args[1].(int), nil
		},
		"val": func(args []Value) (Value, error) {
			return args[0], nil
		},
		"int": func(args []Value) (Value, error) {
			var b strings.Builder
			for _, d := range args[0].([]Value) {
				b.WriteString(d.(*Token).Text)
			}
			return strconv.Atoi(b.String())
		},
		"paren": func(args []Value) (Value, error) {
			return args[0], nil
		},
	}
}

func TestParser_Arithmetic(t *testing.T) {
	cgram := arithGrammar(t)
	p, err := NewParser(cgram, WithActions(arithActions()))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		src  string
		want int
	}{
		{src: "1", want: 1},
		{src: "12", want: 12},
		{src: "1+2+3", want: 6},
		// Left association: (7-2)-3, not 7-(2-3).
		{src: "7-2-3", want: 2},
		{src: "10-2+5", want: 13},
		{src: "(5)", want: 5},
		{src: "(1+2)-((3))", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			v, err := p.Parse(strings.NewReader(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			if v.(int) != tt.want {
				t.Errorf("unexpected value: want: %v, got: %v", tt.want, v)
			}
		})
	}
}

func TestParser_Reusable(t *testing.T) {
	p, err := NewParser(arithGrammar(t), WithActions(arithActions()))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		v, err := p.Parse(strings.NewReader("1+2"))
		if err != nil {
			t.Fatal(err)
		}
		if v.(int) != 3 {
			t.Fatalf("unexpected value on run #%v: %v", i, v)
		}
	}
}

func TestParser_OrderedChoice(t *testing.T) {
	// r's first alternative matches 'a' and commits; the parser never
	// reconsiders r even though the second alternative would match more.
	cgram := compileGrammar(t, gram("test",
		rule("s", alt(ref("r"), lit("b"))),
		rule("r",
			altAct("one", lit("a")),
			altAct("two", lit("a"), lit("b")),
		),
	))
	p, err := NewParser(cgram, WithActions(ActionRegistry{
		"one": func(args []Value) (Value, error) { return 1, nil },
		"two": func(args []Value) (Value, error) { return 2, nil },
	}))
	if err != nil {
		t.Fatal(err)
	}
	v, err := p.Parse(strings.NewReader("ab"))
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != 1 {
		t.Fatalf("the first matching alternative must win: got: %v", v)
	}
}

func TestParser_IndirectLeftRecursion(t *testing.T) {
	cgram := compileGrammar(t, gram("test",
		rule("x",
			altAct("viaY", ref("y")),
			altAct("num", cls('0', '9')),
		),
		rule("y",
			altAct("grow", bind("l", ref("x")), lit("-"), bind("d", cls('0', '9'))),
		),
	))
	p, err := NewParser(cgram, WithActions(ActionRegistry{
		"viaY": func(args []Value) (Value, error) {
			return args[0], nil
		},
		"num": func(args []Value) (Value, error) {
			return strconv.Atoi(args[0].(*Token).Text)
		},
		"grow": func(args []Value) (Value, error) {
			d, err := strconv.Atoi(args[1].(*Token).Text)
			if err != nil {
				return nil, err
			}
			return args[0].(int) - d, nil
		},
	}))
	if err != nil {
		t.Fatal(err)
	}
	v, err := p.Parse(strings.NewReader("7-2-3"))
	if err != nil {
		t.Fatal(err)
	}
	if v.(int) != 2 {
		t.Fatalf("unexpected value: want: 2, got: %v", v)
	}
}

func TestParser_RepetitionAndOption(t *testing.T) {
	t.Run("a repetition of a significant element yields a list", func(t *testing.T) {
		cgram := compileGrammar(t, gram("test",
			rule("s", alt(rep(0, ref("a")))),
			rule("a", alt(cls('a', 'z'))),
		))
		p, err := NewParser(cgram)
		if err != nil {
			t.Fatal(err)
		}

		v, err := p.Parse(strings.NewReader("abc"))
		if err != nil {
			t.Fatal(err)
		}
		vs := v.([]Value)
		if len(vs) != 3 || vs[0].(*Token).Text != "a" || vs[2].(*Token).Text != "c" {
			t.Fatalf("unexpected value: %#v", v)
		}

		// Zero iterations still yield a list, an empty one.
		v, err = p.Parse(strings.NewReader(""))
		if err != nil {
			t.Fatal(err)
		}
		if vs := v.([]Value); len(vs) != 0 {
			t.Fatalf("unexpected value: %#v", v)
		}
	})

	t.Run("an absent option yields nil", func(t *testing.T) {
		cgram := compileGrammar(t, gram("test",
			rule("s", alt(opt(ref("a")), lit("!"))),
			rule("a", alt(cls('a', 'z'))),
		))
		p, err := NewParser(cgram)
		if err != nil {
			t.Fatal(err)
		}

		v, err := p.Parse(strings.NewReader("x!"))
		if err != nil {
			t.Fatal(err)
		}
		if v.(*Token).Text != "x" {
			t.Fatalf("unexpected value: %#v", v)
		}

		v, err = p.Parse(strings.NewReader("!"))
		if err != nil {
			t.Fatal(err)
		}
		if v != nil {
			t.Fatalf("unexpected value: %#v", v)
		}
	})
}

func tokenLayerGrammar(t *testing.T) *spec.CompiledGrammar {
	return compileGrammar(t, gram("test",
		skipRule("ws", alt(rep(1, lit(" ")))),
		tokenRule("ident", alt(rep(1, cls('a', 'z')))),
		rule("s", alt(ref("v"), lit("=="), ref("v"))),
		rule("v", alt(ref("ident"))),
	))
}

func TestParser_TokenLayer(t *testing.T) {
	p, err := NewParser(tokenLayerGrammar(t))
	if err != nil {
		t.Fatal(err)
	}
	tree, err := p.ParseTree(strings.NewReader("ab == cd"))
	if err != nil {
		t.Fatal(err)
	}
	// Skipped whitespace and the suppressed '==' never reach the tree.
	if tree.KindName != "s" || len(tree.Children) != 2 {
		t.Fatalf("unexpected tree: %#v", tree)
	}
	lhs := tree.Children[0]
	rhs := tree.Children[1]
	if lhs.KindName != "v" || lhs.Children[0].Text != "ab" {
		t.Fatalf("unexpected lhs: %#v", lhs)
	}
	if rhs.KindName != "v" || rhs.Children[0].Text != "cd" {
		t.Fatalf("unexpected rhs: %#v", rhs)
	}
	if lhs.Children[0].KindName != "ident" {
		t.Fatalf("unexpected terminal kind: %#v", lhs.Children[0])
	}
}

func TestParser_Errors(t *testing.T) {
	t.Run("unexpected symbol", func(t *testing.T) {
		p, err := NewParser(arithGrammar(t), WithActions(arithActions()))
		if err != nil {
			t.Fatal(err)
		}
		_, err = p.Parse(strings.NewReader("1+*2"))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if perr.Tag != ParseErrorUnexpectedSymbol {
			t.Fatalf("unexpected tag: %v", perr.Tag)
		}
		if perr.Row != 0 || perr.Col != 2 || perr.Lexeme != "*" {
			t.Fatalf("unexpected position: %+v", perr)
		}
		wantExpected := []string{"'('", "[0-9]"}
		if fmt.Sprintf("%v", perr.Expected) != fmt.Sprintf("%v", wantExpected) {
			t.Fatalf("unexpected expected set: want: %v, got: %v", wantExpected, perr.Expected)
		}
	})

	t.Run("unexpected eof", func(t *testing.T) {
		p, err := NewParser(arithGrammar(t), WithActions(arithActions()))
		if err != nil {
			t.Fatal(err)
		}
		_, err = p.Parse(strings.NewReader("1+"))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if perr.Tag != ParseErrorUnexpectedEOF {
			t.Fatalf("unexpected tag: %v", perr.Tag)
		}
		if perr.Row != 0 || perr.Col != 2 {
			t.Fatalf("unexpected position: %+v", perr)
		}
	})

	t.Run("trailing input", func(t *testing.T) {
		p, err := NewParser(compileGrammar(t, gram("test",
			rule("s", alt(lit("a"))),
		)))
		if err != nil {
			t.Fatal(err)
		}
		_, err = p.Parse(strings.NewReader("ab"))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if perr.Tag != ParseErrorUnexpectedSymbol || perr.Lexeme != "b" {
			t.Fatalf("unexpected error: %+v", perr)
		}
	})

	t.Run("lexical error", func(t *testing.T) {
		p, err := NewParser(tokenLayerGrammar(t))
		if err != nil {
			t.Fatal(err)
		}
		_, err = p.Parse(strings.NewReader("ab = cd"))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if perr.Tag != ParseErrorLexical {
			t.Fatalf("unexpected tag: %v", perr.Tag)
		}
		if perr.Row != 0 || perr.Col != 3 || perr.Lexeme != "=" {
			t.Fatalf("unexpected position: %+v", perr)
		}
	})

	t.Run("a literal mismatch points at the offending character", func(t *testing.T) {
		p, err := NewParser(compileGrammar(t, gram("test",
			rule("s", alt(lit("abc"))),
		)))
		if err != nil {
			t.Fatal(err)
		}
		_, err = p.Parse(strings.NewReader("abx"))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if perr.Tag != ParseErrorUnexpectedSymbol {
			t.Fatalf("unexpected tag: %v", perr.Tag)
		}
		if perr.Row != 0 || perr.Col != 2 || perr.Lexeme != "x" {
			t.Fatalf("unexpected position: %+v", perr)
		}
		if len(perr.Expected) != 1 || perr.Expected[0] != "'abc'" {
			t.Fatalf("unexpected expected set: %v", perr.Expected)
		}
	})

	t.Run("a failing action aborts the parse", func(t *testing.T) {
		cgram := compileGrammar(t, gram("test",
			rule("s", altAct("boom", lit("a"))),
		))
		p, err := NewParser(cgram, WithActions(ActionRegistry{
			"boom": func(args []Value) (Value, error) {
				return nil, errors.New("no good")
			},
		}))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := p.Parse(strings.NewReader("a")); err == nil {
			t.Fatal("an error didn't occur")
		}
	})
}

func TestNewParser_Validation(t *testing.T) {
	t.Run("every action identifier must resolve", func(t *testing.T) {
		cgram := compileGrammar(t, gram("test",
			rule("s", altAct("missing", lit("a"))),
		))
		if _, err := NewParser(cgram, WithActions(ActionRegistry{})); err == nil {
			t.Fatal("an error didn't occur")
		}
	})

	t.Run("the entry rule must be visible", func(t *testing.T) {
		cgram := compileGrammar(t, gram("test",
			rule("s", alt(ref("a"))),
			rule("a", alt(lit("a"))),
		))
		if _, err := NewParser(cgram, EntryRule("a")); err == nil {
			t.Fatal("an error didn't occur")
		}
	})
}

func TestParser_EntryRule(t *testing.T) {
	cgram := compileGrammar(t, gram("test",
		&spec.Rule{
			Name:    "a",
			Visible: true,
			Alts:    []*spec.Alternative{alt(lit("a"))},
		},
		&spec.Rule{
			Name:    "b",
			Visible: true,
			Alts:    []*spec.Alternative{alt(lit("b"))},
		},
	))
	p, err := NewParser(cgram, EntryRule("b"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Parse(strings.NewReader("b")); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Parse(strings.NewReader("a")); err == nil {
		t.Fatal("an error didn't occur")
	}
}

func TestParser_NullableRepetitionTerminates(t *testing.T) {
	// The body of the repetition can match the empty string; an
	// iteration that consumes nothing must end the loop.
	cgram := compileGrammar(t, gram("test",
		rule("s", alt(rep(0, opt(ref("a"))), lit("!"))),
		rule("a", alt(cls('a', 'z'))),
	))
	p, err := NewParser(cgram)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Parse(strings.NewReader("ab!")); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Parse(strings.NewReader("!")); err != nil {
		t.Fatal(err)
	}
}
