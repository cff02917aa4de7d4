package grammar

import (
	"testing"

	"github.com/kagehito/urubu/spec"
)

func TestRecursion_Classification(t *testing.T) {
	tests := []struct {
		caption string
		grammar *spec.Grammar
		// recursion maps rule names to the expected classification.
		recursion map[string]spec.RecursionKind
	}{
		{
			caption: "a directly left-recursive rule",
			grammar: gram("test",
				synRule("expr",
					altAct("add", ref("expr"), lit("+"), ref("num")),
					altAct("self", ref("num")),
				),
				synRule("num", alt(cls('0', '9'))),
			),
			recursion: map[string]spec.RecursionKind{
				"expr": spec.RecursionDirect,
				"num":  spec.RecursionNone,
			},
		},
		{
			caption: "an indirectly left-recursive cycle",
			grammar: gram("test",
				synRule("a",
					altAct("self", ref("b")),
					altAct("self", ref("num")),
				),
				synRule("b",
					altAct("grow", ref("a"), lit("+"), ref("num")),
				),
				synRule("num", alt(cls('0', '9'))),
			),
			recursion: map[string]spec.RecursionKind{
				"a":   spec.RecursionIndirect,
				"b":   spec.RecursionIndirect,
				"num": spec.RecursionNone,
			},
		},
		{
			caption: "right recursion is not left recursion",
			grammar: gram("test",
				synRule("list",
					altAct("cons", ref("num"), ref("list")),
					altAct("last", ref("num")),
				),
				synRule("num", alt(cls('0', '9'))),
			),
			recursion: map[string]spec.RecursionKind{
				"list": spec.RecursionNone,
				"num":  spec.RecursionNone,
			},
		},
		{
			caption: "a nullable prefix exposes the recursion behind it",
			grammar: gram("test",
				synRule("expr",
					altAct("neg", opt(lit("-")), ref("expr"), lit("!")),
					altAct("self", ref("num")),
				),
				synRule("num", alt(cls('0', '9'))),
			),
			recursion: map[string]spec.RecursionKind{
				"expr": spec.RecursionDirect,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			cgram := compileGram(t, tt.grammar)
			for _, r := range cgram.Syntactic.Rules {
				want, ok := tt.recursion[r.Name]
				if !ok {
					continue
				}
				if r.Recursion != want {
					t.Errorf("unexpected recursion kind of '%v': want: %v, got: %v", r.Name, want, r.Recursion)
				}
				if r.LeftRecursive != (want != spec.RecursionNone) {
					t.Errorf("unexpected left-recursive flag of '%v': %v", r.Name, r.LeftRecursive)
				}
			}
		})
	}
}

func TestRecursion_GroupBaseCase(t *testing.T) {
	// Only x carries a non-recursive alternative; every alternative of y
	// re-enters the group. The base case belongs to the recursion group
	// as a whole, not to each member, so the grammar must compile.
	cgram := compileGram(t, gram("test",
		synRule("x",
			altAct("step", ref("y")),
			altAct("seed", ref("num")),
		),
		synRule("y",
			altAct("grow", ref("x"), lit("-"), ref("num")),
		),
		synRule("num", alt(rep(1, cls('0', '9')))),
	))
	for _, r := range cgram.Syntactic.Rules {
		if r.Name == "num" {
			continue
		}
		if r.Recursion != spec.RecursionIndirect || !r.LeftRecursive {
			t.Errorf("unexpected recursion kind of '%v': %v", r.Name, r.Recursion)
		}
	}
}

func TestRecursion_NoBaseCase(t *testing.T) {
	tests := []struct {
		caption string
		grammar *spec.Grammar
	}{
		{
			caption: "every alternative re-enters the rule directly",
			grammar: gram("test",
				synRule("a",
					alt(ref("a"), lit("x")),
				),
			),
		},
		{
			caption: "every alternative re-enters the recursion group",
			grammar: gram("test",
				synRule("a", altAct("self", ref("b"))),
				synRule("b", altAct("self", ref("a"))),
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			g, err := NewGrammar(tt.grammar)
			if err != nil {
				t.Fatal(err)
			}
			_, err = Compile(g)
			hasSemErr(t, err, semErrNoBaseCase)
		})
	}
}

func TestNullability(t *testing.T) {
	g, err := NewGrammar(gram("test",
		synRule("a", alt(opt(lit("x")), rep(0, lit("y")))),
		synRule("b", alt(ref("a"), ref("a"))),
		synRule("c", alt(rep(1, lit("z")))),
	))
	if err != nil {
		t.Fatal(err)
	}
	nullable := g.analyzeNullability()
	for name, want := range map[string]bool{
		"a": true,
		"b": true,
		"c": false,
	} {
		if nullable[g.ruleTab[name]] != want {
			t.Errorf("unexpected nullability of '%v': want: %v, got: %v", name, want, nullable[g.ruleTab[name]])
		}
	}
}
