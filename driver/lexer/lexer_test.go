package lexer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kagehito/urubu/grammar/lexical"
	"github.com/kagehito/urubu/spec"
)

func compileLexSpec(t *testing.T, compLv int, entries ...*lexical.Entry) *spec.LexicalSpec {
	t.Helper()
	lexSpec, err := lexical.Compile(entries, compLv)
	if err != nil {
		t.Fatal(err)
	}
	return lexSpec
}

func entry(kind string, pattern *spec.Expr) *lexical.Entry {
	return &lexical.Entry{
		Kind:    kind,
		Pattern: pattern,
	}
}

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

func rep(min int, sub *spec.Expr) *spec.Expr {
	return &spec.Expr{
		Kind: spec.ExprRepeat,
		Min:  min,
		Subs: []*spec.Expr{sub},
	}
}

func newToken(kindID spec.KindID, kind string, lexeme string, row, col int) *Token {
	return &Token{
		KindID: kindID,
		Kind:   kind,
		Lexeme: []byte(lexeme),
		Row:    row,
		Col:    col,
	}
}

func newInvalidToken(lexeme string, row, col int) *Token {
	return &Token{
		Lexeme:  []byte(lexeme),
		Row:     row,
		Col:     col,
		Invalid: true,
	}
}

func newEOFToken(row, col int) *Token {
	return &Token{
		Row: row,
		Col: col,
		EOF: true,
	}
}

func testTokens(t *testing.T, lexSpec *spec.LexicalSpec, src string, want []*Token) {
	t.Helper()
	l, err := NewLexer(NewLexSpec(lexSpec), strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	for i, w := range want {
		tok, err := l.Next()
		if err != nil {
			t.Fatal(err)
		}
		if tok.KindID != w.KindID || tok.Kind != w.Kind ||
			string(tok.Lexeme) != string(w.Lexeme) ||
			tok.Row != w.Row || tok.Col != w.Col ||
			tok.EOF != w.EOF || tok.Invalid != w.Invalid {
			t.Fatalf("unexpected token #%v: want: %+v, got: %+v", i, w, tok)
		}
		if w.EOF {
			return
		}
	}
}

func TestLexer_Next(t *testing.T) {
	for compLv := lexical.CompressionLevelMin; compLv <= lexical.CompressionLevelMax; compLv++ {
		t.Run(fmt.Sprintf("compression level %v", compLv), func(t *testing.T) {
			lexSpec := compileLexSpec(t, compLv,
				entry("ws", rep(1, lit(" "))),
				entry("num", rep(1, cls('0', '9'))),
				entry("plus", lit("+")),
			)
			testTokens(t, lexSpec, "1 + 22", []*Token{
				newToken(2, "num", "1", 0, 0),
				newToken(1, "ws", " ", 0, 1),
				newToken(3, "plus", "+", 0, 2),
				newToken(1, "ws", " ", 0, 3),
				newToken(2, "num", "22", 0, 4),
				newEOFToken(0, 6),
			})
		})
	}
}

func TestLexer_MaximalMunch(t *testing.T) {
	lexSpec := compileLexSpec(t, lexical.CompressionLevelMax,
		entry("eq", lit("==")),
		entry("assign", lit("=")),
		entry("ident", rep(1, cls('a', 'z'))),
	)
	testTokens(t, lexSpec, "a==b=c", []*Token{
		newToken(3, "ident", "a", 0, 0),
		newToken(1, "eq", "==", 0, 1),
		newToken(3, "ident", "b", 0, 3),
		newToken(2, "assign", "=", 0, 4),
		newToken(3, "ident", "c", 0, 5),
		newEOFToken(0, 6),
	})
}

func TestLexer_InvalidCoalescing(t *testing.T) {
	lexSpec := compileLexSpec(t, lexical.CompressionLevelMax,
		entry("num", rep(1, cls('0', '9'))),
	)
	testTokens(t, lexSpec, "12??34?", []*Token{
		newToken(1, "num", "12", 0, 0),
		newInvalidToken("??", 0, 2),
		newToken(1, "num", "34", 0, 4),
		newInvalidToken("?", 0, 6),
		newEOFToken(0, 7),
	})
}

func TestLexer_InvalidKeepsFollowingToken(t *testing.T) {
	lexSpec := compileLexSpec(t, lexical.CompressionLevelMax,
		entry("eq", lit("==")),
		entry("ws", lit(" ")),
	)
	// The first '=' starts a scan toward "==" that dies on the space.
	// The space killed the scan but wasn't part of it, so it must stay
	// in the source and lex as its own token.
	testTokens(t, lexSpec, "= =", []*Token{
		newInvalidToken("=", 0, 0),
		newToken(2, "ws", " ", 0, 1),
		newInvalidToken("=", 0, 2),
		newEOFToken(0, 3),
	})
}

func TestLexer_Positions(t *testing.T) {
	lexSpec := compileLexSpec(t, lexical.CompressionLevelMax,
		entry("nl", lit("\n")),
		entry("word", rep(1, cls('a', 'z'))),
		entry("greek", rep(1, cls('α', 'ω'))),
	)
	// A column counts code points, not bytes, and an LF resets it.
	testTokens(t, lexSpec, "ab\nαβ\ncd", []*Token{
		newToken(2, "word", "ab", 0, 0),
		newToken(1, "nl", "\n", 0, 2),
		newToken(3, "greek", "αβ", 1, 0),
		newToken(1, "nl", "\n", 1, 2),
		newToken(2, "word", "cd", 2, 0),
		newEOFToken(2, 2),
	})
}
