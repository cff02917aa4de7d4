package driver

import (
	"io"

	"github.com/kagehito/urubu/driver/lexer"
	"github.com/kagehito/urubu/spec"
)

// symbol is one unit of parser input: a code point in a grammar
// without a token layer, a token in a grammar with one. The whole
// input is materialized before evaluation so that the memo table can
// key on plain integer positions.
type symbol struct {
	kindID spec.KindID
	kind   string
	text   string
	row    int
	col    int
}

type symbolStream struct {
	syms []symbol

	// eofRow and eofCol locate the end of the source for error
	// reporting.
	eofRow int
	eofCol int
}

func (s *symbolStream) len() int {
	return len(s.syms)
}

func (s *symbolStream) at(pos int) *symbol {
	return &s.syms[pos]
}

func (s *symbolStream) position(pos int) (int, int) {
	if pos >= len(s.syms) {
		return s.eofRow, s.eofCol
	}
	return s.syms[pos].row, s.syms[pos].col
}

// newCharStream makes every code point of the source a symbol.
func newCharStream(src io.Reader) (*symbolStream, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	var syms []symbol
	row := 0
	col := 0
	for _, c := range string(b) {
		syms = append(syms, symbol{
			text: string(c),
			row:  row,
			col:  col,
		})
		if c == '\n' {
			row++
			col = 0
		} else {
			col++
		}
	}
	return &symbolStream{
		syms:   syms,
		eofRow: row,
		eofCol: col,
	}, nil
}

// newTokenStream tokenizes the source and drops the skip kinds. Input
// no pattern matches surfaces as a ParseError tagged LexicalError.
func newTokenStream(lexSpec *spec.LexicalSpec, src io.Reader) (*symbolStream, error) {
	ls := lexer.NewLexSpec(lexSpec)
	l, err := lexer.NewLexer(ls, src)
	if err != nil {
		return nil, err
	}
	var syms []symbol
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			return &symbolStream{
				syms:   syms,
				eofRow: tok.Row,
				eofCol: tok.Col,
			}, nil
		}
		if tok.Invalid {
			return nil, &ParseError{
				Tag:    ParseErrorLexical,
				Row:    tok.Row,
				Col:    tok.Col,
				Lexeme: string(tok.Lexeme),
			}
		}
		if ls.Skip(tok.KindID) {
			continue
		}
		syms = append(syms, symbol{
			kindID: tok.KindID,
			kind:   tok.Kind,
			text:   string(tok.Lexeme),
			row:    tok.Row,
			col:    tok.Col,
		})
	}
}
