package lexer

import (
	"io"

	"github.com/kagehito/urubu/spec"
)

// LexSpec is the view of a compiled tokenizer the lexer runs on.
type LexSpec interface {
	InitialState() spec.StateID
	NextState(state spec.StateID, v int) (spec.StateID, bool)
	Accept(state spec.StateID) (spec.KindID, bool)
	KindName(kind spec.KindID) string
	Skip(kind spec.KindID) bool
}

type Token struct {
	// KindID is an ID of the token's kind, or KindIDNil for the EOF
	// token and invalid tokens.
	KindID spec.KindID

	// Kind is the name of the token's kind.
	Kind string

	// Row is the row number where the lexeme appears, counting from 0.
	Row int

	// Col is the column number where the lexeme appears, counting from
	// 0 in code points, not bytes.
	Col int

	// Lexeme is the byte sequence the token's pattern matched.
	Lexeme []byte

	// EOF is true on the token reported at the end of the source.
	EOF bool

	// Invalid is true on a token holding input no pattern matched.
	Invalid bool
}

type lexerState struct {
	srcPtr int
	row    int
	col    int
}

// Lexer tokenizes a source with the maximal munch rule: it keeps
// reading while some longer match is still possible and reports the
// last accepted match.
type Lexer struct {
	spec              LexSpec
	src               []byte
	state             lexerState
	lastAcceptedState lexerState
	tokBuf            []*Token
}

func NewLexer(lexSpec LexSpec, src io.Reader) (*Lexer, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	return &Lexer{
		spec: lexSpec,
		src:  b,
	}, nil
}

// Next returns the next token. Consecutive unmatchable bytes coalesce
// into a single invalid token.
func (l *Lexer) Next() (*Token, error) {
	if len(l.tokBuf) > 0 {
		tok := l.tokBuf[0]
		l.tokBuf = l.tokBuf[1:]
		return tok, nil
	}

	tok, err := l.next()
	if err != nil {
		return nil, err
	}
	if !tok.Invalid {
		return tok, nil
	}
	errTok := tok
	for {
		tok, err = l.next()
		if err != nil {
			return nil, err
		}
		if !tok.Invalid {
			break
		}
		errTok.Lexeme = append(errTok.Lexeme, tok.Lexeme...)
	}
	l.tokBuf = append(l.tokBuf, tok)

	return errTok, nil
}

func (l *Lexer) next() (*Token, error) {
	state := l.spec.InitialState()
	buf := []byte{}
	row := l.state.row
	col := l.state.col
	var tok *Token
	for {
		prev := l.state
		v, eof := l.read()
		if eof {
			if tok != nil {
				l.revert()
				return tok, nil
			}
			// Unaccepted data remaining at the EOF becomes an invalid
			// token.
			if len(buf) > 0 {
				return &Token{
					Lexeme:  buf,
					Row:     row,
					Col:     col,
					Invalid: true,
				}, nil
			}
			return &Token{
				Row: row,
				Col: col,
				EOF: true,
			}, nil
		}
		buf = append(buf, v)
		nextState, ok := l.spec.NextState(state, int(v))
		if !ok {
			if tok != nil {
				l.revert()
				return tok, nil
			}
			// The byte that killed the scan stays in the source; it may
			// start a valid token. A lone unmatchable byte is consumed
			// so that the scan always makes progress.
			if len(buf) > 1 {
				l.state = prev
				buf = buf[:len(buf)-1]
			}
			return &Token{
				Lexeme:  buf,
				Row:     row,
				Col:     col,
				Invalid: true,
			}, nil
		}
		state = nextState
		if kindID, ok := l.spec.Accept(state); ok {
			tok = &Token{
				KindID: kindID,
				Kind:   l.spec.KindName(kindID),
				Lexeme: buf,
				Row:    row,
				Col:    col,
			}
			l.accept()
		}
	}
}

func (l *Lexer) read() (byte, bool) {
	if l.state.srcPtr >= len(l.src) {
		return 0, true
	}

	b := l.src[l.state.srcPtr]
	l.state.srcPtr++

	// LF ends a line, and columns count code points, so only the first
	// byte of a UTF-8 sequence advances the column.
	if b < 128 {
		if b == 0x0a {
			l.state.row++
			l.state.col = 0
		} else {
			l.state.col++
		}
	} else if b>>5 == 6 || b>>4 == 14 || b>>3 == 30 {
		l.state.col++
	}

	return b, false
}

func (l *Lexer) accept() {
	l.lastAcceptedState = l.state
}

// revert restores the state saved by the last accept. Never call it
// twice in a row.
func (l *Lexer) revert() {
	l.state = l.lastAcceptedState
}
