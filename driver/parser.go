package driver

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kagehito/urubu/spec"
)

type ParseErrorTag string

const (
	// ParseErrorUnexpectedSymbol reports input that no alternative
	// could continue past. Row and Col locate the furthest symbol the
	// parse failed at, and Expected lists what could have appeared
	// there.
	ParseErrorUnexpectedSymbol = ParseErrorTag("unexpected-symbol")

	// ParseErrorUnexpectedEOF reports a source that ended while some
	// alternative still needed input.
	ParseErrorUnexpectedEOF = ParseErrorTag("unexpected-eof")

	// ParseErrorLexical reports input no token pattern matched.
	ParseErrorLexical = ParseErrorTag("lexical")
)

type ParseError struct {
	Tag ParseErrorTag

	// Row and Col are 0-based; Col counts code points.
	Row int
	Col int

	// Lexeme is the offending input, when there is one.
	Lexeme string

	// Expected lists the terminals that could have appeared at the
	// error position, sorted.
	Expected []string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v:%v:", e.Row+1, e.Col+1)
	switch e.Tag {
	case ParseErrorLexical:
		fmt.Fprintf(&b, " invalid input")
	case ParseErrorUnexpectedEOF:
		fmt.Fprintf(&b, " unexpected end of input")
	default:
		fmt.Fprintf(&b, " unexpected input")
	}
	if e.Lexeme != "" {
		fmt.Fprintf(&b, " '%v'", e.Lexeme)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, ": expected: %v", strings.Join(e.Expected, ", "))
	}
	return b.String()
}

type result struct {
	ok    bool
	end   int
	value Value
}

var failure = result{}

type ParserOption func(p *Parser) error

// WithActions binds action identifiers to callables. Construction
// fails when the grammar names an action the registry lacks.
func WithActions(actions ActionRegistry) ParserOption {
	return func(p *Parser) error {
		p.actions = actions
		return nil
	}
}

// EntryRule selects which of the grammar's visible rules the parse
// starts from. The default is the first one.
func EntryRule(name string) ParserOption {
	return func(p *Parser) error {
		for _, id := range p.cgram.Syntactic.EntryRules {
			if p.cgram.Syntactic.Rules[id].Name == name {
				p.entry = id
				return nil
			}
		}
		return fmt.Errorf("the rule '%v' doesn't exist or isn't visible", name)
	}
}

// Parser evaluates one compiled grammar. A Parser is reusable across
// sources but not concurrently; any number of Parsers may share one
// CompiledGrammar.
type Parser struct {
	cgram   *spec.CompiledGrammar
	actions ActionRegistry
	entry   spec.RuleID

	stream    *symbolStream
	memo      *memoTable
	treeMode  bool
	fPos      int
	fExpected []string
}

func NewParser(cgram *spec.CompiledGrammar, opts ...ParserOption) (*Parser, error) {
	if len(cgram.Syntactic.EntryRules) == 0 {
		return nil, fmt.Errorf("the grammar has no entry rule")
	}
	p := &Parser{
		cgram: cgram,
		entry: cgram.Syntactic.EntryRules[0],
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.actions != nil {
		var missing []string
		for _, r := range cgram.Syntactic.Rules {
			for _, alt := range r.Alts {
				if alt.Action == "" {
					continue
				}
				if _, ok := p.actions[alt.Action]; !ok {
					missing = append(missing, alt.Action)
				}
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, fmt.Errorf("unbound actions: %v", strings.Join(missing, ", "))
		}
	}
	return p, nil
}

// Parse evaluates the source and returns the entry rule's value. When
// the parser has no action registry, every action is the identity and
// values keep their structural form.
func (p *Parser) Parse(src io.Reader) (Value, error) {
	return p.run(src, false)
}

// ParseTree evaluates the source into a concrete syntax tree, ignoring
// actions.
func (p *Parser) ParseTree(src io.Reader) (*Node, error) {
	v, err := p.run(src, true)
	if err != nil {
		return nil, err
	}
	return v.(*Node), nil
}

func (p *Parser) run(src io.Reader, treeMode bool) (Value, error) {
	var stream *symbolStream
	var err error
	if p.cgram.Lexical != nil {
		stream, err = newTokenStream(p.cgram.Lexical, src)
	} else {
		stream, err = newCharStream(src)
	}
	if err != nil {
		return nil, err
	}

	p.stream = stream
	p.memo = newMemoTable()
	p.treeMode = treeMode
	p.fPos = 0
	p.fExpected = nil

	res, err := p.evalRule(p.entry, 0)
	if err != nil {
		return nil, err
	}
	if !res.ok {
		return nil, p.failError()
	}
	if res.end < stream.len() {
		p.fail(res.end, "end of input")
		return nil, p.failError()
	}
	return res.value, nil
}

func (p *Parser) evalRule(id spec.RuleID, pos int) (result, error) {
	key := memoKey{
		rule: id,
		pos:  pos,
	}
	if ent, ok := p.memo.lookup(key); ok {
		return ent.result(), nil
	}
	r := p.cgram.Syntactic.Rules[id]
	ent := &memoEntry{
		state: memoInProgress,
		end:   pos,
	}
	p.memo.add(key, ent)

	if !r.LeftRecursive {
		res, err := p.evalAlts(r, pos)
		if err != nil {
			return failure, err
		}
		ent.state = memoComplete
		ent.ok = res.ok
		ent.end = res.end
		ent.value = res.value
		return res, nil
	}

	// Seed round: re-entrant calls see a failing entry, so only the
	// base-case alternatives can succeed here.
	p.memo.beginRound()
	res, err := p.evalAlts(r, pos)
	p.memo.endRound(key)
	if err != nil {
		return failure, err
	}
	if !res.ok {
		ent.state = memoComplete
		return res, nil
	}

	// Grow the seed while re-evaluation strictly advances. The last
	// successful round is committed; results memoized against a
	// superseded seed are dropped with it.
	for {
		ent.ok = true
		ent.end = res.end
		ent.value = res.value
		p.memo.beginRound()
		next, err := p.evalAlts(r, pos)
		p.memo.endRound(key)
		if err != nil {
			return failure, err
		}
		if !next.ok || next.end <= ent.end {
			break
		}
		res = next
	}
	ent.state = memoComplete
	return ent.result(), nil
}

func (p *Parser) evalAlts(r *spec.CompiledRule, pos int) (result, error) {
	for _, alt := range r.Alts {
		res, err := p.evalAlt(r, alt, pos)
		if err != nil {
			return failure, err
		}
		if res.ok {
			return res, nil
		}
	}
	return failure, nil
}

func (p *Parser) evalAlt(r *spec.CompiledRule, alt *spec.CompiledAlt, pos int) (result, error) {
	cur := pos
	var sig []Value
	for _, el := range alt.Elems {
		res, err := p.evalExpr(el, cur)
		if err != nil {
			return failure, err
		}
		if !res.ok {
			return failure, nil
		}
		cur = res.end
		if el.Significant {
			sig = append(sig, res.value)
		}
	}

	var v Value
	switch {
	case p.treeMode:
		v = &Node{
			KindName: r.Name,
			Children: flattenNodes(sig, nil),
		}
	case alt.Action != "" && p.actions != nil:
		av, err := p.actions[alt.Action](sig)
		if err != nil {
			return failure, fmt.Errorf("action '%v' failed: %w", alt.Action, err)
		}
		v = av
	default:
		v = structuralValue(sig)
	}
	return result{
		ok:    true,
		end:   cur,
		value: v,
	}, nil
}

// structuralValue is the identity semantics of an actionless
// alternative: nothing, the single value, or the tuple.
func structuralValue(sig []Value) Value {
	switch len(sig) {
	case 0:
		return nil
	case 1:
		return sig[0]
	default:
		return []Value(sig)
	}
}

func (p *Parser) evalExpr(e *spec.CompiledExpr, pos int) (result, error) {
	switch e.Kind {
	case spec.ExprLiteral:
		cur := pos
		for _, c := range e.Literal {
			if cur >= p.stream.len() || p.stream.at(cur).text != string(c) {
				// Report the failure where the mismatch is, not where the
				// literal began; a shared prefix has already matched.
				p.fail(cur, fmt.Sprintf("'%v'", e.Literal))
				return failure, nil
			}
			cur++
		}
		row, col := p.stream.position(pos)
		return result{
			ok:    true,
			end:   cur,
			value: p.terminalValue("", e.Literal, row, col),
		}, nil
	case spec.ExprClass:
		if pos >= p.stream.len() {
			p.fail(pos, classDesc(e))
			return failure, nil
		}
		sym := p.stream.at(pos)
		c := []rune(sym.text)[0]
		for _, r := range e.Ranges {
			if c >= r.From && c <= r.To {
				return result{
					ok:    true,
					end:   pos + 1,
					value: p.terminalValue("", sym.text, sym.row, sym.col),
				}, nil
			}
		}
		p.fail(pos, classDesc(e))
		return failure, nil
	case spec.ExprToken:
		if pos >= p.stream.len() || p.stream.at(pos).kindID != e.TokenKind {
			p.fail(pos, fmt.Sprintf("'%v'", e.Literal))
			return failure, nil
		}
		sym := p.stream.at(pos)
		return result{
			ok:    true,
			end:   pos + 1,
			value: p.terminalValue(sym.kind, sym.text, sym.row, sym.col),
		}, nil
	case spec.ExprRef:
		return p.evalRule(e.Rule, pos)
	case spec.ExprSeq:
		cur := pos
		var sig []Value
		for _, s := range e.Subs {
			res, err := p.evalExpr(s, cur)
			if err != nil {
				return failure, err
			}
			if !res.ok {
				return failure, nil
			}
			cur = res.end
			if s.Significant {
				sig = append(sig, res.value)
			}
		}
		return result{
			ok:    true,
			end:   cur,
			value: structuralValue(sig),
		}, nil
	case spec.ExprChoice:
		// Ordered choice: the first alternative that matches wins,
		// even if a later one would match more.
		for _, s := range e.Subs {
			res, err := p.evalExpr(s, pos)
			if err != nil {
				return failure, err
			}
			if res.ok {
				return res, nil
			}
		}
		return failure, nil
	case spec.ExprOption:
		res, err := p.evalExpr(e.Subs[0], pos)
		if err != nil {
			return failure, err
		}
		if res.ok {
			return res, nil
		}
		return result{
			ok:  true,
			end: pos,
		}, nil
	case spec.ExprRepeat:
		cur := pos
		var vals []Value
		n := 0
		for {
			res, err := p.evalExpr(e.Subs[0], cur)
			if err != nil {
				return failure, err
			}
			// A match that consumes nothing would repeat forever.
			if !res.ok || res.end == cur {
				break
			}
			cur = res.end
			n++
			if e.Subs[0].Significant {
				vals = append(vals, res.value)
			}
		}
		if n < e.Min {
			return failure, nil
		}
		var v Value
		if e.Significant {
			if vals == nil {
				vals = []Value{}
			}
			v = []Value(vals)
		}
		return result{
			ok:    true,
			end:   cur,
			value: v,
		}, nil
	case spec.ExprBind:
		return p.evalExpr(e.Subs[0], pos)
	default:
		return failure, fmt.Errorf("invalid expression kind: %v", e.Kind)
	}
}

func (p *Parser) terminalValue(kind, text string, row, col int) Value {
	if p.treeMode {
		kindName := kind
		if kindName == "" {
			kindName = "token"
		}
		return &Node{
			KindName: kindName,
			Text:     text,
			Row:      row,
			Col:      col,
		}
	}
	return &Token{
		Kind: kind,
		Text: text,
		Row:  row,
		Col:  col,
	}
}

func classDesc(e *spec.CompiledExpr) string {
	var b strings.Builder
	b.WriteString("[")
	for _, r := range e.Ranges {
		if r.From == r.To {
			fmt.Fprintf(&b, "%c", r.From)
		} else {
			fmt.Fprintf(&b, "%c-%c", r.From, r.To)
		}
	}
	b.WriteString("]")
	return b.String()
}

// fail records a failed terminal match for error reporting. Only the
// furthest position matters; a failure beyond the current one resets
// the expected set.
func (p *Parser) fail(pos int, expected string) {
	if pos < p.fPos {
		return
	}
	if pos > p.fPos {
		p.fPos = pos
		p.fExpected = p.fExpected[:0]
	}
	for _, e := range p.fExpected {
		if e == expected {
			return
		}
	}
	p.fExpected = append(p.fExpected, expected)
}

func (p *Parser) failError() *ParseError {
	row, col := p.stream.position(p.fPos)
	tag := ParseErrorUnexpectedSymbol
	lexeme := ""
	if p.fPos >= p.stream.len() {
		tag = ParseErrorUnexpectedEOF
	} else {
		lexeme = p.stream.at(p.fPos).text
	}
	expected := make([]string, len(p.fExpected))
	copy(expected, p.fExpected)
	sort.Strings(expected)
	return &ParseError{
		Tag:      tag,
		Row:      row,
		Col:      col,
		Lexeme:   lexeme,
		Expected: expected,
	}
}
