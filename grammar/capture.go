package grammar

import (
	"fmt"
	"strings"

	verr "github.com/kagehito/urubu/error"
)

// The capture analysis decides, for every expression, whether its match
// contributes a value to the enclosing production (significant) or only
// consumes input (suppressed). Terminals are suppressed by default and
// references are significant; binds force significance; a sequence
// whose elements are all suppressed promotes its terminal elements so
// that a production always produces a value.

type captureMode int

const (
	captureSuppressed captureMode = iota
	captureSignificant
)

type typeKind int

const (
	typeUnit typeKind = iota
	typeToken
	typeNamed
	typeTuple
	typeList
	typeOption
)

// resultType describes the shape of the value an expression produces.
// Rule references are typed nominally, by the referenced rule's result
// name, which keeps type equality decidable on cyclic rule graphs.
type resultType struct {
	kind  typeKind
	name  string
	elems []*resultType
}

func unitType() *resultType {
	return &resultType{kind: typeUnit}
}

func tokenType() *resultType {
	return &resultType{kind: typeToken}
}

func namedType(name string) *resultType {
	return &resultType{
		kind: typeNamed,
		name: name,
	}
}

func tupleType(elems []*resultType) *resultType {
	return &resultType{
		kind:  typeTuple,
		elems: elems,
	}
}

func listType(elem *resultType) *resultType {
	return &resultType{
		kind:  typeList,
		elems: []*resultType{elem},
	}
}

func optionType(elem *resultType) *resultType {
	return &resultType{
		kind:  typeOption,
		elems: []*resultType{elem},
	}
}

func (t *resultType) String() string {
	switch t.kind {
	case typeUnit:
		return "()"
	case typeToken:
		return "token"
	case typeNamed:
		return t.name
	case typeTuple:
		var b strings.Builder
		b.WriteString("(")
		for i, e := range t.elems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(e.String())
		}
		b.WriteString(")")
		return b.String()
	case typeList:
		return fmt.Sprintf("[%v]", t.elems[0])
	case typeOption:
		return fmt.Sprintf("%v?", t.elems[0])
	}
	return "?"
}

func (t *resultType) equal(u *resultType) bool {
	if t.kind != u.kind {
		return false
	}
	switch t.kind {
	case typeNamed:
		return t.name == u.name
	case typeTuple, typeList, typeOption:
		if len(t.elems) != len(u.elems) {
			return false
		}
		for i, e := range t.elems {
			if !e.equal(u.elems[i]) {
				return false
			}
		}
		return true
	}
	return true
}

func (g *Grammar) analyzeCaptures() error {
	var errs verr.SpecErrors
	addErr := func(cause error, ruleName string, detail string) {
		errs = append(errs, &verr.SpecError{
			Cause:      cause,
			SourceName: g.name,
			Rule:       ruleName,
			Detail:     detail,
		})
	}

	for _, r := range g.rules {
		var ruleType *resultType
		for _, alt := range r.alts {
			if detail, err := g.analyzeExpr(alt.seq); err != nil {
				addErr(err, r.name, detail)
				continue
			}
			if alt.action != "" {
				// An action's output is opaque; the alternative takes
				// the rule's result type by fiat.
				alt.typ = namedType(r.resultName())
			} else {
				alt.typ = alt.seq.typ
			}
			alt.binds = collectBinds(alt.seq)
			if ruleType == nil {
				ruleType = alt.typ
				continue
			}
			if !ruleType.equal(alt.typ) {
				addErr(semErrTypeUnification, r.name, fmt.Sprintf("'%v' and '%v'", ruleType, alt.typ))
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (g *Grammar) analyzeExpr(e *expression) (string, error) {
	switch e.op {
	case opLiteral, opClass, opToken:
		e.mode = captureSuppressed
		e.typ = tokenType()
	case opRef:
		e.mode = captureSignificant
		e.typ = namedType(e.rule.resultName())
	case opBind:
		if detail, err := g.analyzeExpr(e.subs[0]); err != nil {
			return detail, err
		}
		if detail, err := g.promote(e.subs[0]); err != nil {
			return detail, err
		}
		e.mode = captureSignificant
		e.typ = e.subs[0].typ
	case opSeq:
		sig := 0
		for _, s := range e.subs {
			if detail, err := g.analyzeExpr(s); err != nil {
				return detail, err
			}
			if s.mode == captureSignificant {
				sig++
			}
		}
		if sig == 0 {
			// A sequence of nothing but suppressed matches still has
			// to yield something; everything in it gets promoted.
			for _, s := range e.subs {
				if detail, err := g.promote(s); err != nil {
					return detail, err
				}
			}
		}
		sequenceType(e)
	case opChoice:
		anySig := false
		for _, s := range e.subs {
			if detail, err := g.analyzeExpr(s); err != nil {
				return detail, err
			}
			if s.mode == captureSignificant {
				anySig = true
			}
		}
		if !anySig {
			e.mode = captureSuppressed
			e.typ = unitType()
			break
		}
		for _, s := range e.subs {
			if detail, err := g.promote(s); err != nil {
				return detail, err
			}
		}
		for _, s := range e.subs[1:] {
			if !e.subs[0].typ.equal(s.typ) {
				return fmt.Sprintf("'%v' and '%v'", e.subs[0].typ, s.typ), semErrTypeUnification
			}
		}
		e.mode = captureSignificant
		e.typ = e.subs[0].typ
	case opOption:
		if detail, err := g.analyzeExpr(e.subs[0]); err != nil {
			return detail, err
		}
		if e.subs[0].mode == captureSuppressed {
			e.mode = captureSuppressed
			e.typ = unitType()
			break
		}
		e.mode = captureSignificant
		e.typ = optionType(e.subs[0].typ)
	case opRepeat:
		if detail, err := g.analyzeExpr(e.subs[0]); err != nil {
			return detail, err
		}
		if e.subs[0].mode == captureSuppressed {
			e.mode = captureSuppressed
			e.typ = unitType()
			break
		}
		e.mode = captureSignificant
		e.typ = listType(e.subs[0].typ)
	}
	return "", nil
}

// promote forces an expression to be significant. Binds and the
// branches of a significant choice use it.
func (g *Grammar) promote(e *expression) (string, error) {
	if e.mode == captureSignificant {
		return "", nil
	}
	switch e.op {
	case opLiteral, opClass, opToken:
		e.mode = captureSignificant
		e.typ = tokenType()
	case opSeq:
		for _, s := range e.subs {
			if detail, err := g.promote(s); err != nil {
				return detail, err
			}
		}
		sequenceType(e)
	case opChoice:
		for _, s := range e.subs {
			if detail, err := g.promote(s); err != nil {
				return detail, err
			}
		}
		for _, s := range e.subs[1:] {
			if !e.subs[0].typ.equal(s.typ) {
				return fmt.Sprintf("'%v' and '%v'", e.subs[0].typ, s.typ), semErrTypeUnification
			}
		}
		e.mode = captureSignificant
		e.typ = e.subs[0].typ
	case opOption:
		if detail, err := g.promote(e.subs[0]); err != nil {
			return detail, err
		}
		e.mode = captureSignificant
		e.typ = optionType(e.subs[0].typ)
	case opRepeat:
		if detail, err := g.promote(e.subs[0]); err != nil {
			return detail, err
		}
		e.mode = captureSignificant
		e.typ = listType(e.subs[0].typ)
	}
	return "", nil
}

func sequenceType(e *expression) {
	var sig []*expression
	for _, s := range e.subs {
		if s.mode == captureSignificant {
			sig = append(sig, s)
		}
	}
	switch len(sig) {
	case 0:
		e.mode = captureSuppressed
		e.typ = unitType()
	case 1:
		// A sequence with a single significant element degrades to that
		// element; no one-tuples.
		e.mode = captureSignificant
		e.typ = sig[0].typ
	default:
		elems := make([]*resultType, len(sig))
		for i, s := range sig {
			elems[i] = s.typ
		}
		e.mode = captureSignificant
		e.typ = tupleType(elems)
	}
}

// collectBinds lists the bind names of a production's significant
// elements in tuple order. When no element is named the result is nil;
// the positions of unnamed elements hold "".
func collectBinds(seq *expression) []string {
	var binds []string
	named := false
	for _, s := range seq.subs {
		if s.mode != captureSignificant {
			continue
		}
		name := ""
		if s.op == opBind {
			name = s.bindName
			named = true
		}
		binds = append(binds, name)
	}
	if !named {
		return nil
	}
	return binds
}
