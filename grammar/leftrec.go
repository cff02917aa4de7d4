package grammar

import (
	"github.com/emirpasic/gods/sets/linkedhashset"

	verr "github.com/kagehito/urubu/error"
	"github.com/kagehito/urubu/spec"
)

// The left-recursion analysis classifies every rule as non-recursive,
// directly left-recursive, or indirectly left-recursive, and rejects
// recursive rules without a base case. The driver evaluates rules
// marked left-recursive with the seed-growing protocol.

func (g *Grammar) analyzeRecursion() error {
	var errs verr.SpecErrors
	addErr := func(cause error, ruleName string, detail string) {
		errs = append(errs, &verr.SpecError{
			Cause:      cause,
			SourceName: g.name,
			Rule:       ruleName,
			Detail:     detail,
		})
	}

	nullable := g.analyzeNullability()

	// heads(R) is the set of rules that a match of R can re-enter
	// before consuming any input. Only a nullable prefix of a production
	// lets the scan advance past an element.
	altHeads := map[*alternative]*linkedhashset.Set{}
	heads := map[*rule]*linkedhashset.Set{}
	for _, r := range g.rules {
		hs := linkedhashset.New()
		for _, alt := range r.alts {
			as := linkedhashset.New()
			collectHeads(alt.seq, nullable, as)
			altHeads[alt] = as
			for _, v := range as.Values() {
				hs.Add(v)
			}
		}
		heads[r] = hs
	}

	// reach(R) is the closure of heads: every rule reachable from R
	// through head positions alone. R is left-recursive iff R ∈ reach(R).
	reach := map[*rule]*linkedhashset.Set{}
	for _, r := range g.rules {
		rs := linkedhashset.New()
		work := heads[r].Values()
		for len(work) > 0 {
			s := work[0].(*rule)
			work = work[1:]
			if rs.Contains(s) {
				continue
			}
			rs.Add(s)
			work = append(work, heads[s].Values()...)
		}
		reach[r] = rs
	}

	for _, r := range g.rules {
		r.nullable = nullable[r]
		if !reach[r].Contains(r) {
			r.recursion = spec.RecursionNone
			continue
		}
		r.leftRecursive = true
		if heads[r].Contains(r) {
			r.recursion = spec.RecursionDirect
		} else {
			r.recursion = spec.RecursionIndirect
		}
	}

	// A recursion group needs at least one alternative, in any of its
	// member rules, whose head set leaves the group; that alternative is
	// the seed the growing starts from. The check runs once per group:
	// a member without its own base alternative is still fine when
	// another member supplies one.
	checked := map[*rule]bool{}
	for _, r := range g.rules {
		if !r.leftRecursive || checked[r] {
			continue
		}
		group := linkedhashset.New(r)
		for _, v := range reach[r].Values() {
			s := v.(*rule)
			if reach[s].Contains(r) {
				group.Add(s)
			}
		}
		base := false
		for _, v := range group.Values() {
			s := v.(*rule)
			checked[s] = true
			for _, alt := range s.alts {
				recursive := false
				for _, h := range altHeads[alt].Values() {
					if group.Contains(h) {
						recursive = true
						break
					}
				}
				if !recursive {
					base = true
					break
				}
			}
		}
		if !base {
			addErr(semErrNoBaseCase, r.name, "")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// analyzeNullability computes, as a fixed point, whether each rule can
// match the empty string.
func (g *Grammar) analyzeNullability() map[*rule]bool {
	nullable := map[*rule]bool{}
	for changed := true; changed; {
		changed = false
		for _, r := range g.rules {
			if nullable[r] {
				continue
			}
			for _, alt := range r.alts {
				if exprNullable(alt.seq, nullable) {
					nullable[r] = true
					changed = true
					break
				}
			}
		}
	}
	return nullable
}

func exprNullable(e *expression, nullable map[*rule]bool) bool {
	switch e.op {
	case opLiteral:
		return e.literal == ""
	case opClass, opToken:
		return false
	case opRef:
		return nullable[e.rule]
	case opSeq:
		for _, s := range e.subs {
			if !exprNullable(s, nullable) {
				return false
			}
		}
		return true
	case opChoice:
		for _, s := range e.subs {
			if exprNullable(s, nullable) {
				return true
			}
		}
		return false
	case opOption:
		return true
	case opRepeat:
		return e.min == 0 || exprNullable(e.subs[0], nullable)
	case opBind:
		return exprNullable(e.subs[0], nullable)
	}
	return false
}

// collectHeads adds to set the rules that can appear at the start of a
// match of e, and reports whether e itself can match the empty string.
func collectHeads(e *expression, nullable map[*rule]bool, set *linkedhashset.Set) bool {
	switch e.op {
	case opLiteral:
		return e.literal == ""
	case opClass, opToken:
		return false
	case opRef:
		set.Add(e.rule)
		return nullable[e.rule]
	case opSeq:
		for _, s := range e.subs {
			if !collectHeads(s, nullable, set) {
				return false
			}
		}
		return true
	case opChoice:
		n := false
		for _, s := range e.subs {
			if collectHeads(s, nullable, set) {
				n = true
			}
		}
		return n
	case opOption:
		collectHeads(e.subs[0], nullable, set)
		return true
	case opRepeat:
		n := collectHeads(e.subs[0], nullable, set)
		return e.min == 0 || n
	case opBind:
		return collectHeads(e.subs[0], nullable, set)
	}
	return false
}
