package grammar

import (
	"fmt"

	verr "github.com/kagehito/urubu/error"
	"github.com/kagehito/urubu/grammar/lexical"
	"github.com/kagehito/urubu/spec"
)

type exprOp int

const (
	opLiteral exprOp = iota
	opClass
	opRef
	opToken
	opSeq
	opChoice
	opOption
	opRepeat
	opBind
)

// expression is the in-memory form of a wire Expr with references
// resolved. The capture analysis writes its verdict into mode and typ.
type expression struct {
	op        exprOp
	literal   string
	ranges    []*spec.RuneRange
	rule      *rule
	tokenKind spec.KindID
	min       int
	bindName  string
	subs      []*expression

	mode captureMode
	typ  *resultType
}

type alternative struct {
	// seq wraps the alternative's elements so that the whole production
	// can be analyzed as a single sequence expression.
	seq    *expression
	action string

	binds []string
	typ   *resultType
}

type rule struct {
	id           spec.RuleID
	name         string
	declaredType string
	visible      bool
	token        bool
	skip         bool
	kind         spec.KindID
	alts         []*alternative

	// pattern keeps a token rule's wire form for the lexer generator.
	pattern *spec.Expr

	nullable      bool
	recursion     spec.RecursionKind
	leftRecursive bool
}

// resultName is the display name of the rule's result type: the
// declared type if any, otherwise the rule name itself.
func (r *rule) resultName() string {
	if r.declaredType != "" {
		return r.declaredType
	}
	return r.name
}

type Grammar struct {
	name       string
	rules      []*rule
	tokenRules []*rule
	ruleTab    map[string]*rule
	entries    []spec.RuleID

	// litKinds maps literal patterns appearing in syntax rules to token
	// kinds. A literal resolves to a declared token rule when one has
	// exactly that pattern; otherwise it gets an anonymous kind.
	litKinds map[string]spec.KindID
	anonPats []string
}

// NewGrammar validates a grammar IR and resolves all rule references.
// It gathers every defect it can find and reports them as SpecErrors.
func NewGrammar(desc *spec.Grammar) (*Grammar, error) {
	var errs verr.SpecErrors
	addErr := func(cause error, ruleName string, detail string) {
		errs = append(errs, &verr.SpecError{
			Cause:      cause,
			SourceName: desc.Name,
			Rule:       ruleName,
			Detail:     detail,
		})
	}

	if desc.Name == "" {
		addErr(semErrNoGrammarName, "", "")
	}
	if len(desc.Rules) == 0 {
		addErr(semErrNoRule, "", "")
		return nil, errs
	}

	g := &Grammar{
		name:     desc.Name,
		ruleTab:  map[string]*rule{},
		litKinds: map[string]spec.KindID{},
	}

	// The first pass builds the rule shells and numbers them. Token
	// rules take kinds in declaration order, which is also the lexer's
	// priority order. Syntax rules take IDs in declaration order.
	for _, rd := range desc.Rules {
		if _, dup := g.ruleTab[rd.Name]; dup {
			addErr(semErrDuplicateRule, rd.Name, "")
			continue
		}
		r := &rule{
			name:         rd.Name,
			declaredType: rd.Type,
			visible:      rd.Visible,
			token:        rd.Token,
			skip:         rd.Skip,
			recursion:    spec.RecursionNone,
		}
		g.ruleTab[rd.Name] = r
		if rd.Token {
			r.kind = spec.KindIDMin + spec.KindID(len(g.tokenRules))
			g.tokenRules = append(g.tokenRules, r)
		} else {
			if rd.Skip {
				addErr(semErrSkipOnSyntaxRule, rd.Name, "")
			}
			r.id = spec.RuleID(len(g.rules))
			g.rules = append(g.rules, r)
		}
	}
	if len(g.rules) == 0 {
		addErr(semErrNoRule, "", "no syntax rules")
		return nil, errs
	}
	for _, r := range g.tokenRules {
		if !r.skip {
			if pat, ok := singleLiteralPattern(findRuleDesc(desc, r.name)); ok {
				g.litKinds[pat] = r.kind
			}
		}
	}

	// The second pass converts the rule bodies.
	built := map[string]bool{}
	for _, rd := range desc.Rules {
		r := g.ruleTab[rd.Name]
		if r == nil || built[rd.Name] {
			continue
		}
		built[rd.Name] = true
		if len(rd.Alts) == 0 {
			addErr(semErrNoAlternative, rd.Name, "")
			continue
		}
		if r.token {
			g.buildTokenRule(r, rd, addErr)
		} else {
			g.buildSyntaxRule(r, rd, addErr)
		}
	}

	for _, r := range g.rules {
		if r.visible {
			g.entries = append(g.entries, r.id)
		}
	}
	if len(g.entries) == 0 {
		// Without an explicit entry point the first syntax rule is it.
		g.rules[0].visible = true
		g.entries = append(g.entries, g.rules[0].id)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return g, nil
}

func findRuleDesc(desc *spec.Grammar, name string) *spec.Rule {
	for _, rd := range desc.Rules {
		if rd.Name == name {
			return rd
		}
	}
	return nil
}

// singleLiteralPattern reports whether a token rule's body is exactly
// one literal, and if so returns the literal.
func singleLiteralPattern(rd *spec.Rule) (string, bool) {
	if rd == nil || len(rd.Alts) != 1 {
		return "", false
	}
	alt := rd.Alts[0]
	if len(alt.Elems) != 1 {
		return "", false
	}
	e := alt.Elems[0]
	if e.Kind != spec.ExprLiteral || e.Literal == "" {
		return "", false
	}
	return e.Literal, true
}

func (g *Grammar) buildTokenRule(r *rule, rd *spec.Rule, addErr func(error, string, string)) {
	ok := true
	for _, alt := range rd.Alts {
		if alt.Action != "" {
			addErr(semErrInvalidTokenRule, r.name, "a token rule cannot have an action")
			ok = false
		}
		if len(alt.Elems) == 0 {
			addErr(semErrEmptyAlternative, r.name, "")
			ok = false
			continue
		}
		for _, e := range alt.Elems {
			if detail, err := validateTokenExpr(e); err != nil {
				addErr(err, r.name, detail)
				ok = false
			}
		}
	}
	if !ok {
		return
	}
	pat := mergeAlts(rd.Alts)
	if tokenExprNullable(pat) {
		addErr(semErrNullableToken, r.name, "")
		return
	}
	r.pattern = pat
}

// mergeAlts folds a rule's alternatives into a single expression: the
// sequence of each alternative's elements, joined by a choice.
func mergeAlts(alts []*spec.Alternative) *spec.Expr {
	seqs := make([]*spec.Expr, len(alts))
	for i, alt := range alts {
		if len(alt.Elems) == 1 {
			seqs[i] = alt.Elems[0]
			continue
		}
		seqs[i] = &spec.Expr{
			Kind: spec.ExprSeq,
			Subs: alt.Elems,
		}
	}
	if len(seqs) == 1 {
		return seqs[0]
	}
	return &spec.Expr{
		Kind: spec.ExprChoice,
		Subs: seqs,
	}
}

func validateTokenExpr(e *spec.Expr) (string, error) {
	switch e.Kind {
	case spec.ExprLiteral:
		return "", nil
	case spec.ExprClass:
		return validateClass(e)
	case spec.ExprRef:
		return fmt.Sprintf("reference to '%v'", e.Rule), semErrInvalidTokenRule
	case spec.ExprBind:
		return fmt.Sprintf("bind '%v'", e.Name), semErrInvalidTokenRule
	case spec.ExprSeq, spec.ExprChoice:
		for _, s := range e.Subs {
			if detail, err := validateTokenExpr(s); err != nil {
				return detail, err
			}
		}
		return "", nil
	case spec.ExprOption, spec.ExprRepeat:
		return validateTokenExpr(e.Subs[0])
	default:
		return fmt.Sprintf("unknown expression kind '%v'", e.Kind), semErrInvalidTokenRule
	}
}

func validateClass(e *spec.Expr) (string, error) {
	if len(e.Ranges) == 0 {
		return "", semErrEmptyClass
	}
	for _, r := range e.Ranges {
		if r.From > r.To {
			return fmt.Sprintf("%U..%U", r.From, r.To), semErrInvalidRange
		}
	}
	return "", nil
}

// tokenExprNullable reports whether a token rule's pattern can match
// the empty string. Token patterns contain no references, so this is a
// plain recursion, not a fixed point.
func tokenExprNullable(e *spec.Expr) bool {
	switch e.Kind {
	case spec.ExprLiteral:
		return e.Literal == ""
	case spec.ExprClass:
		return false
	case spec.ExprSeq:
		for _, s := range e.Subs {
			if !tokenExprNullable(s) {
				return false
			}
		}
		return true
	case spec.ExprChoice:
		for _, s := range e.Subs {
			if tokenExprNullable(s) {
				return true
			}
		}
		return false
	case spec.ExprOption:
		return true
	case spec.ExprRepeat:
		return e.Min == 0 || tokenExprNullable(e.Subs[0])
	default:
		return false
	}
}

func (g *Grammar) buildSyntaxRule(r *rule, rd *spec.Rule, addErr func(error, string, string)) {
	for _, ad := range rd.Alts {
		if len(ad.Elems) == 0 {
			addErr(semErrEmptyAlternative, r.name, "")
			continue
		}
		elems := make([]*expression, 0, len(ad.Elems))
		ok := true
		for _, ed := range ad.Elems {
			e, detail, err := g.buildExpr(r, ed)
			if err != nil {
				addErr(err, r.name, detail)
				ok = false
				continue
			}
			elems = append(elems, e)
		}
		if !ok {
			continue
		}
		r.alts = append(r.alts, &alternative{
			seq: &expression{
				op:   opSeq,
				subs: elems,
			},
			action: ad.Action,
		})
	}
}

func (g *Grammar) buildExpr(r *rule, ed *spec.Expr) (*expression, string, error) {
	tokenized := len(g.tokenRules) > 0
	switch ed.Kind {
	case spec.ExprLiteral:
		if !tokenized {
			return &expression{
				op:      opLiteral,
				literal: ed.Literal,
			}, "", nil
		}
		kind, ok := g.litKinds[ed.Literal]
		if !ok {
			kind = spec.KindIDMin + spec.KindID(len(g.tokenRules)+len(g.anonPats))
			g.litKinds[ed.Literal] = kind
			g.anonPats = append(g.anonPats, ed.Literal)
		}
		return &expression{
			op:        opToken,
			literal:   ed.Literal,
			tokenKind: kind,
		}, "", nil
	case spec.ExprClass:
		if tokenized {
			return nil, "", semErrClassInTokenLayer
		}
		if detail, err := validateClass(ed); err != nil {
			return nil, detail, err
		}
		return &expression{
			op:     opClass,
			ranges: ed.Ranges,
		}, "", nil
	case spec.ExprRef:
		target, ok := g.ruleTab[ed.Rule]
		if !ok {
			return nil, fmt.Sprintf("'%v'", ed.Rule), semErrUndefinedRule
		}
		if target.token {
			if target.skip {
				return nil, fmt.Sprintf("'%v'", ed.Rule), semErrSkippedTokenUsed
			}
			return &expression{
				op:        opToken,
				literal:   target.name,
				tokenKind: target.kind,
			}, "", nil
		}
		return &expression{
			op:   opRef,
			rule: target,
		}, "", nil
	case spec.ExprSeq, spec.ExprChoice:
		op := opSeq
		if ed.Kind == spec.ExprChoice {
			op = opChoice
		}
		if len(ed.Subs) == 0 {
			return nil, "", semErrEmptyAlternative
		}
		subs := make([]*expression, 0, len(ed.Subs))
		for _, sd := range ed.Subs {
			s, detail, err := g.buildExpr(r, sd)
			if err != nil {
				return nil, detail, err
			}
			subs = append(subs, s)
		}
		return &expression{
			op:   op,
			subs: subs,
		}, "", nil
	case spec.ExprOption, spec.ExprRepeat:
		op := opOption
		if ed.Kind == spec.ExprRepeat {
			op = opRepeat
		}
		if len(ed.Subs) != 1 {
			return nil, "", semErrEmptyAlternative
		}
		s, detail, err := g.buildExpr(r, ed.Subs[0])
		if err != nil {
			return nil, detail, err
		}
		return &expression{
			op:   op,
			min:  ed.Min,
			subs: []*expression{s},
		}, "", nil
	case spec.ExprBind:
		if len(ed.Subs) != 1 {
			return nil, "", semErrEmptyAlternative
		}
		s, detail, err := g.buildExpr(r, ed.Subs[0])
		if err != nil {
			return nil, detail, err
		}
		return &expression{
			op:       opBind,
			bindName: ed.Name,
			subs:     []*expression{s},
		}, "", nil
	default:
		return nil, fmt.Sprintf("unknown expression kind '%v'", ed.Kind), semErrEmptyAlternative
	}
}

type compileConfig struct {
	compLv int
}

type CompileOption func(config *compileConfig)

// CompressionLevel specifies how deeply the compiler compresses the
// transition tables of the generated lexer.
func CompressionLevel(lv int) CompileOption {
	return func(config *compileConfig) {
		config.compLv = lv
	}
}

// Compile runs the analysis passes over a grammar and produces its
// executable form: capture analysis first, then the left-recursion
// analysis, then the lexer generation when the grammar has token rules.
func Compile(gram *Grammar, opts ...CompileOption) (*spec.CompiledGrammar, error) {
	config := &compileConfig{
		compLv: lexical.CompressionLevelMax,
	}
	for _, opt := range opts {
		opt(config)
	}

	if err := gram.analyzeCaptures(); err != nil {
		return nil, err
	}
	if err := gram.analyzeRecursion(); err != nil {
		return nil, err
	}

	var lexSpec *spec.LexicalSpec
	if len(gram.tokenRules) > 0 {
		entries := gram.lexicalEntries()
		var err error
		lexSpec, err = lexical.Compile(entries, config.compLv)
		if err != nil {
			return nil, err
		}
	}

	return &spec.CompiledGrammar{
		Name:      gram.name,
		Lexical:   lexSpec,
		Syntactic: gram.syntacticSpec(),
	}, nil
}

func (g *Grammar) lexicalEntries() []*lexical.Entry {
	entries := make([]*lexical.Entry, 0, len(g.tokenRules)+len(g.anonPats))
	for _, r := range g.tokenRules {
		entries = append(entries, &lexical.Entry{
			Kind:    r.name,
			Skip:    r.skip,
			Pattern: r.pattern,
		})
	}
	for _, pat := range g.anonPats {
		entries = append(entries, &lexical.Entry{
			Kind: pat,
			Pattern: &spec.Expr{
				Kind:    spec.ExprLiteral,
				Literal: pat,
			},
		})
	}
	return entries
}

func (g *Grammar) syntacticSpec() *spec.SyntacticSpec {
	rules := make([]*spec.CompiledRule, len(g.rules))
	for i, r := range g.rules {
		alts := make([]*spec.CompiledAlt, len(r.alts))
		for j, alt := range r.alts {
			elems := make([]*spec.CompiledExpr, len(alt.seq.subs))
			for k, e := range alt.seq.subs {
				elems[k] = compileExpr(e)
			}
			alts[j] = &spec.CompiledAlt{
				Elems:  elems,
				Action: alt.action,
				Binds:  alt.binds,
			}
		}
		rules[i] = &spec.CompiledRule{
			Name:          r.name,
			Type:          r.resultName(),
			Visible:       r.visible,
			Recursion:     r.recursion,
			LeftRecursive: r.leftRecursive,
			Alts:          alts,
		}
	}
	return &spec.SyntacticSpec{
		Rules:      rules,
		EntryRules: g.entries,
	}
}

func compileExpr(e *expression) *spec.CompiledExpr {
	ce := &spec.CompiledExpr{
		Significant: e.mode == captureSignificant,
		Literal:     e.literal,
		Ranges:      e.ranges,
		TokenKind:   e.tokenKind,
		Min:         e.min,
		Name:        e.bindName,
	}
	switch e.op {
	case opLiteral:
		ce.Kind = spec.ExprLiteral
	case opClass:
		ce.Kind = spec.ExprClass
	case opRef:
		ce.Kind = spec.ExprRef
		ce.Rule = e.rule.id
	case opToken:
		ce.Kind = spec.ExprToken
	case opSeq:
		ce.Kind = spec.ExprSeq
	case opChoice:
		ce.Kind = spec.ExprChoice
	case opOption:
		ce.Kind = spec.ExprOption
	case opRepeat:
		ce.Kind = spec.ExprRepeat
	case opBind:
		ce.Kind = spec.ExprBind
	}
	if len(e.subs) > 0 {
		ce.Subs = make([]*spec.CompiledExpr, len(e.subs))
		for i, s := range e.subs {
			ce.Subs[i] = compileExpr(s)
		}
	}
	return ce
}
