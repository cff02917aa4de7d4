package spec

// This package defines the wire form of the two values that cross the
// compiler boundary: the grammar IR a front end submits and the compiled
// grammar the driver executes. Both are JSON-serializable so that
// compilation and parsing can run as separate processes.

// Grammar is the grammar IR. A front end delivers rules already parsed
// into this form; urubu never sees grammar source text.
type Grammar struct {
	Name  string  `json:"name"`
	Rules []*Rule `json:"rules"`
}

// Rule is a named non-terminal with ordered alternatives.
//
// When Token is true, the rule defines a token-level terminal: its body is
// restricted to literals, classes, and their combinations, and the lexer
// generator compiles it into the tokenizer instead of the syntax layer.
// Skip marks a token rule whose matches are discarded before parsing.
// Skipping is always declared explicitly per rule, never inferred.
type Rule struct {
	Name    string         `json:"name"`
	Type    string         `json:"type,omitempty"`
	Visible bool           `json:"visible,omitempty"`
	Token   bool           `json:"token,omitempty"`
	Skip    bool           `json:"skip,omitempty"`
	Alts    []*Alternative `json:"alts"`
}

// Alternative is one production: an expression sequence plus an optional
// action. The action is an opaque callable identifier the host resolves
// when it constructs a parser; an empty identifier means identity.
type Alternative struct {
	Elems  []*Expr `json:"elems"`
	Action string  `json:"action,omitempty"`
}

type ExprKind string

const (
	ExprLiteral ExprKind = "literal"
	ExprClass   ExprKind = "class"
	ExprRef     ExprKind = "ref"
	ExprSeq     ExprKind = "seq"
	ExprChoice  ExprKind = "choice"
	ExprOption  ExprKind = "option"
	ExprRepeat  ExprKind = "repeat"
	ExprBind    ExprKind = "bind"
)

// RuneRange is an inclusive code point range of a character class.
type RuneRange struct {
	From rune `json:"from"`
	To   rune `json:"to"`
}

// Expr is a node of an expression tree. The Kind field decides which of
// the other fields are meaningful:
//
//	literal: Literal
//	class:   Ranges
//	ref:     Rule
//	seq, choice: Subs
//	option:  Subs[0]
//	repeat:  Subs[0], Min (0 or 1)
//	bind:    Name, Subs[0]
type Expr struct {
	Kind    ExprKind     `json:"kind"`
	Literal string       `json:"literal,omitempty"`
	Ranges  []*RuneRange `json:"ranges,omitempty"`
	Rule    string       `json:"rule,omitempty"`
	Min     int          `json:"min,omitempty"`
	Name    string       `json:"name,omitempty"`
	Subs    []*Expr      `json:"subs,omitempty"`
}

// RuleID identifies a compiled rule. IDs are indexes into
// SyntacticSpec.Rules.
type RuleID int

func (id RuleID) Int() int {
	return int(id)
}

// KindID identifies a token kind. The ID 0 is reserved for the invalid
// kind; valid kinds are numbered from KindIDMin in declaration order,
// which is also the lexer's priority order.
type KindID int

const (
	KindIDNil = KindID(0)
	KindIDMin = KindID(1)
)

func (id KindID) Int() int {
	return int(id)
}

// StateID represents a state of a DFA transition table.
type StateID int

const (
	// StateIDNil represents an empty entry of a transition table.
	// When the driver reads this value, lexical analysis fails.
	StateIDNil = StateID(0)

	StateIDMin = StateID(1)
)

func (id StateID) Int() int {
	return int(id)
}

type RecursionKind string

const (
	RecursionNone     = RecursionKind("none")
	RecursionDirect   = RecursionKind("direct")
	RecursionIndirect = RecursionKind("indirect")
)

// CompiledGrammar is the executable form of a grammar. It is immutable;
// any number of parsers may share one value concurrently.
type CompiledGrammar struct {
	Name      string         `json:"name"`
	Lexical   *LexicalSpec   `json:"lexical,omitempty"`
	Syntactic *SyntacticSpec `json:"syntactic"`
}

type SyntacticSpec struct {
	// Rules is indexed by RuleID. Token rules don't appear here; they
	// exist only as kinds of the lexical spec.
	Rules []*CompiledRule `json:"rules"`

	// EntryRules lists the rules a parse may start from, in declaration
	// order. The first entry is the default.
	EntryRules []RuleID `json:"entry_rules"`
}

type CompiledRule struct {
	Name string `json:"name"`

	// Type is the display name of the rule's result type as inferred or
	// declared; informational only.
	Type string `json:"type,omitempty"`

	Visible   bool          `json:"visible,omitempty"`
	Recursion RecursionKind `json:"recursion"`

	// LeftRecursive tells the driver to evaluate this rule with the
	// seed-growing protocol instead of plain memoization.
	LeftRecursive bool `json:"left_recursive,omitempty"`

	Alts []*CompiledAlt `json:"alts"`
}

type CompiledAlt struct {
	Elems []*CompiledExpr `json:"elems"`

	// Action is the opaque callable identifier bound by the host, or ""
	// for identity.
	Action string `json:"action,omitempty"`

	// Binds lists the bind names of the significant elements in tuple
	// order; unnamed positions hold "".
	Binds []string `json:"binds,omitempty"`
}

// ExprToken is a compiled-only node kind: it matches exactly one token
// of the kind stored in TokenKind.
const ExprToken = ExprKind("token")

// CompiledExpr mirrors Expr with the capture analysis baked in. The
// driver never re-derives significance; it reads it from here.
//
// In a grammar with a token layer, terminals carry the token kind to
// match in TokenKind; "token" nodes replace the literal/class/ref nodes
// that resolved to the lexer.
type CompiledExpr struct {
	Kind        ExprKind        `json:"kind"`
	Significant bool            `json:"significant,omitempty"`
	Literal     string          `json:"literal,omitempty"`
	Ranges      []*RuneRange    `json:"ranges,omitempty"`
	Rule        RuleID          `json:"rule,omitempty"`
	TokenKind   KindID          `json:"token_kind,omitempty"`
	Min         int             `json:"min,omitempty"`
	Name        string          `json:"name,omitempty"`
	Subs        []*CompiledExpr `json:"subs,omitempty"`
}

type RowDisplacementTable struct {
	OriginalRowCount int       `json:"original_row_count"`
	OriginalColCount int       `json:"original_col_count"`
	EmptyValue       StateID   `json:"empty_value"`
	Entries          []StateID `json:"entries"`
	Bounds           []int     `json:"bounds"`
	RowDisplacement  []int     `json:"row_displacement"`
}

type UniqueEntriesTable struct {
	UniqueEntries             *RowDisplacementTable `json:"unique_entries,omitempty"`
	UncompressedUniqueEntries []StateID             `json:"uncompressed_unique_entries,omitempty"`
	RowNums                   []int                 `json:"row_nums"`
	OriginalRowCount          int                   `json:"original_row_count"`
	OriginalColCount          int                   `json:"original_col_count"`
}

type TransitionTable struct {
	InitialStateID         StateID             `json:"initial_state_id"`
	AcceptingStates        []KindID            `json:"accepting_states"`
	RowCount               int                 `json:"row_count"`
	ColCount               int                 `json:"col_count"`
	Transition             *UniqueEntriesTable `json:"transition,omitempty"`
	UncompressedTransition []StateID           `json:"uncompressed_transition,omitempty"`
}

// LexicalSpec is the compiled tokenizer: one DFA over UTF-8 bytes whose
// accepting states map to token kinds.
type LexicalSpec struct {
	// KindNames is indexed by KindID; index 0 is the invalid kind.
	KindNames []string `json:"kind_names"`

	// Skip is indexed by KindID; a value of 1 drops tokens of that kind
	// before they reach the parser.
	Skip []int `json:"skip"`

	CompressionLevel int `json:"compression_level"`

	DFA *TransitionTable `json:"dfa"`
}
