package lexer

import spec "github.com/kagehito/urubu/spec"

// lexSpec adapts a compiled lexical spec to the LexSpec interface,
// decoding whichever compression level the compiler chose.
type lexSpec struct {
	spec *spec.LexicalSpec
}

func NewLexSpec(s *spec.LexicalSpec) *lexSpec {
	return &lexSpec{
		spec: s,
	}
}

func (s *lexSpec) InitialState() spec.StateID {
	return s.spec.DFA.InitialStateID
}

func (s *lexSpec) NextState(state spec.StateID, v int) (spec.StateID, bool) {
	switch s.spec.CompressionLevel {
	case 2:
		tran := s.spec.DFA.Transition
		rowNum := tran.RowNums[state]
		d := tran.UniqueEntries.RowDisplacement[rowNum]
		if tran.UniqueEntries.Bounds[d+v] != rowNum {
			return tran.UniqueEntries.EmptyValue, false
		}
		return tran.UniqueEntries.Entries[d+v], true
	case 1:
		tran := s.spec.DFA.Transition
		next := tran.UncompressedUniqueEntries[tran.RowNums[state]*tran.OriginalColCount+v]
		return next, next != spec.StateIDNil
	}

	next := s.spec.DFA.UncompressedTransition[state.Int()*s.spec.DFA.ColCount+v]
	return next, next != spec.StateIDNil
}

func (s *lexSpec) Accept(state spec.StateID) (spec.KindID, bool) {
	kindID := s.spec.DFA.AcceptingStates[state]
	return kindID, kindID != spec.KindIDNil
}

func (s *lexSpec) KindName(kind spec.KindID) string {
	return s.spec.KindNames[kind]
}

func (s *lexSpec) Skip(kind spec.KindID) bool {
	return s.spec.Skip[kind] == 1
}
