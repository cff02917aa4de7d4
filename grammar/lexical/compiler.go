package lexical

import (
	"fmt"

	"github.com/kagehito/urubu/compressor"
	"github.com/kagehito/urubu/grammar/lexical/dfa"
	"github.com/kagehito/urubu/spec"
)

const (
	CompressionLevelMin = 0
	CompressionLevelMax = 2
)

// Compile generates the tokenizer of a grammar: one DFA covering all
// entries, with accepting states mapped to kinds. Entry order is kind
// priority order.
func Compile(entries []*Entry, compLv int) (*spec.LexicalSpec, error) {
	if compLv < CompressionLevelMin || compLv > CompressionLevelMax {
		return nil, fmt.Errorf("compression level must be %v to %v: %v", CompressionLevelMin, CompressionLevelMax, compLv)
	}
	if err := validateEntries(entries); err != nil {
		return nil, fmt.Errorf("invalid lexical specification: %w", err)
	}

	kindNames := make([]string, len(entries)+1)
	skip := make([]int, len(entries)+1)
	patterns := make([]*dfa.Pattern, len(entries))
	for i, e := range entries {
		id := spec.KindIDMin + spec.KindID(i)
		kindNames[id] = e.Kind
		if e.Skip {
			skip[id] = 1
		}
		patterns[i] = &dfa.Pattern{
			ID:   id,
			Expr: e.Pattern,
		}
	}

	var tranTab *spec.TransitionTable
	{
		root, symTab, err := dfa.GenByteTree(patterns)
		if err != nil {
			return nil, err
		}
		d := dfa.GenDFA(root, symTab)
		tranTab, err = dfa.GenTransitionTable(d)
		if err != nil {
			return nil, err
		}
	}

	var err error
	switch compLv {
	case 2:
		tranTab, err = compressTransitionTableLv2(tranTab)
		if err != nil {
			return nil, err
		}
	case 1:
		tranTab, err = compressTransitionTableLv1(tranTab)
		if err != nil {
			return nil, err
		}
	}

	return &spec.LexicalSpec{
		KindNames:        kindNames,
		Skip:             skip,
		CompressionLevel: compLv,
		DFA:              tranTab,
	}, nil
}

func compressTransitionTableLv2(tranTab *spec.TransitionTable) (*spec.TransitionTable, error) {
	ueTab := compressor.NewUniqueEntriesTable()
	{
		orig, err := compressor.NewOriginalTable(stateIDsToInts(tranTab.UncompressedTransition), tranTab.ColCount)
		if err != nil {
			return nil, err
		}
		err = ueTab.Compress(orig)
		if err != nil {
			return nil, err
		}
	}

	rdTab := compressor.NewRowDisplacementTable(0)
	{
		orig, err := compressor.NewOriginalTable(ueTab.UniqueEntries, ueTab.OriginalColCount)
		if err != nil {
			return nil, err
		}
		err = rdTab.Compress(orig)
		if err != nil {
			return nil, err
		}
	}

	tranTab.Transition = &spec.UniqueEntriesTable{
		UniqueEntries: &spec.RowDisplacementTable{
			OriginalRowCount: rdTab.OriginalRowCount,
			OriginalColCount: rdTab.OriginalColCount,
			EmptyValue:       spec.StateIDNil,
			Entries:          intsToStateIDs(rdTab.Entries),
			Bounds:           rdTab.Bounds,
			RowDisplacement:  rdTab.RowDisplacement,
		},
		RowNums:          ueTab.RowNums,
		OriginalRowCount: ueTab.OriginalRowCount,
		OriginalColCount: ueTab.OriginalColCount,
	}
	tranTab.UncompressedTransition = nil

	return tranTab, nil
}

func compressTransitionTableLv1(tranTab *spec.TransitionTable) (*spec.TransitionTable, error) {
	ueTab := compressor.NewUniqueEntriesTable()
	{
		orig, err := compressor.NewOriginalTable(stateIDsToInts(tranTab.UncompressedTransition), tranTab.ColCount)
		if err != nil {
			return nil, err
		}
		err = ueTab.Compress(orig)
		if err != nil {
			return nil, err
		}
	}

	tranTab.Transition = &spec.UniqueEntriesTable{
		UncompressedUniqueEntries: intsToStateIDs(ueTab.UniqueEntries),
		RowNums:                   ueTab.RowNums,
		OriginalRowCount:          ueTab.OriginalRowCount,
		OriginalColCount:          ueTab.OriginalColCount,
	}
	tranTab.UncompressedTransition = nil

	return tranTab, nil
}

func stateIDsToInts(s []spec.StateID) []int {
	is := make([]int, len(s))
	for i, v := range s {
		is[i] = v.Int()
	}
	return is
}

func intsToStateIDs(s []int) []spec.StateID {
	ss := make([]spec.StateID, len(s))
	for i, v := range s {
		ss[i] = spec.StateID(v)
	}
	return ss
}
