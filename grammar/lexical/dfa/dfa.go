package dfa

import (
	"sort"

	"github.com/kagehito/urubu/spec"
)

type symbolTable struct {
	symPos2Byte map[position]byteRange
	endPos2ID   map[position]spec.KindID
}

func genSymbolTable(root byteTree) *symbolTable {
	symTab := &symbolTable{
		symPos2Byte: map[position]byteRange{},
		endPos2ID:   map[position]spec.KindID{},
	}
	return genSymTab(symTab, root)
}

func genSymTab(symTab *symbolTable, tree byteTree) *symbolTable {
	if tree == nil {
		return symTab
	}
	switch n := tree.(type) {
	case *symbolNode:
		symTab.symPos2Byte[n.pos] = n.byteRange
	case *endMarkerNode:
		symTab.endPos2ID[n.pos] = n.id
	default:
		left, right := tree.children()
		genSymTab(symTab, left)
		genSymTab(symTab, right)
	}
	return symTab
}

type DFA struct {
	States               []string
	InitialState         string
	AcceptingStatesTable map[string]spec.KindID
	TransitionTable      map[string][256]string
}

// GenDFA turns a byte tree into a DFA with the followpos construction.
// When a state accepts multiple kinds, the smallest kind ID wins; kinds
// are numbered in declaration order, so declaration order is priority
// order.
func GenDFA(root byteTree, symTab *symbolTable) *DFA {
	initialState := root.first()
	initialStateHash := initialState.hash()
	stateMap := map[string]*positionSet{
		initialStateHash: initialState,
	}
	tranTab := map[string][256]string{}
	{
		follow := genFollowTable(root)
		unmarkedStates := map[string]*positionSet{
			initialStateHash: initialState,
		}
		for len(unmarkedStates) > 0 {
			nextUnmarkedStates := map[string]*positionSet{}
			for hash, state := range unmarkedStates {
				tranTabOfState := [256]*positionSet{}
				for _, pos := range state.set() {
					if pos.isEndMark() {
						continue
					}
					valRange := symTab.symPos2Byte[pos]
					for symVal := int(valRange.from); symVal <= int(valRange.to); symVal++ {
						if tranTabOfState[symVal] == nil {
							tranTabOfState[symVal] = newPositionSet()
						}
						tranTabOfState[symVal].merge(follow[pos])
					}
				}
				for _, t := range tranTabOfState {
					if t == nil {
						continue
					}
					h := t.hash()
					if _, ok := stateMap[h]; ok {
						continue
					}
					stateMap[h] = t
					nextUnmarkedStates[h] = t
				}
				tabOfState := [256]string{}
				for v, t := range tranTabOfState {
					if t == nil {
						continue
					}
					tabOfState[v] = t.hash()
				}
				tranTab[hash] = tabOfState
			}
			unmarkedStates = nextUnmarkedStates
		}
	}

	accTab := map[string]spec.KindID{}
	for h, s := range stateMap {
		for _, pos := range s.set() {
			if !pos.isEndMark() {
				continue
			}
			id := symTab.endPos2ID[pos]
			if prior, ok := accTab[h]; !ok || id < prior {
				accTab[h] = id
			}
		}
	}

	var states []string
	for s := range stateMap {
		states = append(states, s)
	}
	sort.Strings(states)

	return &DFA{
		States:               states,
		InitialState:         initialStateHash,
		AcceptingStatesTable: accTab,
		TransitionTable:      tranTab,
	}
}

func GenTransitionTable(d *DFA) (*spec.TransitionTable, error) {
	stateHash2ID := map[string]spec.StateID{}
	for i, s := range d.States {
		// 0 represents an invalid value in a transition table, so state
		// numbering starts at 1.
		stateHash2ID[s] = spec.StateID(i + spec.StateIDMin.Int())
	}

	acc := make([]spec.KindID, len(d.States)+1)
	for _, s := range d.States {
		id, ok := d.AcceptingStatesTable[s]
		if !ok {
			continue
		}
		acc[stateHash2ID[s]] = id
	}

	rowCount := len(d.States) + 1
	colCount := 256
	tran := make([]spec.StateID, rowCount*colCount)
	for s, tab := range d.TransitionTable {
		for v, to := range tab {
			tran[stateHash2ID[s].Int()*256+v] = stateHash2ID[to]
		}
	}

	return &spec.TransitionTable{
		InitialStateID:         stateHash2ID[d.InitialState],
		AcceptingStates:        acc,
		UncompressedTransition: tran,
		RowCount:               rowCount,
		ColCount:               colCount,
	}, nil
}
