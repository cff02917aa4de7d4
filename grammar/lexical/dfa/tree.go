package dfa

import (
	"fmt"

	"github.com/kagehito/urubu/spec"
	"github.com/kagehito/urubu/utf8"
)

// A byte tree is the regular expression of one lexer over UTF-8 bytes.
// Each leaf matches a byte range; the DFA construction works on the
// classic nullable/first/last/follow attributes of the tree.
type byteTree interface {
	children() (byteTree, byteTree)
	nullable() bool
	first() *positionSet
	last() *positionSet
	clone() byteTree
}

var (
	_ byteTree = &symbolNode{}
	_ byteTree = &endMarkerNode{}
	_ byteTree = &concatNode{}
	_ byteTree = &altNode{}
	_ byteTree = &repeatNode{}
	_ byteTree = &optionNode{}
)

type byteRange struct {
	from byte
	to   byte
}

type symbolNode struct {
	byteRange
	pos       position
	firstMemo *positionSet
	lastMemo  *positionSet
}

func newSymbolNode(from, to byte) *symbolNode {
	return &symbolNode{
		byteRange: byteRange{
			from: from,
			to:   to,
		},
		pos: positionNil,
	}
}

func (n *symbolNode) children() (byteTree, byteTree) {
	return nil, nil
}

func (n *symbolNode) nullable() bool {
	return false
}

func (n *symbolNode) first() *positionSet {
	if n.firstMemo == nil {
		n.firstMemo = newPositionSet().add(n.pos)
	}
	return n.firstMemo
}

func (n *symbolNode) last() *positionSet {
	if n.lastMemo == nil {
		n.lastMemo = newPositionSet().add(n.pos)
	}
	return n.lastMemo
}

func (n *symbolNode) clone() byteTree {
	return newSymbolNode(n.from, n.to)
}

// endMarkerNode closes the pattern of one token kind; reaching it in
// the DFA makes a state accept that kind.
type endMarkerNode struct {
	id        spec.KindID
	pos       position
	firstMemo *positionSet
	lastMemo  *positionSet
}

func newEndMarkerNode(id spec.KindID) *endMarkerNode {
	return &endMarkerNode{
		id:  id,
		pos: positionNil,
	}
}

func (n *endMarkerNode) children() (byteTree, byteTree) {
	return nil, nil
}

func (n *endMarkerNode) nullable() bool {
	return false
}

func (n *endMarkerNode) first() *positionSet {
	if n.firstMemo == nil {
		n.firstMemo = newPositionSet().add(n.pos)
	}
	return n.firstMemo
}

func (n *endMarkerNode) last() *positionSet {
	if n.lastMemo == nil {
		n.lastMemo = newPositionSet().add(n.pos)
	}
	return n.lastMemo
}

func (n *endMarkerNode) clone() byteTree {
	return newEndMarkerNode(n.id)
}

type concatNode struct {
	left      byteTree
	right     byteTree
	firstMemo *positionSet
	lastMemo  *positionSet
}

func newConcatNode(left, right byteTree) *concatNode {
	return &concatNode{
		left:  left,
		right: right,
	}
}

func (n *concatNode) children() (byteTree, byteTree) {
	return n.left, n.right
}

func (n *concatNode) nullable() bool {
	return n.left.nullable() && n.right.nullable()
}

func (n *concatNode) first() *positionSet {
	if n.firstMemo == nil {
		n.firstMemo = newPositionSet()
		n.firstMemo.merge(n.left.first())
		if n.left.nullable() {
			n.firstMemo.merge(n.right.first())
		}
		n.firstMemo.normalize()
	}
	return n.firstMemo
}

func (n *concatNode) last() *positionSet {
	if n.lastMemo == nil {
		n.lastMemo = newPositionSet()
		n.lastMemo.merge(n.right.last())
		if n.right.nullable() {
			n.lastMemo.merge(n.left.last())
		}
		n.lastMemo.normalize()
	}
	return n.lastMemo
}

func (n *concatNode) clone() byteTree {
	return newConcatNode(n.left.clone(), n.right.clone())
}

type altNode struct {
	left      byteTree
	right     byteTree
	firstMemo *positionSet
	lastMemo  *positionSet
}

func newAltNode(left, right byteTree) *altNode {
	return &altNode{
		left:  left,
		right: right,
	}
}

func (n *altNode) children() (byteTree, byteTree) {
	return n.left, n.right
}

func (n *altNode) nullable() bool {
	return n.left.nullable() || n.right.nullable()
}

func (n *altNode) first() *positionSet {
	if n.firstMemo == nil {
		n.firstMemo = newPositionSet()
		n.firstMemo.merge(n.left.first())
		n.firstMemo.merge(n.right.first())
		n.firstMemo.normalize()
	}
	return n.firstMemo
}

func (n *altNode) last() *positionSet {
	if n.lastMemo == nil {
		n.lastMemo = newPositionSet()
		n.lastMemo.merge(n.left.last())
		n.lastMemo.merge(n.right.last())
		n.lastMemo.normalize()
	}
	return n.lastMemo
}

func (n *altNode) clone() byteTree {
	return newAltNode(n.left.clone(), n.right.clone())
}

type repeatNode struct {
	left      byteTree
	firstMemo *positionSet
	lastMemo  *positionSet
}

func newRepeatNode(left byteTree) *repeatNode {
	return &repeatNode{
		left: left,
	}
}

func (n *repeatNode) children() (byteTree, byteTree) {
	return n.left, nil
}

func (n *repeatNode) nullable() bool {
	return true
}

func (n *repeatNode) first() *positionSet {
	if n.firstMemo == nil {
		n.firstMemo = newPositionSet()
		n.firstMemo.merge(n.left.first())
		n.firstMemo.normalize()
	}
	return n.firstMemo
}

func (n *repeatNode) last() *positionSet {
	if n.lastMemo == nil {
		n.lastMemo = newPositionSet()
		n.lastMemo.merge(n.left.last())
		n.lastMemo.normalize()
	}
	return n.lastMemo
}

func (n *repeatNode) clone() byteTree {
	return newRepeatNode(n.left.clone())
}

type optionNode struct {
	left      byteTree
	firstMemo *positionSet
	lastMemo  *positionSet
}

func newOptionNode(left byteTree) *optionNode {
	return &optionNode{
		left: left,
	}
}

func (n *optionNode) children() (byteTree, byteTree) {
	return n.left, nil
}

func (n *optionNode) nullable() bool {
	return true
}

func (n *optionNode) first() *positionSet {
	if n.firstMemo == nil {
		n.firstMemo = newPositionSet()
		n.firstMemo.merge(n.left.first())
		n.firstMemo.normalize()
	}
	return n.firstMemo
}

func (n *optionNode) last() *positionSet {
	if n.lastMemo == nil {
		n.lastMemo = newPositionSet()
		n.lastMemo.merge(n.left.last())
		n.lastMemo.normalize()
	}
	return n.lastMemo
}

func (n *optionNode) clone() byteTree {
	return newOptionNode(n.left.clone())
}

type followTable map[position]*positionSet

func genFollowTable(root byteTree) followTable {
	follow := followTable{}
	calcFollow(follow, root)
	return follow
}

func calcFollow(follow followTable, tree byteTree) {
	if tree == nil {
		return
	}
	left, right := tree.children()
	calcFollow(follow, left)
	calcFollow(follow, right)
	switch n := tree.(type) {
	case *concatNode:
		for _, p := range n.left.last().set() {
			if _, ok := follow[p]; !ok {
				follow[p] = newPositionSet()
			}
			follow[p].merge(n.right.first())
		}
	case *repeatNode:
		for _, p := range n.last().set() {
			if _, ok := follow[p]; !ok {
				follow[p] = newPositionSet()
			}
			follow[p].merge(n.first())
		}
	}
}

func numberPositions(tree byteTree, n uint16) (uint16, error) {
	if tree == nil {
		return n, nil
	}
	l, r := tree.children()
	p, err := numberPositions(l, n)
	if err != nil {
		return p, err
	}
	p, err = numberPositions(r, p)
	if err != nil {
		return p, err
	}
	switch node := tree.(type) {
	case *symbolNode:
		node.pos, err = newPosition(p, false)
		if err != nil {
			return p, err
		}
		p++
	case *endMarkerNode:
		node.pos, err = newPosition(p, true)
		if err != nil {
			return p, err
		}
		p++
	}
	tree.first()
	tree.last()
	return p, nil
}

func concat(ts ...byteTree) byteTree {
	var all []byteTree
	for _, t := range ts {
		if t == nil {
			continue
		}
		all = append(all, t)
	}
	if len(all) == 0 {
		return nil
	}
	t := all[0]
	for _, u := range all[1:] {
		t = newConcatNode(t, u)
	}
	return t
}

func oneOf(ts ...byteTree) byteTree {
	var all []byteTree
	for _, t := range ts {
		if t == nil {
			continue
		}
		all = append(all, t)
	}
	if len(all) == 0 {
		return nil
	}
	t := all[0]
	for _, u := range all[1:] {
		t = newAltNode(t, u)
	}
	return t
}

// Pattern pairs a token kind with the expression its lexemes match.
type Pattern struct {
	ID   spec.KindID
	Expr *spec.Expr
}

// GenByteTree builds the byte tree of a whole lexer: the union of all
// patterns, each closed by an end marker carrying its kind.
func GenByteTree(patterns []*Pattern) (byteTree, *symbolTable, error) {
	var root byteTree
	for _, pat := range patterns {
		t, err := genExprTree(pat.Expr)
		if err != nil {
			return nil, nil, err
		}
		root = oneOf(root, concat(t, newEndMarkerNode(pat.ID)))
	}
	if _, err := numberPositions(root, positionMin); err != nil {
		return nil, nil, err
	}
	return root, genSymbolTable(root), nil
}

func genExprTree(e *spec.Expr) (byteTree, error) {
	switch e.Kind {
	case spec.ExprLiteral:
		var t byteTree
		for _, b := range []byte(e.Literal) {
			t = concat(t, newSymbolNode(b, b))
		}
		return t, nil
	case spec.ExprClass:
		var t byteTree
		for _, r := range e.Ranges {
			blks, err := utf8.GenCharBlocks(r.From, r.To)
			if err != nil {
				return nil, err
			}
			for _, blk := range blks {
				var c byteTree
				for i := 0; i < len(blk.From); i++ {
					c = concat(c, newSymbolNode(blk.From[i], blk.To[i]))
				}
				t = oneOf(t, c)
			}
		}
		return t, nil
	case spec.ExprSeq:
		var t byteTree
		for _, sub := range e.Subs {
			s, err := genExprTree(sub)
			if err != nil {
				return nil, err
			}
			t = concat(t, s)
		}
		return t, nil
	case spec.ExprChoice:
		var t byteTree
		for _, sub := range e.Subs {
			s, err := genExprTree(sub)
			if err != nil {
				return nil, err
			}
			t = oneOf(t, s)
		}
		return t, nil
	case spec.ExprOption:
		s, err := genExprTree(e.Subs[0])
		if err != nil {
			return nil, err
		}
		return newOptionNode(s), nil
	case spec.ExprRepeat:
		s, err := genExprTree(e.Subs[0])
		if err != nil {
			return nil, err
		}
		if e.Min == 0 {
			return newRepeatNode(s), nil
		}
		return concat(s, newRepeatNode(s.clone())), nil
	default:
		return nil, fmt.Errorf("invalid expression kind in a token pattern: %v", e.Kind)
	}
}
