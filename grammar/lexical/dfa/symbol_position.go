package dfa

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// position identifies one leaf of a byte tree. The high bit marks the
// end-marker leaves that carry token kinds.
type position uint16

const (
	positionNil position = 0x0000

	positionMin uint16 = 0x0001
	positionMax uint16 = 0x7fff

	positionMaskEndMark uint16 = 0x8000
	positionMaskValue   uint16 = 0x7fff
)

func newPosition(n uint16, endMark bool) (position, error) {
	if n < positionMin || n > positionMax {
		return positionNil, fmt.Errorf("a position must be within %v to %v: n: %v, endMark: %v", positionMin, positionMax, n, endMark)
	}
	if endMark {
		return position(n | positionMaskEndMark), nil
	}
	return position(n), nil
}

func (p position) String() string {
	if p.isEndMark() {
		return fmt.Sprintf("end#%v", uint16(p)&positionMaskValue)
	}
	return fmt.Sprintf("sym#%v", uint16(p)&positionMaskValue)
}

func (p position) isEndMark() bool {
	return uint16(p)&positionMaskEndMark > 0
}

// positionSet is a set of positions. Elements may be duplicated right
// after an add or a merge; set and hash normalize the elements first.
type positionSet struct {
	s      []position
	sorted bool
}

func newPositionSet() *positionSet {
	return &positionSet{
		s: []position{},
	}
}

func (s *positionSet) String() string {
	if len(s.s) == 0 {
		return "{}"
	}
	ps := s.set()
	var b strings.Builder
	b.WriteString("{")
	for i, p := range ps {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString("}")
	return b.String()
}

func (s *positionSet) set() []position {
	s.normalize()
	return s.s
}

func (s *positionSet) add(pos position) *positionSet {
	s.s = append(s.s, pos)
	s.sorted = false
	return s
}

func (s *positionSet) merge(t *positionSet) *positionSet {
	s.s = append(s.s, t.s...)
	s.sorted = false
	return s
}

// hash returns a value usable as a map key. The byte sequence is built
// from position values, so it is not well-formed UTF-8.
func (s *positionSet) hash() string {
	if len(s.s) == 0 {
		return ""
	}
	s.normalize()
	buf := make([]byte, 0, len(s.s)*2)
	for _, p := range s.s {
		b := make([]byte, 8)
		binary.PutUvarint(b, uint64(p))
		buf = append(buf, b...)
	}
	return string(buf)
}

func (s *positionSet) normalize() {
	if s.sorted || len(s.s) == 0 {
		return
	}
	sort.Slice(s.s, func(i, j int) bool {
		return s.s[i] < s.s[j]
	})
	last := s.s[0]
	next := 1
	for _, v := range s.s[1:] {
		if v == last {
			continue
		}
		s.s[next] = v
		next++
		last = v
	}
	s.s = s.s[:next]
	s.sorted = true
}
