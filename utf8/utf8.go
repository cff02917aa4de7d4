package utf8

import (
	"bytes"
	"fmt"
	"strings"
)

// CharBlock is a set of code points whose UTF-8 encodings form the full
// byte product of per-position ranges: a sequence belongs to the block
// exactly when byte i lies within From[i]..To[i] for every i. From and
// To always have the same length.
type CharBlock struct {
	From []byte
	To   []byte
}

func (b *CharBlock) String() string {
	var s strings.Builder
	s.WriteString("<")
	for i, v := range b.From {
		if i > 0 {
			s.WriteString(" ")
		}
		fmt.Fprintf(&s, "%X", v)
	}
	s.WriteString("..")
	for i, v := range b.To {
		if i > 0 {
			s.WriteString(" ")
		}
		fmt.Fprintf(&s, "%X", v)
	}
	s.WriteString(">")
	return s.String()
}

// GenCharBlocks splits a code point range into blocks. A range like
// <U+0000..U+07FF> is contiguous over code points but not over UTF-8
// bytes (one-byte encodings end at 7F, two-byte ones start at C2 80),
// so it splits into <U+0000..U+007F> and <U+0080..U+07FF>. A range
// may also split inside one encoding length when a trailing byte
// doesn't span its full extent: <α..ω> is <CE B1..CF 89> over code
// points but covers <CE B1..CE BF> and <CF 80..CF 89> over bytes.
func GenCharBlocks(from, to rune) ([]*CharBlock, error) {
	rs, err := splitCodePointRange(from, to)
	if err != nil {
		return nil, err
	}
	var blks []*CharBlock
	for _, r := range rs {
		row := wellFormedRow(r.from)
		blks = append(blks, genByteBlocks(
			[]byte(string(r.from)),
			[]byte(string(r.to)),
			[]byte(string(row.from)),
			[]byte(string(row.to)),
		)...)
	}
	return blks, nil
}

type cpRange struct {
	from rune
	to   rune
}

// Each row of Table 3-7 (Well-Formed UTF-8 Byte Sequences) of the
// Unicode standard is a code point range whose encodings form the full
// byte product of the row's per-position bounds. Crossing a row
// boundary changes the byte-level structure of the encoding. The
// surrogate gap <U+D800..U+DFFF> lies between two rows.
var wellFormedRows = []*cpRange{
	{from: 0x0000, to: 0x007f},
	{from: 0x0080, to: 0x07ff},
	{from: 0x0800, to: 0x0fff},
	{from: 0x1000, to: 0xcfff},
	{from: 0xd000, to: 0xd7ff},
	{from: 0xe000, to: 0xffff},
	{from: 0x10000, to: 0x3ffff},
	{from: 0x40000, to: 0xfffff},
	{from: 0x100000, to: 0x10ffff},
}

func wellFormedRow(cp rune) *cpRange {
	for _, row := range wellFormedRows {
		if cp >= row.from && cp <= row.to {
			return row
		}
	}
	return nil
}

// splitCodePointRange splits <from..to> at every row boundary of
// Table 3-7. Surrogate code points never appear in a result range;
// when an endpoint itself is a surrogate, the range is rejected.
func splitCodePointRange(from, to rune) ([]*cpRange, error) {
	if from > to {
		return nil, fmt.Errorf("code point range must satisfy from <= to: U+%X..U+%X", from, to)
	}
	if from < 0x0000 || to > 0x10ffff {
		return nil, fmt.Errorf("code point must be >=U+0000 and <=U+10FFFF: U+%X..U+%X", from, to)
	}
	if from >= 0xd800 && from <= 0xdfff || to >= 0xd800 && to <= 0xdfff {
		return nil, fmt.Errorf("surrogate code points U+D800..U+DFFF are not allowed in UTF-8: U+%X..U+%X", from, to)
	}

	var rs []*cpRange
	for from <= to {
		r := &cpRange{
			from: from,
			to:   to,
		}
		if row := wellFormedRow(from); row.to < to {
			r.to = row.to
		}
		rs = append(rs, r)
		from = r.to + 1
		if from >= 0xd800 && from <= 0xdfff {
			from = 0xe000
		}
	}
	return rs, nil
}

// genByteBlocks decomposes the encodings of a code point range confined
// to one row into blocks whose byte ranges hold position by position.
// lo and hi are the row's extreme encodings. Within a row the valid
// sequences are the full product of the row's bounds and code point
// order coincides with byte order, so a range splits into a head block
// under from's lead byte, a full-product middle block, and a tail block
// under to's lead byte.
func genByteBlocks(from, to, lo, hi []byte) []*CharBlock {
	if from[0] == to[0] {
		if len(from) == 1 {
			return []*CharBlock{{From: from, To: to}}
		}
		var blks []*CharBlock
		for _, b := range genByteBlocks(from[1:], to[1:], lo[1:], hi[1:]) {
			blks = append(blks, &CharBlock{
				From: append([]byte{from[0]}, b.From...),
				To:   append([]byte{to[0]}, b.To...),
			})
		}
		return blks
	}

	var blks []*CharBlock
	headFrom, tailTo := from[0], to[0]
	if !bytes.Equal(from[1:], lo[1:]) {
		for _, b := range genByteBlocks(from[1:], hi[1:], lo[1:], hi[1:]) {
			blks = append(blks, &CharBlock{
				From: append([]byte{from[0]}, b.From...),
				To:   append([]byte{from[0]}, b.To...),
			})
		}
		headFrom++
	}
	var tailBlks []*CharBlock
	if !bytes.Equal(to[1:], hi[1:]) {
		for _, b := range genByteBlocks(lo[1:], to[1:], lo[1:], hi[1:]) {
			tailBlks = append(tailBlks, &CharBlock{
				From: append([]byte{to[0]}, b.From...),
				To:   append([]byte{to[0]}, b.To...),
			})
		}
		tailTo--
	}
	if headFrom <= tailTo {
		blks = append(blks, &CharBlock{
			From: append([]byte{headFrom}, lo[1:]...),
			To:   append([]byte{tailTo}, hi[1:]...),
		})
	}
	return append(blks, tailBlks...)
}
