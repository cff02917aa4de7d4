// Package compressor implements the two table compression schemes the
// lexer generator stacks on top of each other: deduplication of
// identical rows and row displacement packing of sparse rows.
package compressor

import (
	"encoding/binary"
	"fmt"
	"sort"
)

type OriginalTable struct {
	entries  []int
	rowCount int
	colCount int
}

func NewOriginalTable(entries []int, colCount int) (*OriginalTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("entries is empty")
	}
	if colCount <= 0 {
		return nil, fmt.Errorf("colCount must be >=1")
	}
	if len(entries)%colCount != 0 {
		return nil, fmt.Errorf("entries length must be a multiple of the column count: entries length: %v, column count: %v", len(entries), colCount)
	}
	return &OriginalTable{
		entries:  entries,
		rowCount: len(entries) / colCount,
		colCount: colCount,
	}, nil
}

func (t *OriginalTable) row(n int) []int {
	return t.entries[n*t.colCount : (n+1)*t.colCount]
}

type Compressor interface {
	Compress(orig *OriginalTable) error
	Lookup(row, col int) (int, error)
	OriginalTableSize() (int, int)
}

var (
	_ Compressor = &UniqueEntriesTable{}
	_ Compressor = &RowDisplacementTable{}
)

// UniqueEntriesTable stores each distinct row once; RowNums maps an
// original row number to its representative.
type UniqueEntriesTable struct {
	UniqueEntries    []int
	RowNums          []int
	OriginalRowCount int
	OriginalColCount int
}

func NewUniqueEntriesTable() *UniqueEntriesTable {
	return &UniqueEntriesTable{}
}

func (t *UniqueEntriesTable) Lookup(row, col int) (int, error) {
	if row < 0 || row >= t.OriginalRowCount || col < 0 || col >= t.OriginalColCount {
		return 0, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	return t.UniqueEntries[t.RowNums[row]*t.OriginalColCount+col], nil
}

func (t *UniqueEntriesTable) OriginalTableSize() (int, int) {
	return t.OriginalRowCount, t.OriginalColCount
}

func (t *UniqueEntriesTable) Compress(orig *OriginalTable) error {
	var uniqueEntries []int
	rowNums := make([]int, orig.rowCount)
	hash2RowNum := map[string]int{}
	for row := 0; row < orig.rowCount; row++ {
		r := orig.row(row)
		h := hashRow(r)
		rowNum, ok := hash2RowNum[h]
		if !ok {
			rowNum = len(hash2RowNum)
			hash2RowNum[h] = rowNum
			uniqueEntries = append(uniqueEntries, r...)
		}
		rowNums[row] = rowNum
	}

	t.UniqueEntries = uniqueEntries
	t.RowNums = rowNums
	t.OriginalRowCount = orig.rowCount
	t.OriginalColCount = orig.colCount

	return nil
}

func hashRow(row []int) string {
	buf := make([]byte, 0, len(row)*8)
	for _, v := range row {
		b := make([]byte, 8)
		binary.PutUvarint(b, uint64(v))
		buf = append(buf, b...)
	}
	return string(buf)
}

const ForbiddenValue = -1

// RowDisplacementTable packs sparse rows into one array: each row gets
// a displacement, and Bounds records which row owns each slot so that
// lookups can tell an entry of another row from a genuine one.
type RowDisplacementTable struct {
	OriginalRowCount int
	OriginalColCount int
	EmptyValue       int
	Entries          []int
	Bounds           []int
	RowDisplacement  []int
}

func NewRowDisplacementTable(emptyValue int) *RowDisplacementTable {
	return &RowDisplacementTable{
		EmptyValue: emptyValue,
	}
}

func (t *RowDisplacementTable) Lookup(row int, col int) (int, error) {
	if row < 0 || row >= t.OriginalRowCount || col < 0 || col >= t.OriginalColCount {
		return t.EmptyValue, fmt.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	d := t.RowDisplacement[row]
	if t.Bounds[d+col] != row {
		return t.EmptyValue, nil
	}
	return t.Entries[d+col], nil
}

func (t *RowDisplacementTable) OriginalTableSize() (int, int) {
	return t.OriginalRowCount, t.OriginalColCount
}

type rowInfo struct {
	rowNum      int
	nonEmptyCol []int
}

func (t *RowDisplacementTable) Compress(orig *OriginalTable) error {
	// Packing the densest rows first keeps the displacement search
	// short.
	rows := make([]rowInfo, orig.rowCount)
	for rowNum := 0; rowNum < orig.rowCount; rowNum++ {
		rows[rowNum].rowNum = rowNum
		for col, v := range orig.row(rowNum) {
			if v != t.EmptyValue {
				rows[rowNum].nonEmptyCol = append(rows[rowNum].nonEmptyCol, col)
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return len(rows[i].nonEmptyCol) > len(rows[j].nonEmptyCol)
	})

	origEntriesLen := len(orig.entries)
	entries := make([]int, origEntriesLen)
	bounds := make([]int, origEntriesLen)
	for i := 0; i < origEntriesLen; i++ {
		entries[i] = t.EmptyValue
		bounds[i] = ForbiddenValue
	}
	resultBottom := orig.colCount
	rowDisplacement := make([]int, orig.rowCount)

	nextDisplacement := 0
	for _, r := range rows {
		if len(r.nonEmptyCol) == 0 {
			continue
		}
		for {
			overlapped := false
			for _, col := range r.nonEmptyCol {
				if entries[nextDisplacement+col] != t.EmptyValue {
					nextDisplacement++
					overlapped = true
					break
				}
			}
			if overlapped {
				continue
			}
			rowDisplacement[r.rowNum] = nextDisplacement
			for _, col := range r.nonEmptyCol {
				entries[nextDisplacement+col] = orig.entries[r.rowNum*orig.colCount+col]
				bounds[nextDisplacement+col] = r.rowNum
			}
			resultBottom = nextDisplacement + orig.colCount
			nextDisplacement++
			break
		}
	}

	t.OriginalRowCount = orig.rowCount
	t.OriginalColCount = orig.colCount
	t.Entries = entries[:resultBottom]
	t.Bounds = bounds[:resultBottom]
	t.RowDisplacement = rowDisplacement

	return nil
}
