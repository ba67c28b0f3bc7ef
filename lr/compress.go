package lr

import (
	"fmt"
	"sort"

	"github.com/hollowloci/parsekit/symbol"
)

// matrix is a flattened row-major table: entries[row*colCount+col].
type matrix struct {
	entries  []int
	rowCount int
	colCount int
}

func newMatrix(entries []int, colCount int) (*matrix, error) {
	if colCount <= 0 {
		return nil, fmt.Errorf("lr: compress: colCount must be >= 1")
	}
	if len(entries)%colCount != 0 {
		return nil, fmt.Errorf("lr: compress: entries length %v not a multiple of colCount %v", len(entries), colCount)
	}
	return &matrix{entries: entries, rowCount: len(entries) / colCount, colCount: colCount}, nil
}

// CompressedTable is a matrix packed by row-displacement: rows are slid
// over a single shared array so each row's non-empty cells land on an
// otherwise-unoccupied span, trading a little lookup indirection
// (RowDisplacement plus a Bounds ownership check) for far less storage
// than the row*col original.
type CompressedTable struct {
	EmptyValue int
	RowCount   int
	ColCount   int
	Entries    []int
	Bounds     []int
	RowDispl   []int
}

// Lookup returns the value at (row, col), or EmptyValue if that cell was
// never populated.
func (c *CompressedTable) Lookup(row, col int) (int, error) {
	if row < 0 || row >= c.RowCount || col < 0 || col >= c.ColCount {
		return c.EmptyValue, fmt.Errorf("lr: compress: index out of range [%v, %v]", row, col)
	}
	d := c.RowDispl[row]
	if c.Bounds[d+col] != row {
		return c.EmptyValue, nil
	}
	return c.Entries[d+col], nil
}

type rowInfo struct {
	rowNum        int
	nonEmptyCount int
	nonEmptyCol   []int
}

// compress runs the row-displacement algorithm over m, placing rows with
// the most non-empty cells first so later, sparser rows are more likely
// to slot into the gaps they leave behind.
func compress(m *matrix, emptyValue int) *CompressedTable {
	infos := make([]rowInfo, m.rowCount)
	for row := 0; row < m.rowCount; row++ {
		infos[row].rowNum = row
		for col := 0; col < m.colCount; col++ {
			if v := m.entries[row*m.colCount+col]; v != emptyValue {
				infos[row].nonEmptyCount++
				infos[row].nonEmptyCol = append(infos[row].nonEmptyCol, col)
			}
		}
	}
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].nonEmptyCount > infos[j].nonEmptyCount })

	n := len(m.entries)
	entries := make([]int, n)
	bounds := make([]int, n)
	for i := range entries {
		entries[i] = emptyValue
		bounds[i] = -1
	}
	rowDispl := make([]int, m.rowCount)
	bottom := m.colCount

	next := 0
	for _, info := range infos {
		if info.nonEmptyCount == 0 {
			continue
		}
		for {
			overlapped := false
			for _, col := range info.nonEmptyCol {
				if entries[next+col] != emptyValue {
					next++
					overlapped = true
					break
				}
			}
			if overlapped {
				continue
			}
			rowDispl[info.rowNum] = next
			for _, col := range info.nonEmptyCol {
				entries[next+col] = m.entries[info.rowNum*m.colCount+col]
				bounds[next+col] = info.rowNum
			}
			if next+m.colCount > bottom {
				bottom = next + m.colCount
			}
			next++
			break
		}
	}

	return &CompressedTable{
		EmptyValue: emptyValue,
		RowCount:   m.rowCount,
		ColCount:   m.colCount,
		Entries:    entries[:bottom],
		Bounds:     bounds[:bottom],
		RowDispl:   rowDispl,
	}
}

// CompressedActionTable packs a Table's action cells by row-displacement.
// Since an Action carries a production pointer that can't live in a flat
// int array, cells hold an index into Codes instead of the action itself.
type CompressedActionTable struct {
	Table *CompressedTable
	Codes []Action
}

// CompressAction compresses t.Action, one row per state, one column per
// terminal in t.Grammar.Inv.Terminals() ordinal order.
func CompressAction(t *Table) *CompressedActionTable {
	terms := t.Grammar.Inv.Terminals()
	ord := make(map[*symbol.Terminal]int, len(terms))
	for i, term := range terms {
		ord[term] = i
	}

	rowCount := len(t.Automaton.States)
	colCount := len(terms)
	entries := make([]int, rowCount*colCount)
	for i := range entries {
		entries[i] = -1
	}

	var codes []Action
	for state, row := range t.Action {
		for term, act := range row {
			col, ok := ord[term]
			if !ok {
				continue
			}
			codes = append(codes, act)
			entries[state*colCount+col] = len(codes) - 1
		}
	}

	m, _ := newMatrix(entries, colCount)
	return &CompressedActionTable{Table: compress(m, -1), Codes: codes}
}

// CompressGoto packs t.Goto the same way. Goto cells already hold a plain
// next-state int, so no side Codes table is needed; -1 doubles as both
// "empty" and an impossible state number.
func CompressGoto(t *Table) *CompressedTable {
	nts := t.Grammar.Inv.NonTerminals()
	ord := make(map[*symbol.NonTerminal]int, len(nts))
	for i, nt := range nts {
		ord[nt] = i
	}

	rowCount := len(t.Automaton.States)
	colCount := len(nts)
	entries := make([]int, rowCount*colCount)
	for i := range entries {
		entries[i] = -1
	}

	for state, row := range t.Goto {
		for nt, next := range row {
			col, ok := ord[nt]
			if !ok {
				continue
			}
			entries[state*colCount+col] = next
		}
	}

	m, _ := newMatrix(entries, colCount)
	return compress(m, -1)
}
