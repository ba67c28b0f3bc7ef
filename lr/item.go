// Package lr is the LR(0)/SLR(1) engine: the canonical collection of item
// sets and the shift/reduce/goto/accept parsing table built from it,
// including precedence-based conflict resolution.
//
// State identity here is a sorted-core string key rather than a binary
// kernel id — same invariant ("two states are equal iff their cores
// contain the same marks"), a simpler mechanism since parsekit doesn't
// need a fixed-width binary id for a serialized table format.
package lr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hollowloci/parsekit/bnf"
)

// Mark is one LR(0) item: a production with a dot position.
//
//	E -> E + T
//	dot 0: E -> . E + T
//	dot 1: E -> E . + T
//	dot 3: E -> E + T .  (reducible)
type Mark struct {
	Prod *bnf.Production
	Dot  int
}

// Sym returns the symbol immediately after the dot, or the zero Symbol if
// the dot is at the end (a reducible item).
func (m Mark) Sym() (bnf.Symbol, bool) {
	if m.Dot >= len(m.Prod.RHS) {
		return bnf.Symbol{}, false
	}
	return m.Prod.RHS[m.Dot], true
}

// Reducible reports whether the dot has reached the end of the production.
func (m Mark) Reducible() bool { return m.Dot >= len(m.Prod.RHS) }

// Advance returns the item with the dot moved one position to the right.
func (m Mark) Advance() Mark { return Mark{Prod: m.Prod, Dot: m.Dot + 1} }

func (m Mark) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v ->", m.Prod.LHS.Name)
	for i, sym := range m.Prod.RHS {
		if i == m.Dot {
			b.WriteString(" .")
		}
		b.WriteString(" " + sym.String())
	}
	if m.Dot == len(m.Prod.RHS) {
		b.WriteString(" .")
	}
	return b.String()
}

func (m Mark) key() string { return fmt.Sprintf("%d@%d", m.Prod.Num, m.Dot) }

// core is the sorted set of kernel marks that uniquely identifies a state.
func core(marks []Mark) string {
	keys := make([]string, len(marks))
	for i, m := range marks {
		keys[i] = m.key()
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// State is one node of the canonical LR(0) collection: its kernel marks
// plus, once built, the closure and transition table.
type State struct {
	Num    int
	Kernel []Mark
	Items  []Mark // kernel plus closure
	Next   map[string]int
}
