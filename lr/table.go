package lr

import (
	"fmt"

	"github.com/hollowloci/parsekit/bnf"
	"github.com/hollowloci/parsekit/symbol"
)

// ActionType tags a Table action table entry.
type ActionType int

const (
	ActionError ActionType = iota
	ActionShift
	ActionReduce
	ActionAccept
)

// Action is one action-table cell.
type Action struct {
	Type       ActionType
	NextState  int             // valid when Type == ActionShift
	Production *bnf.Production // valid when Type == ActionReduce
}

// Conflict records a shift/reduce or reduce/reduce collision resolved
// during table construction, kept for diagnostics (`parsekit check`
// prints them).
type Conflict struct {
	State      int
	Term       *symbol.Terminal
	ShiftState int             // -1 if this wasn't a shift/reduce conflict
	Reduce1    *bnf.Production // first candidate reduce (lower Num wins reduce/reduce ties)
	Reduce2    *bnf.Production // second candidate; nil for shift/reduce conflicts
}

// Table is the finished SLR(1) parsing table: one action row per state
// over terminals, one goto row per state over non-terminals.
type Table struct {
	Automaton *Automaton
	Grammar   *bnf.Grammar
	Action    map[int]map[*symbol.Terminal]Action
	Goto      map[int]map[*symbol.NonTerminal]int
	Conflicts []*Conflict
}

// BuildTable constructs the SLR(1) table for g: shift actions from the
// automaton's terminal transitions, reduce actions from each reducible
// item's production gated by sets.Follow (the "simple" in SLR(1)), goto
// entries from non-terminal transitions, and accept on the augmented
// start production's end-of-input reduction.
//
// Shift/reduce conflicts are resolved by precedence: compare the
// shifted-on terminal's precedence against the reducing production's
// precedence; a higher-precedence terminal shifts, a lower one reduces,
// and equal precedence defers to associativity (right shifts, left
// reduces, non-associative removes the entry). Reduce/reduce ties go to
// the earlier-numbered (earlier-defined) production.
func BuildTable(g *bnf.Grammar, a *Automaton, sets *bnf.Sets) *Table {
	t := &Table{
		Automaton: a,
		Grammar:   g,
		Action:    map[int]map[*symbol.Terminal]Action{},
		Goto:      map[int]map[*symbol.NonTerminal]int{},
	}

	startProd := g.ProductionsFor(g.Start)[0]

	for _, st := range a.States {
		t.Action[st.Num] = map[*symbol.Terminal]Action{}
		t.Goto[st.Num] = map[*symbol.NonTerminal]int{}

		for key, nextNum := range st.Next {
			sym := symbolOf(a, key)
			if sym.IsTerminal() {
				t.writeShift(st.Num, sym.Term, nextNum)
			} else {
				t.Goto[st.Num][sym.NT] = nextNum
			}
		}

		for _, item := range st.Items {
			if !item.Reducible() {
				continue
			}
			if item.Prod == startProd {
				t.writeAction(st.Num, g.Inv.EOF(), Action{Type: ActionAccept})
				continue
			}
			for _, term := range sets.Follow(item.Prod.LHS) {
				t.writeReduce(st.Num, term, item.Prod)
			}
			if sets.FollowHasEOF(item.Prod.LHS) {
				t.writeReduce(st.Num, g.Inv.EOF(), item.Prod)
			}
		}
	}

	return t
}

func (t *Table) writeShift(state int, term *symbol.Terminal, next int) {
	existing, ok := t.Action[state][term]
	if ok && existing.Type == ActionReduce {
		t.Conflicts = append(t.Conflicts, &Conflict{
			State: state, Term: term, ShiftState: next, Reduce1: existing.Production,
		})
		switch t.resolveConflict(term, existing.Production) {
		case ActionReduce:
			return
		case ActionError:
			delete(t.Action[state], term)
			return
		}
	}
	t.Action[state][term] = Action{Type: ActionShift, NextState: next}
}

func (t *Table) writeReduce(state int, term *symbol.Terminal, prod *bnf.Production) {
	existing, ok := t.Action[state][term]
	if !ok || existing.Type == ActionError {
		t.Action[state][term] = Action{Type: ActionReduce, Production: prod}
		return
	}
	switch existing.Type {
	case ActionReduce:
		if existing.Production == prod {
			return
		}
		winner := existing.Production
		if prod.Num < winner.Num {
			winner = prod
		}
		t.Conflicts = append(t.Conflicts, &Conflict{
			State: state, Term: term, ShiftState: -1,
			Reduce1: existing.Production, Reduce2: prod,
		})
		t.Action[state][term] = Action{Type: ActionReduce, Production: winner}
	case ActionShift:
		t.Conflicts = append(t.Conflicts, &Conflict{
			State: state, Term: term, ShiftState: existing.NextState, Reduce1: prod,
		})
		switch t.resolveConflict(term, prod) {
		case ActionReduce:
			t.Action[state][term] = Action{Type: ActionReduce, Production: prod}
		case ActionError:
			delete(t.Action[state], term)
		}
	case ActionAccept:
		// accept always wins; the augmented start production's $eof
		// reduction never competes with a real reduce on the same
		// state/terminal pair.
	}
}

func (t *Table) writeAction(state int, term *symbol.Terminal, act Action) {
	t.Action[state][term] = act
}

// resolveConflict decides shift vs. reduce vs. error for a shift/reduce
// collision on term against prod, using operator precedence/
// associativity: higher-precedence terminal shifts, equal precedence
// defers to associativity (right shifts, left reduces, non-associative
// errors — a later occurrence of term is then a syntax error rather than
// silently associating one way or the other), otherwise reduce.
func (t *Table) resolveConflict(term *symbol.Terminal, prod *bnf.Production) ActionType {
	symLevel := precIndex(term.Prec)
	prodLevel := precIndex(prod.Prec)

	if symLevel > prodLevel {
		return ActionShift
	}
	if symLevel == prodLevel {
		assoc := symbol.AssocNone
		if prod.Prec != nil {
			assoc = prod.Prec.Assoc
		}
		switch assoc {
		case symbol.AssocRight:
			return ActionShift
		case symbol.AssocNone:
			return ActionError
		}
	}
	return ActionReduce
}

func precIndex(lv *symbol.Level) int {
	if lv == nil {
		return 0
	}
	return lv.Index
}

func (a Action) String() string {
	switch a.Type {
	case ActionShift:
		return fmt.Sprintf("shift %d", a.NextState)
	case ActionReduce:
		return fmt.Sprintf("reduce %v", a.Production)
	case ActionAccept:
		return "accept"
	default:
		return "error"
	}
}
