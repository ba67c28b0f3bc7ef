// Package bnf is the plain BNF grammar model: ordered-pair productions
// plus the first/follow/empty/finite/reached properties the LR table
// builder (package lr) needs.
package bnf

import "github.com/hollowloci/parsekit/symbol"

// Symbol is either a terminal or a non-terminal, tagged by which pointer is
// non-nil — the BNF model only ever needs to compare/hash these, never to
// dispatch on richer structure the way ebnf.Node does.
type Symbol struct {
	Term *symbol.Terminal
	NT   *symbol.NonTerminal
}

func T(t *symbol.Terminal) Symbol    { return Symbol{Term: t} }
func N(n *symbol.NonTerminal) Symbol { return Symbol{NT: n} }
func (s Symbol) IsTerminal() bool    { return s.Term != nil }
func (s Symbol) IsNonTerminal() bool { return s.NT != nil }

func (s Symbol) String() string {
	if s.IsTerminal() {
		return s.Term.String()
	}
	return s.NT.String()
}

// Production is one numbered rule: LHS -> RHS. Num is the production's
// index in the owning Grammar's Productions slice, used as a stable id by
// the LR item/table machinery.
type Production struct {
	Num  int
	LHS  *symbol.NonTerminal
	RHS  []Symbol
	Prec *symbol.Level // nil means "no declared/inherited precedence"
}

func (p *Production) IsEmpty() bool { return len(p.RHS) == 0 }

func (p *Production) String() string {
	s := p.LHS.String() + " ->"
	if p.IsEmpty() {
		return s + " ε"
	}
	for _, sym := range p.RHS {
		s += " " + sym.String()
	}
	return s
}

// Grammar is a finished BNF grammar: every production, grouped by LHS for
// the analyses below.
type Grammar struct {
	Inv   *symbol.Inventory
	Start *symbol.NonTerminal
	Prods []*Production

	byLHS map[string][]*Production
}

// New builds a Grammar from prods, assigning Num in slice order and
// indexing by LHS.
func New(inv *symbol.Inventory, start *symbol.NonTerminal, prods []*Production) *Grammar {
	g := &Grammar{Inv: inv, Start: start, byLHS: map[string][]*Production{}}
	for i, p := range prods {
		p.Num = i
		g.Prods = append(g.Prods, p)
		g.byLHS[p.LHS.Name] = append(g.byLHS[p.LHS.Name], p)
	}
	return g
}

// ProductionsFor returns every production whose LHS is nt.
func (g *Grammar) ProductionsFor(nt *symbol.NonTerminal) []*Production {
	return g.byLHS[nt.Name]
}

type entry struct {
	syms  map[Symbol]struct{}
	empty bool // first: "can derive ε"; follow: "can be followed by $eof"
}

func newEntry() *entry { return &entry{syms: map[Symbol]struct{}{}} }

func (e *entry) add(s Symbol) bool {
	if _, ok := e.syms[s]; ok {
		return false
	}
	e.syms[s] = struct{}{}
	return true
}

func (e *entry) addEmpty() bool {
	if e.empty {
		return false
	}
	e.empty = true
	return true
}

func (e *entry) mergeTerminals(o *entry) bool {
	if o == nil {
		return false
	}
	changed := false
	for s := range o.syms {
		if e.add(s) {
			changed = true
		}
	}
	return changed
}

// Sets holds the fixpoint results of First, Follow, Empty, Finite, and
// Reached, keyed by non-terminal name.
type Sets struct {
	first   map[string]*entry
	follow  map[string]*entry
	empty   map[string]bool
	finite  map[string]bool
	reached map[string]bool
}

// First returns the terminals that can begin a derivation of nt.
func (s *Sets) First(nt *symbol.NonTerminal) []*symbol.Terminal {
	return toTerminals(s.first[nt.Name])
}

// Follow returns the terminals that can immediately follow nt in some
// derivation from the start symbol.
func (s *Sets) Follow(nt *symbol.NonTerminal) []*symbol.Terminal {
	return toTerminals(s.follow[nt.Name])
}

// FollowHasEOF reports whether $eof can immediately follow nt.
func (s *Sets) FollowHasEOF(nt *symbol.NonTerminal) bool {
	e, ok := s.follow[nt.Name]
	return ok && e.empty
}

// Empty reports whether nt can derive the empty string.
func (s *Sets) Empty(nt *symbol.NonTerminal) bool { return s.empty[nt.Name] }

// Finite reports whether nt derives at least one string of finite length
// that contains no recursive reference to itself — i.e. its language isn't
// forced to be infinite by runaway recursion.
func (s *Sets) Finite(nt *symbol.NonTerminal) bool { return s.finite[nt.Name] }

// Reached reports whether nt is reachable from the grammar's start symbol.
func (s *Sets) Reached(nt *symbol.NonTerminal) bool { return s.reached[nt.Name] }

func toTerminals(e *entry) []*symbol.Terminal {
	if e == nil {
		return nil
	}
	out := make([]*symbol.Terminal, 0, len(e.syms))
	for s := range e.syms {
		if s.IsTerminal() {
			out = append(out, s.Term)
		}
	}
	return out
}

// Analyze computes First, Follow, Empty, Finite, and Reached for every
// non-terminal in g by iterative fixpoint over its symbol-indexed
// production sets.
func Analyze(g *Grammar) *Sets {
	s := &Sets{
		first:   map[string]*entry{},
		follow:  map[string]*entry{},
		empty:   map[string]bool{},
		finite:  map[string]bool{},
		reached: map[string]bool{},
	}
	for _, p := range g.Prods {
		if _, ok := s.first[p.LHS.Name]; !ok {
			s.first[p.LHS.Name] = newEntry()
			s.follow[p.LHS.Name] = newEntry()
		}
	}

	for {
		changed := false
		for _, p := range g.Prods {
			acc := s.first[p.LHS.Name]
			if genFirst(s, acc, p) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	for name, e := range s.first {
		s.empty[name] = e.empty
	}

	if g.Start != nil {
		s.follow[g.Start.Name].addEmpty()
	}
	for {
		changed := false
		for _, p := range g.Prods {
			if genFollow(s, p) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	markReached(g, s)
	markFinite(g, s)

	return s
}

// genFirst folds one production's contribution into its LHS's First entry,
// following the standard "first non-nullable symbol wins, everything
// before it (if nullable) also contributes" rule.
func genFirst(s *Sets, acc *entry, p *Production) bool {
	if p.IsEmpty() {
		return acc.addEmpty()
	}
	changed := false
	for _, sym := range p.RHS {
		if sym.IsTerminal() {
			if acc.add(sym) {
				changed = true
			}
			return changed
		}
		e := s.first[sym.NT.Name]
		if acc.mergeTerminals(e) {
			changed = true
		}
		if !e.empty {
			return changed
		}
	}
	if acc.addEmpty() {
		changed = true
	}
	return changed
}

// genFollow adds to each RHS non-terminal's Follow the First of the RHS
// suffix after it and, when that whole suffix is nullable (always true
// for the last symbol), p.LHS's Follow as well.
func genFollow(s *Sets, p *Production) bool {
	changed := false
	for i, sym := range p.RHS {
		if !sym.IsNonTerminal() {
			continue
		}
		acc := s.follow[sym.NT.Name]
		rest := p.RHS[i+1:]
		restFirst, restEmpty := firstOfSeq(s, rest)
		if acc.mergeTerminals(restFirst) {
			changed = true
		}
		if restEmpty {
			lhsFollow := s.follow[p.LHS.Name]
			if acc.mergeTerminals(lhsFollow) {
				changed = true
			}
			if lhsFollow.empty && acc.addEmpty() {
				changed = true
			}
		}
	}
	return changed
}

// firstOfSeq computes First of a RHS suffix and whether the whole suffix
// can derive ε.
func firstOfSeq(s *Sets, seq []Symbol) (*entry, bool) {
	acc := newEntry()
	for _, sym := range seq {
		if sym.IsTerminal() {
			acc.add(sym)
			return acc, false
		}
		e := s.first[sym.NT.Name]
		acc.mergeTerminals(e)
		if !e.empty {
			return acc, false
		}
	}
	return acc, true
}

func markReached(g *Grammar, s *Sets) {
	if g.Start == nil {
		return
	}
	var visit func(nt *symbol.NonTerminal)
	visit = func(nt *symbol.NonTerminal) {
		if s.reached[nt.Name] {
			return
		}
		s.reached[nt.Name] = true
		for _, p := range g.ProductionsFor(nt) {
			for _, sym := range p.RHS {
				if sym.IsNonTerminal() {
					visit(sym.NT)
				}
			}
		}
	}
	visit(g.Start)
}

// markFinite computes, for each non-terminal, whether it has at least one
// derivation that bottoms out without recursing back through itself,
// mirroring a depth-first "currently expanding" guard.
func markFinite(g *Grammar, s *Sets) {
	state := map[string]int{} // 0 unknown, 1 in progress, 2 finite, 3 infinite
	var visit func(name string) bool
	visit = func(name string) bool {
		switch state[name] {
		case 1:
			return false
		case 2:
			return true
		case 3:
			return false
		}
		state[name] = 1
		nt, _ := lookupNT(g, name)
		finite := false
		for _, p := range g.ProductionsFor(nt) {
			ok := true
			for _, sym := range p.RHS {
				if sym.IsNonTerminal() {
					if !visit(sym.NT.Name) {
						ok = false
						break
					}
				}
			}
			if ok {
				finite = true
				break
			}
		}
		if finite {
			state[name] = 2
		} else {
			state[name] = 3
		}
		return finite
	}
	for _, p := range g.Prods {
		s.finite[p.LHS.Name] = visit(p.LHS.Name)
	}
}

func lookupNT(g *Grammar, name string) (*symbol.NonTerminal, bool) {
	for _, p := range g.Prods {
		if p.LHS.Name == name {
			return p.LHS, true
		}
	}
	return nil, false
}
