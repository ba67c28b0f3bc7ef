package lr

import (
	"errors"
	"sort"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"github.com/hollowloci/parsekit/bnf"
)

var errNoStartProduction = errors.New("grammar has no production for its start non-terminal")

// Automaton is the canonical collection of LR(0) states plus the
// transition function between them.
type Automaton struct {
	States  []*State
	start   int
	symKeys map[string]bnf.Symbol // symbol.key() -> symbol, for Next lookups
}

func symKey(s bnf.Symbol) string {
	if s.IsTerminal() {
		return "t:" + s.Term.String()
	}
	return "n:" + s.NT.Name
}

// Build runs the subset-construction closure/advance algorithm over g
// starting from its augmented start production (g.Start's sole
// production), producing the canonical collection of LR(0) states keyed
// by a sorted-core string rather than a binary kernel id.
func Build(g *bnf.Grammar) (*Automaton, error) {
	startProds := g.ProductionsFor(g.Start)
	if len(startProds) == 0 {
		return nil, errNoStartProduction
	}
	initialKernel := []Mark{{Prod: startProds[0], Dot: 0}}

	a := &Automaton{symKeys: map[string]bnf.Symbol{}}
	coreToNum := map[string]int{}
	var pending []int

	addState := func(kernel []Mark) int {
		c := core(kernel)
		if num, ok := coreToNum[c]; ok {
			return num
		}
		num := len(a.States)
		coreToNum[c] = num
		a.States = append(a.States, &State{Num: num, Kernel: kernel, Next: map[string]int{}})
		pending = append(pending, num)
		return num
	}

	a.start = addState(initialKernel)

	for len(pending) > 0 {
		num := pending[0]
		pending = pending[1:]
		st := a.States[num]
		st.Items = closure(st.Kernel, g)

		byNext := map[string][]Mark{}
		syms := linkedhashset.New()
		for _, item := range st.Items {
			sym, ok := item.Sym()
			if !ok {
				continue
			}
			k := symKey(sym)
			a.symKeys[k] = sym
			if !syms.Contains(k) {
				syms.Add(k)
			}
			byNext[k] = append(byNext[k], item.Advance())
		}

		keys := syms.Values()
		sortedKeys := make([]string, len(keys))
		for i, k := range keys {
			sortedKeys[i] = k.(string)
		}
		sort.Strings(sortedKeys)

		for _, k := range sortedKeys {
			nextNum := addState(dedupe(byNext[k]))
			st.Next[k] = nextNum
		}
	}

	return a, nil
}

// closure computes the closure of a kernel: repeatedly adding, for every
// item whose dotted symbol is a non-terminal, a dot-0 item for each of
// that non-terminal's productions.
func closure(kernel []Mark, g *bnf.Grammar) []Mark {
	var items []Mark
	seen := map[string]bool{}
	var queue []Mark
	for _, m := range kernel {
		items = append(items, m)
		queue = append(queue, m)
	}

	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		sym, ok := m.Sym()
		if !ok || sym.IsTerminal() {
			continue
		}
		for _, p := range g.ProductionsFor(sym.NT) {
			cand := Mark{Prod: p, Dot: 0}
			if seen[cand.key()] {
				continue
			}
			seen[cand.key()] = true
			items = append(items, cand)
			queue = append(queue, cand)
		}
	}
	return items
}

func dedupe(marks []Mark) []Mark {
	seen := map[string]bool{}
	var out []Mark
	for _, m := range marks {
		if seen[m.key()] {
			continue
		}
		seen[m.key()] = true
		out = append(out, m)
	}
	return out
}

// symbolOf is a small helper used by the table builder to recover a
// terminal from an automaton transition key.
func symbolOf(a *Automaton, key string) bnf.Symbol { return a.symKeys[key] }
