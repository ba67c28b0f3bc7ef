// Package lower is the EBNF-to-BNF translator: it synthesizes fresh
// auxiliary non-terminals for every `[...]` (Opt) and `{...}` (Some)
// construct in an ebnf.Grammar and emits a flat bnf.Grammar with one
// production per alternative, plus a Reducer per synthesized production
// so a table-driven parse over the result can rebuild values shaped the
// same way the direct EBNF walker (package llparse) would for the same
// input: an Opt contributes nil or its matched alternative's value list,
// and a Some contributes one []interface{} entry per iteration.
package lower

import (
	"fmt"

	"github.com/hollowloci/parsekit/bnf"
	"github.com/hollowloci/parsekit/ebnf"
	"github.com/hollowloci/parsekit/symbol"
)

// auxPrefix marks synthesized non-terminals, reserved so user grammar text
// can never collide with one.
const auxPrefix = "$"

// Reducer rebuilds a production's value from its RHS symbols' own values,
// the same contract as llparse.Action: one entry per RHS symbol, a
// terminal contributing its scanned text and a non-terminal contributing
// whatever its own reduction produced.
type Reducer func(values []interface{}) (interface{}, error)

// Lower translates g into an equivalent bnf.Grammar. g must already have
// had Expect and Check run. The returned grammar's start non-terminal is
// g's start rule's non-terminal. The returned map holds a Reducer for
// every synthesized Opt/Some production, keyed by the production's Num
// in the returned grammar; productions carried over from g's own rules
// have no entry (a table-driven parser registers its own actions for
// those, same as it would against the EBNF walker).
func Lower(g *ebnf.Grammar) (*bnf.Grammar, map[int]Reducer, error) {
	if g.Start() == nil {
		return nil, nil, fmt.Errorf("grammar has no start rule")
	}

	l := &lowerer{src: g, inv: g.Inv, reducers: map[*bnf.Production]Reducer{}}

	for _, r := range g.Rules() {
		l.lowerRule(r)
	}

	bg := bnf.New(g.Inv, g.Start().NT, l.prods)

	byNum := make(map[int]Reducer, len(l.reducers))
	for prod, fn := range l.reducers {
		byNum[prod.Num] = fn
	}
	return bg, byNum, nil
}

type lowerer struct {
	src      *ebnf.Grammar
	inv      *symbol.Inventory
	prods    []*bnf.Production
	reducers map[*bnf.Production]Reducer
	auxN     int
}

// addProd appends a production and returns it so the caller can register
// a Reducer against it.
func (l *lowerer) addProd(lhs *symbol.NonTerminal, rhs []bnf.Symbol, prec *symbol.Terminal) *bnf.Production {
	var lvl *symbol.Level
	if prec != nil {
		lvl = prec.Prec
	} else {
		lvl = precedenceOf(rhs)
	}
	p := &bnf.Production{LHS: lhs, RHS: rhs, Prec: lvl}
	l.prods = append(l.prods, p)
	return p
}

func (l *lowerer) setReducer(p *bnf.Production, fn Reducer) {
	l.reducers[p] = fn
}

// precedenceOf defaults a production's precedence to the rightmost RHS
// terminal carrying one.
func precedenceOf(rhs []bnf.Symbol) *symbol.Level {
	for i := len(rhs) - 1; i >= 0; i-- {
		if rhs[i].IsTerminal() && rhs[i].Term.Prec != nil {
			return rhs[i].Term.Prec
		}
	}
	return nil
}

func (l *lowerer) freshNT(base string) *symbol.NonTerminal {
	l.auxN++
	name := fmt.Sprintf("%s%s-%d", auxPrefix, base, l.auxN)
	nt, _ := l.inv.NT(name)
	return nt
}

// lowerRule emits one bnf.Production per alternative of r's Alt.
func (l *lowerer) lowerRule(r *ebnf.Rule) {
	for _, seq := range r.Alt.Children {
		rhs, prec := l.lowerSeq(seq, r.NT.Name)
		l.addProd(r.NT, rhs, prec)
	}
}

// lowerSeq flattens one Seq's elements into a RHS, synthesizing auxiliary
// non-terminals for any Opt/Some element along the way.
func (l *lowerer) lowerSeq(seq *ebnf.Node, base string) ([]bnf.Symbol, *symbol.Terminal) {
	var rhs []bnf.Symbol
	for _, c := range seq.Children {
		rhs = append(rhs, l.lowerElem(c, base))
	}
	return rhs, seqPrec(seq)
}

func seqPrec(seq *ebnf.Node) *symbol.Terminal {
	return seq.Prec
}

// identityValues packages a Reducer's RHS values into the single value
// an Opt/Some RHS symbol contributes upward: the plain values slice,
// matching how llparse.parseAlt's return value is handed to a Seq
// element that matched an alternative.
func identityValues(values []interface{}) (interface{}, error) {
	return append([]interface{}{}, values...), nil
}

// lowerElem lowers one Seq element to a single BNF symbol: leaves and NT
// references map directly, Opt/Some are replaced by a reference to a
// fresh auxiliary non-terminal whose own productions (and reducers) are
// emitted recursively.
func (l *lowerer) lowerElem(n *ebnf.Node, base string) bnf.Symbol {
	switch n.Kind {
	case ebnf.KindLit, ebnf.KindToken:
		return bnf.T(n.Term)
	case ebnf.KindNT:
		return bnf.N(n.NT)
	case ebnf.KindOpt:
		return bnf.N(l.lowerOpt(n, base))
	case ebnf.KindSome:
		return bnf.N(l.lowerSome(n, base))
	default:
		panic(fmt.Sprintf("lower: unexpected node kind %v as a sequence element", n.Kind))
	}
}

// lowerOpt synthesizes one auxiliary non-terminal for a `[...]` construct:
// one production per alternative (reduces to that alternative's value
// list) plus the empty alternative (reduces to nil, "matched nothing"),
// mirroring how llparse's Opt element contributes to its enclosing Seq.
func (l *lowerer) lowerOpt(n *ebnf.Node, base string) *symbol.NonTerminal {
	aux := l.freshNT(base)
	for _, alt := range n.Children {
		rhs, prec := l.lowerSeq(alt, base)
		p := l.addProd(aux, rhs, prec)
		l.setReducer(p, identityValues)
	}
	empty := l.addProd(aux, nil, nil) // the empty alternative: "[...]" may match nothing
	l.setReducer(empty, func(values []interface{}) (interface{}, error) { return nil, nil })
	return aux
}

// lowerSome synthesizes two auxiliary non-terminals for a `{...}`
// construct, left-recursive rather than right-recursive so the LR engine
// (which handles left recursion natively, unlike the LL walker) builds
// the list without growing the parse stack per iteration:
//
//	elem : rhs₁ | rhs₂ | ... ;                 -- one matched iteration
//	aux  : elem | aux elem ;                    -- one or more iterations
//
// elem's reducer returns the iteration's own value list (the same shape
// parseAlt returns for a matched alternative). aux's reducer flattens:
// the base case wraps the first iteration in a new []interface{}, and
// the recursive case appends the next iteration onto the accumulated
// list — so the whole aux reduces to exactly the []interface{} (one
// entry per iteration) that llparse's Some element would contribute.
func (l *lowerer) lowerSome(n *ebnf.Node, base string) *symbol.NonTerminal {
	elem := l.freshNT(base + "-elem")
	for _, alt := range n.Children {
		rhs, prec := l.lowerSeq(alt, base)
		p := l.addProd(elem, rhs, prec)
		l.setReducer(p, identityValues)
	}

	aux := l.freshNT(base)
	basePr := l.addProd(aux, []bnf.Symbol{bnf.N(elem)}, nil)
	l.setReducer(basePr, func(values []interface{}) (interface{}, error) {
		return []interface{}{values[0]}, nil
	})

	recPr := l.addProd(aux, []bnf.Symbol{bnf.N(aux), bnf.N(elem)}, nil)
	l.setReducer(recPr, func(values []interface{}) (interface{}, error) {
		prior, _ := values[0].([]interface{})
		return append(append([]interface{}{}, prior...), values[1]), nil
	})

	return aux
}
