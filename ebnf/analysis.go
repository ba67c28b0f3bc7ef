package ebnf

import (
	"github.com/hollowloci/parsekit/errs"
	"github.com/hollowloci/parsekit/symbol"
)

// Expect computes the shallow lookahead set (FIRST set, in the classical
// vocabulary) of every node and rule in the grammar, detecting left
// recursion along the way. It must run before Check.
func (g *Grammar) Expect() errs.SpecErrors {
	if g.expectDone {
		return nil
	}
	var out errs.SpecErrors

	visiting := map[*Rule]bool{}
	var expectOf func(n *Node) TermSet
	expectOf = func(n *Node) TermSet {
		if n.expectDone {
			return n.Expect
		}
		switch n.Kind {
		case KindLit, KindToken:
			n.Expect = NewTermSet(n.Term)
		case KindNT:
			r, ok := g.rules[n.NT.Name]
			if !ok {
				n.Expect = NewTermSet()
				break
			}
			if visiting[r] {
				r.recursive = true
				out = append(out, &errs.SpecError{Cause: errs.CauseLeftRecursion, Detail: r.NT.Name})
				n.Expect = NewTermSet()
				break
			}
			visiting[r] = true
			n.Expect = expectOf(r.Alt)
			delete(visiting, r)
		case KindAlt, KindOpt, KindSome:
			s := NewTermSet()
			for _, c := range n.Children {
				s = s.Union(expectOf(c))
			}
			n.Expect = s
		case KindSeq:
			// A sequence's Expect is its first element's Expect, unless
			// that element is an Opt, in which case the following
			// elements also contribute (the Opt may derive nothing; a
			// Some always derives at least one iteration).
			s := NewTermSet()
			for _, c := range n.Children {
				s = s.Union(expectOf(c))
				if c.Kind != KindOpt {
					break
				}
			}
			n.Expect = s
		}
		n.expectDone = true
		return n.Expect
	}

	for _, r := range g.order {
		visiting[r] = true
		expectOf(r.Alt)
		delete(visiting, r)
	}
	// The pass above stops inside each Seq at its first non-optional
	// element; walk every rule body once more so the remaining elements
	// (and everything nested in them) get their Expect too.
	for _, r := range g.order {
		Walk(r.Alt, func(n *Node) { expectOf(n) })
	}

	g.expectDone = true
	out = append(out, g.undefinedNonTerminals()...)
	return out
}

// Check runs the deep/follow fixpoint pass, marks reachability from the
// start rule, and reports the EBNF-level ambiguity conditions: an Alt
// whose alternatives' Expect sets are not pairwise disjoint, or an
// Opt/Some whose Expect collides with its own Follow. Expect must have
// already run.
func (g *Grammar) Check() errs.SpecErrors {
	if g.checkDone {
		return nil
	}
	g.checkDone = true
	if !g.expectDone {
		g.Expect()
	}

	var out errs.SpecErrors
	if g.start == nil {
		return out
	}

	// foldSeq propagates follow right-to-left through a Seq's children,
	// folding in an outer follow set ctx for the sequence as a whole, and
	// returns the set that should flow to whatever precedes this Seq (its
	// own Expect, widened past any leading Opt children that may derive
	// nothing).
	var foldSeq func(seq *Node, ctx TermSet) TermSet
	var visitNT func(n *Node, follow TermSet)

	foldSeq = func(seq *Node, ctx TermSet) TermSet {
		acc := ctx
		for i := len(seq.Children) - 1; i >= 0; i-- {
			c := seq.Children[i]
			c.Follow = acc.Clone()
			switch c.Kind {
			case KindOpt:
				for _, alt := range c.Children {
					foldSeq(alt, acc)
				}
				// acc is unchanged: an Opt either derives nothing (the
				// elements after it then see exactly ctx/acc, same as if
				// the Opt weren't there) or derives once, never looping
				// back on its own Expect.
			case KindSome:
				// A Some may repeat, so its own body's Follow must admit
				// both what follows the whole construct (acc) and another
				// iteration of itself (c.Expect) — the body can be
				// followed by itself. c.Follow (used by the ambiguity
				// check below) stays the plain acc set at the top of this
				// loop iteration: that check asks whether the lookahead
				// that starts another iteration could be confused with
				// the lookahead that ends the Some, which is exactly
				// Expect vs. the un-widened follow.
				loop := acc.Union(c.Expect)
				for _, alt := range c.Children {
					foldSeq(alt, loop)
				}
				// At least one iteration always runs, so whatever
				// precedes the Some sees only its Expect.
				acc = c.Expect.Clone()
			case KindAlt:
				for _, alt := range c.Children {
					foldSeq(alt, acc)
				}
				acc = c.Expect.Clone()
			case KindNT:
				visitNT(c, acc)
				acc = c.Expect.Clone()
			default:
				acc = c.Expect.Clone()
			}
		}
		return acc
	}

	ruleFollow := map[*Rule]TermSet{}
	for _, r := range g.order {
		ruleFollow[r] = NewTermSet()
	}
	changed := true

	visitNT = func(n *Node, follow TermSet) {
		r, ok := g.rules[n.NT.Name]
		if !ok {
			return
		}
		before := ruleFollow[r]
		merged := before.Union(follow)
		if len(merged) == len(before) {
			return
		}
		ruleFollow[r] = merged
		changed = true
	}

	reached := map[*Rule]bool{}

	// Fixpoint: a rule's Follow can grow as more call sites are
	// discovered (a rule may be referenced from several places), and
	// growth must be re-propagated through its body. Reachability grows
	// monotonically alongside it, so both settle in the same loop.
	ruleFollow[g.start] = NewTermSet()
	reached[g.start] = true
	g.start.reached = true
	for changed {
		changed = false
		for _, r := range g.order {
			if !reached[r] {
				continue
			}
			for _, alt := range r.Alt.Children {
				foldSeq(alt, ruleFollow[r])
			}
			for _, callee := range calleesOf(r) {
				cr, ok := g.rules[callee.Name]
				if ok && !reached[cr] {
					reached[cr] = true
					cr.reached = true
					changed = true
				}
			}
		}
	}

	for _, r := range g.order {
		if !r.reached {
			out = append(out, &errs.SpecError{Cause: errs.CauseUnreachable, Detail: r.NT.Name})
			continue
		}
		Walk(r.Alt, func(n *Node) {
			switch n.Kind {
			case KindAlt:
				out = append(out, checkDisjoint(n)...)
			case KindOpt:
				if n.Expect.Intersects(n.Follow) {
					out = append(out, &errs.SpecError{Cause: errs.CauseAmbiguousOpt, Detail: r.NT.Name})
				}
			case KindSome:
				if n.Expect.Intersects(n.Follow) {
					out = append(out, &errs.SpecError{Cause: errs.CauseAmbiguousSome, Detail: r.NT.Name})
				}
			}
		})
	}

	return out
}

// calleesOf returns the non-terminals referenced anywhere in r's body.
func calleesOf(r *Rule) []*symbol.NonTerminal {
	var out []*symbol.NonTerminal
	Walk(r.Alt, func(n *Node) {
		if n.Kind == KindNT {
			out = append(out, n.NT)
		}
	})
	return out
}

// checkDisjoint reports an ambiguity error if alt's alternative sequences
// don't have pairwise-disjoint Expect sets.
func checkDisjoint(alt *Node) errs.SpecErrors {
	var out errs.SpecErrors
	for i := 0; i < len(alt.Children); i++ {
		for j := i + 1; j < len(alt.Children); j++ {
			if alt.Children[i].Expect.Intersects(alt.Children[j].Expect) {
				out = append(out, &errs.SpecError{Cause: errs.CauseAmbiguousAlt})
				return out
			}
		}
	}
	return out
}
