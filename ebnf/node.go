// Package ebnf is the EBNF grammar model: the rule tree with optional
// (`[...]`) and iteration (`{...}`) constructs, and the expect/follow
// analysis that backs both the LL(1) driver (package llparse) and the
// EBNF→BNF lowerer (package lower).
//
// Node is a tagged union rather than an interface hierarchy: the
// EBNF/BNF hierarchies are naturally tagged variants, so a sum type
// fits better here than class-style inheritance.
package ebnf

import "github.com/hollowloci/parsekit/symbol"

// Kind tags a Node's variant.
type Kind int

const (
	KindLit Kind = iota
	KindToken
	KindNT
	KindSeq
	KindAlt
	KindOpt
	KindSome
)

func (k Kind) String() string {
	switch k {
	case KindLit:
		return "lit"
	case KindToken:
		return "token"
	case KindNT:
		return "nt"
	case KindSeq:
		return "seq"
	case KindAlt:
		return "alt"
	case KindOpt:
		return "opt"
	case KindSome:
		return "some"
	default:
		return "?"
	}
}

// TermSet is a small set of terminals, used for both expect and follow.
type TermSet map[*symbol.Terminal]struct{}

func NewTermSet(ts ...*symbol.Terminal) TermSet {
	s := make(TermSet, len(ts))
	for _, t := range ts {
		s[t] = struct{}{}
	}
	return s
}

func (s TermSet) Add(t *symbol.Terminal) bool {
	if _, ok := s[t]; ok {
		return false
	}
	s[t] = struct{}{}
	return true
}

func (s TermSet) Has(t *symbol.Terminal) bool {
	_, ok := s[t]
	return ok
}

// Union returns a new set containing s and o.
func (s TermSet) Union(o TermSet) TermSet {
	out := make(TermSet, len(s)+len(o))
	for t := range s {
		out[t] = struct{}{}
	}
	for t := range o {
		out[t] = struct{}{}
	}
	return out
}

// Clone returns a shallow copy of s.
func (s TermSet) Clone() TermSet { return s.Union(nil) }

// Intersects reports whether s and o share any member.
func (s TermSet) Intersects(o TermSet) bool {
	small, big := s, o
	if len(big) < len(small) {
		small, big = big, small
	}
	for t := range small {
		if _, ok := big[t]; ok {
			return true
		}
	}
	return false
}

func (s TermSet) Slice() []*symbol.Terminal {
	out := make([]*symbol.Terminal, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}

// Node is one EBNF tree node: Lit | Token | NT | Seq | Alt | Opt | Some.
// Opt and Some reuse the Alt shape (one or more Seq children): same
// structure, different semantics.
type Node struct {
	Kind Kind

	// Lit/Token leaves.
	Term *symbol.Terminal

	// NT leaf: the referenced non-terminal. Its owning Rule is looked up
	// in the Grammar, not embedded here, to avoid a cyclic
	// Node-knows-Rule-knows-Node reference.
	NT *symbol.NonTerminal

	// Seq/Alt/Opt/Some: ordered children. For Seq these are the sequence
	// elements (lits/tokens/NTs/opts/somes); for Alt/Opt/Some these are
	// the alternative Seq children.
	Children []*Node

	// Prec is a Seq's optional `%prec` terminal override.
	Prec *symbol.Terminal

	Expect TermSet
	Follow TermSet

	expectDone bool
}

func litNode(t *symbol.Terminal) *Node  { return &Node{Kind: KindLit, Term: t} }
func tokenNode(t *symbol.Terminal) *Node { return &Node{Kind: KindToken, Term: t} }
func ntNode(n *symbol.NonTerminal) *Node { return &Node{Kind: KindNT, NT: n} }

// Rule attaches an Alt tree to an owning non-terminal.
type Rule struct {
	NT         *symbol.NonTerminal
	Alt        *Node // Kind == KindAlt
	ActionName string

	reached   bool
	recursive bool
}

func (r *Rule) String() string { return r.NT.Name }

// Walk visits n and every descendant in a pre-order traversal.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
