package ebnf

import (
	"fmt"

	"github.com/hollowloci/parsekit/errs"
	"github.com/hollowloci/parsekit/symbol"
)

// Grammar is the EBNF rule set: one Rule per non-terminal, built
// incrementally by the bootstrap meta-grammar's actions (package
// bootstrap) or directly by Go code (as the bootstrap meta-grammar itself
// is, to break the circularity of using a grammar to parse grammars).
type Grammar struct {
	Inv *symbol.Inventory

	rules map[string]*Rule
	order []*Rule
	start *Rule

	expectDone bool
	checkDone  bool
}

// New creates an empty grammar over the given symbol inventory.
func New(inv *symbol.Inventory) *Grammar {
	return &Grammar{Inv: inv, rules: map[string]*Rule{}}
}

// Lit builds a leaf node referencing the literal terminal t.
func (g *Grammar) Lit(t *symbol.Terminal) *Node { return litNode(t) }

// Token builds a leaf node referencing the token terminal t.
func (g *Grammar) Token(t *symbol.Terminal) *Node { return tokenNode(t) }

// Ref builds a leaf node referencing the non-terminal n.
func (g *Grammar) Ref(n *symbol.NonTerminal) *Node { return ntNode(n) }

// Seq builds a sequence node. At least one child must not be an Opt node.
func (g *Grammar) Seq(children []*Node, prec *symbol.Terminal) (*Node, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("a sequence needs at least one element")
	}
	allOptional := true
	for _, c := range children {
		if c.Kind != KindOpt {
			allOptional = false
			break
		}
	}
	if allOptional {
		return nil, fmt.Errorf("a sequence must have at least one non-optional element")
	}
	return &Node{Kind: KindSeq, Children: children, Prec: prec}, nil
}

// Alt builds an alternation of one or more Seq nodes.
func (g *Grammar) Alt(seqs []*Node) (*Node, error) {
	if err := checkSeqChildren(seqs); err != nil {
		return nil, err
	}
	return &Node{Kind: KindAlt, Children: seqs}, nil
}

// Opt builds a zero-or-one construct ("[...]").
func (g *Grammar) Opt(seqs []*Node) (*Node, error) {
	if err := checkSeqChildren(seqs); err != nil {
		return nil, err
	}
	return &Node{Kind: KindOpt, Children: seqs}, nil
}

// Some builds a one-or-more construct ("{...}").
func (g *Grammar) Some(seqs []*Node) (*Node, error) {
	if err := checkSeqChildren(seqs); err != nil {
		return nil, err
	}
	return &Node{Kind: KindSome, Children: seqs}, nil
}

func checkSeqChildren(seqs []*Node) error {
	if len(seqs) == 0 {
		return fmt.Errorf("an alternation needs at least one alternative")
	}
	for _, s := range seqs {
		if s.Kind != KindSeq {
			return fmt.Errorf("alternation children must be sequences")
		}
	}
	return nil
}

// DefineRule attaches alt (a KindAlt node) to nt, becoming nt's one and
// only rule. The first rule defined becomes the grammar's start rule,
// matching the external grammar text's convention and the lowerer's own
// assumption that the start non-terminal is the first original rule's lhs.
func (g *Grammar) DefineRule(nt *symbol.NonTerminal, alt *Node) (*Rule, error) {
	if alt.Kind != KindAlt {
		return nil, fmt.Errorf("a rule's body must be an alternation")
	}
	if _, ok := g.rules[nt.Name]; ok {
		return nil, &errs.SpecError{Cause: errs.CauseDuplicateSymbol, Detail: nt.Name}
	}
	r := &Rule{NT: nt, Alt: alt, ActionName: nt.Name}
	g.rules[nt.Name] = r
	g.order = append(g.order, r)
	if g.start == nil {
		g.start = r
	}
	return r, nil
}

// Rule returns the rule defining nt, if any.
func (g *Grammar) Rule(nt *symbol.NonTerminal) (*Rule, bool) {
	r, ok := g.rules[nt.Name]
	return r, ok
}

// RuleByName returns the rule named name, if any.
func (g *Grammar) RuleByName(name string) (*Rule, bool) {
	r, ok := g.rules[name]
	return r, ok
}

// Rules returns every rule in definition order.
func (g *Grammar) Rules() []*Rule { return g.order }

// Start returns the grammar's start rule (the first one defined).
func (g *Grammar) Start() *Rule { return g.start }

// undefinedNonTerminals walks every rule looking for NT references that own
// no rule.
func (g *Grammar) undefinedNonTerminals() errs.SpecErrors {
	var out errs.SpecErrors
	seen := map[string]bool{}
	for _, r := range g.order {
		Walk(r.Alt, func(n *Node) {
			if n.Kind != KindNT {
				return
			}
			if _, ok := g.rules[n.NT.Name]; !ok && !seen[n.NT.Name] {
				seen[n.NT.Name] = true
				out = append(out, &errs.SpecError{Cause: errs.CauseUndefinedNT, Detail: n.NT.Name})
			}
		})
	}
	return out
}
