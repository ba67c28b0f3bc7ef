// Package llparse is an LL(1) driver: a recursive-descent parser that
// walks an ebnf.Grammar directly, guided by each node's precomputed
// Expect set rather than a generated table.
package llparse

import (
	"fmt"
	"io"

	"github.com/hollowloci/parsekit/ebnf"
	"github.com/hollowloci/parsekit/errs"
	"github.com/hollowloci/parsekit/scanner"
	"github.com/hollowloci/parsekit/symbol"
	"github.com/hollowloci/parsekit/tree"
)

// Action is a semantic action invoked once a rule's Alt has been fully
// matched. values holds one entry per Seq element the rule's winning
// alternative parsed, in order; leaves contribute their scanned text,
// Opt/Some contribute their own sub-results (nil if an Opt didn't match).
// An action returning an *errs.Fatal aborts the parse; any other error is
// recorded and the parser continues as if the action had returned nil.
type Action func(values []interface{}) (interface{}, error)

// Parser drives one parse of a token stream against a grammar.
type Parser struct {
	g       *ebnf.Grammar
	toks    []scanner.Tuple
	pos     int
	actions map[string]Action
	trace   io.Writer

	errs []*errs.SpecError
}

// New creates a parser for toks (the output of scanner.Scan) over g. g must
// already have had Expect and Check run.
func New(g *ebnf.Grammar, toks []scanner.Tuple) *Parser {
	return &Parser{g: g, toks: toks, actions: map[string]Action{}}
}

// SetAction registers the semantic action for the rule named ruleName.
func (p *Parser) SetAction(ruleName string, fn Action) {
	p.actions[ruleName] = fn
}

// Trace sends one line per node entered/matched to w.
func (p *Parser) Trace(w io.Writer) { p.trace = w }

// Errors returns every recoverable action error collected so far.
func (p *Parser) Errors() errs.SpecErrors { return errs.SpecErrors(p.errs) }

func (p *Parser) cur() scanner.Tuple { return p.toks[p.pos] }

func (p *Parser) advance() scanner.Tuple {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// Parse runs the start rule to completion and expects to see $eof
// immediately afterward.
func (p *Parser) Parse() (interface{}, *tree.Node, error) {
	start := p.g.Start()
	if start == nil {
		return nil, nil, fmt.Errorf("grammar has no start rule")
	}
	val, node, err := p.parseRule(start)
	if err != nil {
		return nil, nil, err
	}
	if !p.cur().Terminal.IsEOF() {
		return nil, nil, p.unexpected()
	}
	return val, node, nil
}

func (p *Parser) unexpected() *errs.SpecError {
	return &errs.SpecError{
		Cause:  errs.CauseParseUnexpected,
		Detail: p.cur().Terminal.String(),
		Row:    p.cur().Line,
	}
}

func (p *Parser) parseRule(r *ebnf.Rule) (interface{}, *tree.Node, error) {
	if p.trace != nil {
		fmt.Fprintf(p.trace, "enter %v\n", r.NT.Name)
	}
	values, child, err := p.parseAlt(r.Alt)
	if err != nil {
		return nil, nil, err
	}
	node := &tree.Node{KindName: r.NT.Name, Children: flattenChildren(child)}

	fn, ok := p.actions[r.ActionName]
	if !ok {
		return nil, node, nil
	}
	val, err := fn(values)
	if err != nil {
		if f, ok := err.(*errs.Fatal); ok {
			return nil, nil, f
		}
		p.errs = append(p.errs, &errs.SpecError{
			Cause:  errs.CauseParseAction,
			Detail: err.Error(),
			Row:    p.cur().Line,
		})
		return nil, node, nil
	}
	return val, node, nil
}

// parseAlt picks the unique alternative whose Expect set contains the
// current token and parses it. Grammar analysis already guarantees the
// alternatives are pairwise disjoint for a correctly checked grammar.
func (p *Parser) parseAlt(alt *ebnf.Node) ([]interface{}, []*tree.Node, error) {
	cur := p.cur()
	for _, seq := range alt.Children {
		if seq.Expect.Has(cur.Terminal) {
			return p.parseSeq(seq)
		}
	}
	return nil, nil, p.unexpected()
}

func (p *Parser) parseSeq(seq *ebnf.Node) ([]interface{}, []*tree.Node, error) {
	var values []interface{}
	var nodes []*tree.Node
	for _, c := range seq.Children {
		val, node, err := p.parseElem(c)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, val)
		nodes = append(nodes, node...)
	}
	return values, nodes, nil
}

// parseElem parses one Seq element and returns its contribution to the
// parent's value list plus the CST node(s) it produced.
func (p *Parser) parseElem(n *ebnf.Node) (interface{}, []*tree.Node, error) {
	switch n.Kind {
	case ebnf.KindLit, ebnf.KindToken:
		return p.parseLeaf(n)
	case ebnf.KindNT:
		r, ok := p.g.Rule(n.NT)
		if !ok {
			return nil, nil, fmt.Errorf("undefined non-terminal %v", n.NT.Name)
		}
		val, node, err := p.parseRule(r)
		if err != nil {
			return nil, nil, err
		}
		return val, []*tree.Node{node}, nil
	case ebnf.KindOpt:
		if !n.Expect.Has(p.cur().Terminal) {
			return nil, nil, nil
		}
		val, nodes, err := p.parseAlt(n)
		return val, nodes, err
	case ebnf.KindSome:
		// One or more iterations: the first is required, further ones
		// run while the lookahead can start another.
		var all []interface{}
		var nodes []*tree.Node
		for {
			val, got, err := p.parseAlt(n)
			if err != nil {
				return nil, nil, err
			}
			all = append(all, val)
			nodes = append(nodes, got...)
			if !n.Expect.Has(p.cur().Terminal) {
				break
			}
		}
		return all, nodes, nil
	default:
		return nil, nil, fmt.Errorf("unexpected node kind %v in sequence", n.Kind)
	}
}

func (p *Parser) parseLeaf(n *ebnf.Node) (interface{}, []*tree.Node, error) {
	cur := p.cur()
	if cur.Terminal != n.Term {
		return nil, nil, p.unexpected()
	}
	tok := p.advance()
	name := leafName(n.Term)
	if p.trace != nil {
		fmt.Fprintf(p.trace, "match %v %q\n", name, tok.Value)
	}
	return tok.Value, []*tree.Node{tree.Leaf(name, tok.Value, tok.Line, 0)}, nil
}

func leafName(t *symbol.Terminal) string {
	if t.Kind == symbol.KindLiteral {
		return t.Value
	}
	return t.Name
}

func flattenChildren(nodes []*tree.Node) []*tree.Node {
	out := make([]*tree.Node, 0, len(nodes))
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
