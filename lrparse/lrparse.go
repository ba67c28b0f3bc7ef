// Package lrparse is a table-driven LR parser: a shift/reduce/goto stack
// machine over a lr.Table, with panic-mode recovery through the reserved
// $error token layered on top of the usual push/pop/shift/reduce loop.
package lrparse

import (
	"fmt"
	"io"

	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/hollowloci/parsekit/bnf"
	"github.com/hollowloci/parsekit/errs"
	"github.com/hollowloci/parsekit/lr"
	"github.com/hollowloci/parsekit/scanner"
	"github.com/hollowloci/parsekit/symbol"
	"github.com/hollowloci/parsekit/tree"
)

// Reducer is invoked once a production's RHS has been fully matched, with
// one value per RHS symbol (each a leaf token value or a prior Reducer's
// result). Registered per-production-number; productions with no reducer
// simply carry a nil value upward.
type Reducer func(values []interface{}) (interface{}, error)

// Parser drives one parse of a token stream against a built Table.
type Parser struct {
	tab   *lr.Table
	toks  []scanner.Tuple
	pos   int
	trace io.Writer

	reducers map[int]Reducer

	errCount int
}

// New creates a parser for toks over tab.
func New(tab *lr.Table, toks []scanner.Tuple) *Parser {
	return &Parser{tab: tab, toks: toks, reducers: map[int]Reducer{}}
}

// SetReducer registers the reduction action for production prod.Num.
func (p *Parser) SetReducer(prod *bnf.Production, fn Reducer) {
	p.reducers[prod.Num] = fn
}

func (p *Parser) Trace(w io.Writer) { p.trace = w }

// ErrorCount returns how many times panic-mode recovery was triggered,
// plus how many recoverable reducer errors were recorded.
func (p *Parser) ErrorCount() int { return p.errCount }

type stateFrame struct {
	state int
	value interface{}
	node  *tree.Node
}

func (p *Parser) cur() scanner.Tuple { return p.toks[p.pos] }

func (p *Parser) advance() scanner.Tuple {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// Parse runs the shift/reduce/goto loop to completion. On an unexpected
// token it attempts panic-mode recovery: pop states until
// one has a shift action on the reserved $error token, shift it, then
// discard input tokens until one is found in that state's action row (or
// $eof is reached, in which case parsing fails for good).
func (p *Parser) Parse() (interface{}, *tree.Node, error) {
	stack := arraystack.New()
	stack.Push(&stateFrame{state: p.tab.Automaton.States[0].Num})

	for {
		top, _ := stack.Peek()
		frame := top.(*stateFrame)

		tok := p.cur()
		act, ok := p.tab.Action[frame.state][tok.Terminal]
		if !ok {
			// An illegal character (tok.Terminal == nil) is just another kind
			// of unexpected lookahead: panic-mode recovery discards input
			// tokens, illegal or not, until one lands in the current state's
			// action row, so it goes through the same path rather than
			// aborting the parse outright.
			if err := p.recover(stack); err != nil {
				return nil, nil, err
			}
			p.errCount++
			continue
		}

		switch act.Type {
		case lr.ActionShift:
			p.advance()
			name := leafName(tok.Terminal)
			stack.Push(&stateFrame{
				state: act.NextState,
				value: tok.Value,
				node:  tree.Leaf(name, tok.Value, tok.Line, 0),
			})

		case lr.ActionReduce:
			val, node, err := p.reduce(stack, act.Production)
			if err != nil {
				if f, ok := err.(*errs.Fatal); ok {
					return nil, nil, f
				}
				p.errCount++
				err = nil
			}
			top, _ := stack.Peek()
			gotoState := p.tab.Goto[top.(*stateFrame).state][act.Production.LHS]
			stack.Push(&stateFrame{state: gotoState, value: val, node: node})

		case lr.ActionAccept:
			top, _ := stack.Peek()
			f := top.(*stateFrame)
			return f.value, f.node, nil

		default:
			return nil, nil, &errs.SpecError{Cause: errs.CauseParseUnexpected, Detail: tok.Terminal.String(), Row: tok.Line}
		}
	}
}

// reduce pops len(prod.RHS) frames, runs the registered Reducer (if any),
// and returns the result plus its CST node.
func (p *Parser) reduce(stack *arraystack.Stack, prod *bnf.Production) (interface{}, *tree.Node, error) {
	n := len(prod.RHS)
	values := make([]interface{}, n)
	var children []*tree.Node
	for i := n - 1; i >= 0; i-- {
		top, _ := stack.Pop()
		f := top.(*stateFrame)
		values[i] = f.value
		if f.node != nil {
			children = append([]*tree.Node{f.node}, children...)
		}
	}

	node := &tree.Node{KindName: prod.LHS.Name, Children: children}

	fn, ok := p.reducers[prod.Num]
	if !ok {
		return nil, node, nil
	}
	val, err := fn(values)
	if err != nil {
		return nil, node, err
	}
	return val, node, nil
}

// recover implements panic-mode error recovery: pop state frames until one
// offers a shift on $error, push that shift, then discard input tokens
// until the resulting state accepts one (or input runs out).
func (p *Parser) recover(stack *arraystack.Stack) error {
	errTok := errorTerminalFrom(p.tab)
	if errTok == nil {
		return &errs.SpecError{Cause: errs.CauseParseUnexpected, Detail: p.cur().Terminal.String(), Row: p.cur().Line}
	}

	for {
		top, ok := stack.Peek()
		if !ok {
			return &errs.SpecError{Cause: errs.CauseParseUnexpected, Row: p.cur().Line, Detail: "no state can recover from $error"}
		}
		frame := top.(*stateFrame)
		if act, ok := p.tab.Action[frame.state][errTok]; ok && act.Type == lr.ActionShift {
			stack.Push(&stateFrame{state: act.NextState, node: tree.Leaf("$error", "", p.cur().Line, 0)})
			break
		}
		if stack.Size() == 1 {
			return &errs.SpecError{Cause: errs.CauseParseUnexpected, Row: p.cur().Line, Detail: "no state can recover from $error"}
		}
		stack.Pop()
	}

	for {
		top, _ := stack.Peek()
		frame := top.(*stateFrame)
		tok := p.cur()
		if _, ok := p.tab.Action[frame.state][tok.Terminal]; ok {
			if p.trace != nil {
				fmt.Fprintf(p.trace, "recovered at line %d on %v\n", tok.Line, tok.Terminal)
			}
			return nil
		}
		if tok.Terminal != nil && tok.Terminal.IsEOF() {
			return &errs.SpecError{Cause: errs.CauseParseUnexpected, Row: tok.Line, Detail: "reached end of input while recovering"}
		}
		p.advance()
	}
}

func errorTerminalFrom(tab *lr.Table) *symbol.Terminal {
	return tab.Grammar.Inv.ErrorToken()
}

func leafName(t *symbol.Terminal) string {
	if t == nil {
		return "?"
	}
	if t.Kind == symbol.KindLiteral {
		return t.Value
	}
	return t.Name
}
