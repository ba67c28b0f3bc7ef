package bootstrap

import (
	"fmt"
	"strings"

	"github.com/hollowloci/parsekit/ebnf"
	"github.com/hollowloci/parsekit/errs"
	"github.com/hollowloci/parsekit/llparse"
	"github.com/hollowloci/parsekit/scanner"
	"github.com/hollowloci/parsekit/symbol"
)

// Result is what Parse materializes from a grammar text: the target
// symbol inventory and the EBNF grammar built against it, ready for
// ebnf.Grammar.Expect/Check or lower.Lower.
type Result struct {
	Inv *symbol.Inventory
	G   *ebnf.Grammar
}

// builder accumulates a target grammar while the generic LL(1) engine
// walks the meta-grammar over a user's grammar text. Rule/level
// definitions mutate it directly (they have no useful return value of
// their own); expression-shaped meta-rules (term/elem/alt/seq) build and
// return ebnf.Node/*symbol.Terminal values the way a conventional
// parser's semantic actions would.
type builder struct {
	inv *symbol.Inventory
	g   *ebnf.Grammar
}

// Parse reads a grammar's external text form and materializes the target
// inventory and EBNF grammar it describes. The text form has no syntax of
// its own for declaring a token's pattern — every Token reference is a
// bare name — so tokens carries the name/pattern pairs to pre-register
// before the rule bodies are parsed; a bare name not found there is
// taken to be a (possibly forward-declared) non-terminal instead.
// Errors raised by a semantic action (malformed pattern, duplicate
// symbol, unknown %prec terminal) are returned as
// *errs.SpecError/SpecErrors; a malformed grammar text itself surfaces as
// a parse error from the underlying llparse.Parser.
func Parse(text string, tokens map[string]string) (*Result, error) {
	meta, terms, err := newMetaGrammar()
	if err != nil {
		return nil, err
	}
	if errs := meta.Expect(); len(errs) > 0 {
		return nil, errs
	}
	if errs := meta.Check(); len(errs) > 0 {
		return nil, errs
	}

	sc, err := scanner.Build(meta.Inv, skipPattern)
	if err != nil {
		return nil, err
	}
	toks, err := sc.Scan(text)
	if err != nil {
		return nil, err
	}

	b := &builder{inv: symbol.New()}
	b.g = ebnf.New(b.inv)
	for name, pattern := range tokens {
		if _, err := b.inv.Token(name, pattern); err != nil {
			return nil, err
		}
	}

	p := llparse.New(meta, toks)
	b.wire(p, terms)

	if _, _, err := p.Parse(); err != nil {
		return nil, err
	}
	if len(p.Errors()) > 0 {
		return nil, p.Errors()
	}

	return &Result{Inv: b.inv, G: b.g}, nil
}

// element is an intermediate value produced by the "elem" meta-rule: it is
// either a finished ebnf.Node (bracket forms) or a bare scanned token whose
// literal-vs-identifier interpretation is resolved once we know which
// rule it's attached to (a bare name can denote a literal, a token, the
// reserved $error terminal, or a non-terminal reference depending on how
// it was declared).
type element struct {
	node *ebnf.Node // non-nil for '[' ... ']' / '{' ... '}'
	text string     // non-empty for a bare Lit/Token leaf
}

func (b *builder) wire(p *llparse.Parser, t *metaTerminals) {
	p.SetAction("level", func(v []interface{}) (interface{}, error) {
		var assoc symbol.Assoc
		switch v[0].(string) {
		case "%left":
			assoc = symbol.AssocLeft
		case "%right":
			assoc = symbol.AssocRight
		default:
			assoc = symbol.AssocNone
		}
		var termList []*symbol.Terminal
		for _, raw := range v[1].([]interface{}) {
			// each iteration is a one-element "term" sequence: unwrap it.
			term, err := b.resolveTerm(raw.([]interface{})[0].(string))
			if err != nil {
				return nil, err
			}
			termList = append(termList, term)
		}
		if _, err := b.inv.Precedence(assoc, termList); err != nil {
			return nil, err
		}
		return nil, nil
	})

	p.SetAction("term", func(v []interface{}) (interface{}, error) {
		return v[0].(string), nil
	})

	p.SetAction("elem", func(v []interface{}) (interface{}, error) {
		if len(v) == 1 {
			return element{text: v[0].(string)}, nil
		}
		open := v[0].(string)
		seqs := v[1].([]*ebnf.Node)
		var node *ebnf.Node
		var err error
		if open == "[" {
			node, err = b.g.Opt(seqs)
		} else {
			node, err = b.g.Some(seqs)
		}
		if err != nil {
			return nil, err
		}
		return element{node: node}, nil
	})

	p.SetAction("seq", func(v []interface{}) (interface{}, error) {
		var children []*ebnf.Node
		for _, raw := range v[0].([]interface{}) {
			// each iteration is a one-element "elem" sequence: unwrap it.
			el := raw.([]interface{})[0].(element)
			n, err := b.resolveElement(el)
			if err != nil {
				return nil, err
			}
			children = append(children, n)
		}
		var prec *symbol.Terminal
		if opt, ok := v[1].([]interface{}); ok && len(opt) == 2 {
			term, err := b.resolveTerm(opt[1].(string))
			if err != nil {
				return nil, err
			}
			prec = term
		}
		return b.g.Seq(children, prec)
	})

	p.SetAction("alt", func(v []interface{}) (interface{}, error) {
		seqs := []*ebnf.Node{v[0].(*ebnf.Node)}
		if opt, ok := v[1].([]interface{}); ok && len(opt) == 1 {
			for _, raw := range opt[0].([]interface{}) {
				// each iteration is a "'|' seq" pair: take the seq half.
				pair := raw.([]interface{})
				seqs = append(seqs, pair[1].(*ebnf.Node))
			}
		}
		return seqs, nil
	})

	p.SetAction("rule", func(v []interface{}) (interface{}, error) {
		name := v[0].(string)
		nt, err := b.inv.NT(name)
		if err != nil {
			return nil, err
		}
		alt, err := b.g.Alt(v[2].([]*ebnf.Node))
		if err != nil {
			return nil, err
		}
		if _, err := b.g.DefineRule(nt, alt); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// resolveElement turns an "elem" value into a Node: bracket forms are
// already Nodes, a bare text is a literal if it's quoted, the reserved
// $error terminal if that's what it spells, otherwise a token if that
// name is already a declared token, otherwise a reference to a (possibly
// forward-declared) non-terminal.
func (b *builder) resolveElement(el element) (*ebnf.Node, error) {
	if el.node != nil {
		return el.node, nil
	}
	if strings.HasPrefix(el.text, "'") {
		t, err := b.inv.Lit(unquote(el.text))
		if err != nil {
			return nil, err
		}
		return b.g.Lit(t), nil
	}
	if el.text == "$error" {
		return b.g.Token(b.inv.ErrorToken()), nil
	}
	if t, ok := b.inv.LookupToken(el.text); ok {
		return b.g.Token(t), nil
	}
	nt, err := b.inv.NT(el.text)
	if err != nil {
		return nil, err
	}
	return b.g.Ref(nt), nil
}

// resolveTerm maps a term's scanned text (a bare Token name or a quoted
// literal) to the Terminal it names, for %prec overrides and precedence
// group declarations.
func (b *builder) resolveTerm(text string) (*symbol.Terminal, error) {
	if strings.HasPrefix(text, "'") {
		return b.inv.Lit(unquote(text))
	}
	if text == "$error" {
		return b.inv.ErrorToken(), nil
	}
	if t, ok := b.inv.LookupToken(text); ok {
		return t, nil
	}
	return nil, &errs.SpecError{Cause: errs.CauseUndefinedNT, Detail: fmt.Sprintf("undeclared token %q in precedence term", text)}
}

// unquote strips the surrounding quote characters and resolves the
// grammar text's two escapes (\\ and \<quote>).
func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	inner := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}
