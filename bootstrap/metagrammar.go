// Package bootstrap builds the meta-grammar that parses a grammar's own
// external text form and materializes it into a target ebnf.Grammar. The
// meta-grammar itself is assembled directly through the symbol.Inventory
// and ebnf.Grammar factory calls rather than parsed from text, avoiding
// the chicken-and-egg problem of needing a grammar parser to build the
// grammar parser.
package bootstrap

import (
	"github.com/hollowloci/parsekit/ebnf"
	"github.com/hollowloci/parsekit/symbol"
)

// metaTerminals bundles the meta-grammar's two lexical tokens, looked up
// by the actions that consume their scanned text.
type metaTerminals struct {
	tok *symbol.Terminal
	lit *symbol.Terminal
}

const (
	// tokenPattern matches a bare Token reference: an identifier, or the
	// reserved $error terminal written literally in a rule body.
	tokenPattern = `[A-Za-z][A-Za-z0-9_]*|\$error`
	// litPattern matches a single-quoted Lit, escaping only ' and \.
	litPattern  = `'(?:[^'\\]|\\['\\])+'`
	skipPattern = `(?:[ \t\r\n]+|#[^\n]*)`
)

// newMetaGrammar hand-builds the grammar text format:
//
//	grammar: [{ level }] { rule };
//	level:   ('%left'|'%right'|'%nonassoc') { term } ';';
//	rule:    Token ':' alt ';';
//	alt:     seq [{ '|' seq }];
//	seq:     { lit | ref | opt | some } [ '%prec' term ];
//	term:    lit | ref;
//	lit:     Lit;
//	ref:     Token;
//	opt:     '[' alt ']';
//	some:    '{' alt '}';
//
// There is no syntax anywhere in this text form for declaring a token's
// pattern: Token is always a bare reference. Patterns are supplied to
// Parse out of band (see source.go); whether a bare name resolves to a
// token or a non-terminal depends only on whether it was pre-registered.
func newMetaGrammar() (*ebnf.Grammar, *metaTerminals, error) {
	inv := symbol.New()
	g := ebnf.New(inv)

	tok, err := inv.Token("TOKEN", tokenPattern)
	if err != nil {
		return nil, nil, err
	}
	litTok, err := inv.Token("LIT", litPattern)
	if err != nil {
		return nil, nil, err
	}

	lit := func(s string) *symbol.Terminal {
		t, e := inv.Lit(s)
		if e != nil {
			err = e
		}
		return t
	}
	seq1 := func(n *ebnf.Node) *ebnf.Node {
		s, e := g.Seq([]*ebnf.Node{n}, nil)
		if e != nil {
			err = e
		}
		return s
	}

	ntGrammar, _ := inv.NT("grammar")
	ntLevel, _ := inv.NT("level")
	ntRule, _ := inv.NT("rule")
	ntAlt, _ := inv.NT("alt")
	ntSeq, _ := inv.NT("seq")
	ntTerm, _ := inv.NT("term")
	ntElem, _ := inv.NT("elem")
	if err != nil {
		return nil, nil, err
	}

	// grammar: [{ level }] { rule };
	someLevel, err := g.Some([]*ebnf.Node{seq1(g.Ref(ntLevel))})
	if err != nil {
		return nil, nil, err
	}
	optLevels, err := g.Opt([]*ebnf.Node{seq1(someLevel)})
	if err != nil {
		return nil, nil, err
	}
	someRule, err := g.Some([]*ebnf.Node{seq1(g.Ref(ntRule))})
	if err != nil {
		return nil, nil, err
	}
	grammarSeq, err := g.Seq([]*ebnf.Node{optLevels, someRule}, nil)
	if err != nil {
		return nil, nil, err
	}
	grammarAlt, err := g.Alt([]*ebnf.Node{grammarSeq})
	if err != nil {
		return nil, nil, err
	}
	if _, err := g.DefineRule(ntGrammar, grammarAlt); err != nil {
		return nil, nil, err
	}

	// level: ('%left'|'%right'|'%nonassoc') { term } ';';
	// Each associativity keyword gets its own alternative (rather than a
	// separate named choice non-terminal) since that is the shape the
	// production above actually describes.
	levelAlt, err := g.Alt([]*ebnf.Node{
		levelSeqFor(g, lit("%left"), ntTerm, lit(";"), &err),
		levelSeqFor(g, lit("%right"), ntTerm, lit(";"), &err),
		levelSeqFor(g, lit("%nonassoc"), ntTerm, lit(";"), &err),
	})
	if err != nil {
		return nil, nil, err
	}
	if _, err := g.DefineRule(ntLevel, levelAlt); err != nil {
		return nil, nil, err
	}

	// rule: Token ':' alt ';';
	ruleSeq, err := g.Seq([]*ebnf.Node{
		g.Token(tok), g.Lit(lit(":")), g.Ref(ntAlt), g.Lit(lit(";")),
	}, nil)
	if err != nil {
		return nil, nil, err
	}
	ruleAlt, err := g.Alt([]*ebnf.Node{ruleSeq})
	if err != nil {
		return nil, nil, err
	}
	if _, err := g.DefineRule(ntRule, ruleAlt); err != nil {
		return nil, nil, err
	}

	// alt: seq [{ '|' seq }];
	someBarSeq, err := g.Some([]*ebnf.Node{seq1OfTwo(g, lit("|"), ntSeq)})
	if err != nil {
		return nil, nil, err
	}
	optBarSeq, err := g.Opt([]*ebnf.Node{seq1(someBarSeq)})
	if err != nil {
		return nil, nil, err
	}
	altSeq, err := g.Seq([]*ebnf.Node{g.Ref(ntSeq), optBarSeq}, nil)
	if err != nil {
		return nil, nil, err
	}
	altAlt, err := g.Alt([]*ebnf.Node{altSeq})
	if err != nil {
		return nil, nil, err
	}
	if _, err := g.DefineRule(ntAlt, altAlt); err != nil {
		return nil, nil, err
	}

	// term: lit | ref;
	termAlt, err := g.Alt([]*ebnf.Node{seq1(g.Token(litTok)), seq1(g.Token(tok))})
	if err != nil {
		return nil, nil, err
	}
	if _, err := g.DefineRule(ntTerm, termAlt); err != nil {
		return nil, nil, err
	}

	// opt: '[' alt ']'; some: '{' alt '}'; elem: lit | ref | opt | some.
	optSeq, err := g.Seq([]*ebnf.Node{g.Lit(lit("[")), g.Ref(ntAlt), g.Lit(lit("]"))}, nil)
	if err != nil {
		return nil, nil, err
	}
	someSeq, err := g.Seq([]*ebnf.Node{g.Lit(lit("{")), g.Ref(ntAlt), g.Lit(lit("}"))}, nil)
	if err != nil {
		return nil, nil, err
	}
	elemAlt, err := g.Alt([]*ebnf.Node{
		seq1(g.Token(litTok)), seq1(g.Token(tok)), optSeq, someSeq,
	})
	if err != nil {
		return nil, nil, err
	}
	if _, err := g.DefineRule(ntElem, elemAlt); err != nil {
		return nil, nil, err
	}

	// seq: { lit | ref | opt | some } [ '%prec' term ];
	someElems, err := g.Some([]*ebnf.Node{seq1(g.Ref(ntElem))})
	if err != nil {
		return nil, nil, err
	}
	optPrec, err := g.Opt([]*ebnf.Node{seq1OfTwo(g, lit("%prec"), ntTerm)})
	if err != nil {
		return nil, nil, err
	}
	seqSeq, err := g.Seq([]*ebnf.Node{someElems, optPrec}, nil)
	if err != nil {
		return nil, nil, err
	}
	seqAlt, err := g.Alt([]*ebnf.Node{seqSeq})
	if err != nil {
		return nil, nil, err
	}
	if _, err := g.DefineRule(ntSeq, seqAlt); err != nil {
		return nil, nil, err
	}

	if err != nil {
		return nil, nil, err
	}
	return g, &metaTerminals{tok: tok, lit: litTok}, nil
}

// levelSeqFor builds one level alternative: kw { term } sep.
func levelSeqFor(g *ebnf.Grammar, kw *symbol.Terminal, ntTerm *symbol.NonTerminal, sep *symbol.Terminal, errp *error) *ebnf.Node {
	someTerms, err := g.Some([]*ebnf.Node{wrap1(g, g.Ref(ntTerm), errp)})
	if err != nil {
		*errp = err
	}
	s, err := g.Seq([]*ebnf.Node{g.Lit(kw), someTerms, g.Lit(sep)}, nil)
	if err != nil {
		*errp = err
	}
	return s
}

func wrap1(g *ebnf.Grammar, n *ebnf.Node, errp *error) *ebnf.Node {
	s, err := g.Seq([]*ebnf.Node{n}, nil)
	if err != nil {
		*errp = err
	}
	return s
}

// seq1OfTwo builds a one-element-list Seq wrapping "litTerm ref(nt)", used
// for the repeated "'|' seq"/"'%prec' term" shapes above.
func seq1OfTwo(g *ebnf.Grammar, litTerm *symbol.Terminal, nt *symbol.NonTerminal) *ebnf.Node {
	s, _ := g.Seq([]*ebnf.Node{g.Lit(litTerm), g.Ref(nt)}, nil)
	return s
}
