package ebnf

import (
	"testing"

	"github.com/hollowloci/parsekit/errs"
	"github.com/hollowloci/parsekit/symbol"
)

// buildListGrammar assembles:
//
//	list : Number { ',' Number } ;
//
// directly through the factory methods, the same way the bootstrap
// meta-grammar assembles itself without a textual parse.
func buildListGrammar(t *testing.T) (*Grammar, *symbol.Inventory, *symbol.Terminal, *symbol.Terminal) {
	t.Helper()
	inv := symbol.New()
	g := New(inv)

	number, err := inv.Token("Number", `[0-9]+`)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	comma, err := inv.Lit(",")
	if err != nil {
		t.Fatalf("Lit: %v", err)
	}
	list, err := inv.NT("list")
	if err != nil {
		t.Fatalf("NT: %v", err)
	}

	tailSeq, err := g.Seq([]*Node{g.Lit(comma), g.Token(number)}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	tail, err := g.Some([]*Node{tailSeq})
	if err != nil {
		t.Fatalf("Some: %v", err)
	}
	bodySeq, err := g.Seq([]*Node{g.Token(number), tail}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	alt, err := g.Alt([]*Node{bodySeq})
	if err != nil {
		t.Fatalf("Alt: %v", err)
	}
	if _, err := g.DefineRule(list, alt); err != nil {
		t.Fatalf("DefineRule: %v", err)
	}

	return g, inv, number, comma
}

func TestExpectAndCheckOnValidGrammar(t *testing.T) {
	g, _, number, _ := buildListGrammar(t)

	if errs := g.Expect(); len(errs) > 0 {
		t.Fatalf("Expect: unexpected errors: %v", errs)
	}
	if errs := g.Check(); len(errs) > 0 {
		t.Fatalf("Check: unexpected errors: %v", errs)
	}

	start := g.Start()
	if start == nil {
		t.Fatalf("Start() returned nil")
	}
	if !start.Alt.Children[0].Expect.Has(number) {
		t.Errorf("start rule's Expect set does not contain Number")
	}
}

func TestSeqRejectsAllOptional(t *testing.T) {
	inv := symbol.New()
	g := New(inv)

	a, _ := inv.Lit("a")
	opt, err := g.Opt([]*Node{mustSeq(t, g, g.Lit(a))})
	if err != nil {
		t.Fatalf("Opt: %v", err)
	}
	if _, err := g.Seq([]*Node{opt}, nil); err == nil {
		t.Fatalf("a sequence of only optional elements should have been rejected")
	}
}

func mustSeq(t *testing.T, g *Grammar, n *Node) *Node {
	t.Helper()
	s, err := g.Seq([]*Node{n}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	return s
}

func TestExpectDetectsLeftRecursion(t *testing.T) {
	inv := symbol.New()
	g := New(inv)

	plus, _ := inv.Lit("+")
	num, _ := inv.Token("Number", `[0-9]+`)
	expr, _ := inv.NT("expr")

	// expr : expr '+' Number | Number ;
	recSeq, err := g.Seq([]*Node{g.Ref(expr), g.Lit(plus), g.Token(num)}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	baseSeq, err := g.Seq([]*Node{g.Token(num)}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	alt, err := g.Alt([]*Node{recSeq, baseSeq})
	if err != nil {
		t.Fatalf("Alt: %v", err)
	}
	if _, err := g.DefineRule(expr, alt); err != nil {
		t.Fatalf("DefineRule: %v", err)
	}

	got := g.Expect()
	if len(got) != 1 {
		t.Fatalf("Expect() = %v, want exactly one left-recursion error", got)
	}
	if got[0].Cause != errs.CauseLeftRecursion {
		t.Errorf("Cause = %v, want %v", got[0].Cause, errs.CauseLeftRecursion)
	}
}

func TestCheckDetectsAmbiguousAlt(t *testing.T) {
	inv := symbol.New()
	g := New(inv)

	a, _ := inv.Lit("a")
	b, _ := inv.Lit("b")
	s, _ := inv.NT("s")

	// s : 'a' | 'a' 'b' ;  -- both alternatives start with 'a'.
	first, err := g.Seq([]*Node{g.Lit(a)}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	second, err := g.Seq([]*Node{g.Lit(a), g.Lit(b)}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	alt, err := g.Alt([]*Node{first, second})
	if err != nil {
		t.Fatalf("Alt: %v", err)
	}
	if _, err := g.DefineRule(s, alt); err != nil {
		t.Fatalf("DefineRule: %v", err)
	}

	if errs := g.Expect(); len(errs) > 0 {
		t.Fatalf("Expect: unexpected errors: %v", errs)
	}
	got := g.Check()
	if len(got) != 1 || got[0].Cause != errs.CauseAmbiguousAlt {
		t.Fatalf("Check() = %v, want exactly one ambiguous-alt error", got)
	}
}

func TestCheckDetectsAmbiguousOptNestedInSome(t *testing.T) {
	inv := symbol.New()
	g := New(inv)

	a, _ := inv.Lit("a")
	x, _ := inv.Lit("x")
	rule, _ := inv.NT("rule")

	// rule : { 'a' ['a'] } 'x' ; -- inside one iteration of the Some, the
	// trailing ['a'] can't tell "one more 'a'" (looping the Some) from
	// "stop" (the 'a' that would start the next iteration looks exactly
	// like what the Opt itself matches).
	optA, err := g.Opt([]*Node{mustSeq(t, g, g.Lit(a))})
	if err != nil {
		t.Fatalf("Opt: %v", err)
	}
	bodySeq, err := g.Seq([]*Node{g.Lit(a), optA}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	some, err := g.Some([]*Node{bodySeq})
	if err != nil {
		t.Fatalf("Some: %v", err)
	}
	outerSeq, err := g.Seq([]*Node{some, g.Lit(x)}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	alt, err := g.Alt([]*Node{outerSeq})
	if err != nil {
		t.Fatalf("Alt: %v", err)
	}
	if _, err := g.DefineRule(rule, alt); err != nil {
		t.Fatalf("DefineRule: %v", err)
	}

	if errs := g.Expect(); len(errs) > 0 {
		t.Fatalf("Expect: unexpected errors: %v", errs)
	}
	got := g.Check()
	if len(got) != 1 || got[0].Cause != errs.CauseAmbiguousOpt {
		t.Fatalf("Check() = %v, want exactly one ambiguous-opt error", got)
	}
}

func TestCheckDetectsAmbiguousSome(t *testing.T) {
	inv := symbol.New()
	g := New(inv)

	a, _ := inv.Lit("a")
	rule, _ := inv.NT("rule")

	// rule : { 'a' } 'a' ; -- a lookahead of 'a' can't tell another
	// iteration of the Some from the 'a' that follows it.
	some, err := g.Some([]*Node{mustSeq(t, g, g.Lit(a))})
	if err != nil {
		t.Fatalf("Some: %v", err)
	}
	outerSeq, err := g.Seq([]*Node{some, g.Lit(a)}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	alt, err := g.Alt([]*Node{outerSeq})
	if err != nil {
		t.Fatalf("Alt: %v", err)
	}
	if _, err := g.DefineRule(rule, alt); err != nil {
		t.Fatalf("DefineRule: %v", err)
	}

	if errs := g.Expect(); len(errs) > 0 {
		t.Fatalf("Expect: unexpected errors: %v", errs)
	}
	got := g.Check()
	if len(got) != 1 || got[0].Cause != errs.CauseAmbiguousSome {
		t.Fatalf("Check() = %v, want exactly one ambiguous-some error", got)
	}
}

func TestCheckDetectsUnreachableRule(t *testing.T) {
	inv := symbol.New()
	g := New(inv)

	a, _ := inv.Lit("a")
	start, _ := inv.NT("start")
	dead, _ := inv.NT("dead")

	startAlt, err := g.Alt([]*Node{mustSeq(t, g, g.Lit(a))})
	if err != nil {
		t.Fatalf("Alt: %v", err)
	}
	if _, err := g.DefineRule(start, startAlt); err != nil {
		t.Fatalf("DefineRule: %v", err)
	}
	deadAlt, err := g.Alt([]*Node{mustSeq(t, g, g.Lit(a))})
	if err != nil {
		t.Fatalf("Alt: %v", err)
	}
	if _, err := g.DefineRule(dead, deadAlt); err != nil {
		t.Fatalf("DefineRule: %v", err)
	}

	g.Expect()
	got := g.Check()
	found := false
	for _, e := range got {
		if e.Cause == errs.CauseUnreachable && e.Detail == "dead" {
			found = true
		}
	}
	if !found {
		t.Fatalf("Check() = %v, want an unreachable error for 'dead'", got)
	}
}

func TestDefineRuleRejectsDuplicate(t *testing.T) {
	inv := symbol.New()
	g := New(inv)

	a, _ := inv.Lit("a")
	s, _ := inv.NT("s")
	alt, _ := g.Alt([]*Node{mustSeq(t, g, g.Lit(a))})
	if _, err := g.DefineRule(s, alt); err != nil {
		t.Fatalf("DefineRule: %v", err)
	}
	alt2, _ := g.Alt([]*Node{mustSeq(t, g, g.Lit(a))})
	if _, err := g.DefineRule(s, alt2); err == nil {
		t.Fatalf("a second rule for the same non-terminal should have been rejected")
	}
}
