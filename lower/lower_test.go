package lower

import (
	"reflect"
	"testing"

	"github.com/hollowloci/parsekit/bnf"
	"github.com/hollowloci/parsekit/ebnf"
	"github.com/hollowloci/parsekit/symbol"
)

// buildListGrammar assembles: list : Number { ',' Number } ;
func buildListGrammar(t *testing.T) *ebnf.Grammar {
	t.Helper()
	inv := symbol.New()
	g := ebnf.New(inv)

	num, err := inv.Token("Number", `[0-9]+`)
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

	tailSeq, err := g.Seq([]*ebnf.Node{g.Lit(comma), g.Token(num)}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	tail, err := g.Some([]*ebnf.Node{tailSeq})
	if err != nil {
		t.Fatalf("Some: %v", err)
	}
	bodySeq, err := g.Seq([]*ebnf.Node{g.Token(num), tail}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	alt, err := g.Alt([]*ebnf.Node{bodySeq})
	if err != nil {
		t.Fatalf("Alt: %v", err)
	}
	if _, err := g.DefineRule(list, alt); err != nil {
		t.Fatalf("DefineRule: %v", err)
	}
	return g
}

func TestLowerSomeProducesLeftRecursiveTwoLevelAux(t *testing.T) {
	src := buildListGrammar(t)
	if errs := src.Expect(); len(errs) > 0 {
		t.Fatalf("Expect: unexpected errors: %v", errs)
	}
	if errs := src.Check(); len(errs) > 0 {
		t.Fatalf("Check: unexpected errors: %v", errs)
	}

	g, reducers, err := Lower(src)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	if g.Start.Name != "list" {
		t.Errorf("Start = %v, want list", g.Start.Name)
	}

	listProds := g.ProductionsFor(g.Start)
	if len(listProds) != 1 {
		t.Fatalf("len(ProductionsFor(list)) = %v, want 1", len(listProds))
	}
	rhs := listProds[0].RHS
	if len(rhs) != 2 || !rhs[0].IsTerminal() || !rhs[1].IsNonTerminal() {
		t.Fatalf("list -> %v, want Number <aux>", rhs)
	}
	aux := rhs[1].NT

	// aux : elem | aux elem ; -- the repetition aggregator, left-recursive.
	auxProds := g.ProductionsFor(aux)
	if len(auxProds) != 2 {
		t.Fatalf("len(ProductionsFor(aux)) = %v, want 2 (base + left-recursive)", len(auxProds))
	}
	var elem *symbol.NonTerminal
	var sawBase, sawRecursive bool
	for _, p := range auxProds {
		switch len(p.RHS) {
		case 1:
			if !p.RHS[0].IsNonTerminal() {
				t.Fatalf("base aux production RHS = %v, want a single non-terminal", p.RHS)
			}
			elem = p.RHS[0].NT
			sawBase = true
		case 2:
			if !p.RHS[0].IsNonTerminal() || p.RHS[0].NT != aux {
				t.Fatalf("recursive aux production does not start with aux itself: %v", p.RHS)
			}
			sawRecursive = true
		default:
			t.Fatalf("unexpected aux production arity: %v", p.RHS)
		}
	}
	if !sawBase || !sawRecursive {
		t.Fatalf("aux productions = %v, want one base and one left-recursive", auxProds)
	}
	if elem == nil {
		t.Fatalf("could not identify elem non-terminal")
	}

	// elem : ',' Number ; -- exactly one production, the Some's own body.
	elemProds := g.ProductionsFor(elem)
	if len(elemProds) != 1 {
		t.Fatalf("len(ProductionsFor(elem)) = %v, want 1", len(elemProds))
	}
	if len(elemProds[0].RHS) != 2 {
		t.Fatalf("elem -> %v, want ',' Number", elemProds[0].RHS)
	}

	// Every synthesized production carries a reducer.
	for _, p := range auxProds {
		if _, ok := reducers[p.Num]; !ok {
			t.Errorf("aux production %v has no reducer", p.RHS)
		}
	}
	if _, ok := reducers[elemProds[0].Num]; !ok {
		t.Errorf("elem production has no reducer")
	}
}

// TestLowerSomeReducersFlattenValuesLikeLLDriver drives the reducers
// Lower wires up by hand, the way a table-driven parse's reduce actions
// would, and checks the result is shaped []interface{} with one entry
// per iteration, matching what the direct EBNF walker (package llparse)
// returns for a Some element.
func TestLowerSomeReducersFlattenValuesLikeLLDriver(t *testing.T) {
	src := buildListGrammar(t)
	src.Expect()
	src.Check()

	g, reducers, err := Lower(src)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	listProds := g.ProductionsFor(g.Start)
	aux := listProds[0].RHS[1].NT
	auxProds := g.ProductionsFor(aux)

	var basePr, recPr *bnf.Production
	for _, p := range auxProds {
		if len(p.RHS) == 1 {
			basePr = p
		} else {
			recPr = p
		}
	}
	elem := basePr.RHS[0].NT
	elemProd := g.ProductionsFor(elem)[0]

	elemReduce := reducers[elemProd.Num]
	baseReduce := reducers[basePr.Num]
	recReduce := reducers[recPr.Num]

	// Simulate ", 1" then ", 2" then ", 3": three iterations of the Some.
	iter1, err := elemReduce([]interface{}{",", "1"})
	if err != nil {
		t.Fatalf("elemReduce: %v", err)
	}
	acc, err := baseReduce([]interface{}{iter1})
	if err != nil {
		t.Fatalf("baseReduce: %v", err)
	}

	iter2, _ := elemReduce([]interface{}{",", "2"})
	acc, err = recReduce([]interface{}{acc, iter2})
	if err != nil {
		t.Fatalf("recReduce: %v", err)
	}

	iter3, _ := elemReduce([]interface{}{",", "3"})
	acc, err = recReduce([]interface{}{acc, iter3})
	if err != nil {
		t.Fatalf("recReduce: %v", err)
	}

	want := []interface{}{
		[]interface{}{",", "1"},
		[]interface{}{",", "2"},
		[]interface{}{",", "3"},
	}
	if !reflect.DeepEqual(acc, want) {
		t.Errorf("flattened Some value = %#v, want %#v", acc, want)
	}
}

func TestLowerOptProducesEmptyAlternative(t *testing.T) {
	inv := symbol.New()
	g := ebnf.New(inv)

	a, _ := inv.Lit("a")
	b, _ := inv.Lit("b")
	s, _ := inv.NT("s")

	optSeq, err := g.Seq([]*ebnf.Node{g.Lit(b)}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	opt, err := g.Opt([]*ebnf.Node{optSeq})
	if err != nil {
		t.Fatalf("Opt: %v", err)
	}
	bodySeq, err := g.Seq([]*ebnf.Node{g.Lit(a), opt}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	alt, err := g.Alt([]*ebnf.Node{bodySeq})
	if err != nil {
		t.Fatalf("Alt: %v", err)
	}
	if _, err := g.DefineRule(s, alt); err != nil {
		t.Fatalf("DefineRule: %v", err)
	}

	if errs := g.Expect(); len(errs) > 0 {
		t.Fatalf("Expect: unexpected errors: %v", errs)
	}
	if errs := g.Check(); len(errs) > 0 {
		t.Fatalf("Check: unexpected errors: %v", errs)
	}

	bg, reducers, err := Lower(g)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	sProds := bg.ProductionsFor(bg.Start)
	rhs := sProds[0].RHS
	if len(rhs) != 2 {
		t.Fatalf("s -> %v, want 'a' <aux>", rhs)
	}
	aux := rhs[1].NT
	auxProds := bg.ProductionsFor(aux)
	if len(auxProds) != 2 {
		t.Fatalf("len(ProductionsFor(aux)) = %v, want 2 (one alt + the empty alternative)", len(auxProds))
	}
	var sawEmpty bool
	var emptyProd, matchedProd *bnf.Production
	for _, p := range auxProds {
		if p.IsEmpty() {
			sawEmpty = true
			emptyProd = p
		} else {
			matchedProd = p
		}
	}
	if !sawEmpty {
		t.Errorf("Opt lowering produced no empty alternative: %v", auxProds)
	}

	if got, err := reducers[emptyProd.Num](nil); err != nil || got != nil {
		t.Errorf("empty-alternative reducer = %v, %v, want nil, nil", got, err)
	}
	got, err := reducers[matchedProd.Num]([]interface{}{"b"})
	if err != nil {
		t.Fatalf("matched reducer: %v", err)
	}
	if !reflect.DeepEqual(got, []interface{}{"b"}) {
		t.Errorf("matched reducer = %#v, want []interface{}{\"b\"}", got)
	}
}

func TestLowerPrecedenceDefaultsToRightmostTerminal(t *testing.T) {
	inv := symbol.New()
	g := ebnf.New(inv)

	plus, _ := inv.Lit("+")
	star, _ := inv.Lit("*")
	num, _ := inv.Token("Number", `[0-9]+`)
	expr, _ := inv.NT("expr")

	if _, err := inv.Precedence(symbol.AssocLeft, []*symbol.Terminal{plus}); err != nil {
		t.Fatalf("Precedence: %v", err)
	}
	if _, err := inv.Precedence(symbol.AssocLeft, []*symbol.Terminal{star}); err != nil {
		t.Fatalf("Precedence: %v", err)
	}

	addSeq, err := g.Seq([]*ebnf.Node{g.Ref(expr), g.Lit(plus), g.Token(num)}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	baseSeq, err := g.Seq([]*ebnf.Node{g.Token(num)}, nil)
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	alt, err := g.Alt([]*ebnf.Node{addSeq, baseSeq})
	if err != nil {
		t.Fatalf("Alt: %v", err)
	}
	if _, err := g.DefineRule(expr, alt); err != nil {
		t.Fatalf("DefineRule: %v", err)
	}

	// Left recursion is expected and fine here (this grammar is destined
	// for the LR engine), so Check is not run and Expect's left-recursion
	// report is ignored.
	g.Expect()

	bg, _, err := Lower(g)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	var addProd *bnf.Production
	for _, p := range bg.ProductionsFor(expr) {
		if len(p.RHS) == 3 {
			addProd = p
		}
	}
	if addProd == nil {
		t.Fatalf("no 3-symbol expr production found")
	}
	if addProd.Prec == nil || addProd.Prec.Terminals[0] != plus {
		t.Errorf("addProd.Prec = %v, want the '+' precedence level", addProd.Prec)
	}
}
