package bootstrap

import (
	"testing"

	"github.com/hollowloci/parsekit/errs"
	"github.com/hollowloci/parsekit/lower"
)

func TestParseTokenDeclAndAlternatives(t *testing.T) {
	res, err := Parse(`
		list : Number
		     | Number ',' list
		     ;
	`, map[string]string{"Number": "[0-9]+"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	num, ok := res.Inv.LookupToken("Number")
	if !ok {
		t.Fatalf("token Number was not registered")
	}
	if num.Pattern != "[0-9]+" {
		t.Errorf("Number.Pattern = %q, want %q", num.Pattern, "[0-9]+")
	}

	r, ok := res.G.RuleByName("list")
	if !ok {
		t.Fatalf("rule list was not defined")
	}
	if len(r.Alt.Children) != 2 {
		t.Fatalf("list has %v alternatives, want 2", len(r.Alt.Children))
	}
	if res.G.Start().NT.Name != "list" {
		t.Errorf("Start() = %v, want list (the first rule defined)", res.G.Start().NT.Name)
	}

	if errs := res.G.Expect(); len(errs) > 0 {
		t.Fatalf("Expect: unexpected errors: %v", errs)
	}
	// Both alternatives start with Number, so the grammar is not LL(1) and
	// Check reports exactly that one ambiguity.
	if got := res.G.Check(); len(got) != 1 || got[0].Cause != errs.CauseAmbiguousAlt {
		t.Fatalf("Check = %v, want exactly one ambiguous-alternative error", got)
	}
}

func TestParsePrecedenceDeclarations(t *testing.T) {
	res, err := Parse(`
		%left '+';
		%left '*';

		expr : expr '+' expr
		     | expr '*' expr
		     | Number
		     ;
	`, map[string]string{"Number": "[0-9]+"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	levels := res.Inv.Levels()
	if len(levels) != 2 {
		t.Fatalf("len(Levels()) = %v, want 2", len(levels))
	}
	if levels[0].Index != 1 || levels[1].Index != 2 {
		t.Errorf("precedence levels = %+v, want indices 1 then 2 in declaration order", levels)
	}

	var plusTerm, starTerm string
	for _, lit := range res.Inv.Literals() {
		if lit.Value == "+" {
			plusTerm = lit.String()
		}
		if lit.Value == "*" {
			starTerm = lit.String()
		}
	}
	if plusTerm == "" || starTerm == "" {
		t.Fatalf("expected both '+' and '*' literals to be registered")
	}
}

func TestParseRepeatedElementLowersCleanly(t *testing.T) {
	res, err := Parse(`
		list : Number { ',' Number } ;
	`, map[string]string{"Number": "[0-9]+"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if errs := res.G.Expect(); len(errs) > 0 {
		t.Fatalf("Expect: unexpected errors: %v", errs)
	}
	if errs := res.G.Check(); len(errs) > 0 {
		t.Fatalf("Check: unexpected errors: %v", errs)
	}

	bg, reducers, err := lower.Lower(res.G)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	if len(bg.Prods) < 2 {
		t.Errorf("len(Prods) = %v, want at least 2 (list's production plus the synthesized aux)", len(bg.Prods))
	}
	if len(reducers) == 0 {
		t.Errorf("expected at least one synthesized reducer for the repeated element")
	}
}

func TestParseRejectsMalformedGrammar(t *testing.T) {
	if _, err := Parse(`list : Number`, nil); err == nil {
		t.Fatalf("Parse should reject a rule missing its terminating ';'")
	}
}

func TestParseOptionalElement(t *testing.T) {
	res, err := Parse(`
		stmt : 'return' [ Number ] ';' ;
	`, map[string]string{"Number": "[0-9]+"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	r, ok := res.G.RuleByName("stmt")
	if !ok {
		t.Fatalf("rule stmt was not defined")
	}
	if len(r.Alt.Children) != 1 {
		t.Fatalf("stmt has %v alternatives, want 1", len(r.Alt.Children))
	}
	seq := r.Alt.Children[0]
	if len(seq.Children) != 3 {
		t.Fatalf("stmt's sequence has %v elements, want 3 ('return', [Number], ';')", len(seq.Children))
	}
}
