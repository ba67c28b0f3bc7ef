package symbol

import "testing"

func TestInventoryReservedSymbols(t *testing.T) {
	inv := New()

	if !inv.EOF().IsEOF() {
		t.Fatalf("EOF() did not return the reserved eof literal")
	}
	if !inv.ErrorToken().IsError() {
		t.Fatalf("ErrorToken() did not return the reserved error token")
	}
	if got := inv.EOF().String(); got != "$eof" {
		t.Errorf("EOF().String() = %q, want $eof", got)
	}
	if got := inv.ErrorToken().String(); got != "$error" {
		t.Errorf("ErrorToken().String() = %q, want $error", got)
	}
}

func TestLitIdempotent(t *testing.T) {
	inv := New()

	a, err := inv.Lit("+")
	if err != nil {
		t.Fatalf("Lit: %v", err)
	}
	b, err := inv.Lit("+")
	if err != nil {
		t.Fatalf("Lit (second ref): %v", err)
	}
	if a != b {
		t.Errorf("Lit returned distinct terminals for the same value")
	}
	if got := a.String(); got != "'+'" {
		t.Errorf("Lit.String() = %q, want '+'", got)
	}
}

func TestLitEmptyRejected(t *testing.T) {
	inv := New()
	if _, err := inv.Lit(""); err == nil {
		t.Fatalf("Lit(\"\") should have been rejected")
	}
}

func TestTokenDuplicatePatternConflict(t *testing.T) {
	inv := New()

	if _, err := inv.Token("NUMBER", `[0-9]+`); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if _, err := inv.Token("NUMBER", `[0-9]+`); err != nil {
		t.Fatalf("Token with the same pattern should be idempotent: %v", err)
	}
	if _, err := inv.Token("NUMBER", `[a-z]+`); err == nil {
		t.Fatalf("Token with a conflicting pattern should have been rejected")
	}
}

func TestTokenPatternMustNotMatchEmpty(t *testing.T) {
	inv := New()
	if _, err := inv.Token("WS", `[ \t]*`); err == nil {
		t.Fatalf("a pattern matching the empty string should have been rejected")
	}
}

func TestTokenAndNonTerminalNamesDisjoint(t *testing.T) {
	inv := New()

	if _, err := inv.Token("expr", `x`); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if _, err := inv.NT("expr"); err == nil {
		t.Fatalf("a non-terminal clashing with an existing token name should have been rejected")
	}
}

func TestNTIdempotent(t *testing.T) {
	inv := New()

	a, err := inv.NT("expr")
	if err != nil {
		t.Fatalf("NT: %v", err)
	}
	b, err := inv.NT("expr")
	if err != nil {
		t.Fatalf("NT (second ref): %v", err)
	}
	if a != b {
		t.Errorf("NT returned distinct non-terminals for the same name")
	}
}

func TestPrecedenceRejectsDoubleAssignment(t *testing.T) {
	inv := New()

	plus, _ := inv.Lit("+")
	minus, _ := inv.Lit("-")
	star, _ := inv.Lit("*")

	if _, err := inv.Precedence(AssocLeft, []*Terminal{plus, minus}); err != nil {
		t.Fatalf("Precedence: %v", err)
	}
	if _, err := inv.Precedence(AssocLeft, []*Terminal{star, plus}); err == nil {
		t.Fatalf("assigning + to a second precedence group should have been rejected")
	}
}

func TestFinalizeOrdinals(t *testing.T) {
	inv := New()

	plus, _ := inv.Lit("+")
	num, _ := inv.Token("NUMBER", `[0-9]+`)
	inv.Finalize()

	if inv.EOF().Ord != 0 {
		t.Errorf("$eof Ord = %v, want 0", inv.EOF().Ord)
	}
	if plus.Ord != 1 {
		t.Errorf("literal Ord = %v, want 1 (after $eof)", plus.Ord)
	}
	if inv.ErrorToken().Ord != len(inv.Literals()) {
		t.Errorf("$error Ord = %v, want %v (first token slot)", inv.ErrorToken().Ord, len(inv.Literals()))
	}
	if num.Ord != len(inv.Literals())+1 {
		t.Errorf("token Ord = %v, want %v", num.Ord, len(inv.Literals())+1)
	}

	// Finalize must be idempotent: a second call does not renumber.
	before := num.Ord
	inv.Finalize()
	if num.Ord != before {
		t.Errorf("a second Finalize call changed an ordinal")
	}
}
