package scanner

import (
	"testing"

	"github.com/hollowloci/parsekit/symbol"
)

func TestScanSkipsWhitespaceAndScreensKeyword(t *testing.T) {
	inv := symbol.New()
	plus, _ := inv.Lit("+")
	ifLit, _ := inv.Lit("if")
	ident, _ := inv.Token("Ident", `[a-z]+`)
	num, _ := inv.Token("Number", `[0-9]+`)

	sc, err := Build(inv, `[ \t]+`)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	toks, err := sc.Scan("if x + 12")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := []*symbol.Terminal{ifLit, ident, plus, num, inv.EOF()}
	if len(toks) != len(want) {
		t.Fatalf("Scan produced %v tuples, want %v: %+v", len(toks), len(want), toks)
	}
	for i, tok := range toks {
		if tok.Terminal != want[i] {
			t.Errorf("tuple %v: terminal = %v, want %v", i, tok.Terminal, want[i])
		}
	}
	if toks[0].Value != "if" {
		t.Errorf("tuple 0 value = %q, want %q (screened to the literal's own text)", toks[0].Value, "if")
	}
}

func TestScanReportsIllegalCharacters(t *testing.T) {
	inv := symbol.New()
	if _, err := inv.Token("Number", `[0-9]+`); err != nil {
		t.Fatalf("Token: %v", err)
	}

	sc, err := Build(inv, `[ ]+`)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	toks, err := sc.Scan("12 @@ 34")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	var illegal *Tuple
	for i := range toks {
		if toks[i].Terminal == nil {
			illegal = &toks[i]
		}
	}
	if illegal == nil {
		t.Fatalf("Scan did not report an illegal span: %+v", toks)
	}
	if illegal.Value != "@@" {
		t.Errorf("illegal span value = %q, want %q", illegal.Value, "@@")
	}
}

func TestScanTracksLineNumbers(t *testing.T) {
	inv := symbol.New()
	if _, err := inv.Token("Number", `[0-9]+`); err != nil {
		t.Fatalf("Token: %v", err)
	}

	sc, err := Build(inv, `[ \n]+`)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	toks, err := sc.Scan("1\n2\n3")
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(toks) != 4 {
		t.Fatalf("Scan produced %v tuples, want 4 (3 numbers + eof)", len(toks))
	}
	wantLines := []int{1, 2, 3, 3}
	for i, want := range wantLines {
		if toks[i].Line != want {
			t.Errorf("tuple %v line = %v, want %v", i, toks[i].Line, want)
		}
	}
}

func TestScanConflictingScreenIsError(t *testing.T) {
	inv := symbol.New()
	if _, err := inv.Lit("x"); err != nil {
		t.Fatalf("Lit: %v", err)
	}
	if _, err := inv.Token("A", `x`); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if _, err := inv.Token("B", `x`); err != nil {
		t.Fatalf("Token: %v", err)
	}

	if _, err := Build(inv, ""); err == nil {
		t.Fatalf("Build should reject two tokens screening the same literal")
	}
}
