// Package symbol is the symbol inventory: the uniqued universe of
// literals, tokens, and non-terminals shared by both the EBNF and BNF
// grammar models, plus precedence-level bookkeeping.
//
// Symbols are referenced by pointer: a *Terminal or *NonTerminal is only
// ever owned by the Inventory that created it, and the pointer is stable
// for the Inventory's lifetime. Code that needs a flat representation
// uses Ord, which Finalize assigns.
package symbol

import (
	"fmt"
	"regexp"
)

// Kind distinguishes the three disjoint name spaces.
type Kind int

const (
	KindLiteral Kind = iota
	KindToken
	KindNonTerminal
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindToken:
		return "token"
	case KindNonTerminal:
		return "non-terminal"
	default:
		return "unknown"
	}
}

// Assoc is a precedence group's associativity.
type Assoc int

const (
	AssocNone Assoc = iota
	AssocLeft
	AssocRight
)

func (a Assoc) String() string {
	switch a {
	case AssocLeft:
		return "left"
	case AssocRight:
		return "right"
	default:
		return "nonassoc"
	}
}

// Level is one precedence group: an associativity tag plus the terminals
// that share it. Groups are numbered in creation order starting at 1; 0
// means "no precedence".
type Level struct {
	Index     int
	Assoc     Assoc
	Terminals []*Terminal
}

// Terminal is a literal or a token.
type Terminal struct {
	Kind  Kind // KindLiteral or KindToken
	Ord   int  // global ordinal; valid only after Inventory.Finalize
	Name  string
	Value string // literal's unescaped value; empty for tokens
	// Pattern holds a token's regular expression; it stays empty for
	// literals (scanner.Build quotes a literal's Value itself).
	Pattern string
	Prec    *Level

	Used     bool
	Screened bool // literal only: exactly matched by some token's pattern

	reservedEOF   bool
	reservedError bool
}

// IsEOF reports whether t is the reserved end-of-input literal ($eof).
func (t *Terminal) IsEOF() bool { return t != nil && t.reservedEOF }

// IsError reports whether t is the reserved $error token used only by the
// LR engine's panic-mode recovery.
func (t *Terminal) IsError() bool { return t != nil && t.reservedError }

func (t *Terminal) String() string {
	if t.IsEOF() {
		return "$eof"
	}
	if t.IsError() {
		return "$error"
	}
	if t.Kind == KindLiteral {
		return fmt.Sprintf("'%v'", t.Value)
	}
	return t.Name
}

// NonTerminal is a named symbol defined by one or more rules; the rule(s)
// themselves live in the ebnf/bnf packages, which key off Name.
type NonTerminal struct {
	Ord  int
	Name string
}

func (n *NonTerminal) String() string { return n.Name }

// Option configures name validation performed by an Inventory.
type Option func(*Inventory)

// WithLiteralNames restricts literal text to match re (default: any text,
// since literals are quoted in source and their escape grammar
// already constrains them).
func WithLiteralNames(re *regexp.Regexp) Option {
	return func(g *Inventory) { g.litNameRE = re }
}

// WithTokenNames restricts token/non-terminal names to match re (default:
// `^[A-Za-z][A-Za-z0-9_]*$`).
func WithTokenNames(re *regexp.Regexp) Option {
	return func(g *Inventory) { g.nameRE = re }
}

var defaultNameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Inventory is the per-grammar symbol table: idempotent factory methods
// plus the by-name indices needed to back them.
type Inventory struct {
	lits    map[string]*Terminal
	litList []*Terminal
	toks    map[string]*Terminal
	tokList []*Terminal
	nts     map[string]*NonTerminal
	ntList  []*NonTerminal
	levels  []*Level

	nameRE    *regexp.Regexp
	litNameRE *regexp.Regexp

	eof      *Terminal
	errorTok *Terminal

	finalized bool
}

// New creates an empty inventory, pre-registering the reserved $eof literal
// (a literal with empty name denotes end-of-input) and $error token (a
// token with empty name denotes the error-recovery terminal).
func New(opts ...Option) *Inventory {
	g := &Inventory{
		lits:   map[string]*Terminal{},
		toks:   map[string]*Terminal{},
		nts:    map[string]*NonTerminal{},
		nameRE: defaultNameRE,
	}
	for _, o := range opts {
		o(g)
	}

	g.eof = &Terminal{Kind: KindLiteral, Name: "$eof", reservedEOF: true}
	g.errorTok = &Terminal{Kind: KindToken, Name: "$error", reservedError: true}
	g.litList = append(g.litList, g.eof)
	g.tokList = append(g.tokList, g.errorTok)

	return g
}

// EOF returns the reserved end-of-input literal.
func (g *Inventory) EOF() *Terminal { return g.eof }

// ErrorToken returns the reserved $error token.
func (g *Inventory) ErrorToken() *Terminal { return g.errorTok }

// Lit returns the literal with the given (already-unescaped) value,
// creating it if this is the first reference.
func (g *Inventory) Lit(value string) (*Terminal, error) {
	if value == "" {
		return nil, &invalidNameError{kind: KindLiteral, name: value}
	}
	if t, ok := g.lits[value]; ok {
		t.Used = true
		return t, nil
	}
	if g.litNameRE != nil && !g.litNameRE.MatchString(value) {
		return nil, &invalidNameError{kind: KindLiteral, name: value}
	}
	t := &Terminal{Kind: KindLiteral, Name: fmt.Sprintf("'%v'", value), Value: value, Used: true}
	g.lits[value] = t
	g.litList = append(g.litList, t)
	return t, nil
}

// Token returns the token with the given name, creating it (with the given
// pattern) on first reference. A subsequent reference with a different
// non-empty pattern is a duplicate-symbol error.
func (g *Inventory) Token(name, pattern string) (*Terminal, error) {
	if err := g.checkNewName(name, KindToken); err != nil {
		return nil, err
	}
	if t, ok := g.toks[name]; ok {
		t.Used = true
		if pattern != "" && t.Pattern != "" && t.Pattern != pattern {
			return nil, &duplicateSymbolError{kind: KindToken, name: name}
		}
		return t, nil
	}
	if pattern != "" {
		if err := validateTokenPattern(pattern); err != nil {
			return nil, err
		}
	}
	t := &Terminal{Kind: KindToken, Name: name, Pattern: pattern, Used: true}
	g.toks[name] = t
	g.tokList = append(g.tokList, t)
	return t, nil
}

// NT returns the non-terminal with the given name, creating it on first
// reference.
func (g *Inventory) NT(name string) (*NonTerminal, error) {
	if err := g.checkNewName(name, KindNonTerminal); err != nil {
		return nil, err
	}
	if n, ok := g.nts[name]; ok {
		return n, nil
	}
	n := &NonTerminal{Name: name}
	g.nts[name] = n
	g.ntList = append(g.ntList, n)
	return n, nil
}

// LookupNT reports whether name is already a registered non-terminal,
// without creating it.
func (g *Inventory) LookupNT(name string) (*NonTerminal, bool) {
	n, ok := g.nts[name]
	return n, ok
}

// LookupToken reports whether name is already a registered token.
func (g *Inventory) LookupToken(name string) (*Terminal, bool) {
	t, ok := g.toks[name]
	return t, ok
}

// Precedence registers a new precedence group; terms must not already
// belong to another group.
func (g *Inventory) Precedence(assoc Assoc, terms []*Terminal) (*Level, error) {
	if len(terms) == 0 {
		return nil, fmt.Errorf("a precedence group needs at least one terminal")
	}
	for _, t := range terms {
		if t.Prec != nil {
			return nil, &duplicatePrecedenceError{term: t.String()}
		}
	}
	lv := &Level{Index: len(g.levels) + 1, Assoc: assoc, Terminals: terms}
	for _, t := range terms {
		t.Prec = lv
	}
	g.levels = append(g.levels, lv)
	return lv, nil
}

// checkNewName enforces disjointness between tokens and non-terminals and
// validates the name against the configured pattern, but only for symbols
// that don't already exist (an existing symbol of the SAME kind is fine;
// that's how Token/NT become idempotent). Non-terminal names starting
// with '$' are reserved for synthesized auxiliaries (package lower) and
// skip the pattern check.
func (g *Inventory) checkNewName(name string, kind Kind) error {
	if name == "" {
		return &invalidNameError{kind: kind, name: name}
	}
	reserved := kind == KindNonTerminal && name[0] == '$'
	if g.nameRE != nil && !reserved && !g.nameRE.MatchString(name) {
		return &invalidNameError{kind: kind, name: name}
	}
	switch kind {
	case KindToken:
		if _, ok := g.nts[name]; ok {
			return &duplicateSymbolError{kind: kind, name: name}
		}
	case KindNonTerminal:
		if _, ok := g.toks[name]; ok {
			return &duplicateSymbolError{kind: kind, name: name}
		}
	}
	return nil
}

// validateTokenPattern enforces that a token pattern must not match
// the empty string. Go's regexp syntax has no equivalent of JavaScript's
// global/sticky/indices flags to reject — RE2 patterns are always anchored
// per-call by the caller, never stateful — so that half of the rule is
// satisfied by construction rather than by an explicit check.
func validateTokenPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return &invalidPatternError{pattern: pattern, cause: err}
	}
	if re.MatchString("") {
		return &invalidPatternError{pattern: pattern, cause: fmt.Errorf("must not match the empty string")}
	}
	return nil
}

// Finalize assigns the global Ord fields: literals first by creation order
// (index 0 is always $eof), then tokens (index 0 is always $error), then
// non-terminals, so every terminal has a unique ordinal across literals
// and tokens. It is idempotent.
func (g *Inventory) Finalize() {
	if g.finalized {
		return
	}
	g.finalized = true

	ord := 0
	for _, t := range g.litList {
		t.Ord = ord
		ord++
	}
	for _, t := range g.tokList {
		t.Ord = ord
		ord++
	}
	for i, n := range g.ntList {
		n.Ord = i
	}
}

// Literals returns every registered literal, in creation order ($eof first).
func (g *Inventory) Literals() []*Terminal { return g.litList }

// Tokens returns every registered token, in creation order ($error first).
func (g *Inventory) Tokens() []*Terminal { return g.tokList }

// NonTerminals returns every registered non-terminal, in creation order.
func (g *Inventory) NonTerminals() []*NonTerminal { return g.ntList }

// Terminals returns every terminal (literals then tokens) in ordinal order.
// Finalize must have been called.
func (g *Inventory) Terminals() []*Terminal {
	out := make([]*Terminal, 0, len(g.litList)+len(g.tokList))
	out = append(out, g.litList...)
	out = append(out, g.tokList...)
	return out
}

// Levels returns the precedence groups in creation order.
func (g *Inventory) Levels() []*Level { return g.levels }

type invalidNameError struct {
	kind Kind
	name string
}

func (e *invalidNameError) Error() string {
	return fmt.Sprintf("invalid %v name: %q", e.kind, e.name)
}

type duplicateSymbolError struct {
	kind Kind
	name string
}

func (e *duplicateSymbolError) Error() string {
	return fmt.Sprintf("%v clashes with an existing symbol of a different kind: %q", e.kind, e.name)
}

type duplicatePrecedenceError struct {
	term string
}

func (e *duplicatePrecedenceError) Error() string {
	return fmt.Sprintf("terminal %v already belongs to a precedence group", e.term)
}

type invalidPatternError struct {
	pattern string
	cause   error
}

func (e *invalidPatternError) Error() string {
	return fmt.Sprintf("invalid token pattern %q: %v", e.pattern, e.cause)
}
