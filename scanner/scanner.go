// Package scanner assembles one master regular expression from a
// grammar's literals and tokens and streams a character source into
// (line, terminal, value) tuples.
//
// Rather than delegate to an external DFA-compiler with its own
// lexical-pattern dialect, this package goes straight to Go's regexp
// package and builds a single alternation, screening literal matches out
// of token matches after the fact — see DESIGN.md.
package scanner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hollowloci/parsekit/symbol"
)

// Tuple is one scanned unit.
type Tuple struct {
	Line     int
	Terminal *symbol.Terminal // nil means "illegal character"
	Value    string
}

// Scanner is the compiled master pattern plus the screening table needed
// to promote a token match back to the literal it aliases.
type Scanner struct {
	pattern *regexp.Regexp
	// order lists, in capture-group order, the terminal each numbered
	// group belongs to (when a skip pattern is configured, index 0 is
	// the implicit "skip" group, which has a nil terminal).
	order []*symbol.Terminal
	// screen maps a token to the literal it screens.
	screen map[*symbol.Terminal]*symbol.Terminal
	eof    *symbol.Terminal
}

// Build assembles the master pattern from inv's used, non-empty literals
// and tokens. skip, if non-empty, is a regexp matched and discarded between
// tokens (whitespace/comments); it must not be anchored and must not
// capture.
func Build(inv *symbol.Inventory, skip string) (*Scanner, error) {
	inv.Finalize()

	var lits []*symbol.Terminal
	for _, t := range inv.Literals() {
		if t.IsEOF() || !t.Used || t.Value == "" {
			continue
		}
		lits = append(lits, t)
	}
	var toks []*symbol.Terminal
	for _, t := range inv.Tokens() {
		if t.IsError() || !t.Used || t.Pattern == "" {
			continue
		}
		toks = append(toks, t)
	}

	// Step 2: sort literals by decreasing value length, tokens by
	// ascending name.
	sort.SliceStable(lits, func(i, j int) bool { return len(lits[i].Value) > len(lits[j].Value) })
	sort.SliceStable(toks, func(i, j int) bool { return toks[i].Name < toks[j].Name })

	// Step 3: screening. A literal whose value is matched exactly by a
	// token's pattern is screened by that token; two tokens screening the
	// same literal is a hard error.
	screen := map[*symbol.Terminal]*symbol.Terminal{}
	screenedBy := map[*symbol.Terminal]*symbol.Terminal{}
	for _, tok := range toks {
		full, err := regexp.Compile(`^(?:` + tok.Pattern + `)$`)
		if err != nil {
			return nil, fmt.Errorf("token %v: %w", tok.Name, err)
		}
		for _, lit := range lits {
			if !full.MatchString(lit.Value) {
				continue
			}
			if prev, ok := screenedBy[lit]; ok && prev != tok {
				return nil, fmt.Errorf("literal %v is screened by both %v and %v", lit, prev.Name, tok.Name)
			}
			screenedBy[lit] = tok
			screen[tok] = lit
			lit.Screened = true
		}
	}

	var nonScreened []*symbol.Terminal
	for _, lit := range lits {
		if !lit.Screened {
			nonScreened = append(nonScreened, lit)
		}
	}

	// Step 4: build the master pattern: skip, then tokens, then
	// non-screened literals, each in its own capturing group. The skip
	// group is only present when a skip pattern was configured — an
	// always-present-but-empty alternative would match zero-width
	// everywhere and starve every other branch.
	var groups []string
	var order []*symbol.Terminal
	if skip != "" {
		groups = append(groups, "("+skip+")")
		order = append(order, nil)
	}
	for _, t := range toks {
		groups = append(groups, "("+t.Pattern+")")
		order = append(order, t)
	}
	for _, t := range nonScreened {
		groups = append(groups, "("+regexp.QuoteMeta(t.Value)+")")
		order = append(order, t)
	}

	pat, err := regexp.Compile(`^(?:` + strings.Join(groups, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("master pattern: %w", err)
	}

	return &Scanner{pattern: pat, order: order, screen: screen, eof: inv.EOF()}, nil
}

// Scan tokenizes the whole input in one pass. Illegal spans between matches
// are coalesced into a single tuple each, and a final tuple carries $eof.
func (s *Scanner) Scan(input string) ([]Tuple, error) {
	var out []Tuple
	line := 1
	pos := 0
	illegalStart := -1

	flushIllegal := func(end int) {
		if illegalStart < 0 {
			return
		}
		out = append(out, Tuple{Line: line, Terminal: nil, Value: input[illegalStart:end]})
		illegalStart = -1
	}

	for pos < len(input) {
		loc := s.pattern.FindStringSubmatchIndex(input[pos:])
		if loc == nil || loc[0] != 0 || loc[1] == 0 {
			if illegalStart < 0 {
				illegalStart = pos
			}
			if input[pos] == '\n' {
				line++
			}
			pos++
			continue
		}

		flushIllegal(pos)

		matchLen := loc[1]
		matched := input[pos : pos+matchLen]

		// Find which numbered group (1-based in loc; index 0 is the
		// whole-match group) matched.
		groupIdx := -1
		for g := 0; g < len(s.order); g++ {
			if loc[2*(g+1)] >= 0 {
				groupIdx = g
				break
			}
		}

		if groupIdx < 0 || s.order[groupIdx] == nil {
			// The skip group matched; discard and keep scanning.
			line += strings.Count(matched, "\n")
			pos += matchLen
			continue
		}

		term := s.order[groupIdx]
		if lit, ok := s.screen[term]; ok && lit.Value == matched {
			term = lit
		}

		out = append(out, Tuple{Line: line, Terminal: term, Value: matched})
		line += strings.Count(matched, "\n")
		pos += matchLen
	}

	flushIllegal(pos)
	out = append(out, Tuple{Line: line, Terminal: s.eof, Value: ""})
	return out, nil
}
