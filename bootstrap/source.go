package bootstrap

import (
	"fmt"
	"regexp"
	"strings"
)

// tokenHeaderLine matches one line of a grammar file's token header:
// a bare name followed by its pattern as a double-quoted Go regexp
// literal, optionally semicolon-terminated for visual symmetry with the
// rule section below it.
var tokenHeaderLine = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_]*)\s+"((?:\\.|[^"\\])*)"\s*;?\s*$`)

// ParseSource reads a complete grammar file: an optional token header,
// a bare "%%" line, and the grammar text itself. The grammar text's own
// EBNF has no way to declare a token's pattern (Parse's tokens
// parameter is the only way in), so the file format built on top of it
// for the command-line tools borrows the classic lex/yacc convention of
// a "%%"-separated header section for exactly that purpose. A file with
// no "%%" line is treated as bare grammar text with no tokens declared.
func ParseSource(src string) (*Result, error) {
	header, body, ok := splitSource(src)
	if !ok {
		return Parse(src, nil)
	}
	tokens, err := parseTokenHeader(header)
	if err != nil {
		return nil, err
	}
	return Parse(body, tokens)
}

func splitSource(src string) (header, body string, ok bool) {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "%%" {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n"), true
		}
	}
	return "", "", false
}

func parseTokenHeader(header string) (map[string]string, error) {
	tokens := map[string]string{}
	for n, line := range strings.Split(header, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		m := tokenHeaderLine.FindStringSubmatch(trimmed)
		if m == nil {
			return nil, fmt.Errorf("token header line %d: expected `name \"pattern\";`, got %q", n+1, line)
		}
		tokens[m[1]] = unquote(`"` + m[2] + `"`)
	}
	return tokens, nil
}
