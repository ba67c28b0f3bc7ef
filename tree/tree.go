// Package tree is the concrete syntax tree shared by the LL and LR
// drivers: one Node shape, printed the same way regardless of which
// engine built it, with a Collapse step that erases the synthesized
// non-terminals the EBNF-to-BNF lowerer introduces so a reader sees the
// grammar they wrote, not the auxiliary rules it got translated into.
package tree

import (
	"fmt"
	"io"
	"strings"
)

// Node is one CST node. Leaf nodes carry Text (the scanned token value);
// interior nodes carry Children instead.
type Node struct {
	KindName string
	Text     string
	Row      int
	Col      int
	Children []*Node
}

// Leaf builds a terminal node.
func Leaf(kindName, text string, row, col int) *Node {
	return &Node{KindName: kindName, Text: text, Row: row, Col: col}
}

// auxPrefix mirrors package lower's naming convention for synthesized
// Opt/Some non-terminals ("$<base>-<n>"): a tree package that didn't know
// about it would print the BNF scaffolding instead of the grammar the
// user actually wrote.
const auxPrefix = "$"

// IsAux reports whether node is a lowerer-synthesized non-terminal rather
// than one named in the original grammar text.
func (n *Node) IsAux() bool {
	return n != nil && strings.HasPrefix(n.KindName, auxPrefix)
}

// Collapse returns a tree equivalent to node but with every IsAux node
// spliced out in favor of its children, recursively. An LR parse built
// over a lowered grammar is full of these (one layer per [...]/{...} in
// the source rule); Collapse undoes that so the printed shape matches
// what Expect/Check and the LL driver would have produced for the same
// input. Leaves are returned unchanged.
func Collapse(node *Node) *Node {
	if node == nil {
		return nil
	}
	children := collapseChildren(node.Children)
	return &Node{KindName: node.KindName, Text: node.Text, Row: node.Row, Col: node.Col, Children: children}
}

func collapseChildren(nodes []*Node) []*Node {
	var out []*Node
	for _, c := range nodes {
		if c == nil {
			continue
		}
		if c.IsAux() {
			out = append(out, collapseChildren(c.Children)...)
			continue
		}
		out = append(out, Collapse(c))
	}
	return out
}

// PrintTree writes node as an indented, ruled tree to w, one line per
// node, box-drawing characters showing each node's depth and whether it
// is its parent's last child.
func PrintTree(w io.Writer, node *Node) {
	printNode(w, node, nil)
}

// printNode renders node and recurses into its children. path holds one
// entry per ancestor, true when that ancestor was its own parent's last
// child (so its vertical rule should stop) — the prefix for the current
// line is rebuilt from path on every call rather than threaded as a
// pre-built string, trading a little redundant work for not having to
// reason about two separately-accumulating prefix strings.
func printNode(w io.Writer, node *Node, path []bool) {
	if node == nil {
		return
	}

	fmt.Fprint(w, linePrefix(path))
	if node.Text != "" {
		fmt.Fprintf(w, "%v %#v\n", node.KindName, node.Text)
	} else {
		fmt.Fprintf(w, "%v\n", node.KindName)
	}

	last := len(node.Children) - 1
	for i, child := range node.Children {
		printNode(w, child, append(append([]bool{}, path...), i == last))
	}
}

// linePrefix renders the ruled-line prefix for a node at path's depth:
// a connector for the immediate parent, and a continuation or blank rule
// for every shallower ancestor depending on whether it was a last child.
func linePrefix(path []bool) string {
	if len(path) == 0 {
		return ""
	}
	var b strings.Builder
	for _, isLast := range path[:len(path)-1] {
		if isLast {
			b.WriteString("   ")
		} else {
			b.WriteString("│  ")
		}
	}
	if path[len(path)-1] {
		b.WriteString("└─ ")
	} else {
		b.WriteString("├─ ")
	}
	return b.String()
}
