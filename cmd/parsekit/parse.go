package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/hollowloci/parsekit/bnf"
	"github.com/hollowloci/parsekit/bootstrap"
	"github.com/hollowloci/parsekit/llparse"
	"github.com/hollowloci/parsekit/lower"
	"github.com/hollowloci/parsekit/lr"
	"github.com/hollowloci/parsekit/lrparse"
	"github.com/hollowloci/parsekit/scanner"
	"github.com/hollowloci/parsekit/tree"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	lr    *bool
	trace *bool
	skip  *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <grammar> <input>",
		Short:   "Parse a text stream against a grammar and print its tree",
		Example: `  parsekit parse grammar.pk input.txt`,
		Args:    cobra.ExactArgs(2),
		RunE:    runParse,
	}
	parseFlags.lr = cmd.Flags().Bool("lr", false, "force the table-driven LR(0)/SLR(1) parser instead of the LL(1) driver")
	parseFlags.trace = cmd.Flags().Bool("trace", false, "print each rule entered/matched during parsing")
	parseFlags.skip = cmd.Flags().String("skip", `[ \t\r\n]+`, "regexp matched and discarded between tokens")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	grmSrc, err := ioutil.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read the grammar file %s: %w", args[0], err)
	}
	inSrc, err := ioutil.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("Cannot read the input file %s: %w", args[1], err)
	}

	res, err := bootstrap.ParseSource(string(grmSrc))
	if err != nil {
		return err
	}
	// Expect/Check analysis is only meaningful for the LL(1) driver: its
	// left-recursion diagnostic is a false positive for a grammar destined
	// for the LR parser, which handles left recursion natively.
	if !*parseFlags.lr {
		if errs := res.G.Expect(); len(errs) > 0 {
			return errs
		}
		if errs := res.G.Check(); len(errs) > 0 {
			return errs
		}
	}

	sc, err := scanner.Build(res.Inv, *parseFlags.skip)
	if err != nil {
		return fmt.Errorf("Cannot build the scanner: %w", err)
	}
	toks, err := sc.Scan(string(inSrc))
	if err != nil {
		return fmt.Errorf("Cannot scan the input: %w", err)
	}

	var node *tree.Node
	if *parseFlags.lr {
		node, err = parseLR(res, toks)
		node = tree.Collapse(node)
	} else {
		node, err = parseLL(res, toks)
	}
	if err != nil {
		return err
	}

	tree.PrintTree(os.Stdout, node)
	return nil
}

func parseLL(res *bootstrap.Result, toks []scanner.Tuple) (*tree.Node, error) {
	p := llparse.New(res.G, toks)
	if *parseFlags.trace {
		p.Trace(os.Stderr)
	}
	_, node, err := p.Parse()
	if err != nil {
		return nil, err
	}
	if len(p.Errors()) > 0 {
		return node, p.Errors()
	}
	return node, nil
}

func parseLR(res *bootstrap.Result, toks []scanner.Tuple) (*tree.Node, error) {
	bg, reducers, err := lower.Lower(res.G)
	if err != nil {
		return nil, fmt.Errorf("Cannot lower the grammar to BNF: %w", err)
	}
	sets := bnf.Analyze(bg)

	automaton, err := lr.Build(bg)
	if err != nil {
		return nil, fmt.Errorf("Cannot build the LR(0) automaton: %w", err)
	}
	table := lr.BuildTable(bg, automaton, sets)

	p := lrparse.New(table, toks)
	for num, fn := range reducers {
		p.SetReducer(bg.Prods[num], lrparse.Reducer(fn))
	}
	if *parseFlags.trace {
		p.Trace(os.Stderr)
	}
	_, node, err := p.Parse()
	if err != nil {
		return nil, err
	}
	if p.ErrorCount() > 0 {
		return node, fmt.Errorf("%v syntax errors", p.ErrorCount())
	}
	return node, nil
}
