package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/hollowloci/parsekit/bnf"
	"github.com/hollowloci/parsekit/bootstrap"
	"github.com/hollowloci/parsekit/lr"
	"github.com/hollowloci/parsekit/lower"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "table <grammar>",
		Short:   "Build a grammar's LR table and print its compressed size",
		Example: `  parsekit table grammar.pk`,
		Args:    cobra.ExactArgs(1),
		RunE:    runTable,
	}
	rootCmd.AddCommand(cmd)
}

func runTable(cmd *cobra.Command, args []string) error {
	src, err := ioutil.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read the grammar file %s: %w", args[0], err)
	}

	res, err := bootstrap.ParseSource(string(src))
	if err != nil {
		return err
	}

	bg, _, err := lower.Lower(res.G)
	if err != nil {
		return fmt.Errorf("Cannot lower the grammar to BNF: %w", err)
	}
	sets := bnf.Analyze(bg)

	automaton, err := lr.Build(bg)
	if err != nil {
		return fmt.Errorf("Cannot build the LR(0) automaton: %w", err)
	}
	table := lr.BuildTable(bg, automaton, sets)

	actCompressed := lr.CompressAction(table)
	gotoCompressed := lr.CompressGoto(table)

	origActionCells := actCompressed.Table.RowCount * actCompressed.Table.ColCount
	origGotoCells := gotoCompressed.RowCount * gotoCompressed.ColCount

	fmt.Fprintf(os.Stdout, "states: %v\n", len(automaton.States))
	fmt.Fprintf(os.Stdout, "action table: %v cells original, %v entries compressed (%v codes)\n",
		origActionCells, len(actCompressed.Table.Entries), len(actCompressed.Codes))
	fmt.Fprintf(os.Stdout, "goto table: %v cells original, %v entries compressed\n",
		origGotoCells, len(gotoCompressed.Entries))

	return nil
}
