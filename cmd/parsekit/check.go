package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/hollowloci/parsekit/bnf"
	"github.com/hollowloci/parsekit/bootstrap"
	"github.com/hollowloci/parsekit/lr"
	"github.com/hollowloci/parsekit/lower"
	"github.com/spf13/cobra"
)

var checkFlags = struct {
	describe *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "check <grammar>",
		Short:   "Parse and analyze a grammar, reporting errors and conflicts",
		Example: `  parsekit check grammar.pk`,
		Args:    cobra.ExactArgs(1),
		RunE:    runCheck,
	}
	checkFlags.describe = cmd.Flags().Bool("describe", false, "print the LR(0)/SLR(1) state and table dump")
	rootCmd.AddCommand(cmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	src, err := ioutil.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read the grammar file %s: %w", args[0], err)
	}

	res, err := bootstrap.ParseSource(string(src))
	if err != nil {
		return err
	}

	// LL(1) diagnostics (left recursion, ambiguous alternatives, ...) and LR
	// conflicts are independent: a grammar that fails one can still be a
	// perfectly good grammar for the other engine, so neither pass aborts
	// the other.
	llErrs := res.G.Expect()
	llErrs = append(llErrs, res.G.Check()...)
	if len(llErrs) > 0 {
		fmt.Fprintf(os.Stdout, "%v LL(1) diagnostics:\n", len(llErrs))
		for _, e := range llErrs {
			fmt.Fprintf(os.Stdout, "  %v\n", e)
		}
	} else {
		fmt.Fprintln(os.Stdout, "no construction or LL(1) ambiguity errors")
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

	fmt.Fprintf(os.Stdout, "%v states, %v conflicts\n", len(automaton.States), len(table.Conflicts))
	for _, c := range table.Conflicts {
		if c.Reduce2 != nil {
			fmt.Fprintf(os.Stdout, "  state %v, %v: reduce/reduce between %v and %v\n", c.State, c.Term, c.Reduce1, c.Reduce2)
		} else {
			fmt.Fprintf(os.Stdout, "  state %v, %v: shift/reduce against %v\n", c.State, c.Term, c.Reduce1)
		}
	}

	if *checkFlags.describe {
		describeAutomaton(os.Stdout, automaton, table)
	}

	return nil
}

func describeAutomaton(w io.Writer, a *lr.Automaton, t *lr.Table) {
	for _, st := range a.States {
		fmt.Fprintf(w, "state %v:\n", st.Num)
		for _, item := range st.Items {
			fmt.Fprintf(w, "  %v\n", item)
		}
		for term, act := range t.Action[st.Num] {
			fmt.Fprintf(w, "  on %v: %v\n", term, act)
		}
		for nt, next := range t.Goto[st.Num] {
			fmt.Fprintf(w, "  goto %v: %v\n", nt, next)
		}
	}
}
