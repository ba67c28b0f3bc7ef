package main

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/hollowloci/parsekit/vm"
	"github.com/spf13/cobra"
)

var runFlags = struct {
	trace     *bool
	steps     *int
	memory    *int
	startAddr *int
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "run <program>",
		Short:   "Assemble and run a stack-VM program",
		Example: `  parsekit run program.pkvm`,
		Args:    cobra.ExactArgs(1),
		RunE:    runRun,
	}
	runFlags.trace = cmd.Flags().Bool("trace", false, "print each instruction as it executes")
	runFlags.steps = cmd.Flags().Int("steps", 0, "execute at most N instructions, then stop (0 means run to completion)")
	runFlags.memory = cmd.Flags().Int("memory", 1024, "memory size in cells")
	runFlags.startAddr = cmd.Flags().Int("start", 0, "program counter to start execution at")
	rootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	src, err := ioutil.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read the program file %s: %w", args[0], err)
	}

	prog, err := vm.Assemble(string(src))
	if err != nil {
		return fmt.Errorf("Cannot assemble the program: %w", err)
	}

	in := bufio.NewReader(os.Stdin)
	hooks := vm.Hooks{
		Print: func(v int) error {
			_, err := fmt.Fprintln(os.Stdout, v)
			return err
		},
		Input: func() (int, error) {
			var v int
			if _, err := fmt.Fscan(in, &v); err != nil {
				return 0, err
			}
			return v, nil
		},
	}

	m := vm.New(prog, *runFlags.memory, *runFlags.startAddr, hooks)

	if *runFlags.trace {
		for !m.Halted() {
			pc := m.PC
			if pc < 0 || pc >= len(m.Program) {
				break
			}
			fmt.Fprintf(os.Stderr, "%04d: %v\n", pc, m.Program[pc].Op)
			if err := m.Step(); err != nil {
				return err
			}
		}
		return nil
	}

	if *runFlags.steps > 0 {
		if err := m.RunSteps(*runFlags.steps); err != nil {
			return err
		}
		if !m.Halted() {
			fmt.Fprintf(os.Stdout, "stopped after %v steps at pc=%v\n", *runFlags.steps, m.PC)
		}
		return nil
	}

	return m.Run()
}
