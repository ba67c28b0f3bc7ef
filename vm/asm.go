package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Assemble turns the mnemonic text form (one instruction per line,
// semicolon- or newline-separated, e.g. "Push 3; Push 4; Add; Print 1;
// Pop;") into a runnable program. Labels are plain decimal jump targets;
// this assembler has no symbolic label support, matching the VM's own
// address-is-an-int contract.
func Assemble(src string) ([]Instr, error) {
	var lines []string
	for _, stmt := range strings.Split(src, ";") {
		for _, line := range strings.Split(stmt, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			lines = append(lines, line)
		}
	}

	var prog []Instr
	for i, line := range lines {
		in, err := assembleLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		prog = append(prog, in)
	}
	return prog, nil
}

var mnemonics = map[string]Op{
	"push": OpPush, "pop": OpPop,
	"add": OpAdd, "sub": OpSubtract, "mul": OpMultiply, "div": OpDivide, "minus": OpMinus,
	"eq": OpEq, "ne": OpNe, "gt": OpGt, "ge": OpGe, "lt": OpLt, "le": OpLe,
	"load": OpLoad, "store": OpStore, "input": OpInput, "print": OpPrint,
	"branch": OpBranch, "bzero": OpBzero,

	"call": OpCall, "entry": OpEntry, "return": OpReturn, "returnvalue": OpReturnValue,

	"entryframed": OpEntryFramed, "exitframed": OpExitFramed,
	"loadfp": OpLoadFP, "storefp": OpStoreFP,

	"entrynested": OpEntryNested, "exitnested": OpExitNested,
	"loaddp": OpLoadDP, "storedp": OpStoreDP, "pushdp": OpPushDP,

	"callvalue": OpCallValue, "rotate": OpRotate, "pushfp": OpPushFP,
	"loadgc": OpLoadGC, "storegc": OpStoreGC,

	"halt": OpHalt,
}

func assembleLine(line string) (Instr, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Instr{}, fmt.Errorf("empty instruction")
	}
	op, ok := mnemonics[strings.ToLower(fields[0])]
	if !ok {
		return Instr{}, fmt.Errorf("unknown mnemonic %q", fields[0])
	}

	var args []int
	for _, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Instr{}, fmt.Errorf("bad operand %q: %w", f, err)
		}
		args = append(args, n)
	}

	in := Instr{Op: op}
	if len(args) > 0 {
		in.Arg0 = args[0]
	}
	if len(args) > 1 {
		in.Arg1 = args[1]
	}
	if len(args) > 2 {
		in.Arg2 = args[2]
	}
	return in, nil
}
