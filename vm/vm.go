// Package vm is a stack-based virtual machine: a flat global memory, an
// evaluation stack, and a layered call model (flat, framed, nested, and
// higher-order/closure calls) driven by a tagged-instruction dispatch
// loop.
//
// The four call layers generalize a tree-walking interpreter's scope
// stack, from simplest to most capable:
//   - flat: no callee-local state at all (Call/Entry/Return/ReturnValue).
//   - framed: one activation record per call, addressed by a single
//     frame pointer (EntryFramed/ExitFramed/LoadFP/StoreFP).
//   - nested: activation records chained through a display so a callee
//     can reach an enclosing call's locals (EntryNested/ExitNested/
//     LoadDP/StoreDP/PushDP), matching how statically-nested procedures (Pascal-style)
//     address an outer scope.
//   - higher-order: function values that can be passed/returned/stored,
//     calling through a value (CallValue), reshaping the stack to slot
//     an environment pointer next to its arguments (Rotate), and
//     addressing a frame that has escaped its creating call by going
//     through a second, non-reclaimed display into the GC area
//     (PushFP/LoadGC/StoreGC) rather than the live one.
package vm

import "fmt"

// Op tags an instruction's operation.
type Op int

const (
	OpPush Op = iota
	OpPop
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpMinus
	OpEq
	OpNe
	OpGt
	OpGe
	OpLt
	OpLe

	OpLoad  // global memory load, absolute address
	OpStore // global memory store, absolute address
	OpInput
	OpPrint

	OpBranch
	OpBzero

	// Flat calls: no callee-local state.
	OpCall
	OpEntry
	OpReturn
	OpReturnValue

	// Framed calls: one activation record, addressed by a frame pointer.
	OpEntryFramed
	OpExitFramed
	OpLoadFP
	OpStoreFP

	// Nested calls: a display chains activation records so a callee can
	// reach an enclosing call's locals.
	OpEntryNested
	OpExitNested
	OpLoadDP
	OpStoreDP
	OpPushDP

	// Higher-order calls: function values and a second, non-reclaimed
	// display for frames that outlive the call that created them.
	OpCallValue
	OpRotate
	OpPushFP
	OpLoadGC
	OpStoreGC

	OpHalt
)

func (o Op) String() string {
	names := [...]string{
		"Push", "Pop", "Add", "Subtract", "Multiply", "Divide", "Minus",
		"Eq", "Ne", "Gt", "Ge", "Lt", "Le",
		"Load", "Store", "Input", "Print",
		"Branch", "Bzero",
		"Call", "Entry", "Return", "ReturnValue",
		"EntryFramed", "ExitFramed", "LoadFP", "StoreFP",
		"EntryNested", "ExitNested", "LoadDP", "StoreDP", "PushDP",
		"CallValue", "Rotate", "PushFP", "LoadGC", "StoreGC",
		"Halt",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return "?"
}

// Instr is one instruction: an opcode plus up to three integer operands,
// whose meaning depends on Op. Push's Arg0 is the literal value;
// EntryNested's Arg0/Arg1/Arg2 are parms/depth/size; LoadDP/StoreDP's
// Arg0/Arg1 are the frame-relative address and the display depth to
// walk.
type Instr struct {
	Op   Op
	Arg0 int
	Arg1 int
	Arg2 int
}

// Frame is one activation record: the offset into Data where its
// parameters and locals begin, their combined count, and (nested calls
// only) the display to restore on exit.
type Frame struct {
	Base     int
	Size     int
	PrevDisp []int
}

// Hooks wires the VM's Input/Print instructions to a host. Both read/write
// machine integers, the VM's only value type.
type Hooks struct {
	Input func() (int, error)
	Print func(int) error
}

// Machine is one VM instance: its program, memory, and execution state.
// Program counter, data stack, and call stack are all exposed so a host
// (package cmd/parsekit) can single-step and inspect state between steps.
type Machine struct {
	Program []Instr
	Memory  []int // global variables, addressed absolutely by Load/Store

	PC     int
	Data   []int   // evaluation stack: operands, arguments, frames, results
	Frames []Frame // active activation records, one per live call

	Display   []int // one GC base offset per live lexical nesting level
	GC        []int // nested frames' actual storage: parms+locals, never reclaimed
	GCDisplay []int // parallel to Display, but append-only (never unwound)

	rets []int // return addresses, one per live call

	halted bool
	hooks  Hooks
}

// New creates a machine with the given program and a zeroed memory area of
// memorySize cells, starting execution at startAddress.
func New(program []Instr, memorySize, startAddress int, hooks Hooks) *Machine {
	return &Machine{
		Program: program,
		Memory:  make([]int, memorySize),
		PC:      startAddress,
		hooks:   hooks,
	}
}

// Halted reports whether the machine has executed Halt.
func (m *Machine) Halted() bool { return m.halted }

// Run executes until Halt or an error (running past the end of the
// program is an error). It runs to completion in one call; RunSteps
// supports running a bounded number of instructions instead.
func (m *Machine) Run() error {
	for !m.halted {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunSteps executes at most n instructions, returning early (with halted
// still false) if the budget is exhausted first. This backs the `--steps`
// single-step flag on `parsekit run`.
func (m *Machine) RunSteps(n int) error {
	for i := 0; i < n && !m.halted; i++ {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes exactly one instruction.
func (m *Machine) Step() error {
	if m.halted {
		return nil
	}
	if m.PC < 0 || m.PC >= len(m.Program) {
		return fmt.Errorf("vm: program counter %d out of range", m.PC)
	}
	in := m.Program[m.PC]
	m.PC++

	switch in.Op {
	case OpPush:
		m.push(in.Arg0)
	case OpPop:
		_, err := m.pop()
		return err
	case OpAdd, OpSubtract, OpMultiply, OpDivide, OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return m.binOp(in.Op)
	case OpMinus:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.push(-v)

	case OpLoad:
		m.push(m.Memory[in.Arg0])
	case OpStore:
		v, err := m.pop()
		if err != nil {
			return err
		}
		m.Memory[in.Arg0] = v
	case OpInput:
		v, err := m.readInput(in.Arg0)
		if err != nil {
			return err
		}
		m.push(v)
	case OpPrint:
		return m.print(in.Arg0)

	case OpBranch:
		m.PC = in.Arg0
	case OpBzero:
		v, err := m.pop()
		if err != nil {
			return err
		}
		if v == 0 {
			m.PC = in.Arg0
		}

	case OpCall:
		m.rets = append(m.rets, m.PC)
		m.PC = in.Arg0
	case OpEntry:
		// flat calls carry no per-activation state; nothing to set up.
	case OpReturn:
		if _, err := m.pop(); err != nil {
			return err
		}
		return m.popRet()
	case OpReturnValue:
		return m.popRet()

	case OpEntryFramed:
		return m.enterFramed(in.Arg0, in.Arg1)
	case OpExitFramed:
		return m.exitFramed(in.Arg0)
	case OpLoadFP:
		base, err := m.frameBase()
		if err != nil {
			return err
		}
		m.push(m.Data[base+in.Arg0])
	case OpStoreFP:
		v, err := m.pop()
		if err != nil {
			return err
		}
		base, err := m.frameBase()
		if err != nil {
			return err
		}
		m.Data[base+in.Arg0] = v

	case OpEntryNested:
		return m.enterNested(in.Arg0, in.Arg1, in.Arg2)
	case OpExitNested:
		return m.exitNested()
	case OpLoadDP:
		base, err := m.displayBase(in.Arg1)
		if err != nil {
			return err
		}
		m.push(m.GC[base+in.Arg0])
	case OpStoreDP:
		v, err := m.pop()
		if err != nil {
			return err
		}
		base, err := m.displayBase(in.Arg1)
		if err != nil {
			return err
		}
		m.GC[base+in.Arg0] = v
	case OpPushDP:
		base, err := m.displayBase(0)
		if err != nil {
			return err
		}
		m.push(base)

	case OpCallValue:
		target, err := m.pop()
		if err != nil {
			return err
		}
		m.rets = append(m.rets, m.PC)
		m.PC = target
	case OpRotate:
		return m.rotate(in.Arg0, in.Arg1)
	case OpPushFP:
		base, err := m.frameBase()
		if err != nil {
			return err
		}
		m.push(base)
	case OpLoadGC:
		base, err := m.gcDisplayBase(in.Arg1)
		if err != nil {
			return err
		}
		m.push(m.GC[base+in.Arg0])
	case OpStoreGC:
		v, err := m.pop()
		if err != nil {
			return err
		}
		base, err := m.gcDisplayBase(in.Arg1)
		if err != nil {
			return err
		}
		m.GC[base+in.Arg0] = v

	case OpHalt:
		m.halted = true
	default:
		return fmt.Errorf("vm: unknown opcode %v", in.Op)
	}
	return nil
}

func (m *Machine) push(v int) { m.Data = append(m.Data, v) }

func (m *Machine) pop() (int, error) {
	if len(m.Data) == 0 {
		return 0, fmt.Errorf("vm: stack underflow")
	}
	v := m.Data[len(m.Data)-1]
	m.Data = m.Data[:len(m.Data)-1]
	return v, nil
}

func (m *Machine) popRet() error {
	if len(m.rets) == 0 {
		m.halted = true
		return nil
	}
	m.PC = m.rets[len(m.rets)-1]
	m.rets = m.rets[:len(m.rets)-1]
	return nil
}

func (m *Machine) binOp(op Op) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	switch op {
	case OpAdd:
		m.push(a + b)
	case OpSubtract:
		m.push(a - b)
	case OpMultiply:
		m.push(a * b)
	case OpDivide:
		if b == 0 {
			return fmt.Errorf("vm: division by zero")
		}
		m.push(a / b)
	case OpEq:
		m.push(boolInt(a == b))
	case OpNe:
		m.push(boolInt(a != b))
	case OpGt:
		m.push(boolInt(a > b))
	case OpGe:
		m.push(boolInt(a >= b))
	case OpLt:
		m.push(boolInt(a < b))
	case OpLe:
		m.push(boolInt(a <= b))
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (m *Machine) readInput(dflt int) (int, error) {
	if m.hooks.Input == nil {
		return dflt, nil
	}
	v, err := m.hooks.Input()
	if err != nil {
		return dflt, nil
	}
	return v, nil
}

func (m *Machine) print(n int) error {
	if len(m.Data) < n {
		return fmt.Errorf("vm: stack underflow")
	}
	vals := append([]int{}, m.Data[len(m.Data)-n:]...)
	m.Data = m.Data[:len(m.Data)-n]
	if m.hooks.Print == nil {
		return nil
	}
	for _, v := range vals {
		if err := m.hooks.Print(v); err != nil {
			return err
		}
	}
	return nil
}

// frameBase returns the current (innermost) activation record's base
// offset into Data.
func (m *Machine) frameBase() (int, error) {
	if len(m.Frames) == 0 {
		return 0, fmt.Errorf("vm: no active frame")
	}
	return m.Frames[len(m.Frames)-1].Base, nil
}

// displayBase returns the base offset of the frame found by walking
// depth levels up the live display from the innermost (0 is the
// innermost frame itself).
func (m *Machine) displayBase(depth int) (int, error) {
	idx := len(m.Display) - 1 - depth
	if idx < 0 || idx >= len(m.Display) {
		return 0, fmt.Errorf("vm: display depth %d out of range", depth)
	}
	return m.Display[idx], nil
}

// gcDisplayBase is displayBase's counterpart over GCDisplay, the
// append-only mirror that survives past the frames it was built from
// being popped off Data — what a closure's captured environment
// addresses after its creating call has returned.
func (m *Machine) gcDisplayBase(depth int) (int, error) {
	idx := len(m.GCDisplay) - 1 - depth
	if idx < 0 || idx >= len(m.GCDisplay) {
		return 0, fmt.Errorf("vm: GC display depth %d out of range", depth)
	}
	return m.GCDisplay[idx], nil
}

// enterFramed sets up a framed call's activation record: parms
// arguments already sit on top of Data (pushed by the caller), and size
// more zeroed local cells are appended after them.
func (m *Machine) enterFramed(parms, size int) error {
	if len(m.Data) < parms {
		return fmt.Errorf("vm: stack underflow entering frame")
	}
	base := len(m.Data) - parms
	m.Data = append(m.Data, make([]int, size)...)
	m.Frames = append(m.Frames, Frame{Base: base, Size: parms + size})
	return nil
}

// exitFramed tears down the innermost framed activation record, keeping
// exactly the one result value left above it (a void callee pushes a
// placeholder) and returning control to the caller.
func (m *Machine) exitFramed(parms int) error {
	if len(m.Frames) == 0 {
		return fmt.Errorf("vm: no active frame to exit")
	}
	f := m.Frames[len(m.Frames)-1]
	m.Frames = m.Frames[:len(m.Frames)-1]
	result, err := m.pop()
	if err != nil {
		return err
	}
	_ = parms // parms is the Entry/Exit pair's own bookkeeping; f.Base already accounts for it.
	m.Data = append(m.Data[:f.Base], result)
	return m.popRet()
}

// enterNested sets up a nested call's activation record directly in the
// GC area rather than on Data: parms arguments are popped off Data and
// copied alongside size freshly zeroed locals into a new region at the
// end of GC, which is never reclaimed. The display is truncated to depth
// levels (discarding entries left over from a call path that isn't this
// one's lexical parent) before the new region's base is appended as the
// innermost entry, in both Display (unwound on exit) and GCDisplay
// (append-only, so a closure capturing this frame can still address it
// after the live entry is gone).
func (m *Machine) enterNested(parms, depth, size int) error {
	if len(m.Data) < parms {
		return fmt.Errorf("vm: stack underflow entering frame")
	}
	if depth > len(m.Display) {
		return fmt.Errorf("vm: display depth %d exceeds live display", depth)
	}
	args := append([]int{}, m.Data[len(m.Data)-parms:]...)
	m.Data = m.Data[:len(m.Data)-parms]

	base := len(m.GC)
	m.GC = append(m.GC, args...)
	m.GC = append(m.GC, make([]int, size)...)

	prevDisp := append([]int{}, m.Display...)
	m.Display = append(append([]int{}, m.Display[:depth]...), base)
	m.Frames = append(m.Frames, Frame{Base: base, Size: parms + size, PrevDisp: prevDisp})
	m.GCDisplay = append(m.GCDisplay, base)
	return nil
}

// exitNested tears down the innermost nested activation record. Its
// locals live in GC, not Data, so there is nothing to trim from Data: a
// value-returning callee simply leaves its result on top of Data, same
// as a flat call's ReturnValue, and exitNested passes it through
// untouched.
func (m *Machine) exitNested() error {
	if len(m.Frames) == 0 {
		return fmt.Errorf("vm: no active frame to exit")
	}
	f := m.Frames[len(m.Frames)-1]
	m.Frames = m.Frames[:len(m.Frames)-1]
	m.Display = f.PrevDisp
	return m.popRet()
}

// rotate cyclically shifts the top length elements of Data left by n
// positions (negative n shifts right), used to slot a captured
// environment pointer into its expected argument position ahead of a
// higher-order call.
func (m *Machine) rotate(n, length int) error {
	if length < 0 || length > len(m.Data) {
		return fmt.Errorf("vm: rotate window %d exceeds stack depth", length)
	}
	if length == 0 {
		return nil
	}
	window := m.Data[len(m.Data)-length:]
	shift := ((n % length) + length) % length
	rotated := append(append([]int{}, window[shift:]...), window[:shift]...)
	copy(window, rotated)
	return nil
}
