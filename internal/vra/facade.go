package vra

// This file declares the narrow "compiler framework facade" the
// analysis depends on (spec §6): module/function iteration, basic
// block and instruction introspection, and the dominator/loop/scalar-
// evolution oracles. The pass itself never imports a concrete IR
// library — internal/vra/llvmhost implements these interfaces against
// github.com/llir/llvm/ir, so a different host IR only needs a new
// adapter package.

// ModuleView exposes a module's functions and module-level named
// constants.
type ModuleView interface {
	Functions() []FunctionView
	Constants() []ModuleConstant
}

// ModuleConstant is a module-level named initializer. Unsupported
// initializer kinds are simply omitted by the adapter (§4.F).
type ModuleConstant struct {
	Name  string
	Value Range
}

// FunctionView exposes one function's blocks and the analysis oracles
// scoped to it.
type FunctionView interface {
	Name() string
	EntryBlock() BlockView
	Params() []string
	Dominators() Dominators
	Loops() LoopInfo
	ScalarEvolution() ScalarEvolution
}

// BlockView is a basic block: its instructions, terminator, and CFG
// edges.
type BlockView interface {
	ID() string
	Instructions() []InstView
	Terminator() TermView
	Predecessors() []BlockView
	Successors() []BlockView
}

// Opcode classifies an instruction by the family the instruction
// analyzer dispatches on (§4.C).
type Opcode int

const (
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpNeg
	OpFNeg
	OpNot
	OpICmp
	OpFCmp
	OpPhi
	OpCall
	OpOther
)

// OperandRef is how an instruction refers to one of its operands: a
// literal constant, or a name to be looked up in the current scope.
type OperandRef struct {
	IsConst    bool
	ConstValue float64
	Name       string
}

// PhiIncoming pairs an incoming value with the predecessor block it
// arrives from.
type PhiIncoming struct {
	Value OperandRef
	Pred  BlockView
}

// InstView is one instruction's shape, as the instruction analyzer
// needs to see it (§4.C, §6 "Instruction introspection").
type InstView interface {
	// Name is the SSA result name, "" if the instruction defines no
	// named value (e.g. a bare store, a terminator).
	Name() string
	Opcode() Opcode
	// Operands returns the binary/unary operation's operand list in
	// position order. Empty for PHI and instructions with no operands
	// the analyzer models.
	Operands() []OperandRef
	// Incoming returns PHI incoming edges; empty for non-PHI
	// instructions.
	Incoming() []PhiIncoming
}

// TermKind classifies a block terminator.
type TermKind int

const (
	TermReturn TermKind = iota
	TermBr
	TermCondBr
	TermSwitch
	TermOther
)

// TermView is a block's terminating instruction.
type TermView interface {
	Kind() TermKind
	// ReturnOperand is valid only when Kind() == TermReturn; ok is
	// false for a void return.
	ReturnOperand() (OperandRef, bool)
}

// Dominators answers dominance queries for one function (§6).
type Dominators interface {
	// IDom returns b's immediate dominator, or nil for the entry
	// block.
	IDom(b BlockView) BlockView
	Dominates(a, b BlockView) bool
}

// LoopHandle is an opaque reference to one natural loop.
type LoopHandle interface {
	Header() BlockView
	Latches() []BlockView
	ExitBlocks() []BlockView
	Contains(b BlockView) bool
}

// LoopInfo answers loop-membership queries for one function (§6).
type LoopInfo interface {
	// LoopFor returns the innermost loop containing b, or nil if b is
	// not inside any loop.
	LoopFor(b BlockView) LoopHandle
}

// ScalarEvolution answers induction-variable/trip-count queries for
// one function (§6, §4.E "Trip-count determination").
type ScalarEvolution interface {
	// SmallConstantTripCount returns the loop's exact trip count when
	// it is a small compile-time constant.
	SmallConstantTripCount(l LoopHandle) (uint64, bool)
	// BackedgeTakenCount returns the loop's back-edge-taken count when
	// it resolves to a constant SCEV; ok is false when it is
	// uncomputable or symbolic, which callers must turn into the
	// documented fallback of 100 (§4.E, §7).
	BackedgeTakenCount(l LoopHandle) (uint64, bool)
}
