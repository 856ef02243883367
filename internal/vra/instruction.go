package vra

import (
	"strconv"

	"github.com/pkg/errors"
)

// InstructionAnalyzer maps SSA instructions to operand nodes (§4.C). It
// is reused across every block of a function; LoadBlock/FreeBlock
// bracket the current block's scope and iteration-bound context so the
// combine closures it builds capture the right values.
type InstructionAnalyzer struct {
	scope      *Scope
	iterBounds IterBounds
	constSeq   *int
	log        Logger
}

// NewInstructionAnalyzer creates an analyzer sharing a constant-name
// sequence and logger with the rest of a function's analysis.
func NewInstructionAnalyzer(constSeq *int, log Logger) *InstructionAnalyzer {
	return &InstructionAnalyzer{constSeq: constSeq, log: log}
}

// LoadBlock installs the scope and iteration-bound context for the
// block about to be swept. (1,1) outside any loop.
func (ia *InstructionAnalyzer) LoadBlock(scope *Scope, bounds IterBounds) {
	ia.scope = scope
	ia.iterBounds = bounds
}

// FreeBlock clears the per-block context once the sweep is done.
func (ia *InstructionAnalyzer) FreeBlock() {
	ia.scope = nil
}

// nextConstName synthesizes a unique constant operand name.
func (ia *InstructionAnalyzer) nextConstName() string {
	*ia.constSeq++
	return "const" + strconv.Itoa(*ia.constSeq)
}

// warn logs a wrapped sentinel through the shared Logger. The wrap keeps
// the offending name/opcode in the causal chain while the non-fatal
// §7 contract (skip, don't abort) stays unchanged: err is never
// returned, only recorded.
func (ia *InstructionAnalyzer) warn(err error) {
	if ia.log != nil {
		ia.log.Warnf("%s", err.Error())
	}
}

// resolveOperand turns an OperandRef into an *Operand: a freshly
// synthesized Constant node for literals, or a scope lookup (which
// walks parents) for named values. Returns nil if the name is not
// present in any reachable scope (§7 "Unknown operand") — the caller
// must skip the instruction rather than add a broken operand.
func (ia *InstructionAnalyzer) resolveOperand(ref OperandRef) *Operand {
	if ref.IsConst {
		op := NewConstantOperand(ia.nextConstName(), Point(ref.ConstValue))
		ia.scope.AddOperand(op)
		return op
	}
	op := ia.scope.Lookup(ref.Name)
	if op == nil {
		ia.warn(errors.Wrapf(ErrUnknownOperand, "%q, instruction skipped", ref.Name))
	}
	return op
}

// AnalyzeExpressionNode dispatches a single non-PHI instruction (§4.C),
// attaching a new operand to the current scope when the instruction
// defines a named value. Unsupported opcodes and instructions whose
// operands can't be resolved add nothing.
func (ia *InstructionAnalyzer) AnalyzeExpressionNode(inst InstView) {
	name := inst.Name()
	// Snapshot by value: combine closures may be resolved lazily, long
	// after ia has moved on to another block's bounds (§4.C, §9).
	bounds := ia.iterBounds

	switch inst.Opcode() {
	case OpPhi:
		ia.analyzeNonHeaderPhi(inst)
	case OpAdd, OpFAdd:
		ia.binary(name, inst, func(a, b []Range) Range {
			return Add(a[0], b[0], bounds.Min, bounds.Max)
		})
	case OpSub, OpFSub:
		ia.binary(name, inst, func(a, b []Range) Range {
			return Sub(a[0], b[0], bounds.Min, bounds.Max)
		})
	case OpMul, OpFMul:
		ia.binary(name, inst, func(a, b []Range) Range {
			if bounds.Min == 1 && bounds.Max == 1 {
				return Mul(a[0], b[0])
			}
			return MulOnLoop(a[0], b[0], bounds.Min, bounds.Max)
		})
	case OpSDiv, OpUDiv, OpFDiv:
		ia.binary(name, inst, func(a, b []Range) Range {
			if b[0].ContainsZero() {
				ia.warn(errors.Wrapf(ErrDivByZeroPossible, "%q falls back to Top()", name))
				return Top()
			}
			return Div(a[0], b[0])
		})
	case OpNeg, OpFNeg:
		ia.unary(name, inst, func(x Range) Range { return Range{Min: -x.Max, Max: -x.Min} })
	case OpNot:
		ia.unarySkip(name, inst, Top())
	case OpICmp, OpFCmp:
		ia.constant(name, NewRange(0, 1))
	default:
		ia.warn(errors.Wrapf(ErrUnsupportedOpcode, "opcode %d on %q, nothing added", inst.Opcode(), name))
	}
}

// analyzeNonHeaderPhi handles a non-header PHI: one dependency per incoming
// value, combined by Merge.
func (ia *InstructionAnalyzer) analyzeNonHeaderPhi(inst InstView) {
	name := inst.Name()
	incs := inst.Incoming()
	deps := make([]*Operand, 0, len(incs))
	for _, inc := range incs {
		dep := ia.resolveOperand(inc.Value)
		if dep == nil {
			return
		}
		deps = append(deps, dep)
	}
	if len(deps) == 0 {
		return
	}
	op := NewDerivedOperand(name, KindLocal, deps, func(rs []Range) Range {
		result := Bottom()
		for _, r := range rs {
			result = Merge(result, r)
		}
		return result
	})
	ia.scope.AddOperand(op)
}

// AnalyzeHeaderPHINode handles a loop-header PHI: only the value on the
// entering (non-back-edge) predecessor is considered, registered under
// the PHI's own name so every in-loop use of it resolves normally. This
// breaks the only cycle SSA can introduce — nothing in the loop body
// depends on the back-edge value to compute the header PHI itself
// (§4.C, §9). rescaleLoopHeaderScope later widens this same operand in
// place once the latch scope is known.
func (ia *InstructionAnalyzer) AnalyzeHeaderPHINode(inst InstView, loop LoopHandle) {
	name := inst.Name()

	for _, inc := range inst.Incoming() {
		if loop != nil && loop.Contains(inc.Pred) {
			continue // back edge, skip
		}
		if inc.Value.IsConst {
			ia.scope.AddOperand(NewConstantOperand(name, Point(inc.Value.ConstValue)))
			return
		}
		entering := ia.scope.Lookup(inc.Value.Name)
		if entering == nil {
			ia.warn(errors.Wrapf(ErrUnknownOperand, "%q feeding header phi %q", inc.Value.Name, name))
			return
		}
		clone := NewDerivedOperand(name, entering.Kind, []*Operand{entering}, func(rs []Range) Range {
			return rs[0]
		})
		ia.scope.AddOperand(clone)
		return
	}
}

func (ia *InstructionAnalyzer) binary(name string, inst InstView, combine func(a, b []Range) Range) {
	refs := inst.Operands()
	if len(refs) != 2 {
		return
	}
	x := ia.resolveOperand(refs[0])
	y := ia.resolveOperand(refs[1])
	if x == nil || y == nil {
		return
	}
	op := NewDerivedOperand(name, KindLocal, []*Operand{x, y}, func(rs []Range) Range {
		return combine(rs[:1], rs[1:])
	})
	ia.scope.AddOperand(op)
}

func (ia *InstructionAnalyzer) unary(name string, inst InstView, combine func(x Range) Range) {
	refs := inst.Operands()
	if len(refs) != 1 {
		return
	}
	x := ia.resolveOperand(refs[0])
	if x == nil {
		return
	}
	op := NewDerivedOperand(name, KindLocal, []*Operand{x}, func(rs []Range) Range {
		return combine(rs[0])
	})
	ia.scope.AddOperand(op)
}

// unarySkip is used for conservative unary opcodes (bitwise not) that
// always yield Top regardless of the operand's resolved value.
func (ia *InstructionAnalyzer) unarySkip(name string, inst InstView, r Range) {
	if name == "" {
		return
	}
	ia.constant(name, r)
}

func (ia *InstructionAnalyzer) constant(name string, r Range) {
	if name == "" {
		return
	}
	ia.scope.AddOperand(NewConstantOperand(name, r))
}
