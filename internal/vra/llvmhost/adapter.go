// Package llvmhost adapts github.com/llir/llvm/ir as the concrete IR
// backing internal/vra's host-compiler facade. It is the only package
// in this module that imports llir/llvm for the VRA pass itself — the
// pass proper stays IR-agnostic (internal/vra's facade.go).
package llvmhost

import (
	"math/big"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/alas-vra/internal/vra"
)

// Module wraps an *ir.Module as a vra.ModuleView.
type Module struct {
	m *ir.Module
}

// NewModule adapts m.
func NewModule(m *ir.Module) *Module {
	return &Module{m: m}
}

// Functions returns one vra.FunctionView per function definition,
// skipping external declarations (no blocks to walk).
func (w *Module) Functions() []vra.FunctionView {
	out := make([]vra.FunctionView, 0, len(w.m.Funcs))
	for _, f := range w.m.Funcs {
		if len(f.Blocks) == 0 {
			continue
		}
		out = append(out, NewFunction(f))
	}
	return out
}

// Constants returns module-level globals with a constant integer or
// float initializer; any other initializer kind is omitted (§4.F).
func (w *Module) Constants() []vra.ModuleConstant {
	var out []vra.ModuleConstant
	for _, g := range w.m.Globals {
		if g.Init == nil {
			continue
		}
		if r, ok := constRange(g.Init); ok {
			out = append(out, vra.ModuleConstant{Name: g.Name(), Value: r})
		}
	}
	return out
}

// Function wraps an *ir.Func as a vra.FunctionView, precomputing the
// predecessor map, dominator tree and natural-loop forest once up
// front since llir/llvm tracks neither predecessors nor loop structure
// natively.
type Function struct {
	f      *ir.Func
	blocks map[string]*Block
	preds  map[string][]*ir.Block

	dom   *dominatorTree
	loops *loopForest
	scev  *scalarEvolution
}

// NewFunction adapts f.
func NewFunction(f *ir.Func) *Function {
	fn := &Function{
		f:      f,
		blocks: make(map[string]*Block, len(f.Blocks)),
		preds:  make(map[string][]*ir.Block),
	}
	for _, b := range f.Blocks {
		fn.blocks[b.Name()] = &Block{ir: b, fn: fn}
	}
	for _, b := range f.Blocks {
		for _, s := range termSuccessors(b.Term) {
			fn.preds[s.Name()] = append(fn.preds[s.Name()], b)
		}
	}
	fn.dom = buildDominatorTree(fn)
	fn.loops = buildLoopForest(fn)
	fn.scev = &scalarEvolution{fn: fn}
	return fn
}

func (fn *Function) block(b *ir.Block) *Block {
	if b == nil {
		return nil
	}
	return fn.blocks[b.Name()]
}

// Name implements vra.FunctionView.
func (fn *Function) Name() string { return fn.f.Name() }

// Params implements vra.FunctionView.
func (fn *Function) Params() []string {
	out := make([]string, len(fn.f.Params))
	for i, p := range fn.f.Params {
		out[i] = p.Name()
	}
	return out
}

// EntryBlock implements vra.FunctionView.
func (fn *Function) EntryBlock() vra.BlockView {
	if len(fn.f.Blocks) == 0 {
		return nil
	}
	return fn.block(fn.f.Blocks[0])
}

// Dominators implements vra.FunctionView.
func (fn *Function) Dominators() vra.Dominators { return fn.dom }

// Loops implements vra.FunctionView.
func (fn *Function) Loops() vra.LoopInfo { return fn.loops }

// ScalarEvolution implements vra.FunctionView.
func (fn *Function) ScalarEvolution() vra.ScalarEvolution { return fn.scev }

// Block wraps an *ir.Block as a vra.BlockView.
type Block struct {
	ir *ir.Block
	fn *Function
}

// ID implements vra.BlockView.
func (b *Block) ID() string { return b.ir.Name() }

// Instructions implements vra.BlockView.
func (b *Block) Instructions() []vra.InstView {
	out := make([]vra.InstView, 0, len(b.ir.Insts))
	for _, inst := range b.ir.Insts {
		out = append(out, &Inst{ir: inst, fn: b.fn})
	}
	return out
}

// Terminator implements vra.BlockView.
func (b *Block) Terminator() vra.TermView {
	if b.ir.Term == nil {
		return nil
	}
	return &Term{ir: b.ir.Term}
}

// Predecessors implements vra.BlockView.
func (b *Block) Predecessors() []vra.BlockView {
	preds := b.fn.preds[b.ir.Name()]
	out := make([]vra.BlockView, 0, len(preds))
	for _, p := range preds {
		out = append(out, b.fn.block(p))
	}
	return out
}

// Successors implements vra.BlockView.
func (b *Block) Successors() []vra.BlockView {
	succs := termSuccessors(b.ir.Term)
	out := make([]vra.BlockView, 0, len(succs))
	for _, s := range succs {
		out = append(out, b.fn.block(s))
	}
	return out
}

// termSuccessors enumerates a terminator's target blocks; a Return has
// none.
func termSuccessors(t ir.Terminator) []*ir.Block {
	switch term := t.(type) {
	case *ir.TermBr:
		return []*ir.Block{term.Target}
	case *ir.TermCondBr:
		return []*ir.Block{term.TargetTrue, term.TargetFalse}
	case *ir.TermSwitch:
		out := make([]*ir.Block, 0, len(term.Cases)+1)
		out = append(out, term.TargetDefault)
		for _, c := range term.Cases {
			out = append(out, c.Target)
		}
		return out
	default:
		return nil
	}
}

// Inst wraps an ir.Instruction as a vra.InstView.
type Inst struct {
	ir ir.Instruction
	fn *Function
}

// Name implements vra.InstView.
func (i *Inst) Name() string {
	if n, ok := i.ir.(value.Named); ok {
		return n.Name()
	}
	return ""
}

// Opcode implements vra.InstView (§4.C's dispatch families).
func (i *Inst) Opcode() vra.Opcode {
	switch i.ir.(type) {
	case *ir.InstAdd:
		return vra.OpAdd
	case *ir.InstFAdd:
		return vra.OpFAdd
	case *ir.InstSub:
		return vra.OpSub
	case *ir.InstFSub:
		return vra.OpFSub
	case *ir.InstMul:
		return vra.OpMul
	case *ir.InstFMul:
		return vra.OpFMul
	case *ir.InstSDiv:
		return vra.OpSDiv
	case *ir.InstUDiv:
		return vra.OpUDiv
	case *ir.InstFDiv:
		return vra.OpFDiv
	case *ir.InstFNeg:
		return vra.OpFNeg
	case *ir.InstICmp:
		return vra.OpICmp
	case *ir.InstFCmp:
		return vra.OpFCmp
	case *ir.InstPhi:
		return vra.OpPhi
	case *ir.InstCall:
		return vra.OpCall
	default:
		return vra.OpOther
	}
}

// Operands implements vra.InstView for the binary/unary families the
// analyzer models; everything else returns nil (§4.C "unsupported
// opcodes add nothing").
func (i *Inst) Operands() []vra.OperandRef {
	switch inst := i.ir.(type) {
	case *ir.InstAdd:
		return []vra.OperandRef{ref(inst.X), ref(inst.Y)}
	case *ir.InstFAdd:
		return []vra.OperandRef{ref(inst.X), ref(inst.Y)}
	case *ir.InstSub:
		return []vra.OperandRef{ref(inst.X), ref(inst.Y)}
	case *ir.InstFSub:
		return []vra.OperandRef{ref(inst.X), ref(inst.Y)}
	case *ir.InstMul:
		return []vra.OperandRef{ref(inst.X), ref(inst.Y)}
	case *ir.InstFMul:
		return []vra.OperandRef{ref(inst.X), ref(inst.Y)}
	case *ir.InstSDiv:
		return []vra.OperandRef{ref(inst.X), ref(inst.Y)}
	case *ir.InstUDiv:
		return []vra.OperandRef{ref(inst.X), ref(inst.Y)}
	case *ir.InstFDiv:
		return []vra.OperandRef{ref(inst.X), ref(inst.Y)}
	case *ir.InstFNeg:
		return []vra.OperandRef{ref(inst.X)}
	default:
		return nil
	}
}

// Incoming implements vra.InstView for PHI instructions.
func (i *Inst) Incoming() []vra.PhiIncoming {
	phi, ok := i.ir.(*ir.InstPhi)
	if !ok {
		return nil
	}
	out := make([]vra.PhiIncoming, 0, len(phi.Incs))
	for _, inc := range phi.Incs {
		out = append(out, vra.PhiIncoming{Value: ref(inc.X), Pred: i.fn.block(inc.Pred)})
	}
	return out
}

// Term wraps an ir.Terminator as a vra.TermView.
type Term struct {
	ir ir.Terminator
}

// Kind implements vra.TermView.
func (t *Term) Kind() vra.TermKind {
	switch t.ir.(type) {
	case *ir.TermRet:
		return vra.TermReturn
	case *ir.TermBr:
		return vra.TermBr
	case *ir.TermCondBr:
		return vra.TermCondBr
	case *ir.TermSwitch:
		return vra.TermSwitch
	default:
		return vra.TermOther
	}
}

// ReturnOperand implements vra.TermView.
func (t *Term) ReturnOperand() (vra.OperandRef, bool) {
	ret, ok := t.ir.(*ir.TermRet)
	if !ok || ret.X == nil {
		return vra.OperandRef{}, false
	}
	return ref(ret.X), true
}

// constFloat extracts a constant integer or float's value as float64.
func constFloat(v value.Value) (float64, bool) {
	switch c := v.(type) {
	case *constant.Int:
		f := new(big.Float).SetInt(c.X)
		out, _ := f.Float64()
		return out, true
	case *constant.Float:
		out, _ := c.X.Float64()
		return out, true
	default:
		return 0, false
	}
}

func constRange(v value.Value) (vra.Range, bool) {
	f, ok := constFloat(v)
	if !ok {
		return vra.Range{}, false
	}
	return vra.Point(f), true
}

// ref turns an llir/llvm value into an OperandRef: a literal for
// constant ints/floats, a name lookup for anything Named, and the zero
// value (an unresolvable empty name) for anything else — the analyzer
// treats that as an unknown operand (§7).
func ref(v value.Value) vra.OperandRef {
	if f, ok := constFloat(v); ok {
		return vra.OperandRef{IsConst: true, ConstValue: f}
	}
	if n, ok := v.(value.Named); ok {
		return vra.OperandRef{Name: n.Name()}
	}
	return vra.OperandRef{}
}
