package llvmhost

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
)

// buildDiamondFunc builds entry -> {then, else} -> merge -> ret, the
// smallest CFG shape with a join that is not a simple chain.
func buildDiamondFunc() *ir.Func {
	m := ir.NewModule()
	f := m.NewFunc("diamond", types.Void)
	entry := f.NewBlock("entry")
	thenB := f.NewBlock("then")
	elseB := f.NewBlock("else")
	merge := f.NewBlock("merge")

	entry.NewCondBr(constant.NewInt(types.I1, 1), thenB, elseB)
	thenB.NewBr(merge)
	elseB.NewBr(merge)
	merge.NewRet(nil)
	return f
}

// buildLoopFunc builds a single counted loop:
//
//	entry -> header -(cond: i<10)-> body -> header (back edge)
//	               \-> exit
//
// header's phi starts at 0 and is incremented by 1 on the back edge,
// the shape matchInduction/matchBound are built to recognize.
func buildLoopFunc() *ir.Func {
	m := ir.NewModule()
	f := m.NewFunc("counted", types.Void)
	entry := f.NewBlock("entry")
	header := f.NewBlock("header")
	body := f.NewBlock("body")
	exit := f.NewBlock("exit")

	entry.NewBr(header)

	phi := header.NewPhi(ir.NewIncoming(constant.NewInt(types.I64, 0), entry))
	cmp := header.NewICmp(enum.IPredSLT, phi, constant.NewInt(types.I64, 10))
	header.NewCondBr(cmp, body, exit)

	inext := body.NewAdd(phi, constant.NewInt(types.I64, 1))
	body.NewBr(header)
	phi.Incs = append(phi.Incs, ir.NewIncoming(inext, body))

	exit.NewRet(nil)
	return f
}

// buildInfiniteLoopFunc builds a loop with a genuine back edge but no
// conditional exit anywhere in its body, so matchBound can never find a
// guard to pattern-match against.
func buildInfiniteLoopFunc() *ir.Func {
	m := ir.NewModule()
	f := m.NewFunc("infinite", types.Void)
	entry := f.NewBlock("entry")
	header := f.NewBlock("header")
	body := f.NewBlock("body")

	entry.NewBr(header)
	phi := header.NewPhi(ir.NewIncoming(constant.NewInt(types.I64, 0), entry))
	header.NewBr(body)
	inext := body.NewAdd(phi, constant.NewInt(types.I64, 1))
	body.NewBr(header)
	phi.Incs = append(phi.Incs, ir.NewIncoming(inext, body))

	return f
}
