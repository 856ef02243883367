package llvmhost

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/dshills/alas-vra/internal/vra"
)

// scalarEvolution is a narrow induction-variable pattern matcher, not a
// general scalar-evolution engine: it recognizes the single shape
// "header PHI entering on a constant, incremented or decremented by a
// constant on the back edge, compared against a constant bound
// somewhere in the loop body" and reports "uncomputable" for anything
// else, which the pass turns into the documented fallback of 100
// (§4.E "Trip-count determination", §7).
type scalarEvolution struct {
	fn *Function
}

// SmallConstantTripCount implements vra.ScalarEvolution.
func (se *scalarEvolution) SmallConstantTripCount(l vra.LoopHandle) (uint64, bool) {
	return se.constantTripCount(l)
}

// BackedgeTakenCount implements vra.ScalarEvolution: one less than the
// trip count, since the back edge is not taken on the iteration that
// exits the loop.
func (se *scalarEvolution) BackedgeTakenCount(l vra.LoopHandle) (uint64, bool) {
	n, ok := se.constantTripCount(l)
	if !ok {
		return 0, false
	}
	if n == 0 {
		return 0, true
	}
	return n - 1, true
}

func (se *scalarEvolution) constantTripCount(l vra.LoopHandle) (uint64, bool) {
	h, ok := l.(*loopHandle)
	if !ok {
		return 0, false
	}

	for _, inst := range h.l.header.Insts {
		phi, ok := inst.(*ir.InstPhi)
		if !ok {
			continue
		}
		start, step, ok := matchInduction(h, phi)
		if !ok || step == 0 {
			continue
		}
		bound, ok := matchBound(h, phi)
		if !ok {
			continue
		}

		diff := bound - start
		if (step > 0 && diff <= 0) || (step < 0 && diff >= 0) {
			return 0, true
		}
		count := diff / step
		if mod := diff - count*step; mod != 0 {
			count++
		}
		if count < 0 {
			return 0, true
		}
		return uint64(count), true
	}
	return 0, false
}

// matchInduction recognizes a header PHI with a constant entering value
// and a back-edge value that is the PHI plus or minus a constant.
func matchInduction(h *loopHandle, phi *ir.InstPhi) (start, step float64, ok bool) {
	if len(phi.Incs) != 2 {
		return 0, 0, false
	}
	var haveStart, haveStep bool
	for _, inc := range phi.Incs {
		if _, inLoop := h.l.body[inc.Pred.Name()]; !inLoop {
			if f, c := constFloat(inc.X); c {
				start, haveStart = f, true
			}
			continue
		}
		if f, c := matchStep(phi, inc.X); c {
			step, haveStep = f, true
		}
	}
	return start, step, haveStart && haveStep
}

func matchStep(phi *ir.InstPhi, v value.Value) (float64, bool) {
	switch inst := v.(type) {
	case *ir.InstAdd:
		if inst.X == value.Value(phi) {
			if f, ok := constFloat(inst.Y); ok {
				return f, true
			}
		}
		if inst.Y == value.Value(phi) {
			if f, ok := constFloat(inst.X); ok {
				return f, true
			}
		}
	case *ir.InstSub:
		if inst.X == value.Value(phi) {
			if f, ok := constFloat(inst.Y); ok {
				return -f, true
			}
		}
	}
	return 0, false
}

// matchBound looks for an icmp against a constant, comparing the
// induction PHI directly, anywhere in the loop body — the guard
// condition of whichever conditional branch controls the exit.
func matchBound(h *loopHandle, phi *ir.InstPhi) (float64, bool) {
	for _, b := range h.l.body {
		cb, ok := b.Term.(*ir.TermCondBr)
		if !ok {
			continue
		}
		cmp, ok := cb.Cond.(*ir.InstICmp)
		if !ok {
			continue
		}
		if cmp.X == value.Value(phi) {
			if f, ok := constFloat(cmp.Y); ok {
				return f, true
			}
		}
		if cmp.Y == value.Value(phi) {
			if f, ok := constFloat(cmp.X); ok {
				return f, true
			}
		}
	}
	return 0, false
}
