package llvmhost

import (
	"testing"

	"github.com/llir/llvm/ir"
)

func TestConstantTripCountCountedLoop(t *testing.T) {
	fn := NewFunction(buildLoopFunc())
	h := fn.loops.LoopFor(fn.blocks["header"])
	if h == nil {
		t.Fatalf("expected a loop handle for header")
	}

	n, ok := fn.scev.constantTripCount(h)
	if !ok || n != 10 {
		t.Fatalf("constantTripCount = (%d, %v), want (10, true)", n, ok)
	}

	trip, ok := fn.scev.SmallConstantTripCount(h)
	if !ok || trip != 10 {
		t.Fatalf("SmallConstantTripCount = (%d, %v), want (10, true)", trip, ok)
	}
	backedge, ok := fn.scev.BackedgeTakenCount(h)
	if !ok || backedge != 9 {
		t.Fatalf("BackedgeTakenCount = (%d, %v), want (9, true): one less than the trip count", backedge, ok)
	}
}

func TestConstantTripCountUncomputableWithoutGuard(t *testing.T) {
	fn := NewFunction(buildInfiniteLoopFunc())
	h := fn.loops.LoopFor(fn.blocks["header"])
	if h == nil {
		t.Fatalf("expected a loop handle for header")
	}

	if _, ok := fn.scev.constantTripCount(h); ok {
		t.Fatalf("expected uncomputable trip count: loop body has no comparison to match a bound against")
	}
	if _, ok := fn.scev.BackedgeTakenCount(h); ok {
		t.Fatalf("BackedgeTakenCount should also report uncomputable")
	}
}

func TestMatchInductionRecognizesHeaderPhi(t *testing.T) {
	fn := NewFunction(buildLoopFunc())
	h := fn.loops.LoopFor(fn.blocks["header"]).(*loopHandle)

	var phi *ir.InstPhi
	for _, inst := range h.l.header.Insts {
		if p, ok := inst.(*ir.InstPhi); ok {
			phi = p
			break
		}
	}
	if phi == nil {
		t.Fatalf("header has no phi instruction")
	}

	start, step, ok := matchInduction(h, phi)
	if !ok {
		t.Fatalf("matchInduction failed to recognize the loop's induction variable")
	}
	if start != 0 || step != 1 {
		t.Fatalf("matchInduction = (start=%v, step=%v), want (0, 1)", start, step)
	}

	bound, ok := matchBound(h, phi)
	if !ok || bound != 10 {
		t.Fatalf("matchBound = (%v, %v), want (10, true)", bound, ok)
	}
}
