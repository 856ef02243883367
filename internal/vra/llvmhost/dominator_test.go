package llvmhost

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

func TestBuildDominatorTreeDiamond(t *testing.T) {
	fn := NewFunction(buildDiamondFunc())

	entry := fn.blocks["entry"]
	thenBlk := fn.blocks["then"]
	elseBlk := fn.blocks["else"]
	merge := fn.blocks["merge"]

	if got := fn.dom.IDom(entry); got != nil {
		t.Fatalf("entry idom = %v, want nil (no immediate dominator)", got)
	}
	if got := fn.dom.IDom(thenBlk); got == nil || got.ID() != "entry" {
		t.Fatalf("then idom = %v, want entry", got)
	}
	if got := fn.dom.IDom(elseBlk); got == nil || got.ID() != "entry" {
		t.Fatalf("else idom = %v, want entry", got)
	}
	// merge has two predecessors on disjoint paths, so its immediate
	// dominator is their nearest common ancestor: entry, not either arm.
	if got := fn.dom.IDom(merge); got == nil || got.ID() != "entry" {
		t.Fatalf("merge idom = %v, want entry", got)
	}

	if !fn.dom.Dominates(entry, merge) {
		t.Fatalf("entry should dominate merge")
	}
	if fn.dom.Dominates(thenBlk, merge) {
		t.Fatalf("then should not dominate merge: else is an alternate path around it")
	}
	if !fn.dom.Dominates(entry, entry) {
		t.Fatalf("a block trivially dominates itself")
	}
}

func TestBuildDominatorTreeEmptyFunction(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("decl_only", types.Void) // no blocks: an external declaration
	fn := &Function{f: f, blocks: map[string]*Block{}, preds: map[string][]*ir.Block{}}

	tree := buildDominatorTree(fn)
	if len(tree.idom) != 0 {
		t.Fatalf("expected an empty dominator map for a function with no blocks, got %v", tree.idom)
	}
}
