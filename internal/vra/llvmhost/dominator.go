package llvmhost

import (
	"github.com/llir/llvm/ir"

	"github.com/dshills/alas-vra/internal/vra"
)

// dominatorTree is the Cooper-Harvey-Kennedy iterative dominator-tree
// algorithm, grounded on the Go compiler's own implementation
// (cmd/compile/internal/ssa's dom.go in the example pack): reverse
// postorder numbering plus repeated intersection to a fixed point,
// rather than the classical Lengauer-Tarjan algorithm.
type dominatorTree struct {
	idom map[string]*ir.Block
}

func buildDominatorTree(fn *Function) *dominatorTree {
	if len(fn.f.Blocks) == 0 {
		return &dominatorTree{idom: map[string]*ir.Block{}}
	}
	entry := fn.f.Blocks[0]
	order := reversePostorder(entry)
	rpoNum := make(map[string]int, len(order))
	for i, b := range order {
		rpoNum[b.Name()] = i
	}

	idom := map[string]*ir.Block{entry.Name(): entry}
	for changed := true; changed; {
		changed = false
		for _, b := range order {
			if b.Name() == entry.Name() {
				continue
			}
			var newIdom *ir.Block
			for _, p := range fn.preds[b.Name()] {
				if _, ok := idom[p.Name()]; !ok {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, idom, rpoNum)
			}
			if newIdom == nil {
				continue
			}
			if cur, ok := idom[b.Name()]; !ok || cur.Name() != newIdom.Name() {
				idom[b.Name()] = newIdom
				changed = true
			}
		}
	}
	return &dominatorTree{idom: idom}
}

func intersect(a, b *ir.Block, idom map[string]*ir.Block, rpoNum map[string]int) *ir.Block {
	for a.Name() != b.Name() {
		for rpoNum[a.Name()] > rpoNum[b.Name()] {
			a = idom[a.Name()]
		}
		for rpoNum[b.Name()] > rpoNum[a.Name()] {
			b = idom[b.Name()]
		}
	}
	return a
}

// reversePostorder computes a DFS postorder over the CFG from entry,
// then reverses it.
func reversePostorder(entry *ir.Block) []*ir.Block {
	visited := make(map[string]bool)
	var post []*ir.Block
	var visit func(b *ir.Block)
	visit = func(b *ir.Block) {
		if visited[b.Name()] {
			return
		}
		visited[b.Name()] = true
		for _, s := range termSuccessors(b.Term) {
			visit(s)
		}
		post = append(post, b)
	}
	visit(entry)

	out := make([]*ir.Block, len(post))
	for i, b := range post {
		out[len(post)-1-i] = b
	}
	return out
}

// dominatesRaw reports whether a dominates b, walking the idom chain
// directly on the underlying IR blocks (used internally by loop
// detection, which needs this before any Block wrapper exists for a
// fabricated query).
func (d *dominatorTree) dominatesRaw(a, b *ir.Block) bool {
	cur := b
	for {
		if cur.Name() == a.Name() {
			return true
		}
		next, ok := d.idom[cur.Name()]
		if !ok || next.Name() == cur.Name() {
			return cur.Name() == a.Name()
		}
		cur = next
	}
}

// IDom implements vra.Dominators.
func (d *dominatorTree) IDom(b vra.BlockView) vra.BlockView {
	blk, ok := b.(*Block)
	if !ok {
		return nil
	}
	id, ok := d.idom[blk.ir.Name()]
	if !ok || id.Name() == blk.ir.Name() {
		return nil // entry block: no immediate dominator
	}
	return blk.fn.block(id)
}

// Dominates implements vra.Dominators.
func (d *dominatorTree) Dominates(a, b vra.BlockView) bool {
	ab, ok1 := a.(*Block)
	bb, ok2 := b.(*Block)
	if !ok1 || !ok2 {
		return false
	}
	return d.dominatesRaw(ab.ir, bb.ir)
}
