package vra

// BlockRole is the structural role a basic block is classified into
// (§3, §4.D).
type BlockRole int

const (
	RoleSimpleBlock BlockRole = iota
	RoleStandardFork
	RoleStandardMerge
	RoleInterLoopFork
	RoleLoopHeader
	RoleLoopLatch
	RoleLoopExit
	RoleReturnBlock
)

func (r BlockRole) String() string {
	switch r {
	case RoleSimpleBlock:
		return "SimpleBlock"
	case RoleStandardFork:
		return "StandardFork"
	case RoleStandardMerge:
		return "StandardMerge"
	case RoleInterLoopFork:
		return "InterLoopFork"
	case RoleLoopHeader:
		return "LoopHeader"
	case RoleLoopLatch:
		return "LoopLatch"
	case RoleLoopExit:
		return "LoopExit"
	case RoleReturnBlock:
		return "ReturnBlock"
	default:
		return "Unknown"
	}
}

// IterBounds is the (min, max) number of times a loop body executes.
// Every block starts at (1, 1); a loop header's bounds are then replaced
// by its loop's trip count.
type IterBounds struct {
	Min, Max uint64
}

// Block wraps one IR basic block with the bookkeeping the walker needs
// (§3): its assigned role (which may be upgraded during traversal),
// owning loop, pending-predecessor counters, and owned scope.
type Block struct {
	IR   BlockView
	Role BlockRole

	OwningLoop LoopHandle
	IterBnds   IterBounds

	// PendingLatches counts not-yet-seen back-edges into a LoopHeader.
	PendingLatches int
	// PendingBranches counts not-yet-seen predecessors of a fork join.
	PendingBranches int

	Scope *Scope

	fn *FunctionAnalyzer
}

// Classify assigns a Block's initial structural role from loop and
// dominator information (§4.D). Tie-breaks: the unique-latch/unique-
// exit fast path is checked before the general enumeration.
func classify(b BlockView, fn *FunctionAnalyzer) BlockRole {
	if loop := fn.loops.LoopFor(b); loop != nil {
		if sameBlock(loop.Header(), b) {
			return RoleLoopHeader
		}
		if isLatchOf(loop, b) {
			return RoleLoopLatch
		}
	}

	// A LoopExit block is outside every loop it exits (GLOSSARY "Exit
	// block"), so it is never found via LoopFor(b) itself — it is
	// recognized by one of its predecessors being inside a loop that
	// lists b among its exit blocks.
	for _, p := range b.Predecessors() {
		if loop := fn.loops.LoopFor(p); loop != nil && isExitOf(loop, b) {
			return RoleLoopExit
		}
	}

	succs := b.Successors()
	if len(succs) >= 2 {
		return RoleStandardFork
	}
	if len(b.Predecessors()) == 1 {
		return RoleStandardMerge
	}
	return RoleSimpleBlock
}

func isReturnTerminator(b BlockView) bool {
	t := b.Terminator()
	return t != nil && t.Kind() == TermReturn
}

func sameBlock(a, b BlockView) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID() == b.ID()
}

// isLatchOf checks the unique-latch fast path first, then falls back
// to scanning all latches.
func isLatchOf(l LoopHandle, b BlockView) bool {
	latches := l.Latches()
	if len(latches) == 1 {
		return sameBlock(latches[0], b)
	}
	for _, latch := range latches {
		if sameBlock(latch, b) {
			return true
		}
	}
	return false
}

// isExitOf checks the unique-exit fast path first, then falls back to
// scanning all exit blocks.
func isExitOf(l LoopHandle, b BlockView) bool {
	exits := l.ExitBlocks()
	if len(exits) == 1 {
		return sameBlock(exits[0], b)
	}
	for _, exit := range exits {
		if sameBlock(exit, b) {
			return true
		}
	}
	return false
}
