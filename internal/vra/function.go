package vra

import "github.com/pkg/errors"

// FunctionAnalyzer walks one function's CFG in FIFO order, classifying
// each block on first visit and dispatching to the role-specific
// handler (§4.D, §4.E). It owns the breadcrumb stack and the
// instruction analyzer shared across every block in the function.
type FunctionAnalyzer struct {
	fv FunctionView

	dominators Dominators
	loops      LoopInfo
	scev       ScalarEvolution

	blocks   map[string]*Block
	order    []*Block
	worklist []BlockView
	enqueued map[string]bool

	bc        breadcrumb
	rootScope *Scope
	ia        *InstructionAnalyzer
	constSeq  int

	exitScopes []*Scope
	log        Logger
}

// NewFunctionAnalyzer prepares a walker for fv. global is the module's
// constant scope; the function's own root scope (holding its
// parameters) is created as a child of it.
func NewFunctionAnalyzer(fv FunctionView, global *Scope, log Logger) *FunctionAnalyzer {
	fa := &FunctionAnalyzer{
		fv:       fv,
		blocks:   make(map[string]*Block),
		enqueued: make(map[string]bool),
		log:      log,
	}
	fa.dominators = fv.Dominators()
	fa.loops = fv.Loops()
	fa.scev = fv.ScalarEvolution()
	fa.rootScope = NewScope(global)
	for _, p := range fv.Params() {
		fa.rootScope.AddOperand(&Operand{Name: p, Kind: KindArgument, rng: Top(), resolved: true})
	}
	fa.ia = NewInstructionAnalyzer(&fa.constSeq, log)
	return fa
}

// Analyze runs the FIFO worklist traversal to completion and returns the
// function's final scope (§4.E, §4.F): the sole exit block's scope, a
// synthesized merge of all exit scopes when there are several, or the
// root scope for a function with no reachable return.
func (fa *FunctionAnalyzer) Analyze() *Scope {
	entry := fa.fv.EntryBlock()
	if entry == nil {
		return fa.rootScope
	}
	fa.enqueue(entry)

	for len(fa.worklist) > 0 {
		bv := fa.worklist[0]
		fa.worklist = fa.worklist[1:]

		if _, seen := fa.blocks[bv.ID()]; seen {
			continue // Block-once invariant (§8 property 6)
		}

		b := &Block{IR: bv, fn: fa, IterBnds: IterBounds{Min: 1, Max: 1}}
		b.Role = classify(bv, fa)
		fa.blocks[bv.ID()] = b
		fa.order = append(fa.order, b)

		fa.dispatch(b)
	}

	return fa.finalize()
}

func (fa *FunctionAnalyzer) enqueue(b BlockView) {
	if fa.enqueued[b.ID()] {
		return
	}
	fa.enqueued[b.ID()] = true
	fa.worklist = append(fa.worklist, b)
}

func (fa *FunctionAnalyzer) dispatch(b *Block) {
	switch b.Role {
	case RoleLoopHeader:
		fa.handleLoopHeader(b)
	case RoleStandardFork:
		fa.handleStandardFork(b)
	case RoleLoopLatch:
		fa.handleLoopLatch(b)
	case RoleStandardMerge:
		fa.handleJoin(b, true)
	case RoleLoopExit:
		fa.handleJoin(b, false)
	case RoleInterLoopFork, RoleSimpleBlock:
		fa.handleSimpleBlock(b)
	}
}

// nearestDominatingScope walks the immediate-dominator chain looking
// for the closest already-classified ancestor block, returning its
// scope — or the function root scope if none has been classified yet
// (the entry block's case). It is joinParentScope's fallback when a
// block has no analyzed predecessor to inherit from (the entry block,
// or a loop header seen before its latch).
func (fa *FunctionAnalyzer) nearestDominatingScope(bv BlockView) *Scope {
	cur := fa.dominators.IDom(bv)
	for cur != nil {
		if pb, ok := fa.blocks[cur.ID()]; ok {
			return pb.Scope
		}
		cur = fa.dominators.IDom(cur)
	}
	return fa.rootScope
}

// joinParentScope implements the merge/exit parent-scope rule: the
// unique predecessor's scope when there is exactly one predecessor, the
// merge of every analyzed predecessor's scope otherwise (§4.B, §4.E).
func (fa *FunctionAnalyzer) joinParentScope(bv BlockView) *Scope {
	preds := bv.Predecessors()
	if len(preds) == 1 {
		if pb, ok := fa.blocks[preds[0].ID()]; ok {
			return pb.Scope
		}
	}
	merged := NewScope(fa.nearestDominatingScope(bv))
	for _, p := range preds {
		if pb, ok := fa.blocks[p.ID()]; ok {
			merged.MergeWith(pb.Scope)
		}
	}
	return merged
}

// sweep runs the instruction analyzer over b's instructions under the
// given iteration-bound context. loop is non-nil only when b is itself
// a loop header, selecting the header-PHI handling for its PHI
// instructions; every other role's PHIs (true join points) go through
// the ordinary non-header PHI path.
func (fa *FunctionAnalyzer) sweep(b *Block, bounds IterBounds, loop LoopHandle) {
	fa.ia.LoadBlock(b.Scope, bounds)
	defer fa.ia.FreeBlock()

	for _, inst := range b.IR.Instructions() {
		if loop != nil && inst.Opcode() == OpPhi {
			fa.ia.AnalyzeHeaderPHINode(inst, loop)
			continue
		}
		fa.ia.AnalyzeExpressionNode(inst)
	}

	if term := b.IR.Terminator(); term != nil && term.Kind() == TermReturn {
		fa.recordReturn(b, term)
	}
}

// recordReturn resolves the returned operand in b's scope and binds it
// under the name "return" (§4.E "Return handling"). A void return or an
// operand that fails to resolve leaves no return operand. Multiple
// return blocks widen a single accumulating "return" entry.
func (fa *FunctionAnalyzer) recordReturn(b *Block, term TermView) {
	ref, ok := term.ReturnOperand()
	if !ok {
		return
	}
	op := fa.ia.resolveOperand(ref)
	if op == nil || !op.TryResolve() {
		return
	}
	r, _ := op.Range()

	if existing, ok := b.Scope.LookupLocal("return"); ok {
		existing.widenTo(r)
	} else {
		b.Scope.AddOperand(&Operand{Name: "return", Kind: KindReturn, rng: r, resolved: true})
	}
	fa.exitScopes = append(fa.exitScopes, b.Scope)
}

func (fa *FunctionAnalyzer) loopContains(loop LoopHandle, b BlockView) bool {
	return loop != nil && loop.Contains(b)
}

// tripCount determines a loop's iteration bounds (§4.E "Trip-count
// determination", §7): the exact small constant trip count when
// available for min_iter, the back-edge-taken count for max_iter,
// falling back to 100 (logged) when the latter is uncomputable.
func (fa *FunctionAnalyzer) tripCount(loop LoopHandle) IterBounds {
	var minIter uint64
	if v, ok := fa.scev.SmallConstantTripCount(loop); ok {
		minIter = v
	}
	maxIter := uint64(100)
	if v, ok := fa.scev.BackedgeTakenCount(loop); ok {
		maxIter = v
	} else if fa.log != nil {
		err := errors.Wrapf(ErrTripCountUncomputable, "loop header %q, max_iter defaults to 100", loop.Header().ID())
		fa.log.Warnf("%s", err.Error())
	}
	if minIter > maxIter {
		minIter = maxIter
	}
	return IterBounds{Min: minIter, Max: maxIter}
}

// handleLoopHeader implements §4.E's LoopHeader case: the header's own
// PHIs/expressions are analyzed under the outer (pre-loop) context,
// since the loop's own trip count is not yet known; only once it is
// computed is the Loop breadcrumb frame pushed and the in-loop
// successor(s) enqueued.
func (fa *FunctionAnalyzer) handleLoopHeader(b *Block) {
	loop := fa.loops.LoopFor(b.IR)
	b.OwningLoop = loop
	if loop != nil {
		b.PendingLatches = len(loop.Latches())
	}
	b.Scope = NewScope(fa.joinParentScope(b.IR))

	fa.sweep(b, fa.currentIterBounds(), loop)

	if loop == nil {
		// Defensive: the oracle disagreed with classify(). Treat as a
		// simple passthrough.
		for _, succ := range b.IR.Successors() {
			fa.enqueue(succ)
		}
		return
	}

	b.IterBnds = fa.tripCount(loop)
	fa.bc.push(AggLoop, b)

	for _, succ := range b.IR.Successors() {
		if fa.loopContains(loop, succ) {
			fa.enqueue(succ)
		}
	}
}

// handleStandardFork implements §4.E's StandardFork case. A successor
// that leaves the current loop marks the nearest enclosing open fork on
// the breadcrumb as InterLoopFork (the spec's resolution of the
// "which fork gets retyped" open question) and is not enqueued.
func (fa *FunctionAnalyzer) handleStandardFork(b *Block) {
	b.Scope = NewScope(fa.joinParentScope(b.IR))
	fa.sweep(b, fa.currentIterBounds(), nil)

	curLoop := fa.loops.LoopFor(b.IR)
	branches := 0
	for _, succ := range b.IR.Successors() {
		if curLoop != nil && !curLoop.Contains(succ) {
			if enclosing := fa.bc.nearestFork(); enclosing != nil {
				enclosing.Role = RoleInterLoopFork
			}
			continue
		}
		fa.enqueue(succ)
		branches++
	}
	b.PendingBranches = branches
	if branches > 0 {
		fa.bc.push(AggFork, b)
	}
}

// handleSimpleBlock implements §4.E's SimpleBlock (and InterLoopFork
// passthrough) case: single-successor passthrough, decrementing the
// nearest fork's pending_branches and recording a return range on Return
// rather than enqueuing anything.
func (fa *FunctionAnalyzer) handleSimpleBlock(b *Block) {
	b.Scope = NewScope(fa.joinParentScope(b.IR))
	fa.sweep(b, fa.currentIterBounds(), nil)

	term := b.IR.Terminator()
	if term != nil && term.Kind() == TermReturn {
		if fork := fa.bc.nearestFork(); fork != nil {
			fork.PendingBranches--
		}
		return
	}

	curLoop := fa.loops.LoopFor(b.IR)
	for _, succ := range b.IR.Successors() {
		if curLoop != nil && !curLoop.Contains(succ) {
			continue // breaks the loop; nothing further to do here
		}
		fa.enqueue(succ)
	}
}

// handleLoopLatch implements §4.E's LoopLatch case: once every latch of
// the enclosing loop has been processed, the header scope is rescaled
// from the accumulated latch scope, the loop's exit blocks are enqueued,
// and the Loop breadcrumb frame is popped.
func (fa *FunctionAnalyzer) handleLoopLatch(b *Block) {
	header := fa.bc.nearestLoop()
	if header != nil {
		header.PendingLatches--
	}

	b.Scope = NewScope(fa.joinParentScope(b.IR))
	fa.sweep(b, fa.currentIterBounds(), nil)

	if header == nil || header.PendingLatches > 0 {
		return
	}

	fa.rescaleLoopHeaderScope(header, b.Scope)
	if header.OwningLoop != nil {
		for _, exit := range header.OwningLoop.ExitBlocks() {
			fa.enqueue(exit)
		}
	}
	fa.bc.pop()
}

// rescaleLoopHeaderScope widens the header's entering-value clone of
// each header PHI with the back-edge-incoming value resolved in the
// latch's scope, then merges the latch scope into the header scope
// wholesale so non-PHI values computed on every iteration are visible
// to code dominated by the header (§9 "rescaleLoopHeaderScope").
func (fa *FunctionAnalyzer) rescaleLoopHeaderScope(header *Block, latchScope *Scope) {
	loop := header.OwningLoop
	var phis []InstView
	for _, inst := range header.IR.Instructions() {
		if inst.Opcode() == OpPhi {
			phis = append(phis, inst)
		}
	}

	// One header PHI can feed another (e.g. an accumulator stepped by an
	// induction variable computed in the same header): the accumulator's
	// back-edge combine already folds the full per-iteration accumulation
	// into one Range (via Add's minIter/maxIter terms), so its entering
	// operand must already hold its final widened value before that
	// combine runs. Re-running a phi's widen more than once would fold
	// the same n-iteration multiplier into an already-widened value, so
	// each phi is widened exactly once, in an order where a phi that
	// reads another header phi is widened after it.
	for _, inst := range headerPhiOrder(phis, header, loop, latchScope) {
		headOp, ok := header.Scope.LookupLocal(inst.Name())
		if !ok {
			continue
		}
		for _, inc := range inst.Incoming() {
			if loop == nil || !loop.Contains(inc.Pred) {
				continue
			}
			var backRange Range
			if inc.Value.IsConst {
				backRange = Point(inc.Value.ConstValue)
			} else {
				backOp := latchScope.Lookup(inc.Value.Name)
				if backOp == nil {
					continue
				}
				backOp.Invalidate()
				if !backOp.TryResolve() {
					continue
				}
				backRange, _ = backOp.Range()
			}
			headOp.widenTo(backRange)
		}
	}
	header.Scope.MergeWith(latchScope)
}

// headerPhiOrder topologically sorts a loop header's PHI instructions so
// that a PHI whose back-edge value reads another header PHI (directly,
// through the back-edge operand's Dependencies) is ordered after it. Falls
// back to instruction order on a cycle, which SSA never produces here
// since the only cycle a PHI can introduce is through the back edge
// itself, already broken by AnalyzeHeaderPHINode (§4.C, §9).
func headerPhiOrder(phis []InstView, header *Block, loop LoopHandle, latchScope *Scope) []InstView {
	headOps := make(map[string]*Operand, len(phis))
	for _, inst := range phis {
		if op, ok := header.Scope.LookupLocal(inst.Name()); ok {
			headOps[inst.Name()] = op
		}
	}

	dependsOn := make(map[string]map[string]bool, len(phis))
	for _, inst := range phis {
		name := inst.Name()
		dependsOn[name] = make(map[string]bool)
		for _, inc := range inst.Incoming() {
			if loop == nil || !loop.Contains(inc.Pred) || inc.Value.IsConst {
				continue
			}
			backOp := latchScope.Lookup(inc.Value.Name)
			if backOp == nil {
				continue
			}
			for _, dep := range backOp.Dependencies {
				for other, op := range headOps {
					if other != name && op == dep {
						dependsOn[name][other] = true
					}
				}
			}
		}
	}

	var order []InstView
	visited := make(map[string]bool, len(phis))
	var visit func(inst InstView, stack map[string]bool)
	byName := make(map[string]InstView, len(phis))
	for _, inst := range phis {
		byName[inst.Name()] = inst
	}
	visit = func(inst InstView, stack map[string]bool) {
		name := inst.Name()
		if visited[name] || stack[name] {
			return
		}
		stack[name] = true
		for dep := range dependsOn[name] {
			if depInst, ok := byName[dep]; ok {
				visit(depInst, stack)
			}
		}
		stack[name] = false
		visited[name] = true
		order = append(order, inst)
	}
	for _, inst := range phis {
		visit(inst, make(map[string]bool))
	}
	return order
}

// handleJoin implements the shared body of §4.E's StandardMerge and
// LoopExit cases. gated is true for StandardMerge: every branch of its
// owning fork still gets its own scope built and swept as it arrives
// (so each arm's computed values survive regardless of visit order),
// but only the arrival that brings pending_branches to 0 continues past
// the join — enqueuing successors and popping the fork frame. LoopExit
// has no such gate; it continues immediately.
func (fa *FunctionAnalyzer) handleJoin(b *Block, gated bool) {
	var fork *Block
	ready := true
	if gated {
		fork = fa.bc.nearestFork()
		if fork != nil {
			fork.PendingBranches--
			ready = fork.PendingBranches <= 0
		}
	}

	b.Scope = NewScope(fa.joinParentScope(b.IR))
	fa.sweep(b, fa.currentIterBounds(), nil)

	if !ready {
		return
	}

	if gated && fork != nil {
		fa.bc.pop()
	}

	fa.continueFromJoin(b)
}

// continueFromJoin re-examines the join's terminator: a Return decrements
// the (new) nearest fork's pending_branches; a single successor is a
// plain passthrough; two or more successors retype b itself as
// StandardFork (or InterLoopFork if any successor leaves the loop) and
// push a fresh Fork breadcrumb frame (§4.E).
func (fa *FunctionAnalyzer) continueFromJoin(b *Block) {
	term := b.IR.Terminator()
	if term != nil && term.Kind() == TermReturn {
		if fork := fa.bc.nearestFork(); fork != nil {
			fork.PendingBranches--
		}
		return
	}

	succs := b.IR.Successors()
	if len(succs) == 1 {
		fa.enqueue(succs[0])
		return
	}
	if len(succs) < 2 {
		return
	}

	curLoop := fa.loops.LoopFor(b.IR)
	branches := 0
	interLoop := false
	for _, succ := range succs {
		if curLoop != nil && !curLoop.Contains(succ) {
			interLoop = true
			continue
		}
		fa.enqueue(succ)
		branches++
	}
	b.PendingBranches = branches
	if interLoop {
		b.Role = RoleInterLoopFork
	} else {
		b.Role = RoleStandardFork
	}
	if branches > 0 {
		fa.bc.push(AggFork, b)
	}
}

// currentIterBounds returns the innermost open loop's iteration bounds,
// or (1,1) outside any loop.
func (fa *FunctionAnalyzer) currentIterBounds() IterBounds {
	if h := fa.bc.nearestLoop(); h != nil {
		return h.IterBnds
	}
	return IterBounds{Min: 1, Max: 1}
}

// finalize produces the function's published scope (§4.F): the sole
// exit scope, a dominance-parented merge of several, or the root scope
// if no return was ever reached.
func (fa *FunctionAnalyzer) finalize() *Scope {
	switch len(fa.exitScopes) {
	case 0:
		return fa.rootScope
	case 1:
		return fa.exitScopes[0]
	default:
		merged := NewScope(fa.rootScope)
		for _, s := range fa.exitScopes {
			merged.MergeWith(s)
		}
		return merged
	}
}
