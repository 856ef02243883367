package vra

// Hand-rolled fakes for the host-compiler facade (facade.go), used to
// build literal fixture CFGs directly in pseudo-IR shape without
// pulling in a concrete IR library for unit tests.

type fakeBlock struct {
	id    string
	insts []InstView
	term  TermView
	preds []*fakeBlock
	succs []*fakeBlock
}

func (b *fakeBlock) ID() string               { return b.id }
func (b *fakeBlock) Instructions() []InstView { return b.insts }
func (b *fakeBlock) Terminator() TermView     { return b.term }
func (b *fakeBlock) Predecessors() []BlockView {
	out := make([]BlockView, len(b.preds))
	for i, p := range b.preds {
		out[i] = p
	}
	return out
}
func (b *fakeBlock) Successors() []BlockView {
	out := make([]BlockView, len(b.succs))
	for i, s := range b.succs {
		out[i] = s
	}
	return out
}

type fakeInst struct {
	name     string
	op       Opcode
	operands []OperandRef
	incoming []PhiIncoming
}

func (i *fakeInst) Name() string            { return i.name }
func (i *fakeInst) Opcode() Opcode          { return i.op }
func (i *fakeInst) Operands() []OperandRef  { return i.operands }
func (i *fakeInst) Incoming() []PhiIncoming { return i.incoming }

type fakeTerm struct {
	kind   TermKind
	retRef OperandRef
	retOk  bool
}

func (t *fakeTerm) Kind() TermKind { return t.kind }
func (t *fakeTerm) ReturnOperand() (OperandRef, bool) {
	return t.retRef, t.retOk
}

func constRef(f float64) OperandRef { return OperandRef{IsConst: true, ConstValue: f} }
func nameRef(n string) OperandRef   { return OperandRef{Name: n} }

func retTerm(name string) *fakeTerm {
	return &fakeTerm{kind: TermReturn, retRef: nameRef(name), retOk: true}
}

func brTerm() *fakeTerm { return &fakeTerm{kind: TermBr} }

func condBrTerm() *fakeTerm { return &fakeTerm{kind: TermCondBr} }

// fakeDom is a dominator oracle driven directly by an idom map keyed on
// block ID (string), rather than a computed CFG walk — the test
// fixtures are small enough to hand-author the dominator relation.
type fakeDom struct {
	idom   map[string]string
	blocks map[string]*fakeBlock
}

func (d *fakeDom) IDom(b BlockView) BlockView {
	name := b.(*fakeBlock).id
	p, ok := d.idom[name]
	if !ok {
		return nil
	}
	return d.blocks[p]
}

func (d *fakeDom) Dominates(a, b BlockView) bool {
	an := a.(*fakeBlock).id
	cur := b.(*fakeBlock).id
	for {
		if cur == an {
			return true
		}
		p, ok := d.idom[cur]
		if !ok {
			return false
		}
		cur = p
	}
}

type fakeLoop struct {
	header  *fakeBlock
	latches []*fakeBlock
	exits   []*fakeBlock
	body    map[string]bool
}

func (l *fakeLoop) Header() BlockView { return l.header }
func (l *fakeLoop) Latches() []BlockView {
	out := make([]BlockView, len(l.latches))
	for i, b := range l.latches {
		out[i] = b
	}
	return out
}
func (l *fakeLoop) ExitBlocks() []BlockView {
	out := make([]BlockView, len(l.exits))
	for i, b := range l.exits {
		out[i] = b
	}
	return out
}
func (l *fakeLoop) Contains(b BlockView) bool { return l.body[b.(*fakeBlock).id] }

type fakeLoopInfo struct {
	byBlock map[string]*fakeLoop
}

func (li *fakeLoopInfo) LoopFor(b BlockView) LoopHandle {
	l, ok := li.byBlock[b.(*fakeBlock).id]
	if !ok {
		return nil
	}
	return l
}

type fakeSCEV struct {
	trip       uint64
	tripOK     bool
	backedge   uint64
	backedgeOK bool
}

func (s *fakeSCEV) SmallConstantTripCount(LoopHandle) (uint64, bool) { return s.trip, s.tripOK }
func (s *fakeSCEV) BackedgeTakenCount(LoopHandle) (uint64, bool)     { return s.backedge, s.backedgeOK }

type fakeFunc struct {
	name   string
	entry  *fakeBlock
	params []string
	dom    *fakeDom
	loops  *fakeLoopInfo
	scev   *fakeSCEV
}

func (f *fakeFunc) Name() string                      { return f.name }
func (f *fakeFunc) EntryBlock() BlockView              { return f.entry }
func (f *fakeFunc) Params() []string                   { return f.params }
func (f *fakeFunc) Dominators() Dominators             { return f.dom }
func (f *fakeFunc) Loops() LoopInfo                    { return f.loops }
func (f *fakeFunc) ScalarEvolution() ScalarEvolution    { return f.scev }

type fakeModule struct {
	fns   []FunctionView
	consts []ModuleConstant
}

func (m *fakeModule) Functions() []FunctionView     { return m.fns }
func (m *fakeModule) Constants() []ModuleConstant   { return m.consts }
