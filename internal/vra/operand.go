package vra

// OperandKind classifies the provenance of an Operand, per §3.
type OperandKind int

const (
	KindLocal OperandKind = iota
	KindArgument
	KindConstant
	KindArgumentRef
	KindReturn
)

// Combine resolves an Operand's range from its already-resolved
// dependency ranges. nil for concrete (constant) operands.
type Combine func(deps []Range) Range

// Operand is a named node in the lazy symbolic-range DAG (§3, §4.B). It
// is owned by exactly one Scope and lives for the duration of the
// enclosing function analysis; operands never cross function
// boundaries.
type Operand struct {
	Name         string
	Kind         OperandKind
	rng          Range
	resolved     bool
	Dependencies []*Operand
	combine      Combine
	resolvedWith []Range
}

// NewConstantOperand builds a concrete, already-resolved operand with a
// fixed point interval — used for literal constants synthesized by the
// instruction analyzer.
func NewConstantOperand(name string, r Range) *Operand {
	r.Fixed = true
	return &Operand{Name: name, Kind: KindConstant, rng: r, resolved: true}
}

// NewDerivedOperand builds an operand whose range is computed on
// demand from its dependencies via combine.
func NewDerivedOperand(name string, kind OperandKind, deps []*Operand, combine Combine) *Operand {
	return &Operand{Name: name, Kind: kind, Dependencies: deps, combine: combine}
}

// Range returns the operand's current range and whether it has been
// resolved at least once.
func (o *Operand) Range() (Range, bool) {
	return o.rng, o.resolved
}

// TryResolve returns true iff a range is available, recursively
// resolving dependencies first. If any dependency fails to resolve, it
// aborts and returns false without mutating state further than what
// recursive calls already settled. The DAG is acyclic by SSA
// construction (§4.B), so this always terminates.
func (o *Operand) TryResolve() bool {
	if o.resolved && !o.stale() {
		return true
	}
	if o.combine == nil {
		// Concrete operand with no combine closure: resolved state is
		// authoritative.
		return o.resolved
	}

	deps := make([]Range, len(o.Dependencies))
	for i, dep := range o.Dependencies {
		if !dep.TryResolve() {
			return false
		}
		r, _ := dep.Range()
		deps[i] = r
	}

	o.rng = o.combine(deps)
	o.resolved = true
	o.resolvedWith = deps
	return true
}

// ForceResolve behaves like TryResolve but never aborts: unresolved
// dependencies contribute Top() instead of failing the whole
// resolution.
func (o *Operand) ForceResolve() Range {
	if o.combine == nil {
		if o.resolved {
			return o.rng
		}
		return Top()
	}

	deps := make([]Range, len(o.Dependencies))
	for i, dep := range o.Dependencies {
		if dep.TryResolve() {
			r, _ := dep.Range()
			deps[i] = r
		} else {
			deps[i] = Top()
		}
	}

	o.rng = o.combine(deps)
	o.resolved = true
	o.resolvedWith = deps
	return o.rng
}

// stale reports whether a prior resolution was computed from dependency
// ranges that have since widened — the resolution must be redone. This
// is the "resolvedWith" invalidation check from §3.
func (o *Operand) stale() bool {
	if o.combine == nil || o.resolvedWith == nil {
		return false
	}
	if len(o.resolvedWith) != len(o.Dependencies) {
		return true
	}
	for i, dep := range o.Dependencies {
		r, ok := dep.Range()
		if !ok {
			return true
		}
		if r != o.resolvedWith[i] {
			return true
		}
	}
	return false
}

// Invalidate clears the memoized resolution, forcing the next
// TryResolve/ForceResolve to recompute from current dependency ranges.
// Used by loop-header rescaling (§9) after the latch scope widens the
// back-edge value.
func (o *Operand) Invalidate() {
	if o.combine == nil {
		return
	}
	o.resolved = false
	o.resolvedWith = nil
}
