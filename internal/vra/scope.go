package vra

// Scope is a name -> owned-operand mapping with a parent pointer;
// lookup walks the parent chain. The global scope has no parent and
// holds module-level constants; function scopes sit under the global
// scope; block scopes chain through the dominator tree (§3).
//
// Invariant: SSA names are unique within a function, so Lookup finds at
// most one definition — a name defined in scope S is never shadowed by
// a descendant scope.
type Scope struct {
	Parent   *Scope
	operands map[string]*Operand
	order    []string // insertion order, for deterministic JSON output
}

// NewScope creates a scope with the given parent (nil for the global
// scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent, operands: make(map[string]*Operand)}
}

// AddOperand appends op to the scope. The caller guarantees the name is
// unique within the scope (SSA uniqueness, §3).
func (s *Scope) AddOperand(op *Operand) {
	if _, exists := s.operands[op.Name]; !exists {
		s.order = append(s.order, op.Name)
	}
	s.operands[op.Name] = op
}

// Lookup searches this scope's operands, then the parent chain.
// Returns nil if not found anywhere.
func (s *Scope) Lookup(name string) *Operand {
	for sc := s; sc != nil; sc = sc.Parent {
		if op, ok := sc.operands[name]; ok {
			return op
		}
	}
	return nil
}

// LookupLocal searches only this scope, not its ancestors.
func (s *Scope) LookupLocal(name string) (*Operand, bool) {
	op, ok := s.operands[name]
	return op, ok
}

// MergeWith enlarges ranges of operands this scope already owns when
// `other` has a same-named operand (unless the local operand is
// Fixed), and clones+appends any operand from `other` this scope does
// not yet own. Used at a join with multiple unique predecessors that
// share no single dominating parent scope, and by loop-header
// rescaling (§9).
func (s *Scope) MergeWith(other *Scope) {
	for _, name := range other.order {
		otherOp := other.operands[name]
		otherRange, _ := otherOp.Range()

		if localOp, ok := s.operands[name]; ok {
			if localOp.Fixed() {
				continue
			}
			localOp.widenTo(otherRange)
			continue
		}

		clone := &Operand{
			Name:         otherOp.Name,
			Kind:         otherOp.Kind,
			rng:          otherRange,
			resolved:     otherOp.resolved,
			Dependencies: otherOp.Dependencies,
			combine:      otherOp.combine,
		}
		s.AddOperand(clone)
	}
}

// Operands returns the scope's own operands in insertion order (not
// including ancestors) — used for JSON serialization.
func (s *Scope) Operands() []*Operand {
	out := make([]*Operand, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.operands[name])
	}
	return out
}

// Fixed reports whether the operand's current range rejects widening.
func (o *Operand) Fixed() bool {
	r, _ := o.Range()
	return r.Fixed
}

// widenTo merges other into the operand's concrete range directly,
// bypassing Combine (used for MergeWith, which operates on already
// resolved snapshots rather than the lazy DAG).
func (o *Operand) widenTo(other Range) {
	cur, _ := o.Range()
	o.rng = Merge(cur, other)
	o.resolved = true
}
