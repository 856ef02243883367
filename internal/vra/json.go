package vra

import "encoding/json"

// varSnapshot is one operand's serialized range, per §6's wire format.
type varSnapshot struct {
	Name  string  `json:"name"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Fixed bool    `json:"fixed"`
}

// scopeSnapshot is a Scope's JSON shape: its own operands plus a
// recursively nested parent, or null at the root (§6, §8 property 9).
type scopeSnapshot struct {
	Vars   []varSnapshot  `json:"vars"`
	Parent *scopeSnapshot `json:"parent"`
}

// Snapshot captures a scope and its ancestor chain as a value usable
// with encoding/json, resolving every operand before recording it so
// the result is independent of the lazy combine DAG.
func (s *Scope) Snapshot() *scopeSnapshot {
	if s == nil {
		return nil
	}
	vars := make([]varSnapshot, 0, len(s.order))
	for _, name := range s.order {
		op := s.operands[name]
		op.ForceResolve()
		r, _ := op.Range()
		vars = append(vars, varSnapshot{Name: op.Name, Min: r.Min, Max: r.Max, Fixed: r.Fixed})
	}
	return &scopeSnapshot{Vars: vars, Parent: s.Parent.Snapshot()}
}

// MarshalJSON renders the scope and its ancestor chain per §6's wire
// format.
func (s *Scope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// ToScope reconstructs a Scope tree of concrete operands from a
// snapshot, for the round trip described in §8 property 9. The
// rebuilt scope loses the original lazy dependency structure — every
// operand comes back as a concrete (resolved) node carrying the range
// that was serialized.
func (snap *scopeSnapshot) ToScope() *Scope {
	if snap == nil {
		return nil
	}
	s := NewScope(snap.Parent.ToScope())
	for _, v := range snap.Vars {
		s.AddOperand(&Operand{
			Name:     v.Name,
			Kind:     KindLocal,
			rng:      Range{Min: v.Min, Max: v.Max, Fixed: v.Fixed},
			resolved: true,
		})
	}
	return s
}

// UnmarshalScopeJSON parses the §6 wire format back into a live Scope
// tree.
func UnmarshalScopeJSON(data []byte) (*Scope, error) {
	var snap scopeSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap.ToScope(), nil
}
