package vra

import "testing"

// Property 9 (§8): round-tripping a scope through JSON preserves every
// {name, min, max, fixed} tuple, including across the parent chain.
func TestScopeJSONRoundTrip(t *testing.T) {
	root := NewScope(nil)
	root.AddOperand(NewConstantOperand("g", NewRange(100, 200)))

	child := NewScope(root)
	child.AddOperand(&Operand{Name: "x", Kind: KindLocal, rng: NewRange(1, 9), resolved: true})
	child.AddOperand(&Operand{Name: "y", Kind: KindLocal, rng: Point(7), resolved: true})

	data, err := child.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	round, err := UnmarshalScopeJSON(data)
	if err != nil {
		t.Fatalf("UnmarshalScopeJSON: %v", err)
	}

	cases := []struct {
		scope *Scope
		name  string
		min   float64
		max   float64
		fixed bool
	}{
		{round, "x", 1, 9, false},
		{round, "y", 7, 7, true},
		{round.Parent, "g", 100, 200, true},
	}
	for _, c := range cases {
		op, ok := c.scope.LookupLocal(c.name)
		if !ok {
			t.Fatalf("missing operand %q after round trip", c.name)
		}
		r, _ := op.Range()
		if r.Min != c.min || r.Max != c.max || r.Fixed != c.fixed {
			t.Fatalf("%q round-tripped as %+v, want {%v %v %v}", c.name, r, c.min, c.max, c.fixed)
		}
	}

	if round.Parent == nil || round.Parent.Parent != nil {
		t.Fatalf("expected exactly one ancestor scope after round trip")
	}
}
