package vra

import "testing"

// Property 1 (§8): constants resolve to a fixed point interval.
func TestPointIsFixedSingleValue(t *testing.T) {
	r := Point(7)
	if r.Min != 7 || r.Max != 7 || !r.Fixed {
		t.Fatalf("Point(7) = %+v, want {7 7 true}", r)
	}
}

// Property 4 (§8): NewRange canonicalizes swapped endpoints.
func TestNewRangeCanonicalizes(t *testing.T) {
	r := NewRange(10, 2)
	if r.Min > r.Max {
		t.Fatalf("NewRange(10,2) = %+v, min > max", r)
	}
	if r.Min != 2 || r.Max != 10 {
		t.Fatalf("NewRange(10,2) = %+v, want {2 10}", r)
	}
}

// Property 3 (§8): Bottom is the identity element of Merge.
func TestMergeBottomIdentity(t *testing.T) {
	x := NewRange(3, 9)
	if got := Merge(Bottom(), x); got != x {
		t.Fatalf("Merge(Bottom, x) = %+v, want %+v", got, x)
	}
	if got := Merge(x, Bottom()); got != x {
		t.Fatalf("Merge(x, Bottom) = %+v, want %+v", got, x)
	}
}

// Property 2 (§8): Merge is monotone — it only ever enlarges.
func TestMergeMonotone(t *testing.T) {
	a := NewRange(1, 5)
	b := NewRange(-2, 3)
	m := Merge(a, b)
	if m.Min > a.Min || m.Min > b.Min {
		t.Fatalf("Merge(%+v, %+v) = %+v, min not ≤ both inputs", a, b, m)
	}
	if m.Max < a.Max || m.Max < b.Max {
		t.Fatalf("Merge(%+v, %+v) = %+v, max not ≥ both inputs", a, b, m)
	}
}

func TestAddOrdinary(t *testing.T) {
	got := Add(NewRange(3, 3), NewRange(5, 5), 1, 1)
	if got.Min != 8 || got.Max != 8 {
		t.Fatalf("Add(3,5) = %+v, want [8,8]", got)
	}
}

func TestAddAccumulatesAcrossLoop(t *testing.T) {
	// s += i over [0,10): base [0,0], step [0,9], 9 back-edge executions.
	got := Add(NewRange(0, 0), NewRange(0, 9), 0, 9)
	if got.Max < 45 {
		t.Fatalf("Add accumulation max = %v, want ≥ 45 (scenario 3)", got.Max)
	}
}

// Scenario 6 (§8): division by a range containing zero is Top, with a
// warning logged.
func TestDivByZeroRange(t *testing.T) {
	b := NewRange(0, 0)
	if !b.ContainsZero() {
		t.Fatalf("[0,0] must contain zero")
	}
	var logged bool
	ia := NewInstructionAnalyzer(new(int), logFunc(func(string, ...any) { logged = true }))
	scope := NewScope(nil)
	ia.LoadBlock(scope, IterBounds{Min: 1, Max: 1})
	inst := &fakeInst{name: "q", op: OpSDiv, operands: []OperandRef{constRef(1), constRef(0)}}
	ia.AnalyzeExpressionNode(inst)
	op := scope.Lookup("q")
	if op == nil || !op.TryResolve() {
		t.Fatalf("expected q to resolve")
	}
	r, _ := op.Range()
	if !r.IsTop() {
		t.Fatalf("div by zero-containing range = %+v, want Top", r)
	}
	if !logged {
		t.Fatalf("expected a division-by-zero warning to be logged")
	}
}

type logFunc func(format string, args ...any)

func (f logFunc) Warnf(format string, args ...any) { f(format, args...) }
