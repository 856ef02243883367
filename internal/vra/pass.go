package vra

import "encoding/json"

// Result is the outcome of running the pass over one module (§4.F):
// the global scope holding module-level constants, plus each analyzed
// function's published scope keyed by name.
type Result struct {
	Global    *Scope
	functions map[string]*Scope
	order     []string
}

// GetFunctionScope returns the named function's published scope and
// whether that function was analyzed at all.
func (r *Result) GetFunctionScope(name string) (*Scope, bool) {
	s, ok := r.functions[name]
	return s, ok
}

// FunctionNames returns the analyzed function names in module order.
func (r *Result) FunctionNames() []string {
	return append([]string(nil), r.order...)
}

// MarshalJSON renders the whole result as a single JSON object keyed by
// function name, with the module's global constant scope filed under
// the reserved key "__global__" (§6's wire format, extended to the
// module level).
func (r *Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]*Scope, len(r.functions)+1)
	out["__global__"] = r.Global
	for name, scope := range r.functions {
		out[name] = scope
	}
	return json.Marshal(out)
}

// String renders the result as indented JSON for humans (CLI/log
// output); MarshalJSON never errors for a Result built by Run, so the
// fallback branch only guards a hand-built Result with a nil Scope
// somewhere in functions.
func (r *Result) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "<vra.Result: " + err.Error() + ">"
	}
	return string(data)
}

// Run executes the pass over an entire module (§4.F): the global scope
// is seeded from the module's constants, then every function is walked
// independently (function scopes never share operands across a
// function boundary — only the global scope is common ancestor).
func Run(mv ModuleView, log Logger) *Result {
	if log == nil {
		log = NopLogger()
	}

	global := NewScope(nil)
	for _, c := range mv.Constants() {
		global.AddOperand(NewConstantOperand(c.Name, c.Value))
	}

	result := &Result{Global: global, functions: make(map[string]*Scope)}
	for _, fn := range mv.Functions() {
		fa := NewFunctionAnalyzer(fn, global, log)
		result.functions[fn.Name()] = fa.Analyze()
		result.order = append(result.order, fn.Name())
	}
	return result
}
