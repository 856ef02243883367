package vra

import "github.com/pkg/errors"

// These sentinels back every non-fatal §7 diagnostic the pass emits.
// None of them ever escape as a returned error: §7's contract is
// skip-and-continue, not abort, so each is wrapped with errors.Wrapf at
// its call site (naming the offending operand/opcode/loop) and the
// resulting message is handed to Logger.Warnf. Wrapping them keeps one
// canonical message per failure mode instead of each call site
// hand-rolling its own string.

// ErrDivByZeroPossible is wrapped in instruction.go's division dispatch
// when a divisor interval contains zero; the caller substitutes Top().
var ErrDivByZeroPossible = errors.New("vra: division by zero possible")

// ErrUnknownOperand is wrapped in instruction.go's resolveOperand and
// AnalyzeHeaderPHINode when a referenced name is not present in any
// reachable scope.
var ErrUnknownOperand = errors.New("vra: unknown operand")

// ErrUnsupportedOpcode is wrapped in instruction.go's opcode dispatch
// default case: an instruction shape the analyzer does not model, whose
// result operand is simply not created.
var ErrUnsupportedOpcode = errors.New("vra: unsupported opcode")

// ErrTripCountUncomputable is wrapped in function.go's tripCount when
// the scalar-evolution oracle could not produce a constant
// back-edge-taken count.
var ErrTripCountUncomputable = errors.New("vra: trip count uncomputable")
