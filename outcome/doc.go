// Package outcome provides the uniform success-or-failure result value
// returned by every policy execution.
//
// An Outcome is an explicit tagged union: it holds either a value or an
// error, never both and never neither. Policies in the policy package
// produce Outcomes instead of propagating errors up the call stack, so a
// caller always inspects one value regardless of how deeply policies are
// nested.
package outcome
