package outcome

// Outcome is an immutable success-or-failure value.
//
// The zero value is a success holding T's zero value; use Ok and Err to
// construct Outcomes explicitly.
type Outcome[T any] struct {
	value T
	err   error
}

// Ok returns a success Outcome holding v.
func Ok[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Err returns a failure Outcome holding err.
// It panics if err is nil: a nil error is a programming mistake, not a
// representable failure.
func Err[T any](err error) Outcome[T] {
	if err == nil {
		panic("outcome: Err called with nil error")
	}
	return Outcome[T]{err: err}
}

// IsOK reports whether the outcome is a success.
func (o Outcome[T]) IsOK() bool {
	return o.err == nil
}

// IsErr reports whether the outcome is a failure.
func (o Outcome[T]) IsErr() bool {
	return o.err != nil
}

// Value returns the success value, or T's zero value for a failure.
func (o Outcome[T]) Value() T {
	return o.value
}

// Error returns the failure error, or nil for a success.
func (o Outcome[T]) Error() error {
	return o.err
}

// Get unpacks the outcome into Go's conventional (value, error) pair.
func (o Outcome[T]) Get() (T, error) {
	return o.value, o.err
}

// Map applies fn to the success value, passing failures through unchanged.
func Map[T, U any](o Outcome[T], fn func(T) U) Outcome[U] {
	if o.err != nil {
		return Outcome[U]{err: o.err}
	}
	return Ok(fn(o.value))
}

// AndThen chains a fallible transformation, passing failures through
// unchanged.
func AndThen[T, U any](o Outcome[T], fn func(T) Outcome[U]) Outcome[U] {
	if o.err != nil {
		return Outcome[U]{err: o.err}
	}
	return fn(o.value)
}

// MapErr applies fn to the failure error, passing successes through
// unchanged. fn must not return nil.
func (o Outcome[T]) MapErr(fn func(error) error) Outcome[T] {
	if o.err == nil {
		return o
	}
	return Err[T](fn(o.err))
}

// OrElse recovers from a failure by computing an alternative outcome.
func (o Outcome[T]) OrElse(fn func(error) Outcome[T]) Outcome[T] {
	if o.err == nil {
		return o
	}
	return fn(o.err)
}
