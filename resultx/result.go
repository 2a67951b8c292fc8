// Package resultx provides a value-or-error container for fallible
// computations. A Result holds exactly one of a value of type T or a
// captured error; the error is only re-raised when the value is actually
// demanded.
package resultx

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrInvalidCapture is the error stored when a failure is captured from a
// nil error value. Capturing nil must not turn a failure path into a
// success, so the nil is replaced rather than stored.
var ErrInvalidCapture = errors.New("resultx: invalid error capture")

// PanicError carries a panic payload that was not itself an error, together
// with the stack of the goroutine that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("resultx: panic: %v", e.Value)
}

// Result holds either a value of type T or a captured error, never both.
// err == nil means the value payload is live. The zero Result is an Ok
// zero value.
type Result[T any] struct {
	v   T
	err error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{v: v}
}

func Err[T any](err error) Result[T] {
	if err == nil {
		err = ErrInvalidCapture
	}
	return Result[T]{err: err}
}

// Recovered captures a recover() payload inside a deferred handler.
// An error payload is stored as-is so probes still see its dynamic type;
// anything else is wrapped in a *PanicError with the current stack.
func Recovered[T any](r any) Result[T] {
	if err, ok := r.(error); ok {
		return Err[T](err)
	}
	stack := make([]byte, 4096)
	n := runtime.Stack(stack, false)
	return Result[T]{err: &PanicError{Value: r, Stack: stack[:n]}}
}

// Tuple adapts a conventional (value, error) return into a Result.
func Tuple[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

// Run invokes fn and wraps its outcome, whether it returns normally,
// returns an error, or panics. This is the one sanctioned way to turn an
// arbitrary fallible computation into a Result.
func Run[T any](fn func() (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Recovered[T](r)
		}
	}()
	v, err := fn()
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

// IsOk reports whether the value payload is live. Never panics.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Get returns the payload as a conventional (value, error) pair.
func (r Result[T]) Get() (T, error) {
	return r.v, r.err
}

// Must returns the stored value. If the error payload is live, Must
// re-raises it by panicking with the original error value, preserving its
// kind and message.
func (r Result[T]) Must() T {
	if r.err != nil {
		panic(r.err)
	}
	return r.v
}

// Err returns the captured error, or nil. Never panics.
func (r Result[T]) Err() error {
	return r.err
}

// ErrIs reports whether the captured error matches target per errors.Is.
// False when the value payload is live.
func (r Result[T]) ErrIs(target error) bool {
	return r.err != nil && errors.Is(r.err, target)
}

// ErrAs probes the captured error for kind E per errors.As. The probe never
// panics; it returns the zero E and false for any other kind, or when the
// value payload is live.
func ErrAs[E error, T any](r Result[T]) (E, bool) {
	var e E
	if r.err != nil && errors.As(r.err, &e) {
		return e, true
	}
	return e, false
}
