// Package sqlitex wraps a SQLite connection and prepared statements behind
// checked results: every native call reports its outcome through a Result
// that must be observed, so a failed command cannot be dropped silently.
package sqlitex

import (
	"fmt"
	"log/slog"
	"runtime"

	"zombiezen.com/go/sqlite"
)

// Error is a failed SQLite call: the native result code plus the diagnostic
// message captured at the time of failure.
type Error struct {
	Code    sqlite.ResultCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("(%d): %s", int(e.Code), e.Message)
}

// Result is the outcome of a single native call. A Result carrying an error
// is "dirty": the holder must observe it through Err, Raise or Success
// before calling Release, otherwise Release re-raises the error. Results
// for successful calls start observed and Release is a no-op on them.
//
// Result is a single-goroutine value; see Handoff for passing the
// observation obligation around.
type Result struct {
	code     sqlite.ResultCode
	err      *Error
	observed bool
}

func cleanResult(code sqlite.ResultCode) *Result {
	return &Result{code: code, observed: true}
}

func dirtyResult(code sqlite.ResultCode, message string) *Result {
	r := &Result{code: code, err: &Error{Code: code, Message: message}}
	armDropCheck(r)
	return r
}

// armDropCheck makes a dirty result collected by the GC without ever being
// observed visible in the log. Deterministic enforcement happens in
// Release; this only surfaces the leak.
func armDropCheck(r *Result) {
	runtime.SetFinalizer(r, func(r *Result) {
		if !r.observed {
			slog.Error("sqlitex: dirty result dropped without observation",
				"code", int(r.err.Code), "message", r.err.Message)
		}
	})
}

// Code returns the raw native result code. Passive: reading it does not
// discharge the observation obligation.
func (r *Result) Code() sqlite.ResultCode { return r.code }

// HasRow reports whether a step produced a row. Passive.
func (r *Result) HasRow() bool { return r.code == sqlite.ResultRow }

// OK reports whether a command completed with SQLITE_OK. Passive.
func (r *Result) OK() bool { return r.code == sqlite.ResultOK }

// Done reports whether a statement ran to completion. Passive.
func (r *Result) Done() bool { return r.code == sqlite.ResultDone }

// Err marks the result observed and returns the attached error, if any.
// This is the sanctioned way to inspect a failure without re-raising it.
func (r *Result) Err() error {
	r.observed = true
	if r.err == nil {
		return nil
	}
	return r.err
}

// Raise marks the result observed and re-raises the attached error by
// panicking with it. No-op on a clean result.
func (r *Result) Raise() {
	r.observed = true
	if r.err != nil {
		panic(r.err)
	}
}

// Success reports whether the code is one of OK, ROW or DONE. Calling it
// counts as observation.
func (r *Result) Success() bool {
	r.observed = true
	return r.code == sqlite.ResultOK || r.code == sqlite.ResultRow || r.code == sqlite.ResultDone
}

// Handoff transfers the observation obligation: the returned Result carries
// the same code, error and observation state, and the source is marked
// observed. Among all results descended from one failure, exactly one is
// ever responsible for enforcement.
func (r *Result) Handoff() *Result {
	cp := &Result{code: r.code, err: r.err, observed: r.observed}
	if !r.observed {
		r.observed = true
		armDropCheck(cp)
	}
	return cp
}

// Release is the end-of-scope check, typically deferred at the call site or
// invoked immediately when the outcome is intentionally discarded. If the
// result is still dirty, Release logs the error and panics with it.
//
// When Release fires during an in-flight panic, the runtime chains both
// panic values in the crash report, so the original failure is still
// visible rather than silently replaced.
func (r *Result) Release() {
	if r.observed {
		return
	}
	r.observed = true
	if r.err == nil {
		return
	}
	slog.Error("sqlitex: unobserved failure", "code", int(r.err.Code), "message", r.err.Message)
	panic(r.err)
}
