package fault

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Code identifies the kind of contract violation.
type Code string

// Violation codes.
const (
	CodeUninitialized    Code = "UNINITIALIZED"
	CodeInterruptContext Code = "INTERRUPT_CONTEXT"
	CodeInterruptsOn     Code = "INTERRUPTS_ENABLED"
	CodeRecursiveAcquire Code = "RECURSIVE_ACQUIRE"
	CodeNotHolder        Code = "NOT_HOLDER"
	CodeBadThreadState   Code = "BAD_THREAD_STATE"
	CodeBadPriority      Code = "BAD_PRIORITY"
	CodeNoThread         Code = "NO_THREAD"
	CodeUnexpectedPanic  Code = "UNEXPECTED_PANIC"
)

// maxFrames bounds the number of program counters kept per violation.
const maxFrames = 16

// Violation is a fatal kernel contract violation.
type Violation struct {
	// Code classifies the violation.
	Code Code

	// Message describes the specific misuse.
	Message string

	// Thread is the name of the kernel thread that was running, if known.
	Thread string

	// TID is the numeric id of that thread, or 0.
	TID uint32

	// Stack holds the program counters of the violating call.
	Stack []uintptr

	// Cause is set when the violation wraps a foreign panic value.
	Cause error
}

// Error implements error.
func (v *Violation) Error() string {
	if v.Thread != "" {
		return fmt.Sprintf("kernel panic in thread %q: %s: %s", v.Thread, v.Code, v.Message)
	}
	return fmt.Sprintf("kernel panic: %s: %s", v.Code, v.Message)
}

// Unwrap returns the wrapped cause, if any.
func (v *Violation) Unwrap() error {
	return v.Cause
}

// Is matches another *Violation by code, so errors.Is(err,
// &fault.Violation{Code: fault.CodeNotHolder}) works as a sentinel test.
func (v *Violation) Is(target error) bool {
	var t *Violation
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == v.Code
}

// New creates a violation with the caller's stack captured.
func New(code Code, format string, args ...any) *Violation {
	return &Violation{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(3),
	}
}

// Fail panics with a new violation.
func Fail(code Code, format string, args ...any) {
	panic(&Violation{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(3),
	})
}

// Assert panics with a violation when cond is false.
func Assert(cond bool, code Code, format string, args ...any) {
	if cond {
		return
	}
	v := &Violation{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(3),
	}
	panic(v)
}

// FromPanic converts a recovered panic value into a violation.
// Violations pass through unchanged; anything else is wrapped as
// CodeUnexpectedPanic.
func FromPanic(r any) *Violation {
	switch x := r.(type) {
	case *Violation:
		return x
	case error:
		return &Violation{Code: CodeUnexpectedPanic, Message: x.Error(), Cause: x, Stack: captureStack(4)}
	default:
		return &Violation{Code: CodeUnexpectedPanic, Message: fmt.Sprint(x), Stack: captureStack(4)}
	}
}

// captureStack records the call stack, skipping skip frames.
func captureStack(skip int) []uintptr {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip, pcs)
	return pcs[:n]
}

// Format writes a human readable report of the violation.
//
//nolint:errcheck // best-effort diagnostics output
func (v *Violation) Format(w io.Writer) {
	fmt.Fprintf(w, "==================\n")
	fmt.Fprintf(w, "KERNEL PANIC: %s\n", v.Message)
	fmt.Fprintf(w, "Code: %s\n", v.Code)
	if v.Thread != "" {
		fmt.Fprintf(w, "Thread: %s (tid %d)\n", v.Thread, v.TID)
	}
	if len(v.Stack) > 0 {
		fmt.Fprint(w, formatStack(v.Stack))
	} else {
		fmt.Fprintf(w, "  (no stack trace captured)\n")
	}
	fmt.Fprintf(w, "==================\n")
}

// Report returns the formatted report as a string.
func (v *Violation) Report() string {
	var buf strings.Builder
	v.Format(&buf)
	return buf.String()
}

// formatStack renders program counters, dropping runtime frames.
func formatStack(pcs []uintptr) string {
	frames := runtime.CallersFrames(pcs)

	var buf strings.Builder
	for {
		frame, more := frames.Next()
		if frame.PC == 0 {
			break
		}
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&buf, "  %s()\n", frame.Function)
			fmt.Fprintf(&buf, "      %s:%d\n", frame.File, frame.Line)
		}
		if !more {
			break
		}
	}

	if buf.Len() == 0 {
		return "  <runtime internal>\n"
	}
	return buf.String()
}
