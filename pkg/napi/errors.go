package napi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Status mirrors napi_status.
type Status int32

const (
	StatusOK Status = iota
	StatusInvalidArg
	StatusObjectExpected
	StatusStringExpected
	StatusNameExpected
	StatusFunctionExpected
	StatusNumberExpected
	StatusBooleanExpected
	StatusArrayExpected
	StatusGenericFailure
	StatusPendingException
	StatusCancelled
	StatusEscapeCalledTwice
	StatusHandleScopeMismatch
	StatusCallbackScopeMismatch
	StatusQueueFull
	StatusClosing
	StatusBigintExpected
	StatusDateExpected
	StatusArraybufferExpected
	StatusDetachableArraybufferExpected
	StatusWouldDeadlock
	StatusNoExternalBuffersAllowed
	StatusCannotRunJS
)

var statusNames = [...]string{
	"napi_ok",
	"napi_invalid_arg",
	"napi_object_expected",
	"napi_string_expected",
	"napi_name_expected",
	"napi_function_expected",
	"napi_number_expected",
	"napi_boolean_expected",
	"napi_array_expected",
	"napi_generic_failure",
	"napi_pending_exception",
	"napi_cancelled",
	"napi_escape_called_twice",
	"napi_handle_scope_mismatch",
	"napi_callback_scope_mismatch",
	"napi_queue_full",
	"napi_closing",
	"napi_bigint_expected",
	"napi_date_expected",
	"napi_arraybuffer_expected",
	"napi_detachable_arraybuffer_expected",
	"napi_would_deadlock",
	"napi_no_external_buffers_allowed",
	"napi_cannot_run_js",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "napi_status(" + strconv.Itoa(int(s)) + ")"
}

// Phase indicates where at the boundary the error occurred.
type Phase string

const (
	PhaseMarshal   Phase = "marshal"   // host value <-> Go value
	PhaseCall      Phase = "call"      // trampoline invocation
	PhaseRegister  Phase = "register"  // export creation
	PhaseBootstrap Phase = "bootstrap" // module registration
)

// Kind categorizes the error.
type Kind string

const (
	KindStatus       Kind = "status"
	KindArgCount     Kind = "arg_count"
	KindOverflow     Kind = "overflow"
	KindPanic        Kind = "panic"
	KindCallback     Kind = "callback"
	KindInvalidInput Kind = "invalid_input"
	KindNoHost       Kind = "no_host"
)

// Error is the structured error returned across the boundary.
type Error struct {
	Phase  Phase
	Kind   Kind
	Status Status
	Op     string
	Arg    int // argument position, or -1
	Detail string
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}
	if e.Arg >= 0 {
		b.WriteString(" (argument ")
		b.WriteString(strconv.Itoa(e.Arg))
		b.WriteByte(')')
	}
	if e.Kind == KindStatus {
		b.WriteString(": ")
		b.WriteString(e.Status.String())
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by phase and kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Code is the error code reported to the host when the error is thrown.
func (e *Error) Code() string {
	return "NAPIGO_" + strings.ToUpper(string(e.Kind))
}

// StatusError converts a host status into an error. It returns nil for
// StatusOK.
func StatusError(phase Phase, op string, s Status) error {
	if s == StatusOK {
		return nil
	}
	return &Error{Phase: phase, Kind: KindStatus, Status: s, Op: op, Arg: -1}
}

// ArgCountError reports a call with fewer arguments than declared.
func ArgCountError(want, got int) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindArgCount,
		Arg:    -1,
		Detail: fmt.Sprintf("expected %d arguments, got %d", want, got),
	}
}

// OverflowError reports a numeric value that does not fit the Go type.
func OverflowError(goType string, v any, cause error) *Error {
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindOverflow,
		Arg:    -1,
		Detail: fmt.Sprintf("%v does not fit in %s", v, goType),
		Cause:  cause,
	}
}

// ErrNoHost is returned when a trampoline runs before a host was installed.
var ErrNoHost = &Error{Phase: PhaseCall, Kind: KindNoHost, Arg: -1, Detail: "no host installed"}

// StatusOf returns the host status carried by err, or StatusOK if err does
// not carry one.
func StatusOf(err error) Status {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindStatus {
		return e.Status
	}
	return StatusOK
}

func withArg(err error, i int) error {
	var e *Error
	if errors.As(err, &e) {
		cp := *e
		cp.Arg = i
		return &cp
	}
	return &Error{Phase: PhaseMarshal, Kind: KindInvalidInput, Arg: i, Cause: err}
}
