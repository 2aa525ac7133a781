package napi

import (
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"
)

// Call holds the state of one host -> Go invocation. Generated trampolines
// create it through Invoke and read arguments with Arg.
//
// The first error wins: once a Call has failed, Arg returns zero values,
// Return stops converting and the error is thrown into the host instead.
type Call struct {
	host Host
	env  Env
	argc int
	argv []Value
	err  error
}

// NewCall reads the call's arguments. declared is the number of parameters
// of the Go function; a call with fewer arguments fails with KindArgCount
// instead of reading null handles. Extra arguments are ignored.
func NewCall(env Env, info CallbackInfo, declared int) *Call {
	c := &Call{env: env, host: CurrentHost()}
	if c.host == nil {
		c.err = ErrNoHost
		return c
	}
	argc, argv, err := c.host.GetCallInfo(env, info, declared)
	if err != nil {
		c.err = err
		return c
	}
	c.argc, c.argv = argc, argv
	if argc < declared {
		c.err = ArgCountError(declared, argc)
	}
	return c
}

// Env returns the environment of the call.
func (c *Call) Env() Env { return c.env }

// Argc returns the number of arguments the host passed.
func (c *Call) Argc() int { return c.argc }

// Err returns the first error recorded on the call.
func (c *Call) Err() error { return c.err }

func (c *Call) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Throw raises the recorded error in the host and returns the null handle,
// which is what the host expects from a callback that threw.
func (c *Call) Throw() Value {
	if c.err == nil {
		return 0
	}
	if c.host == nil {
		Logger().Error("cannot throw without a host", zap.Error(c.err))
		return 0
	}

	code, msg := "NAPIGO_ERROR", c.err.Error()
	var e *Error
	if errors.As(c.err, &e) {
		code = e.Code()
		if e.Kind == KindCallback && e.Cause != nil {
			msg = e.Cause.Error()
		}
	}
	if err := c.host.ThrowError(c.env, code, msg); err != nil {
		Logger().Error("throw failed", zap.Error(err), zap.NamedError("cause", c.err))
	}
	return 0
}

// Invoke runs a trampoline body with panic recovery. A panic in Go code
// never unwinds into the host; it is logged and thrown as a host error.
func Invoke(env Env, info CallbackInfo, declared int, body func(c *Call) Value) (result Value) {
	c := NewCall(env, info, declared)
	if c.err != nil {
		return c.Throw()
	}

	defer func() {
		if r := recover(); r != nil {
			Logger().Error("panic in native function",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			c.err = &Error{Phase: PhaseCall, Kind: KindPanic, Arg: -1, Detail: fmt.Sprint(r)}
			result = c.Throw()
		}
	}()
	return body(c)
}

// Arg converts argument i with m. It returns the zero value if the call
// has already failed or the conversion fails.
func Arg[T any](c *Call, i int, m Marshaler[T]) T {
	var zero T
	if c.err != nil {
		return zero
	}
	if i < 0 || i >= len(c.argv) {
		c.fail(ArgCountError(i+1, c.argc))
		return zero
	}
	v, err := m.FromHost(c.host, c.env, c.argv[i])
	if err != nil {
		c.fail(withArg(err, i))
		return zero
	}
	return v
}

// Return converts the Go result x with m and returns the host handle.
func Return[T any](c *Call, m Marshaler[T], x T) Value {
	if c.err != nil {
		return c.Throw()
	}
	v, err := m.ToHost(c.host, c.env, x)
	if err != nil {
		c.fail(err)
		return c.Throw()
	}
	return v
}

// ReturnVoid returns the host's "no value" indicator.
func ReturnVoid(c *Call) Value {
	return Return(c, Undefined, Unit{})
}

// Fail records an error returned by the Go function and throws it.
func Fail(c *Call, err error) Value {
	if err != nil {
		c.fail(&Error{Phase: PhaseCall, Kind: KindCallback, Arg: -1, Cause: err})
	}
	return c.Throw()
}
