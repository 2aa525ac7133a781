// Package bootstrap registers the addon module with the host exactly once.
//
// The generated module file calls Install from its init function and
// exports RegisterExports as the module's entry point. Install is guarded
// by an atomic flag: the first caller registers, every later caller gets
// ErrAlreadyRegistered and has no effect.
package bootstrap

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/corrreia/napigo/pkg/napi"
	"github.com/corrreia/napigo/pkg/registry"
)

// APIVersion is the Node-API version the addon reports by default.
const APIVersion = 8

// ModuleVersion is the napi_module layout version.
const ModuleVersion = 1

// State reports whether the module was handed to the host.
type State int32

const (
	Unregistered State = iota
	Registered
)

func (s State) String() string {
	if s == Registered {
		return "registered"
	}
	return "unregistered"
}

var (
	// ErrAlreadyRegistered is returned by every Install call after the first.
	ErrAlreadyRegistered = errors.New("bootstrap: module already registered")

	// ErrEmptyName is returned when Install is called without a module name.
	ErrEmptyName = errors.New("bootstrap: empty module name")
)

var registered atomic.Bool

// Install registers the module named name with the current host. Only the
// first call in the process registers; the transition is a single
// compare-and-swap, so concurrent callers cannot both win.
//
// If the host rejects the record the flag is cleared again, so a later
// Install may retry.
func Install(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if !registered.CompareAndSwap(false, true) {
		return ErrAlreadyRegistered
	}

	h := napi.CurrentHost()
	if h == nil {
		registered.Store(false)
		return napi.ErrNoHost
	}

	rec := &napi.ModuleRecord{
		Version:  ModuleVersion,
		Name:     name,
		Register: RegisterExports,
	}
	if err := h.RegisterModule(rec); err != nil {
		registered.Store(false)
		log().Error("module registration failed", zap.String("module", name), zap.Error(err))
		return err
	}

	log().Info("module registered", zap.String("module", name))
	return nil
}

// CurrentState returns the registration state.
func CurrentState() State {
	if registered.Load() {
		return Registered
	}
	return Unregistered
}

// RegisterExports is the module entry point. It installs every binding of
// the default registry on exports and returns exports. On failure, panics
// included, it throws into the host and returns the null handle.
func RegisterExports(env napi.Env, exports napi.Value) (result napi.Value) {
	h := napi.CurrentHost()
	if h == nil {
		log().Error("module loaded without a host")
		return 0
	}

	defer func() {
		if r := recover(); r != nil {
			log().Error("panic while installing exports",
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			throw(h, env, "NAPIGO_PANIC", fmt.Sprint(r))
			result = 0
		}
	}()

	if err := registry.DrainInto(h, env, exports); err != nil {
		log().Error("installing exports failed", zap.Error(err))
		code := "NAPIGO_REGISTER"
		var e *napi.Error
		if errors.As(err, &e) {
			code = e.Code()
		}
		throw(h, env, code, err.Error())
		return 0
	}
	return exports
}

func throw(h napi.Host, env napi.Env, code, msg string) {
	if err := h.ThrowError(env, code, msg); err != nil {
		log().Error("throw failed", zap.Error(err))
	}
}

// reset clears the registration flag. Tests only.
func reset() {
	registered.Store(false)
}

func log() *zap.Logger {
	return napi.Logger().Named("bootstrap")
}
