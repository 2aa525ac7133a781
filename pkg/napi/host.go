package napi

import "sync"

// Host is the host-runtime ABI surface an addon consumes. Implementations
// translate every non-OK status into an *Error; callers never see raw
// status codes.
type Host interface {
	// GetCallInfo reads up to capacity argument handles for the current
	// call. argc is the number of arguments the caller actually passed,
	// which may exceed capacity.
	GetCallInfo(env Env, info CallbackInfo, capacity int) (argc int, argv []Value, err error)

	GetValueDouble(env Env, v Value) (float64, error)
	CreateDouble(env Env, x float64) (Value, error)
	GetValueInt32(env Env, v Value) (int32, error)
	CreateInt32(env Env, x int32) (Value, error)
	GetValueUint32(env Env, v Value) (uint32, error)
	CreateUint32(env Env, x uint32) (Value, error)
	GetValueInt64(env Env, v Value) (int64, error)
	CreateInt64(env Env, x int64) (Value, error)
	GetValueBool(env Env, v Value) (bool, error)
	GetBoolean(env Env, x bool) (Value, error)
	GetValueString(env Env, v Value) (string, error)
	CreateString(env Env, s string) (Value, error)
	GetUndefined(env Env) (Value, error)

	// CreateFunction creates a host function named name that invokes cb.
	CreateFunction(env Env, name string, cb Callback) (Value, error)
	SetNamedProperty(env Env, object Value, name string, value Value) error

	// ThrowError raises a host Error with the given code and message.
	ThrowError(env Env, code, msg string) error

	// RegisterModule hands a module record to the host. The host keeps the
	// record for the life of the process.
	RegisterModule(rec *ModuleRecord) error
}

var (
	hostMu sync.RWMutex
	host   Host
)

// SetHost installs the process-wide host. The bridge package calls this
// from its init function; tests install a simulated host.
func SetHost(h Host) {
	hostMu.Lock()
	host = h
	hostMu.Unlock()
}

// CurrentHost returns the installed host, or nil if none was installed.
func CurrentHost() Host {
	hostMu.RLock()
	defer hostMu.RUnlock()
	return host
}
