// Package napi is the Go side of the Node-API boundary.
//
// It defines the opaque handles the host runtime hands to an addon, the
// Host interface describing the ABI calls the addon consumes, the value
// marshallers that move primitives across the boundary, and the Call helper
// used by generated trampolines. Nothing in this package touches a raw
// pointer; the cgo implementation of Host lives in package bridge.
package napi

// Env is the host environment handle passed to every callback.
type Env uintptr

// Value is an opaque reference to a value owned by the host runtime.
// The zero Value is the ABI null handle.
type Value uintptr

// CallbackInfo is the per-call handle a trampoline uses to read its
// arguments.
type CallbackInfo uintptr

// Callback is the ABI shape of a trampoline: it receives the environment
// and call info and returns a host value.
type Callback func(env Env, info CallbackInfo) Value

// EntryPoint is the module registration callback: it populates exports and
// returns the value the host should use as the module's exports.
type EntryPoint func(env Env, exports Value) Value

// ModuleRecord describes a module to the host at registration time.
// The host implementation owns laying it out in the ABI-mandated form.
type ModuleRecord struct {
	Version  int32
	Flags    uint32
	Name     string
	Register EntryPoint
}

// Host ABI operation names, used in errors and for fault injection.
const (
	OpGetCbInfo        = "napi_get_cb_info"
	OpGetValueDouble   = "napi_get_value_double"
	OpCreateDouble     = "napi_create_double"
	OpGetValueInt32    = "napi_get_value_int32"
	OpCreateInt32      = "napi_create_int32"
	OpGetValueUint32   = "napi_get_value_uint32"
	OpCreateUint32     = "napi_create_uint32"
	OpGetValueInt64    = "napi_get_value_int64"
	OpCreateInt64      = "napi_create_int64"
	OpGetValueBool     = "napi_get_value_bool"
	OpGetBoolean       = "napi_get_boolean"
	OpGetValueString   = "napi_get_value_string_utf8"
	OpCreateString     = "napi_create_string_utf8"
	OpGetUndefined     = "napi_get_undefined"
	OpCreateFunction   = "napi_create_function"
	OpSetNamedProperty = "napi_set_named_property"
	OpThrowError       = "napi_throw_error"
	OpModuleRegister   = "napi_module_register"
)
