//go:build cgo

package bridge

/*
#cgo CFLAGS: -I${SRCDIR}/../../native/include
#cgo linux LDFLAGS: -Wl,--unresolved-symbols=ignore-all
#cgo darwin LDFLAGS: -Wl,-undefined,dynamic_lookup
#include "napigo_abi.h"
#include <stdlib.h>

extern napi_value napigo_trampoline(napi_env env, napi_callback_info info);
extern napi_value napigo_module_entry(napi_env env, napi_value exports);

// Helpers accept uintptr_t to avoid Go unsafe.Pointer conversions.

static inline napi_status napigo_get_cb_info(uintptr_t env, uintptr_t info, size_t* argc, uintptr_t* argv) {
    return napi_get_cb_info((napi_env)env, (napi_callback_info)info, argc, (napi_value*)argv, NULL, NULL);
}

static inline napi_status napigo_get_value_double(uintptr_t env, uintptr_t v, double* out) {
    return napi_get_value_double((napi_env)env, (napi_value)v, out);
}

static inline napi_status napigo_create_double(uintptr_t env, double x, uintptr_t* out) {
    return napi_create_double((napi_env)env, x, (napi_value*)out);
}

static inline napi_status napigo_get_value_int32(uintptr_t env, uintptr_t v, int32_t* out) {
    return napi_get_value_int32((napi_env)env, (napi_value)v, out);
}

static inline napi_status napigo_create_int32(uintptr_t env, int32_t x, uintptr_t* out) {
    return napi_create_int32((napi_env)env, x, (napi_value*)out);
}

static inline napi_status napigo_get_value_uint32(uintptr_t env, uintptr_t v, uint32_t* out) {
    return napi_get_value_uint32((napi_env)env, (napi_value)v, out);
}

static inline napi_status napigo_create_uint32(uintptr_t env, uint32_t x, uintptr_t* out) {
    return napi_create_uint32((napi_env)env, x, (napi_value*)out);
}

static inline napi_status napigo_get_value_int64(uintptr_t env, uintptr_t v, int64_t* out) {
    return napi_get_value_int64((napi_env)env, (napi_value)v, out);
}

static inline napi_status napigo_create_int64(uintptr_t env, int64_t x, uintptr_t* out) {
    return napi_create_int64((napi_env)env, x, (napi_value*)out);
}

static inline napi_status napigo_get_value_bool(uintptr_t env, uintptr_t v, bool* out) {
    return napi_get_value_bool((napi_env)env, (napi_value)v, out);
}

static inline napi_status napigo_get_boolean(uintptr_t env, bool x, uintptr_t* out) {
    return napi_get_boolean((napi_env)env, x, (napi_value*)out);
}

static inline napi_status napigo_get_value_string(uintptr_t env, uintptr_t v, char* buf, size_t size, size_t* out) {
    return napi_get_value_string_utf8((napi_env)env, (napi_value)v, buf, size, out);
}

static inline napi_status napigo_create_string(uintptr_t env, _GoString_ s, uintptr_t* out) {
    size_t n = _GoStringLen(s);
    const char* p = n ? _GoStringPtr(s) : "";
    return napi_create_string_utf8((napi_env)env, p, n, (napi_value*)out);
}

static inline napi_status napigo_get_undefined(uintptr_t env, uintptr_t* out) {
    return napi_get_undefined((napi_env)env, (napi_value*)out);
}

static inline napi_status napigo_create_function(uintptr_t env, _GoString_ name, uintptr_t data, uintptr_t* out) {
    size_t n = _GoStringLen(name);
    const char* p = n ? _GoStringPtr(name) : "";
    return napi_create_function((napi_env)env, p, n, napigo_trampoline, (void*)data, (napi_value*)out);
}

static inline napi_status napigo_set_named_property(uintptr_t env, uintptr_t object, const char* name, uintptr_t v) {
    return napi_set_named_property((napi_env)env, (napi_value)object, name, (napi_value)v);
}

static inline napi_status napigo_throw_error(uintptr_t env, const char* code, const char* msg) {
    return napi_throw_error((napi_env)env, code, msg);
}

// The record and strings must outlive the process, so none is freed.
// A NULL filename stays NULL.
static inline void napigo_module_register(int version, unsigned int flags, char* filename, char* modname) {
    napi_module* m = (napi_module*)calloc(1, sizeof(napi_module));
    if (!m) {
        return;
    }
    m->nm_version = version;
    m->nm_flags = flags;
    m->nm_filename = filename;
    m->nm_register_func = napigo_module_entry;
    m->nm_modname = modname;
    napi_module_register(m);
}
*/
import "C"

import (
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/corrreia/napigo/pkg/bridge/abi"
	"github.com/corrreia/napigo/pkg/napi"
)

func init() {
	napi.SetHost(nodeHost{})
}

// nodeHost forwards every napi.Host call to the Node-API function of the
// same name.
type nodeHost struct{}

var _ napi.Host = nodeHost{}

var (
	entryMu sync.RWMutex
	entry   napi.EntryPoint
)

func check(phase napi.Phase, op string, s C.napi_status) error {
	return napi.StatusError(phase, op, napi.Status(s))
}

func (nodeHost) GetCallInfo(env napi.Env, info napi.CallbackInfo, capacity int) (int, []napi.Value, error) {
	argc := C.size_t(capacity)
	var argv []C.uintptr_t
	var ptr *C.uintptr_t
	if capacity > 0 {
		argv = make([]C.uintptr_t, capacity)
		ptr = &argv[0]
	}
	s := C.napigo_get_cb_info(C.uintptr_t(env), C.uintptr_t(info), &argc, ptr)
	if err := check(napi.PhaseCall, napi.OpGetCbInfo, s); err != nil {
		return 0, nil, err
	}

	out := make([]napi.Value, min(int(argc), capacity))
	for i := range out {
		out[i] = napi.Value(argv[i])
	}
	return int(argc), out, nil
}

func (nodeHost) GetValueDouble(env napi.Env, v napi.Value) (float64, error) {
	var out C.double
	s := C.napigo_get_value_double(C.uintptr_t(env), C.uintptr_t(v), &out)
	return float64(out), check(napi.PhaseMarshal, napi.OpGetValueDouble, s)
}

func (nodeHost) CreateDouble(env napi.Env, x float64) (napi.Value, error) {
	var out C.uintptr_t
	s := C.napigo_create_double(C.uintptr_t(env), C.double(x), &out)
	return napi.Value(out), check(napi.PhaseMarshal, napi.OpCreateDouble, s)
}

func (nodeHost) GetValueInt32(env napi.Env, v napi.Value) (int32, error) {
	var out C.int32_t
	s := C.napigo_get_value_int32(C.uintptr_t(env), C.uintptr_t(v), &out)
	return int32(out), check(napi.PhaseMarshal, napi.OpGetValueInt32, s)
}

func (nodeHost) CreateInt32(env napi.Env, x int32) (napi.Value, error) {
	var out C.uintptr_t
	s := C.napigo_create_int32(C.uintptr_t(env), C.int32_t(x), &out)
	return napi.Value(out), check(napi.PhaseMarshal, napi.OpCreateInt32, s)
}

func (nodeHost) GetValueUint32(env napi.Env, v napi.Value) (uint32, error) {
	var out C.uint32_t
	s := C.napigo_get_value_uint32(C.uintptr_t(env), C.uintptr_t(v), &out)
	return uint32(out), check(napi.PhaseMarshal, napi.OpGetValueUint32, s)
}

func (nodeHost) CreateUint32(env napi.Env, x uint32) (napi.Value, error) {
	var out C.uintptr_t
	s := C.napigo_create_uint32(C.uintptr_t(env), C.uint32_t(x), &out)
	return napi.Value(out), check(napi.PhaseMarshal, napi.OpCreateUint32, s)
}

func (nodeHost) GetValueInt64(env napi.Env, v napi.Value) (int64, error) {
	var out C.int64_t
	s := C.napigo_get_value_int64(C.uintptr_t(env), C.uintptr_t(v), &out)
	return int64(out), check(napi.PhaseMarshal, napi.OpGetValueInt64, s)
}

func (nodeHost) CreateInt64(env napi.Env, x int64) (napi.Value, error) {
	var out C.uintptr_t
	s := C.napigo_create_int64(C.uintptr_t(env), C.int64_t(x), &out)
	return napi.Value(out), check(napi.PhaseMarshal, napi.OpCreateInt64, s)
}

func (nodeHost) GetValueBool(env napi.Env, v napi.Value) (bool, error) {
	var out C.bool
	s := C.napigo_get_value_bool(C.uintptr_t(env), C.uintptr_t(v), &out)
	return bool(out), check(napi.PhaseMarshal, napi.OpGetValueBool, s)
}

func (nodeHost) GetBoolean(env napi.Env, x bool) (napi.Value, error) {
	var out C.uintptr_t
	s := C.napigo_get_boolean(C.uintptr_t(env), C.bool(x), &out)
	return napi.Value(out), check(napi.PhaseMarshal, napi.OpGetBoolean, s)
}

func (nodeHost) GetValueString(env napi.Env, v napi.Value) (string, error) {
	// First call reports the length in bytes, excluding the terminator.
	var n C.size_t
	s := C.napigo_get_value_string(C.uintptr_t(env), C.uintptr_t(v), nil, 0, &n)
	if err := check(napi.PhaseMarshal, napi.OpGetValueString, s); err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}

	buf := make([]byte, int(n)+1)
	s = C.napigo_get_value_string(C.uintptr_t(env), C.uintptr_t(v),
		(*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)), &n)
	if err := check(napi.PhaseMarshal, napi.OpGetValueString, s); err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

func (nodeHost) CreateString(env napi.Env, str string) (napi.Value, error) {
	var out C.uintptr_t
	s := C.napigo_create_string(C.uintptr_t(env), str, &out)
	return napi.Value(out), check(napi.PhaseMarshal, napi.OpCreateString, s)
}

func (nodeHost) GetUndefined(env napi.Env) (napi.Value, error) {
	var out C.uintptr_t
	s := C.napigo_get_undefined(C.uintptr_t(env), &out)
	return napi.Value(out), check(napi.PhaseMarshal, napi.OpGetUndefined, s)
}

// CreateFunction pins cb in a cgo.Handle that becomes the function's data
// pointer. The handle lives as long as the process, like the function.
func (nodeHost) CreateFunction(env napi.Env, name string, cb napi.Callback) (napi.Value, error) {
	if cb == nil {
		return 0, napi.StatusError(napi.PhaseRegister, napi.OpCreateFunction, napi.StatusInvalidArg)
	}
	h := cgo.NewHandle(cb)

	var out C.uintptr_t
	s := C.napigo_create_function(C.uintptr_t(env), name, C.uintptr_t(h), &out)
	if err := check(napi.PhaseRegister, napi.OpCreateFunction, s); err != nil {
		h.Delete()
		return 0, err
	}
	return napi.Value(out), nil
}

func (nodeHost) SetNamedProperty(env napi.Env, object napi.Value, name string, value napi.Value) error {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	s := C.napigo_set_named_property(C.uintptr_t(env), C.uintptr_t(object), cname, C.uintptr_t(value))
	return check(napi.PhaseRegister, napi.OpSetNamedProperty, s)
}

func (nodeHost) ThrowError(env napi.Env, code, msg string) error {
	ccode := C.CString(code)
	defer C.free(unsafe.Pointer(ccode))
	cmsg := C.CString(msg)
	defer C.free(unsafe.Pointer(cmsg))
	s := C.napigo_throw_error(C.uintptr_t(env), ccode, cmsg)
	return check(napi.PhaseCall, napi.OpThrowError, s)
}

// RegisterModule stores rec's entry point and hands Node a napi_module
// whose register function calls back into it.
func (nodeHost) RegisterModule(rec *napi.ModuleRecord) error {
	m, err := abi.ModuleFor(rec)
	if err != nil {
		return err
	}

	entryMu.Lock()
	entry = rec.Register
	entryMu.Unlock()

	var filename *C.char
	if m.Filename != "" {
		filename = C.CString(m.Filename)
	}
	C.napigo_module_register(C.int(m.Version), C.uint(m.Flags), filename, C.CString(m.Modname))
	return nil
}

func moduleEntry() napi.EntryPoint {
	entryMu.RLock()
	defer entryMu.RUnlock()
	return entry
}
