//go:build cgo

package bridge

/*
#cgo CFLAGS: -I${SRCDIR}/../../native/include
#include <stdint.h>
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/corrreia/napigo/pkg/napi"
)

// safeCall runs fn and converts a panic into a host exception.
// It reports whether fn returned normally.
func safeCall(env napi.Env, where string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			napi.Logger().Named("bridge").Error("panic at the boundary",
				zap.String("in", where),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
			_ = nodeHost{}.ThrowError(env, "NAPIGO_PANIC", fmt.Sprintf("panic in %s: %v", where, r))
			ok = false
		}
	}()
	fn()
	return true
}

//export napigoDispatch
func napigoDispatch(env, info, data C.uintptr_t) C.uintptr_t {
	var result napi.Value
	safeCall(napi.Env(env), "dispatch", func() {
		if data == 0 {
			panic("function created without a callback handle")
		}
		cb, ok := cgo.Handle(data).Value().(napi.Callback)
		if !ok {
			panic("callback handle does not hold a napi.Callback")
		}
		result = cb(napi.Env(env), napi.CallbackInfo(info))
	})
	return C.uintptr_t(result)
}

//export napigoModuleEntry
func napigoModuleEntry(env, exports C.uintptr_t) C.uintptr_t {
	var result napi.Value
	safeCall(napi.Env(env), "module entry", func() {
		fn := moduleEntry()
		if fn == nil {
			panic("module loaded before it was registered")
		}
		result = fn(napi.Env(env), napi.Value(exports))
	})
	return C.uintptr_t(result)
}
