package napi

import (
	"math"

	"fortio.org/safecast"
)

// Marshaler converts between a Go value of type T and a host value handle.
//
// FromHost does not inspect the kind of v itself; it relies on the host
// getter to reject a mismatched kind (napi_number_expected and friends),
// which surfaces as an *Error of KindStatus.
type Marshaler[T any] interface {
	FromHost(h Host, env Env, v Value) (T, error)
	ToHost(h Host, env Env, x T) (Value, error)
}

// Unit is the Go side of "no value". It marshals to undefined.
type Unit = struct{}

// Supported marshallers. Integers travel through the host's numeric
// channel; narrowing conversions are range checked.
var (
	Float64   Marshaler[float64] = float64Marshaler{}
	Float32   Marshaler[float32] = float32Marshaler{}
	Int       Marshaler[int]     = intMarshaler{}
	Int32     Marshaler[int32]   = int32Marshaler{}
	Int64     Marshaler[int64]   = int64Marshaler{}
	Uint32    Marshaler[uint32]  = uint32Marshaler{}
	Bool      Marshaler[bool]    = boolMarshaler{}
	String    Marshaler[string]  = stringMarshaler{}
	Undefined Marshaler[Unit]    = unitMarshaler{}
)

// marshalers maps a Go type name to the identifier of its marshaller in
// this package. It is the closed set the code generator accepts.
var marshalers = map[string]string{
	"float64": "Float64",
	"float32": "Float32",
	"int":     "Int",
	"int32":   "Int32",
	"int64":   "Int64",
	"uint32":  "Uint32",
	"bool":    "Bool",
	"string":  "String",
}

// MarshalerName returns the name of the package-level marshaller for the
// Go type goType.
func MarshalerName(goType string) (string, bool) {
	name, ok := marshalers[goType]
	return name, ok
}

// SupportedTypes returns the Go type names that have a marshaller.
func SupportedTypes() []string {
	out := make([]string, 0, len(marshalers))
	for t := range marshalers {
		out = append(out, t)
	}
	return out
}

type float64Marshaler struct{}

func (float64Marshaler) FromHost(h Host, env Env, v Value) (float64, error) {
	return h.GetValueDouble(env, v)
}

func (float64Marshaler) ToHost(h Host, env Env, x float64) (Value, error) {
	return h.CreateDouble(env, x)
}

type float32Marshaler struct{}

func (float32Marshaler) FromHost(h Host, env Env, v Value) (float32, error) {
	f, err := h.GetValueDouble(env, v)
	if err != nil {
		return 0, err
	}
	if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return 0, OverflowError("float32", f, nil)
	}
	return float32(f), nil
}

func (float32Marshaler) ToHost(h Host, env Env, x float32) (Value, error) {
	return h.CreateDouble(env, float64(x))
}

// integerFromHost reads v through the numeric channel and truncates it
// toward zero into T. Non-finite numbers read as zero, as the host's own
// integer getters do; finite values outside T's range fail with
// KindOverflow instead of wrapping or saturating.
func integerFromHost[T safecast.Integer](h Host, env Env, v Value, goType string) (T, error) {
	f, err := h.GetValueDouble(env, v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, nil
	}
	// float to int64 conversion of 2^63 is platform dependent.
	if t := math.Trunc(f); t >= 0x1p63 || t < -0x1p63 {
		return 0, OverflowError(goType, f, safecast.ErrOutOfRange)
	}
	n, err := safecast.Truncate[T](f)
	if err != nil {
		return 0, OverflowError(goType, f, err)
	}
	return n, nil
}

type intMarshaler struct{}

func (intMarshaler) FromHost(h Host, env Env, v Value) (int, error) {
	return integerFromHost[int](h, env, v, "int")
}

func (intMarshaler) ToHost(h Host, env Env, x int) (Value, error) {
	n, err := safecast.Conv[int64](x)
	if err != nil {
		return 0, OverflowError("int64", x, err)
	}
	return h.CreateInt64(env, n)
}

type int32Marshaler struct{}

func (int32Marshaler) FromHost(h Host, env Env, v Value) (int32, error) {
	return integerFromHost[int32](h, env, v, "int32")
}

func (int32Marshaler) ToHost(h Host, env Env, x int32) (Value, error) {
	return h.CreateInt32(env, x)
}

type int64Marshaler struct{}

func (int64Marshaler) FromHost(h Host, env Env, v Value) (int64, error) {
	return integerFromHost[int64](h, env, v, "int64")
}

func (int64Marshaler) ToHost(h Host, env Env, x int64) (Value, error) {
	return h.CreateInt64(env, x)
}

type uint32Marshaler struct{}

func (uint32Marshaler) FromHost(h Host, env Env, v Value) (uint32, error) {
	return integerFromHost[uint32](h, env, v, "uint32")
}

func (uint32Marshaler) ToHost(h Host, env Env, x uint32) (Value, error) {
	return h.CreateUint32(env, x)
}

type boolMarshaler struct{}

func (boolMarshaler) FromHost(h Host, env Env, v Value) (bool, error) {
	return h.GetValueBool(env, v)
}

func (boolMarshaler) ToHost(h Host, env Env, x bool) (Value, error) {
	return h.GetBoolean(env, x)
}

type stringMarshaler struct{}

func (stringMarshaler) FromHost(h Host, env Env, v Value) (string, error) {
	return h.GetValueString(env, v)
}

func (stringMarshaler) ToHost(h Host, env Env, x string) (Value, error) {
	return h.CreateString(env, x)
}

type unitMarshaler struct{}

func (unitMarshaler) FromHost(Host, Env, Value) (Unit, error) {
	return Unit{}, nil
}

func (unitMarshaler) ToHost(h Host, env Env, _ Unit) (Value, error) {
	return h.GetUndefined(env)
}
