// Package napitest provides an in-memory host runtime for testing code
// that crosses the Node-API boundary without loading a real host.
//
// Values live in a handle table; handle 0 is the null handle. Numbers are
// stored as float64, matching the host's single numeric type, and the
// integer getters apply the host's conversion rules.
package napitest

import (
	"fmt"
	"math"
	"sync"

	"github.com/corrreia/napigo/pkg/napi"
)

// Env is the environment handle the simulated host passes to callbacks.
const Env napi.Env = 1

type undefinedValue struct{}

// Object is a host object with named properties.
type Object struct {
	Props map[string]napi.Value
	Keys  []string // insertion order
}

// Function is a host function created through CreateFunction.
type Function struct {
	Name     string
	Callback napi.Callback
}

// Exception is an error thrown into the host.
type Exception struct {
	Code    string
	Message string
}

func (e *Exception) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type frame struct {
	args []napi.Value
}

// Host is a simulated host runtime. The handle table is safe for
// concurrent use; pending exceptions are tracked per host, so Invoke and
// Load must not run concurrently.
type Host struct {
	mu        sync.Mutex
	values    []any
	frames    map[napi.CallbackInfo]*frame
	nextInfo  napi.CallbackInfo
	pending   *Exception
	faults    map[string]napi.Status
	modules   []napi.ModuleRecord
	callCount map[string]int
}

var _ napi.Host = (*Host)(nil)

// New creates an empty simulated host.
func New() *Host {
	return &Host{
		values:    []any{nil},
		frames:    make(map[napi.CallbackInfo]*frame),
		faults:    make(map[string]napi.Status),
		callCount: make(map[string]int),
	}
}

// Install creates a host and installs it as the process-wide host for the
// duration of the test.
func Install(t interface{ Cleanup(func()) }) *Host {
	h := New()
	prev := napi.CurrentHost()
	napi.SetHost(h)
	t.Cleanup(func() { napi.SetHost(prev) })
	return h
}

// FailOn makes every subsequent call of the ABI operation op return status.
func (h *Host) FailOn(op string, status napi.Status) {
	h.mu.Lock()
	h.faults[op] = status
	h.mu.Unlock()
}

// Calls returns how many times the ABI operation op was invoked.
func (h *Host) Calls(op string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.callCount[op]
}

// enter records a call of op and returns the injected fault, if any.
// The caller must hold h.mu.
func (h *Host) enter(op string) error {
	h.callCount[op]++
	if s, ok := h.faults[op]; ok {
		return napi.StatusError(napi.PhaseMarshal, op, s)
	}
	return nil
}

func (h *Host) alloc(v any) napi.Value {
	h.values = append(h.values, v)
	return napi.Value(len(h.values) - 1)
}

func (h *Host) get(v napi.Value) (any, bool) {
	if v == 0 || int(v) >= len(h.values) {
		return nil, false
	}
	return h.values[v], true
}

// Number allocates a number value.
func (h *Host) Number(f float64) napi.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alloc(f)
}

// Str allocates a string value.
func (h *Host) Str(s string) napi.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alloc(s)
}

// Boolean allocates a boolean value.
func (h *Host) Boolean(b bool) napi.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alloc(b)
}

// NewObject allocates an empty object.
func (h *Host) NewObject() napi.Value {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alloc(&Object{Props: make(map[string]napi.Value)})
}

// Inspect returns the Go representation of v: float64, string, bool,
// *Object, *Function, or nil for undefined and the null handle.
func (h *Host) Inspect(v napi.Value) any {
	h.mu.Lock()
	defer h.mu.Unlock()
	x, ok := h.get(v)
	if !ok {
		return nil
	}
	if _, isUndef := x.(undefinedValue); isUndef {
		return nil
	}
	return x
}

// IsUndefined reports whether v is the undefined value.
func (h *Host) IsUndefined(v napi.Value) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	x, ok := h.get(v)
	if !ok {
		return false
	}
	_, isUndef := x.(undefinedValue)
	return isUndef
}

// NumberOf returns the number stored in v.
func (h *Host) NumberOf(v napi.Value) (float64, bool) {
	f, ok := h.Inspect(v).(float64)
	return f, ok
}

// ObjectOf returns the object stored in v.
func (h *Host) ObjectOf(v napi.Value) (*Object, bool) {
	o, ok := h.Inspect(v).(*Object)
	return o, ok
}

// FunctionOf returns the function stored in v.
func (h *Host) FunctionOf(v napi.Value) (*Function, bool) {
	f, ok := h.Inspect(v).(*Function)
	return f, ok
}

// Property returns the named property of object, or the null handle.
func (h *Host) Property(object napi.Value, name string) napi.Value {
	o, ok := h.ObjectOf(object)
	if !ok {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return o.Props[name]
}

// Modules returns the module records registered so far.
func (h *Host) Modules() []napi.ModuleRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]napi.ModuleRecord(nil), h.modules...)
}

// Invoke calls cb the way the host would, with args as the call's
// arguments. If the callback threw, the exception is returned as the
// error and the result is the null handle.
func (h *Host) Invoke(cb napi.Callback, args ...napi.Value) (napi.Value, error) {
	h.mu.Lock()
	h.nextInfo++
	info := h.nextInfo
	h.frames[info] = &frame{args: append([]napi.Value(nil), args...)}
	h.pending = nil
	h.mu.Unlock()

	result := cb(Env, info)

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.frames, info)
	if exc := h.pending; exc != nil {
		h.pending = nil
		return 0, exc
	}
	return result, nil
}

// Call looks up the function stored in fn and invokes it.
func (h *Host) Call(fn napi.Value, args ...napi.Value) (napi.Value, error) {
	f, ok := h.FunctionOf(fn)
	if !ok {
		return 0, fmt.Errorf("napitest: value %d is not a function", fn)
	}
	return h.Invoke(f.Callback, args...)
}

// --- napi.Host ---

func (h *Host) GetCallInfo(_ napi.Env, info napi.CallbackInfo, capacity int) (int, []napi.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.enter(napi.OpGetCbInfo); err != nil {
		return 0, nil, err
	}
	f, ok := h.frames[info]
	if !ok {
		return 0, nil, napi.StatusError(napi.PhaseCall, napi.OpGetCbInfo, napi.StatusInvalidArg)
	}
	n := min(capacity, len(f.args))
	return len(f.args), append([]napi.Value(nil), f.args[:n]...), nil
}

func (h *Host) number(op string, v napi.Value) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.enter(op); err != nil {
		return 0, err
	}
	x, _ := h.get(v)
	f, ok := x.(float64)
	if !ok {
		return 0, napi.StatusError(napi.PhaseMarshal, op, napi.StatusNumberExpected)
	}
	return f, nil
}

func (h *Host) create(op string, x any) (napi.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.enter(op); err != nil {
		return 0, err
	}
	return h.alloc(x), nil
}

func (h *Host) GetValueDouble(_ napi.Env, v napi.Value) (float64, error) {
	return h.number(napi.OpGetValueDouble, v)
}

func (h *Host) CreateDouble(_ napi.Env, x float64) (napi.Value, error) {
	return h.create(napi.OpCreateDouble, x)
}

// toInteger truncates f the way the host's integer getters do: non-finite
// values become zero and out-of-range values saturate.
func toInteger(f float64) int64 {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(math.Trunc(f))
}

func (h *Host) GetValueInt32(_ napi.Env, v napi.Value) (int32, error) {
	f, err := h.number(napi.OpGetValueInt32, v)
	if err != nil {
		return 0, err
	}
	return int32(toInteger(f)), nil
}

func (h *Host) CreateInt32(_ napi.Env, x int32) (napi.Value, error) {
	return h.create(napi.OpCreateInt32, float64(x))
}

func (h *Host) GetValueUint32(_ napi.Env, v napi.Value) (uint32, error) {
	f, err := h.number(napi.OpGetValueUint32, v)
	if err != nil {
		return 0, err
	}
	return uint32(toInteger(f)), nil
}

func (h *Host) CreateUint32(_ napi.Env, x uint32) (napi.Value, error) {
	return h.create(napi.OpCreateUint32, float64(x))
}

func (h *Host) GetValueInt64(_ napi.Env, v napi.Value) (int64, error) {
	f, err := h.number(napi.OpGetValueInt64, v)
	if err != nil {
		return 0, err
	}
	return toInteger(f), nil
}

func (h *Host) CreateInt64(_ napi.Env, x int64) (napi.Value, error) {
	return h.create(napi.OpCreateInt64, float64(x))
}

func (h *Host) GetValueBool(_ napi.Env, v napi.Value) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.enter(napi.OpGetValueBool); err != nil {
		return false, err
	}
	x, _ := h.get(v)
	b, ok := x.(bool)
	if !ok {
		return false, napi.StatusError(napi.PhaseMarshal, napi.OpGetValueBool, napi.StatusBooleanExpected)
	}
	return b, nil
}

func (h *Host) GetBoolean(_ napi.Env, x bool) (napi.Value, error) {
	return h.create(napi.OpGetBoolean, x)
}

func (h *Host) GetValueString(_ napi.Env, v napi.Value) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.enter(napi.OpGetValueString); err != nil {
		return "", err
	}
	x, _ := h.get(v)
	s, ok := x.(string)
	if !ok {
		return "", napi.StatusError(napi.PhaseMarshal, napi.OpGetValueString, napi.StatusStringExpected)
	}
	return s, nil
}

func (h *Host) CreateString(_ napi.Env, s string) (napi.Value, error) {
	return h.create(napi.OpCreateString, s)
}

func (h *Host) GetUndefined(_ napi.Env) (napi.Value, error) {
	return h.create(napi.OpGetUndefined, undefinedValue{})
}

func (h *Host) CreateFunction(_ napi.Env, name string, cb napi.Callback) (napi.Value, error) {
	if cb == nil {
		return 0, napi.StatusError(napi.PhaseRegister, napi.OpCreateFunction, napi.StatusInvalidArg)
	}
	return h.create(napi.OpCreateFunction, &Function{Name: name, Callback: cb})
}

func (h *Host) SetNamedProperty(_ napi.Env, object napi.Value, name string, value napi.Value) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.enter(napi.OpSetNamedProperty); err != nil {
		return err
	}
	x, _ := h.get(object)
	o, ok := x.(*Object)
	if !ok {
		return napi.StatusError(napi.PhaseRegister, napi.OpSetNamedProperty, napi.StatusObjectExpected)
	}
	if _, exists := o.Props[name]; !exists {
		o.Keys = append(o.Keys, name)
	}
	o.Props[name] = value
	return nil
}

func (h *Host) ThrowError(_ napi.Env, code, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.enter(napi.OpThrowError); err != nil {
		return err
	}
	if h.pending != nil {
		return napi.StatusError(napi.PhaseCall, napi.OpThrowError, napi.StatusPendingException)
	}
	h.pending = &Exception{Code: code, Message: msg}
	return nil
}

func (h *Host) RegisterModule(rec *napi.ModuleRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.enter(napi.OpModuleRegister); err != nil {
		return err
	}
	if rec == nil || rec.Register == nil {
		return napi.StatusError(napi.PhaseBootstrap, napi.OpModuleRegister, napi.StatusInvalidArg)
	}
	h.modules = append(h.modules, *rec)
	return nil
}

// Load simulates the host loading the most recently registered module:
// it creates an exports object and passes it to the module's entry point.
func (h *Host) Load() (napi.Value, error) {
	mods := h.Modules()
	if len(mods) == 0 {
		return 0, fmt.Errorf("napitest: no module registered")
	}
	rec := mods[len(mods)-1]
	exports := h.NewObject()

	h.mu.Lock()
	h.pending = nil
	h.mu.Unlock()

	result := rec.Register(Env, exports)

	h.mu.Lock()
	defer h.mu.Unlock()
	if exc := h.pending; exc != nil {
		h.pending = nil
		return 0, exc
	}
	return result, nil
}
