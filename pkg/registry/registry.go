// Package registry collects the functions an addon exposes to the host.
//
// Generated binding files call Register from their init functions, one
// call per exported function. Registration happens before the host loads
// the module; DrainInto later installs every binding on the exports
// object the host provides.
package registry

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/corrreia/napigo/pkg/napi"
)

// FunctionBinding pairs a host-visible name with the trampoline that
// adapts the host calling convention to a Go function.
type FunctionBinding struct {
	Name       string
	Trampoline napi.Callback
}

// Registry is an ordered set of bindings keyed by name.
//
// Registering a name twice keeps the first position and replaces the
// trampoline: the last registration wins.
type Registry struct {
	mu       sync.RWMutex
	bindings []FunctionBinding
	index    map[string]int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register adds or replaces the binding for name. It panics on an empty
// name or nil trampoline, since both indicate a broken generated file.
func (r *Registry) Register(name string, trampoline napi.Callback) {
	if name == "" {
		panic("registry: empty binding name")
	}
	if trampoline == nil {
		panic("registry: nil trampoline for " + name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[name]; ok {
		log().Warn("binding registered twice, keeping the last one", zap.String("name", name))
		r.bindings[i].Trampoline = trampoline
		return
	}
	r.index[name] = len(r.bindings)
	r.bindings = append(r.bindings, FunctionBinding{Name: name, Trampoline: trampoline})
}

// Lookup returns the binding registered under name.
func (r *Registry) Lookup(name string) (FunctionBinding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	if !ok {
		return FunctionBinding{}, false
	}
	return r.bindings[i], true
}

// Len returns the number of distinct names registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Bindings returns a snapshot of the bindings in registration order.
func (r *Registry) Bindings() []FunctionBinding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]FunctionBinding(nil), r.bindings...)
}

// DrainInto creates a host function for every binding and sets it on
// exports under the binding's name. It stops at the first failure.
//
// The registry is left intact, so DrainInto may run once per environment
// when the host loads the module into several contexts.
func (r *Registry) DrainInto(h napi.Host, env napi.Env, exports napi.Value) error {
	if h == nil {
		return napi.ErrNoHost
	}

	bindings := r.Bindings()
	for _, b := range bindings {
		fn, err := h.CreateFunction(env, b.Name, b.Trampoline)
		if err != nil {
			return fmt.Errorf("export %q: %w", b.Name, err)
		}
		if err := h.SetNamedProperty(env, exports, b.Name, fn); err != nil {
			return fmt.Errorf("export %q: %w", b.Name, err)
		}
	}

	log().Debug("exports installed", zap.Int("count", len(bindings)))
	return nil
}

func log() *zap.Logger {
	return napi.Logger().Named("registry")
}

// Default is the registry generated binding files register into.
var Default = New()

// Register adds a binding to the Default registry.
func Register(name string, trampoline napi.Callback) {
	Default.Register(name, trampoline)
}

// Bindings returns the bindings of the Default registry.
func Bindings() []FunctionBinding {
	return Default.Bindings()
}

// DrainInto installs the Default registry's bindings on exports.
func DrainInto(h napi.Host, env napi.Env, exports napi.Value) error {
	return Default.DrainInto(h, env, exports)
}
