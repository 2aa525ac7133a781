// Package example is a small addon library exposing plain Go functions to
// Node.js. Each function marked //napi:export gets a trampoline in
// zz_napi_bindings.go and is registered when the package is initialized.
package example

import (
	"errors"
	"sync/atomic"
)

//go:generate go run github.com/corrreia/napigo/cmd/napigen generate .

// ErrDivisionByZero is returned by divide for a zero divisor.
var ErrDivisionByZero = errors.New("division by zero")

var ticks atomic.Int64

//napi:export
func add(a, b float64) float64 {
	return a + b
}

//napi:export
func answer() float64 {
	return 42
}

// scale multiplies x by an integer factor. A fractional factor passed from
// JavaScript is truncated toward zero; one outside the int32 range throws.
//
//napi:export
func scale(x float64, factor int32) float64 {
	return x * float64(factor)
}

//napi:export
func greet(name string) string {
	if name == "" {
		name = "stranger"
	}
	return "Hello, " + name + "!"
}

//napi:export
func isEven(n int64) bool {
	return n%2 == 0
}

//napi:export
func divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}

// tick counts calls since the last reset.
//
//napi:export
func tick() int64 {
	return ticks.Add(1)
}

//napi:export
func reset() {
	ticks.Store(0)
}
