package gen

import (
	"go/types"

	"github.com/corrreia/napigo/pkg/napi"
)

// TypeTag identifies how a value crosses the boundary: its Go type and the
// marshaller in package napi that converts it.
type TypeTag struct {
	GoType    string
	Marshaler string
}

// ArgumentDescriptor is one parameter of an exported function.
type ArgumentDescriptor struct {
	Position int
	Type     TypeTag
}

var errorType = types.Universe.Lookup("error").Type()

// tagOf resolves t to a TypeTag. Only the predeclared basic types with a
// marshaller are accepted; named types are not, even when their underlying
// type is supported.
func tagOf(t types.Type) (TypeTag, bool) {
	b, ok := t.(*types.Basic)
	if !ok {
		return TypeTag{}, false
	}
	// Canonicalize aliases such as rune.
	name := types.Typ[b.Kind()].Name()
	m, ok := napi.MarshalerName(name)
	if !ok {
		return TypeTag{}, false
	}
	return TypeTag{GoType: name, Marshaler: m}, true
}

func isError(t types.Type) bool {
	return types.Identical(t, errorType)
}
