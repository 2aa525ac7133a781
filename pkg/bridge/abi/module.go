// Package abi describes the Node-API structures the bridge fills in, so
// their content can be checked without a Node process.
package abi

import "github.com/corrreia/napigo/pkg/napi"

// Module is the content of Node's napi_module for an addon:
//
//	int nm_version; unsigned int nm_flags; const char* nm_filename;
//	napi_addon_register_func nm_register_func; const char* nm_modname;
//	void* nm_priv; void* reserved[4];
//
// nm_register_func is always the bridge's C entry; nm_priv and reserved
// stay zero.
type Module struct {
	Version  int32
	Flags    uint32
	Filename string // empty means NULL
	Modname  string
}

// ModuleFor validates rec and returns the napi_module content for it.
// nm_filename is unused by Node for addons and is left NULL.
func ModuleFor(rec *napi.ModuleRecord) (Module, error) {
	if rec == nil || rec.Register == nil || rec.Name == "" {
		return Module{}, napi.StatusError(napi.PhaseBootstrap, napi.OpModuleRegister, napi.StatusInvalidArg)
	}
	return Module{
		Version: rec.Version,
		Flags:   rec.Flags,
		Modname: rec.Name,
	}, nil
}
