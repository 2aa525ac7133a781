// Package bridge is the cgo implementation of napi.Host for an addon built
// with -buildmode=c-shared and loaded by Node.js.
//
// Importing the package installs the host. The Node-API symbols are not
// linked into the addon; they resolve against the host process when the
// shared library is loaded.
//
// Every function created through the bridge shares one C trampoline. The
// trampoline hands its data pointer, a cgo.Handle for the Go callback,
// to napigoDispatch, which runs the callback with panic recovery.
package bridge
