// Package main builds the example addon as a Node.js native module:
//
//	go build -buildmode=c-shared -o build/example.node ./cmd/addon
//
// The module file next to this one is produced by napigen; the exported
// functions come from the packages imported below.
package main

import "C"

import (
	"os"

	"go.uber.org/zap"

	"github.com/corrreia/napigo/pkg/napi"

	_ "github.com/corrreia/napigo/plugins/example"
)

// logEnv selects the runtime log level when set, e.g. NAPIGO_LOG=debug.
const logEnv = "NAPIGO_LOG"

func init() {
	level := os.Getenv(logEnv)
	if level == "" {
		return
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	if l, err := cfg.Build(); err == nil {
		napi.SetLogger(l.Named("napigo"))
	}
}

// main is required by c-shared builds and never runs.
func main() {}
