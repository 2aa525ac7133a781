// Command napigen generates Node-API bindings for Go functions marked with
// //napi:export.
//
// Typical use is a go:generate line in each package with exported
// functions, plus one run over the addon's main package:
//
//	//go:generate go run github.com/corrreia/napigo/cmd/napigen generate .
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/corrreia/napigo/internal/gen"
)

var rootCmd = &cobra.Command{
	Use:           "napigen",
	Short:         "Generate Node-API bindings for annotated Go functions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.Version = gen.Version

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to napigen.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every step")

	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd, err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// newLogger builds the CLI logger: a development logger with --verbose,
// otherwise a console logger that only reports warnings and errors.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	if verbose {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
