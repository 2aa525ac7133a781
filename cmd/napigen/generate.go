package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corrreia/napigo/internal/config"
	"github.com/corrreia/napigo/internal/gen"
	"github.com/corrreia/napigo/internal/manifest"
)

var (
	generateModule    string
	generateModulePkg string
	generateJobs      int
	generateForce     bool
	generateDryRun    bool
)

func init() {
	generateCmd.Flags().StringVar(&generateModule, "module", "", "module name registered with the host")
	generateCmd.Flags().StringVar(&generateModulePkg, "module-pkg", "", "import path of the package owning the module bootstrap")
	generateCmd.Flags().IntVarP(&generateJobs, "jobs", "j", 0, "packages generated in parallel")
	generateCmd.Flags().BoolVar(&generateForce, "force", false, "regenerate packages whose sources did not change")
	generateCmd.Flags().BoolVarP(&generateDryRun, "dry-run", "n", false, "report what would be written without writing")
}

var generateCmd = &cobra.Command{
	Use:   "generate [packages]",
	Short: "Generate bindings for the given packages",
	Long: `Generate loads the given package patterns, or those listed in napigen.toml,
and writes zz_napi_bindings.go into every package with //napi:export functions.
The package owning the module also gets zz_napi_module.go.`,
	RunE: runGenerate,
}

// loadConfig reads --config, or discovers napigen.toml from the working
// directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return config.Load(path)
	}
	return config.Discover(".")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("module") {
		cfg.Module.Name = generateModule
	}
	if flags.Changed("module-pkg") {
		cfg.Module.Package = generateModulePkg
	}
	if flags.Changed("jobs") {
		cfg.Generate.Jobs = generateJobs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Patterns on the command line are relative to the working directory,
	// patterns from the file to the file's directory. Only the configured
	// patterns cover the whole project, so only they prune the manifest.
	dir, patterns := cfg.Root, cfg.Generate.Patterns
	if len(args) > 0 {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir, patterns = wd, args
	}

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var m *manifest.Manifest
	if !generateDryRun {
		m, err = manifest.Open(cfg.ManifestPath())
		if err != nil {
			return err
		}
		defer m.Close()
	}

	g := gen.New(gen.Config{
		Dir:           dir,
		Module:        cfg.Module.Name,
		ModulePackage: cfg.Module.Package,
		NapiVersion:   cfg.Module.NapiVersion,
		BindingsFile:  cfg.Generate.Output,
		Jobs:          cfg.Generate.Jobs,
		Force:         generateForce,
		DryRun:        generateDryRun,
		Prune:         len(args) == 0,
		Logger:        logger,
	}, m)

	logger.Debug("generating",
		zap.String("config", cfg.Path),
		zap.String("dir", dir),
		zap.Strings("patterns", patterns))

	report, err := g.Run(cmd.Context(), patterns...)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), newPalette(colorEnabled(cmd)), report, generateDryRun)
	if len(report.Packages) == 0 {
		return fmt.Errorf("no packages matched %v", patterns)
	}
	return nil
}
