// Package gen implements napigen, the generator that turns annotated Go
// functions into Node-API bindings.
//
// For every package with functions marked //napi:export the generator
// writes zz_napi_bindings.go: one trampoline per function and an init
// function registering them with the binding registry. Exactly one package
// per run, the one owning the module, additionally gets zz_napi_module.go,
// which exports the Node-API entry symbols and registers the module.
package gen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/corrreia/napigo/internal/manifest"
)

// Version is folded into every source hash, so a new generator
// regenerates everything.
const Version = "0.3.0"

// Config configures a Generator.
type Config struct {
	// Dir is the directory patterns are resolved against.
	Dir string
	// Module is the name the module registers under.
	Module string
	// ModulePackage is the import path of the package owning the module
	// bootstrap. When empty, the first package named main owns it.
	ModulePackage string
	NapiVersion   int
	// BindingsFile is the name of the per-package bindings file.
	BindingsFile string
	Jobs         int
	Force        bool
	DryRun       bool
	// Prune forgets manifest entries of packages missing from the run.
	// Set it only when the patterns cover the whole project.
	Prune  bool
	Logger *zap.Logger
}

// Output is what the generator produced for one package.
type Output struct {
	Package   *Package
	Functions []*Function
	// Files maps file names in the package directory to their contents.
	Files map[string][]byte
	// Stale lists previously generated files that are no longer produced.
	Stale []string
	// Bootstrap is set when the package got the module file.
	Bootstrap bool
}

// PackageResult summarizes one package of a run.
type PackageResult struct {
	Path      string
	Dir       string
	Functions []*Function
	Written   []string
	Removed   []string
	Skipped   bool
	Bootstrap bool
}

// Report summarizes a run.
type Report struct {
	Packages      []PackageResult
	Collisions    []manifest.Collision
	ModulePackage string
	// Forgotten lists packages pruned from the manifest.
	Forgotten []string
}

// ErrNoModuleName is returned when a module package is generated without
// a module name.
var ErrNoModuleName = errors.New("gen: module name is required")

// Generator generates bindings for a set of packages. A Generator emits
// the module file at most once over its lifetime.
type Generator struct {
	cfg      Config
	manifest *manifest.Manifest
	log      *zap.Logger

	bootstrapped atomic.Bool
}

// New creates a Generator. m may be nil, in which case nothing is recorded
// and no package is skipped.
func New(cfg Config, m *manifest.Manifest) *Generator {
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	if cfg.NapiVersion < 1 {
		cfg.NapiVersion = 8
	}
	if cfg.BindingsFile == "" {
		cfg.BindingsFile = DefaultBindingsFile
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Generator{cfg: cfg, manifest: m, log: cfg.Logger.Named("gen")}
}

// ownsModule reports whether pkg is the package the module file belongs to.
func (g *Generator) ownsModule(pkg *Package) bool {
	if g.cfg.ModulePackage != "" {
		return pkg.PkgPath == g.cfg.ModulePackage
	}
	return pkg.Name == "main"
}

// claimBootstrap transitions the once-guard. Only the first caller for an
// eligible package gets true.
func (g *Generator) claimBootstrap(pkg *Package) bool {
	if !g.ownsModule(pkg) {
		return false
	}
	return g.bootstrapped.CompareAndSwap(false, true)
}

// GeneratePackage produces the generated files of pkg without touching
// the file system.
func (g *Generator) GeneratePackage(pkg *Package) (*Output, error) {
	fns, err := scan(pkg)
	if err != nil {
		return nil, err
	}

	out := &Output{Package: pkg, Functions: fns, Files: make(map[string][]byte)}

	if len(fns) > 0 {
		src, err := renderBindings(pkg.Name, fns)
		if err != nil {
			return nil, fmt.Errorf("%s: render bindings: %w", pkg.PkgPath, err)
		}
		out.Files[g.cfg.BindingsFile] = src
	} else {
		out.Stale = append(out.Stale, g.cfg.BindingsFile)
	}

	if !g.claimBootstrap(pkg) {
		// A module file left from an earlier owner would export a second
		// entry point.
		out.Stale = append(out.Stale, ModuleFile)
		return out, nil
	}

	if g.cfg.Module == "" {
		g.bootstrapped.Store(false)
		return nil, fmt.Errorf("%s: %w", pkg.PkgPath, ErrNoModuleName)
	}
	src, err := renderModule(pkg.Name, ModuleOptions{Name: g.cfg.Module, NapiVersion: g.cfg.NapiVersion})
	if err != nil {
		return nil, fmt.Errorf("%s: render module: %w", pkg.PkgPath, err)
	}
	out.Files[ModuleFile] = src
	out.Bootstrap = true
	return out, nil
}

// salt covers everything besides the sources that changes the output.
func (g *Generator) salt(pkg *Package) string {
	s := Version + "\x00" + g.cfg.BindingsFile
	if g.ownsModule(pkg) {
		s += fmt.Sprintf("\x00%s\x00%d", g.cfg.Module, g.cfg.NapiVersion)
	}
	return s
}

// Run loads the packages matching patterns and generates them
// concurrently, at most Jobs at a time.
func (g *Generator) Run(ctx context.Context, patterns ...string) (*Report, error) {
	pkgs, err := load(ctx, g.cfg.Dir, generatedMatcher{bindings: g.cfg.BindingsFile}, patterns)
	if err != nil {
		return nil, err
	}
	return g.RunPackages(ctx, pkgs)
}

// RunPackages generates already loaded packages.
func (g *Generator) RunPackages(ctx context.Context, pkgs []*Package) (*Report, error) {
	var (
		mu      sync.Mutex
		results []PackageResult
	)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Jobs)
	for _, pkg := range pkgs {
		eg.Go(func() error {
			res, err := g.runPackage(gctx, pkg)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	report := &Report{Packages: results}
	for _, r := range results {
		if r.Bootstrap {
			report.ModulePackage = r.Path
		}
	}

	if g.manifest != nil && g.cfg.Prune && !g.cfg.DryRun {
		forgotten, err := g.prune(ctx, pkgs)
		if err != nil {
			return nil, err
		}
		report.Forgotten = forgotten
	}

	if g.manifest != nil {
		collisions, err := g.manifest.Collisions(ctx)
		if err != nil {
			return nil, fmt.Errorf("check collisions: %w", err)
		}
		report.Collisions = collisions
		for _, c := range collisions {
			g.log.Warn("export name used by several packages; the last registration wins",
				zap.String("name", c.Name), zap.Strings("packages", c.Packages))
		}
	}
	return report, nil
}

func (g *Generator) runPackage(ctx context.Context, pkg *Package) (PackageResult, error) {
	res := PackageResult{Path: pkg.PkgPath, Dir: pkg.Dir}
	hash := pkg.SourceHash(g.salt(pkg))

	if g.manifest != nil && !g.cfg.Force && !g.cfg.DryRun {
		prev, ok, err := g.manifest.SourceHash(ctx, pkg.PkgPath)
		if err != nil {
			return res, err
		}
		present, err := g.outputsPresent(ctx, pkg)
		if err != nil {
			return res, err
		}
		if ok && prev == hash && present {
			// The module file is already on disk; consume the guard so no
			// other package gets one.
			if g.claimBootstrap(pkg) {
				res.Bootstrap = true
			}
			res.Skipped = true
			g.log.Debug("package unchanged", zap.String("package", pkg.PkgPath))
			return res, nil
		}
	}

	out, err := g.GeneratePackage(pkg)
	if err != nil {
		return res, err
	}
	res.Functions = out.Functions
	res.Bootstrap = out.Bootstrap

	if !g.cfg.DryRun {
		written, removed, err := writeOutput(out)
		if err != nil {
			return res, err
		}
		res.Written, res.Removed = written, removed
	} else {
		for name := range out.Files {
			res.Written = append(res.Written, name)
		}
		sort.Strings(res.Written)
	}

	if g.manifest != nil && !g.cfg.DryRun {
		exports := make([]manifest.Export, 0, len(out.Functions))
		for _, fn := range out.Functions {
			exports = append(exports, manifest.Export{
				Package:   pkg.PkgPath,
				Name:      fn.Name,
				GoName:    fn.GoName,
				Signature: fn.Signature(),
				Position:  fmt.Sprintf("%s:%d", filepath.Base(fn.Pos.Filename), fn.Pos.Line),
			})
		}
		if err := g.manifest.Record(ctx, pkg.PkgPath, hash, exports); err != nil {
			return res, err
		}
	}

	g.log.Info("generated",
		zap.String("package", pkg.PkgPath),
		zap.Int("functions", len(out.Functions)),
		zap.Bool("bootstrap", out.Bootstrap))
	return res, nil
}

// outputsPresent reports whether the files a previous run wrote for pkg
// still exist.
func (g *Generator) outputsPresent(ctx context.Context, pkg *Package) (bool, error) {
	if pkg.Dir == "" {
		return false, nil
	}
	if g.ownsModule(pkg) && !fileExists(filepath.Join(pkg.Dir, ModuleFile)) {
		return false, nil
	}
	n, err := g.manifest.ExportCount(ctx, pkg.PkgPath)
	if err != nil {
		return false, err
	}
	if n > 0 && !fileExists(filepath.Join(pkg.Dir, g.cfg.BindingsFile)) {
		return false, nil
	}
	return true, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// prune forgets every recorded package that is not in pkgs.
func (g *Generator) prune(ctx context.Context, pkgs []*Package) ([]string, error) {
	seen := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		seen[p.PkgPath] = true
	}

	recorded, err := g.manifest.Packages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recorded packages: %w", err)
	}

	var forgotten []string
	for _, path := range recorded {
		if seen[path] {
			continue
		}
		if err := g.manifest.Forget(ctx, path); err != nil {
			return nil, fmt.Errorf("forget %s: %w", path, err)
		}
		g.log.Info("package no longer matched, forgotten", zap.String("package", path))
		forgotten = append(forgotten, path)
	}
	return forgotten, nil
}
