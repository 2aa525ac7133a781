package gen

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Package is a type-checked package the generator works on.
type Package struct {
	Name    string
	PkgPath string
	Dir     string
	Fset    *token.FileSet
	Files   []*ast.File
	Types   *types.Package
	Info    *types.Info

	// Sources maps file names to contents; it feeds the source hash.
	Sources map[string][]byte
}

// generatedPrefix is shared by every file napigen writes by default.
const generatedPrefix = "zz_napi_"

// hasHeader reports whether the file at path starts with napigen's header.
func hasHeader(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	want := []byte("// " + Header)
	got := make([]byte, len(want))
	if _, err := io.ReadFull(f, got); err != nil {
		return false
	}
	return bytes.Equal(got, want)
}

// generatedMatcher recognizes files napigen wrote. Files with the
// zz_napi_ prefix always are; a custom bindings file name only counts
// when the file carries the generated header.
type generatedMatcher struct {
	bindings string
}

func (g generatedMatcher) match(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, generatedPrefix) {
		return true
	}
	return g.bindings != "" && base == g.bindings && hasHeader(path)
}

// Load loads and type-checks the packages matching patterns, resolved
// relative to dir. Files napigen generated are replaced by empty stubs
// first, so stale bindings never break type checking.
func Load(ctx context.Context, dir string, patterns ...string) ([]*Package, error) {
	return load(ctx, dir, generatedMatcher{bindings: DefaultBindingsFile}, patterns)
}

func load(ctx context.Context, dir string, owned generatedMatcher, patterns []string) ([]*Package, error) {
	probe := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    packages.NeedName | packages.NeedFiles,
	}
	listed, err := packages.Load(probe, patterns...)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	overlay := make(map[string][]byte)
	for _, p := range listed {
		for _, f := range append(p.GoFiles, p.IgnoredFiles...) {
			if owned.match(f) {
				overlay[f] = []byte("package " + p.Name + "\n")
			}
		}
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports | packages.NeedDeps,
		Overlay: overlay,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	var errs ErrorList
	out := make([]*Package, 0, len(pkgs))
	for _, p := range pkgs {
		for _, e := range p.Errors {
			errs = append(errs, &Error{Pos: parsePos(e.Pos), Msg: e.Msg})
		}
		if len(p.Errors) > 0 {
			continue
		}

		pkg := &Package{
			Name:    p.Name,
			PkgPath: p.PkgPath,
			Fset:    p.Fset,
			Types:   p.Types,
			Info:    p.TypesInfo,
			Sources: make(map[string][]byte),
		}
		for i, f := range p.Syntax {
			// cgo packages compile rewritten files; the position still
			// carries the source file name.
			if owned.match(p.Fset.Position(f.Pos()).Filename) ||
				(i < len(p.CompiledGoFiles) && owned.match(p.CompiledGoFiles[i])) {
				continue
			}
			pkg.Files = append(pkg.Files, f)
		}
		for _, f := range p.GoFiles {
			if pkg.Dir == "" {
				pkg.Dir = filepath.Dir(f)
			}
			if owned.match(f) {
				continue
			}
			src, err := os.ReadFile(f)
			if err != nil {
				return nil, err
			}
			pkg.Sources[filepath.Base(f)] = src
		}
		out = append(out, pkg)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].PkgPath < out[j].PkgPath })
	return out, nil
}

// parsePos parses the "file:line:col" form go/packages reports.
func parsePos(s string) token.Position {
	var pos token.Position
	if s == "" || s == "-" {
		return pos
	}
	parts := strings.Split(s, ":")
	pos.Filename = parts[0]
	if len(parts) > 1 {
		fmt.Sscanf(parts[1], "%d", &pos.Line)
	}
	if len(parts) > 2 {
		fmt.Sscanf(parts[2], "%d", &pos.Column)
	}
	return pos
}

// SourceHash hashes the package's hand-written sources together with
// salt, which carries everything else that affects the output.
func (p *Package) SourceHash(salt string) string {
	names := make([]string, 0, len(p.Sources))
	for n := range p.Sources {
		names = append(names, n)
	}
	sort.Strings(names)

	h := sha256.New()
	h.Write([]byte(salt))
	for _, n := range names {
		fmt.Fprintf(h, "\x00%s\x00%d\x00", n, len(p.Sources[n]))
		h.Write(p.Sources[n])
	}
	return hex.EncodeToString(h.Sum(nil))
}
