package gen

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corrreia/napigo/internal/manifest"
)

// loadSource type-checks import-free sources as package path.
func loadSource(t *testing.T, path string, files map[string]string) *Package {
	t.Helper()

	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	fset := token.NewFileSet()
	pkg := &Package{PkgPath: path, Fset: fset, Sources: make(map[string][]byte)}
	for _, n := range names {
		f, err := parser.ParseFile(fset, n, files[n], parser.ParseComments)
		require.NoError(t, err)
		pkg.Files = append(pkg.Files, f)
		pkg.Sources[n] = []byte(files[n])
	}

	pkg.Info = &types.Info{
		Defs:  make(map[*ast.Ident]types.Object),
		Uses:  make(map[*ast.Ident]types.Object),
		Types: make(map[ast.Expr]types.TypeAndValue),
	}
	var conf types.Config
	tpkg, err := conf.Check(path, fset, pkg.Files, pkg.Info)
	require.NoError(t, err)
	pkg.Types = tpkg
	pkg.Name = tpkg.Name()
	return pkg
}

const exampleSrc = `package example

type divisionError struct{}

func (divisionError) Error() string { return "division by zero" }

//napi:export
func add(a, b float64) float64 { return a + b }

// answer is the answer.
//
//napi:export
func answer() float64 { return 42 }

//napi:export scale
func scaleBy(x float64, factor int32) float64 { return x * float64(factor) }

//napi:export
func isEven(n int64) bool { return n%2 == 0 }

//napi:export
func divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, divisionError{}
	}
	return a / b, nil
}

//napi:export
func check(ok bool) error {
	if !ok {
		return divisionError{}
	}
	return nil
}

//napi:export
func reset() {}

func notExported() {}
`

func TestScanDescriptors(t *testing.T) {
	pkg := loadSource(t, "example.com/example", map[string]string{"example.go": exampleSrc})

	fns, err := scan(pkg)
	require.NoError(t, err)

	f64 := TypeTag{GoType: "float64", Marshaler: "Float64"}
	want := []*Function{
		{GoName: "add", Name: "add", Args: []ArgumentDescriptor{{0, f64}, {1, f64}}, Result: &f64},
		{GoName: "answer", Name: "answer", Result: &f64},
		{GoName: "scaleBy", Name: "scale", Args: []ArgumentDescriptor{
			{0, f64}, {1, TypeTag{GoType: "int32", Marshaler: "Int32"}},
		}, Result: &f64},
		{GoName: "isEven", Name: "isEven", Args: []ArgumentDescriptor{
			{0, TypeTag{GoType: "int64", Marshaler: "Int64"}},
		}, Result: &TypeTag{GoType: "bool", Marshaler: "Bool"}},
		{GoName: "divide", Name: "divide", Args: []ArgumentDescriptor{{0, f64}, {1, f64}}, Result: &f64, ReturnsError: true},
		{GoName: "check", Name: "check", Args: []ArgumentDescriptor{
			{0, TypeTag{GoType: "bool", Marshaler: "Bool"}},
		}, ReturnsError: true},
		{GoName: "reset", Name: "reset"},
	}
	if diff := cmp.Diff(want, fns, cmpopts.IgnoreFields(Function{}, "Pos")); diff != "" {
		t.Errorf("scan() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "example.go", fns[0].Pos.Filename)
	assert.Equal(t, 7, fns[0].Pos.Line)
	assert.Equal(t, "napiScaleBy", fns[2].Trampoline())
	assert.Equal(t, "napiIsEven", fns[3].Trampoline())
}

func TestScanCanonicalizesAliases(t *testing.T) {
	pkg := loadSource(t, "example.com/p", map[string]string{"p.go": `package p

//napi:export
func code(r rune) rune { return r }
`})
	fns, err := scan(pkg)
	require.NoError(t, err)
	require.Len(t, fns, 1)
	assert.Equal(t, "int32", fns[0].Args[0].Type.GoType)
	assert.Equal(t, "Int32", fns[0].Result.Marshaler)
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"method", `type T struct{}

//napi:export
func (T) M() {}`, "cannot export method M"},
		{"generic", `//napi:export
func G[T any](x T) T { return x }`, "cannot export generic function G"},
		{"variadic", `//napi:export
func V(xs ...float64) float64 { return 0 }`, "cannot export variadic function V"},
		{"unsupported param", `//napi:export
func U(b []byte) {}`, "parameter 0 of U has unsupported type []byte"},
		{"unsupported result", `//napi:export
func R() map[string]int { return nil }`, "result of R has unsupported type map[string]int"},
		{"named type", `type Meters float64

//napi:export
func F(m Meters) {}`, "unsupported type example.com/p.Meters"},
		{"byte", `//napi:export
func B(b byte) {}`, "unsupported type byte"},
		{"too many results", `//napi:export
func M() (int, int, error) { return 0, 0, nil }`, "returns 3 values"},
		{"second result", `//napi:export
func M() (int, int) { return 0, 0 }`, "second result of M must be error"},
		{"duplicate name", `//napi:export same
func a() {}

//napi:export same
func b() {}`, `export name "same" already used by a`},
		{"invalid name", `//napi:export 1bad
func f() {}`, `export name "1bad" is not a valid JavaScript identifier`},
		{"reserved", `//napi:export
func c() {}`, "function name c collides with a trampoline local"},
		{"arg local", `//napi:export
func arg0() {}`, "function name arg0 collides"},
		{"trampoline clash", `func napiFoo() {}

//napi:export
func foo() {}`, "trampoline napiFoo for foo collides with an existing declaration"},
		{"trampoline pair", `//napi:export f
func foo() {}

//napi:export g
func Foo() {}`, "trampoline napiFoo for Foo collides with the one for foo"},
		{"not a function", `//napi:export
var x = 1`, "applies to functions only"},
		{"two names", `//napi:export a b
func f() {}`, "takes at most one name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pkg := loadSource(t, "example.com/p", map[string]string{"p.go": "package p\n\n" + tc.src + "\n"})
			_, err := scan(pkg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.Contains(t, err.Error(), "p.go:")
		})
	}
}

func TestScanReportsAllErrors(t *testing.T) {
	pkg := loadSource(t, "example.com/p", map[string]string{"p.go": `package p

//napi:export
func a(b []byte) {}

//napi:export
func b(m map[string]int) {}
`})
	_, err := scan(pkg)
	var list ErrorList
	require.ErrorAs(t, err, &list)
	require.Len(t, list, 2)
	assert.Less(t, list[0].Pos.Line, list[1].Pos.Line)
}

func TestDirectiveLookalikeIgnored(t *testing.T) {
	pkg := loadSource(t, "example.com/p", map[string]string{"p.go": `package p

//napi:exported
func a(b []byte) {}

// napi:export is mentioned here but not used as a directive.
func b() {}
`})
	fns, err := scan(pkg)
	require.NoError(t, err)
	assert.Empty(t, fns)
}

// parseOutput checks src is valid Go and returns its top-level functions.
func parseOutput(t *testing.T, src []byte) map[string]*ast.FuncDecl {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "out.go", src, parser.ParseComments)
	require.NoError(t, err, "generated source:\n%s", src)

	funcs := make(map[string]*ast.FuncDecl)
	for _, d := range f.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok {
			funcs[fd.Name.Name] = fd
		}
	}
	return funcs
}

func TestRenderBindings(t *testing.T) {
	pkg := loadSource(t, "example.com/example", map[string]string{"example.go": exampleSrc})
	g := New(Config{Module: "example"}, nil)

	out, err := g.GeneratePackage(pkg)
	require.NoError(t, err)
	assert.False(t, out.Bootstrap)
	require.Contains(t, out.Files, DefaultBindingsFile)
	require.NotContains(t, out.Files, ModuleFile)

	src := out.Files[DefaultBindingsFile]
	text := string(src)
	assert.True(t, strings.HasPrefix(text, "// "+Header))
	assert.Contains(t, text, "package example")
	assert.Contains(t, text, `"github.com/corrreia/napigo/pkg/napi"`)

	funcs := parseOutput(t, src)
	for _, name := range []string{"napiAdd", "napiAnswer", "napiScaleBy", "napiIsEven", "napiDivide", "napiCheck", "napiReset", "init"} {
		assert.Contains(t, funcs, name)
	}
	assert.NotContains(t, funcs, "napiNotExported")

	assert.Contains(t, text, "arg0 := napi.Arg(c, 0, napi.Float64)")
	assert.Contains(t, text, "arg1 := napi.Arg(c, 1, napi.Int32)")
	assert.Contains(t, text, "return napi.Return(c, napi.Float64, add(arg0, arg1))")
	assert.Contains(t, text, "r, err := divide(arg0, arg1)")
	assert.Contains(t, text, "return napi.Fail(c, err)")
	assert.Contains(t, text, "if err := check(arg0); err != nil")
	assert.Contains(t, text, "return napi.ReturnVoid(c)")

	// Registrations follow declaration order.
	regs := []string{
		`registry.Register("add", napiAdd)`,
		`registry.Register("answer", napiAnswer)`,
		`registry.Register("scale", napiScaleBy)`,
		`registry.Register("isEven", napiIsEven)`,
		`registry.Register("divide", napiDivide)`,
		`registry.Register("check", napiCheck)`,
		`registry.Register("reset", napiReset)`,
	}
	last := -1
	for _, r := range regs {
		i := strings.Index(text, r)
		require.GreaterOrEqual(t, i, 0, "missing %s", r)
		assert.Greater(t, i, last, "%s out of order", r)
		last = i
	}
}

func TestRenderZeroArgsSkipsErrorCheck(t *testing.T) {
	pkg := loadSource(t, "example.com/p", map[string]string{"p.go": `package p

//napi:export
func answer() float64 { return 42 }
`})
	out, err := New(Config{}, nil).GeneratePackage(pkg)
	require.NoError(t, err)

	text := string(out.Files[DefaultBindingsFile])
	assert.Contains(t, text, "napi.Invoke(env, info, 0,")
	assert.NotContains(t, text, "c.Err()")
}

func TestGenerateDeterministic(t *testing.T) {
	pkg := loadSource(t, "example.com/example", map[string]string{"example.go": exampleSrc})

	first, err := New(Config{}, nil).GeneratePackage(pkg)
	require.NoError(t, err)
	second, err := New(Config{}, nil).GeneratePackage(pkg)
	require.NoError(t, err)
	assert.Equal(t, first.Files, second.Files)
}

func TestGenerateNoFunctions(t *testing.T) {
	pkg := loadSource(t, "example.com/p", map[string]string{"p.go": "package p\n\nfunc f() {}\n"})
	out, err := New(Config{}, nil).GeneratePackage(pkg)
	require.NoError(t, err)
	assert.Empty(t, out.Files)
	assert.Equal(t, []string{DefaultBindingsFile, ModuleFile}, out.Stale)
}

const mainSrc = `package main

//napi:export
func one() float64 { return 1 }

//napi:export
func two() float64 { return 2 }

//napi:export
func three() float64 { return 3 }

func main() {}
`

func countExports(files map[string][]byte) int {
	n := 0
	for _, src := range files {
		n += strings.Count(string(src), "//export napi_register_module_v1")
	}
	return n
}

func TestModuleFileEmittedOnce(t *testing.T) {
	pkg := loadSource(t, "example.com/addon", map[string]string{"main.go": mainSrc})
	g := New(Config{Module: "example", ModulePackage: "example.com/addon"}, nil)

	out, err := g.GeneratePackage(pkg)
	require.NoError(t, err)
	require.True(t, out.Bootstrap)
	assert.Equal(t, 1, countExports(out.Files))

	// A second pass over the same package emits no bootstrap.
	again, err := g.GeneratePackage(pkg)
	require.NoError(t, err)
	assert.False(t, again.Bootstrap)
	assert.Zero(t, countExports(again.Files))

	mod := string(out.Files[ModuleFile])
	funcs := parseOutput(t, out.Files[ModuleFile])
	assert.Contains(t, funcs, "napi_register_module_v1")
	assert.Contains(t, funcs, "node_api_module_get_api_version_v1")
	assert.Contains(t, funcs, "init")
	assert.Contains(t, mod, `import "C"`)
	assert.Contains(t, mod, "#include <stdint.h>")
	assert.Contains(t, mod, `_ "github.com/corrreia/napigo/pkg/bridge"`)
	assert.Contains(t, mod, `bootstrap.Install("example")`)
	assert.Contains(t, mod, "bootstrap.RegisterExports(napi.Env(env), napi.Value(exports))")
	assert.Contains(t, mod, "//export node_api_module_get_api_version_v1")
	assert.Contains(t, mod, "return 8")
}

func TestModuleFileOnlyForModulePackage(t *testing.T) {
	lib := loadSource(t, "example.com/lib", map[string]string{"lib.go": exampleSrc})
	g := New(Config{Module: "example", ModulePackage: "example.com/addon"}, nil)

	out, err := g.GeneratePackage(lib)
	require.NoError(t, err)
	assert.False(t, out.Bootstrap)

	// A main package that is not the configured one is not eligible.
	other := loadSource(t, "example.com/other", map[string]string{"main.go": mainSrc})
	out, err = g.GeneratePackage(other)
	require.NoError(t, err)
	assert.False(t, out.Bootstrap)
}

func TestModuleFileWithoutFunctions(t *testing.T) {
	pkg := loadSource(t, "example.com/addon", map[string]string{"main.go": "package main\n\nfunc main() {}\n"})
	g := New(Config{Module: "example", NapiVersion: 9}, nil)

	out, err := g.GeneratePackage(pkg)
	require.NoError(t, err)
	assert.True(t, out.Bootstrap)
	assert.NotContains(t, out.Files, DefaultBindingsFile)
	assert.Contains(t, string(out.Files[ModuleFile]), "return 9")
}

func TestModuleFileRequiresName(t *testing.T) {
	pkg := loadSource(t, "example.com/addon", map[string]string{"main.go": mainSrc})
	g := New(Config{}, nil)

	_, err := g.GeneratePackage(pkg)
	require.ErrorIs(t, err, ErrNoModuleName)

	// The guard is released so a corrected run can still claim it.
	g.cfg.Module = "example"
	out, err := g.GeneratePackage(pkg)
	require.NoError(t, err)
	assert.True(t, out.Bootstrap)
}

func TestModuleFileConcurrentClaim(t *testing.T) {
	const n = 16
	pkgs := make([]*Package, n)
	for i := range pkgs {
		pkgs[i] = loadSource(t, fmt.Sprintf("example.com/addon%d", i), map[string]string{"main.go": mainSrc})
	}
	g := New(Config{Module: "example"}, nil)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		outs []*Output
	)
	for _, p := range pkgs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := g.GeneratePackage(p)
			assert.NoError(t, err)
			mu.Lock()
			outs = append(outs, out)
			mu.Unlock()
		}()
	}
	wg.Wait()

	total, owners := 0, 0
	for _, out := range outs {
		total += countExports(out.Files)
		if out.Bootstrap {
			owners++
		}
	}
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, owners)
}

// onDisk gives pkg a directory holding its sources.
func onDisk(t *testing.T, pkg *Package) *Package {
	t.Helper()
	pkg.Dir = t.TempDir()
	for name, src := range pkg.Sources {
		require.NoError(t, os.WriteFile(filepath.Join(pkg.Dir, name), src, 0644))
	}
	return pkg
}

func TestRunPackages(t *testing.T) {
	ctx := context.Background()
	m, err := manifest.Open(":memory:")
	require.NoError(t, err)
	defer m.Close()

	addon := onDisk(t, loadSource(t, "example.com/addon", map[string]string{"main.go": mainSrc}))
	lib := onDisk(t, loadSource(t, "example.com/lib", map[string]string{"lib.go": `package lib

//napi:export one
func First() float64 { return 1 }
`}))

	cfg := Config{Module: "example", ModulePackage: "example.com/addon", Jobs: 4}
	report, err := New(cfg, m).RunPackages(ctx, []*Package{lib, addon})
	require.NoError(t, err)

	assert.Equal(t, "example.com/addon", report.ModulePackage)
	require.Len(t, report.Packages, 2)
	assert.Equal(t, "example.com/addon", report.Packages[0].Path)
	assert.Equal(t, []string{DefaultBindingsFile, ModuleFile}, report.Packages[0].Written)
	assert.FileExists(t, filepath.Join(addon.Dir, ModuleFile))
	assert.FileExists(t, filepath.Join(lib.Dir, DefaultBindingsFile))
	assert.NoFileExists(t, filepath.Join(lib.Dir, ModuleFile))

	require.Len(t, report.Collisions, 1)
	assert.Equal(t, "one", report.Collisions[0].Name)

	exports, err := m.Exports(ctx)
	require.NoError(t, err)
	assert.Len(t, exports, 4)

	// Unchanged sources are skipped by a fresh generator, which still
	// accounts for the module file already on disk.
	report, err = New(cfg, m).RunPackages(ctx, []*Package{lib, addon})
	require.NoError(t, err)
	for _, p := range report.Packages {
		assert.True(t, p.Skipped, p.Path)
	}
	assert.Equal(t, "example.com/addon", report.ModulePackage)

	// --force regenerates, but identical output is not rewritten.
	cfg.Force = true
	report, err = New(cfg, m).RunPackages(ctx, []*Package{lib, addon})
	require.NoError(t, err)
	for _, p := range report.Packages {
		assert.False(t, p.Skipped)
		assert.Empty(t, p.Written)
	}
}

func TestRunRemovesStaleBindings(t *testing.T) {
	pkg := onDisk(t, loadSource(t, "example.com/p", map[string]string{"p.go": "package p\n\nfunc f() {}\n"}))
	stale := filepath.Join(pkg.Dir, DefaultBindingsFile)
	require.NoError(t, os.WriteFile(stale, []byte("// "+Header+"\n\npackage p\n"), 0644))

	report, err := New(Config{}, nil).RunPackages(context.Background(), []*Package{pkg})
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultBindingsFile}, report.Packages[0].Removed)
	assert.NoFileExists(t, stale)
}

func TestRunKeepsHandWrittenFiles(t *testing.T) {
	pkg := onDisk(t, loadSource(t, "example.com/p", map[string]string{"p.go": "package p\n\nfunc f() {}\n"}))
	own := filepath.Join(pkg.Dir, "bindings.go")
	require.NoError(t, os.WriteFile(own, []byte("package p\n"), 0644))

	report, err := New(Config{BindingsFile: "bindings.go"}, nil).RunPackages(context.Background(), []*Package{pkg})
	require.NoError(t, err)
	assert.Empty(t, report.Packages[0].Removed)
	assert.FileExists(t, own)
}

func TestRunRegeneratesMissingBindings(t *testing.T) {
	ctx := context.Background()
	m, err := manifest.Open(":memory:")
	require.NoError(t, err)
	defer m.Close()

	lib := onDisk(t, loadSource(t, "example.com/lib", map[string]string{"lib.go": `package lib

//napi:export
func one() float64 { return 1 }
`}))
	bindings := filepath.Join(lib.Dir, DefaultBindingsFile)

	_, err = New(Config{}, m).RunPackages(ctx, []*Package{lib})
	require.NoError(t, err)
	require.FileExists(t, bindings)

	require.NoError(t, os.Remove(bindings))
	report, err := New(Config{}, m).RunPackages(ctx, []*Package{lib})
	require.NoError(t, err)
	assert.False(t, report.Packages[0].Skipped)
	assert.Equal(t, []string{DefaultBindingsFile}, report.Packages[0].Written)
	assert.FileExists(t, bindings)
}

func TestRunMovesModuleFile(t *testing.T) {
	ctx := context.Background()
	a := onDisk(t, loadSource(t, "example.com/a", map[string]string{"main.go": mainSrc}))
	b := onDisk(t, loadSource(t, "example.com/b", map[string]string{"main.go": mainSrc}))

	_, err := New(Config{Module: "example", ModulePackage: "example.com/a"}, nil).RunPackages(ctx, []*Package{a, b})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(a.Dir, ModuleFile))

	report, err := New(Config{Module: "example", ModulePackage: "example.com/b"}, nil).RunPackages(ctx, []*Package{a, b})
	require.NoError(t, err)
	assert.Equal(t, "example.com/b", report.ModulePackage)
	assert.Equal(t, []string{ModuleFile}, report.Packages[0].Removed)
	assert.NoFileExists(t, filepath.Join(a.Dir, ModuleFile))
	assert.FileExists(t, filepath.Join(b.Dir, ModuleFile))
}

func TestRunPrunesVanishedPackages(t *testing.T) {
	ctx := context.Background()
	m, err := manifest.Open(":memory:")
	require.NoError(t, err)
	defer m.Close()

	src := `package %s

//napi:export shared
func f() float64 { return 1 }
`
	a := onDisk(t, loadSource(t, "example.com/a", map[string]string{"a.go": fmt.Sprintf(src, "a")}))
	b := onDisk(t, loadSource(t, "example.com/b", map[string]string{"b.go": fmt.Sprintf(src, "b")}))

	report, err := New(Config{}, m).RunPackages(ctx, []*Package{a, b})
	require.NoError(t, err)
	require.Len(t, report.Collisions, 1)

	// A partial run leaves the manifest alone.
	report, err = New(Config{}, m).RunPackages(ctx, []*Package{a})
	require.NoError(t, err)
	assert.Empty(t, report.Forgotten)
	assert.Len(t, report.Collisions, 1)

	report, err = New(Config{Prune: true}, m).RunPackages(ctx, []*Package{a})
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com/b"}, report.Forgotten)
	assert.Empty(t, report.Collisions)

	pkgs, err := m.Packages(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com/a"}, pkgs)
}

func TestGeneratedMatcher(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(src), 0644))
		return path
	}
	generated := write("bindings.go", "// "+Header+"\n\npackage p\n")
	handWritten := write("other.go", "package p\n")

	m := generatedMatcher{bindings: "bindings.go"}
	assert.True(t, m.match(generated))
	assert.True(t, m.match(filepath.Join(dir, ModuleFile)))
	assert.False(t, m.match(handWritten))

	m = generatedMatcher{bindings: "other.go"}
	assert.False(t, m.match(handWritten))
}

// writeModule lays out a throwaway module for tests that load packages
// through the go command.
func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files["go.mod"] = "module example.com/custom\n\ngo 1.24\n"
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0644))
	}
	return dir
}

func TestRunCustomBindingsFile(t *testing.T) {
	dir := writeModule(t, map[string]string{"p.go": `package custom

//napi:export
func add(a, b float64) float64 { return a + b }
`})
	cfg := Config{Dir: dir, BindingsFile: "bindings.go"}

	report, err := New(cfg, nil).Run(context.Background(), ".")
	require.NoError(t, err)
	require.Len(t, report.Packages, 1)
	assert.Equal(t, []string{"bindings.go"}, report.Packages[0].Written)

	// The previous output is hidden from type checking on the next run.
	report, err = New(cfg, nil).Run(context.Background(), ".")
	require.NoError(t, err)
	require.Len(t, report.Packages, 1)
	assert.Empty(t, report.Packages[0].Written)
	require.Len(t, report.Packages[0].Functions, 1)
	assert.Equal(t, "add", report.Packages[0].Functions[0].Name)
}

func TestRunDryRun(t *testing.T) {
	pkg := onDisk(t, loadSource(t, "example.com/addon", map[string]string{"main.go": mainSrc}))

	report, err := New(Config{Module: "example", DryRun: true}, nil).RunPackages(context.Background(), []*Package{pkg})
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultBindingsFile, ModuleFile}, report.Packages[0].Written)
	assert.NoFileExists(t, filepath.Join(pkg.Dir, ModuleFile))
	assert.NoFileExists(t, filepath.Join(pkg.Dir, DefaultBindingsFile))
}

func TestRunFailsOnGenerationError(t *testing.T) {
	pkg := onDisk(t, loadSource(t, "example.com/p", map[string]string{"p.go": `package p

//napi:export
func f(b []byte) {}
`}))
	_, err := New(Config{}, nil).RunPackages(context.Background(), []*Package{pkg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type []byte")
}

func TestSourceHash(t *testing.T) {
	a := loadSource(t, "example.com/p", map[string]string{"p.go": "package p\n"})
	b := loadSource(t, "example.com/p", map[string]string{"p.go": "package p\n\n"})

	assert.Equal(t, a.SourceHash("x"), a.SourceHash("x"))
	assert.NotEqual(t, a.SourceHash("x"), a.SourceHash("y"))
	assert.NotEqual(t, a.SourceHash("x"), b.SourceHash("x"))
}

func TestParsePos(t *testing.T) {
	pos := parsePos("/src/p.go:12:3")
	assert.Equal(t, token.Position{Filename: "/src/p.go", Line: 12, Column: 3}, pos)
	bad := parsePos("-")
	assert.False(t, bad.IsValid())
}
