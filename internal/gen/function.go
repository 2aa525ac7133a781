package gen

import (
	"go/ast"
	"go/token"
	"go/types"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/corrreia/napigo/internal/manifest"
)

// Directive marks a function for export. An optional argument sets the
// name the host sees; it defaults to the Go function name.
const Directive = "//napi:export"

// Function is an annotated function the generator exports.
type Function struct {
	GoName       string
	Name         string // name on the exports object
	Args         []ArgumentDescriptor
	Result       *TypeTag // nil when the function returns no value
	ReturnsError bool
	Pos          token.Position
}

// Trampoline returns the name of the generated trampoline.
func (f *Function) Trampoline() string {
	r, size := utf8.DecodeRuneInString(f.GoName)
	return "napi" + string(unicode.ToUpper(r)) + f.GoName[size:]
}

// Signature returns the manifest form of the function's signature.
func (f *Function) Signature() manifest.Signature {
	sig := manifest.Signature{Error: f.ReturnsError}
	for _, a := range f.Args {
		sig.Params = append(sig.Params, a.Type.GoType)
	}
	if f.Result != nil {
		sig.Result = f.Result.GoType
	}
	return sig
}

var jsIdent = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Identifiers the trampoline body declares or imports. A function with one
// of these names would be shadowed inside its own trampoline.
var reserved = map[string]bool{
	"c": true, "r": true, "err": true, "env": true, "info": true,
	"napi": true, "registry": true,
}

var argName = regexp.MustCompile(`^arg[0-9]+$`)

// parseDirective reports whether doc carries the export directive and
// returns the explicit name, if any.
func parseDirective(doc *ast.CommentGroup) (name string, pos token.Pos, found bool, bad bool) {
	if doc == nil {
		return "", token.NoPos, false, false
	}
	for _, c := range doc.List {
		if !strings.HasPrefix(c.Text, Directive) {
			continue
		}
		rest := c.Text[len(Directive):]
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue // e.g. //napi:exported
		}
		fields := strings.Fields(rest)
		switch len(fields) {
		case 0:
			return "", c.Slash, true, false
		case 1:
			return fields[0], c.Slash, true, false
		default:
			return "", c.Slash, true, true
		}
	}
	return "", token.NoPos, false, false
}

// scan collects the annotated functions of pkg in file order, then
// declaration order. Every problem found is reported, not just the first.
func scan(pkg *Package) ([]*Function, error) {
	var errs ErrorList
	var fns []*Function

	files := append([]*ast.File(nil), pkg.Files...)
	sort.SliceStable(files, func(i, j int) bool {
		return pkg.Fset.Position(files[i].Pos()).Filename < pkg.Fset.Position(files[j].Pos()).Filename
	})

	for _, file := range files {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if _, p, found, _ := parseDirective(d.Doc); found {
					errs = append(errs, errorf(pkg.Fset.Position(p), "%s applies to functions only", Directive))
				}
			case *ast.FuncDecl:
				name, p, found, bad := parseDirective(d.Doc)
				if !found {
					continue
				}
				pos := pkg.Fset.Position(p)
				if bad {
					errs = append(errs, errorf(pos, "%s takes at most one name", Directive))
					continue
				}
				fn, ferrs := describe(pkg, d, name, pos)
				errs = append(errs, ferrs...)
				if fn != nil {
					fns = append(fns, fn)
				}
			}
		}
	}

	errs = append(errs, checkNames(pkg, fns)...)
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return fns, nil
}

func describe(pkg *Package, d *ast.FuncDecl, name string, pos token.Position) (*Function, ErrorList) {
	var errs ErrorList
	goName := d.Name.Name

	if d.Recv != nil {
		return nil, ErrorList{errorf(pos, "cannot export method %s: only package-level functions are supported", goName)}
	}
	if d.Type.TypeParams != nil && d.Type.TypeParams.NumFields() > 0 {
		return nil, ErrorList{errorf(pos, "cannot export generic function %s", goName)}
	}

	obj, ok := pkg.Info.Defs[d.Name].(*types.Func)
	if !ok {
		return nil, ErrorList{errorf(pos, "no type information for %s", goName)}
	}
	sig := obj.Type().(*types.Signature)
	if sig.Variadic() {
		errs = append(errs, errorf(pos, "cannot export variadic function %s", goName))
	}

	if name == "" {
		name = goName
	}
	if !jsIdent.MatchString(name) {
		errs = append(errs, errorf(pos, "export name %q is not a valid JavaScript identifier", name))
	}
	if reserved[goName] || argName.MatchString(goName) {
		errs = append(errs, errorf(pos, "function name %s collides with a trampoline local; rename it", goName))
	}

	fn := &Function{GoName: goName, Name: name, Pos: pos}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		tag, ok := tagOf(p.Type())
		if !ok {
			errs = append(errs, errorf(pkg.Fset.Position(p.Pos()),
				"parameter %d of %s has unsupported type %s", i, goName, types.TypeString(p.Type(), nil)))
			continue
		}
		fn.Args = append(fn.Args, ArgumentDescriptor{Position: i, Type: tag})
	}

	results := sig.Results()
	switch results.Len() {
	case 0:
	case 1:
		t := results.At(0).Type()
		if isError(t) {
			fn.ReturnsError = true
		} else if tag, ok := tagOf(t); ok {
			fn.Result = &tag
		} else {
			errs = append(errs, errorf(pos, "result of %s has unsupported type %s", goName, types.TypeString(t, nil)))
		}
	case 2:
		t, last := results.At(0).Type(), results.At(1).Type()
		tag, ok := tagOf(t)
		if !ok {
			errs = append(errs, errorf(pos, "result of %s has unsupported type %s", goName, types.TypeString(t, nil)))
		}
		if !isError(last) {
			errs = append(errs, errorf(pos, "second result of %s must be error", goName))
		}
		fn.Result, fn.ReturnsError = &tag, true
	default:
		errs = append(errs, errorf(pos, "%s returns %d values; at most a value and an error are supported", goName, results.Len()))
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return fn, nil
}

// checkNames rejects duplicate export names, duplicate trampoline names and
// trampolines that would clash with a declaration already in the package.
func checkNames(pkg *Package, fns []*Function) ErrorList {
	var errs ErrorList
	names := make(map[string]*Function)
	tramps := make(map[string]*Function)

	for _, fn := range fns {
		if prev, ok := names[fn.Name]; ok {
			errs = append(errs, errorf(fn.Pos, "export name %q already used by %s at %s", fn.Name, prev.GoName, prev.Pos))
		} else {
			names[fn.Name] = fn
		}

		t := fn.Trampoline()
		if prev, ok := tramps[t]; ok {
			errs = append(errs, errorf(fn.Pos, "trampoline %s for %s collides with the one for %s", t, fn.GoName, prev.GoName))
		} else {
			tramps[t] = fn
		}
		if pkg.Types != nil && pkg.Types.Scope().Lookup(t) != nil {
			errs = append(errs, errorf(fn.Pos, "trampoline %s for %s collides with an existing declaration", t, fn.GoName))
		}
	}
	return errs
}
