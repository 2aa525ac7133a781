package gen

import (
	"bytes"
	"fmt"

	"github.com/dave/jennifer/jen"
)

// Import paths of the runtime packages generated code depends on.
const (
	napiPkg      = "github.com/corrreia/napigo/pkg/napi"
	registryPkg  = "github.com/corrreia/napigo/pkg/registry"
	bootstrapPkg = "github.com/corrreia/napigo/pkg/bootstrap"
	bridgePkg    = "github.com/corrreia/napigo/pkg/bridge"
)

// Header is the first line of every generated file.
const Header = "Code generated by napigen. DO NOT EDIT."

// File names of the generated outputs.
const (
	DefaultBindingsFile = "zz_napi_bindings.go"
	ModuleFile          = "zz_napi_module.go"
)

func newFile(pkgName string) *jen.File {
	f := jen.NewFile(pkgName)
	f.HeaderComment(Header)
	f.ImportName(napiPkg, "napi")
	f.ImportName(registryPkg, "registry")
	f.ImportName(bootstrapPkg, "bootstrap")
	f.ImportName(bridgePkg, "bridge")
	return f
}

func render(f *jen.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderBindings renders the trampolines of fns and the init function that
// registers them, in the order given.
func renderBindings(pkgName string, fns []*Function) ([]byte, error) {
	f := newFile(pkgName)

	for _, fn := range fns {
		f.Func().Id(fn.Trampoline()).Params(
			jen.Id("env").Qual(napiPkg, "Env"),
			jen.Id("info").Qual(napiPkg, "CallbackInfo"),
		).Qual(napiPkg, "Value").Block(
			jen.Return(jen.Qual(napiPkg, "Invoke").Call(
				jen.Id("env"),
				jen.Id("info"),
				jen.Lit(len(fn.Args)),
				jen.Func().Params(jen.Id("c").Op("*").Qual(napiPkg, "Call")).Qual(napiPkg, "Value").Block(
					trampolineBody(fn)...,
				),
			)),
		)
		f.Line()
	}

	regs := make([]jen.Code, 0, len(fns))
	for _, fn := range fns {
		regs = append(regs, jen.Qual(registryPkg, "Register").Call(jen.Lit(fn.Name), jen.Id(fn.Trampoline())))
	}
	f.Func().Id("init").Params().Block(regs...)

	return render(f)
}

func trampolineBody(fn *Function) []jen.Code {
	var body []jen.Code
	args := make([]jen.Code, 0, len(fn.Args))

	for _, a := range fn.Args {
		name := fmt.Sprintf("arg%d", a.Position)
		body = append(body, jen.Id(name).Op(":=").Qual(napiPkg, "Arg").Call(
			jen.Id("c"), jen.Lit(a.Position), jen.Qual(napiPkg, a.Type.Marshaler),
		))
		args = append(args, jen.Id(name))
	}
	if len(fn.Args) > 0 {
		body = append(body, jen.If(jen.Id("c").Dot("Err").Call().Op("!=").Nil()).Block(
			jen.Return(jen.Id("c").Dot("Throw").Call()),
		))
	}

	call := jen.Id(fn.GoName).Call(args...)
	failed := jen.Return(jen.Qual(napiPkg, "Fail").Call(jen.Id("c"), jen.Err()))
	returnVoid := jen.Return(jen.Qual(napiPkg, "ReturnVoid").Call(jen.Id("c")))

	switch {
	case fn.Result != nil && fn.ReturnsError:
		body = append(body,
			jen.List(jen.Id("r"), jen.Err()).Op(":=").Add(call),
			jen.If(jen.Err().Op("!=").Nil()).Block(failed),
			jen.Return(jen.Qual(napiPkg, "Return").Call(jen.Id("c"), jen.Qual(napiPkg, fn.Result.Marshaler), jen.Id("r"))),
		)
	case fn.Result != nil:
		body = append(body,
			jen.Return(jen.Qual(napiPkg, "Return").Call(jen.Id("c"), jen.Qual(napiPkg, fn.Result.Marshaler), call)),
		)
	case fn.ReturnsError:
		body = append(body,
			jen.If(jen.Err().Op(":=").Add(call), jen.Err().Op("!=").Nil()).Block(failed),
			returnVoid,
		)
	default:
		body = append(body, call, returnVoid)
	}
	return body
}

// ModuleOptions configures the once-only module file.
type ModuleOptions struct {
	Name        string
	NapiVersion int
}

// renderModule renders the file that owns the module bootstrap: the
// Node-API entry symbols and the init function that registers the module.
func renderModule(pkgName string, opts ModuleOptions) ([]byte, error) {
	f := newFile(pkgName)
	f.CgoPreamble("#include <stdint.h>")
	f.Anon(bridgePkg)

	f.Comment("//export napi_register_module_v1")
	f.Func().Id("napi_register_module_v1").Params(
		jen.List(jen.Id("env"), jen.Id("exports")).Qual("C", "uintptr_t"),
	).Qual("C", "uintptr_t").Block(
		jen.Return(jen.Qual("C", "uintptr_t").Call(
			jen.Qual(bootstrapPkg, "RegisterExports").Call(
				jen.Qual(napiPkg, "Env").Call(jen.Id("env")),
				jen.Qual(napiPkg, "Value").Call(jen.Id("exports")),
			),
		)),
	)
	f.Line()

	f.Comment("//export node_api_module_get_api_version_v1")
	f.Func().Id("node_api_module_get_api_version_v1").Params().Qual("C", "int32_t").Block(
		jen.Return(jen.Lit(opts.NapiVersion)),
	)
	f.Line()

	f.Func().Id("init").Params().Block(
		jen.Id("_").Op("=").Qual(bootstrapPkg, "Install").Call(jen.Lit(opts.Name)),
	)

	return render(f)
}
