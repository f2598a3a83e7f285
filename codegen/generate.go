package codegen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Generate renders a ContractIR into its generated-file forms, writing
// them into outDir alongside the hand-written source they augment. File
// names are underscore-prefixed
// (`_dispatch.go`, `_abi.go`, `_iface.go`, `_errors.go`, and, if
// ir.Deploy, `_deploy.go`) so they sort next to, and are visually
// distinguished from, the contract's own source file in a directory
// listing.
func Generate(ir *ContractIR, outDir string) ([]string, error) {
	if ir.StructName == "" {
		return nil, fmt.Errorf("codegen: empty ContractIR (no %s type)", contractMarker)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}

	files := map[string]string{
		"_dispatch.go": genDispatch(ir),
		"_abi.go":      genABI(ir),
		"_iface.go":    genIface(ir),
		"_errors.go":   genErrors(ir),
	}
	if ir.Deploy {
		deploy, err := genDeploy(ir)
		if err != nil {
			return nil, err
		}
		files["_deploy.go"] = deploy
	}

	var written []string
	// Fixed iteration order keeps output deterministic across runs.
	for _, name := range []string{"_dispatch.go", "_abi.go", "_iface.go", "_errors.go", "_deploy.go"} {
		content, ok := files[name]
		if !ok {
			continue
		}
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

const generatedHeader = "// Code generated by r55 codegen. DO NOT EDIT.\n\n"

func genDispatch(ir *ContractIR) string {
	var b strings.Builder
	b.WriteString(generatedHeader)
	fmt.Fprintf(&b, "package %s\n\n", ir.PackageName)
	b.WriteString("import \"github.com/r55-lang/r55/guest\"\n\n")
	fmt.Fprintf(&b, "// Dispatch returns %s's selector-to-handler table.\n", ir.StructName)
	b.WriteString("// Scanning is linear and selector-unique; order is stable across\n")
	b.WriteString("// generations but does not affect semantics.\n")
	b.WriteString("func Dispatch() guest.Dispatch {\n")
	b.WriteString("\treturn guest.Dispatch{\n")
	for _, m := range ir.Methods {
		fmt.Fprintf(&b, "\t\t{Selector: sel%s, Handler: dispatch%s},\n", m.Name, m.Name)
	}
	b.WriteString("\t}\n}\n")
	return b.String()
}

func genABI(ir *ContractIR) string {
	var b strings.Builder
	b.WriteString(generatedHeader)
	fmt.Fprintf(&b, "package %s\n\n", ir.PackageName)
	b.WriteString("import (\n\t\"github.com/r55-lang/r55/abi\"\n\t\"github.com/r55-lang/r55/guest\"\n)\n\n")

	for _, m := range ir.Methods {
		fmt.Fprintf(&b, "var sel%s = abi.ComputeSelector(%q)\n", m.Name, m.CanonicalSignature())
		fmt.Fprintf(&b, "var args%s = abi.NewArguments(%s)\n", m.Name, quotedList(solTypesOf(m.Params)))
		fmt.Fprintf(&b, "var rets%s = abi.NewArguments(%s)\n\n", m.Name, quotedList(solTypesOf(m.Results)))

		fmt.Fprintf(&b, "func dispatch%s(calldata []byte) {\n", m.Name)
		if len(m.Params) == 0 {
			b.WriteString("\t_, err := abi.Unpack(args" + m.Name + ", calldata)\n")
		} else {
			b.WriteString("\tvals, err := abi.Unpack(args" + m.Name + ", calldata)\n")
		}
		b.WriteString("\tif err != nil {\n\t\tguest.Revert(nil)\n\t\treturn\n\t}\n")

		var callArgs []string
		for i, p := range m.Params {
			toFunc, _, _ := converters(p.SolType)
			fmt.Fprintf(&b, "\t%s := %s(vals[%d])\n", p.Name, toFunc, i)
			callArgs = append(callArgs, p.Name)
		}

		fmt.Fprintf(&b, "\tvar recv %s\n", ir.StructName)
		callExpr := fmt.Sprintf("recv.%s(%s)", m.Name, strings.Join(callArgs, ", "))

		var resultVars []string
		for i := range m.Results {
			resultVars = append(resultVars, fmt.Sprintf("res%d", i))
		}
		switch {
		case len(resultVars) > 0 && m.ReturnsErr:
			fmt.Fprintf(&b, "\t%s, err := %s\n", strings.Join(resultVars, ", "), callExpr)
		case len(resultVars) > 0 && !m.ReturnsErr:
			fmt.Fprintf(&b, "\t%s := %s\n", strings.Join(resultVars, ", "), callExpr)
		case len(resultVars) == 0 && m.ReturnsErr:
			fmt.Fprintf(&b, "\terr = %s\n", callExpr)
		default:
			fmt.Fprintf(&b, "\t%s\n", callExpr)
		}
		if m.ReturnsErr {
			b.WriteString("\tif err != nil {\n")
			b.WriteString("\t\tif ce, ok := err.(guest.ContractError); ok {\n")
			b.WriteString("\t\t\tguest.RevertError(ce)\n\t\t\treturn\n\t\t}\n")
			b.WriteString("\t\tguest.Revert(nil)\n\t\treturn\n\t}\n")
		}

		if len(m.Results) == 0 {
			b.WriteString("\tguest.Return(nil)\n}\n\n")
			continue
		}
		var packArgs []string
		for i, r := range m.Results {
			_, fromFunc, _ := converters(r.SolType)
			packArgs = append(packArgs, fmt.Sprintf("%s(%s)", fromFunc, resultVars[i]))
		}
		fmt.Fprintf(&b, "\tpacked, err := rets%s.Pack(%s)\n", m.Name, strings.Join(packArgs, ", "))
		b.WriteString("\tif err != nil {\n\t\tguest.Revert(nil)\n\t\treturn\n\t}\n")
		b.WriteString("\tguest.Return(packed)\n}\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func genIface(ir *ContractIR) string {
	var b strings.Builder
	b.WriteString(generatedHeader)
	fmt.Fprintf(&b, "package %s\n\n", ir.PackageName)
	imports := []string{
		`"github.com/r55-lang/r55/core/types"`,
		`"github.com/r55-lang/r55/guest"`,
	}
	if len(ir.Methods) > 0 {
		imports = append([]string{`"github.com/r55-lang/r55/abi"`}, imports...)
	}
	if usesUint256(ir) {
		imports = append(imports, `"github.com/holiman/uint256"`)
	}
	b.WriteString("import (\n")
	for _, imp := range imports {
		fmt.Fprintf(&b, "\t%s\n", imp)
	}
	b.WriteString(")\n\n")

	iname := ir.InterfaceName()
	fmt.Fprintf(&b, "// %s is the generated peer-calling handle for %s.\n", iname, ir.StructName)
	fmt.Fprintf(&b, "// Ctx is the call-context capability tag: %s[guest.ReadOnly]\n", iname)
	b.WriteString("// can only reach this file's read-only methods; mutating methods are\n")
	fmt.Fprintf(&b, "// exposed as package-level functions taking %s[guest.Mutable]\n", iname)
	b.WriteString("// specifically, so calling one through a read-only handle is a compile\n")
	b.WriteString("// error.\n")
	fmt.Fprintf(&b, "type %s[Ctx guest.CallCtx] struct {\n\taddr types.Address\n\tctx  Ctx\n}\n\n", iname)
	fmt.Fprintf(&b, "// New%s constructs a peer handle for addr under the given call context.\n", iname)
	fmt.Fprintf(&b, "func New%s[Ctx guest.CallCtx](addr types.Address, ctx Ctx) %s[Ctx] {\n", iname, iname)
	fmt.Fprintf(&b, "\treturn %s[Ctx]{addr: addr, ctx: ctx}\n}\n\n", iname)

	fmt.Fprintf(&b, "func (i %s[Ctx]) callRead(calldata []byte) ([]byte, bool) {\n", iname)
	b.WriteString("\treturn guest.StaticCall(i.addr, calldata)\n}\n\n")
	fmt.Fprintf(&b, "func (i %s[Ctx]) callWrite(calldata []byte) ([]byte, bool) {\n", iname)
	b.WriteString("\tif i.ctx.Static() {\n\t\treturn guest.StaticCall(i.addr, calldata)\n\t}\n")
	b.WriteString("\treturn guest.Call(i.addr, 0, calldata)\n}\n\n")

	decodeErrFn := "decodeError" + ir.StructName

	for _, m := range ir.Methods {
		paramDecls := make([]string, len(m.Params))
		callArgPack := make([]string, len(m.Params))
		for i, p := range m.Params {
			paramDecls[i] = fmt.Sprintf("%s %s", p.Name, p.GoType)
			_, fromFunc, _ := converters(p.SolType)
			callArgPack[i] = fmt.Sprintf("%s(%s)", fromFunc, p.Name)
		}
		resultTypes := make([]string, len(m.Results))
		zeroVals := make([]string, len(m.Results))
		for i, r := range m.Results {
			resultTypes[i] = r.GoType
			zeroVals[i] = zeroLiteral(r.GoType)
		}
		sig := append(append([]string{}, resultTypes...), "error")

		var recv, fname string
		if m.Mutable {
			recv = fmt.Sprintf("i %s[guest.Mutable]", iname)
			fname = ir.StructName + m.Name
			fmt.Fprintf(&b, "// %s is a mutating peer method; only reachable through\n", fname)
			fmt.Fprintf(&b, "// %s[guest.Mutable].\n", iname)
			fmt.Fprintf(&b, "func %s(%s, %s) (%s) {\n", fname, recv, strings.Join(paramDecls, ", "), strings.Join(sig, ", "))
		} else {
			recv = fmt.Sprintf("i %s[Ctx]", iname)
			fname = m.Name
			fmt.Fprintf(&b, "// %s is a read-only peer method, reachable under any Ctx.\n", fname)
			fmt.Fprintf(&b, "func (%s) %s(%s) (%s) {\n", recv, fname, strings.Join(paramDecls, ", "), strings.Join(sig, ", "))
		}

		errZero := strings.Join(zeroVals, ", ")
		if errZero != "" {
			errZero += ", "
		}

		if len(callArgPack) == 0 {
			fmt.Fprintf(&b, "\tcalldata, err := abi.Pack(sel%s, args%s)\n", m.Name, m.Name)
		} else {
			fmt.Fprintf(&b, "\tcalldata, err := abi.Pack(sel%s, args%s, %s)\n", m.Name, m.Name, strings.Join(callArgPack, ", "))
		}
		fmt.Fprintf(&b, "\tif err != nil {\n\t\treturn %serr\n\t}\n", errZero)

		if m.Mutable {
			b.WriteString("\tret, reverted := i.callWrite(calldata)\n")
		} else {
			b.WriteString("\tret, reverted := i.callRead(calldata)\n")
		}
		fmt.Fprintf(&b, "\tif reverted {\n\t\treturn %s%s(ret)\n\t}\n", errZero, decodeErrFn)

		if len(m.Results) == 0 {
			b.WriteString("\treturn nil\n}\n\n")
			continue
		}
		fmt.Fprintf(&b, "\tvals, err := rets%s.Unpack(ret)\n", m.Name)
		fmt.Fprintf(&b, "\tif err != nil {\n\t\treturn %serr\n\t}\n", errZero)
		var outVals []string
		for i, r := range m.Results {
			toFunc, _, _ := converters(r.SolType)
			outVals = append(outVals, fmt.Sprintf("%s(vals[%d])", toFunc, i))
		}
		fmt.Fprintf(&b, "\treturn %s, nil\n}\n\n", strings.Join(outVals, ", "))
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func genErrors(ir *ContractIR) string {
	var b strings.Builder
	b.WriteString(generatedHeader)
	fmt.Fprintf(&b, "package %s\n\n", ir.PackageName)
	imports := []string{
		`"fmt"`,
		`"github.com/r55-lang/r55/abi"`,
		`"github.com/r55-lang/r55/guest"`,
	}
	b.WriteString("import (\n")
	for _, imp := range imports {
		fmt.Fprintf(&b, "\t%s\n", imp)
	}
	b.WriteString(")\n\n")

	for _, e := range ir.Errors {
		fmt.Fprintf(&b, "var sel%s = abi.ComputeSelector(%q)\n", e.Name, e.CanonicalSignature())
		fmt.Fprintf(&b, "var args%s = abi.NewArguments(%s)\n\n", e.Name, quotedList(solTypesOf(e.Fields)))

		fmt.Fprintf(&b, "func (e *%s) Error() string { return %q }\n", e.Name, e.Name)
		fmt.Fprintf(&b, "func (e *%s) Selector() abi.Selector { return sel%s }\n", e.Name, e.Name)
		fmt.Fprintf(&b, "func (e *%s) Encode() []byte {\n", e.Name)
		var packArgs []string
		for _, f := range e.Fields {
			_, fromFunc, _ := converters(f.SolType)
			packArgs = append(packArgs, fmt.Sprintf("%s(e.%s)", fromFunc, exportedFieldName(f.Name)))
		}
		fmt.Fprintf(&b, "\tb, _ := args%s.Pack(%s)\n", e.Name, strings.Join(packArgs, ", "))
		b.WriteString("\treturn b\n}\n\n")
	}

	decodeErrFn := "decodeError" + ir.StructName
	fmt.Fprintf(&b, "// %s re-materializes a peer revert into a typed error.\n", decodeErrFn)
	fmt.Fprintf(&b, "func %s(revertData []byte) error {\n", decodeErrFn)
	if len(ir.Errors) == 0 {
		fmt.Fprintf(&b, "\treturn fmt.Errorf(%q, revertData)\n}\n", ir.PackageName+": reverted: %x")
		return strings.TrimRight(b.String(), "\n") + "\n"
	}
	b.WriteString("\tswitch {\n")
	for _, e := range ir.Errors {
		fmt.Fprintf(&b, "\tcase guest.MatchError(revertData, sel%s):\n", e.Name)
		if len(e.Fields) == 0 {
			fmt.Fprintf(&b, "\t\treturn &%s{}\n", e.Name)
			continue
		}
		b.WriteString("\t\tpayload := guest.ErrorPayload(revertData)\n")
		fmt.Fprintf(&b, "\t\tvals, err := args%s.Unpack(payload)\n", e.Name)
		fmt.Fprintf(&b, "\t\tif err != nil {\n\t\t\treturn fmt.Errorf(%q, err)\n\t\t}\n", ir.PackageName+": malformed "+e.Name+" revert: %w")
		var fieldAssigns []string
		for i, f := range e.Fields {
			toFunc, _, _ := converters(f.SolType)
			fieldAssigns = append(fieldAssigns, fmt.Sprintf("%s: %s(vals[%d])", exportedFieldName(f.Name), toFunc, i))
		}
		fmt.Fprintf(&b, "\t\treturn &%s{%s}\n", e.Name, strings.Join(fieldAssigns, ", "))
	}
	fmt.Fprintf(&b, "\tdefault:\n\t\treturn fmt.Errorf(%q, revertData)\n\t}\n}\n", ir.PackageName+": reverted: %x")
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func genDeploy(ir *ContractIR) (string, error) {
	var b strings.Builder
	b.WriteString(generatedHeader)
	b.WriteString("//go:build r55_deploy\n\n")
	fmt.Fprintf(&b, "package %s\n\n", ir.PackageName)
	b.WriteString("import (\n\t_ \"embed\"\n\n\t\"github.com/r55-lang/r55/abi\"\n\t\"github.com/r55-lang/r55/guest\"\n)\n\n")
	b.WriteString("// runtimeBytes is this contract's already-compiled runtime binary,\n")
	b.WriteString("// staged into this temp build unit by the build orchestrator ahead of\n")
	b.WriteString("// the deploy-feature compile.\n")
	b.WriteString("//go:embed runtime.bin\nvar runtimeBytes []byte\n\n")

	fmt.Fprintf(&b, "var ctorArgs%s = abi.NewArguments(%s)\n\n", ir.StructName, quotedList(solTypesOf(ir.ConstructorParams)))

	b.WriteString("func init() {\n\tdeployEntry" + ir.StructName + "()\n}\n\n")
	fmt.Fprintf(&b, "// deployEntry%s is the deploy-stub guest entry point:\n", ir.StructName)
	b.WriteString("// it reads constructor args appended after the runtime code in\n")
	b.WriteString("// initcode, runs the constructor, and returns the R55-tagged runtime\n")
	b.WriteString("// bytes. Only the deploy-stub build (this file, r55_deploy-tagged)\n")
	b.WriteString("// emits initcode; the runtime build's ordinary Dispatch entry is used\n")
	b.WriteString("// for every call thereafter.\n")
	fmt.Fprintf(&b, "func deployEntry%s() {\n", ir.StructName)
	b.WriteString("\tcalldata := guest.CallData()\n")
	if len(ir.ConstructorParams) == 0 {
		fmt.Fprintf(&b, "\t_, err := ctorArgs%s.Unpack(calldata)\n", ir.StructName)
	} else {
		fmt.Fprintf(&b, "\tvals, err := ctorArgs%s.Unpack(calldata)\n", ir.StructName)
	}
	b.WriteString("\tif err != nil {\n\t\tguest.Revert(nil)\n\t\treturn\n\t}\n")
	var callArgs []string
	for i, p := range ir.ConstructorParams {
		toFunc, _, err := converters(p.SolType)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\t%s := %s(vals[%d])\n", p.Name, toFunc, i)
		callArgs = append(callArgs, p.Name)
	}
	fmt.Fprintf(&b, "\t_ = New%s(%s)\n", ir.StructName, strings.Join(callArgs, ", "))
	b.WriteString("\tguest.Return(guest.RuntimeBlob(runtimeBytes))\n}\n")
	return b.String(), nil
}

func solTypesOf(params []Param) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.SolType
	}
	return out
}

func quotedList(ss []string) string {
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

func usesUint256(ir *ContractIR) bool {
	for _, m := range ir.Methods {
		for _, p := range m.Params {
			if p.SolType == "uint256" {
				return true
			}
		}
		for _, r := range m.Results {
			if r.SolType == "uint256" {
				return true
			}
		}
	}
	return false
}

func zeroLiteral(goType string) string {
	switch goType {
	case "*uint256.Int":
		return "nil"
	case "bool":
		return "false"
	case "[]byte":
		return "nil"
	case "string":
		return `""`
	case "types.Address":
		return "types.Address{}"
	case "types.Hash":
		return "types.Hash{}"
	default:
		return "0"
	}
}

// exportedFieldName capitalizes a parameter name for use as a Go struct
// field (error fields are declared exported, matching the user's own
// `//r55:error` struct field casing convention).
func exportedFieldName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
