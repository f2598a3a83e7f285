package codegen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
)

const (
	contractMarker = "r55:contract"
	errorMarker    = "r55:error"
	deployMarker   = "r55:deploy"
)

// ErrNoContractFound is returned by ParseFile when a source file has no
// type annotated with the contractMarker doc comment. Callers scanning a
// directory of mixed contract and shared-helper source files (package
// build's EnumerateTargets) use errors.Is against this sentinel to tell
// "not a contract file, skip it" apart from a genuine parse or validation
// failure in a file that clearly was meant to be a contract.
var ErrNoContractFound = errors.New("codegen: no type annotated with r55:contract")

// ParseFile parses a single Go source file and extracts the ContractIR
// for the type carrying a `//r55:contract` doc-comment marker, using
// Go's own go/ast and go/parser over the doc-comment convention rather
// than attribute macros.
func ParseFile(filename string, src []byte) (*ContractIR, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("codegen: parse %s: %w", filename, err)
	}

	ir := &ContractIR{PackageName: file.Name.Name}

	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			doc := declDoc(gd, ts)
			if hasMarker(doc, contractMarker) {
				if ir.StructName != "" {
					return nil, fmt.Errorf("codegen: %s: multiple %s types in one file (%s and %s); split into separate targets", filename, contractMarker, ir.StructName, ts.Name.Name)
				}
				ir.StructName = ts.Name.Name
				ir.Deploy = hasMarker(doc, deployMarker)
			}
			if hasMarker(doc, errorMarker) {
				ev, err := parseErrorVariant(ts)
				if err != nil {
					return nil, fmt.Errorf("codegen: %s: %w", filename, err)
				}
				ir.Errors = append(ir.Errors, ev)
			}
		}
	}

	if ir.StructName == "" {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoContractFound)
	}

	for _, decl := range file.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if fd.Recv == nil {
			if fd.Name.Name == "New"+ir.StructName {
				params, err := paramsOf(fd.Type.Params)
				if err != nil {
					return nil, fmt.Errorf("codegen: %s: constructor %s: %w", filename, fd.Name.Name, err)
				}
				ir.ConstructorParams = params
			}
			continue
		}
		recvType, mutable := receiverType(fd.Recv)
		if recvType != ir.StructName {
			continue
		}
		if !ast.IsExported(fd.Name.Name) {
			continue
		}
		m, err := parseMethod(fd, mutable)
		if err != nil {
			return nil, fmt.Errorf("codegen: %s: method %s: %w", filename, fd.Name.Name, err)
		}
		ir.Methods = append(ir.Methods, m)
	}

	if err := checkUniqueSelectors(ir); err != nil {
		return nil, err
	}
	if err := checkConvertible(ir); err != nil {
		return nil, err
	}

	return ir, nil
}

// checkConvertible rejects a ContractIR containing a parameter, result, or
// error field whose Solidity type solidityName accepted (e.g. "uint256[]"
// via the slice-of-elementary rule) but for which codegen has no abi.To/From
// bridge in abi/convert.go. Catching this at parse time turns a silently
// broken generated file into a build-time error at the point the contract
// is compiled, rather than at the point the generated code fails to compile.
func checkConvertible(ir *ContractIR) error {
	check := func(ps []Param) error {
		for _, p := range ps {
			if _, _, err := converters(p.SolType); err != nil {
				return err
			}
		}
		return nil
	}
	for _, m := range ir.Methods {
		if err := check(m.Params); err != nil {
			return fmt.Errorf("method %s: %w", m.Name, err)
		}
		if err := check(m.Results); err != nil {
			return fmt.Errorf("method %s: %w", m.Name, err)
		}
	}
	if err := check(ir.ConstructorParams); err != nil {
		return fmt.Errorf("constructor: %w", err)
	}
	for _, e := range ir.Errors {
		if err := check(e.Fields); err != nil {
			return fmt.Errorf("error %s: %w", e.Name, err)
		}
	}
	return nil
}

// declDoc returns the raw doc comment lines attached to a type spec,
// falling back to the enclosing GenDecl's doc for the common
// `//r55:contract\ntype Foo struct{}` single-spec form. The raw lines are
// used because ast.CommentGroup.Text drops directive-style lines such as
// `//r55:contract`.
func declDoc(gd *ast.GenDecl, ts *ast.TypeSpec) string {
	cg := ts.Doc
	if cg == nil {
		cg = gd.Doc
	}
	if cg == nil {
		return ""
	}
	lines := make([]string, len(cg.List))
	for i, c := range cg.List {
		lines[i] = c.Text
	}
	return strings.Join(lines, "\n")
}

func hasMarker(doc, marker string) bool {
	for _, line := range strings.Split(doc, "\n") {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// receiverType returns the bare type name of a method's receiver and
// whether it was declared as a pointer (Mutable) or value (Read) receiver.
func receiverType(recv *ast.FieldList) (name string, mutable bool) {
	expr := recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		return types.ExprString(star.X), true
	}
	return types.ExprString(expr), false
}

func paramsOf(fl *ast.FieldList) ([]Param, error) {
	if fl == nil {
		return nil, nil
	}
	var out []Param
	anon := 0
	for _, f := range fl.List {
		goType := types.ExprString(f.Type)
		solType, err := solidityName(goType)
		if err != nil {
			return nil, err
		}
		names := f.Names
		if len(names) == 0 {
			anon++
			out = append(out, Param{Name: fmt.Sprintf("arg%d", anon), GoType: goType, SolType: solType})
			continue
		}
		for _, n := range names {
			out = append(out, Param{Name: n.Name, GoType: goType, SolType: solType})
		}
	}
	return out, nil
}

func parseMethod(fd *ast.FuncDecl, mutable bool) (Method, error) {
	params, err := paramsOf(fd.Type.Params)
	if err != nil {
		return Method{}, err
	}
	// A trailing `error` result is split off before Solidity type mapping;
	// it has no ABI type of its own.
	resultList := fd.Type.Results
	returnsErr := false
	if resultList != nil && len(resultList.List) > 0 {
		last := resultList.List[len(resultList.List)-1]
		if len(last.Names) <= 1 && types.ExprString(last.Type) == "error" {
			returnsErr = true
			resultList = &ast.FieldList{List: resultList.List[:len(resultList.List)-1]}
		}
	}
	results, err := paramsOf(resultList)
	if err != nil {
		return Method{}, err
	}
	return Method{
		Name:       fd.Name.Name,
		Selector:   lowerCamel(fd.Name.Name),
		Mutable:    mutable,
		Params:     params,
		Results:    results,
		ReturnsErr: returnsErr,
	}, nil
}

func parseErrorVariant(ts *ast.TypeSpec) (ErrorVariant, error) {
	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		return ErrorVariant{}, fmt.Errorf("%s: %s marker on a non-struct type", ts.Name.Name, errorMarker)
	}
	fields, err := paramsOf(st.Fields)
	if err != nil {
		return ErrorVariant{}, fmt.Errorf("error %s: %w", ts.Name.Name, err)
	}
	return ErrorVariant{Name: ts.Name.Name, Fields: fields}, nil
}

// checkUniqueSelectors enforces globally unique selectors across both
// methods and custom errors: they share the same 4-byte selector space
// on the wire, so a method selector table entry and an error variant
// must never collide.
func checkUniqueSelectors(ir *ContractIR) error {
	seen := make(map[string]string)
	for _, m := range ir.Methods {
		sig := m.CanonicalSignature()
		if prev, ok := seen[sig]; ok {
			return fmt.Errorf("codegen: duplicate canonical signature %q (method %s collides with %s)", sig, m.Name, prev)
		}
		seen[sig] = m.Name
	}
	for _, e := range ir.Errors {
		sig := e.CanonicalSignature()
		if prev, ok := seen[sig]; ok {
			return fmt.Errorf("codegen: duplicate canonical signature %q (error %s collides with %s)", sig, e.Name, prev)
		}
		seen[sig] = e.Name
	}
	return nil
}

func lowerCamel(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
