// Package codegen is the source-to-source generator for annotated Go
// contract implementations: given one, it derives a selector dispatch
// table, per-method ABI encode/decode, a calling-contract interface
// type, and a custom-error taxonomy. Go has no attribute macros, so the
// annotation is a doc-comment marker (`//r55:contract`, `//r55:error`,
// `//r55:deploy`); codegen itself runs as an explicit build-orchestrator
// step (package build) rather than at the target's own compile time,
// since a go:generate-style hook has no good way to guarantee the
// generated dispatch table is cross-compiled for the guest's riscv64
// target before the orchestrator packages it into an initcode blob.
package codegen

// Param is one method parameter or return value, carrying both its Go
// spelling (for the generated signature) and its canonical Solidity type
// name (for selector hashing and ABI packing).
type Param struct {
	Name    string
	GoType  string
	SolType string
}

// Method is one exported contract entry point. Mutable methods (pointer
// receiver) may issue SSTORE and call mutating peer methods;
// value-receiver methods may not.
type Method struct {
	Name       string
	Selector   string // canonical lowerCamel Solidity-style name
	Mutable    bool
	Params     []Param
	Results    []Param
	ReturnsErr bool
}

// CanonicalSignature returns "name(type1,type2,...)", the exact string a
// selector hashes over.
func (m Method) CanonicalSignature() string {
	sig := m.Selector + "("
	for i, p := range m.Params {
		if i > 0 {
			sig += ","
		}
		sig += p.SolType
	}
	return sig + ")"
}

// ErrorVariant is one custom-error case codegen turns into a selector-
// tagged revert payload.
type ErrorVariant struct {
	Name   string
	Fields []Param
}

// CanonicalSignature returns the error's selector-hashing signature,
// using its declared name as-is (error names are not lowerCamel'd —
// Solidity custom errors keep their declared casing).
func (e ErrorVariant) CanonicalSignature() string {
	sig := e.Name + "("
	for i, f := range e.Fields {
		if i > 0 {
			sig += ","
		}
		sig += f.SolType
	}
	return sig + ")"
}

// ContractIR is the fully parsed, type-resolved intermediate
// representation codegen's templates render from.
type ContractIR struct {
	PackageName string
	StructName  string
	Methods     []Method
	Errors      []ErrorVariant
	// Deploy reports whether the source carried a `//r55:deploy` marker
	// on the contract type, requesting a generated `_deploy.go` stub.
	Deploy bool
	// ConstructorParams are the parameters of an exported `New<Struct>`
	// function in the source file, used by the generated deploy stub to
	// ABI-decode constructor args.
	ConstructorParams []Param
}

// InterfaceName is the generated peer-calling interface type's name,
// `I<StructName>`.
func (c *ContractIR) InterfaceName() string { return "I" + c.StructName }
