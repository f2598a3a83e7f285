package guest

// CallCtx is the compile-time capability tag carried by codegen-generated
// interface handles. Go has no attribute-level access control, so the
// read/write distinction is encoded as a type parameter: ReadOnly and
// Mutable are distinct, uninstantiable marker types, and a generated
// handle `I<Name>[Ctx CallCtx]` exposes its mutating peer calls as
// package-level functions that accept only `I<Name>[Mutable]` (see
// codegen's _iface.go output) — making it impossible, by construction, to
// call a state-mutating peer method through a handle obtained in a
// read-only context.
type CallCtx interface {
	isCallCtx()
	// Static reports whether this context must issue StaticCall instead
	// of Call for outbound peer invocations.
	Static() bool
}

// ReadOnly is the CallCtx a contract holds while executing inside a
// StaticCall — or while handling a method explicitly declared read-only.
// The functions for mutating peer methods accept only `I<Name>[Mutable]`,
// so passing an `I<Name>[ReadOnly]` handle to one is a compile error,
// not a runtime check.
type ReadOnly struct{}

func (ReadOnly) isCallCtx() {}
func (ReadOnly) Static() bool { return true }

// Mutable is the CallCtx a contract holds while it may issue SSTORE and
// call mutating peer methods.
type Mutable struct{}

func (Mutable) isCallCtx() {}
func (Mutable) Static() bool { return false }
