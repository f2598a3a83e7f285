package guest

import "github.com/r55-lang/r55/abi"

// ContractError is implemented by every codegen-generated custom-error
// variant: a 4-byte selector derived from its
// canonical signature, plus ABI encoding for its payload.
type ContractError interface {
	error
	// Selector returns the 4-byte selector for this error variant's
	// canonical signature.
	Selector() abi.Selector
	// Encode ABI-encodes this error's payload (without the selector).
	Encode() []byte
}

// RevertError packs a ContractError into the selector-prefixed revert
// payload documents: `error_selector_be4 ||
// abi_encoded_error_payload`. Generated per-method wrappers call this
// when a user handler returns a typed error instead of a result.
func RevertError(e ContractError) {
	sel := e.Selector()
	payload := e.Encode()
	out := make([]byte, 0, abi.SelectorLength+len(payload))
	out = append(out, sel.Bytes()...)
	out = append(out, payload...)
	Revert(out)
}

// MatchError reports whether revertData begins with the selector for
// the ContractError builder fn produces when called with an arbitrary
// instance — used by generated interface stubs to re-materialize a
// peer's revert into a locally declared error type, either by matching
// selector or by falling back to a catch-all.
func MatchError(revertData []byte, sel abi.Selector) bool {
	return sel.Matches(revertData)
}

// ErrorPayload returns the ABI-encoded tail of a selector-prefixed
// revert, for a generated stub that has already matched the selector
// and now needs to decode the error's fields.
func ErrorPayload(revertData []byte) []byte {
	if len(revertData) < abi.SelectorLength {
		return nil
	}
	return revertData[abi.SelectorLength:]
}
