package codegen

import "fmt"

// converters returns the abi.To<X>/abi.From<X> function names codegen's
// templates call to bridge a go-ethereum abi.Unpack result (or, in
// reverse, a value about to be abi.Pack'd) to/from this module's own
// value types, keyed by canonical Solidity type name (abi/convert.go
// implements the actual conversions).
func converters(solType string) (toFunc, fromFunc string, err error) {
	switch solType {
	case "uint256":
		return "abi.ToUint256", "abi.FromUint256", nil
	case "address":
		return "abi.ToAddress", "abi.FromAddress", nil
	case "bytes32":
		return "abi.ToHash", "abi.FromHash", nil
	case "bool":
		return "abi.ToBool", "abi.FromBool", nil
	case "bytes":
		return "abi.ToBytes", "abi.FromBytes", nil
	case "string":
		return "abi.ToString", "abi.FromString", nil
	case "uint64":
		return "abi.ToUint64", "abi.FromUint64", nil
	default:
		return "", "", fmt.Errorf("codegen: no abi converter for Solidity type %q (arrays and wide fixed-width ints are not yet supported)", solType)
	}
}
