//go:build riscv64

package guest

import syscallpkg "github.com/r55-lang/r55/syscall"

// hwBridge is installed as the active Bridge on real riscv64 guest
// builds (GOARCH=riscv64, the build orchestrator's runtime/deploy
// compile target). Its ECall is backed by ecallAsm, a single trap
// instruction in bridge_riscv64.s — no OS, no goroutine scheduler, just
// the register-passing convention documents.
type hwBridge struct{}

func (hwBridge) ECall(n syscallpkg.Number, args [6]uint64) [3]uint64 {
	a0, a1, a2 := ecallAsm(byte(n), args[0], args[1], args[2], args[3], args[4], args[5])
	return [3]uint64{a0, a1, a2}
}

// ecallAsm is implemented in bridge_riscv64.s: it loads num into t0 and
// args into a0-a5, executes ECALL, and returns a0-a2 as this function's
// results, matching register convention exactly.
func ecallAsm(num byte, a0, a1, a2, a3, a4, a5 uint64) (r0, r1, r2 uint64)

func init() {
	active = hwBridge{}
}
