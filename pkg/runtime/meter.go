package runtime

import "bytes"

// Compute unit costs, matching the host's charging formula for memory
// operations: max(MemOpBaseCost, n/MemOpBytesPerUnit).
const (
	// MemOpBaseCost is the minimum charge for one memory operation.
	MemOpBaseCost uint64 = 10

	// MemOpBytesPerUnit is the number of compared bytes per compute unit.
	MemOpBytesPerUnit uint64 = 250
)

// MemOpCost returns the compute cost of a memory operation over n bytes.
func MemOpCost(n uint64) uint64 {
	cost := n / MemOpBytesPerUnit
	if cost < MemOpBaseCost {
		return MemOpBaseCost
	}
	return cost
}

// IdentityEq compares two equal-length identity values, charging compute
// proportional to the compared length. Unequal lengths never compare equal
// but are still charged for the shorter operand.
func (ctx *InvokeContext) IdentityEq(a, b []byte) (bool, error) {
	n := uint64(len(a))
	if uint64(len(b)) < n {
		n = uint64(len(b))
	}
	if err := ctx.ConsumeCompute(MemOpCost(n)); err != nil {
		return false, err
	}
	return len(a) == len(b) && bytes.Equal(a, b), nil
}

// CheckedAdd adds two u64 balances, reporting ok=false on overflow
// instead of wrapping.
func CheckedAdd(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// CheckedSub subtracts b from a, reporting ok=false on underflow instead
// of wrapping.
func CheckedSub(a, b uint64) (uint64, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}
