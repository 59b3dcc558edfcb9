package runtime

import (
	"errors"
	"testing"
)

func TestMemOpCost(t *testing.T) {
	tests := []struct {
		n    uint64
		want uint64
	}{
		{0, MemOpBaseCost},
		{1, MemOpBaseCost},
		{32, MemOpBaseCost},
		{250, MemOpBaseCost},
		{2499, MemOpBaseCost},
		{2500, MemOpBaseCost},
		{2750, 11},
		{25000, 100},
	}
	for _, tt := range tests {
		if got := MemOpCost(tt.n); got != tt.want {
			t.Errorf("MemOpCost(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestIdentityEq_ChargesBaseCost(t *testing.T) {
	ctx := NewInvokeContext(nil, nil, 100)

	a := make([]byte, 32)
	b := make([]byte, 32)
	a[0], b[0] = 7, 7

	eq, err := ctx.IdentityEq(a, b)
	if err != nil {
		t.Fatalf("IdentityEq failed: %v", err)
	}
	if !eq {
		t.Error("equal identities should compare equal")
	}
	if got := ctx.ComputeUnitsConsumed(); got != MemOpBaseCost {
		t.Errorf("32-byte compare consumed %d units, want %d", got, MemOpBaseCost)
	}
}

func TestIdentityEq_Unequal(t *testing.T) {
	ctx := NewInvokeContext(nil, nil, 100)

	a := make([]byte, 32)
	b := make([]byte, 32)
	b[31] = 1

	eq, err := ctx.IdentityEq(a, b)
	if err != nil {
		t.Fatalf("IdentityEq failed: %v", err)
	}
	if eq {
		t.Error("unequal identities should not compare equal")
	}
}

func TestIdentityEq_Exhaustion(t *testing.T) {
	ctx := NewInvokeContext(nil, nil, MemOpBaseCost-1)

	_, err := ctx.IdentityEq(make([]byte, 32), make([]byte, 32))
	if !errors.Is(err, ErrComputeExhausted) {
		t.Errorf("expected ErrComputeExhausted, got %v", err)
	}
	if ctx.ComputeUnitsRemaining() != 0 {
		t.Errorf("meter should be drained, %d units remain", ctx.ComputeUnitsRemaining())
	}
}

func TestConsumeCompute(t *testing.T) {
	ctx := NewInvokeContext(nil, nil, 100)

	if err := ctx.ConsumeCompute(60); err != nil {
		t.Fatalf("ConsumeCompute failed: %v", err)
	}
	if ctx.ComputeUnitsRemaining() != 40 {
		t.Errorf("expected 40 units remaining, got %d", ctx.ComputeUnitsRemaining())
	}
	if ctx.ComputeUnitsConsumed() != 60 {
		t.Errorf("expected 60 units consumed, got %d", ctx.ComputeUnitsConsumed())
	}

	if err := ctx.ConsumeCompute(41); !errors.Is(err, ErrComputeExhausted) {
		t.Errorf("expected ErrComputeExhausted, got %v", err)
	}
}

func TestCheckedAdd(t *testing.T) {
	if sum, ok := CheckedAdd(1, 2); !ok || sum != 3 {
		t.Errorf("CheckedAdd(1, 2) = %d, %v", sum, ok)
	}
	if _, ok := CheckedAdd(^uint64(0), 1); ok {
		t.Error("CheckedAdd should report overflow")
	}
	if sum, ok := CheckedAdd(^uint64(0), 0); !ok || sum != ^uint64(0) {
		t.Error("CheckedAdd at the boundary should succeed")
	}
}

func TestCheckedSub(t *testing.T) {
	if diff, ok := CheckedSub(3, 2); !ok || diff != 1 {
		t.Errorf("CheckedSub(3, 2) = %d, %v", diff, ok)
	}
	if _, ok := CheckedSub(2, 3); ok {
		t.Error("CheckedSub should report underflow")
	}
	if diff, ok := CheckedSub(2, 2); !ok || diff != 0 {
		t.Error("CheckedSub to zero should succeed")
	}
}

func TestLogLimits(t *testing.T) {
	ctx := NewInvokeContext(nil, nil, 100)

	// Excess messages are dropped, never surfaced as an error.
	for i := 0; i < MaxLogMessages+5; i++ {
		ctx.Log("msg")
	}
	if got := len(ctx.Logs()); got != MaxLogMessages {
		t.Errorf("log count = %d, want %d", got, MaxLogMessages)
	}

	ctx2 := NewInvokeContext(nil, nil, 100)
	long := make([]byte, MaxLogMessageLength+1)
	ctx2.Log(string(long))
	logs := ctx2.Logs()
	if len(logs) != 1 {
		t.Fatalf("log count = %d, want 1", len(logs))
	}
	if len(logs[0]) != MaxLogMessageLength {
		t.Errorf("oversized message kept %d bytes, want %d", len(logs[0]), MaxLogMessageLength)
	}
}
