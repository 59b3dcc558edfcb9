// Package runtime provides the execution state for one invocation of the
// nanotoken ledger engine: borrowed account views, the compute meter and
// the program log buffer.
//
// The host owns every account buffer. An InvokeContext borrows those
// buffers for exactly one invocation; nothing in the engine may retain a
// reference past the call that produced it.
package runtime

import (
	"errors"
	"fmt"

	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// Context errors
var (
	ErrComputeExhausted = errors.New("compute units exhausted")
)

// Limits for execution
const (
	MaxLogMessages      = 64
	MaxLogMessageLength = 10000
	MaxInstructionData  = 1232
)

// AccountInfo is the borrowed view of one account supplied to an
// invocation: identity, owner program, declared access and the raw buffer.
type AccountInfo struct {
	Key        types.Pubkey
	Owner      types.Pubkey
	Data       []byte
	IsSigner   bool
	IsWritable bool
}

// InvokeContext holds the execution state for one invocation. It is used
// from a single goroutine; the processor runs strictly sequentially.
type InvokeContext struct {
	// Accounts available to the invocation, in transaction order.
	accounts []*AccountInfo

	// Instruction payload for the batch.
	instructionData []byte

	// Compute meter
	computeUnits    uint64
	maxComputeUnits uint64

	// Program logs
	logs []string
}

// NewInvokeContext creates a context over the given borrowed accounts.
func NewInvokeContext(accounts []*AccountInfo, instructionData []byte, computeUnits uint64) *InvokeContext {
	return &InvokeContext{
		accounts:        accounts,
		instructionData: instructionData,
		computeUnits:    computeUnits,
		maxComputeUnits: computeUnits,
		logs:            make([]string, 0, MaxLogMessages),
	}
}

// Accounts returns the invocation's account list.
func (ctx *InvokeContext) Accounts() []*AccountInfo {
	return ctx.accounts
}

// AccountCount returns the number of supplied accounts.
func (ctx *InvokeContext) AccountCount() int {
	return len(ctx.accounts)
}

// InstructionData returns the invocation's instruction payload.
func (ctx *InvokeContext) InstructionData() []byte {
	return ctx.instructionData
}

// ConsumeCompute deducts compute units from the budget.
func (ctx *InvokeContext) ConsumeCompute(units uint64) error {
	if units > ctx.computeUnits {
		ctx.computeUnits = 0
		return ErrComputeExhausted
	}
	ctx.computeUnits -= units
	return nil
}

// ComputeUnitsRemaining returns the remaining compute units.
func (ctx *InvokeContext) ComputeUnitsRemaining() uint64 {
	return ctx.computeUnits
}

// ComputeUnitsConsumed returns the consumed compute units.
func (ctx *InvokeContext) ComputeUnitsConsumed() uint64 {
	return ctx.maxComputeUnits - ctx.computeUnits
}

// Log appends a program log message. Logs are diagnostics, never part
// of the invocation's outcome: once the buffer holds MaxLogMessages
// entries further messages are dropped, and a message longer than
// MaxLogMessageLength is truncated.
func (ctx *InvokeContext) Log(message string) {
	if len(ctx.logs) >= MaxLogMessages {
		return
	}
	if len(message) > MaxLogMessageLength {
		message = message[:MaxLogMessageLength]
	}
	ctx.logs = append(ctx.logs, message)
}

// Logf appends a formatted program log message.
func (ctx *InvokeContext) Logf(format string, args ...any) {
	ctx.Log(fmt.Sprintf(format, args...))
}

// Logs returns a copy of the program logs.
func (ctx *InvokeContext) Logs() []string {
	logs := make([]string, len(ctx.logs))
	copy(logs, ctx.logs)
	return logs
}
