// Package bank hosts the nanotoken processor: it loads account state,
// runs one invocation against borrowed copies of the buffers, and commits
// the writes only if the whole batch succeeded.
package bank

import (
	"errors"
	"fmt"
	"time"

	"github.com/cavemanloverboy/nanotoken/pkg/accounts"
	"github.com/cavemanloverboy/nanotoken/pkg/ledger"
	"github.com/cavemanloverboy/nanotoken/pkg/metrics"
	"github.com/cavemanloverboy/nanotoken/pkg/runtime"
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

var (
	// ErrInstructionDataTooLarge is returned when an invocation's payload
	// exceeds the transaction size limit.
	ErrInstructionDataTooLarge = errors.New("instruction data too large")

	// ErrAccountExists is returned when allocating storage over an
	// existing account.
	ErrAccountExists = errors.New("account already exists")
)

// Invocation is one request to run the processor over a set of accounts.
type Invocation struct {
	// Accounts are the referenced accounts, in the order the processor
	// sees them. The last three must be [config, system_program, payer].
	Accounts []types.AccountMeta

	// Data is the batch payload.
	Data []byte

	// ComputeBudget is the compute unit limit. Zero selects the default.
	ComputeBudget uint64
}

// Result reports the effects of a successful invocation.
type Result struct {
	// Logs are the messages emitted during execution.
	Logs []string

	// ComputeUnits is the total compute consumed.
	ComputeUnits uint64

	// DeltaHash commits to the state of every written account.
	DeltaHash types.Hash
}

// Bank couples account storage with the processor.
type Bank struct {
	db        accounts.DB
	processor *ledger.Processor
	metrics   *metrics.Metrics
}

// NewBank creates a bank over the given account database.
func NewBank(db accounts.DB) *Bank {
	return &Bank{
		db:        db,
		processor: ledger.NewProcessor(),
	}
}

// DB returns the underlying account database.
func (b *Bank) DB() accounts.DB {
	return b.db
}

// SetMetrics attaches a metrics instance. Nil disables recording.
func (b *Bank) SetMetrics(m *metrics.Metrics) {
	b.metrics = m
}

// Allocate creates a zeroed account buffer of the given size, owned by
// the given program. Allocation over an existing account fails.
func (b *Bank) Allocate(pubkey types.Pubkey, size int, owner types.Pubkey) error {
	if b.db.HasAccount(pubkey) {
		return fmt.Errorf("%w: %s", ErrAccountExists, pubkey)
	}
	return b.db.SetAccount(pubkey, types.NewAccount(size, owner))
}

// Execute runs one invocation. Mutations happen on cloned buffers and are
// committed to storage only if every sub-instruction succeeded; a failed
// batch leaves the database untouched. Referenced accounts that do not
// exist yet are presented as empty system-owned accounts.
func (b *Bank) Execute(inv Invocation) (*Result, error) {
	if len(inv.Data) > runtime.MaxInstructionData {
		return nil, fmt.Errorf("%w: %d bytes, limit %d",
			ErrInstructionDataTooLarge, len(inv.Data), runtime.MaxInstructionData)
	}

	budget := inv.ComputeBudget
	if budget == 0 {
		budget = uint64(types.DefaultComputeUnitsPerInvocation)
	}
	if budget > uint64(types.MaxComputeUnitsPerInvocation) {
		budget = uint64(types.MaxComputeUnitsPerInvocation)
	}

	// Load each referenced account once. A pubkey referenced twice binds
	// to the same buffer, so aliased writes stay coherent.
	infos := make([]*runtime.AccountInfo, len(inv.Accounts))
	byKey := make(map[types.Pubkey]*runtime.AccountInfo, len(inv.Accounts))
	for i, meta := range inv.Accounts {
		if info, ok := byKey[meta.Pubkey]; ok {
			info.IsSigner = info.IsSigner || meta.IsSigner
			info.IsWritable = info.IsWritable || meta.IsWritable
			infos[i] = info
			continue
		}

		account, err := b.db.GetAccount(meta.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("failed to load account %s: %w", meta.Pubkey, err)
		}
		if account == nil {
			account = types.NewAccount(0, types.SystemProgramID)
		}

		info := &runtime.AccountInfo{
			Key:        meta.Pubkey,
			Owner:      account.Owner,
			Data:       account.Clone().Data,
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
		byKey[meta.Pubkey] = info
		infos[i] = info
	}

	start := time.Now()
	ctx := runtime.NewInvokeContext(infos, inv.Data, budget)
	if err := b.processor.Execute(ctx); err != nil {
		if b.metrics != nil {
			b.metrics.RecordInvocationError()
		}
		return nil, err
	}

	// Commit writable buffers and hash the delta.
	var written []types.AccountRef
	committed := make(map[types.Pubkey]bool, len(infos))
	for _, info := range infos {
		if !info.IsWritable || committed[info.Key] {
			continue
		}
		committed[info.Key] = true

		account := &types.Account{Data: info.Data, Owner: info.Owner}
		if err := b.db.SetAccount(info.Key, account); err != nil {
			return nil, fmt.Errorf("failed to store account %s: %w", info.Key, err)
		}
		written = append(written, types.AccountRef{Pubkey: info.Key, Account: account})
	}

	if b.metrics != nil {
		b.metrics.RecordInvocation(
			countInstructions(inv.Data),
			ctx.ComputeUnitsConsumed(),
			uint64(len(written)),
			time.Since(start),
		)
		b.metrics.AccountsCount.SetUint64(b.db.AccountsCount())
	}

	return &Result{
		Logs:         ctx.Logs(),
		ComputeUnits: ctx.ComputeUnitsConsumed(),
		DeltaHash:    accounts.ComputeDeltaHash(written),
	}, nil
}

// countInstructions re-walks an already executed payload, so decode
// errors cannot occur here.
func countInstructions(data []byte) uint64 {
	var n uint64
	var inst ledger.Instruction
	iter := ledger.NewInstructionIter(data)
	for {
		ok, err := iter.Next(&inst)
		if !ok || err != nil {
			return n
		}
		n++
	}
}
