package ledger

import (
	"fmt"

	"github.com/cavemanloverboy/nanotoken/pkg/runtime"
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// Processor applies one invocation's batch of sub-instructions to the
// borrowed account buffers, strictly in order. The first failure aborts
// the remainder of the batch; the host discards every buffer mutation of
// a failed invocation, so effects are all-or-nothing per invocation.
type Processor struct {
	programID types.Pubkey
}

// NewProcessor creates a processor for the nanotoken program.
func NewProcessor() *Processor {
	return &Processor{programID: types.NanotokenProgramID}
}

// ProgramID returns the program's identity.
func (p *Processor) ProgramID() types.Pubkey {
	return p.programID
}

// Execute decodes and applies the batch in ctx.
//
// Every invocation supplies at least three trailing accounts:
// [.., config, system_program, payer]. They are validated lazily and at
// most once, since only some sub-instructions need them. The remaining
// accounts are consumed front-to-back by the sub-instructions, each
// handler taking a fixed number from the cursor.
func (p *Processor) Execute(ctx *runtime.InvokeContext) error {
	accounts := ctx.Accounts()
	if len(accounts) < 3 {
		return fmt.Errorf("%w: need at least config, system_program, payer", ErrNotEnoughAccounts)
	}

	config := accounts[len(accounts)-3]
	system := accounts[len(accounts)-2]
	payer := accounts[len(accounts)-1]
	_ = payer // checked by the host when it funds allocations

	// Lazy one-shot identity checks for the trailing accounts.
	validatedConfig := false
	validateConfig := func() error {
		if validatedConfig {
			return nil
		}
		eq, err := ctx.IdentityEq(config.Key[:], types.ConfigAccountID[:])
		if err != nil {
			return err
		}
		if !eq {
			ctx.Log("config does not have expected pubkey")
			return ErrWrongConfigAccount
		}
		validatedConfig = true
		return nil
	}

	validatedSystem := false
	validateSystem := func() error {
		if validatedSystem {
			return nil
		}
		eq, err := ctx.IdentityEq(system.Key[:], types.SystemProgramID[:])
		if err != nil {
			return err
		}
		if !eq {
			ctx.Log("system_program does not have expected pubkey")
			return ErrWrongSystemAccount
		}
		validatedSystem = true
		return nil
	}

	window := accounts[:len(accounts)-3]

	iter := NewInstructionIter(ctx.InstructionData())
	var inst Instruction
	ai := 0
	for i := 0; ; i++ {
		ok, err := iter.Next(&inst)
		if err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		if !ok {
			return nil
		}

		var consumed int
		switch inst.Tag {
		case TagInitializeConfig:
			if err = validateConfig(); err == nil {
				consumed, err = p.initializeConfig(ctx, config)
			}
		case TagInitializeMint:
			if err = validateSystem(); err == nil {
				consumed, err = p.initializeMint(ctx, window[ai:], config, &inst.InitializeMint)
			}
		case TagInitializeAccount:
			if err = validateConfig(); err == nil {
				if err = validateSystem(); err == nil {
					consumed, err = p.initializeAccount(ctx, window[ai:], config, &inst.InitializeAccount)
				}
			}
		case TagMint:
			consumed, err = p.mintTo(ctx, window[ai:], &inst.Amount)
		case TagBurn:
			consumed, err = p.burn(ctx, window[ai:], &inst.Amount)
		case TagTransfer:
			consumed, err = p.transfer(ctx, window[ai:], &inst.Amount)
		case TagTransmute:
			if err = validateConfig(); err == nil {
				if err = validateSystem(); err == nil {
					consumed, err = p.transmute(ctx, window[ai:], &inst.Amount)
				}
			}
		case TagInitializeVault:
			if err = validateSystem(); err == nil {
				consumed, err = p.initializeVault(ctx, window[ai:], config)
			}
		}
		if err != nil {
			return fmt.Errorf("instruction %d (%s): %w", i, tagName(inst.Tag), err)
		}
		ai += consumed
	}
}

func tagName(tag uint8) string {
	switch tag {
	case TagInitializeConfig:
		return "InitializeConfig"
	case TagInitializeMint:
		return "InitializeMint"
	case TagInitializeAccount:
		return "InitializeAccount"
	case TagMint:
		return "Mint"
	case TagBurn:
		return "Burn"
	case TagTransfer:
		return "Transfer"
	case TagTransmute:
		return "Transmute"
	case TagInitializeVault:
		return "InitializeVault"
	default:
		return "Unknown"
	}
}
