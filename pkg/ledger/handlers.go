package ledger

import (
	"fmt"

	"github.com/cavemanloverboy/nanotoken/pkg/runtime"
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// Handlers take a window of not-yet-consumed accounts and return the
// number they consumed so the batch cursor can advance. All mutations go
// through the typed views, directly into the host's buffers; the host's
// invocation-level rollback makes partial effects of a failed batch
// unobservable.

// initializeConfig initializes the config singleton. The config account
// arrives in the trailing slot, so nothing is consumed from the window.
func (p *Processor) initializeConfig(ctx *runtime.InvokeContext, config *runtime.AccountInfo) (int, error) {
	if !config.IsWritable {
		return 0, fmt.Errorf("%w: config", ErrNotWritable)
	}
	if config.Owner != p.programID {
		return 0, fmt.Errorf("%w: config owned by %s", ErrWrongOwner, config.Owner)
	}
	if _, err := InitConfig(config.Data); err != nil {
		return 0, err
	}
	ctx.Log("initialized config")
	return 0, nil
}

// initializeMint creates a mint record in window[0], assigning it the
// next index from the config counter.
func (p *Processor) initializeMint(ctx *runtime.InvokeContext, window []*runtime.AccountInfo, config *runtime.AccountInfo, args *InitializeMintArgs) (int, error) {
	bound, err := Resolve(window, []AccountRole{
		{Index: 0, Writable: true, Owner: &p.programID},
	})
	if err != nil {
		return 0, err
	}
	mint := bound[0]

	if !config.IsWritable {
		return 0, fmt.Errorf("%w: config", ErrNotWritable)
	}
	cfg, err := LoadConfig(config.Data)
	if err != nil {
		return 0, err
	}

	index := cfg.MintIndex()
	if index == ^uint64(0) {
		return 0, ErrCounterOverflow
	}

	if args.Decimals > MaxDecimals {
		return 0, fmt.Errorf("%w: max is %d, got %d", ErrInvalidDecimals, MaxDecimals, args.Decimals)
	}
	if _, err := InitMint(mint.Data, index, args.Authority, uint8(args.Decimals)); err != nil {
		return 0, err
	}
	cfg.SetMintIndex(index + 1)

	ctx.Logf("initialized mint %d", index)
	return 1, nil
}

// initializeAccount creates a token account record in window[0] bound to
// an existing mint index.
func (p *Processor) initializeAccount(ctx *runtime.InvokeContext, window []*runtime.AccountInfo, config *runtime.AccountInfo, args *InitializeAccountArgs) (int, error) {
	bound, err := Resolve(window, []AccountRole{
		{Index: 0, Writable: true, Owner: &p.programID},
	})
	if err != nil {
		return 0, err
	}
	token := bound[0]

	cfg, err := LoadConfig(config.Data)
	if err != nil {
		return 0, err
	}
	if args.Mint >= cfg.MintIndex() {
		return 0, fmt.Errorf("%w: index %d, %d mints exist", ErrUnknownMint, args.Mint, cfg.MintIndex())
	}

	// The account must live at the address derived from (owner, mint,
	// bump), keeping one canonical account per (owner, mint) pair.
	if args.Bump > 255 {
		return 0, fmt.Errorf("%w: bump %d out of range", ErrInvalidInstructionData, args.Bump)
	}
	derived := DeriveTokenAccountAddress(args.Owner, args.Mint, uint8(args.Bump))
	eq, err := ctx.IdentityEq(token.Key[:], derived[:])
	if err != nil {
		return 0, err
	}
	if !eq {
		return 0, fmt.Errorf("%w: expected %s, got %s", ErrWrongAccountAddress, derived, token.Key)
	}

	if _, err := InitTokenAccount(token.Data, args.Owner, args.Mint); err != nil {
		return 0, err
	}

	ctx.Logf("initialized token account for mint %d", args.Mint)
	return 1, nil
}

// initializeVault creates a native mint bound to an external mint:
// [external_mint, native_mint]. The new mint's authority is the vault
// authority derived from the external mint and its decimals are copied
// from the external record; transmute accepts only this pairing, so no
// other native mint can bridge the external mint's balances.
func (p *Processor) initializeVault(ctx *runtime.InvokeContext, window []*runtime.AccountInfo, config *runtime.AccountInfo) (int, error) {
	bound, err := Resolve(window, []AccountRole{
		{Index: 0, Owner: &types.TokenkegProgramID},
		{Index: 1, Writable: true, Owner: &p.programID},
	})
	if err != nil {
		return 0, err
	}
	extMint, mint := bound[0], bound[1]

	if !ValidTokenkegMint(extMint.Data) {
		return 0, fmt.Errorf("%w: external mint %s", ErrLayoutMismatch, extMint.Key)
	}
	if !config.IsWritable {
		return 0, fmt.Errorf("%w: config", ErrNotWritable)
	}
	cfg, err := LoadConfig(config.Data)
	if err != nil {
		return 0, err
	}

	index := cfg.MintIndex()
	if index == ^uint64(0) {
		return 0, ErrCounterOverflow
	}

	decimals := TokenkegMintDecimals(extMint.Data)
	if uint64(decimals) > MaxDecimals {
		return 0, fmt.Errorf("%w: max is %d, got %d", ErrInvalidDecimals, MaxDecimals, decimals)
	}
	authority, _ := FindVaultAuthority(extMint.Key)
	if _, err := InitMint(mint.Data, index, authority, decimals); err != nil {
		return 0, err
	}
	cfg.SetMintIndex(index + 1)

	ctx.Logf("initialized vault mint %d for %s", index, extMint.Key)
	return 2, nil
}

// mintTo grows supply: [to, mint, authority]. The mint authority must
// sign. Both supply and the destination balance move by the same amount.
func (p *Processor) mintTo(ctx *runtime.InvokeContext, window []*runtime.AccountInfo, args *AmountArgs) (int, error) {
	bound, err := Resolve(window, []AccountRole{
		{Index: 0, Writable: true, Owner: &p.programID, Discriminant: disc(DiscriminantToken)},
		{Index: 1, Writable: true, Owner: &p.programID, Discriminant: disc(DiscriminantMint)},
		{Index: 2, Signer: true},
	})
	if err != nil {
		return 0, err
	}
	to, mintAcc, authority := bound[0], bound[1], bound[2]

	if args.Amount == 0 {
		return 3, nil
	}

	tv, err := LoadTokenAccount(to.Data)
	if err != nil {
		return 0, err
	}
	mv, err := LoadMint(mintAcc.Data)
	if err != nil {
		return 0, err
	}

	eq, err := ctx.IdentityEq(mv.AuthorityBytes(), authority.Key[:])
	if err != nil {
		return 0, err
	}
	if !eq {
		return 0, fmt.Errorf("%w: %s is not the mint authority", ErrWrongOwner, authority.Key)
	}
	if tv.MintIndex() != mv.MintIndex() {
		return 0, fmt.Errorf("%w: account holds mint %d, minting %d",
			ErrMintMismatch, tv.MintIndex(), mv.MintIndex())
	}

	supply, ok := runtime.CheckedAdd(mv.Supply(), args.Amount)
	if !ok {
		return 0, fmt.Errorf("%w: supply", ErrArithmeticOverflow)
	}
	balance, ok := runtime.CheckedAdd(tv.Balance(), args.Amount)
	if !ok {
		return 0, fmt.Errorf("%w: balance", ErrArithmeticOverflow)
	}
	mv.SetSupply(supply)
	tv.SetBalance(balance)
	return 3, nil
}

// burn shrinks supply: [from, mint, owner]. The account owner must sign.
func (p *Processor) burn(ctx *runtime.InvokeContext, window []*runtime.AccountInfo, args *AmountArgs) (int, error) {
	bound, err := Resolve(window, []AccountRole{
		{Index: 0, Writable: true, Owner: &p.programID, Discriminant: disc(DiscriminantToken)},
		{Index: 1, Writable: true, Owner: &p.programID, Discriminant: disc(DiscriminantMint)},
		{Index: 2, Signer: true},
	})
	if err != nil {
		return 0, err
	}
	from, mintAcc, owner := bound[0], bound[1], bound[2]

	if args.Amount == 0 {
		return 3, nil
	}

	fv, err := LoadTokenAccount(from.Data)
	if err != nil {
		return 0, err
	}
	mv, err := LoadMint(mintAcc.Data)
	if err != nil {
		return 0, err
	}

	eq, err := ctx.IdentityEq(fv.OwnerBytes(), owner.Key[:])
	if err != nil {
		return 0, err
	}
	if !eq {
		return 0, fmt.Errorf("%w: %s does not own the account", ErrWrongOwner, owner.Key)
	}
	if fv.MintIndex() != mv.MintIndex() {
		return 0, fmt.Errorf("%w: account holds mint %d, burning %d",
			ErrMintMismatch, fv.MintIndex(), mv.MintIndex())
	}

	balance, ok := runtime.CheckedSub(fv.Balance(), args.Amount)
	if !ok {
		return 0, fmt.Errorf("%w: balance %d, burn %d", ErrInsufficientFunds, fv.Balance(), args.Amount)
	}
	supply, ok := runtime.CheckedSub(mv.Supply(), args.Amount)
	if !ok {
		return 0, fmt.Errorf("%w: supply", ErrArithmeticOverflow)
	}
	fv.SetBalance(balance)
	mv.SetSupply(supply)
	return 3, nil
}

// transfer moves balance between two accounts of the same mint:
// [from, to, owner]. Checks run before any mutation; a zero amount is a
// valid no-op that still consumes its accounts.
func (p *Processor) transfer(ctx *runtime.InvokeContext, window []*runtime.AccountInfo, args *AmountArgs) (int, error) {
	bound, err := Resolve(window, []AccountRole{
		{Index: 0, Writable: true, Owner: &p.programID, Discriminant: disc(DiscriminantToken)},
		{Index: 1, Writable: true, Owner: &p.programID, Discriminant: disc(DiscriminantToken)},
		{Index: 2, Signer: true},
	})
	if err != nil {
		return 0, err
	}
	from, to, owner := bound[0], bound[1], bound[2]

	if args.Amount == 0 {
		return 3, nil
	}

	fv, err := LoadTokenAccount(from.Data)
	if err != nil {
		return 0, err
	}
	tv, err := LoadTokenAccount(to.Data)
	if err != nil {
		return 0, err
	}

	if fv.Balance() < args.Amount {
		return 0, fmt.Errorf("%w: balance %d, transfer %d", ErrInsufficientFunds, fv.Balance(), args.Amount)
	}
	eq, err := ctx.IdentityEq(fv.OwnerBytes(), owner.Key[:])
	if err != nil {
		return 0, err
	}
	if !eq {
		return 0, fmt.Errorf("%w: %s does not own the source", ErrWrongOwner, owner.Key)
	}
	if fv.MintIndex() != tv.MintIndex() {
		return 0, fmt.Errorf("%w: source holds mint %d, destination %d",
			ErrMintMismatch, fv.MintIndex(), tv.MintIndex())
	}

	// Debit before reading the destination balance so a self-transfer over
	// the same buffer nets to zero instead of double-counting.
	fv.SetBalance(fv.Balance() - args.Amount)
	balance, ok := runtime.CheckedAdd(tv.Balance(), args.Amount)
	if !ok {
		return 0, fmt.Errorf("%w: destination balance", ErrArithmeticOverflow)
	}
	tv.SetBalance(balance)
	return 3, nil
}

// transmute bridges balance between the native layout and the external
// canonical layout: [from, to, owner, external_mint, native_mint]. The
// direction is inferred from the source account's shape. Bridging into
// the native side initializes the destination record if needed; bridging
// out requires an already initialized external destination.
func (p *Processor) transmute(ctx *runtime.InvokeContext, window []*runtime.AccountInfo, args *AmountArgs) (int, error) {
	const consumed = 5
	bound, err := Resolve(window, []AccountRole{
		{Index: 0, Writable: true},
		{Index: 1, Writable: true},
		{Index: 2, Signer: true},
		{Index: 3, Owner: &types.TokenkegProgramID},
		{Index: 4, Writable: true, Owner: &p.programID, Discriminant: disc(DiscriminantMint)},
	})
	if err != nil {
		return 0, err
	}
	from, to, owner, extMint, nativeMint := bound[0], bound[1], bound[2], bound[3], bound[4]

	if args.Amount == 0 {
		return consumed, nil
	}

	if !ValidTokenkegMint(extMint.Data) {
		return 0, fmt.Errorf("%w: external mint %s", ErrLayoutMismatch, extMint.Key)
	}
	mv, err := LoadMint(nativeMint.Data)
	if err != nil {
		return 0, err
	}

	// Only the vault mint created for this external mint may bridge its
	// balances; the binding lives in the mint's authority field.
	vaultAuthority, _ := FindVaultAuthority(extMint.Key)
	eq, err := ctx.IdentityEq(mv.AuthorityBytes(), vaultAuthority[:])
	if err != nil {
		return 0, err
	}
	if !eq {
		return 0, fmt.Errorf("%w: mint %d is not the vault mint for %s",
			ErrMintNotBound, mv.MintIndex(), extMint.Key)
	}

	inbound, err := p.isExternalAccountFor(ctx, from, extMint.Key, owner.Key)
	if err != nil {
		return 0, err
	}
	if inbound {
		return consumed, p.transmuteIn(ctx, from, to, owner, mv, args.Amount)
	}
	return consumed, p.transmuteOut(ctx, from, to, owner, extMint, mv, args.Amount)
}

// isExternalAccountFor reports whether acc is an initialized external
// token account for the given mint and owner.
func (p *Processor) isExternalAccountFor(ctx *runtime.InvokeContext, acc *runtime.AccountInfo, mint, owner types.Pubkey) (bool, error) {
	if acc.Owner != types.TokenkegProgramID || len(acc.Data) != TokenkegAccountSize {
		return false, nil
	}
	v, err := LoadTokenkegAccount(acc.Data)
	if err != nil {
		return false, err
	}
	if !v.Initialized() {
		return false, nil
	}
	eq, err := ctx.IdentityEq(v.MintBytes(), mint[:])
	if err != nil || !eq {
		return false, err
	}
	eq, err = ctx.IdentityEq(v.OwnerBytes(), owner[:])
	if err != nil || !eq {
		return false, err
	}
	return true, nil
}

// transmuteIn debits an external account and credits the native side,
// initializing the native record if its buffer is still blank. Native
// supply grows by the bridged amount.
func (p *Processor) transmuteIn(ctx *runtime.InvokeContext, from, to *runtime.AccountInfo, owner *runtime.AccountInfo, mv MintView, amount uint64) error {
	ev, err := LoadTokenkegAccount(from.Data)
	if err != nil {
		return err
	}
	if ev.Amount() < amount {
		return fmt.Errorf("%w: external balance %d, transmute %d", ErrInsufficientFunds, ev.Amount(), amount)
	}

	if to.Owner != p.programID || len(to.Data) != TokenAccountSize {
		return fmt.Errorf("%w: native destination %s", ErrDestinationLayoutMismatch, to.Key)
	}
	var tv TokenAccountView
	if to.Data[0] == DiscriminantUninitialized {
		derived, _ := FindTokenAccountAddress(owner.Key, mv.MintIndex())
		eq, err := ctx.IdentityEq(to.Key[:], derived[:])
		if err != nil {
			return err
		}
		if !eq {
			return fmt.Errorf("%w: expected %s, got %s", ErrWrongAccountAddress, derived, to.Key)
		}
		tv, err = InitTokenAccount(to.Data, owner.Key, mv.MintIndex())
		if err != nil {
			return err
		}
		ctx.Logf("initialized token account for mint %d", mv.MintIndex())
	} else {
		tv, err = LoadTokenAccount(to.Data)
		if err != nil {
			return fmt.Errorf("%w: native destination %s", ErrDestinationLayoutMismatch, to.Key)
		}
		if tv.MintIndex() != mv.MintIndex() {
			return fmt.Errorf("%w: destination holds mint %d, bridging %d",
				ErrMintMismatch, tv.MintIndex(), mv.MintIndex())
		}
		eq, err := ctx.IdentityEq(tv.OwnerBytes(), owner.Key[:])
		if err != nil {
			return err
		}
		if !eq {
			return fmt.Errorf("%w: %s does not own the destination", ErrWrongOwner, owner.Key)
		}
	}

	supply, ok := runtime.CheckedAdd(mv.Supply(), amount)
	if !ok {
		return fmt.Errorf("%w: supply", ErrArithmeticOverflow)
	}
	balance, ok := runtime.CheckedAdd(tv.Balance(), amount)
	if !ok {
		return fmt.Errorf("%w: balance", ErrArithmeticOverflow)
	}
	ev.SetAmount(ev.Amount() - amount)
	tv.SetBalance(balance)
	mv.SetSupply(supply)
	return nil
}

// transmuteOut debits a native account and credits the external side.
// The external destination must already be an initialized account of the
// bridged mint; this direction never initializes storage. Native supply
// shrinks by the bridged amount.
func (p *Processor) transmuteOut(ctx *runtime.InvokeContext, from, to *runtime.AccountInfo, owner *runtime.AccountInfo, extMint *runtime.AccountInfo, mv MintView, amount uint64) error {
	if from.Owner != p.programID || len(from.Data) != TokenAccountSize {
		return fmt.Errorf("%w: source %s", ErrLayoutMismatch, from.Key)
	}
	if from.Data[0] == DiscriminantUninitialized {
		return fmt.Errorf("%w: %s", ErrSourceUninitialized, from.Key)
	}
	fv, err := LoadTokenAccount(from.Data)
	if err != nil {
		return err
	}

	eq, err := ctx.IdentityEq(fv.OwnerBytes(), owner.Key[:])
	if err != nil {
		return err
	}
	if !eq {
		return fmt.Errorf("%w: %s does not own the source", ErrWrongOwner, owner.Key)
	}
	if fv.MintIndex() != mv.MintIndex() {
		return fmt.Errorf("%w: source holds mint %d, bridging %d",
			ErrMintMismatch, fv.MintIndex(), mv.MintIndex())
	}
	if fv.Balance() < amount {
		return fmt.Errorf("%w: balance %d, transmute %d", ErrInsufficientFunds, fv.Balance(), amount)
	}

	if to.Owner != types.TokenkegProgramID || len(to.Data) != TokenkegAccountSize {
		return fmt.Errorf("%w: external destination %s", ErrDestinationLayoutMismatch, to.Key)
	}
	ev, err := LoadTokenkegAccount(to.Data)
	if err != nil {
		return fmt.Errorf("%w: external destination %s", ErrDestinationLayoutMismatch, to.Key)
	}
	if !ev.Initialized() {
		return fmt.Errorf("%w: external destination %s is uninitialized", ErrDestinationLayoutMismatch, to.Key)
	}
	eq, err = ctx.IdentityEq(ev.MintBytes(), extMint.Key[:])
	if err != nil {
		return err
	}
	if !eq {
		return fmt.Errorf("%w: external destination holds a different mint", ErrMintMismatch)
	}

	supply, ok := runtime.CheckedSub(mv.Supply(), amount)
	if !ok {
		return fmt.Errorf("%w: supply", ErrArithmeticOverflow)
	}
	extBalance, ok := runtime.CheckedAdd(ev.Amount(), amount)
	if !ok {
		return fmt.Errorf("%w: external balance", ErrArithmeticOverflow)
	}
	fv.SetBalance(fv.Balance() - amount)
	mv.SetSupply(supply)
	ev.SetAmount(extBalance)
	return nil
}
