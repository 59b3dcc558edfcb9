// nanotoken: batched token ledger over persistent account storage.
//
// The CLI hosts the processor against a local BadgerDB account database:
// it allocates account buffers, builds batch payloads and commits the
// results of successful invocations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cavemanloverboy/nanotoken/pkg/accounts"
	"github.com/cavemanloverboy/nanotoken/pkg/bank"
	"github.com/cavemanloverboy/nanotoken/pkg/ledger"
	"github.com/cavemanloverboy/nanotoken/pkg/metrics"
	"github.com/cavemanloverboy/nanotoken/pkg/rpc"
	"github.com/cavemanloverboy/nanotoken/pkg/snapshot"
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "dev"
)

const usage = `nanotoken %s (%s)

Usage: nanotoken <command> [flags]

Commands:
  init            Initialize the config singleton
  create-mint     Create a new mint
  create-vault    Create a native mint bound to an external mint
  create-account  Create a token account for (owner, mint)
  mint            Mint tokens to an account
  burn            Burn tokens from an account
  transfer        Transfer tokens between accounts
  transmute       Bridge tokens across the external token format
  save            Save account state to a snapshot archive
  restore         Restore account state from a snapshot archive
  show            Print a decoded account record
  serve           Run the read-only RPC and metrics servers

Run 'nanotoken <command> -h' for command flags.
`

func main() {
	log.SetFlags(log.Ldate | log.Ltime)

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, Version, GitCommit)
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "init":
		err = cmdInit(args)
	case "create-mint":
		err = cmdCreateMint(args)
	case "create-vault":
		err = cmdCreateVault(args)
	case "create-account":
		err = cmdCreateAccount(args)
	case "mint":
		err = cmdMint(args)
	case "burn":
		err = cmdBurn(args)
	case "transfer":
		err = cmdTransfer(args)
	case "transmute":
		err = cmdTransmute(args)
	case "save":
		err = cmdSave(args)
	case "restore":
		err = cmdRestore(args)
	case "show":
		err = cmdShow(args)
	case "serve":
		err = cmdServe(args)
	case "version", "-version", "--version":
		fmt.Printf("nanotoken %s (%s)\n", Version, GitCommit)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fmt.Fprintf(os.Stderr, usage, Version, GitCommit)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

// openBank opens the account database and wraps it in a bank.
func openBank(dataDir string) (*bank.Bank, func(), error) {
	dbPath := filepath.Join(dataDir, "accounts")
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := accounts.NewBadgerDB(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return bank.NewBank(db), func() { db.Close() }, nil
}

func parsePubkey(name, value string) (types.Pubkey, error) {
	if value == "" {
		return types.Pubkey{}, fmt.Errorf("-%s is required", name)
	}
	pk, err := types.PubkeyFromBase58(value)
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("-%s: %w", name, err)
	}
	return pk, nil
}

// trailing appends the mandatory [config, system_program, payer] metas.
func trailing(metas []types.AccountMeta, payer types.Pubkey) []types.AccountMeta {
	return append(metas,
		types.AccountMeta{Pubkey: types.ConfigAccountID, IsWritable: true},
		types.AccountMeta{Pubkey: types.SystemProgramID},
		types.AccountMeta{Pubkey: payer, IsSigner: true, IsWritable: true},
	)
}

func report(result *bank.Result) {
	for _, msg := range result.Logs {
		log.Printf("log: %s", msg)
	}
	log.Printf("compute units: %d", result.ComputeUnits)
	log.Printf("delta hash: %s", result.DeltaHash)
}

func cmdInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	payerStr := fs.String("payer", "", "Payer pubkey (base58)")
	fs.Parse(args)

	payer, err := parsePubkey("payer", *payerStr)
	if err != nil {
		return err
	}

	b, closeDB, err := openBank(*dataDir)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := b.Allocate(types.ConfigAccountID, ledger.ConfigSize, types.NanotokenProgramID); err != nil {
		return err
	}

	result, err := b.Execute(bank.Invocation{
		Accounts: trailing(nil, payer),
		Data:     ledger.EncodeInitializeConfig(),
	})
	if err != nil {
		return err
	}
	report(result)
	log.Printf("config: %s", types.ConfigAccountID)
	return nil
}

func cmdCreateMint(args []string) error {
	fs := flag.NewFlagSet("create-mint", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	payerStr := fs.String("payer", "", "Payer pubkey (base58)")
	mintStr := fs.String("mint", "", "Mint account pubkey (base58)")
	authorityStr := fs.String("authority", "", "Mint authority pubkey (base58, empty = fixed supply)")
	decimals := fs.Uint64("decimals", 0, "Decimal precision")
	fs.Parse(args)

	payer, err := parsePubkey("payer", *payerStr)
	if err != nil {
		return err
	}
	mint, err := parsePubkey("mint", *mintStr)
	if err != nil {
		return err
	}
	var authority types.Pubkey
	if *authorityStr != "" {
		authority, err = parsePubkey("authority", *authorityStr)
		if err != nil {
			return err
		}
	}

	b, closeDB, err := openBank(*dataDir)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := b.Allocate(mint, ledger.MintSize, types.NanotokenProgramID); err != nil {
		return err
	}

	inst := ledger.InitializeMintArgs{Authority: authority, Decimals: *decimals}
	result, err := b.Execute(bank.Invocation{
		Accounts: trailing([]types.AccountMeta{
			{Pubkey: mint, IsWritable: true},
		}, payer),
		Data: inst.Encode(),
	})
	if err != nil {
		return err
	}
	report(result)
	log.Printf("mint: %s", mint)
	return nil
}

func cmdCreateVault(args []string) error {
	fs := flag.NewFlagSet("create-vault", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	payerStr := fs.String("payer", "", "Payer pubkey (base58)")
	extMintStr := fs.String("external-mint", "", "External mint pubkey (base58)")
	mintStr := fs.String("mint", "", "Native mint account pubkey (base58)")
	fs.Parse(args)

	payer, err := parsePubkey("payer", *payerStr)
	if err != nil {
		return err
	}
	extMint, err := parsePubkey("external-mint", *extMintStr)
	if err != nil {
		return err
	}
	mint, err := parsePubkey("mint", *mintStr)
	if err != nil {
		return err
	}

	b, closeDB, err := openBank(*dataDir)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := b.Allocate(mint, ledger.MintSize, types.NanotokenProgramID); err != nil {
		return err
	}

	result, err := b.Execute(bank.Invocation{
		Accounts: trailing([]types.AccountMeta{
			{Pubkey: extMint},
			{Pubkey: mint, IsWritable: true},
		}, payer),
		Data: ledger.EncodeInitializeVault(),
	})
	if err != nil {
		return err
	}
	report(result)
	authority, _ := ledger.FindVaultAuthority(extMint)
	log.Printf("mint: %s", mint)
	log.Printf("vault authority: %s", authority)
	return nil
}

func cmdCreateAccount(args []string) error {
	fs := flag.NewFlagSet("create-account", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	payerStr := fs.String("payer", "", "Payer pubkey (base58)")
	ownerStr := fs.String("owner", "", "Account owner pubkey (base58)")
	mintIndex := fs.Uint64("mint-index", 0, "Mint index")
	fs.Parse(args)

	payer, err := parsePubkey("payer", *payerStr)
	if err != nil {
		return err
	}
	owner, err := parsePubkey("owner", *ownerStr)
	if err != nil {
		return err
	}

	b, closeDB, err := openBank(*dataDir)
	if err != nil {
		return err
	}
	defer closeDB()

	address, bump := ledger.FindTokenAccountAddress(owner, *mintIndex)
	if err := b.Allocate(address, ledger.TokenAccountSize, types.NanotokenProgramID); err != nil {
		return err
	}

	inst := ledger.InitializeAccountArgs{Owner: owner, Mint: *mintIndex, Bump: uint64(bump)}
	result, err := b.Execute(bank.Invocation{
		Accounts: trailing([]types.AccountMeta{
			{Pubkey: address, IsWritable: true},
		}, payer),
		Data: inst.Encode(),
	})
	if err != nil {
		return err
	}
	report(result)
	log.Printf("token account: %s", address)
	return nil
}

func cmdMint(args []string) error {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	payerStr := fs.String("payer", "", "Payer pubkey (base58)")
	toStr := fs.String("to", "", "Destination token account pubkey (base58)")
	mintStr := fs.String("mint", "", "Mint account pubkey (base58)")
	authorityStr := fs.String("authority", "", "Mint authority pubkey (base58)")
	amount := fs.Uint64("amount", 0, "Amount to mint")
	fs.Parse(args)

	payer, err := parsePubkey("payer", *payerStr)
	if err != nil {
		return err
	}
	to, err := parsePubkey("to", *toStr)
	if err != nil {
		return err
	}
	mint, err := parsePubkey("mint", *mintStr)
	if err != nil {
		return err
	}
	authority, err := parsePubkey("authority", *authorityStr)
	if err != nil {
		return err
	}

	b, closeDB, err := openBank(*dataDir)
	if err != nil {
		return err
	}
	defer closeDB()

	result, err := b.Execute(bank.Invocation{
		Accounts: trailing([]types.AccountMeta{
			{Pubkey: to, IsWritable: true},
			{Pubkey: mint, IsWritable: true},
			{Pubkey: authority, IsSigner: true},
		}, payer),
		Data: ledger.EncodeAmount(ledger.TagMint, *amount),
	})
	if err != nil {
		return err
	}
	report(result)
	return nil
}

func cmdBurn(args []string) error {
	fs := flag.NewFlagSet("burn", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	payerStr := fs.String("payer", "", "Payer pubkey (base58)")
	fromStr := fs.String("from", "", "Source token account pubkey (base58)")
	mintStr := fs.String("mint", "", "Mint account pubkey (base58)")
	ownerStr := fs.String("owner", "", "Account owner pubkey (base58)")
	amount := fs.Uint64("amount", 0, "Amount to burn")
	fs.Parse(args)

	payer, err := parsePubkey("payer", *payerStr)
	if err != nil {
		return err
	}
	from, err := parsePubkey("from", *fromStr)
	if err != nil {
		return err
	}
	mint, err := parsePubkey("mint", *mintStr)
	if err != nil {
		return err
	}
	owner, err := parsePubkey("owner", *ownerStr)
	if err != nil {
		return err
	}

	b, closeDB, err := openBank(*dataDir)
	if err != nil {
		return err
	}
	defer closeDB()

	result, err := b.Execute(bank.Invocation{
		Accounts: trailing([]types.AccountMeta{
			{Pubkey: from, IsWritable: true},
			{Pubkey: mint, IsWritable: true},
			{Pubkey: owner, IsSigner: true},
		}, payer),
		Data: ledger.EncodeAmount(ledger.TagBurn, *amount),
	})
	if err != nil {
		return err
	}
	report(result)
	return nil
}

func cmdTransfer(args []string) error {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	payerStr := fs.String("payer", "", "Payer pubkey (base58)")
	fromStr := fs.String("from", "", "Source token account pubkey (base58)")
	toStr := fs.String("to", "", "Destination token account pubkey (base58)")
	ownerStr := fs.String("owner", "", "Source owner pubkey (base58)")
	amount := fs.Uint64("amount", 0, "Amount to transfer")
	fs.Parse(args)

	payer, err := parsePubkey("payer", *payerStr)
	if err != nil {
		return err
	}
	from, err := parsePubkey("from", *fromStr)
	if err != nil {
		return err
	}
	to, err := parsePubkey("to", *toStr)
	if err != nil {
		return err
	}
	owner, err := parsePubkey("owner", *ownerStr)
	if err != nil {
		return err
	}

	b, closeDB, err := openBank(*dataDir)
	if err != nil {
		return err
	}
	defer closeDB()

	result, err := b.Execute(bank.Invocation{
		Accounts: trailing([]types.AccountMeta{
			{Pubkey: from, IsWritable: true},
			{Pubkey: to, IsWritable: true},
			{Pubkey: owner, IsSigner: true},
		}, payer),
		Data: ledger.EncodeAmount(ledger.TagTransfer, *amount),
	})
	if err != nil {
		return err
	}
	report(result)
	return nil
}

func cmdTransmute(args []string) error {
	fs := flag.NewFlagSet("transmute", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	payerStr := fs.String("payer", "", "Payer pubkey (base58)")
	fromStr := fs.String("from", "", "Source account pubkey (base58)")
	toStr := fs.String("to", "", "Destination account pubkey (base58)")
	ownerStr := fs.String("owner", "", "Owner pubkey (base58)")
	extMintStr := fs.String("external-mint", "", "External mint pubkey (base58)")
	nativeMintStr := fs.String("native-mint", "", "Native mint account pubkey (base58)")
	amount := fs.Uint64("amount", 0, "Amount to bridge")
	fs.Parse(args)

	payer, err := parsePubkey("payer", *payerStr)
	if err != nil {
		return err
	}
	from, err := parsePubkey("from", *fromStr)
	if err != nil {
		return err
	}
	to, err := parsePubkey("to", *toStr)
	if err != nil {
		return err
	}
	owner, err := parsePubkey("owner", *ownerStr)
	if err != nil {
		return err
	}
	extMint, err := parsePubkey("external-mint", *extMintStr)
	if err != nil {
		return err
	}
	nativeMint, err := parsePubkey("native-mint", *nativeMintStr)
	if err != nil {
		return err
	}

	b, closeDB, err := openBank(*dataDir)
	if err != nil {
		return err
	}
	defer closeDB()

	result, err := b.Execute(bank.Invocation{
		Accounts: trailing([]types.AccountMeta{
			{Pubkey: from, IsWritable: true},
			{Pubkey: to, IsWritable: true},
			{Pubkey: owner, IsSigner: true},
			{Pubkey: extMint},
			{Pubkey: nativeMint, IsWritable: true},
		}, payer),
		Data: ledger.EncodeAmount(ledger.TagTransmute, *amount),
	})
	if err != nil {
		return err
	}
	report(result)
	return nil
}

func cmdSave(args []string) error {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	out := fs.String("out", "nanotoken-snapshot.tar.zst", "Output archive path")
	fs.Parse(args)

	b, closeDB, err := openBank(*dataDir)
	if err != nil {
		return err
	}
	defer closeDB()

	manifest, err := snapshot.Save(b.DB(), *out)
	if err != nil {
		return err
	}
	log.Printf("saved %d accounts to %s", manifest.AccountsCount, *out)
	log.Printf("accounts hash: %s", manifest.AccountsHash)
	return nil
}

func cmdRestore(args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	in := fs.String("in", "", "Input archive path")
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	b, closeDB, err := openBank(*dataDir)
	if err != nil {
		return err
	}
	defer closeDB()

	manifest, err := snapshot.Load(b.DB(), *in)
	if err != nil {
		return err
	}
	log.Printf("restored %d accounts from %s", manifest.AccountsCount, *in)
	log.Printf("accounts hash: %s", manifest.AccountsHash)
	return nil
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	rpcAddr := fs.String("rpc-addr", ":8899", "RPC listen address")
	metricsAddr := fs.String("metrics-addr", ":9090", "Metrics listen address")
	rateLimit := fs.Bool("rate-limit", false, "Enable per-IP rate limiting")
	fs.Parse(args)

	dbPath := filepath.Join(*dataDir, "accounts")
	db, err := accounts.NewBadgerDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.NewMetrics()

	collectors := metrics.NewCollectorManager()
	collectors.Add(metrics.NewRuntimeCollector(m, 15*time.Second))
	collectors.Add(metrics.NewDBCollector(m, db, dbPath, 30*time.Second))
	collectors.Start()
	defer collectors.Stop()

	metricsServer := metrics.NewServer(
		metrics.WithAddr(*metricsAddr),
		metrics.WithMetrics(m),
	)
	if err := metricsServer.Start(); err != nil {
		return err
	}
	log.Printf("metrics server listening on %s", metricsServer.Addr())

	config := rpc.DefaultServerConfig()
	config.Address = *rpcAddr
	config.EnableRateLimit = *rateLimit
	config.Logger = log.Default()
	rpcServer := rpc.NewServerWithConfig(config, db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("rpc server listening on %s", *rpcAddr)
	err = rpcServer.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if stopErr := metricsServer.Stop(shutdownCtx); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}

func cmdShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./nanotoken-data", "Data directory")
	accountStr := fs.String("account", "", "Account pubkey (base58)")
	fs.Parse(args)

	pubkey, err := parsePubkey("account", *accountStr)
	if err != nil {
		return err
	}

	b, closeDB, err := openBank(*dataDir)
	if err != nil {
		return err
	}
	defer closeDB()

	account, err := b.DB().GetAccount(pubkey)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("account %s does not exist", pubkey)
	}

	fmt.Printf("account: %s\n", pubkey)
	fmt.Printf("owner:   %s\n", account.Owner)
	fmt.Printf("size:    %d\n", len(account.Data))

	if len(account.Data) == 0 {
		fmt.Println("kind:    empty")
		return nil
	}
	switch account.Data[0] {
	case ledger.DiscriminantConfig:
		v, err := ledger.LoadConfig(account.Data)
		if err != nil {
			return err
		}
		fmt.Println("kind:    config")
		fmt.Printf("mints:   %d\n", v.MintIndex())
	case ledger.DiscriminantMint:
		v, err := ledger.LoadMint(account.Data)
		if err != nil {
			return err
		}
		fmt.Println("kind:    mint")
		fmt.Printf("index:     %d\n", v.MintIndex())
		fmt.Printf("authority: %s\n", v.Authority())
		fmt.Printf("supply:    %d\n", v.Supply())
		fmt.Printf("decimals:  %d\n", v.Decimals())
	case ledger.DiscriminantToken:
		v, err := ledger.LoadTokenAccount(account.Data)
		if err != nil {
			return err
		}
		fmt.Println("kind:    token account")
		fmt.Printf("holder:  %s\n", v.Owner())
		fmt.Printf("mint:    %d\n", v.MintIndex())
		fmt.Printf("balance: %d\n", v.Balance())
	default:
		fmt.Println("kind:    uninitialized")
	}
	return nil
}
