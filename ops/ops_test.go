package ops

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/tos-network/ctoken/crypto/authenc"
	"github.com/tos-network/ctoken/crypto/elgamal"
	"github.com/tos-network/ctoken/solclient"
	"github.com/tos-network/ctoken/token"
	"github.com/tos-network/ctoken/zkproof"
)

type fakeChain struct {
	accounts   map[solana.PublicKey]*solclient.AccountInfo
	minBalance uint64
	sent       []*solana.Transaction
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		accounts:   make(map[solana.PublicKey]*solclient.AccountInfo),
		minBalance: 2_039_280,
	}
}

func (f *fakeChain) Account(ctx context.Context, key solana.PublicKey) (*solclient.AccountInfo, error) {
	info, ok := f.accounts[key]
	if !ok {
		return nil, solclient.ErrAccountNotFound
	}
	return info, nil
}

func (f *fakeChain) MinimumBalance(ctx context.Context, size uint64) (uint64, error) {
	return f.minBalance, nil
}

func (f *fakeChain) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func (f *fakeChain) SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	f.sent = append(f.sent, tx)
	return solana.Signature{7}, nil
}

type captureSink struct {
	events []Event
}

func (s *captureSink) Emit(e Event) { s.events = append(s.events, e) }

func (s *captureSink) warnings() []Event {
	var out []Event
	for _, e := range s.events {
		if e.Kind == KindWarning {
			out = append(out, e)
		}
	}
	return out
}

// Fixture packing mirrors the on-chain layouts.

func packMintData(decimals uint8, confidential bool) []byte {
	data := make([]byte, token.BaseMintSize)
	binary.LittleEndian.PutUint32(data[0:4], 1)
	data[44] = decimals
	data[45] = 1
	if !confidential {
		return data
	}
	padded := make([]byte, token.BaseAccountSize)
	copy(padded, data)
	padded = append(padded, byte(token.AccountTypeMint))
	var header [4]byte
	binary.LittleEndian.PutUint16(header[0:2], uint16(token.ExtensionConfidentialTransferMint))
	binary.LittleEndian.PutUint16(header[2:4], token.ConfidentialTransferMintSize)
	padded = append(padded, header[:]...)
	value := make([]byte, token.ConfidentialTransferMintSize)
	value[32] = 1 // auto-approve
	return append(padded, value...)
}

func packAccountData(mint, owner solana.PublicKey, amount uint64, ext *token.ConfidentialTransferAccount) []byte {
	data := make([]byte, token.BaseAccountSize)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = 1 // initialized
	if ext == nil {
		return data
	}
	data = append(data, byte(token.AccountTypeAccount))
	var header [4]byte
	binary.LittleEndian.PutUint16(header[0:2], uint16(token.ExtensionConfidentialTransferAccount))
	binary.LittleEndian.PutUint16(header[2:4], token.ConfidentialTransferAccountSize)
	data = append(data, header[:]...)

	value := make([]byte, 0, token.ConfidentialTransferAccountSize)
	value = append(value, b2b(ext.Approved))
	value = append(value, ext.ElGamalPubkey[:]...)
	lo := ext.PendingBalanceLo.Bytes()
	hi := ext.PendingBalanceHi.Bytes()
	avail := ext.AvailableBalance.Bytes()
	value = append(value, lo[:]...)
	value = append(value, hi[:]...)
	value = append(value, avail[:]...)
	value = append(value, ext.DecryptableAvailableBalance[:]...)
	value = append(value, b2b(ext.AllowConfidentialCredits), b2b(ext.AllowNonConfidentialCredits))
	value = appendU64(value, ext.PendingBalanceCreditCounter)
	value = appendU64(value, ext.MaximumPendingBalanceCreditCounter)
	value = appendU64(value, ext.ExpectedPendingBalanceCreditCounter)
	value = appendU64(value, ext.ActualPendingBalanceCreditCounter)
	return append(data, value...)
}

func b2b(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func appendU64(data []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(data, buf[:]...)
}

// testEnv wires a payer, chain, mint, and one configured token account
// whose confidential keys derive from the payer.
type testEnv struct {
	env     *Env
	chain   *fakeChain
	sink    *captureSink
	mint    solana.PublicKey
	account solana.PublicKey
	kp      *elgamal.Keypair
	aeKey   authenc.Key
}

func newTestEnv(t *testing.T, publicAmount, pending, available uint64) *testEnv {
	t.Helper()
	payer := solana.NewWallet()
	mintAddr := solana.NewWallet().PublicKey()
	accountAddr := solana.NewWallet().PublicKey()

	kp, aeKey, err := deriveAccountKeys(payer.PrivateKey)
	if err != nil {
		t.Fatalf("deriveAccountKeys: %v", err)
	}

	ext := &token.ConfidentialTransferAccount{
		Approved:                           true,
		ElGamalPubkey:                      kp.Public(),
		AllowConfidentialCredits:           true,
		AllowNonConfidentialCredits:        true,
		MaximumPendingBalanceCreditCounter: ^uint64(0),
	}
	if pending > 0 {
		lo, _, err := kp.Public().Encrypt(pending & 0xFFFF)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		hi, _, err := kp.Public().Encrypt(pending >> 16)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		ext.PendingBalanceLo = lo
		ext.PendingBalanceHi = hi
		ext.PendingBalanceCreditCounter = 1
	}
	if available > 0 {
		availCt, _, err := kp.Public().Encrypt(available)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		ext.AvailableBalance = availCt
		decryptable, err := aeKey.Encrypt(available)
		if err != nil {
			t.Fatalf("authenc Encrypt: %v", err)
		}
		ext.DecryptableAvailableBalance = decryptable
	}

	chain := newFakeChain()
	chain.accounts[mintAddr] = &solclient.AccountInfo{
		Owner: token.ProgramID,
		Data:  packMintData(0, true),
	}
	chain.accounts[accountAddr] = &solclient.AccountInfo{
		Owner: token.ProgramID,
		Data:  packAccountData(mintAddr, payer.PublicKey(), publicAmount, ext),
	}

	sink := &captureSink{}
	return &testEnv{
		env:     &Env{Chain: chain, Payer: payer.PrivateKey, Sink: sink},
		chain:   chain,
		sink:    sink,
		mint:    mintAddr,
		account: accountAddr,
		kp:      kp,
		aeKey:   aeKey,
	}
}

func sentInstructionPrograms(t *testing.T, tx *solana.Transaction) []solana.PublicKey {
	t.Helper()
	var out []solana.PublicKey
	for _, ix := range tx.Message.Instructions {
		prog, err := tx.Message.Program(ix.ProgramIDIndex)
		if err != nil {
			t.Fatalf("Program: %v", err)
		}
		out = append(out, prog)
	}
	return out
}

func TestCreateMint(t *testing.T) {
	payer := solana.NewWallet()
	chain := newFakeChain()
	env := &Env{Chain: chain, Payer: payer.PrivateKey}

	mintKeypair := solana.NewWallet()
	res, err := env.CreateMint(context.Background(), CreateMintParams{
		MintKeypair: mintKeypair.PrivateKey,
		Decimals:    6,
	})
	if err != nil {
		t.Fatalf("CreateMint: %v", err)
	}
	if !res.Mint.Equals(mintKeypair.PublicKey()) {
		t.Fatalf("mint = %s", res.Mint)
	}
	if len(chain.sent) != 1 {
		t.Fatalf("sent %d transactions, want 1", len(chain.sent))
	}
	progs := sentInstructionPrograms(t, chain.sent[0])
	if len(progs) != 3 {
		t.Fatalf("instructions = %d, want 3", len(progs))
	}
	if !progs[0].Equals(solana.SystemProgramID) || !progs[1].Equals(token.ProgramID) || !progs[2].Equals(token.ProgramID) {
		t.Fatalf("program order = %v", progs)
	}
}

func TestCreateAccount(t *testing.T) {
	te := newTestEnv(t, 0, 0, 0)
	accountKeypair := solana.NewWallet()

	res, err := te.env.CreateAccount(context.Background(), CreateAccountParams{
		Mint:           te.mint,
		AccountKeypair: accountKeypair.PrivateKey,
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if !res.Account.Equals(accountKeypair.PublicKey()) {
		t.Fatalf("account = %s", res.Account)
	}
	tx := te.chain.sent[len(te.chain.sent)-1]
	progs := sentInstructionPrograms(t, tx)
	if len(progs) != 4 {
		t.Fatalf("instructions = %d, want 4", len(progs))
	}
	// create, initialize, verify proof, configure: proof directly before
	// the configure instruction.
	if !progs[2].Equals(zkproof.ProgramID) {
		t.Fatalf("instruction 2 targets %s, want proof program", progs[2])
	}
	if !progs[3].Equals(token.ProgramID) {
		t.Fatalf("instruction 3 targets %s, want token program", progs[3])
	}
}

func TestCreateAccountRejectsNonConfidentialMint(t *testing.T) {
	te := newTestEnv(t, 0, 0, 0)
	plainMint := solana.NewWallet().PublicKey()
	te.chain.accounts[plainMint] = &solclient.AccountInfo{
		Owner: token.ProgramID,
		Data:  packMintData(0, false),
	}
	_, err := te.env.CreateAccount(context.Background(), CreateAccountParams{
		Mint:           plainMint,
		AccountKeypair: solana.NewWallet().PrivateKey,
	})
	if !errors.Is(err, token.ErrMissingExtension) {
		t.Fatalf("err = %v, want ErrMissingExtension", err)
	}
}

func TestDeposit(t *testing.T) {
	te := newTestEnv(t, 1000, 0, 0)
	res, err := te.env.Deposit(context.Background(), DepositParams{
		Account: te.account,
		Amount:  600,
	})
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if res.Signature.IsZero() {
		t.Fatal("missing signature")
	}
	if len(te.chain.sent) != 1 {
		t.Fatalf("sent %d transactions, want 1", len(te.chain.sent))
	}
	if got := len(te.chain.sent[0].Message.Instructions); got != 1 {
		t.Fatalf("instructions = %d, want 1", got)
	}
}

func TestDepositInsufficientPublicBalance(t *testing.T) {
	te := newTestEnv(t, 100, 0, 0)
	_, err := te.env.Deposit(context.Background(), DepositParams{
		Account: te.account,
		Amount:  101,
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if len(te.chain.sent) != 0 {
		t.Fatal("nothing must be submitted")
	}
}

func TestDepositAmountTooWide(t *testing.T) {
	te := newTestEnv(t, ^uint64(0), 0, 0)
	_, err := te.env.Deposit(context.Background(), DepositParams{
		Account: te.account,
		Amount:  uint64(1) << 48,
	})
	if !errors.Is(err, ErrAmountOutOfRange) {
		t.Fatalf("err = %v, want ErrAmountOutOfRange", err)
	}
}

func TestApplyPendingBalance(t *testing.T) {
	te := newTestEnv(t, 0, 70000, 500)
	res, err := te.env.ApplyPendingBalance(context.Background(), ApplyPendingBalanceParams{Account: te.account})
	if err != nil {
		t.Fatalf("ApplyPendingBalance: %v", err)
	}
	if res.NoOp {
		t.Fatal("pending balance present, must not be a no-op")
	}
	if res.Applied != 70000 {
		t.Fatalf("applied = %d, want 70000", res.Applied)
	}
	if res.NewAvailable != 70500 {
		t.Fatalf("new available = %d, want 70500", res.NewAvailable)
	}
	if len(te.chain.sent) != 1 {
		t.Fatalf("sent %d transactions, want 1", len(te.chain.sent))
	}
}

func TestApplyPendingBalanceNoOp(t *testing.T) {
	te := newTestEnv(t, 0, 0, 300)
	res, err := te.env.ApplyPendingBalance(context.Background(), ApplyPendingBalanceParams{Account: te.account})
	if err != nil {
		t.Fatalf("ApplyPendingBalance: %v", err)
	}
	if !res.NoOp {
		t.Fatal("zero pending balance must be a no-op")
	}
	if res.NewAvailable != 300 {
		t.Fatalf("new available = %d, want 300", res.NewAvailable)
	}
	if len(te.chain.sent) != 0 {
		t.Fatal("no-op must not submit a transaction")
	}
}

func TestWithdraw(t *testing.T) {
	te := newTestEnv(t, 0, 0, 1000)
	res, err := te.env.Withdraw(context.Background(), WithdrawParams{
		Account: te.account,
		Amount:  400,
	})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if res.Remaining != 600 {
		t.Fatalf("remaining = %d, want 600", res.Remaining)
	}
	tx := te.chain.sent[len(te.chain.sent)-1]
	progs := sentInstructionPrograms(t, tx)
	if len(progs) != 3 {
		t.Fatalf("instructions = %d, want 3", len(progs))
	}
	if !progs[0].Equals(zkproof.ProgramID) || !progs[1].Equals(zkproof.ProgramID) {
		t.Fatalf("first two instructions must be proof verifications, got %v", progs)
	}
	if !progs[2].Equals(token.ProgramID) {
		t.Fatalf("last instruction targets %s, want token program", progs[2])
	}
}

func TestWithdrawInsufficient(t *testing.T) {
	te := newTestEnv(t, 0, 0, 100)
	_, err := te.env.Withdraw(context.Background(), WithdrawParams{
		Account: te.account,
		Amount:  101,
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if len(te.chain.sent) != 0 {
		t.Fatal("nothing must be submitted")
	}
}

func TestBalance(t *testing.T) {
	te := newTestEnv(t, 250, 70000, 1234)
	report, err := te.env.Balance(context.Background(), BalanceParams{Account: te.account})
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if report.PendingRaw != 70000 {
		t.Fatalf("pending = %d, want 70000", report.PendingRaw)
	}
	if report.AvailableRaw != 1234 {
		t.Fatalf("available = %d, want 1234", report.AvailableRaw)
	}
	if report.PublicRaw != 250 {
		t.Fatalf("public = %d, want 250", report.PublicRaw)
	}
	if len(te.sink.warnings()) != 0 {
		t.Fatalf("unexpected warnings: %v", te.sink.warnings())
	}
}

func TestBalanceWarnsOnCreditCounter(t *testing.T) {
	payer := solana.NewWallet()
	mintAddr := solana.NewWallet().PublicKey()
	accountAddr := solana.NewWallet().PublicKey()
	kp, _, err := deriveAccountKeys(payer.PrivateKey)
	if err != nil {
		t.Fatalf("deriveAccountKeys: %v", err)
	}
	ext := &token.ConfidentialTransferAccount{
		Approved:                           true,
		ElGamalPubkey:                      kp.Public(),
		PendingBalanceCreditCounter:        40,
		MaximumPendingBalanceCreditCounter: 64,
	}
	chain := newFakeChain()
	chain.accounts[mintAddr] = &solclient.AccountInfo{Owner: token.ProgramID, Data: packMintData(0, true)}
	chain.accounts[accountAddr] = &solclient.AccountInfo{Owner: token.ProgramID, Data: packAccountData(mintAddr, payer.PublicKey(), 0, ext)}
	sink := &captureSink{}
	env := &Env{Chain: chain, Payer: payer.PrivateKey, Sink: sink}

	if _, err := env.Balance(context.Background(), BalanceParams{Account: accountAddr}); err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if len(sink.warnings()) == 0 {
		t.Fatal("credit counter past half maximum must warn")
	}
}

func TestBalanceRejectsForeignOwner(t *testing.T) {
	te := newTestEnv(t, 0, 0, 0)
	te.chain.accounts[te.account].Owner = solana.SystemProgramID
	_, err := te.env.Balance(context.Background(), BalanceParams{Account: te.account})
	if !errors.Is(err, token.ErrWrongProgram) {
		t.Fatalf("err = %v, want ErrWrongProgram", err)
	}
}

func TestTransferStopsAtProofGeneration(t *testing.T) {
	te := newTestEnv(t, 0, 0, 5000)
	dest := solana.NewWallet().PublicKey()
	destKp, _, err := deriveAccountKeys(solana.NewWallet().PrivateKey)
	if err != nil {
		t.Fatalf("deriveAccountKeys: %v", err)
	}
	te.chain.accounts[dest] = &solclient.AccountInfo{
		Owner: token.ProgramID,
		Data: packAccountData(te.mint, solana.NewWallet().PublicKey(), 0, &token.ConfidentialTransferAccount{
			Approved:      true,
			ElGamalPubkey: destKp.Public(),
		}),
	}

	err = te.env.Transfer(context.Background(), TransferParams{
		Source:      te.account,
		Destination: dest,
		Amount:      100,
	})
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("err = %v, want ErrUnsupportedOperation", err)
	}
	if len(te.chain.sent) != 0 {
		t.Fatal("transfer must not submit a transaction")
	}
}

func TestTransferMintMismatch(t *testing.T) {
	te := newTestEnv(t, 0, 0, 5000)
	otherMint := solana.NewWallet().PublicKey()
	te.chain.accounts[otherMint] = &solclient.AccountInfo{Owner: token.ProgramID, Data: packMintData(0, true)}
	dest := solana.NewWallet().PublicKey()
	te.chain.accounts[dest] = &solclient.AccountInfo{
		Owner: token.ProgramID,
		Data: packAccountData(otherMint, solana.NewWallet().PublicKey(), 0, &token.ConfidentialTransferAccount{
			Approved: true,
		}),
	}

	err := te.env.Transfer(context.Background(), TransferParams{
		Source:      te.account,
		Destination: dest,
		Amount:      1,
	})
	if !errors.Is(err, ErrMintMismatch) {
		t.Fatalf("err = %v, want ErrMintMismatch", err)
	}
}

func TestTransferInsufficient(t *testing.T) {
	te := newTestEnv(t, 0, 0, 10)
	dest := solana.NewWallet().PublicKey()
	te.chain.accounts[dest] = &solclient.AccountInfo{
		Owner: token.ProgramID,
		Data: packAccountData(te.mint, solana.NewWallet().PublicKey(), 0, &token.ConfidentialTransferAccount{
			Approved: true,
		}),
	}
	err := te.env.Transfer(context.Background(), TransferParams{
		Source:      te.account,
		Destination: dest,
		Amount:      11,
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

// The deposit instruction must carry the caller's amount as raw base
// units, untouched by the mint's decimals.
func TestDepositEncodesRawAmount(t *testing.T) {
	te := newTestEnv(t, 10_000, 0, 0)
	te.chain.accounts[te.mint].Data = packMintData(6, true)

	if _, err := te.env.Deposit(context.Background(), DepositParams{
		Account: te.account,
		Amount:  1000,
	}); err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	data := []byte(te.chain.sent[0].Message.Instructions[0].Data)
	if len(data) != 11 {
		t.Fatalf("instruction data = %d bytes, want 11", len(data))
	}
	if got := binary.LittleEndian.Uint64(data[2:10]); got != 1000 {
		t.Fatalf("encoded amount = %d, want 1000", got)
	}
	if data[10] != 6 {
		t.Fatalf("encoded decimals = %d, want 6", data[10])
	}
}

func TestCreateMintCustomAuthority(t *testing.T) {
	payer := solana.NewWallet()
	authority := solana.NewWallet().PublicKey()
	chain := newFakeChain()
	env := &Env{Chain: chain, Payer: payer.PrivateKey}

	res, err := env.CreateMint(context.Background(), CreateMintParams{
		MintKeypair: solana.NewWallet().PrivateKey,
		Decimals:    2,
		Authority:   authority,
	})
	if err != nil {
		t.Fatalf("CreateMint: %v", err)
	}
	if !res.Authority.Equals(authority) {
		t.Fatalf("authority = %s, want %s", res.Authority, authority)
	}
	// The base initializer records the authority in its data.
	data := []byte(chain.sent[0].Message.Instructions[2].Data)
	if got := solana.PublicKeyFromBytes(data[2:34]); !got.Equals(authority) {
		t.Fatalf("encoded mint authority = %s, want %s", got, authority)
	}
}

func TestCreateAccountCustomOwner(t *testing.T) {
	te := newTestEnv(t, 0, 0, 0)
	owner := solana.NewWallet()
	accountKeypair := solana.NewWallet()

	res, err := te.env.CreateAccount(context.Background(), CreateAccountParams{
		Mint:           te.mint,
		AccountKeypair: accountKeypair.PrivateKey,
		Owner:          owner.PrivateKey,
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if !res.Owner.Equals(owner.PublicKey()) {
		t.Fatalf("owner = %s, want %s", res.Owner, owner.PublicKey())
	}
	ownerKp, _, err := deriveAccountKeys(owner.PrivateKey)
	if err != nil {
		t.Fatalf("deriveAccountKeys: %v", err)
	}
	if want := solana.PublicKey(ownerKp.Public()).String(); res.ElGamalPubkey != want {
		t.Fatal("account keys must derive from the owner's wallet, not the payer's")
	}
	// Payer, account, and owner all sign.
	tx := te.chain.sent[len(te.chain.sent)-1]
	if got := len(tx.Signatures); got != 3 {
		t.Fatalf("signatures = %d, want 3", got)
	}
}

// The encryption keys are a pure function of the wallet: recoverable
// anywhere from the keypair file alone, with no per-account salt.
func TestDeriveAccountKeysWalletOnly(t *testing.T) {
	wallet := solana.NewWallet()
	kp1, ae1, err := deriveAccountKeys(wallet.PrivateKey)
	if err != nil {
		t.Fatalf("deriveAccountKeys: %v", err)
	}
	kp2, ae2, err := deriveAccountKeys(wallet.PrivateKey)
	if err != nil {
		t.Fatalf("deriveAccountKeys: %v", err)
	}
	if kp1.Public() != kp2.Public() || ae1 != ae2 {
		t.Fatal("derivation must be deterministic per wallet")
	}
	otherKp, otherAe, err := deriveAccountKeys(solana.NewWallet().PrivateKey)
	if err != nil {
		t.Fatalf("deriveAccountKeys: %v", err)
	}
	if otherKp.Public() == kp1.Public() || otherAe == ae1 {
		t.Fatal("distinct wallets must derive distinct keys")
	}
}
