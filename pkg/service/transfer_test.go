package service

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cypherd_wallet_back/models"
	"cypherd_wallet_back/pkg/approvals"
	"cypherd_wallet_back/pkg/repository"
)

const recipientAddr = "0x742d35Cc6634C0532925a3b8D4C9db96c728b0B4"

// ---- fakes ----

type fakeWalletRepo struct {
	mu      sync.Mutex
	wallets map[string]models.Wallet
	txs     []models.Transaction
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{wallets: make(map[string]models.Wallet)}
}

func (f *fakeWalletRepo) CreateWallet(w models.Wallet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wallets[strings.ToLower(w.Address)] = w
	return nil
}

func (f *fakeWalletRepo) GetWallet(address string) (models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[strings.ToLower(address)]
	if !ok {
		return models.Wallet{}, repository.ErrNotFound
	}
	return w, nil
}

func (f *fakeWalletRepo) GetWalletByUser(userID int64) (models.Wallet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, w := range f.wallets {
		if w.UserID != nil && *w.UserID == userID {
			return w, nil
		}
	}
	return models.Wallet{}, repository.ErrNotFound
}

func (f *fakeWalletRepo) Transfer(sender, recipient string, amountWei *big.Int, rec models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.wallets[strings.ToLower(sender)]
	if !ok {
		return repository.ErrNotFound
	}
	r, ok := f.wallets[strings.ToLower(recipient)]
	if !ok {
		r = models.Wallet{Address: recipient, BalanceWei: models.NewWei(big.NewInt(0)), CreatedAt: time.Now().Unix()}
	}
	if s.BalanceWei.Cmp(amountWei) < 0 {
		return repository.ErrInsufficientFunds
	}
	s.BalanceWei = models.NewWei(new(big.Int).Sub(s.BalanceWei.BigInt(), amountWei))
	r.BalanceWei = models.NewWei(new(big.Int).Add(r.BalanceWei.BigInt(), amountWei))
	f.wallets[strings.ToLower(sender)] = s
	f.wallets[strings.ToLower(recipient)] = r
	f.txs = append(f.txs, rec)
	return nil
}

func (f *fakeWalletRepo) ListTransactions(address string) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for i := len(f.txs) - 1; i >= 0; i-- {
		tx := f.txs[i]
		if strings.EqualFold(tx.Sender, address) || strings.EqualFold(tx.Recipient, address) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeWalletRepo) balance(address string) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.wallets[strings.ToLower(address)]
	if !ok {
		return big.NewInt(0)
	}
	return w.BalanceWei.BigInt()
}

func (f *fakeWalletRepo) totalSupply() *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := new(big.Int)
	for _, w := range f.wallets {
		sum.Add(sum, w.BalanceWei.BigInt())
	}
	return sum
}

type fakeUserRepo struct{}

func (fakeUserRepo) CreateUser(string, string) (int64, error) { return 0, nil }
func (fakeUserRepo) GetUserByEmail(string) (models.User, error) {
	return models.User{}, repository.ErrNotFound
}
func (fakeUserRepo) GetUserByID(id int64) (models.User, error) {
	return models.User{ID: id, Email: "user@example.com"}, nil
}

type fakeOracle struct {
	mu     sync.Mutex
	quotes []*big.Int
}

func (o *fakeOracle) QuoteUSDCents(_ context.Context, usdCents int64) *big.Int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.quotes) > 0 {
		q := o.quotes[0]
		o.quotes = o.quotes[1:]
		return q
	}
	// default: fixed 3000 USD/ETH
	wei := new(big.Int).Mul(big.NewInt(usdCents), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	return wei.Div(wei, big.NewInt(300_000))
}

type recordNotifier struct {
	sent chan string
}

func (n *recordNotifier) Send(toEmail, subject, body string) {
	n.sent <- toEmail + "|" + subject + "|" + body
}

// ---- helpers ----

type fixture struct {
	svc      *TransferService
	repo     *fakeWalletRepo
	oracle   *fakeOracle
	notifier *recordNotifier
	store    *approvals.Store

	senderAddr string
	signFn     func(message string) string
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()

	repo := newFakeWalletRepo()
	uid := int64(1)
	fiveEth, _ := new(big.Int).SetString("5000000000000000000", 10)
	require.NoError(t, repo.CreateWallet(models.Wallet{
		Address:    addr,
		UserID:     &uid,
		BalanceWei: models.NewWei(fiveEth),
		CreatedAt:  time.Now().Unix(),
	}))

	oracle := &fakeOracle{}
	notifier := &recordNotifier{sent: make(chan string, 8)}
	store := approvals.NewStore(ttl)
	svc := NewTransferService(repo, fakeUserRepo{}, store, oracle, notifier)

	return &fixture{
		svc:        svc,
		repo:       repo,
		oracle:     oracle,
		notifier:   notifier,
		store:      store,
		senderAddr: addr,
		signFn: func(message string) string {
			sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
			require.NoError(t, err)
			sig[64] += 27 // wallet convention
			return hexutil.Encode(sig)
		},
	}
}

// ---- tests ----

func TestPrepareExecute_ETHEndToEnd(t *testing.T) {
	f := newFixture(t, approvals.DefaultTTL)
	ctx := context.Background()

	resp, err := f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
		Recipient:   recipientAddr,
		AmountInput: "1.5",
		Unit:        "ETH",
	})
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", resp.AmountWei)
	assert.Equal(t, "1.500000", resp.AmountEth)
	assert.Nil(t, resp.USDAmount)
	assert.Contains(t, resp.Message, "APPROVAL_ID:"+resp.ApprovalID)
	assert.Contains(t, resp.Message, "SENDER:"+f.senderAddr)
	assert.Contains(t, resp.Message, "RECIPIENT:"+recipientAddr)
	assert.Contains(t, resp.Message, "AMOUNT_WEI:1500000000000000000")

	supplyBefore := f.repo.totalSupply()

	err = f.svc.Execute(ctx, 1, models.ExecuteTransferInput{
		ApprovalID: resp.ApprovalID,
		Signature:  f.signFn(resp.Message),
	})
	require.NoError(t, err)

	assert.Equal(t, "3500000000000000000", f.repo.balance(f.senderAddr).String())
	assert.Equal(t, "1500000000000000000", f.repo.balance(recipientAddr).String())
	assert.Zero(t, supplyBefore.Cmp(f.repo.totalSupply()), "transfer must conserve total balance")

	txs, err := f.repo.ListTransactions(f.senderAddr)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "1.500000", txs[0].AmountEth)
	assert.Equal(t, "1500000000000000000", txs[0].AmountWei.String())
	assert.Nil(t, txs[0].USDAmount)

	select {
	case msg := <-f.notifier.sent:
		assert.Contains(t, msg, "user@example.com")
		assert.Contains(t, msg, "1.500000 ETH")
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification")
	}
}

func TestPrepare_USDUsesOracleAndFallbackRate(t *testing.T) {
	f := newFixture(t, approvals.DefaultTTL)

	resp, err := f.svc.Prepare(context.Background(), 1, models.PrepareTransferInput{
		Recipient:   recipientAddr,
		AmountInput: "100",
		Unit:        "USD",
	})
	require.NoError(t, err)

	// 100 USD at 3000 USD/ETH
	assert.Equal(t, "33333333333333333", resp.AmountWei)
	assert.Equal(t, "0.033333", resp.AmountEth)
	require.NotNil(t, resp.USDAmount)
	assert.Equal(t, "100.00", *resp.USDAmount)

	a, ok := f.store.Consume(resp.ApprovalID)
	require.True(t, ok)
	assert.True(t, a.WasUSD)
	assert.Equal(t, int64(10000), a.USDAmountCents)
}

func TestPrepare_Rejections(t *testing.T) {
	f := newFixture(t, approvals.DefaultTTL)
	ctx := context.Background()

	_, err := f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
		Recipient: "not-an-address", AmountInput: "1", Unit: "ETH",
	})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	for _, amount := range []string{"abc", "-1", "0", ""} {
		_, err = f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
			Recipient: recipientAddr, AmountInput: amount, Unit: "ETH",
		})
		assert.ErrorIs(t, err, ErrInvalidAmount, "amount %q", amount)

		_, err = f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
			Recipient: recipientAddr, AmountInput: amount, Unit: "USD",
		})
		assert.ErrorIs(t, err, ErrInvalidAmount, "usd amount %q", amount)
	}

	// user without a wallet
	_, err = f.svc.Prepare(ctx, 99, models.PrepareTransferInput{
		Recipient: recipientAddr, AmountInput: "1", Unit: "ETH",
	})
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestExecute_InvalidSignatureLeavesBalancesUntouched(t *testing.T) {
	f := newFixture(t, approvals.DefaultTTL)
	ctx := context.Background()

	resp, err := f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
		Recipient: recipientAddr, AmountInput: "1.5", Unit: "ETH",
	})
	require.NoError(t, err)

	// signed by someone else entirely
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := crypto.Sign(accounts.TextHash([]byte(resp.Message)), otherKey)
	require.NoError(t, err)

	err = f.svc.Execute(ctx, 1, models.ExecuteTransferInput{
		ApprovalID: resp.ApprovalID,
		Signature:  hexutil.Encode(sig),
	})
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Equal(t, "5000000000000000000", f.repo.balance(f.senderAddr).String())
	assert.Equal(t, "0", f.repo.balance(recipientAddr).String())

	// garbage signature is a rejection too, not a crash
	resp2, err := f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
		Recipient: recipientAddr, AmountInput: "1.5", Unit: "ETH",
	})
	require.NoError(t, err)
	err = f.svc.Execute(ctx, 1, models.ExecuteTransferInput{
		ApprovalID: resp2.ApprovalID,
		Signature:  "0xdeadbeef",
	})
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestExecute_ReplayIsRejected(t *testing.T) {
	f := newFixture(t, approvals.DefaultTTL)
	ctx := context.Background()

	resp, err := f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
		Recipient: recipientAddr, AmountInput: "1", Unit: "ETH",
	})
	require.NoError(t, err)
	sig := f.signFn(resp.Message)

	require.NoError(t, f.svc.Execute(ctx, 1, models.ExecuteTransferInput{ApprovalID: resp.ApprovalID, Signature: sig}))

	err = f.svc.Execute(ctx, 1, models.ExecuteTransferInput{ApprovalID: resp.ApprovalID, Signature: sig})
	assert.ErrorIs(t, err, ErrApprovalExpired)

	// only one settlement happened
	assert.Equal(t, "4000000000000000000", f.repo.balance(f.senderAddr).String())
}

func TestExecute_ConcurrentDoubleSubmit(t *testing.T) {
	f := newFixture(t, approvals.DefaultTTL)
	ctx := context.Background()

	resp, err := f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
		Recipient: recipientAddr, AmountInput: "1", Unit: "ETH",
	})
	require.NoError(t, err)
	sig := f.signFn(resp.Message)

	const submitters = 8
	var wg sync.WaitGroup
	results := make(chan error, submitters)
	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- f.svc.Execute(ctx, 1, models.ExecuteTransferInput{ApprovalID: resp.ApprovalID, Signature: sig})
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrApprovalExpired)
			rejections++
		}
	}
	assert.Equal(t, 1, successes, "exactly one double-submit may settle")
	assert.Equal(t, submitters-1, rejections)
	assert.Equal(t, "4000000000000000000", f.repo.balance(f.senderAddr).String())
}

func TestExecute_ExpiredApproval(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	ctx := context.Background()

	resp, err := f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
		Recipient: recipientAddr, AmountInput: "1", Unit: "ETH",
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	err = f.svc.Execute(ctx, 1, models.ExecuteTransferInput{
		ApprovalID: resp.ApprovalID,
		Signature:  f.signFn(resp.Message),
	})
	assert.ErrorIs(t, err, ErrApprovalExpired)
	assert.Equal(t, "5000000000000000000", f.repo.balance(f.senderAddr).String())
}

func TestExecute_SlippageBoundary(t *testing.T) {
	oneEth, _ := new(big.Int).SetString("1000000000000000000", 10)
	onePct := new(big.Int).Div(oneEth, big.NewInt(100))

	cases := []struct {
		name    string
		requote *big.Int
		wantErr error
	}{
		{"exactly 1% up is allowed", new(big.Int).Add(oneEth, onePct), nil},
		{"exactly 1% down is allowed", new(big.Int).Sub(oneEth, onePct), nil},
		{"just over 1% is rejected", new(big.Int).Add(oneEth, new(big.Int).Add(onePct, big.NewInt(1))), ErrPriceSlippage},
		{"way over 1% is rejected", new(big.Int).Mul(oneEth, big.NewInt(2)), ErrPriceSlippage},
		{"unchanged is allowed", new(big.Int).Set(oneEth), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, approvals.DefaultTTL)
			ctx := context.Background()

			// prepare quote: 3000 USD -> exactly 1 ETH
			f.oracle.quotes = []*big.Int{new(big.Int).Set(oneEth), tc.requote}

			resp, err := f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
				Recipient: recipientAddr, AmountInput: "3000", Unit: "USD",
			})
			require.NoError(t, err)
			require.Equal(t, "1000000000000000000", resp.AmountWei)

			err = f.svc.Execute(ctx, 1, models.ExecuteTransferInput{
				ApprovalID: resp.ApprovalID,
				Signature:  f.signFn(resp.Message),
			})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, "5000000000000000000", f.repo.balance(f.senderAddr).String(),
					"no balance mutation on slippage rejection")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "4000000000000000000", f.repo.balance(f.senderAddr).String())
			}
		})
	}
}

func TestExecute_InsufficientFundsBurnsApproval(t *testing.T) {
	f := newFixture(t, approvals.DefaultTTL)
	ctx := context.Background()

	resp, err := f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
		Recipient: recipientAddr, AmountInput: "100", Unit: "ETH",
	})
	require.NoError(t, err)
	sig := f.signFn(resp.Message)

	err = f.svc.Execute(ctx, 1, models.ExecuteTransferInput{ApprovalID: resp.ApprovalID, Signature: sig})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, "5000000000000000000", f.repo.balance(f.senderAddr).String())

	// the intent is burned: re-submitting needs a fresh prepare
	err = f.svc.Execute(ctx, 1, models.ExecuteTransferInput{ApprovalID: resp.ApprovalID, Signature: sig})
	assert.ErrorIs(t, err, ErrApprovalExpired)
}

func TestExecute_ForeignApprovalRejected(t *testing.T) {
	f := newFixture(t, approvals.DefaultTTL)
	ctx := context.Background()

	// second user with their own wallet
	uid2 := int64(2)
	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	otherAddr := crypto.PubkeyToAddress(otherKey.PublicKey).Hex()
	oneEth, _ := new(big.Int).SetString("1000000000000000000", 10)
	require.NoError(t, f.repo.CreateWallet(models.Wallet{
		Address: otherAddr, UserID: &uid2, BalanceWei: models.NewWei(oneEth), CreatedAt: time.Now().Unix(),
	}))

	resp, err := f.svc.Prepare(ctx, 1, models.PrepareTransferInput{
		Recipient: recipientAddr, AmountInput: "1", Unit: "ETH",
	})
	require.NoError(t, err)

	// user 2 cannot execute user 1's approval, even with user 1's signature
	err = f.svc.Execute(ctx, 2, models.ExecuteTransferInput{
		ApprovalID: resp.ApprovalID,
		Signature:  f.signFn(resp.Message),
	})
	assert.ErrorIs(t, err, ErrApprovalExpired)
	assert.Equal(t, "5000000000000000000", f.repo.balance(f.senderAddr).String())
}
