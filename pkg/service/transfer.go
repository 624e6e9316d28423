package service

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"cypherd_wallet_back/internal/wallet"
	"cypherd_wallet_back/models"
	"cypherd_wallet_back/pkg/repository"
	"cypherd_wallet_back/pkg/utils"
)

// TransferService implements the two-phase transfer-approval protocol:
// Prepare builds a short-lived single-use approval and hands the client a
// canonical message to sign off-device; Execute verifies the signature,
// re-validates USD pricing, and settles the ledger atomically.
type TransferService struct {
	repos     repository.Wallet
	users     repository.Authorization
	approvals Approvals
	oracle    Oracle
	notifier  Notifier
}

func NewTransferService(repos repository.Wallet, users repository.Authorization, approvals Approvals, oracle Oracle, notifier Notifier) *TransferService {
	return &TransferService{
		repos:     repos,
		users:     users,
		approvals: approvals,
		oracle:    oracle,
		notifier:  notifier,
	}
}

func (s *TransferService) Prepare(ctx context.Context, userID int64, in models.PrepareTransferInput) (models.PrepareTransferResponse, error) {
	w, err := s.repos.GetWalletByUser(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.PrepareTransferResponse{}, ErrNoWallet
	}
	if err != nil {
		return models.PrepareTransferResponse{}, err
	}
	if !wallet.IsAddress(in.Recipient) {
		return models.PrepareTransferResponse{}, ErrInvalidAddress
	}

	wasUSD := strings.EqualFold(in.Unit, "USD")
	var (
		amountWei *big.Int
		usdCents  int64
	)
	if wasUSD {
		usdCents, err = utils.USDToCents(in.AmountInput)
		if err != nil {
			return models.PrepareTransferResponse{}, ErrInvalidAmount
		}
		amountWei = s.oracle.QuoteUSDCents(ctx, usdCents)
	} else {
		amountWei, err = utils.EthToWei(in.AmountInput)
		if err != nil {
			return models.PrepareTransferResponse{}, ErrInvalidAmount
		}
	}

	a := s.approvals.Create(w.Address, in.Recipient, amountWei, wasUSD, usdCents)

	resp := models.PrepareTransferResponse{
		ApprovalID: a.ID,
		Message:    a.Message,
		ExpiresAt:  a.ExpiresAt,
		AmountWei:  amountWei.String(),
		AmountEth:  utils.WeiToEth(amountWei),
	}
	if wasUSD {
		usd := utils.CentsToUSD(usdCents)
		resp.USDAmount = &usd
	}
	return resp, nil
}

func (s *TransferService) Execute(ctx context.Context, userID int64, in models.ExecuteTransferInput) error {
	// Consuming first is what prevents replay: whatever happens next, the
	// approval is burned and a second submission finds nothing.
	a, ok := s.approvals.Consume(in.ApprovalID)
	if !ok {
		return ErrApprovalExpired
	}

	w, err := s.repos.GetWalletByUser(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNoWallet
	}
	if err != nil {
		return err
	}
	// an approval only authorizes a transfer out of the caller's own wallet
	if !strings.EqualFold(w.Address, a.Sender) {
		return ErrApprovalExpired
	}

	signer, err := wallet.RecoverSigner(a.Message, in.Signature)
	if err != nil || !strings.EqualFold(signer, a.Sender) {
		return ErrInvalidSignature
	}

	amount := a.AmountWei.BigInt()
	if a.WasUSD && a.USDAmountCents > 0 {
		newWei := s.oracle.QuoteUSDCents(ctx, a.USDAmountCents)
		if slippageExceeded(amount, newWei) {
			return ErrPriceSlippage
		}
	}

	var usdAmount *string
	if a.WasUSD {
		usd := utils.CentsToUSD(a.USDAmountCents)
		usdAmount = &usd
	}
	rec := models.Transaction{
		Ts:        time.Now().Unix(),
		Sender:    a.Sender,
		Recipient: a.Recipient,
		AmountWei: models.NewWei(amount),
		AmountEth: utils.WeiToEth(amount),
		USDAmount: usdAmount,
		UserID:    &userID,
	}

	err = s.repos.Transfer(a.Sender, a.Recipient, amount, rec)
	if errors.Is(err, repository.ErrInsufficientFunds) {
		return ErrInsufficientFunds
	}
	if err != nil {
		return err
	}

	// best effort, must never hold up or undo the settled transfer
	go s.notifyTransfer(userID, rec)

	return nil
}

func (s *TransferService) notifyTransfer(userID int64, rec models.Transaction) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		logrus.Errorf("transfer: lookup user %d for notification: %s", userID, err)
		return
	}
	s.notifier.Send(
		user.Email,
		"CypherD Mock Wallet: Transfer Successful",
		fmt.Sprintf("Sent %s ETH to %s at %d.", rec.AmountEth, rec.Recipient, rec.Ts),
	)
}

// slippageExceeded applies the strict >1% rule in integer form:
// |new - old| / old > 1/100  <=>  100*|new - old| > old.
// Exactly 1% drift does not exceed.
func slippageExceeded(oldWei, newWei *big.Int) bool {
	if oldWei.Sign() <= 0 {
		return false
	}
	drift := new(big.Int).Sub(newWei, oldWei)
	drift.Abs(drift)
	drift.Mul(drift, big.NewInt(100))
	return drift.Cmp(oldWei) > 0
}
