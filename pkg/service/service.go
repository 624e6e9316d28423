package service

import (
	"context"
	"math/big"

	"cypherd_wallet_back/models"
	"cypherd_wallet_back/pkg/repository"
)

type Authorization interface {
	Register(email, password string) (string, error)
	Login(email, password string) (string, error)
	ParseToken(token string) (int64, error)
	UserByID(id int64) (models.User, error)
}

type Wallet interface {
	CreateWallet(userID int64, address string) (models.WalletResponse, error)
	MyWallet(userID int64) (models.WalletResponse, error)
	History(userID int64) ([]models.Transaction, error)
}

type Transfer interface {
	Prepare(ctx context.Context, userID int64, in models.PrepareTransferInput) (models.PrepareTransferResponse, error)
	Execute(ctx context.Context, userID int64, in models.ExecuteTransferInput) error
}

// Approvals is the pending-authorization store consumed by the transfer flow.
// Backed by process memory or redis, chosen at boot.
type Approvals interface {
	Create(sender, recipient string, amountWei *big.Int, wasUSD bool, usdCents int64) models.Approval
	Consume(id string) (models.Approval, bool)
}

// Oracle converts USD cents to wei. Implementations never fail; on upstream
// trouble they fall back to a fixed rate.
type Oracle interface {
	QuoteUSDCents(ctx context.Context, usdCents int64) *big.Int
}

type Notifier interface {
	Send(toEmail, subject, body string)
}

type Service struct {
	Authorization
	Wallet
	Transfer
}

type Deps struct {
	Repos     *repository.Repository
	Approvals Approvals
	Oracle    Oracle
	Notifier  Notifier
	Auth      AuthConfig
}

func NewService(d Deps) *Service {
	return &Service{
		Authorization: NewAuthService(d.Repos.Authorization, d.Auth),
		Wallet:        NewWalletService(d.Repos.Wallet),
		Transfer:      NewTransferService(d.Repos.Wallet, d.Repos.Authorization, d.Approvals, d.Oracle, d.Notifier),
	}
}
