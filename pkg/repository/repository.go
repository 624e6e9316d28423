package repository

import (
	"math/big"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"cypherd_wallet_back/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type Authorization interface {
	CreateUser(email, passwordHash string) (int64, error)
	GetUserByEmail(email string) (models.User, error)
	GetUserByID(id int64) (models.User, error)
}

type Wallet interface {
	CreateWallet(w models.Wallet) error
	GetWallet(address string) (models.Wallet, error)
	GetWalletByUser(userID int64) (models.Wallet, error)
	Transfer(sender, recipient string, amountWei *big.Int, rec models.Transaction) error
	ListTransactions(address string) ([]models.Transaction, error)
}

type Repository struct {
	Authorization
	Wallet
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Authorization: NewAuthPostgres(db),
		Wallet:        NewWalletPostgres(db),
	}
}
