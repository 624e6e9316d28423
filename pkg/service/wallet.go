package service

import (
	"math/big"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"cypherd_wallet_back/internal/wallet"
	"cypherd_wallet_back/models"
	"cypherd_wallet_back/pkg/repository"
	"cypherd_wallet_back/pkg/utils"
)

type WalletService struct {
	repos repository.Wallet
}

func NewWalletService(repos repository.Wallet) *WalletService {
	return &WalletService{repos: repos}
}

// CreateWallet registers an address for the user and seeds it with a random
// mock balance of 1-10 ETH. When no address is supplied a fresh keypair is
// generated and the private key is returned once. Re-creating your own
// address is idempotent; someone else's address is rejected.
func (s *WalletService) CreateWallet(userID int64, address string) (models.WalletResponse, error) {
	var privateKey string
	if address == "" {
		generated, err := wallet.Generate()
		if err != nil {
			return models.WalletResponse{}, errors.Wrap(err, "generate wallet")
		}
		address = generated.Address
		privateKey = generated.PrivateKey
	}
	if !wallet.IsAddress(address) {
		return models.WalletResponse{}, ErrInvalidAddress
	}

	existing, err := s.repos.GetWallet(address)
	if err == nil {
		if existing.UserID == nil || *existing.UserID != userID {
			return models.WalletResponse{}, ErrAddressTaken
		}
		return models.WalletResponse{
			Address:    existing.Address,
			BalanceEth: utils.WeiToEth(existing.BalanceWei.BigInt()),
		}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return models.WalletResponse{}, err
	}

	balance := startingBalanceWei()
	w := models.Wallet{
		Address:    address,
		UserID:     &userID,
		BalanceWei: balance,
		CreatedAt:  time.Now().Unix(),
	}
	if err := s.repos.CreateWallet(w); err != nil {
		return models.WalletResponse{}, err
	}
	return models.WalletResponse{
		Address:    w.Address,
		BalanceEth: utils.WeiToEth(balance.BigInt()),
		PrivateKey: privateKey,
	}, nil
}

func (s *WalletService) MyWallet(userID int64) (models.WalletResponse, error) {
	w, err := s.repos.GetWalletByUser(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.WalletResponse{}, ErrNoWallet
	}
	if err != nil {
		return models.WalletResponse{}, err
	}
	return models.WalletResponse{
		Address:    w.Address,
		BalanceEth: utils.WeiToEth(w.BalanceWei.BigInt()),
	}, nil
}

func (s *WalletService) History(userID int64) ([]models.Transaction, error) {
	w, err := s.repos.GetWalletByUser(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoWallet
	}
	if err != nil {
		return nil, err
	}
	return s.repos.ListTransactions(w.Address)
}

var weiPerMicroEth = big.NewInt(1_000_000_000_000) // 10^12

// startingBalanceWei picks 1-10 ETH at micro-eth precision.
func startingBalanceWei() *models.Wei {
	microEth := 1_000_000 + rand.Int63n(9_000_001)
	wei := new(models.Wei)
	wei.SetInt64(microEth)
	wei.Mul(&wei.Int, weiPerMicroEth)
	return wei
}
