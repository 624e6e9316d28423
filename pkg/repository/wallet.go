package repository

import (
	"database/sql"
	"math/big"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"cypherd_wallet_back/models"
)

type WalletPostgres struct {
	db *sqlx.DB
}

func NewWalletPostgres(db *sqlx.DB) *WalletPostgres {
	return &WalletPostgres{db: db}
}

func (r *WalletPostgres) CreateWallet(w models.Wallet) error {
	query := `
        INSERT INTO wallets (address, user_id, balance_wei, created_at)
        VALUES ($1, $2, $3, $4)
    `
	_, err := r.db.Exec(query, w.Address, w.UserID, w.BalanceWei.String(), w.CreatedAt)
	return errors.Wrap(err, "insert wallet")
}

func (r *WalletPostgres) GetWallet(address string) (models.Wallet, error) {
	var w models.Wallet
	query := `SELECT address, user_id, balance_wei, created_at FROM wallets WHERE address = $1`
	err := r.db.Get(&w, query, address)
	if errors.Is(err, sql.ErrNoRows) {
		return w, ErrNotFound
	}
	return w, err
}

func (r *WalletPostgres) GetWalletByUser(userID int64) (models.Wallet, error) {
	var w models.Wallet
	query := `SELECT address, user_id, balance_wei, created_at FROM wallets WHERE user_id = $1`
	err := r.db.Get(&w, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return w, ErrNotFound
	}
	return w, err
}

// Transfer settles a debit+credit pair in a single transaction. The recipient
// row is created on demand with no owning user (externally-credited wallets
// are allowed). Both rows are locked FOR UPDATE in address order, so
// concurrent transfers over the same wallets serialize while disjoint pairs
// proceed in parallel, and the pair either commits together or not at all.
func (r *WalletPostgres) Transfer(sender, recipient string, amountWei *big.Int, rec models.Transaction) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return errors.Wrap(err, "begin transfer")
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        INSERT INTO wallets (address, user_id, balance_wei, created_at)
        VALUES ($1, NULL, 0, $2)
        ON CONFLICT (address) DO NOTHING
    `, recipient, time.Now().Unix())
	if err != nil {
		return errors.Wrap(err, "ensure recipient wallet")
	}

	// consistent lock order prevents deadlocks between opposite transfers
	first, second := sender, recipient
	if first > second {
		first, second = second, first
	}
	balances := make(map[string]*models.Wei, 2)
	for _, addr := range []string{first, second} {
		var bal models.Wei
		err := tx.QueryRow(`SELECT balance_wei FROM wallets WHERE address = $1 FOR UPDATE`, addr).Scan(&bal)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return errors.Wrap(err, "lock wallet")
		}
		balances[addr] = &bal
	}

	if balances[sender].Cmp(amountWei) < 0 {
		return ErrInsufficientFunds
	}

	if _, err := tx.Exec(`UPDATE wallets SET balance_wei = balance_wei - $1::numeric WHERE address = $2`,
		amountWei.String(), sender); err != nil {
		return errors.Wrap(err, "debit sender")
	}
	if _, err := tx.Exec(`UPDATE wallets SET balance_wei = balance_wei + $1::numeric WHERE address = $2`,
		amountWei.String(), recipient); err != nil {
		return errors.Wrap(err, "credit recipient")
	}

	if _, err := tx.Exec(`
        INSERT INTO transactions (ts, sender, recipient, amount_wei, amount_eth, usd_amount, user_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, rec.Ts, rec.Sender, rec.Recipient, rec.AmountWei.String(), rec.AmountEth, rec.USDAmount, rec.UserID); err != nil {
		return errors.Wrap(err, "record transaction")
	}

	return errors.Wrap(tx.Commit(), "commit transfer")
}

func (r *WalletPostgres) ListTransactions(address string) ([]models.Transaction, error) {
	var txs []models.Transaction
	query := `
        SELECT id, ts, sender, recipient, amount_wei, amount_eth, usd_amount, user_id
        FROM transactions
        WHERE sender = $1 OR recipient = $1
        ORDER BY ts DESC, id DESC
    `
	err := r.db.Select(&txs, query, address)
	return txs, err
}
