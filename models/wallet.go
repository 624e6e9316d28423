package models

type Wallet struct {
	Address    string `db:"address" json:"address"`
	UserID     *int64 `db:"user_id" json:"user_id,omitempty"` // NULL for externally-credited wallets
	BalanceWei *Wei   `db:"balance_wei" json:"balance_wei"`
	CreatedAt  int64  `db:"created_at" json:"created_at"`
}

type CreateWalletInput struct {
	// Address may be omitted: the server then generates a fresh keypair and
	// returns the private key once in the response.
	Address string `json:"address"`
}

type WalletResponse struct {
	Address    string `json:"address"`
	BalanceEth string `json:"balance_eth"`
	PrivateKey string `json:"private_key,omitempty"`
}
