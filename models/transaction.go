package models

type Transaction struct {
	ID        int64   `db:"id" json:"-"`
	Ts        int64   `db:"ts" json:"ts"`
	Sender    string  `db:"sender" json:"sender"`
	Recipient string  `db:"recipient" json:"recipient"`
	AmountWei *Wei    `db:"amount_wei" json:"amount_wei"`
	AmountEth string  `db:"amount_eth" json:"amount_eth"`
	USDAmount *string `db:"usd_amount" json:"usd_amount,omitempty"`
	UserID    *int64  `db:"user_id" json:"-"`
}

type HistoryResponse struct {
	Items []Transaction `json:"items"`
}
