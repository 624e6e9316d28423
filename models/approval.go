package models

// Approval is a pending, single-use transfer authorization. It is consumed
// (read-and-delete) at most once; after ExpiresAt it behaves as if it never
// existed. The Message field is the exact text the client must sign.
type Approval struct {
	ID             string `json:"id"`
	Message        string `json:"message"`
	Sender         string `json:"sender"`
	Recipient      string `json:"recipient"`
	AmountWei      *Wei   `json:"amount_wei"`
	WasUSD         bool   `json:"was_usd"`
	USDAmountCents int64  `json:"usd_amount_cents"`
	ExpiresAt      int64  `json:"expires_at"` // epoch ms
}

type PrepareTransferInput struct {
	Recipient   string `json:"recipient" binding:"required"`
	AmountInput string `json:"amount_input" binding:"required"`
	Unit        string `json:"unit" binding:"required,oneof=ETH USD eth usd"`
}

type PrepareTransferResponse struct {
	ApprovalID string  `json:"approval_id"`
	Message    string  `json:"message"`
	ExpiresAt  int64   `json:"expires_at"`
	AmountWei  string  `json:"amount_wei"`
	AmountEth  string  `json:"amount_eth"`
	USDAmount  *string `json:"usd_amount,omitempty"`
}

type ExecuteTransferInput struct {
	ApprovalID string `json:"approval_id" binding:"required"`
	Signature  string `json:"signature" binding:"required"`
}
