package service

import "github.com/pkg/errors"

// User-facing rejections. All are local to a single request and leave no
// partial state behind; handlers map them to 4xx responses.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoWallet           = errors.New("no wallet yet")
	ErrAddressTaken       = errors.New("address already taken by another user")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrApprovalExpired    = errors.New("approval expired or invalid")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrPriceSlippage      = errors.New("price moved >1%, please retry")
	ErrInsufficientFunds  = errors.New("insufficient funds")
)
