package wallet

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet holds a freshly generated keypair. The private key leaves the server
// exactly once, in the create-wallet response; it is never persisted.
type Wallet struct {
	PrivateKey string
	Address    string
}

// Generate creates a new secp256k1 keypair and derives its 0x address.
func Generate() (*Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	privBytes := crypto.FromECDSA(privateKey)
	address := crypto.PubkeyToAddress(privateKey.PublicKey)

	return &Wallet{
		PrivateKey: hex.EncodeToString(privBytes),
		Address:    address.Hex(),
	}, nil
}

// IsAddress reports whether s is a well-formed 0x-prefixed 20-byte hex address.
func IsAddress(s string) bool {
	return len(s) == 42 && s[0:2] == "0x" && common.IsHexAddress(s)
}
