package wallet

import (
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var ErrBadSignature = errors.New("malformed or unrecoverable signature")

// RecoverSigner recovers the 0x address that produced signatureHex over
// message, following the personal_sign convention (EIP-191 prefix + keccak)
// used by standard wallet tooling. The signature is the usual 65-byte
// [R || S || V] blob, hex-encoded; V is accepted as 0/1 or 27/28.
func RecoverSigner(message, signatureHex string) (string, error) {
	sig, err := hexutil.Decode(signatureHex)
	if err != nil {
		// tolerate a missing 0x prefix
		sig, err = hexutil.Decode("0x" + signatureHex)
		if err != nil {
			return "", ErrBadSignature
		}
	}
	if len(sig) != crypto.SignatureLength {
		return "", ErrBadSignature
	}

	// normalize V for SigToPub, which expects 0/1
	cp := make([]byte, len(sig))
	copy(cp, sig)
	if cp[crypto.RecoveryIDOffset] >= 27 {
		cp[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), cp)
	if err != nil {
		return "", ErrBadSignature
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}
