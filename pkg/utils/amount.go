package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"
)

var ErrBadAmount = errors.New("amount is not a positive decimal number")

var weiPerEth = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// EthToWei parses a decimal ETH string ("1.5", "0.000001") into an exact wei
// amount. Digits beyond the 18th decimal are truncated. Non-numeric or
// non-positive input is rejected.
func EthToWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return nil, ErrBadAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return nil, ErrBadAmount
	}
	if len(fracPart) > 18 {
		fracPart = fracPart[:18]
	}
	fracPart += strings.Repeat("0", 18-len(fracPart))

	wei, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok || wei.Sign() <= 0 {
		return nil, ErrBadAmount
	}
	return wei, nil
}

// WeiToEth formats a wei amount as an ETH string with six decimals,
// truncating the remainder ("1500000000000000000" -> "1.500000").
func WeiToEth(wei *big.Int) string {
	microEth := new(big.Int).Div(wei, big.NewInt(1_000_000_000_000)) // 10^12
	whole, frac := new(big.Int).DivMod(microEth, big.NewInt(1_000_000), new(big.Int))
	return fmt.Sprintf("%s.%06d", whole.String(), frac.Int64())
}

// USDToCents parses a decimal USD string ("100", "99.95") into integer cents.
func USDToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return 0, ErrBadAmount
	}
	if len(fracPart) > 2 {
		fracPart = fracPart[:2]
	}
	fracPart += strings.Repeat("0", 2-len(fracPart))

	cents, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok || cents.Sign() <= 0 || !cents.IsInt64() {
		return 0, ErrBadAmount
	}
	return cents.Int64(), nil
}

// CentsToUSD formats integer cents as a dollar string (10000 -> "100.00").
func CentsToUSD(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
