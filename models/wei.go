package models

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strings"
)

// Wei is an integer amount in the smallest unit (10^-18 ETH). Balances at
// 18-decimal scale do not fit float64 without precision loss, so it is carried
// as a big.Int everywhere and only formatted to a decimal string at the edges.
// Stored in postgres as NUMERIC(78,0), serialized to JSON as a decimal string.
type Wei struct {
	big.Int
}

func NewWei(v *big.Int) *Wei {
	w := new(Wei)
	if v != nil {
		w.Set(v)
	}
	return w
}

func (w *Wei) BigInt() *big.Int {
	return new(big.Int).Set(&w.Int)
}

func (w *Wei) Value() (driver.Value, error) {
	return w.String(), nil
}

func (w *Wei) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		w.SetInt64(0)
		return nil
	case int64:
		w.SetInt64(v)
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("wei: cannot scan %T", src)
	}
	if _, ok := w.SetString(strings.TrimSpace(s), 10); !ok {
		return fmt.Errorf("wei: invalid numeric %q", s)
	}
	return nil
}

func (w Wei) MarshalJSON() ([]byte, error) {
	return []byte(`"` + w.String() + `"`), nil
}

func (w *Wei) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if _, ok := w.SetString(s, 10); !ok {
		return fmt.Errorf("wei: invalid numeric %q", s)
	}
	return nil
}
