package prices

import (
	"context"
	"encoding/json"
	"math/big"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"cypherd_wallet_back/pkg/utils"
)

const (
	DefaultURL     = "https://api.skip.build/v2/fungible/msgs_direct"
	DefaultTimeout = 8 * time.Second
	// DefaultFallbackRateCents is the fixed USD/ETH rate (in cents) applied
	// when the quote service cannot be used.
	DefaultFallbackRateCents int64 = 300_000
)

type Config struct {
	URL               string
	Timeout           time.Duration
	FallbackRateCents int64
}

// Oracle converts USD amounts to wei through an external quote service. Any
// failure — network, timeout, bad status, unexpected shape — resolves to the
// configured fallback rate instead of an error. Availability over accuracy:
// a conversion always succeeds, which is the intended tradeoff for this demo.
type Oracle struct {
	cfg    Config
	client *resty.Client
}

func NewOracle(cfg Config) *Oracle {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.FallbackRateCents <= 0 {
		cfg.FallbackRateCents = DefaultFallbackRateCents
	}
	return &Oracle{
		cfg:    cfg,
		client: resty.New().SetTimeout(cfg.Timeout),
	}
}

type quoteResponse struct {
	Quote struct {
		DestAmount interface{} `json:"dest_amount"`
	} `json:"quote"`
}

// QuoteUSDCents returns the wei equivalent of the given USD amount. One
// attempt against the quote service, then the fallback rate.
func (o *Oracle) QuoteUSDCents(ctx context.Context, usdCents int64) *big.Int {
	body := map[string]interface{}{
		"source_asset_denom":         "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"source_asset_chain_id":      "1",
		"dest_asset_denom":           "ethereum-native",
		"dest_asset_chain_id":        "1",
		"amount_in":                  utils.CentsToUSD(usdCents),
		"slippage_tolerance_percent": "1",
		"smart_swap_options":         map[string]bool{"evm_swaps": true},
		"allow_unsafe":               false,
	}

	resp, err := o.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetBody(body).
		Post(o.cfg.URL)
	if err != nil || resp.IsError() {
		logrus.Warnf("prices: quote request failed, using fallback rate: %v", err)
		return o.fallbackWei(usdCents)
	}

	var out quoteResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		logrus.Warnf("prices: malformed quote response, using fallback rate: %s", err)
		return o.fallbackWei(usdCents)
	}

	ethAmount, ok := destAmountString(out.Quote.DestAmount)
	if !ok {
		return o.fallbackWei(usdCents)
	}
	wei, err := utils.EthToWei(ethAmount)
	if err != nil {
		logrus.Warnf("prices: unusable dest_amount %q, using fallback rate", ethAmount)
		return o.fallbackWei(usdCents)
	}
	return wei
}

// fallbackWei computes cents * 10^18 / rate_cents in integer arithmetic.
func (o *Oracle) fallbackWei(usdCents int64) *big.Int {
	wei := new(big.Int).Mul(big.NewInt(usdCents), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	return wei.Div(wei, big.NewInt(o.cfg.FallbackRateCents))
}

// destAmountString tolerates the field arriving as a JSON string or number.
func destAmountString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}
