package approvals

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"cypherd_wallet_back/models"
)

const keyPrefix = "approval:"

// RedisStore keeps pending approvals in redis with native TTL, so a
// multi-process deployment shares one approval space and restarts do not
// drop pending approvals. GETDEL makes consume a single-winner operation.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func (s *RedisStore) Create(sender, recipient string, amountWei *big.Int, wasUSD bool, usdCents int64) models.Approval {
	id := NewID()
	exp := s.now().Add(s.ttl).UnixMilli()
	a := models.Approval{
		ID:             id,
		Message:        Message(id, sender, recipient, amountWei, exp),
		Sender:         sender,
		Recipient:      recipient,
		AmountWei:      models.NewWei(amountWei),
		WasUSD:         wasUSD,
		USDAmountCents: usdCents,
		ExpiresAt:      exp,
	}

	payload, err := json.Marshal(a)
	if err != nil {
		panic(err) // approval is a plain value type, cannot fail
	}
	if err := s.rdb.Set(context.Background(), keyPrefix+id, payload, s.ttl).Err(); err != nil {
		// the approval will simply be unconsumable; execute reports it expired
		logrus.Errorf("approvals: redis set %s failed: %s", id, err)
	}
	return a
}

func (s *RedisStore) Consume(id string) (models.Approval, bool) {
	payload, err := s.rdb.GetDel(context.Background(), keyPrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			logrus.Errorf("approvals: redis getdel %s failed: %s", id, err)
		}
		return models.Approval{}, false
	}

	var a models.Approval
	if err := json.Unmarshal(payload, &a); err != nil {
		logrus.Errorf("approvals: corrupt payload for %s: %s", id, err)
		return models.Approval{}, false
	}
	// redis TTL already enforces expiry; keep the absolute check anyway
	if a.ExpiresAt < s.now().UnixMilli() {
		return models.Approval{}, false
	}
	return a, true
}
