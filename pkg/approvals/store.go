package approvals

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"sync"
	"time"

	"cypherd_wallet_back/models"
)

const DefaultTTL = 30 * time.Second

// Message builds the canonical approval text the client signs. The format is
// byte-exact and newline-free; prepare and execute must agree on it verbatim.
func Message(id, sender, recipient string, amountWei *big.Int, expMS int64) string {
	return fmt.Sprintf("APPROVAL_ID:%s|SENDER:%s|RECIPIENT:%s|AMOUNT_WEI:%s|EXP_MS:%d",
		id, sender, recipient, amountWei.String(), expMS)
}

// NewID returns an unguessable URL-safe approval token.
func NewID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure means the host is unusable
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// Store keeps pending approvals in process memory. Suitable for a
// single-instance deployment; RedisStore carries the same contract across
// processes.
type Store struct {
	mu   sync.Mutex
	data map[string]models.Approval
	ttl  time.Duration
	now  func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		data: make(map[string]models.Approval),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Create allocates an ID, builds the canonical message from it, and stores
// the approval record once.
func (s *Store) Create(sender, recipient string, amountWei *big.Int, wasUSD bool, usdCents int64) models.Approval {
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

	s.mu.Lock()
	s.data[id] = a
	s.mu.Unlock()
	return a
}

// Consume atomically removes and returns the approval. Unknown, already
// consumed, and expired approvals are all reported the same way: under
// concurrent calls on one ID at most one caller sees ok.
func (s *Store) Consume(id string) (models.Approval, bool) {
	s.mu.Lock()
	a, ok := s.data[id]
	if ok {
		delete(s.data, id)
	}
	s.mu.Unlock()

	if !ok || a.ExpiresAt < s.now().UnixMilli() {
		return models.Approval{}, false
	}
	return a, true
}
