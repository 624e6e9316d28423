package approvals

import (
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	senderAddr    = "0x1111111111111111111111111111111111111111"
	recipientAddr = "0x2222222222222222222222222222222222222222"
)

func oneAndHalfEth() *big.Int {
	v, _ := new(big.Int).SetString("1500000000000000000", 10)
	return v
}

func TestStore_CreateBuildsCanonicalMessage(t *testing.T) {
	s := NewStore(DefaultTTL)
	a := s.Create(senderAddr, recipientAddr, oneAndHalfEth(), true, 10000)

	require.NotEmpty(t, a.ID)
	assert.Equal(t,
		fmt.Sprintf("APPROVAL_ID:%s|SENDER:%s|RECIPIENT:%s|AMOUNT_WEI:1500000000000000000|EXP_MS:%d",
			a.ID, senderAddr, recipientAddr, a.ExpiresAt),
		a.Message)
	assert.NotContains(t, a.Message, "\n")
	assert.Equal(t, "1500000000000000000", a.AmountWei.String())
	assert.True(t, a.WasUSD)
	assert.Equal(t, int64(10000), a.USDAmountCents)
	assert.Greater(t, a.ExpiresAt, time.Now().UnixMilli())
}

func TestStore_ConsumeAtMostOnce(t *testing.T) {
	s := NewStore(DefaultTTL)
	a := s.Create(senderAddr, recipientAddr, oneAndHalfEth(), false, 0)

	got, ok := s.Consume(a.ID)
	require.True(t, ok)
	assert.Equal(t, a.Message, got.Message)

	_, ok = s.Consume(a.ID)
	assert.False(t, ok, "second consume must fail")
}

func TestStore_ConsumeUnknownID(t *testing.T) {
	s := NewStore(DefaultTTL)
	_, ok := s.Consume("nonexistent")
	assert.False(t, ok)
}

func TestStore_ConsumeExpired(t *testing.T) {
	s := NewStore(DefaultTTL)
	base := time.Now()
	s.now = func() time.Time { return base }

	a := s.Create(senderAddr, recipientAddr, oneAndHalfEth(), false, 0)

	// one millisecond before the deadline it is still live
	s.now = func() time.Time { return base.Add(DefaultTTL - time.Millisecond) }
	_, ok := s.Consume(a.ID)
	assert.True(t, ok)

	s.now = func() time.Time { return base }
	b := s.Create(senderAddr, recipientAddr, oneAndHalfEth(), false, 0)
	s.now = func() time.Time { return base.Add(DefaultTTL + time.Millisecond) }
	_, ok = s.Consume(b.ID)
	assert.False(t, ok, "expired approval must behave as if it never existed")

	// and it is gone even if the clock rolls back
	s.now = func() time.Time { return base }
	_, ok = s.Consume(b.ID)
	assert.False(t, ok)
}

func TestStore_ConcurrentConsumeSingleWinner(t *testing.T) {
	s := NewStore(DefaultTTL)
	a := s.Create(senderAddr, recipientAddr, oneAndHalfEth(), false, 0)

	const callers = 32
	var wg sync.WaitGroup
	wins := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.Consume(a.ID); ok {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	n := 0
	for range wins {
		n++
	}
	assert.Equal(t, 1, n, "exactly one concurrent consumer may win")
}

func TestNewID_URLSafeAndUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewID()
		assert.NotContains(t, id, "+")
		assert.NotContains(t, id, "/")
		assert.NotContains(t, id, "=")
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestMessage_FieldsRoundTrip(t *testing.T) {
	msg := Message("abc123", senderAddr, recipientAddr, oneAndHalfEth(), 1700000000000)

	parts := strings.Split(msg, "|")
	require.Len(t, parts, 5)
	assert.Equal(t, "APPROVAL_ID:abc123", parts[0])
	assert.Equal(t, "SENDER:"+senderAddr, parts[1])
	assert.Equal(t, "RECIPIENT:"+recipientAddr, parts[2])
	assert.Equal(t, "AMOUNT_WEI:1500000000000000000", parts[3])
	assert.Equal(t, "EXP_MS:1700000000000", parts[4])
}
