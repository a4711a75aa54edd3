package cache

import (
	"fmt"
	"log"
	"time"

	"moodtrack/internal/domain"
)

// budgetTTL keeps day buckets around long enough to be observable while
// letting the backend reclaim them.
const budgetTTL = 48 * time.Hour

// Budget counts real provider calls per UTC day. Cache hits never touch
// it, so a cached request is never double-charged.
type Budget struct {
	kv       KV
	dailyCap int64
}

// NewBudget returns a budget with the given daily cap per provider.
// A cap of zero or less disables enforcement.
func NewBudget(kv KV, dailyCap int64) *Budget {
	return &Budget{kv: kv, dailyCap: dailyCap}
}

// Spend charges one call against the provider's budget for the day. When
// the cap is exhausted it returns ErrClassifierUnavailable; on backend
// failure it allows the call, since losing a counter must not take the
// classifier down.
func (b *Budget) Spend(provider string, now time.Time) error {
	if b == nil || b.dailyCap <= 0 {
		return nil
	}
	key := "budget:" + provider + ":" + now.UTC().Format("2006-01-02")
	n, err := b.kv.Incr(key, budgetTTL)
	if err != nil {
		log.Printf("budget incr error key=%s err=%v (allowing call)", key, err)
		return nil
	}
	if n > b.dailyCap {
		return fmt.Errorf("%w: provider %s daily budget of %d exhausted", domain.ErrClassifierUnavailable, provider, b.dailyCap)
	}
	return nil
}
