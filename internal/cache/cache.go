package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"moodtrack/internal/domain"
)

const (
	// Classification is treated as a stable function of the text, so the
	// TTL is a freshness/cost tradeoff measured in hours, not seconds.
	DefaultTTL = time.Hour

	fingerprintHashLen    = 16
	fingerprintUserPrefix = 8
)

// Fingerprint derives the cache key for a (userKey, text) pair. The key
// holds a truncated hash of the normalized text and a prefix of the user
// key, never the text itself and never the full user key.
func Fingerprint(userKey, text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	hash := hex.EncodeToString(sum[:])[:fingerprintHashLen]

	prefix := userKey
	if len(prefix) > fingerprintUserPrefix {
		prefix = prefix[:fingerprintUserPrefix]
	}
	return "emotion:" + prefix + ":" + hash
}

// ResultCache maps request fingerprints to previously computed
// classification results. Any backend failure degrades to a miss; the
// request then simply re-invokes the gateway.
type ResultCache struct {
	kv  KV
	ttl time.Duration
}

func NewResultCache(kv KV, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{kv: kv, ttl: ttl}
}

func (c *ResultCache) Lookup(userKey, text string) (domain.ClassificationResult, bool) {
	key := Fingerprint(userKey, text)
	raw, err := c.kv.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("cache get error key=%s err=%v (treating as miss)", key, err)
		}
		return domain.ClassificationResult{}, false
	}
	var result domain.ClassificationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Printf("cache decode error key=%s err=%v (treating as miss)", key, err)
		return domain.ClassificationResult{}, false
	}
	return result, true
}

func (c *ResultCache) Store(userKey, text string, result domain.ClassificationResult) {
	key := Fingerprint(userKey, text)
	raw, err := json.Marshal(result)
	if err != nil {
		log.Printf("cache encode error key=%s err=%v", key, err)
		return
	}
	if err := c.kv.SetTTL(key, raw, c.ttl); err != nil {
		log.Printf("cache set error key=%s err=%v", key, err)
	}
}
