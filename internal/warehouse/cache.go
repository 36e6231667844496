package warehouse

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a blind time-to-live memo over query results: entries expire,
// nothing is evicted or invalidated early, and two requests racing on a cold
// key may both recompute. That duplication is accepted.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the memo. A nil client disables caching entirely;
// FetchRows then always calls the loader.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Key composes a cache key from the page name, scope parts and the query
// text. The query is hashed so keys stay short and opaque.
func Key(page string, queryText string, parts ...string) string {
	sum := sha256.Sum256([]byte(queryText))
	elems := append([]string{"reports", page}, parts...)
	elems = append(elems, hex.EncodeToString(sum[:])[:16])
	return strings.Join(elems, ":")
}

// FetchRows returns cached rows for key or populates them via the loader.
// Cache transport errors fall through to the loader; a broken memo must not
// break a report.
func (c *Cache) FetchRows(ctx context.Context, key string, loader func(context.Context) ([]Row, error)) ([]Row, bool, error) {
	if loader == nil {
		return nil, false, fmt.Errorf("warehouse: cache loader required")
	}
	if c == nil || c.client == nil {
		rows, err := loader(ctx)
		return rows, false, err
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var rows []Row
		if err := json.Unmarshal(payload, &rows); err == nil {
			return rows, true, nil
		}
		// Unreadable entry, recompute below.
	} else if !errors.Is(err, redis.Nil) {
		rows, loadErr := loader(ctx)
		return rows, false, loadErr
	}

	rows, err := loader(ctx)
	if err != nil {
		return nil, false, err
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return rows, false, nil
	}
	_ = c.client.Set(ctx, key, raw, c.ttl).Err()
	return rows, false, nil
}
