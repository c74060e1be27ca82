// Package cache adds a redis read-through cache in front of the two hottest
// ledger reads: per-address balance and the global retirement total. Entries
// carry a short TTL and are invalidated after mutations, so a redis outage
// degrades to direct store reads rather than wrong answers.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"carbonledger/pkg/domain"
)

const (
	balanceKeyPrefix = "carbonledger:balance:"
	totalRetiredKey  = "carbonledger:total_retired"
)

// Reads is the subset of the ledger engine the cache fronts.
type Reads interface {
	Balance(ctx context.Context, address string) (domain.Amount, error)
	TotalRetired(ctx context.Context) (domain.Amount, error)
}

// CachedReads decorates Reads with redis caching. A nil client disables
// caching entirely.
type CachedReads struct {
	next   Reads
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(next Reads, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedReads {
	return &CachedReads{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedReads) Balance(ctx context.Context, address string) (domain.Amount, error) {
	if c.rdb == nil {
		return c.next.Balance(ctx, address)
	}
	key := balanceKeyPrefix + address
	if cached, err := c.rdb.Get(ctx, key).Result(); err == nil {
		if v, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
			return domain.Amount(v), nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("balance cache read failed", "error", err)
	}

	balance, err := c.next.Balance(ctx, address)
	if err != nil {
		return 0, err
	}
	if err := c.rdb.Set(ctx, key, balance.Int64(), c.ttl).Err(); err != nil {
		c.logger.Warn("balance cache write failed", "error", err)
	}
	return balance, nil
}

func (c *CachedReads) TotalRetired(ctx context.Context) (domain.Amount, error) {
	if c.rdb == nil {
		return c.next.TotalRetired(ctx)
	}
	if cached, err := c.rdb.Get(ctx, totalRetiredKey).Result(); err == nil {
		if v, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
			return domain.Amount(v), nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("total retired cache read failed", "error", err)
	}

	total, err := c.next.TotalRetired(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.rdb.Set(ctx, totalRetiredKey, total.Int64(), c.ttl).Err(); err != nil {
		c.logger.Warn("total retired cache write failed", "error", err)
	}
	return total, nil
}

// InvalidateBalances drops cached balances for the given addresses, called
// after a mutation that changed their holdings.
func (c *CachedReads) InvalidateBalances(ctx context.Context, addresses ...string) {
	if c.rdb == nil || len(addresses) == 0 {
		return
	}
	keys := make([]string, len(addresses))
	for i, addr := range addresses {
		keys[i] = balanceKeyPrefix + addr
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("balance cache invalidation failed", "error", err)
	}
}

// InvalidateTotalRetired drops the cached global total after a retirement.
func (c *CachedReads) InvalidateTotalRetired(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, totalRetiredKey).Err(); err != nil {
		c.logger.Warn("total retired cache invalidation failed", "error", err)
	}
}
