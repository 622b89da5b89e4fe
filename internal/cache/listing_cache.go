package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mahmoud-the-dev/Propmatch/internal/utils"
)

// ListingCache holds the serialized "my listings" response per owner.
// Every mutation invalidates the owner's entry; reads fall through to the
// database on a miss. All cache failures are best-effort and only logged.
type ListingCache interface {
	GetOwnerListings(ctx context.Context, ownerID uuid.UUID) ([]byte, bool)
	SetOwnerListings(ctx context.Context, ownerID uuid.UUID, payload []byte)
	InvalidateOwner(ctx context.Context, ownerID uuid.UUID)
}

const ownerListingsTTL = 5 * time.Minute

type redisListingCache struct {
	rdb *redis.Client
}

func NewRedisListingCache(rdb *redis.Client) ListingCache {
	return &redisListingCache{rdb: rdb}
}

func ownerKey(ownerID uuid.UUID) string {
	return "propmatch:listings:owner:" + ownerID.String()
}

func (c *redisListingCache) GetOwnerListings(ctx context.Context, ownerID uuid.UUID) ([]byte, bool) {
	val, err := c.rdb.Get(ctx, ownerKey(ownerID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		utils.Logger.WithError(err).Warn("listing cache read failed")
		return nil, false
	}
	return val, true
}

func (c *redisListingCache) SetOwnerListings(ctx context.Context, ownerID uuid.UUID, payload []byte) {
	if err := c.rdb.Set(ctx, ownerKey(ownerID), payload, ownerListingsTTL).Err(); err != nil {
		utils.Logger.WithError(err).Warn("listing cache write failed")
	}
}

func (c *redisListingCache) InvalidateOwner(ctx context.Context, ownerID uuid.UUID) {
	if err := c.rdb.Del(ctx, ownerKey(ownerID)).Err(); err != nil {
		utils.Logger.WithError(err).Warn("listing cache invalidation failed")
	}
}
