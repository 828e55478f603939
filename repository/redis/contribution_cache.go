package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/retexhub/backend/domain"
	"github.com/retexhub/backend/repository"
)

type contributionCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewContributionCache creates a Redis-backed read cache for
// contributions, keyed by tracking ID. Public fetch and certificate
// verification traffic is served from here when possible; every
// successful state transition invalidates the entry.
func NewContributionCache(client *redislib.Client, ttl time.Duration) repository.ContributionCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &contributionCache{
		client: client,
		prefix: "contribution:",
		ttl:    ttl,
	}
}

func (c *contributionCache) Get(ctx context.Context, trackingID string) (*domain.Contribution, error) {
	result, err := c.client.Get(ctx, c.key(trackingID)).Result()
	if err != nil {
		if err == redislib.Nil {
			return nil, domain.ErrContributionNotFound
		}
		return nil, err
	}

	var contribution domain.Contribution
	if err := json.Unmarshal([]byte(result), &contribution); err != nil {
		return nil, err
	}
	return &contribution, nil
}

func (c *contributionCache) Set(ctx context.Context, contribution *domain.Contribution) error {
	if contribution == nil || contribution.TrackingID == "" {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(contribution)
	if err != nil {
		return err
	}

	ttl := c.ttl
	// Certified contributions are immutable, keep them around longer.
	if contribution.IsCertified() {
		ttl = 4 * c.ttl
	}

	return c.client.Set(ctx, c.key(contribution.TrackingID), payload, ttl).Err()
}

func (c *contributionCache) Invalidate(ctx context.Context, trackingID string) error {
	return c.client.Del(ctx, c.key(trackingID)).Err()
}

func (c *contributionCache) key(trackingID string) string {
	return fmt.Sprintf("%s%s", c.prefix, trackingID)
}
