package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"food-delivery-backend/models"

	"github.com/redis/go-redis/v9"
)

const availableCouriersKey = "couriers:available"

type RedisCourierCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCourierCache(client *redis.Client, ttl time.Duration) *RedisCourierCache {
	return &RedisCourierCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCourierCache) GetAvailable(ctx context.Context) ([]models.Courier, error) {
	data, err := r.client.Get(ctx, availableCouriersKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var couriers []models.Courier
	if err := json.Unmarshal(data, &couriers); err != nil {
		return nil, fmt.Errorf("unmarshal couriers failed: %w", err)
	}
	return couriers, nil
}

func (r *RedisCourierCache) SetAvailable(ctx context.Context, couriers []models.Courier) error {
	data, err := json.Marshal(couriers)
	if err != nil {
		return fmt.Errorf("marshal couriers failed: %w", err)
	}
	if err := r.client.Set(ctx, availableCouriersKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCourierCache) Invalidate(ctx context.Context) error {
	if err := r.client.Del(ctx, availableCouriersKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
