package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ms-ordering/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"
)

// ProfileStore finds the staff profile of an identity subject. A missing
// profile is (nil, nil).
type ProfileStore interface {
	StaffProfile(ctx context.Context, userID string) (*models.StaffProfile, error)
}

type ProfileDB struct {
	Bun *bun.DB
}

func (d *ProfileDB) StaffProfile(ctx context.Context, userID string) (*models.StaffProfile, error) {
	profile := new(models.StaffProfile)
	err := d.Bun.NewSelect().
		Model(profile).
		Where("id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

const profileKeyPrefix = "staff_profile:"

// CachedProfiles keeps profile lookups in Redis for TTL. Missing profiles are
// not cached so a newly provisioned account works on its next request.
type CachedProfiles struct {
	Store  ProfileStore
	Client *redis.Client
	TTL    time.Duration
}

func NewCachedProfiles(store ProfileStore, client *redis.Client, ttl time.Duration) *CachedProfiles {
	return &CachedProfiles{Store: store, Client: client, TTL: ttl}
}

func (c *CachedProfiles) StaffProfile(ctx context.Context, userID string) (*models.StaffProfile, error) {
	if c.Client == nil {
		return c.Store.StaffProfile(ctx, userID)
	}

	key := profileKeyPrefix + userID
	raw, err := c.Client.Get(ctx, key).Result()
	if err == nil {
		var profile models.StaffProfile
		if jsonErr := json.Unmarshal([]byte(raw), &profile); jsonErr == nil {
			return &profile, nil
		}
	} else if err != redis.Nil {
		// Redis down: fall through to the database.
		return c.Store.StaffProfile(ctx, userID)
	}

	profile, err := c.Store.StaffProfile(ctx, userID)
	if err != nil || profile == nil {
		return profile, err
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal staff profile: %w", err)
	}
	c.Client.Set(ctx, key, payload, c.TTL)
	return profile, nil
}

// Invalidate drops a cached profile after a role change.
func (c *CachedProfiles) Invalidate(ctx context.Context, userID string) error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Del(ctx, profileKeyPrefix+userID).Err()
}
