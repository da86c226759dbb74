package redis

import (
	"context"
	"fmt"
	"time"

	"ms-ordering/internal/logger"

	"github.com/go-redis/redis/v8"
)

const (
	DefaultTTL = 24 * time.Hour
	keyPrefix  = "arrival:"
)

// Ledger claims arrivals with SETNX so only the first kitchen screen, on any
// instance, wins an order. Keys expire after TTL.
type Ledger struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewLedger(client *redis.Client, ttl time.Duration, log *logger.Logger) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ledger{Client: client, TTL: ttl, Logger: log}
}

func key(scope, id string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, scope, id)
}

// Claim a single arrival
func (l *Ledger) Claim(ctx context.Context, scope, id string) (bool, error) {
	ok, err := l.Client.SetNX(ctx, key(scope, id), time.Now().UTC().Format(time.RFC3339), l.TTL).Result()
	if err != nil {
		l.Logger.Error("REDIS", fmt.Sprintf("arrival claim failed for %s: %v", id, err))
		return false, err
	}
	return ok, nil
}

// Claimed checks an arrival without claiming it
func (l *Ledger) Claimed(ctx context.Context, scope, id string) (bool, error) {
	_, err := l.Client.Get(ctx, key(scope, id)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ClaimAll claims each id and returns the ones this caller won, in order.
func (l *Ledger) ClaimAll(ctx context.Context, scope string, ids []string) ([]string, error) {
	won := make([]string, 0, len(ids))
	for _, id := range ids {
		ok, err := l.Claim(ctx, scope, id)
		if err != nil {
			return won, err
		}
		if ok {
			won = append(won, id)
		}
	}
	return won, nil
}

// Release forgets an arrival so it can be announced again, e.g. for a reprint.
func (l *Ledger) Release(ctx context.Context, scope, id string) error {
	return l.Client.Del(ctx, key(scope, id)).Err()
}

// Connect opens a client and checks it answers.
func Connect(ctx context.Context, addr string, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		log.Error("REDIS", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		return nil, err
	}

	log.Info("REDIS", fmt.Sprintf("Successfully connected to Redis at %s", addr))
	return client, nil
}
