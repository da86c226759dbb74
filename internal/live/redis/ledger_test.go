package redis

import (
	"context"
	"testing"
	"time"

	"ms-ordering/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestRedis starts an in-memory redis and a client connected to it.
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}
	return client, mr
}

func cleanupTestRedis(client *redis.Client, mr *miniredis.Miniredis) {
	if client != nil {
		client.Close()
	}
	if mr != nil {
		mr.Close()
	}
}

func TestClaimIsFirstWins(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	ledger := NewLedger(client, time.Hour, logger.NewTestLogger())
	ctx := context.Background()

	ok, err := ledger.Claim(ctx, "r1", "order-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.Claim(ctx, "r1", "order-1")
	require.NoError(t, err)
	assert.False(t, ok, "second screen must not print again")

	ok, err = ledger.Claim(ctx, "r2", "order-1")
	require.NoError(t, err)
	assert.True(t, ok, "scopes are independent")

	claimed, err := ledger.Claimed(ctx, "r1", "order-1")
	require.NoError(t, err)
	assert.True(t, claimed)
	claimed, err = ledger.Claimed(ctx, "r1", "order-2")
	require.NoError(t, err)
	assert.False(t, claimed)

	assert.Equal(t, time.Hour, mr.TTL("arrival:r1:order-1"))
}

func TestClaimExpires(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	ledger := NewLedger(client, 0, logger.NewTestLogger())
	assert.Equal(t, DefaultTTL, ledger.TTL)
	ctx := context.Background()

	ok, err := ledger.Claim(ctx, "r1", "order-1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(DefaultTTL + time.Second)
	ok, err = ledger.Claim(ctx, "r1", "order-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClaimAllAndRelease(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, mr)

	ledger := NewLedger(client, time.Hour, logger.NewTestLogger())
	ctx := context.Background()

	_, err := ledger.Claim(ctx, "r1", "b")
	require.NoError(t, err)

	won, err := ledger.ClaimAll(ctx, "r1", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, won)

	require.NoError(t, ledger.Release(ctx, "r1", "b"))
	won, err = ledger.ClaimAll(ctx, "r1", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, won)
}

func TestClaimFailsWhenRedisIsDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, nil)
	mr.Close()

	_, err := NewLedger(client, time.Hour, logger.NewTestLogger()).Claim(context.Background(), "r1", "x")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer cleanupTestRedis(client, nil)
	addr := mr.Addr()

	connected, err := Connect(context.Background(), addr, logger.NewTestLogger())
	require.NoError(t, err)
	connected.Close()

	mr.Close()
	_, err = Connect(context.Background(), addr, logger.NewTestLogger())
	assert.Error(t, err)
}

// TestLedgerIntegration runs the ledger against a real redis container.
func TestLedgerIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := Connect(ctx, host+":"+port.Port(), logger.NewTestLogger())
	require.NoError(t, err)
	defer client.Close()

	ledger := NewLedger(client, time.Minute, logger.NewTestLogger())
	won, err := ledger.ClaimAll(ctx, "r1", []string{"o1", "o2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"o1", "o2"}, won)

	won, err = ledger.ClaimAll(ctx, "r1", []string{"o1", "o2", "o3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"o3"}, won)
}
