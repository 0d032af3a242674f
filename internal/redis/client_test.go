//go:build integration
// +build integration

package redis

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"team-service/internal/config"
	"team-service/internal/repository"
)

func testClient(t *testing.T) *Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	host, port, ok := strings.Cut(addr, ":")
	require.True(t, ok, "TEST_REDIS_ADDR must be host:port")

	log := logrus.New()
	log.SetOutput(io.Discard)

	client, err := NewClient(config.RedisConfig{Host: host, Port: port}, 30*time.Second, log)
	require.NoError(t, err)
	t.Cleanup(func() {
		client.rdb.Del(context.Background(), SweepLockKey)
		client.Close()
	})
	return client
}

func TestSweepLock_MutualExclusion(t *testing.T) {
	a := testClient(t)
	b := testClient(t)
	ctx := context.Background()

	ok, err := a.AcquireSweepLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = b.AcquireSweepLock(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	a.ReleaseSweepLock(ctx)

	ok, err = b.AcquireSweepLock(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSweepLock_StaleReleaseLeavesNewOwner(t *testing.T) {
	a := testClient(t)
	b := testClient(t)
	ctx := context.Background()

	ok, err := a.AcquireSweepLock(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	ok, err = b.AcquireSweepLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// a's lock already expired; releasing must not touch b's lock.
	a.ReleaseSweepLock(ctx)

	owner, err := b.rdb.Get(ctx, SweepLockKey).Result()
	require.NoError(t, err)
	assert.Equal(t, b.localID, owner)
}

func TestSeatSummaryCache_RoundTrip(t *testing.T) {
	c := testClient(t)
	ctx := context.Background()
	orgID := uuid.New()

	_, hit := c.GetSeatSummary(ctx, orgID)
	assert.False(t, hit)

	summary := &repository.SeatSummary{
		OrganizationID: orgID,
		MaxSeats:       5,
		UsedSeats:      3,
		AvailableSeats: 2,
		CanInvite:      true,
	}
	c.SetSeatSummary(ctx, orgID, summary)

	cached, hit := c.GetSeatSummary(ctx, orgID)
	require.True(t, hit)
	assert.Equal(t, summary, cached)

	c.InvalidateSeatSummary(ctx, orgID)
	_, hit = c.GetSeatSummary(ctx, orgID)
	assert.False(t, hit)
}
