package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/franciscosanchezn/testigo-api/internal/cache"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRedis connects to TEST_REDIS_ADDR and skips when no server is available
func testRedis(t *testing.T) *cache.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	c := cache.New(addr, os.Getenv("TEST_REDIS_PASSWORD"), 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		t.Skipf("redis at %s unreachable: %v", addr, err)
	}
	t.Cleanup(func() {
		_ = c.Delete(context.Background(), statsCacheKey, statsByCategoryCacheKey)
		_ = c.Close()
	})
	return c
}

func warmStats(t *testing.T, public PublicService, c *cache.Client) {
	t.Helper()
	ctx := context.Background()
	_, err := public.Stats(ctx)
	require.NoError(t, err)
	_, err = public.StatsByCategory(ctx)
	require.NoError(t, err)

	var cached map[string]interface{}
	require.True(t, c.GetJSON(ctx, statsCacheKey, &cached))
}

func assertStatsDropped(t *testing.T, c *cache.Client) {
	t.Helper()
	ctx := context.Background()
	var global map[string]interface{}
	assert.False(t, c.GetJSON(ctx, statsCacheKey, &global))
	var byCategory []map[string]interface{}
	assert.False(t, c.GetJSON(ctx, statsByCategoryCacheKey, &byCategory))
}

func TestStatsCacheInvalidation(t *testing.T) {
	c := testRedis(t)
	f := newFixture(t)
	ctx := context.Background()

	public := NewPublicService(f.db, c, time.Minute)
	users := NewUserService(f.db, f.storage, c)
	catalog := NewCatalogService(f.db, c)

	t.Run("create category", func(t *testing.T) {
		warmStats(t, public, c)
		_, err := catalog.CreateCategory(ctx, "Healthcare")
		require.NoError(t, err)
		assertStatsDropped(t, c)
	})

	t.Run("delete category", func(t *testing.T) {
		category := testutil.Category(t, f.db, "Retail")
		warmStats(t, public, c)
		require.NoError(t, catalog.DeleteCategory(ctx, category.ID))
		assertStatsDropped(t, c)
	})

	t.Run("delete user", func(t *testing.T) {
		owner := identityOf(testutil.CreateUser(t, f.db, "leaving@example.com", models.RoleContributor))
		warmStats(t, public, c)
		require.NoError(t, users.DeleteUser(ctx, f.admin, owner.UserID))
		assertStatsDropped(t, c)
	})
}
