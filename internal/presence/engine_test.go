package presence_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"userhive/backend/internal/models"
	"userhive/backend/internal/presence"
)

// fakeCache keeps records in memory and can fail on demand.
type fakeCache struct {
	records map[string]*models.Status
	getErr  error
	setErr  error
	ttls    map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		records: make(map[string]*models.Status),
		ttls:    make(map[string]time.Duration),
	}
}

func (c *fakeCache) Get(_ context.Context, key string) (*models.Status, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.records[key], nil
}

func (c *fakeCache) Set(_ context.Context, key string, status *models.Status, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	copied := *status
	c.records[key] = &copied
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) GetMany(_ context.Context, keys []string) ([]*models.Status, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	var statuses []*models.Status
	for _, key := range keys {
		if status, ok := c.records[key]; ok {
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

func newEngine(cache presence.Cache) *presence.Engine {
	return presence.NewEngine(cache, "USERS_STATUS", zap.NewNop())
}

func ownerUser() *models.User {
	return &models.User{ID: 1, FirstName: "Olga", Role: models.RoleOwner}
}

func plainUser() *models.User {
	return &models.User{ID: 2, FirstName: "Ann", Role: models.RoleUser}
}

func TestConnectDisconnectCycle(t *testing.T) {
	cache := newFakeCache()
	engine := newEngine(cache)
	ctx := context.Background()
	user := plainUser()

	status := engine.Connect(ctx, user, "agent-x")
	assert.True(t, status.Online())
	assert.Nil(t, status.LastConnection)

	status = engine.Disconnect(ctx, user, "agent-x")
	assert.False(t, status.Online())
	assert.NotNil(t, status.LastConnection)

	// A new agent brings the user back online and clears lastConnection.
	status = engine.Connect(ctx, user, "agent-y")
	assert.True(t, status.Online())
	assert.Nil(t, status.LastConnection)
}

func TestDisconnectKeepsOtherAgents(t *testing.T) {
	cache := newFakeCache()
	engine := newEngine(cache)
	ctx := context.Background()
	user := plainUser()

	engine.Connect(ctx, user, "laptop")
	engine.Connect(ctx, user, "phone")

	status := engine.Disconnect(ctx, user, "laptop")
	assert.True(t, status.Online())
	assert.Nil(t, status.LastConnection)
}

func TestConnectWritesWithLongTTL(t *testing.T) {
	cache := newFakeCache()
	engine := newEngine(cache)

	engine.Connect(context.Background(), plainUser(), "agent-x")
	assert.Equal(t, presence.StatusTTL, cache.ttls["USERS_STATUS.2"])
}

func TestConnectSwallowsCacheErrors(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	engine := newEngine(cache)

	status := engine.Connect(context.Background(), plainUser(), "agent-x")
	assert.True(t, status.Online())
}

func TestStatusesOwnerOnly(t *testing.T) {
	cache := newFakeCache()
	engine := newEngine(cache)
	ctx := context.Background()

	engine.Connect(ctx, plainUser(), "agent-x")

	statuses, err := engine.Statuses(ctx, ownerUser(), []uint{2, 99})
	assert.NoError(t, err)
	assert.Len(t, statuses, 1)
	assert.Contains(t, statuses, uint(2))

	// Non-owner callers are silently ignored.
	statuses, err = engine.Statuses(ctx, plainUser(), []uint{2})
	assert.NoError(t, err)
	assert.Nil(t, statuses)
}

func TestLogout(t *testing.T) {
	cache := newFakeCache()
	engine := newEngine(cache)
	ctx := context.Background()
	user := plainUser()

	engine.Connect(ctx, user, "agent-x")

	status, err := engine.Logout(ctx, ownerUser(), 2)
	assert.NoError(t, err)
	assert.NotNil(t, status)

	// Offline target yields nothing.
	engine.Disconnect(ctx, user, "agent-x")
	status, err = engine.Logout(ctx, ownerUser(), 2)
	assert.NoError(t, err)
	assert.Nil(t, status)

	// Non-owner callers are silently ignored.
	status, err = engine.Logout(ctx, plainUser(), 2)
	assert.NoError(t, err)
	assert.Nil(t, status)
}
