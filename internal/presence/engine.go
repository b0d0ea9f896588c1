// Package presence tracks per-user, per-agent connectivity. The cache is the
// sole source of truth for who is online; records survive disconnects with a
// long TTL so clients can still query recent-offline status.
package presence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"userhive/backend/internal/models"
)

// StatusTTL keeps a presence record readable for six months after the last
// write.
const StatusTTL = 15778476 * time.Second

// Engine owns the presence records. All instances share one key namespace,
// so a user connected to any instance is online everywhere.
type Engine struct {
	cache  Cache
	prefix string
	log    *zap.Logger
}

// NewEngine constructor
func NewEngine(cache Cache, prefix string, log *zap.Logger) *Engine {
	return &Engine{cache: cache, prefix: prefix, log: log}
}

func (e *Engine) key(id uint) string {
	return fmt.Sprintf("%s.%d", e.prefix, id)
}

// Connect records a new agent for the user and marks them online. Cache
// failures are logged and swallowed so a presence hiccup never drops the
// socket.
func (e *Engine) Connect(ctx context.Context, user *models.User, agent string) *models.Status {
	status := e.load(ctx, user)
	status.Agents[agent] = time.Now()
	status.LastConnection = nil
	e.save(ctx, status)
	return status
}

// Disconnect removes an agent; when the last agent is gone the record keeps
// the disconnect time as lastConnection.
func (e *Engine) Disconnect(ctx context.Context, user *models.User, agent string) *models.Status {
	status := e.load(ctx, user)
	delete(status.Agents, agent)
	if len(status.Agents) == 0 {
		now := time.Now()
		status.LastConnection = &now
	}
	e.save(ctx, status)
	return status
}

// InitialStatus reads a single user's record. A missing record means the
// user was never seen.
func (e *Engine) InitialStatus(ctx context.Context, id uint) (*models.Status, error) {
	return e.cache.Get(ctx, e.key(id))
}

// Statuses batch-reads records for an owner-role caller. Any other caller is
// silently ignored.
func (e *Engine) Statuses(ctx context.Context, actor *models.User, ids []uint) (map[uint]*models.Status, error) {
	if !actor.IsOwner() {
		return nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, e.key(id))
	}
	statuses, err := e.cache.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}

	merged := make(map[uint]*models.Status, len(statuses))
	for _, status := range statuses {
		merged[status.ID] = status
	}
	return merged, nil
}

// Logout returns the target's record when an owner-role caller force-logs
// out a currently online user; any other case returns nil.
func (e *Engine) Logout(ctx context.Context, actor *models.User, id uint) (*models.Status, error) {
	if !actor.IsOwner() {
		return nil, nil
	}

	status, err := e.cache.Get(ctx, e.key(id))
	if err != nil {
		return nil, err
	}
	if status == nil || status.LastConnection != nil {
		return nil, nil
	}
	return status, nil
}

func (e *Engine) load(ctx context.Context, user *models.User) *models.Status {
	status, err := e.cache.Get(ctx, e.key(user.ID))
	if err != nil {
		e.log.Warn("presence read failed", zap.Uint("user", user.ID), zap.Error(err))
	}
	if status == nil {
		status = models.NewStatus(user)
	}
	if status.Agents == nil {
		status.Agents = make(map[string]time.Time)
	}
	return status
}

func (e *Engine) save(ctx context.Context, status *models.Status) {
	if err := e.cache.Set(ctx, e.key(status.ID), status, StatusTTL); err != nil {
		e.log.Warn("presence write failed", zap.Uint("user", status.ID), zap.Error(err))
	}
}
