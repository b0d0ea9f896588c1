// Package handler wires the HTTP and websocket surface onto the engines.
package handler

import (
	"go.uber.org/zap"

	"userhive/backend/internal/chat"
	"userhive/backend/internal/chathub"
	"userhive/backend/internal/commands"
	"userhive/backend/internal/config"
	"userhive/backend/internal/presence"
	"userhive/backend/internal/storage"
)

// Handler carries the collaborators of the API surface.
type Handler struct {
	Config      *config.Config
	Users       *storage.Service
	Commands    *commands.Set
	Presence    *presence.Engine
	Chat        *chat.Engine
	PresenceHub *chathub.Hub
	ChatHub     *chathub.Hub
	Log         *zap.Logger
}

// NewHandler constructor
func NewHandler(
	cfg *config.Config,
	users *storage.Service,
	cmds *commands.Set,
	presenceEngine *presence.Engine,
	chatEngine *chat.Engine,
	presenceHub *chathub.Hub,
	chatHub *chathub.Hub,
	log *zap.Logger,
) *Handler {
	return &Handler{
		Config:      cfg,
		Users:       users,
		Commands:    cmds,
		Presence:    presenceEngine,
		Chat:        chatEngine,
		PresenceHub: presenceHub,
		ChatHub:     chatHub,
		Log:         log,
	}
}
