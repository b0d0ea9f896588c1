package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"userhive/backend/internal/apperr"
	"userhive/backend/internal/chathub"
	"userhive/backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Tighten in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServePresenceSocket upgrades the connection onto the presence gateway.
func (h *Handler) ServePresenceSocket(c *gin.Context) {
	h.serveSocket(c, h.PresenceHub)
}

// ServeChatSocket upgrades the connection onto the chat gateway.
func (h *Handler) ServeChatSocket(c *gin.Context) {
	h.serveSocket(c, h.ChatHub)
}

func (h *Handler) serveSocket(c *gin.Context, hub *chathub.Hub) {
	user := principal(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	agent := c.GetHeader("User-Agent")
	if agent == "" {
		agent = "unknown"
	}

	client := &chathub.WebSocketClient{
		Hub:   hub,
		User:  user,
		Agent: agent,
		Conn:  conn,
		Send:  make(chan models.Envelope, 256),
		Log:   h.Log,
	}

	hub.RegisterCh <- client
	client.Run()
}

// RegisterPresenceEvents binds the presence gateway's event handlers. Call
// before the hub runs.
func (h *Handler) RegisterPresenceEvents() {
	hub := h.PresenceHub

	hub.OnConnect(func(client chathub.Client) {
		status := h.Presence.Connect(context.Background(), client.GetUser(), client.GetAgent())
		hub.Broadcast("user-status", status)
	})

	hub.OnDisconnect(func(client chathub.Client) {
		status := h.Presence.Disconnect(context.Background(), client.GetUser(), client.GetAgent())
		hub.Broadcast("user-status", status)
	})

	hub.On("initial-user-status", func(client chathub.Client, data json.RawMessage) error {
		// Presence queries are owner-only; everyone else gets silence.
		if !client.GetUser().IsOwner() {
			return nil
		}

		var in models.InitialUserStatus
		if err := json.Unmarshal(data, &in); err != nil {
			return apperr.Wrap(apperr.Validation, "Malformed payload.", err)
		}

		status, err := h.Presence.InitialStatus(context.Background(), in.ID)
		if err != nil {
			return err
		}
		if status != nil {
			hub.Unicast(client, "user-status", status)
		}
		return nil
	})

	hub.On("users-status", func(client chathub.Client, data json.RawMessage) error {
		var in models.UsersStatus
		if err := json.Unmarshal(data, &in); err != nil {
			return apperr.Wrap(apperr.Validation, "Malformed payload.", err)
		}

		statuses, err := h.Presence.Statuses(context.Background(), client.GetUser(), in.IDs)
		if err != nil {
			return err
		}
		// Non-owner callers get no reply at all.
		if statuses != nil {
			hub.Unicast(client, "users_status", statuses)
		}
		return nil
	})

	hub.On("logout-user", func(client chathub.Client, data json.RawMessage) error {
		var in models.LogoutUser
		if err := json.Unmarshal(data, &in); err != nil {
			return apperr.Wrap(apperr.Validation, "Malformed payload.", err)
		}

		status, err := h.Presence.Logout(context.Background(), client.GetUser(), in.ID)
		if err != nil {
			return err
		}
		if status != nil {
			hub.Broadcast("logout-user", status)
		}
		return nil
	})
}

// RegisterChatEvents binds the chat gateway's event handlers. Call before
// the hub runs.
func (h *Handler) RegisterChatEvents() {
	hub := h.ChatHub

	hub.On("start-conversation", func(client chathub.Client, data json.RawMessage) error {
		var in models.StartConversation
		if err := json.Unmarshal(data, &in); err != nil {
			return apperr.Wrap(apperr.Validation, "Malformed payload.", err)
		}

		result, err := h.Chat.Start(context.Background(), client.GetUser(), in.ID)
		if err != nil {
			return err
		}
		// Point-to-point acknowledgment, not a room broadcast.
		hub.Unicast(client, "start-conversation", result)
		return nil
	})

	hub.On("send-message", func(client chathub.Client, data json.RawMessage) error {
		var in models.SendMessage
		if err := json.Unmarshal(data, &in); err != nil {
			return apperr.Wrap(apperr.Validation, "Malformed payload.", err)
		}

		out, err := h.Chat.Send(context.Background(), client.GetUser(), in)
		if err != nil {
			return err
		}
		hub.BroadcastRoom(out.RoomID, "send-message", out, nil)
		return nil
	})

	hub.On("make-rooms", func(client chathub.Client, data json.RawMessage) error {
		var in models.MakeRooms
		if err := json.Unmarshal(data, &in); err != nil {
			return apperr.Wrap(apperr.Validation, "Malformed payload.", err)
		}
		hub.JoinRooms(client, in.RoomIDs)
		return nil
	})

	relay := func(event string) chathub.EventHandler {
		return func(client chathub.Client, data json.RawMessage) error {
			var in models.TypingText
			if err := json.Unmarshal(data, &in); err != nil {
				return apperr.Wrap(apperr.Validation, "Malformed payload.", err)
			}
			hub.BroadcastRoom(in.RoomID, event, in, client)
			return nil
		}
	}
	hub.On("typing-text", relay("typing-text"))
	hub.On("stoping-text", relay("stoping-text"))
}
