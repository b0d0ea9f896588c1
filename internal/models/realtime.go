package models

import "encoding/json"

// Envelope is the bidirectional websocket frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// WsError is the structured error pushed to a socket instead of a raw
// exception, tagged with the event that caused it.
type WsError struct {
	Event     string `json:"event"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// StartConversation asks to open (or rejoin) a dialogue with a user.
type StartConversation struct {
	ID uint `json:"id"`
}

// SendMessage carries one chat message into an existing conversation.
type SendMessage struct {
	Message        Message `json:"message"`
	RoomID         string  `json:"roomId"`
	ConversationID string  `json:"conversationId"`
}

// MakeRooms joins the requesting socket to a list of room identifiers.
type MakeRooms struct {
	RoomIDs []string `json:"roomIds"`
}

// TypingText is the ephemeral typing-indicator payload, relayed verbatim.
type TypingText struct {
	RoomID         string `json:"roomId"`
	ConversationID string `json:"conversationId"`
	UserID         uint   `json:"userId"`
}

// InitialUserStatus requests a single user's presence record.
type InitialUserStatus struct {
	ID uint `json:"id"`
}

// UsersStatus requests a batch of presence records.
type UsersStatus struct {
	IDs []uint `json:"ids"`
}

// LogoutUser asks to force-logout a currently online user.
type LogoutUser struct {
	ID uint `json:"id"`
}
