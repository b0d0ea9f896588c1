package models

import "time"

// MessageStatus tracks the delivery state of a chat message.
type MessageStatus string

const (
	MessagePending MessageStatus = "pending"
	MessageSuccess MessageStatus = "success"
	MessageError   MessageStatus = "error"
)

// Message is an entry inside a conversation's message sub-collection. The id
// is client-supplied and doubles as the idempotency key for retried sends.
type Message struct {
	ID        string        `json:"id"`
	UserID    uint          `json:"userId"`
	Text      string        `json:"text"`
	IsReaded  bool          `json:"isReaded"`
	Status    MessageStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	DeletedAt *time.Time    `json:"deletedAt"`
}

// Conversation is a two-party dialogue document. The room id is the document
// key: both participant ids joined in creation order, so for any unordered
// pair there is at most one live conversation.
type Conversation struct {
	ID              string     `json:"id"`
	CreatorID       uint       `json:"creatorId"`
	TargetID        uint       `json:"targetId"`
	RoomID          string     `json:"roomId"`
	IsCreatorTyping bool       `json:"isCreatorTyping"`
	IsTargetTyping  bool       `json:"isTargetTyping"`
	Contributors    []uint     `json:"contributors"`
	LastMessage     *Message   `json:"lastMessage"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	DeletedAt       *time.Time `json:"deletedAt"`
	DeletedBy       *uint      `json:"deletedBy"`
}

// TargetOf returns the other participant of the conversation.
func (c *Conversation) TargetOf(userID uint) uint {
	if c.CreatorID == userID {
		return c.TargetID
	}
	return c.CreatorID
}

// AddContributor unions the id into the contributor set and reports whether
// the set changed.
func (c *Conversation) AddContributor(id uint) bool {
	for _, existing := range c.Contributors {
		if existing == id {
			return false
		}
	}
	c.Contributors = append(c.Contributors, id)
	return true
}
