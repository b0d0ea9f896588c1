package models

import "time"

// Status is the cached presence record for a single user. It is owned by the
// presence engine; no other component mutates it directly.
type Status struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`

	// LastConnection is nil while at least one agent is connected and is set
	// to the disconnect time as soon as the agent set becomes empty.
	LastConnection *time.Time `json:"lastConnection"`

	// Agents maps a user-agent string to its connect time, one entry per
	// concurrently connected client.
	Agents map[string]time.Time `json:"agents"`
}

// NewStatus builds an empty (offline, no agents) record from an identity.
func NewStatus(user *User) *Status {
	return &Status{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
		Agents:    make(map[string]time.Time),
	}
}

// Online reports whether the user has any live connection.
func (s *Status) Online() bool {
	return len(s.Agents) > 0
}
