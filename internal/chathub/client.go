package chathub

import "userhive/backend/internal/models"

// Client is the interface for one active socket connection. It abstracts the
// underlying transport so the hub can manage presence and chat connections
// uniformly and tests can use in-memory clients.
type Client interface {
	// GetUser returns the authenticated identity behind the connection.
	GetUser() *models.User
	// GetAgent returns the user-agent string identifying this connection
	// among the user's concurrent devices.
	GetAgent() string

	// GetSendChannel returns the channel the hub writes outbound frames to.
	GetSendChannel() chan<- models.Envelope

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's send channel, stopping the write pump.
	Close()
}
