package chathub_test

import (
	"userhive/backend/internal/models"
)

type MockClient struct {
	user        *models.User
	agent       string
	closed      bool
	RecvChannel chan models.Envelope
}

func newMockClient(id uint, role string) *MockClient {
	return &MockClient{
		user:        &models.User{ID: id, Role: role},
		agent:       "test-agent",
		RecvChannel: make(chan models.Envelope, 10),
	}
}

func (c *MockClient) GetUser() *models.User { return c.user }

func (c *MockClient) GetAgent() string { return c.agent }

func (c *MockClient) GetSendChannel() chan<- models.Envelope { return c.RecvChannel }

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.closed = true
}
