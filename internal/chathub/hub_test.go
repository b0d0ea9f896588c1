package chathub_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"userhive/backend/internal/chathub"
	"userhive/backend/internal/models"
)

func TestHubRegisterUnregister(t *testing.T) {
	hub := chathub.NewHub("test", zap.NewNop())

	var connected, disconnected []uint
	hub.OnConnect(func(c chathub.Client) { connected = append(connected, c.GetUser().ID) })
	hub.OnDisconnect(func(c chathub.Client) { disconnected = append(disconnected, c.GetUser().ID) })

	go hub.Run()

	clientA := newMockClient(1, models.RoleOwner)
	hub.RegisterCh <- clientA
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []uint{1}, connected)

	hub.UnregisterCh <- clientA
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []uint{1}, disconnected)
	assert.True(t, clientA.closed)

	// A second unregister for the same client is a no-op.
	hub.UnregisterCh <- clientA
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []uint{1}, disconnected)
}

func TestHubRoomBroadcastIsolation(t *testing.T) {
	hub := chathub.NewHub("test", zap.NewNop())
	go hub.Run()

	clientA := newMockClient(1, models.RoleOwner)
	clientB := newMockClient(2, models.RoleUser)
	clientC := newMockClient(3, models.RoleUser)

	hub.RegisterCh <- clientA
	hub.RegisterCh <- clientB
	hub.RegisterCh <- clientC
	time.Sleep(100 * time.Millisecond)

	// C never joins the room.
	hub.JoinRooms(clientA, []string{"1.2"})
	hub.JoinRooms(clientB, []string{"1.2"})

	hub.BroadcastRoom("1.2", "send-message", map[string]string{"text": "hello"}, nil)
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, clientA.RecvChannel, 1)
	assert.Len(t, clientB.RecvChannel, 1)
	assert.Len(t, clientC.RecvChannel, 0)
}

func TestHubBroadcastRoomExceptSender(t *testing.T) {
	hub := chathub.NewHub("test", zap.NewNop())
	go hub.Run()

	clientA := newMockClient(1, models.RoleOwner)
	clientB := newMockClient(2, models.RoleUser)
	hub.RegisterCh <- clientA
	hub.RegisterCh <- clientB
	time.Sleep(100 * time.Millisecond)

	hub.JoinRooms(clientA, []string{"1.2"})
	hub.JoinRooms(clientB, []string{"1.2"})

	hub.BroadcastRoom("1.2", "typing-text", models.TypingText{RoomID: "1.2", UserID: 1}, clientA)
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, clientA.RecvChannel, 0)
	assert.Len(t, clientB.RecvChannel, 1)
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := chathub.NewHub("test", zap.NewNop())
	go hub.Run()

	clientA := newMockClient(1, models.RoleOwner)
	clientB := newMockClient(2, models.RoleUser)
	hub.RegisterCh <- clientA
	hub.RegisterCh <- clientB
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast("user-status", models.Status{ID: 1})
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, clientA.RecvChannel, 1)
	assert.Len(t, clientB.RecvChannel, 1)
}

func TestHubDispatch(t *testing.T) {
	hub := chathub.NewHub("test", zap.NewNop())

	var got models.StartConversation
	hub.On("start-conversation", func(client chathub.Client, data json.RawMessage) error {
		return json.Unmarshal(data, &got)
	})

	go hub.Run()

	clientA := newMockClient(1, models.RoleOwner)
	hub.RegisterCh <- clientA
	time.Sleep(100 * time.Millisecond)

	hub.IncomingCh <- chathub.Inbound{
		Client:   clientA,
		Envelope: models.Envelope{Event: "start-conversation", Data: json.RawMessage(`{"id":2}`)},
	}
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, uint(2), got.ID)
	assert.Len(t, clientA.RecvChannel, 0)
}

func TestHubDispatchErrorsBecomeErrorFrames(t *testing.T) {
	hub := chathub.NewHub("test", zap.NewNop())
	go hub.Run()

	clientA := newMockClient(1, models.RoleOwner)
	hub.RegisterCh <- clientA
	time.Sleep(100 * time.Millisecond)

	hub.IncomingCh <- chathub.Inbound{
		Client:   clientA,
		Envelope: models.Envelope{Event: "no-such-event"},
	}
	time.Sleep(100 * time.Millisecond)

	select {
	case frame := <-clientA.RecvChannel:
		assert.Equal(t, "error", frame.Event)

		var wsErr models.WsError
		assert.NoError(t, json.Unmarshal(frame.Data, &wsErr))
		assert.Equal(t, "no-such-event", wsErr.Event)
		assert.NotEmpty(t, wsErr.Timestamp)
	default:
		t.Error("client did not receive an error frame")
	}
}

func TestHubUnregisterLeavesRooms(t *testing.T) {
	hub := chathub.NewHub("test", zap.NewNop())
	go hub.Run()

	clientA := newMockClient(1, models.RoleOwner)
	clientB := newMockClient(2, models.RoleUser)
	hub.RegisterCh <- clientA
	hub.RegisterCh <- clientB
	time.Sleep(100 * time.Millisecond)

	hub.JoinRooms(clientA, []string{"1.2"})
	hub.JoinRooms(clientB, []string{"1.2"})

	hub.UnregisterCh <- clientB
	time.Sleep(100 * time.Millisecond)

	hub.BroadcastRoom("1.2", "send-message", map[string]string{"text": "hello"}, nil)
	time.Sleep(100 * time.Millisecond)

	assert.Len(t, clientA.RecvChannel, 1)
	assert.Len(t, clientB.RecvChannel, 0)
}
