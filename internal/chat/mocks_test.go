package chat_test

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"userhive/backend/internal/docstore"
	"userhive/backend/internal/models"
)

type MockDocStore struct {
	mock.Mock

	// LastBatch records the operations queued by the most recent Batch call.
	LastBatch *docstore.Batch
}

func (m *MockDocStore) Get(ctx context.Context, collection, key string) (json.RawMessage, error) {
	args := m.Called(ctx, collection, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockDocStore) Query(ctx context.Context, collection string, groups ...docstore.Group) ([]json.RawMessage, error) {
	args := m.Called(ctx, collection, groups)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]json.RawMessage), args.Error(1)
}

func (m *MockDocStore) Set(ctx context.Context, collection, key string, doc any) error {
	args := m.Called(ctx, collection, key, doc)
	return args.Error(0)
}

func (m *MockDocStore) Update(ctx context.Context, collection, key string, fields map[string]any) error {
	args := m.Called(ctx, collection, key, fields)
	return args.Error(0)
}

func (m *MockDocStore) Batch(ctx context.Context, fn func(b *docstore.Batch)) error {
	batch := &docstore.Batch{}
	fn(batch)
	m.LastBatch = batch
	args := m.Called(ctx)
	return args.Error(0)
}

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) FindByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockPresenceReader struct {
	mock.Mock
}

func (m *MockPresenceReader) InitialStatus(ctx context.Context, id uint) (*models.Status, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Status), args.Error(1)
}

type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) Emit(ctx context.Context, channel string, payload []byte) error {
	args := m.Called(ctx, channel, payload)
	return args.Error(0)
}
