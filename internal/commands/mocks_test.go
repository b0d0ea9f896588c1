package commands_test

import (
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"userhive/backend/internal/models"
)

// fakeRunner executes the unit of work without a database, counting commits
// and rollbacks.
type fakeRunner struct {
	commits   int
	rollbacks int
}

func (r *fakeRunner) RunInTransaction(fn func(tx *gorm.DB) error) error {
	if err := fn(nil); err != nil {
		r.rollbacks++
		return err
	}
	r.commits++
	return nil
}

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) FindByEmailAny(tx *gorm.DB, email string) (*models.User, error) {
	args := m.Called(tx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) FindByEmailAnyExcept(tx *gorm.DB, email string, id uint) (*models.User, error) {
	args := m.Called(tx, email, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) FindByIDTx(tx *gorm.DB, id uint) (*models.User, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) Create(tx *gorm.DB, user *models.User) error {
	args := m.Called(tx, user)
	return args.Error(0)
}

func (m *MockUserStore) Update(tx *gorm.DB, id, parentID uint, fields map[string]any) (*models.User, error) {
	args := m.Called(tx, id, parentID, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) SoftDelete(tx *gorm.DB, id, parentID uint) (*models.User, error) {
	args := m.Called(tx, id, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) Restore(tx *gorm.DB, id, parentID uint) (*models.User, error) {
	args := m.Called(tx, id, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockStager struct {
	mock.Mock
}

func (m *MockStager) Stage(tx *gorm.DB, channel string, kind models.OutboxKind, payload any) error {
	args := m.Called(tx, channel, kind, payload)
	return args.Error(0)
}
