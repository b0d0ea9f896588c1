// Package commands implements the mutating user operations. Every command
// runs its store mutation and its outbox staging in one transaction, so
// remote systems only ever hear about committed changes.
package commands

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"userhive/backend/internal/apperr"
	"userhive/backend/internal/authz"
	"userhive/backend/internal/messaging"
	"userhive/backend/internal/metrics"
	"userhive/backend/internal/models"
)

// UserStore is the transactional slice of the relational store a command
// needs.
type UserStore interface {
	FindByEmailAny(tx *gorm.DB, email string) (*models.User, error)
	FindByEmailAnyExcept(tx *gorm.DB, email string, id uint) (*models.User, error)
	FindByIDTx(tx *gorm.DB, id uint) (*models.User, error)
	Create(tx *gorm.DB, user *models.User) error
	Update(tx *gorm.DB, id, parentID uint, fields map[string]any) (*models.User, error)
	SoftDelete(tx *gorm.DB, id, parentID uint) (*models.User, error)
	Restore(tx *gorm.DB, id, parentID uint) (*models.User, error)
}

// Stager appends outbound events through the command's transaction.
type Stager interface {
	Stage(tx *gorm.DB, channel string, kind models.OutboxKind, payload any) error
}

// Set bundles the command implementations with their collaborators.
type Set struct {
	runner TxRunner
	store  UserStore
	outbox Stager
	log    *zap.Logger
}

// NewSet constructor
func NewSet(runner TxRunner, store UserStore, outbox Stager, log *zap.Logger) *Set {
	return &Set{runner: runner, store: store, outbox: outbox, log: log}
}

// CreateUserInput carries the pre-validated fields of a new user.
type CreateUserInput struct {
	FirstName string `json:"firstName" binding:"required,max=45"`
	LastName  string `json:"lastName" binding:"required,max=45"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=64"`
	Role      string `json:"role" binding:"omitempty,oneof=admin user"`
	Phone     string `json:"phone" binding:"omitempty,max=20"`
}

// UpdateUserInput carries a partial update; nil fields are left untouched.
type UpdateUserInput struct {
	ID        uint    `json:"id"`
	FirstName *string `json:"firstName" binding:"omitempty,max=45"`
	LastName  *string `json:"lastName" binding:"omitempty,max=45"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Password  *string `json:"password" binding:"omitempty,min=8,max=64"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
}

// CreateUser persists a new user under the acting owner and stages the
// ledger message and the notification event.
func (s *Set) CreateUser(actor *models.User, in CreateUserInput) (*models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}

	var created *models.User
	err := s.runner.RunInTransaction(func(tx *gorm.DB) error {
		existing, err := s.store.FindByEmailAny(tx, in.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.New(apperr.Conflict, "The user with this email already exists.")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		parent := actor.ID
		user := &models.User{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Password:  string(hash),
			Role:      role,
			Phone:     in.Phone,
			CreatedBy: &parent,
		}
		if err := s.store.Create(tx, user); err != nil {
			return err
		}

		if err := s.outbox.Stage(tx, messaging.ChannelCreatedUser, models.OutboxSend, user.Redacted()); err != nil {
			return err
		}
		if err := s.outbox.Stage(tx, messaging.ChannelCreatedUserNotification, models.OutboxEmit, user.Redacted()); err != nil {
			return err
		}

		created = user
		return nil
	})
	s.observe("create_user", err)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateUserByUser applies a user's changes to their own record.
func (s *Set) UpdateUserByUser(actor *models.User, in UpdateUserInput) (*models.User, error) {
	in.ID = actor.ID
	user, err := s.update(in, actor.ParentID())
	s.observe("update_user_by_user", err)
	return user, err
}

// UpdateUserByOwner applies an owner's changes to a record in their tenant.
func (s *Set) UpdateUserByOwner(actor *models.User, in UpdateUserInput) (*models.User, error) {
	user, err := s.update(in, authz.EffectiveParentID(actor, in.ID))
	s.observe("update_user_by_owner", err)
	return user, err
}

// UpdateByMicroservice applies an inbound update message. The target's own
// parent anchors the ownership condition, and ack runs exactly once after the
// command completes, success or failure.
func (s *Set) UpdateByMicroservice(_ context.Context, in UpdateUserInput, ack func() error) (*models.User, error) {
	var updated *models.User
	err := s.runner.RunInTransaction(func(tx *gorm.DB) error {
		target, err := s.store.FindByIDTx(tx, in.ID)
		if err != nil {
			return err
		}
		user, err := s.applyUpdate(tx, in, target.ParentID())
		if err != nil {
			return err
		}
		if err := s.outbox.Stage(tx, messaging.ChannelNotificationToOwners, models.OutboxEmit, user.Redacted()); err != nil {
			return err
		}
		updated = user
		return nil
	})
	s.observe("update_by_microservice", err)

	if ackErr := ack(); ackErr != nil {
		s.log.Error("inbound ack failed", zap.Error(ackErr))
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteUserByUser tombstones the actor's own record.
func (s *Set) DeleteUserByUser(actor *models.User) (*models.User, error) {
	user, err := s.delete(actor.ID, actor.ParentID())
	s.observe("delete_user_by_user", err)
	return user, err
}

// DeleteUserByOwner tombstones a record in the acting owner's tenant.
func (s *Set) DeleteUserByOwner(actor *models.User, id uint) (*models.User, error) {
	user, err := s.delete(id, authz.EffectiveParentID(actor, id))
	s.observe("delete_user_by_owner", err)
	return user, err
}

// RestoreUser clears the tombstone of a record in the acting owner's tenant.
func (s *Set) RestoreUser(actor *models.User, id uint) (*models.User, error) {
	var restored *models.User
	err := s.runner.RunInTransaction(func(tx *gorm.DB) error {
		user, err := s.store.Restore(tx, id, authz.EffectiveParentID(actor, id))
		if err != nil {
			return err
		}
		if err := s.outbox.Stage(tx, messaging.ChannelRestoredUser, models.OutboxSend, user.Redacted()); err != nil {
			return err
		}
		restored = user
		return nil
	})
	s.observe("restore_user", err)
	if err != nil {
		return nil, err
	}
	return restored, nil
}

func (s *Set) update(in UpdateUserInput, parentID uint) (*models.User, error) {
	var updated *models.User
	err := s.runner.RunInTransaction(func(tx *gorm.DB) error {
		user, err := s.applyUpdate(tx, in, parentID)
		if err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Set) applyUpdate(tx *gorm.DB, in UpdateUserInput, parentID uint) (*models.User, error) {
	if in.Email != nil {
		existing, err := s.store.FindByEmailAnyExcept(tx, *in.Email, in.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.New(apperr.Validation, "The user with this email already exists.")
		}
	}

	fields, err := updateFields(in)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, apperr.New(apperr.Validation, "Nothing to update.")
	}

	user, err := s.store.Update(tx, in.ID, parentID, fields)
	if err != nil {
		return nil, err
	}

	if err := s.outbox.Stage(tx, messaging.ChannelUpdatedUser, models.OutboxSend, user.Redacted()); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Set) delete(id, parentID uint) (*models.User, error) {
	var deleted *models.User
	err := s.runner.RunInTransaction(func(tx *gorm.DB) error {
		user, err := s.store.SoftDelete(tx, id, parentID)
		if err != nil {
			return err
		}
		if err := s.outbox.Stage(tx, messaging.ChannelDeletedUser, models.OutboxSend, user.Redacted()); err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func updateFields(in UpdateUserInput) (map[string]any, error) {
	fields := map[string]any{}
	if in.FirstName != nil {
		fields["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		fields["last_name"] = *in.LastName
	}
	if in.Email != nil {
		fields["email"] = *in.Email
	}
	if in.Phone != nil {
		fields["phone"] = *in.Phone
	}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		fields["password"] = string(hash)
	}
	return fields, nil
}

func (s *Set) observe(command string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.Commands.WithLabelValues(command, outcome).Inc()
}

// DecodeUpdatePayload unwraps the inbound `{payload}` envelope into an update
// input.
func DecodeUpdatePayload(data []byte) (UpdateUserInput, error) {
	var envelope struct {
		Payload UpdateUserInput `json:"payload"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return UpdateUserInput{}, apperr.Wrap(apperr.Validation, "Malformed message payload.", err)
	}
	if envelope.Payload.ID == 0 {
		return UpdateUserInput{}, apperr.New(apperr.Validation, "Malformed message payload.")
	}
	return envelope.Payload, nil
}
