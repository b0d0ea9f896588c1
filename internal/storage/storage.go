package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"userhive/backend/internal/apperr"
	"userhive/backend/internal/models"
)

// Service wraps the relational user store. Methods taking a *gorm.DB handle
// participate in the caller's transaction; the rest run on the root handle.
type Service struct {
	DB *gorm.DB
}

// NewService constructor
func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// FindByEmailAny looks an email up across the full history, soft-deleted
// rows included. Returns (nil, nil) when no row matches.
func (s *Service) FindByEmailAny(tx *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := tx.Unscoped().Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmailAnyExcept is FindByEmailAny excluding one id, used when a user
// changes their own email.
func (s *Service) FindByEmailAnyExcept(tx *gorm.DB, email string, id uint) (*models.User, error) {
	var user models.User
	err := tx.Unscoped().Where("email = ? AND id != ?", email, id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDTx loads a user with its parent inside the caller's transaction.
func (s *Service) FindByIDTx(tx *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := tx.Preload("Parent").Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "Could not found the user.")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user row.
func (s *Service) Create(tx *gorm.DB, user *models.User) error {
	return tx.Create(user).Error
}

// Update applies field changes conditioned on id and ownership. A zero-row
// effect surfaces as a generic NoEffect error so existence never leaks.
func (s *Service) Update(tx *gorm.DB, id, parentID uint, fields map[string]any) (*models.User, error) {
	fields["updated_at"] = time.Now()
	res := tx.Model(&models.User{}).
		Where("id = ? AND created_by = ?", id, parentID).
		Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.NoEffect, "Could not update the user.")
	}
	return s.FindByIDTx(tx, id)
}

// SoftDelete tombstones a live row conditioned on id and ownership.
func (s *Service) SoftDelete(tx *gorm.DB, id, parentID uint) (*models.User, error) {
	res := tx.Where("id = ? AND deleted_at IS NULL AND created_by = ?", id, parentID).
		Delete(&models.User{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.NoEffect, "Could not delete the user.")
	}
	var user models.User
	if err := tx.Unscoped().Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Restore clears the tombstone of a soft-deleted row conditioned on id and
// ownership.
func (s *Service) Restore(tx *gorm.DB, id, parentID uint) (*models.User, error) {
	res := tx.Unscoped().Model(&models.User{}).
		Where("id = ? AND deleted_at IS NOT NULL AND created_by = ?", id, parentID).
		Update("deleted_at", nil)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.NoEffect, "Could not restore the user.")
	}
	return s.FindByIDTx(tx, id)
}

// FindByID loads a live user with its parent.
func (s *Service) FindByID(id uint) (*models.User, error) {
	return s.FindByIDTx(s.DB, id)
}

// FindByEmail loads a live user by email with its parent.
func (s *Service) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.DB.Preload("Parent").Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "Could not found the user.")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// List returns one page of live users ordered by creation time, newest first,
// together with the total count.
func (s *Service) List(page, take int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if take < 1 || take > 100 {
		take = 20
	}

	var total int64
	if err := s.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.DB.Preload("Parent").
		Order("created_at DESC").
		Limit(take).
		Offset((page - 1) * take).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Quantities holds per-role user counts for the reporting endpoint.
type Quantities struct {
	Quantities      int64 `json:"quantities"`
	OwnerQuantities int64 `json:"ownerQuantities"`
	AdminQuantities int64 `json:"adminQuantities"`
	UserQuantities  int64 `json:"userQuantities"`
}

// Quantities aggregates live-user role counts in a single query.
func (s *Service) Quantities() (*Quantities, error) {
	var q Quantities
	err := s.DB.Raw(`
        SELECT
            COALESCE(COUNT(id), 0)::BIGINT                    AS quantities,
            COALESCE(SUM((role = ?)::INTEGER), 0)::BIGINT     AS owner_quantities,
            COALESCE(SUM((role = ?)::INTEGER), 0)::BIGINT     AS admin_quantities,
            COALESCE(SUM((role = ?)::INTEGER), 0)::BIGINT     AS user_quantities
        FROM users
        WHERE deleted_at IS NULL
    `, models.RoleOwner, models.RoleAdmin, models.RoleUser).Scan(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}
