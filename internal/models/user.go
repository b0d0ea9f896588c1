package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles form a two-level ownership hierarchy: an owner creates admins and
// users, and every non-owner has exactly one owning parent.
const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an identity record in PostgreSQL.
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"type:varchar(45);not null" json:"firstName"`
	LastName  string `gorm:"type:varchar(45);not null" json:"lastName"`
	// Email carries a plain index, deliberately not a unique constraint.
	// Collisions are checked in-transaction against the full history,
	// soft-deleted rows included.
	Email    string `gorm:"type:varchar(320);not null;index" json:"email"`
	Password string `gorm:"type:varchar(72);not null" json:"-"`
	Role     string `gorm:"type:varchar(10);not null" json:"role"`
	Phone    string `gorm:"type:varchar(20)" json:"phone"`

	// CreatedBy references the owning parent. Owners reference themselves.
	CreatedBy *uint `gorm:"column:created_by;index" json:"createdBy"`
	Parent    *User `gorm:"foreignKey:CreatedBy" json:"parent,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deletedAt"`
}

func (u *User) IsOwner() bool {
	return u.Role == RoleOwner
}

// ParentID returns the owning parent's id, falling back to the user's own id
// when no parent row is linked.
func (u *User) ParentID() uint {
	if u.CreatedBy != nil {
		return *u.CreatedBy
	}
	return u.ID
}

// PublicUser is the identity view shared with clients and downstream
// services. It never carries the password hash.
type PublicUser struct {
	ID        uint      `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedBy uint      `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Redacted converts the entity into its public view.
func (u *User) Redacted() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedBy: u.ParentID(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
