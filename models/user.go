package models

import (
	"time"

	"carwash-backend/utils"

	"gorm.io/gorm"
)

const (
	RoleSuperAdmin   = "superadmin"
	RoleAdmin        = "admin"
	RoleLimitedAdmin = "limited_admin"
	RoleWasher       = "washer"
)

const (
	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"
)

type Salary struct {
	Base  float64 `gorm:"type:decimal(10,2);default:0" json:"base"`
	Bonus float64 `gorm:"type:decimal(10,2);default:0" json:"bonus"`
}

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Phone    string `json:"phone"`
	Password string `gorm:"not null" json:"-"`

	Role   string `gorm:"type:varchar(20);not null;index" json:"role"`
	Status string `gorm:"type:varchar(10);default:'Active'" json:"status"`

	Salary      Salary     `gorm:"embedded;embeddedPrefix:salary_" json:"salary"`
	Address     string     `json:"address,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`

	Attendance []Attendance `gorm:"foreignKey:UserID" json:"attendance,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate hashes the plain-text password set by the caller.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return
}

func (u *User) IsWasher() bool {
	return u.Role == RoleWasher
}

func ValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleLimitedAdmin, RoleWasher:
		return true
	}
	return false
}

// WasherRef is the trimmed user shape embedded in lead and wash responses.
type WasherRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func (u *User) Ref() *WasherRef {
	if u == nil {
		return nil
	}
	return &WasherRef{ID: u.ID, Name: u.Name}
}
