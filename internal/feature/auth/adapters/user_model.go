package adapters

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mindflow_backend/internal/feature/auth/domain/entity"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID              string  `gorm:"primaryKey;size:36"`
	Name            string  `gorm:"size:50;not null"`
	Email           string  `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash    string  `gorm:"column:password;size:255;not null"`
	RefreshToken    *string `gorm:"size:1024"`
	IsEmailVerified bool    `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID and normalises the email before insert.
func (m *UserModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	return nil
}

// ToEntity converts the GORM model to a domain entity.
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:              m.ID,
		Name:            m.Name,
		Email:           m.Email,
		PasswordHash:    m.PasswordHash,
		RefreshToken:    m.RefreshToken,
		IsEmailVerified: m.IsEmailVerified,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// UserModelFromEntity converts a domain entity to a GORM model.
func UserModelFromEntity(u *entity.User) *UserModel {
	return &UserModel{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		RefreshToken:    u.RefreshToken,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
