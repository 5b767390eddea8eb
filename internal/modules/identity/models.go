package identity

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

type User struct {
	ID           string         `gorm:"type:char(36);primaryKey"`
	Email        string         `gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string         `gorm:"type:varchar(255);not null"`
	Role         string         `gorm:"type:varchar(32);not null;default:'student'"`
	CreatedAt    time.Time      `gorm:"type:datetime(3);not null"`
	UpdatedAt    time.Time      `gorm:"type:datetime(3);not null"`
	DeletedAt    gorm.DeletedAt `gorm:"type:datetime(3);index"`
}

func (User) TableName() string { return "users" }

// APIToken stores only the SHA-256 of the issued bearer token.
type APIToken struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	UserID    string    `gorm:"type:char(36);not null;index:ix_api_tokens_user_id"`
	TokenHash string    `gorm:"type:char(64);not null;uniqueIndex:ux_api_tokens_hash"`
	ExpiresAt time.Time `gorm:"type:datetime(3);not null"`
	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (APIToken) TableName() string { return "api_tokens" }
