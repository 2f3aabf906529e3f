package users

import (
	"strings"
	"time"

	"github.com/emberline/stockroom/internal/auth"
)

// SystemLevel is the auth level of the hidden system account.
const SystemLevel = 0

// Account is a stored user. NameKey is the lowered name and carries the
// uniqueness constraint so names compare case-insensitively.
type Account struct {
	ID           int64     `gorm:"column:user_id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;size:190;not null"`
	NameKey      string    `gorm:"column:name_key;size:190;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;size:100;not null"`
	AuthLevel    int       `gorm:"column:auth_level;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing accounts.
func (Account) TableName() string {
	return "users"
}

// User returns the principal view of the account.
func (a Account) User() auth.User {
	return auth.User{ID: a.ID, Name: a.Name, AuthLevel: a.AuthLevel}
}

func normalize(value string) string {
	return strings.TrimSpace(value)
}

func nameKey(name string) string {
	return strings.ToLower(normalize(name))
}
