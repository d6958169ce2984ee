package crm

import (
	"context"

	"github.com/pancake-sync/backend/internal/domain/shared"
)

// User represents a remote API actor (creator, assignee, marketer). Users
// are tenant-agnostic: the same remote account appears across shops, so the
// remote id is globally unique.
type User struct {
	shared.BaseEntity
	PancakeID   string `gorm:"type:varchar(64);not null;uniqueIndex:idx_users_pancake_id"`
	Name        string `gorm:"type:varchar(255)"`
	PhoneNumber string `gorm:"type:varchar(50)"`
	AvatarURL   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// RemoteID returns the remote identifier used for reconciliation
func (u *User) RemoteID() string {
	return u.PancakeID
}

// NewUser creates a new user mirror
func NewUser(pancakeID, name string) *User {
	return &User{
		BaseEntity: shared.NewBaseEntity(),
		PancakeID:  pancakeID,
		Name:       name,
	}
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// MapByPancakeID bulk-loads users for the given remote ids
	MapByPancakeID(ctx context.Context, pancakeIDs []string) (map[string]*User, error)
}
