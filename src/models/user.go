package models

import "fest/src/types"

// User is the identity-store profile this service consumes. Credentials and
// session issuance live outside; only the resolved identity is persisted here.
type User struct {
	ID    uint       `gorm:"primarykey" json:"id"`
	Email string     `gorm:"uniqueIndex" json:"email,omitempty"`
	Role  types.Role `gorm:"default:'participant'" json:"role,omitempty"`

	types.Timestamps
}
