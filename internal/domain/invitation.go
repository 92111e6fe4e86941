package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Invitation is a pending account-setup offer. The raw token is never stored;
// only its salted hash is. Cancellation is a soft delete (DeletedAt tombstone).
type Invitation struct {
	InviteID  uuid.UUID         `gorm:"column:invite_id;type:uuid;primaryKey" json:"invite_id"`
	Email     string            `gorm:"column:email;not null;index" json:"email"`
	Role      string            `gorm:"column:role;not null" json:"role"`
	InvitedBy string            `gorm:"column:invited_by;not null" json:"invited_by"`
	TripID    *uuid.UUID        `gorm:"column:trip_id;type:uuid" json:"trip_id"`
	TokenHash string            `gorm:"column:token_hash;not null" json:"-"`
	Salt      string            `gorm:"column:salt;not null" json:"-"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata" json:"metadata"`
	ExpiresAt time.Time         `gorm:"column:expires_at;not null" json:"expires_at"`
	Used      bool              `gorm:"column:used;not null;default:false" json:"used"`
	UsedAt    *time.Time        `gorm:"column:used_at" json:"used_at"`
	UsedBy    *string           `gorm:"column:used_by" json:"used_by"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (Invitation) TableName() string {
	return "Invitations"
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.InviteID == uuid.Nil {
		i.InviteID = uuid.New()
	}
	return nil
}

// Active reports whether the invitation can still be consumed at the given time.
func (i *Invitation) Active(now time.Time) bool {
	return !i.Used && i.ExpiresAt.After(now)
}
