package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEvent is one row in the security audit trail (invite create/resend/cancel/accept,
// rate-limit rejections).
type AuditEvent struct {
	EventID   uuid.UUID         `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	Actor     string            `gorm:"column:actor;not null;index" json:"actor"`
	Action    string            `gorm:"column:action;not null;index" json:"action"`
	Target    string            `gorm:"column:target" json:"target"`
	Outcome   string            `gorm:"column:outcome;not null" json:"outcome"`
	Details   datatypes.JSONMap `gorm:"column:details" json:"details"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (AuditEvent) TableName() string {
	return "AuditEvents"
}

func (e *AuditEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
