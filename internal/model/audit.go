package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionSubmitRequest  = "SUBMIT_REQUEST"
	ActionSubmitDispatch = "SUBMIT_DISPATCH"
	ActionApproveRequest = "APPROVE_REQUEST"
	ActionDeclineRequest = "DECLINE_REQUEST"
	ActionMarkReceived   = "MARK_RECEIVED"
	ActionDeleteRequest  = "DELETE_REQUEST"
	ActionExportData     = "EXPORT_DATA"
	ActionCreateArchive  = "CREATE_ARCHIVE"
	ActionRestoreArchive = "RESTORE_ARCHIVE"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated job
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(100);index" json:"entity_id"`       // Request ID / archive name
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
