package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
)

// InitializationMarker exists once bootstrap has recorded every unread message of a mailbox.
type InitializationMarker struct {
	ID           string    `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID       string    `gorm:"column:user_id;type:varchar(255);not null;uniqueIndex:uq_mailbox_initialization,priority:1" json:"userId"`
	EmailAddress string    `gorm:"column:email_address;type:varchar(255);not null;uniqueIndex:uq_mailbox_initialization,priority:2" json:"emailAddress"`
	SkippedCount int       `gorm:"column:skipped_count;type:integer;not null;default:0" json:"skippedCount"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (InitializationMarker) TableName() string {
	return "mailbox_initializations"
}

func (m *InitializationMarker) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("init", 16)
	}
	return nil
}
