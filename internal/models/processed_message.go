package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
)

// ProcessedMessage is one row of the dedup ledger. The unique index on
// (user_id, email_address, message_id) is what makes relay at-most-once.
type ProcessedMessage struct {
	ID           string               `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID       string               `gorm:"column:user_id;type:varchar(255);not null;uniqueIndex:uq_processed_message,priority:1" json:"userId"`
	EmailAddress string               `gorm:"column:email_address;type:varchar(255);not null;uniqueIndex:uq_processed_message,priority:2" json:"emailAddress"`
	MessageID    string               `gorm:"column:message_id;type:varchar(255);not null;uniqueIndex:uq_processed_message,priority:3" json:"messageId"`
	Status       enum.ProcessedStatus `gorm:"column:status;type:varchar(50);not null;index" json:"status"`
	ErrorDetail  *string              `gorm:"column:error_detail;type:text" json:"errorDetail,omitempty"`
	Payload      JSONMap              `gorm:"column:payload;type:jsonb" json:"payload,omitempty"`
	CreatedAt    time.Time            `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
}

func (ProcessedMessage) TableName() string {
	return "processed_messages"
}

func (p *ProcessedMessage) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = utils.GenerateNanoIDWithPrefix("pmsg", 16)
	}
	return nil
}
