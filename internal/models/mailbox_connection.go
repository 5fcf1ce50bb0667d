package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
)

// MailboxConnection links a platform user to one external mailbox. Token columns hold
// vault-sealed ciphertext, never plaintext.
type MailboxConnection struct {
	ID             string            `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	UserID         string            `gorm:"column:user_id;type:varchar(255);not null;uniqueIndex:uq_mailbox_connection,priority:1" json:"userId"`
	EmailAddress   string            `gorm:"column:email_address;type:varchar(255);not null;index;uniqueIndex:uq_mailbox_connection,priority:2" json:"emailAddress"`
	Provider       enum.MailProvider `gorm:"column:provider;type:varchar(50);not null;uniqueIndex:uq_mailbox_connection,priority:3" json:"provider"`
	AccessToken    string            `gorm:"column:access_token;type:text" json:"-"`
	RefreshToken   string            `gorm:"column:refresh_token;type:text" json:"-"`
	TokenExpiresAt *time.Time        `gorm:"column:token_expires_at;type:timestamp" json:"tokenExpiresAt"`
	CreatedAt      time.Time         `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (MailboxConnection) TableName() string {
	return "mailbox_connections"
}

func (m *MailboxConnection) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("mbxc", 16)
	}
	return nil
}

// TokenExpired reports whether the access token must be refreshed at now. A missing
// expiry counts as expired.
func (m *MailboxConnection) TokenExpired(now time.Time, skew time.Duration) bool {
	if m.TokenExpiresAt == nil {
		return true
	}
	return !now.Add(skew).Before(*m.TokenExpiresAt)
}
