package interfaces

import (
	"context"
	"time"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
)

type MailboxConnectionRepository interface {
	Create(ctx context.Context, connection *models.MailboxConnection) error
	GetByUserAndMailbox(ctx context.Context, userID, emailAddress string) (*models.MailboxConnection, error)
	GetByMailbox(ctx context.Context, emailAddress string) (*models.MailboxConnection, error)
	ListAll(ctx context.Context) ([]*models.MailboxConnection, error)
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error
}
