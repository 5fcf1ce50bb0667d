package interfaces

import (
	"context"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
)

type CredentialVault interface {
	// AccessToken returns a currently valid plaintext token, refreshing and persisting it
	// first when the stored one has expired.
	AccessToken(ctx context.Context, connection *models.MailboxConnection) (string, error)
	Seal(plaintext string) (string, error)
}
