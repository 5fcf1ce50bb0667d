package interfaces

import (
	"context"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
)

type ProcessedMessageRepository interface {
	// InsertIfAbsent returns false when a record for the same
	// (user, mailbox, message id) already exists.
	InsertIfAbsent(ctx context.Context, record *models.ProcessedMessage) (bool, error)
	ExistingMessageIDs(ctx context.Context, userID, emailAddress string, messageIDs []string) (map[string]bool, error)
	Get(ctx context.Context, userID, emailAddress, messageID string) (*models.ProcessedMessage, error)
}

// MessageRecorder writes a ledger record unless one already exists for the message.
type MessageRecorder interface {
	Record(ctx context.Context, record *models.ProcessedMessage) (inserted bool, err error)
}
