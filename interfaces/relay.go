package interfaces

import (
	"context"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
)

// RelayDispatcher writes the final ledger record of a message. Both methods return a nil
// record when the message was already recorded by another invocation.
type RelayDispatcher interface {
	Dispatch(ctx context.Context, conn *models.MailboxConnection, email dto.NormalizedEmail) (*models.ProcessedMessage, error)
	RecordFailure(ctx context.Context, conn *models.MailboxConnection, messageID string, cause error) (*models.ProcessedMessage, error)
}

// MailboxPoller runs one ingestion invocation for a connection.
type MailboxPoller interface {
	Run(ctx context.Context, conn *models.MailboxConnection) (dto.PollResult, error)
}
