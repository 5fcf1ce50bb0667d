package interfaces

import (
	"context"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
)

// MailProvider lists and fetches unread mail for one mailbox using an already valid
// access token.
type MailProvider interface {
	ListUnread(ctx context.Context, mailbox, accessToken string, max int64) ([]string, error)
	FetchMessage(ctx context.Context, mailbox, accessToken, messageID string) (*dto.ProviderMessage, error)
}

type ProviderRegistry interface {
	Get(provider enum.MailProvider) (MailProvider, error)
}
