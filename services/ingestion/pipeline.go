package ingestion

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
	mailerrors "github.com/suaiden-dev/matriculausa-mvp-sub011/internal/errors"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services/normalizer"
)

type Pipeline struct {
	vault      interfaces.CredentialVault
	providers  interfaces.ProviderRegistry
	gate       *Gate
	ledger     *Ledger
	dispatcher interfaces.RelayDispatcher
	maxUnread  int64
	log        logger.Logger
}

func NewPipeline(
	vault interfaces.CredentialVault,
	providers interfaces.ProviderRegistry,
	gate *Gate,
	ledger *Ledger,
	dispatcher interfaces.RelayDispatcher,
	maxUnread int64,
	log logger.Logger,
) *Pipeline {
	return &Pipeline{
		vault:      vault,
		providers:  providers,
		gate:       gate,
		ledger:     ledger,
		dispatcher: dispatcher,
		maxUnread:  maxUnread,
		log:        log,
	}
}

// Run performs one invocation for a connection: at most one message is relayed.
// Credential errors are returned; listing and per-message failures complete the run.
func (p *Pipeline) Run(ctx context.Context, conn *models.MailboxConnection) (dto.PollResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Pipeline.Run")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMailbox(span, conn.EmailAddress)
	tracing.TagEntity(span, conn.ID)

	result, err := p.run(ctx, conn)
	if err != nil {
		tracing.TraceErr(span, err)
		return result, err
	}
	span.LogKV("outcome", result.Outcome.String(), "message.id", result.MessageId)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, conn *models.MailboxConnection) (dto.PollResult, error) {
	accessToken, err := p.vault.AccessToken(ctx, conn)
	if err != nil {
		return dto.PollResult{}, err
	}

	provider, err := p.providers.Get(conn.Provider)
	if err != nil {
		return dto.PollResult{}, err
	}

	unread, err := provider.ListUnread(ctx, conn.EmailAddress, accessToken, p.maxUnread)
	if err != nil {
		if mailerrors.IsListingError(err) {
			p.log.Warnf("Listing unread messages for %s failed, skipping this cycle: %v", conn.EmailAddress, err)
			return dto.PollResult{Outcome: enum.PollOutcomeNoMessages}, nil
		}
		return dto.PollResult{}, err
	}
	if len(unread) == 0 {
		return dto.PollResult{Outcome: enum.PollOutcomeNoMessages}, nil
	}

	bootstrapped, err := p.gate.Check(ctx, conn.UserID, conn.EmailAddress, unread)
	if err != nil {
		return dto.PollResult{}, err
	}
	if bootstrapped {
		return dto.PollResult{Outcome: enum.PollOutcomeInitialized, Skipped: len(unread)}, nil
	}

	messageID, ok, err := p.ledger.Next(ctx, conn.UserID, conn.EmailAddress, unread)
	if err != nil {
		return dto.PollResult{}, err
	}
	if !ok {
		return dto.PollResult{Outcome: enum.PollOutcomeAlreadyProcessed}, nil
	}

	msg, err := provider.FetchMessage(ctx, conn.EmailAddress, accessToken, messageID)
	if err != nil {
		if !mailerrors.IsFetchError(err) {
			err = &mailerrors.FetchError{MessageId: messageID, Cause: err}
		}
		record, recordErr := p.dispatcher.RecordFailure(ctx, conn, messageID, err)
		if recordErr != nil {
			return dto.PollResult{}, errors.Wrap(recordErr, "failed to record fetch failure")
		}
		if record == nil {
			return dto.PollResult{Outcome: enum.PollOutcomeAlreadyProcessed, MessageId: messageID}, nil
		}
		return dto.PollResult{Outcome: enum.PollOutcomeFailed, MessageId: messageID}, nil
	}

	email := normalizer.Normalize(msg)
	email.MessageId = messageID

	record, err := p.dispatcher.Dispatch(ctx, conn, email)
	if err != nil {
		return dto.PollResult{}, err
	}
	if record == nil {
		return dto.PollResult{Outcome: enum.PollOutcomeAlreadyProcessed, MessageId: messageID}, nil
	}
	return dto.PollResult{Outcome: enum.PollOutcomeRelayed, MessageId: messageID}, nil
}
