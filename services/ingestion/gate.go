package ingestion

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
)

// Gate suppresses backfill the first time a mailbox is polled: everything unread at that
// moment is recorded as skipped and nothing is relayed.
type Gate struct {
	markers interfaces.InitializationMarkerRepository
	ledger  interfaces.ProcessedMessageRepository
	log     logger.Logger
}

func NewGate(markers interfaces.InitializationMarkerRepository, ledger interfaces.ProcessedMessageRepository, log logger.Logger) *Gate {
	return &Gate{markers: markers, ledger: ledger, log: log}
}

// Check returns bootstrapped=true when this call initialized the mailbox, in which case
// the invocation must stop. The marker is written only after every skip record, so an
// interrupted bootstrap is simply repeated.
func (g *Gate) Check(ctx context.Context, userID, mailbox string, unread []string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Gate.Check")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMailbox(span, mailbox)

	marker, err := g.markers.Get(ctx, userID, mailbox)
	if err != nil {
		tracing.TraceErr(span, err)
		return false, errors.Wrap(err, "failed to read initialization marker")
	}
	if marker != nil {
		span.LogFields(tracingLog.Bool("bootstrapped", false))
		return false, nil
	}

	skipped := 0
	for _, id := range unread {
		inserted, err := g.ledger.InsertIfAbsent(ctx, &models.ProcessedMessage{
			UserID:       userID,
			EmailAddress: mailbox,
			MessageID:    id,
			Status:       enum.ProcessedStatusInitializationSkip,
		})
		if err != nil {
			tracing.TraceErr(span, err)
			return false, errors.Wrapf(err, "failed to record initialization skip for %s", id)
		}
		if inserted {
			skipped++
		}
	}

	if _, err := g.markers.InsertIfAbsent(ctx, &models.InitializationMarker{
		UserID:       userID,
		EmailAddress: mailbox,
		SkippedCount: len(unread),
	}); err != nil {
		tracing.TraceErr(span, err)
		return false, errors.Wrap(err, "failed to write initialization marker")
	}

	span.LogFields(tracingLog.Bool("bootstrapped", true), tracingLog.Int("skipped", skipped))
	g.log.Infof("Initialized mailbox %s for user %s, skipped %d unread messages", mailbox, userID, len(unread))
	return true, nil
}
