package ingestion

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
)

// Ledger is the per (user, mailbox) set of message ids that were already handled.
type Ledger struct {
	repo interfaces.ProcessedMessageRepository
}

func NewLedger(repo interfaces.ProcessedMessageRepository) *Ledger {
	return &Ledger{repo: repo}
}

// Unprocessed filters ids down to those without a record, keeping input order.
func (l *Ledger) Unprocessed(ctx context.Context, userID, mailbox string, ids []string) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Ledger.Unprocessed")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("ids.count", len(ids))

	if len(ids) == 0 {
		return nil, nil
	}

	existing, err := l.repo.ExistingMessageIDs(ctx, userID, mailbox, ids)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to read processed messages")
	}

	result := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if existing[id] || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	span.LogKV("unprocessed.count", len(result))
	return result, nil
}

// Next picks the single candidate of this invocation.
func (l *Ledger) Next(ctx context.Context, userID, mailbox string, ids []string) (string, bool, error) {
	candidates, err := l.Unprocessed(ctx, userID, mailbox, ids)
	if err != nil {
		return "", false, err
	}
	if len(candidates) == 0 {
		return "", false, nil
	}
	return candidates[0], true, nil
}

// Record inserts the record unless one exists; inserted=false means another invocation won.
func (l *Ledger) Record(ctx context.Context, record *models.ProcessedMessage) (bool, error) {
	return l.repo.InsertIfAbsent(ctx, record)
}
