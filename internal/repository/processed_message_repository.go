package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
)

type processedMessageRepository struct {
	db *gorm.DB
}

func NewProcessedMessageRepository(db *gorm.DB) interfaces.ProcessedMessageRepository {
	return &processedMessageRepository{db: db}
}

// InsertIfAbsent relies on the unique index: ON CONFLICT DO NOTHING leaves RowsAffected at 0
// for the losing writer.
func (r *processedMessageRepository) InsertIfAbsent(ctx context.Context, record *models.ProcessedMessage) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "processedMessageRepository.InsertIfAbsent")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogFields(
		tracingLog.String("messageId", record.MessageID),
		tracingLog.String("status", record.Status.String()),
	)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(record)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			span.LogFields(tracingLog.Bool("result.inserted", false))
			return false, nil
		}
		tracing.TraceErr(span, result.Error)
		return false, fmt.Errorf("failed to insert processed message: %w", result.Error)
	}

	inserted := result.RowsAffected > 0
	span.LogFields(tracingLog.Bool("result.inserted", inserted))
	return inserted, nil
}

func (r *processedMessageRepository) ExistingMessageIDs(ctx context.Context, userID, emailAddress string, messageIDs []string) (map[string]bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "processedMessageRepository.ExistingMessageIDs")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogFields(tracingLog.Int("request.count", len(messageIDs)))

	existing := make(map[string]bool, len(messageIDs))
	if len(messageIDs) == 0 {
		return existing, nil
	}

	var found []string
	err := r.db.WithContext(ctx).
		Model(&models.ProcessedMessage{}).
		Where("user_id = ? AND email_address = ? AND message_id IN ?", userID, emailAddress, messageIDs).
		Pluck("message_id", &found).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to read processed messages: %w", err)
	}

	for _, id := range found {
		existing[id] = true
	}
	span.LogFields(tracingLog.Int("result.count", len(found)))

	return existing, nil
}

func (r *processedMessageRepository) Get(ctx context.Context, userID, emailAddress, messageID string) (*models.ProcessedMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "processedMessageRepository.Get")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var record models.ProcessedMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND email_address = ? AND message_id = ?", userID, emailAddress, messageID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get processed message: %w", err)
	}

	return &record, nil
}
