package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"gorm.io/gorm"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
)

type mailboxConnectionRepository struct {
	db *gorm.DB
}

func NewMailboxConnectionRepository(db *gorm.DB) interfaces.MailboxConnectionRepository {
	return &mailboxConnectionRepository{db: db}
}

func (r *mailboxConnectionRepository) Create(ctx context.Context, connection *models.MailboxConnection) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxConnectionRepository.Create")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if connection == nil || connection.UserID == "" || connection.EmailAddress == "" {
		tracing.TraceErr(span, ErrInvalidInput)
		return ErrInvalidInput
	}
	connection.EmailAddress = utils.NormalizeEmail(connection.EmailAddress)

	if err := r.db.WithContext(ctx).Create(connection).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to create mailbox connection: %w", err)
	}
	tracing.TagEntity(span, connection.ID)

	return nil
}

func (r *mailboxConnectionRepository) GetByUserAndMailbox(ctx context.Context, userID, emailAddress string) (*models.MailboxConnection, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxConnectionRepository.GetByUserAndMailbox")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogFields(tracingLog.String("userId", userID), tracingLog.String("mailbox", emailAddress))

	var connection models.MailboxConnection
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND email_address = ?", userID, utils.NormalizeEmail(emailAddress)).
		Order("updated_at DESC").
		First(&connection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("result.found", false))
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get mailbox connection: %w", err)
	}

	span.LogFields(tracingLog.Bool("result.found", true))
	return &connection, nil
}

func (r *mailboxConnectionRepository) GetByMailbox(ctx context.Context, emailAddress string) (*models.MailboxConnection, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxConnectionRepository.GetByMailbox")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var connection models.MailboxConnection
	err := r.db.WithContext(ctx).
		Where("email_address = ?", utils.NormalizeEmail(emailAddress)).
		First(&connection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("result.found", false))
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get mailbox connection: %w", err)
	}

	span.LogFields(tracingLog.Bool("result.found", true))
	return &connection, nil
}

func (r *mailboxConnectionRepository) ListAll(ctx context.Context) ([]*models.MailboxConnection, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxConnectionRepository.ListAll")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var connections []*models.MailboxConnection
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&connections).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list mailbox connections: %w", err)
	}
	span.LogFields(tracingLog.Int("result.count", len(connections)))

	return connections, nil
}

// UpdateTokens stores freshly sealed tokens. An empty refreshToken keeps the stored one.
func (r *mailboxConnectionRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxConnectionRepository.UpdateTokens")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, id)

	updates := map[string]interface{}{
		"access_token":     accessToken,
		"token_expires_at": expiresAt,
		"updated_at":       utils.Now(),
	}
	if refreshToken != "" {
		updates["refresh_token"] = refreshToken
	}

	result := r.db.WithContext(ctx).
		Model(&models.MailboxConnection{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to update mailbox connection tokens: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		err := fmt.Errorf("mailbox connection %s not found", id)
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}
