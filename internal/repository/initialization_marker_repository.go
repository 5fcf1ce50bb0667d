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

type initializationMarkerRepository struct {
	db *gorm.DB
}

func NewInitializationMarkerRepository(db *gorm.DB) interfaces.InitializationMarkerRepository {
	return &initializationMarkerRepository{db: db}
}

func (r *initializationMarkerRepository) Get(ctx context.Context, userID, emailAddress string) (*models.InitializationMarker, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "initializationMarkerRepository.Get")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var marker models.InitializationMarker
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND email_address = ?", userID, emailAddress).
		First(&marker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("result.found", false))
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get initialization marker: %w", err)
	}

	span.LogFields(tracingLog.Bool("result.found", true))
	return &marker, nil
}

func (r *initializationMarkerRepository) InsertIfAbsent(ctx context.Context, marker *models.InitializationMarker) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "initializationMarkerRepository.InsertIfAbsent")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(marker)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return false, nil
		}
		tracing.TraceErr(span, result.Error)
		return false, fmt.Errorf("failed to insert initialization marker: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}
