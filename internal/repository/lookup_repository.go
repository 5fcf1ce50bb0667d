package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"gorm.io/gorm"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
)

type tenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) interfaces.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) GetByContactDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "tenantRepository.GetByContactDomain")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	span.LogFields(tracingLog.String("domain", domain))

	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("? = ANY(contact_domains)", strings.ToLower(domain)).
		Order("created_at ASC").
		First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("result.found", false))
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get tenant by domain: %w", err)
	}

	span.LogFields(tracingLog.Bool("result.found", true))
	return &tenant, nil
}

type userProfileRepository struct {
	db *gorm.DB
}

func NewUserProfileRepository(db *gorm.DB) interfaces.UserProfileRepository {
	return &userProfileRepository{db: db}
}

func (r *userProfileRepository) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "userProfileRepository.GetByEmail")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var profile models.UserProfile
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("result.found", false))
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get user profile by email: %w", err)
	}

	span.LogFields(tracingLog.Bool("result.found", true))
	return &profile, nil
}
