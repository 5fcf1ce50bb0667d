package interfaces

import (
	"context"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
)

type TenantRepository interface {
	GetByContactDomain(ctx context.Context, domain string) (*models.Tenant, error)
}

type UserProfileRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)
}
