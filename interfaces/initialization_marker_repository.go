package interfaces

import (
	"context"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
)

type InitializationMarkerRepository interface {
	Get(ctx context.Context, userID, emailAddress string) (*models.InitializationMarker, error)
	InsertIfAbsent(ctx context.Context, marker *models.InitializationMarker) (bool, error)
}
