package interfaces

import (
	"context"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
)

type RelayEventPublisher interface {
	PublishRelayOutcome(ctx context.Context, outcome dto.RelayOutcomeEvent) error
}
