package services

import (
	"github.com/pkg/errors"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/repository"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services/cache"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services/events"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services/ingestion"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services/provider"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services/relay"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services/vault"
)

type Services struct {
	EventsService   *events.EventsService
	LookupCache     *cache.RedisCache
	CredentialVault interfaces.CredentialVault
	Providers       *provider.Registry
	Dispatcher      *relay.Dispatcher
	Pipeline        *ingestion.Pipeline
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	eventsService, err := events.NewEventsService(cfg.AppConfig.RabbitMQURL, log, events.DefaultPublisherConfig())
	if err != nil {
		return nil, errors.Wrap(err, "failed to init events service")
	}
	var publisher interfaces.RelayEventPublisher
	if eventsService.Publisher != nil {
		publisher = eventsService.Publisher
	}

	var redisCache *cache.RedisCache
	var lookupCache interfaces.LookupCache
	if cfg.AppConfig.RedisURL != "" {
		redisCache, err = cache.NewRedisCache(cfg.AppConfig.RedisURL, cfg.AppConfig.RedisCacheTTL, log)
		if err != nil {
			log.Warnf("Lookup cache disabled: %v", err)
		} else {
			lookupCache = redisCache
		}
	}

	credentialVault, err := vault.NewVault(cfg.VaultConfig, repos.MailboxConnectionRepository, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init credential vault")
	}

	ledger := ingestion.NewLedger(repos.ProcessedMessageRepository)
	resolver := relay.NewResolver(repos.TenantRepository, repos.UserProfileRepository, lookupCache, log)
	dispatcher, err := relay.NewDispatcher(cfg.RelayConfig, ledger, resolver, publisher, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init relay dispatcher")
	}

	providers := provider.NewRegistry(cfg.ProviderConfig, log)
	gate := ingestion.NewGate(repos.InitializationMarkerRepository, repos.ProcessedMessageRepository, log)

	return &Services{
		EventsService:   eventsService,
		LookupCache:     redisCache,
		CredentialVault: credentialVault,
		Providers:       providers,
		Dispatcher:      dispatcher,
		Pipeline:        ingestion.NewPipeline(credentialVault, providers, gate, ledger, dispatcher, cfg.ProviderConfig.MaxUnread, log),
	}, nil
}

func (s *Services) Close() error {
	var errs []error
	if s.EventsService != nil {
		if err := s.EventsService.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.LookupCache != nil {
		if err := s.LookupCache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("errors closing services: %v", errs)
	}
	return nil
}
