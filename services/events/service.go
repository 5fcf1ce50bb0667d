package events

import (
	"fmt"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
)

type EventsService struct {
	Publisher *RabbitMQPublisher
}

// NewEventsService returns a service without a publisher when rabbitmqURL is empty, so
// relay outcomes are only logged.
func NewEventsService(rabbitmqURL string, log logger.Logger, publisherConfig *PublisherConfig) (*EventsService, error) {
	if rabbitmqURL == "" {
		log.Info("RABBITMQ_URL not set, relay outcome events disabled")
		return &EventsService{}, nil
	}

	publisher, err := NewRabbitMQPublisher(rabbitmqURL, log, publisherConfig)
	if err != nil {
		return nil, err
	}

	return &EventsService{
		Publisher: publisher,
	}, nil
}

func (s *EventsService) Close() error {
	var errs []error

	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing events service: %v", errs)
	}

	return nil
}
