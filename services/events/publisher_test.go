package events

import (
	"context"
	"testing"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
)

func TestNewEvent_CarriesContextMetadata(t *testing.T) {
	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{
		AppSource: "mailrelay",
		Tenant:    "tenant-1",
		UserId:    "user-1",
		Mailbox:   "admissions@acme.edu",
	})
	span := opentracing.NoopTracer{}.StartSpan("test")
	outcome := dto.RelayOutcomeEvent{MessageId: "m1", Status: "sent", Delivered: true}

	event := newEvent(ctx, span, "m1", EventTypeMessageRelayed, outcome)

	assert.Equal(t, "m1", event.Event.EntityId)
	assert.Equal(t, "tenant-1", event.Event.Tenant)
	assert.Equal(t, EventTypeMessageRelayed, event.Event.EventType)
	assert.Equal(t, outcome, event.Event.Data)
	assert.Equal(t, "user-1", event.Metadata.UserId)
	assert.Equal(t, "admissions@acme.edu", event.Metadata.Mailbox)
	assert.Equal(t, "mailrelay", event.Metadata.AppSource)
	assert.Contains(t, event.Event.Id, "event_")
}

func TestQueueArgs(t *testing.T) {
	args := queueArgs(2 * time.Second)

	assert.Equal(t, amqp091.Table{
		"x-dead-letter-exchange":    ExchangeDeadLetter,
		"x-dead-letter-routing-key": RoutingKeyDeadLetter,
		"x-message-ttl":             int64(2000),
	}, args)
}

func TestNewEventsService_DisabledWithoutURL(t *testing.T) {
	log := logger.NewAppLogger(&logger.Config{DevMode: true})
	log.InitLogger()

	svc, err := NewEventsService("", log, nil)

	require.NoError(t, err)
	assert.Nil(t, svc.Publisher)
	assert.NoError(t, svc.Close())
}
