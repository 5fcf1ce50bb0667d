package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
	mailerrors "github.com/suaiden-dev/matriculausa-mvp-sub011/internal/errors"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
)

const maxErrorBody = 512

type Dispatcher struct {
	cfg        *config.RelayConfig
	ledger     interfaces.MessageRecorder
	resolver   *Resolver
	publisher  interfaces.RelayEventPublisher
	httpClient *http.Client
	log        logger.Logger
}

// NewDispatcher accepts a nil publisher; outcomes are then only logged.
func NewDispatcher(cfg *config.RelayConfig, ledger interfaces.MessageRecorder, resolver *Resolver, publisher interfaces.RelayEventPublisher, log logger.Logger) (*Dispatcher, error) {
	if cfg == nil || cfg.WebhookURL == "" {
		return nil, errors.Wrap(mailerrors.ErrMissingConfig, "relay webhook url")
	}
	return &Dispatcher{
		cfg:        cfg,
		ledger:     ledger,
		resolver:   resolver,
		publisher:  publisher,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}, nil
}

// Dispatch claims the message with a "sent" ledger record and posts it once. It returns a
// nil record and nil error when another invocation already holds the claim. Delivery
// failures are logged and never returned: the record stays "sent".
func (d *Dispatcher) Dispatch(ctx context.Context, conn *models.MailboxConnection, email dto.NormalizedEmail) (*models.ProcessedMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Dispatcher.Dispatch")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, email.MessageId)

	payload := dto.RelayPayload{
		Email:      email,
		Mailbox:    conn.EmailAddress,
		Provider:   conn.Provider.String(),
		Context:    d.resolver.Resolve(ctx, conn.EmailAddress, email.To),
		RelayedAt:  utils.Now(),
		DeliveryId: uuid.NewString(),
	}
	tracing.TagTenant(span, payload.Context.TenantId)
	ctx = utils.SetTenantInContext(ctx, payload.Context.TenantId)

	body, err := json.Marshal(payload)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to marshal relay payload")
	}

	record := &models.ProcessedMessage{
		UserID:       conn.UserID,
		EmailAddress: conn.EmailAddress,
		MessageID:    email.MessageId,
		Status:       enum.ProcessedStatusSent,
		Payload:      toJSONMap(body),
	}
	inserted, err := d.ledger.Record(ctx, record)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to record relayed message")
	}
	if !inserted {
		span.LogFields(tracingLog.Bool("claimed", false))
		d.log.Infof("Message %s for %s already claimed by another invocation", email.MessageId, conn.EmailAddress)
		return nil, nil
	}
	span.LogFields(tracingLog.Bool("claimed", true))

	statusCode, deliveryErr := d.post(ctx, span, payload.DeliveryId, body)
	if deliveryErr != nil {
		err := &mailerrors.DeliveryError{MessageId: email.MessageId, StatusCode: statusCode, Cause: deliveryErr}
		tracing.TraceErr(span, err)
		d.log.Warnf("Relay of message %s for %s failed: %v", email.MessageId, conn.EmailAddress, err)
	} else {
		d.log.Infof("Relayed message %s for %s (status %d)", email.MessageId, conn.EmailAddress, statusCode)
	}

	d.publish(ctx, dto.RelayOutcomeEvent{
		Id:         record.ID,
		UserId:     conn.UserID,
		Mailbox:    conn.EmailAddress,
		MessageId:  email.MessageId,
		Status:     record.Status.String(),
		Delivered:  deliveryErr == nil,
		StatusCode: statusCode,
		Error:      errorString(deliveryErr),
		TenantId:   payload.Context.TenantId,
		Timestamp:  utils.Now(),
	})

	return record, nil
}

// RecordFailure writes the "error" ledger record for a message that could not be fetched
// or normalized. Like Dispatch it returns nil, nil when a record already exists.
func (d *Dispatcher) RecordFailure(ctx context.Context, conn *models.MailboxConnection, messageID string, cause error) (*models.ProcessedMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Dispatcher.RecordFailure")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, messageID)

	detail := errorString(cause)
	record := &models.ProcessedMessage{
		UserID:       conn.UserID,
		EmailAddress: conn.EmailAddress,
		MessageID:    messageID,
		Status:       enum.ProcessedStatusError,
		ErrorDetail:  &detail,
	}
	inserted, err := d.ledger.Record(ctx, record)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to record failed message")
	}
	if !inserted {
		return nil, nil
	}

	d.log.Warnf("Recorded message %s for %s as failed: %s", messageID, conn.EmailAddress, detail)
	d.publish(ctx, dto.RelayOutcomeEvent{
		Id:        record.ID,
		UserId:    conn.UserID,
		Mailbox:   conn.EmailAddress,
		MessageId: messageID,
		Status:    record.Status.String(),
		Error:     detail,
		Timestamp: utils.Now(),
	})

	return record, nil
}

func (d *Dispatcher) post(ctx context.Context, span opentracing.Span, deliveryId string, body []byte) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", deliveryId)
	if d.cfg.WebhookSecret != "" {
		req.Header.Set("Authorization", "Bearer "+d.cfg.WebhookSecret)
	}
	req = tracing.InjectSpanContextIntoHTTPRequest(req, span)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	span.SetTag("http.status_code", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, fmt.Errorf("relay endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (d *Dispatcher) publish(ctx context.Context, outcome dto.RelayOutcomeEvent) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.PublishRelayOutcome(ctx, outcome); err != nil {
		d.log.Errorf("Failed to publish relay outcome for message %s: %v", outcome.MessageId, err)
	}
}

func toJSONMap(body []byte) models.JSONMap {
	var m models.JSONMap
	if err := json.Unmarshal(body, &m); err != nil {
		return nil
	}
	return m
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
