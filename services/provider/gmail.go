package provider

import (
	"context"
	"net/http"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	mailerrors "github.com/suaiden-dev/matriculausa-mvp-sub011/internal/errors"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
)

const (
	gmailUser        = "me"
	gmailUnreadQuery = "is:unread"
)

type GmailProvider struct {
	cfg        *config.ProviderConfig
	log        logger.Logger
	httpClient *http.Client
}

func NewGmailProvider(cfg *config.ProviderConfig, log logger.Logger) *GmailProvider {
	return &GmailProvider{
		cfg:        cfg,
		log:        log,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *GmailProvider) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if p.cfg.GmailEndpoint != "" {
		opts = append(opts, option.WithEndpoint(p.cfg.GmailEndpoint))
	}
	return gmail.NewService(ctx, opts...)
}

func (p *GmailProvider) ListUnread(ctx context.Context, mailbox, accessToken string, max int64) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailProvider.ListUnread")
	defer span.Finish()
	tracing.TagComponentProvider(span)
	tracing.TagMailbox(span, mailbox)

	if max <= 0 {
		max = p.cfg.MaxUnread
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	srv, err := p.service(ctx, accessToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, &mailerrors.ListingError{Mailbox: mailbox, Cause: err}
	}

	resp, err := srv.Users.Messages.List(gmailUser).Q(gmailUnreadQuery).MaxResults(max).Context(ctx).Do()
	if err != nil {
		tagGoogleError(span, err)
		tracing.TraceErr(span, err)
		return nil, &mailerrors.ListingError{Mailbox: mailbox, Cause: err}
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		if m == nil || m.Id == "" {
			continue
		}
		ids = append(ids, m.Id)
	}
	span.LogFields(tracingLog.Int("result.count", len(ids)))

	return ids, nil
}

func (p *GmailProvider) FetchMessage(ctx context.Context, mailbox, accessToken, messageID string) (*dto.ProviderMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailProvider.FetchMessage")
	defer span.Finish()
	tracing.TagComponentProvider(span)
	tracing.TagMailbox(span, mailbox)
	tracing.TagEntity(span, messageID)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	srv, err := p.service(ctx, accessToken)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, &mailerrors.FetchError{MessageId: messageID, Cause: err}
	}

	msg, err := srv.Users.Messages.Get(gmailUser, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		tagGoogleError(span, err)
		tracing.TraceErr(span, err)
		return nil, &mailerrors.FetchError{MessageId: messageID, Cause: err}
	}
	if msg.Payload == nil {
		err = errors.New("message has no payload")
		tracing.TraceErr(span, err)
		return nil, &mailerrors.FetchError{MessageId: messageID, Cause: err}
	}

	return convertGmailMessage(msg), nil
}

func tagGoogleError(span opentracing.Span, err error) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		span.SetTag("http.status_code", apiErr.Code)
	}
}

func convertGmailMessage(msg *gmail.Message) *dto.ProviderMessage {
	out := &dto.ProviderMessage{
		Id:       msg.Id,
		ThreadId: msg.ThreadId,
		Snippet:  msg.Snippet,
	}
	for _, h := range msg.Payload.Headers {
		if h == nil {
			continue
		}
		out.Headers = append(out.Headers, dto.Header{Name: h.Name, Value: h.Value})
	}
	out.Root = convertGmailPart(msg.Payload)
	return out
}

func convertGmailPart(part *gmail.MessagePart) dto.MimePart {
	if len(part.Parts) > 0 {
		container := dto.ContainerPart{MimeType: part.MimeType}
		for _, child := range part.Parts {
			if child == nil {
				continue
			}
			container.Children = append(container.Children, convertGmailPart(child))
		}
		return container
	}

	leaf := dto.LeafPart{MimeType: part.MimeType, Filename: part.Filename}
	if part.Body != nil {
		leaf.Data = part.Body.Data
	}
	return leaf
}
