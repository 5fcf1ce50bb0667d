package provider

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"sort"
	"strconv"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/jhillyerd/enmime"
	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	mailerrors "github.com/suaiden-dev/matriculausa-mvp-sub011/internal/errors"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
)

// IMAPProvider reads a mailbox over IMAP with XOAUTH2. Each call opens its own session,
// selects the folder read-only and never sets flags.
type IMAPProvider struct {
	cfg *config.ProviderConfig
	log logger.Logger
}

func NewIMAPProvider(cfg *config.ProviderConfig, log logger.Logger) *IMAPProvider {
	return &IMAPProvider{cfg: cfg, log: log}
}

func (p *IMAPProvider) connect(ctx context.Context, mailbox, accessToken string) (*client.Client, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPProvider.connect")
	defer span.Finish()
	tracing.TagComponentProvider(span)
	span.SetTag("server", p.cfg.ImapServer)
	span.SetTag("port", p.cfg.ImapPort)
	span.SetTag("tls", p.cfg.ImapTLS)

	serverAddr := fmt.Sprintf("%s:%d", p.cfg.ImapServer, p.cfg.ImapPort)
	dialer := &net.Dialer{Timeout: p.cfg.Timeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	var c *client.Client
	var err error
	if p.cfg.ImapTLS {
		c, err = client.DialWithDialerTLS(dialer, serverAddr, &tls.Config{ServerName: p.cfg.ImapServer})
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}
	if err != nil {
		tracing.TraceErr(span, err)
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, errors.Wrapf(mailerrors.ErrConnectionTimeout, "dial %s", serverAddr)
		}
		return nil, errors.Wrapf(err, "failed to connect to %s", serverAddr)
	}
	c.Timeout = p.cfg.Timeout

	if err := c.Authenticate(newXOAuth2Client(mailbox, accessToken)); err != nil {
		_ = c.Logout()
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "XOAUTH2 authentication failed for %s", mailbox)
	}

	if _, err := c.Select(p.cfg.ImapMailFolder, true); err != nil {
		_ = c.Logout()
		tracing.TraceErr(span, err)
		return nil, errors.Wrapf(err, "failed to select %s", p.cfg.ImapMailFolder)
	}

	return c, nil
}

// withSession runs fn on a fresh session and closes it when ctx is cancelled, since the
// IMAP client itself is not context aware.
func (p *IMAPProvider) withSession(ctx context.Context, mailbox, accessToken string, fn func(c *client.Client) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	c, err := p.connect(ctx, mailbox, accessToken)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- fn(c)
	}()

	select {
	case err = <-done:
		if logoutErr := c.Logout(); logoutErr != nil {
			p.log.Debugf("[%s] Error during logout: %v", mailbox, logoutErr)
		}
		return err
	case <-ctx.Done():
		_ = c.Terminate()
		return ctx.Err()
	}
}

func (p *IMAPProvider) ListUnread(ctx context.Context, mailbox, accessToken string, max int64) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPProvider.ListUnread")
	defer span.Finish()
	tracing.TagComponentProvider(span)
	tracing.TagMailbox(span, mailbox)

	if max <= 0 {
		max = p.cfg.MaxUnread
	}

	var uids []uint32
	err := p.withSession(ctx, mailbox, accessToken, func(c *client.Client) error {
		criteria := imap.NewSearchCriteria()
		criteria.WithoutFlags = []string{imap.SeenFlag}
		var searchErr error
		uids, searchErr = c.UidSearch(criteria)
		return searchErr
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, &mailerrors.ListingError{Mailbox: mailbox, Cause: err}
	}

	ids := newestUIDs(uids, max)
	span.LogFields(tracingLog.Int("result.count", len(ids)))
	return ids, nil
}

// newestUIDs orders by descending UID and keeps at most max, matching the newest-first
// listing of the REST providers.
func newestUIDs(uids []uint32, max int64) []string {
	sorted := make([]uint32, len(uids))
	copy(sorted, uids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	if max > 0 && int64(len(sorted)) > max {
		sorted = sorted[:max]
	}

	ids := make([]string, 0, len(sorted))
	for _, uid := range sorted {
		ids = append(ids, strconv.FormatUint(uint64(uid), 10))
	}
	return ids
}

func (p *IMAPProvider) FetchMessage(ctx context.Context, mailbox, accessToken, messageID string) (*dto.ProviderMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPProvider.FetchMessage")
	defer span.Finish()
	tracing.TagComponentProvider(span)
	tracing.TagMailbox(span, mailbox)
	tracing.TagEntity(span, messageID)

	uid, err := strconv.ParseUint(messageID, 10, 32)
	if err != nil || uid == 0 {
		err = errors.Errorf("invalid IMAP uid %q", messageID)
		tracing.TraceErr(span, err)
		return nil, &mailerrors.FetchError{MessageId: messageID, Cause: err}
	}

	var raw []byte
	err = p.withSession(ctx, mailbox, accessToken, func(c *client.Client) error {
		seqSet := new(imap.SeqSet)
		seqSet.AddNum(uint32(uid))

		section := &imap.BodySectionName{Peek: true}
		items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

		messages := make(chan *imap.Message, 1)
		fetchDone := make(chan error, 1)
		go func() {
			fetchDone <- c.UidFetch(seqSet, items, messages)
		}()

		body, readErr := readFetchedBody(messages, section)
		if fetchErr := <-fetchDone; fetchErr != nil {
			return fetchErr
		}
		if readErr != nil {
			return readErr
		}
		raw = body
		if raw == nil {
			return errors.Errorf("message with UID %d not found", uid)
		}
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, &mailerrors.FetchError{MessageId: messageID, Cause: err}
	}

	msg, err := parseRFC822(messageID, raw)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, &mailerrors.FetchError{MessageId: messageID, Cause: err}
	}
	return msg, nil
}

// readFetchedBody consumes every fetched message, even after a read failure, so UidFetch
// never blocks on the channel and the session can log out.
func readFetchedBody(messages <-chan *imap.Message, section *imap.BodySectionName) ([]byte, error) {
	var raw []byte
	var readErr error
	for msg := range messages {
		if msg == nil || readErr != nil {
			continue
		}
		literal := msg.GetBody(section)
		if literal == nil {
			continue
		}
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(literal); err != nil {
			readErr = errors.Wrap(err, "failed to read message body")
			continue
		}
		raw = buf.Bytes()
	}
	return raw, readErr
}

// parseRFC822 converts a raw message into the provider-neutral part tree. Leaf content is
// re-encoded as base64url so every provider hands the normalizer the same wire form.
func parseRFC822(messageID string, raw []byte) (*dto.ProviderMessage, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse message")
	}

	msg := &dto.ProviderMessage{Id: messageID}
	for _, name := range env.GetHeaderKeys() {
		msg.Headers = append(msg.Headers, dto.Header{Name: name, Value: env.GetHeader(name)})
	}
	if env.Root != nil {
		msg.Root = convertEnmimePart(env.Root)
	}
	return msg, nil
}

func convertEnmimePart(part *enmime.Part) dto.MimePart {
	if part.FirstChild != nil {
		container := dto.ContainerPart{MimeType: part.ContentType}
		for child := part.FirstChild; child != nil; child = child.NextSibling {
			container.Children = append(container.Children, convertEnmimePart(child))
		}
		return container
	}

	mimeType := part.ContentType
	if mimeType == "" {
		mimeType = "text/plain"
	}
	return dto.LeafPart{
		MimeType: mimeType,
		Filename: part.FileName,
		Data:     base64.URLEncoding.EncodeToString(part.Content),
	}
}
