package ingestion

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
	mailerrors "github.com/suaiden-dev/matriculausa-mvp-sub011/internal/errors"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/repository/memory"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services/provider"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services/relay"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services/vault"
)

const (
	testSecret  = "pipeline-test-secret"
	testUser    = "u1"
	testMailbox = "u1@example.com"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

type fakeProvider struct {
	mu       sync.Mutex
	unread   []string
	listErr  error
	messages map[string]*dto.ProviderMessage
	fetchErr error
	tokens   []string
	fetched  []string
}

func (f *fakeProvider) ListUnread(_ context.Context, _, accessToken string, _ int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, accessToken)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.unread...), nil
}

func (f *fakeProvider) FetchMessage(_ context.Context, _, _, messageID string) (*dto.ProviderMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, messageID)
	if f.fetchErr != nil {
		return nil, &mailerrors.FetchError{MessageId: messageID, Cause: f.fetchErr}
	}
	if msg, ok := f.messages[messageID]; ok {
		return msg, nil
	}
	return &dto.ProviderMessage{Id: messageID}, nil
}

type harness struct {
	pipeline    *Pipeline
	provider    *fakeProvider
	connections *memory.MailboxConnectionRepository
	ledgerRepo  *memory.ProcessedMessageRepository
	markers     *memory.InitializationMarkerRepository
	conn        *models.MailboxConnection
	relayCalls  *atomic.Int32
	tokenCalls  *atomic.Int32
}

type harnessOptions struct {
	accessToken string
	expiresAt   time.Time
	initialized bool
	records     []*models.ProcessedMessage
}

func newHarness(t *testing.T, fp *fakeProvider, opts harnessOptions) *harness {
	log := getLogger()

	var relayCalls, tokenCalls atomic.Int32
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		relayCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(webhook.Close)
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh-token","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenServer.Close)

	cipher, err := vault.NewCipher(testSecret)
	require.NoError(t, err)
	sealedAccess, err := cipher.Seal(opts.accessToken)
	require.NoError(t, err)
	sealedRefresh, err := cipher.Seal("refresh-1")
	require.NoError(t, err)

	expiresAt := opts.expiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Hour)
	}
	conn := &models.MailboxConnection{
		ID:             "mbxc_u1",
		UserID:         testUser,
		EmailAddress:   testMailbox,
		Provider:       enum.ProviderGoogle,
		AccessToken:    sealedAccess,
		RefreshToken:   sealedRefresh,
		TokenExpiresAt: &expiresAt,
	}

	connections := memory.NewMailboxConnectionRepository(conn)
	ledgerRepo := memory.NewProcessedMessageRepository(opts.records...)
	markers := memory.NewInitializationMarkerRepository()
	if opts.initialized {
		_, err := markers.InsertIfAbsent(context.Background(), &models.InitializationMarker{UserID: testUser, EmailAddress: testMailbox})
		require.NoError(t, err)
	}

	credentialVault, err := vault.NewVault(&config.VaultConfig{
		EncryptionKey:      testSecret,
		GoogleClientID:     "client",
		GoogleClientSecret: "secret",
		TokenURLOverride:   tokenServer.URL,
		RefreshTimeout:     5 * time.Second,
	}, connections, log)
	require.NoError(t, err)

	ledger := NewLedger(ledgerRepo)
	resolver := relay.NewResolver(&memory.TenantRepository{}, &memory.UserProfileRepository{}, nil, log)
	dispatcher, err := relay.NewDispatcher(&config.RelayConfig{WebhookURL: webhook.URL, Timeout: 5 * time.Second}, ledger, resolver, nil, log)
	require.NoError(t, err)

	registry := provider.NewRegistryWith(map[enum.MailProvider]interfaces.MailProvider{enum.ProviderGoogle: fp})

	return &harness{
		pipeline:    NewPipeline(credentialVault, registry, NewGate(markers, ledgerRepo, log), ledger, dispatcher, 50, log),
		provider:    fp,
		connections: connections,
		ledgerRepo:  ledgerRepo,
		markers:     markers,
		conn:        conn,
		relayCalls:  &relayCalls,
		tokenCalls:  &tokenCalls,
	}
}

func (h *harness) run(t *testing.T) dto.PollResult {
	conn := h.connections.Get(h.conn.ID)
	result, err := h.pipeline.Run(context.Background(), conn)
	require.NoError(t, err)
	return result
}

func sentRecord(messageID string) *models.ProcessedMessage {
	return &models.ProcessedMessage{UserID: testUser, EmailAddress: testMailbox, MessageID: messageID, Status: enum.ProcessedStatusSent}
}

func TestPipeline_RelaysOnlyNewMessage(t *testing.T) {
	// Arrange
	fp := &fakeProvider{
		unread: []string{"m1", "m2"},
		messages: map[string]*dto.ProviderMessage{
			"m2": {
				Id:      "m2",
				Headers: []dto.Header{{Name: "Subject", Value: "Second"}},
				Root:    dto.LeafPart{MimeType: "text/plain", Data: base64.RawURLEncoding.EncodeToString([]byte("body"))},
			},
		},
	}
	h := newHarness(t, fp, harnessOptions{accessToken: "token-1", initialized: true, records: []*models.ProcessedMessage{sentRecord("m1")}})

	// Act
	result := h.run(t)

	// Assert
	assert.Equal(t, enum.PollOutcomeRelayed, result.Outcome)
	assert.Equal(t, "m2", result.MessageId)
	assert.Equal(t, []string{"m2"}, fp.fetched)
	assert.Equal(t, int32(1), h.relayCalls.Load())

	records := h.ledgerRepo.All()
	require.Len(t, records, 2)
	assert.Equal(t, "m2", records[1].MessageID)
	assert.Equal(t, enum.ProcessedStatusSent, records[1].Status)
}

func TestPipeline_BootstrapSuppressesBackfill(t *testing.T) {
	// Arrange
	fp := &fakeProvider{unread: []string{"a", "b", "c", "d"}}
	h := newHarness(t, fp, harnessOptions{accessToken: "token-1"})

	// Act
	result := h.run(t)

	// Assert
	assert.Equal(t, enum.PollOutcomeInitialized, result.Outcome)
	assert.Equal(t, 4, result.Skipped)
	assert.Equal(t, int32(0), h.relayCalls.Load())
	assert.Empty(t, fp.fetched)

	records := h.ledgerRepo.All()
	require.Len(t, records, 4)
	for _, r := range records {
		assert.Equal(t, enum.ProcessedStatusInitializationSkip, r.Status)
	}
	marker, err := h.markers.Get(context.Background(), testUser, testMailbox)
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.Equal(t, 4, marker.SkippedCount)

	// the next cycle sees the marker and finds nothing new
	assert.Equal(t, enum.PollOutcomeAlreadyProcessed, h.run(t).Outcome)
	assert.Equal(t, int32(0), h.relayCalls.Load())
}

func TestPipeline_InterruptedBootstrapReruns(t *testing.T) {
	fp := &fakeProvider{unread: []string{"a", "b", "c"}}
	skipped := &models.ProcessedMessage{UserID: testUser, EmailAddress: testMailbox, MessageID: "a", Status: enum.ProcessedStatusInitializationSkip}
	h := newHarness(t, fp, harnessOptions{accessToken: "token-1", records: []*models.ProcessedMessage{skipped}})

	result := h.run(t)

	assert.Equal(t, enum.PollOutcomeInitialized, result.Outcome)
	assert.Len(t, h.ledgerRepo.All(), 3)
	assert.Equal(t, int32(0), h.relayCalls.Load())
}

func TestGate_IdempotentRebootstrap(t *testing.T) {
	ledgerRepo := memory.NewProcessedMessageRepository()
	markers := memory.NewInitializationMarkerRepository()
	gate := NewGate(markers, ledgerRepo, getLogger())
	ctx := context.Background()

	first, err := gate.Check(ctx, testUser, testMailbox, []string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, first)

	// a racing invocation that started before the marker existed repeats the inserts
	raced := NewGate(memory.NewInitializationMarkerRepository(), ledgerRepo, getLogger())
	again, err := raced.Check(ctx, testUser, testMailbox, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.True(t, again)
	assert.Len(t, ledgerRepo.All(), 3)

	passThrough, err := gate.Check(ctx, testUser, testMailbox, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.False(t, passThrough)
	assert.Len(t, ledgerRepo.All(), 3)
}

func TestPipeline_ConcurrentInvocationsRelayOnce(t *testing.T) {
	// Arrange
	fp := &fakeProvider{unread: []string{"m1"}}
	h := newHarness(t, fp, harnessOptions{accessToken: "token-1", initialized: true})

	// Act
	var wg sync.WaitGroup
	results := make([]dto.PollResult, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := h.pipeline.Run(context.Background(), h.connections.Get(h.conn.ID))
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	// Assert
	relayed := 0
	for _, r := range results {
		if r.Outcome == enum.PollOutcomeRelayed {
			relayed++
		} else {
			assert.Equal(t, enum.PollOutcomeAlreadyProcessed, r.Outcome)
		}
	}
	assert.Equal(t, 1, relayed)
	assert.Equal(t, int32(1), h.relayCalls.Load())
	records := h.ledgerRepo.All()
	require.Len(t, records, 1)
	assert.Equal(t, enum.ProcessedStatusSent, records[0].Status)
}

func TestPipeline_RefreshesExpiredToken(t *testing.T) {
	// Arrange
	fp := &fakeProvider{unread: []string{"m1"}}
	h := newHarness(t, fp, harnessOptions{accessToken: "stale-token", expiresAt: time.Now().Add(-time.Minute), initialized: true})

	// Act
	result := h.run(t)

	// Assert
	assert.Equal(t, enum.PollOutcomeRelayed, result.Outcome)
	assert.Equal(t, int32(1), h.tokenCalls.Load())
	assert.Equal(t, []string{"fresh-token"}, fp.tokens)

	stored := h.connections.Get(h.conn.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *stored.TokenExpiresAt, 10*time.Second)

	// the persisted token is reused without another exchange
	h.run(t)
	assert.Equal(t, int32(1), h.tokenCalls.Load())
	assert.Equal(t, []string{"fresh-token", "fresh-token"}, fp.tokens)
}

func TestPipeline_ListingErrorIsEmptyCycle(t *testing.T) {
	fp := &fakeProvider{listErr: &mailerrors.ListingError{Mailbox: testMailbox, Cause: errors.New("503")}}
	h := newHarness(t, fp, harnessOptions{accessToken: "token-1", initialized: true})

	result := h.run(t)

	assert.Equal(t, enum.PollOutcomeNoMessages, result.Outcome)
	assert.Empty(t, h.ledgerRepo.All())
}

func TestPipeline_NoUnreadMessages(t *testing.T) {
	fp := &fakeProvider{}
	h := newHarness(t, fp, harnessOptions{accessToken: "token-1"})

	result := h.run(t)

	assert.Equal(t, enum.PollOutcomeNoMessages, result.Outcome)
	marker, err := h.markers.Get(context.Background(), testUser, testMailbox)
	require.NoError(t, err)
	assert.Nil(t, marker)
}

func TestPipeline_FetchErrorRecordsFailure(t *testing.T) {
	fp := &fakeProvider{unread: []string{"m1"}, fetchErr: errors.New("404 not found")}
	h := newHarness(t, fp, harnessOptions{accessToken: "token-1", initialized: true})

	result := h.run(t)

	assert.Equal(t, enum.PollOutcomeFailed, result.Outcome)
	assert.Equal(t, "m1", result.MessageId)
	assert.Equal(t, int32(0), h.relayCalls.Load())
	records := h.ledgerRepo.All()
	require.Len(t, records, 1)
	assert.Equal(t, enum.ProcessedStatusError, records[0].Status)
	require.NotNil(t, records[0].ErrorDetail)
	assert.Contains(t, *records[0].ErrorDetail, "404 not found")
}

func TestPipeline_MalformedBodyStillRelayed(t *testing.T) {
	fp := &fakeProvider{
		unread: []string{"m1"},
		messages: map[string]*dto.ProviderMessage{
			"m1": {Id: "m1", Root: dto.LeafPart{MimeType: "text/plain", Data: "!!!"}},
		},
	}
	h := newHarness(t, fp, harnessOptions{accessToken: "token-1", initialized: true})

	result := h.run(t)

	assert.Equal(t, enum.PollOutcomeRelayed, result.Outcome)
	records := h.ledgerRepo.All()
	require.Len(t, records, 1)
	email := records[0].Payload["email"].(map[string]interface{})
	assert.Equal(t, "", email["body"])
}

func TestPipeline_CredentialErrorsAbort(t *testing.T) {
	fp := &fakeProvider{unread: []string{"m1"}}
	h := newHarness(t, fp, harnessOptions{accessToken: "token-1", initialized: true})
	conn := h.connections.Get(h.conn.ID)
	conn.AccessToken = "garbage"

	_, err := h.pipeline.Run(context.Background(), conn)

	assert.True(t, mailerrors.IsDecryptionError(err))
	assert.Empty(t, fp.tokens)
	assert.Empty(t, h.ledgerRepo.All())
}

func TestLedger_UnprocessedKeepsOrder(t *testing.T) {
	repo := memory.NewProcessedMessageRepository(sentRecord("b"))
	ledger := NewLedger(repo)

	ids, err := ledger.Unprocessed(context.Background(), testUser, testMailbox, []string{"c", "b", "a", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids)

	next, ok, err := ledger.Next(context.Background(), testUser, testMailbox, []string{"b"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, next)

	inserted, err := ledger.Record(context.Background(), sentRecord("b"))
	require.NoError(t, err)
	assert.False(t, inserted)
}
