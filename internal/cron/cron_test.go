package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/repository/memory"
)

type mockKubernetesInterface struct {
	kubernetes.Interface
	mock.Mock
}

type mockPoller struct {
	mock.Mock
	mu sync.Mutex
}

func (m *mockPoller) Run(ctx context.Context, conn *models.MailboxConnection) (dto.PollResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(conn.EmailAddress)
	return args.Get(0).(dto.PollResult), args.Error(1)
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func testConfig() *config.Config {
	return &config.Config{
		AppConfig: &config.AppConfig{PodName: "pod-1"},
		Logger:    &logger.Config{LogLevel: "info"},
	}
}

func TestNewCronManager(t *testing.T) {
	// Arrange
	cfg := testConfig()
	log := getLogger()
	k8s := &mockKubernetesInterface{}

	// Act
	cm := NewCronManager(cfg, log, k8s, nil, nil)

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.Equal(t, k8s, cm.k8s)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_RegisterJobs(t *testing.T) {
	os.Setenv("CRON_SCHEDULE_POLL_MAILBOXES", "*/30 * * * * *")
	defer os.Unsetenv("CRON_SCHEDULE_POLL_MAILBOXES")

	// Arrange
	cm := NewCronManager(testConfig(), getLogger(), nil, memory.NewMailboxConnectionRepository(), &mockPoller{})
	c := cronv3.New(cronv3.WithSeconds())

	// Act
	cm.registerJobs(c)

	// Assert
	assert.Len(t, cm.jobIDs, 2)
	assert.Contains(t, cm.jobIDs, "heartbeat")
	assert.Contains(t, cm.jobIDs, "poll_mailboxes")
	assert.Len(t, c.Entries(), 2)
}

func TestCronManager_PollMailboxes(t *testing.T) {
	// Arrange
	connections := memory.NewMailboxConnectionRepository(
		&models.MailboxConnection{UserID: "u1", EmailAddress: "a@acme.edu", Provider: enum.ProviderGoogle},
		&models.MailboxConnection{UserID: "u2", EmailAddress: "b@acme.edu", Provider: enum.ProviderOutlook},
	)
	poller := &mockPoller{}
	poller.On("Run", "a@acme.edu").Return(dto.PollResult{}, errors.New("refresh failed"))
	poller.On("Run", "b@acme.edu").Return(dto.PollResult{Outcome: enum.PollOutcomeRelayed, MessageId: "m1"}, nil)
	cm := NewCronManager(testConfig(), getLogger(), nil, connections, poller)

	// Act
	cm.pollMailboxes()

	// Assert
	poller.AssertExpectations(t)
	poller.AssertNumberOfCalls(t, "Run", 2)
}

func TestCronManager_StartLocalMode(t *testing.T) {
	cm := NewCronManager(testConfig(), getLogger(), nil, memory.NewMailboxConnectionRepository(), &mockPoller{})

	require.NoError(t, cm.Start("pod-1", "default"))
	assert.NotNil(t, cm.cron)

	cm.Stop()
}

func TestCronManager_Stop(t *testing.T) {
	// Arrange
	cm := NewCronManager(testConfig(), getLogger(), &mockKubernetesInterface{}, nil, nil)
	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	// Act
	cm.Stop()
	cm.Stop()

	// Assert
	select {
	case <-cm.stopCh:
		// Channel is closed as expected
	default:
		t.Error("Stop channel was not closed")
	}
}

// blockingPoller holds its first run until the manager signals stop.
type blockingPoller struct {
	cm      *CronManager
	calls   atomic.Int32
	started chan struct{}
}

func (p *blockingPoller) Run(ctx context.Context, conn *models.MailboxConnection) (dto.PollResult, error) {
	if p.calls.Add(1) == 1 {
		close(p.started)
		select {
		case <-p.cm.stopCh:
		case <-time.After(2 * time.Second):
		}
	}
	return dto.PollResult{Outcome: enum.PollOutcomeNoMessages}, nil
}

func TestCronManager_StopAbortsRunningPoll(t *testing.T) {
	// Arrange
	seed := make([]*models.MailboxConnection, 0, 40)
	for i := 0; i < 40; i++ {
		seed = append(seed, &models.MailboxConnection{
			UserID:       "u1",
			EmailAddress: fmt.Sprintf("inbox%d@acme.edu", i),
			Provider:     enum.ProviderGoogle,
		})
	}
	poller := &blockingPoller{started: make(chan struct{})}
	cm := NewCronManager(testConfig(), getLogger(), nil, memory.NewMailboxConnectionRepository(seed...), poller)
	poller.cm = cm

	c := cronv3.New(cronv3.WithSeconds())
	_, err := c.AddFunc("@every 1s", cm.pollMailboxes)
	require.NoError(t, err)
	cm.cron = c
	c.Start()

	select {
	case <-poller.started:
	case <-time.After(5 * time.Second):
		t.Fatal("poll job did not start")
	}

	// Act
	start := time.Now()
	cm.Stop()

	// Assert
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(1), poller.calls.Load())
}
