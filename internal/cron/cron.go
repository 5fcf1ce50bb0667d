package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	cron_config "github.com/suaiden-dev/matriculausa-mvp-sub011/internal/cron/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
)

// CONSTANTS
const (
	// GroupMailboxes is the group for mailbox polling jobs
	GroupMailboxes = "mailboxes"

	AppSource = "cron"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupMailboxes: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg         *config.Config
	log         logger.Logger
	cron        *cronv3.Cron
	k8s         kubernetes.Interface
	stopCh      chan struct{}
	stopOnce    sync.Once
	jobIDs      map[string]cronv3.EntryID
	connections interfaces.MailboxConnectionRepository
	poller      interfaces.MailboxPoller
}

func NewCronManager(cfg *config.Config, log logger.Logger, k8s kubernetes.Interface, connections interfaces.MailboxConnectionRepository, poller interfaces.MailboxPoller) *CronManager {
	return &CronManager{
		cfg:         cfg,
		log:         log,
		k8s:         k8s,
		stopCh:      make(chan struct{}),
		jobIDs:      make(map[string]cronv3.EntryID),
		connections: connections,
		poller:      poller,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start(podName, namespace string) error {
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "mailrelay-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	errCh := make(chan error, 1)

	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		le.Run(context.Background())
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
	}

	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	cm.stopOnce.Do(func() {
		// Running jobs check stopCh between mailboxes
		close(cm.stopCh)
		if cm.cron != nil {
			cm.log.Info("Stopping cron manager")
			ctx := cm.cron.Stop()
			// Wait for jobs to finish
			<-ctx.Done()
		}
	})
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		podName := "local"
		if cm.cfg != nil && cm.cfg.AppConfig != nil && cm.cfg.AppConfig.PodName != "" {
			podName = cm.cfg.AppConfig.PodName
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	if cronConfig.CronSchedulePollMailboxes != "" {
		id, err := c.AddFunc(cronConfig.CronSchedulePollMailboxes, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupMailboxes].Lock()
			defer jobLocks.locks[GroupMailboxes].Unlock()
			cm.pollMailboxes()
		})
		if err != nil {
			cm.log.Fatalf("Could not add poll mailboxes cron job: %v", err)
		}
		cm.jobIDs["poll_mailboxes"] = id
		cm.log.Infof("Registered poll mailboxes job with schedule: %s", cronConfig.CronSchedulePollMailboxes)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// pollMailboxes runs one invocation per connection. A failing mailbox does not stop the others.
func (cm *CronManager) pollMailboxes() {
	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{AppSource: AppSource})

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.pollMailboxes")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	connections, err := cm.connections.ListAll(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to list mailbox connections: %v", err)
		return
	}

	failed := 0
	for _, conn := range connections {
		select {
		case <-cm.stopCh:
			cm.log.Info("Cron manager stopping, aborting mailbox poll")
			return
		default:
		}

		result, err := cm.poller.Run(utils.SetMailboxInContext(ctx, conn.UserID, conn.EmailAddress), conn)
		if err != nil {
			failed++
			cm.log.Errorf("Polling %s failed: %v", conn.EmailAddress, err)
			continue
		}
		cm.log.Debugf("Polled %s: %s %s", conn.EmailAddress, result.Outcome, result.MessageId)
	}

	span.LogKV("connections", len(connections), "failed", failed)
	cm.log.Infof("Polled %d mailboxes, %d failed", len(connections), failed)
}
