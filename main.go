package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/database"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/repository"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/server"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services"
)

func main() {
	app := &cli.App{
		Name:  "mailrelay",
		Usage: "unread mailbox ingestion and webhook relay",
		Commands: []*cli.Command{
			{
				Name:   "server",
				Usage:  "Start the application server",
				Action: runServer,
			},
			{
				Name:   "migrate",
				Usage:  "Run database migrations",
				Action: runMigrate,
			},
			{
				Name:  "poll",
				Usage: "Run one ingestion pass for a mailbox",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true},
					&cli.StringFlag{Name: "mailbox", Required: true},
				},
				Action: runPoll,
			},
			{
				Name:  "connect",
				Usage: "Seal provider tokens and store a mailbox connection",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true},
					&cli.StringFlag{Name: "mailbox", Required: true},
					&cli.StringFlag{Name: "provider", Value: enum.ProviderGoogle.String()},
					&cli.StringFlag{Name: "access-token", Required: true},
					&cli.StringFlag{Name: "refresh-token"},
					&cli.DurationFlag{Name: "expires-in", Value: time.Hour},
				},
				Action: runConnect,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (*config.Config, *gorm.DB, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("config initialization failed: %w", err)
	}

	db, err := database.InitDatabase(cfg.DatabaseConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("database initialization failed: %w", err)
	}
	return cfg, db, nil
}

func runServer(_ *cli.Context) error {
	cfg, db, err := loadConfig()
	if err != nil {
		return err
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Mailrelay starting up...")

	srv, err := server.NewServer(cfg, db)
	if err != nil {
		return fmt.Errorf("server setup failed: %w", err)
	}
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}

	log.Println("Shutdown complete")
	return nil
}

func runMigrate(_ *cli.Context) error {
	cfg, db, err := loadConfig()
	if err != nil {
		return err
	}
	if err := repository.MigrateDB(cfg.DatabaseConfig, db); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("Database migration completed successfully")
	return nil
}

func initServices(cfg *config.Config, db *gorm.DB) (*repository.Repositories, *services.Services, logger.Logger, error) {
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	repos := repository.InitRepositories(db)
	svcs, err := services.InitServices(cfg, appLogger, repos)
	if err != nil {
		return nil, nil, nil, err
	}
	return repos, svcs, appLogger, nil
}

func runPoll(c *cli.Context) error {
	cfg, db, err := loadConfig()
	if err != nil {
		return err
	}
	repos, svcs, appLogger, err := initServices(cfg, db)
	if err != nil {
		return err
	}
	defer svcs.Close()

	userId, mailbox := c.String("user"), utils.NormalizeEmail(c.String("mailbox"))
	ctx := utils.WithCustomContext(c.Context, &utils.CustomContext{AppSource: "cli"})
	ctx = utils.SetMailboxInContext(ctx, userId, mailbox)

	conn, err := repos.MailboxConnectionRepository.GetByUserAndMailbox(ctx, userId, mailbox)
	if err != nil {
		return err
	}
	if conn == nil {
		return fmt.Errorf("no connection for user %s and mailbox %s", userId, mailbox)
	}

	result, err := svcs.Pipeline.Run(ctx, conn)
	if err != nil {
		return err
	}
	appLogger.Infof("Poll of %s finished: %s %s", mailbox, result.Outcome, result.MessageId)
	fmt.Printf("%s %s\n", result.Outcome, result.MessageId)
	return nil
}

func runConnect(c *cli.Context) error {
	provider := enum.MailProvider(c.String("provider"))
	if !provider.IsValid() {
		return fmt.Errorf("unknown provider %q", provider)
	}

	cfg, db, err := loadConfig()
	if err != nil {
		return err
	}
	repos, svcs, _, err := initServices(cfg, db)
	if err != nil {
		return err
	}
	defer svcs.Close()

	accessToken, err := svcs.CredentialVault.Seal(c.String("access-token"))
	if err != nil {
		return err
	}
	refreshToken := ""
	if raw := c.String("refresh-token"); raw != "" {
		if refreshToken, err = svcs.CredentialVault.Seal(raw); err != nil {
			return err
		}
	}
	expiresAt := utils.Now().Add(c.Duration("expires-in"))

	conn := &models.MailboxConnection{
		UserID:         c.String("user"),
		EmailAddress:   utils.NormalizeEmail(c.String("mailbox")),
		Provider:       provider,
		AccessToken:    accessToken,
		RefreshToken:   refreshToken,
		TokenExpiresAt: &expiresAt,
	}
	if err := repos.MailboxConnectionRepository.Create(context.Background(), conn); err != nil {
		return err
	}
	fmt.Println(conn.ID)
	return nil
}
