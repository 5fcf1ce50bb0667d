package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
)

type Repositories struct {
	MailboxConnectionRepository    interfaces.MailboxConnectionRepository
	ProcessedMessageRepository     interfaces.ProcessedMessageRepository
	InitializationMarkerRepository interfaces.InitializationMarkerRepository
	TenantRepository               interfaces.TenantRepository
	UserProfileRepository          interfaces.UserProfileRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		MailboxConnectionRepository:    NewMailboxConnectionRepository(db),
		ProcessedMessageRepository:     NewProcessedMessageRepository(db),
		InitializationMarkerRepository: NewInitializationMarkerRepository(db),
		TenantRepository:               NewTenantRepository(db),
		UserProfileRepository:          NewUserProfileRepository(db),
	}
}

// MigrateDB creates the ingestion tables, plus the platform lookup tables when they are
// missing (local development).
func MigrateDB(dbConfig *config.DatabaseConfig, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(5)

	err = db.AutoMigrate(
		&models.MailboxConnection{},
		&models.ProcessedMessage{},
		&models.InitializationMarker{},
		&models.Tenant{},
		&models.UserProfile{},
	)

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
