package config

import "time"

type AppConfig struct {
	APIPort       string        `env:"PORT,required" envDefault:"12222"`
	JWTSecret     string        `env:"JWT_SECRET,required"`
	RabbitMQURL   string        `env:"RABBITMQ_URL"`
	RedisURL      string        `env:"REDIS_URL"`
	RedisCacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"10m"`
	PodName       string        `env:"POD_NAME" envDefault:"local"`
	PodNamespace  string        `env:"POD_NAMESPACE" envDefault:"default"`
}

type DatabaseConfig struct {
	Host            string `env:"MAILRELAY_POSTGRES_HOST,required"`
	Port            string `env:"MAILRELAY_POSTGRES_PORT,required"`
	User            string `env:"MAILRELAY_POSTGRES_USER,required"`
	DBName          string `env:"MAILRELAY_POSTGRES_DB_NAME,required"`
	Password        string `env:"MAILRELAY_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"MAILRELAY_POSTGRES_DB_MAX_CONN" envDefault:"25"`
	MaxIdleConn     int    `env:"MAILRELAY_POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"MAILRELAY_POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"MAILRELAY_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"MAILRELAY_POSTGRES_SSL_MODE" envDefault:"require"`
}

type VaultConfig struct {
	EncryptionKey         string        `env:"TOKEN_ENCRYPTION_KEY,required"`
	GoogleClientID        string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret    string        `env:"GOOGLE_CLIENT_SECRET"`
	MicrosoftClientID     string        `env:"MICROSOFT_CLIENT_ID"`
	MicrosoftClientSecret string        `env:"MICROSOFT_CLIENT_SECRET"`
	MicrosoftTenant       string        `env:"MICROSOFT_TENANT" envDefault:"common"`
	TokenURLOverride      string        `env:"OAUTH_TOKEN_URL"`
	DefaultTokenLifetime  time.Duration `env:"VAULT_DEFAULT_TOKEN_LIFETIME" envDefault:"1h"`
	ExpirySkew            time.Duration `env:"VAULT_EXPIRY_SKEW" envDefault:"0s"`
	RefreshTimeout        time.Duration `env:"VAULT_REFRESH_TIMEOUT" envDefault:"15s"`
}

type ProviderConfig struct {
	MaxUnread      int64         `env:"PROVIDER_MAX_UNREAD" envDefault:"50"`
	Timeout        time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"30s"`
	GmailEndpoint  string        `env:"GMAIL_API_ENDPOINT"`
	ImapServer     string        `env:"IMAP_SERVER" envDefault:"outlook.office365.com"`
	ImapPort       int           `env:"IMAP_PORT" envDefault:"993"`
	ImapTLS        bool          `env:"IMAP_TLS" envDefault:"true"`
	ImapMailFolder string        `env:"IMAP_FOLDER" envDefault:"INBOX"`
}

type RelayConfig struct {
	WebhookURL    string        `env:"RELAY_WEBHOOK_URL,required"`
	WebhookSecret string        `env:"RELAY_WEBHOOK_SECRET"`
	Timeout       time.Duration `env:"RELAY_TIMEOUT" envDefault:"30s"`
}
