package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

func TestValidateConfig(t *testing.T) {
	valid := DatabaseConfig{Host: "localhost", Port: "5432", User: "u", Password: "p", DBName: "mailrelay", SSLMode: "disable"}
	assert.NoError(t, validateConfig(&valid))
	assert.Error(t, validateConfig(nil))

	missingSSL := valid
	missingSSL.SSLMode = ""
	assert.EqualError(t, validateConfig(&missingSSL), "database SSLMode config is empty")
}

func TestNewConnection_InvalidPort(t *testing.T) {
	_, err := NewConnection(&DatabaseConfig{Host: "localhost", Port: "pg", User: "u", Password: "p", DBName: "d", SSLMode: "disable"})
	assert.ErrorContains(t, err, "invalid port number")
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Warn, gormLogLevel("WARN"))
	assert.Equal(t, logger.Info, gormLogLevel("info"))
	assert.Equal(t, logger.Warn, gormLogLevel(""))
}
