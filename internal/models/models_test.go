package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxConnection_TokenExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(10 * time.Minute)
	past := now.Add(-time.Second)

	assert.True(t, (&MailboxConnection{}).TokenExpired(now, 0))
	assert.True(t, (&MailboxConnection{TokenExpiresAt: &past}).TokenExpired(now, 0))
	assert.True(t, (&MailboxConnection{TokenExpiresAt: &now}).TokenExpired(now, 0))
	assert.False(t, (&MailboxConnection{TokenExpiresAt: &future}).TokenExpired(now, 0))
	assert.True(t, (&MailboxConnection{TokenExpiresAt: &future}).TokenExpired(now, 15*time.Minute))
}

func TestJSONMap_ValueAndScan(t *testing.T) {
	original := JSONMap{"subject": "Application received", "status": float64(202)}

	value, err := original.Value()
	require.NoError(t, err)

	var scanned JSONMap
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, original, scanned)

	var empty JSONMap
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
}

func TestBeforeCreate_AssignsPrefixedIds(t *testing.T) {
	record := &ProcessedMessage{}
	require.NoError(t, record.BeforeCreate(nil))
	assert.Contains(t, record.ID, "pmsg_")

	marker := &InitializationMarker{ID: "init_fixed"}
	require.NoError(t, marker.BeforeCreate(nil))
	assert.Equal(t, "init_fixed", marker.ID)
}
