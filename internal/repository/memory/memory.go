// Package memory holds map-backed repositories with the same uniqueness rules as the
// postgres schema, for tests of the services built on top of them.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
)

func key(parts ...string) string {
	return strings.Join(parts, "\x00")
}

type MailboxConnectionRepository struct {
	mu          sync.Mutex
	connections map[string]*models.MailboxConnection
	Updates     int
}

func NewMailboxConnectionRepository(connections ...*models.MailboxConnection) *MailboxConnectionRepository {
	r := &MailboxConnectionRepository{connections: make(map[string]*models.MailboxConnection)}
	for _, c := range connections {
		_ = r.Create(context.Background(), c)
	}
	return r
}

var _ interfaces.MailboxConnectionRepository = (*MailboxConnectionRepository)(nil)

func (r *MailboxConnectionRepository) Create(_ context.Context, connection *models.MailboxConnection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if connection.ID == "" {
		connection.ID = utils.GenerateNanoIDWithPrefix("mbxc", 16)
	}
	connection.EmailAddress = utils.NormalizeEmail(connection.EmailAddress)
	for _, existing := range r.connections {
		if existing.UserID == connection.UserID && existing.EmailAddress == connection.EmailAddress && existing.Provider == connection.Provider {
			return fmt.Errorf("duplicate mailbox connection for %s", connection.EmailAddress)
		}
	}
	stored := *connection
	r.connections[connection.ID] = &stored
	return nil
}

func (r *MailboxConnectionRepository) GetByUserAndMailbox(_ context.Context, userID, emailAddress string) (*models.MailboxConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	emailAddress = utils.NormalizeEmail(emailAddress)
	for _, c := range r.connections {
		if c.UserID == userID && c.EmailAddress == emailAddress {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MailboxConnectionRepository) GetByMailbox(_ context.Context, emailAddress string) (*models.MailboxConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	emailAddress = utils.NormalizeEmail(emailAddress)
	for _, c := range r.connections {
		if c.EmailAddress == emailAddress {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MailboxConnectionRepository) ListAll(_ context.Context) ([]*models.MailboxConnection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]*models.MailboxConnection, 0, len(r.connections))
	for _, c := range r.connections {
		copied := *c
		result = append(result, &copied)
	}
	return result, nil
}

func (r *MailboxConnectionRepository) UpdateTokens(_ context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.connections[id]
	if !ok {
		return fmt.Errorf("mailbox connection %s not found", id)
	}
	c.AccessToken = accessToken
	if refreshToken != "" {
		c.RefreshToken = refreshToken
	}
	expiry := expiresAt
	c.TokenExpiresAt = &expiry
	r.Updates++
	return nil
}

// Get returns the stored row by id.
func (r *MailboxConnectionRepository) Get(id string) *models.MailboxConnection {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.connections[id]
	if !ok {
		return nil
	}
	copied := *c
	return &copied
}

type ProcessedMessageRepository struct {
	mu      sync.Mutex
	records map[string]*models.ProcessedMessage
	order   []string
}

func NewProcessedMessageRepository(records ...*models.ProcessedMessage) *ProcessedMessageRepository {
	r := &ProcessedMessageRepository{records: make(map[string]*models.ProcessedMessage)}
	for _, rec := range records {
		_, _ = r.InsertIfAbsent(context.Background(), rec)
	}
	return r
}

var _ interfaces.ProcessedMessageRepository = (*ProcessedMessageRepository)(nil)

func (r *ProcessedMessageRepository) InsertIfAbsent(_ context.Context, record *models.ProcessedMessage) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(record.UserID, record.EmailAddress, record.MessageID)
	if _, exists := r.records[k]; exists {
		return false, nil
	}
	if record.ID == "" {
		record.ID = utils.GenerateNanoIDWithPrefix("pmsg", 16)
	}
	stored := *record
	r.records[k] = &stored
	r.order = append(r.order, k)
	return true, nil
}

func (r *ProcessedMessageRepository) ExistingMessageIDs(_ context.Context, userID, emailAddress string, messageIDs []string) (map[string]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := make(map[string]bool)
	for _, id := range messageIDs {
		if _, ok := r.records[key(userID, emailAddress, id)]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (r *ProcessedMessageRepository) Get(_ context.Context, userID, emailAddress, messageID string) (*models.ProcessedMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[key(userID, emailAddress, messageID)]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

// All returns records in insertion order.
func (r *ProcessedMessageRepository) All() []models.ProcessedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]models.ProcessedMessage, 0, len(r.order))
	for _, k := range r.order {
		result = append(result, *r.records[k])
	}
	return result
}

type InitializationMarkerRepository struct {
	mu      sync.Mutex
	markers map[string]*models.InitializationMarker
}

func NewInitializationMarkerRepository(markers ...*models.InitializationMarker) *InitializationMarkerRepository {
	r := &InitializationMarkerRepository{markers: make(map[string]*models.InitializationMarker)}
	for _, m := range markers {
		_, _ = r.InsertIfAbsent(context.Background(), m)
	}
	return r
}

var _ interfaces.InitializationMarkerRepository = (*InitializationMarkerRepository)(nil)

func (r *InitializationMarkerRepository) Get(_ context.Context, userID, emailAddress string) (*models.InitializationMarker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.markers[key(userID, emailAddress)]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (r *InitializationMarkerRepository) InsertIfAbsent(_ context.Context, marker *models.InitializationMarker) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(marker.UserID, marker.EmailAddress)
	if _, exists := r.markers[k]; exists {
		return false, nil
	}
	stored := *marker
	r.markers[k] = &stored
	return true, nil
}

type TenantRepository struct {
	Tenants []*models.Tenant
}

func (r *TenantRepository) GetByContactDomain(_ context.Context, domain string) (*models.Tenant, error) {
	for _, t := range r.Tenants {
		for _, d := range t.ContactDomains {
			if strings.EqualFold(d, domain) {
				return t, nil
			}
		}
	}
	return nil, nil
}

type UserProfileRepository struct {
	Profiles []*models.UserProfile
}

func (r *UserProfileRepository) GetByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	for _, p := range r.Profiles {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return nil, nil
}
