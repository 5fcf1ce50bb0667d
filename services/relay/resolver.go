package relay

import (
	"context"
	"encoding/json"

	"github.com/opentracing/opentracing-go"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/services/normalizer"
)

const (
	cacheKeyTenant = "tenant:"
	cacheKeyUser   = "user:"
)

type tenantEntry struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// Resolver attaches tenant and user identity to a relayed message. Every miss or lookup
// failure resolves to "unknown" so relay never blocks on it.
type Resolver struct {
	tenants interfaces.TenantRepository
	users   interfaces.UserProfileRepository
	cache   interfaces.LookupCache
	log     logger.Logger
}

// NewResolver accepts a nil cache.
func NewResolver(tenants interfaces.TenantRepository, users interfaces.UserProfileRepository, cache interfaces.LookupCache, log logger.Logger) *Resolver {
	return &Resolver{tenants: tenants, users: users, cache: cache, log: log}
}

func (r *Resolver) Resolve(ctx context.Context, mailbox, recipients string) dto.RelayContext {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Resolver.Resolve")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	result := dto.RelayContext{
		TenantId:   dto.UnknownContext,
		TenantName: dto.UnknownContext,
		UserId:     dto.UnknownContext,
	}

	if domain := utils.ExtractDomainFromEmail(normalizer.ExtractAddress(recipients)); domain != "" {
		if tenant, ok := r.tenantByDomain(ctx, domain); ok {
			result.TenantId = tenant.Id
			result.TenantName = tenant.Name
		}
	}
	if userId, ok := r.userByEmail(ctx, utils.NormalizeEmail(mailbox)); ok {
		result.UserId = userId
	}

	span.LogKV("tenant.id", result.TenantId, "user.id", result.UserId)
	return result
}

func (r *Resolver) tenantByDomain(ctx context.Context, domain string) (tenantEntry, bool) {
	key := cacheKeyTenant + domain
	if cached, ok := r.cached(ctx, key); ok {
		var entry tenantEntry
		if err := json.Unmarshal([]byte(cached), &entry); err == nil {
			return entry, entry.Id != ""
		}
	}

	tenant, err := r.tenants.GetByContactDomain(ctx, domain)
	if err != nil {
		r.log.Warnf("Tenant lookup failed for domain %s: %v", domain, err)
		return tenantEntry{}, false
	}

	var entry tenantEntry
	if tenant != nil {
		entry = tenantEntry{Id: tenant.ID, Name: tenant.Name}
	}
	if raw, err := json.Marshal(entry); err == nil {
		r.store(ctx, key, string(raw))
	}
	return entry, entry.Id != ""
}

func (r *Resolver) userByEmail(ctx context.Context, email string) (string, bool) {
	if email == "" {
		return "", false
	}
	key := cacheKeyUser + email
	if cached, ok := r.cached(ctx, key); ok {
		return cached, cached != ""
	}

	profile, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		r.log.Warnf("User lookup failed for %s: %v", email, err)
		return "", false
	}

	var userId string
	if profile != nil {
		userId = profile.UserID
	}
	r.store(ctx, key, userId)
	return userId, userId != ""
}

func (r *Resolver) cached(ctx context.Context, key string) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	value, found, err := r.cache.Get(ctx, key)
	if err != nil {
		r.log.Debugf("Lookup cache read failed for %s: %v", key, err)
		return "", false
	}
	return value, found
}

func (r *Resolver) store(ctx context.Context, key, value string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, value); err != nil {
		r.log.Debugf("Lookup cache write failed for %s: %v", key, err)
	}
}
