package utils

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type CustomContext struct {
	AppSource string
	Tenant    string
	UserId    string
	Mailbox   string
}

type customContextKeyType string

const customContextKey customContextKeyType = "CUSTOM_CONTEXT"

// Gin keys populated by the auth middleware.
const (
	GinKeyUserId  = "UserId"
	GinKeyMailbox = "Mailbox"
)

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey, customContext)
}

func WithCustomContextFromGinRequest(c *gin.Context, appSource string) context.Context {
	customContext := &CustomContext{
		AppSource: appSource,
		UserId:    c.GetString(GinKeyUserId),
		Mailbox:   c.GetString(GinKeyMailbox),
	}
	return WithCustomContext(c.Request.Context(), customContext)
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetAppSourceFromContext(ctx context.Context) string {
	return GetContext(ctx).AppSource
}

func GetTenantFromContext(ctx context.Context) string {
	return GetContext(ctx).Tenant
}

func GetUserIdFromContext(ctx context.Context) string {
	return GetContext(ctx).UserId
}

func GetMailboxFromContext(ctx context.Context) string {
	return GetContext(ctx).Mailbox
}

// SetMailboxInContext copies the current custom context so concurrent pollers never share one.
func SetMailboxInContext(ctx context.Context, userId, mailbox string) context.Context {
	current := *GetContext(ctx)
	current.UserId = userId
	current.Mailbox = mailbox
	return WithCustomContext(ctx, &current)
}

func SetTenantInContext(ctx context.Context, tenant string) context.Context {
	current := *GetContext(ctx)
	current.Tenant = tenant
	return WithCustomContext(ctx, &current)
}

func ValidateUserId(ctx context.Context) error {
	if GetUserIdFromContext(ctx) == "" {
		return errors.New("userId is missing")
	}
	return nil
}
