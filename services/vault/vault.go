package vault

import (
	"context"
	"net/http"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	mailerrors "github.com/suaiden-dev/matriculausa-mvp-sub011/internal/errors"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/models"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/utils"
)

type vault struct {
	cfg          *config.VaultConfig
	cipher       *Cipher
	repo         interfaces.MailboxConnectionRepository
	log          logger.Logger
	oauthConfigs map[enum.MailProvider]*oauth2.Config
	httpClient   *http.Client
}

func NewVault(cfg *config.VaultConfig, repo interfaces.MailboxConnectionRepository, log logger.Logger) (interfaces.CredentialVault, error) {
	if cfg == nil {
		return nil, mailerrors.ErrMissingConfig
	}
	c, err := NewCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, errors.Wrap(mailerrors.ErrMissingConfig, err.Error())
	}
	if cfg.DefaultTokenLifetime <= 0 {
		cfg.DefaultTokenLifetime = time.Hour
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 15 * time.Second
	}

	return &vault{
		cfg:          cfg,
		cipher:       c,
		repo:         repo,
		log:          log,
		oauthConfigs: buildOAuthConfigs(cfg),
		httpClient:   &http.Client{Timeout: cfg.RefreshTimeout},
	}, nil
}

func buildOAuthConfigs(cfg *config.VaultConfig) map[enum.MailProvider]*oauth2.Config {
	googleEndpoint := google.Endpoint
	microsoftEndpoint := microsoft.AzureADEndpoint(cfg.MicrosoftTenant)
	if cfg.TokenURLOverride != "" {
		override := oauth2.Endpoint{TokenURL: cfg.TokenURLOverride, AuthStyle: oauth2.AuthStyleInParams}
		googleEndpoint = override
		microsoftEndpoint = override
	}

	microsoftConfig := &oauth2.Config{
		ClientID:     cfg.MicrosoftClientID,
		ClientSecret: cfg.MicrosoftClientSecret,
		Endpoint:     microsoftEndpoint,
	}
	return map[enum.MailProvider]*oauth2.Config{
		enum.ProviderGoogle: {
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     googleEndpoint,
		},
		enum.ProviderOutlook: microsoftConfig,
		enum.ProviderIMAP:    microsoftConfig,
	}
}

func (v *vault) Seal(plaintext string) (string, error) {
	return v.cipher.Seal(plaintext)
}

func (v *vault) AccessToken(ctx context.Context, connection *models.MailboxConnection) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Vault.AccessToken")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, connection.ID)

	var accessToken string
	if connection.AccessToken != "" {
		plain, err := v.cipher.Open(connection.AccessToken)
		if err != nil {
			decryptErr := &mailerrors.DecryptionError{Field: "access_token", Cause: err}
			tracing.TraceErr(span, decryptErr)
			return "", decryptErr
		}
		accessToken = plain
	}

	if accessToken != "" && !connection.TokenExpired(utils.Now(), v.cfg.ExpirySkew) {
		span.LogFields(tracingLog.Bool("token.refreshed", false))
		return accessToken, nil
	}

	refreshed, err := v.refresh(ctx, connection)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	span.LogFields(tracingLog.Bool("token.refreshed", true))

	return refreshed, nil
}

// refresh exchanges the refresh token and persists the new pair before returning. On
// failure nothing is written, so the next invocation retries the exchange.
func (v *vault) refresh(ctx context.Context, connection *models.MailboxConnection) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Vault.refresh")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("provider", connection.Provider.String())

	if connection.RefreshToken == "" {
		return "", &mailerrors.RefreshError{Provider: connection.Provider.String(), Cause: errors.New("no refresh token stored")}
	}
	refreshToken, err := v.cipher.Open(connection.RefreshToken)
	if err != nil {
		return "", &mailerrors.DecryptionError{Field: "refresh_token", Cause: err}
	}

	oauthConfig, ok := v.oauthConfigs[connection.Provider]
	if !ok {
		return "", &mailerrors.RefreshError{Provider: connection.Provider.String(), Cause: mailerrors.ErrUnsupportedProvider}
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, v.cfg.RefreshTimeout)
	defer cancel()
	exchangeCtx = context.WithValue(exchangeCtx, oauth2.HTTPClient, v.httpClient)

	token, err := oauthConfig.TokenSource(exchangeCtx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		v.log.Warnf("Token refresh failed for connection %s: %v", connection.ID, err)
		return "", &mailerrors.RefreshError{Provider: connection.Provider.String(), Cause: err}
	}
	if token.AccessToken == "" {
		return "", &mailerrors.RefreshError{Provider: connection.Provider.String(), Cause: errors.New("token response has no access_token")}
	}

	expiresAt := v.expiryFor(token)

	sealedAccess, err := v.cipher.Seal(token.AccessToken)
	if err != nil {
		return "", errors.Wrap(err, "failed to seal refreshed access token")
	}
	var sealedRefresh string
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		sealedRefresh, err = v.cipher.Seal(token.RefreshToken)
		if err != nil {
			return "", errors.Wrap(err, "failed to seal rotated refresh token")
		}
	}

	if err := v.repo.UpdateTokens(ctx, connection.ID, sealedAccess, sealedRefresh, expiresAt); err != nil {
		return "", errors.Wrap(err, "failed to persist refreshed token")
	}

	connection.AccessToken = sealedAccess
	if sealedRefresh != "" {
		connection.RefreshToken = sealedRefresh
	}
	connection.TokenExpiresAt = &expiresAt

	v.log.Infof("Refreshed access token for connection %s, expires at %s", connection.ID, expiresAt.Format(time.RFC3339))
	return token.AccessToken, nil
}

// expiryFor prefers the declared expires_in, measured on the poller clock.
func (v *vault) expiryFor(token *oauth2.Token) time.Time {
	now := utils.Now()
	if token.ExpiresIn > 0 {
		return now.Add(time.Duration(token.ExpiresIn) * time.Second)
	}
	if !token.Expiry.IsZero() {
		return token.Expiry.UTC()
	}
	return now.Add(v.cfg.DefaultTokenLifetime)
}
