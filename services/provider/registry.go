package provider

import (
	"github.com/pkg/errors"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/config"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/interfaces"
	mailerrors "github.com/suaiden-dev/matriculausa-mvp-sub011/internal/errors"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
)

type Registry struct {
	providers map[enum.MailProvider]interfaces.MailProvider
}

// NewRegistry wires Gmail for google connections and IMAP for outlook and generic imap ones.
func NewRegistry(cfg *config.ProviderConfig, log logger.Logger) *Registry {
	imapProvider := NewIMAPProvider(cfg, log)
	return NewRegistryWith(map[enum.MailProvider]interfaces.MailProvider{
		enum.ProviderGoogle:  NewGmailProvider(cfg, log),
		enum.ProviderOutlook: imapProvider,
		enum.ProviderIMAP:    imapProvider,
	})
}

func NewRegistryWith(providers map[enum.MailProvider]interfaces.MailProvider) *Registry {
	return &Registry{providers: providers}
}

func (r *Registry) Get(provider enum.MailProvider) (interfaces.MailProvider, error) {
	p, ok := r.providers[provider]
	if !ok || p == nil {
		return nil, errors.Wrap(mailerrors.ErrUnsupportedProvider, provider.String())
	}
	return p, nil
}
