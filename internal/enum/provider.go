package enum

type MailProvider string

const (
	ProviderGoogle  MailProvider = "google"
	ProviderOutlook MailProvider = "outlook"
	ProviderIMAP    MailProvider = "imap"
)

func (p MailProvider) String() string {
	return string(p)
}

func (p MailProvider) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderOutlook, ProviderIMAP:
		return true
	}
	return false
}
