// Package normalizer turns a fetched provider message into the flat event relayed downstream.
// It never fails: unknown or malformed shapes produce empty fields.
package normalizer

import (
	"strings"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/dto"
)

func Normalize(msg *dto.ProviderMessage) dto.NormalizedEmail {
	if msg == nil {
		return dto.NormalizedEmail{}
	}

	from := msg.Header("From")
	return dto.NormalizedEmail{
		MessageId:   msg.Id,
		ThreadId:    msg.ThreadId,
		From:        from,
		FromAddress: ExtractAddress(from),
		To:          msg.Header("To"),
		Subject:     msg.Header("Subject"),
		Date:        msg.Header("Date"),
		Body:        ExtractBody(msg.Root),
		Snippet:     strings.TrimSpace(msg.Snippet),
	}
}
