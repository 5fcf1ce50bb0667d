package dto

import "github.com/suaiden-dev/matriculausa-mvp-sub011/internal/enum"

type PollResult struct {
	Outcome   enum.PollOutcome `json:"outcome"`
	MessageId string           `json:"messageId,omitempty"`
	Skipped   int              `json:"skipped,omitempty"`
}

type PollResponse struct {
	Status    string `json:"status"`
	Outcome   string `json:"outcome"`
	MessageId string `json:"messageId,omitempty"`
}
