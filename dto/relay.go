package dto

import "time"

const UnknownContext = "unknown"

// RelayContext is the auxiliary data resolved for the downstream consumer.
type RelayContext struct {
	TenantId   string `json:"tenantId"`
	TenantName string `json:"tenantName"`
	UserId     string `json:"userId"`
}

type RelayPayload struct {
	Email      NormalizedEmail `json:"email"`
	Mailbox    string          `json:"mailbox"`
	Provider   string          `json:"provider"`
	Context    RelayContext    `json:"context"`
	RelayedAt  time.Time       `json:"relayedAt"`
	DeliveryId string          `json:"deliveryId"`
}

// RelayOutcomeEvent is published after a ledger record is written.
type RelayOutcomeEvent struct {
	Id         string    `json:"id"`
	UserId     string    `json:"userId"`
	Mailbox    string    `json:"mailbox"`
	MessageId  string    `json:"messageId"`
	Status     string    `json:"status"`
	Delivered  bool      `json:"delivered"`
	StatusCode int       `json:"statusCode,omitempty"`
	Error      string    `json:"error,omitempty"`
	TenantId   string    `json:"tenantId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
