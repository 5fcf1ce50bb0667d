package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// DecryptionError means a stored token could not be opened with the active key.
type DecryptionError struct {
	Field string
	Cause error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("failed to decrypt %s: %v", e.Field, e.Cause)
}

func (e *DecryptionError) Unwrap() error { return e.Cause }

// RefreshError means the provider refused or garbled a refresh-token exchange.
type RefreshError struct {
	Provider string
	Cause    error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("failed to refresh %s access token: %v", e.Provider, e.Cause)
}

func (e *RefreshError) Unwrap() error { return e.Cause }

type ListingError struct {
	Mailbox string
	Cause   error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("failed to list unread messages for %s: %v", e.Mailbox, e.Cause)
}

func (e *ListingError) Unwrap() error { return e.Cause }

type FetchError struct {
	MessageId string
	Cause     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch message %s: %v", e.MessageId, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

type DeliveryError struct {
	MessageId  string
	StatusCode int
	Cause      error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("relay of message %s failed with status %d: %v", e.MessageId, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("relay of message %s failed: %v", e.MessageId, e.Cause)
}

func (e *DeliveryError) Unwrap() error { return e.Cause }

func IsDecryptionError(err error) bool {
	var target *DecryptionError
	return errors.As(err, &target)
}

func IsRefreshError(err error) bool {
	var target *RefreshError
	return errors.As(err, &target)
}

func IsListingError(err error) bool {
	var target *ListingError
	return errors.As(err, &target)
}

func IsFetchError(err error) bool {
	var target *FetchError
	return errors.As(err, &target)
}

func IsDeliveryError(err error) bool {
	var target *DeliveryError
	return errors.As(err, &target)
}
