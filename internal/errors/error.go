package errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrMissingConfig     = errors.New("required configuration is missing")
	ErrConnectionTimeout = errors.New("connection timeout")

	// mailbox errors
	ErrConnectionNotFound  = errors.New("mailbox connection not found")
	ErrMailboxNotOwned     = errors.New("mailbox belongs to another user")
	ErrUnsupportedProvider = errors.New("unsupported mail provider")
)
