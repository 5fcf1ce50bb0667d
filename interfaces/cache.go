package interfaces

import "context"

// LookupCache stores short-lived string values by key. Get reports a miss with found=false.
type LookupCache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}
