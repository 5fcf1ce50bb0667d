package utils

import "time"

// Now is the poller clock. Tests replace it to move tokens across expiry.
var Now = func() time.Time {
	return time.Now().UTC()
}
