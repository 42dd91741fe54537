package core

import "time"

// Clock is the time source used for issuance and expiry checks.
type Clock interface {
	Now() time.Time
}
