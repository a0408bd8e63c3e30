package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager on login or refresh.
// Never persisted as a unit: only the refresh half is tracked in the
// session store.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
