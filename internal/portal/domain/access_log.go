package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccessLog is an append-only audit record of one guarded portal request. It is created
// once per request whose token was found and is never updated.
type AccessLog struct {
	ID         uuid.UUID
	TokenID    uuid.UUID
	Action     string
	Outcome    Outcome
	RequestID  string
	IPAddress  string
	UserAgent  string
	AccessedAt time.Time
}

// AccessContext describes the client behind a portal request.
type AccessContext struct {
	RequestID string
	IPAddress string
	UserAgent string
}
