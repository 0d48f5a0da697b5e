package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatTurn is one role-tagged message in a conversation. Turns are immutable
// once written and only ever removed by trimming, archiving or a full wipe.
type ChatTurn struct {
	Id        uuid.UUID
	ChatKey   int64
	Role      string
	Text      string
	CreatedAt time.Time
}
