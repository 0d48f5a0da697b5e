package entity

import "time"

// GlobalRule is an administrator-authored instruction injected into every
// conversation regardless of chat.
type GlobalRule struct {
	Id        int64
	Rule      string
	CreatedAt time.Time
}
