package domain

import "time"

// ConnectionID identifies one logical client connection. It survives a
// transport drop when the client resumes within the grace period.
type ConnectionID string

// MemberState is the lifecycle of a membership slot.
type MemberState int

const (
	MemberActive MemberState = iota
	MemberGrace
)

func (s MemberState) String() string {
	switch s {
	case MemberActive:
		return "active"
	case MemberGrace:
		return "grace"
	}
	return "unknown"
}

// Membership is the read-only view of a slot. No transport or timer here.
type Membership struct {
	Conn     ConnectionID `json:"connectionId"`
	Room     RoomID       `json:"roomId"`
	JoinedAt time.Time    `json:"joinedAt"`
	State    MemberState  `json:"-"`
}
