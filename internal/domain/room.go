package domain

import (
	"errors"
	"regexp"
	"time"
)

// MaxRoomIDLen bounds caller-chosen room ids.
const MaxRoomIDLen = 64

var (
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
	ErrRoomIDChars   = errors.New("room id may only contain letters, digits, '-' and '_'")

	roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

type RoomID string

// Validate checks a room id supplied by a client.
func (id RoomID) Validate() error {
	switch {
	case id == "":
		return ErrRoomIDEmpty
	case len(id) > MaxRoomIDLen:
		return ErrRoomIDTooLong
	case !roomIDPattern.MatchString(string(id)):
		return ErrRoomIDChars
	}
	return nil
}

// RoomSnapshot is a read-only copy of a room. It never aliases live state.
type RoomSnapshot struct {
	ID        RoomID         `json:"roomId"`
	Members   []ConnectionID `json:"members"`
	Alarms    []Alarm        `json:"alarms"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (s RoomSnapshot) MemberCount() int { return len(s.Members) }

// RoomInfo is the summary used by listings.
type RoomInfo struct {
	ID          RoomID    `json:"roomId"`
	MemberCount int       `json:"memberCount"`
	AlarmCount  int       `json:"alarmCount"`
	CreatedAt   time.Time `json:"createdAt"`
}
