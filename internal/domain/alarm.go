package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxAlarmNameLen = 100

type AlarmID string

// Alarm is a named countdown shared with a room. Time is normalised to UTC on
// creation, so it is echoed back as RFC 3339 with a "Z" suffix whatever offset
// the client sent; the instant is unchanged.
type Alarm struct {
	ID        AlarmID      `json:"id"`
	Name      string       `json:"name"`
	Time      time.Time    `json:"time"`
	CreatedBy ConnectionID `json:"createdBy"`
}

// AlarmDraft is what a client submits; the server assigns id and author.
type AlarmDraft struct {
	Name string `json:"name" validate:"required"`
	Time string `json:"time" validate:"required"`
}

// NewAlarm validates the draft against now and stamps a fresh id.
func NewAlarm(d AlarmDraft, by ConnectionID, now time.Time) (Alarm, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return Alarm{}, NewInvalidAlarmError("name is empty")
	}
	if len(name) > MaxAlarmNameLen {
		return Alarm{}, NewInvalidAlarmError("name too long")
	}
	at, err := time.Parse(time.RFC3339Nano, d.Time)
	if err != nil {
		return Alarm{}, NewInvalidAlarmError("time is not RFC 3339")
	}
	if !at.After(now) {
		return Alarm{}, NewInvalidAlarmError("time is not in the future")
	}
	return Alarm{
		ID:        AlarmID(uuid.NewString()),
		Name:      name,
		Time:      at.UTC(),
		CreatedBy: by,
	}, nil
}
