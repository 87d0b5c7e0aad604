package domain

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-checkable name of a failure sent to clients.
type Kind string

const (
	KindRoomNotFound      Kind = "RoomNotFound"
	KindRoomFull          Kind = "RoomFull"
	KindRoomAlreadyExists Kind = "RoomAlreadyExists"
	KindAlarmNotFound     Kind = "AlarmNotFound"
	KindInvalidRequest    Kind = "InvalidRequest"
	KindInvalidAlarm      Kind = "InvalidAlarm"
	KindNotInRoom         Kind = "NotInRoom"
	KindRateLimited       Kind = "RateLimited"
	KindInternal          Kind = "Internal"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomFull          = errors.New("room is full")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrAlarmNotFound     = errors.New("alarm not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidAlarm      = errors.New("invalid alarm")
	ErrNotInRoom         = errors.New("connection is not in a room")
	ErrRateLimited       = errors.New("rate limited")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrRoomNotFound, KindRoomNotFound},
	{ErrRoomFull, KindRoomFull},
	{ErrRoomAlreadyExists, KindRoomAlreadyExists},
	{ErrAlarmNotFound, KindAlarmNotFound},
	{ErrInvalidRequest, KindInvalidRequest},
	{ErrInvalidAlarm, KindInvalidAlarm},
	{ErrNotInRoom, KindNotInRoom},
	{ErrRateLimited, KindRateLimited},
}

// KindOf maps err to its failure kind. Unknown errors are Internal.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

func NewRoomNotFoundError(id RoomID) error {
	return fmt.Errorf("%w: %s", ErrRoomNotFound, id)
}

func NewRoomFullError(id RoomID, limit int) error {
	return fmt.Errorf("%w: %s has %d members", ErrRoomFull, id, limit)
}

func NewRoomAlreadyExistsError(id RoomID) error {
	return fmt.Errorf("%w: %s", ErrRoomAlreadyExists, id)
}

func NewAlarmNotFoundError(id AlarmID) error {
	return fmt.Errorf("%w: %s", ErrAlarmNotFound, id)
}

func NewInvalidRequestError(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
}

func NewInvalidAlarmError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidAlarm, reason)
}
