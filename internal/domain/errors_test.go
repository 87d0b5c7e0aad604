package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{NewRoomNotFoundError("r"), KindRoomNotFound},
		{NewRoomFullError("r", 5), KindRoomFull},
		{NewRoomAlreadyExistsError("r"), KindRoomAlreadyExists},
		{NewAlarmNotFoundError("a"), KindAlarmNotFound},
		{NewInvalidRequestError(errors.New("bad")), KindInvalidRequest},
		{NewInvalidAlarmError("bad"), KindInvalidAlarm},
		{ErrNotInRoom, KindNotInRoom},
		{ErrRateLimited, KindRateLimited},
		{fmt.Errorf("outer: %w", NewRoomFullError("r", 5)), KindRoomFull},
		{errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestNewRoomNotFoundError_Message(t *testing.T) {
	err := NewRoomNotFoundError("abc")
	assert.EqualError(t, err, "room not found: abc")
}
