package signal

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/SharedAlarm/internal/domain"
)

func TestDecode_RoomPayload(t *testing.T) {
	ctl, _ := newTestController(t, testOptions())

	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{name: "object", data: `{"roomId":"abc"}`, want: "abc"},
		{name: "bare string", data: `"abc"`, want: "abc"},
		{name: "padded bare string", data: `  "abc" `, want: "abc"},
		{name: "missing", data: ``, wantErr: true},
		{name: "empty object", data: `{}`, wantErr: true},
		{name: "wrong type", data: `{"roomId":42}`, wantErr: true},
		{name: "too long", data: `"` + strings.Repeat("x", 65) + `"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p roomPayload
			err := ctl.decode(json.RawMessage(tt.data), &p)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.RoomID)
		})
	}
}

func TestDecode_LeavePayloadOptional(t *testing.T) {
	ctl, _ := newTestController(t, testOptions())

	var p leavePayload
	require.NoError(t, ctl.decode(nil, &p))
	assert.Empty(t, p.RoomID)

	require.NoError(t, ctl.decode(json.RawMessage(`"room-1"`), &p))
	assert.Equal(t, "room-1", p.RoomID)
}

func TestDecode_AddAlarmPayload(t *testing.T) {
	ctl, _ := newTestController(t, testOptions())

	var p addAlarmPayload
	err := ctl.decode(json.RawMessage(`{"roomId":"r","alarm":{"name":"Boss","time":"2030-01-01T00:00:00Z"}}`), &p)
	require.NoError(t, err)
	assert.Equal(t, "r", p.RoomID)
	assert.Equal(t, "Boss", p.Alarm.Name)

	var missing addAlarmPayload
	err = ctl.decode(json.RawMessage(`{"roomId":"r","alarm":{"name":"Boss"}}`), &missing)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
