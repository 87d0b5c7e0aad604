package signal

import (
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/SharedAlarm/internal/domain"
)

func TestRespond(t *testing.T) {
	failure := domain.NewRoomNotFoundError("nope")

	tests := []struct {
		name string
		env  envelope
		res  Result
		want []frame
	}{
		{
			name: "ack success",
			env:  envelope{Type: ReqJoinRoom, Ack: "1"},
			res:  Result{Event: domain.EventRoomJoined, Data: domain.RoomRef{RoomID: "r"}},
			want: []frame{{Type: domain.EventAck, Ack: "1", OK: true, Data: json.RawMessage(`{"roomId":"r"}`)}},
		},
		{
			name: "ack failure",
			env:  envelope{Type: ReqJoinRoom, Ack: "2"},
			res:  Result{Err: failure},
			want: []frame{{Type: domain.EventAck, Ack: "2", Error: &errorBody{Kind: domain.KindRoomNotFound, Message: failure.Error(), Request: ReqJoinRoom}}},
		},
		{
			name: "named event",
			env:  envelope{Type: ReqJoinRoom},
			res:  Result{Event: domain.EventRoomJoined, Data: domain.RoomRef{RoomID: "r"}},
			want: []frame{{Type: domain.EventRoomJoined, Data: json.RawMessage(`{"roomId":"r"}`)}},
		},
		{
			name: "error event",
			env:  envelope{Type: ReqJoinRoom},
			res:  Result{Err: failure},
			want: []frame{{Type: domain.EventError, Data: json.RawMessage(`{"kind":"RoomNotFound","message":"room not found: nope","request":"join-room"}`)}},
		},
		{
			name: "silent failure",
			env:  envelope{Type: ReqDeleteAlarm},
			res:  Result{Err: failure, Silent: true},
		},
		{
			name: "silent failure with ack",
			env:  envelope{Type: ReqDeleteAlarm, Ack: "3"},
			res:  Result{Err: failure, Silent: true},
			want: []frame{{Type: domain.EventAck, Ack: "3", Error: &errorBody{Kind: domain.KindRoomNotFound, Message: failure.Error(), Request: ReqDeleteAlarm}}},
		},
		{
			name: "success without event",
			env:  envelope{Type: ReqLeaveRoom},
			res:  Result{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl, _ := newTestController(t, testOptions())
			c := attach(ctl, "A", 8)

			ctl.respond(c, tt.env, tt.res)

			got := drain(t, c)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.Equal(t, tt.want[i].Type, got[i].Type)
				assert.Equal(t, tt.want[i].Ack, got[i].Ack)
				assert.Equal(t, tt.want[i].OK, got[i].OK)
				assert.Equal(t, tt.want[i].Error, got[i].Error)
				if tt.want[i].Data != nil {
					assert.JSONEq(t, string(tt.want[i].Data), string(got[i].Data))
				}
			}
		})
	}
}

func TestRespond_CountsRejections(t *testing.T) {
	ctl, m := newTestController(t, testOptions())
	c := attach(ctl, "A", 8)

	ctl.respond(c, envelope{Type: ReqJoinRoom}, Result{Err: domain.NewRoomFullError("r", 5)})
	ctl.respond(c, envelope{Type: ReqDeleteAlarm}, Result{Err: domain.NewAlarmNotFoundError("x"), Silent: true})

	assert.InDelta(t, 1, testutil.ToFloat64(m.Rejected.WithLabelValues(string(domain.KindRoomFull))), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Rejected.WithLabelValues(string(domain.KindAlarmNotFound))), 0)
}
