package signal

import (
	"encoding/json"

	"github.com/dkeye/SharedAlarm/internal/domain"
)

// handleAddAlarm has no success event of its own: the author receives the
// alarm-added broadcast like everyone else in the room.
func (ctl *SignalWSController) handleAddAlarm(sid domain.ConnectionID, data json.RawMessage) Result {
	var p addAlarmPayload
	if err := ctl.decode(data, &p); err != nil {
		return Result{Err: err}
	}
	alarm, err := ctl.Rooms.AddAlarm(sid, domain.RoomID(p.RoomID), p.Alarm)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Data: alarm}
}

// handleDeleteAlarm fails silently without an ack: an unknown room or alarm
// produces neither a broadcast nor an error event.
func (ctl *SignalWSController) handleDeleteAlarm(data json.RawMessage) Result {
	var p deleteAlarmPayload
	if err := ctl.decode(data, &p); err != nil {
		return Result{Err: err, Silent: true}
	}
	if err := ctl.Rooms.DeleteAlarm(domain.RoomID(p.RoomID), domain.AlarmID(p.AlarmID)); err != nil {
		return Result{Err: err, Silent: true}
	}
	return Result{Data: domain.AlarmRef{AlarmID: domain.AlarmID(p.AlarmID)}}
}
