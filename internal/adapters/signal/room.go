package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SharedAlarm/internal/domain"
)

func (ctl *SignalWSController) handleCreateRoom(sid domain.ConnectionID) Result {
	id := ctl.Rooms.CreateRoom(sid)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(id)).Msg("create room")
	return Result{Event: domain.EventRoomCreated, Data: domain.RoomRef{RoomID: id}}
}

func (ctl *SignalWSController) handleCreateRoomWithID(sid domain.ConnectionID, data json.RawMessage) Result {
	var p roomPayload
	if err := ctl.decode(data, &p); err != nil {
		return Result{Err: err}
	}
	id, err := ctl.Rooms.CreateRoomWithID(sid, domain.RoomID(p.RoomID))
	if err != nil {
		log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Msg("create room with id failed")
		return Result{Err: err}
	}
	return Result{Event: domain.EventRoomCreated, Data: domain.RoomRef{RoomID: id}}
}

func (ctl *SignalWSController) handleJoin(sid domain.ConnectionID, data json.RawMessage) Result {
	var p roomPayload
	if err := ctl.decode(data, &p); err != nil {
		return Result{Err: err}
	}
	res, err := ctl.Rooms.Join(sid, domain.RoomID(p.RoomID))
	if err != nil {
		return Result{Err: err}
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", p.RoomID).Bool("created", res.Created).Msg("join")
	return Result{Event: domain.EventRoomJoined, Data: domain.RoomJoined{RoomID: res.RoomID, Alarms: res.Alarms}}
}

// handleLeave leaves the named room, or the current one when none is named.
// The connection stays open.
func (ctl *SignalWSController) handleLeave(sid domain.ConnectionID, data json.RawMessage) Result {
	var p leavePayload
	if err := ctl.decode(data, &p); err != nil {
		return Result{Err: err, Silent: true}
	}
	id := domain.RoomID(p.RoomID)
	if id == "" {
		current, ok := ctl.Rooms.RoomOf(sid)
		if !ok {
			return Result{Err: domain.ErrNotInRoom, Silent: true}
		}
		id = current
	}
	if err := ctl.Rooms.Leave(sid, id); err != nil {
		return Result{Err: err, Silent: true}
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(id)).Msg("leave")
	return Result{}
}
