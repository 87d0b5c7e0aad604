package signal

import "github.com/dkeye/SharedAlarm/internal/domain"

type whoAmIBody struct {
	ConnectionID domain.ConnectionID `json:"connectionId"`
	RoomID       domain.RoomID       `json:"roomId,omitempty"`
}

func (ctl *SignalWSController) handleWhoAmI(sid domain.ConnectionID) Result {
	body := whoAmIBody{ConnectionID: sid}
	if id, ok := ctl.Rooms.RoomOf(sid); ok {
		body.RoomID = id
	}
	return Result{Event: domain.EventWhoAmI, Data: body}
}
