package signal

import (
	"bytes"
	"encoding/json"

	"github.com/dkeye/SharedAlarm/internal/domain"
)

// roomPayload accepts both {"roomId": "..."} and a bare "..." string.
type roomPayload struct {
	RoomID string `json:"roomId" validate:"required,max=64"`
}

func (p *roomPayload) UnmarshalJSON(b []byte) error {
	if s := bytes.TrimSpace(b); len(s) > 0 && s[0] == '"' {
		return json.Unmarshal(s, &p.RoomID)
	}
	type plain roomPayload
	return json.Unmarshal(b, (*plain)(p))
}

type leavePayload struct {
	RoomID string `json:"roomId" validate:"omitempty,max=64"`
}

func (p *leavePayload) UnmarshalJSON(b []byte) error {
	if s := bytes.TrimSpace(b); len(s) > 0 && s[0] == '"' {
		return json.Unmarshal(s, &p.RoomID)
	}
	type plain leavePayload
	return json.Unmarshal(b, (*plain)(p))
}

type addAlarmPayload struct {
	RoomID string            `json:"roomId" validate:"required,max=64"`
	Alarm  domain.AlarmDraft `json:"alarm"`
}

type deleteAlarmPayload struct {
	RoomID  string `json:"roomId" validate:"required,max=64"`
	AlarmID string `json:"alarmId" validate:"required"`
}

// decode unmarshals and validates a request body. Any failure is InvalidRequest.
func (ctl *SignalWSController) decode(data json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		data = json.RawMessage("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return domain.NewInvalidRequestError(err)
	}
	if err := ctl.validate.Struct(dst); err != nil {
		return domain.NewInvalidRequestError(err)
	}
	return nil
}
