package domain

// Outbound event names.
const (
	EventConnected   = "connected"
	EventRoomCreated = "room-created"
	EventRoomJoined  = "room-joined"
	EventUserJoined  = "user-joined"
	EventUserLeft    = "user-left"
	EventUserCount   = "user-count"
	EventAlarmAdded  = "alarm-added"
	EventAlarmDelete = "alarm-deleted"
	EventPong        = "pong"
	EventWhoAmI      = "whoami"
	EventError       = "error"
	EventAck         = "ack"
)

// Event is a server-initiated message. Data is marshalled as the event body.
type Event struct {
	Type string
	Data any
}

type RoomRef struct {
	RoomID RoomID `json:"roomId"`
}

type RoomJoined struct {
	RoomID RoomID  `json:"roomId"`
	Alarms []Alarm `json:"alarms"`
}

type UserRef struct {
	ConnectionID ConnectionID `json:"connectionId"`
}

type UserCount struct {
	RoomID RoomID `json:"roomId"`
	Count  int    `json:"count"`
}

type AlarmRef struct {
	AlarmID AlarmID `json:"alarmId"`
}
