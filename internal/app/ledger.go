package app

import (
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SharedAlarm/internal/domain"
)

// AddAlarm stores a new alarm authored by conn and announces it to the whole
// room, author included.
func (r *Registry) AddAlarm(conn domain.ConnectionID, id domain.RoomID, draft domain.AlarmDraft) (domain.Alarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok {
		return domain.Alarm{}, domain.NewRoomNotFoundError(id)
	}
	alarm, err := domain.NewAlarm(draft, conn, r.now())
	if err != nil {
		return domain.Alarm{}, err
	}
	rm.alarms = append(rm.alarms, alarm)
	r.metrics.AlarmAdded()
	log.Info().Str("module", "app.ledger").Str("room", string(id)).Str("alarm", string(alarm.ID)).Str("sid", string(conn)).Msg("alarm added")

	r.notify.Notify(rm.memberList(), domain.Event{Type: domain.EventAlarmAdded, Data: alarm})
	return alarm, nil
}

// DeleteAlarm removes an alarm by id. Only an actual removal is broadcast.
func (r *Registry) DeleteAlarm(id domain.RoomID, alarmID domain.AlarmID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[id]
	if !ok {
		return domain.NewRoomNotFoundError(id)
	}
	i := slices.IndexFunc(rm.alarms, func(a domain.Alarm) bool { return a.ID == alarmID })
	if i < 0 {
		return domain.NewAlarmNotFoundError(alarmID)
	}
	rm.alarms = slices.Delete(rm.alarms, i, i+1)
	r.metrics.AlarmDeleted()
	log.Info().Str("module", "app.ledger").Str("room", string(id)).Str("alarm", string(alarmID)).Msg("alarm deleted")

	r.notify.Notify(rm.memberList(), domain.Event{Type: domain.EventAlarmDelete, Data: domain.AlarmRef{AlarmID: alarmID}})
	return nil
}

// Alarms returns the room's alarms in insertion order.
func (r *Registry) Alarms(id domain.RoomID) ([]domain.Alarm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[id]
	if !ok {
		return nil, domain.NewRoomNotFoundError(id)
	}
	return cloneAlarms(rm.alarms), nil
}

// cloneAlarms never returns nil so an empty room serialises as "alarms": [].
func cloneAlarms(in []domain.Alarm) []domain.Alarm {
	out := make([]domain.Alarm, len(in))
	copy(out, in)
	return out
}
