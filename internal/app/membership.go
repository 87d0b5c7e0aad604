package app

import (
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/SharedAlarm/internal/domain"
)

// JoinResult is what a joining or resuming connection needs to render the room.
type JoinResult struct {
	RoomID  domain.RoomID
	Alarms  []domain.Alarm
	Created bool
}

// Join admits conn into id. An unknown id is created on the fly. Joining the
// room conn already holds a slot in is a resync and changes nothing else.
func (r *Registry) Join(conn domain.ConnectionID, id domain.RoomID) (JoinResult, error) {
	if err := id.Validate(); err != nil {
		return JoinResult{}, domain.NewInvalidRequestError(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.members[conn]; ok && m.room == id {
		r.recoverLocked(conn, m)
		return JoinResult{RoomID: id, Alarms: cloneAlarms(r.rooms[id].alarms)}, nil
	}

	rm, exists := r.rooms[id]
	if exists && len(rm.members) >= r.maxMembers {
		log.Info().Str("module", "app.membership").Str("sid", string(conn)).Str("room", string(id)).Msg("join rejected, room full")
		return JoinResult{}, domain.NewRoomFullError(id, r.maxMembers)
	}

	r.leaveCurrentLocked(conn)
	if !exists {
		rm = r.createLocked(id)
	}
	r.addMemberLocked(conn, id)
	return JoinResult{RoomID: id, Alarms: cloneAlarms(rm.alarms), Created: !exists}, nil
}

// Leave removes conn from id right away, without a grace period.
func (r *Registry) Leave(conn domain.ConnectionID, id domain.RoomID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[conn]
	if !ok || m.room != id {
		return domain.ErrNotInRoom
	}
	r.removeLocked(conn, m)
	return nil
}

// HandleDisconnect starts the grace period for conn's slot. It reports
// whether conn held a slot at all.
func (r *Registry) HandleDisconnect(conn domain.ConnectionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[conn]
	if !ok {
		return false
	}
	if m.state == domain.MemberGrace {
		return true
	}
	m.state = domain.MemberGrace
	m.gen++
	gen := m.gen
	m.timer = time.AfterFunc(r.grace, func() { r.expire(conn, gen) })
	r.metrics.GraceStart()
	log.Info().Str("module", "app.membership").Str("sid", string(conn)).Str("room", string(m.room)).Dur("grace", r.grace).Msg("grace period started")
	return true
}

// Reconnect is called when conn is seen again. A pending grace timer is
// cancelled and the slot is Active again; nothing is broadcast.
func (r *Registry) Reconnect(conn domain.ConnectionID) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[conn]
	if !ok {
		return JoinResult{}, domain.ErrNotInRoom
	}
	r.recoverLocked(conn, m)
	return JoinResult{RoomID: m.room, Alarms: cloneAlarms(r.rooms[m.room].alarms)}, nil
}

// RoomOf returns the room conn holds a slot in.
func (r *Registry) RoomOf(conn domain.ConnectionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.members[conn]; ok {
		return m.room, true
	}
	return "", false
}

func (r *Registry) Membership(conn domain.ConnectionID) (domain.Membership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[conn]
	if !ok {
		return domain.Membership{}, false
	}
	return domain.Membership{Conn: conn, Room: m.room, JoinedAt: m.joinedAt, State: m.state}, true
}

func (r *Registry) MemberCount(id domain.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rm, ok := r.rooms[id]; ok {
		return len(rm.members)
	}
	return 0
}

// expire runs on the timer goroutine. A reconnect bumps gen under the same
// lock, so a stale firing finds a mismatch and does nothing.
func (r *Registry) expire(conn domain.ConnectionID, gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[conn]
	if !ok || m.gen != gen || m.state != domain.MemberGrace {
		return
	}
	m.timer = nil
	log.Info().Str("module", "app.membership").Str("sid", string(conn)).Str("room", string(m.room)).Msg("grace period expired")
	r.removeLocked(conn, m)
	r.metrics.GraceExpire()
	r.notify.Released(conn)
}

func (r *Registry) recoverLocked(conn domain.ConnectionID, m *membership) {
	if m.state != domain.MemberGrace {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
	m.state = domain.MemberActive
	r.metrics.GraceRecover()
	log.Info().Str("module", "app.membership").Str("sid", string(conn)).Str("room", string(m.room)).Msg("reconnected within grace period")
}

// leaveCurrentLocked keeps the one-room-per-connection invariant.
func (r *Registry) leaveCurrentLocked(conn domain.ConnectionID) {
	if m, ok := r.members[conn]; ok {
		r.removeLocked(conn, m)
	}
}

func (r *Registry) addMemberLocked(conn domain.ConnectionID, id domain.RoomID) {
	rm := r.rooms[id]
	rm.members[conn] = struct{}{}
	r.members[conn] = &membership{room: id, joinedAt: r.now(), state: domain.MemberActive}
	r.metrics.MemberAdded()
	log.Info().Str("module", "app.membership").Str("sid", string(conn)).Str("room", string(id)).Int("count", len(rm.members)).Msg("member joined")

	everyone := rm.memberList()
	others := slices.DeleteFunc(slices.Clone(everyone), func(c domain.ConnectionID) bool { return c == conn })
	if len(others) > 0 {
		r.notify.Notify(others, domain.Event{Type: domain.EventUserJoined, Data: domain.UserRef{ConnectionID: conn}})
	}
	r.notify.Notify(everyone, domain.Event{Type: domain.EventUserCount, Data: domain.UserCount{RoomID: id, Count: len(rm.members)}})
}

func (r *Registry) removeLocked(conn domain.ConnectionID, m *membership) {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
	delete(r.members, conn)
	r.metrics.MemberRemoved()

	rm, ok := r.rooms[m.room]
	if !ok {
		return
	}
	delete(rm.members, conn)
	log.Info().Str("module", "app.membership").Str("sid", string(conn)).Str("room", string(m.room)).Int("count", len(rm.members)).Msg("member left")

	if rest := rm.memberList(); len(rest) > 0 {
		r.notify.Notify(rest, domain.Event{Type: domain.EventUserLeft, Data: domain.UserRef{ConnectionID: conn}})
		r.notify.Notify(rest, domain.Event{Type: domain.EventUserCount, Data: domain.UserCount{RoomID: m.room, Count: len(rm.members)}})
	}
	r.deleteIfEmptyLocked(m.room)
}
