// Package app holds the room coordination core: the room registry, the
// membership manager with its disconnect grace period and the per-room alarm
// ledger. All three share one lock so a membership change, a timer
// cancellation and the events they produce are atomic together.
package app

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SharedAlarm/internal/core"
	"github.com/dkeye/SharedAlarm/internal/domain"
	"github.com/dkeye/SharedAlarm/internal/metrics"
)

const (
	DefaultMaxMembers  = 5
	DefaultGracePeriod = 30 * time.Second

	generatedRoomIDLen = 8
)

type Options struct {
	MaxMembers  int
	GracePeriod time.Duration
	Notifier    core.Notifier
	Metrics     *metrics.Metrics
	// Now and NewRoomID are overridable for tests.
	Now       func() time.Time
	NewRoomID func() domain.RoomID
}

type room struct {
	id        domain.RoomID
	members   map[domain.ConnectionID]struct{}
	alarms    []domain.Alarm
	createdAt time.Time
}

// membership is one slot. timer and gen are only touched under Registry.mu;
// gen lets a timer that already fired recognise it was superseded.
type membership struct {
	room     domain.RoomID
	joinedAt time.Time
	state    domain.MemberState
	timer    *time.Timer
	gen      uint64
}

type Registry struct {
	mu      sync.RWMutex
	rooms   map[domain.RoomID]*room
	members map[domain.ConnectionID]*membership

	maxMembers int
	grace      time.Duration
	notify     core.Notifier
	metrics    *metrics.Metrics
	now        func() time.Time
	newRoomID  func() domain.RoomID
}

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		rooms:      make(map[domain.RoomID]*room),
		members:    make(map[domain.ConnectionID]*membership),
		maxMembers: opts.MaxMembers,
		grace:      opts.GracePeriod,
		notify:     opts.Notifier,
		metrics:    opts.Metrics,
		now:        opts.Now,
		newRoomID:  opts.NewRoomID,
	}
	if r.maxMembers <= 0 {
		r.maxMembers = DefaultMaxMembers
	}
	if r.grace <= 0 {
		r.grace = DefaultGracePeriod
	}
	if r.notify == nil {
		r.notify = core.NopNotifier{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newRoomID == nil {
		r.newRoomID = randomRoomID
	}
	return r
}

// SetNotifier swaps the event sink. The gateway and the registry refer to each
// other, so the gateway is attached after both exist.
func (r *Registry) SetNotifier(n core.Notifier) {
	if n == nil {
		n = core.NopNotifier{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notify = n
}

func randomRoomID() domain.RoomID {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return domain.RoomID(id[:generatedRoomIDLen])
}

// CreateRoom makes a room under a fresh id with conn as its only member.
func (r *Registry) CreateRoom(conn domain.ConnectionID) domain.RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newRoomID()
	for {
		if _, taken := r.rooms[id]; !taken {
			break
		}
		log.Warn().Str("module", "app.registry").Str("room", string(id)).Msg("room id collision, regenerating")
		id = r.newRoomID()
	}
	r.leaveCurrentLocked(conn)
	r.createLocked(id)
	r.addMemberLocked(conn, id)
	return id
}

// CreateRoomWithID makes a room under a caller-chosen id.
func (r *Registry) CreateRoomWithID(conn domain.ConnectionID, id domain.RoomID) (domain.RoomID, error) {
	if err := id.Validate(); err != nil {
		return "", domain.NewInvalidRequestError(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; ok {
		return "", domain.NewRoomAlreadyExistsError(id)
	}
	r.leaveCurrentLocked(conn)
	r.createLocked(id)
	r.addMemberLocked(conn, id)
	return id, nil
}

func (r *Registry) GetRoom(id domain.RoomID) (domain.RoomSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[id]
	if !ok {
		return domain.RoomSnapshot{}, domain.NewRoomNotFoundError(id)
	}
	return domain.RoomSnapshot{
		ID:        rm.id,
		Members:   rm.memberList(),
		Alarms:    cloneAlarms(rm.alarms),
		CreatedAt: rm.createdAt,
	}, nil
}

// DeleteRoomIfEmpty removes the room when nobody holds a slot in it. It is a
// no-op for unknown ids and for rooms that still have members.
func (r *Registry) DeleteRoomIfEmpty(id domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteIfEmptyLocked(id)
}

// Rooms lists every live room ordered by id.
func (r *Registry) Rooms() []domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.RoomInfo, 0, len(r.rooms))
	for _, rm := range r.rooms {
		out = append(out, domain.RoomInfo{
			ID:          rm.id,
			MemberCount: len(rm.members),
			AlarmCount:  len(rm.alarms),
			CreatedAt:   rm.createdAt,
		})
	}
	slices.SortFunc(out, func(a, b domain.RoomInfo) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}

// Close stops every pending grace timer. Rooms stay in memory.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.timer != nil {
			m.timer.Stop()
			m.timer = nil
		}
		m.gen++
	}
}

func (r *Registry) createLocked(id domain.RoomID) *room {
	rm := &room{
		id:        id,
		members:   make(map[domain.ConnectionID]struct{}, r.maxMembers),
		createdAt: r.now(),
	}
	r.rooms[id] = rm
	r.metrics.RoomCreated()
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room created")
	return rm
}

// deleteIfEmptyLocked relies on grace slots staying in members until their
// timer fires, so an empty member set also means no timer is pending.
func (r *Registry) deleteIfEmptyLocked(id domain.RoomID) bool {
	rm, ok := r.rooms[id]
	if !ok || len(rm.members) > 0 {
		return false
	}
	delete(r.rooms, id)
	r.metrics.RoomDeleted()
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room deleted")
	return true
}

func (r *room) memberList() []domain.ConnectionID {
	out := make([]domain.ConnectionID, 0, len(r.members))
	for c := range r.members {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
