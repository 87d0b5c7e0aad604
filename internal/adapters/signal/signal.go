// Package signal is the session gateway: it bridges WebSocket connections to
// the room registry and relays room events back out.
package signal

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SharedAlarm/internal/app"
	"github.com/dkeye/SharedAlarm/internal/core"
	"github.com/dkeye/SharedAlarm/internal/domain"
	"github.com/dkeye/SharedAlarm/internal/metrics"
)

const resumeSessionKey = "resume"

var (
	_ core.SignalConnection = (*WsSignalConn)(nil)
	_ core.Notifier         = (*SignalWSController)(nil)
)

type Options struct {
	ReadLimit      int64
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	SendBuffer     int
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
}

type SignalWSController struct {
	Rooms   *app.Registry
	Policy  app.Policy
	Metrics *metrics.Metrics

	opts     Options
	upgrader websocket.Upgrader
	limiter  *ConnRateLimiter
	validate *validator.Validate

	mu      sync.RWMutex
	conns   map[domain.ConnectionID]*WsSignalConn
	tokens  map[string]domain.ConnectionID
	tokenOf map[domain.ConnectionID]string
}

// NewSignalWSController builds the gateway and registers it as the
// registry's notifier.
func NewSignalWSController(rooms *app.Registry, policy app.Policy, m *metrics.Metrics, opts Options) *SignalWSController {
	if policy == nil {
		policy = app.SimplePolicy{}
	}
	ctl := &SignalWSController{
		Rooms:    rooms,
		Policy:   policy,
		Metrics:  m,
		opts:     opts,
		limiter:  NewConnRateLimiter(opts.RateLimit, opts.RateBurst),
		validate: validator.New(),
		conns:    make(map[domain.ConnectionID]*WsSignalConn),
		tokens:   make(map[string]domain.ConnectionID),
		tokenOf:  make(map[domain.ConnectionID]string),
	}
	ctl.upgrader = websocket.Upgrader{CheckOrigin: ctl.checkOrigin}
	rooms.SetNotifier(ctl)
	return ctl
}

type WsSignalConn struct {
	id   domain.ConnectionID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (ctl *SignalWSController) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range ctl.opts.AllowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	log.Warn().Str("module", "signal").Str("origin", origin).Msg("origin rejected")
	return false
}

// Notify implements core.Notifier. It runs under the registry lock, so it only
// enqueues frames and never calls back into the registry.
func (ctl *SignalWSController) Notify(to []domain.ConnectionID, ev domain.Event) {
	frame, err := encodeFrame(ev.Type, ev.Data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", ev.Type).Msg("notify marshal")
		return
	}
	ctl.mu.RLock()
	targets := make([]*WsSignalConn, 0, len(to))
	for _, sid := range to {
		if c, ok := ctl.conns[sid]; ok {
			targets = append(targets, c)
		}
	}
	ctl.mu.RUnlock()

	for _, c := range targets {
		err := c.TrySend(frame)
		if !errors.Is(err, core.ErrBackpressure) {
			continue
		}
		switch ctl.Policy.OnBackPressure(c.id, ev) {
		case app.KickMember:
			log.Warn().Str("module", "signal").Str("sid", string(c.id)).Str("event", ev.Type).Msg("slow connection kicked")
			c.Close()
		case app.DropFrame, app.NoAction:
			log.Debug().Str("module", "signal").Str("sid", string(c.id)).Str("event", ev.Type).Msg("frame dropped")
		}
	}
}

// Released implements core.Notifier: the slot's grace ran out, so its resume
// token is no longer useful unless the connection came back in the meantime.
func (ctl *SignalWSController) Released(sid domain.ConnectionID) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if _, live := ctl.conns[sid]; live {
		return
	}
	ctl.forgetLocked(sid)
}

func (ctl *SignalWSController) ConnectionCount() int {
	ctl.mu.RLock()
	defer ctl.mu.RUnlock()
	return len(ctl.conns)
}

// Connections lists live connection ids, sorted.
func (ctl *SignalWSController) Connections() []domain.ConnectionID {
	ctl.mu.RLock()
	out := make([]domain.ConnectionID, 0, len(ctl.conns))
	for sid := range ctl.conns {
		out = append(out, sid)
	}
	ctl.mu.RUnlock()
	slices.Sort(out)
	return out
}

// HandleSignal upgrades the request and starts the connection pumps. A client
// that presents the resume token of a connection that is not live gets that
// connection id back.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.Query("resume")
	session := sessions.Default(c)
	if token == "" {
		if v, ok := session.Get(resumeSessionKey).(string); ok {
			token = v
		}
	}

	conn := &WsSignalConn{send: make(chan core.Frame, ctl.opts.SendBuffer)}
	sid, token, resumed := ctl.admit(conn, token)

	session.Set(resumeSessionKey, token)
	if err := session.Save(); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("session save")
	}
	header := http.Header{}
	for _, v := range c.Writer.Header().Values("Set-Cookie") {
		header.Add("Set-Cookie", v)
	}

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("ws upgrade")
		ctl.abandon(conn, resumed)
		return
	}
	conn.mu.Lock()
	conn.conn = ws
	conn.mu.Unlock()

	ctl.Metrics.ConnectionOpened()
	log.Info().Str("module", "signal").Str("sid", string(sid)).Bool("resumed", resumed).Msg("new WS connection")

	// resync before readPump exists, so Reconnect always precedes this
	// socket's onDisconnect.
	if resumed {
		ctl.resync(conn)
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}

// admit picks the connection id and registers conn as live. The hello frame is
// queued before conn becomes visible to Notify so it is always the first frame.
func (ctl *SignalWSController) admit(conn *WsSignalConn, token string) (domain.ConnectionID, string, bool) {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()

	sid, known := ctl.tokens[token]
	_, live := ctl.conns[sid]
	resumed := token != "" && known && !live
	if !resumed {
		sid = domain.ConnectionID(uuid.NewString())
		token = uuid.NewString()
		ctl.tokens[token] = sid
		ctl.tokenOf[sid] = token
	}
	conn.id = sid
	frame, err := encodeFrame(domain.EventConnected, connectedBody{ConnectionID: sid, ResumeToken: token, Resumed: resumed})
	if err == nil {
		_ = conn.TrySend(frame)
	}
	ctl.conns[sid] = conn
	return sid, token, resumed
}

// abandon undoes admit after a failed upgrade.
func (ctl *SignalWSController) abandon(conn *WsSignalConn, resumed bool) {
	ctl.mu.Lock()
	if ctl.conns[conn.id] == conn {
		delete(ctl.conns, conn.id)
	}
	if !resumed {
		ctl.forgetLocked(conn.id)
	}
	ctl.mu.Unlock()
	conn.Close()
}

// resync restores a resumed connection's slot and hands it the current room
// state. A connection that already went away leaves the slot in grace.
func (ctl *SignalWSController) resync(conn *WsSignalConn) {
	ctl.mu.RLock()
	live := ctl.conns[conn.id] == conn
	ctl.mu.RUnlock()
	if !live {
		log.Debug().Str("module", "signal").Str("sid", string(conn.id)).Msg("resync skipped, connection gone")
		return
	}
	res, err := ctl.Rooms.Reconnect(conn.id)
	if err != nil {
		log.Info().Str("module", "signal").Str("sid", string(conn.id)).Msg("resumed without a room")
		return
	}
	ctl.sendEvent(conn, domain.EventRoomJoined, domain.RoomJoined{RoomID: res.RoomID, Alarms: res.Alarms})
	ctl.sendEvent(conn, domain.EventUserCount, domain.UserCount{RoomID: res.RoomID, Count: ctl.Rooms.MemberCount(res.RoomID)})
}

// onDisconnect starts the grace period before the connection stops being
// live, so a resume racing with this call can never land on an Active slot
// that is about to enter grace.
func (ctl *SignalWSController) onDisconnect(conn *WsSignalConn) {
	member := ctl.Rooms.HandleDisconnect(conn.id)

	ctl.mu.Lock()
	if ctl.conns[conn.id] == conn {
		delete(ctl.conns, conn.id)
	}
	if !member {
		ctl.forgetLocked(conn.id)
	}
	ctl.mu.Unlock()

	conn.Close()
	ctl.Metrics.ConnectionClosed()
	log.Info().Str("module", "signal").Str("sid", string(conn.id)).Bool("grace", member).Msg("connection closed")
}

func (ctl *SignalWSController) forgetLocked(sid domain.ConnectionID) {
	if token, ok := ctl.tokenOf[sid]; ok {
		delete(ctl.tokens, token)
		delete(ctl.tokenOf, sid)
	}
	ctl.limiter.Forget(sid)
}

// CloseAll drops every live connection, used on shutdown.
func (ctl *SignalWSController) CloseAll() {
	ctl.mu.RLock()
	conns := make([]*WsSignalConn, 0, len(ctl.conns))
	for _, c := range ctl.conns {
		conns = append(conns, c)
	}
	ctl.mu.RUnlock()
	for _, c := range conns {
		c.Close()
	}
}
