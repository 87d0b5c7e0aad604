package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SharedAlarm/internal/core"
	"github.com/dkeye/SharedAlarm/internal/domain"
)

// Inbound request names.
const (
	ReqCreateRoom       = "create-room"
	ReqCreateRoomWithID = "create-room-with-id"
	ReqJoinRoom         = "join-room"
	ReqLeaveRoom        = "leave-room"
	ReqAddAlarm         = "add-alarm"
	ReqDeleteAlarm      = "delete-alarm"
	ReqPing             = "ping"
	ReqWhoAmI           = "whoami"
)

// envelope is the shape of every frame in both directions.
type envelope struct {
	Type string          `json:"type"`
	Ack  string          `json:"ack,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type ackFrame struct {
	Type  string     `json:"type"`
	Ack   string     `json:"ack"`
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Kind    domain.Kind `json:"kind"`
	Message string      `json:"message"`
	Request string      `json:"request,omitempty"`
}

type connectedBody struct {
	ConnectionID domain.ConnectionID `json:"connectionId"`
	ResumeToken  string              `json:"resumeToken"`
	Resumed      bool                `json:"resumed"`
}

func encodeFrame(typ string, data any) (core.Frame, error) {
	return json.Marshal(outFrame{Type: typ, Data: data})
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.mu.RLock()
		ws := c.conn
		c.mu.RUnlock()
		if ws != nil {
			_ = ws.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(c.id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Str("sid", string(c.id)).Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, c *WsSignalConn) {
	defer func() {
		log.Debug().Str("module", "signal").Str("sid", string(c.id)).Msg("readPump closing")
		cancel()
		ctl.onDisconnect(c)
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(c.id)).Msg("readPump ctx done")
			return
		default:
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("readPump unexpected close")
			}
			return
		}
		ctl.handleSignal(c, data)
	}
}

func (ctl *SignalWSController) handleSignal(c *WsSignalConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("bad json")
		ctl.respond(c, env, Result{Err: domain.NewInvalidRequestError(err)})
		return
	}

	if !ctl.limiter.Allow(c.id) {
		log.Warn().Str("module", "signal").Str("sid", string(c.id)).Str("type", env.Type).Msg("rate limited")
		ctl.respond(c, env, Result{Err: domain.ErrRateLimited})
		return
	}

	ctl.respond(c, env, ctl.dispatch(c, env))
}

func (ctl *SignalWSController) dispatch(c *WsSignalConn, env envelope) Result {
	switch env.Type {
	case ReqCreateRoom:
		return ctl.handleCreateRoom(c.id)
	case ReqCreateRoomWithID:
		return ctl.handleCreateRoomWithID(c.id, env.Data)
	case ReqJoinRoom:
		return ctl.handleJoin(c.id, env.Data)
	case ReqLeaveRoom:
		return ctl.handleLeave(c.id, env.Data)
	case ReqAddAlarm:
		return ctl.handleAddAlarm(c.id, env.Data)
	case ReqDeleteAlarm:
		return ctl.handleDeleteAlarm(env.Data)
	case ReqPing:
		return ctl.handlePing()
	case ReqWhoAmI:
		return ctl.handleWhoAmI(c.id)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		return Result{Err: domain.NewInvalidRequestError(errUnknownType(env.Type))}
	}
}

func (ctl *SignalWSController) sendEvent(c *WsSignalConn, typ string, data any) {
	ctl.sendJSON(c, outFrame{Type: typ, Data: data})
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("sid", string(c.id)).Msg("sendJSON dropped")
	}
}
