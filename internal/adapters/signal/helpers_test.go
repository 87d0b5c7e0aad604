package signal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/SharedAlarm/internal/app"
	"github.com/dkeye/SharedAlarm/internal/core"
	"github.com/dkeye/SharedAlarm/internal/domain"
	"github.com/dkeye/SharedAlarm/internal/metrics"
)

// frame is the union of every outbound shape, for assertions.
type frame struct {
	Type  string          `json:"type"`
	Ack   string          `json:"ack"`
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *errorBody      `json:"error"`
}

func testOptions() Options {
	return Options{
		ReadLimit:      4096,
		PingPeriod:     time.Second,
		PongWait:       2 * time.Second,
		WriteWait:      time.Second,
		SendBuffer:     32,
		RateLimit:      1000,
		RateBurst:      1000,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
}

func newTestController(t *testing.T, opts Options) (*SignalWSController, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	rooms := app.NewRegistry(app.Options{GracePeriod: time.Minute, Metrics: m})
	t.Cleanup(rooms.Close)
	return NewSignalWSController(rooms, app.SimplePolicy{}, m, opts), m
}

// attach registers a socketless connection so Notify and respond reach it.
func attach(ctl *SignalWSController, sid domain.ConnectionID, buffer int) *WsSignalConn {
	c := &WsSignalConn{id: sid, send: make(chan core.Frame, buffer)}
	ctl.mu.Lock()
	ctl.conns[sid] = c
	ctl.mu.Unlock()
	return c
}

// drain returns every queued frame without blocking.
func drain(t *testing.T, c *WsSignalConn) []frame {
	t.Helper()
	var out []frame
	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				return out
			}
			var f frame
			require.NoError(t, json.Unmarshal(b, &f))
			out = append(out, f)
		default:
			return out
		}
	}
}

func only(frames []frame, typ string) []frame {
	var out []frame
	for _, f := range frames {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

func request(t *testing.T, typ, ack string, data any) []byte {
	t.Helper()
	env := map[string]any{"type": typ}
	if ack != "" {
		env["ack"] = ack
	}
	if data != nil {
		env["data"] = data
	}
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return b
}
