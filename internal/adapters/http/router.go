package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/SharedAlarm/internal/adapters/signal"
	"github.com/dkeye/SharedAlarm/internal/app"
	"github.com/dkeye/SharedAlarm/internal/config"
	"github.com/dkeye/SharedAlarm/internal/domain"
)

const sessionName = "SharedAlarmSession"

// Deps is everything the router serves.
type Deps struct {
	Rooms    *app.Registry
	Signal   *signal.SignalWSController
	Gatherer prometheus.Gatherer
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if cfg.AllowAllOrigins() {
		// credentials cannot be combined with a literal "*"
		cc.AllowOriginFunc = func(string) bool { return true }
	} else {
		cc.AllowOrigins = cfg.AllowedOrigins
	}
	return cors.New(cc)
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg))

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "SharedAlarm server is running.")
	})
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	log.Info().Str("module", "adapters.http").Strs("origins", cfg.AllowedOrigins).Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		deps.Signal.HandleSignal(ctx, c)
	})
	api.GET("/rooms/:id", roomHandler(deps.Rooms))
	api.GET("/stats", statsHandler(deps))

	return r
}

type roomResponse struct {
	RoomID      domain.RoomID  `json:"roomId"`
	MemberCount int            `json:"memberCount"`
	Alarms      []domain.Alarm `json:"alarms"`
	CreatedAt   string         `json:"createdAt"`
}

type errorResponse struct {
	Kind    domain.Kind `json:"kind"`
	Message string      `json:"message"`
}

func roomHandler(rooms *app.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := rooms.GetRoom(domain.RoomID(c.Param("id")))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrRoomNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, errorResponse{Kind: domain.KindOf(err), Message: err.Error()})
			return
		}
		c.JSON(http.StatusOK, roomResponse{
			RoomID:      snap.ID,
			MemberCount: snap.MemberCount(),
			Alarms:      snap.Alarms,
			CreatedAt:   snap.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
}

type statsResponse struct {
	Rooms       int                   `json:"rooms"`
	Connections int                   `json:"connections"`
	Clients     []domain.ConnectionID `json:"clients"`
	List        []domain.RoomInfo     `json:"list"`
}

func statsHandler(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		list := deps.Rooms.Rooms()
		clients := deps.Signal.Connections()
		c.JSON(http.StatusOK, statsResponse{
			Rooms:       len(list),
			Connections: len(clients),
			Clients:     clients,
			List:        list,
		})
	}
}
