package http

import (
	"github.com/dkeye/CodeRoom/internal/adapters/signal"
	"github.com/dkeye/CodeRoom/internal/assist"
	"github.com/dkeye/CodeRoom/internal/config"
	"github.com/dkeye/CodeRoom/internal/logging"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Signal  *signal.SignalWSController
	History HistoryReader
	Assist  assist.Client
	Rooms   RoomLister
}

func ICEServers(cfg []config.ICEServer) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(cfg))
	for _, s := range cfg {
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
		}
		out = append(out, srv)
	}
	return withSTUNFallback(out)
}

func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.GinMiddleware())
	r.Use(CORSMiddleware(cfg.AllowedOrigins))

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(ClientTokenMiddleware())

	h := &handlers{
		history: deps.History,
		assist:  deps.Assist,
		rooms:   deps.Rooms,
		ice:     ICEServers(cfg.ICEServers),
	}

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	r.GET("/health", h.health)
	r.GET("/history/:room", h.listHistory)
	r.POST("/ask-ai", h.askAI)
	r.GET("/ws", deps.Signal.HandleSignal)

	api := r.Group("/api")
	api.GET("/rooms", h.listRooms)
	api.GET("/ice-servers", h.iceServers)

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).
		Strs("origins", cfg.AllowedOrigins).Msg("router setup")
	return r
}
