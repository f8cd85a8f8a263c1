package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

type Options struct {
	AllowedOrigins []string
	ReadLimit      int64
	PingPeriod     time.Duration
	SendBuffer     int
	RateLimit      int
	RateInterval   time.Duration
}

func (o *Options) withDefaults() {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 1 << 20
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
}

// pongWait leaves the peer a tenth of a ping period to answer.
func (o Options) pongWait() time.Duration {
	return o.PingPeriod * 10 / 9
}

type SignalWSController struct {
	Orch     *orch.Orchestrator
	ctx      context.Context
	opts     Options
	upgrader websocket.Upgrader
	limiter  *RateLimiter
}

// NewSignalWSController builds the /ws handler. ctx outlives single
// connections: runs submitted over a socket still report to the room
// after that socket is gone.
func NewSignalWSController(ctx context.Context, o *orch.Orchestrator, opts Options) *SignalWSController {
	opts.withDefaults()
	origins := make(map[string]struct{}, len(opts.AllowedOrigins))
	allowAny := false
	for _, origin := range opts.AllowedOrigins {
		if origin == "*" {
			allowAny = true
		}
		origins[origin] = struct{}{}
	}

	return &SignalWSController{
		Orch: o,
		ctx:  ctx,
		opts: opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowAny {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		limiter: NewRateLimiter(opts.RateLimit, opts.RateInterval),
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (ctl *SignalWSController) HandleSignal(c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	token := domain.UserID(c.GetString("client_token"))

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("user", string(token)).Msg("new WS connection")

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}

	user := ctl.Orch.Sessions.GetOrCreateUser(token)
	sess := core.NewMemberSession(user, conn)
	ctx, cancel := context.WithCancel(ctl.ctx)
	ctl.Orch.Connect(sid, sess, cancel)

	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}
