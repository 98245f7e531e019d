package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/okaneo/peal/internal/app"
	"github.com/okaneo/peal/internal/config"
	"github.com/okaneo/peal/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Orch *app.Orchestrator

	cfg       *config.Config
	initiates *InitiateLimiter
}

func NewController(cfg *config.Config, orch *app.Orchestrator) *Controller {
	return &Controller{
		Orch:      orch,
		cfg:       cfg,
		initiates: NewInitiateLimiter(cfg.InitiateLimit, cfg.InitiateWindow),
	}
}

// Conn implements core.SignalConnection over a websocket. Writes go through
// a buffered channel drained by the write pump; TrySend never blocks.
type Conn struct {
	id   core.ConnID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newConn(id core.ConnID, ws *websocket.Conn, buffer int) *Conn {
	return &Conn{
		id:   id,
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *Conn) ID() core.ConnID { return c.id }

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and starts both pumps. Every websocket gets a
// fresh connection id; the session layer's client token is only logged.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.cfg.ReadLimit)

	conn := newConn(core.ConnID(uuid.NewString()), ws, ctl.cfg.SendBuffer)
	log.Info().Str("module", "signal").
		Str("conn", string(conn.id)).
		Str("client", c.GetString("client_token")).
		Msg("new WS connection")

	ctl.Orch.OnConnect(conn)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, conn)
}
