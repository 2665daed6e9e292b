package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/venlink/huddle/internal/app"
	"github.com/venlink/huddle/internal/core"
)

var validate = validator.New()

// SignalWSController owns one websocket endpoint and wires every inbound
// event through the registry, rooms and hub.
type SignalWSController struct {
	Registry *app.Registry
	Rooms    *app.RoomManager
	Hub      *app.Hub
	Presence *app.Presence
	Messages core.MessageStore

	// Transport tuning; zero values fall back to sane defaults.
	ReadLimit  int64
	PingPeriod time.Duration

	limiter *EventRateLimiter
}

func NewSignalWSController(
	registry *app.Registry,
	rooms *app.RoomManager,
	hub *app.Hub,
	presence *app.Presence,
	messages core.MessageStore,
	limiter *EventRateLimiter,
) *SignalWSController {
	return &SignalWSController{
		Registry: registry,
		Rooms:    rooms,
		Hub:      hub,
		Presence: presence,
		Messages: messages,
		limiter:  limiter,
	}
}

// WsSignalConn wraps a websocket with a buffered send channel. TrySend never
// blocks; a full buffer drops the frame and reports backpressure.
type WsSignalConn struct {
	id   core.ConnID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) ID() core.ConnID { return c.id }

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
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
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the connection lifecycle.
// A connection is anonymous until its owner issues a join event.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsSignalConn{
		id:   core.ConnID(uuid.NewString()),
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctl.Hub.Attach(conn)
	log.Info().Str("module", "signal").Str("conn", string(conn.id)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, conn)
		ctl.disconnect(conn)
	}()
}

// disconnect reconciles all state owned by a dead connection: local tables
// first, then the shared registry, then the durable presence flag for every
// user the scan actually removed.
func (ctl *SignalWSController) disconnect(conn *WsSignalConn) {
	ctx := context.Background()
	cid := conn.ID()

	ctl.Hub.Detach(cid)
	ctl.Rooms.LeaveAll(cid)
	if ctl.limiter != nil {
		ctl.limiter.Forget(cid)
	}

	for _, uid := range ctl.Registry.Unregister(ctx, cid) {
		ctl.Presence.Offline(ctx, uid)
	}
	log.Info().Str("module", "signal").Str("conn", string(cid)).Msg("disconnected")
}
