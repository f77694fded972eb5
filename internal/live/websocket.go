package live

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lostfound/internal/domain/access"
	"lostfound/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler serves GET /ws. Authentication happens in middleware, which
// accepts the token as a query parameter for this route.
type Handler struct {
	hub       *Hub
	snapshots Snapshotter
	sessions  *access.SessionHub
	log       *zap.Logger

	// base parents every connection; Close cancels it.
	base     context.Context
	shutdown context.CancelFunc
}

func NewHandler(hub *Hub, snapshots Snapshotter, sessions *access.SessionHub, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	base, shutdown := context.WithCancel(context.Background())
	return &Handler{
		hub:       hub,
		snapshots: snapshots,
		sessions:  sessions,
		log:       log,
		base:      base,
		shutdown:  shutdown,
	}
}

// Close ends every open connection. http.Server.Shutdown does not track
// hijacked connections, so the server calls this before shutting down.
func (h *Handler) Close() {
	h.shutdown()
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/ws", h.Serve)
}

type wsClient struct {
	session access.Session
	conn    *websocket.Conn
	send    chan []byte
	subs    map[string]context.CancelFunc
}

func (h *Handler) Serve(c *gin.Context) {
	sess, ok := access.SessionFrom(c)
	if !ok {
		response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	if h.base.Err() != nil {
		response.CustomError(c, http.StatusServiceUnavailable, "SHUTTING_DOWN", "Server is shutting down")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(h.base)
	defer cancel()

	client := &wsClient{
		session: sess,
		conn:    conn,
		send:    make(chan []byte, 256),
		subs:    make(map[string]context.CancelFunc),
	}

	if h.sessions != nil {
		go h.closeOnSignOut(ctx, cancel, sess)
	}

	h.log.Info("live connection opened", zap.String("user_id", sess.UserID))
	go h.writePump(ctx, client)
	h.readPump(ctx, client)
	h.log.Info("live connection closed", zap.String("user_id", sess.UserID))
}

func (h *Handler) closeOnSignOut(ctx context.Context, cancel context.CancelFunc, sess access.Session) {
	for ev := range h.sessions.Subscribe(ctx) {
		if ev.Type != access.EventSignedOut || ev.Session.UserID != sess.UserID {
			continue
		}
		if ev.Session.TokenID == "" || ev.Session.TokenID == sess.TokenID {
			cancel()
			return
		}
	}
}

func (h *Handler) readPump(ctx context.Context, cl *wsClient) {
	defer func() {
		for _, stop := range cl.subs {
			stop()
		}
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(maxMsgSize)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.enqueue(ctx, cl, newErrorMessage("", "INVALID_JSON", "failed to parse message"))
			continue
		}

		switch msg.Type {
		case "subscribe":
			h.subscribe(ctx, cl, msg)
		case "unsubscribe":
			if stop, ok := cl.subs[msg.ID]; ok {
				stop()
				delete(cl.subs, msg.ID)
			}
		case "ping":
			h.enqueue(ctx, cl, map[string]string{"type": "pong"})
		default:
			h.enqueue(ctx, cl, newErrorMessage(msg.ID, "UNKNOWN_TYPE", "unknown message type: "+msg.Type))
		}
	}
}

func (h *Handler) subscribe(ctx context.Context, cl *wsClient, msg clientMessage) {
	if msg.ID == "" {
		h.enqueue(ctx, cl, newErrorMessage("", "INVALID_SUBSCRIPTION", "id is required"))
		return
	}
	if _, exists := cl.subs[msg.ID]; exists {
		h.enqueue(ctx, cl, newErrorMessage(msg.ID, "INVALID_SUBSCRIPTION", "subscription id already in use"))
		return
	}

	q, err := Authorize(cl.session, Query{Collection: msg.Collection, Filters: msg.Filters})
	if err != nil {
		h.enqueue(ctx, cl, newErrorMessage(msg.ID, "FORBIDDEN", err.Error()))
		return
	}

	subCtx, stop := context.WithCancel(ctx)
	changes := h.hub.Subscribe(subCtx, q)

	records, err := h.snapshots.Snapshot(subCtx, q)
	if err != nil {
		stop()
		h.log.Warn("snapshot failed", zap.String("collection", q.Collection), zap.Error(err))
		h.enqueue(ctx, cl, newErrorMessage(msg.ID, "IO_ERROR", "snapshot failed, please retry"))
		return
	}
	cl.subs[msg.ID] = stop
	h.enqueue(ctx, cl, newSnapshotMessage(msg.ID, q.Collection, records))

	go func() {
		for ch := range changes {
			h.enqueue(subCtx, cl, newChangeMessage(msg.ID, ch))
		}
	}()
}

func (h *Handler) enqueue(ctx context.Context, cl *wsClient, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("websocket marshal failed", zap.Error(err))
		return
	}
	select {
	case cl.send <- data:
	case <-ctx.Done():
	default:
		h.log.Warn("websocket client too slow, message dropped", zap.String("user_id", cl.session.UserID))
	}
}

func (h *Handler) writePump(ctx context.Context, cl *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			code, reason := websocket.CloseNormalClosure, "session ended"
			if h.base.Err() != nil {
				code, reason = websocket.CloseGoingAway, "server shutting down"
			}
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			cl.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
			return
		case msg := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
