package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"aura-taste/internal/domain"
	"aura-taste/internal/feed"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origins are enforced by the CORS middleware and the session token.
	CheckOrigin: func(*http.Request) bool { return true },
}

// liveMessage is one full replacement snapshot pushed to a live client.
type liveMessage struct {
	Orders       []orderResponse `json:"orders"`
	PendingCount int             `json:"pendingCount"`
	At           time.Time       `json:"at"`
}

func (h *handlers) myOrdersLive(c *gin.Context) {
	p := principalFrom(c)
	if p.Email == "" {
		writeError(c, domain.ErrUnauthorized)
		return
	}
	h.serveFeed(c, feed.ByCustomer(p.Email))
}

func (h *handlers) orderLive(c *gin.Context) {
	o, err := h.deps.OrderSvc.Get(c.Request.Context(), principalFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.serveFeed(c, feed.ByID(o.ID))
}

func (h *handlers) adminOrdersLive(c *gin.Context) {
	h.serveFeed(c, feed.All())
}

// serveFeed upgrades the request and streams snapshots until the client goes
// away, a write fails or the server shuts down.
func (h *handlers) serveFeed(c *gin.Context, filter feed.Filter) {
	if h.deps.Feed == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "live updates unavailable"})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Printf("api: websocket upgrade filter=%s error=%v", filter.Name, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(h.deps.FeedContext)
	defer cancel()

	var mu sync.Mutex
	write := func(fn func() error) {
		mu.Lock()
		defer mu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := fn(); err != nil {
			cancel()
		}
	}

	unsubscribe := h.deps.Feed.Subscribe(ctx, filter, func(orders []domain.Order) {
		msg := liveMessage{Orders: h.views(orders), At: time.Now().UTC()}
		for _, o := range orders {
			if o.Status == domain.StatusPending {
				msg.PendingCount++
			}
		}
		write(func() error { return conn.WriteJSON(msg) })
	})
	defer unsubscribe()

	// The reader only watches for close frames and pongs.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			write(func() error {
				return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			})
			return
		case <-ticker.C:
			write(func() error { return conn.WriteMessage(websocket.PingMessage, nil) })
		}
	}
}
