package adminobserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeTimeout = 5 * time.Second

// Handler serves the read-only admin event feed over a websocket, gated by
// a shared token query parameter (there is no per-connection handshake
// message here, unlike the game protocol's HelloRequest, since this feed
// never reads anything back from the client).
type Handler struct {
	feed       *Feed
	adminToken string
	upgrader   websocket.Upgrader
	log        *slog.Logger
}

func NewHandler(feed *Feed, adminToken string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		feed:       feed,
		adminToken: adminToken,
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// Register binds the feed route on an Echo router.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/admin/events", h.serve)
}

func (h *Handler) serve(c echo.Context) error {
	if h.adminToken == "" || c.QueryParam("token") != h.adminToken {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid admin token")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("admin observer upgrade failed", "remote", c.RealIP(), "err", err)
		return nil
	}
	defer conn.Close()

	sub := h.feed.subscribe()
	defer h.feed.unsubscribe(sub.id)

	h.log.Info("admin observer connected", "remote", c.RealIP(), "subscriber", sub.id)

	// The client never sends anything meaningful on this connection; this
	// goroutine exists only so a client-initiated close is noticed promptly
	// (gorilla/websocket requires something to be reading for control frames
	// like pings/closes to be processed).
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return nil
		case ev, ok := <-sub.send:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Debug("admin observer write failed", "subscriber", sub.id, "err", err)
				return nil
			}
		}
	}
}
