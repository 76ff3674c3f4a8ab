package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"CryptoPulse/internal/notify"
	xhttp "CryptoPulse/pkg/http"
	xlogger "CryptoPulse/pkg/logger"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 25 * time.Second
)

// WSHandler upgrades /ws connections and registers them with the alert hub.
// One user can hold several connections; each gets every alert.
type WSHandler struct {
	hub      *notify.Hub
	logger   *xlogger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *notify.Hub, logger *xlogger.Logger) *WSHandler {
	return &WSHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve)
}

func (h *WSHandler) Serve(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return xhttp.BadRequestResponse(c, "userId is required")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", xlogger.Error(err))
		return nil // upgrader already wrote the response
	}

	h.hub.Register(userID, conn)
	h.logger.Info("ws connected", xlogger.String("user", userID))

	go h.pingLoop(conn)
	go h.readLoop(userID, conn)
	return nil
}

// readLoop drains client frames until the connection drops; inbound payloads
// are ignored, the socket is push-only.
func (h *WSHandler) readLoop(userID string, conn *websocket.Conn) {
	defer func() {
		h.hub.Unregister(userID, conn)
		_ = conn.Close()
		h.logger.Info("ws disconnected", xlogger.String("user", userID))
	}()

	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHandler) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for range ticker.C {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
			return
		}
	}
}

var _ xhttp.Handler = (*WSHandler)(nil)
