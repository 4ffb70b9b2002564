package handler

import (
	"net/http"

	"github.com/campustrade/backend/internal/middleware"
	"github.com/campustrade/backend/internal/realtime"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// WSHandler upgrades connections and attaches them to the realtime hub.
// Anonymous clients only receive global broadcasts; a valid token query
// parameter additionally subscribes the caller's private room.
type WSHandler struct {
	hub  *realtime.Hub
	auth *middleware.AuthMiddleware
	log  zerolog.Logger

	upgrader websocket.Upgrader
}

func NewWSHandler(hub *realtime.Hub, auth *middleware.AuthMiddleware, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		hub:  hub,
		auth: auth,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) Serve(c echo.Context) error {
	uid := ""
	if token := c.QueryParam("token"); token != "" && h.auth != nil {
		verified, err := h.auth.VerifyToken(c.Request().Context(), token)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, errorResponse("Invalid token"))
		}
		uid = verified
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return nil
	}
	h.hub.Attach(conn, uid)
	return nil
}
