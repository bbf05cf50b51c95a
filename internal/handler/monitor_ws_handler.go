package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/classpoint/cbt-backend/internal/middleware"
	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/service"
	ws "github.com/classpoint/cbt-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorWSHandler streams live hall activity to proctor dashboards.
type MonitorWSHandler struct {
	monitorService *service.MonitorService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewMonitorWSHandler creates a new MonitorWSHandler.
func NewMonitorWSHandler(monitorService *service.MonitorService, log zerolog.Logger, allowedOrigins []string) *MonitorWSHandler {
	return &MonitorWSHandler{
		monitorService: monitorService,
		log:            log.With().Str("component", "monitor_ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// HallStream godoc
// WS /ws/v1/proctor/halls/:hall_id/stream?token=...
// Upgrades to WebSocket, sends the current roster, then relays every event
// published on the hall's channel until the client disconnects.
func (h *MonitorWSHandler) HallStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if !hasPermission(claims.Permissions, string(model.PermissionHallsMonitor)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	hallID, err := strconv.Atoi(c.Param("hall_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hall ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("proctor_id", claims.ProctorID).
		Int("hall_id", hallID).
		Logger()

	roster, err := h.monitorService.Roster(c.Request.Context(), hallID)
	if err != nil {
		ws.WriteError(conn, "hall not found")
		return
	}
	if err := ws.WriteTyped(conn, ws.RosterResponse{Event: ws.EventRoster, Roster: roster}); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.monitorService.Subscribe(ctx, hallID)
	defer sub.Close()

	wsLog.Info().Msg("Monitor connected")

	// Reader: consumes pings and detects disconnects.
	go func() {
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			wsLog.Info().Msg("Monitor disconnected")
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			if err := ws.WriteTyped(conn, ws.UpdateResponse{Event: ws.EventUpdate, Payload: msg.Payload}); err != nil {
				return
			}
		}
	}
}

func hasPermission(permissions []string, code string) bool {
	for _, p := range permissions {
		if p == code {
			return true
		}
	}
	return false
}
