package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/middleware"
)

// EventResolver returns the event a viewer may subscribe to
type EventResolver func(ctx context.Context, viewer *models.User, slug string) (*models.Event, error)

// Handler upgrades event feed requests to WebSocket subscriptions
type Handler struct {
	hub     *Hub
	resolve EventResolver
	logger  zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, resolve EventResolver, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		resolve: resolve,
		logger:  logger,
	}
}

// HandleConnection godoc
// @Summary Subscribe to live question updates
// @Description Upgrades to a WebSocket that receives accepted, updated and removed questions of the event. Vote counts are never sent.
// @Tags events, websocket
// @Security BearerAuth
// @Param slug path string true "Event slug"
// @Param token query string false "Bearer token, for clients that cannot set headers"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{slug}/live [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	actor, err := middleware.GetActor(c)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	event, err := h.resolve(c.Request.Context(), actor, c.Param("slug"))
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	// Origin is not checked; access is gated by the bearer token.
	upgrader := newUpgrader(func(*http.Request) bool { return true })
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("eventID", event.ID).
			Int64("userID", actor.ID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:     h.hub,
		conn:    conn,
		send:    make(chan []byte, 64),
		userID:  actor.ID,
		eventID: event.ID,
		logger:  h.logger,
	}
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Int64("eventID", event.ID).
		Int64("userID", actor.ID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}
