package room

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/social-jukebox/internal/queue"
	"github.com/social-jukebox/internal/ws"
	"github.com/social-jukebox/pkg/database"
	"github.com/social-jukebox/pkg/models"
)

// Handler serves the read-only query surface: queue snapshots, playing
// context, participants and the play archive. All mutation goes through
// the websocket events.
type Handler struct {
	registry *queue.Registry
	hub      *ws.Hub
	db       *database.MySQLDB // nil when archiving is disabled
}

func NewHandler(registry *queue.Registry, hub *ws.Hub, db *database.MySQLDB) *Handler {
	return &Handler{registry: registry, hub: hub, db: db}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users", h.getUsers)
	rooms := r.Group("/rooms")
	{
		rooms.GET("/:roomId/queue", h.getQueue)
		rooms.GET("/:roomId/now-playing", h.getNowPlaying)
		rooms.GET("/:roomId/history", h.getHistory)
	}
}

func (h *Handler) getUsers(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Participants())
}

func (h *Handler) getQueue(c *gin.Context) {
	manager := h.registry.Get(c.Param("roomId"))
	if manager == nil {
		c.JSON(http.StatusOK, []models.QueueItem{})
		return
	}
	c.JSON(http.StatusOK, manager.GetQueue())
}

func (h *Handler) getNowPlaying(c *gin.Context) {
	manager := h.registry.Get(c.Param("roomId"))
	if manager == nil {
		c.JSON(http.StatusOK, models.PlayingContext{})
		return
	}
	c.JSON(http.StatusOK, manager.GetPlayingContext())
}

func (h *Handler) getHistory(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, []models.PlayRecord{})
		return
	}
	records, err := h.db.RecentPlays(c.Param("roomId"), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}
