package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/social-jukebox/internal/queue"
	"github.com/social-jukebox/internal/spotify"
	"github.com/social-jukebox/pkg/events"
	"github.com/social-jukebox/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // In production, implement proper origin checking
	},
}

// Inbound message envelope. Event names match the original client protocol.
type inboundMessage struct {
	Type        string `json:"type"`
	RoomID      string `json:"room_id,omitempty"`
	Track       string `json:"track,omitempty"`
	ItemID      string `json:"item_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Hub owns the websocket side of a deployment: connection bookkeeping, the
// global participant list, routing of room-scoped events into queue
// managers, and broadcasting of manager notifications back out.
type Hub struct {
	registry  *queue.Registry
	catalog   *spotify.Client
	publisher *events.Publisher

	mu           sync.RWMutex
	rooms        map[string]map[*client]struct{}
	participants []*client
}

type client struct {
	conn *websocket.Conn
	user models.User

	writeMu sync.Mutex
	roomID  string
}

func NewHub(catalog *spotify.Client, publisher *events.Publisher) *Hub {
	return &Hub{
		catalog:   catalog,
		publisher: publisher,
		rooms:     make(map[string]map[*client]struct{}),
	}
}

// SetRegistry closes the construction cycle: the registry's manager factory
// needs the hub for listeners, and the hub needs the registry for routing.
func (h *Hub) SetRegistry(registry *queue.Registry) {
	h.registry = registry
}

// HandleWebSocket upgrades an authenticated request and runs its read loop.
// The user identity was resolved by the auth middleware.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zlog.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		conn.Close()
		return
	}
	cl := &client{
		conn: conn,
		user: models.User{ID: userID, DisplayName: c.GetString("display_name")},
	}

	h.addParticipant(cl)
	defer h.disconnect(cl)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zlog.Warn().Err(err).Msg("websocket error")
			}
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			zlog.Warn().Err(err).Msg("failed to parse message")
			continue
		}
		h.handleMessage(cl, msg)
	}
}

func (h *Hub) handleMessage(cl *client, msg inboundMessage) {
	switch msg.Type {
	case "user login":
		h.handleLogin(cl, msg.DisplayName)
	case "joinRoom":
		h.handleJoin(cl, msg.RoomID)
	case "queue track":
		h.handleQueueTrack(cl, msg.Track)
	case "vote up":
		h.handleVoteUp(cl, msg.ItemID)
	case "remove track":
		h.handleRemoveTrack(cl, msg.ItemID)
	default:
		zlog.Debug().Str("type", msg.Type).Msg("ignoring unknown message type")
	}
}

// handleLogin refreshes the client's profile. The client is already on the
// participant list from connection time; this just renames it and pushes
// the updated list to everyone.
func (h *Hub) handleLogin(cl *client, displayName string) {
	if displayName == "" {
		return
	}
	h.mu.Lock()
	cl.user.DisplayName = displayName
	users := h.participantsLocked()
	h.mu.Unlock()

	h.broadcastAll(gin.H{"type": "update users", "users": users})
}

// handleJoin registers the client in the room, lazily creating its manager,
// and replays the current playback context so late joiners sync mid-track.
func (h *Hub) handleJoin(cl *client, roomID string) {
	if roomID == "" {
		return
	}

	h.mu.Lock()
	if cl.roomID != "" {
		delete(h.rooms[cl.roomID], cl)
	}
	cl.roomID = roomID
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*client]struct{})
	}
	h.rooms[roomID][cl] = struct{}{}
	h.mu.Unlock()

	manager := h.registry.GetOrCreate(roomID)
	cl.send(gin.H{"type": "joinedRoomSuccess", "room_id": roomID})

	if playing := manager.GetPlayingContext(); playing.Track != nil {
		cl.send(gin.H{
			"type":        "play track",
			"track":       playing.Track,
			"user":        playing.User,
			"position_ms": playing.PositionMs,
		})
	}
}

// handleQueueTrack resolves the reference off the hub's goroutines so a
// slow catalog lookup never blocks this client's other events or other
// rooms. A resolution failure goes back to the submitter only.
func (h *Hub) handleQueueTrack(cl *client, trackRef string) {
	roomID := cl.roomID
	if roomID == "" || trackRef == "" {
		return
	}
	trackID := spotify.ParseTrackRef(trackRef)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		track, err := h.catalog.GetTrack(ctx, trackID)
		if err != nil {
			zlog.Warn().Err(err).Str("track", trackID).Msg("track resolution failed")
			cl.send(gin.H{"type": "error", "message": "could not resolve track"})
			return
		}

		manager := h.registry.GetOrCreate(roomID)
		item := manager.AddItem(cl.user, *track)

		if err := h.publisher.Publish(ctx, events.EventTypeTrackQueued, roomID, events.TrackQueuedPayload{
			ItemID:    item.ID.String(),
			TrackID:   track.ID,
			TrackName: track.Name,
			Artist:    track.ArtistNames(),
			UserID:    cl.user.ID.String(),
		}); err != nil {
			zlog.Warn().Err(err).Msg("failed to mirror queue event")
		}
	}()
}

func (h *Hub) handleVoteUp(cl *client, itemID string) {
	manager := h.roomManager(cl)
	if manager == nil {
		return
	}
	id, err := uuid.Parse(itemID)
	if err != nil {
		return
	}
	// Stale votes on already-played items are silently dropped inside the
	// manager.
	if !manager.VoteUp(cl.user.ID, id) {
		return
	}
	if err := h.publisher.Publish(context.Background(), events.EventTypeVoteRecorded, cl.roomID, events.VoteRecordedPayload{
		ItemID: itemID,
		UserID: cl.user.ID.String(),
	}); err != nil {
		zlog.Warn().Err(err).Msg("failed to mirror vote event")
	}
}

func (h *Hub) handleRemoveTrack(cl *client, itemID string) {
	manager := h.roomManager(cl)
	if manager == nil {
		return
	}
	id, err := uuid.Parse(itemID)
	if err != nil {
		return
	}
	if _, err := manager.RemoveItem(cl.user, id); err != nil {
		cl.send(gin.H{"type": "error", "message": "not allowed to remove this track"})
	}
}

func (h *Hub) roomManager(cl *client) *queue.Manager {
	if cl.roomID == "" {
		return nil
	}
	return h.registry.Get(cl.roomID)
}

func (h *Hub) addParticipant(cl *client) {
	h.mu.Lock()
	h.participants = append(h.participants, cl)
	users := h.participantsLocked()
	h.mu.Unlock()

	h.broadcastAll(gin.H{"type": "update users", "users": users})
	if err := h.publisher.Publish(context.Background(), events.EventTypeUserJoined, "", events.UserPayload{
		UserID:      cl.user.ID.String(),
		DisplayName: cl.user.DisplayName,
	}); err != nil {
		zlog.Warn().Err(err).Msg("failed to mirror user join")
	}
}

func (h *Hub) disconnect(cl *client) {
	h.mu.Lock()
	if cl.roomID != "" {
		delete(h.rooms[cl.roomID], cl)
		if len(h.rooms[cl.roomID]) == 0 {
			delete(h.rooms, cl.roomID)
		}
	}
	for i, p := range h.participants {
		if p == cl {
			h.participants = append(h.participants[:i], h.participants[i+1:]...)
			break
		}
	}
	users := h.participantsLocked()
	h.mu.Unlock()

	cl.conn.Close()
	h.broadcastAll(gin.H{"type": "update users", "users": users})
	if err := h.publisher.Publish(context.Background(), events.EventTypeUserLeft, "", events.UserPayload{
		UserID: cl.user.ID.String(),
	}); err != nil {
		zlog.Warn().Err(err).Msg("failed to mirror user leave")
	}
}

// Participants returns the global participant list in login order.
func (h *Hub) Participants() []models.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.participantsLocked()
}

func (h *Hub) participantsLocked() []models.User {
	users := make([]models.User, 0, len(h.participants))
	for _, p := range h.participants {
		users = append(users, p.user)
	}
	return users
}

func (h *Hub) broadcastAll(message interface{}) {
	h.mu.RLock()
	clients := make([]*client, len(h.participants))
	copy(clients, h.participants)
	h.mu.RUnlock()

	for _, cl := range clients {
		cl.send(message)
	}
}

func (h *Hub) broadcastRoom(roomID string, message interface{}) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[roomID]))
	for cl := range h.rooms[roomID] {
		clients = append(clients, cl)
	}
	h.mu.RUnlock()

	for _, cl := range clients {
		cl.send(message)
	}
}

func (cl *client) send(message interface{}) {
	messageJSON, err := json.Marshal(message)
	if err != nil {
		zlog.Warn().Err(err).Msg("failed to marshal message")
		return
	}
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	if err := cl.conn.WriteMessage(websocket.TextMessage, messageJSON); err != nil {
		zlog.Warn().Err(err).Msg("failed to send message")
	}
}

// RoomListener adapts manager notifications for one room into broadcasts
// and Kafka mirror events.
func (h *Hub) RoomListener(roomID string) queue.Listener {
	return &roomListener{hub: h, roomID: roomID}
}

type roomListener struct {
	hub    *Hub
	roomID string
}

func (l *roomListener) OnPlay(playing models.PlayingContext) {
	l.hub.broadcastRoom(l.roomID, gin.H{
		"type":        "play track",
		"track":       playing.Track,
		"user":        playing.User,
		"position_ms": playing.PositionMs,
	})
	if playing.Track == nil {
		return
	}
	if err := l.hub.publisher.Publish(context.Background(), events.EventTypeTrackStarted, l.roomID, events.TrackStartedPayload{
		TrackID:   playing.Track.ID,
		TrackName: playing.Track.Name,
		Artist:    playing.Track.ArtistNames(),
	}); err != nil {
		zlog.Warn().Err(err).Msg("failed to mirror play event")
	}
}

func (l *roomListener) OnQueueChanged(items []models.QueueItem) {
	l.hub.broadcastRoom(l.roomID, gin.H{"type": "update queue", "queue": items})
}

func (l *roomListener) OnQueueEnded(items []models.QueueItem) {
	l.hub.broadcastRoom(l.roomID, gin.H{"type": "queue ended", "queue": items})
	l.hub.broadcastRoom(l.roomID, gin.H{"type": "update queue", "queue": items})
	if err := l.hub.publisher.Publish(context.Background(), events.EventTypeQueueEnded, l.roomID, nil); err != nil {
		zlog.Warn().Err(err).Msg("failed to mirror queue-ended event")
	}
}
