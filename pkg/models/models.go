package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	IsAgent     bool      `json:"is_agent"`
}

type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is the catalog's view of a song. Immutable once resolved.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	DurationMs int      `json:"duration_ms"`
	URI        string   `json:"uri"`
}

func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationMs) * time.Millisecond
}

// ArtistNames joins the artist names for display and archiving.
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// QueueItem is a submitted-but-not-yet-played track. Votes is a snapshot
// count filled in when the queue is read; the authoritative voter sets live
// in the room's vote ledger.
type QueueItem struct {
	ID          uuid.UUID `json:"id"`
	Track       Track     `json:"track"`
	SubmittedBy User      `json:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at"`
	Votes       int       `json:"votes"`
}

// PlayingContext is the read-only projection of a room's playback state.
// Track is nil when the room is idle.
type PlayingContext struct {
	Track      *Track    `json:"track,omitempty"`
	User       *User     `json:"user,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	PositionMs int64     `json:"position_ms"`
	IsPlaying  bool      `json:"is_playing"`
}

// PlayRecord is the archived form of a finished track.
type PlayRecord struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey"`
	RoomID      string    `json:"room_id" gorm:"index"`
	TrackID     string    `json:"track_id"`
	TrackName   string    `json:"track_name"`
	Artist      string    `json:"artist"`
	DurationMs  int       `json:"duration_ms"`
	SubmittedBy string    `json:"submitted_by"`
	PlayedAt    time.Time `json:"played_at"`
}
