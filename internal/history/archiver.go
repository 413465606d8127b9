// Package history archives plays to MySQL off the room listener chain.
package history

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/social-jukebox/pkg/database"
	"github.com/social-jukebox/pkg/models"
)

type Archiver struct {
	db  *database.MySQLDB
	log zerolog.Logger
}

func NewArchiver(db *database.MySQLDB) *Archiver {
	return &Archiver{
		db:  db,
		log: zlog.With().Str("component", "history").Logger(),
	}
}

// ForRoom returns a queue.Listener that records every play start for the
// room. Writes happen on their own goroutine so a slow database never
// stalls the room's state machine.
func (a *Archiver) ForRoom(roomID string) *RoomArchiver {
	return &RoomArchiver{archiver: a, roomID: roomID}
}

type RoomArchiver struct {
	archiver *Archiver
	roomID   string
}

func (r *RoomArchiver) OnPlay(ctx models.PlayingContext) {
	if ctx.Track == nil {
		return
	}
	record := &models.PlayRecord{
		ID:         uuid.New(),
		RoomID:     r.roomID,
		TrackID:    ctx.Track.ID,
		TrackName:  ctx.Track.Name,
		Artist:     ctx.Track.ArtistNames(),
		DurationMs: ctx.Track.DurationMs,
		PlayedAt:   time.Now(),
	}
	if ctx.User != nil {
		record.SubmittedBy = ctx.User.ID.String()
	}
	go func() {
		if err := r.archiver.db.RecordPlay(record); err != nil {
			r.archiver.log.Warn().Err(err).Str("room", r.roomID).Msg("failed to archive play")
		}
	}()
}

func (r *RoomArchiver) OnQueueChanged([]models.QueueItem) {}

func (r *RoomArchiver) OnQueueEnded([]models.QueueItem) {}
