// Package bot implements the recommendation gateway: when a room's queue
// runs dry, the bot suggests a track seeded from what the room already
// played, attributed to an agent user so clients can label it.
package bot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/social-jukebox/pkg/models"
)

// Catalog is the slice of the catalog client the bot needs.
type Catalog interface {
	GetRecommendations(ctx context.Context, seedTrackIDs []string, limit int) ([]models.Track, error)
}

const (
	maxSeeds   = 5
	maxRetries = 3
)

type Bot struct {
	user       models.User
	catalog    Catalog
	retryDelay time.Duration
	log        zerolog.Logger
}

func New(catalog Catalog) *Bot {
	return &Bot{
		user: models.User{
			ID:          uuid.New(),
			DisplayName: "DJ Bot",
			IsAgent:     true,
		},
		catalog:    catalog,
		retryDelay: 2 * time.Second,
		log:        zlog.With().Str("component", "bot").Logger(),
	}
}

// User returns the agent identity that bot submissions are attributed to.
func (b *Bot) User() models.User { return b.user }

// Recommend produces zero or one track from the room's play history. With
// no history there is nothing to seed from and the bot stays quiet. Catalog
// errors are retried with a linear backoff; exhausting the retries returns
// the last error and the room simply stays idle.
func (b *Bot) Recommend(ctx context.Context, history []models.Track) (*models.Track, error) {
	seeds := seedIDs(history)
	if len(seeds) == 0 {
		return nil, nil
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * b.retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		tracks, err := b.catalog.GetRecommendations(ctx, seeds, 1)
		if err != nil {
			lastErr = err
			b.log.Warn().Err(err).Int("attempt", attempt+1).Msg("recommendation lookup failed")
			continue
		}
		if len(tracks) == 0 {
			return nil, nil
		}
		track := tracks[0]
		b.log.Info().Str("track", track.Name).Msg("recommending track")
		return &track, nil
	}
	return nil, lastErr
}

// seedIDs picks the most recent distinct track ids, newest last.
func seedIDs(history []models.Track) []string {
	seen := make(map[string]struct{})
	var seeds []string
	for i := len(history) - 1; i >= 0 && len(seeds) < maxSeeds; i-- {
		id := history[i].ID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		seeds = append(seeds, id)
	}
	// restore oldest-first order for the seed list
	for i, j := 0, len(seeds)-1; i < j; i, j = i+1, j-1 {
		seeds[i], seeds[j] = seeds[j], seeds[i]
	}
	return seeds
}
