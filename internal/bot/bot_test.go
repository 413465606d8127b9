package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-jukebox/pkg/models"
)

type fakeCatalog struct {
	calls     int
	failUntil int
	tracks    []models.Track
	seeds     []string
}

func (f *fakeCatalog) GetRecommendations(_ context.Context, seedTrackIDs []string, _ int) ([]models.Track, error) {
	f.calls++
	f.seeds = seedTrackIDs
	if f.calls <= f.failUntil {
		return nil, errors.New("catalog unavailable")
	}
	return f.tracks, nil
}

func history(ids ...string) []models.Track {
	tracks := make([]models.Track, len(ids))
	for i, id := range ids {
		tracks[i] = models.Track{ID: id, Name: id}
	}
	return tracks
}

func TestBotUserIsAgent(t *testing.T) {
	b := New(&fakeCatalog{})
	assert.True(t, b.User().IsAgent)
	assert.NotEmpty(t, b.User().DisplayName)
}

func TestRecommendReturnsTrack(t *testing.T) {
	catalog := &fakeCatalog{tracks: []models.Track{{ID: "rec1", Name: "rec1"}}}
	b := New(catalog)

	track, err := b.Recommend(context.Background(), history("h1", "h2"))
	require.NoError(t, err)
	require.NotNil(t, track)
	assert.Equal(t, "rec1", track.ID)
	assert.Equal(t, []string{"h1", "h2"}, catalog.seeds)
}

func TestRecommendWithoutHistoryStaysQuiet(t *testing.T) {
	catalog := &fakeCatalog{tracks: []models.Track{{ID: "rec1"}}}
	b := New(catalog)

	track, err := b.Recommend(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, track)
	assert.Zero(t, catalog.calls, "no seeds means no catalog call")
}

func TestRecommendEmptyResult(t *testing.T) {
	b := New(&fakeCatalog{})

	track, err := b.Recommend(context.Background(), history("h1"))
	require.NoError(t, err)
	assert.Nil(t, track)
}

func TestRecommendRetriesThenSucceeds(t *testing.T) {
	catalog := &fakeCatalog{failUntil: 2, tracks: []models.Track{{ID: "rec1"}}}
	b := New(catalog)
	b.retryDelay = time.Millisecond

	track, err := b.Recommend(context.Background(), history("h1"))
	require.NoError(t, err)
	require.NotNil(t, track)
	assert.Equal(t, 3, catalog.calls)
}

func TestRecommendExhaustsRetries(t *testing.T) {
	catalog := &fakeCatalog{failUntil: 10}
	b := New(catalog)
	b.retryDelay = time.Millisecond

	track, err := b.Recommend(context.Background(), history("h1"))
	require.Error(t, err)
	assert.Nil(t, track)
	assert.Equal(t, maxRetries, catalog.calls)
}

func TestSeedsUseMostRecentDistinctTracks(t *testing.T) {
	catalog := &fakeCatalog{tracks: []models.Track{{ID: "rec1"}}}
	b := New(catalog)

	_, err := b.Recommend(context.Background(), history("h1", "h2", "h3", "h2", "h4", "h5", "h6", "h7"))
	require.NoError(t, err)
	assert.Equal(t, []string{"h2", "h4", "h5", "h6", "h7"}, catalog.seeds)
}
