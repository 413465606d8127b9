package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/social-jukebox/pkg/models"
	redisstore "github.com/social-jukebox/pkg/redis"
)

const (
	tokenURL = "https://accounts.spotify.com/api/token"
	apiURL   = "https://api.spotify.com/v1"

	// renewLead is how long before expiry the token self-renews.
	renewLead = 10 * time.Minute
)

// Client talks to the catalog with an app-level client-credentials token.
// The token is process-wide: all rooms read it concurrently, refresh is a
// singleton in-flight operation, and a renewal is scheduled ahead of every
// expiry. When a TokenStore is configured the token is also mirrored to
// Redis so a fresh process can pick up a still-valid one.
type Client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
	store        *redisstore.TokenStore

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	pending   *tokenCall
	renewal   *time.Timer
}

type tokenCall struct {
	done  chan struct{}
	token string
	err   error
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewClient builds a catalog client. store may be nil; the token then lives
// only in process memory.
func NewClient(clientID, clientSecret string, store *redisstore.TokenStore) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		store:        store,
	}
}

// Token returns a valid access token, refreshing if needed. Concurrent
// callers during a refresh wait on the same in-flight request rather than
// issuing duplicates.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.token != "" && time.Now().Before(c.expiresAt) {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	if c.pending != nil {
		call := c.pending
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &tokenCall{done: make(chan struct{})}
	c.pending = call
	c.mu.Unlock()

	token, expiresAt, err := c.refreshToken(ctx)

	c.mu.Lock()
	c.pending = nil
	if err == nil {
		c.token = token
		c.expiresAt = expiresAt
		c.scheduleRenewalLocked()
	}
	c.mu.Unlock()

	call.token = token
	call.err = err
	close(call.done)
	return token, err
}

// Invalidate drops the cached token so the next call refreshes. Called when
// the catalog rejects the token before its advertised expiry.
func (c *Client) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.token = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.Delete(ctx); err != nil {
			zlog.Warn().Err(err).Msg("failed to drop cached catalog token")
		}
	}
}

// refreshToken tries the Redis mirror first, then the token endpoint.
func (c *Client) refreshToken(ctx context.Context) (string, time.Time, error) {
	if c.store != nil {
		if cached, err := c.store.Get(ctx); err == nil && time.Now().Add(renewLead / 2).Before(cached.ExpiresAt) {
			return cached.AccessToken, cached.ExpiresAt, nil
		}
	}

	token, expiresAt, err := c.fetchNewToken(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	if c.store != nil {
		info := &redisstore.TokenInfo{AccessToken: token, ExpiresAt: expiresAt}
		if err := c.store.Store(ctx, info); err != nil {
			zlog.Warn().Err(err).Msg("failed to cache catalog token")
		}
	}
	return token, expiresAt, nil
}

func (c *Client) fetchNewToken(ctx context.Context) (string, time.Time, error) {
	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Add("Authorization", "Basic "+auth)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("spotify: token request failed with status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	zlog.Info().Time("expires_at", expiresAt).Msg("fetched new catalog token")
	return token.AccessToken, expiresAt, nil
}

// scheduleRenewalLocked arms a refresh ahead of expiry so requests rarely
// pay the refresh latency.
func (c *Client) scheduleRenewalLocked() {
	if c.renewal != nil {
		c.renewal.Stop()
	}
	lead := time.Until(c.expiresAt) - renewLead
	if lead <= 0 {
		lead = time.Until(c.expiresAt) / 2
	}
	c.renewal = time.AfterFunc(lead, func() {
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if _, err := c.Token(ctx); err != nil {
			zlog.Error().Err(err).Msg("scheduled catalog token renewal failed")
		}
	})
}

type trackResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []models.Artist `json:"artists"`
	DurationMs int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

func (tr trackResponse) toModel() models.Track {
	return models.Track{
		ID:         tr.ID,
		Name:       tr.Name,
		Artists:    tr.Artists,
		DurationMs: tr.DurationMs,
		URI:        tr.URI,
	}
}

// GetTrack resolves a catalog id to track metadata.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*models.Track, error) {
	var tr trackResponse
	if err := c.getJSON(ctx, "/tracks/"+url.PathEscape(trackID), &tr); err != nil {
		return nil, err
	}
	track := tr.toModel()
	return &track, nil
}

type recommendationsResponse struct {
	Tracks []trackResponse `json:"tracks"`
}

// GetRecommendations returns up to limit tracks seeded by previously played
// track ids (at most five seeds are sent).
func (c *Client) GetRecommendations(ctx context.Context, seedTrackIDs []string, limit int) ([]models.Track, error) {
	if len(seedTrackIDs) > 5 {
		seedTrackIDs = seedTrackIDs[len(seedTrackIDs)-5:]
	}
	params := url.Values{}
	params.Add("seed_tracks", strings.Join(seedTrackIDs, ","))
	params.Add("limit", fmt.Sprintf("%d", limit))

	var rec recommendationsResponse
	if err := c.getJSON(ctx, "/recommendations?"+params.Encode(), &rec); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(rec.Tracks))
	for _, tr := range rec.Tracks {
		tracks = append(tracks, tr.toModel())
	}
	return tracks, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	token, err := c.Token(ctx)
	if err != nil {
		return fmt.Errorf("spotify: no access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Add("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.Invalidate(ctx)
		return fmt.Errorf("spotify: request %s rejected with status %d", path, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("spotify: request %s failed with status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
