package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/social-jukebox/pkg/models"
)

// State is the playback phase of a room.
type State int

const (
	// StateIdle means nothing is playing and no advance has run yet.
	StateIdle State = iota
	// StatePlaying means a current track is set and its end timer is armed.
	StatePlaying
	// StateAwaitingFill means both queue and current are empty; the room is
	// waiting on the recommender or on a human submission.
	StateAwaitingFill
)

// ErrRemoveNotAllowed is returned when the room's remove policy rejects a
// removal request.
var ErrRemoveNotAllowed = errors.New("queue: user may not remove this item")

// Listener receives room lifecycle notifications. Implementations get
// detached snapshots and may not call back into the Manager.
type Listener interface {
	OnPlay(ctx models.PlayingContext)
	OnQueueChanged(queue []models.QueueItem)
	OnQueueEnded(queue []models.QueueItem)
}

// Recommender produces a fallback track from the room's play history, or
// nil when it has nothing to suggest.
type Recommender interface {
	Recommend(ctx context.Context, history []models.Track) (*models.Track, error)
}

const (
	// historyLimit bounds the in-memory play history; recommendation seeds
	// only need recent plays.
	historyLimit = 50

	fillTimeout = 30 * time.Second
)

// Config wires a Manager to its collaborators at construction time.
type Config struct {
	RoomID      string
	Listener    Listener
	Recommender Recommender
	// Agent is the user that fill submissions are attributed to.
	Agent models.User
	// CanRemove defaults to AllowAllRemovals when nil.
	CanRemove RemovePolicy
}

// Manager owns one room's queue, vote ledger, playback state and play
// history. All mutation is serialized under a single room lock; timer
// callbacks and asynchronous recommender results re-enter through the same
// lock, so operations within a room are linearized. Rooms never share
// mutable state.
type Manager struct {
	roomID      string
	listener    Listener
	recommender Recommender
	agent       models.User
	canRemove   RemovePolicy
	log         zerolog.Logger

	mu           sync.Mutex
	items        []*models.QueueItem // submission order
	ledger       *VoteLedger
	state        State
	current      *models.QueueItem
	startedAt    time.Time
	history      []models.Track
	timer        *time.Timer
	timerGen     uint64
	fillInFlight bool
}

func NewManager(cfg Config) *Manager {
	m := &Manager{
		roomID:      cfg.RoomID,
		listener:    cfg.Listener,
		recommender: cfg.Recommender,
		agent:       cfg.Agent,
		canRemove:   cfg.CanRemove,
		ledger:      NewVoteLedger(),
		state:       StateIdle,
		log:         zlog.With().Str("room", cfg.RoomID).Logger(),
	}
	if m.listener == nil {
		m.listener = nopListener{}
	}
	if m.canRemove == nil {
		m.canRemove = AllowAllRemovals
	}
	return m
}

func (m *Manager) RoomID() string { return m.roomID }

// AddItem appends a track to the queue and returns the created item. If
// nothing is currently playing, the add immediately triggers an advance, so
// the first track of an idle room starts without any further input. A late
// recommender result lands here too and is treated like any other add.
func (m *Manager) AddItem(user models.User, track models.Track) models.QueueItem {
	m.mu.Lock()
	item := &models.QueueItem{
		ID:          uuid.New(),
		Track:       track,
		SubmittedBy: user,
		SubmittedAt: time.Now(),
	}
	m.items = append(m.items, item)
	m.log.Info().Str("track", track.Name).Str("user", user.DisplayName).Msg("track queued")

	notify := []func(){m.queueChangedLocked()}
	if m.current == nil {
		notify = append(notify, m.advanceLocked()...)
	}
	snapshot := *item
	m.mu.Unlock()

	emit(notify)
	return snapshot
}

// VoteUp records an upvote and reports whether it changed anything. Votes
// on items no longer in the queue are stale references from concurrent
// plays or removals and are silently ignored.
func (m *Manager) VoteUp(userID, itemID uuid.UUID) bool {
	m.mu.Lock()
	if m.findLocked(itemID) == -1 {
		m.mu.Unlock()
		return false
	}
	changed := m.ledger.RecordUpVote(itemID, userID)
	var notify []func()
	if changed {
		notify = append(notify, m.queueChangedLocked())
	}
	m.mu.Unlock()

	emit(notify)
	return changed
}

// RemoveItem removes a queued item if the room's policy permits. Removing
// an id that is no longer queued is a no-op: the item may have just been
// played or removed by someone else. The currently playing item is not
// reachable from here; that is Skip's job.
func (m *Manager) RemoveItem(user models.User, itemID uuid.UUID) (bool, error) {
	m.mu.Lock()
	idx := m.findLocked(itemID)
	if idx == -1 {
		m.mu.Unlock()
		return false, nil
	}
	if !m.canRemove(user, m.items[idx]) {
		m.mu.Unlock()
		return false, ErrRemoveNotAllowed
	}
	m.items = append(m.items[:idx], m.items[idx+1:]...)
	m.ledger.Prune(itemID)
	m.log.Info().Str("item", itemID.String()).Str("user", user.DisplayName).Msg("track removed")
	notify := []func(){m.queueChangedLocked()}
	m.mu.Unlock()

	emit(notify)
	return true, nil
}

// Skip ends the current track early: the armed timer is cancelled, the
// track is recorded as played, and the next item (or the recommender) takes
// over. A no-op when nothing is playing.
func (m *Manager) Skip() {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return
	}
	m.cancelTimerLocked()
	m.finishCurrentLocked()
	notify := m.advanceLocked()
	m.mu.Unlock()

	emit(notify)
}

// GetQueue returns the queue ordered by votes descending with submission
// order breaking ties, recomputed on every call.
func (m *Manager) GetQueue() []models.QueueItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return orderedSnapshot(m.items, m.ledger)
}

// GetPlayingContext returns the current track, its submitter and elapsed
// position, or an empty context when the room is idle.
func (m *Manager) GetPlayingContext() models.PlayingContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playingContextLocked()
}

// History returns a copy of the recent play history, oldest first.
func (m *Manager) History() []models.Track {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Track, len(m.history))
	copy(out, m.history)
	return out
}

// CurrentState reports the playback phase, for diagnostics and tests.
func (m *Manager) CurrentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// advanceLocked is the single transition that both ends and starts
// playback. It selects the top-voted item, promotes it to current and arms
// the end timer; with an empty queue it parks the room in AWAITING_FILL and
// asks the recommender for a track. Callers hold the lock and run the
// returned notifications after releasing it.
func (m *Manager) advanceLocked() []func() {
	idx := selectNext(m.items, m.ledger)
	if idx == -1 {
		m.current = nil
		m.state = StateAwaitingFill
		empty := orderedSnapshot(m.items, m.ledger)
		notify := []func(){func() { m.listener.OnQueueEnded(empty) }}
		if m.recommender != nil && !m.fillInFlight {
			m.fillInFlight = true
			history := make([]models.Track, len(m.history))
			copy(history, m.history)
			go m.requestFill(history)
		}
		return notify
	}

	item := m.items[idx]
	m.items = append(m.items[:idx], m.items[idx+1:]...)
	m.ledger.Prune(item.ID)
	m.current = item
	m.startedAt = time.Now()
	m.state = StatePlaying
	m.armTimerLocked(item.Track.Duration())
	m.log.Info().Str("track", item.Track.Name).Msg("now playing")

	playing := m.playingContextLocked()
	queue := orderedSnapshot(m.items, m.ledger)
	return []func(){
		func() { m.listener.OnPlay(playing) },
		func() { m.listener.OnQueueChanged(queue) },
	}
}

// armTimerLocked schedules the natural end of the current track. The
// generation counter makes a fired-but-not-yet-run timer harmless after a
// skip: at most one armed timer is live per room.
func (m *Manager) armTimerLocked(d time.Duration) {
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timerGen++
	gen := m.timerGen
	m.timer = time.AfterFunc(d, func() { m.trackEnded(gen) })
}

func (m *Manager) cancelTimerLocked() {
	m.timerGen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// trackEnded runs when the end timer fires. A stale generation means the
// track was already skipped and its replacement owns the timer now.
func (m *Manager) trackEnded(gen uint64) {
	m.mu.Lock()
	if gen != m.timerGen || m.current == nil {
		m.mu.Unlock()
		return
	}
	m.finishCurrentLocked()
	notify := m.advanceLocked()
	m.mu.Unlock()

	emit(notify)
}

// finishCurrentLocked appends the current track to the play history and
// clears it. The history window is capped; the archive keeps the rest.
func (m *Manager) finishCurrentLocked() {
	m.history = append(m.history, m.current.Track)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}
	m.current = nil
}

// requestFill asks the recommender for a track, off the room lock. The
// result re-enters through AddItem like any human submission, even if a
// human beat it to the queue; the queue is append-only so a late
// recommendation is just one more item. Failure or an empty result leaves
// the room in AWAITING_FILL until someone queues a track.
func (m *Manager) requestFill(history []models.Track) {
	defer func() {
		m.mu.Lock()
		m.fillInFlight = false
		m.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), fillTimeout)
	defer cancel()

	track, err := m.recommender.Recommend(ctx, history)
	if err != nil {
		m.log.Warn().Err(err).Msg("recommender failed, room stays idle")
		return
	}
	if track == nil {
		m.log.Info().Msg("recommender had no suggestion, room stays idle")
		return
	}
	m.AddItem(m.agent, *track)
}

func (m *Manager) queueChangedLocked() func() {
	queue := orderedSnapshot(m.items, m.ledger)
	return func() { m.listener.OnQueueChanged(queue) }
}

func (m *Manager) playingContextLocked() models.PlayingContext {
	if m.current == nil {
		return models.PlayingContext{}
	}
	track := m.current.Track
	user := m.current.SubmittedBy
	return models.PlayingContext{
		Track:      &track,
		User:       &user,
		StartedAt:  m.startedAt,
		PositionMs: time.Since(m.startedAt).Milliseconds(),
		IsPlaying:  true,
	}
}

func (m *Manager) findLocked(itemID uuid.UUID) int {
	for i, item := range m.items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func emit(notify []func()) {
	for _, fn := range notify {
		fn()
	}
}

// MultiListener fans notifications out to several listeners in order.
type MultiListener []Listener

func (ml MultiListener) OnPlay(ctx models.PlayingContext) {
	for _, l := range ml {
		l.OnPlay(ctx)
	}
}

func (ml MultiListener) OnQueueChanged(queue []models.QueueItem) {
	for _, l := range ml {
		l.OnQueueChanged(queue)
	}
}

func (ml MultiListener) OnQueueEnded(queue []models.QueueItem) {
	for _, l := range ml {
		l.OnQueueEnded(queue)
	}
}

type nopListener struct{}

func (nopListener) OnPlay(models.PlayingContext)      {}
func (nopListener) OnQueueChanged([]models.QueueItem) {}
func (nopListener) OnQueueEnded([]models.QueueItem)   {}
