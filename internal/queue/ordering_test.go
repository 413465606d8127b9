package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/social-jukebox/pkg/models"
)

func makeItems(names ...string) []*models.QueueItem {
	items := make([]*models.QueueItem, len(names))
	base := time.Now()
	for i, name := range names {
		items[i] = &models.QueueItem{
			ID:          uuid.New(),
			Track:       models.Track{ID: name, Name: name},
			SubmittedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	return items
}

func trackOrder(snapshot []models.QueueItem) []string {
	order := make([]string, len(snapshot))
	for i, item := range snapshot {
		order[i] = item.Track.Name
	}
	return order
}

func TestOrderingVotesDescending(t *testing.T) {
	items := makeItems("t1", "t2", "t3")
	ledger := NewVoteLedger()
	ledger.RecordUpVote(items[2].ID, uuid.New())
	ledger.RecordUpVote(items[2].ID, uuid.New())
	ledger.RecordUpVote(items[1].ID, uuid.New())

	snapshot := orderedSnapshot(items, ledger)
	assert.Equal(t, []string{"t3", "t2", "t1"}, trackOrder(snapshot))
	assert.Equal(t, 2, snapshot[0].Votes)
	assert.Equal(t, 1, snapshot[1].Votes)
	assert.Equal(t, 0, snapshot[2].Votes)
}

func TestOrderingSubmissionOrderBreaksTies(t *testing.T) {
	items := makeItems("t1", "t2", "t3")
	ledger := NewVoteLedger()

	snapshot := orderedSnapshot(items, ledger)
	assert.Equal(t, []string{"t1", "t2", "t3"}, trackOrder(snapshot))
}

func TestOrderingRecomputedPerRead(t *testing.T) {
	items := makeItems("t1", "t2")
	ledger := NewVoteLedger()

	first := orderedSnapshot(items, ledger)
	require.Equal(t, []string{"t1", "t2"}, trackOrder(first))

	// a vote after the first read must reorder the next read
	ledger.RecordUpVote(items[1].ID, uuid.New())
	second := orderedSnapshot(items, ledger)
	assert.Equal(t, []string{"t2", "t1"}, trackOrder(second))
}

func TestSelectNextMatchesSnapshotHead(t *testing.T) {
	items := makeItems("t1", "t2", "t3")
	ledger := NewVoteLedger()
	ledger.RecordUpVote(items[1].ID, uuid.New())

	idx := selectNext(items, ledger)
	require.NotEqual(t, -1, idx)
	assert.Equal(t, "t2", items[idx].Track.Name)

	assert.Equal(t, -1, selectNext(nil, ledger))
}
