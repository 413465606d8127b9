package queue

import (
	"sort"

	"github.com/social-jukebox/pkg/models"
)

// orderedSnapshot copies the queue and sorts it: vote count descending,
// earlier submissions winning ties. The input slice is kept in submission
// order, so a stable sort on votes alone yields the tie-break for free.
// The order is derived fresh on every call; it is never cached.
func orderedSnapshot(items []*models.QueueItem, ledger *VoteLedger) []models.QueueItem {
	out := make([]models.QueueItem, len(items))
	for i, item := range items {
		out[i] = *item
		out[i].Votes = ledger.Count(item.ID)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Votes > out[j].Votes
	})
	return out
}

// selectNext returns the index of the item that should play next, or -1 if
// the queue is empty. Same ordering as orderedSnapshot without the copy.
func selectNext(items []*models.QueueItem, ledger *VoteLedger) int {
	best := -1
	bestVotes := 0
	for i, item := range items {
		votes := ledger.Count(item.ID)
		if best == -1 || votes > bestVotes {
			best = i
			bestVotes = votes
		}
	}
	return best
}
