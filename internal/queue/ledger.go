package queue

import "github.com/google/uuid"

// VoteLedger tracks which users upvoted which queue items. It is not safe
// for concurrent use on its own; the owning Manager serializes access under
// the room lock.
type VoteLedger struct {
	voters map[uuid.UUID]map[uuid.UUID]struct{}
}

func NewVoteLedger() *VoteLedger {
	return &VoteLedger{voters: make(map[uuid.UUID]map[uuid.UUID]struct{})}
}

// RecordUpVote adds userID to the item's voter set and reports whether the
// vote changed anything. A repeat vote from the same user is a no-op.
func (l *VoteLedger) RecordUpVote(itemID, userID uuid.UUID) bool {
	set, ok := l.voters[itemID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		l.voters[itemID] = set
	}
	if _, voted := set[userID]; voted {
		return false
	}
	set[userID] = struct{}{}
	return true
}

// Count returns the number of votes recorded for the item.
func (l *VoteLedger) Count(itemID uuid.UUID) int {
	return len(l.voters[itemID])
}

// Prune drops the item's entry. Called whenever an item leaves the queue,
// whether it was played or removed.
func (l *VoteLedger) Prune(itemID uuid.UUID) {
	delete(l.voters, itemID)
}
