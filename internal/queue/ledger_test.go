package queue

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLedgerRecordUpVote(t *testing.T) {
	ledger := NewVoteLedger()
	item := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	assert.True(t, ledger.RecordUpVote(item, alice))
	assert.Equal(t, 1, ledger.Count(item))

	// repeat vote from the same user changes nothing
	assert.False(t, ledger.RecordUpVote(item, alice))
	assert.Equal(t, 1, ledger.Count(item))

	assert.True(t, ledger.RecordUpVote(item, bob))
	assert.Equal(t, 2, ledger.Count(item))
}

func TestLedgerCountUnknownItem(t *testing.T) {
	ledger := NewVoteLedger()
	assert.Equal(t, 0, ledger.Count(uuid.New()))
}

func TestLedgerPrune(t *testing.T) {
	ledger := NewVoteLedger()
	item := uuid.New()
	user := uuid.New()

	ledger.RecordUpVote(item, user)
	ledger.Prune(item)

	assert.Equal(t, 0, ledger.Count(item))
	// pruned entry does not remember old voters
	assert.True(t, ledger.RecordUpVote(item, user))
}
