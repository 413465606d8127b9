package queue

import "github.com/social-jukebox/pkg/models"

// RemovePolicy decides whether a user may remove a queue item. The default
// permits everyone; deployments that want owner-only removal swap this out
// without touching the state machine.
type RemovePolicy func(user models.User, item *models.QueueItem) bool

func AllowAllRemovals(models.User, *models.QueueItem) bool { return true }

// SubmitterOnlyRemovals restricts removal to the user who queued the item.
func SubmitterOnlyRemovals(user models.User, item *models.QueueItem) bool {
	return user.ID == item.SubmittedBy.ID
}
