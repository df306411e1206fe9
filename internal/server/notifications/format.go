package notifications

import (
	"fmt"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

// Format renders n as the single line sent by get_notifications.
func Format(n models.Notification) string {
	ts := n.CreatedAt.Format(common.TimestampLayout)

	switch {
	case n.Type == models.NotificationFollowRequest && n.Status == models.StatusPending:
		return fmt.Sprintf("[%s] You have a follow request from %s: %s", ts, n.Sender, n.Content)
	case n.Type == models.NotificationFollowRequest:
		return fmt.Sprintf("[%s] Follow request from %s was %s", ts, n.Sender, n.Status)
	case n.Type == models.NotificationPhotoRequest && n.Status == models.StatusPending:
		return fmt.Sprintf("[%s] You have a photo request from %s: %s", ts, n.Sender, n.Content)
	case n.Type == models.NotificationPhotoRequest:
		return fmt.Sprintf("[%s] Photo request from %s for %s was %s", ts, n.Sender, n.Subject, n.Status)
	default:
		return fmt.Sprintf("[%s] %s", ts, n.Content)
	}
}
