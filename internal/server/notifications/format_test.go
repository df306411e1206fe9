package notifications

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		n    models.Notification
		want string
	}{
		{
			name: "pending follow request",
			n:    models.Notification{Sender: "alice", Type: models.NotificationFollowRequest, Status: models.StatusPending, Content: "wants to follow you.", CreatedAt: ts},
			want: "[2024-01-02 03:04:05] You have a follow request from alice: wants to follow you.",
		},
		{
			name: "resolved follow request",
			n:    models.Notification{Sender: "alice", Type: models.NotificationFollowRequest, Status: models.StatusAccepted, CreatedAt: ts},
			want: "[2024-01-02 03:04:05] Follow request from alice was accepted",
		},
		{
			name: "pending photo request",
			n:    models.Notification{Sender: "bob", Type: models.NotificationPhotoRequest, Status: models.StatusPending, Subject: "cat.jpg", Content: "bob wants to download cat.jpg.", CreatedAt: ts},
			want: "[2024-01-02 03:04:05] You have a photo request from bob: bob wants to download cat.jpg.",
		},
		{
			name: "resolved photo request",
			n:    models.Notification{Sender: "bob", Type: models.NotificationPhotoRequest, Status: models.StatusRejected, Subject: "cat.jpg", CreatedAt: ts},
			want: "[2024-01-02 03:04:05] Photo request from bob for cat.jpg was rejected",
		},
		{
			name: "post",
			n:    models.Notification{Sender: "alice", Type: models.NotificationPost, Content: "alice posted: [2024-01-02 03:04:00] alice posted cat.jpg", CreatedAt: ts},
			want: "[2024-01-02 03:04:05] alice posted: [2024-01-02 03:04:00] alice posted cat.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.n))
		})
	}
}
