package models

import "time"

type NotificationType string

const (
	NotificationFollowRequest   NotificationType = "follow_request"
	NotificationPhotoRequest    NotificationType = "photo_request"
	NotificationCommentRequest  NotificationType = "comment_request"
	NotificationCommentResponse NotificationType = "comment_response"
	NotificationPhotoResponse   NotificationType = "photo_response"
	NotificationPost            NotificationType = "post"
	NotificationSystem          NotificationType = "system"
)

// IsRequest reports whether notifications of this type carry a resolvable
// workflow status.
func (t NotificationType) IsRequest() bool {
	return t == NotificationFollowRequest || t == NotificationPhotoRequest
}

type Status string

const (
	StatusNone     Status = "none"
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Notification is a mailbox entry. Sender, Receiver, Type, Subject, Content
// and CreatedAt never change after creation; Read and Status are mutated only
// by the notification store.
type Notification struct {
	ID        int64
	Sender    string
	Receiver  string
	Type      NotificationType
	Subject   string // file name for photo requests/responses
	Content   string
	CreatedAt time.Time
	Read      bool
	Status    Status
}

// IsPendingRequest reports whether n is an unresolved follow or photo request.
func (n Notification) IsPendingRequest() bool {
	return n.Type.IsRequest() && n.Status == StatusPending
}
