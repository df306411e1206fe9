// Package notifications implements the per-recipient mailbox.
//
// Entries are appended per recipient and start unread. Request entries
// (follow_request, photo_request) additionally carry a workflow status that
// moves once from pending to accepted or rejected and never back. All state
// is guarded by a single mutex; callers only ever receive copies.
package notifications

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

// Query selects request notifications. Subject is compared only when set.
type Query struct {
	Sender   string
	Receiver string
	Type     models.NotificationType
	Subject  string
}

func (q Query) matches(n *models.Notification) bool {
	return n.Sender == q.Sender &&
		n.Receiver == q.Receiver &&
		n.Type == q.Type &&
		(q.Subject == "" || n.Subject == q.Subject)
}

type Store struct {
	mu    sync.Mutex
	seq   int64
	boxes map[string][]*models.Notification
	now   func() time.Time
}

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		boxes: make(map[string][]*models.Notification),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add appends n to its receiver's mailbox and returns the stored copy.
// Request types start pending, everything else starts with StatusNone.
func (s *Store) Add(n models.Notification) models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addLocked(n)
}

// AddRequest appends a request notification unless a pending one matching
// q already exists, in which case common.ErrorAlreadyExists is returned.
// The check and the insert happen under one lock.
func (s *Store) AddRequest(n models.Notification) (models.Notification, error) {
	if !n.Type.IsRequest() {
		return models.Notification{}, fmt.Errorf("%w: %s is not a request type", common.ErrorValidation, n.Type)
	}
	q := Query{Sender: n.Sender, Receiver: n.Receiver, Type: n.Type, Subject: n.Subject}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findPendingLocked(q) != nil {
		return models.Notification{}, fmt.Errorf("pending %s from %s: %w", n.Type, n.Sender, common.ErrorAlreadyExists)
	}
	return s.addLocked(n), nil
}

func (s *Store) addLocked(n models.Notification) models.Notification {
	s.seq++
	n.ID = s.seq
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	n.Read = false
	if n.Type.IsRequest() {
		n.Status = models.StatusPending
	} else {
		n.Status = models.StatusNone
	}

	stored := n
	s.boxes[n.Receiver] = append(s.boxes[n.Receiver], &stored)
	return stored
}

// Active returns, in insertion order, every unread notification of receiver
// plus every request that is still pending regardless of its read flag.
func (s *Store) Active(receiver string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Notification
	for _, n := range s.boxes[receiver] {
		if !n.Read || n.IsPendingRequest() {
			out = append(out, *n)
		}
	}
	return out
}

// All returns a snapshot of receiver's whole mailbox.
func (s *Store) All(receiver string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Notification, 0, len(s.boxes[receiver]))
	for _, n := range s.boxes[receiver] {
		out = append(out, *n)
	}
	return out
}

// MarkRead marks the given notifications of receiver as read. Pending
// requests are left unread so they keep resurfacing. It returns how many
// entries changed.
func (s *Store) MarkRead(receiver string, ids ...int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, n := range s.boxes[receiver] {
		if n.Read || n.IsPendingRequest() || !slices.Contains(ids, n.ID) {
			continue
		}
		n.Read = true
		changed++
	}
	return changed
}

// HasPending reports whether a pending request matching q exists.
func (s *Store) HasPending(q Query) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.findPendingLocked(q) != nil
}

// Resolve moves the oldest pending request matching q to status, which must
// be accepted or rejected. It returns the updated copy, or
// common.ErrorNotFound when nothing is pending.
func (s *Store) Resolve(q Query, status models.Status) (models.Notification, error) {
	if status != models.StatusAccepted && status != models.StatusRejected {
		return models.Notification{}, fmt.Errorf("%w: cannot resolve to %q", common.ErrorValidation, status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.findPendingLocked(q)
	if n == nil {
		return models.Notification{}, fmt.Errorf("pending %s from %s: %w", q.Type, q.Sender, common.ErrorNotFound)
	}
	n.Status = status
	return *n, nil
}

func (s *Store) findPendingLocked(q Query) *models.Notification {
	for _, n := range s.boxes[q.Receiver] {
		if n.Status == models.StatusPending && q.matches(n) {
			return n
		}
	}
	return nil
}
