// Package graph implements the identity registry and the directed follow
// graph.
//
// Edges are stored as followed -> set of followers. Every exported method
// takes the store's lock for its whole duration, so compound operations such
// as Register (check-then-create) are atomic with respect to each other.
package graph

import (
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/socialnet/internal/common"
)

type node struct {
	// followers in insertion order; index gives O(1) membership.
	followers []string
	index     map[string]struct{}
}

type Store struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

func NewStore() *Store {
	return &Store{nodes: make(map[string]*node)}
}

// Register creates an identity. It fails with common.ErrorAlreadyExists when
// the identity is already present, including when a concurrent Register for
// the same id won the race.
func (s *Store) Register(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty identity", common.ErrorValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; ok {
		return fmt.Errorf("identity %s: %w", id, common.ErrorAlreadyExists)
	}
	s.nodes[id] = &node{index: make(map[string]struct{})}
	return nil
}

// Unregister removes an identity and every edge touching it. It exists to
// roll back a signup whose account record could not be persisted.
func (s *Store) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.nodes, id)
	for _, n := range s.nodes {
		if _, ok := n.index[id]; ok {
			delete(n.index, id)
			n.followers = slices.DeleteFunc(n.followers, func(f string) bool { return f == id })
		}
	}
}

func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.nodes[id]
	return ok
}

// IsFollowing reports whether follower follows followed.
func (s *Store) IsFollowing(follower, followed string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[followed]
	if !ok {
		return false
	}
	_, ok = n.index[follower]
	return ok
}

// CreateEdge makes follower follow followed. It is idempotent: created is
// false when the edge already existed.
func (s *Store) CreateEdge(follower, followed string) (created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[follower]; !ok {
		return false, fmt.Errorf("follower %s: %w", follower, common.ErrorNotFound)
	}
	n, ok := s.nodes[followed]
	if !ok {
		return false, fmt.Errorf("followed %s: %w", followed, common.ErrorNotFound)
	}

	if _, exists := n.index[follower]; exists {
		return false, nil
	}
	n.index[follower] = struct{}{}
	n.followers = append(n.followers, follower)
	return true, nil
}

// RemoveEdge deletes the follower -> followed edge and reports
// common.ErrEdgeNotFound when there is none.
func (s *Store) RemoveEdge(follower, followed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.nodes[followed]
	if !ok {
		return fmt.Errorf("followed %s: %w", followed, common.ErrorNotFound)
	}
	if _, exists := n.index[follower]; !exists {
		return fmt.Errorf("%s -> %s: %w", follower, followed, common.ErrEdgeNotFound)
	}

	delete(n.index, follower)
	n.followers = slices.DeleteFunc(n.followers, func(f string) bool { return f == follower })
	return nil
}

// Followers returns a snapshot of id's followers in the order they followed.
func (s *Store) Followers(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	return slices.Clone(n.followers)
}

// Following returns the identities id follows, sorted.
func (s *Store) Following(id string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for followed, n := range s.nodes {
		if _, ok := n.index[id]; ok {
			out = append(out, followed)
		}
	}
	slices.Sort(out)
	return out
}

// Identities returns every registered identity, sorted.
func (s *Store) Identities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
