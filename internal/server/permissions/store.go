// Package permissions holds single-use download grants.
//
// A grant lets one requester download one file of one owner exactly once.
package permissions

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/socialnet/internal/common"
)

type key struct {
	owner string
	file  string
}

type Store struct {
	mu     sync.Mutex
	grants map[key]map[string]struct{}
}

func NewStore() *Store {
	return &Store{grants: make(map[key]map[string]struct{})}
}

// Grant allows requester to download owner's file once. Granting twice
// before a download still yields a single use.
func (s *Store) Grant(owner, file, requester string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{owner, file}
	set, ok := s.grants[k]
	if !ok {
		set = make(map[string]struct{})
		s.grants[k] = set
	}
	set[requester] = struct{}{}
}

// Check reports whether an unconsumed grant exists.
func (s *Store) Check(owner, file, requester string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.grants[key{owner, file}][requester]
	return ok
}

// Consume removes a grant; it is a no-op when none exists.
func (s *Store) Consume(owner, file, requester string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.consumeLocked(key{owner, file}, requester)
}

// CheckAndConsume removes the grant if present, in one critical section.
// Of any number of concurrent callers at most one succeeds; the rest get
// common.ErrNoGrant.
func (s *Store) CheckAndConsume(owner, file, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{owner, file}
	if _, ok := s.grants[k][requester]; !ok {
		return fmt.Errorf("%s/%s for %s: %w", owner, file, requester, common.ErrNoGrant)
	}
	s.consumeLocked(k, requester)
	return nil
}

func (s *Store) consumeLocked(k key, requester string) {
	set, ok := s.grants[k]
	if !ok {
		return
	}
	delete(set, requester)
	if len(set) == 0 {
		delete(s.grants, k)
	}
}
