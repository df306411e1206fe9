// Package catalog tracks which identities are currently connected and from
// where. It is informational only: nothing in the protocol depends on it.
package catalog

import (
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

type Catalog struct {
	mu      sync.RWMutex
	entries map[string]models.ClientInfo
	now     func() time.Time
}

func New() *Catalog {
	return &Catalog{entries: make(map[string]models.ClientInfo), now: time.Now}
}

// Register records id as connected through connID from addr. A later
// registration of the same id replaces the earlier one.
func (c *Catalog) Register(id, connID string, addr net.Addr) models.ClientInfo {
	info := models.ClientInfo{ID: id, ConnID: connID, ConnectedAt: c.now()}
	if addr != nil {
		info.Address, info.Port = splitAddr(addr.String())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = info
	return info
}

// Remove deletes id only if the entry still belongs to connID, so a stale
// connection closing cannot evict a newer session of the same identity.
func (c *Catalog) Remove(id, connID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok && e.ConnID == connID {
		delete(c.entries, id)
		return true
	}
	return false
}

func (c *Catalog) Get(id string) (models.ClientInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	return e, ok
}

// List returns all entries ordered by identity.
func (c *Catalog) List() []models.ClientInfo {
	c.mu.RLock()
	out := make([]models.ClientInfo, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	c.mu.RUnlock()

	slices.SortFunc(out, func(a, b models.ClientInfo) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func splitAddr(s string) (string, int) {
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return s, 0
	}
	p, _ := strconv.Atoi(port)
	return host, p
}
