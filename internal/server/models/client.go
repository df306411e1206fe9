package models

import "time"

// ClientInfo is a client catalog entry: where an authenticated identity is
// currently connected from.
type ClientInfo struct {
	ID          string
	ConnID      string
	Address     string
	Port        int
	ConnectedAt time.Time
}
