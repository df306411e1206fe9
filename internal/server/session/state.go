package session

import (
	"fmt"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

type pendingDownload struct {
	file   string
	source string
}

// state is the per-connection session state. It is owned by the goroutine
// serving the connection and is never shared.
type state struct {
	connID        string
	id            string
	authenticated bool
	lang          models.Language

	seq      int64
	download *pendingDownload
	token    string
}

func newState(connID string) *state {
	return &state{connID: connID, lang: models.DefaultLanguage}
}

func (s *state) authenticate(acc *models.Account) {
	s.id = acc.ID
	s.lang = acc.Language
	s.authenticated = true
}

// setPendingDownload records an authorized download. It replaces any earlier
// one and drops a handshake in progress.
func (s *state) setPendingDownload(file, source string) {
	s.download = &pendingDownload{file: file, source: source}
	s.token = ""
}

// beginHandshake issues a fresh token for the pending download.
func (s *state) beginHandshake(issuer *auth.HandshakeIssuer, id string) (string, error) {
	if id != s.id {
		return "", fmt.Errorf("%q: %w", id, common.ErrClientMismatch)
	}
	if s.download == nil {
		return "", common.ErrNoPendingDownload
	}

	s.seq++
	token, err := issuer.Issue(auth.Handshake{
		ConnID:    s.connID,
		Requester: s.id,
		File:      s.download.file,
		Source:    s.download.source,
		Seq:       s.seq,
	})
	if err != nil {
		s.token = ""
		return "", err
	}
	s.token = token
	return token, nil
}

// completeHandshake checks the ACK against the pending token and download.
// Any failure clears the token but keeps the pending download, so a new SYN
// may follow. On success both are consumed.
func (s *state) completeHandshake(issuer *auth.HandshakeIssuer, token, file, source string) (pendingDownload, error) {
	pending := s.token
	s.token = ""

	if pending == "" || token != pending {
		return pendingDownload{}, common.ErrSequenceMismatch
	}
	hs, err := issuer.Verify(token)
	if err != nil {
		return pendingDownload{}, fmt.Errorf("%w: %w", common.ErrSequenceMismatch, err)
	}
	if hs.ConnID != s.connID || hs.Requester != s.id || hs.Seq != s.seq {
		return pendingDownload{}, common.ErrSequenceMismatch
	}
	if s.download == nil || file != s.download.file || source != s.download.source {
		return pendingDownload{}, common.ErrTargetMismatch
	}

	d := *s.download
	s.download = nil
	return d, nil
}

func (s *state) abortHandshake() {
	s.token = ""
}
