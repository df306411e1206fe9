// Package session runs the per-connection protocol: the authentication gate,
// the command dispatch loop and the download handshake that hands the
// connection to the transfer sender for the duration of a download.
package session

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/netx"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/dmitrijs2005/socialnet/internal/server/catalog"
	"github.com/dmitrijs2005/socialnet/internal/server/services"
	"github.com/dmitrijs2005/socialnet/internal/transfer"
	"github.com/google/uuid"
)

const (
	lineInvalidFormat = "Error: Invalid command format"
	lineLoginFirst    = "Error: Please login or signup first"
	lineUnknown       = "Error: Unknown command"
	cmdExit           = "exit"
)

// Services are the domain services commands are dispatched to.
type Services struct {
	Accounts *services.AccountService
	Social   *services.SocialService
	Content  *services.ContentService
	Sync     services.Synchronizer
}

// Handler serves connections. One Handler is shared by all connections;
// per-connection state lives in session values.
type Handler struct {
	svc     Services
	catalog *catalog.Catalog
	issuer  *auth.HandshakeIssuer
	sender  *transfer.Sender
	log     logging.Logger
}

func NewHandler(svc Services, cat *catalog.Catalog, issuer *auth.HandshakeIssuer, sender *transfer.Sender, log logging.Logger) *Handler {
	return &Handler{
		svc:     svc,
		catalog: cat,
		issuer:  issuer,
		sender:  sender,
		log:     log.With("module", "session"),
	}
}

type session struct {
	h    *Handler
	conn *netx.LineConn
	st   *state
	log  logging.Logger

	// unread is a line read ahead of the dispatch loop that must be
	// dispatched next.
	unread *string
}

// Serve runs the dispatch loop on conn until the peer sends exit, the
// connection fails or ctx is cancelled. conn is closed on return.
func (h *Handler) Serve(ctx context.Context, conn net.Conn) error {
	connID := uuid.NewString()
	s := &session{
		h:    h,
		conn: netx.NewLineConn(conn),
		st:   newState(connID),
		log:  h.log.With("conn_id", connID, "remote", conn.RemoteAddr().String()),
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer s.close()

	s.log.Info(ctx, "connection opened")
	err := s.loop(ctx)
	if err != nil && ctx.Err() == nil {
		s.log.Warn(ctx, "connection closed with error", "error", err)
		return err
	}
	s.log.Info(ctx, "connection closed")
	return nil
}

func (s *session) close() {
	if s.st.authenticated {
		s.h.catalog.Remove(s.st.id, s.st.connID)
	}
	_ = s.conn.Close()
}

func (s *session) loop(ctx context.Context) error {
	for {
		line, err := s.next()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		if line == cmdExit {
			return nil
		}
		// late duplicate acks from a finished transfer
		if transfer.IsChunkAck(line) {
			s.log.Debug(ctx, "dropping stray chunk ack", "line", line)
			continue
		}

		if err := s.dispatch(ctx, line); err != nil {
			return err
		}
	}
}

func (s *session) next() (string, error) {
	if s.unread != nil {
		line := *s.unread
		s.unread = nil
		return line, nil
	}
	return s.conn.ReadLine()
}

// dispatch runs a single command. Only I/O errors are returned; every other
// failure has already been reported to the client.
func (s *session) dispatch(ctx context.Context, line string) error {
	name, params, ok := strings.Cut(line, ":")
	if !ok {
		return s.reply(lineInvalidFormat)
	}
	name = strings.TrimSpace(name)
	params = strings.TrimSpace(params)

	if fn, ok := authCommands[name]; ok {
		return fn(s, ctx, params)
	}
	if !s.st.authenticated {
		return s.reply(lineLoginFirst)
	}

	fn, ok := commands[name]
	if !ok {
		return s.reply(lineUnknown)
	}
	return fn(s, ctx, params)
}

func (s *session) reply(lines ...string) error {
	return s.conn.WriteLines(lines...)
}

type commandFunc func(s *session, ctx context.Context, params string) error

var authCommands = map[string]commandFunc{
	"login":  (*session).login,
	"signup": (*session).signup,
}

var commands = map[string]commandFunc{
	"post":              (*session).post,
	"repost":            (*session).repost,
	"follow_request":    (*session).followRequest,
	"follow_response":   (*session).followResponse,
	"unfollow":          (*session).unfollow,
	"access_profile":    (*session).accessProfile,
	"search":            (*session).search,
	"upload":            (*session).upload,
	"download":          (*session).download,
	"download_syn":      (*session).downloadSyn,
	"download_ack":      (*session).downloadAck,
	"get_notifications": (*session).notifications,
	"ask_comment":       (*session).askComment,
	"approve_comment":   (*session).approveComment,
	"comment":           (*session).comment,
	"ask_photo":         (*session).askPhoto,
	"permit_photo":      (*session).permitPhoto,
	"photo_details":     (*session).photoDetails,
	"set_language":      (*session).setLanguage,
	"sync":              (*session).sync,
}
