package session

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/socialnet/internal/common"
)

func (s *session) login(ctx context.Context, id string) error {
	if s.st.authenticated {
		return s.reply("Error: Already logged in as " + s.st.id)
	}

	acc, err := s.h.svc.Accounts.Login(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return s.reply("Error: Client does not exist. Please signup first.")
	}
	if err != nil {
		s.log.Error(ctx, "login failed", "client", id, "error", err)
		return s.reply("Error: Failed to load client account")
	}

	s.enter(ctx, acc.ID)
	s.st.authenticate(acc)
	s.log.Info(ctx, "client logged in")
	return s.reply("Welcome back, client " + id)
}

func (s *session) signup(ctx context.Context, id string) error {
	if s.st.authenticated {
		return s.reply("Error: Already logged in as " + s.st.id)
	}
	if id == "" {
		return s.reply("Error: Client ID cannot be empty")
	}

	acc, err := s.h.svc.Accounts.Signup(ctx, id)
	if errors.Is(err, common.ErrorAlreadyExists) {
		return s.reply("Error: Client ID already exists. Please choose another one or login.")
	}
	if errors.Is(err, common.ErrorValidation) {
		return s.reply("Error: Invalid client ID. Use a single name without '/', '\\', ':' or '..'")
	}
	if err != nil {
		s.log.Error(ctx, "signup failed", "client", id, "error", err)
		return s.reply("Error: Failed to create client account")
	}

	s.enter(ctx, acc.ID)
	s.st.authenticate(acc)
	s.log.Info(ctx, "client signed up")
	return s.reply("Welcome client " + id)
}

// enter registers the catalog entry and tags the session logger.
func (s *session) enter(ctx context.Context, id string) {
	info := s.h.catalog.Register(id, s.st.connID, s.conn.RemoteAddr())
	s.log = s.log.With("client", id)
	s.log.Debug(ctx, "catalog updated", "address", info.Address, "port", info.Port)
}
