package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

// AccountService handles signup, login and language preferences.
type AccountService struct {
	*feed
}

func NewAccountService(d Deps) *AccountService {
	return &AccountService{feed: newFeed(d)}
}

// Signup registers id in the graph and persists its account with the
// default language. The graph registration is rolled back when the account
// cannot be stored.
func (s *AccountService) Signup(ctx context.Context, id string) (*models.Account, error) {
	if err := models.ValidateIdentity(id); err != nil {
		return nil, err
	}
	if err := s.graph.Register(id); err != nil {
		return nil, err
	}

	acc := &models.Account{ID: id, Language: models.DefaultLanguage, CreatedAt: s.now()}
	if err := s.repomanager.Accounts(s.db).Create(ctx, acc); err != nil {
		s.graph.Unregister(id)
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.log.Info(ctx, "client signed up", "client", id)
	return acc, nil
}

// Login returns the account of an existing identity.
func (s *AccountService) Login(ctx context.Context, id string) (*models.Account, error) {
	if !s.graph.Exists(id) {
		return nil, fmt.Errorf("client %s: %w", id, common.ErrorNotFound)
	}

	acc, err := s.repomanager.Accounts(s.db).Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		s.log.Warn(ctx, "account record missing, using defaults", "client", id)
		return &models.Account{ID: id, Language: models.DefaultLanguage}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading account: %w", err)
	}
	return acc, nil
}

// SetLanguage validates raw and stores it as id's preference.
func (s *AccountService) SetLanguage(ctx context.Context, id, raw string) (models.Language, error) {
	lang, err := models.ParseLanguage(raw)
	if err != nil {
		return "", err
	}
	if err := s.repomanager.Accounts(s.db).SetLanguage(ctx, id, lang); err != nil {
		return "", fmt.Errorf("error saving language: %w", err)
	}
	return lang, nil
}

// Restore registers every persisted account in the graph. It is called once
// at startup so identities survive a restart when accounts are durable.
func (s *AccountService) Restore(ctx context.Context) (int, error) {
	list, err := s.repomanager.Accounts(s.db).List(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing accounts: %w", err)
	}

	n := 0
	for _, acc := range list {
		if err := models.ValidateIdentity(acc.ID); err != nil {
			s.log.Warn(ctx, "skipping stored account", "client", acc.ID, "error", err)
			continue
		}
		err := s.graph.Register(acc.ID)
		switch {
		case err == nil:
			n++
		case errors.Is(err, common.ErrorAlreadyExists):
		default:
			return n, err
		}
	}
	return n, nil
}
