package services

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dmitrijs2005/gophloyalty/internal/client/client"
	"github.com/dmitrijs2005/gophloyalty/internal/client/repositories/catalog"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
	"github.com/dmitrijs2005/gophloyalty/internal/logging"
)

// AccountService deletes the member's account.
type AccountService interface {
	// Delete removes the account and everything attached to it, then ends
	// the local session. It is never retried automatically.
	Delete(ctx context.Context) error
}

type accountService struct {
	functions client.FunctionsClient
	sessions  SessionExpirer
	cache     catalog.Repository
	log       logging.Logger
}

// NewAccountService wires an AccountService. cache may be nil.
func NewAccountService(functions client.FunctionsClient, sessions SessionExpirer, cache catalog.Repository, log logging.Logger) AccountService {
	if log == nil {
		log = logging.Discard()
	}
	return &accountService{functions: functions, sessions: sessions, cache: cache, log: log}
}

func (s *accountService) Delete(ctx context.Context) error {
	userID := s.sessions.UserID()
	if userID == "" {
		return common.ErrNotAuthenticated
	}

	body, err := s.functions.Invoke(ctx, common.DeleteAccountFunction, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrDeletion, err)
	}
	if msg := gjson.GetBytes(body, "error"); msg.Exists() && msg.String() != "" {
		return fmt.Errorf("%w: %s", common.ErrDeletion, msg.String())
	}

	s.log.Info(ctx, "account deleted", "user_id", userID)
	s.sessions.Expire(ctx)
	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			s.log.Warn(ctx, "clear catalog cache", "error", err)
		}
	}
	return nil
}
