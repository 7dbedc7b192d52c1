package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"miso/internal/modules/session/domain"
	sessionout "miso/internal/modules/session/port/out"
	apperrors "miso/internal/platform/errors"
	"miso/internal/platform/logging"
)

type HistoryService struct {
	gateway  sessionout.HistoryGateway
	users    sessionout.UserSource
	pageSize int
	log      zerolog.Logger
}

func NewHistoryService(gateway sessionout.HistoryGateway, users sessionout.UserSource, pageSize int) *HistoryService {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &HistoryService{gateway: gateway, users: users, pageSize: pageSize, log: logging.Module("session")}
}

// FirstPage loads page one for the signed-in user. A 401 is returned as
// apperrors.ErrNotAuthenticated; any other failure yields an empty history
// and a warning so the user can stay on the dashboard.
func (s *HistoryService) FirstPage(ctx context.Context) (domain.History, string, error) {
	if _, err := s.users.User(ctx); err != nil {
		if errors.Is(err, apperrors.ErrNotSignedIn) {
			return domain.History{}, "", err
		}
		return domain.History{}, "", fmt.Errorf("load cached user: %w", err)
	}
	history, err := s.gateway.ListPage(ctx, 1, s.pageSize)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotAuthenticated) {
			return domain.History{}, "", err
		}
		s.log.Warn().Err(err).Msg("failed to load sessions, continuing with empty history")
		return domain.History{}, "could not load sessions: " + err.Error(), nil
	}
	return history, "", nil
}

func (s *HistoryService) NextPage(ctx context.Context, current domain.History) (domain.History, error) {
	if !current.CanLoadMore() {
		return current, apperrors.ErrNoMorePages
	}
	page, err := s.gateway.ListPage(ctx, current.Pagination.CurrentPage+1, s.pageSize)
	if err != nil {
		return current, err
	}
	return current.Merge(page), nil
}

func (s *HistoryService) Get(ctx context.Context, sessionID string) (domain.Detail, error) {
	if sessionID == "" {
		return domain.Detail{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	return s.gateway.Get(ctx, sessionID)
}

func (s *HistoryService) Delete(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	return s.gateway.Delete(ctx, sessionID)
}
