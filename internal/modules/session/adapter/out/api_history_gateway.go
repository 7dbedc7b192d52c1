package out

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"miso/internal/modules/session/domain"
	sessionout "miso/internal/modules/session/port/out"
	"miso/internal/platform/apiclient"
	apperrors "miso/internal/platform/errors"
)

type historyAPI interface {
	GetUserSessions(ctx context.Context, page, pageSize int) apiclient.Result[apiclient.UserSessionsResponse]
	GetSessionData(ctx context.Context, sessionID string) apiclient.Result[apiclient.SessionDataResponse]
	DeleteSession(ctx context.Context, sessionID string) apiclient.Result[apiclient.DeleteSessionResponse]
}

type APIHistoryGateway struct {
	api historyAPI
}

func NewAPIHistoryGateway(api historyAPI) sessionout.HistoryGateway {
	return &APIHistoryGateway{api: api}
}

func (g *APIHistoryGateway) ListPage(ctx context.Context, page, pageSize int) (domain.History, error) {
	res := g.api.GetUserSessions(ctx, page, pageSize)
	if err := classify(res.Err()); err != nil {
		return domain.History{}, err
	}
	history := domain.History{Pagination: domain.Pagination{
		CurrentPage: res.Data.Pagination.CurrentPage,
		PageSize:    res.Data.Pagination.PageSize,
		TotalPages:  res.Data.Pagination.TotalPages,
		TotalCount:  res.Data.Pagination.TotalCount,
		HasNext:     res.Data.Pagination.HasNext,
		HasPrev:     res.Data.Pagination.HasPrev,
	}}
	for _, g := range res.Data.SessionsByMonth {
		group := domain.MonthGroup{MonthName: g.MonthName, MonthKey: g.MonthKey}
		for _, s := range g.Sessions {
			group.Sessions = append(group.Sessions, domain.Summary{
				ID:        s.ID,
				Title:     s.Title,
				StartedAt: domain.ParseTimestamp(s.StartedAt),
				Status:    s.Status,
				MoodScore: s.MoodScore,
				Duration:  s.Duration,
			})
		}
		history.Groups = append(history.Groups, group)
	}
	return history, nil
}

func (g *APIHistoryGateway) Get(ctx context.Context, sessionID string) (domain.Detail, error) {
	res := g.api.GetSessionData(ctx, sessionID)
	if err := classify(res.Err()); err != nil {
		return domain.Detail{}, err
	}
	s := res.Data.Session
	if s.ID == "" {
		return domain.Detail{}, apperrors.ErrNoSessionData
	}
	detail := domain.Detail{
		ID:                  s.ID,
		Title:               s.Title,
		StartedAt:           domain.ParseTimestamp(s.StartedAt),
		Status:              s.Status,
		Summary:             s.Summary,
		KeyTopics:           s.KeyTopics,
		PrimaryEmotions:     s.PrimaryEmotions,
		BreakthroughMoments: s.BreakthroughMoments,
	}
	if s.Duration != nil {
		detail.Duration = *s.Duration
	}
	if s.MoodScore != nil {
		detail.MoodScore = *s.MoodScore
	}
	if s.EngagementScore != nil {
		detail.EngagementScore = *s.EngagementScore
	}
	if s.WordCount != nil {
		detail.WordCount = *s.WordCount
	}
	return detail, nil
}

func (g *APIHistoryGateway) Delete(ctx context.Context, sessionID string) (string, error) {
	res := g.api.DeleteSession(ctx, sessionID)
	if err := classify(res.Err()); err != nil {
		return "", err
	}
	return res.Data.Message, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", apperrors.ErrNotAuthenticated, apiErr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", apperrors.ErrNotFound, apiErr)
	default:
		return apiErr
	}
}
