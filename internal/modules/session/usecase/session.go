package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"miso/internal/modules/session/domain"
	sessiondto "miso/internal/modules/session/dto"
	sessionin "miso/internal/modules/session/port/in"
	sessionout "miso/internal/modules/session/port/out"
	"miso/internal/modules/session/service"
	apperrors "miso/internal/platform/errors"
)

// Interactor keeps the history loaded so far, the way the sidebar does.
type Interactor struct {
	svc      *service.HistoryService
	renderer sessionout.Renderer
	notes    sessionout.NoteStore

	mu          sync.Mutex
	history     domain.History
	warning     string
	loadingMore bool
}

func NewInteractor(svc *service.HistoryService, renderer sessionout.Renderer, notes sessionout.NoteStore) sessionin.Usecase {
	return &Interactor{svc: svc, renderer: renderer, notes: notes}
}

func (i *Interactor) Dashboard(ctx context.Context) (sessiondto.HistoryOutput, error) {
	history, warning, err := i.svc.FirstPage(ctx)
	if err != nil {
		return sessiondto.HistoryOutput{}, err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.history = history
	i.warning = warning
	return toHistoryOutput(i.history, i.warning), nil
}

// LoadMore fetches the next page and merges it. A call made while another is
// in flight returns the current history without fetching.
func (i *Interactor) LoadMore(ctx context.Context) (sessiondto.HistoryOutput, error) {
	i.mu.Lock()
	if i.loadingMore {
		out := toHistoryOutput(i.history, i.warning)
		i.mu.Unlock()
		return out, nil
	}
	if !i.history.CanLoadMore() {
		out := toHistoryOutput(i.history, i.warning)
		i.mu.Unlock()
		return out, apperrors.ErrNoMorePages
	}
	i.loadingMore = true
	current := i.history
	i.mu.Unlock()

	merged, err := i.svc.NextPage(ctx, current)

	i.mu.Lock()
	defer i.mu.Unlock()
	i.loadingMore = false
	if err != nil {
		return toHistoryOutput(i.history, i.warning), err
	}
	// Deletes that landed while the page was in flight still apply.
	for _, g := range current.Groups {
		for _, s := range g.Sessions {
			if !i.history.Contains(s.ID) {
				merged, _ = merged.Remove(s.ID)
			}
		}
	}
	i.history = merged
	return toHistoryOutput(i.history, i.warning), nil
}

func (i *Interactor) History(_ context.Context) sessiondto.HistoryOutput {
	i.mu.Lock()
	defer i.mu.Unlock()
	return toHistoryOutput(i.history, i.warning)
}

func (i *Interactor) Show(ctx context.Context, sessionID string) (sessiondto.DetailOutput, error) {
	detail, err := i.svc.Get(ctx, sessionID)
	if err != nil {
		return sessiondto.DetailOutput{}, err
	}
	return toDetailOutput(detail), nil
}

// Delete removes the session on the backend and from the held history. A
// session the backend no longer knows is dropped locally as well.
func (i *Interactor) Delete(ctx context.Context, sessionID string) (sessiondto.DeleteOutput, error) {
	message, err := i.svc.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return sessiondto.DeleteOutput{}, err
	}
	i.mu.Lock()
	i.history, _ = i.history.Remove(sessionID)
	i.mu.Unlock()
	if err != nil {
		return sessiondto.DeleteOutput{}, err
	}
	return sessiondto.DeleteOutput{SessionID: sessionID, Message: message}, nil
}

func (i *Interactor) Export(ctx context.Context, input sessiondto.ExportInput) (string, error) {
	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" {
		format = "text"
	}
	if i.renderer == nil {
		return "", fmt.Errorf("session renderer is not configured")
	}
	detail, err := i.svc.Get(ctx, input.SessionID)
	if err != nil {
		return "", err
	}
	return i.renderer.Render(detail, format)
}

func (i *Interactor) ExportNote(ctx context.Context, input sessiondto.ExportNoteInput) (sessiondto.ExportNoteOutput, error) {
	if i.notes == nil {
		return sessiondto.ExportNoteOutput{}, fmt.Errorf("session note store is not configured")
	}
	if input.Dir == "" {
		return sessiondto.ExportNoteOutput{}, fmt.Errorf("%w: export directory is required", apperrors.ErrInvalidInput)
	}
	detail, err := i.svc.Get(ctx, input.SessionID)
	if err != nil {
		return sessiondto.ExportNoteOutput{}, err
	}
	path, err := i.notes.Save(ctx, input.Dir, detail)
	if err != nil {
		return sessiondto.ExportNoteOutput{}, err
	}
	return sessiondto.ExportNoteOutput{SessionID: detail.ID, Path: path}, nil
}

func toHistoryOutput(h domain.History, warning string) sessiondto.HistoryOutput {
	out := sessiondto.HistoryOutput{
		Groups:      make([]sessiondto.MonthGroupOutput, 0, len(h.Groups)),
		CurrentPage: h.Pagination.CurrentPage,
		TotalCount:  h.Pagination.TotalCount,
		HasNext:     h.Pagination.HasNext,
		Warning:     warning,
	}
	for _, g := range h.Groups {
		group := sessiondto.MonthGroupOutput{MonthName: g.MonthName, MonthKey: g.MonthKey}
		for _, s := range g.Sessions {
			group.Sessions = append(group.Sessions, sessiondto.SummaryOutput{
				ID:        s.ID,
				Title:     s.Title,
				StartedAt: s.StartedAt,
				Status:    s.Status,
				MoodScore: s.MoodScore,
				Duration:  s.Duration,
			})
		}
		out.Groups = append(out.Groups, group)
	}
	return out
}

func toDetailOutput(d domain.Detail) sessiondto.DetailOutput {
	m := d.Metrics()
	return sessiondto.DetailOutput{
		ID:                  d.ID,
		Title:               d.DisplayTitle(),
		StartedAt:           d.StartedAt,
		Status:              d.Status,
		DurationMinutes:     m.DurationMinutes,
		MoodPercent:         m.MoodPercent,
		EngagementPercent:   m.EngagementPercent,
		Words:               m.Words,
		Summary:             d.Summary,
		KeyTopics:           d.KeyTopics,
		PrimaryEmotions:     d.PrimaryEmotions,
		BreakthroughMoments: d.BreakthroughMoments,
	}
}
