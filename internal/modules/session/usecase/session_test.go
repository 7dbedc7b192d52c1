package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"

	sessionout "miso/internal/modules/session/adapter/out"
	sessiondto "miso/internal/modules/session/dto"
	sessionin "miso/internal/modules/session/port/in"
	"miso/internal/modules/session/service"
	"miso/internal/modules/session/usecase"
	"miso/internal/platform/apiclient"
	"miso/internal/platform/authctx"
	apperrors "miso/internal/platform/errors"
)

type fakeUsers struct {
	user authctx.User
	err  error
}

func (f fakeUsers) User(context.Context) (authctx.User, error) { return f.user, f.err }

type fakeHistoryAPI struct {
	pages   map[int]apiclient.Result[apiclient.UserSessionsResponse]
	detail  apiclient.Result[apiclient.SessionDataResponse]
	deleted []string
	listed  []int
}

func (f *fakeHistoryAPI) GetUserSessions(_ context.Context, page, _ int) apiclient.Result[apiclient.UserSessionsResponse] {
	f.listed = append(f.listed, page)
	return f.pages[page]
}

func (f *fakeHistoryAPI) GetSessionData(context.Context, string) apiclient.Result[apiclient.SessionDataResponse] {
	return f.detail
}

func (f *fakeHistoryAPI) DeleteSession(_ context.Context, id string) apiclient.Result[apiclient.DeleteSessionResponse] {
	f.deleted = append(f.deleted, id)
	return apiclient.Result[apiclient.DeleteSessionResponse]{Data: apiclient.DeleteSessionResponse{Message: "Session deleted", SessionID: id}, Status: http.StatusOK}
}

func page(n int, hasNext bool, groups ...apiclient.MonthGroup) apiclient.Result[apiclient.UserSessionsResponse] {
	return apiclient.Result[apiclient.UserSessionsResponse]{
		Data: apiclient.UserSessionsResponse{
			SessionsByMonth: groups,
			Pagination:      apiclient.Pagination{CurrentPage: n, PageSize: 2, TotalPages: 2, TotalCount: 3, HasNext: hasNext, HasPrev: n > 1},
		},
		Status: http.StatusOK,
	}
}

func month(key, name string, ids ...string) apiclient.MonthGroup {
	g := apiclient.MonthGroup{MonthKey: key, MonthName: name}
	for _, id := range ids {
		g.Sessions = append(g.Sessions, apiclient.SessionSummary{ID: id, Title: "Session " + id, StartedAt: "2026-03-04T10:00:00"})
	}
	return g
}

func newUsecase(api *fakeHistoryAPI, users fakeUsers) sessionin.Usecase {
	svc := service.NewHistoryService(sessionout.NewAPIHistoryGateway(api), users, 2)
	return usecase.NewInteractor(svc, sessionout.NewDetailRenderer(), sessionout.NewMarkdownNoteStore())
}

func signedIn() fakeUsers {
	return fakeUsers{user: authctx.User{ID: "u1", Email: "ana@example.com"}}
}

func sessionIDs(out sessiondto.HistoryOutput) []string {
	ids := []string{}
	for _, g := range out.Groups {
		for _, s := range g.Sessions {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func TestDashboardRequiresCachedUser(t *testing.T) {
	t.Parallel()
	api := &fakeHistoryAPI{}
	uc := newUsecase(api, fakeUsers{err: apperrors.ErrNotSignedIn})
	if _, err := uc.Dashboard(context.Background()); !errors.Is(err, apperrors.ErrNotSignedIn) {
		t.Fatalf("expected not signed in, got %v", err)
	}
	if len(api.listed) != 0 {
		t.Fatalf("no backend call expected, got %v", api.listed)
	}
}

func TestDashboardUnauthorizedIsReturned(t *testing.T) {
	t.Parallel()
	api := &fakeHistoryAPI{pages: map[int]apiclient.Result[apiclient.UserSessionsResponse]{
		1: {Error: "Not authenticated", Status: http.StatusUnauthorized},
	}}
	uc := newUsecase(api, signedIn())
	_, err := uc.Dashboard(context.Background())
	if !errors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected wrapped api error, got %v", err)
	}
}

func TestDashboardOtherFailuresLeaveEmptyHistoryWithWarning(t *testing.T) {
	t.Parallel()
	api := &fakeHistoryAPI{pages: map[int]apiclient.Result[apiclient.UserSessionsResponse]{
		1: {Error: "boom", Status: http.StatusInternalServerError},
	}}
	uc := newUsecase(api, signedIn())
	out, err := uc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(out.Groups) != 0 || out.Warning == "" {
		t.Fatalf("expected empty history with warning, got %+v", out)
	}
}

func TestLoadMoreMergesMonthsAndStops(t *testing.T) {
	t.Parallel()
	api := &fakeHistoryAPI{pages: map[int]apiclient.Result[apiclient.UserSessionsResponse]{
		1: page(1, true, month("2026-03", "March 2026", "a", "b")),
		2: page(2, false, month("2026-03", "March 2026", "c"), month("2026-02", "February 2026", "d")),
	}}
	uc := newUsecase(api, signedIn())
	if _, err := uc.Dashboard(context.Background()); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	out, err := uc.LoadMore(context.Background())
	if err != nil {
		t.Fatalf("load more: %v", err)
	}
	if len(out.Groups) != 2 || out.Groups[0].MonthKey != "2026-03" || out.Groups[1].MonthKey != "2026-02" {
		t.Fatalf("unexpected groups %+v", out.Groups)
	}
	if got := strings.Join(sessionIDs(out), ","); got != "a,b,c,d" {
		t.Fatalf("unexpected order %s", got)
	}
	if out.HasNext || out.CurrentPage != 2 {
		t.Fatalf("pagination not replaced: %+v", out)
	}
	if _, err := uc.LoadMore(context.Background()); !errors.Is(err, apperrors.ErrNoMorePages) {
		t.Fatalf("expected no more pages, got %v", err)
	}
	if len(api.listed) != 2 {
		t.Fatalf("expected two list calls, got %v", api.listed)
	}
}

func TestDeleteRemovesSessionFromHistory(t *testing.T) {
	t.Parallel()
	api := &fakeHistoryAPI{pages: map[int]apiclient.Result[apiclient.UserSessionsResponse]{
		1: page(1, false, month("2026-03", "March 2026", "a"), month("2026-02", "February 2026", "b")),
	}}
	uc := newUsecase(api, signedIn())
	if _, err := uc.Dashboard(context.Background()); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	res, err := uc.Delete(context.Background(), "a")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if res.Message != "Session deleted" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	out := uc.History(context.Background())
	if got := sessionIDs(out); len(got) != 1 || got[0] != "b" {
		t.Fatalf("unexpected history %v", got)
	}
	if len(out.Groups) != 1 || out.TotalCount != 2 {
		t.Fatalf("empty month should be dropped and count decremented: %+v", out)
	}
}

func TestShowComputesMetricsAndDefaultTitle(t *testing.T) {
	t.Parallel()
	duration, mood, engagement, words := 1530.0, 7.25, 6.04, 812
	api := &fakeHistoryAPI{detail: apiclient.Result[apiclient.SessionDataResponse]{
		Data: apiclient.SessionDataResponse{Session: apiclient.SessionData{
			ID:              "s1",
			StartedAt:       "2026-03-04T10:15:30Z",
			Duration:        &duration,
			MoodScore:       &mood,
			EngagementScore: &engagement,
			WordCount:       &words,
			KeyTopics:       []string{"sleep", "work"},
		}},
		Status: http.StatusOK,
	}}
	uc := newUsecase(api, signedIn())
	out, err := uc.Show(context.Background(), "s1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if out.Title != "Session Details" || out.DurationMinutes != 26 || out.MoodPercent != 73 || out.EngagementPercent != 60 || out.Words != 812 {
		t.Fatalf("unexpected detail %+v", out)
	}

	text, err := uc.Export(context.Background(), sessiondto.ExportInput{SessionID: "s1", Format: "yaml"})
	if err != nil {
		t.Fatalf("export yaml: %v", err)
	}
	if !strings.Contains(text, "mood_percent: 73") || !strings.Contains(text, "- sleep") {
		t.Fatalf("unexpected yaml:\n%s", text)
	}
	if _, err := uc.Export(context.Background(), sessiondto.ExportInput{SessionID: "s1", Format: "pdf"}); !errors.Is(err, apperrors.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestShowMissingSessionIsNotFound(t *testing.T) {
	t.Parallel()
	api := &fakeHistoryAPI{detail: apiclient.Result[apiclient.SessionDataResponse]{Error: "Session not found", Status: http.StatusNotFound}}
	uc := newUsecase(api, signedIn())
	if _, err := uc.Show(context.Background(), "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExportNoteKeepsUserEditsOnRewrite(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	mood := 8.0
	api := &fakeHistoryAPI{detail: apiclient.Result[apiclient.SessionDataResponse]{
		Data: apiclient.SessionDataResponse{Session: apiclient.SessionData{
			ID:        "s1",
			Title:     "Evening check-in",
			StartedAt: "2026-03-04T21:05:00Z",
			MoodScore: &mood,
			Summary:   "Talked about the week.",
		}},
		Status: http.StatusOK,
	}}
	uc := newUsecase(api, signedIn())
	first, err := uc.ExportNote(context.Background(), sessiondto.ExportNoteInput{SessionID: "s1", Dir: dir})
	if err != nil {
		t.Fatalf("export note: %v", err)
	}
	if !strings.HasSuffix(first.Path, "sessions/2026/03/04/210500-evening-check-in.md") {
		t.Fatalf("unexpected path %s", first.Path)
	}
	raw, err := os.ReadFile(first.Path)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	edited := string(raw) + "\nMy own notes.\n"
	if err := os.WriteFile(first.Path, []byte(edited), 0o644); err != nil {
		t.Fatalf("edit note: %v", err)
	}

	mood = 9.0
	if _, err := uc.ExportNote(context.Background(), sessiondto.ExportNoteInput{SessionID: "s1", Dir: dir}); err != nil {
		t.Fatalf("re-export: %v", err)
	}
	raw, err = os.ReadFile(first.Path)
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	content := string(raw)
	if !strings.Contains(content, "My own notes.") || !strings.Contains(content, "mood_percent: 90") || strings.Contains(content, "mood_percent: 80") {
		t.Fatalf("unexpected note:\n%s", content)
	}
}
