package in

import (
	"context"

	sessiondto "miso/internal/modules/session/dto"
	sessionin "miso/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Dashboard(ctx context.Context) (sessiondto.HistoryOutput, error) {
	return h.usecase.Dashboard(ctx)
}

func (h CLIHandler) LoadMore(ctx context.Context) (sessiondto.HistoryOutput, error) {
	return h.usecase.LoadMore(ctx)
}

func (h CLIHandler) History(ctx context.Context) sessiondto.HistoryOutput {
	return h.usecase.History(ctx)
}

func (h CLIHandler) Show(ctx context.Context, sessionID string) (sessiondto.DetailOutput, error) {
	return h.usecase.Show(ctx, sessionID)
}

func (h CLIHandler) Delete(ctx context.Context, sessionID string) (sessiondto.DeleteOutput, error) {
	return h.usecase.Delete(ctx, sessionID)
}

func (h CLIHandler) Export(ctx context.Context, sessionID, format string) (string, error) {
	return h.usecase.Export(ctx, sessiondto.ExportInput{SessionID: sessionID, Format: format})
}

func (h CLIHandler) ExportNote(ctx context.Context, sessionID, dir string) (sessiondto.ExportNoteOutput, error) {
	return h.usecase.ExportNote(ctx, sessiondto.ExportNoteInput{SessionID: sessionID, Dir: dir})
}
