package in

import (
	"context"

	"miso/internal/modules/session/dto"
)

type Usecase interface {
	Dashboard(ctx context.Context) (dto.HistoryOutput, error)
	LoadMore(ctx context.Context) (dto.HistoryOutput, error)
	History(ctx context.Context) dto.HistoryOutput
	Show(ctx context.Context, sessionID string) (dto.DetailOutput, error)
	Delete(ctx context.Context, sessionID string) (dto.DeleteOutput, error)
	Export(ctx context.Context, input dto.ExportInput) (string, error)
	ExportNote(ctx context.Context, input dto.ExportNoteInput) (dto.ExportNoteOutput, error)
}
