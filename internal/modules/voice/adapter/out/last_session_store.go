package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"miso/internal/modules/voice/domain"
	voiceout "miso/internal/modules/voice/port/out"
	apperrors "miso/internal/platform/errors"
)

type FileLastSessionStore struct {
	path string
}

func NewFileLastSessionStore(dataDir string) voiceout.LastSessionStore {
	return &FileLastSessionStore{path: filepath.Join(dataDir, "last-session.json")}
}

func (s *FileLastSessionStore) Save(_ context.Context, last domain.LastSession) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	payload, err := json.MarshalIndent(last, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal last session: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o600); err != nil {
		return fmt.Errorf("write last session: %w", err)
	}
	return nil
}

func (s *FileLastSessionStore) Load(_ context.Context) (domain.LastSession, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.LastSession{}, apperrors.ErrNoLastSession
		}
		return domain.LastSession{}, fmt.Errorf("read last session: %w", err)
	}
	last := domain.LastSession{}
	if err := json.Unmarshal(payload, &last); err != nil {
		return domain.LastSession{}, fmt.Errorf("decode last session: %w", err)
	}
	if last.SessionID == "" {
		return domain.LastSession{}, apperrors.ErrNoLastSession
	}
	return last, nil
}

func (s *FileLastSessionStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear last session: %w", err)
	}
	return nil
}
