package out

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"miso/internal/modules/voice/domain"
	voiceout "miso/internal/modules/voice/port/out"
	"miso/internal/platform/apiclient"
	apperrors "miso/internal/platform/errors"
)

type credentialAPI interface {
	CreateSession(ctx context.Context, in apiclient.CreateSessionRequest) apiclient.Result[apiclient.SessionCredential]
	ResumeSession(ctx context.Context, sessionID string) apiclient.Result[apiclient.SessionCredential]
}

type APICredentials struct {
	api credentialAPI
}

func NewAPICredentials(api credentialAPI) voiceout.CredentialSource {
	return &APICredentials{api: api}
}

func (c *APICredentials) Create(ctx context.Context) (domain.Credential, error) {
	return toCredential(c.api.CreateSession(ctx, apiclient.CreateSessionRequest{}))
}

func (c *APICredentials) Resume(ctx context.Context, sessionID string) (domain.Credential, error) {
	return toCredential(c.api.ResumeSession(ctx, sessionID))
}

func toCredential(res apiclient.Result[apiclient.SessionCredential]) (domain.Credential, error) {
	if err := res.Err(); err != nil {
		var apiErr *apiclient.Error
		if errors.As(err, &apiErr) {
			switch apiErr.Status {
			case http.StatusUnauthorized:
				return domain.Credential{}, fmt.Errorf("%w: %w", apperrors.ErrNotAuthenticated, err)
			case http.StatusNotFound:
				return domain.Credential{}, fmt.Errorf("%w: %w", apperrors.ErrNotFound, err)
			}
		}
		return domain.Credential{}, err
	}
	if res.Data.Token == "" {
		return domain.Credential{}, apperrors.ErrNoSessionData
	}
	return domain.Credential{
		RoomName:          res.Data.RoomName,
		Token:             res.Data.Token,
		SessionID:         res.Data.SessionID,
		IsResume:          res.Data.IsResume,
		PreviousSessionID: res.Data.PreviousSessionID,
	}, nil
}
