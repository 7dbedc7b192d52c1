package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) SignIn(ctx context.Context, in SignInRequest) Result[AuthResponse] {
	return send[AuthResponse](ctx, c, request{method: http.MethodPost, path: "/auth/signin", body: in})
}

func (c *Client) SignUp(ctx context.Context, in SignUpRequest) Result[AuthResponse] {
	return send[AuthResponse](ctx, c, request{method: http.MethodPost, path: "/auth/signup", body: in})
}

func (c *Client) CreateSession(ctx context.Context, in CreateSessionRequest) Result[SessionCredential] {
	return send[SessionCredential](ctx, c, request{method: http.MethodPost, path: "/api/create-session", body: in, authenticated: true})
}

func (c *Client) ResumeSession(ctx context.Context, sessionID string) Result[SessionCredential] {
	return send[SessionCredential](ctx, c, request{method: http.MethodPost, path: "/api/resume-session", body: sessionIDRequest{SessionID: sessionID}, authenticated: true})
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) Result[DeleteSessionResponse] {
	return send[DeleteSessionResponse](ctx, c, request{method: http.MethodDelete, path: "/api/delete-session", body: sessionIDRequest{SessionID: sessionID}, authenticated: true})
}

func (c *Client) GetUserSessions(ctx context.Context, page, pageSize int) Result[UserSessionsResponse] {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	return send[UserSessionsResponse](ctx, c, request{method: http.MethodGet, path: "/api/user-sessions", query: query, authenticated: true})
}

func (c *Client) GetSessionData(ctx context.Context, sessionID string) Result[SessionDataResponse] {
	return send[SessionDataResponse](ctx, c, request{method: http.MethodGet, path: "/api/sessions/" + url.PathEscape(sessionID), authenticated: true})
}

// Logout invalidates the server session on a best-effort basis, then always
// clears local state and navigates to sign-in.
func (c *Client) Logout(ctx context.Context) {
	res := send[struct{}](ctx, c, request{method: http.MethodPost, path: "/auth/signout"})
	if !res.OK() {
		c.log.Warn().Str("error", res.Error).Int("status", res.Status).Msg("signout failed, clearing local state anyway")
	}
	if c.session != nil {
		c.session.Expire(ctx, "signed out")
	}
}
