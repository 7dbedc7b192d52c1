package apiclient

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

type AuthResponse struct {
	Message string `json:"message,omitempty"`
	User    User   `json:"user"`
}

type CreateSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type sessionIDRequest struct {
	SessionID string `json:"session_id"`
}

// SessionCredential is what the backend hands out to join a room.
type SessionCredential struct {
	RoomName          string `json:"room_name"`
	Token             string `json:"token"`
	SessionID         string `json:"session_id"`
	IsResume          bool   `json:"is_resume,omitempty"`
	PreviousSessionID string `json:"previous_session_id,omitempty"`
}

type DeleteSessionResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type SessionSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	StartedAt string   `json:"started_at"`
	Status    string   `json:"status"`
	MoodScore *float64 `json:"mood_score,omitempty"`
	Duration  *float64 `json:"duration,omitempty"`
}

type MonthGroup struct {
	MonthName string           `json:"month_name"`
	MonthKey  string           `json:"month_key"`
	Sessions  []SessionSummary `json:"sessions"`
}

type Pagination struct {
	CurrentPage int  `json:"current_page"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	HasNext     bool `json:"has_next"`
	HasPrev     bool `json:"has_prev"`
}

type UserSessionsResponse struct {
	SessionsByMonth []MonthGroup `json:"sessions_by_month"`
	Pagination      Pagination   `json:"pagination"`
}

type SessionData struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	StartedAt           string   `json:"started_at"`
	Status              string   `json:"status,omitempty"`
	Duration            *float64 `json:"duration,omitempty"`
	MoodScore           *float64 `json:"mood_score,omitempty"`
	EngagementScore     *float64 `json:"engagement_score,omitempty"`
	WordCount           *int     `json:"word_count,omitempty"`
	Summary             string   `json:"summary,omitempty"`
	KeyTopics           []string `json:"key_topics,omitempty"`
	PrimaryEmotions     []string `json:"primary_emotions,omitempty"`
	BreakthroughMoments string   `json:"breakthrough_moments,omitempty"`
}

type SessionDataResponse struct {
	Session SessionData `json:"session"`
}
