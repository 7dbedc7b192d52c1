package out

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"miso/internal/modules/voice/domain"
	voiceout "miso/internal/modules/voice/port/out"
	apperrors "miso/internal/platform/errors"
	"miso/internal/platform/logging"
)

const defaultRoomConnectTimeout = 15 * time.Second

// TransportError reports a failed websocket operation against the room.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("room %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type roomFrame struct {
	Type             string  `json:"type"`
	Room             string  `json:"room,omitempty"`
	Identity         string  `json:"identity,omitempty"`
	Kind             string  `json:"kind,omitempty"`
	Joined           bool    `json:"joined,omitempty"`
	State            string  `json:"state,omitempty"`
	Level            float64 `json:"level,omitempty"`
	Message          string  `json:"message,omitempty"`
	Reason           string  `json:"reason,omitempty"`
	Source           string  `json:"source,omitempty"`
	PreConnectBuffer bool    `json:"pre_connect_buffer,omitempty"`
}

// roomConn is one live websocket connection to the room.
type roomConn struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
}

// WebSocketRoom signals the room over a websocket at <server>/rtc. Only the
// signalling plane is handled here.
type WebSocketRoom struct {
	dialer  *websocket.Dialer
	timeout time.Duration
	log     zerolog.Logger

	mu       sync.Mutex
	current  *roomConn
	handlers map[int]func(domain.RoomEvent)
	nextID   int
}

func NewWebSocketRoom(timeout time.Duration) *WebSocketRoom {
	if timeout <= 0 {
		timeout = defaultRoomConnectTimeout
	}
	return &WebSocketRoom{
		dialer:   &websocket.Dialer{HandshakeTimeout: timeout},
		timeout:  timeout,
		log:      logging.Module("room"),
		handlers: map[int]func(domain.RoomEvent){},
	}
}

var _ voiceout.Room = (*WebSocketRoom)(nil)

func (r *WebSocketRoom) Connect(ctx context.Context, serverURL, token string) error {
	wsURL, err := rtcURL(serverURL, token)
	if err != nil {
		return err
	}
	redacted := strings.SplitN(wsURL, "?", 2)[0]

	dialCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	conn, resp, err := r.dialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return &TransportError{Op: "dial", URL: redacted, Err: fmt.Errorf("status %d: %w", resp.StatusCode, err)}
		}
		return &TransportError{Op: "dial", URL: redacted, Err: err}
	}

	_ = conn.SetReadDeadline(time.Now().Add(r.timeout))
	first := roomFrame{}
	if err := conn.ReadJSON(&first); err != nil {
		_ = conn.Close()
		return &TransportError{Op: "join", URL: redacted, Err: err}
	}
	_ = conn.SetReadDeadline(time.Time{})
	switch first.Type {
	case "join":
	case "error":
		_ = conn.Close()
		return &TransportError{Op: "join", URL: redacted, Err: errors.New(first.Message)}
	default:
		_ = conn.Close()
		return &TransportError{Op: "join", URL: redacted, Err: fmt.Errorf("unexpected first frame %q", first.Type)}
	}

	rc := &roomConn{conn: conn}
	r.mu.Lock()
	previous := r.current
	r.current = rc
	r.mu.Unlock()
	if previous != nil {
		previous.close(&roomFrame{Type: "leave"})
	}
	r.log.Debug().Str("room", first.Room).Str("url", redacted).Msg("joined room")
	go r.readLoop(rc)
	return nil
}

func (r *WebSocketRoom) EnableMicrophone(_ context.Context, opts voiceout.MicrophoneOptions) error {
	rc := r.active()
	if rc == nil {
		return apperrors.ErrNotConnected
	}
	return rc.sendJSON(roomFrame{Type: "publish_track", Kind: "audio", Source: "microphone", PreConnectBuffer: opts.PreConnectBuffer})
}

// Disconnect leaves the room. It does not wait for the read loop, so event
// handlers may call it.
func (r *WebSocketRoom) Disconnect() error {
	r.mu.Lock()
	rc := r.current
	r.current = nil
	r.mu.Unlock()
	if rc == nil {
		return nil
	}
	rc.close(&roomFrame{Type: "leave"})
	return nil
}

func (r *WebSocketRoom) Subscribe(handler func(domain.RoomEvent)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.handlers[id] = handler
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.handlers, id)
		r.mu.Unlock()
	}
}

func (r *WebSocketRoom) active() *roomConn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *WebSocketRoom) readLoop(rc *roomConn) {
	for {
		frame := roomFrame{}
		if err := rc.conn.ReadJSON(&frame); err != nil {
			if rc.closed.Load() {
				return
			}
			reason := "connection lost"
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				reason = "server closed"
			} else {
				r.log.Debug().Err(err).Msg("room read failed")
			}
			r.detach(rc)
			r.emit(domain.RoomEvent{Kind: domain.EventDisconnected, Reason: reason})
			return
		}
		if event, ok := toEvent(frame); ok {
			r.emit(event)
		}
		if frame.Type == "leave" {
			r.detach(rc)
			rc.close(nil)
			return
		}
	}
}

func (r *WebSocketRoom) detach(rc *roomConn) {
	r.mu.Lock()
	if r.current == rc {
		r.current = nil
	}
	r.mu.Unlock()
}

func (r *WebSocketRoom) emit(event domain.RoomEvent) {
	r.mu.Lock()
	handlers := make([]func(domain.RoomEvent), 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.mu.Unlock()
	for _, h := range handlers {
		h(event)
	}
}

func toEvent(f roomFrame) (domain.RoomEvent, bool) {
	switch f.Type {
	case "participant":
		kind := domain.EventParticipantLeft
		if f.Joined {
			kind = domain.EventParticipantJoined
		}
		return domain.RoomEvent{Kind: kind, Participant: f.Identity}, true
	case "agent_state":
		return domain.RoomEvent{Kind: domain.EventAgentStateChanged, AgentState: domain.AgentState(f.State)}, true
	case "audio_level":
		return domain.RoomEvent{Kind: domain.EventAudioLevel, Participant: f.Identity, Level: f.Level}, true
	case "device_error":
		return domain.RoomEvent{Kind: domain.EventMediaDeviceError, Err: errors.New(f.Message)}, true
	case "leave":
		return domain.RoomEvent{Kind: domain.EventDisconnected, Reason: f.Reason}, true
	default:
		return domain.RoomEvent{}, false
	}
}

func (c *roomConn) sendJSON(v any) error {
	if c.closed.Load() {
		return apperrors.ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// close marks the connection closed before writing the optional final frame
// so the read loop treats the resulting EOF as local.
func (c *roomConn) close(final *roomFrame) {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.writeMu.Lock()
		if final != nil {
			_ = c.conn.WriteJSON(final)
		}
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(2*time.Second))
		c.writeMu.Unlock()
		_ = c.conn.Close()
	})
}

// rtcURL maps an http(s) or ws(s) server URL to its /rtc signalling
// endpoint with the access token in the query.
func rtcURL(serverURL, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse room url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("%w: unsupported room url scheme %q", apperrors.ErrInvalidInput, u.Scheme)
	}
	u.Path += "/rtc"
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
