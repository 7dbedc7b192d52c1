package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"miso/internal/modules/voice/domain"
	voiceout "miso/internal/modules/voice/port/out"
	"miso/internal/platform/clock"
	apperrors "miso/internal/platform/errors"
	"miso/internal/platform/logging"
)

const DefaultAgentTimeout = 20 * time.Second

type Config struct {
	ServerURL    string
	AgentTimeout time.Duration
}

type Deps struct {
	Room        voiceout.Room
	Microphone  voiceout.Microphone
	Credentials voiceout.CredentialSource
	Notifier    voiceout.Notifier
	LastSession voiceout.LastSessionStore
	Clock       clock.Clock
}

// Controller owns the lifecycle of one voice session at a time.
//
// A single compare-and-swap gate admits one connection attempt whether it
// comes from Activate or RequestResume. Every room callback and watchdog
// timer is bound to the generation it was created in and is ignored once
// that generation has been torn down.
type Controller struct {
	cfg  Config
	deps Deps
	log  zerolog.Logger

	attempt atomic.Bool

	mu          sync.Mutex
	state       domain.ConnectionState
	agentState  domain.AgentState
	audioLevel  float64
	sessionID   string
	generation  uint64
	watchdog    clock.Timer
	unsubscribe func()
	resumed     map[string]struct{}
	listeners   map[int]func(domain.Snapshot)
	nextID      int
	closed      bool
}

func NewController(cfg Config, deps Deps) *Controller {
	if cfg.AgentTimeout <= 0 {
		cfg.AgentTimeout = DefaultAgentTimeout
	}
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	return &Controller{
		cfg:        cfg,
		deps:       deps,
		log:        logging.Module("voice"),
		state:      domain.StateIdle,
		agentState: domain.AgentDisconnected,
		resumed:    map[string]struct{}{},
		listeners:  map[int]func(domain.Snapshot){},
	}
}

// Activate is the start/end toggle. When connected it ends the session. When
// idle it runs a new connection attempt. While an attempt is in flight it
// does nothing.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.ErrControllerClosed
	}
	if c.state == domain.StateConnected {
		gen := c.generation
		c.mu.Unlock()
		c.teardown(gen, true)
		return nil
	}
	c.mu.Unlock()

	if !c.attempt.CompareAndSwap(false, true) {
		return nil
	}
	defer c.attempt.Store(false)
	return c.connect(ctx, "")
}

// RequestResume is the externally supplied resume trigger. It starts a
// resume attempt for sessionID when the controller is idle and no attempt is
// in flight. Each id triggers at most once; the return value reports whether
// this call triggered it.
func (c *Controller) RequestResume(ctx context.Context, sessionID string) (bool, error) {
	return c.resume(ctx, sessionID, true)
}

// Resume is the user-initiated resume. It shares the attempt gate with
// Activate and RequestResume but may rejoin the same id any number of times.
func (c *Controller) Resume(ctx context.Context, sessionID string) (bool, error) {
	return c.resume(ctx, sessionID, false)
}

func (c *Controller) resume(ctx context.Context, sessionID string, once bool) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, apperrors.ErrControllerClosed
	}
	if _, seen := c.resumed[sessionID]; (once && seen) || c.state != domain.StateIdle {
		c.mu.Unlock()
		return false, nil
	}
	if !c.attempt.CompareAndSwap(false, true) {
		c.mu.Unlock()
		return false, nil
	}
	if once {
		c.resumed[sessionID] = struct{}{}
	}
	c.mu.Unlock()

	defer c.attempt.Store(false)
	return true, c.connect(ctx, sessionID)
}

// Disconnect ends the current session or aborts the attempt in flight.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	gen := c.generation
	active := c.state != domain.StateIdle
	c.mu.Unlock()
	if active {
		c.teardown(gen, true)
	}
}

// Close tears down any session and drops all listeners. Further calls to
// Activate or RequestResume fail with apperrors.ErrControllerClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	gen := c.generation
	active := c.state != domain.StateIdle
	c.mu.Unlock()
	if active {
		c.teardown(gen, true)
	}
	c.mu.Lock()
	c.listeners = map[int]func(domain.Snapshot){}
	c.mu.Unlock()
}

func (c *Controller) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for every state change until stop is called.
func (c *Controller) Subscribe(fn func(domain.Snapshot)) (stop func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Controller) connect(ctx context.Context, resumeID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apperrors.ErrControllerClosed
	}
	c.generation++
	gen := c.generation
	c.state = domain.StateConnecting
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)

	granted, err := c.deps.Microphone.RequestPermission(ctx)
	if err != nil || !granted {
		c.log.Warn().Err(err).Msg("microphone permission not granted")
		c.notify(domain.Notice{Kind: domain.NoticePermissionDenied, Message: domain.MessagePermissionDenied, Err: err})
		c.teardown(gen, false)
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrMicrophoneDenied, err)
		}
		return apperrors.ErrMicrophoneDenied
	}

	if !c.current(gen) {
		return apperrors.ErrNotConnected
	}
	if c.cfg.ServerURL == "" {
		c.notify(domain.Notice{Kind: domain.NoticeConnectionFailed, Message: domain.MessageStartFailed, Err: apperrors.ErrRoomURLMissing})
		c.teardown(gen, false)
		return apperrors.ErrRoomURLMissing
	}

	cred, err := c.credential(ctx, resumeID)
	if err != nil {
		c.log.Error().Err(err).Str("resume_id", resumeID).Msg("session credential request failed")
		c.notify(domain.Notice{Kind: domain.NoticeCredentialFailed, Message: domain.MessageStartFailed, Err: err})
		c.teardown(gen, false)
		return err
	}

	unsubscribe := c.deps.Room.Subscribe(func(e domain.RoomEvent) { c.handleEvent(gen, e) })
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		unsubscribe()
		return apperrors.ErrNotConnected
	}
	c.sessionID = cred.SessionID
	c.unsubscribe = unsubscribe
	snap = c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)

	if err := c.deps.Room.Connect(ctx, c.cfg.ServerURL, cred.Token); err != nil {
		return c.failConnection(gen, fmt.Errorf("connect room: %w", err))
	}
	if err := c.deps.Room.EnableMicrophone(ctx, voiceout.MicrophoneOptions{PreConnectBuffer: true}); err != nil {
		return c.failConnection(gen, fmt.Errorf("enable microphone: %w", err))
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		if err := c.deps.Room.Disconnect(); err != nil {
			c.log.Debug().Err(err).Msg("disconnect after aborted attempt")
		}
		return apperrors.ErrNotConnected
	}
	c.state = domain.StateConnected
	c.agentState = domain.AgentConnecting
	c.watchdog = c.deps.Clock.AfterFunc(c.cfg.AgentTimeout, func() { c.onWatchdog(gen) })
	snap = c.snapshotLocked()
	c.mu.Unlock()

	c.log.Info().Str("session_id", cred.SessionID).Str("room", cred.RoomName).Bool("resume", cred.IsResume).Msg("session connected")
	c.rememberSession(ctx, cred)
	c.publish(snap)
	return nil
}

func (c *Controller) credential(ctx context.Context, resumeID string) (domain.Credential, error) {
	var (
		cred domain.Credential
		err  error
	)
	if resumeID != "" {
		cred, err = c.deps.Credentials.Resume(ctx, resumeID)
	} else {
		cred, err = c.deps.Credentials.Create(ctx)
	}
	if err != nil {
		return domain.Credential{}, err
	}
	if cred.Expired(c.deps.Clock.Now()) {
		return domain.Credential{}, apperrors.ErrCredentialExpired
	}
	return cred, nil
}

func (c *Controller) failConnection(gen uint64, err error) error {
	if !c.current(gen) {
		if derr := c.deps.Room.Disconnect(); derr != nil {
			c.log.Debug().Err(derr).Msg("disconnect after aborted attempt")
		}
		return apperrors.ErrNotConnected
	}
	c.log.Error().Err(err).Msg("session connection failed")
	c.notify(domain.Notice{Kind: domain.NoticeConnectionFailed, Message: domain.MessageStartFailed, Err: err})
	c.teardown(gen, true)
	return err
}

func (c *Controller) handleEvent(gen uint64, e domain.RoomEvent) {
	switch e.Kind {
	case domain.EventDisconnected:
		c.log.Info().Str("reason", e.Reason).Msg("room disconnected")
		c.teardown(gen, false)
	case domain.EventMediaDeviceError:
		if !c.current(gen) {
			return
		}
		c.log.Warn().Err(e.Err).Msg("media device error")
		c.notify(domain.Notice{Kind: domain.NoticeDeviceError, Message: deviceMessage(e.Err), Err: e.Err})
		c.teardown(gen, true)
	case domain.EventAgentStateChanged:
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return
		}
		c.agentState = e.AgentState
		if e.AgentState.Available() && c.watchdog != nil {
			c.watchdog.Stop()
			c.watchdog = nil
		}
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.publish(snap)
	case domain.EventAudioLevel:
		c.mu.Lock()
		if gen != c.generation {
			c.mu.Unlock()
			return
		}
		c.audioLevel = e.Level
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.publish(snap)
	case domain.EventParticipantJoined, domain.EventParticipantLeft:
		c.log.Debug().Str("participant", e.Participant).Str("event", string(e.Kind)).Msg("participant update")
	}
}

func (c *Controller) onWatchdog(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.state != domain.StateConnected || c.agentState.Available() {
		c.mu.Unlock()
		return
	}
	message := domain.MessageAgentNotReady
	if c.agentState == domain.AgentConnecting || c.agentState == domain.AgentDisconnected {
		message = domain.MessageAgentNeverJoined
	}
	agentState := c.agentState
	c.watchdog = nil
	c.mu.Unlock()

	c.log.Warn().Str("agent_state", string(agentState)).Msg(message)
	c.notify(domain.Notice{Kind: domain.NoticeAgentTimeout, Message: message})
	c.teardown(gen, true)
}

// teardown returns the controller to idle if gen is still current. It stops
// the watchdog, releases the room subscription and clears the session id.
func (c *Controller) teardown(gen uint64, disconnectRoom bool) {
	c.mu.Lock()
	if gen != c.generation || c.state == domain.StateIdle {
		c.mu.Unlock()
		return
	}
	c.generation++
	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	wasConnected := c.state == domain.StateConnected
	snaps := []domain.Snapshot{}
	if wasConnected {
		c.state = domain.StateDisconnected
		snaps = append(snaps, c.snapshotLocked())
	}
	c.state = domain.StateIdle
	c.sessionID = ""
	c.agentState = domain.AgentDisconnected
	c.audioLevel = 0
	snaps = append(snaps, c.snapshotLocked())
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if disconnectRoom {
		if err := c.deps.Room.Disconnect(); err != nil {
			c.log.Debug().Err(err).Msg("room disconnect")
		}
	}
	for _, snap := range snaps {
		c.publish(snap)
	}
}

func (c *Controller) rememberSession(ctx context.Context, cred domain.Credential) {
	if c.deps.LastSession == nil || cred.SessionID == "" {
		return
	}
	last := domain.LastSession{SessionID: cred.SessionID, RoomName: cred.RoomName, ConnectedAt: c.deps.Clock.Now()}
	if err := c.deps.LastSession.Save(ctx, last); err != nil {
		c.log.Warn().Err(err).Msg("failed to remember last session")
	}
}

func (c *Controller) current(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.generation
}

func (c *Controller) snapshotLocked() domain.Snapshot {
	return domain.Snapshot{
		SessionStarted: c.state == domain.StateConnected,
		IsConnecting:   c.state == domain.StateConnecting,
		SessionID:      c.sessionID,
		State:          c.state,
		AgentState:     c.agentState,
		AudioLevel:     c.audioLevel,
	}
}

func (c *Controller) publish(snap domain.Snapshot) {
	c.mu.Lock()
	fns := make([]func(domain.Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (c *Controller) notify(n domain.Notice) {
	if c.deps.Notifier != nil {
		c.deps.Notifier.Notify(n)
	}
}

func deviceMessage(err error) string {
	if err == nil {
		return "Media device error"
	}
	return "Media device error: " + err.Error()
}
