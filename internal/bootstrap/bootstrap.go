package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	authinadapter "miso/internal/modules/auth/adapter/in"
	authoutadapter "miso/internal/modules/auth/adapter/out"
	authservice "miso/internal/modules/auth/service"
	authusecase "miso/internal/modules/auth/usecase"
	sessioninadapter "miso/internal/modules/session/adapter/in"
	sessionoutadapter "miso/internal/modules/session/adapter/out"
	sessionservice "miso/internal/modules/session/service"
	sessionusecase "miso/internal/modules/session/usecase"
	voiceinadapter "miso/internal/modules/voice/adapter/in"
	voiceoutadapter "miso/internal/modules/voice/adapter/out"
	voicedomain "miso/internal/modules/voice/domain"
	voiceservice "miso/internal/modules/voice/service"
	voiceusecase "miso/internal/modules/voice/usecase"
	"miso/internal/platform/apiclient"
	"miso/internal/platform/authctx"
	"miso/internal/platform/clock"
	"miso/internal/platform/config"
	"miso/internal/platform/cookiestore"
	"miso/internal/platform/logging"
	"miso/internal/platform/sqlite"
	uiapp "miso/internal/ui/app"
	voiceview "miso/internal/ui/views/voice"
)

type App struct {
	AuthCLI    authinadapter.CLIHandler
	SessionCLI sessioninadapter.CLIHandler
	VoiceCLI   voiceinadapter.CLIHandler

	auth    *authctx.Context
	notices *voiceoutadapter.ChannelNotifier
	db      *sql.DB
}

type options struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

type Option func(*options)

// WithTerminal sets where the microphone prompt reads and writes.
func WithTerminal(in io.Reader, out io.Writer) Option {
	return func(o *options) { o.in, o.out = in, out }
}

// ForTUI wires the app for the full-screen UI. Starting a session from the UI
// is the consent, so prompt mode does not read the terminal.
func ForTUI() Option {
	return func(o *options) { o.interactive = false }
}

func New(cfg config.Config, opts ...Option) (*App, error) {
	o := options{in: os.Stdin, out: os.Stderr, interactive: true}
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	clk := clock.SystemClock{}

	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	jar, err := cookiestore.New(ctx, db, clk)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("new cookie store: %w", err)
	}
	users, err := authoutadapter.NewSQLiteUserStore(ctx, db, clk)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("new user store: %w", err)
	}
	authLog := logging.Module("auth")
	authCtx := authctx.New(users, jar, authctx.NavigatorFunc(func(reason string) {
		authLog.Warn().Str("reason", reason).Msg("signed out, run `miso signin`")
	}))

	api := apiclient.New(cfg.APIBaseURL,
		apiclient.WithCookieJar(jar),
		apiclient.WithSessionExpirer(authCtx),
		apiclient.WithRequestTimeout(cfg.RequestTimeout),
	)

	authUC := authusecase.NewInteractor(authservice.NewAuthService(
		authoutadapter.NewAPIGateway(api),
		authCtx,
	))

	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewHistoryService(sessionoutadapter.NewAPIHistoryGateway(api), authCtx, cfg.PageSize),
		sessionoutadapter.NewDetailRenderer(),
		sessionoutadapter.NewMarkdownNoteStore(),
	)

	notices := voiceoutadapter.NewChannelNotifier(16)
	micMode := cfg.Microphone
	if !o.interactive && micMode == config.MicrophonePrompt {
		micMode = config.MicrophoneAllow
	}
	lastSession := voiceoutadapter.NewFileLastSessionStore(cfg.DataDir)
	controller := voiceservice.NewController(
		voiceservice.Config{ServerURL: cfg.RoomURL, AgentTimeout: cfg.AgentTimeout},
		voiceservice.Deps{
			Room:        voiceoutadapter.NewWebSocketRoom(0),
			Microphone:  voiceoutadapter.NewPolicyMicrophone(micMode, o.in, o.out),
			Credentials: voiceoutadapter.NewAPICredentials(api),
			Notifier: voiceoutadapter.MultiNotifier{
				voiceoutadapter.NewLogNotifier(logging.Module("voice")),
				notices,
			},
			LastSession: lastSession,
			Clock:       clk,
		},
	)
	voiceUC := voiceusecase.NewInteractor(controller, lastSession)

	return &App{
		AuthCLI:    authinadapter.NewCLIHandler(authUC),
		SessionCLI: sessioninadapter.NewCLIHandler(sessionUC),
		VoiceCLI:   voiceinadapter.NewCLIHandler(voiceUC),
		auth:       authCtx,
		notices:    notices,
		db:         db,
	}, nil
}

// Close ends any live session and releases the database.
func (a *App) Close() error {
	a.VoiceCLI.Close()
	return a.db.Close()
}

// RunTUI runs the full-screen UI until the user quits, resuming resumeID
// first when set. It returns the sign-out reason when the backend ended the
// sign-in.
func RunTUI(app *App, resumeID string) (string, error) {
	ctx := context.Background()
	user, err := app.AuthCLI.Current(ctx)
	if err != nil {
		return "", err
	}

	noticeMsgs := make(chan voiceview.NoticeMsg, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-done:
				return
			case n := <-app.notices.Notices():
				select {
				case noticeMsgs <- toNoticeMsg(n):
				case <-done:
					return
				}
			}
		}
	}()

	model := uiapp.NewModel(user.Username, app.VoiceCLI, app.SessionCLI, app.AuthCLI, noticeMsgs).WithResume(resumeID)
	program := tea.NewProgram(model, tea.WithAltScreen())
	app.auth.SetNavigator(authctx.NavigatorFunc(func(reason string) {
		go program.Send(uiapp.SignedOutMsg{Reason: reason})
	}))

	final, err := program.Run()
	if err != nil {
		return "", err
	}
	if m, ok := final.(uiapp.Model); ok {
		if reason, signedOut := m.SignedOut(); signedOut {
			return reason, nil
		}
	}
	return "", nil
}

func toNoticeMsg(n voicedomain.Notice) voiceview.NoticeMsg {
	return voiceview.NoticeMsg{Message: n.Message, Failure: n.Kind != voicedomain.NoticeDeviceError}
}
