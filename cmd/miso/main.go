package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"miso/internal/bootstrap"
	sessiondto "miso/internal/modules/session/dto"
	voicedto "miso/internal/modules/voice/dto"
	"miso/internal/platform/config"
	apperrors "miso/internal/platform/errors"
	"miso/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "miso",
		Short:         "Voice companion client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/miso/config.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug|info|warn|error")

	root.AddCommand(newSignInCmd(flags))
	root.AddCommand(newSignUpCmd(flags))
	root.AddCommand(newLogoutCmd(flags))
	root.AddCommand(newWhoAmICmd(flags))
	root.AddCommand(newSessionCmd(flags))
	root.AddCommand(newTUICmd(flags))
	return root
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.New(flags.configFile)
	if err != nil {
		return config.Config{}, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, nil
}

func loadApp(flags *globalFlags, opts ...bootstrap.Option) (*bootstrap.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logging.Setup(os.Stderr, cfg.LogLevel)
	return bootstrap.New(cfg, opts...)
}

// ─── auth ────────────────────────────────────────────────────────────────────

func newSignInCmd(flags *globalFlags) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin --email <email>",
		Short: "Sign in to the companion backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("--email is required")
			}
			pw, err := passwordOrPrompt(cmd, password)
			if err != nil {
				return err
			}
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			user, err := app.AuthCLI.SignIn(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", displayName(user.Username, user.Email), user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	return cmd
}

func newSignUpCmd(flags *globalFlags) *cobra.Command {
	var email, password, username string
	cmd := &cobra.Command{
		Use:   "signup --email <email> --username <name>",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("--email is required")
			}
			pw, err := passwordOrPrompt(cmd, password)
			if err != nil {
				return err
			}
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.AuthCLI.SignUp(cmd.Context(), email, pw, username)
			if err != nil {
				return err
			}
			if out.Message != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Message)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed up as %s (%s)\n", displayName(out.User.Username, out.User.Email), out.User.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	cmd.Flags().StringVar(&username, "username", "", "display name")
	return cmd
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			app.AuthCLI.Logout(cmd.Context())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoAmICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			user, err := app.AuthCLI.Current(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "id: %s\nemail: %s\nusername: %s\n", user.ID, user.Email, user.Username)
			return nil
		},
	}
}

// ─── sessions ────────────────────────────────────────────────────────────────

func newSessionCmd(flags *globalFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Voice sessions and their history"}

	var resume string
	start := &cobra.Command{
		Use:   "start [--resume <id|last>]",
		Short: "Start or resume a voice session; Ctrl-C ends it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, bootstrap.WithTerminal(cmd.InOrStdin(), cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			last := voicedto.SnapshotOutput{}
			err = app.VoiceCLI.Run(ctx, strings.TrimSpace(resume), func(s voicedto.SnapshotOutput) {
				mu.Lock()
				defer mu.Unlock()
				if s.State != last.State || s.AgentState != last.AgentState {
					line := "state=" + s.State + " agent=" + s.AgentState
					if s.SessionID != "" {
						line += " session=" + s.SessionID
					}
					_, _ = fmt.Fprintln(out, line)
				}
				last = s
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, "session ended")
			return nil
		},
	}
	start.Flags().StringVar(&resume, "resume", "", "session id to resume, or \"last\"")

	var page, pageSize int
	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List past sessions by month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if pageSize > 0 {
				cfg.PageSize = pageSize
			}
			logging.Setup(os.Stderr, cfg.LogLevel)
			app, err := bootstrap.New(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			history, err := app.SessionCLI.Dashboard(ctx)
			if err != nil {
				return err
			}
			for history.HasNext && (all || history.CurrentPage < page) {
				history, err = app.SessionCLI.LoadMore(ctx)
				if err != nil {
					if errors.Is(err, apperrors.ErrNoMorePages) {
						break
					}
					return err
				}
			}
			printHistory(cmd.OutOrStdout(), history)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "load pages up to this one")
	list.Flags().IntVar(&pageSize, "page-size", 0, "sessions per page (default from config)")
	list.Flags().BoolVar(&all, "all", false, "load every page")

	var format string
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a session's summary and metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			rendered, err := app.SessionCLI.Export(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), rendered)
			if !strings.HasSuffix(rendered, "\n") {
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
	show.Flags().StringVar(&format, "format", "text", "output format: text|yaml|markdown")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.SessionCLI.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			msg := out.Message
			if msg == "" {
				msg = "session deleted"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", msg, out.SessionID)
			return nil
		},
	}

	var dir string
	exportNote := &cobra.Command{
		Use:   "export-note <id> --dir <path>",
		Short: "Write the session as a markdown note, keeping your own edits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(dir) == "" {
				return fmt.Errorf("--dir is required")
			}
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.SessionCLI.ExportNote(cmd.Context(), args[0], dir)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s note=%s\n", out.SessionID, out.Path)
			return nil
		},
	}
	exportNote.Flags().StringVar(&dir, "dir", "", "notes directory")

	session.AddCommand(start, list, show, del, exportNote)
	return session
}

// ─── tui ─────────────────────────────────────────────────────────────────────

func newTUICmd(flags *globalFlags) *cobra.Command {
	var resume string
	cmd := &cobra.Command{
		Use:   "tui [--resume <id|last>]",
		Short: "Run the miso terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			// Log lines would tear the alternate screen, so they go to a file.
			logFile, err := openLogFile(cfg.DataDir)
			if err != nil {
				logging.Discard()
			} else {
				defer logFile.Close()
				logging.Setup(logFile, cfg.LogLevel)
			}
			app, err := bootstrap.New(cfg, bootstrap.ForTUI())
			if err != nil {
				return err
			}
			defer app.Close()
			reason, err := bootstrap.RunTUI(app, strings.TrimSpace(resume))
			if err != nil {
				return err
			}
			if reason != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), reason+"; run `miso signin` to continue")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&resume, "resume", "", "session id to resume, or \"last\"")
	return cmd
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func passwordOrPrompt(cmd *cobra.Command, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	if env := os.Getenv("MISO_PASSWORD"); env != "" {
		return env, nil
	}
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("%w: password is required", apperrors.ErrInvalidInput)
	}
	return line, nil
}

func printHistory(w io.Writer, h sessiondto.HistoryOutput) {
	if h.Warning != "" {
		_, _ = fmt.Fprintln(w, "warning: "+h.Warning)
	}
	if len(h.Groups) == 0 {
		_, _ = fmt.Fprintln(w, "no sessions")
		return
	}
	shown := 0
	for _, g := range h.Groups {
		_, _ = fmt.Fprintln(w, g.MonthName)
		for _, s := range g.Sessions {
			shown++
			title := s.Title
			if title == "" {
				title = "Untitled session"
			}
			minutes := "-"
			if s.Duration != nil {
				minutes = fmt.Sprintf("%.0fmin", *s.Duration/60)
			}
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", s.ID, s.StartedAt.Format("Jan 02 15:04"), minutes, s.Status, title)
		}
	}
	more := ""
	if h.HasNext {
		more = " (more with --page or --all)"
	}
	_, _ = fmt.Fprintf(w, "%d of %d sessions%s\n", shown, h.TotalCount, more)
}

func displayName(username, email string) string {
	if username != "" {
		return username
	}
	return email
}

func openLogFile(dataDir string) (*os.File, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dataDir, "miso.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
}
