// Package cli implements the dashboard command line client. Each command
// works on an explicit session object that is initialised on start and torn
// down on logout.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"study_dashboard/internal/client"
	"study_dashboard/internal/session"
)

// Config is read from the environment.
type Config struct {
	APIURL      string `env:"STUDYDASH_API_URL" envDefault:"http://localhost:8080"`
	SessionFile string `env:"STUDYDASH_SESSION_FILE"`
	LogLevel    string `env:"STUDYDASH_LOG_LEVEL" envDefault:"warn"`
}

// LoadConfig parses the environment and fills in the default session path.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if cfg.SessionFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.SessionFile = filepath.Join(home, ".studydash", "session.json")
	}
	return cfg, nil
}

// PasswordReader reads a password without echo.
type PasswordReader func(prompt string) (string, error)

// TerminalPassword prompts on stderr and reads from the terminal on stdin.
func TerminalPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// App wires the API client and the session together.
type App struct {
	api          *client.Client
	session      *session.Session
	out          io.Writer
	logger       *zerolog.Logger
	readPassword PasswordReader
}

// NewApp creates an App. The session must already be initialised.
func NewApp(api *client.Client, sess *session.Session, out io.Writer, logger *zerolog.Logger, readPassword PasswordReader) *App {
	return &App{api: api, session: sess, out: out, logger: logger, readPassword: readPassword}
}

var ErrUsage = errors.New("usage: studydash <register|login|dashboard|whoami|logout> [flags]")

// Run executes one command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "register":
		return a.register(ctx, args[1:])
	case "login":
		return a.login(ctx, args[1:])
	case "dashboard":
		return a.dashboard(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "logout":
		return a.logout()
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], ErrUsage)
	}
}

func (a *App) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(a.out)
	username := fs.String("u", "", "username")
	email := fs.String("e", "", "email")
	password := fs.String("p", "", "password (prompted when omitted)")
	role := fs.String("r", "", "role: student, mentor or admin (default student)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw, err := a.passwordOrPrompt(*password)
	if err != nil {
		return err
	}

	user, err := a.api.Register(ctx, client.RegisterRequest{
		Username: strings.TrimSpace(*username),
		Email:    strings.TrimSpace(*email),
		Password: pw,
		Role:     strings.TrimSpace(*role),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "registered %s <%s> as %s\n", user.Username, user.Email, user.Role)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("e", "", "email")
	password := fs.String("p", "", "password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pw, err := a.passwordOrPrompt(*password)
	if err != nil {
		return err
	}

	res, err := a.api.Login(ctx, strings.TrimSpace(*email), pw)
	if err != nil {
		return err
	}
	if err := a.session.Save(res.Token, res.User.Role); err != nil {
		return err
	}

	d := a.session.Resolve()
	fmt.Fprintf(a.out, "logged in as %s (%s), redirect %s\n", res.User.Username, res.User.Role, d.Redirect)
	return nil
}

func (a *App) dashboard(ctx context.Context) error {
	d := a.session.Resolve()
	if d.State != session.Authenticated {
		a.logger.Debug().Err(d.Reason).Msg("session guard denied")
		fmt.Fprintf(a.out, "not logged in, redirect %s\n", d.Redirect)
		return nil
	}

	token, _, err := a.session.Token()
	if err != nil {
		return err
	}

	view, err := a.api.Dashboard(ctx, token, d.Redirect)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintf(a.out, "session rejected by server, run login again\n")
			return a.session.Teardown()
		}
		return err
	}

	fmt.Fprintf(a.out, "%s dashboard for %s <%s>\n", view.View, view.User.Username, view.User.Email)
	return nil
}

func (a *App) whoami(ctx context.Context) error {
	token, ok, err := a.session.Token()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}

	user, err := a.api.Me(ctx, token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> role=%s id=%s\n", user.Username, user.Email, user.Role, user.ID)
	return nil
}

func (a *App) logout() error {
	if err := a.session.Teardown(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *App) passwordOrPrompt(given string) (string, error) {
	if given != "" || a.readPassword == nil {
		return given, nil
	}
	return a.readPassword("Password: ")
}
