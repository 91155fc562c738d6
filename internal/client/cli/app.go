package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/storefront/internal/client/client"
	"github.com/dmitrijs2005/storefront/internal/client/config"
	"github.com/dmitrijs2005/storefront/internal/client/render"
	"github.com/dmitrijs2005/storefront/internal/client/services"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	onlineCheckInterval = 30 * time.Second
	pingTimeout         = 3 * time.Second
	// account commands wait this long for the stored session to load
	hydrationWait = 5 * time.Second
)

type App struct {
	config   *config.Config
	db       *sql.DB
	api      client.Client
	session  *services.SessionManager
	content  *services.ContentService
	renderer *render.Renderer
	logger   logging.Logger
	reader   *bufio.Reader
	out      io.Writer

	modeMu sync.RWMutex
	mode   Mode
}

// NewApp opens the local store at c.DBPath and wires the API client and
// services. The stored session is read later, in Run.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewTextSlogLogger(os.Stderr, c.LogLevel)

	db, err := client.OpenDB(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	api := client.NewHTTPClient(c.APIURL, c.RequestTimeout, logger)
	return newApp(c, db, api, logger, render.StyleAuto, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, db *sql.DB, api client.Client, logger logging.Logger, style string, in io.Reader, out io.Writer) *App {
	return &App{
		config:   c,
		db:       db,
		api:      api,
		session:  services.NewSessionManager(api, db, logger),
		content:  services.NewContentService(api, logger),
		renderer: render.New(c.ViewportWidth, style, api.AbsoluteURL),
		logger:   logger,
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

// Run restores the stored session in the background and serves the REPL
// until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	defer a.db.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := a.session.Restore(ctx); err != nil {
			a.logger.Warn(ctx, "could not restore session", "error", err)
		}
	}()
	go a.StartOnlineStatusWatcher(ctx, onlineCheckInterval)

	fmt.Fprintln(a.out, "Welcome to Storefront (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) Mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.logger.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := a.api.Ping(pctx); err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// StartOnlineStatusWatcher probes the API health endpoint every interval
// and keeps Mode current. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) getStatus() string {
	s := ""
	if u := a.session.User(); u != nil {
		s = u.Username + " "
	}
	s += string(a.Mode())
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
