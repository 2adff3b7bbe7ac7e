// Package app wires calpane's pieces together: configuration, session
// storage, the OAuth manager, cloud-backed config storage, the preference
// stores, and the HTTP routes the viewer talks to.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/calpane/calpane/internal/auth"
	"github.com/calpane/calpane/internal/cloudstore"
	"github.com/calpane/calpane/internal/config"
	"github.com/calpane/calpane/internal/crypto"
	"github.com/calpane/calpane/internal/handler"
	"github.com/calpane/calpane/internal/model"
	"github.com/calpane/calpane/internal/popup"
	"github.com/calpane/calpane/internal/provider"
	"github.com/calpane/calpane/internal/provider/googleidentity"
	"github.com/calpane/calpane/internal/session"
	"github.com/calpane/calpane/internal/store"
)

const deviceIDFile = "device-id"

// App holds the wired application. Build one with New, serve Routes, and
// call Close on shutdown so pending config writes flush cleanly.
type App struct {
	cfg *config.Config

	manager    *auth.Manager
	remote     cloudstore.Store
	reconciler *store.Reconciler
	scheduler  *store.Scheduler

	authHandler   *handler.AuthHandler
	configHandler *handler.ConfigHandler
	prefsHandler  *handler.PrefsHandler
}

// New initializes the application dependencies.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return nil, fmt.Errorf("unable to create state dir: %w", err)
	}

	deviceID, err := loadOrCreateDeviceID(cfg.StateDir)
	if err != nil {
		return nil, err
	}

	storage, err := buildSessionStorage(cfg)
	if err != nil {
		return nil, err
	}

	// Consent windows open in the system browser; the tracker captures the
	// ones pointed at the identity provider so repeated sign-in attempts
	// focus the existing window instead of opening another.
	tracker := popup.NewTracker(googleidentity.ProviderHost)
	open := tracker.Wrap(popup.ExecOpener)

	google := googleidentity.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.RedirectURL, open)
	factory := func() provider.Client {
		if cfg.GoogleClientID == "" {
			return nil
		}
		return google
	}

	manager := auth.NewManager(cfg.GoogleClientID, factory, tracker, storage)
	manager.Initialize(
		func(_ model.SessionToken) {
			log.Info().Msg("signed in")
		},
		func(err error) {
			log.Warn().Err(err).Msg("auth flow failed")
		},
	)

	remote, err := buildRemoteStore(ctx, cfg, manager)
	if err != nil {
		return nil, err
	}

	// The stores call back into the scheduler on local mutations, and the
	// scheduler flushes through the reconciler, which reads the stores.
	// Declare the scheduler first so the mutation hook can close over it.
	var scheduler *store.Scheduler
	onMutate := func() {
		if scheduler != nil {
			scheduler.Schedule()
		}
	}

	categories := store.NewCategoryStore(onMutate)
	filters := store.NewFilterStore(onMutate)
	calendars := store.NewCalendarStore(onMutate)
	display := store.NewDisplayStore()

	reconciler := store.NewReconciler(categories, filters, calendars, remote, deviceID)
	scheduler = store.NewScheduler(0, reconciler.FlushFunc(context.Background()))

	return &App{
		cfg:           cfg,
		manager:       manager,
		remote:        remote,
		reconciler:    reconciler,
		scheduler:     scheduler,
		authHandler:   handler.NewAuthHandler(manager, google, cfg.JWTSecret, cfg.FrontendURL),
		configHandler: handler.NewConfigHandler(reconciler, remote, cfg.JWTSecret),
		prefsHandler:  handler.NewPrefsHandler(categories, filters, calendars, display, cfg.JWTSecret),
	}, nil
}

// Routes returns the HTTP handler for the local API the viewer talks to.
func (a *App) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /auth/login", a.authHandler.Login)
	mux.HandleFunc("GET /auth/callback", a.authHandler.Callback)
	mux.HandleFunc("POST /auth/logout", a.authHandler.Logout)
	mux.HandleFunc("GET /auth/status", a.authHandler.Status)
	mux.HandleFunc("POST /auth/drive", a.authHandler.DriveConsent)

	mux.HandleFunc("POST /config/sync", a.configHandler.Sync)
	mux.HandleFunc("POST /config/push", a.configHandler.Push)
	mux.HandleFunc("DELETE /config", a.configHandler.Delete)
	mux.HandleFunc("GET /config/access", a.configHandler.Access)

	mux.HandleFunc("/prefs/categories", a.prefsHandler.Categories)
	mux.HandleFunc("POST /prefs/categories/restore", a.prefsHandler.RestoreCategory)
	mux.HandleFunc("/prefs/filters", a.prefsHandler.Filters)
	mux.HandleFunc("/prefs/calendars", a.prefsHandler.Calendars)
	mux.HandleFunc("/prefs/display", a.prefsHandler.Display)

	return a.cors(mux)
}

// Close flushes any pending config write and stops the scheduler.
func (a *App) Close() {
	a.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.reconciler.Push(ctx); err != nil {
		var se *cloudstore.StoreError
		// Skip the noise when nobody ever signed in.
		if errors.As(err, &se) && se.Code == http.StatusUnauthorized {
			return
		}
		log.Warn().Err(err).Msg("final config flush failed")
	}
}

// cors allows the viewer frontend to call the local API with credentials.
func (a *App) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", a.cfg.FrontendURL)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loadOrCreateDeviceID returns the stable per-install identifier stamped
// into every config snapshot, creating it on first run.
func loadOrCreateDeviceID(stateDir string) (string, error) {
	path := filepath.Join(stateDir, deviceIDFile)
	if data, err := os.ReadFile(path); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	}
	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("unable to persist device id: %w", err)
	}
	return id, nil
}

func buildSessionStorage(cfg *config.Config) (session.Storage, error) {
	if !cfg.PersistSession {
		return session.NewMemoryStorage(), nil
	}
	enc, err := crypto.NewAESEncryptor(cfg.StateDir)
	if err != nil {
		return nil, err
	}
	fs, err := session.NewFileStorage(cfg.StateDir, enc)
	if err != nil {
		return nil, err
	}
	log.Info().Str("dir", cfg.StateDir).Msg("persisting session to disk")
	return fs, nil
}

// buildRemoteStore picks Drive-backed storage when OAuth credentials are
// configured and falls back to an in-memory store otherwise, so the app
// stays usable for local development without a Google project.
func buildRemoteStore(ctx context.Context, cfg *config.Config, manager *auth.Manager) (cloudstore.Store, error) {
	if cfg.GoogleClientID == "" {
		log.Warn().Msg("no Google client configured, using in-memory config storage")
		return cloudstore.NewMemoryStore(manager, nil), nil
	}
	client := oauth2.NewClient(ctx, &managerTokenSource{manager: manager})
	online := cloudstore.DialProbe("www.googleapis.com:443")
	return cloudstore.NewDriveStore(ctx, client, manager, online)
}

// managerTokenSource adapts the auth manager's session token to the shape
// the Drive HTTP client expects. It never refreshes; once the token lapses
// the manager clears it and calls fail with an auth error until the user
// signs in again.
type managerTokenSource struct {
	manager *auth.Manager
}

func (s *managerTokenSource) Token() (*oauth2.Token, error) {
	tok, ok := s.manager.Token()
	if !ok {
		return nil, errors.New("not signed in")
	}
	return &oauth2.Token{
		AccessToken: tok.AccessToken,
		TokenType:   "Bearer",
		Expiry:      time.UnixMilli(tok.ExpiresAt),
	}, nil
}
