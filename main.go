// Command goose-game starts the Game of Goose server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Every flag can also be set from the environment (or a .env file), and an
// optional ngrok tunnel makes the server reachable for phones scanning the
// join QR code.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/goose-game/api"
	"github.com/wricardo/goose-game/game/config"
	"github.com/wricardo/goose-game/game/highscore"
	"github.com/wricardo/goose-game/game/service"
	"github.com/wricardo/goose-game/game/session"
	"github.com/wricardo/goose-game/transport/mcp"
	"github.com/wricardo/goose-game/transport/websocket"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Game of Goose Server"
)

const (
	cleanupInterval  = time.Hour
	syncInterval     = 5 * time.Second
	shutdownTimeout  = 10 * time.Second
	externalProbeURL = "http://localhost:8080"
)

// appConfig is the resolved set of flags
type appConfig struct {
	Host          string
	Port          int
	ConfigDir     string
	SessionsDir   string
	HighScoreFile string
	SessionTTL    time.Duration
	Debug         bool
	NgrokEnabled  bool
	NgrokAuth     string
	NgrokDomain   string
	PublicURL     string
}

func (c appConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// services bundles what the transports and background routines share
type services struct {
	game        service.GameService
	sessions    *session.Manager
	persistence session.SessionPersistence
}

func main() {
	// A missing .env is fine; anything else is worth a warning
	envErr := godotenv.Load()

	if err := newApp(envErr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

// newApp builds the command tree. The root command runs the HTTP server.
func newApp(envErr error) *cli.Command {
	return &cli.Command{
		Name:    "goose-game",
		Usage:   AppName,
		Version: Version,
		Flags:   appFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runWithServices(ctx, cmd, envErr, runHTTPServer)
		},
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runWithServices(ctx, cmd, envErr, runHTTPServer)
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runWithServices(ctx, cmd, envErr, runStdioMCPWithInternalServer)
				},
			},
		},
	}
}

func appFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "HTTP server port",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "HTTP server host",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.StringFlag{
			Name:    "config-dir",
			Value:   "configs",
			Usage:   "Directory containing board configurations",
			Sources: cli.EnvVars("CONFIG_DIR"),
		},
		&cli.StringFlag{
			Name:    "sessions-dir",
			Value:   "sessions",
			Usage:   "Directory where game sessions are persisted",
			Sources: cli.EnvVars("SESSIONS_DIR"),
		},
		&cli.StringFlag{
			Name:    "highscore-file",
			Value:   "highscores.json",
			Usage:   "File holding the top-10 table",
			Sources: cli.EnvVars("HIGHSCORE_FILE"),
		},
		&cli.DurationFlag{
			Name:    "session-ttl",
			Value:   24 * time.Hour,
			Usage:   "Drop sessions from memory after this long without access",
			Sources: cli.EnvVars("SESSION_TTL"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("DEBUG"),
		},
		&cli.BoolFlag{
			Name:    "ngrok",
			Usage:   "Enable ngrok tunnel",
			Sources: cli.EnvVars("NGROK_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "ngrok-domain",
			Usage:   "Custom ngrok domain (optional)",
			Sources: cli.EnvVars("NGROK_DOMAIN"),
		},
		&cli.StringFlag{
			Name:    "public-url",
			Usage:   "Base URL encoded in join QR codes (defaults to the request host)",
			Sources: cli.EnvVars("PUBLIC_URL"),
		},
	}
}

// configFromCommand reads the resolved flag values
func configFromCommand(cmd *cli.Command) appConfig {
	return appConfig{
		Host:          cmd.String("host"),
		Port:          cmd.Int("port"),
		ConfigDir:     cmd.String("config-dir"),
		SessionsDir:   cmd.String("sessions-dir"),
		HighScoreFile: cmd.String("highscore-file"),
		SessionTTL:    cmd.Duration("session-ttl"),
		Debug:         cmd.Bool("debug"),
		NgrokEnabled:  cmd.Bool("ngrok"),
		NgrokAuth:     cmd.String("ngrok-auth"),
		NgrokDomain:   cmd.String("ngrok-domain"),
		PublicURL:     cmd.String("public-url"),
	}
}

// newLogger returns a development logger in debug mode and a production one
// otherwise. Both write to stderr, which keeps stdout free for MCP stdio.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type runFunc func(ctx context.Context, cfg appConfig, svc *services, logger *zap.Logger) error

// runWithServices sets up logging and services, runs the mode until a signal
// arrives, and flushes sessions to disk on the way out.
func runWithServices(ctx context.Context, cmd *cli.Command, envErr error, run runFunc) error {
	cfg := configFromCommand(cmd)

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	switch {
	case envErr == nil:
		logger.Info("Loaded environment variables from .env file")
	case !errors.Is(envErr, os.ErrNotExist):
		logger.Warn("Error loading .env file", zap.Error(envErr))
	}

	logger.Info("Starting server",
		zap.String("app", AppName),
		zap.String("version", Version),
		zap.String("mode", cmd.Name))

	svc, err := initializeServices(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sessionCleanupRoutine(ctx, svc.sessions, cfg.SessionTTL, logger)
	}()
	go func() {
		defer wg.Done()
		filesystemSyncRoutine(ctx, svc.sessions, svc.persistence, logger)
	}()

	runErr := run(ctx, cfg, svc, logger)

	stop()
	wg.Wait()

	if err := svc.sessions.SaveAllSessions(); err != nil {
		logger.Warn("Failed to save sessions on shutdown", zap.Error(err))
	}
	return runErr
}

// initializeServices wires the config, session and high-score stores into the
// game service and restores sessions persisted by a previous run.
func initializeServices(cfg appConfig, logger *zap.Logger) (*services, error) {
	configManager, err := config.NewManager(cfg.ConfigDir, logger.Named("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(cfg.SessionsDir, configManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence, session.WithLogger(logger.Named("session")))
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		logger.Warn("Failed to load persisted sessions", zap.Error(err))
	}

	scores := highscore.NewFileStore(cfg.HighScoreFile, logger.Named("highscore"))

	return &services{
		game:        service.NewGameService(sessionManager, configManager, scores, logger.Named("service")),
		sessions:    sessionManager,
		persistence: persistence,
	}, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				logger.Info("Cleaned up expired sessions", zap.Int("count", removed))
			}
		}
	}
}

// filesystemSyncRoutine periodically drops sessions from memory whose files
// were deleted on disk.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, logger *zap.Logger) {
	if persistence == nil {
		return
	}

	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pruned := pruneOrphans(manager, persistence, logger); pruned > 0 {
				logger.Info("Filesystem sync pruned orphaned sessions", zap.Int("count", pruned))
			}
		}
	}
}

// pruneOrphans removes every in-memory session without a backing file
func pruneOrphans(manager *session.Manager, persistence session.SessionPersistence, logger *zap.Logger) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			logger.Debug("Pruned session from memory (file deleted)", zap.String("session_id", sess.ID))
		}
	}
	return pruned
}

// mcpHandler serves single JSON-RPC messages against the MCP server over HTTP
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an
// /mcp endpoint. With ngrok enabled it also serves through a public tunnel.
func runHTTPServer(ctx context.Context, cfg appConfig, svc *services, logger *zap.Logger) error {
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	opts := []api.Option{api.WithLogger(logger.Named("api"))}
	if cfg.PublicURL != "" {
		opts = append(opts, api.WithPublicURL(cfg.PublicURL))
	}
	apiServer := api.NewServer(svc.game, hub, opts...)

	addr := cfg.addr()
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient.GetMCPServer()))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", fmt.Sprintf("http://%s/api", addr)),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var wg sync.WaitGroup
	if cfg.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg, mainRouter, apiServer, logger.Named("ngrok"))
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err = <-serveErr:
		if err != nil {
			err = fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(shutdownErr))
	}

	wg.Wait()
	logger.Info("Server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx ends and
// points join QR codes at the tunnel URL.
func runNgrokTunnel(ctx context.Context, cfg appConfig, handler http.Handler, apiServer *api.Server, logger *zap.Logger) {
	if cfg.NgrokAuth == "" {
		logger.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if cfg.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.NgrokDomain))
		logger.Info("Using custom ngrok domain", zap.String("domain", cfg.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	logger.Info("Starting ngrok tunnel")
	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.NgrokAuth))
	if err != nil {
		logger.Error("Failed to start ngrok tunnel", zap.Error(err))
		return
	}

	ngrokURL := tun.URL()
	if cfg.PublicURL == "" {
		apiServer.SetPublicURL(ngrokURL)
	}
	logger.Info("Ngrok tunnel established",
		zap.String("url", ngrokURL),
		zap.String("api", ngrokURL+"/api"),
		zap.String("mcp", ngrokURL+"/mcp"))

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("Failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("Ngrok server error", zap.Error(err))
	}
	logger.Info("Ngrok tunnel closed")
}

// externalServerAvailable reports whether a game server answers /health at baseURL
func externalServerAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the API on a random loopback port and returns its base URL
func startInternalServer(ctx context.Context, svc *services, logger *zap.Logger) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	httpServer := &http.Server{
		Handler: api.NewServer(svc.game, hub, api.WithLogger(logger.Named("api"))),
	}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Internal HTTP server error", zap.Error(err))
		}
	}()

	baseURL := "http://" + listener.Addr().String()
	logger.Info("Started internal HTTP server for MCP stdio", zap.String("addr", baseURL))
	return baseURL, httpServer, nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses a server
// already running on localhost:8080 and otherwise starts an internal one.
func runStdioMCPWithInternalServer(ctx context.Context, cfg appConfig, svc *services, logger *zap.Logger) error {
	baseURL := externalProbeURL
	if externalServerAvailable(ctx, externalProbeURL) {
		logger.Info("External API server found, using it for MCP", zap.String("url", externalProbeURL))
	} else {
		logger.Info("No external API server found, starting internal HTTP server")

		internalURL, httpServer, err := startInternalServer(ctx, svc, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()
		baseURL = internalURL
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.Info("MCP stdio server ready", zap.String("api", baseURL))

	stdio := server.NewStdioServer(mcpClient.GetMCPServer())
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
