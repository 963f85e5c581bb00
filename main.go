// Command retro-snake plays and serves the Retro Snake game.
//
// Commands:
//  1. "play" (default) – opens the desktop window
//  2. "term" – plays in the terminal
//  3. "serve" – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  4. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  5. "presets" – lists the presets in the config directory
//
// Flags control host/port, config directory, preset, seed, debug logging,
// and optional ngrok tunneling for easy external access during development.
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
	"text/tabwriter"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/retro-snake/api"
	"github.com/wricardo/retro-snake/game/config"
	"github.com/wricardo/retro-snake/game/engine"
	"github.com/wricardo/retro-snake/game/service"
	"github.com/wricardo/retro-snake/game/session"
	"github.com/wricardo/retro-snake/transport/mcp"
	"github.com/wricardo/retro-snake/transport/websocket"
	"github.com/wricardo/retro-snake/ui/desktop"
	"github.com/wricardo/retro-snake/ui/terminal"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Retro Snake"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
)

func main() {
	// Load .env before flags so its values feed the env sources
	envErr := godotenv.Load()

	// Logging is reconfigured per command in setupLogging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if envErr == nil {
		log.Debug().Msg("loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("error loading .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("retro-snake failed")
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "retro-snake",
		Usage:   "single-player snake for the desktop, the terminal and the network",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing preset JSON files", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "preset", Value: config.DefaultPreset, Usage: "preset to play", Sources: cli.EnvVars("PRESET")},
			&cli.Int64Flag{Name: "seed", Usage: "food placement seed (0 keeps the preset's)", Sources: cli.EnvVars("SEED")},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging", Sources: cli.EnvVars("DEBUG")},
		},
		Action: runDesktop,
		Commands: []*cli.Command{
			{
				Name:   "play",
				Usage:  "play in a desktop window",
				Action: runDesktop,
			},
			{
				Name:  "term",
				Usage: "play in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "log-file", Value: "retro-snake.log", Usage: "where logs go while the screen is in use"},
				},
				Action: runTerminal,
			},
			{
				Name:  "serve",
				Usage: "run the HTTP server with REST API, WebSocket and MCP endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
					&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
					&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
				},
				Action: runServe,
			},
			{
				Name:  "mcp",
				Usage: "run an MCP stdio server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: "http://localhost:8080", Usage: "API server to reuse when it is running", Sources: cli.EnvVars("SNAKE_URL")},
				},
				Action: runStdioMCP,
			},
			{
				Name:   "presets",
				Usage:  "list the presets in the config directory",
				Action: runPresets,
			},
		},
	}
}

// setupLogging points the global logger at out and sets the level
func setupLogging(out io.Writer, debug, color bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: !color})
}

// loadEngine builds an engine for local play from the selected preset
func loadEngine(cmd *cli.Command) (*engine.GameEngine, error) {
	configs, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	cfg, err := configs.LoadConfig(cmd.String("preset"))
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", cmd.String("preset"), err)
	}
	if seed := cmd.Int64("seed"); seed != 0 {
		cfg.Seed = seed
	}

	log.Info().Str("config", cfg.Name).Int("tick_rate", cfg.TickRate).Int64("seed", cfg.Seed).Msg("preset loaded")
	return engine.NewEngine(cfg)
}

func runDesktop(ctx context.Context, cmd *cli.Command) error {
	setupLogging(os.Stderr, cmd.Bool("debug"), true)

	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	score, err := desktop.Run(eng)
	if err != nil {
		return fmt.Errorf("desktop: %w", err)
	}
	log.Info().Int("score", score).Msg("bye")
	return nil
}

func runTerminal(ctx context.Context, cmd *cli.Command) error {
	logFile, err := os.OpenFile(cmd.String("log-file"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	setupLogging(logFile, cmd.Bool("debug"), false)

	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	score, err := terminal.New(screen, eng).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Final score: %d\n", score)
	return nil
}

func runPresets(ctx context.Context, cmd *cli.Command) error {
	setupLogging(os.Stderr, cmd.Bool("debug"), true)

	configs, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return fmt.Errorf("failed to create config manager: %w", err)
	}
	return printPresets(os.Stdout, configs)
}

// printPresets writes one line per preset
func printPresets(w io.Writer, configs service.ConfigManager) error {
	infos, err := configs.ListConfigs()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTICKS/S\tTAIL\tDESCRIPTION")
	for _, info := range infos {
		tail := "free"
		if info.StrictTailCollision {
			tail = "strict"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", info.ConfigID, info.Name, info.TickRate, tail, info.Description)
	}
	return tw.Flush()
}

// services bundles what initializeServices wires together
type services struct {
	game     service.GameService
	sessions *session.Manager
	hub      *websocket.Hub
}

// initializeServices wires session/config managers, the WebSocket hub and the
// game service. The hub receives every snapshot the service produces and
// forwards browser input back into it.
func initializeServices(configDir string) (*services, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManager()
	hub := websocket.NewHub()
	gameService := service.NewGameService(sessionManager, configManager, hub)

	hub.SetInputHandler(func(sessionID, event string) {
		if _, err := gameService.Input(context.Background(), sessionID, event); err != nil {
			log.Warn().Err(err).Str("session", sessionID).Str("event", event).Msg("websocket input rejected")
		}
	})
	go hub.Run()

	return &services{
		game:     gameService,
		sessions: sessionManager,
		hub:      hub,
	}, nil
}

// newRouter mounts the API and the /mcp endpoint. The MCP tools call back
// into the API at baseURL.
func newRouter(svc *services, baseURL string) http.Handler {
	apiServer := api.NewServer(svc.game, svc.hub)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
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

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})

	return mainRouter
}

// runServe starts the HTTP server with REST API, WebSocket hub, and an /mcp endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runServe(ctx context.Context, cmd *cli.Command) error {
	setupLogging(os.Stderr, cmd.Bool("debug"), true)

	svc, err := initializeServices(cmd.String("config-dir"))
	if err != nil {
		return err
	}
	defer svc.game.Shutdown()

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	handler := newRouter(svc, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessionCleanupRoutine(ctx, svc.sessions)

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().Str("addr", addr).Msgf("%s v%s listening", AppName, Version)
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serveErr:
		stop()
		wg.Wait()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return nil
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.Info().Str("domain", domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	log.Info().Str("url", url).Msg("🚀 ngrok tunnel established")
	log.Info().Msgf("  REST API (ngrok): %s/api", url)
	log.Info().Msgf("  WebSocket (ngrok): %s/ws?session=<session_id>", url)
	log.Info().Msgf("  MCP endpoint (ngrok): %s/mcp", url)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within sessionMaxAge. Their clocks stop on the next tick.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); len(removed) > 0 {
				log.Info().Int("count", len(removed)).Strs("sessions", removed).Msg("cleaned up expired sessions")
			}
		}
	}
}

// apiReachable reports whether an API server answers at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCP runs an MCP stdio server. It reuses an API server at --api-url
// when one is running; otherwise it starts an internal one on a random
// loopback port and targets that. Logs go to stderr since stdout carries the
// protocol.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	setupLogging(os.Stderr, cmd.Bool("debug"), false)

	baseURL := cmd.String("api-url")
	log.Info().Str("url", baseURL).Msg("checking for external API server")

	if apiReachable(baseURL) {
		log.Info().Str("url", baseURL).Msg("external API server found, using it for MCP")
	} else {
		log.Info().Msg("no external API server found, starting internal HTTP server")

		svc, err := initializeServices(cmd.String("config-dir"))
		if err != nil {
			return err
		}
		defer svc.game.Shutdown()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		httpServer := &http.Server{Handler: api.NewServer(svc.game, svc.hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		log.Info().Str("url", baseURL).Msg("internal HTTP server started")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Msg("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
