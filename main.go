// Command vacuumworld runs the vacuum world planner.
//
// It supports three commands:
//  1. "serve" (default): HTTP server exposing the REST API, a WebSocket run feed and an /mcp endpoint
//  2. "mcp": MCP stdio server that proxies to an external API or spins up an internal one
//  3. "solve": solves instances from the config directory and prints the classic report
//
// Global flags control the config directory and debug logging; serve adds
// host/port, run retention, an optional run archive and ngrok tunneling.
package main

import (
	"context"
	"encoding/json"
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
	"github.com/jpillora/backoff"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/vacuumworld/api"
	"github.com/wricardo/mcp-training/vacuumworld/transport/mcp"
	"github.com/wricardo/mcp-training/vacuumworld/transport/websocket"
	"github.com/wricardo/mcp-training/vacuumworld/world/config"
	"github.com/wricardo/mcp-training/vacuumworld/world/runs"
	"github.com/wricardo/mcp-training/vacuumworld/world/service"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Vacuum World Planner"
)

var log = logrus.New()

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("error loading .env file")
		}
	} else {
		log.Debug("loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.WithError(err).Fatal("vacuumworld failed")
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:           "vacuumworld",
		Usage:          AppName,
		Version:        Version,
		DefaultCommand: "serve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing instance files",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd.Bool("debug"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			mcpCommand(),
			solveCommand(),
		},
	}
}

// setupLogging configures the package logger
func setupLogging(debug bool) {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server with REST API, WebSocket and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.DurationFlag{
				Name:  "run-ttl",
				Value: 24 * time.Hour,
				Usage: "how long finished runs are kept",
			},
			&cli.IntFlag{
				Name:  "max-runs",
				Value: 1000,
				Usage: "maximum number of runs kept in memory",
			},
			maxStatesFlag(),
			&cli.StringFlag{
				Name:    "runs-dir",
				Usage:   "directory to archive finished runs in (disabled when empty)",
				Sources: cli.EnvVars("RUNS_DIR"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runHTTPServer(ctx, serveOptions{
				Addr:        fmt.Sprintf("%s:%d", cmd.String("host"), int(cmd.Int("port"))),
				ConfigDir:   cmd.String("config-dir"),
				RunTTL:      cmd.Duration("run-ttl"),
				MaxRuns:     int(cmd.Int("max-runs")),
				RunsDir:     cmd.String("runs-dir"),
				MaxStates:   uint64(cmd.Uint("max-states")),
				Ngrok:       cmd.Bool("ngrok"),
				NgrokAuth:   cmd.String("ngrok-auth"),
				NgrokDomain: cmd.String("ngrok-domain"),
			})
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "run an MCP stdio server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				Usage:   "external API to reuse when reachable",
				Sources: cli.EnvVars("VACUUMWORLD_API_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStdioMCP(ctx, cmd.String("config-dir"), cmd.String("api-url"))
		},
	}
}

// maxStatesFlag bounds the state space of instances the server or CLI will search
func maxStatesFlag() cli.Flag {
	return &cli.UintFlag{
		Name:    "max-states",
		Value:   service.DefaultMaxStates,
		Usage:   "reject instances whose state space (cells x 2^dirt) exceeds this (0 = no limit)",
		Sources: cli.EnvVars("MAX_STATES"),
	}
}

// serveOptions collects the serve command's settings
type serveOptions struct {
	Addr        string
	ConfigDir   string
	RunTTL      time.Duration
	MaxRuns     int
	RunsDir     string
	MaxStates   uint64
	Ngrok       bool
	NgrokAuth   string
	NgrokDomain string
}

// initializeServices wires the config manager and solver service over store.
// Each finished run is published to hub when one is given.
func initializeServices(configDir string, store *runs.Store, hub *websocket.Hub, extra ...service.Option) (service.SolverService, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	opts := []service.Option{service.WithLogger(log)}
	if hub != nil {
		opts = append(opts, service.WithRunListener(hub.PublishRun))
	}
	opts = append(opts, extra...)

	return service.NewSolverService(configManager, store, opts...), nil
}

// newRunStore creates the run store, archiving to runsDir and reloading its
// history when runsDir is set
func newRunStore(maxRuns int, runsDir string) (*runs.Store, error) {
	if runsDir == "" {
		return runs.NewStoreWithLimit(maxRuns), nil
	}

	archive, err := runs.NewFileArchive(runsDir)
	if err != nil {
		return nil, err
	}
	store := runs.NewStoreWithArchive(maxRuns, archive)

	loaded, err := store.LoadArchived()
	if err != nil {
		return nil, fmt.Errorf("failed to load archived runs: %w", err)
	}
	log.WithFields(logrus.Fields{"dir": runsDir, "runs": loaded}).Info("loaded archived runs")
	return store, nil
}

// newHandler combines the API server with the /mcp endpoint
func newHandler(apiServer *api.Server, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
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

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter
}

// runHTTPServer serves the API, WebSocket feed and /mcp until ctx is cancelled.
// If ngrok is enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, opts serveOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	store, err := newRunStore(opts.MaxRuns, opts.RunsDir)
	if err != nil {
		return err
	}
	solver, err := initializeServices(opts.ConfigDir, store, hub, service.WithMaxStates(opts.MaxStates))
	if err != nil {
		return err
	}

	apiServer := api.NewServer(solver, hub, log)
	mcpClient := mcp.NewClient("http://" + opts.Addr)
	handler := newHandler(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.WithField("addr", opts.Addr).Info("HTTP server listening")
		log.Infof("REST API: http://%s/api", opts.Addr)
		log.Infof("WebSocket: ws://%s/ws?instance=<name>", opts.Addr)
		log.Infof("MCP endpoint: http://%s/mcp", opts.Addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- fmt.Errorf("HTTP server failed: %w", err)
			cancel()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runCleanupRoutine(ctx, store, opts.RunTTL)
	}()

	if opts.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, handler)
		}()
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("server stopped")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// runNgrokTunnel serves handler through an ngrok endpoint until ctx is done
func runNgrokTunnel(ctx context.Context, opts serveOptions, handler http.Handler) {
	if opts.NgrokAuth == "" {
		log.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.WithField("domain", opts.NgrokDomain).Info("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
	if err != nil {
		log.WithError(err).Error("failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.WithError(err).Warn("failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.WithField("url", ngrokURL).Info("ngrok tunnel established")
	log.Infof("  REST API (ngrok): %s/api", ngrokURL)
	log.Infof("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.WithError(err).Warn("ngrok server error")
	}
	log.Info("ngrok tunnel closed")
}

// runCleanupRoutine periodically forgets runs older than ttl
func runCleanupRoutine(ctx context.Context, store *runs.Store, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	interval := ttl / 24
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := store.CleanupExpired(ttl); removed > 0 {
				log.WithField("removed", removed).Info("cleaned up expired runs")
			}
		}
	}
}

// runStdioMCP runs an MCP stdio server. It reuses the API at apiURL when it
// answers; otherwise it starts an internal API on a random loopback port.
func runStdioMCP(ctx context.Context, configDir, apiURL string) error {
	baseURL := apiURL

	log.WithField("url", apiURL).Info("checking for external API server")
	if apiReachable(apiURL, 2*time.Second) {
		log.Info("external API server found, using it for MCP")
	} else {
		log.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		hub := websocket.NewHub(log)
		go hub.Run(ctx)

		solver, err := initializeServices(configDir, runs.NewStore(), hub)
		if err != nil {
			listener.Close()
			return err
		}

		httpServer := &http.Server{Handler: api.NewServer(solver, hub, log)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		if err := waitForAPI(ctx, baseURL, 10); err != nil {
			return err
		}
	}

	mcpClient := mcp.NewClient(baseURL)
	log.WithField("api", baseURL).Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// apiReachable reports whether the health endpoint at baseURL answers
func apiReachable(baseURL string, timeout time.Duration) bool {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// waitForAPI polls the health endpoint with exponential backoff
func waitForAPI(ctx context.Context, baseURL string, maxAttempts int) error {
	b := &backoff.Backoff{
		Min:    10 * time.Millisecond,
		Max:    500 * time.Millisecond,
		Factor: 2,
	}

	for {
		if apiReachable(baseURL, time.Second) {
			return nil
		}
		if int(b.Attempt()) >= maxAttempts {
			return fmt.Errorf("API at %s not ready after %d attempts", baseURL, maxAttempts)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
}
