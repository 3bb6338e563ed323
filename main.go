package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/resuminds/config"
	database "github.com/drummonds/resuminds/database"
	_ "github.com/drummonds/resuminds/docs"
	engine "github.com/drummonds/resuminds/engine"
	"github.com/drummonds/resuminds/storage"
	"github.com/drummonds/resuminds/webapp"
)

//go:embed webapp/webapp.css
var webappFS embed.FS

//go:embed public/404.html
var publicFS embed.FS

// webDir holds app.wasm and wasm_exec.js, built with
// GOARCH=wasm GOOS=js go build -o web/app.wasm ./cmd/webapp
const webDir = "web"

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	database.Logger = Logger
	config.Logger = Logger
	engine.Logger = Logger
	storage.Logger = Logger
}

// @title Resuminds API
// @version 1.0
// @description Resume upload, first page preview and review feedback
// @BasePath /api
func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	// Show info banner if using ephemeral database
	if serverConfig.DatabaseType == "ephemeral" {
		fmt.Println("\n" + strings.Repeat("=", 50))
		fmt.Println("🚀  EPHEMERAL DATABASE MODE")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("• Database will be destroyed on exit")
		fmt.Println("• Uploaded resumes stay in the storage folder")
		fmt.Println(strings.Repeat("=", 50) + "\n")
	}

	Logger.Info("Setting up database", "type", serverConfig.DatabaseType)
	db, err := database.NewRepository(serverConfig)
	if err != nil {
		Logger.Error("Database setup failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	Logger.Info("Database setup complete")

	kv, err := setupKV(serverConfig, db)
	if err != nil {
		Logger.Error("Key-value store setup failed", "backend", serverConfig.KVBackend, "error", err)
		os.Exit(1)
	}

	e, serverHandler, err := newServer(serverConfig, db, kv)
	if err != nil {
		Logger.Error("Server setup failed", "error", err)
		os.Exit(1)
	}
	defer serverHandler.StopSchedules()
	defer serverHandler.Loader.Close()

	if serverConfig.ListenAddrIP == "" {
		Logger.Info("No Ip Addr set, binding on ALL addresses")
	}

	Logger.Info("Starting HTTP server")

	// Try to start server with automatic port increment if port is in use
	maxRetries := 5
	startPort := serverConfig.ListenAddrPort
	var startErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)

		startErr = e.Start(addr)

		if startErr != nil && isAddressInUse(startErr) {
			Logger.Warn("Port already in use, trying next port",
				"port", serverConfig.ListenAddrPort,
				"attempt", attempt+1,
				"max_attempts", maxRetries)

			portNum := 0
			fmt.Sscanf(serverConfig.ListenAddrPort, "%d", &portNum)
			portNum++
			serverConfig.ListenAddrPort = fmt.Sprintf("%d", portNum)

			if attempt == maxRetries-1 {
				Logger.Error("Failed to find available port after maximum retries",
					"start_port", startPort,
					"end_port", serverConfig.ListenAddrPort,
					"max_retries", maxRetries)
				os.Exit(1)
			}
		} else if startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
			Logger.Error("Failed to start server", "error", startErr)
			os.Exit(1)
		} else {
			break
		}
	}

	if serverConfig.ListenAddrPort != startPort {
		Logger.Warn("Server started on alternative port due to conflicts",
			"requested_port", startPort,
			"actual_port", serverConfig.ListenAddrPort)
	}
}

// setupKV returns the store resume records live in, redis or the database itself
func setupKV(serverConfig config.ServerConfig, db database.Repository) (database.KeyValueStore, error) {
	if serverConfig.KVBackend != config.KVBackendRedis {
		return db, nil
	}
	Logger.Info("Using redis for resume records")
	return database.NewRedisKV(context.Background(), serverConfig.RedisURL)
}

// newServer wires storage, the renderer, cron jobs and every route onto a new echo instance
func newServer(serverConfig config.ServerConfig, db database.Repository, kv database.KeyValueStore) (*echo.Echo, *engine.ServerHandler, error) {
	store, err := storage.NewLocal(serverConfig.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening storage: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = notFoundHandler(e)
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))

	serverHandler := &engine.ServerHandler{DB: db, KV: kv, Store: store, Echo: e, ServerConfig: serverConfig}
	serverHandler.SetupRenderer()
	if err := serverHandler.StartupChecks(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("startup checks: %w", err)
	}
	Logger.Info("Startup checks complete")
	serverHandler.InitializeSchedules()
	serverHandler.RegisterRoutes()

	registerFrontend(e, serverConfig)
	return e, serverHandler, nil
}

// notFoundHandler answers unknown API paths with JSON and everything else with the 404 page
func notFoundHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		if code != http.StatusNotFound {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}

		if strings.HasPrefix(c.Request().URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, map[string]string{
				"error":   "Not Found",
				"message": "The requested API endpoint does not exist",
				"path":    c.Request().URL.Path,
			})
			return
		}

		if data, err := publicFS.ReadFile("public/404.html"); err == nil {
			c.HTMLBlob(http.StatusNotFound, data)
			return
		}
		c.HTML(http.StatusNotFound, `<h1>404 - Page Not Found</h1><a href="/">← Back to homepage</a>`)
	}
}

// registerFrontend serves the go-app shell, its assets and the runtime config
func registerFrontend(e *echo.Echo, serverConfig config.ServerConfig) {
	Logger.Info("Setting up go-app WASM UI")
	appHandler := webapp.Handler()

	// go-app expects wasm_exec.js at the root
	e.File("/wasm_exec.js", webDir+"/wasm_exec.js")
	e.Static("/web", webDir)

	e.GET("/app.js", echo.WrapHandler(appHandler))
	e.GET("/app.css", echo.WrapHandler(appHandler))
	e.GET("/manifest.webmanifest", echo.WrapHandler(appHandler))

	e.GET("/webapp/webapp.css", func(c echo.Context) error {
		data, err := webappFS.ReadFile("webapp/webapp.css")
		if err != nil {
			return c.String(http.StatusNotFound, "webapp.css not found")
		}
		return c.Blob(http.StatusOK, "text/css", data)
	})

	e.GET("/config.js", func(c echo.Context) error {
		c.Response().Header().Set("Content-Type", "application/javascript")
		return c.String(http.StatusOK, configJS(serverConfig.FrontEndConfig))
	})

	// The WASM app handles its own client-side routing and 404s via NotFoundPage
	e.Any("/*", echo.WrapHandler(appHandler))
}

// configJS is the script that hands the backend location to the browser
func configJS(frontEnd config.FrontEndConfig) string {
	return fmt.Sprintf(`
// resuminds Frontend Configuration
window.resuminds_config = {
    apiURL: %q,
    recentResumeCount: %d
};
`, frontEnd.ServerAPIURL, frontEnd.RecentResumeCount)
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "address already in use")
}
