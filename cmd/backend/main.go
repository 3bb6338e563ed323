package main

import (
	"context"
	"flag"
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
)

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

// @title resuminds Backend API
// @version 1.0
// @description Resume upload and first page preview service
// @description Stores each resume with its job details and review, and tracks rendering as a job

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @tag.name Resumes
// @tag.description Upload, preview and review storage

// @tag.name Jobs
// @tag.description Background job tracking

// @tag.name Admin
// @tag.description Application information and health
func main() {
	port := flag.String("port", "", "Port to run backend server on (overrides SERVER_PORT)")
	flag.Parse()

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("🔧  resuminds Backend API Server")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("• API-only mode (no frontend)")
	fmt.Println("• All endpoints under /api/*, previews under /blob/*")
	fmt.Println("• CORS enabled for frontend access")
	fmt.Println(strings.Repeat("=", 50) + "\n")

	serverConfig, logger := config.SetupServer()
	injectGlobals(logger)
	if *port != "" {
		serverConfig.ListenAddrPort = *port
	}

	repo, err := database.NewRepository(serverConfig)
	if err != nil {
		Logger.Error("Database setup failed", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	var kv database.KeyValueStore = repo
	if serverConfig.KVBackend == config.KVBackendRedis {
		redisKV, err := database.NewRedisKV(context.Background(), serverConfig.RedisURL)
		if err != nil {
			Logger.Error("Redis setup failed", "error", err)
			os.Exit(1)
		}
		defer redisKV.Close()
		kv = redisKV
	}

	store, err := storage.NewLocal(serverConfig.StoragePath)
	if err != nil {
		Logger.Error("Storage setup failed", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true

	// JSON for every 404, there is no frontend here
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		if code == http.StatusNotFound {
			c.JSON(http.StatusNotFound, map[string]string{
				"error":   "Not Found",
				"message": "The requested API endpoint does not exist",
				"path":    c.Request().URL.Path,
			})
			return
		}

		e.DefaultHTTPErrorHandler(err, c)
	}

	serverHandler := &engine.ServerHandler{DB: repo, KV: kv, Store: store, Echo: e, ServerConfig: serverConfig}
	Logger.Info("Initializing backend services...")
	serverHandler.SetupRenderer()
	defer serverHandler.Loader.Close()
	if err := serverHandler.StartupChecks(context.Background()); err != nil {
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}
	serverHandler.InitializeSchedules()
	defer serverHandler.StopSchedules()
	Logger.Info("Backend services initialized")

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))

	serverHandler.RegisterRoutes()

	addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
	Logger.Info("Starting Backend API Server", "address", addr)
	fmt.Printf("\n✅  Backend API Server running on %s\n", addr)
	fmt.Printf("📡  API endpoints available at http://%s/api/\n", addr)
	fmt.Printf("🏥  Health check: http://%s/api/health\n\n", addr)

	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server failed to start", "error", err)
	}
}
