package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// Render backends
const (
	RenderBackendPDFium = "pdfium"
	RenderBackendFitz   = "fitz"
)

// Key-value backends
const (
	KVBackendDatabase = "database"
	KVBackendRedis    = "redis"
)

// ServerConfig contains all of the server settings
type ServerConfig struct {
	ListenAddrIP     string
	ListenAddrPort   string
	DatabaseType     string
	DatabaseHost     string
	DatabasePort     string
	DatabaseUser     string
	DatabasePassword string `json:"-"`
	DatabaseDbname   string
	DatabaseSslmode  string
	KVBackend        string
	RedisURL         string `json:"-"`
	StoragePath      string // absolute path resumes and previews are written under
	RenderBackend    string
	WorkerSource     string
	PDFiumWorkers    int
	MaxUploadMB      int
	ObjectURLTTL     time.Duration
	SweepInterval    time.Duration
	JobRetention     time.Duration
	UseReverseProxy  bool
	BaseURL          string
	FrontEndConfig
}

// FrontEndConfig stores all of the frontend settings
type FrontEndConfig struct {
	RecentResumeCount int
	ServerAPIURL      string
}

// MaxUploadBytes is the upload limit in bytes
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvDuration gets a duration such as "15m" with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func loadEnvFiles(names ...string) {
	// missing files are fine, the environment may already be set
	for _, name := range names {
		_ = godotenv.Load(name)
	}
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	loadEnvFiles(".env", "config.env")

	logger := setupLogging()
	Logger = logger

	cfg := loadServerConfig(logger)

	fmt.Println("\n========================================")
	fmt.Println("   resuminds - Resume Review Service")
	fmt.Println("========================================")
	fmt.Printf("Server will start on: %s:%s\n", cfg.ListenAddrIP, cfg.ListenAddrPort)
	if cfg.ListenAddrIP == "" {
		fmt.Println("(Listening on all network interfaces)")
	}
	fmt.Printf("Detailed logs: %s\n", getEnv("LOG_FILE", "resuminds.log"))
	fmt.Println("Initializing...")

	return cfg, logger
}

// loadServerConfig reads every server setting from the environment
func loadServerConfig(logger *slog.Logger) ServerConfig {
	cfg := ServerConfig{}

	// Server configuration
	cfg.ListenAddrPort = getEnv("SERVER_PORT", "8000")
	cfg.ListenAddrIP = getEnv("SERVER_ADDR", "")

	// Database configuration
	cfg.DatabaseType = getEnv("DATABASE_TYPE", "sqlite")
	cfg.DatabaseHost = getEnv("DATABASE_HOST", "localhost")
	cfg.DatabasePort = getEnv("DATABASE_PORT", "5432")
	cfg.DatabaseUser = getEnv("DATABASE_USER", "resuminds")
	cfg.DatabasePassword = getEnv("DATABASE_PASSWORD", "")
	cfg.DatabaseDbname = getEnv("DATABASE_NAME", "resuminds")
	cfg.DatabaseSslmode = getEnv("DATABASE_SSLMODE", "")
	logger.Info("Database configuration loaded", "type", cfg.DatabaseType)

	// Key-value store
	cfg.KVBackend = strings.ToLower(getEnv("KV_BACKEND", KVBackendDatabase))
	cfg.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")
	if cfg.KVBackend != KVBackendDatabase && cfg.KVBackend != KVBackendRedis {
		logger.Warn("Unknown KV backend, using database", "backend", cfg.KVBackend)
		cfg.KVBackend = KVBackendDatabase
	}

	// File storage
	storagePath := filepath.ToSlash(getEnv("STORAGE_PATH", "storage"))
	storagePathAbs, err := filepath.Abs(storagePath)
	if err != nil {
		logger.Error("Failed creating absolute path for storage directory", "error", err)
		storagePathAbs = storagePath
	}
	cfg.StoragePath = storagePathAbs

	// Rendering
	cfg.RenderBackend = strings.ToLower(getEnv("RENDER_BACKEND", RenderBackendPDFium))
	if cfg.RenderBackend != RenderBackendPDFium && cfg.RenderBackend != RenderBackendFitz {
		logger.Warn("Unknown render backend, using pdfium", "backend", cfg.RenderBackend)
		cfg.RenderBackend = RenderBackendPDFium
	}
	cfg.WorkerSource = getEnv("PDF_WORKER_SOURCE", "")
	cfg.PDFiumWorkers = getEnvInt("PDFIUM_WORKERS", 1)
	if cfg.PDFiumWorkers < 1 {
		cfg.PDFiumWorkers = 1
	}
	cfg.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", 20)

	// Housekeeping
	cfg.ObjectURLTTL = getEnvDuration("OBJECT_URL_TTL", 15*time.Minute)
	cfg.SweepInterval = getEnvDuration("SWEEP_INTERVAL", 5*time.Minute)
	cfg.JobRetention = getEnvDuration("JOB_RETENTION", 7*24*time.Hour)

	// Reverse proxy configuration
	cfg.UseReverseProxy = getEnvBool("PROXY_ENABLED", false)
	cfg.BaseURL = getEnv("BASE_URL", "https://resuminds.domain.org")
	if cfg.UseReverseProxy {
		logger.Info("Using Reverse Proxy", "baseURL", cfg.BaseURL)
	} else {
		logger.Info("Using relative URLs for API calls (frontend will use same host it was served from)")
	}

	// Frontend configuration
	cfg.FrontEndConfig = loadFrontEndConfig("")

	return cfg
}

func loadFrontEndConfig(defaultAPIURL string) FrontEndConfig {
	return FrontEndConfig{
		RecentResumeCount: getEnvInt("RECENT_RESUME_COUNT", 5),
		ServerAPIURL:      getEnv("SERVER_API_URL", defaultAPIURL),
	}
}

// SetupFrontend loads configuration for frontend-only server
func SetupFrontend() (FrontEndConfig, *slog.Logger) {
	loadEnvFiles(".env", "config.env", "frontend.env")

	logger := setupLogging()
	Logger = logger

	frontendConfig := loadFrontEndConfig("http://localhost:8000")
	logger.Info("Frontend configuration loaded",
		"apiURL", frontendConfig.ServerAPIURL,
		"recentResumeCount", frontendConfig.RecentResumeCount)

	return frontendConfig, logger
}

// SetupCLI configures logging for command line tools, which always log to stderr
func SetupCLI(verbose bool) *slog.Logger {
	loadEnvFiles(".env")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	Logger = logger
	return logger
}

// parseLevel maps LOG_LEVEL values onto slog levels, defaulting to debug
func parseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	handlerOptions := &slog.HandlerOptions{Level: parseLevel(getEnv("LOG_LEVEL", "debug"))}

	logOutput := getEnv("LOG_OUTPUT", "file")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "resuminds.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}
