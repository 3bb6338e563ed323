package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/resuminds/config"
	"github.com/drummonds/resuminds/webapp"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

func main() {
	port := flag.String("port", "3000", "Port to run frontend server on")
	apiURL := flag.String("api", "", "Backend API URL (overrides config)")
	flag.Parse()

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("🎨  resuminds Frontend Server")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("• WASM application server")
	fmt.Println("• Proxies API, preview and blob calls to backend")
	fmt.Println(strings.Repeat("=", 50) + "\n")

	frontendConfig, logger := config.SetupFrontend()
	Logger = logger
	config.Logger = logger

	if *apiURL != "" {
		frontendConfig.ServerAPIURL = *apiURL
	}

	backendURL, err := url.Parse(frontendConfig.ServerAPIURL)
	if err != nil || backendURL.Host == "" {
		Logger.Error("Invalid backend API URL", "apiURL", frontendConfig.ServerAPIURL, "error", err)
		return
	}

	Logger.Info("Frontend server starting",
		"backendAPI", frontendConfig.ServerAPIURL,
		"port", *port)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))

	appHandler := webapp.Handler()

	e.File("/wasm_exec.js", "web/wasm_exec.js")
	e.GET("/app.js", echo.WrapHandler(appHandler))
	e.GET("/app.css", echo.WrapHandler(appHandler))
	e.GET("/manifest.webmanifest", echo.WrapHandler(appHandler))

	e.Static("/web", "web")
	e.File("/webapp/webapp.css", "webapp/webapp.css")

	// The page is served from here so relative URLs go through the proxy below
	e.GET("/config.js", func(c echo.Context) error {
		configJS := fmt.Sprintf(`
// resuminds Frontend Configuration
window.resuminds_config = {
    apiURL: "",
    recentResumeCount: %d
};
`, frontendConfig.RecentResumeCount)
		c.Response().Header().Set("Content-Type", "application/javascript")
		return c.String(http.StatusOK, configJS)
	})

	proxy := middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: backendURL}}),
	})
	e.Group("/api", proxy)
	e.Group("/blob", proxy)

	// must be last
	e.Any("/*", echo.WrapHandler(appHandler))

	addr := fmt.Sprintf(":%s", *port)
	Logger.Info("Starting Frontend Server", "address", addr, "backendAPI", frontendConfig.ServerAPIURL)
	fmt.Printf("\n✅  Frontend Server running on %s\n", addr)
	fmt.Printf("🎨  Open http://localhost:%s in your browser\n", *port)
	fmt.Printf("📡  API proxied to: %s\n\n", frontendConfig.ServerAPIURL)

	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server failed to start", "error", err)
	}
}
