package engine

import (
	"context"
	"net/http"
	"time"

	"github.com/drummonds/resuminds/internal/build"
	"github.com/labstack/echo/v4"
	"github.com/swaggo/swag"
)

// GetAboutInfo returns information about the application
// @Summary Get application information
// @Description Retrieve the version, storage, database and renderer configuration
// @Tags Admin
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Application information"
// @Router /about [get]
func (serverHandler *ServerHandler) GetAboutInfo(c echo.Context) error {
	cfg := serverHandler.ServerConfig

	rendererVersion := ""
	workerSource := cfg.WorkerSource
	if serverHandler.Loader.Loaded() {
		// only report what is loaded, asking would trigger the import
		if module, err := serverHandler.Loader.EnsureLoaded(c.Request().Context()); err == nil {
			rendererVersion = module.Version()
			workerSource = module.WorkerSource()
		}
	}

	aboutInfo := map[string]interface{}{
		"version":         build.Version,
		"databaseType":    cfg.DatabaseType,
		"databaseHost":    cfg.DatabaseHost,
		"databasePort":    cfg.DatabasePort,
		"databaseName":    cfg.DatabaseDbname,
		"kvBackend":       cfg.KVBackend,
		"storagePath":     cfg.StoragePath,
		"renderBackend":   cfg.RenderBackend,
		"rendererLoaded":  serverHandler.Loader.Loaded(),
		"rendererVersion": rendererVersion,
		"workerSource":    workerSource,
		"rendererImports": serverHandler.Loader.Imports(),
		"objectURLs":      serverHandler.Rasterizer.ObjectURLs().Len(),
		"maxUploadBytes":  cfg.MaxUploadBytes(),
	}

	return c.JSON(http.StatusOK, aboutInfo)
}

// GetHealth reports whether the database and key-value store answer
// @Summary Health check
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Healthy"
// @Failure 503 {object} map[string]interface{} "A dependency is down"
// @Router /health [get]
func (serverHandler *ServerHandler) GetHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{"database": "ok", "kv": "ok"}
	if err := serverHandler.DB.Ping(ctx); err != nil {
		Logger.Warn("Health check: database unreachable", "error", err)
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if pinger, ok := serverHandler.KV.(interface{ Ping(context.Context) error }); ok {
		if err := pinger.Ping(ctx); err != nil {
			Logger.Warn("Health check: key-value store unreachable", "error", err)
			checks["kv"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	return c.JSON(status, map[string]interface{}{
		"status":         http.StatusText(status),
		"checks":         checks,
		"rendererLoaded": serverHandler.Loader.Loaded(),
	})
}

// GetSwaggerDoc serves the registered OpenAPI document
// @Summary OpenAPI document
// @Tags Admin
// @Produce json
// @Success 200 {object} map[string]interface{} "Swagger 2.0 document"
// @Router /swagger.json [get]
func (serverHandler *ServerHandler) GetSwaggerDoc(c echo.Context) error {
	doc, err := swag.ReadDoc()
	if err != nil {
		Logger.Warn("No swagger document registered", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"error": "API documentation unavailable"})
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, []byte(doc))
}
