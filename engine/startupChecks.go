package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/drummonds/resuminds/config"
)

const storageProbe = ".startup-probe"

// StartupChecks performs all the checks to make sure everything works
func (serverHandler *ServerHandler) StartupChecks(ctx context.Context) error {
	if err := storageDirectoryChecks(serverHandler.ServerConfig); err != nil {
		return err
	}
	if err := serverHandler.storageWriteCheck(); err != nil {
		return err
	}
	if err := serverHandler.databaseChecks(ctx); err != nil {
		return err
	}
	rendererChecks(serverHandler.ServerConfig)
	return nil
}

// storageDirectoryChecks ensures the storage directory exists
func storageDirectoryChecks(serverConfig config.ServerConfig) error {
	if serverConfig.StoragePath == "" {
		Logger.Error("Storage path not configured")
		return fmt.Errorf("storage path not configured")
	}

	info, err := os.Stat(serverConfig.StoragePath)
	if err != nil {
		if os.IsNotExist(err) {
			Logger.Info("Creating storage directory", "path", serverConfig.StoragePath)
			if err := os.MkdirAll(serverConfig.StoragePath, 0755); err != nil {
				Logger.Error("Failed to create storage directory", "path", serverConfig.StoragePath, "error", err)
				return err
			}
			return nil
		}
		Logger.Error("Error checking storage directory", "path", serverConfig.StoragePath, "error", err)
		return err
	}

	if !info.IsDir() {
		Logger.Error("Storage path exists but is not a directory", "path", serverConfig.StoragePath)
		return fmt.Errorf("storage path is not a directory: %s", serverConfig.StoragePath)
	}

	Logger.Info("Storage directory exists", "path", serverConfig.StoragePath)
	return nil
}

// storageWriteCheck writes and removes a probe file through the file store
func (serverHandler *ServerHandler) storageWriteCheck() error {
	if err := serverHandler.Store.Write(storageProbe, []byte(time.Now().Format(time.RFC3339))); err != nil {
		Logger.Error("Storage is not writable", "error", err)
		return fmt.Errorf("storage is not writable: %w", err)
	}
	if err := serverHandler.Store.Delete(storageProbe); err != nil {
		Logger.Warn("Unable to remove storage probe", "error", err)
	}
	return nil
}

func (serverHandler *ServerHandler) databaseChecks(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := serverHandler.DB.Ping(ctx); err != nil {
		Logger.Error("Database is not reachable", "type", serverHandler.ServerConfig.DatabaseType, "error", err)
		return fmt.Errorf("database is not reachable: %w", err)
	}
	Logger.Info("Database reachable", "type", serverHandler.ServerConfig.DatabaseType)
	return nil
}

// rendererChecks only reports the configuration, the library itself loads on first use
func rendererChecks(serverConfig config.ServerConfig) {
	switch serverConfig.RenderBackend {
	case config.RenderBackendFitz:
		Logger.Info("Rendering with MuPDF (cgo)", "backend", serverConfig.RenderBackend)
	default:
		Logger.Info("Rendering with PDFium webassembly", "backend", serverConfig.RenderBackend, "workers", serverConfig.PDFiumWorkers)
	}
	if serverConfig.WorkerSource != "" {
		Logger.Info("Renderer worker source configured", "workerSource", serverConfig.WorkerSource)
	}
}
