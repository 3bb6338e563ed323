package webapp

import (
	"encoding/json"
	"testing"
)

// TestGetDatabaseDisplay tests the database type display conversion
func TestGetDatabaseDisplay(t *testing.T) {
	tests := []struct {
		name     string
		dbType   string
		expected string
	}{
		{name: "PostgreSQL", dbType: "postgres", expected: "PostgreSQL"},
		{name: "CockroachDB", dbType: "cockroachdb", expected: "CockroachDB"},
		{name: "SQLite", dbType: "sqlite", expected: "SQLite"},
		{name: "Unknown type", dbType: "mongodb", expected: "mongodb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &AboutPage{aboutInfo: AboutInfo{DatabaseType: tt.dbType}}
			got := page.getDatabaseDisplay()
			if got != tt.expected {
				t.Errorf("getDatabaseDisplay() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetRendererDisplay(t *testing.T) {
	tests := []struct {
		name        string
		backend     string
		loaded      bool
		wantBackend string
		wantStatus  string
	}{
		{name: "PDFium before first upload", backend: "pdfium", wantBackend: "PDFium (WebAssembly)", wantStatus: "Not loaded (loads on first upload)"},
		{name: "MuPDF loaded", backend: "fitz", loaded: true, wantBackend: "MuPDF (cgo)", wantStatus: "Loaded"},
		{name: "Unknown backend", backend: "poppler", wantBackend: "poppler", wantStatus: "Not loaded (loads on first upload)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &AboutPage{aboutInfo: AboutInfo{RenderBackend: tt.backend, RendererLoaded: tt.loaded}}
			if got := page.getRenderBackendDisplay(); got != tt.wantBackend {
				t.Errorf("getRenderBackendDisplay() = %v, want %v", got, tt.wantBackend)
			}
			if got := page.getRendererStatus(); got != tt.wantStatus {
				t.Errorf("getRendererStatus() = %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

// TestGetConnectionType tests the connection type display conversion
func TestGetConnectionType(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		kv       string
		wantConn string
		wantKV   string
	}{
		{name: "Embedded SQLite", host: "", kv: "", wantConn: "Embedded (Local File)", wantKV: "Database table"},
		{name: "External with redis", host: "db.internal", kv: "redis", wantConn: "External (Persistent)", wantKV: "Redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &AboutPage{aboutInfo: AboutInfo{DatabaseHost: tt.host, KVBackend: tt.kv}}
			if got := page.getConnectionType(); got != tt.wantConn {
				t.Errorf("getConnectionType() = %v, want %v", got, tt.wantConn)
			}
			if got := page.getKVDisplay(); got != tt.wantKV {
				t.Errorf("getKVDisplay() = %v, want %v", got, tt.wantKV)
			}
		})
	}
}

// TestAboutPageRenderStates tests that different states produce valid UI
func TestAboutPageRenderStates(t *testing.T) {
	tests := []struct {
		name string
		page *AboutPage
	}{
		{name: "Loading", page: &AboutPage{loading: true}},
		{name: "Error", page: &AboutPage{error: "Network error"}},
		{name: "Success", page: &AboutPage{aboutInfo: AboutInfo{
			Version:         "v1.2.3",
			DatabaseType:    "sqlite",
			RenderBackend:   "pdfium",
			RendererLoaded:  true,
			RendererVersion: "pdfium-wasm",
			WorkerSource:    "/static/pdf.worker.js",
			MaxUploadBytes:  10 << 20,
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.page.Render() == nil {
				t.Errorf("%s state should return non-nil UI", tt.name)
			}
		})
	}
}

// TestAboutInfoJSON checks the field names the API sends
func TestAboutInfoJSON(t *testing.T) {
	payload := `{
		"version": "v0.3.0",
		"databaseType": "postgres",
		"databaseHost": "localhost",
		"databasePort": "5432",
		"databaseName": "resuminds_prod",
		"kvBackend": "redis",
		"storagePath": "/var/lib/resuminds",
		"renderBackend": "pdfium",
		"rendererLoaded": true,
		"rendererVersion": "pdfium-wasm",
		"workerSource": "/static/pdf.worker.js",
		"rendererImports": 1,
		"objectURLs": 4,
		"maxUploadBytes": 10485760
	}`

	var info AboutInfo
	if err := json.Unmarshal([]byte(payload), &info); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if info.DatabaseName != "resuminds_prod" {
		t.Errorf("DatabaseName = %v, want resuminds_prod", info.DatabaseName)
	}
	if !info.RendererLoaded || info.RendererImports != 1 {
		t.Errorf("renderer fields = %v/%d, want loaded with 1 import", info.RendererLoaded, info.RendererImports)
	}
	if info.ObjectURLs != 4 {
		t.Errorf("ObjectURLs = %d, want 4", info.ObjectURLs)
	}
	if info.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", info.MaxUploadBytes, 10<<20)
	}
}
