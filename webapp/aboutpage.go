package webapp

import (
	"encoding/json"
	"fmt"

	"github.com/drummonds/resuminds/internal/format"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// AboutInfo represents the about information from the API
type AboutInfo struct {
	Version         string `json:"version"`
	DatabaseType    string `json:"databaseType"`
	DatabaseHost    string `json:"databaseHost"`
	DatabasePort    string `json:"databasePort"`
	DatabaseName    string `json:"databaseName"`
	KVBackend       string `json:"kvBackend"`
	StoragePath     string `json:"storagePath"`
	RenderBackend   string `json:"renderBackend"`
	RendererLoaded  bool   `json:"rendererLoaded"`
	RendererVersion string `json:"rendererVersion"`
	WorkerSource    string `json:"workerSource"`
	RendererImports int64  `json:"rendererImports"`
	ObjectURLs      int    `json:"objectURLs"`
	MaxUploadBytes  int64  `json:"maxUploadBytes"`
}

// AboutPage displays information about the application
type AboutPage struct {
	app.Compo
	aboutInfo AboutInfo
	loading   bool
	error     string
}

// OnMount is called when the component is mounted
func (a *AboutPage) OnMount(ctx app.Context) {
	a.loading = true
	a.fetchAboutInfo(ctx)
}

// fetchAboutInfo fetches the about information from the API
func (a *AboutPage) fetchAboutInfo(ctx app.Context) {
	fetchJSON(ctx, BuildAPIURL("/api/about"), func(ctx app.Context, status int, jsonStr string) {
		a.loading = false
		if status == 0 {
			a.error = "Network error"
			return
		}
		if err := json.Unmarshal([]byte(jsonStr), &a.aboutInfo); err != nil {
			a.error = fmt.Sprintf("Failed to parse response: %v", err)
		}
	})
}

// Render renders the about page
func (a *AboutPage) Render() app.UI {
	if a.loading {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About Resuminds"),
			app.Div().Class("loading").Body(app.Text("Loading...")),
		)
	}

	if a.error != "" {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About Resuminds"),
			app.Div().Class("error").Body(app.Text("Error: "+a.error)),
		)
	}

	return app.Div().Class("about-page").Body(
		app.H2().Text("About Resuminds"),
		app.Div().Class("about-content").Body(
			app.Div().Class("about-section").Body(
				app.H3().Text("Application Information"),
				app.Div().Class("info-grid").Body(
					a.renderInfoItem("Version", a.aboutInfo.Version),
					a.renderInfoItem("Database", a.getDatabaseDisplay()),
					a.renderInfoItem("Renderer", a.getRendererStatus()),
					a.renderInfoItem("Upload Limit", format.FormatSize(a.aboutInfo.MaxUploadBytes)),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Database Configuration"),
				app.Div().Class("config-details").Body(
					a.renderDetail("Database Type: ", a.getDatabaseDisplay()),
					a.renderDetail("Host: ", a.aboutInfo.DatabaseHost),
					a.renderDetail("Port: ", a.aboutInfo.DatabasePort),
					a.renderDetail("Database Name: ", a.aboutInfo.DatabaseName),
					a.renderDetail("Connection Type: ", a.getConnectionType()),
					a.renderDetail("Key-Value Store: ", a.getKVDisplay()),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("PDF Rendering"),
				app.Div().Class("config-details").Body(
					a.renderDetail("Backend: ", a.getRenderBackendDisplay()),
					a.renderDetail("Status: ", a.getRendererStatus()),
					app.If(a.aboutInfo.RendererVersion != "", func() app.UI {
						return a.renderDetail("Library Version: ", a.aboutInfo.RendererVersion)
					}),
					app.If(a.aboutInfo.WorkerSource != "", func() app.UI {
						return a.renderDetail("Worker Source: ", a.aboutInfo.WorkerSource)
					}),
					a.renderDetail("Library Imports: ", fmt.Sprintf("%d", a.aboutInfo.RendererImports)),
					a.renderDetail("Live Preview Links: ", fmt.Sprintf("%d", a.aboutInfo.ObjectURLs)),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Resume Storage"),
				app.Div().Class("config-details").Body(
					a.renderDetail("Storage Path: ", a.aboutInfo.StoragePath),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("About Resuminds"),
				app.P().Text("Resuminds turns an uploaded resume into a first page preview and shows its review next to it."),
				app.P().Text("Built with Go and WebAssembly."),
			),
		),
	)
}

// renderInfoItem creates an info item display
func (a *AboutPage) renderInfoItem(label, value string) app.UI {
	return app.Div().Class("info-item").Body(
		app.Div().Class("info-label").Body(app.Text(label)),
		app.Div().Class("info-value").Body(app.Text(value)),
	)
}

func (a *AboutPage) renderDetail(label, value string) app.UI {
	return app.P().Body(
		app.Strong().Text(label),
		app.Text(value),
	)
}

// getDatabaseDisplay returns a user-friendly database display name
func (a *AboutPage) getDatabaseDisplay() string {
	switch a.aboutInfo.DatabaseType {
	case "postgres":
		return "PostgreSQL"
	case "cockroachdb":
		return "CockroachDB"
	case "sqlite":
		return "SQLite"
	default:
		return a.aboutInfo.DatabaseType
	}
}

// getConnectionType returns the database connection type
func (a *AboutPage) getConnectionType() string {
	if a.aboutInfo.DatabaseHost == "" {
		return "Embedded (Local File)"
	}
	return "External (Persistent)"
}

func (a *AboutPage) getKVDisplay() string {
	switch a.aboutInfo.KVBackend {
	case "redis":
		return "Redis"
	case "", "database":
		return "Database table"
	default:
		return a.aboutInfo.KVBackend
	}
}

func (a *AboutPage) getRenderBackendDisplay() string {
	switch a.aboutInfo.RenderBackend {
	case "pdfium":
		return "PDFium (WebAssembly)"
	case "fitz":
		return "MuPDF (cgo)"
	default:
		return a.aboutInfo.RenderBackend
	}
}

// getRendererStatus reports whether the PDF library has been loaded yet
func (a *AboutPage) getRendererStatus() string {
	if a.aboutInfo.RendererLoaded {
		return "Loaded"
	}
	return "Not loaded (loads on first upload)"
}
