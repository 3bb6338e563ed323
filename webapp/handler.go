package webapp

import (
	"net/http"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Handler returns an HTTP handler for the web app
func Handler() http.Handler {
	// all routes use the App component which includes navbar/sidebar
	app.Route("/", func() app.Composer { return &App{} })
	app.RouteWithRegexp("^/resume/[^/]+$", func() app.Composer { return &App{} })
	app.Route("/jobs", func() app.Composer { return &App{} })
	app.Route("/about", func() app.Composer { return &App{} })
	app.RunWhenOnBrowser()

	// wasm_exec.js is served at /wasm_exec.js by Echo
	// app.wasm is served from /web/app.wasm by Echo
	return &app.Handler{
		Name:        "Resuminds",
		Title:       "Resuminds",
		Description: "Resume previews and review feedback",
		Icon: app.Icon{
			Default: "/favicon.ico",
		},
		Styles: []string{
			"/webapp/webapp.css",
		},
		Scripts: []string{
			"/config.js", // Load backend API configuration
		},
		RawHeaders: []string{
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
		},
	}
}
