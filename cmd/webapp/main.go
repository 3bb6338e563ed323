//go:build js && wasm

package main

import (
	"github.com/drummonds/resuminds/webapp"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

func main() {
	// all routes use the App component with navbar/sidebar
	app.Route("/", func() app.Composer { return &webapp.App{} })
	app.RouteWithRegexp("^/resume/[^/]+$", func() app.Composer { return &webapp.App{} })
	app.Route("/jobs", func() app.Composer { return &webapp.App{} })
	app.Route("/about", func() app.Composer { return &webapp.App{} })

	app.RunWhenOnBrowser()
}
