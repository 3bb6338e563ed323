package webapp

import (
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// App is the root component of the application
type App struct {
	app.Compo
}

// Render renders the app
func (a *App) Render() app.UI {
	return app.Div().
		Class("app-container").
		Body(
			app.Header().Body(
				&NavBar{},
			),
			app.Div().Class("app-layout").Body(
				&Sidebar{},
				app.Main().Class("main-content").Body(
					app.Div().Class("content").Body(
						pageFor(app.Window().URL().Path),
					),
				),
			),
		)
}

// pageFor picks the page component for a route
func pageFor(path string) app.UI {
	switch {
	case path == "/":
		return &HomePage{}
	case strings.HasPrefix(path, resumeRoutePrefix) && resumeIDFromPath(path) != "":
		return &ResumePage{}
	case path == "/jobs":
		return &JobsPage{}
	case path == "/about":
		return &AboutPage{}
	default:
		return &NotFoundPage{Path: path}
	}
}
