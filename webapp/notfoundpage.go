package webapp

import (
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// NotFoundPage is shown for routes the app does not know, including resume links without an id
type NotFoundPage struct {
	app.Compo

	Path string
}

// notFoundMessage explains the miss, with a hint for broken resume links
func notFoundMessage(path string) string {
	if strings.HasPrefix(path, resumeRoutePrefix) {
		return "That resume link is incomplete or the resume has been deleted."
	}
	return "Nothing lives at this address."
}

func (p *NotFoundPage) Render() app.UI {
	return app.Div().Class("not-found-page").Body(
		app.H1().Class("not-found-title").Text("404"),
		app.P().Class("not-found-message").Text(notFoundMessage(p.Path)),
		app.If(p.Path != "", func() app.UI {
			return app.P().Class("not-found-path").Body(app.Code().Text(p.Path))
		}),
		app.Div().Class("not-found-actions").Body(
			app.A().Href("/").Class("btn-primary").Text("Upload a resume"),
			app.A().Href("/jobs").Class("btn-secondary").Text("View jobs"),
		),
	)
}
