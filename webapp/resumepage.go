package webapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/drummonds/resuminds/feedback"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

const resumeRoutePrefix = "/resume/"

// ResumePage shows the preview of one resume next to its review
type ResumePage struct {
	app.Compo
	id        string
	resume    *Resume
	accordion *feedback.Accordion
	loading   bool
	notFound  bool
	error     string
}

// resumeIDFromPath extracts the id from /resume/<id>
func resumeIDFromPath(path string) string {
	id := strings.TrimPrefix(path, resumeRoutePrefix)
	if id == path {
		return ""
	}
	return strings.Trim(id, "/")
}

// OnMount is called when the component is mounted
func (p *ResumePage) OnMount(ctx app.Context) {
	p.accordion = feedback.NewAccordion()
	p.id = resumeIDFromPath(app.Window().URL().Path)
	if p.id == "" {
		p.notFound = true
		return
	}
	p.loading = true
	fetchJSON(ctx, BuildAPIURL("/api/resume/"+p.id), p.onResumeLoaded)
}

func (p *ResumePage) onResumeLoaded(ctx app.Context, status int, jsonStr string) {
	p.loading = false
	switch {
	case status == 0:
		p.error = "Network error"
	case status == http.StatusNotFound:
		p.notFound = true
	case status >= 300:
		p.error = fmt.Sprintf("Failed to load resume (status: %d)", status)
	default:
		var resume Resume
		if err := json.Unmarshal([]byte(jsonStr), &resume); err != nil {
			p.error = fmt.Sprintf("Failed to parse response: %v", err)
			return
		}
		p.resume = &resume
	}
}

// toggleSection opens key and closes whichever section was open before
func (p *ResumePage) toggleSection(key string) app.EventHandler {
	return func(ctx app.Context, e app.Event) {
		if p.accordion == nil {
			p.accordion = feedback.NewAccordion()
		}
		p.accordion.Toggle(key)
	}
}

func (p *ResumePage) isOpen(key string) bool {
	if p.accordion == nil {
		return key == feedback.DefaultOpenSection
	}
	return p.accordion.IsOpen(key)
}

// Render renders the results page
func (p *ResumePage) Render() app.UI {
	return app.Div().
		Class("resume-page").
		Body(
			p.renderBreadcrumb(),
			p.renderContent(),
		)
}

func (p *ResumePage) renderBreadcrumb() app.UI {
	title := "Resume"
	if p.resume != nil && p.resume.JobTitle != "" {
		title = p.resume.JobTitle
	}
	return app.Nav().Class("resume-breadcrumb").Body(
		app.A().Href("/").Class("back-link").Text("← Back to homepage"),
		app.Span().Class("breadcrumb-separator").Text("/"),
		app.Span().Class("breadcrumb-item").Text(title),
		app.Span().Class("breadcrumb-separator").Text("/"),
		app.Span().Class("breadcrumb-item breadcrumb-current").Text("Resume Review"),
	)
}

func (p *ResumePage) renderContent() app.UI {
	switch {
	case p.loading:
		return app.Div().Class("loading").Body(
			app.Div().Class("spinner"),
			app.H2().Text("Analyzing your resume..."),
		)
	case p.notFound:
		return app.Div().Class("no-results").Body(
			app.H2().Text("Resume not found"),
			app.A().Href("/").Text("Upload a resume"),
		)
	case p.error != "":
		return app.Div().Class("error").Body(app.Text("Error: " + p.error))
	case p.resume == nil:
		return app.Div()
	}

	return app.Div().Class("resume-layout").Body(
		app.Section().Class("resume-preview").Body(
			app.A().
				Href(p.resume.PDFURL()).
				Target("_blank").
				Rel("noopener noreferrer").
				Class("resume-preview-link").
				Body(
					app.Img().
						Src(p.resume.ImageURL()).
						Class("resume-preview-image").
						Alt("resume preview"),
				),
		),
		app.Section().Class("resume-feedback").Body(
			app.H1().Text("Resume Review"),
			p.renderFeedback(),
		),
	)
}

func (p *ResumePage) renderFeedback() app.UI {
	fb := p.resume.Feedback
	if fb == nil {
		return app.Div().Class("info").Body(
			app.P().Text("No review has been attached to this resume yet."),
		)
	}

	sections := fb.Sections()
	items := make([]app.UI, 0, len(sections)+1)
	for _, section := range sections {
		items = append(items, p.renderSection(section.Key, section.Icon, section.Title, section.Category.Score, renderTips(section.Category.Tips)))
	}
	items = append(items, p.renderSection(feedback.SectionChecklist, "✅", "Improvement Checklist", -1, renderChecklist()))

	return app.Div().Body(
		app.Div().Class("score-cards").Body(
			renderOverallCard(fb),
			renderATSCard(fb),
		),
		app.Div().Class("accordion").Body(items...),
	)
}

func renderOverallCard(fb *feedback.Feedback) app.UI {
	return app.Div().Class("score-card overall-card").Body(
		app.H3().Text("Your Resume Score"),
		app.P().Class("score-card-hint").Text("This score is calculated based on the variables listed below"),
		app.Div().Class("score-big").Text(fmt.Sprintf("%d/100", fb.OverallScore)),
		app.Div().Class("score-breakdown").Body(
			app.Range(fb.Breakdown()).Slice(func(i int) app.UI {
				item := fb.Breakdown()[i]
				label := item.Label()
				return app.Div().Class("breakdown-row").Body(
					app.Span().Class("breakdown-title").Text(item.Title),
					app.Span().Class("score-label score-"+string(label.Tone)).Text(label.Text),
					app.Span().Class("breakdown-score").Text(fmt.Sprintf("%d/100", item.Category.Score)),
				)
			}),
		),
	)
}

func renderATSCard(fb *feedback.Feedback) app.UI {
	highlights := fb.ATSHighlights()
	return app.Div().Class("score-card ats-card").Body(
		app.H3().Body(app.Span().Text("🤖 "), app.Text("ATS Score")),
		app.Div().Class("score-big").Text(fmt.Sprintf("%d/100", fb.ATS.Score)),
		app.P().Class("score-card-hint").Text("How well does your resume pass through Applicant Tracking Systems?"),
		app.Ul().Class("ats-tips").Body(
			app.Range(highlights).Slice(func(i int) app.UI {
				tip := highlights[i]
				return app.Li().Body(
					app.Span().Class("ats-mark").Text(tipMark(tip.Type, "×")),
					app.Span().Text(tip.Tip),
				)
			}),
		),
	)
}

// renderSection draws one accordion entry. A negative score hides the score pill.
func (p *ResumePage) renderSection(key, icon, title string, score int, body app.UI) app.UI {
	open := p.isOpen(key)
	chevron := "accordion-chevron"
	if open {
		chevron += " accordion-chevron-open"
	}
	return app.Div().Class("accordion-item").ID("section-" + key).Body(
		app.Button().
			Class("accordion-header").
			OnClick(p.toggleSection(key)).
			Body(
				app.Span().Class("accordion-icon").Text(icon),
				app.H3().Class("accordion-title").Text(title),
				app.If(score >= 0, func() app.UI {
					label := feedback.ScoreLabel(score)
					return app.Span().Class("score-pill score-" + string(label.Tone)).Text(fmt.Sprintf("%d/100", score))
				}),
				app.Span().Class(chevron).Text("▾"),
			),
		app.If(open, func() app.UI {
			return app.Div().Class("accordion-body").Body(body)
		}),
	)
}

func renderTips(tips []feedback.Tip) app.UI {
	if len(tips) == 0 {
		return app.P().Class("no-tips").Text("Nothing to report here.")
	}
	return app.Div().Class("tips").Body(
		app.Range(tips).Slice(func(i int) app.UI {
			tip := tips[i]
			return app.Div().Class("tip tip-" + string(tip.Type)).Body(
				app.Span().Class("tip-mark").Text(tipMark(tip.Type, "⚠️")),
				app.Div().Class("tip-text").Body(
					app.P().Class("tip-title").Text(tip.Tip),
					app.If(tip.Explanation != "", func() app.UI {
						return app.P().Class("tip-explanation").Text(tip.Explanation)
					}),
				),
			)
		}),
	)
}

func renderChecklist() app.UI {
	return app.Ul().Class("checklist").Body(
		app.Range(feedback.Checklist).Slice(func(i int) app.UI {
			return app.Li().Body(
				app.Input().Type("checkbox").ID(fmt.Sprintf("checklist-%d", i)),
				app.Label().For(fmt.Sprintf("checklist-%d", i)).Text(feedback.Checklist[i]),
			)
		}),
	)
}

// tipMark is the symbol in front of a tip
func tipMark(t feedback.TipType, improve string) string {
	if t == feedback.TipGood {
		return "✓"
	}
	return improve
}
