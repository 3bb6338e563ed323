package webapp

import (
	"encoding/json"
	"fmt"

	"github.com/drummonds/resuminds/feedback"
	"github.com/drummonds/resuminds/internal/format"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// HomePage has the upload form and the most recent resumes
type HomePage struct {
	app.Compo
	resumes      []Resume
	selectedName string
	selectedSize int64
	loading      bool
	error        string
}

// OnMount is called when the component is mounted
func (h *HomePage) OnMount(ctx app.Context) {
	h.loading = true
	h.fetchResumes(ctx)
}

// fetchResumes loads the newest resumes
func (h *HomePage) fetchResumes(ctx app.Context) {
	url := BuildAPIURL(fmt.Sprintf("/api/resumes?limit=%d", recentResumeCount()))
	fetchJSON(ctx, url, func(ctx app.Context, status int, jsonStr string) {
		h.loading = false
		switch {
		case status == 0:
			h.error = "Network error"
		case status >= 300:
			h.error = fmt.Sprintf("Failed to load resumes (status: %d)", status)
		default:
			var resumes []Resume
			if err := json.Unmarshal([]byte(jsonStr), &resumes); err != nil {
				h.error = fmt.Sprintf("Failed to parse response: %v", err)
				return
			}
			h.resumes = resumes
		}
	})
}

// onFileChange shows the chosen file before it is sent
func (h *HomePage) onFileChange(ctx app.Context, e app.Event) {
	files := ctx.JSSrc().Get("files")
	if !files.Truthy() || files.Length() == 0 {
		h.selectedName, h.selectedSize = "", 0
		return
	}
	file := files.Index(0)
	h.selectedName = file.Get("name").String()
	h.selectedSize = int64(file.Get("size").Int())
}

// Render renders the home page
func (h *HomePage) Render() app.UI {
	return app.Div().
		Class("home-page").
		Body(
			app.Section().Class("upload-section").Body(
				app.H2().Text("Smart feedback for your dream job"),
				app.P().Class("page-info").Text("Drop your resume for an ATS score and improvement tips."),
				h.renderUploadForm(),
			),
			app.Section().Class("recent-section").Body(
				app.H2().Text("Recent Resumes"),
				h.renderResumes(),
			),
		)
}

func (h *HomePage) renderUploadForm() app.UI {
	return app.Form().
		ID("upload-form").
		Class("upload-form").
		Action(BuildAPIURL("/api/resume/upload")).
		Method("post").
		EncType("multipart/form-data").
		Body(
			h.renderField("company-name", "Company Name", app.Input().
				Type("text").ID("company-name").Name("companyName").Placeholder("Company Name")),
			h.renderField("job-title", "Job Title", app.Input().
				Type("text").ID("job-title").Name("jobTitle").Placeholder("Job Title")),
			h.renderField("job-description", "Job Description", app.Textarea().
				ID("job-description").Name("jobDescription").Rows(5).Placeholder("Job Description")),
			h.renderField("resume-file", "Upload Resume", app.Input().
				Type("file").ID("resume-file").Name("resume").Accept("application/pdf,.pdf").Required(true).
				OnChange(h.onFileChange)),
			app.If(h.selectedName != "", func() app.UI {
				return app.P().Class("selected-file").Body(
					app.Span().Class("selected-file-name").Text(h.selectedName),
					app.Span().Class("selected-file-size").Text(format.FormatSize(h.selectedSize)),
				)
			}),
			app.Button().Type("submit").Class("btn-primary").Text("Analyze Resume"),
		)
}

func (h *HomePage) renderField(id, label string, input app.UI) app.UI {
	return app.Div().Class("form-div").Body(
		app.Label().For(id).Text(label),
		input,
	)
}

func (h *HomePage) renderResumes() app.UI {
	if h.loading {
		return app.Div().Class("loading").Body(app.Text("Loading..."))
	}
	if h.error != "" {
		return app.Div().Class("error").Body(app.Text("Error: " + h.error))
	}
	if len(h.resumes) == 0 {
		return app.Div().Class("no-results").Body(app.Text("No resumes uploaded yet."))
	}
	return app.Div().Class("resume-grid").Body(
		app.Range(h.resumes).Slice(func(i int) app.UI {
			return &ResumeCard{Resume: h.resumes[i]}
		}),
	)
}

// ResumeCard displays a single resume in the recent list
type ResumeCard struct {
	app.Compo
	Resume Resume
}

// Render renders the resume card
func (r *ResumeCard) Render() app.UI {
	return app.A().
		Href("/resume/" + r.Resume.ID).
		Class("resume-card").
		Body(
			app.Div().Class("resume-card-header").Body(
				app.H3().Class("resume-card-title").Text(r.Resume.Title()),
				app.If(r.Resume.Feedback != nil, func() app.UI {
					return &ScoreBadge{Score: r.Resume.Feedback.OverallScore}
				}),
			),
			app.Img().
				Class("resume-card-thumbnail").
				Src(r.Resume.ThumbnailURL()).
				Alt("resume preview"),
			app.P().Class("resume-card-meta").Text(r.meta()),
		)
}

func (r *ResumeCard) meta() string {
	text := format.FormatSize(r.Resume.ResumeSize)
	if r.Resume.PageCount > 0 {
		text += fmt.Sprintf(" | %d page", r.Resume.PageCount)
		if r.Resume.PageCount > 1 {
			text += "s"
		}
	}
	if created := formatTime(r.Resume.CreatedAt); created != "" {
		text += " | " + created
	}
	return text
}

// ScoreBadge is the small colored verdict next to a score
type ScoreBadge struct {
	app.Compo
	Score int
}

// Render renders the badge
func (s *ScoreBadge) Render() app.UI {
	label := feedback.ScoreLabel(s.Score)
	return app.Span().
		Class("score-badge score-" + string(label.Tone)).
		Text(fmt.Sprintf("%d/100 %s", s.Score, label.Text))
}
