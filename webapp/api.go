package webapp

import (
	"github.com/drummonds/resuminds/feedback"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// GetAPIBaseURL returns the configured API base URL
// It reads from window.resuminds_config.apiURL if available,
// otherwise falls back to empty string (relative URLs)
func GetAPIBaseURL() string {
	if !app.IsClient {
		return "" // Server-side rendering - use relative URLs
	}

	config := app.Window().Get("resuminds_config")
	if config.Truthy() {
		apiURL := config.Get("apiURL")
		if apiURL.Truthy() {
			url := apiURL.String()
			if len(url) > 0 && url[len(url)-1] == '/' {
				return url[:len(url)-1]
			}
			return url
		}
	}

	return ""
}

// BuildAPIURL constructs a full API URL from a path
// Example: BuildAPIURL("/api/resumes") -> "http://backend:8000/api/resumes"
// or just "/api/resumes" if using relative URLs
func BuildAPIURL(path string) string {
	baseURL := GetAPIBaseURL()
	if baseURL == "" {
		return path
	}
	return baseURL + path
}

// recentResumeCount is how many resumes the home page lists, overridable through config.js
func recentResumeCount() int {
	if app.IsClient {
		config := app.Window().Get("resuminds_config")
		if config.Truthy() && config.Get("recentResumeCount").Truthy() {
			return config.Get("recentResumeCount").Int()
		}
	}
	return 12
}

// Job represents a background job
type Job struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`
	CurrentStep string `json:"currentStep"`
	TotalSteps  int    `json:"totalSteps"`
	Message     string `json:"message"`
	Error       string `json:"error,omitempty"`
	Result      string `json:"result,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	StartedAt   string `json:"startedAt,omitempty"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// Resume is the stored record as the API returns it
type Resume struct {
	ID             string             `json:"id"`
	ResumePath     string             `json:"resumePath"`
	ImagePath      string             `json:"imagePath"`
	CompanyName    string             `json:"companyName"`
	JobTitle       string             `json:"jobTitle"`
	JobDescription string             `json:"jobDescription"`
	Feedback       *feedback.Feedback `json:"feedback"`
	PageCount      int                `json:"pageCount"`
	ResumeSize     int64              `json:"resumeSize"`
	CreatedAt      string             `json:"createdAt"`
}

// Title is the heading shown for a resume, falling back when the job details are blank
func (r Resume) Title() string {
	switch {
	case r.CompanyName != "" && r.JobTitle != "":
		return r.JobTitle + " at " + r.CompanyName
	case r.JobTitle != "":
		return r.JobTitle
	case r.CompanyName != "":
		return r.CompanyName
	default:
		return "Untitled resume"
	}
}

// PDFURL is where the stored PDF is served
func (r Resume) PDFURL() string { return BuildAPIURL("/api/resume/" + r.ID + "/pdf") }

// ImageURL is where the first page preview is served
func (r Resume) ImageURL() string { return BuildAPIURL("/api/resume/" + r.ID + "/image") }

// ThumbnailURL is the small preview used in lists
func (r Resume) ThumbnailURL() string { return BuildAPIURL("/api/resume/" + r.ID + "/thumbnail") }

// fetchJSON issues a GET through the browser and hands the status and JSON text to done on the UI goroutine.
// A network failure is reported with status 0.
func fetchJSON(ctx app.Context, url string, done func(ctx app.Context, status int, jsonStr string)) {
	ctx.Async(func() {
		res := app.Window().Call("fetch", url)

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			response := args[0]
			status := response.Get("status").Int()

			response.Call("json").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				jsonStr := "null"
				if len(args) > 0 && args[0].Truthy() && args[0].Type() != app.TypeNull {
					jsonStr = app.Window().Get("JSON").Call("stringify", args[0]).String()
				}
				ctx.Dispatch(func(ctx app.Context) {
					done(ctx, status, jsonStr)
				})
				return nil
			}))

			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				done(ctx, 0, "")
			})
			return nil
		}))
	})
}
