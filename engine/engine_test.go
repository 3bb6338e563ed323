package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/drummonds/resuminds/config"
	"github.com/drummonds/resuminds/database"
	"github.com/drummonds/resuminds/engine/pdfrender"
	"github.com/drummonds/resuminds/storage"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
)

const (
	samplePDF = "%PDF-1.4\n% resume\n"
	brokenPDF = "%PDF-1.4\n% broken xref\n"
)

// testModule renders every page as a white rectangle, refusing documents marked "broken"
type testModule struct {
	workerSource string
}

func (m *testModule) Version() string { return "test" }

func (m *testModule) SetWorkerSource(src string) error {
	if m.workerSource != "" {
		return pdfrender.ErrWorkerSourceSet
	}
	m.workerSource = src
	return nil
}

func (m *testModule) WorkerSource() string { return m.workerSource }

func (m *testModule) Open(ctx context.Context, data []byte) (pdfrender.Document, error) {
	if bytes.Contains(data, []byte("broken")) {
		return nil, errors.New("Invalid PDF structure")
	}
	return testDocument{}, nil
}

type testDocument struct{}

func (testDocument) NumPages() int { return 1 }

func (testDocument) Page(ctx context.Context, n int) (pdfrender.Page, error) {
	return testPage{}, nil
}

func (testDocument) Close() error { return nil }

type testPage struct{}

func (testPage) Size() (float64, float64) { return 50, 70 }

func (testPage) Render(ctx context.Context, surface *pdfrender.Surface, viewport pdfrender.Viewport) error {
	src := image.NewNRGBA(image.Rect(0, 0, viewport.Width, viewport.Height))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	surface.Draw(src)
	return nil
}

type testServer struct {
	handler *ServerHandler
	db      *database.BunDB
	imports *atomic.Int32
}

func setupTestLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	Logger = logger
	database.Logger = logger
	storage.Logger = logger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	setupTestLogger()

	dbName := "file:engine_" + ulid.Make().String() + "?mode=memory&cache=shared"
	repo, err := database.NewRepository(config.ServerConfig{DatabaseType: "sqlite", DatabaseDbname: dbName})
	if err != nil {
		t.Fatalf("Failed to open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	storagePath := t.TempDir()
	store, err := storage.NewLocal(storagePath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	var imports atomic.Int32
	module := &testModule{}
	loader := pdfrender.NewLoader(func(ctx context.Context) (pdfrender.Module, error) {
		imports.Add(1)
		return module, nil
	}, pdfrender.WithWorkerSource("test://worker.js"))

	handler := &ServerHandler{
		DB:     repo,
		Store:  store,
		Loader: loader,
		Echo:   echo.New(),
		ServerConfig: config.ServerConfig{
			DatabaseType:  "sqlite",
			StoragePath:   storagePath,
			RenderBackend: "test",
			MaxUploadMB:   1,
			ObjectURLTTL:  time.Minute,
			SweepInterval: time.Minute,
			JobRetention:  time.Hour,
		},
	}
	handler.SetupRenderer()
	handler.RegisterRoutes()
	return &testServer{handler: handler, db: repo.(*database.BunDB), imports: &imports}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.Echo.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, fileName, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("resume", fileName)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(content))
	}
	writer.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/resume/upload", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func (s *testServer) upload(t *testing.T, fileName string) uploadResponse {
	t.Helper()
	rec := s.do(uploadRequest(t, fileName, samplePDF, map[string]string{
		"companyName": "Acme",
		"jobTitle":    "Backend Engineer",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("Upload returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unable to decode upload response: %v", err)
	}
	return resp
}

func TestUploadResume(t *testing.T) {
	s := newTestServer(t)
	resp := s.upload(t, "My Resume.PDF")

	if !strings.HasPrefix(resp.ImageURL, pdfrender.ObjectURLPrefix) {
		t.Errorf("ImageURL = %q, want %s prefix", resp.ImageURL, pdfrender.ObjectURLPrefix)
	}
	if resp.File == nil || resp.File.Name != "My Resume.png" || resp.File.Type != "image/png" {
		t.Errorf("File = %+v", resp.File)
	}
	if resp.Resume == nil || resp.Resume.CompanyName != "Acme" || resp.Resume.ResumeSize != int64(len(samplePDF)) {
		t.Errorf("Resume = %+v", resp.Resume)
	}
	if resp.Resume.ImagePath != "resumes/"+resp.ID+"/My Resume.png" {
		t.Errorf("ImagePath = %q", resp.Resume.ImagePath)
	}

	t.Run("Record is readable", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/api/resume/"+resp.ID, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET resume returned %d", rec.Code)
		}
		var record database.ResumeRecord
		json.Unmarshal(rec.Body.Bytes(), &record)
		if record.JobTitle != "Backend Engineer" {
			t.Errorf("JobTitle = %q", record.JobTitle)
		}
	})

	t.Run("Stored files are served", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/api/resume/"+resp.ID+"/pdf", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != samplePDF {
			t.Errorf("PDF = %d %q", rec.Code, rec.Body.String())
		}
		rec = s.do(httptest.NewRequest(http.MethodGet, "/api/resume/"+resp.ID+"/image", nil))
		if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
			t.Errorf("Image = %d, %d bytes", rec.Code, rec.Body.Len())
		}
		rec = s.do(httptest.NewRequest(http.MethodGet, "/api/resume/"+resp.ID+"/thumbnail", nil))
		if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
			t.Errorf("Thumbnail = %d, %d bytes", rec.Code, rec.Body.Len())
		}
	})

	t.Run("Object URL resolves", func(t *testing.T) {
		rec := s.do(httptest.NewRequest(http.MethodGet, resp.ImageURL, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s returned %d", resp.ImageURL, rec.Code)
		}
		if rec.Header().Get(echo.HeaderContentType) != "image/png" {
			t.Errorf("Content-Type = %q", rec.Header().Get(echo.HeaderContentType))
		}
	})

	t.Run("Job completed", func(t *testing.T) {
		jobID, err := ulid.Parse(resp.JobID)
		if err != nil {
			t.Fatalf("Invalid job id %q: %v", resp.JobID, err)
		}
		job, err := s.db.GetJob(jobID)
		if err != nil {
			t.Fatalf("GetJob failed: %v", err)
		}
		if job.Status != database.JobStatusCompleted || job.Progress != 100 {
			t.Errorf("Job = %s at %d%%", job.Status, job.Progress)
		}
		if !strings.Contains(job.Result, resp.ID) {
			t.Errorf("Job result %q does not name the resume", job.Result)
		}
	})
}

func TestUploadResumeLoadsLibraryOnce(t *testing.T) {
	s := newTestServer(t)
	if s.handler.Loader.Loaded() {
		t.Fatal("Library loaded before first upload")
	}
	for i := 0; i < 3; i++ {
		s.upload(t, "resume.pdf")
	}
	if got := s.imports.Load(); got != 1 {
		t.Errorf("Library imported %d times, want 1", got)
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/resumes?limit=2", nil))
	var resumes []database.ResumeRecord
	json.Unmarshal(rec.Body.Bytes(), &resumes)
	if rec.Code != http.StatusOK || len(resumes) != 2 {
		t.Errorf("GET /api/resumes?limit=2 = %d with %d resumes", rec.Code, len(resumes))
	}
}

func TestUploadResumeRejects(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		fileName string
		content  string
		fields   map[string]string
		want     int
	}{
		{"Missing file", "", "", nil, http.StatusBadRequest},
		{"Not a PDF", "resume.pdf", "plain text pretending", nil, http.StatusUnsupportedMediaType},
		{"Invalid feedback", "resume.pdf", samplePDF, map[string]string{"feedback": `{"overallScore": 140}`}, http.StatusBadRequest},
		{"Too large", "resume.pdf", samplePDF + strings.Repeat("x", 1<<20), nil, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(uploadRequest(t, tt.fileName, tt.content, tt.fields))
			if rec.Code != tt.want {
				t.Errorf("Status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestUploadResumeConversionFailure(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(uploadRequest(t, "resume.pdf", brokenPDF, nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Status = %d, want 422: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if !strings.HasPrefix(body["error"], "Failed to convert PDF: ") || !strings.Contains(body["error"], "Invalid PDF structure") {
		t.Errorf("error = %q", body["error"])
	}

	jobID, err := ulid.Parse(body["jobId"])
	if err != nil {
		t.Fatalf("Invalid job id: %v", err)
	}
	job, _ := s.db.GetJob(jobID)
	if job == nil || job.Status != database.JobStatusFailed || job.Error != body["error"] {
		t.Errorf("Job = %+v", job)
	}

	resumes, _ := database.FetchAllResumes(context.Background(), s.db)
	if len(resumes) != 0 {
		t.Errorf("Failed upload left %d records", len(resumes))
	}
}

func TestUploadResumeFormRedirect(t *testing.T) {
	s := newTestServer(t)
	req := uploadRequest(t, "resume.pdf", samplePDF, nil)
	req.Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml")
	rec := s.do(req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("Status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); !strings.HasPrefix(loc, "/resume/") {
		t.Errorf("Location = %q", loc)
	}
}

func TestUpdateResumeFeedback(t *testing.T) {
	s := newTestServer(t)
	resp := s.upload(t, "resume.pdf")

	put := func(id, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/resume/"+id+"/feedback", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return s.do(req)
	}

	rec := put(resp.ID, `{"overallScore": 77, "content": {"score": 80, "tips": [{"type": "good", "tip": "Strong verbs"}]}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT feedback returned %d: %s", rec.Code, rec.Body.String())
	}
	record, err := database.FetchResume(context.Background(), s.db, resp.ID)
	if err != nil || record.Feedback == nil || record.Feedback.OverallScore != 77 {
		t.Errorf("Stored feedback = %+v, %v", record, err)
	}

	if rec := put(resp.ID, `{"overallScore": -1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Invalid feedback returned %d", rec.Code)
	}
	if rec := put("missing", `{"overallScore": 10}`); rec.Code != http.StatusNotFound {
		t.Errorf("Unknown resume returned %d", rec.Code)
	}
}

func TestDeleteResume(t *testing.T) {
	s := newTestServer(t)
	resp := s.upload(t, "resume.pdf")

	rec := s.do(httptest.NewRequest(http.MethodDelete, "/api/resume/"+resp.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE returned %d", rec.Code)
	}
	if _, err := s.handler.Store.Read(resp.Resume.ResumePath); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("PDF still stored: %v", err)
	}
	if _, err := s.handler.Store.Read(resp.Resume.ImagePath); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Image still stored: %v", err)
	}
	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/resume/"+resp.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete returned %d", rec.Code)
	}
	rec = s.do(httptest.NewRequest(http.MethodDelete, "/api/resume/"+resp.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Second DELETE returned %d", rec.Code)
	}
}

func TestGetBlobUnknown(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/blob/00000000-0000-0000-0000-000000000000", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Unknown blob returned %d", rec.Code)
	}
}

func TestJobRoutes(t *testing.T) {
	s := newTestServer(t)
	resp := s.upload(t, "resume.pdf")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/jobs/"+resp.JobID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET job returned %d", rec.Code)
	}
	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/jobs/not-a-ulid", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Malformed job id returned %d", rec.Code)
	}
	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/jobs/"+ulid.Make().String(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Unknown job returned %d", rec.Code)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/jobs?limit=abc", nil))
	var jobs []database.Job
	json.Unmarshal(rec.Body.Bytes(), &jobs)
	if rec.Code != http.StatusOK || len(jobs) != 1 {
		t.Errorf("GET jobs = %d with %d jobs", rec.Code, len(jobs))
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/jobs/active", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("GET active jobs = %d %s", rec.Code, rec.Body.String())
	}
}

func TestAboutAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/about", nil))
	var about map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &about)
	if rec.Code != http.StatusOK || about["rendererLoaded"] != false {
		t.Errorf("About before upload = %d %v", rec.Code, about)
	}

	s.upload(t, "resume.pdf")
	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/about", nil))
	json.Unmarshal(rec.Body.Bytes(), &about)
	if about["rendererVersion"] != "test" || about["workerSource"] != "test://worker.js" {
		t.Errorf("About after upload = %v", about)
	}
	if about["rendererImports"] != float64(1) {
		t.Errorf("rendererImports = %v", about["rendererImports"])
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Health returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestScheduledJobs(t *testing.T) {
	s := newTestServer(t)
	s.upload(t, "resume.pdf")

	s.handler.runTracked(database.JobTypeObjectURLSweep, "Sweeping object URLs", s.handler.sweepObjectURLs)
	s.handler.runTracked(database.JobTypeJobCleanup, "Pruning finished jobs", s.handler.pruneJobs)

	jobs, err := s.db.GetRecentJobs(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	byType := map[database.JobType]database.Job{}
	for _, job := range jobs {
		byType[job.Type] = job
	}
	sweep := byType[database.JobTypeObjectURLSweep]
	if sweep.Status != database.JobStatusCompleted || sweep.Result != `{"remaining":1,"removed":0}` {
		t.Errorf("Sweep job = %+v", sweep)
	}
	if byType[database.JobTypeJobCleanup].Status != database.JobStatusCompleted {
		t.Errorf("Cleanup job = %+v", byType[database.JobTypeJobCleanup])
	}

	failing := func() (map[string]int, error) { panic("boom") }
	s.handler.runTracked(database.JobTypeJobCleanup, "Exploding", failing)
	active, _ := s.db.GetActiveJobs()
	if len(active) != 0 {
		t.Errorf("Panicking job left %d active jobs", len(active))
	}
}

func TestInitializeSchedules(t *testing.T) {
	s := newTestServer(t)
	c := s.handler.InitializeSchedules()
	defer s.handler.StopSchedules()
	if got := len(c.Entries()); got != 2 {
		t.Errorf("Scheduled %d jobs, want 2", got)
	}
}

func TestStartupChecks(t *testing.T) {
	s := newTestServer(t)
	if err := s.handler.StartupChecks(context.Background()); err != nil {
		t.Fatalf("StartupChecks failed: %v", err)
	}

	s.handler.ServerConfig.StoragePath = ""
	if err := s.handler.StartupChecks(context.Background()); err == nil {
		t.Error("StartupChecks should fail without a storage path")
	}
}

func TestResumeFilePath(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"resume.pdf", "resumes/01ID/resume.pdf"},
		{"../../etc/passwd", "resumes/01ID/passwd"},
		{`C:\Users\me\cv.pdf`, "resumes/01ID/cv.pdf"},
		{"", "resumes/01ID/resume.pdf"},
	}
	for _, tt := range tests {
		if got := resumeFilePath("01ID", tt.name); got != tt.want {
			t.Errorf("resumeFilePath(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

// failingStore refuses every write
type failingStore struct {
	storage.FileStore
}

func (failingStore) Write(name string, data []byte) error {
	return errors.New("disk full")
}

// TestUploadResumeStorageFailureRevokesImage checks a failed store does not leave the preview registered
func TestUploadResumeStorageFailureRevokesImage(t *testing.T) {
	s := newTestServer(t)
	s.handler.Store = failingStore{FileStore: s.handler.Store}

	rec := s.do(uploadRequest(t, "resume.pdf", samplePDF, nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Status = %d, want 500: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "disk full") {
		t.Errorf("Body = %s", rec.Body.String())
	}
	if n := s.handler.Rasterizer.ObjectURLs().Len(); n != 0 {
		t.Errorf("ObjectURLs holds %d entries after a failed upload, want 0", n)
	}

	resumes, _ := database.FetchAllResumes(context.Background(), s.db)
	if len(resumes) != 0 {
		t.Errorf("Failed upload left %d records", len(resumes))
	}
}
