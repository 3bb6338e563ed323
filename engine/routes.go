package engine

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/drummonds/resuminds/database"
	"github.com/drummonds/resuminds/engine/pdfrender"
	"github.com/drummonds/resuminds/feedback"
	"github.com/drummonds/resuminds/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
)

const pdfMIME = "application/pdf"

// thumbnailWidth is the width of list previews, height follows the aspect ratio
const thumbnailWidth = 240

// uploadResponse is returned after a successful upload
type uploadResponse struct {
	ID       string                 `json:"id"`
	JobID    string                 `json:"jobId"`
	ImageURL string                 `json:"imageUrl"`
	File     *pdfrender.File        `json:"file"`
	Resume   *database.ResumeRecord `json:"resume"`
}

// RegisterRoutes adds the API and blob routes to the echo instance
func (serverHandler *ServerHandler) RegisterRoutes() {
	e := serverHandler.Echo

	// Resume API routes
	e.POST("/api/resume/upload", serverHandler.UploadResume)
	e.GET("/api/resumes", serverHandler.GetResumes)
	e.GET("/api/resume/:id", serverHandler.GetResume)
	e.GET("/api/resume/:id/pdf", serverHandler.GetResumePDF)
	e.GET("/api/resume/:id/image", serverHandler.GetResumeImage)
	e.GET("/api/resume/:id/thumbnail", serverHandler.GetResumeThumbnail)
	e.PUT("/api/resume/:id/feedback", serverHandler.UpdateResumeFeedback)
	e.DELETE("/api/resume/:id", serverHandler.DeleteResume)

	// Object URLs handed out by the rasterizer (not JSON, so not under /api/*)
	e.GET(pdfrender.ObjectURLPrefix+":id", serverHandler.GetBlob)

	// Job tracking API routes
	e.GET("/api/jobs", serverHandler.GetRecentJobs)
	e.GET("/api/jobs/active", serverHandler.GetActiveJobs)
	e.GET("/api/jobs/:id", serverHandler.GetJob)

	// Admin API routes
	e.GET("/api/about", serverHandler.GetAboutInfo)
	e.GET("/api/health", serverHandler.GetHealth)
	e.GET("/api/swagger.json", serverHandler.GetSwaggerDoc)
}

// UploadResume handles resumes uploaded from the frontend
// @Summary Upload a resume
// @Description Upload a PDF resume, render its first page to PNG and store both with the job details
// @Tags Resumes
// @Accept multipart/form-data
// @Produce json
// @Param resume formData file true "Resume PDF"
// @Param companyName formData string false "Company name"
// @Param jobTitle formData string false "Job title"
// @Param jobDescription formData string false "Job description"
// @Param feedback formData string false "Feedback JSON"
// @Success 200 {object} uploadResponse "Stored resume"
// @Success 303 {string} string "Redirect to the resume page for HTML form posts"
// @Failure 400 {object} map[string]interface{} "Missing file or invalid feedback"
// @Failure 413 {object} map[string]interface{} "File too large"
// @Failure 415 {object} map[string]interface{} "Not a PDF"
// @Failure 422 {object} map[string]interface{} "Conversion failed"
// @Router /resume/upload [post]
func (serverHandler *ServerHandler) UploadResume(c echo.Context) error {
	maxBytes := serverHandler.ServerConfig.MaxUploadBytes()
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxBytes+1<<20)

	fileHeader, err := c.FormFile("resume")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return c.JSON(http.StatusRequestEntityTooLarge, map[string]interface{}{"error": "Upload too large"})
		}
		Logger.Warn("Upload without resume file", "error", err)
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": "Missing resume file"})
	}
	if fileHeader.Size > maxBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]interface{}{
			"error":    "Upload too large",
			"maxBytes": maxBytes,
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		Logger.Error("Unable to open uploaded file", "fileName", fileHeader.Filename, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Unable to read upload"})
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxBytes))
	if err != nil {
		Logger.Error("Unable to read uploaded file", "fileName", fileHeader.Filename, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Unable to read upload"})
	}

	detected := mimetype.Detect(data)
	if !detected.Is(pdfMIME) {
		Logger.Warn("Rejected non PDF upload", "fileName", fileHeader.Filename, "detected", detected.String())
		return c.JSON(http.StatusUnsupportedMediaType, map[string]interface{}{
			"error":    "Only PDF resumes are supported",
			"detected": detected.String(),
		})
	}

	upload := resumeUpload{
		FileName:       fileHeader.Filename,
		Data:           data,
		CompanyName:    strings.TrimSpace(c.FormValue("companyName")),
		JobTitle:       strings.TrimSpace(c.FormValue("jobTitle")),
		JobDescription: strings.TrimSpace(c.FormValue("jobDescription")),
	}
	if raw := strings.TrimSpace(c.FormValue("feedback")); raw != "" {
		fb, err := feedback.Parse([]byte(raw))
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
		}
		upload.Feedback = fb
	}

	ingested, err := serverHandler.ingestResume(c.Request().Context(), upload)
	if err != nil {
		var ingestErr *ingestError
		if errors.As(err, &ingestErr) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"error": ingestErr.Err,
				"jobId": ingestErr.JobID.String(),
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": err.Error()})
	}

	if wantsHTML(c) {
		return c.Redirect(http.StatusSeeOther, "/resume/"+ingested.Record.ID)
	}
	return c.JSON(http.StatusOK, uploadResponse{
		ID:       ingested.Record.ID,
		JobID:    ingested.JobID.String(),
		ImageURL: ingested.Result.ImageURL,
		File:     ingested.Result.File,
		Resume:   ingested.Record,
	})
}

// GetResumes returns every stored resume, newest first
// @Summary List resumes
// @Description Retrieve all stored resumes, newest first. Use limit to cap the list.
// @Tags Resumes
// @Produce json
// @Param limit query int false "Maximum number of resumes"
// @Success 200 {array} database.ResumeRecord "Resumes"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /resumes [get]
func (serverHandler *ServerHandler) GetResumes(c echo.Context) error {
	resumes, err := database.FetchAllResumes(c.Request().Context(), serverHandler.kv())
	if err != nil {
		Logger.Error("Unable to fetch resumes", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Failed to retrieve resumes"})
	}
	limit := queryInt(c, "limit", 0)
	if limit > 0 && len(resumes) > limit {
		resumes = resumes[:limit]
	}
	if resumes == nil {
		resumes = []database.ResumeRecord{}
	}
	return c.JSON(http.StatusOK, resumes)
}

// GetResume returns a single resume record
// @Summary Get resume by ID
// @Tags Resumes
// @Produce json
// @Param id path string true "Resume ID"
// @Success 200 {object} database.ResumeRecord "Resume"
// @Failure 404 {object} map[string]interface{} "Resume not found"
// @Router /resume/{id} [get]
func (serverHandler *ServerHandler) GetResume(c echo.Context) error {
	record, ok, err := serverHandler.fetchResume(c)
	if !ok {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// GetResumePDF streams the stored resume
// @Summary Download resume PDF
// @Tags Resumes
// @Produce application/pdf
// @Param id path string true "Resume ID"
// @Success 200 {file} file "Resume PDF"
// @Failure 404 {object} map[string]interface{} "Resume not found"
// @Router /resume/{id}/pdf [get]
func (serverHandler *ServerHandler) GetResumePDF(c echo.Context) error {
	record, ok, err := serverHandler.fetchResume(c)
	if !ok {
		return err
	}
	return serverHandler.serveStored(c, record.ResumePath, pdfMIME)
}

// GetResumeImage streams the first page preview
// @Summary Get resume preview image
// @Tags Resumes
// @Produce image/png
// @Param id path string true "Resume ID"
// @Success 200 {file} file "First page PNG"
// @Failure 404 {object} map[string]interface{} "Resume not found"
// @Router /resume/{id}/image [get]
func (serverHandler *ServerHandler) GetResumeImage(c echo.Context) error {
	record, ok, err := serverHandler.fetchResume(c)
	if !ok {
		return err
	}
	return serverHandler.serveStored(c, record.ImagePath, pdfrender.PNGType)
}

// GetResumeThumbnail returns a small copy of the preview for lists
// @Summary Get resume thumbnail
// @Tags Resumes
// @Produce image/png
// @Param id path string true "Resume ID"
// @Success 200 {file} file "Thumbnail PNG"
// @Failure 404 {object} map[string]interface{} "Resume not found"
// @Router /resume/{id}/thumbnail [get]
func (serverHandler *ServerHandler) GetResumeThumbnail(c echo.Context) error {
	record, ok, err := serverHandler.fetchResume(c)
	if !ok {
		return err
	}
	data, err := serverHandler.Store.Read(record.ImagePath)
	if err != nil {
		return storedFileError(c, record.ImagePath, err)
	}
	thumb, err := thumbnail(data, thumbnailWidth)
	if err != nil {
		Logger.Error("Unable to build thumbnail", "id", record.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Unable to build thumbnail"})
	}
	return c.Blob(http.StatusOK, pdfrender.PNGType, thumb)
}

// UpdateResumeFeedback replaces the feedback stored with a resume
// @Summary Set resume feedback
// @Tags Resumes
// @Accept json
// @Produce json
// @Param id path string true "Resume ID"
// @Param feedback body feedback.Feedback true "Feedback"
// @Success 200 {object} database.ResumeRecord "Updated resume"
// @Failure 400 {object} map[string]interface{} "Invalid feedback"
// @Failure 404 {object} map[string]interface{} "Resume not found"
// @Router /resume/{id}/feedback [put]
func (serverHandler *ServerHandler) UpdateResumeFeedback(c echo.Context) error {
	record, ok, err := serverHandler.fetchResume(c)
	if !ok {
		return err
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": "Unable to read body"})
	}
	fb, err := feedback.Parse(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{"error": err.Error()})
	}
	record.Feedback = fb
	if err := database.SaveResume(c.Request().Context(), serverHandler.kv(), record); err != nil {
		Logger.Error("Unable to save feedback", "id", record.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Failed to save feedback"})
	}
	Logger.Info("Feedback updated", "id", record.ID, "overallScore", fb.OverallScore)
	return c.JSON(http.StatusOK, record)
}

// DeleteResume removes a resume record and its stored files
// @Summary Delete a resume
// @Tags Resumes
// @Produce json
// @Param id path string true "Resume ID"
// @Success 200 {string} string "Resume Deleted"
// @Failure 404 {object} map[string]interface{} "Resume not found"
// @Router /resume/{id} [delete]
func (serverHandler *ServerHandler) DeleteResume(c echo.Context) error {
	record, ok, err := serverHandler.fetchResume(c)
	if !ok {
		return err
	}
	if err := database.DeleteResume(c.Request().Context(), serverHandler.kv(), record.ID); err != nil {
		Logger.Error("Unable to delete resume from database", "id", record.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Failed to delete resume"})
	}
	serverHandler.removeResumeFiles(record)
	return c.JSON(http.StatusOK, "Resume Deleted")
}

// GetBlob serves the bytes behind an object URL
// @Summary Resolve an object URL
// @Tags Resumes
// @Produce image/png
// @Param id path string true "Object URL id"
// @Success 200 {file} file "Blob contents"
// @Failure 404 {object} map[string]interface{} "Unknown or revoked URL"
// @Router /blob/{id} [get]
func (serverHandler *ServerHandler) GetBlob(c echo.Context) error {
	blob, ok := serverHandler.Rasterizer.ObjectURLs().Resolve(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]interface{}{"error": "Object URL not found"})
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=300")
	return c.Blob(http.StatusOK, blob.Type, blob.Data)
}

// fetchResume loads the record named by the :id param.
// When ok is false the error response has been written and err is what the handler returns.
func (serverHandler *ServerHandler) fetchResume(c echo.Context) (record *database.ResumeRecord, ok bool, err error) {
	id := c.Param("id")
	record, err = database.FetchResume(c.Request().Context(), serverHandler.kv(), id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, c.JSON(http.StatusNotFound, map[string]interface{}{"error": "Resume not found", "id": id})
	}
	if err != nil {
		Logger.Error("Unable to fetch resume", "id", id, "error", err)
		return nil, false, c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Failed to retrieve resume"})
	}
	return record, true, nil
}

func (serverHandler *ServerHandler) serveStored(c echo.Context, name, contentType string) error {
	data, err := serverHandler.Store.Read(name)
	if err != nil {
		return storedFileError(c, name, err)
	}
	return c.Blob(http.StatusOK, contentType, data)
}

func storedFileError(c echo.Context, name string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		Logger.Warn("Stored file missing", "path", name)
		return c.JSON(http.StatusNotFound, map[string]interface{}{"error": "File not found"})
	}
	Logger.Error("Unable to read stored file", "path", name, "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]interface{}{"error": "Unable to read file"})
}

// thumbnail scales a PNG down to width, keeping the aspect ratio
func thumbnail(data []byte, width int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
		img = imaging.Sharpen(img, 0.5)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func wantsHTML(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMETextHTML) && !strings.Contains(accept, echo.MIMEApplicationJSON)
}
