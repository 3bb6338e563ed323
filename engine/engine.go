package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/drummonds/resuminds/config"
	"github.com/drummonds/resuminds/database"
	"github.com/drummonds/resuminds/engine/pdfrender"
	"github.com/drummonds/resuminds/feedback"
	"github.com/drummonds/resuminds/storage"
	"github.com/labstack/echo/v4"
	"github.com/ledongthuc/pdf"
	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
)

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	DB           database.Repository
	KV           database.KeyValueStore // defaults to DB when nil
	Store        storage.FileStore
	Loader       *pdfrender.Loader
	Rasterizer   *pdfrender.Rasterizer
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
	cron         *cron.Cron
}

// resumeUpload is a validated upload waiting to be processed
type resumeUpload struct {
	FileName       string
	Data           []byte
	CompanyName    string
	JobTitle       string
	JobDescription string
	Feedback       *feedback.Feedback
}

// ingestion is a stored upload and the job that tracked it
type ingestion struct {
	JobID  ulid.ULID
	Record *database.ResumeRecord
	Result pdfrender.ConversionResult
}

// ingestError carries the job the failure was recorded against
type ingestError struct {
	JobID ulid.ULID
	Err   string
}

func (e *ingestError) Error() string { return e.Err }

type jobIDKey struct{}

// stageProgress is the job percentage reported once a stage finishes
var stageProgress = map[pdfrender.Stage]int{
	pdfrender.StageLoad:     10,
	pdfrender.StageRead:     20,
	pdfrender.StageDecode:   35,
	pdfrender.StagePage:     45,
	pdfrender.StageViewport: 50,
	pdfrender.StageSurface:  55,
	pdfrender.StageRender:   80,
	pdfrender.StageEncode:   90,
	pdfrender.StagePackage:  95,
}

// NewImporter picks the rendering backend named in the config
func NewImporter(serverConfig config.ServerConfig) pdfrender.Importer {
	switch serverConfig.RenderBackend {
	case config.RenderBackendFitz:
		return pdfrender.ImportFitz
	default:
		workers := serverConfig.PDFiumWorkers
		if workers < 1 {
			workers = 1
		}
		return pdfrender.ImportPDFium(pdfrender.PoolConfig{
			MinIdle:         1,
			MaxIdle:         workers,
			MaxTotal:        workers,
			InstanceTimeout: pdfrender.DefaultPoolConfig.InstanceTimeout,
		})
	}
}

// SetupRenderer builds the loader and rasterizer unless they were injected already
func (serverHandler *ServerHandler) SetupRenderer() {
	if serverHandler.Loader == nil {
		var opts []pdfrender.LoaderOption
		if serverHandler.ServerConfig.WorkerSource != "" {
			opts = append(opts, pdfrender.WithWorkerSource(serverHandler.ServerConfig.WorkerSource))
		}
		serverHandler.Loader = pdfrender.NewLoader(NewImporter(serverHandler.ServerConfig), opts...)
	}
	if serverHandler.Rasterizer == nil {
		serverHandler.Rasterizer = pdfrender.NewRasterizer(serverHandler.Loader,
			pdfrender.WithObjectURLs(pdfrender.NewObjectURLs(serverHandler.ServerConfig.ObjectURLTTL)),
			pdfrender.WithStageHook(serverHandler.trackStage),
		)
	}
}

func (serverHandler *ServerHandler) kv() database.KeyValueStore {
	if serverHandler.KV != nil {
		return serverHandler.KV
	}
	return serverHandler.DB
}

// trackStage logs every rasterizer stage and advances the job carried in ctx
func (serverHandler *ServerHandler) trackStage(ctx context.Context, stage pdfrender.Stage, elapsed time.Duration, err error) {
	if err != nil {
		Logger.Warn("Rasterizer stage failed", "stage", stage, "elapsed", elapsed, "error", err)
	} else {
		Logger.Debug("Rasterizer stage finished", "stage", stage, "elapsed", elapsed)
	}
	jobID, ok := ctx.Value(jobIDKey{}).(ulid.ULID)
	if !ok || err != nil {
		return
	}
	if updateErr := serverHandler.DB.UpdateJobProgress(jobID, stageProgress[stage], string(stage)); updateErr != nil {
		Logger.Warn("Failed to update job progress", "jobID", jobID.String(), "error", updateErr)
	}
}

// ingestResume renders, stores and records an upload under a tracked rasterize job
func (serverHandler *ServerHandler) ingestResume(ctx context.Context, upload resumeUpload) (out *ingestion, err error) {
	job, err := serverHandler.DB.CreateJob(database.JobTypeRasterize, "Rasterizing "+upload.FileName)
	if err != nil {
		Logger.Error("Failed to create rasterize job", "error", err)
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			Logger.Error("Panic in resume ingestion", "panic", r, "fileName", upload.FileName)
			serverHandler.DB.UpdateJobError(job.ID, fmt.Sprintf("Panic: %v", r))
			out, err = nil, &ingestError{JobID: job.ID, Err: fmt.Sprintf("Panic: %v", r)}
		}
	}()

	serverHandler.DB.UpdateJobStatus(job.ID, database.JobStatusRunning, "Rendering first page")

	result := serverHandler.Rasterizer.RasterizeFirstPage(context.WithValue(ctx, jobIDKey{}, job.ID), bytes.NewReader(upload.Data), upload.FileName)
	if !result.OK() {
		Logger.Error("Failed to rasterize resume", "fileName", upload.FileName, "error", result.Error)
		serverHandler.DB.UpdateJobError(job.ID, result.Error)
		return nil, &ingestError{JobID: job.ID, Err: result.Error}
	}
	defer func() {
		if err != nil {
			serverHandler.Rasterizer.ObjectURLs().Revoke(result.ImageURL)
		}
	}()

	id, err := database.NewResumeID()
	if err != nil {
		return nil, serverHandler.failJob(job.ID, "Failed to generate resume id", err)
	}

	record := &database.ResumeRecord{
		ID:             id,
		ResumePath:     resumeFilePath(id, upload.FileName),
		ImagePath:      resumeFilePath(id, result.File.Name),
		CompanyName:    upload.CompanyName,
		JobTitle:       upload.JobTitle,
		JobDescription: upload.JobDescription,
		Feedback:       upload.Feedback,
		ResumeSize:     int64(len(upload.Data)),
		CreatedAt:      time.Now(),
	}
	record.PageCount, record.ResumeText = pdfProcessing(upload.Data)

	serverHandler.DB.UpdateJobProgress(job.ID, 97, "store")
	if err := serverHandler.Store.Write(record.ResumePath, upload.Data); err != nil {
		return nil, serverHandler.failJob(job.ID, "Failed to store resume", err)
	}
	if err := serverHandler.Store.Write(record.ImagePath, result.File.Data); err != nil {
		serverHandler.Store.Delete(record.ResumePath)
		return nil, serverHandler.failJob(job.ID, "Failed to store preview", err)
	}
	if err := database.SaveResume(ctx, serverHandler.kv(), record); err != nil {
		serverHandler.removeResumeFiles(record)
		return nil, serverHandler.failJob(job.ID, "Failed to save resume record", err)
	}

	jobResult, _ := json.Marshal(map[string]string{
		"resumeId": record.ID,
		"imageUrl": result.ImageURL,
	})
	if err := serverHandler.DB.CompleteJob(job.ID, string(jobResult)); err != nil {
		Logger.Warn("Failed to complete job", "jobID", job.ID.String(), "error", err)
	}
	Logger.Info("Resume ingested", "id", record.ID, "fileName", upload.FileName, "pages", record.PageCount, "imageBytes", result.File.Size())
	return &ingestion{JobID: job.ID, Record: record, Result: result}, nil
}

func (serverHandler *ServerHandler) failJob(jobID ulid.ULID, msg string, err error) error {
	Logger.Error(msg, "jobID", jobID.String(), "error", err)
	serverHandler.DB.UpdateJobError(jobID, fmt.Sprintf("%s: %v", msg, err))
	return fmt.Errorf("%s: %w", msg, err)
}

// removeResumeFiles deletes both stored files, logging rather than failing
func (serverHandler *ServerHandler) removeResumeFiles(record *database.ResumeRecord) {
	for _, name := range []string{record.ResumePath, record.ImagePath} {
		if name == "" {
			continue
		}
		if err := serverHandler.Store.Delete(name); err != nil {
			Logger.Warn("Unable to delete stored file", "path", name, "error", err)
		}
	}
}

// resumeFilePath places a file under the resume's own folder
func resumeFilePath(id, fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "resume.pdf"
	}
	return path.Join("resumes", id, name)
}

// pdfProcessing extracts the page count and plain text. Failures are logged and leave both empty.
func pdfProcessing(data []byte) (pages int, text string) {
	defer func() {
		if r := recover(); r != nil {
			Logger.Warn("PDF text extraction panicked", "panic", r)
			pages, text = 0, ""
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		Logger.Warn("Unable to open PDF for text extraction", "error", err)
		return 0, ""
	}
	pages = reader.NumPage()
	plain, err := reader.GetPlainText()
	if err != nil {
		Logger.Warn("Unable to extract PDF text", "error", err)
		return pages, ""
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		Logger.Warn("Unable to read PDF text", "error", err)
		return pages, ""
	}
	return pages, strings.TrimSpace(buf.String())
}
