package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/drummonds/resuminds/config"
	"github.com/drummonds/resuminds/engine/pdfrender"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <file.pdf>",
	Short: "Render the first page of a PDF to a PNG next to it or into --output",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "", "directory for the PNG (default is the PDF's directory)")
	renderCmd.Flags().StringP("backend", "b", config.RenderBackendPDFium, "rendering backend: pdfium or fitz")
	renderCmd.Flags().String("worker-source", "", "worker source handed to the PDF library before first use")
	renderCmd.Flags().Duration("timeout", 2*time.Minute, "give up after this long")
}

func runRender(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	backend, _ := cmd.Flags().GetString("backend")
	workerSource, _ := cmd.Flags().GetString("worker-source")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	importer, err := importerFor(backend)
	if err != nil {
		return err
	}

	src := args[0]
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer f.Close()

	var opts []pdfrender.LoaderOption
	if workerSource != "" {
		opts = append(opts, pdfrender.WithWorkerSource(workerSource))
	}
	loader := pdfrender.NewLoader(importer, opts...)
	defer loader.Close()

	rasterizer := pdfrender.NewRasterizer(loader, pdfrender.WithStageHook(logStage))

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	result := rasterizer.RasterizeFirstPage(ctx, f, filepath.Base(src))
	if !result.OK() {
		return errors.New(result.Error)
	}
	// the CLI writes the bytes out, the in-memory URL is not needed
	rasterizer.ObjectURLs().Revoke(result.ImageURL)

	dest := outputPath(src, output, result.File.Name)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(dest, result.File.Data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", dest, result.File.Size())
	return nil
}

// importerFor maps the --backend flag onto a rendering backend
func importerFor(backend string) (pdfrender.Importer, error) {
	switch backend {
	case config.RenderBackendPDFium:
		return pdfrender.ImportPDFium(pdfrender.DefaultPoolConfig), nil
	case config.RenderBackendFitz:
		return pdfrender.ImportFitz, nil
	default:
		return nil, fmt.Errorf("unknown backend %q, want %s or %s", backend, config.RenderBackendPDFium, config.RenderBackendFitz)
	}
}

// outputPath puts name in dir, or beside src when dir is empty
func outputPath(src, dir, name string) string {
	if dir == "" {
		dir = filepath.Dir(src)
	}
	return filepath.Join(dir, name)
}

func logStage(_ context.Context, stage pdfrender.Stage, elapsed time.Duration, err error) {
	if err != nil {
		Logger.Error("Stage failed", "stage", stage, "elapsed", elapsed, "error", err)
		return
	}
	Logger.Debug("Stage done", "stage", stage, "elapsed", elapsed)
}
