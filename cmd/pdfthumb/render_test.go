package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/drummonds/resuminds/internal/build"
)

func TestImporterFor(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{backend: "pdfium"},
		{backend: "fitz"},
		{backend: "poppler", wantErr: true},
		{backend: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			importer, err := importerFor(tt.backend)
			if (err != nil) != tt.wantErr {
				t.Fatalf("importerFor(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if !tt.wantErr && importer == nil {
				t.Errorf("importerFor(%q) returned a nil importer", tt.backend)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name string
		src  string
		dir  string
		want string
	}{
		{name: "Beside source", src: filepath.Join("in", "cv.pdf"), want: filepath.Join("in", "cv.png")},
		{name: "Into directory", src: filepath.Join("in", "cv.pdf"), dir: "out", want: filepath.Join("out", "cv.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.src, tt.dir, "cv.png"); got != tt.want {
				t.Errorf("outputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "No file", args: []string{"render"}, wantErr: "accepts 1 arg"},
		{name: "Unknown backend", args: []string{"render", "cv.pdf", "--backend", "poppler"}, wantErr: "unknown backend"},
		{name: "Missing file", args: []string{"render", filepath.Join(t.TempDir(), "missing.pdf"), "--backend", "fitz"}, wantErr: "opening"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetErr(&out)
			rootCmd.SetArgs(tt.args)

			err := rootCmd.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute(%v) error = %v, want it to contain %q", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if want := "pdfthumb version: " + build.Version; !strings.Contains(out.String(), want) {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
