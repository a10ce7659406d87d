//go:build integration

package main

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startDatahubServer serves a stub datahub: one catalog page with a current
// and a superseded dataset, a download viewer page and a zip archive.
func startDatahubServer(t *testing.T) (*httptest.Server, []byte) {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"Allowances.csv": "account,allowances\nDE-1,100\n",
		"Emissions.csv":  "account,emissions\nDE-1,95\n",
		"readme.txt":     "EU ETS data extract",
	} {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	zipData := buf.Bytes()

	var serverURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		page := fmt.Sprintf(`<html><body><div class="datasets-tab">
<div class="accordion ui" id="ds-100">
<span class="dataset-title">EU ETS data 2005-2023<span class="formats"><span class="dh-label">Zipped CSV</span></span></span>
<div class="content">
<div><strong>Published:</strong> 9 May 2024</div>
<div><strong>Temporal coverage:</strong> 2005-2023</div>
<a href="%[1]s/factsheet">Metadata Factsheet</a>
</div></div>
<div class="accordion ui" id="ds-105">
<span class="dataset-title">EU ETS data 2005-2024<span class="formats"><span class="dh-label">Zipped CSV</span></span></span>
<div class="content">
<div><strong>Published:</strong> 1 Jul 2025</div>
<div><strong>Temporal coverage:</strong> 2005-2024</div>
<a href="%[1]s/factsheet">Metadata Factsheet</a>
<a href="%[1]s/viewer">Direct download</a>
</div></div>
</div></body></html>`, serverURL)
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/viewer", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/files/archive.zip"><span>Download all files</span></a></body></html>`))
	})
	mux.HandleFunc("/files/archive.zip", func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "archive.zip", time.Time{}, bytes.NewReader(zipData))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	serverURL = srv.URL
	return srv, zipData
}

func writeTempConfig(t *testing.T, dir, catalogURL string) string {
	t.Helper()

	cfgPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("catalog:\n  url: %s\nsettings:\n  output_format: text\n  log_level: error\n", catalogURL)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath
}

func TestFetch_ListsCatalog(t *testing.T) {
	srv, _ := startDatahubServer(t)
	cfgPath := writeTempConfig(t, t.TempDir(), srv.URL)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "fetch"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
}

func TestFiles_ListsArchiveEntries(t *testing.T) {
	srv, _ := startDatahubServer(t)
	cfgPath := writeTempConfig(t, t.TempDir(), srv.URL)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "files", "ds-105"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
}

func TestFiles_UnknownDatasetFails(t *testing.T) {
	srv, _ := startDatahubServer(t)
	cfgPath := writeTempConfig(t, t.TempDir(), srv.URL)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "files", "ds-999"})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestDownload_WritesArchive(t *testing.T) {
	srv, zipData := startDatahubServer(t)
	tempDir := t.TempDir()
	cfgPath := writeTempConfig(t, tempDir, srv.URL)
	destDir := filepath.Join(tempDir, "out")
	require.NoError(t, os.MkdirAll(destDir, 0o755))

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "download", "ds-105", "--dest", destDir})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	content, err := os.ReadFile(filepath.Join(destDir, "ds-105.zip"))
	require.NoError(t, err)
	assert.Equal(t, zipData, content)
}

func TestExtract_MatchingEntriesOnly(t *testing.T) {
	srv, _ := startDatahubServer(t)
	tempDir := t.TempDir()
	cfgPath := writeTempConfig(t, tempDir, srv.URL)
	destDir := filepath.Join(tempDir, "out")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "extract", "ds-105", "--pattern", "*.csv", "--dest", destDir})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	_, err := os.Stat(filepath.Join(destDir, "Allowances.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(destDir, "Emissions.csv"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(destDir, "readme.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestCheck_GatesOnBaseline(t *testing.T) {
	srv, _ := startDatahubServer(t)
	cfgPath := writeTempConfig(t, t.TempDir(), srv.URL)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "check", "ds-100"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	cmd = newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "check", "ds-105"})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestDownload_FactsheetOnlyDatasetFails(t *testing.T) {
	srv, _ := startDatahubServer(t)
	cfgPath := writeTempConfig(t, t.TempDir(), srv.URL)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", cfgPath, "download", "ds-100", "--dest", t.TempDir()})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}
