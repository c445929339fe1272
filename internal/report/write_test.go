package report_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// ─── format helpers ────────────────────────────────────────────────────────

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, report.FormatTSV, report.FormatFromPath("out/export.TSV"))
	assert.Equal(t, report.FormatPDF, report.FormatFromPath("out/export.pdf"))
	assert.Equal(t, report.FormatPDF, report.FormatFromPath("export"))
	assert.Equal(t, "export-abc.tsv", report.FileName("abc", report.FormatTSV))
}

// ─── WriteTSV ──────────────────────────────────────────────────────────────

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteTSV(&buf, sampleRecord()))

	r := csv.NewReader(&buf)
	r.Comma = '\t'
	lines, err := r.ReadAll()
	require.NoError(t, err)

	require.Len(t, lines, 4)
	assert.Equal(t, report.Headers, lines[0])
	assert.Equal(t, "Lindenallee", lines[1][1])
	assert.Equal(t, "14", lines[3][0])
}

// ─── Write ─────────────────────────────────────────────────────────────────

func TestWrite(t *testing.T) {
	cfg, err := report.NewConfig("")
	require.NoError(t, err)
	dir := t.TempDir()

	pdfPath := filepath.Join(dir, "nested", "r.pdf")
	require.NoError(t, report.Write(cfg, sampleRecord(), report.FormatPDF, pdfPath))
	b, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))

	tsvPath := filepath.Join(dir, "r.tsv")
	require.NoError(t, report.Write(cfg, sampleRecord(), report.FormatTSV, tsvPath))
	b, err = os.ReadFile(tsvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), strings.Join(report.Headers, "\t")))

	// no temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."), e.Name())
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	cfg, err := report.NewConfig("")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "r.xls")

	assert.Error(t, report.Write(cfg, sampleRecord(), report.Format("xls"), path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

// ─── Batch ─────────────────────────────────────────────────────────────────

func batchRecords(n int) []models.ExportRecord {
	out := make([]models.ExportRecord, 0, n)
	for i := range n {
		rec := sampleRecord()
		rec.Handle = strings.Repeat(string(rune('a'+i)), 4)
		out = append(out, rec)
	}
	return out
}

func TestBatch_Run(t *testing.T) {
	cfg, err := report.NewConfig("")
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "reports")

	b := report.NewBatch(cfg, dir, 2, testLogger)
	results, err := b.Run(context.Background(), batchRecords(5))
	require.NoError(t, err)

	require.Len(t, results, 5)
	for i, r := range results {
		require.NoError(t, r.Err, r.Handle)
		assert.Equal(t, batchRecords(5)[i].Handle, r.Handle)
		assert.FileExists(t, r.File)
	}
}

func TestBatch_TSV(t *testing.T) {
	dir := t.TempDir()
	b := report.NewBatch(nil, dir, 0, testLogger)
	b.Format = report.FormatTSV

	results, err := b.Run(context.Background(), batchRecords(2))
	require.NoError(t, err)
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, ".tsv", filepath.Ext(r.File))
	}
}

func TestBatch_Cancelled(t *testing.T) {
	cfg, err := report.NewConfig("")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := report.NewBatch(cfg, t.TempDir(), 1, testLogger).Run(ctx, batchRecords(3))
	require.NoError(t, err)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
		assert.Empty(t, r.File)
	}
}
