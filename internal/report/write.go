package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mujanati13/xcite/internal/models"
)

// Format of a written report.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatTSV Format = "tsv"
)

// FormatFromPath picks the format by file extension, PDF unless it ends in .tsv.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return FormatTSV
	}
	return FormatPDF
}

// FileName is the default file name of a record's report.
func FileName(handle string, f Format) string {
	return fmt.Sprintf("export-%s.%s", handle, f)
}

// WriteTSV writes the header line and the rows of rec tab-separated.
func WriteTSV(w io.Writer, rec models.ExportRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(Rows(rec)); err != nil {
		return fmt.Errorf("write tsv: %w", err)
	}
	return nil
}

// Write renders rec in format f to path. The file appears only once it is
// complete: content goes to a temporary file in the same directory first and is
// then renamed into place.
func Write(cfg *Config, rec models.ExportRecord, f Format, path string) error {
	var content []byte
	switch f {
	case FormatTSV:
		var buf bytes.Buffer
		if err := WriteTSV(&buf, rec); err != nil {
			return err
		}
		content = buf.Bytes()
	case FormatPDF:
		doc, err := Render(cfg, rec)
		if err != nil {
			return fmt.Errorf("render %s: %w", rec.Handle, err)
		}
		content = doc.GetBytes()
	default:
		return fmt.Errorf("unknown report format %q", f)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("move report into place: %w", err)
	}
	return nil
}
