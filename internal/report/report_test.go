package report_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() models.ExportRecord {
	withMeters := models.NewSnapshot(
		models.Property{ID: 13, Street: "Lindenallee", HouseNumber: "4a", PostalCode: "50667", City: "Koeln"},
		[]models.Contract{
			{ID: 1, PropertyID: 13, EnergyType: "STROM", MeterNumber: "Z-1", MeterStatus: "1", HTNT: true},
			{ID: 2, PropertyID: 13, EnergyType: "gas", MeterNumber: "Z-2", MeterStatus: "0"},
		},
	)
	bare := models.NewSnapshot(models.Property{ID: 14, Street: "Ringstrasse"}, nil)
	rec := models.NewExportRecord([]models.PropertySnapshot{withMeters, bare}, "tester",
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	rec.Handle = "cpb7k2t0000000000000"
	return rec
}

func TestRows(t *testing.T) {
	rows := report.Rows(sampleRecord())

	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Len(t, r, len(report.Headers))
	}
	assert.Equal(t, []string{"13", "Lindenallee", "4a", "50667", "Koeln", "", "Strom", "Z-1", "1", "", "yes"}, rows[0])
	assert.Equal(t, "Gas", rows[1][6])
	assert.Equal(t, "no", rows[1][10])
	assert.Equal(t, "14", rows[2][0])
	assert.Empty(t, rows[2][7])
}

func TestRender(t *testing.T) {
	cfg, err := report.NewConfig("")
	require.NoError(t, err)

	doc, err := report.Render(cfg, sampleRecord())

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.GetBytes(), []byte("%PDF")))

	path := filepath.Join(t.TempDir(), "export.pdf")
	assert.NoError(t, doc.Save(path))
}

func TestNewConfig_MissingFont(t *testing.T) {
	_, err := report.NewConfig(filepath.Join(t.TempDir(), "missing.ttf"))

	assert.Error(t, err)
}
