// Package report renders export records as PDF tables.
package report

import (
	"fmt"
	"strconv"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontfamily"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/johnfercher/maroto/v2/pkg/repository"
)

// Headers of the contract table, one row per contract.
var Headers = []string{
	"ID", "Street", "No.", "PLZ", "City", "Recipient",
	"Energy", "Meter no.", "Status", "Metering point", "HT/NT",
}

var widths = []int{5, 14, 5, 6, 10, 14, 7, 11, 5, 18, 5}

const customFamily = "custom"

type palette struct {
	Black     *props.Cell
	LightGray *props.Cell
	DarkGray  *props.Cell
	White     *props.Cell
}

type Config struct {
	pdfConf *entity.Config
	colours palette
	family  string
}

// NewConfig builds the page setup. fontPath may name a UTF-8 TTF font; empty
// uses the built-in Helvetica.
func NewConfig(fontPath string) (*Config, error) {
	b := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).
		WithTopMargin(15).
		WithRightMargin(10).
		WithPageNumber().
		WithPageSize(pagesize.A4).
		WithMaxGridSize(100)

	family := fontfamily.Helvetica
	if fontPath != "" {
		rf := repository.New()
		rf.AddUTF8Font(customFamily, fontstyle.Normal, fontPath)
		fonts, err := rf.Load()
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", fontPath, err)
		}
		b = b.WithCustomFonts(fonts)
		family = customFamily
	}

	return &Config{
		pdfConf: b.Build(),
		family:  family,
		colours: palette{
			Black:     &props.Cell{BackgroundColor: &props.BlackColor, BorderType: border.Left | border.Right},
			LightGray: &props.Cell{BackgroundColor: &props.Color{Red: 230, Green: 230, Blue: 230}, BorderType: border.Left | border.Right},
			DarkGray:  &props.Cell{BackgroundColor: &props.Color{Red: 200, Green: 200, Blue: 200}, BorderType: border.Left | border.Right},
			White:     &props.Cell{BackgroundColor: &props.WhiteColor, BorderType: border.Left | border.Right},
		},
	}, nil
}

type Handler struct {
	m   core.Maroto
	cfg *Config
}

func NewHandler(cfg *Config) *Handler {
	return &Handler{m: maroto.New(cfg.pdfConf), cfg: cfg}
}

func (h *Handler) textProps(size float64) props.Text {
	return props.Text{
		Family: h.cfg.family,
		Size:   size,
		Style:  fontstyle.Normal,
		Top:    1.5,
		Left:   1,
		Right:  1,
	}
}

func (h *Handler) AddTitleAndHeader(title string) {
	tp := h.textProps(13)
	tp.Align = align.Center
	tp.Color = &props.WhiteColor
	h.m.AddRow(10, text.NewCol(100, title, tp).WithStyle(h.cfg.colours.Black))

	hs := make([]core.Col, 0, len(Headers))
	for i, header := range Headers {
		hp := h.textProps(9)
		hp.Align = align.Center
		hp.Style = fontstyle.Bold
		hs = append(hs, text.NewCol(widths[i], header, hp).WithStyle(h.cfg.colours.White))
	}
	h.m.AddRows(row.New(8).Add(hs...))
}

// AddDataRows appends rows in alternating shades.
func (h *Handler) AddDataRows(batch [][]string) {
	for i, content := range batch {
		cell := h.cfg.colours.LightGray
		if i&1 == 0 {
			cell = h.cfg.colours.DarkGray
		}
		cs := make([]core.Col, 0, len(content))
		for j, c := range content {
			cs = append(cs, text.NewCol(widths[j], c, h.textProps(8)).WithStyle(cell))
		}
		h.m.AddRows(row.New(7).Add(cs...))
	}
}

func (h *Handler) AddSummary(line string) {
	tp := h.textProps(10)
	tp.Align = align.Right
	h.m.AddRow(9, text.NewCol(100, line, tp).WithStyle(h.cfg.colours.White))
}

func (h *Handler) Generate() (core.Document, error) {
	return h.m.Generate()
}

// Rows flattens rec into table rows: one per contract with the property
// columns repeated, or a single row for a property without contracts.
func Rows(rec models.ExportRecord) [][]string {
	var out [][]string
	for _, s := range rec.Properties {
		base := []string{
			strconv.FormatInt(s.ID, 10),
			s.Street,
			s.HouseNumber,
			s.PostalCode,
			s.City,
			s.RecipientName,
		}
		if len(s.Contracts) == 0 {
			out = append(out, append(base, "", "", "", "", ""))
			continue
		}
		for _, c := range s.Contracts {
			htnt := "no"
			if c.HTNT {
				htnt = "yes"
			}
			line := append(append([]string(nil), base...),
				c.DisplayEnergyType(),
				c.MeterNumber,
				c.MeterStatus,
				c.MeteringPoint,
				htnt,
			)
			out = append(out, line)
		}
	}
	return out
}

// Render builds the PDF of one export record.
func Render(cfg *Config, rec models.ExportRecord) (core.Document, error) {
	h := NewHandler(cfg)
	title := fmt.Sprintf("Export %s, %s", rec.Handle, rec.ExportDate.Format("2006-01-02 15:04"))
	if rec.ExportedBy != "" {
		title += ", by " + rec.ExportedBy
	}
	h.AddTitleAndHeader(title)
	h.AddDataRows(Rows(rec))
	h.AddSummary(fmt.Sprintf("%d properties, %d contracts", rec.PropertiesCount, rec.TotalContractsCount))
	return h.Generate()
}
