package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/table"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation refused or failed
	ExitCommandError = 2 // Bad flags, config or store
	ExitUnauthorized = 3 // Login required
)

// ExitError is an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Anything else is ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if errors.Is(err, table.ErrUnauthorized) {
		return ExitUnauthorized
	}
	return ExitFailure
}

var (
	colorGreen  = lipgloss.Color("#a6e3a1")
	colorBlue   = lipgloss.Color("#89b4fa")
	colorYellow = lipgloss.Color("#f9e2af")
	colorRed    = lipgloss.Color("#f38ba8")
	colorGray   = lipgloss.Color("#6c7086")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(colorGray).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorGray)

	kindStyles = map[table.NotificationKind]lipgloss.Style{
		table.KindSuccess: lipgloss.NewStyle().Foreground(colorGreen),
		table.KindInfo:    lipgloss.NewStyle().Foreground(colorBlue),
		table.KindWarning: lipgloss.NewStyle().Foreground(colorYellow),
		table.KindError:   lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	}
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON shape of every command result.
type CLIResponse struct {
	Status  string `json:"status"` // "ok" or "error"
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success prints text in text mode and data in JSON mode.
func (f *OutputFormatter) Success(text string, data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Notify prints a notification, optionally with a payload in JSON mode.
func (f *OutputFormatter) Notify(n table.Notification, data any) error {
	if f.Format == "json" {
		status := "ok"
		if n.Kind == table.KindError {
			status = "error"
		}
		return f.encode(CLIResponse{Status: status, Kind: string(n.Kind), Message: n.Message, Data: data})
	}
	if n.Message == "" {
		return nil
	}
	_, err := fmt.Fprintln(f.Writer, kindStyles[n.Kind].Render(n.Message))
	return err
}

// Warn shows a non-fatal problem. In JSON mode it goes to ErrWriter so stdout
// keeps a single document.
func (f *OutputFormatter) Warn(err error) {
	n := table.NotificationFor(err)
	if f.Format != "json" {
		_ = f.Notify(n, nil)
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintln(w, n.Message)
}

// Fail reports err as a notification and returns an ExitError carrying the
// matching exit code, already printed.
func (f *OutputFormatter) Fail(err error) error {
	n := table.NotificationFor(err)
	_ = f.Notify(n, nil)
	code := ExitFailure
	if errors.Is(err, table.ErrUnauthorized) {
		code = ExitUnauthorized
	}
	return &ExitError{Code: code, Message: n.Message, Err: errPrinted}
}

// errPrinted marks errors the formatter has shown already.
var errPrinted = errors.New("reported")

// IsPrinted reports whether err was already shown to the user.
func IsPrinted(err error) bool {
	return errors.Is(err, errPrinted)
}

func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

func (f *OutputFormatter) encode(v any) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func render(headers []string, rows [][]string, dim func(row int) bool) string {
	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == ltable.HeaderRow:
				return headerStyle
			case dim != nil && dim(row):
				return dimStyle
			default:
				return cellStyle
			}
		})
	return t.Render()
}

var propertyHeaders = []string{"", "Exp", "ID", "Agent", "Street", "No.", "PLZ", "City", "Recipient", "Meters", "Status"}

// renderProperties draws the property page. The Exp column shows the sync state,
// the first column the selection. Ineligible rows are dimmed.
func renderProperties(rows []models.Property, index table.SyncIndex, selected func(int64) bool) string {
	data := make([][]string, 0, len(rows))
	for _, p := range rows {
		mark, exp := "", ""
		if selected != nil && selected(p.ID) {
			mark = "●"
		}
		if index != nil && index.Exported(p.ID) {
			exp = "✓"
		}
		status := "inactive"
		if p.Eligible() {
			status = "active"
		}
		data = append(data, []string{
			mark,
			exp,
			strconv.FormatInt(p.ID, 10),
			strconv.FormatInt(p.AgentID, 10),
			p.Street,
			p.HouseNumber,
			p.PostalCode,
			p.City,
			p.RecipientName,
			strconv.Itoa(p.MeterCount),
			status,
		})
	}
	return render(propertyHeaders, data, func(row int) bool {
		return row >= 0 && row < len(rows) && !rows[row].Eligible()
	})
}

var contractHeaders = []string{"ID", "Energy", "Meter no.", "Status", "Metering point", "HT/NT"}

func renderContracts(contracts []models.Contract) string {
	data := make([][]string, 0, len(contracts))
	for _, c := range contracts {
		htnt := ""
		if c.HTNT {
			htnt = "yes"
		}
		status := c.MeterStatus
		if c.Active() {
			status = "active"
		}
		data = append(data, []string{
			strconv.FormatInt(c.ID, 10),
			c.DisplayEnergyType(),
			c.MeterNumber,
			status,
			c.MeteringPoint,
			htnt,
		})
	}
	return render(contractHeaders, data, func(row int) bool {
		return row >= 0 && row < len(contracts) && !contracts[row].Active()
	})
}

func renderPagination(p models.Pagination) string {
	return footerStyle.Render(fmt.Sprintf("page %d of %d, %d records, %d per page",
		p.CurrentPage, p.TotalPages, p.TotalRecords, p.RecordsPerPage))
}
