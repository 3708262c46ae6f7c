package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Formatter defines the interface for output formatters.
type Formatter interface {
	// Format writes the given data to the output writer
	Format(data interface{}) error
}

// FormatterOptions contains configuration for formatters
type FormatterOptions struct {
	// Writer is where output is written (defaults to os.Stdout)
	Writer io.Writer
	// NoColor disables colored output for text formatters
	NoColor bool
	// Compact enables compact output (no indentation for JSON/YAML)
	Compact bool
}

// Tabular is implemented by values the text formatter renders as a table.
type Tabular interface {
	Headers() []string
	Rows() [][]string
}

// Table is a ready-made Tabular.
type Table struct {
	Head []string
	Body [][]string
}

func (t Table) Headers() []string { return t.Head }
func (t Table) Rows() [][]string  { return t.Body }

// NewFormatter creates a formatter based on the format string
func NewFormatter(format string, opts *FormatterOptions) (Formatter, error) {
	if opts == nil {
		opts = &FormatterOptions{Writer: os.Stdout}
	}
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case "json":
		return &JSONFormatter{opts: opts}, nil
	case "yaml":
		return &YAMLFormatter{opts: opts}, nil
	case "text", "":
		return &TextFormatter{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", format)
	}
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	opts *FormatterOptions
}

// Format writes data as JSON
func (f *JSONFormatter) Format(data interface{}) error {
	encoder := json.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	opts *FormatterOptions
}

// Format writes data as YAML
func (f *YAMLFormatter) Format(data interface{}) error {
	encoder := yaml.NewEncoder(f.opts.Writer)
	if !f.opts.Compact {
		encoder.SetIndent(2)
	}
	defer encoder.Close()
	return encoder.Encode(data)
}

// TextFormatter formats output as human-readable text
type TextFormatter struct {
	opts *FormatterOptions
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Format writes strings, Stringers and Tabular values.
func (f *TextFormatter) Format(data interface{}) error {
	switch v := data.(type) {
	case string:
		_, err := fmt.Fprintln(f.opts.Writer, v)
		return err
	case Tabular:
		_, err := fmt.Fprintln(f.opts.Writer, f.renderTable(v))
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.opts.Writer, v.String())
		return err
	default:
		return fmt.Errorf("text formatter requires data to implement String() method or be a primitive type")
	}
}

func (f *TextFormatter) renderTable(v Tabular) string {
	rows := v.Rows()
	if len(rows) == 0 {
		return "(nenhum registro)"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(v.Headers()...).
		Rows(rows...)

	if f.opts.NoColor {
		t = t.Border(lipgloss.ASCIIBorder())
	}
	t = t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			if f.opts.NoColor {
				return cellStyle
			}
			return headerStyle
		}
		return cellStyle
	})
	return t.Render()
}

// Printer renders command results: json and yaml get the raw data, text gets
// the human form.
type Printer struct {
	format    string
	formatter Formatter
}

// NewPrinter builds a Printer for one of text, json or yaml.
func NewPrinter(format string, opts *FormatterOptions) (*Printer, error) {
	f, err := NewFormatter(format, opts)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = "text"
	}
	return &Printer{format: format, formatter: f}, nil
}

// Format returns the output format name.
func (p *Printer) Format() string {
	return p.format
}

// Print writes data in machine formats and human in text. A nil human falls
// back to data.
func (p *Printer) Print(data, human interface{}) error {
	if p.format == "text" && human != nil {
		return p.formatter.Format(human)
	}
	return p.formatter.Format(data)
}

// Compile-time verification that formatters implement Formatter
var _ Formatter = (*JSONFormatter)(nil)
var _ Formatter = (*YAMLFormatter)(nil)
var _ Formatter = (*TextFormatter)(nil)
var _ Tabular = Table{}
