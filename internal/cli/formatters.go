package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mindmorass/infinity-clipboard/internal/clipboard"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	// FormatTable is the default human-readable table format
	FormatTable OutputFormat = "table"
	// FormatJSON outputs as JSON
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs as YAML
	FormatYAML OutputFormat = "yaml"
)

// previewWidth is how much of an entry the table shows
const previewWidth = 60

// OutputWriter handles structured output formatting
type OutputWriter struct {
	format OutputFormat
	writer io.Writer
}

// NewOutputWriter creates a new output writer with the specified format
func NewOutputWriter(format string) *OutputWriter {
	f := OutputFormat(format)
	if f != FormatJSON && f != FormatYAML {
		f = FormatTable // default
	}
	return &OutputWriter{
		format: f,
		writer: os.Stdout,
	}
}

// SetWriter sets a custom writer (used in tests)
func (w *OutputWriter) SetWriter(writer io.Writer) {
	w.writer = writer
}

// GetFormat returns the current format
func (w *OutputWriter) GetFormat() OutputFormat {
	return w.format
}

// IsStructured returns true if the format is JSON or YAML
func (w *OutputWriter) IsStructured() bool {
	return w.format == FormatJSON || w.format == FormatYAML
}

// Write outputs the data in the configured format
func (w *OutputWriter) Write(data interface{}) error {
	switch w.format {
	case FormatJSON:
		encoder := json.NewEncoder(w.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(data)
	case FormatYAML:
		encoder := yaml.NewEncoder(w.writer)
		defer encoder.Close()
		return encoder.Encode(data)
	default:
		// Table format is handled by individual commands
		return nil
	}
}

// ValidFormats returns a list of valid output formats
func ValidFormats() []string {
	return []string{"table", "json", "yaml"}
}

// EntryOutput represents a history entry for structured output
type EntryOutput struct {
	ID        int       `json:"id" yaml:"id"`
	Type      string    `json:"type" yaml:"type"`
	Language  string    `json:"language,omitempty" yaml:"language,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Content   string    `json:"content" yaml:"content"`
}

func mapToEntryOutput(e clipboard.Entry) EntryOutput {
	return EntryOutput{
		ID:        e.ID,
		Type:      string(e.Type),
		Language:  string(e.Language),
		Timestamp: e.Timestamp,
		Content:   e.Content,
	}
}

// writeEntryTable prints entries as an aligned table
func writeEntryTable(w io.Writer, entries []clipboard.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No clipboard history yet.")
		return
	}

	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	bold.Fprintf(w, "%-5s %-6s %-11s %-12s %s\n", "ID", "TYPE", "LANGUAGE", "COPIED", "PREVIEW")
	for _, e := range entries {
		lang := string(e.Language)
		if lang == "" {
			lang = "-"
		}

		typeColor := cyan
		if e.Type == clipboard.EntryTypeCode {
			typeColor = green
		}

		fmt.Fprintf(w, "%-5d ", e.ID)
		typeColor.Fprintf(w, "%-6s ", e.Type)
		fmt.Fprintf(w, "%-11s %-12s %s\n", lang, FormatTimestamp(e.Timestamp), clipboard.Preview(e, previewWidth))
	}
}

func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("02/01 15:04")
}
