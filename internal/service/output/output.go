// Package output renders command results as tables, JSON/YAML envelopes or
// GeoJSON.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format represents command output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

const columnGap = "  "

// ParseFormat validates format values.
func ParseFormat(v string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(v))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want table, json or yaml)", v)
	}
}

// Meta identifies one command invocation.
type Meta struct {
	RequestID   string `json:"request_id" yaml:"request_id"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Profile     string `json:"profile" yaml:"profile"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
}

// ErrorBody is the machine-readable failure of a command.
type ErrorBody struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Envelope is the machine-output payload.
type Envelope struct {
	Meta     Meta       `json:"meta" yaml:"meta"`
	Data     any        `json:"data" yaml:"data"`
	Warnings []string   `json:"warnings" yaml:"warnings"`
	Error    *ErrorBody `json:"error,omitempty" yaml:"error,omitempty"`
}

func newMeta(profile, language string) Meta {
	return Meta{
		RequestID:   "req_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		GeneratedAt: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
		Profile:     profile,
		Language:    language,
	}
}

// BuildEnvelope wraps successful command data.
func BuildEnvelope(profile, language string, data any, warnings []string) Envelope {
	if warnings == nil {
		warnings = []string{}
	}
	return Envelope{Meta: newMeta(profile, language), Data: data, Warnings: warnings}
}

// BuildErrorEnvelope wraps a command failure.
func BuildErrorEnvelope(profile, language, code, message string) Envelope {
	return Envelope{
		Meta:     newMeta(profile, language),
		Warnings: []string{},
		Error:    &ErrorBody{Code: code, Message: message},
	}
}

// RenderPayload renders payload in json/yaml format.
func RenderPayload(payload Envelope, format Format) (string, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return "", fmt.Errorf("marshal json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			return "", fmt.Errorf("marshal yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("marshal yaml: %w", err)
		}
	default:
		return "", fmt.Errorf("render payload only supports json/yaml, got %q", format)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// WriteOutput writes text to w and, when outputPath is set, to that file too.
func WriteOutput(w io.Writer, text string, outputPath string) error {
	if outputPath != "" {
		if err := writeFile(outputPath, []byte(text+"\n")); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func writeFile(path string, payload []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, payload, 0o644)
}

// RenderTable renders rows as left-aligned columns under an optional title.
func RenderTable(title string, headers []string, rows [][]string) string {
	all := make([][]string, 0, len(rows)+1)
	if len(headers) > 0 {
		all = append(all, headers)
	}
	all = append(all, rows...)

	var widths []int
	for _, row := range all {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	for _, row := range all {
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)))
				b.WriteString(columnGap)
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
