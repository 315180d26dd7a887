package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/matzehuels/manifestcheck/pkg/errors"
	"github.com/matzehuels/manifestcheck/pkg/reconcile"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{FormatText, FormatJSON, FormatYAML}

// ParseFormat validates a format name. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", apperrors.New(apperrors.ErrCodeInvalidFormat,
			"unknown format %q (want text, json or yaml)", s)
	}
}

// Streams reports whether the format writes node by node during a walk
// rather than once at the end.
func (f Format) Streams() bool { return f == FormatText || f == "" }

// Write renders res in the given format.
func Write(w io.Writer, f Format, res *reconcile.Result, opts Options) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatYAML:
		return WriteYAML(w, res)
	default:
		t := NewText(w, opts)
		if err := t.Result(res); err != nil {
			return err
		}
		return t.Summary(res)
	}
}

// WriteJSON writes res as an indented JSON document.
func WriteJSON(w io.Writer, res *reconcile.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteYAML writes res as a YAML document.
func WriteYAML(w io.Writer, res *reconcile.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
