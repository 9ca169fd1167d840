package ux

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format and the output setting.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// ValidFormat reports whether name is one of Formats.
func ValidFormat(name string) bool {
	return slices.Contains(Formats, name)
}

// Formatter writes a command result.
type Formatter interface {
	Format(data any) error
}

// NewFormatter returns the formatter for name, writing to w. An empty name
// means text.
func NewFormatter(name string, w io.Writer) (Formatter, error) {
	switch name {
	case FormatJSON:
		return jsonFormatter{w}, nil
	case FormatYAML:
		return yamlFormatter{w}, nil
	case FormatText, "":
		return textFormatter{w}, nil
	}
	return nil, fmt.Errorf("unknown format: %s (supported: text, json, yaml)", name)
}

type jsonFormatter struct{ w io.Writer }

func (f jsonFormatter) Format(data any) error {
	enc := json.NewEncoder(f.w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// yamlFormatter goes through JSON first so that field names and omitempty
// follow the json tags of the API models. The yaml.Node keeps key order.
type yamlFormatter struct{ w io.Writer }

func (f yamlFormatter) Format(data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return fmt.Errorf("failed to convert output to YAML: %w", err)
	}
	blockStyle(&node)

	enc := yaml.NewEncoder(f.w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(&node)
}

// blockStyle clears the flow style that JSON input leaves on every node.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}

// textFormatter handles plain values only. Commands with structured results
// render their own text.
type textFormatter struct{ w io.Writer }

func (f textFormatter) Format(data any) error {
	switch v := data.(type) {
	case string:
		_, err := fmt.Fprintln(f.w, v)
		return err
	case fmt.Stringer:
		_, err := fmt.Fprintln(f.w, v.String())
		return err
	case []string:
		for _, line := range v {
			if _, err := fmt.Fprintln(f.w, line); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("no text rendering for %T; use --format json or yaml", data)
}
