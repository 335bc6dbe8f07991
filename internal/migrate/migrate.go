// Package migrate handles bulk export and import of work item sets.
//
// Three interchange formats are supported: a single JSON document, one
// JSON object per line (JSONL), and YAML. Export and import are
// symmetric so a dump from one workspace can seed another, including
// moving a project between remote backends.
package migrate

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jordanwest/tkt/internal/types"
)

// Format identifies an interchange format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// DetectFormat picks a format from a file extension. Defaults to JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// document is the envelope used by the JSON and YAML formats.
type document struct {
	Items []*types.WorkItem `json:"items" yaml:"items"`
}

// Export writes the item set to w in the given format.
func Export(w io.Writer, format Format, items []*types.WorkItem) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(document{Items: items}); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil

	case FormatJSONL:
		enc := json.NewEncoder(w)
		for _, item := range items {
			if err := enc.Encode(item); err != nil {
				return fmt.Errorf("failed to encode item %s: %w", item.ID, err)
			}
		}
		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if err := enc.Encode(document{Items: items}); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return nil
	}

	return fmt.Errorf("unknown export format: %q", format)
}

// Import reads an item set from r in the given format. Every item is
// validated; an invalid record fails the whole import rather than
// silently loading a partial set.
func Import(r io.Reader, format Format) ([]*types.WorkItem, error) {
	var items []*types.WorkItem

	switch format {
	case FormatJSON:
		var doc document
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode JSON: %w", err)
		}
		items = doc.Items

	case FormatJSONL:
		dec := json.NewDecoder(r)
		line := 0
		for {
			var item types.WorkItem
			if err := dec.Decode(&item); err != nil {
				if err == io.EOF {
					break
				}
				return nil, fmt.Errorf("invalid JSON at record %d: %w", line+1, err)
			}
			line++
			items = append(items, &item)
		}

	case FormatYAML:
		var doc document
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode YAML: %w", err)
		}
		items = doc.Items

	default:
		return nil, fmt.Errorf("unknown import format: %q", format)
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("invalid item %s: %w", item.ID, err)
		}
	}
	return items, nil
}

// ExportFile writes the item set to path, choosing the format from the
// extension.
func ExportFile(path string, items []*types.WorkItem) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := Export(f, DetectFormat(path), items); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ImportFile reads an item set from path, choosing the format from the
// extension.
func ImportFile(path string) ([]*types.WorkItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	return Import(f, DetectFormat(path))
}
