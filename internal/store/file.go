package store

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jordanwest/tkt/internal/types"
)

// Filename returns the canonical filename for a work item: {id}.json
func Filename(id string) string {
	return id + ".json"
}

// ReadItemFile reads and parses one work item JSON file.
func ReadItemFile(path string) (*types.WorkItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read item file %s: %w", path, err)
	}

	var item types.WorkItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to parse item file %s: %w", path, err)
	}

	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("invalid item file %s: %w", path, err)
	}

	return &item, nil
}

// WriteItemFile writes a work item to dir/{id}.json via a temp file and
// rename, so readers never observe a partial record.
func WriteItemFile(dir string, item *types.WorkItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("cannot write invalid item: %w", err)
	}

	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal item %s: %w", item.ID, err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, Filename(item.ID))

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Errorf("failed to generate temp suffix: %w", err)
	}
	tmp := path + ".tmp." + hex.EncodeToString(suffix)

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write item file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace item file %s: %w", path, err)
	}
	return nil
}

// ItemIDFromPath extracts the item id from an items/{id}.json path.
// Returns "" if the path is not an item file.
func ItemIDFromPath(path string) string {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".json") {
		return ""
	}
	return strings.TrimSuffix(name, ".json")
}
