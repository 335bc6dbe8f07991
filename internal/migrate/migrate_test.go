package migrate

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jordanwest/tkt/internal/types"
)

func sampleItems() []*types.WorkItem {
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, 14)
	return []*types.WorkItem{
		{
			ID:        "12",
			Title:     "Wire up billing",
			Type:      "feature",
			Status:    "open",
			Priority:  types.PriorityHigh,
			Labels:    []string{"backend"},
			Due:       &due,
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:        "13",
			Title:     "Fix login redirect",
			Type:      "bug",
			Status:    "in_progress",
			Priority:  types.PriorityMedium,
			DependsOn: []string{"12"},
			CreatedAt: now.Add(time.Minute),
			UpdatedAt: now.Add(time.Minute),
		},
	}
}

func TestDetectFormat(t *testing.T) {
	cases := map[string]Format{
		"dump.json":   FormatJSON,
		"dump.jsonl":  FormatJSONL,
		"dump.ndjson": FormatJSONL,
		"dump.yaml":   FormatYAML,
		"dump.YML":    FormatYAML,
		"dump":        FormatJSON,
	}
	for path, want := range cases {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestRoundTripAllFormats(t *testing.T) {
	items := sampleItems()

	for _, format := range []Format{FormatJSON, FormatJSONL, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Export(&buf, format, items); err != nil {
				t.Fatalf("Export() failed: %v", err)
			}

			got, err := Import(&buf, format)
			if err != nil {
				t.Fatalf("Import() failed: %v", err)
			}
			if len(got) != len(items) {
				t.Fatalf("imported %d items, want %d", len(got), len(items))
			}
			if got[0].ID != "12" || got[0].Title != "Wire up billing" {
				t.Errorf("first item = %+v, want id 12", got[0])
			}
			if got[0].Due == nil || !got[0].Due.Equal(*items[0].Due) {
				t.Errorf("due date did not survive %s round trip", format)
			}
			if len(got[1].DependsOn) != 1 || got[1].DependsOn[0] != "12" {
				t.Errorf("dependsOn = %v, want [12]", got[1].DependsOn)
			}
		})
	}
}

func TestImportRejectsInvalidItem(t *testing.T) {
	// Missing title fails validation.
	input := `{"items":[{"id":"9","title":""}]}`
	if _, err := Import(strings.NewReader(input), FormatJSON); err == nil {
		t.Fatal("Import() accepted an item without a title")
	}
}

func TestImportRejectsMalformedJSONL(t *testing.T) {
	input := "{\"id\":\"1\",\"title\":\"ok\"}\n{not json}\n"
	if _, err := Import(strings.NewReader(input), FormatJSONL); err == nil {
		t.Fatal("Import() accepted malformed JSONL")
	}
}

func TestFileRoundTrip(t *testing.T) {
	items := sampleItems()
	path := filepath.Join(t.TempDir(), "dump.yaml")

	if err := ExportFile(path, items); err != nil {
		t.Fatalf("ExportFile() failed: %v", err)
	}
	got, err := ImportFile(path)
	if err != nil {
		t.Fatalf("ImportFile() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("imported %d items, want 2", len(got))
	}
}
