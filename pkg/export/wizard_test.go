package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSuggestedOutputPath(t *testing.T) {
	cases := []struct {
		format string
		want   string
	}{
		{"svg", "quest_graph.svg"},
		{"png", "quest_graph.png"},
		{"dot", "quest_graph.dot"},
		{"mermaid", "quest_graph.mmd"},
		{"json", "quest_graph.json"},
	}
	for _, tc := range cases {
		if got := suggestedOutputPath(tc.format); got != tc.want {
			t.Errorf("suggestedOutputPath(%q) = %q, want %q", tc.format, got, tc.want)
		}
	}

	// HTML gets a timestamped viewer filename
	if got := suggestedOutputPath("html"); !strings.HasPrefix(got, "quest_graph__") || !strings.HasSuffix(got, ".html") {
		t.Errorf("unexpected html suggestion: %q", got)
	}
}

func TestRenderHint(t *testing.T) {
	for _, format := range []string{"svg", "png", "html", "dot", "mermaid", "json"} {
		if renderHint(format) == "" {
			t.Errorf("format %s should carry a usage hint", format)
		}
	}
	if !strings.Contains(renderHint("dot"), "dot -Tsvg") {
		t.Error("dot hint should name the render command")
	}
}

func TestExportPlanPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := ExportPlanPath()
	if path == "" {
		t.Fatal("Expected a config path")
	}
	if !strings.HasSuffix(path, filepath.Join(".config", "qw", "export-wizard.json")) {
		t.Errorf("unexpected config path: %s", path)
	}
}

func TestExportPlanSaveLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// No saved plan yet
	plan, err := LoadExportPlan()
	if err != nil {
		t.Fatalf("LoadExportPlan failed: %v", err)
	}
	if plan != nil {
		t.Fatalf("Expected nil plan before first save, got %+v", plan)
	}

	want := &ExportPlan{
		Format:     "svg",
		Preset:     SnapshotPresetRoomy,
		Title:      "Quest Map",
		Trader:     "Prapor",
		OutputPath: "out/graph.svg",
	}
	if err := SaveExportPlan(want); err != nil {
		t.Fatalf("SaveExportPlan failed: %v", err)
	}

	got, err := LoadExportPlan()
	if err != nil {
		t.Fatalf("LoadExportPlan failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected saved plan")
	}
	if *got != *want {
		t.Errorf("plan round-trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestLoadExportPlanCorruptFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := ExportPlanPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := LoadExportPlan(); err == nil {
		t.Fatal("Expected error for corrupt settings file")
	}
}

func TestNewExportWizardDefaults(t *testing.T) {
	w := NewExportWizard([]string{"Prapor", "Skier"})
	plan := w.GetPlan()
	if plan.Format != "svg" {
		t.Errorf("Expected default format svg, got %s", plan.Format)
	}
	if plan.Preset != SnapshotPresetCompact {
		t.Errorf("Expected default compact preset, got %s", plan.Preset)
	}
	if plan.Title == "" {
		t.Error("Expected a default title")
	}
}
