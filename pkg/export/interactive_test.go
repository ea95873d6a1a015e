package export

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

func TestGenerateViewerHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.html")

	got, err := GenerateViewerHTML(ViewerOptions{
		Graph:  exportFixture(),
		Title:  "My Quests",
		Source: "tasks.db",
		Path:   path,
	})
	if err != nil {
		t.Fatalf("GenerateViewerHTML failed: %v", err)
	}
	if got != path {
		t.Errorf("Expected path %s, got %s", path, got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("cannot read viewer: %v", err)
	}
	page := string(data)

	if !strings.Contains(page, "<title>My Quests</title>") {
		t.Error("page should carry the title")
	}
	if !strings.Contains(page, "window.QUEST_DATA") {
		t.Error("page should embed the quest data")
	}

	// All placeholders must be gone
	for _, leftover := range []string{"__TITLE__", "__DATA__", "/*__CSS__*/", "/*__JS__*/"} {
		if strings.Contains(page, leftover) {
			t.Errorf("placeholder %s was not replaced", leftover)
		}
	}

	// Embedded data: node, edge, and the sorted trader list
	if !strings.Contains(page, `"id":"t-debut"`) {
		t.Error("data should contain the t-debut node")
	}
	if !strings.Contains(page, `{"from":"t-debut","to":"t-shootout"}`) {
		t.Error("data should contain the prerequisite edge")
	}
	if !strings.Contains(page, `"traders":["Jaeger","Prapor","Skier"]`) {
		t.Error("data should carry the sorted trader list")
	}

	// Reward search fields are lowercased text; numeric rewards expose none
	if !strings.Contains(page, `"salewa first aid kit x1"`) {
		t.Error("item reward should expose lowercased search fields")
	}
	if !strings.Contains(page, `{"display":"1700"}`) {
		t.Error("numeric reward should render its number but expose no search fields")
	}
}

func TestGenerateViewerHTMLEscapesScriptCloser(t *testing.T) {
	tasks := []model.Task{
		{ID: "t-evil", Name: "bad</script>name"},
	}
	path := filepath.Join(t.TempDir(), "viewer.html")

	if _, err := GenerateViewerHTML(ViewerOptions{Graph: taskgraph.Build(tasks), Path: path}); err != nil {
		t.Fatalf("GenerateViewerHTML failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	page := string(data)

	if strings.Contains(page, "bad</script>") {
		t.Error("a literal </script> inside data would truncate the inline script")
	}
	// Script tags stay balanced
	if open, closed := strings.Count(page, "<script"), strings.Count(page, "</script>"); open != closed {
		t.Errorf("unbalanced script tags: %d open, %d closed", open, closed)
	}
}

func TestGenerateViewerHTMLEnforcesExtension(t *testing.T) {
	dir := t.TempDir()

	got, err := GenerateViewerHTML(ViewerOptions{
		Graph: exportFixture(),
		Path:  filepath.Join(dir, "viewer.htm"),
	})
	if err != nil {
		t.Fatalf("GenerateViewerHTML failed: %v", err)
	}
	if !strings.HasSuffix(got, "viewer.html") {
		t.Errorf("Expected .html extension, got %s", got)
	}
	if _, err := os.Stat(got); err != nil {
		t.Errorf("viewer file missing: %v", err)
	}
}

func TestGenerateViewerHTMLEmptyGraph(t *testing.T) {
	_, err := GenerateViewerHTML(ViewerOptions{
		Graph: taskgraph.Build(nil),
		Path:  filepath.Join(t.TempDir(), "viewer.html"),
	})
	if err == nil {
		t.Fatal("Expected error for empty graph")
	}
}

func TestGenerateViewerFilename(t *testing.T) {
	name := GenerateViewerFilename()
	pattern := regexp.MustCompile(`^quest_graph__\d{4}_\d{2}_\d{2}__\d{2}_\d{2}\.html$`)
	if !pattern.MatchString(name) {
		t.Errorf("unexpected filename format: %s", name)
	}
}

func TestRewardSearchFields(t *testing.T) {
	got := rewardSearchFields("Salewa First Aid Kit", "")
	if len(got) != 1 || got[0] != "salewa first aid kit" {
		t.Errorf("Expected lowercased single field, got %v", got)
	}
	if got := rewardSearchFields("", ""); got != nil {
		t.Errorf("Expected nil for all-empty fields, got %v", got)
	}
}

func TestBuildViewerPageEscapesTitle(t *testing.T) {
	page := buildViewerPage("A & B <x>", "{}")
	if !strings.Contains(page, "A &amp; B &lt;x&gt;") {
		t.Error("title should be HTML-escaped")
	}
	if strings.Contains(page, "<x>") {
		t.Error("raw title markup must not reach the page")
	}
}
