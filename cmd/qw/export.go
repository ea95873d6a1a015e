package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/vanderheijden86/questwork/pkg/export"
	"github.com/vanderheijden86/questwork/pkg/match"
	"github.com/vanderheijden86/questwork/pkg/model"
	"github.com/vanderheijden86/questwork/pkg/taskgraph"
)

// runExportPlan executes one export and returns the path written, or ""
// when the output went to stdout. Trader filtering follows the format's
// semantics: snapshots dim non-matching nodes, text formats subset them.
func runExportPlan(tasks []model.Task, plan export.ExportPlan, source string) (string, error) {
	g := taskgraph.Build(tasks)
	format := strings.ToLower(plan.Format)

	switch format {
	case "svg", "png":
		filters := match.Filters{Trader: plan.Trader}
		match.Annotate(g, filters)
		path := plan.OutputPath
		if path == "" {
			path = defaultSnapshotPath(format)
		}
		err := export.SaveSnapshot(export.SnapshotOptions{
			Path:    path,
			Format:  format,
			Title:   plan.Title,
			Preset:  plan.Preset,
			Source:  source,
			Graph:   g,
			Filters: filters,
		})
		if err != nil {
			return "", err
		}
		return path, nil

	case "html":
		return export.GenerateViewerHTML(export.ViewerOptions{
			Graph:  g,
			Title:  plan.Title,
			Source: source,
			Path:   plan.OutputPath,
		})

	case "dot", "mermaid", "json":
		res, err := export.ExportGraph(g, export.GraphExportConfig{
			Format: export.GraphExportFormat(format),
			Trader: plan.Trader,
			Source: source,
		})
		if err != nil {
			return "", err
		}
		payload := []byte(res.Graph)
		if format == "json" {
			payload, err = res.JSON()
			if err != nil {
				return "", err
			}
		}
		if plan.OutputPath == "" {
			fmt.Print(string(payload))
			if len(payload) > 0 && payload[len(payload)-1] != '\n' {
				fmt.Println()
			}
			return "", nil
		}
		if err := os.WriteFile(plan.OutputPath, payload, 0o644); err != nil {
			return "", err
		}
		return plan.OutputPath, nil

	default:
		return "", fmt.Errorf("unknown export format %q (svg|png|html|dot|mermaid|json)", plan.Format)
	}
}

func runExportWizard(tasks []model.Task, source string) error {
	w := export.NewExportWizard(traderNames(tasks))
	plan, err := w.Run()
	if err != nil {
		return err
	}

	path, err := runExportPlan(tasks, *plan, source)
	if err != nil {
		return err
	}
	if path == "" {
		path = "stdout"
	}
	w.PrintSuccess(path)
	return nil
}

// defaultSnapshotPath mirrors the wizard's suggested filenames so the flag
// and wizard paths agree.
func defaultSnapshotPath(format string) string {
	return "quest_graph." + format
}
