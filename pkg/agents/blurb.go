// Package agents provides AGENTS.md integration for AI coding agents.
// It handles detection and content injection for automatically adding
// qw usage instructions to agent configuration files.
package agents

import (
	"regexp"
	"strconv"
	"strings"
)

// BlurbVersion is the current version of the agent instructions blurb.
// Increment this when making breaking changes to the blurb format.
const BlurbVersion = 1

// BlurbStartMarker marks the beginning of injected agent instructions.
const BlurbStartMarker = "<!-- qw-agent-instructions-v1 -->"

// BlurbEndMarker marks the end of injected agent instructions.
const BlurbEndMarker = "<!-- end-qw-agent-instructions -->"

// AgentBlurb contains the instructions to be appended to AGENTS.md files.
const AgentBlurb = `<!-- qw-agent-instructions-v1 -->

---

## Quest Data Integration

This project uses [questwork](https://github.com/vanderheijden86/questwork) to browse quest dependency graphs. Quest data lives in ` + "`" + `tasks.jsonl` + "`" + ` / ` + "`" + `tasks.json` + "`" + ` files.

### Essential Commands

` + "```" + `bash
# Interactive browser (launches TUI - avoid in automated sessions)
qw

# Robot modes for agents (plain JSON on stdout, use these instead)
qw --robot-tasks                      # All tasks with traders, rewards, requirements
qw --robot-graph                      # Nodes with layout positions plus edges
qw --robot-reward-search "salewa"     # Tasks ranked by reward match score
qw --robot-stats                      # Graph stats: counts, roots, cycles, density
` + "```" + `

### Key Concepts

- **Prerequisites**: a task's unlock requirements point at other task IDs; edges run prerequisite -> dependent.
- **Ranks**: the graph layout is layered left to right; a task is always right of everything it requires.
- **Reward search scoring**: exact match = 100, prefix = 50, substring = 10, summed per task.
- **Traders**: filter output by trader with the TUI or post-process the JSON; trader names are case-sensitive.

### Best Practices

- Prefer ` + "`" + `--robot-graph` + "`" + ` over parsing the data files yourself; it resolves duplicates and dangling references.
- Treat warnings on stderr as data-quality findings worth reporting.
- Set ` + "`" + `QUESTS_DIR` + "`" + ` to point qw at a specific data directory.

<!-- end-qw-agent-instructions -->`

// SupportedAgentFiles lists the filenames that can contain agent instructions.
var SupportedAgentFiles = []string{
	"AGENTS.md",
	"CLAUDE.md",
	"agents.md",
	"claude.md",
}

// blurbVersionRegex extracts the version number from a blurb marker.
var blurbVersionRegex = regexp.MustCompile(`<!-- qw-agent-instructions-v(\d+) -->`)

// ContainsBlurb checks if the content already contains a qw agent blurb.
func ContainsBlurb(content string) bool {
	return strings.Contains(content, "<!-- qw-agent-instructions-v")
}

// GetBlurbVersion extracts the version number from existing blurb content.
func GetBlurbVersion(content string) int {
	matches := blurbVersionRegex.FindStringSubmatch(content)
	if len(matches) < 2 {
		return 0
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0
	}
	return version
}

// NeedsUpdate checks if the content has an older version of the blurb that should be updated.
func NeedsUpdate(content string) bool {
	if !ContainsBlurb(content) {
		return false
	}
	return GetBlurbVersion(content) < BlurbVersion
}

// AppendBlurb appends the agent blurb to the given content.
func AppendBlurb(content string) string {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "\n"
	content += AgentBlurb
	content += "\n"
	return content
}

// RemoveBlurb removes an existing blurb from the content.
func RemoveBlurb(content string) string {
	startIdx := strings.Index(content, "<!-- qw-agent-instructions-v")
	if startIdx == -1 {
		return content
	}
	endIdx := strings.Index(content, BlurbEndMarker)
	if endIdx == -1 {
		return content
	}
	endIdx += len(BlurbEndMarker)
	for endIdx < len(content) && (content[endIdx] == '\n' || content[endIdx] == '\r') {
		endIdx++
	}
	for startIdx > 0 && (content[startIdx-1] == '\n' || content[startIdx-1] == '\r') {
		startIdx--
	}
	return content[:startIdx] + content[endIdx:]
}

// UpdateBlurb replaces an existing blurb with the current version.
func UpdateBlurb(content string) string {
	content = RemoveBlurb(content)
	return AppendBlurb(content)
}
