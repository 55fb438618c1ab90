// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/groupsio/claudegate/internal/gatewaytypes"
)

// excludedBareDirs are common directories a Bash command references
// constantly (cd /, cat /etc/hosts) that carry no project-relevant
// signal, mirrors tool_context.rs's DefaultToolContextExtractor exclusion
// list.
var excludedBareDirs = map[string]bool{
	"/": true, "/tmp": true, "/dev": true, "/proc": true,
	"/sys": true, "/usr": true, "/bin": true, "/etc": true,
}

var absPathPattern = regexp.MustCompile(`/[^\s"'` + "`" + `]+`)

// ExtractFiles scans a turn's content blocks for tool_use calls that
// name a file or directory and returns the deduplicated, order-preserved
// set touched. Grounded on
// original_source/claude-code-sdk-rs/src/memory/tool_context.rs's
// DefaultToolContextExtractor: Read/Write/Edit report their file_path
// input, Glob/Grep report their path input, and Bash is scanned for a
// leading cd target plus any other absolute paths in its command.
func ExtractFiles(blocks []gatewaytypes.ContentBlock) []string {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		path = strings.TrimSpace(path)
		if path == "" || excludedBareDirs[path] || seen[path] {
			return
		}
		seen[path] = true
		files = append(files, path)
	}

	for _, block := range blocks {
		if block.Type != "tool_use" || len(block.Input) == 0 {
			continue
		}
		var input map[string]json.RawMessage
		if err := json.Unmarshal(block.Input, &input); err != nil {
			continue
		}
		switch block.Name {
		case "Read", "Write", "Edit", "NotebookEdit":
			add(stringField(input, "file_path"))
		case "Glob", "Grep":
			add(stringField(input, "path"))
		case "Bash":
			for _, path := range extractBashPaths(stringField(input, "command")) {
				add(path)
			}
		}
	}
	return files
}

func stringField(input map[string]json.RawMessage, key string) string {
	raw, ok := input[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// extractBashPaths pulls a cd target (including mid-pipeline "cd foo &&
// ...") and every other absolute path referenced in a shell command.
func extractBashPaths(command string) []string {
	if command == "" {
		return nil
	}
	var paths []string
	for _, segment := range strings.Split(command, "&&") {
		segment = strings.TrimSpace(segment)
		if dir, ok := strings.CutPrefix(segment, "cd "); ok {
			dir = strings.Trim(strings.TrimSpace(dir), `"'`)
			if dir != "" {
				paths = append(paths, dir)
			}
		}
	}
	for _, match := range absPathPattern.FindAllString(command, -1) {
		match = strings.TrimRight(match, `,.;:)`)
		paths = append(paths, match)
	}
	return paths
}
