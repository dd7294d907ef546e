// Package heuristic extracts tags and tasks from text with regular
// expressions. It is the fallback when no LLM is configured.
package heuristic

import (
	"regexp"
	"strings"
)

// hashtag matches "#word" where word is letters, digits or underscores.
var hashtag = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// taskMarkers start a task line.
var taskMarkers = []string{"- [ ]", "* [ ]", "[] ", "TODO:", "TASK:"}

// Tags returns the hashtags in text without the leading '#', deduplicated
// in first-seen order. Tags are case-sensitive.
func Tags(text string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, m := range hashtag.FindAllStringSubmatch(text, -1) {
		tag := m[1]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// Tasks returns the lines of text that start with a task marker, with the
// marker removed. Lines are trimmed before matching.
func Tasks(text string) []string {
	tasks := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, marker := range taskMarkers {
			if !strings.HasPrefix(line, marker) {
				continue
			}
			if task := strings.TrimSpace(line[len(marker):]); task != "" {
				tasks = append(tasks, task)
			}
			break
		}
	}
	return tasks
}
