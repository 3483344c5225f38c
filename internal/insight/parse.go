package insight

import (
	"strings"

	"chemecare/internal/domain"
)

// ParseTodos extracts action items from completion text. A line counts only
// if it carries both the "| Risk:" and "| Action:" markers; everything else
// (preamble, blank lines, malformed rows) is skipped silently. Only the first
// three pipe segments are read; trailing segments are ignored.
func ParseTodos(text string) []domain.Todo {
	var todos []domain.Todo
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "| Risk:") || !strings.Contains(line, "| Action:") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}
		todos = append(todos, domain.Todo{
			Event:  cleanField(parts[0], "Event:"),
			Risk:   cleanField(parts[1], "Risk:"),
			Action: cleanField(parts[2], "Action:"),
		})
	}
	return todos
}

func cleanField(s, prefix string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, prefix)
	return strings.TrimSpace(s)
}
