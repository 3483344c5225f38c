package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"chemecare/internal/domain"
)

// TodoStore holds the AI-generated action list. Same persistence contract as
// the event store: one JSON file, rewritten in full, fail-open at load.
type TodoStore struct {
	path string

	mu    sync.Mutex
	todos []domain.Todo
}

// OpenTodos loads the store from path, falling back to empty on any error.
func OpenTodos(path string) *TodoStore {
	s := &TodoStore{path: path}
	if data, err := os.ReadFile(path); err == nil {
		var todos []domain.Todo
		if json.Unmarshal(data, &todos) == nil {
			s.todos = todos
		}
	}
	return s
}

// List returns a copy of the current todos in stored order.
func (s *TodoStore) List() []domain.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Todo, len(s.todos))
	copy(out, s.todos)
	return out
}

// Count returns the number of stored todos.
func (s *TodoStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.todos)
}

// ReplaceAll swaps in a whole new list and rewrites the file. A refresh
// replaces, never merges; completion marks on the old list are lost.
func (s *TodoStore) ReplaceAll(todos []domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = make([]domain.Todo, len(todos))
	copy(s.todos, todos)
	return s.save()
}

// SetDone flips one item's completion flag by position and persists.
func (s *TodoStore) SetDone(index int, done bool) (domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.todos) {
		return domain.Todo{}, fmt.Errorf("todo %d: %w", index, ErrNotFound)
	}
	s.todos[index].Done = done
	return s.todos[index], s.save()
}

func (s *TodoStore) save() error {
	data, err := json.MarshalIndent(s.todos, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal todos: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
