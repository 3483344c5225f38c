package insight

import "testing"

func TestParseTodos(t *testing.T) {
	text := "Event: Pump leak | Risk: High | Action: Inspect valve\n" +
		"not a todo line\n" +
		"Event: Sensor drift | Risk: Low | Action: Recalibrate"
	todos := ParseTodos(text)
	if len(todos) != 2 {
		t.Fatalf("len = %d, want 2", len(todos))
	}
	if todos[0].Event != "Pump leak" || todos[0].Risk != "High" || todos[0].Action != "Inspect valve" {
		t.Fatalf("first = %+v", todos[0])
	}
	if todos[1].Event != "Sensor drift" || todos[1].Risk != "Low" || todos[1].Action != "Recalibrate" {
		t.Fatalf("second = %+v", todos[1])
	}
	if todos[0].Done || todos[1].Done {
		t.Fatal("parsed todos must start not done")
	}
}

func TestParseTodosTrimsWhitespace(t *testing.T) {
	todos := ParseTodos("  Event:   spill at bay 3   | Risk:  Medium  | Action:  contain and report  ")
	if len(todos) != 1 {
		t.Fatalf("len = %d, want 1", len(todos))
	}
	if todos[0].Event != "spill at bay 3" || todos[0].Risk != "Medium" || todos[0].Action != "contain and report" {
		t.Fatalf("todo = %+v", todos[0])
	}
}

func TestParseTodosNoMarkers(t *testing.T) {
	if todos := ParseTodos("Here are some insights.\n- Check the pump\n- File a report"); len(todos) != 0 {
		t.Fatalf("len = %d, want 0", len(todos))
	}
	if todos := ParseTodos(""); len(todos) != 0 {
		t.Fatalf("empty input len = %d, want 0", len(todos))
	}
}

func TestParseTodosExtraSegments(t *testing.T) {
	// Only the first three segments are read.
	todos := ParseTodos("Event: leak | Risk: High | Action: fix | note: extra")
	if len(todos) != 1 {
		t.Fatalf("len = %d, want 1", len(todos))
	}
	if todos[0].Action != "fix" {
		t.Fatalf("action = %q", todos[0].Action)
	}
}
