package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"chemecare/internal/config"
	"chemecare/internal/domain"
	"chemecare/internal/store"
)

type fakeAI struct {
	ready   bool
	text    string
	err     error
	prompts []string
}

func (f *fakeAI) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func (f *fakeAI) Ready() bool { return f.ready }

func newTestEngine(t *testing.T, ai *fakeAI) *Engine {
	t.Helper()
	dir := t.TempDir()
	events := store.OpenEvents(filepath.Join(dir, "events.json"))
	todos := store.OpenTodos(filepath.Join(dir, "todos.json"))
	e := New(events, todos, config.Default(), ai, zap.NewNop())
	e.Now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestClassify(t *testing.T) {
	cases := []struct {
		answers   domain.Answers
		outcome   string
		alertType string
	}{
		{domain.Answers{SafetyImpact: true, ComplianceDeviation: false, AssetHealthRisk: false}, domain.StatusEscalate, "Critical Safety"},
		{domain.Answers{SafetyImpact: true, ComplianceDeviation: true, AssetHealthRisk: false}, domain.StatusEscalate, "Critical Safety"},
		{domain.Answers{SafetyImpact: true, ComplianceDeviation: false, AssetHealthRisk: true}, domain.StatusEscalate, "Critical Safety"},
		{domain.Answers{SafetyImpact: true, ComplianceDeviation: true, AssetHealthRisk: true}, domain.StatusEscalate, "Critical Safety"},
		{domain.Answers{SafetyImpact: false, ComplianceDeviation: true, AssetHealthRisk: true}, domain.StatusScheduleTask, "Asset Failure Risk"},
		{domain.Answers{SafetyImpact: false, ComplianceDeviation: true, AssetHealthRisk: false}, domain.StatusScheduleTask, "Compliance Drift"},
		{domain.Answers{SafetyImpact: false, ComplianceDeviation: false, AssetHealthRisk: true}, domain.StatusScheduleTask, "Asset Failure Risk"},
		{domain.Answers{SafetyImpact: false, ComplianceDeviation: false, AssetHealthRisk: false}, domain.StatusAutoResolve, "Rounding"},
	}
	for _, c := range cases {
		outcome, color, alertType := Classify(c.answers)
		if outcome != c.outcome {
			t.Errorf("Classify(%v) outcome = %q, want %q", c.answers.Triple(), outcome, c.outcome)
		}
		if alertType != c.alertType {
			t.Errorf("Classify(%v) alertType = %q, want %q", c.answers.Triple(), alertType, c.alertType)
		}
		if color == "" {
			t.Errorf("Classify(%v) returned empty color", c.answers.Triple())
		}
	}
}

func TestAddEventValidation(t *testing.T) {
	e := newTestEngine(t, &fakeAI{})
	if _, err := e.AddEvent("Bogus Type", "details"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("unknown type err = %v, want ErrInvalid", err)
	}
	if _, err := e.AddEvent(domain.EventAssetPing, "   "); !errors.Is(err, ErrInvalid) {
		t.Fatalf("blank details err = %v, want ErrInvalid", err)
	}
	if e.Events.Len() != 0 {
		t.Fatal("rejected input must not mutate the store")
	}
	if _, err := e.AddEvent(domain.EventAssetPing, "ok"); err != nil {
		t.Fatalf("valid event: %v", err)
	}
}

func TestOrchestrateSideEffects(t *testing.T) {
	e := newTestEngine(t, &fakeAI{})
	ev, _ := e.AddEvent(domain.EventIncidentFlag, "pressure excursion")

	d, err := e.Orchestrate(ev.ID, domain.Answers{SafetyImpact: true})
	if err != nil {
		t.Fatalf("orchestrate: %v", err)
	}
	if d.Outcome != domain.StatusEscalate {
		t.Fatalf("outcome = %q", d.Outcome)
	}
	got, _ := e.Events.Get(ev.ID)
	if got.Status != domain.StatusEscalate {
		t.Fatalf("event status = %q", got.Status)
	}
	if len(e.Decisions()) != 1 {
		t.Fatalf("decisions = %d, want 1", len(e.Decisions()))
	}
	alerts := e.ActiveAlerts()
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	// Derived alert types are not risk labels, so styling falls back to the
	// Low entry, and operator-driven alerts carry no auto action.
	a := alerts[0]
	if a.Type != "Critical Safety" {
		t.Fatalf("alert type = %q", a.Type)
	}
	if a.StyleClass != "alert-rounding" || a.Urgency != 14400 {
		t.Fatalf("alert styling = %q/%d, want fallback alert-rounding/14400", a.StyleClass, a.Urgency)
	}
	if a.AutoAction != "" {
		t.Fatalf("auto action = %q, want empty", a.AutoAction)
	}
}

func TestOrchestrateNotIdempotent(t *testing.T) {
	e := newTestEngine(t, &fakeAI{})
	ev, _ := e.AddEvent(domain.EventScheduledCycle, "routine check")
	e.Orchestrate(ev.ID, domain.Answers{})
	e.Orchestrate(ev.ID, domain.Answers{})
	if got := len(e.Decisions()); got != 2 {
		t.Fatalf("decisions = %d, want 2", got)
	}
	if got := len(e.ActiveAlerts()); got != 2 {
		t.Fatalf("alerts = %d, want 2", got)
	}
}

func TestOrchestrateUnknownEvent(t *testing.T) {
	e := newTestEngine(t, &fakeAI{})
	if _, err := e.Orchestrate(999, domain.Answers{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(e.Decisions()) != 0 || len(e.ActiveAlerts()) != 0 {
		t.Fatal("missing event must not log a decision or alert")
	}
}

func TestDecisionsNewestFirst(t *testing.T) {
	e := newTestEngine(t, &fakeAI{})
	a, _ := e.AddEvent(domain.EventAssetPing, "first")
	b, _ := e.AddEvent(domain.EventAssetPing, "second")
	e.Orchestrate(a.ID, domain.Answers{})
	e.Orchestrate(b.ID, domain.Answers{SafetyImpact: true})
	decisions := e.Decisions()
	if decisions[0].Event.ID != b.ID {
		t.Fatalf("front decision event = %d, want %d", decisions[0].Event.ID, b.ID)
	}
}

func TestAddAlertRiskStyling(t *testing.T) {
	e := newTestEngine(t, &fakeAI{})
	cases := []struct {
		risk    string
		class   string
		urgency int
	}{
		{"High", "alert-critical", 60},
		{"Medium", "alert-asset", 900},
		{"Low", "alert-rounding", 14400},
		{"Training", "alert-training", 86400},
		{"Compliance", "alert-compliance", 3600},
		{"UnknownLabel", "alert-rounding", 14400},
	}
	for _, c := range cases {
		a := e.AddAlert(domain.Event{ID: 1}, c.risk, "act")
		if a.StyleClass != c.class || a.Urgency != c.urgency {
			t.Errorf("AddAlert(%q) = %q/%d, want %q/%d", c.risk, a.StyleClass, a.Urgency, c.class, c.urgency)
		}
	}
}

func TestDismissIdempotent(t *testing.T) {
	e := newTestEngine(t, &fakeAI{})
	a := e.AddAlert(domain.Event{ID: 1}, "High", "")
	e.AddAlert(domain.Event{ID: 2}, "Low", "")

	e.Dismiss(a.ID)
	e.Dismiss(a.ID)
	active := e.ActiveAlerts()
	if len(active) != 1 {
		t.Fatalf("active = %d, want 1", len(active))
	}
	for _, al := range active {
		if al.ID == a.ID {
			t.Fatal("dismissed alert still active")
		}
	}
	// Unknown ids are a no-op, not an error.
	e.Dismiss("no-such-id")
	if got := len(e.ActiveAlerts()); got != 1 {
		t.Fatalf("active after unknown-id dismiss = %d, want 1", got)
	}
}

func TestRefreshTodosReplaces(t *testing.T) {
	ai := &fakeAI{ready: true, text: "Event: pump leak | Risk: High | Action: Inspect valve"}
	e := newTestEngine(t, ai)
	e.Todos.ReplaceAll([]domain.Todo{{Event: "stale", Risk: "Low", Action: "ignore"}})
	e.AddEvent(domain.EventIncidentFlag, "pump leak near bay 3")

	todos, err := e.RefreshTodos(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(todos) != 1 || todos[0].Action != "Inspect valve" {
		t.Fatalf("todos = %+v", todos)
	}
	if got := e.Todos.List(); len(got) != 1 || got[0].Event != "pump leak" {
		t.Fatalf("stored todos = %+v", got)
	}
	// The matching event raises an alert carrying the item's risk and action.
	alerts := e.ActiveAlerts()
	if len(alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(alerts))
	}
	if alerts[0].Type != "High" || alerts[0].AutoAction != "Inspect valve" {
		t.Fatalf("alert = %+v", alerts[0])
	}
	if !strings.Contains(ai.prompts[0], "pump leak near bay 3 (Status: Pending)") {
		t.Fatalf("prompt missing event line: %q", ai.prompts[0])
	}
}

func TestRefreshTodosKeepsListOnZeroParse(t *testing.T) {
	ai := &fakeAI{ready: true, text: "nothing actionable here"}
	e := newTestEngine(t, ai)
	e.Todos.ReplaceAll([]domain.Todo{{Event: "keep", Risk: "Low", Action: "keep"}})
	e.AddEvent(domain.EventAssetPing, "noise")

	todos, err := e.RefreshTodos(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(todos) != 1 || todos[0].Event != "keep" {
		t.Fatalf("todos = %+v, want previous list kept", todos)
	}
}

func TestRefreshTodosKeepsListOnTransportError(t *testing.T) {
	ai := &fakeAI{ready: true, err: errors.New("dial tcp: connection refused")}
	e := newTestEngine(t, ai)
	e.Todos.ReplaceAll([]domain.Todo{{Event: "keep", Risk: "Low", Action: "keep"}})
	e.AddEvent(domain.EventAssetPing, "pump noise")

	todos, err := e.RefreshTodos(context.Background())
	if err != nil {
		t.Fatalf("refresh must not surface transport errors, got %v", err)
	}
	if len(todos) != 1 || todos[0].Event != "keep" {
		t.Fatalf("todos = %+v, want previous list kept", todos)
	}
	if got := len(e.ActiveAlerts()); got != 0 {
		t.Fatalf("alerts = %d, want 0", got)
	}
}

func TestRefreshTodosDisabled(t *testing.T) {
	e := newTestEngine(t, &fakeAI{ready: false})
	if _, err := e.RefreshTodos(context.Background()); !errors.Is(err, ErrAIDisabled) {
		t.Fatalf("err = %v, want ErrAIDisabled", err)
	}
}

func TestRefreshTodosNoEvents(t *testing.T) {
	ai := &fakeAI{ready: true, text: "unused"}
	e := newTestEngine(t, ai)
	todos, err := e.RefreshTodos(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(todos) != 0 {
		t.Fatalf("todos = %+v", todos)
	}
	if len(ai.prompts) != 0 {
		t.Fatal("no LLM call expected without events")
	}
}

func TestAnalysisInlineErrors(t *testing.T) {
	ai := &fakeAI{ready: true, err: errors.New("dial tcp: connection refused")}
	e := newTestEngine(t, ai)
	e.AddEvent(domain.EventAssetPing, "something")

	out, err := e.AnalyzeRecentEvents(context.Background())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if want := "Request Error: dial tcp: connection refused"; out != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
}

func TestAnalyzeNoEvents(t *testing.T) {
	e := newTestEngine(t, &fakeAI{ready: true})
	out, err := e.AnalyzeEvents(context.Background())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if out != "No events to analyze" {
		t.Fatalf("out = %q", out)
	}
}

func TestGenerateReportPrompt(t *testing.T) {
	ai := &fakeAI{ready: true, text: "report body"}
	e := newTestEngine(t, ai)
	e.AddEvent(domain.EventRegulatoryUpdate, "new EPA limit")

	out, err := e.GenerateReport(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if out != "report body" {
		t.Fatalf("out = %q", out)
	}
	prompt := ai.prompts[0]
	if !strings.Contains(prompt, "Compliance Rate: 92%") {
		t.Fatalf("prompt missing compliance: %q", prompt)
	}
	if !strings.Contains(prompt, "Cost: $1.23M") {
		t.Fatalf("prompt missing cost: %q", prompt)
	}
	if !strings.Contains(prompt, "3 assets monitored") {
		t.Fatalf("prompt missing asset count: %q", prompt)
	}
}
