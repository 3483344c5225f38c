// Package engine holds the facility monitoring core: event intake, the
// orchestrator decision rules, the alert engine, and the AI-driven todo and
// analysis operations.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chemecare/internal/config"
	"chemecare/internal/domain"
	"chemecare/internal/insight"
	"chemecare/internal/store"
)

// ErrInvalid marks input rejected at the boundary before any store mutation.
var ErrInvalid = errors.New("invalid input")

// ErrAIDisabled is returned by AI-dependent operations when no API key is
// configured. The rest of the system keeps working.
var ErrAIDisabled = errors.New("ai features disabled: api key not configured")

// Completer is the one thing the engine needs from an LLM client.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Ready() bool
}

// Engine is one monitoring session. Alerts and the decision log live only in
// memory; events and todos write through to their stores.
type Engine struct {
	Events *store.EventStore
	Todos  *store.TodoStore
	Config *config.Config
	AI     Completer
	Log    *zap.Logger

	// Now is the clock, replaceable in tests.
	Now func() time.Time

	mu        sync.Mutex
	alerts    []domain.Alert
	decisions []domain.Decision
}

// New builds an Engine over opened stores.
func New(events *store.EventStore, todos *store.TodoStore, cfg *config.Config, ai Completer, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		Events: events,
		Todos:  todos,
		Config: cfg,
		AI:     ai,
		Log:    log,
		Now:    time.Now,
	}
}

// AddEvent validates and appends a new event. A storage write failure is
// logged and swallowed; the event is live either way.
func (e *Engine) AddEvent(eventType, details string) (domain.Event, error) {
	if !domain.ValidEventType(eventType) {
		return domain.Event{}, fmt.Errorf("%w: unknown event type %q", ErrInvalid, eventType)
	}
	if strings.TrimSpace(details) == "" {
		return domain.Event{}, fmt.Errorf("%w: event details must not be empty", ErrInvalid)
	}
	ev, err := e.Events.Append(eventType, details)
	if err != nil {
		e.Log.Warn("event write failed", zap.Int64("id", ev.ID), zap.Error(err))
	}
	return ev, nil
}

// Outcome display colors.
const (
	colorEscalate     = "#ff4d4f"
	colorScheduleTask = "#faad14"
	colorAutoResolve  = "#52c41a"
)

// Classify computes the outcome for one answer triple. First match wins:
// safety impact escalates outright, compliance or asset risk schedules a
// task (asset risk naming the alert when both hold), anything else resolves.
func Classify(a domain.Answers) (outcome, color, alertType string) {
	switch {
	case a.SafetyImpact:
		return domain.StatusEscalate, colorEscalate, "Critical Safety"
	case a.ComplianceDeviation || a.AssetHealthRisk:
		alertType = "Compliance Drift"
		if a.AssetHealthRisk {
			alertType = "Asset Failure Risk"
		}
		return domain.StatusScheduleTask, colorScheduleTask, alertType
	default:
		return domain.StatusAutoResolve, colorAutoResolve, "Rounding"
	}
}

// Orchestrate classifies one pending event: sets its status, prepends a
// decision-log entry, and raises an alert. Not idempotent; each run adds a
// fresh entry and alert.
func (e *Engine) Orchestrate(eventID int64, answers domain.Answers) (domain.Decision, error) {
	outcome, color, alertType := Classify(answers)

	ev, err := e.Events.SetStatus(eventID, outcome)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Decision{}, err
		}
		e.Log.Warn("event status write failed", zap.Int64("id", eventID), zap.Error(err))
	}

	d := domain.Decision{
		Event:     ev,
		Answers:   answers,
		Outcome:   outcome,
		Color:     color,
		Timestamp: e.Now(),
	}

	e.mu.Lock()
	e.decisions = append([]domain.Decision{d}, e.decisions...)
	e.mu.Unlock()

	// The derived alert type is not a risk label, so styling falls back to
	// the Low entry. No auto action on operator-driven alerts.
	e.AddAlert(ev, alertType, "")
	return d, nil
}

// riskToAlert maps AI risk labels to alert styling and response windows.
var riskToAlert = map[string]struct {
	class   string
	urgency int
}{
	"High":       {"alert-critical", 60},
	"Medium":     {"alert-asset", 900},
	"Low":        {"alert-rounding", 14400},
	"Training":   {"alert-training", 86400},
	"Compliance": {"alert-compliance", 3600},
}

// AddAlert raises an alert for event, styled by risk label. Unknown labels
// take the Low styling. The newest alert sits at the front.
func (e *Engine) AddAlert(event domain.Event, riskLabel, autoAction string) domain.Alert {
	def, ok := riskToAlert[riskLabel]
	if !ok {
		def = riskToAlert["Low"]
	}
	a := domain.Alert{
		ID:         uuid.NewString(),
		Type:       riskLabel,
		StyleClass: def.class,
		AutoAction: autoAction,
		Event:      event,
		Created:    e.Now(),
		Urgency:    def.urgency,
	}
	e.mu.Lock()
	e.alerts = append([]domain.Alert{a}, e.alerts...)
	e.mu.Unlock()
	return a
}

// ActiveAlerts returns alerts not yet dismissed, newest first.
func (e *Engine) ActiveAlerts() []domain.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []domain.Alert
	for _, a := range e.alerts {
		if !a.Dismissed {
			out = append(out, a)
		}
	}
	return out
}

// Dismiss marks one alert dismissed. Idempotent, and a no-op on unknown
// ids; dismissed alerts stay in the collection but leave the active view.
func (e *Engine) Dismiss(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.alerts {
		if e.alerts[i].ID == id {
			e.alerts[i].Dismissed = true
			return
		}
	}
}

// Decisions returns the decision log, newest first.
func (e *Engine) Decisions() []domain.Decision {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Decision, len(e.decisions))
	copy(out, e.decisions)
	return out
}

// AlertCatalog lists the canonical alert categories for the matrix view.
func (e *Engine) AlertCatalog() []domain.AlertType {
	return []domain.AlertType{
		{Name: "Critical Safety", StyleClass: "alert-critical", Urgency: 60, AutoAction: "Shutdown command issued"},
		{Name: "Compliance Drift", StyleClass: "alert-compliance", Urgency: 3600, AutoAction: "Draft gap report generated"},
		{Name: "Asset Failure Risk", StyleClass: "alert-asset", Urgency: 900, AutoAction: "Maintenance task scheduled"},
		{Name: "Rounding", StyleClass: "alert-rounding", Urgency: 14400, AutoAction: "Small alert & data adjust"},
		{Name: "Training Lapse", StyleClass: "alert-training", Urgency: 86400, AutoAction: "Auto-assign micro-course"},
	}
}

// AIReady reports whether the AI-dependent operations can run.
func (e *Engine) AIReady() bool {
	return e.AI != nil && e.AI.Ready()
}

// RefreshTodos asks the LLM for action items over the 10 most recent events
// and replaces the todo list with whatever parses. Each parsed item that
// matches an event's details also raises an alert carrying the item's risk
// and action. A failed call or zero parsed lines leaves the previous list
// untouched.
func (e *Engine) RefreshTodos(ctx context.Context) ([]domain.Todo, error) {
	if !e.AIReady() {
		return nil, ErrAIDisabled
	}
	events := e.Events.List(10)
	if len(events) == 0 {
		return e.Todos.List(), nil
	}

	text, err := e.AI.Complete(ctx, insight.TodoPrompt(events))
	if err != nil {
		// A failed call degrades to "no todos produced this cycle".
		e.Log.Warn("todo completion failed, keeping previous list", zap.Error(err))
		return e.Todos.List(), nil
	}
	e.Log.Debug("todo completion received", zap.Int("chars", len(text)))

	todos := insight.ParseTodos(text)
	for _, t := range todos {
		if ev, ok := e.Events.MatchDetails(t.Event); ok {
			e.AddAlert(ev, t.Risk, t.Action)
		}
	}
	if len(todos) == 0 {
		e.Log.Info("todo refresh produced no items, keeping previous list")
		return e.Todos.List(), nil
	}
	if err := e.Todos.ReplaceAll(todos); err != nil {
		e.Log.Warn("todo write failed", zap.Error(err))
	}
	return todos, nil
}

// SetTodoDone flips one todo's completion flag by position.
func (e *Engine) SetTodoDone(index int, done bool) (domain.Todo, error) {
	return e.Todos.SetDone(index, done)
}

// complete runs one LLM call and folds any failure into display text, so the
// caller always has something to show where a result was expected.
func (e *Engine) complete(ctx context.Context, prompt string) string {
	out, err := e.AI.Complete(ctx, prompt)
	if err != nil {
		e.Log.Debug("completion failed", zap.Error(err))
		var apiErr *insight.APIError
		if errors.As(err, &apiErr) {
			return apiErr.Error()
		}
		return fmt.Sprintf("Request Error: %v", err)
	}
	e.Log.Debug("completion received", zap.Int("chars", len(out)))
	return out
}

// AnalyzeEvents produces the automatic insight summary over the 10 most
// recent events.
func (e *Engine) AnalyzeEvents(ctx context.Context) (string, error) {
	if !e.AIReady() {
		return "", ErrAIDisabled
	}
	events := e.Events.List(10)
	if len(events) == 0 {
		return "No events to analyze", nil
	}
	return e.complete(ctx, insight.AnalysisPrompt(events)), nil
}

// AnalyzeRecentEvents is the manual deep-dive over the 5 most recent events.
func (e *Engine) AnalyzeRecentEvents(ctx context.Context) (string, error) {
	if !e.AIReady() {
		return "", ErrAIDisabled
	}
	events := e.Events.List(5)
	if len(events) == 0 {
		return "No events to analyze", nil
	}
	return e.complete(ctx, insight.RecentEventsPrompt(events)), nil
}

// GenerateReport produces the executive facility report.
func (e *Engine) GenerateReport(ctx context.Context) (string, error) {
	if !e.AIReady() {
		return "", ErrAIDisabled
	}
	d := e.Config.Dashboard
	prompt := insight.ReportPrompt(d.Compliance, d.Cost, d.CostUnit,
		e.Events.Len(), len(Assets()), e.Events.List(5))
	return e.complete(ctx, prompt), nil
}

// PredictMaintenance forecasts maintenance needs over the asset register.
func (e *Engine) PredictMaintenance(ctx context.Context) (string, error) {
	if !e.AIReady() {
		return "", ErrAIDisabled
	}
	return e.complete(ctx, insight.MaintenancePrompt(Assets())), nil
}
