package server

import (
	"time"

	"chemecare/internal/domain"
)

// Request payloads

type CreateEventRequest struct {
	Type    string `json:"type" enum:"Autonomous Asset Ping,Scheduled Cycle,Regulatory Update,Contractor Event,Incident Flag"`
	Details string `json:"details"`
}

// Unanswered questions default to false.
type TriageRequest struct {
	SafetyImpact        bool `json:"safety_impact,omitempty"`
	ComplianceDeviation bool `json:"compliance_deviation,omitempty"`
	AssetHealthRisk     bool `json:"asset_health_risk,omitempty"`
}

type SetTodoDoneRequest struct {
	Done bool `json:"done"`
}

type UploadPhotoRequest struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// Response payloads

type EventResponse struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	Details string `json:"details"`
	Time    string `json:"time" format:"date-time"`
	Status  string `json:"status" enum:"Pending,Escalate,Schedule Task,Auto-Resolve"`
	Age     string `json:"age"`
}

type DecisionResponse struct {
	Event     EventResponse  `json:"event"`
	Answers   domain.Answers `json:"answers"`
	Outcome   string         `json:"outcome" enum:"Escalate,Schedule Task,Auto-Resolve"`
	Color     string         `json:"color"`
	Timestamp string         `json:"timestamp" format:"date-time"`
}

type AlertResponse struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	StyleClass string        `json:"style_class"`
	AutoAction string        `json:"auto_action,omitempty"`
	Event      EventResponse `json:"event"`
	Created    string        `json:"created" format:"date-time"`
	Urgency    int           `json:"urgency"`
	Respond    string        `json:"respond"`
	Dismissed  bool          `json:"dismissed"`
}

type AlertTypeResponse struct {
	Name       string `json:"name"`
	StyleClass string `json:"style_class"`
	Urgency    int    `json:"urgency"`
	Respond    string `json:"respond"`
	AutoAction string `json:"auto_action"`
}

type TodoResponse struct {
	Index  int    `json:"index"`
	Event  string `json:"event"`
	Risk   string `json:"risk"`
	Action string `json:"action"`
	Done   bool   `json:"done"`
}

type DashboardResponse struct {
	Gauges   []domain.Gauge          `json:"gauges"`
	Assets   []domain.Asset          `json:"assets"`
	Training []domain.TrainingRecord `json:"training"`
	Insights []string                `json:"insights"`
}

type StatusResponse struct {
	Facility     string `json:"facility"`
	AIReady      bool   `json:"ai_ready"`
	Events       int    `json:"events"`
	Todos        int    `json:"todos"`
	ActiveAlerts int    `json:"active_alerts"`
}

type AnalysisResponse struct {
	Result string `json:"result"`
}

// Converters

func domainAnswers(r TriageRequest) domain.Answers {
	return domain.Answers{
		SafetyImpact:        r.SafetyImpact,
		ComplianceDeviation: r.ComplianceDeviation,
		AssetHealthRisk:     r.AssetHealthRisk,
	}
}

func eventResponse(e domain.Event, now time.Time) EventResponse {
	return EventResponse{
		ID:      e.ID,
		Type:    e.Type,
		Details: e.Details,
		Time:    e.Time.Format(time.RFC3339),
		Status:  e.Status,
		Age:     domain.TimeAgo(e.Time, now),
	}
}

func mapEvents(events []domain.Event, now time.Time) []EventResponse {
	out := make([]EventResponse, len(events))
	for i, e := range events {
		out[i] = eventResponse(e, now)
	}
	return out
}

func decisionResponse(d domain.Decision, now time.Time) DecisionResponse {
	return DecisionResponse{
		Event:     eventResponse(d.Event, now),
		Answers:   d.Answers,
		Outcome:   d.Outcome,
		Color:     d.Color,
		Timestamp: d.Timestamp.Format(time.RFC3339),
	}
}

func mapDecisions(decisions []domain.Decision, now time.Time) []DecisionResponse {
	out := make([]DecisionResponse, len(decisions))
	for i, d := range decisions {
		out[i] = decisionResponse(d, now)
	}
	return out
}

func alertResponse(a domain.Alert, now time.Time) AlertResponse {
	return AlertResponse{
		ID:         a.ID,
		Type:       a.Type,
		StyleClass: a.StyleClass,
		AutoAction: a.AutoAction,
		Event:      eventResponse(a.Event, now),
		Created:    a.Created.Format(time.RFC3339),
		Urgency:    a.Urgency,
		Respond:    domain.FormatUrgency(a.Urgency),
		Dismissed:  a.Dismissed,
	}
}

func mapAlerts(alerts []domain.Alert, now time.Time) []AlertResponse {
	out := make([]AlertResponse, len(alerts))
	for i, a := range alerts {
		out[i] = alertResponse(a, now)
	}
	return out
}

func mapAlertTypes(types []domain.AlertType) []AlertTypeResponse {
	out := make([]AlertTypeResponse, len(types))
	for i, t := range types {
		out[i] = AlertTypeResponse{
			Name:       t.Name,
			StyleClass: t.StyleClass,
			Urgency:    t.Urgency,
			Respond:    domain.FormatUrgency(t.Urgency),
			AutoAction: t.AutoAction,
		}
	}
	return out
}

func mapTodos(todos []domain.Todo) []TodoResponse {
	out := make([]TodoResponse, len(todos))
	for i, t := range todos {
		out[i] = TodoResponse{
			Index:  i,
			Event:  t.Event,
			Risk:   t.Risk,
			Action: t.Action,
			Done:   t.Done,
		}
	}
	return out
}
