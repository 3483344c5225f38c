package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Event types accepted at the unified entry points.
const (
	EventAssetPing        = "Autonomous Asset Ping"
	EventScheduledCycle   = "Scheduled Cycle"
	EventRegulatoryUpdate = "Regulatory Update"
	EventContractorEvent  = "Contractor Event"
	EventIncidentFlag     = "Incident Flag"
)

// EventTypes lists the fixed enumeration in display order.
var EventTypes = []string{
	EventAssetPing,
	EventScheduledCycle,
	EventRegulatoryUpdate,
	EventContractorEvent,
	EventIncidentFlag,
}

// ValidEventType reports whether t is one of the fixed event types.
func ValidEventType(t string) bool {
	for _, k := range EventTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Event statuses. Pending until the orchestrator classifies the event.
const (
	StatusPending      = "Pending"
	StatusEscalate     = "Escalate"
	StatusScheduleTask = "Schedule Task"
	StatusAutoResolve  = "Auto-Resolve"
)

type Event struct {
	ID      int64     `json:"id"`
	Type    string    `json:"type" enum:"Autonomous Asset Ping,Scheduled Cycle,Regulatory Update,Contractor Event,Incident Flag"`
	Details string    `json:"details"`
	Time    time.Time `json:"time" format:"date-time"`
	Status  string    `json:"status" enum:"Pending,Escalate,Schedule Task,Auto-Resolve"`
}

// Legacy events files carry fractional-seconds ids and zone-less ISO
// timestamps; accept both alongside the canonical encoding.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      json.Number `json:"id"`
		Type    string      `json:"type"`
		Details string      `json:"details"`
		Time    string      `json:"time"`
		Status  string      `json:"status"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	id, err := raw.ID.Int64()
	if err != nil {
		f, ferr := raw.ID.Float64()
		if ferr != nil {
			return fmt.Errorf("event id: %w", err)
		}
		id = int64(f)
	}
	ts, err := parseEventTime(raw.Time)
	if err != nil {
		return err
	}
	e.ID = id
	e.Type = raw.Type
	e.Details = raw.Details
	e.Time = ts
	e.Status = raw.Status
	return nil
}

var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseEventTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range eventTimeLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("event time %q: %w", s, lastErr)
}

// Answers is the orchestrator questionnaire, in question order.
type Answers struct {
	SafetyImpact        bool `json:"safety_impact"`
	ComplianceDeviation bool `json:"compliance_deviation"`
	AssetHealthRisk     bool `json:"asset_health_risk"`
}

// Triple returns the answers as the ordered triple the rules evaluate.
func (a Answers) Triple() [3]bool {
	return [3]bool{a.SafetyImpact, a.ComplianceDeviation, a.AssetHealthRisk}
}

// Decision is one orchestrator run: the event as it was classified (a
// snapshot, not a live reference), the answers, and the computed outcome.
type Decision struct {
	Event     Event     `json:"event"`
	Answers   Answers   `json:"answers"`
	Outcome   string    `json:"outcome" enum:"Escalate,Schedule Task,Auto-Resolve"`
	Color     string    `json:"color"`
	Timestamp time.Time `json:"timestamp" format:"date-time"`
}

// Alert is a transient, dismissible notification. Alerts are never persisted
// and never removed, only marked dismissed.
type Alert struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	StyleClass string    `json:"style_class"`
	AutoAction string    `json:"auto_action,omitempty"`
	Event      Event     `json:"event"`
	Created    time.Time `json:"created" format:"date-time"`
	Urgency    int       `json:"urgency"`
	Dismissed  bool      `json:"dismissed"`
}

// Todo is an AI-suggested action item. The event field is free text matched
// back to the event log by substring containment, not a strict reference.
type Todo struct {
	Event  string `json:"event"`
	Risk   string `json:"risk"`
	Action string `json:"action"`
	Done   bool   `json:"done"`
}

// AlertType is a catalog entry for the Alert Matrix view: the canonical
// styling, response window, and automated remediation per category.
type AlertType struct {
	Name       string `json:"name"`
	StyleClass string `json:"style_class"`
	Urgency    int    `json:"urgency"`
	AutoAction string `json:"auto_action"`
}

// Dashboard data.

type Asset struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Risk   string `json:"risk"`
	Trend  string `json:"trend"`
}

type TrainingRecord struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Expires string `json:"expires"`
}

type Benefit struct {
	Feature     string `json:"feature"`
	Description string `json:"description"`
	Score       int    `json:"score"`
}

type Gauge struct {
	Title string  `json:"title"`
	Value float64 `json:"value"`
	Max   float64 `json:"max"`
	Unit  string  `json:"unit,omitempty"`
}
