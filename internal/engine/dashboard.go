package engine

import "chemecare/internal/domain"

// Static dashboard data. The asset register, training roster, and benefits
// comparison are fixtures until those systems feed in live data.

// Assets returns the monitored asset register.
func Assets() []domain.Asset {
	return []domain.Asset{
		{ID: 1, Name: "Turbine #1", Status: "Healthy", Risk: "Low", Trend: "+2%"},
		{ID: 2, Name: "Pipeline A", Status: "At Risk", Risk: "Medium", Trend: "-1%"},
		{ID: 3, Name: "Turbine #3", Status: "Critical", Risk: "High", Trend: "-5%"},
	}
}

// Training returns the operator training roster.
func Training() []domain.TrainingRecord {
	return []domain.TrainingRecord{
		{Name: "Alice", Status: "Complete", Expires: "2025-01-10"},
		{Name: "Bob", Status: "Expiring", Expires: "2024-07-01"},
		{Name: "Carlos", Status: "Expired", Expires: "2024-04-01"},
	}
}

// Insights returns the standing dashboard insight lines.
func Insights() []string {
	return []string{
		"Optimize turbine #3 maintenance schedule",
		"Reduce inspection cycle for pipeline A",
		"Update training for new EPA rule",
		"Consolidate vendor onboarding",
		"Review asset tag rounding policy",
	}
}

// Benefits returns the legacy-vs-unified comparison rows.
func Benefits() []domain.Benefit {
	return []domain.Benefit{
		{Feature: "Dashboards", Description: "Legacy: Multiple dashboards in different systems. New: All-in-one view.", Score: 95},
		{Feature: "Decision Gates", Description: "Legacy: Many manual gates. New: One AI-powered gate.", Score: 90},
		{Feature: "Average Alert Routing", Description: "Legacy: Slow, manual routing. New: Instant, AI-driven.", Score: 85},
		{Feature: "Report Prep Time", Description: "Legacy: Manual, slow. New: Automated, fast.", Score: 80},
		{Feature: "Data Silos", Description: "Legacy: Data scattered. New: Unified cloud hub.", Score: 75},
	}
}

// Gauges returns the home view dials, fed by the configured compliance and
// cost figures.
func (e *Engine) Gauges() []domain.Gauge {
	d := e.Config.Dashboard
	return []domain.Gauge{
		{Title: "Compliance %", Value: d.Compliance, Max: 100},
		{Title: "Cost vs Budget", Value: d.Cost, Max: 2, Unit: d.CostUnit},
	}
}
