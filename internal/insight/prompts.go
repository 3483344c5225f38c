package insight

import (
	"fmt"
	"strconv"
	"strings"

	"chemecare/internal/domain"
)

// EventLine renders one event the way status-aware prompts embed it.
func EventLine(e domain.Event) string {
	return fmt.Sprintf("%s: %s (Status: %s)", e.Type, e.Details, e.Status)
}

func eventBlock(events []domain.Event) string {
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = EventLine(e)
	}
	return strings.Join(lines, "\n")
}

// shortEventBlock renders events without status, for the manual tools.
func shortEventBlock(events []domain.Event) string {
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = fmt.Sprintf("%s: %s", e.Type, e.Details)
	}
	return strings.Join(lines, "\n")
}

// TodoPrompt asks the model for one pipe-delimited action line per event,
// in the shape ParseTodos reads back.
func TodoPrompt(events []domain.Event) string {
	return fmt.Sprintf(`Analyze these chemical facility events and for each event, provide:
- A risk level (High, Medium, Low)
- A recommended action item
Format as: Event: <event details> | Risk: <risk> | Action: <todo>

Recent Events:
%s
`, eventBlock(events))
}

// AnalysisPrompt drives the automatic insights block on the dashboard.
func AnalysisPrompt(events []domain.Event) string {
	return fmt.Sprintf(`Analyze these chemical facility events and provide actionable insights:

Recent Events:
%s

Provide a concise analysis with:
1. Key patterns identified
2. Risk assessment
3. Immediate action items
4. Compliance implications
5. Recommended preventive measures

Format as bullet points for easy reading.`, eventBlock(events))
}

// RecentEventsPrompt is the manual "Analyze Recent Events" tool.
func RecentEventsPrompt(events []domain.Event) string {
	return fmt.Sprintf(`Analyze these recent chemical facility events and provide insights on patterns, risks, and recommendations:

Events:
%s

Please provide a detailed analysis including:
1. Risk assessment
2. Pattern identification
3. Recommended actions
4. Compliance implications`, shortEventBlock(events))
}

// ReportPrompt is the manual "Generate AI Report" tool.
func ReportPrompt(compliance, cost float64, costUnit string, eventCount, assetCount int, events []domain.Event) string {
	summary := ""
	if len(events) > 0 {
		lines := make([]string, len(events))
		for i, e := range events {
			lines[i] = fmt.Sprintf("- %s: %s", e.Type, e.Details)
		}
		summary = "\nRecent Events Summary:\n" + strings.Join(lines, "\n")
	}
	return fmt.Sprintf(`Generate a comprehensive AI report for a chemical energy facility with the following data:

Compliance Rate: %s%%
Cost: $%s%s
Recent Events: %d events%s
Assets: %d assets monitored

Please provide:
1. Executive Summary
2. Key Performance Indicators
3. Risk Assessment
4. Recommendations
5. Next Steps`,
		formatNumber(compliance), formatNumber(cost), costUnit, eventCount, summary, assetCount)
}

// MaintenancePrompt is the manual "Predict Maintenance Needs" tool.
func MaintenancePrompt(assets []domain.Asset) string {
	lines := make([]string, len(assets))
	for i, a := range assets {
		lines[i] = fmt.Sprintf("%s: %s (%s risk)", a.Name, a.Status, a.Risk)
	}
	return fmt.Sprintf(`Based on the following asset data, predict maintenance needs and provide recommendations:

Assets:
%s

Please provide:
1. Maintenance predictions for each asset
2. Priority recommendations
3. Timeline suggestions
4. Cost implications
5. Risk mitigation strategies`, strings.Join(lines, "\n"))
}

// formatNumber drops trailing zeros so 92.0 reads "92" and 1.23 reads "1.23".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
