// Package digest renders control-center JSON into short plain-text
// summaries used to seed the agent's instructions.
package digest

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	ContextUnavailable = "Global context is unavailable."
	NoProjects         = "No projects found in the portfolio."

	maxSampleProjects = 5
)

var (
	healthKeys    = []string{"healthy", "attention_needed", "stalled", "failing", "blocked"}
	statusKeys    = []string{"active", "blocked", "parked"}
	workOrderKeys = []string{"ready", "building", "blocked"}
)

// SummarizeGlobalContext condenses the /global/context payload. Malformed
// sections are skipped rather than reported.
func SummarizeGlobalContext(ctx any) string {
	root, ok := ctx.(map[string]any)
	if !ok {
		return ContextUnavailable
	}
	projects, ok := root["projects"].([]any)
	if !ok {
		return ContextUnavailable
	}
	if len(projects) == 0 {
		return NoProjects
	}

	health := map[string]int{}
	status := map[string]int{}
	workOrders := map[string]int{}
	escalations := 0
	activeShifts := 0

	for _, item := range projects {
		project, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if value, ok := project["health"].(string); ok {
			health[value]++
		}
		if value, ok := project["status"].(string); ok {
			status[value]++
		}
		if counts, ok := project["work_orders"].(map[string]any); ok {
			for _, key := range workOrderKeys {
				if n, ok := asInt(counts[key]); ok {
					workOrders[key] += n
				}
			}
		}
		if list, ok := project["escalations"].([]any); ok {
			escalations += len(list)
		}
		if shift, ok := project["active_shift"]; ok && shift != nil {
			activeShifts++
		}
	}

	parts := []string{fmt.Sprintf(
		"Portfolio: %d projects (%d healthy, %d attention needed, %d stalled, %d failing, %d blocked).",
		len(projects),
		health[healthKeys[0]], health[healthKeys[1]], health[healthKeys[2]], health[healthKeys[3]], health[healthKeys[4]],
	)}

	if sum(status, statusKeys) > 0 {
		parts = append(parts, fmt.Sprintf("Status: %d active, %d blocked, %d parked.",
			status["active"], status["blocked"], status["parked"]))
	}
	if sum(workOrders, workOrderKeys) > 0 {
		parts = append(parts, fmt.Sprintf("Work orders: %d ready, %d building, %d blocked.",
			workOrders["ready"], workOrders["building"], workOrders["blocked"]))
	}
	if escalations > 0 || activeShifts > 0 {
		parts = append(parts, fmt.Sprintf("Escalations %d; active shifts %d.", escalations, activeShifts))
	}
	if line := budgetLine(root["economy"]); line != "" {
		parts = append(parts, line)
	}
	if line := sessionLine(root["global_session"]); line != "" {
		parts = append(parts, line)
	}

	summary := strings.Join(parts, " ")
	if samples := projectSamples(projects); samples != "" {
		return summary + "\n" + samples
	}
	return summary
}

func budgetLine(value any) string {
	economy, ok := value.(map[string]any)
	if !ok {
		return ""
	}
	remaining := FormatUSD(economy["total_remaining_usd"])
	runway := FormatNumber(economy["portfolio_runway_days"])
	switch {
	case remaining != "" && runway != "":
		return fmt.Sprintf("Budget remaining %s; runway %s days.", remaining, runway)
	case remaining != "":
		return fmt.Sprintf("Budget remaining %s.", remaining)
	case runway != "":
		return fmt.Sprintf("Runway %s days.", runway)
	}
	return ""
}

func sessionLine(value any) string {
	session, ok := value.(map[string]any)
	if !ok {
		return ""
	}
	state := trimmedString(session["state"])
	if state == "" {
		return ""
	}
	if trimmedString(session["paused_at"]) != "" {
		return fmt.Sprintf("Global session %s (paused).", state)
	}
	return fmt.Sprintf("Global session %s.", state)
}

func projectSamples(projects []any) string {
	limit := min(len(projects), maxSampleProjects)
	lines := make([]string, 0, limit)
	for _, item := range projects[:limit] {
		project, ok := item.(map[string]any)
		if !ok {
			continue
		}
		counts, _ := project["work_orders"].(map[string]any)
		lines = append(lines, fmt.Sprintf("- %s (%s): status %s, health %s, ready %s, blocked %s.",
			field(project, "name", "unknown"),
			field(project, "id", "unknown"),
			field(project, "status", "unknown"),
			field(project, "health", "unknown"),
			field(counts, "ready", "0"),
			field(counts, "blocked", "0"),
		))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Sample projects:\n" + strings.Join(lines, "\n")
}

// FormatUSD renders an amount with a dollar sign, cents only below 100.
// Non-numeric input yields "".
func FormatUSD(value any) string {
	n, ok := asFloat(value)
	if !ok {
		return ""
	}
	if math.Abs(n) >= 100 {
		return "$" + humanize.FormatFloat("#,###.", n)
	}
	return "$" + humanize.FormatFloat("#,###.##", n)
}

// FormatNumber renders a count with one decimal below 100.
func FormatNumber(value any) string {
	n, ok := asFloat(value)
	if !ok {
		return ""
	}
	if math.Abs(n) >= 100 {
		return humanize.FormatFloat("#,###.", n)
	}
	return humanize.FormatFloat("#,###.#", n)
}

func sum(counts map[string]int, keys []string) int {
	total := 0
	for _, key := range keys {
		total += counts[key]
	}
	return total
}

func field(m map[string]any, key, fallback string) string {
	value, ok := m[key]
	if !ok || value == nil {
		return fallback
	}
	return fmt.Sprint(value)
}

func asFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// asInt accepts whole numbers only; JSON decoding yields float64 for every
// number, so integral floats count.
func asInt(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true
		}
	}
	return 0, false
}

func trimmedString(value any) string {
	s, _ := value.(string)
	return strings.TrimSpace(s)
}
