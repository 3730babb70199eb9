package core

import "sort"

// GroupHoursByProject sums hours per project over already fetched rows.
// The result is ordered by project name.
func GroupHoursByProject(rows []CheckIn) []ProjectHours {
	if len(rows) == 0 {
		return []ProjectHours{}
	}
	totals := make(map[string]float64)
	for _, r := range rows {
		totals[r.Project] += r.Hours
	}
	out := make([]ProjectHours, 0, len(totals))
	for p, h := range totals {
		out = append(out, ProjectHours{Project: p, TotalHours: h})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Project < out[j].Project })
	return out
}

// TotalHours sums hours over rows.
func TotalHours(rows []CheckIn) float64 {
	var total float64
	for _, r := range rows {
		total += r.Hours
	}
	return total
}
