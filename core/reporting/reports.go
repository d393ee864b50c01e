// Package reporting is the shared aggregation engine behind the dashboard
// endpoints: pure reductions over slices already fetched from the store, with
// no pagination-aware accumulation.
package reporting

import (
	"github.com/unigate/unigate/core/agent"
	"github.com/unigate/unigate/core/application"
)

type (
	// StageMetric is one funnel row: how many applications have reached the
	// stage and the stage-to-stage conversion percentage.
	StageMetric struct {
		Stage      string  `json:"stage"`
		Count      int     `json:"count"`   // applications currently at this stage
		Reached    int     `json:"reached"` // applications at this stage or beyond
		Conversion float64 `json:"conversion"`
	}

	// Overview assembles the admin dashboard cards.
	Overview struct {
		TotalApplications int                         `json:"total_applications"`
		StatusCounts      map[string]int              `json:"status_counts"`
		Funnel            []StageMetric               `json:"funnel"`
		RiskDistribution  map[string]int              `json:"risk_distribution"`
		ByUniversity      map[string]int              `json:"by_university"`
		ByLevel           map[string]int              `json:"by_level"`
		ByMonth           map[string]int              `json:"by_month"`
		CommissionTotals  map[string]map[string]int64 `json:"commission_totals"`
	}
)

// StatusCounts counts applications per raw status.
func StatusCounts(apps []application.Detail) map[string]int {
	counts := make(map[string]int, len(application.AllStatuses))
	for _, app := range apps {
		counts[app.Status]++
	}
	return counts
}

// Funnel reduces applications onto the five pipeline stages. Terminal
// statuses (withdrawn/rejected) are excluded: they are not progress.
func Funnel(apps []application.Detail) []StageMetric {
	current := make([]int, len(application.Stages))
	reached := make([]int, len(application.Stages))
	for _, app := range apps {
		if app.Status == application.StatusWithdrawn || app.Status == application.StatusRejected {
			continue
		}
		idx := application.StageIndex(app.Status)
		current[idx]++
		for i := 0; i <= idx; i++ {
			reached[i]++
		}
	}

	metrics := make([]StageMetric, len(application.Stages))
	for i, stage := range application.Stages {
		m := StageMetric{Stage: stage, Count: current[i], Reached: reached[i]}
		if i == 0 {
			if reached[0] > 0 {
				m.Conversion = 100
			}
		} else if reached[i-1] > 0 {
			m.Conversion = float64(reached[i]) / float64(reached[i-1]) * 100
		}
		metrics[i] = m
	}
	return metrics
}

// RiskDistribution buckets applications by risk band via the categorizer.
func RiskDistribution(apps []application.Detail) map[string]int {
	dist := map[string]int{
		application.RiskLow:    0,
		application.RiskMedium: 0,
		application.RiskHigh:   0,
	}
	for _, app := range apps {
		dist[app.Categorize().RiskBand]++
	}
	return dist
}

// ByUniversity groups applications by university name.
func ByUniversity(apps []application.Detail) map[string]int {
	groups := make(map[string]int)
	for _, app := range apps {
		groups[app.UniversityName]++
	}
	return groups
}

// ByLevel groups applications by inferred academic level.
func ByLevel(apps []application.Detail) map[string]int {
	groups := make(map[string]int)
	for _, app := range apps {
		groups[app.Categorize().Level]++
	}
	return groups
}

// ByMonth groups applications into "YYYY-MM" creation buckets.
func ByMonth(apps []application.Detail) map[string]int {
	groups := make(map[string]int)
	for _, app := range apps {
		if app.CreatedAt.IsZero() {
			continue
		}
		groups[app.CreatedAt.UTC().Format("2006-01")]++
	}
	return groups
}

// CommissionTotals sums commission amounts by status and currency.
func CommissionTotals(coms []agent.Commission) map[string]map[string]int64 {
	totals := make(map[string]map[string]int64)
	for _, com := range coms {
		byCurrency, ok := totals[com.Status]
		if !ok {
			byCurrency = make(map[string]int64)
			totals[com.Status] = byCurrency
		}
		byCurrency[com.Currency] += com.AmountCents
	}
	return totals
}

// BuildOverview assembles the admin overview from already-fetched slices.
func BuildOverview(apps []application.Detail, coms []agent.Commission) Overview {
	return Overview{
		TotalApplications: len(apps),
		StatusCounts:      StatusCounts(apps),
		Funnel:            Funnel(apps),
		RiskDistribution:  RiskDistribution(apps),
		ByUniversity:      ByUniversity(apps),
		ByLevel:           ByLevel(apps),
		ByMonth:           ByMonth(apps),
		CommissionTotals:  CommissionTotals(coms),
	}
}
