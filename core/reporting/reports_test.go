package reporting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/unigate/unigate/core/agent"
	"github.com/unigate/unigate/core/application"
)

func detailWithStatus(status string) application.Detail {
	d := application.Detail{}
	d.Status = status
	return d
}

func TestFunnel(t *testing.T) {
	apps := []application.Detail{
		detailWithStatus(application.StatusLead),
		detailWithStatus(application.StatusLead),
		detailWithStatus(application.StatusDraft),
		detailWithStatus(application.StatusSubmitted),
		detailWithStatus(application.StatusReview),
		detailWithStatus(application.StatusConditionalOffer),
		detailWithStatus(application.StatusCasLoa),
		detailWithStatus(application.StatusEnrolled),
		// terminal exits must not count anywhere
		detailWithStatus(application.StatusWithdrawn),
		detailWithStatus(application.StatusRejected),
	}

	funnel := Funnel(apps)
	if len(funnel) != 5 {
		t.Fatalf("len(funnel) = %d, want 5", len(funnel))
	}

	wantCurrent := []int{3, 2, 1, 1, 1}
	wantReached := []int{8, 5, 3, 2, 1}
	for i, m := range funnel {
		if m.Count != wantCurrent[i] {
			t.Errorf("funnel[%d].Count = %d, want %d", i, m.Count, wantCurrent[i])
		}
		if m.Reached != wantReached[i] {
			t.Errorf("funnel[%d].Reached = %d, want %d", i, m.Reached, wantReached[i])
		}
	}

	if funnel[0].Conversion != 100 {
		t.Errorf("funnel[0].Conversion = %v, want 100", funnel[0].Conversion)
	}
	assert.InDelta(t, 62.5, funnel[1].Conversion, 0.001) // 5/8
	assert.InDelta(t, 60.0, funnel[2].Conversion, 0.001) // 3/5
	assert.InDelta(t, 66.666, funnel[3].Conversion, 0.001)
	assert.InDelta(t, 50.0, funnel[4].Conversion, 0.001)
}

func TestFunnel_empty(t *testing.T) {
	funnel := Funnel(nil)
	for i, m := range funnel {
		if m.Count != 0 || m.Reached != 0 || m.Conversion != 0 {
			t.Errorf("funnel[%d] = %+v, want zeroes", i, m)
		}
	}
}

func TestStatusCounts(t *testing.T) {
	apps := []application.Detail{
		detailWithStatus(application.StatusLead),
		detailWithStatus(application.StatusLead),
		detailWithStatus(application.StatusWithdrawn),
	}
	counts := StatusCounts(apps)
	assert.Equal(t, map[string]int{
		application.StatusLead:      2,
		application.StatusWithdrawn: 1,
	}, counts)
}

func TestRiskDistribution_preseedsBands(t *testing.T) {
	dist := RiskDistribution(nil)
	assert.Equal(t, map[string]int{
		application.RiskLow:    0,
		application.RiskMedium: 0,
		application.RiskHigh:   0,
	}, dist)
}

func TestByMonth(t *testing.T) {
	mk := func(yyyy int, mm time.Month) application.Detail {
		d := application.Detail{}
		d.CreatedAt = time.Date(yyyy, mm, 15, 12, 0, 0, 0, time.UTC)
		return d
	}

	apps := []application.Detail{
		mk(2024, time.January),
		mk(2024, time.January),
		mk(2024, time.March),
		{}, // zero CreatedAt is skipped
	}
	assert.Equal(t, map[string]int{"2024-01": 2, "2024-03": 1}, ByMonth(apps))
}

func TestByLevel(t *testing.T) {
	pg := application.Detail{ProgramLevel: "MSc"}
	ug := application.Detail{ProgramLevel: "Bachelor"}
	groups := ByLevel([]application.Detail{pg, pg, ug})
	assert.Equal(t, map[string]int{application.LevelPG: 2, application.LevelUG: 1}, groups)
}

func TestCommissionTotals(t *testing.T) {
	coms := []agent.Commission{
		{Status: agent.CommissionPending, Currency: "GBP", AmountCents: 100_00},
		{Status: agent.CommissionPending, Currency: "GBP", AmountCents: 50_00},
		{Status: agent.CommissionPending, Currency: "USD", AmountCents: 75_00},
		{Status: agent.CommissionPaid, Currency: "GBP", AmountCents: 200_00},
	}
	totals := CommissionTotals(coms)
	assert.Equal(t, map[string]map[string]int64{
		agent.CommissionPending: {"GBP": 150_00, "USD": 75_00},
		agent.CommissionPaid:    {"GBP": 200_00},
	}, totals)
}

func TestBuildOverview(t *testing.T) {
	apps := []application.Detail{
		detailWithStatus(application.StatusLead),
		detailWithStatus(application.StatusEnrolled),
	}
	overview := BuildOverview(apps, nil)
	if overview.TotalApplications != 2 {
		t.Errorf("TotalApplications = %d, want 2", overview.TotalApplications)
	}
	if len(overview.Funnel) != 5 {
		t.Errorf("len(Funnel) = %d, want 5", len(overview.Funnel))
	}
	if overview.StatusCounts[application.StatusEnrolled] != 1 {
		t.Errorf("StatusCounts[enrolled] = %d, want 1", overview.StatusCounts[application.StatusEnrolled])
	}
}
