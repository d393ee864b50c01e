package application

import "testing"

func TestStageIndex(t *testing.T) {
	for _, status := range AllStatuses {
		idx := StageIndex(status)
		if idx < 0 || idx > 4 {
			t.Errorf("StageIndex(%q) = %d, want within [0,4]", status, idx)
		}
	}

	tests := []struct {
		status string
		want   int
	}{
		{status: StatusLead, want: 0},
		{status: StatusDraft, want: 0},
		{status: StatusSubmitted, want: 1},
		{status: StatusScreening, want: 1},
		{status: StatusReview, want: 1},
		{status: StatusConditionalOffer, want: 2},
		{status: StatusUnconditionalOffer, want: 2},
		{status: StatusDepositPaid, want: 2},
		{status: StatusCasLoa, want: 3},
		{status: StatusVisa, want: 3},
		{status: StatusEnrolled, want: 4},
		// terminal exits and junk fall back to the first stage
		{status: StatusWithdrawn, want: 0},
		{status: StatusRejected, want: 0},
		{status: "", want: 0},
		{status: "lol", want: 0},
	}
	for _, tt := range tests {
		if got := StageIndex(tt.status); got != tt.want {
			t.Errorf("StageIndex(%q) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestStageLabel(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{status: StatusLead, want: "Lead"},
		{status: StatusSubmitted, want: "Applied"},
		{status: StatusDepositPaid, want: "Offer"},
		{status: StatusVisa, want: "Visa"},
		{status: StatusEnrolled, want: "Enrolled"},
		{status: "unknown", want: "Lead"},
	}
	for _, tt := range tests {
		if got := StageLabel(tt.status); got != tt.want {
			t.Errorf("StageLabel(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStageProgress(t *testing.T) {
	tests := []struct {
		status string
		want   float64
	}{
		{status: StatusLead, want: 0},
		{status: StatusSubmitted, want: 25},
		{status: StatusConditionalOffer, want: 50},
		{status: StatusCasLoa, want: 75},
		{status: StatusEnrolled, want: 100},
		{status: StatusWithdrawn, want: 0},
	}
	for _, tt := range tests {
		if got := StageProgress(tt.status); got != tt.want {
			t.Errorf("StageProgress(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
