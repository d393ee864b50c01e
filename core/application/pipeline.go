package application

// Pipeline stages, in order. A fine-grained status maps onto one of these
// coarse buckets for progress visualization only; there is no enforcement
// that stages move forward.
var Stages = [5]string{"Lead", "Applied", "Offer", "Visa", "Enrolled"}

var stageIndexes = map[string]int{
	StatusLead:               0,
	StatusDraft:              0,
	StatusSubmitted:          1,
	StatusScreening:          1,
	StatusReview:             1,
	StatusConditionalOffer:   2,
	StatusUnconditionalOffer: 2,
	StatusDepositPaid:        2,
	StatusCasLoa:             3,
	StatusVisa:               3,
	StatusEnrolled:           4,
}

// StageIndex maps a raw status onto a pipeline stage index in [0,4].
// Unmapped or empty statuses default to 0 (Lead).
func StageIndex(status string) int {
	return stageIndexes[status]
}

// StageLabel returns the display label for the stage holding the given status.
func StageLabel(status string) string {
	return Stages[StageIndex(status)]
}

// StageProgress returns the progress-bar percentage for the given status.
func StageProgress(status string) float64 {
	return float64(StageIndex(status)) / float64(len(Stages)-1) * 100
}
