package application

import (
	"testing"
	"time"
)

func TestCategorize_neverPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Categorize() panicked: %v", r)
		}
	}()

	res := Categorize(CategorizeInput{})
	if res.Level != LevelUG {
		t.Errorf("Level = %q, want %q", res.Level, LevelUG)
	}
	if res.Route != RouteDirect {
		t.Errorf("Route = %q, want %q", res.Route, RouteDirect)
	}
	if res.Geography != GeoInternational {
		t.Errorf("Geography = %q, want %q", res.Geography, GeoInternational)
	}
	for i, tag := range res.Tags {
		if tag == "" {
			t.Errorf("Tags[%d] is empty", i)
		}
	}
}

func TestCategorize_level(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  string
	}{
		{name: "empty defaults to UG", level: "", want: LevelUG},
		{name: "bachelor", level: "Bachelor of Science", want: LevelUG},
		{name: "undergraduate does not trip graduate", level: "Undergraduate", want: LevelUG},
		{name: "phd lowercase", level: "phd", want: LevelPhD},
		{name: "PhD mixed case", level: "PhD in Chemistry", want: LevelPhD},
		{name: "doctorate", level: "Doctorate", want: LevelPhD},
		{name: "master substring", level: "Master of Arts", want: LevelPG},
		{name: "postgraduate", level: "Postgraduate Diploma", want: LevelPG},
		{name: "graduate certificate", level: "Graduate Certificate", want: LevelPG},
		{name: "msc token", level: "MSc", want: LevelPG},
		{name: "mba token", level: "MBA (Executive)", want: LevelPG},
		{name: "llm token", level: "LLM", want: LevelPG},
		{name: "ma embedded in word is not a token", level: "Marine Biology", want: LevelUG},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Categorize(CategorizeInput{ProgramLevel: tt.level})
			if res.Level != tt.want {
				t.Errorf("Categorize(%q).Level = %q, want %q", tt.level, res.Level, tt.want)
			}
		})
	}
}

func TestCategorize_route(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		program string
		want    string
	}{
		{name: "default direct", program: "BSc Computer Science", want: RouteDirect},
		{name: "foundation in name", program: "Business Foundation Year", want: RouteFoundation},
		{name: "pathway", program: "International Pathway Programme", want: RouteFoundation},
		{name: "preparatory", program: "Preparatory English", want: RouteFoundation},
		{name: "top-up hyphenated", program: "BA (Hons) Top-up", want: RouteTopUp},
		{name: "top up spaced", program: "Business Top Up", want: RouteTopUp},
		{name: "foundation in level", level: "Foundation", program: "Business", want: RouteFoundation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Categorize(CategorizeInput{ProgramLevel: tt.level, ProgramName: tt.program})
			if res.Route != tt.want {
				t.Errorf("Route = %q, want %q", res.Route, tt.want)
			}
		})
	}
}

// An "MSc Foundation Year" program is postgraduate by level and Foundation by
// route. Earlier renditions classified it UG because the level string carried
// no "master" substring; the MSc token now resolves it to PG.
func TestCategorize_mscFoundationYear(t *testing.T) {
	res := Categorize(CategorizeInput{
		ProgramLevel: "MSc",
		ProgramName:  "MSc Foundation Year",
	})
	if res.Level != LevelPG {
		t.Errorf("Level = %q, want %q", res.Level, LevelPG)
	}
	if res.Route != RouteFoundation {
		t.Errorf("Route = %q, want %q", res.Route, RouteFoundation)
	}
}

func TestCategorize_geography(t *testing.T) {
	tests := []struct {
		name        string
		uniCountry  string
		nationality string
		country     string
		want        string
	}{
		{name: "all empty", want: GeoInternational},
		{name: "unrecognized lands international", uniCountry: "Narnia", want: GeoInternational},
		{name: "uk alias", uniCountry: "United Kingdom", want: GeoUK},
		{name: "england alias", uniCountry: "England", want: GeoUK},
		{name: "us alias", uniCountry: "USA", want: GeoUS},
		{name: "eu country", uniCountry: "Germany", want: GeoEU},
		{name: "canada", uniCountry: "Canada", want: GeoCanada},
		{name: "australia", uniCountry: "australia", want: GeoAustralia},
		// university country wins over student nationality
		{name: "uk beats canada", uniCountry: "UK", nationality: "Canada", want: GeoUK},
		{name: "nationality when university unknown", uniCountry: "Narnia", nationality: "France", want: GeoEU},
		{name: "student country last", nationality: "Gondor", country: "Ireland", want: GeoEU},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Categorize(CategorizeInput{
				UniversityCountry:  tt.uniCountry,
				StudentNationality: tt.nationality,
				StudentCountry:     tt.country,
			})
			if res.Geography != tt.want {
				t.Errorf("Geography = %q, want %q", res.Geography, tt.want)
			}
		})
	}
}

func TestCategorize_riskClamping(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	// ancient activity + withdrawn + no agent + no documents: synthetic worst case
	res := Categorize(CategorizeInput{
		Status:    StatusWithdrawn,
		CreatedAt: "2020-01-01T00:00:00Z",
	})
	if res.Score > 100 || res.Score < 0 {
		t.Fatalf("Score = %d, want within [0,100]", res.Score)
	}
	if res.Score != 100 {
		t.Errorf("Score = %d, want clamped to 100", res.Score)
	}
	if res.RiskBand != RiskHigh {
		t.Errorf("RiskBand = %q, want %q", res.RiskBand, RiskHigh)
	}

	// best case cannot go negative
	res = Categorize(CategorizeInput{
		Status:         StatusEnrolled,
		AgentID:        "agent-1",
		DocumentsCount: 3,
		UpdatedAt:      now.Format(time.RFC3339),
	})
	if res.Score < 0 {
		t.Errorf("Score = %d, want >= 0", res.Score)
	}
	if res.RiskBand != RiskLow {
		t.Errorf("RiskBand = %q, want %q", res.RiskBand, RiskLow)
	}
}

func TestCategorize_riskBandThresholds(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{score: 0, want: RiskLow},
		{score: 39, want: RiskLow},
		{score: 40, want: RiskMedium},
		{score: 69, want: RiskMedium},
		{score: 70, want: RiskHigh},
		{score: 100, want: RiskHigh},
	}
	for _, tt := range tests {
		if got := riskBand(tt.score); got != tt.want {
			t.Errorf("riskBand(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestCategorize_activityRecency(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	base := CategorizeInput{
		Status:         StatusReview,
		AgentID:        "agent-1",
		DocumentsCount: 1,
	}

	fresh := base
	fresh.UpdatedAt = now.AddDate(0, 0, -5).Format(time.RFC3339)

	stale := base
	stale.UpdatedAt = now.AddDate(0, 0, -45).Format(time.RFC3339)

	ancient := base
	ancient.UpdatedAt = now.AddDate(0, 0, -120).Format(time.RFC3339)

	freshScore := Categorize(fresh).Score
	staleScore := Categorize(stale).Score
	ancientScore := Categorize(ancient).Score

	if !(freshScore < staleScore && staleScore < ancientScore) {
		t.Errorf("expected monotonic staleness penalty, got %d < %d < %d", freshScore, staleScore, ancientScore)
	}
	if ancientScore-freshScore != 30 {
		t.Errorf("expected a 30-point spread between fresh and ancient, got %d", ancientScore-freshScore)
	}

	// the most recent parseable timestamp wins
	mixed := base
	mixed.CreatedAt = now.AddDate(0, 0, -120).Format(time.RFC3339)
	mixed.LastDocumentAt = now.AddDate(0, 0, -5).Format(time.RFC3339)
	if got := Categorize(mixed).Score; got != freshScore {
		t.Errorf("Score = %d, want %d (recent document resets recency)", got, freshScore)
	}

	// unparseable timestamps carry no activity signal
	garbage := base
	garbage.UpdatedAt = "not-a-date"
	if got := Categorize(garbage).Score; got != Categorize(base).Score {
		t.Errorf("unparseable timestamp changed the score: %d", got)
	}
}

func TestCategorize_deterministic(t *testing.T) {
	NowFunc = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { NowFunc = time.Now }()

	in := CategorizeInput{
		ProgramLevel:       "MSc",
		ProgramName:        "MSc Data Science",
		UniversityCountry:  "United Kingdom",
		StudentNationality: "India",
		Status:             StatusSubmitted,
		DocumentsCount:     2,
		AgentID:            "agent-1",
		UpdatedAt:          "2024-05-20T10:00:00Z",
	}

	first := Categorize(in)
	for i := 0; i < 5; i++ {
		if got := Categorize(in); got != first {
			t.Fatalf("Categorize() not deterministic: %+v != %+v", got, first)
		}
	}
}
