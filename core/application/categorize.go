package application

import (
	"strings"
	"time"
	"unicode"
)

// Academic levels
const (
	LevelUG  = "UG"
	LevelPG  = "PG"
	LevelPhD = "PhD"
)

// Enrollment routes
const (
	RouteDirect     = "Direct"
	RouteFoundation = "Foundation"
	RouteTopUp      = "Top-up"
)

// Geography buckets
const (
	GeoUK            = "UK"
	GeoEU            = "EU"
	GeoUS            = "US"
	GeoCanada        = "Canada"
	GeoAustralia     = "Australia"
	GeoInternational = "International"
)

// Risk bands
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// NowFunc is the clock used for activity recency; mockable in tests.
var NowFunc = time.Now

// CategorizeInput is a snapshot of an application and its joins. Every field
// is optional; absent fields fall back to documented defaults.
type CategorizeInput struct {
	ProgramLevel      string
	ProgramName       string
	UniversityCountry string
	StudentNationality string
	StudentCountry    string
	Status            string
	AgentID           string
	DocumentsCount    int

	// ISO-8601 timestamps; unparseable values are treated as no activity signal.
	LastDocumentAt string
	UpdatedAt      string
	CreatedAt      string
}

// CategorizeResult is a derived, non-persisted view; recomputed on demand.
type CategorizeResult struct {
	Level     string    `json:"level"`
	Route     string    `json:"route"`
	Geography string    `json:"geography"`
	RiskBand  string    `json:"risk_band"`
	Score     int       `json:"score"`
	Tags      [4]string `json:"tags"`
}

var (
	// Postgraduate abbreviations recognized as whole tokens, in addition to
	// the "master"/"post"/"graduate" substrings.
	pgTokens = map[string]bool{
		"msc":   true,
		"ma":    true,
		"mba":   true,
		"llm":   true,
		"pgdip": true,
		"pgce":  true,
	}

	ukAliases = map[string]bool{
		"united kingdom":   true,
		"uk":               true,
		"england":          true,
		"scotland":         true,
		"wales":            true,
		"northern ireland": true,
	}

	usAliases = map[string]bool{
		"united states": true,
		"usa":           true,
		"us":            true,
	}

	// the 27 EU member states
	euCountries = map[string]bool{
		"austria": true, "belgium": true, "bulgaria": true, "croatia": true,
		"cyprus": true, "czech republic": true, "czechia": true, "denmark": true,
		"estonia": true, "finland": true, "france": true, "germany": true,
		"greece": true, "hungary": true, "ireland": true, "italy": true,
		"latvia": true, "lithuania": true, "luxembourg": true, "malta": true,
		"netherlands": true, "poland": true, "portugal": true, "romania": true,
		"slovakia": true, "slovenia": true, "spain": true, "sweden": true,
	}
)

// Categorize derives the four display tags for an application: academic level,
// enrollment route, geography bucket and risk band. It is a pure function and
// never panics regardless of which fields are absent.
func Categorize(in CategorizeInput) CategorizeResult {
	level := inferLevel(in.ProgramLevel)
	route := inferRoute(in.ProgramLevel, in.ProgramName)
	geo := inferGeography(in.UniversityCountry, in.StudentNationality, in.StudentCountry)
	score := riskScore(in)
	band := riskBand(score)

	return CategorizeResult{
		Level:     level,
		Route:     route,
		Geography: geo,
		RiskBand:  band,
		Score:     score,
		Tags:      [4]string{level, route, geo, band},
	}
}

func inferLevel(programLevel string) string {
	lvl := strings.ToLower(strings.TrimSpace(programLevel))
	if strings.Contains(lvl, "phd") || strings.Contains(lvl, "doctor") {
		return LevelPhD
	}
	// "undergraduate" must not trip the bare "graduate" check
	stripped := strings.ReplaceAll(lvl, "undergraduate", "")
	if strings.Contains(stripped, "master") || strings.Contains(stripped, "post") || strings.Contains(stripped, "graduate") {
		return LevelPG
	}
	for _, token := range tokenize(lvl) {
		if pgTokens[token] {
			return LevelPG
		}
	}
	return LevelUG
}

func inferRoute(programLevel, programName string) string {
	combined := strings.ToLower(programLevel + " " + programName)
	switch {
	case strings.Contains(combined, "foundation"),
		strings.Contains(combined, "pathway"),
		strings.Contains(combined, "preparatory"):
		return RouteFoundation
	case strings.Contains(combined, "top-up"),
		strings.Contains(combined, "top up"),
		strings.Contains(combined, "topup"):
		return RouteTopUp
	}
	return RouteDirect
}

// inferGeography resolves the first recognized country, in precedence order:
// university country, student nationality, student current country. An
// unrecognized set of inputs lands in the International bucket.
func inferGeography(universityCountry, studentNationality, studentCountry string) string {
	for _, country := range []string{universityCountry, studentNationality, studentCountry} {
		if geo, ok := classifyCountry(country); ok {
			return geo
		}
	}
	return GeoInternational
}

func classifyCountry(country string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(country))
	switch {
	case c == "":
		return "", false
	case ukAliases[c]:
		return GeoUK, true
	case usAliases[c]:
		return GeoUS, true
	case c == "canada":
		return GeoCanada, true
	case c == "australia":
		return GeoAustralia, true
	case euCountries[c]:
		return GeoEU, true
	}
	return "", false
}

func riskScore(in CategorizeInput) int {
	score := 30

	switch strings.ToLower(strings.TrimSpace(in.Status)) {
	case StatusWithdrawn, StatusRejected:
		score += 40
	case StatusDraft, StatusSubmitted, StatusScreening:
		score += 15
	case StatusConditionalOffer, StatusUnconditionalOffer:
		score -= 10
	case StatusCasLoa, StatusVisa, StatusEnrolled:
		score -= 20
	}

	if in.AgentID == "" {
		score += 5
	}
	if in.DocumentsCount <= 0 {
		score += 10
	}

	if last, ok := lastActivity(in); ok {
		days := int(NowFunc().UTC().Sub(last).Hours() / 24)
		switch {
		case days > 90:
			score += 30
		case days > 60:
			score += 20
		case days > 30:
			score += 10
		}
	}

	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	return score
}

// lastActivity returns the most recent of the parseable activity timestamps.
// When none parses there is no activity signal and the recency penalty is skipped.
func lastActivity(in CategorizeInput) (time.Time, bool) {
	var last time.Time
	var found bool
	for _, raw := range []string{in.LastDocumentAt, in.UpdatedAt, in.CreatedAt} {
		if t, ok := parseISO(raw); ok {
			if !found || t.After(last) {
				last = t
				found = true
			}
		}
	}
	return last, found
}

func parseISO(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func riskBand(score int) string {
	switch {
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	}
	return RiskLow
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
