package matching

import (
	"testing"

	"github.com/jobmate/alertpipeline/internal/model"
)

func intPtr(n int) *int { return &n }

func TestMatchRule_LocationHardFilterBlocksEvenGoodFit(t *testing.T) {
	prefs := model.Preferences{
		DesiredRoles:     []string{"software engineer"},
		DesiredLocations: []string{"abuja"},
		WorkArrangements: []model.WorkArrangement{model.ArrangementOnSite},
		RequiredSkills:   []string{"go"},
	}
	job := model.CanonicalPosting{
		Title:           "Software Engineer",
		AlternateTitles: []string{"Backend Engineer"},
		WorkArrangement: model.ArrangementOnSite,
		RequiredSkills:  []string{"go"},
		DisplayLocation: "Lagos, Nigeria",
	}
	_, ok := MatchRule(prefs, job, RuleThreshold)
	if ok {
		t.Fatal("MatchRule should reject a candidate that fails the location hard filter regardless of fit elsewhere")
	}
}

func TestMatchRule_StrongFitClearsThreshold(t *testing.T) {
	prefs := model.Preferences{
		DesiredRoles:     []string{"software engineer"},
		DesiredLocations: []string{"lagos"},
		WorkArrangements: []model.WorkArrangement{model.ArrangementRemote},
		ExperienceLevel:  model.LevelMid,
		ExperienceYears:  intPtr(3),
		DesiredSalary:    model.SalaryRange{Min: intPtr(100000), Max: intPtr(200000), Currency: "USD"},
		RequiredSkills:   []string{"go", "postgresql"},
		JobCategories:    []string{"engineering"},
	}
	job := model.CanonicalPosting{
		Title:           "Software Engineer",
		AlternateTitles: []string{"Backend Engineer"},
		DisplayLocation: "Lagos, Nigeria",
		WorkArrangement: model.ArrangementRemote,
		RemoteAllowed:   true,
		Levels:          []model.ExperienceLevel{model.LevelMid},
		YearsMin:        2,
		YearsMax:        4,
		InferredSalary:  model.SalaryRange{Min: intPtr(120000), Max: intPtr(180000), Currency: "USD"},
		RequiredSkills:  []string{"go", "postgresql"},
		Function:        "engineering",
	}
	result, ok := MatchRule(prefs, job, RuleThreshold)
	if !ok {
		t.Fatal("MatchRule should accept a strongly-aligned candidate")
	}
	if result.Score < RuleThreshold {
		t.Errorf("result.Score = %d, want >= %d", result.Score, RuleThreshold)
	}
	if len(result.Reasons) == 0 {
		t.Error("expected at least one reason recorded for an accepted match")
	}
}

func TestMatchRule_NoOverlapFallsBelowThreshold(t *testing.T) {
	prefs := model.Preferences{
		DesiredRoles:     []string{"accountant"},
		WorkArrangements: []model.WorkArrangement{model.ArrangementOnSite},
		RequiredSkills:   []string{"excel", "bookkeeping"},
	}
	job := model.CanonicalPosting{
		Title:           "Backend Engineer",
		WorkArrangement: model.ArrangementRemote,
		RequiredSkills:  []string{"go", "kubernetes"},
	}
	_, ok := MatchRule(prefs, job, RuleThreshold)
	if ok {
		t.Fatal("MatchRule should reject a candidate with no meaningful overlap")
	}
}

func TestSalaryScoreFor_MissingJobSalaryIsPassThroughBaseline(t *testing.T) {
	want := model.SalaryRange{Min: intPtr(100000), Max: intPtr(200000), Currency: "USD"}
	have := model.SalaryRange{}
	if got := salaryScoreFor(want, have); got != 10 {
		t.Errorf("salaryScoreFor with no job salary disclosed = %v, want 10", got)
	}
}

func TestSalaryScoreFor_UnknownCurrencyIsPassThroughBaseline(t *testing.T) {
	want := model.SalaryRange{Min: intPtr(100000), Max: intPtr(200000), Currency: "USD"}
	have := model.SalaryRange{Min: intPtr(100000), Max: intPtr(200000), Currency: "ZZZ"}
	if got := salaryScoreFor(want, have); got != 10 {
		t.Errorf("salaryScoreFor with an unconvertible currency = %v, want 10", got)
	}
}

// TestYearsCompatibilityScore_ZeroYearsBoundary pins the years=0 credit
// against job bands requiring up to 3 years, the one row the boundary
// behavior names explicitly — any future change to the decay curve that
// drifts from these values should fail here first.
func TestYearsCompatibilityScore_ZeroYearsBoundary(t *testing.T) {
	tests := []struct {
		name           string
		jobMin, jobMax int
		want           float64
	}{
		{"zero years against a zero-years-minimum job is a full in-range match", 0, 2, weightExperience},
		{"zero years against a one-year-minimum job", 1, 3, 8},
		{"zero years against a two-year-minimum job", 2, 5, 6},
		{"zero years against a three-year-minimum job", 3, 6, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearsCompatibilityScore(intPtr(0), tt.jobMin, tt.jobMax); got != tt.want {
				t.Errorf("yearsCompatibilityScore(0, %d, %d) = %v, want %v", tt.jobMin, tt.jobMax, got, tt.want)
			}
		})
	}
}
