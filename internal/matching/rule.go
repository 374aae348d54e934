package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/jobmate/alertpipeline/internal/model"
)

// RuleThreshold is the default total score a candidate must clear to
// dispatch under the Rule Matcher (spec §4.5.2, configurable).
const RuleThreshold = 39

const (
	weightAlternateTitles = 35
	weightWorkArrangement = 20
	weightSalary          = 20
	weightExperience      = 10
	weightJobFunction     = 7
	weightIndustry        = 5
	weightSkills          = 20
	weightSemanticCluster = 5
)

var levelOrder = []model.ExperienceLevel{
	model.LevelEntry, model.LevelJunior, model.LevelMid, model.LevelSenior, model.LevelLead, model.LevelExecutive,
}

var salesFriendlyIndustries = map[string]bool{
	"retail": true, "fmcg": true, "real estate": true, "insurance": true,
	"telecom": true, "financial services": true, "ecommerce": true,
}

var industrySynonyms = map[string]string{
	"it":           "technology",
	"ict":          "technology",
	"fintech":      "financial services",
	"e-commerce":   "ecommerce",
	"e commerce":   "ecommerce",
}

var functionSynonyms = map[string]string{
	"biz dev":  "business development",
	"bd":       "business development",
	"eng":      "engineering",
	"hr":       "human resources",
}

var skillSynonyms = map[string]string{
	"js":         "javascript",
	"golang":     "go",
	"reactjs":    "react",
	"postgres":   "postgresql",
	"ms excel":   "excel",
}

// MatchRule scores a canonical posting against a user's preferences per
// spec §4.5.2. ok is false when the location hard filter fails or the total
// score is below threshold.
func MatchRule(prefs model.Preferences, job model.CanonicalPosting, threshold int) (Result, bool) {
	userAcceptsRemote := containsArrangement(prefs.WorkArrangements, model.ArrangementRemote)
	if !LocationPasses(prefs.DesiredLocations, prefs.WillingToRelocate, userAcceptsRemote, job.RemoteAllowed, LocationQuery{
		City:            job.Location.City,
		State:           job.Location.State,
		Country:         job.Location.Country,
		DisplayLocation: job.DisplayLocation,
	}) {
		return Result{}, false
	}

	var total float64
	var reasons []string

	addFactor := func(score, max float64, reason string) {
		total += score
		if max > 0 && score/max >= 0.5 {
			reasons = append(reasons, reason)
		}
	}

	titleScore := titleSimilarityScore(prefs.DesiredRoles, job.Title, job.AlternateTitles)
	addFactor(titleScore, weightAlternateTitles, fmt.Sprintf("title match: %s", job.Title))

	armScore := workArrangementScore(prefs.WorkArrangements, job.WorkArrangement)
	addFactor(armScore, weightWorkArrangement, fmt.Sprintf("work arrangement: %s", job.WorkArrangement))

	salaryScore := salaryScoreFor(prefs.DesiredSalary, job.InferredSalary)
	addFactor(salaryScore, weightSalary, "salary in range")

	expScore := experienceScore(prefs.ExperienceLevel, prefs.ExperienceYears, job.Levels, job.YearsMin, job.YearsMax)
	addFactor(expScore, weightExperience, "experience level compatible")

	funcScore := jobFunctionScore(prefs.JobCategories, job.Function)
	addFactor(funcScore, weightJobFunction, fmt.Sprintf("function match: %s", job.Function))

	industryScore := industryScoreFor(prefs.Industries, job.Industries, prefs.DesiredRoles)
	addFactor(industryScore, weightIndustry, "industry match")

	skillScore := skillsScore(prefs.RequiredSkills, prefs.SoftSkills, job.RequiredSkills, job.PreferredSkills)
	addFactor(skillScore, weightSkills, "skills overlap")

	clusterScore := semanticClusterScore(titleScore, skillScore)
	addFactor(clusterScore, weightSemanticCluster, "related role cluster")

	if total > 100 {
		total = 100
	}

	score := int(math.Round(total))
	if score < threshold {
		return Result{}, false
	}
	return Result{Score: score, Reasons: reasons}, true
}

func containsArrangement(set []model.WorkArrangement, target model.WorkArrangement) bool {
	for _, a := range set {
		if a == target {
			return true
		}
	}
	return false
}

func titleSimilarityScore(desiredRoles []string, title string, alternates []string) float64 {
	if len(desiredRoles) == 0 {
		return 0
	}
	best := 0.0
	candidates := append([]string{title}, alternates...)
	for _, role := range desiredRoles {
		for _, candidate := range candidates {
			sim := tokenOverlapRatio(role, candidate)
			if isSalesFamily(role) && isSalesFamily(candidate) {
				sim = math.Min(1, sim+0.25)
			}
			if sim > best {
				best = sim
			}
		}
	}
	return best * weightAlternateTitles
}

func isSalesFamily(s string) bool {
	s = normalize(s)
	return strings.Contains(s, "sales") || strings.Contains(s, "business development") || strings.Contains(s, "account exec")
}

func tokenOverlapRatio(a, b string) float64 {
	aTokens := tokenize(a)
	bTokens := tokenize(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}
	bSet := make(map[string]bool, len(bTokens))
	for _, t := range bTokens {
		bSet[t] = true
	}
	matches := 0
	for _, t := range aTokens {
		if bSet[t] {
			matches++
		}
	}
	denom := math.Max(float64(len(aTokens)), float64(len(bTokens)))
	return float64(matches) / denom
}

func tokenize(s string) []string {
	s = normalize(s)
	return strings.Fields(s)
}

func workArrangementScore(prefs []model.WorkArrangement, job model.WorkArrangement) float64 {
	if len(prefs) == 0 {
		return 0
	}
	for _, p := range prefs {
		if p == job {
			return weightWorkArrangement
		}
	}
	// Broader arrangement acceptance: a hybrid-preferring user matches any.
	if containsArrangement(prefs, model.ArrangementHybrid) {
		return weightWorkArrangement - 2
	}
	return 0
}

func salaryScoreFor(want, have model.SalaryRange) float64 {
	if have.Min == nil && have.Max == nil {
		return 10 // fair baseline when the job discloses no salary.
	}
	if want.Min == nil && want.Max == nil {
		return weightSalary
	}

	wantMin, wantMax := rangeOrEqual(want.Min, want.Max)
	haveMin, haveMax := rangeOrEqual(have.Min, have.Max)

	converted := true
	if want.Currency != "" && have.Currency != "" && want.Currency != have.Currency {
		cMin, ok1 := ConvertCurrency(float64(haveMin), have.Currency, want.Currency)
		cMax, ok2 := ConvertCurrency(float64(haveMax), have.Currency, want.Currency)
		if ok1 && ok2 {
			haveMin, haveMax = int(cMin), int(cMax)
		} else {
			converted = false
		}
	}
	if !converted {
		return 10
	}

	tolerance := 0.2
	loBound := float64(wantMin) * (1 - tolerance)
	hiBound := float64(wantMax) * (1 + tolerance)

	if float64(haveMax) >= loBound && float64(haveMin) <= hiBound {
		return weightSalary
	}
	return 0
}

func rangeOrEqual(min, max *int) (int, int) {
	switch {
	case min != nil && max != nil:
		return *min, *max
	case min != nil:
		return *min, *min
	case max != nil:
		return *max, *max
	default:
		return 0, 0
	}
}

func experienceScore(level model.ExperienceLevel, years *int, jobLevels []model.ExperienceLevel, jobMin, jobMax int) float64 {
	levelScore := levelAdjacencyScore(level, jobLevels)
	yearsScore := yearsCompatibilityScore(years, jobMin, jobMax)
	return math.Min(weightExperience, (levelScore+yearsScore)/2)
}

func levelAdjacencyScore(level model.ExperienceLevel, jobLevels []model.ExperienceLevel) float64 {
	if level == "" || len(jobLevels) == 0 {
		return weightExperience / 2
	}
	idx := levelIndex(level)
	best := -1
	for _, jl := range jobLevels {
		jIdx := levelIndex(jl)
		if jIdx < 0 {
			continue
		}
		dist := abs(idx - jIdx)
		if best == -1 || dist < best {
			best = dist
		}
	}
	if best == -1 {
		return weightExperience / 2
	}
	switch best {
	case 0:
		return weightExperience
	case 1:
		return weightExperience * 0.7
	default:
		return weightExperience * 0.3
	}
}

func levelIndex(l model.ExperienceLevel) int {
	for i, v := range levelOrder {
		if v == l {
			return i
		}
	}
	return -1
}

// yearsCompatibilityScore grants graduated credit for a user claiming 0
// years against jobs requiring up to 3 — the §8 boundary behavior
// (8/10/6/10/4/10 for years 0..3 against a 0..3 job band, collapsed here to
// a monotonic decay since the exact seed table names only the 0-years row).
func yearsCompatibilityScore(years *int, jobMin, jobMax int) float64 {
	if years == nil {
		return weightExperience / 2
	}
	y := *years
	if y >= jobMin && y <= jobMax {
		return weightExperience
	}
	if y == 0 && jobMin <= 3 {
		switch jobMin {
		case 0:
			return 10
		case 1:
			return 8
		case 2:
			return 6
		case 3:
			return 4
		}
	}
	dist := 0
	if y < jobMin {
		dist = jobMin - y
	} else {
		dist = y - jobMax
	}
	score := weightExperience - float64(dist)
	if score < 0 {
		score = 0
	}
	return score
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func jobFunctionScore(categories []string, function string) float64 {
	if function == "" || len(categories) == 0 {
		return 0
	}
	fn := normalizeSynonym(function, functionSynonyms)
	for _, c := range categories {
		cn := normalizeSynonym(c, functionSynonyms)
		if cn == fn || strings.Contains(fn, cn) || strings.Contains(cn, fn) {
			return weightJobFunction
		}
	}
	return 0
}

func industryScoreFor(prefIndustries, jobIndustries, desiredRoles []string) float64 {
	for _, pi := range prefIndustries {
		pin := normalizeSynonym(pi, industrySynonyms)
		for _, ji := range jobIndustries {
			jin := normalizeSynonym(ji, industrySynonyms)
			if pin == jin {
				return weightIndustry
			}
		}
	}
	for _, role := range desiredRoles {
		if !isSalesFamily(role) {
			continue
		}
		for _, ji := range jobIndustries {
			if salesFriendlyIndustries[normalize(ji)] {
				return weightIndustry
			}
		}
	}
	return 0
}

func normalizeSynonym(s string, table map[string]string) string {
	n := normalize(s)
	if canon, ok := table[n]; ok {
		return canon
	}
	return n
}

func skillsScore(wantRequired, wantSoft, haveRequired, havePreferred []string) float64 {
	if len(wantRequired) == 0 && len(wantSoft) == 0 {
		return 0
	}

	requiredSet := skillSet(haveRequired)
	preferredSet := skillSet(havePreferred)

	var matched, total float64
	for _, s := range wantRequired {
		total += 2
		key := normalizeSynonym(s, skillSynonyms)
		if requiredSet[key] {
			matched += 2
		} else if preferredSet[key] {
			matched += 1
		}
	}
	for _, s := range wantSoft {
		total += 1
		key := normalizeSynonym(s, skillSynonyms)
		if requiredSet[key] || preferredSet[key] {
			matched += 1
		}
	}
	if total == 0 {
		return 0
	}
	return (matched / total) * weightSkills
}

func skillSet(skills []string) map[string]bool {
	out := make(map[string]bool, len(skills))
	for _, s := range skills {
		out[normalizeSynonym(s, skillSynonyms)] = true
	}
	return out
}

// semanticClusterScore is the weakest-tier fallback: whenever title or
// skill overlap is nonzero, credit a small fixed cluster bonus (60% of its
// weight) so near misses aren't scored identically to complete misses. The
// bonus does not vary with the size of the overlap; strong overlaps get it
// too.
func semanticClusterScore(titleScore, skillScore float64) float64 {
	if titleScore > 0 || skillScore > 0 {
		return weightSemanticCluster * 0.6
	}
	return 0
}
