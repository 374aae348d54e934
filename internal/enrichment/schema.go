package enrichment

import (
	"encoding/json"
	"fmt"

	"github.com/jobmate/alertpipeline/internal/jsonutil"
	"github.com/jobmate/alertpipeline/internal/model"
)

// modelResponse mirrors the strict JSON schema of spec §6.3.
type modelResponse struct {
	AIJobTitles            []string `json:"ai_job_titles"`
	AIRequiredSkills       []string `json:"ai_required_skills"`
	AIPreferredSkills      []string `json:"ai_preferred_skills"`
	AIIndustry              []string `json:"ai_industry"`
	AIJobFunction           string   `json:"ai_job_function"`
	AIJobLevel              []string `json:"ai_job_level"`
	AICity                  string   `json:"ai_city"`
	AIState                 string   `json:"ai_state"`
	AICountry               string   `json:"ai_country"`
	AIWorkArrangement       string   `json:"ai_work_arrangement"`
	AIRemoteAllowed         bool     `json:"ai_remote_allowed"`
	AISalaryMin             *int     `json:"ai_salary_min"`
	AISalaryMax             *int     `json:"ai_salary_max"`
	AISalaryCurrency        *string  `json:"ai_salary_currency"`
	AIYearsExperienceMin    *int     `json:"ai_years_experience_min"`
	AIYearsExperienceMax    *int     `json:"ai_years_experience_max"`
	AISummary               string   `json:"ai_summary"`
}

// ErrSchemaViolation marks a model response that failed JSON extraction or
// schema validation. Not retried within the same batch (spec §4.2 step 3).
type ErrSchemaViolation struct {
	Reason string
}

func (e *ErrSchemaViolation) Error() string {
	return fmt.Sprintf("enrichment schema violation: %s", e.Reason)
}

func parseModelResponse(raw string) (*modelResponse, error) {
	cleaned := jsonutil.ExtractJSON(raw)
	if cleaned == "" {
		return nil, &ErrSchemaViolation{Reason: "no JSON object found in model response"}
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, &ErrSchemaViolation{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if len(resp.AIJobTitles) == 0 {
		return nil, &ErrSchemaViolation{Reason: "ai_job_titles is required"}
	}
	switch model.WorkArrangement(resp.AIWorkArrangement) {
	case model.ArrangementRemote, model.ArrangementHybrid, model.ArrangementOnSite:
	default:
		return nil, &ErrSchemaViolation{Reason: fmt.Sprintf("invalid ai_work_arrangement %q", resp.AIWorkArrangement)}
	}
	if len(resp.AISummary) > 280 {
		resp.AISummary = resp.AISummary[:280]
	}

	return &resp, nil
}

func levelsFromStrings(raw []string) []model.ExperienceLevel {
	out := make([]model.ExperienceLevel, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.ExperienceLevel(r))
	}
	return out
}
