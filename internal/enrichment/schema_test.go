package enrichment

import (
	"strings"
	"testing"

	"github.com/jobmate/alertpipeline/internal/model"
)

const validResponse = `{
  "ai_job_titles": ["Software Engineer"],
  "ai_required_skills": ["go"],
  "ai_preferred_skills": [],
  "ai_industry": ["technology"],
  "ai_job_function": "engineering",
  "ai_job_level": ["mid"],
  "ai_city": "Lagos",
  "ai_state": "Lagos",
  "ai_country": "Nigeria",
  "ai_work_arrangement": "remote",
  "ai_remote_allowed": true,
  "ai_salary_min": 100000,
  "ai_salary_max": 200000,
  "ai_salary_currency": "NGN",
  "ai_years_experience_min": 2,
  "ai_years_experience_max": 5,
  "ai_summary": "A backend role."
}`

func TestParseModelResponse_Valid(t *testing.T) {
	resp, err := parseModelResponse(validResponse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.AIJobTitles) != 1 || resp.AIJobTitles[0] != "Software Engineer" {
		t.Errorf("AIJobTitles = %v", resp.AIJobTitles)
	}
	if model.WorkArrangement(resp.AIWorkArrangement) != model.ArrangementRemote {
		t.Errorf("AIWorkArrangement = %q", resp.AIWorkArrangement)
	}
}

func TestParseModelResponse_NoJSONFound(t *testing.T) {
	_, err := parseModelResponse("I couldn't process this job posting.")
	if err == nil {
		t.Fatal("expected an error for a response with no JSON object")
	}
	if _, ok := err.(*ErrSchemaViolation); !ok {
		t.Errorf("error type = %T, want *ErrSchemaViolation", err)
	}
}

func TestParseModelResponse_MissingRequiredField(t *testing.T) {
	raw := strings.Replace(validResponse, `"ai_job_titles": ["Software Engineer"],`, `"ai_job_titles": [],`, 1)
	_, err := parseModelResponse(raw)
	if err == nil {
		t.Fatal("expected an error when ai_job_titles is empty")
	}
}

func TestParseModelResponse_InvalidWorkArrangement(t *testing.T) {
	raw := strings.Replace(validResponse, `"ai_work_arrangement": "remote",`, `"ai_work_arrangement": "on-the-moon",`, 1)
	_, err := parseModelResponse(raw)
	if err == nil {
		t.Fatal("expected an error for an unrecognized work arrangement")
	}
}

func TestParseModelResponse_SummaryTruncatedAt280(t *testing.T) {
	longSummary := strings.Repeat("a", 400)
	raw := strings.Replace(validResponse, `"ai_summary": "A backend role."`, `"ai_summary": "`+longSummary+`"`, 1)
	resp, err := parseModelResponse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.AISummary) != 280 {
		t.Errorf("AISummary length = %d, want 280", len(resp.AISummary))
	}
}

func TestParseModelResponse_HandlesFencedJSON(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	resp, err := parseModelResponse(fenced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.AIJobTitles) != 1 {
		t.Errorf("AIJobTitles = %v", resp.AIJobTitles)
	}
}

func TestLevelsFromStrings(t *testing.T) {
	got := levelsFromStrings([]string{"mid", "senior"})
	want := []model.ExperienceLevel{model.LevelMid, model.LevelSenior}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
