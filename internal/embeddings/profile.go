package embeddings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jobmate/alertpipeline/internal/model"
)

const jobDescriptionSnippetLimit = 300

// UserProfileText renders the deterministic sentence sequence that the
// Preference Projector embeds for a user. Equal preferences always render
// identical text (spec §4.3, §8 law).
func UserProfileText(p model.Preferences) string {
	var sentences []string

	addJoined := func(label string, values []string) {
		if len(values) == 0 {
			return
		}
		sentences = append(sentences, fmt.Sprintf("%s: %s", label, strings.Join(values, ", ")))
	}

	addJoined("Desired roles", p.DesiredRoles)
	addJoined("Job categories", p.JobCategories)
	addJoined("Desired locations", p.DesiredLocations)

	if len(p.WorkArrangements) > 0 {
		vals := make([]string, len(p.WorkArrangements))
		for i, w := range p.WorkArrangements {
			vals[i] = string(w)
		}
		addJoined("Work arrangements", vals)
	}

	if len(p.EmploymentTypes) > 0 {
		vals := make([]string, len(p.EmploymentTypes))
		for i, e := range p.EmploymentTypes {
			vals[i] = string(e)
		}
		addJoined("Employment types", vals)
	}

	if p.ExperienceLevel != "" {
		sentence := fmt.Sprintf("Experience level: %s", p.ExperienceLevel)
		if p.ExperienceYears != nil {
			sentence += fmt.Sprintf(" (%d years)", *p.ExperienceYears)
		}
		sentences = append(sentences, sentence)
	}

	if salary := salaryText(p.DesiredSalary); salary != "" {
		sentences = append(sentences, "Desired salary: "+salary)
	}

	addJoined("Required skills", p.RequiredSkills)
	addJoined("Soft skills", p.SoftSkills)
	addJoined("Industries", p.Industries)
	addJoined("Company sizes", p.CompanySizes)

	sentences = append(sentences, fmt.Sprintf("Willing to relocate: %s", strconv.FormatBool(p.WillingToRelocate)))

	return strings.Join(sentences, ". ")
}

// JobProfileText renders the deterministic sentence sequence embedded for a
// canonical posting.
func JobProfileText(p model.CanonicalPosting) string {
	var sentences []string

	sentences = append(sentences, fmt.Sprintf("%s at %s", p.Title, p.Company))

	if len(p.AlternateTitles) > 0 {
		sentences = append(sentences, "Also known as: "+strings.Join(p.AlternateTitles, ", "))
	}
	if p.Function != "" {
		sentences = append(sentences, "Function: "+p.Function)
	}
	if len(p.Levels) > 0 {
		vals := make([]string, len(p.Levels))
		for i, l := range p.Levels {
			vals[i] = string(l)
		}
		sentences = append(sentences, "Level: "+strings.Join(vals, ", "))
	}
	if len(p.Industries) > 0 {
		sentences = append(sentences, "Industry: "+strings.Join(p.Industries, ", "))
	}

	if loc := locationText(p.Location); loc != "" {
		sentences = append(sentences, "Location: "+loc)
	}
	if p.WorkArrangement != "" {
		sentences = append(sentences, fmt.Sprintf("Work arrangement: %s (remote allowed: %s)", p.WorkArrangement, strconv.FormatBool(p.RemoteAllowed)))
	}

	if len(p.RequiredSkills) > 0 {
		sentences = append(sentences, "Required skills: "+strings.Join(p.RequiredSkills, ", "))
	}
	if len(p.PreferredSkills) > 0 {
		sentences = append(sentences, "Preferred skills: "+strings.Join(p.PreferredSkills, ", "))
	}

	if p.YearsMax > 0 || p.YearsMin > 0 {
		sentences = append(sentences, fmt.Sprintf("Experience: %d-%d years", p.YearsMin, p.YearsMax))
	}

	if salary := salaryText(p.InferredSalary); salary != "" {
		sentences = append(sentences, "Salary: "+salary)
	}

	if p.Summary != "" {
		sentences = append(sentences, p.Summary)
	} else if p.Description != "" {
		sentences = append(sentences, snippet(p.Description, jobDescriptionSnippetLimit))
	}

	return strings.Join(sentences, ". ")
}

func salaryText(r model.SalaryRange) string {
	if r.Min == nil && r.Max == nil {
		return ""
	}
	switch {
	case r.Min != nil && r.Max != nil:
		return fmt.Sprintf("%d-%d %s", *r.Min, *r.Max, r.Currency)
	case r.Min != nil:
		return fmt.Sprintf("%d %s", *r.Min, r.Currency)
	default:
		return fmt.Sprintf("%d %s", *r.Max, r.Currency)
	}
}

func locationText(l model.LocationTriple) string {
	parts := make([]string, 0, 3)
	for _, v := range []string{l.City, l.State, l.Country} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func snippet(s string, limit int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit])
}
