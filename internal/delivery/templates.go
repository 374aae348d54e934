package delivery

import (
	"fmt"
	"strings"

	"github.com/jobmate/alertpipeline/internal/model"
)

// RenderJobAlert renders the job-alert template from spec §6.2: header with
// match percent, title/company, then optional salary, location, experience,
// top skills, summary, and apply URL lines.
func RenderJobAlert(score int, p model.CanonicalPosting) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🎯 %d%% match\n", score)
	fmt.Fprintf(&b, "**%s** at **%s**\n", p.Title, p.Company)

	if salary := formatSalaryLine(p.InferredSalary); salary != "" {
		b.WriteString(salary + "\n")
	}
	if loc := formatLocationLine(p); loc != "" {
		b.WriteString(loc + "\n")
	}
	if p.YearsMax > 0 || p.YearsMin > 0 {
		fmt.Fprintf(&b, "⏱️ %d-%d years\n", p.YearsMin, p.YearsMax)
	}
	if len(p.RequiredSkills) > 0 {
		top := p.RequiredSkills
		if len(top) > 5 {
			top = top[:5]
		}
		fmt.Fprintf(&b, "🎯 %s\n", strings.Join(top, ", "))
	}
	if p.Summary != "" {
		b.WriteString(p.Summary + "\n")
	}
	if p.PostingURL != "" {
		b.WriteString(p.PostingURL)
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatSalaryLine(s model.SalaryRange) string {
	if s.Min == nil && s.Max == nil {
		return ""
	}
	switch {
	case s.Min != nil && s.Max != nil:
		return fmt.Sprintf("💰 %d-%d %s/month", *s.Min, *s.Max, s.Currency)
	case s.Min != nil:
		return fmt.Sprintf("💰 %d+ %s/month", *s.Min, s.Currency)
	default:
		return fmt.Sprintf("💰 up to %d %s/month", *s.Max, s.Currency)
	}
}

func formatLocationLine(p model.CanonicalPosting) string {
	if p.DisplayLocation != "" {
		return "📍 " + p.DisplayLocation
	}
	parts := make([]string, 0, 3)
	for _, v := range []string{p.Location.City, p.Location.State, p.Location.Country} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "📍 " + strings.Join(parts, ", ")
}

// RenderPreferenceConfirmation echoes the structured preference summary and
// prompts for yes/no confirmation.
func RenderPreferenceConfirmation(p model.Preferences) string {
	var b strings.Builder
	b.WriteString("Here's what I've got:\n")
	if len(p.DesiredRoles) > 0 {
		fmt.Fprintf(&b, "Roles: %s\n", strings.Join(p.DesiredRoles, ", "))
	}
	if len(p.DesiredLocations) > 0 {
		fmt.Fprintf(&b, "Locations: %s\n", strings.Join(p.DesiredLocations, ", "))
	}
	if p.ExperienceLevel != "" {
		fmt.Fprintf(&b, "Level: %s\n", p.ExperienceLevel)
	}
	b.WriteString("\nDoes that look right? Reply yes to confirm or tell me what to change.")
	return b.String()
}
