package enrichment

import (
	"testing"

	"github.com/jobmate/alertpipeline/internal/model"
)

func TestParseEmploymentType(t *testing.T) {
	tests := []struct {
		name string
		h    hints
		want model.EmploymentType
	}{
		{"job_type full time variant", hints{JobType: "Full Time"}, model.EmploymentFullTime},
		{"job_type permanent maps to full-time", hints{JobType: "Permanent"}, model.EmploymentFullTime},
		{"employment_type contractor maps to contract", hints{EmploymentType: "Contractor"}, model.EmploymentContract},
		{"job_type preferred over employment_type", hints{JobType: "Internship", EmploymentType: "Full-Time"}, model.EmploymentInternship},
		{"unrecognized value yields empty", hints{JobType: "gig"}, ""},
		{"no field set yields empty", hints{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseEmploymentType(tt.h); got != tt.want {
				t.Errorf("parseEmploymentType(%+v) = %q, want %q", tt.h, got, tt.want)
			}
		})
	}
}
