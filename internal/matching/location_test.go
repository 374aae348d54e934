package matching

import "testing"

func TestLocationPasses(t *testing.T) {
	lagosJob := LocationQuery{City: "Lagos", State: "Lagos", Country: "Nigeria", DisplayLocation: "Lagos, Nigeria"}

	tests := []struct {
		name              string
		prefLocations     []string
		willingToRelocate bool
		userAcceptsRemote bool
		jobRemoteAllowed  bool
		job               LocationQuery
		want              bool
	}{
		{"no preference passes everything", nil, false, false, false, lagosJob, true},
		{"remote user against remote job always passes", []string{"Abuja"}, false, true, true, lagosJob, true},
		{"willing to relocate against any located job passes", []string{"Abuja"}, true, false, false, lagosJob, true},
		{"direct substring match", []string{"lagos"}, false, false, false, lagosJob, true},
		{"abbreviation match", []string{"los"}, false, false, false, lagosJob, true},
		{"region cluster match", []string{"ikeja"}, false, false, false, lagosJob, true},
		{"country synonym match", []string{"naija"}, false, false, false, lagosJob, true},
		{"no match anywhere fails", []string{"abuja"}, false, false, false, lagosJob, false},
		{"remote user but job not remote falls through to location match", []string{"abuja"}, false, true, false, lagosJob, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocationPasses(tt.prefLocations, tt.willingToRelocate, tt.userAcceptsRemote, tt.jobRemoteAllowed, tt.job)
			if got != tt.want {
				t.Errorf("LocationPasses(%v) = %v, want %v", tt.prefLocations, got, tt.want)
			}
		})
	}
}
