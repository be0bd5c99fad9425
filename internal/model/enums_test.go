package model

import "testing"

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Verdict
		found    bool
	}{
		{"continue marker", "The song is faithful. [continue]", VerdictContinue, true},
		{"reroll marker", "Gibberish vocals. [re-roll]", VerdictReroll, true},
		{"uppercase marker", "Final verdict: [RE-ROLL]", VerdictReroll, true},
		{"mixed case continue", "[Continue] with this one", VerdictContinue, true},
		{"no marker defaults to continue", "Sounds okay to me.", VerdictContinue, false},
		{"empty response", "", VerdictContinue, false},
		{"reroll wins when both present", "[continue] ... actually [re-roll]", VerdictReroll, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ParseVerdict(tt.response)
			if got != tt.want || found != tt.found {
				t.Errorf("ParseVerdict(%q) = (%s, %v), want (%s, %v)",
					tt.response, got, found, tt.want, tt.found)
			}
		})
	}
}
