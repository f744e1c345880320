package sanitize

import "testing"

func TestFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"spaces become underscores", "CPS Assessments May 2025.pdf", "cps_assessments_may_2025.pdf"},
		{"runs collapse", "a   b!!c.pdf", "a_b_c.pdf"},
		{"dots and hyphens survive", "safe-sleep.v2.pdf", "safe-sleep.v2.pdf"},
		{"unicode stripped", "résumé.pdf", "r_sum_.pdf"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filename(tt.input)
			if got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := Filename(got); again != got {
				t.Errorf("Filename is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestFolderName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "other-resources", "other-resources"},
		{"spaces become hyphens", "Child Welfare Manuals", "child-welfare-manuals"},
		{"punctuation dropped", "Safe Sleep! (2025)", "safe-sleep-2025"},
		{"runs collapse", "a --  b", "a-b"},
		{"edges trimmed", " -edge- ", "edge"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FolderName(tt.input)
			if got != tt.want {
				t.Errorf("FolderName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := FolderName(got); again != got {
				t.Errorf("FolderName is not idempotent: %q -> %q", got, again)
			}
		})
	}
}
