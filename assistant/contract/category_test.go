package contract

import "testing"

func TestNormalizeMemoryCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", CategoryGeneral},
		{"   ", CategoryGeneral},
		{"preferences", "preferences"},
		{" Work_School ", "work_school"},
		{"IMPORTANT_DATES", "important_dates"},
		{"hobbies", CategoryGeneral},
		{"food", CategoryGeneral}, // expense label, not a memory one
	}
	for _, tt := range tests {
		if got := NormalizeMemoryCategory(tt.in); got != tt.want {
			t.Fatalf("NormalizeMemoryCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeExpenseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", CategoryGeneral},
		{"Food", "food"},
		{" TRANSPORTATION ", "transportation"},
		{"snacks", CategoryGeneral},
		{"preferences", CategoryGeneral}, // memory label, not an expense one
	}
	for _, tt := range tests {
		if got := NormalizeExpenseCategory(tt.in); got != tt.want {
			t.Fatalf("NormalizeExpenseCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
