package utils

import "testing"

func TestPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "plain text is whitespace normalized",
			input:  "  Build   APIs\n in Go ",
			expect: "Build APIs in Go",
		},
		{
			name:   "markup is removed",
			input:  "<p>Build <strong>APIs</strong></p><ul><li>Go</li></ul>",
			expect: "Build APIs Go",
		},
		{
			name:   "entities are decoded",
			input:  "R&amp;D engineer",
			expect: "R&D engineer",
		},
		{
			name:   "empty input",
			input:  "",
			expect: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := PlainText(tt.input); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}
