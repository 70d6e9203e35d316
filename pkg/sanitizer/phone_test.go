package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "valid E.164 format",
			input: "+5511999990000",
			want:  "+5511999990000",
		},
		{
			name:  "with spaces",
			input: "+55 11 99999 0000",
			want:  "+5511999990000",
		},
		{
			name:  "with dashes",
			input: "+55-11-99999-0000",
			want:  "+5511999990000",
		},
		{
			name:  "with parentheses",
			input: "+55 (11) 99999-0000",
			want:  "+5511999990000",
		},
		{
			name:  "leading and trailing spaces",
			input: "  +5511999990000  ",
			want:  "+5511999990000",
		},
		{
			name:  "national format defaults to BR",
			input: "(11) 99999-0000",
			want:  "+5511999990000",
		},
		{
			name:  "portuguese number",
			input: "+351 912 345 678",
			want:  "+351912345678",
		},
		{
			name:  "us number",
			input: "+1 (212) 555-1234",
			want:  "+12125551234",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeReply(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "CANCELAR", want: "cancelar"},
		{name: "trims and collapses whitespace", input: "  Sim,   quero  ", want: "sim, quero"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeReply(tt.input); got != tt.want {
				t.Errorf("NormalizeReply(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
