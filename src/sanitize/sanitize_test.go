package sanitize

import "testing"

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "color codes",
			input:    "\x1b[31mERROR\x1b[0m: something failed",
			expected: "ERROR: something failed",
		},
		{
			name:     "no ANSI",
			input:    "plain text message",
			expected: "plain text message",
		},
		{
			name:     "multiple codes",
			input:    "\x1b[1m\x1b[31mbold red\x1b[0m normal",
			expected: "bold red normal",
		},
		{
			name:     "gitlab section start",
			input:    "section_start:1560896352:step_script\r\x1b[0K\x1b[0K\x1b[36;1mExecuting \"step_script\"\x1b[0;m\n",
			expected: "Executing \"step_script\"\n",
		},
		{
			name:     "gitlab section end with options",
			input:    "done\nsection_end:1560896353:prepare_script[collapsed=true]\r\x1b[0K\n",
			expected: "done\n\n",
		},
		{
			name:     "erase line code",
			input:    "\x1b[0K$ npm run test",
			expected: "$ npm run test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := StripANSI(tt.input)
			if result != tt.expected {
				t.Errorf("StripANSI(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestClean(t *testing.T) {
	got := Clean("\x1b[32mok\x1b[0m\r\nnext\r\n")
	if got != "ok\nnext\n" {
		t.Errorf("Clean() = %q", got)
	}
}

func TestStripSections(t *testing.T) {
	in := "section_start:1560896352:step_script\r\x1b[0K\x1b[32mok\x1b[0m\r\n"
	want := "\x1b[32mok\x1b[0m\n"
	if got := StripSections(in); got != want {
		t.Errorf("StripSections() = %q, want %q", got, want)
	}
}

func TestTail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{name: "fewer lines than n", input: "a\nb\n", n: 5, want: "a\nb\n"},
		{name: "last two", input: "a\nb\nc\nd\n", n: 2, want: "c\nd\n"},
		{name: "no trailing newline", input: "a\nb\nc", n: 1, want: "c\n"},
		{name: "zero keeps all", input: "a\nb", n: 0, want: "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tail(tt.input, tt.n); got != tt.want {
				t.Errorf("Tail(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
			}
		})
	}
}
