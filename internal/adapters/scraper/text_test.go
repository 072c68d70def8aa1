package scraper

import (
	"testing"

	"twitfetch/internal/adapters/document"
)

func parse(t *testing.T, html string) document.Node {
	t.Helper()
	root, err := document.Parse(html)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return root
}

func TestCleanText_CollapsesWhitespace(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "a\n\nb   c\t", expected: "a b c"},
		{input: "  leading and trailing  ", expected: "leading and trailing"},
		{input: "", expected: ""},
		{input: "\n\t ", expected: ""},
		{input: "one\r\ntwo", expected: "one two"},
	}

	for _, tc := range testCases {
		// Act
		got := CleanText(tc.input)

		// Assert
		if got != tc.expected {
			t.Errorf("CleanText(%q): got %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestCleanText_IsIdempotent(t *testing.T) {
	inputs := []string{
		"a\n\nb   c\t",
		"already clean",
		"   non-breaking  space ",
		"emoji 🚀\n\nlaunch",
		"",
	}

	for _, in := range inputs {
		once := CleanText(in)
		if twice := CleanText(once); twice != once {
			t.Errorf("CleanText not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
