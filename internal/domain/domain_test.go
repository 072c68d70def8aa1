package domain_test

import (
	"errors"
	"testing"
	"time"

	"twitfetch/internal/domain"
)

func TestElementSelector_RendersAllShapes(t *testing.T) {
	testCases := []struct {
		name     string
		element  domain.Element
		expected string
	}{
		{name: "tag attribute value", element: domain.Element{Tag: "div", Attribute: "role", Value: "alert"}, expected: `div[role="alert"]`},
		{name: "tag attribute", element: domain.Element{Tag: "time", Attribute: "datetime"}, expected: `time[datetime]`},
		{name: "attribute value", element: domain.Element{Attribute: "data-testid", Value: "tweetText"}, expected: `[data-testid="tweetText"]`},
		{name: "tag only", element: domain.Element{Tag: "article"}, expected: `article`},
		{name: "quotes escaped", element: domain.Element{Tag: "a", Attribute: "title", Value: `say "hi"`}, expected: `a[title="say \"hi\""]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			got := tc.element.Selector()

			// Assert
			if got != tc.expected {
				t.Errorf("got %s, want %s", got, tc.expected)
			}
		})
	}
}

func TestElementWithValue_LeavesTemplateUntouched(t *testing.T) {
	// Arrange
	template := domain.Element{Tag: "input", Attribute: "class"}

	// Act
	resolved := template.WithValue("r-30o5oe r-1niwhzg")

	// Assert
	if template.Value != "" {
		t.Errorf("template mutated: %q", template.Value)
	}
	if resolved.Selector() != `input[class="r-30o5oe r-1niwhzg"]` {
		t.Errorf("resolved selector: got %s", resolved.Selector())
	}
}

func TestElementValid(t *testing.T) {
	if (domain.Element{Value: "x"}).Valid() {
		t.Error("value-only element should be invalid")
	}
	if !(domain.Element{Attribute: "href"}).Valid() {
		t.Error("attribute-only element should be valid")
	}
}

func TestNewTimeWindow_ParsesUTCDates(t *testing.T) {
	// Act
	w, err := domain.NewTimeWindow("2024-01-02", "2024-01-05")

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if w.Start == nil || !w.Start.Equal(want) {
		t.Errorf("Start: got %v, want %v", w.Start, want)
	}
	if w.Start.Location() != time.UTC {
		t.Errorf("Start location: got %v, want UTC", w.Start.Location())
	}
	if w.Key() != "2024-01-02..2024-01-05" {
		t.Errorf("Key: got %s", w.Key())
	}
}

func TestNewTimeWindow_EmptyBoundsAreOpen(t *testing.T) {
	w, err := domain.NewTimeWindow("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Start != nil || w.End != nil {
		t.Error("expected open window")
	}
	if !w.Contains(time.Now()) {
		t.Error("open window should contain any time")
	}
}

func TestNewTimeWindow_InvalidInput_ReturnsErrInvalidDate(t *testing.T) {
	testCases := []struct {
		name  string
		start string
		end   string
	}{
		{name: "bad start", start: "02/01/2024"},
		{name: "bad end", end: "tomorrow"},
		{name: "end before start", start: "2024-02-01", end: "2024-01-01"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewTimeWindow(tc.start, tc.end)
			if !errors.Is(err, domain.ErrInvalidDate) {
				t.Errorf("expected ErrInvalidDate, got %v", err)
			}
		})
	}
}

func TestTimeWindow_BeforeAfterContains(t *testing.T) {
	// Arrange
	w, _ := domain.NewTimeWindow("2024-01-02", "2024-01-05")
	early := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	inside := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	late := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC)

	// Assert
	if !w.Before(early) || w.Before(inside) {
		t.Error("Before mismatch")
	}
	if !w.After(late) || w.After(inside) {
		t.Error("After mismatch")
	}
	if !w.Contains(inside) || w.Contains(early) || w.Contains(late) {
		t.Error("Contains mismatch")
	}
}

func TestTargetValidate(t *testing.T) {
	if err := domain.AccountTarget("elonmusk").Validate(); err != nil {
		t.Errorf("account target: %v", err)
	}
	if err := domain.ListTarget("").Validate(); !errors.Is(err, domain.ErrInvalidTarget) {
		t.Errorf("empty list id: got %v", err)
	}
	if err := (domain.Target{Kind: "search", ID: "x"}).Validate(); !errors.Is(err, domain.ErrInvalidTarget) {
		t.Errorf("unknown kind: got %v", err)
	}
}
