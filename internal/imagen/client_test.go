package imagen

import (
	"strings"
	"testing"
)

func TestPendingURLDeterministic(t *testing.T) {
	prompt := "A young tourist at a bustling Budapest metro station"

	first := PendingURL(prompt)
	second := PendingURL(prompt)
	if first != second {
		t.Errorf("PendingURL not deterministic: %q vs %q", first, second)
	}
	if !strings.HasPrefix(first, "https://picsum.photos/seed/") {
		t.Errorf("Unexpected placeholder URL: %q", first)
	}
}

func TestPendingURLShortPrompt(t *testing.T) {
	if got := PendingURL("kávé"); !strings.Contains(got, "k%C3%A1v%C3%A9") {
		t.Errorf("Short prompt seed not preserved: %q", got)
	}
}

func TestFallbackURLStripsWhitespace(t *testing.T) {
	got := fallbackURL("a  busy\tmetro station")
	want := placeholder("abusymetrostation")
	if got != want {
		t.Errorf("fallbackURL = %q, want %q", got, want)
	}
}

func TestFallbackDiffersFromPending(t *testing.T) {
	prompt := "A barista behind an espresso machine"
	if PendingURL(prompt) == fallbackURL(prompt) {
		t.Error("Pending and fallback placeholders should use different seeds")
	}
}
