package tutoring

import "testing"

func TestGreetingByOrdinal(t *testing.T) {
	first := Greeting(1)
	if first != firstSessionGreeting {
		t.Errorf("expected the onboarding greeting for the first session, got %q", first)
	}

	for _, ordinal := range []int{2, 3, 10} {
		if got := Greeting(ordinal); got != returningSessionGreeting {
			t.Errorf("expected the returning greeting for session %d, got %q", ordinal, got)
		}
	}
}
